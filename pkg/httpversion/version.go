// Package httpversion parses HTTP protocol version values.
//
// A version may be given as a dotted string ("1.1"), a two-element pair
// ([]int{1, 1}, []any{1, 1}, [2]int{1, 1}) or a record (Version, or any
// string-keyed map with "major" and "minor" entries). Any other value,
// including nil, resolves to HTTP/1.0 without validation.
package httpversion

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ErrInvalidVersion is returned when a version value is malformed or
// out of range.
var ErrInvalidVersion = errors.New("invalid http version")

// Version is a validated HTTP protocol version.
type Version struct {
	Major int `json:"major" yaml:"major"`
	Minor int `json:"minor" yaml:"minor"`
}

// Default is the version used when no version is given.
var Default = Version{Major: 1, Minor: 0}

// String returns the version in "M.N" form.
func (v Version) String() string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
}

// Proto returns the version in request-line form, e.g. "HTTP/1.1".
func (v Version) Proto() string {
	return "HTTP/" + v.String()
}

// Parse decodes spec into a Version.
func Parse(spec any) (Version, error) {
	var (
		major, minor any
		err          error
	)

	switch v := spec.(type) {
	case nil:
		return Default, nil
	case string:
		major, minor, err = parseString(v)
	case Version:
		major, minor = v.Major, v.Minor
	case *Version:
		if v == nil {
			return Default, nil
		}
		major, minor = v.Major, v.Minor
	default:
		rv := reflect.ValueOf(spec)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			major, minor, err = parsePair(rv)
		case reflect.Map:
			major, minor, err = parseRecord(rv)
		default:
			return Default, nil
		}
	}
	if err != nil {
		return Version{}, err
	}

	return validate(major, minor)
}

// MustParse is like Parse but panics on error.
func MustParse(spec any) Version {
	v, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return v
}

func parseString(s string) (any, any, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("%w: %q: expected MAJOR.MINOR", ErrInvalidVersion, s)
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %q: failed to parse major number", ErrInvalidVersion, s)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %q: failed to parse minor number", ErrInvalidVersion, s)
	}

	return major, minor, nil
}

func parsePair(rv reflect.Value) (any, any, error) {
	if rv.Len() != 2 {
		return nil, nil, fmt.Errorf("%w: pair must have exactly two elements, got %d", ErrInvalidVersion, rv.Len())
	}
	return rv.Index(0).Interface(), rv.Index(1).Interface(), nil
}

func parseRecord(rv reflect.Value) (any, any, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return nil, nil, fmt.Errorf("%w: record keys must be strings", ErrInvalidVersion)
	}

	field := func(name string) (any, bool) {
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	}

	major, ok := field("major")
	if !ok {
		return nil, nil, fmt.Errorf("%w: record is missing the major field", ErrInvalidVersion)
	}
	minor, ok := field("minor")
	if !ok {
		return nil, nil, fmt.Errorf("%w: record is missing the minor field", ErrInvalidVersion)
	}

	return major, minor, nil
}

func validate(major, minor any) (Version, error) {
	maj, ok := toInt(major)
	if !ok {
		return Version{}, fmt.Errorf("%w: major version is not a number: %v", ErrInvalidVersion, major)
	}
	mnr, ok := toInt(minor)
	if !ok {
		return Version{}, fmt.Errorf("%w: minor version is not a number: %v", ErrInvalidVersion, minor)
	}

	if maj <= 0 {
		return Version{}, fmt.Errorf("%w: major version must be larger than 0, got %d", ErrInvalidVersion, maj)
	}
	if mnr < 0 {
		return Version{}, fmt.Errorf("%w: minor version must not be negative, got %d", ErrInvalidVersion, mnr)
	}

	return Version{Major: maj, Minor: mnr}, nil
}

// toInt accepts any integer kind and integral, finite floats.
func toInt(v any) (int, bool) {
	if v == nil {
		return 0, false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n < math.MinInt32 || n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := rv.Uint()
		if n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, false
		}
		if f < math.MinInt32 || f > math.MaxInt32 {
			return 0, false
		}
		return int(f), true
	default:
		return 0, false
	}
}
