package response

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// decodeFunc renders body bytes as a string.
type decodeFunc func([]byte) (string, error)

func rawString(b []byte) (string, error) {
	return string(b), nil
}

// decoderFor resolves an encoding name. The empty name decodes as UTF-8.
func decoderFor(name string) (decodeFunc, error) {
	switch strings.ToLower(name) {
	case "", "utf8", "utf-8":
		return func(b []byte) (string, error) {
			return strings.ToValidUTF8(string(b), "\uFFFD"), nil
		}, nil
	case "hex":
		return func(b []byte) (string, error) {
			return hex.EncodeToString(b), nil
		}, nil
	case "base64":
		return func(b []byte) (string, error) {
			return base64.StdEncoding.EncodeToString(b), nil
		}, nil
	case "base64url":
		return func(b []byte) (string, error) {
			return base64.RawURLEncoding.EncodeToString(b), nil
		}, nil
	case "ascii":
		return func(b []byte) (string, error) {
			out := make([]byte, len(b))
			for i, c := range b {
				out[i] = c & 0x7f
			}
			return string(out), nil
		}, nil
	case "latin1", "binary":
		return func(b []byte) (string, error) {
			out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
			if err != nil {
				return "", fmt.Errorf("decode latin1 body: %w", err)
			}
			return string(out), nil
		}, nil
	case "utf16le", "utf-16le", "ucs2", "ucs-2":
		return func(b []byte) (string, error) {
			dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
			out, err := dec.Bytes(b)
			if err != nil {
				return "", fmt.Errorf("decode utf16le body: %w", err)
			}
			return string(out), nil
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown encoding %q", ErrInvalidArgument, name)
	}
}

// bodyBytes validates End data. The boolean reports whether data was a
// string, in which case the encoding does not apply.
func bodyBytes(data any) ([]byte, bool, error) {
	switch v := data.(type) {
	case nil:
		return nil, false, nil
	case string:
		return []byte(v), true, nil
	case []byte:
		return v, false, nil
	case *bytes.Buffer:
		if v == nil {
			return nil, false, nil
		}
		return v.Bytes(), false, nil
	default:
		return nil, false, fmt.Errorf("%w: body must be a string, []byte or *bytes.Buffer, got %T", ErrInvalidArgument, data)
	}
}
