package matching

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// XPath extracts the value at xpath from an XML body and compares it with
// expected.
func XPath(body []byte, xpath, expected string) error {
	actual, found, err := ExtractXPath(body, xpath)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: xpath %s: no node, want %q", ErrMismatch, xpath, expected)
	}
	if actual != expected {
		return fmt.Errorf("%w: xpath %s: got %q, want %q", ErrMismatch, xpath, actual, expected)
	}
	return nil
}

// ExtractXPath returns the trimmed element text or attribute value at xpath.
//
// Supported XPath syntax:
//   - /path/to/element - absolute path
//   - //element - find anywhere in document
//   - /path/to/element/@attr - attribute value
//   - /path/to/element[1] - indexed access (1-based)
func ExtractXPath(body []byte, xpath string) (string, bool, error) {
	if xpath == "" {
		return "", false, fmt.Errorf("%w: empty xpath", ErrInvalid)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return "", false, fmt.Errorf("%w: body is not XML: %v", ErrInvalid, err)
	}
	if doc.Root() == nil {
		return "", false, fmt.Errorf("%w: body is not XML", ErrInvalid)
	}

	if elemPath, attrName, ok := strings.Cut(xpath, "/@"); ok {
		path, err := etree.CompilePath(elemPath)
		if err != nil {
			return "", false, fmt.Errorf("%w: xpath %q: %v", ErrInvalid, xpath, err)
		}
		if elem := doc.FindElementPath(path); elem != nil {
			if attr := elem.SelectAttr(attrName); attr != nil {
				return attr.Value, true, nil
			}
		}
		return "", false, nil
	}

	path, err := etree.CompilePath(xpath)
	if err != nil {
		return "", false, fmt.Errorf("%w: xpath %q: %v", ErrInvalid, xpath, err)
	}
	elem := doc.FindElementPath(path)
	if elem == nil {
		return "", false, nil
	}
	return strings.TrimSpace(elem.Text()), true, nil
}
