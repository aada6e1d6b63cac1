// Package matching checks captured response bodies and fields against
// expectations. It backs both the simtest assertions and scenario files.
//
// Supported checks:
//
//   - JSONPath: a value (or an {exists: bool} check) at a path in a JSON body
//   - XPath: the trimmed text or attribute value at a path in an XML body
//   - Schema: validation of a JSON body against a JSON Schema (draft 2020-12)
//   - Expr: a boolean expr-lang expression evaluated over an environment
//
// Every check returns nil on success. A failed check returns an error wrapping
// ErrMismatch; a malformed expression or body returns an error wrapping
// ErrInvalid.
package matching
