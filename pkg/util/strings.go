package util

import "unicode/utf8"

// MaxLogBodySize is the default cap applied to bodies written to logs.
const MaxLogBodySize = 1024

const truncatedSuffix = "...(truncated)"

// TruncateBody cuts data to at most maxSize bytes without splitting a UTF-8
// sequence, marking the cut with "...(truncated)". maxSize <= 0 means
// MaxLogBodySize.
func TruncateBody(data string, maxSize int) string {
	if maxSize <= 0 {
		maxSize = MaxLogBodySize
	}
	if len(data) <= maxSize {
		return data
	}

	cut := maxSize
	for cut > 0 && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return data[:cut] + truncatedSuffix
}
