package scanning

import (
	"strings"
	"unicode"
)

// NormalizeBarcode converts a decoded barcode payload into the identifier
// sent to the catalog. Separators are removed, an EAN/UPC add-on (the 2 or
// 5 digit price supplement) is dropped, and an ISBN-10 check digit "x" is
// upper-cased.
func NormalizeBarcode(value string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return r
	}, value)

	if isDigits(cleaned) {
		switch len(cleaned) {
		case 13 + 2, 13 + 5:
			return cleaned[:13]
		case 12 + 2, 12 + 5:
			return cleaned[:12]
		}
		return cleaned
	}

	if len(cleaned) == 10 && isDigits(cleaned[:9]) && (cleaned[9] == 'x' || cleaned[9] == 'X') {
		return cleaned[:9] + "X"
	}
	return cleaned
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
