package service

import "strings"

const (
	maskSymbol           = "*"
	panVisibleTailLength = 4
)

// MaskFull replaces every character of value with the mask symbol.
// Empty input yields empty output.
func MaskFull(value string) string {
	return strings.Repeat(maskSymbol, len(value))
}

// MaskPAN hides all but the last four characters of a card PAN so the tail
// stays visible for user confirmation. Values of four characters or fewer
// are masked entirely.
func MaskPAN(pan string) string {
	if len(pan) <= panVisibleTailLength {
		return strings.Repeat(maskSymbol, len(pan))
	}
	hidden := len(pan) - panVisibleTailLength
	return strings.Repeat(maskSymbol, hidden) + pan[hidden:]
}
