package automod

import (
	"unicode"
)

// zalgoThreshold is the fixed number of combining marks above which content
// is treated as obfuscated. Not configurable.
const zalgoThreshold = 10

// combiningRanges covers the combining-diacritic blocks used to stack marks
// on top of regular characters.
var combiningRanges = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0300, Hi: 0x036F, Stride: 1}, // Combining Diacritical Marks
		{Lo: 0x1AB0, Hi: 0x1AFF, Stride: 1}, // Combining Diacritical Marks Extended
		{Lo: 0x1DC0, Hi: 0x1DFF, Stride: 1}, // Combining Diacritical Marks Supplement
		{Lo: 0x20D0, Hi: 0x20FF, Stride: 1}, // Combining Marks for Symbols
		{Lo: 0xFE20, Hi: 0xFE2F, Stride: 1}, // Combining Half Marks
	},
}

// checkZalgo flags content with heavily stacked combining marks.
func checkZalgo(msg *Message) *Violation {
	if countCombiningMarks(msg.Content) > zalgoThreshold {
		return &Violation{
			Rule:    RuleZalgo,
			Message: "Zalgo text detected",
		}
	}

	return nil
}

func countCombiningMarks(content string) int {
	count := 0

	for _, r := range content {
		if unicode.Is(combiningRanges, r) {
			count++
		}
	}

	return count
}
