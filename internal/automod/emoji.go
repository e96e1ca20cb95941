package automod

import (
	"fmt"
	"regexp"
	"unicode"

	"github.com/castellan/castellan/internal/database/types"
)

// customEmojiPattern matches Discord custom emoji tokens like <:name:123>
// and animated variants <a:name:123>.
var customEmojiPattern = regexp.MustCompile(`<a?:[a-zA-Z0-9_]+:[0-9]+>`)

// emojiRanges covers the Unicode emoji blocks counted by the emoji check.
var emojiRanges = &unicode.RangeTable{
	R32: []unicode.Range32{
		{Lo: 0x2600, Hi: 0x26FF, Stride: 1},   // Miscellaneous Symbols
		{Lo: 0x2700, Hi: 0x27BF, Stride: 1},   // Dingbats
		{Lo: 0x1F300, Hi: 0x1F5FF, Stride: 1}, // Misc Symbols and Pictographs
		{Lo: 0x1F600, Hi: 0x1F64F, Stride: 1}, // Emoticons
		{Lo: 0x1F680, Hi: 0x1F6FF, Stride: 1}, // Transport and Map
		{Lo: 0x1F700, Hi: 0x1F77F, Stride: 1}, // Alchemical Symbols
		{Lo: 0x1F780, Hi: 0x1F7FF, Stride: 1}, // Geometric Shapes Extended
		{Lo: 0x1F800, Hi: 0x1F8FF, Stride: 1}, // Supplemental Arrows-C
		{Lo: 0x1F900, Hi: 0x1F9FF, Stride: 1}, // Supplemental Symbols and Pictographs
		{Lo: 0x1FA00, Hi: 0x1FA6F, Stride: 1}, // Chess Symbols
		{Lo: 0x1FA70, Hi: 0x1FAFF, Stride: 1}, // Symbols and Pictographs Extended-A
	},
}

// checkEmoji counts custom emoji tokens plus Unicode emoji code points and
// flags content above the configured limit. Not individually toggleable.
func checkEmoji(cfg *types.GuildConfig, msg *Message) *Violation {
	total := countEmoji(msg.Content)
	if total > cfg.Thresholds.EmojiLimit {
		return &Violation{
			Rule: RuleEmoji,
			Message: fmt.Sprintf("Excessive emojis: %d emojis (limit: %d)",
				total, cfg.Thresholds.EmojiLimit),
		}
	}

	return nil
}

func countEmoji(content string) int {
	count := len(customEmojiPattern.FindAllString(content, -1))

	for _, r := range content {
		if unicode.Is(emojiRanges, r) {
			count++
		}
	}

	return count
}
