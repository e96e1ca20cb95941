package automod

// Rule names reported in outcomes and audit entries.
const (
	RuleProfanity = "profanity"
	RuleSpamRate  = "spam_rate"
	RuleSpamDupes = "spam_duplicate"
	RuleMentions  = "excessive_mentions"
	RuleEmoji     = "excessive_emoji"
	RuleZalgo     = "zalgo"
)

// Violation describes a single detected content-policy breach.
type Violation struct {
	Rule    string
	Message string // Human-readable description shown in alerts and logs
}
