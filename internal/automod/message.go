package automod

import (
	"time"

	"github.com/castellan/castellan/internal/database/types"
)

// Message is the read-only input to the rule engine, extracted from a gateway
// message event. The engine never talks to the chat platform to enrich it;
// the caller supplies everything up front.
type Message struct {
	ID           uint64
	ChannelID    uint64
	GuildID      uint64 // Zero for direct messages
	UserID       uint64
	Content      string
	Mentions     int // User mentions in the message
	RoleMentions int
	IsBot        bool // Author is a bot or system account
	IsAdmin      bool // Author has administrator-equivalent permissions
	RoleNames    []string
	Timestamp    time.Time
}

// OutcomeKind classifies the result of processing one message.
type OutcomeKind int

const (
	// OutcomeBypassed means the top-level gate skipped the engine entirely.
	OutcomeBypassed OutcomeKind = iota
	// OutcomeClean means all rules passed.
	OutcomeClean
	// OutcomeViolated means a rule matched and remediation ran.
	OutcomeViolated
)

// Outcome reports what processing a message did.
type Outcome struct {
	Kind     OutcomeKind
	Rule     string           // Violated rule name, empty otherwise
	Action   types.ActionKind // Escalation action taken
	Degraded bool             // A remediation sub-action failed but the pipeline completed
}
