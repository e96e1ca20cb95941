package automod

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/castellan/castellan/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConfigs struct {
	cfg *types.GuildConfig
	err error
}

func (f *fakeConfigs) Get(_ context.Context, _ uint64) (*types.GuildConfig, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.cfg, nil
}

// fakeWarnings mimics the ledger's append contract: appends are serialized,
// so every caller observes its own post-insert count.
type fakeWarnings struct {
	mu      sync.Mutex
	count   int
	err     error
	reasons []string
}

func (f *fakeWarnings) Append(
	_ context.Context, guildID, userID, moderatorID uint64, reason string,
) (*types.Warning, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.count++
	f.reasons = append(f.reasons, reason)

	return &types.Warning{
		GuildID:     guildID,
		UserID:      userID,
		ModeratorID: moderatorID,
		Reason:      reason,
	}, f.count, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []*types.ModerationLog
	err     error
}

func (f *fakeAudit) Append(_ context.Context, entry *types.ModerationLog) error {
	if f.err != nil {
		return f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries = append(f.entries, entry)

	return nil
}

type fakeGateway struct {
	mu sync.Mutex

	deleteErr  error
	timeoutErr error
	banErr     error

	deletes  int
	timeouts int
	bans     int

	lastTimeoutUntil time.Time
	lastBanRetention time.Duration
}

func (f *fakeGateway) DeleteMessage(_ context.Context, _, _ uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deletes++

	return f.deleteErr
}

func (f *fakeGateway) TimeoutMember(
	_ context.Context, _, _ uint64, until time.Time, _ string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.timeouts++
	f.lastTimeoutUntil = until

	return f.timeoutErr
}

func (f *fakeGateway) BanMember(
	_ context.Context, _, _ uint64, retention time.Duration, _ string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.bans++
	f.lastBanRetention = retention

	return f.banErr
}

type countingTracker struct {
	inner Tracker
	calls int
	err   error
}

func (t *countingTracker) Track(
	ctx context.Context, guildID, userID uint64, content string, now time.Time,
) (RateState, error) {
	t.calls++

	if t.err != nil {
		return RateState{}, t.err
	}

	return t.inner.Track(ctx, guildID, userID, content, now)
}

type engineFixture struct {
	engine   *Engine
	configs  *fakeConfigs
	warnings *fakeWarnings
	audit    *fakeAudit
	gateway  *fakeGateway
	tracker  *countingTracker
}

const testBotID = 999

func newEngineFixture(cfg *types.GuildConfig) *engineFixture {
	f := &engineFixture{
		configs:  &fakeConfigs{cfg: cfg},
		warnings: &fakeWarnings{},
		audit:    &fakeAudit{},
		gateway:  &fakeGateway{},
		tracker:  &countingTracker{inner: NewMemTracker()},
	}

	logger := zap.NewNop()
	executor := NewExecutor(f.gateway, f.audit, 5*time.Second, 24*time.Hour, logger)
	f.engine = NewEngine(
		f.configs, f.warnings, f.tracker, executor, nil, Options{BotID: testBotID}, logger,
	)

	return f
}

func testMessage(content string) *Message {
	return &Message{
		ID:        1,
		ChannelID: 10,
		GuildID:   100,
		UserID:    200,
		Content:   content,
		Timestamp: time.Now(),
	}
}

func TestEngineBypass(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(cfg *types.GuildConfig, msg *Message)
	}{
		{
			name:   "bot author",
			modify: func(_ *types.GuildConfig, msg *Message) { msg.IsBot = true },
		},
		{
			name:   "bot itself",
			modify: func(_ *types.GuildConfig, msg *Message) { msg.UserID = testBotID },
		},
		{
			name:   "direct message",
			modify: func(_ *types.GuildConfig, msg *Message) { msg.GuildID = 0 },
		},
		{
			name:   "administrator",
			modify: func(_ *types.GuildConfig, msg *Message) { msg.IsAdmin = true },
		},
		{
			name: "immune role",
			modify: func(cfg *types.GuildConfig, msg *Message) {
				cfg.ImmuneRoles = []string{"Trusted"}
				msg.RoleNames = []string{"Member", "Trusted"}
			},
		},
		{
			name:   "automod disabled",
			modify: func(cfg *types.GuildConfig, _ *Message) { cfg.AutomodEnabled = false },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := types.NewGuildConfig(100)
			cfg.BlacklistWords = []string{"badword"}
			msg := testMessage("badword spam spam spam")
			tt.modify(cfg, msg)

			f := newEngineFixture(cfg)

			outcome, err := f.engine.ProcessMessage(context.Background(), msg)
			require.NoError(t, err)
			assert.Equal(t, OutcomeBypassed, outcome.Kind)

			// Bypassed messages must leave no trace anywhere.
			assert.Zero(t, f.tracker.calls)
			assert.Empty(t, f.warnings.reasons)
			assert.Zero(t, f.gateway.deletes)
			assert.Empty(t, f.audit.entries)
		})
	}
}

func TestEngineClean(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(types.NewGuildConfig(100))

	outcome, err := f.engine.ProcessMessage(context.Background(), testMessage("hello there"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeClean, outcome.Kind)
	assert.Empty(t, f.warnings.reasons)
	assert.Zero(t, f.gateway.deletes)
}

func TestEngineProfanity(t *testing.T) {
	t.Parallel()

	cfg := types.NewGuildConfig(100)
	cfg.BlacklistWords = []string{"badword"}
	f := newEngineFixture(cfg)

	outcome, err := f.engine.ProcessMessage(context.Background(), testMessage("you BADWORD"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeViolated, outcome.Kind)
	assert.Equal(t, RuleProfanity, outcome.Rule)
	assert.Equal(t, types.ActionKindNone, outcome.Action)
	assert.False(t, outcome.Degraded)

	require.Len(t, f.warnings.reasons, 1)
	assert.Contains(t, f.warnings.reasons[0], "badword")
	assert.Equal(t, 1, f.gateway.deletes)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, types.ModActionAutoWarn, f.audit.entries[0].Action)

	// Profanity fires before spam tracking, so the tracker stays untouched.
	assert.Zero(t, f.tracker.calls)
}

func TestEngineProfanityDisabled(t *testing.T) {
	t.Parallel()

	cfg := types.NewGuildConfig(100)
	cfg.BlacklistWords = []string{"badword"}
	cfg.ProfanityFilter = false
	f := newEngineFixture(cfg)

	outcome, err := f.engine.ProcessMessage(context.Background(), testMessage("you badword"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeClean, outcome.Kind)
	assert.Equal(t, 1, f.tracker.calls)
}

func TestEngineRateSpam(t *testing.T) {
	t.Parallel()

	cfg := types.NewGuildConfig(100)
	cfg.Thresholds.MessagesPerMinute = 3
	f := newEngineFixture(cfg)

	ctx := context.Background()

	// The limit is strict greater-than: the 3rd message is still clean.
	for i := range 3 {
		msg := testMessage("message " + string(rune('a'+i)))
		outcome, err := f.engine.ProcessMessage(ctx, msg)
		require.NoError(t, err)
		assert.Equal(t, OutcomeClean, outcome.Kind)
	}

	outcome, err := f.engine.ProcessMessage(ctx, testMessage("message d"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeViolated, outcome.Kind)
	assert.Equal(t, RuleSpamRate, outcome.Rule)
}

func TestEngineDuplicateSpam(t *testing.T) {
	t.Parallel()

	cfg := types.NewGuildConfig(100)
	cfg.Thresholds.MessagesPerMinute = 100
	cfg.Thresholds.DuplicateMessages = 3
	f := newEngineFixture(cfg)

	ctx := context.Background()

	// Streaks count consecutive repeats only: four identical messages give a
	// duplicate count of 3, which meets the inclusive limit.
	for range 3 {
		outcome, err := f.engine.ProcessMessage(ctx, testMessage("same"))
		require.NoError(t, err)
		assert.Equal(t, OutcomeClean, outcome.Kind)
	}

	outcome, err := f.engine.ProcessMessage(ctx, testMessage("same"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeViolated, outcome.Kind)
	assert.Equal(t, RuleSpamDupes, outcome.Rule)
}

func TestEngineDuplicateStreakReset(t *testing.T) {
	t.Parallel()

	cfg := types.NewGuildConfig(100)
	cfg.Thresholds.MessagesPerMinute = 100
	cfg.Thresholds.DuplicateMessages = 2
	f := newEngineFixture(cfg)

	ctx := context.Background()

	for _, content := range []string{"same", "same", "different", "same", "same"} {
		outcome, err := f.engine.ProcessMessage(ctx, testMessage(content))
		require.NoError(t, err)
		assert.Equal(t, OutcomeClean, outcome.Kind, "content %q", content)
	}

	outcome, err := f.engine.ProcessMessage(ctx, testMessage("same"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeViolated, outcome.Kind)
	assert.Equal(t, RuleSpamDupes, outcome.Rule)
}

func TestEngineSpamDisabled(t *testing.T) {
	t.Parallel()

	cfg := types.NewGuildConfig(100)
	cfg.SpamDetection = false
	cfg.Thresholds.MessagesPerMinute = 1
	f := newEngineFixture(cfg)

	ctx := context.Background()

	for range 5 {
		outcome, err := f.engine.ProcessMessage(ctx, testMessage("hello"))
		require.NoError(t, err)
		assert.Equal(t, OutcomeClean, outcome.Kind)
	}

	assert.Zero(t, f.tracker.calls)
}

func TestEngineMentionBoundary(t *testing.T) {
	t.Parallel()

	cfg := types.NewGuildConfig(100)
	cfg.Thresholds.MentionLimit = 5
	f := newEngineFixture(cfg)

	ctx := context.Background()

	atLimit := testMessage("hi everyone")
	atLimit.Mentions = 3
	atLimit.RoleMentions = 2

	outcome, err := f.engine.ProcessMessage(ctx, atLimit)
	require.NoError(t, err)
	assert.Equal(t, OutcomeClean, outcome.Kind)

	overLimit := testMessage("hi everyone")
	overLimit.Mentions = 4
	overLimit.RoleMentions = 2

	outcome, err = f.engine.ProcessMessage(ctx, overLimit)
	require.NoError(t, err)
	assert.Equal(t, OutcomeViolated, outcome.Kind)
	assert.Equal(t, RuleMentions, outcome.Rule)
}

func TestEngineEscalation(t *testing.T) {
	t.Parallel()

	cfg := types.NewGuildConfig(100)
	cfg.BlacklistWords = []string{"badword"}
	cfg.TimeoutDuration = 600
	cfg.EscalationPolicy = map[int]types.ActionKind{
		2: types.ActionKindTimeout,
		3: types.ActionKindBan,
	}
	f := newEngineFixture(cfg)

	ctx := context.Background()

	// First warning: no policy entry, warn only.
	outcome, err := f.engine.ProcessMessage(ctx, testMessage("badword"))
	require.NoError(t, err)
	assert.Equal(t, types.ActionKindNone, outcome.Action)
	assert.Zero(t, f.gateway.timeouts)

	// Second warning hits the timeout entry.
	outcome, err = f.engine.ProcessMessage(ctx, testMessage("badword"))
	require.NoError(t, err)
	assert.Equal(t, types.ActionKindTimeout, outcome.Action)
	assert.Equal(t, 1, f.gateway.timeouts)
	assert.WithinDuration(t, time.Now().Add(600*time.Second), f.gateway.lastTimeoutUntil, 5*time.Second)

	// Third warning hits the ban entry.
	outcome, err = f.engine.ProcessMessage(ctx, testMessage("badword"))
	require.NoError(t, err)
	assert.Equal(t, types.ActionKindBan, outcome.Action)
	assert.Equal(t, 1, f.gateway.bans)
	assert.Equal(t, 24*time.Hour, f.gateway.lastBanRetention)

	// Fourth warning: past the last entry, exact matching means warn only.
	outcome, err = f.engine.ProcessMessage(ctx, testMessage("badword"))
	require.NoError(t, err)
	assert.Equal(t, types.ActionKindNone, outcome.Action)
	assert.Equal(t, 1, f.gateway.bans)

	require.Len(t, f.audit.entries, 4)
	assert.Equal(t, types.ModActionAutoWarn, f.audit.entries[0].Action)
	assert.Equal(t, types.ModActionTimeout, f.audit.entries[1].Action)
	assert.Equal(t, 600, f.audit.entries[1].Duration)
	assert.Equal(t, types.ModActionBan, f.audit.entries[2].Action)
}

func TestEngineDegradedOnForbidden(t *testing.T) {
	t.Parallel()

	cfg := types.NewGuildConfig(100)
	cfg.BlacklistWords = []string{"badword"}
	cfg.EscalationPolicy = map[int]types.ActionKind{1: types.ActionKindTimeout}
	f := newEngineFixture(cfg)
	f.gateway.timeoutErr = ErrForbidden

	outcome, err := f.engine.ProcessMessage(context.Background(), testMessage("badword"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeViolated, outcome.Kind)
	assert.Equal(t, types.ActionKindTimeout, outcome.Action)
	assert.True(t, outcome.Degraded)

	// Warning and audit survive even though the gateway refused the timeout.
	require.Len(t, f.warnings.reasons, 1)
	require.Len(t, f.audit.entries, 1)
}

func TestEngineDeleteNotFoundTolerated(t *testing.T) {
	t.Parallel()

	cfg := types.NewGuildConfig(100)
	cfg.BlacklistWords = []string{"badword"}
	f := newEngineFixture(cfg)
	f.gateway.deleteErr = ErrNotFound

	outcome, err := f.engine.ProcessMessage(context.Background(), testMessage("badword"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeViolated, outcome.Kind)
	assert.False(t, outcome.Degraded)
}

func TestEngineDeleteForbiddenDegrades(t *testing.T) {
	t.Parallel()

	cfg := types.NewGuildConfig(100)
	cfg.BlacklistWords = []string{"badword"}
	f := newEngineFixture(cfg)
	f.gateway.deleteErr = ErrForbidden

	outcome, err := f.engine.ProcessMessage(context.Background(), testMessage("badword"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeViolated, outcome.Kind)
	assert.True(t, outcome.Degraded)
	require.Len(t, f.warnings.reasons, 1)
}

func TestEngineWarningStorageFailure(t *testing.T) {
	t.Parallel()

	cfg := types.NewGuildConfig(100)
	cfg.BlacklistWords = []string{"badword"}
	f := newEngineFixture(cfg)
	f.warnings.err = errors.New("connection refused")

	_, err := f.engine.ProcessMessage(context.Background(), testMessage("badword"))
	require.Error(t, err)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)

	// The warning append comes first: nothing must reach the gateway.
	assert.Zero(t, f.gateway.deletes)
	assert.Empty(t, f.audit.entries)
}

func TestEngineTrackerFailure(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(types.NewGuildConfig(100))
	f.tracker.err = errors.New("redis down")

	_, err := f.engine.ProcessMessage(context.Background(), testMessage("hello"))
	require.Error(t, err)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Empty(t, f.warnings.reasons)
}

func TestEngineConcurrentEscalationFiresOnce(t *testing.T) {
	t.Parallel()

	cfg := types.NewGuildConfig(100)
	cfg.BlacklistWords = []string{"badword"}
	cfg.EscalationPolicy = map[int]types.ActionKind{3: types.ActionKindTimeout}
	f := newEngineFixture(cfg)

	// The user sits one warning below the escalation entry. Two violations
	// land on separate workers at the same time: the appends serialize to
	// counts 3 and 4, so the entry at 3 must fire exactly once.
	f.warnings.count = 2

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			outcome, err := f.engine.ProcessMessage(context.Background(), testMessage("badword"))
			assert.NoError(t, err)
			assert.Equal(t, OutcomeViolated, outcome.Kind)
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, f.gateway.timeouts)
	require.Len(t, f.audit.entries, 2)

	timeouts := 0
	for _, entry := range f.audit.entries {
		if entry.Action == types.ModActionTimeout {
			timeouts++
		}
	}

	assert.Equal(t, 1, timeouts)
}

func TestEngineConfigFallback(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(nil)
	f.configs.err = errors.New("database unavailable")

	outcome, err := f.engine.ProcessMessage(context.Background(), testMessage("hello"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeClean, outcome.Kind)
}
