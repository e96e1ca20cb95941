package automod

import (
	"testing"
	"time"

	"github.com/castellan/castellan/internal/database/types"
	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	t.Parallel()

	cfg := types.NewGuildConfig(1)
	cfg.TimeoutDuration = 900
	cfg.EscalationPolicy = map[int]types.ActionKind{
		3: types.ActionKindTimeout,
		5: types.ActionKindBan,
	}

	tests := []struct {
		name  string
		count int
		want  Decision
	}{
		{name: "below first entry", count: 2, want: Decision{Action: types.ActionKindNone}},
		{
			name:  "timeout entry",
			count: 3,
			want:  Decision{Action: types.ActionKindTimeout, Duration: 900 * time.Second},
		},
		{name: "between entries", count: 4, want: Decision{Action: types.ActionKindNone}},
		{name: "ban entry", count: 5, want: Decision{Action: types.ActionKindBan}},
		{name: "past last entry", count: 6, want: Decision{Action: types.ActionKindNone}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, Decide(tt.count, cfg))
		})
	}
}

func TestDecideEmptyPolicy(t *testing.T) {
	t.Parallel()

	cfg := types.NewGuildConfig(1)

	assert.Equal(t, Decision{Action: types.ActionKindNone}, Decide(1, cfg))
	assert.Equal(t, Decision{Action: types.ActionKindNone}, Decide(100, cfg))
}

func TestDecideUnknownActionKind(t *testing.T) {
	t.Parallel()

	cfg := types.NewGuildConfig(1)
	cfg.EscalationPolicy = map[int]types.ActionKind{2: types.ActionKind("kick")}

	assert.Equal(t, Decision{Action: types.ActionKindNone}, Decide(2, cfg))
}
