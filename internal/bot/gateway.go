package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/castellan/castellan/internal/automod"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/json"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
)

// restGateway adapts the Discord REST API to the engine's gateway interface
// and extends it with the calls the command handlers need. Every method
// translates REST failures into the automod error taxonomy.
type restGateway struct {
	client bot.Client
	logger *zap.Logger
}

func newRESTGateway(client bot.Client, logger *zap.Logger) *restGateway {
	return &restGateway{
		client: client,
		logger: logger.Named("gateway"),
	}
}

// translateRESTError maps HTTP status codes onto the error kinds the engine
// understands. Non-REST failures (timeouts, connection errors) become
// transport errors.
func translateRESTError(err error) error {
	if err == nil {
		return nil
	}

	var restErr rest.Error
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusForbidden:
			return fmt.Errorf("%w: %s", automod.ErrForbidden, restErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", automod.ErrNotFound, restErr.Message)
		}
	}

	return fmt.Errorf("%w: %w", automod.ErrTransport, err)
}

func (g *restGateway) DeleteMessage(ctx context.Context, channelID, messageID uint64) error {
	return translateRESTError(g.client.Rest().DeleteMessage(
		snowflake.ID(channelID), snowflake.ID(messageID), rest.WithCtx(ctx),
	))
}

func (g *restGateway) TimeoutMember(
	ctx context.Context, guildID, userID uint64, until time.Time, reason string,
) error {
	_, err := g.client.Rest().UpdateMember(
		snowflake.ID(guildID), snowflake.ID(userID),
		discord.MemberUpdate{CommunicationDisabledUntil: json.NewNullablePtr(until)},
		rest.WithCtx(ctx), rest.WithReason(reason),
	)

	return translateRESTError(err)
}

func (g *restGateway) RemoveTimeout(ctx context.Context, guildID, userID uint64, reason string) error {
	_, err := g.client.Rest().UpdateMember(
		snowflake.ID(guildID), snowflake.ID(userID),
		discord.MemberUpdate{CommunicationDisabledUntil: json.NullPtr[time.Time]()},
		rest.WithCtx(ctx), rest.WithReason(reason),
	)

	return translateRESTError(err)
}

func (g *restGateway) BanMember(
	ctx context.Context, guildID, userID uint64, retention time.Duration, reason string,
) error {
	return translateRESTError(g.client.Rest().AddBan(
		snowflake.ID(guildID), snowflake.ID(userID), retention,
		rest.WithCtx(ctx), rest.WithReason(reason),
	))
}

func (g *restGateway) UnbanMember(ctx context.Context, guildID, userID uint64, reason string) error {
	return translateRESTError(g.client.Rest().DeleteBan(
		snowflake.ID(guildID), snowflake.ID(userID),
		rest.WithCtx(ctx), rest.WithReason(reason),
	))
}

func (g *restGateway) KickMember(ctx context.Context, guildID, userID uint64, reason string) error {
	return translateRESTError(g.client.Rest().RemoveMember(
		snowflake.ID(guildID), snowflake.ID(userID),
		rest.WithCtx(ctx), rest.WithReason(reason),
	))
}

// PurgeMessages deletes up to count recent messages from a channel and
// returns how many it removed. A non-zero userID restricts deletion to that
// author. Messages older than the bulk-delete cutoff (14 days) are skipped
// because Discord rejects them.
func (g *restGateway) PurgeMessages(
	ctx context.Context, channelID uint64, count int, userID uint64, reason string,
) (int, error) {
	messages, err := g.client.Rest().GetMessages(
		snowflake.ID(channelID), 0, 0, 0, count, rest.WithCtx(ctx),
	)
	if err != nil {
		return 0, translateRESTError(err)
	}

	cutoff := time.Now().Add(-14 * 24 * time.Hour)

	ids := make([]snowflake.ID, 0, len(messages))
	for _, message := range messages {
		if !message.ID.Time().After(cutoff) {
			continue
		}

		if userID != 0 && uint64(message.Author.ID) != userID {
			continue
		}

		ids = append(ids, message.ID)
	}

	switch len(ids) {
	case 0:
		return 0, nil
	case 1:
		err = g.client.Rest().DeleteMessage(
			snowflake.ID(channelID), ids[0], rest.WithCtx(ctx), rest.WithReason(reason),
		)
	default:
		err = g.client.Rest().BulkDeleteMessages(
			snowflake.ID(channelID), ids, rest.WithCtx(ctx), rest.WithReason(reason),
		)
	}

	if err != nil {
		return 0, translateRESTError(err)
	}

	return len(ids), nil
}
