// Package bot wires the Discord gateway to the auto-moderation engine and
// implements the moderation and configuration slash commands.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/castellan/castellan/internal/automod"
	"github.com/castellan/castellan/internal/bot/constants"
	"github.com/castellan/castellan/internal/database"
	"github.com/castellan/castellan/internal/redis"
	"github.com/castellan/castellan/internal/setup/config"
	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Bot owns the Discord client and every component that reacts to gateway
// events: the rule engine for messages, command handlers for interactions,
// and guild bookkeeping.
type Bot struct {
	db       database.Client
	client   bot.Client
	engine   *automod.Engine
	gateway  *restGateway
	notifier *notifier
	pool     *pool.Pool
	tracker  automod.Tracker
	logger   *zap.Logger

	requestTimeout time.Duration
}

// New initializes the bot: the Discord client with the required gateway
// intents and caches, the rate tracker backend, and the moderation engine
// with its collaborators.
func New(
	cfg *config.Config,
	db database.Client,
	redisManager *redis.Manager,
	logger *zap.Logger,
) (*Bot, error) {
	b := &Bot{
		db:             db,
		logger:         logger.Named("bot"),
		requestTimeout: time.Duration(cfg.Automod.RequestTimeout) * time.Millisecond,
	}

	client, err := disgo.New(cfg.Discord.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMembers,
				gateway.IntentGuildMessages,
				gateway.IntentMessageContent,
			),
		),
		bot.WithCacheConfigOpts(
			cache.WithCaches(
				cache.FlagGuilds,
				cache.FlagRoles,
				cache.FlagMembers,
				cache.FlagChannels,
			),
		),
		bot.WithEventListeners(&events.ListenerAdapter{
			OnGuildMessageCreate:            b.handleGuildMessageCreate,
			OnGuildJoin:                     b.handleGuildJoin,
			OnGuildMemberJoin:               b.handleGuildMemberJoin,
			OnApplicationCommandInteraction: b.handleApplicationCommandInteraction,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord client: %w", err)
	}

	b.client = client
	b.gateway = newRESTGateway(client, logger)
	b.notifier = newNotifier(client, logger)
	b.pool = pool.New().WithMaxGoroutines(cfg.Automod.Workers)

	tracker, err := newTracker(cfg, redisManager, logger)
	if err != nil {
		return nil, err
	}

	b.tracker = tracker

	executor := automod.NewExecutor(
		b.gateway, db.Model().ModLog(),
		b.requestTimeout,
		time.Duration(cfg.Automod.BanRetentionHours)*time.Hour,
		logger,
	)

	b.engine = automod.NewEngine(
		db.Model().GuildConfig(), db.Model().Warning(), tracker, executor, b.notifier,
		automod.Options{BotID: uint64(client.ApplicationID())},
		logger,
	)

	return b, nil
}

// newTracker selects the rate tracker backend from configuration. Redis is
// the default; the in-memory tracker suits single-process deployments.
func newTracker(
	cfg *config.Config, redisManager *redis.Manager, logger *zap.Logger,
) (automod.Tracker, error) {
	if cfg.Automod.TrackerBackend == "memory" {
		return automod.NewMemTracker(), nil
	}

	client, err := redisManager.GetClient(redis.AutomodDBIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate tracker client: %w", err)
	}

	return automod.NewRedisTracker(client, logger), nil
}

// Start registers the slash commands globally and opens the gateway
// connection.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Registering commands")

	_, err := b.client.Rest().SetGlobalCommands(b.client.ApplicationID(), commandDefinitions())
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	b.logger.Info("Starting bot")

	return b.client.OpenGateway(ctx)
}

// Close drains in-flight message processing and shuts down the gateway
// connection.
func (b *Bot) Close() {
	b.logger.Info("Closing bot")
	b.pool.Wait()
	b.client.Close(context.Background())
}

// handleGuildMessageCreate extracts the engine's view of the message on the
// event goroutine, then hands processing to the worker pool so slow storage
// never blocks the gateway reader.
func (b *Bot) handleGuildMessageCreate(event *events.GuildMessageCreate) {
	message := event.Message

	var roleNames []string

	isAdmin := false
	if message.Member != nil {
		roleNames = b.memberRoleNames(event.GuildID, message.Member.RoleIDs)
		isAdmin = b.memberIsAdmin(event.GuildID, message.Member.RoleIDs)
	}

	msg := &automod.Message{
		ID:           uint64(message.ID),
		ChannelID:    uint64(message.ChannelID),
		GuildID:      uint64(event.GuildID),
		UserID:       uint64(message.Author.ID),
		Content:      message.Content,
		Mentions:     len(message.Mentions),
		RoleMentions: len(message.MentionRoles),
		IsBot:        message.Author.Bot || message.Author.System,
		IsAdmin:      isAdmin,
		RoleNames:    roleNames,
		Timestamp:    message.ID.Time(),
	}

	b.pool.Go(func() {
		if _, err := b.engine.ProcessMessage(context.Background(), msg); err != nil {
			b.logger.Error("Failed to process message",
				zap.Uint64("guildID", msg.GuildID),
				zap.Uint64("messageID", msg.ID),
				zap.Error(err))
		}
	})
}

// handleGuildJoin seeds the default configuration row for new guilds.
func (b *Bot) handleGuildJoin(event *events.GuildJoin) {
	ctx, cancel := context.WithTimeout(context.Background(), b.requestTimeout)
	defer cancel()

	if err := b.db.Model().GuildConfig().Ensure(ctx, uint64(event.GuildID)); err != nil {
		b.logger.Error("Failed to seed guild config",
			zap.Uint64("guildID", uint64(event.GuildID)),
			zap.Error(err))

		return
	}

	b.logger.Info("Joined guild",
		zap.Uint64("guildID", uint64(event.GuildID)),
		zap.String("name", event.Guild.Name))
}

// handleGuildMemberJoin sends the configured welcome message.
func (b *Bot) handleGuildMemberJoin(event *events.GuildMemberJoin) {
	ctx, cancel := context.WithTimeout(context.Background(), b.requestTimeout)
	defer cancel()

	cfg, err := b.db.Model().GuildConfig().Get(ctx, uint64(event.GuildID))
	if err != nil {
		b.logger.Error("Failed to load guild config for welcome",
			zap.Uint64("guildID", uint64(event.GuildID)),
			zap.Error(err))

		return
	}

	b.notifier.Welcome(ctx, cfg, uint64(event.Member.User.ID))
}

// handleApplicationCommandInteraction defers the response, validates the
// caller's permissions and dispatches to the command handlers in a goroutine.
func (b *Bot) handleApplicationCommandInteraction(event *events.ApplicationCommandInteractionCreate) {
	go func() {
		if err := event.DeferCreateMessage(true); err != nil {
			b.logger.Error("Failed to defer create message", zap.Error(err))
			return
		}

		data := event.SlashCommandInteractionData()

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Panic in application command interaction handler", zap.Any("panic", r))
				b.respondError(event, "Internal error. Please report this to an administrator.")
			}

			b.logger.Debug("Application command interaction handled",
				zap.String("command", data.CommandName()),
				zap.Duration("duration", time.Since(start)))
		}()

		if event.GuildID() == nil {
			b.respondError(event, "This command can only be used in a server.")
			return
		}

		guildID := *event.GuildID()

		ctx, cancel := context.WithTimeout(context.Background(), b.requestTimeout)
		defer cancel()

		cfg, err := b.db.Model().GuildConfig().Get(ctx, uint64(guildID))
		if err != nil {
			b.respondError(event, "Failed to load server configuration. Please try again later.")
			return
		}

		if data.CommandName() == constants.ConfigCommandName {
			if !isGuildAdmin(event.Member()) {
				b.respondError(event, "You need the Manage Server permission to use this command.")
				return
			}

			b.handleConfig(ctx, event, data, cfg)

			return
		}

		if !b.canModerate(cfg, guildID, event.Member()) {
			b.respondError(event, "You do not have permission to use this command.")
			return
		}

		switch data.CommandName() {
		case constants.WarnCommandName:
			b.handleWarn(ctx, event, data, cfg)
		case constants.WarningsCommandName:
			b.handleWarnings(ctx, event, data)
		case constants.UnwarnCommandName:
			b.handleUnwarn(ctx, event, data, cfg)
		case constants.ClearWarnsCommandName:
			b.handleClearWarns(ctx, event, data, cfg)
		case constants.TimeoutCommandName:
			b.handleTimeout(ctx, event, data, cfg)
		case constants.UntimeoutCommandName:
			b.handleUntimeout(ctx, event, data, cfg)
		case constants.KickCommandName:
			b.handleKick(ctx, event, data, cfg)
		case constants.BanCommandName:
			b.handleBan(ctx, event, data, cfg)
		case constants.UnbanCommandName:
			b.handleUnban(ctx, event, data, cfg)
		case constants.PurgeCommandName:
			b.handlePurge(ctx, event, data, cfg)
		case constants.ModLogsCommandName:
			b.handleModLogs(ctx, event)
		default:
			b.respondError(event, "This command is not available.")
		}
	}()
}

// respond replaces the deferred interaction response with an embed.
func (b *Bot) respond(event *events.ApplicationCommandInteractionCreate, embed discord.Embed) {
	_, err := event.Client().Rest().UpdateInteractionResponse(
		event.ApplicationID(), event.Token(),
		discord.NewMessageUpdateBuilder().SetEmbeds(embed).Build(),
	)
	if err != nil {
		b.logger.Error("Failed to update interaction response", zap.Error(err))
	}
}

func (b *Bot) respondError(event *events.ApplicationCommandInteractionCreate, text string) {
	b.respond(event, discord.NewEmbedBuilder().
		SetDescription(text).
		SetColor(constants.ColorError).
		Build())
}
