package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	apperrors "giveaway-bot/internal/common/errors"
	"giveaway-bot/internal/common/logger"
	"giveaway-bot/internal/features/giveaway/models"
	"giveaway-bot/internal/features/giveaway/service"
	guildservice "giveaway-bot/internal/features/guild/service"
)

// Component custom IDs. Every interactive component carries one of these
// tags; routing happens through a single dispatch table keyed by the tag.
const (
	ComponentEnter       = "giveaway:enter"
	ComponentConfirm     = "giveaway:confirm"
	ComponentCancel      = "giveaway:cancel"
	ComponentRoles       = "giveaway:roles"
	ComponentWinnerCount = "giveaway:winner_count"
)

type componentHandler func(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate)

// Handler routes slash commands and component interactions to the giveaway
// and guild services.
type Handler struct {
	service    service.GiveawayService
	guilds     guildservice.GuildService
	adminIDs   map[string]struct{}
	components map[string]componentHandler
}

func NewHandler(svc service.GiveawayService, guilds guildservice.GuildService, adminIDs []string) *Handler {
	h := &Handler{
		service:  svc,
		guilds:   guilds,
		adminIDs: make(map[string]struct{}, len(adminIDs)),
	}
	for _, id := range adminIDs {
		h.adminIDs[id] = struct{}{}
	}
	h.components = map[string]componentHandler{
		ComponentEnter:       h.onEnter,
		ComponentConfirm:     h.onConfirm,
		ComponentCancel:      h.onCancel,
		ComponentRoles:       h.onRolesSelect,
		ComponentWinnerCount: h.onWinnerCountSelect,
	}
	return h
}

// Register attaches the interaction handler to the session.
func (h *Handler) Register(session *discordgo.Session) {
	session.AddHandler(h.onInteractionCreate)
}

// Commands returns the application command definitions to register with the
// platform.
func Commands() []*discordgo.ApplicationCommand {
	manageGuild := int64(discordgo.PermissionManageServer)
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "giveaway",
			Description:              "Manage giveaways",
			DefaultMemberPermissions: &manageGuild,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "create",
					Description: "Create a new giveaway",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "prize",
							Description: "What the winners receive",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionChannel,
							Name:        "channel",
							Description: "Channel to announce the giveaway in",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "winner_count",
							Description: "Number of winners",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "end_date",
							Description: "End date in DD/MM/YYYY HH:mm (default: in one hour)",
							Required:    false,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "title",
							Description: "Title of the giveaway",
							Required:    false,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "description",
							Description: "Description of the giveaway",
							Required:    false,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "end",
					Description: "End a running giveaway now",
					Options:     messageIDOption(),
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "delete",
					Description: "Delete a giveaway and its messages",
					Options:     messageIDOption(),
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "reroll",
					Description: "Redraw the winners of an ended giveaway",
					Options:     messageIDOption(),
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List giveaways on this server",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "status",
							Description: "Filter by state (draft, open, closed)",
							Required:    false,
						},
						{
							Type:        discordgo.ApplicationCommandOptionChannel,
							Name:        "channel",
							Description: "Filter by channel",
							Required:    false,
						},
						{
							Type:        discordgo.ApplicationCommandOptionUser,
							Name:        "creator",
							Description: "Filter by creator",
							Required:    false,
						},
					},
				},
			},
		},
		{
			Name:        "timezone",
			Description: "Checks or sets the timezone for the server",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "timezone",
					Description: "The timezone to set for the server",
					Required:    false,
				},
			},
		},
	}
}

func messageIDOption() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "message_id",
			Description: "The giveaway's message ID",
			Required:    true,
		},
	}
}

func (h *Handler) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		switch data.Name {
		case "giveaway":
			h.onGiveawayCommand(ctx, s, i, data)
		case "timezone":
			h.onTimezoneCommand(ctx, s, i, data)
		}
	case discordgo.InteractionMessageComponent:
		if handler, ok := h.components[i.MessageComponentData().CustomID]; ok {
			handler(ctx, s, i)
		}
	}
}

func (h *Handler) onGiveawayCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if len(data.Options) == 0 {
		return
	}
	if err := deferEphemeral(s, i); err != nil {
		logger.Warn().Err(err).Msg("Failed to defer interaction")
		return
	}

	sub := data.Options[0]
	switch sub.Name {
	case "create":
		h.onCreate(ctx, s, i, sub)
	case "end":
		h.reportOutcome(s, i, h.service.End(ctx, optionString(sub, "message_id")),
			"Successfully ended the giveaway!")
	case "delete":
		h.reportOutcome(s, i, h.service.Delete(ctx, optionString(sub, "message_id")),
			"Successfully deleted the giveaway!")
	case "reroll":
		h.reportOutcome(s, i, h.service.Reroll(ctx, optionString(sub, "message_id")),
			"Successfully rerolled the giveaway!")
	case "list":
		h.onList(ctx, s, i, sub)
	}
}

func (h *Handler) onCreate(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	input := service.CreateInput{
		ChannelID:   optionChannelID(sub, "channel"),
		GuildID:     i.GuildID,
		CreatedBy:   interactionUserID(i),
		Title:       optionString(sub, "title"),
		Description: optionString(sub, "description"),
		Prize:       optionString(sub, "prize"),
		WinnerCount: int(optionInt(sub, "winner_count")),
		EndDate:     optionString(sub, "end_date"),
	}
	if input.ChannelID == "" {
		input.ChannelID = i.ChannelID
	}
	if input.Title == "" {
		input.Title = "🎉 New giveaway 🎉"
	}
	if input.Description == "" {
		input.Description = "Click on the button below to participate!"
	}

	giveaway, err := h.service.Create(ctx, input)
	if err != nil {
		h.reportOutcome(s, i, err, "")
		return
	}
	followup(s, i, fmt.Sprintf("Your giveaway creation process has been successfully initiated! Configure it on message `%s`.", giveaway.ID))
}

func (h *Handler) onList(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	filter := service.ListFilter{
		State:     models.State(optionString(sub, "status")),
		ChannelID: optionChannelID(sub, "channel"),
		CreatedBy: optionUserID(sub, "creator"),
	}

	giveaways, err := h.service.List(ctx, filter)
	if err != nil {
		h.reportOutcome(s, i, err, "")
		return
	}
	if len(giveaways) == 0 {
		followup(s, i, "There are no giveaways matching those filters.")
		return
	}

	lines := make([]string, 0, len(giveaways))
	for _, g := range giveaways {
		lines = append(lines, fmt.Sprintf("`%s` %s (%s, %d winners)", g.ID, g.Prize, g.State(), g.WinnerCount))
	}
	followup(s, i, strings.Join(lines, "\n"))
}

func (h *Handler) onTimezoneCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if err := deferEphemeral(s, i); err != nil {
		logger.Warn().Err(err).Msg("Failed to defer interaction")
		return
	}

	var requested string
	if len(data.Options) > 0 {
		requested, _ = data.Options[0].Value.(string)
	}

	if requested == "" {
		timezone, err := h.guilds.Timezone(ctx, i.GuildID)
		if err != nil {
			h.reportOutcome(s, i, err, "")
			return
		}
		followup(s, i, fmt.Sprintf("The timezone for this server is `%s`.", timezone))
		return
	}

	if err := h.guilds.SetTimezone(ctx, i.GuildID, requested); err != nil {
		h.reportOutcome(s, i, err, "")
		return
	}
	followup(s, i, fmt.Sprintf("The timezone for this server has been set to `%s`.", requested))
}

func (h *Handler) onEnter(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := deferEphemeral(s, i); err != nil {
		logger.Warn().Err(err).Msg("Failed to defer interaction")
		return
	}

	result, err := h.service.ToggleParticipation(ctx, i.Message.ID, interactionUserID(i), memberRoles(i), h.isAdmin(i))
	if err != nil {
		h.reportOutcome(s, i, err, "")
		return
	}
	if result.Joined {
		followup(s, i, "You have been added to the giveaway.")
	} else {
		followup(s, i, "You have been removed from the giveaway.")
	}
}

func (h *Handler) onConfirm(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := deferEphemeral(s, i); err != nil {
		logger.Warn().Err(err).Msg("Failed to defer interaction")
		return
	}

	_, err := h.service.Confirm(ctx, i.Message.ID, interactionUserID(i))
	h.reportOutcome(s, i, err, "Your giveaway has been created successfully!")
}

func (h *Handler) onCancel(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := deferEphemeral(s, i); err != nil {
		logger.Warn().Err(err).Msg("Failed to defer interaction")
		return
	}

	err := h.service.CancelDraft(ctx, i.Message.ID, interactionUserID(i))
	h.reportOutcome(s, i, err, "Your giveaway creation has been cancelled.")
}

func (h *Handler) onRolesSelect(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := deferEphemeral(s, i); err != nil {
		logger.Warn().Err(err).Msg("Failed to defer interaction")
		return
	}

	err := h.service.SetAllowedRoles(ctx, i.Message.ID, interactionUserID(i), i.MessageComponentData().Values)
	h.reportOutcome(s, i, err, "Allowed roles updated.")
}

func (h *Handler) onWinnerCountSelect(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := deferEphemeral(s, i); err != nil {
		logger.Warn().Err(err).Msg("Failed to defer interaction")
		return
	}

	values := i.MessageComponentData().Values
	if len(values) == 0 {
		followup(s, i, "No winner count selected.")
		return
	}
	count, err := strconv.Atoi(values[0])
	if err != nil {
		followup(s, i, "Invalid winner count selected.")
		return
	}

	h.reportOutcome(s, i, h.service.SetWinnerCount(ctx, i.Message.ID, interactionUserID(i), count),
		fmt.Sprintf("Maximum winners set to %d.", count))
}

// reportOutcome relays the operation result to the invoking user. User-facing
// application errors are surfaced verbatim; everything else is logged and
// replaced by a generic message.
func (h *Handler) reportOutcome(s *discordgo.Session, i *discordgo.InteractionCreate, err error, success string) {
	if err == nil {
		if success != "" {
			followup(s, i, success)
		}
		return
	}

	if appErr, ok := apperrors.AsAppError(err); ok && appErr.IsUserFacing() {
		followup(s, i, appErr.Message)
		return
	}
	logger.Error().Err(err).Msg("Interaction failed")
	followup(s, i, "Something went wrong. Please try again later.")
}

func (h *Handler) isAdmin(i *discordgo.InteractionCreate) bool {
	if _, ok := h.adminIDs[interactionUserID(i)]; ok {
		return true
	}
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

func deferEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
}

func followup(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to send followup message")
	}
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func memberRoles(i *discordgo.InteractionCreate) []string {
	if i.Member == nil {
		return nil
	}
	return i.Member.Roles
}

func optionString(sub *discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range sub.Options {
		if opt.Name == name {
			if v, ok := opt.Value.(string); ok {
				return v
			}
		}
	}
	return ""
}

func optionInt(sub *discordgo.ApplicationCommandInteractionDataOption, name string) int64 {
	for _, opt := range sub.Options {
		if opt.Name == name {
			if v, ok := opt.Value.(float64); ok {
				return int64(v)
			}
		}
	}
	return 0
}

func optionChannelID(sub *discordgo.ApplicationCommandInteractionDataOption, name string) string {
	return optionString(sub, name)
}

func optionUserID(sub *discordgo.ApplicationCommandInteractionDataOption, name string) string {
	return optionString(sub, name)
}
