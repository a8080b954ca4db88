package service

import (
	"context"
	"errors"
	"time"

	"giveaway-bot/internal/features/giveaway/models"
	guildservice "giveaway-bot/internal/features/guild/service"
)

// Messaging errors. Both are soft failures for every caller in this package:
// they are logged and local state is cleaned up, never propagated as fatal.
var (
	ErrMessageNotFound    = errors.New("message not found")
	ErrChannelUnavailable = errors.New("channel unavailable")
)

// MessageRef locates one chat message.
type MessageRef struct {
	ChannelID string
	MessageID string
}

// MessagingGateway is the consumed chat-platform surface. Implementations
// map platform errors to ErrMessageNotFound / ErrChannelUnavailable.
type MessagingGateway interface {
	SendMessage(ctx context.Context, channelID, content string) (MessageRef, error)
	FetchMessage(ctx context.Context, channelID, messageID string) (MessageRef, error)
	EditMessage(ctx context.Context, ref MessageRef, content string) error
	DeleteMessage(ctx context.Context, ref MessageRef) error
	ReplyTo(ctx context.Context, ref MessageRef, content string) (MessageRef, error)
}

// Renderer produces the message content for each giveaway view. Rendering is
// a collaborator so the lifecycle logic stays display-agnostic.
type Renderer interface {
	DraftPreview(g *models.Giveaway, endDate *guildservice.ResolvedTime) string
	OpenMessage(g *models.Giveaway, participants int64, endDate *guildservice.ResolvedTime) string
	ClosedMessage(g *models.Giveaway, participants int64, endedAt *guildservice.ResolvedTime) string
	ResultMessage(g *models.Giveaway, winners []string, participants int64) string
	RerollMessage(g *models.Giveaway, winners []string, participants int64) string
}

// CreateInput carries everything needed to open a draft giveaway.
type CreateInput struct {
	ChannelID   string
	GuildID     string
	CreatedBy   string
	Title       string
	Description string
	Prize       string
	WinnerCount int
	// EndDate is an optional compact-format time string. Empty means one
	// hour from now.
	EndDate string
}

// ToggleResult reports the outcome of a participation toggle.
type ToggleResult struct {
	Joined       bool
	Participants int64
}

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	State     models.State
	ChannelID string
	CreatedBy string
}

// GiveawayService exposes the giveaway lifecycle operations.
type GiveawayService interface {
	// Create validates the input, announces a draft preview message and
	// persists the draft keyed by that message's ID. The returned giveaway
	// stays invisible to the scheduler until Confirm.
	Create(ctx context.Context, input CreateInput) (*models.Giveaway, error)

	// Draft configuration, authorized against the organizer's session.
	SetAllowedRoles(ctx context.Context, messageID, userID string, roleIDs []string) error
	SetWinnerCount(ctx context.Context, messageID, userID string, count int) error
	Confirm(ctx context.Context, messageID, userID string) (*models.Giveaway, error)
	CancelDraft(ctx context.Context, messageID, userID string) error

	// ToggleParticipation joins the user if absent and removes them if
	// present. Guards are evaluated in order: record open, deadline not
	// passed, role eligibility (admins bypass).
	ToggleParticipation(ctx context.Context, messageID, userID string, roleIDs []string, isAdmin bool) (*ToggleResult, error)

	// End completes an open giveaway ahead of its deadline.
	End(ctx context.Context, messageID string) error
	// Delete removes the record and its chat messages from any state.
	Delete(ctx context.Context, messageID string) error
	// Reroll redraws winners of a closed giveaway from the same pool.
	Reroll(ctx context.Context, messageID string) error

	List(ctx context.Context, filter ListFilter) ([]*models.Giveaway, error)

	// CompleteGiveaway runs the completion side effects for one due
	// giveaway. Shared by the scheduler and the manual End path; guarded
	// against double processing.
	CompleteGiveaway(ctx context.Context, giveawayID string) error
}

// ExpirationScheduler is the recurring background task completing due
// giveaways.
type ExpirationScheduler interface {
	Start()
	Stop()
	Tick(ctx context.Context, now time.Time) error
}
