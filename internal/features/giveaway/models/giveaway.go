package models

import (
	"errors"
	"time"
)

var (
	ErrInvalidWinnerCount = errors.New("winner count must be at least 1")
	ErrEndDateInPast      = errors.New("end date cannot be in the past")
	ErrMissingPrize       = errors.New("prize must not be empty")
)

// State is the lifecycle state of a giveaway, derived from the persisted
// flags rather than stored on its own.
type State string

const (
	// StateDraft means the giveaway was created but the organizer has not
	// confirmed it yet. Drafts are invisible to the scheduler and closed for
	// participation.
	StateDraft State = "draft"
	// StateOpen means the giveaway is confirmed and accepting participants.
	StateOpen State = "open"
	// StateClosed means winners were drawn. Closed giveaways accept rerolls
	// but no participation changes.
	StateClosed State = "closed"
)

// Giveaway is one timed drawing. Its ID equals the ID of the chat message it
// was announced with, which is globally unique and never changes.
type Giveaway struct {
	// ID is the originating chat message ID.
	ID string `json:"id" redis:"id"`
	// ResultMessageID references the follow-up message posted at completion.
	// Empty until the giveaway ends.
	ResultMessageID string `json:"result_message_id,omitempty" redis:"result_message_id"`

	ChannelID string `json:"channel_id" redis:"channel_id"`
	GuildID   string `json:"guild_id" redis:"guild_id"`
	CreatedBy string `json:"created_by" redis:"created_by"`

	Title       string `json:"title" redis:"title"`
	Description string `json:"description" redis:"description"`
	Prize       string `json:"prize" redis:"prize"`

	WinnerCount int `json:"winner_count" redis:"winner_count"`
	// AllowedRoles restricts participation when non-empty. An empty set means
	// anyone may enter.
	AllowedRoles []string `json:"allowed_roles"`

	// Ended flips false -> true exactly once, at completion.
	Ended bool `json:"ended" redis:"ended"`
	// FinishedConfiguring flips false -> true exactly once, when the
	// organizer confirms the draft. The scheduler never sees a giveaway as
	// due before it is set.
	FinishedConfiguring bool `json:"finished_configuring" redis:"finished_configuring"`

	// EndDate is set at creation (strictly in the future) and reset to the
	// completion instant when the giveaway ends.
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
}

// State derives the lifecycle state from the persisted flags.
func (g *Giveaway) State() State {
	switch {
	case g.Ended:
		return StateClosed
	case g.FinishedConfiguring:
		return StateOpen
	default:
		return StateDraft
	}
}

// HasEnded reports whether the deadline has passed, regardless of whether the
// scheduler has flipped the Ended flag yet.
func (g *Giveaway) HasEnded(now time.Time) bool {
	return g.Ended || !now.Before(g.EndDate)
}

// IsRoleAllowed reports whether a holder of the given roles may participate.
// Administrators bypass the check at the call site, not here.
func (g *Giveaway) IsRoleAllowed(roleIDs []string) bool {
	if len(g.AllowedRoles) == 0 {
		return true
	}
	allowed := make(map[string]struct{}, len(g.AllowedRoles))
	for _, id := range g.AllowedRoles {
		allowed[id] = struct{}{}
	}
	for _, id := range roleIDs {
		if _, ok := allowed[id]; ok {
			return true
		}
	}
	return false
}

// Validate checks the construction invariants. It must pass before anything
// is persisted or any message is sent.
func (g *Giveaway) Validate(now time.Time) error {
	if g.WinnerCount < 1 {
		return ErrInvalidWinnerCount
	}
	if g.Prize == "" {
		return ErrMissingPrize
	}
	if !g.EndDate.After(now) {
		return ErrEndDateInPast
	}
	return nil
}

// Field names accepted by the store's partial update. Kept next to the model
// so the repository and the services agree on the wire names.
const (
	FieldResultMessageID     = "result_message_id"
	FieldWinnerCount         = "winner_count"
	FieldAllowedRoles        = "allowed_roles"
	FieldEnded               = "ended"
	FieldFinishedConfiguring = "finished_configuring"
	FieldEndDate             = "end_date"
)
