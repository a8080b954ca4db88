package repository

import (
	"context"
	"errors"

	"giveaway-bot/internal/features/giveaway/models"
)

var (
	ErrGiveawayNotFound = errors.New("giveaway not found")
)

// GiveawayRepository is the persistence contract for giveaway records.
//
// UpdateFields applies only the given fields, leaving every other field
// untouched (field-level merge, not whole-record overwrite): the expiration
// scheduler and the participation path race on the same record and must not
// clobber each other. Participant membership is mutated through atomic
// set-add/set-remove primitives for the same reason.
type GiveawayRepository interface {
	Create(ctx context.Context, giveaway *models.Giveaway) error
	GetByID(ctx context.Context, id string) (*models.Giveaway, error)
	GetByResultMessageID(ctx context.Context, resultMessageID string) (*models.Giveaway, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error

	ListAll(ctx context.Context) ([]*models.Giveaway, error)
	// ListScheduled returns confirmed, not-yet-ended giveaways: the only
	// records the expiration scheduler may consider due.
	ListScheduled(ctx context.Context) ([]*models.Giveaway, error)

	AddParticipant(ctx context.Context, giveawayID, userID string) error
	RemoveParticipant(ctx context.Context, giveawayID, userID string) error
	IsParticipant(ctx context.Context, giveawayID, userID string) (bool, error)
	GetParticipants(ctx context.Context, giveawayID string) ([]string, error)
	CountParticipants(ctx context.Context, giveawayID string) (int64, error)
}
