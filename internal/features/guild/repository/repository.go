package repository

import (
	"context"
	"errors"

	"giveaway-bot/internal/features/guild/models"
)

var ErrGuildNotFound = errors.New("guild settings not found")

type GuildRepository interface {
	Get(ctx context.Context, guildID string) (*models.GuildSettings, error)
	Upsert(ctx context.Context, settings *models.GuildSettings) error
}
