package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"giveaway-bot/internal/features/guild/models"
	"giveaway-bot/internal/features/guild/repository"
)

const keyPrefixGuild = "guild:"

type redisRepository struct {
	client *redis.Client
}

func NewGuildRepository(client *redis.Client) repository.GuildRepository {
	return &redisRepository{client: client}
}

func makeGuildKey(id string) string {
	return keyPrefixGuild + id
}

func (r *redisRepository) Get(ctx context.Context, guildID string) (*models.GuildSettings, error) {
	data, err := r.client.Get(ctx, makeGuildKey(guildID)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrGuildNotFound
	}
	if err != nil {
		return nil, err
	}

	var settings models.GuildSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode guild settings: %w", err)
	}
	return &settings, nil
}

func (r *redisRepository) Upsert(ctx context.Context, settings *models.GuildSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode guild settings: %w", err)
	}
	return r.client.Set(ctx, makeGuildKey(settings.ID), data, 0).Err()
}
