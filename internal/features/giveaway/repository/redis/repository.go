package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"giveaway-bot/internal/features/giveaway/models"
	"giveaway-bot/internal/features/giveaway/repository"
)

const (
	keyPrefixGiveaway    = "giveaway:"
	keyPrefixResultIndex = "giveaway:result:"
	keyAllGiveaways      = "giveaways:all"

	timeFormat = time.RFC3339Nano
)

type redisRepository struct {
	client *redis.Client
}

func NewGiveawayRepository(client *redis.Client) repository.GiveawayRepository {
	return &redisRepository{client: client}
}

func makeGiveawayKey(id string) string {
	return keyPrefixGiveaway + id
}

func makeParticipantsKey(id string) string {
	return makeGiveawayKey(id) + ":participants"
}

func makeResultIndexKey(resultMessageID string) string {
	return keyPrefixResultIndex + resultMessageID
}

func (r *redisRepository) Create(ctx context.Context, giveaway *models.Giveaway) error {
	fields, err := encodeGiveaway(giveaway)
	if err != nil {
		return fmt.Errorf("failed to encode giveaway: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, makeGiveawayKey(giveaway.ID), fields)
	pipe.SAdd(ctx, keyAllGiveaways, giveaway.ID)

	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisRepository) GetByID(ctx context.Context, id string) (*models.Giveaway, error) {
	data, err := r.client.HGetAll(ctx, makeGiveawayKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, repository.ErrGiveawayNotFound
	}
	return decodeGiveaway(data)
}

func (r *redisRepository) GetByResultMessageID(ctx context.Context, resultMessageID string) (*models.Giveaway, error) {
	id, err := r.client.Get(ctx, makeResultIndexKey(resultMessageID)).Result()
	if err == redis.Nil {
		return nil, repository.ErrGiveawayNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// UpdateFields writes only the given fields of the record hash. Fields not
// named stay untouched, so concurrent updates to unrelated fields never
// clobber each other.
func (r *redisRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	exists, err := r.client.Exists(ctx, makeGiveawayKey(id)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return repository.ErrGiveawayNotFound
	}

	encoded := make(map[string]interface{}, len(fields))
	for name, value := range fields {
		ev, err := encodeField(value)
		if err != nil {
			return fmt.Errorf("failed to encode field %q: %w", name, err)
		}
		encoded[name] = ev
	}

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, makeGiveawayKey(id), encoded)
	if resultID, ok := fields[models.FieldResultMessageID].(string); ok && resultID != "" {
		pipe.Set(ctx, makeResultIndexKey(resultID), id, 0)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisRepository) Delete(ctx context.Context, id string) error {
	giveaway, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, makeGiveawayKey(id))
	pipe.Del(ctx, makeParticipantsKey(id))
	pipe.SRem(ctx, keyAllGiveaways, id)
	if giveaway.ResultMessageID != "" {
		pipe.Del(ctx, makeResultIndexKey(giveaway.ResultMessageID))
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisRepository) ListAll(ctx context.Context) ([]*models.Giveaway, error) {
	ids, err := r.client.SMembers(ctx, keyAllGiveaways).Result()
	if err != nil {
		return nil, err
	}

	giveaways := make([]*models.Giveaway, 0, len(ids))
	for _, id := range ids {
		giveaway, err := r.GetByID(ctx, id)
		if err == repository.ErrGiveawayNotFound {
			// Stale index entry, drop it.
			r.client.SRem(ctx, keyAllGiveaways, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		giveaways = append(giveaways, giveaway)
	}
	return giveaways, nil
}

func (r *redisRepository) ListScheduled(ctx context.Context) ([]*models.Giveaway, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	scheduled := make([]*models.Giveaway, 0, len(all))
	for _, g := range all {
		if g.FinishedConfiguring && !g.Ended {
			scheduled = append(scheduled, g)
		}
	}
	return scheduled, nil
}

func (r *redisRepository) AddParticipant(ctx context.Context, giveawayID, userID string) error {
	return r.client.SAdd(ctx, makeParticipantsKey(giveawayID), userID).Err()
}

func (r *redisRepository) RemoveParticipant(ctx context.Context, giveawayID, userID string) error {
	return r.client.SRem(ctx, makeParticipantsKey(giveawayID), userID).Err()
}

func (r *redisRepository) IsParticipant(ctx context.Context, giveawayID, userID string) (bool, error) {
	return r.client.SIsMember(ctx, makeParticipantsKey(giveawayID), userID).Result()
}

func (r *redisRepository) GetParticipants(ctx context.Context, giveawayID string) ([]string, error) {
	return r.client.SMembers(ctx, makeParticipantsKey(giveawayID)).Result()
}

func (r *redisRepository) CountParticipants(ctx context.Context, giveawayID string) (int64, error) {
	return r.client.SCard(ctx, makeParticipantsKey(giveawayID)).Result()
}

func encodeGiveaway(g *models.Giveaway) (map[string]interface{}, error) {
	roles, err := json.Marshal(g.AllowedRoles)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"id":                            g.ID,
		models.FieldResultMessageID:     g.ResultMessageID,
		"channel_id":                    g.ChannelID,
		"guild_id":                      g.GuildID,
		"created_by":                    g.CreatedBy,
		"title":                         g.Title,
		"description":                   g.Description,
		"prize":                         g.Prize,
		models.FieldWinnerCount:         g.WinnerCount,
		models.FieldAllowedRoles:        string(roles),
		models.FieldEnded:               encodeBool(g.Ended),
		models.FieldFinishedConfiguring: encodeBool(g.FinishedConfiguring),
		models.FieldEndDate:             g.EndDate.UTC().Format(timeFormat),
		"created_at":                    g.CreatedAt.UTC().Format(timeFormat),
	}, nil
}

func encodeField(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(timeFormat), nil
	case bool:
		return encodeBool(v), nil
	case []string:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	default:
		return v, nil
	}
}

func encodeBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func decodeGiveaway(data map[string]string) (*models.Giveaway, error) {
	g := &models.Giveaway{
		ID:                  data["id"],
		ResultMessageID:     data[models.FieldResultMessageID],
		ChannelID:           data["channel_id"],
		GuildID:             data["guild_id"],
		CreatedBy:           data["created_by"],
		Title:               data["title"],
		Description:         data["description"],
		Prize:               data["prize"],
		Ended:               data[models.FieldEnded] == "1",
		FinishedConfiguring: data[models.FieldFinishedConfiguring] == "1",
	}

	if raw := data[models.FieldWinnerCount]; raw != "" {
		count, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid winner_count %q: %w", raw, err)
		}
		g.WinnerCount = count
	}

	if raw := data[models.FieldAllowedRoles]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &g.AllowedRoles); err != nil {
			return nil, fmt.Errorf("invalid allowed_roles: %w", err)
		}
	}

	var err error
	if g.EndDate, err = parseTime(data[models.FieldEndDate]); err != nil {
		return nil, fmt.Errorf("invalid end_date: %w", err)
	}
	if g.CreatedAt, err = parseTime(data["created_at"]); err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}

	return g, nil
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeFormat, raw)
}
