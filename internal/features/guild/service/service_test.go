package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "giveaway-bot/internal/common/errors"
	"giveaway-bot/internal/features/guild/models"
	"giveaway-bot/internal/features/guild/repository"
)

type fakeGuildRepo struct {
	settings map[string]*models.GuildSettings
}

func newFakeGuildRepo() *fakeGuildRepo {
	return &fakeGuildRepo{settings: make(map[string]*models.GuildSettings)}
}

func (r *fakeGuildRepo) Get(ctx context.Context, guildID string) (*models.GuildSettings, error) {
	settings, ok := r.settings[guildID]
	if !ok {
		return nil, repository.ErrGuildNotFound
	}
	clone := *settings
	return &clone, nil
}

func (r *fakeGuildRepo) Upsert(ctx context.Context, settings *models.GuildSettings) error {
	clone := *settings
	r.settings[settings.ID] = &clone
	return nil
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestGuildService(t *testing.T) (*guildService, *fakeGuildRepo) {
	t.Helper()
	repo := newFakeGuildRepo()
	svc := NewGuildService(repo).(*guildService)
	svc.now = func() time.Time { return testNow }
	return svc, repo
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("empty input resolves to now", func(t *testing.T) {
		svc, _ := newTestGuildService(t)

		resolved, err := svc.Resolve(ctx, "guild-1", "")
		require.NoError(t, err)
		assert.True(t, resolved.Time.Equal(testNow))
		assert.Equal(t, "15/06/2025 12:00", resolved.Compact)
	})

	t.Run("parses the compact grammar", func(t *testing.T) {
		svc, _ := newTestGuildService(t)

		resolved, err := svc.Resolve(ctx, "guild-1", "24/12/2025 18:30")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 12, 24, 18, 30, 0, 0, time.UTC), resolved.Time.UTC())
		assert.Equal(t, "24/12/2025 18:30", resolved.Compact)
		assert.Equal(t, "Wed 24 Dec 2025 at 18:30 (UTC)", resolved.Medium)
		assert.Equal(t, "Wednesday, December 24 2025, 18:30:00 (UTC)", resolved.Long)
	})

	t.Run("interprets the input in the guild timezone", func(t *testing.T) {
		svc, repo := newTestGuildService(t)
		repo.settings["guild-1"] = &models.GuildSettings{ID: "guild-1", Timezone: "Europe/Paris"}

		resolved, err := svc.Resolve(ctx, "guild-1", "24/12/2025 18:30")
		require.NoError(t, err)
		// Paris is UTC+1 in December.
		assert.Equal(t, time.Date(2025, 12, 24, 17, 30, 0, 0, time.UTC), resolved.Time.UTC())
	})

	t.Run("rejects input outside the grammar", func(t *testing.T) {
		svc, _ := newTestGuildService(t)

		for _, input := range []string{"2025-12-24 18:30", "24/12/2025", "18:30", "tomorrow"} {
			_, err := svc.Resolve(ctx, "guild-1", input)
			require.Error(t, err, "input %q", input)
			appErr, ok := apperrors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeInvalidInput, appErr.Code)
			assert.Contains(t, appErr.Message, CompactGrammar)
		}
	})

	t.Run("an unloadable stored zone falls back to UTC", func(t *testing.T) {
		svc, repo := newTestGuildService(t)
		repo.settings["guild-1"] = &models.GuildSettings{ID: "guild-1", Timezone: "Not/AZone"}

		resolved, err := svc.Resolve(ctx, "guild-1", "24/12/2025 18:30")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 12, 24, 18, 30, 0, 0, time.UTC), resolved.Time.UTC())
	})
}

func TestResolveInstant(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestGuildService(t)
	repo.settings["guild-1"] = &models.GuildSettings{ID: "guild-1", Timezone: "Europe/Paris"}

	instant := time.Date(2025, 12, 24, 17, 30, 0, 0, time.UTC)
	resolved, err := svc.ResolveInstant(ctx, "guild-1", instant)
	require.NoError(t, err)
	assert.True(t, resolved.Time.Equal(instant), "the instant itself does not move")
	assert.Equal(t, "24/12/2025 18:30", resolved.Compact, "rendered in guild-local time")
}

func TestTimezone(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to UTC", func(t *testing.T) {
		svc, _ := newTestGuildService(t)

		timezone, err := svc.Timezone(ctx, "guild-1")
		require.NoError(t, err)
		assert.Equal(t, "UTC", timezone)
	})

	t.Run("set and read back", func(t *testing.T) {
		svc, _ := newTestGuildService(t)

		require.NoError(t, svc.SetTimezone(ctx, "guild-1", "Asia/Tokyo"))
		timezone, err := svc.Timezone(ctx, "guild-1")
		require.NoError(t, err)
		assert.Equal(t, "Asia/Tokyo", timezone)
	})

	t.Run("rejects an unknown zone", func(t *testing.T) {
		svc, repo := newTestGuildService(t)

		err := svc.SetTimezone(ctx, "guild-1", "Not/AZone")
		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeInvalidInput, appErr.Code)
		assert.Empty(t, repo.settings)
	})

	t.Run("updating keeps the creation timestamp", func(t *testing.T) {
		svc, repo := newTestGuildService(t)

		require.NoError(t, svc.SetTimezone(ctx, "guild-1", "Asia/Tokyo"))
		created := repo.settings["guild-1"].CreatedAt

		svc.now = func() time.Time { return testNow.Add(time.Hour) }
		require.NoError(t, svc.SetTimezone(ctx, "guild-1", "Europe/Paris"))

		assert.Equal(t, created, repo.settings["guild-1"].CreatedAt)
		assert.Equal(t, testNow.Add(time.Hour), repo.settings["guild-1"].UpdatedAt)
	})
}
