package service

import (
	"context"
	"time"

	apperrors "giveaway-bot/internal/common/errors"
	"giveaway-bot/internal/features/guild/models"
	"giveaway-bot/internal/features/guild/repository"
)

const (
	// CompactLayout is the editable grammar users type end dates in.
	CompactLayout = "02/01/2006 15:04"
	// CompactGrammar is how the grammar is described back to users.
	CompactGrammar = "DD/MM/YYYY HH:mm"

	mediumLayout = "Mon 02 Jan 2006 at 15:04 (MST)"
	longLayout   = "Monday, January 02 2006, 15:04:05 (MST)"
)

// ResolvedTime is an absolute instant tagged with the three human-readable
// renderings in the guild's timezone.
type ResolvedTime struct {
	Time    time.Time
	Compact string
	Medium  string
	Long    string
}

// GuildService resolves guild-local time expressions and manages the
// per-guild timezone preference.
type GuildService interface {
	// Resolve converts an optional compact-format time string to an absolute
	// instant in the guild's timezone. An empty input resolves to now.
	Resolve(ctx context.Context, guildID, input string) (*ResolvedTime, error)
	// ResolveInstant re-renders an already-absolute instant in the guild's
	// timezone.
	ResolveInstant(ctx context.Context, guildID string, t time.Time) (*ResolvedTime, error)

	Timezone(ctx context.Context, guildID string) (string, error)
	SetTimezone(ctx context.Context, guildID, timezone string) error
}

type guildService struct {
	repo repository.GuildRepository
	now  func() time.Time
}

func NewGuildService(repo repository.GuildRepository) GuildService {
	return &guildService{
		repo: repo,
		now:  time.Now,
	}
}

func (s *guildService) location(ctx context.Context, guildID string) (*time.Location, error) {
	name := models.DefaultTimezone
	settings, err := s.repo.Get(ctx, guildID)
	switch err {
	case nil:
		name = settings.Timezone
	case repository.ErrGuildNotFound:
		// No preference stored, fall back to UTC.
	default:
		return nil, apperrors.NewDatabaseError("guild settings lookup", err)
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		// A stored but unloadable zone should not break time resolution.
		return time.UTC, nil
	}
	return loc, nil
}

func (s *guildService) Resolve(ctx context.Context, guildID, input string) (*ResolvedTime, error) {
	loc, err := s.location(ctx, guildID)
	if err != nil {
		return nil, err
	}

	if input == "" {
		return render(s.now().In(loc)), nil
	}

	t, err := time.ParseInLocation(CompactLayout, input, loc)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(
			"Time must be in the format of `" + CompactGrammar + "`.").
			WithDetail("input", input)
	}
	return render(t), nil
}

func (s *guildService) ResolveInstant(ctx context.Context, guildID string, t time.Time) (*ResolvedTime, error) {
	loc, err := s.location(ctx, guildID)
	if err != nil {
		return nil, err
	}
	return render(t.In(loc)), nil
}

func (s *guildService) Timezone(ctx context.Context, guildID string) (string, error) {
	settings, err := s.repo.Get(ctx, guildID)
	if err == repository.ErrGuildNotFound {
		return models.DefaultTimezone, nil
	}
	if err != nil {
		return "", apperrors.NewDatabaseError("guild settings lookup", err)
	}
	return settings.Timezone, nil
}

func (s *guildService) SetTimezone(ctx context.Context, guildID, timezone string) error {
	if _, err := time.LoadLocation(timezone); err != nil {
		return apperrors.NewInvalidInputError("Invalid timezone. Please try again.").
			WithDetail("timezone", timezone)
	}

	settings, err := s.repo.Get(ctx, guildID)
	now := s.now()
	switch err {
	case nil:
		settings.Timezone = timezone
		settings.UpdatedAt = now
	case repository.ErrGuildNotFound:
		settings = &models.GuildSettings{
			ID:        guildID,
			Timezone:  timezone,
			CreatedAt: now,
			UpdatedAt: now,
		}
	default:
		return apperrors.NewDatabaseError("guild settings lookup", err)
	}

	if err := s.repo.Upsert(ctx, settings); err != nil {
		return apperrors.NewDatabaseError("guild settings upsert", err)
	}
	return nil
}

func render(t time.Time) *ResolvedTime {
	return &ResolvedTime{
		Time:    t,
		Compact: t.Format(CompactLayout),
		Medium:  t.Format(mediumLayout),
		Long:    t.Format(longLayout),
	}
}
