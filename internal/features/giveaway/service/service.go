package service

import (
	"context"
	"strings"
	"sync"
	"time"

	apperrors "giveaway-bot/internal/common/errors"
	"giveaway-bot/internal/common/logger"
	"giveaway-bot/internal/features/giveaway/models"
	"giveaway-bot/internal/features/giveaway/repository"
	guildservice "giveaway-bot/internal/features/guild/service"
)

const defaultDuration = time.Hour

type giveawayService struct {
	repo     repository.GiveawayRepository
	guilds   guildservice.GuildService
	gateway  MessagingGateway
	renderer Renderer
	sessions *sessionRegistry
	// processing guards each giveaway against concurrent completion by the
	// scheduler and a manual end.
	processing sync.Map
	now        func() time.Time
}

func NewGiveawayService(
	repo repository.GiveawayRepository,
	guilds guildservice.GuildService,
	gateway MessagingGateway,
	renderer Renderer,
	sessionTimeout time.Duration,
) GiveawayService {
	return &giveawayService{
		repo:     repo,
		guilds:   guilds,
		gateway:  gateway,
		renderer: renderer,
		sessions: newSessionRegistry(sessionTimeout),
		now:      time.Now,
	}
}

func (s *giveawayService) Create(ctx context.Context, input CreateInput) (*models.Giveaway, error) {
	now := s.now()

	var endDate *guildservice.ResolvedTime
	var err error
	if input.EndDate == "" {
		endDate, err = s.guilds.ResolveInstant(ctx, input.GuildID, now.Add(defaultDuration))
	} else {
		endDate, err = s.guilds.Resolve(ctx, input.GuildID, input.EndDate)
	}
	if err != nil {
		return nil, err
	}

	giveaway := &models.Giveaway{
		ChannelID:   input.ChannelID,
		GuildID:     input.GuildID,
		CreatedBy:   input.CreatedBy,
		Title:       input.Title,
		Description: input.Description,
		Prize:       input.Prize,
		WinnerCount: input.WinnerCount,
		EndDate:     endDate.Time,
		CreatedAt:   now,
	}

	// Invariants are checked before any message is sent or anything is
	// persisted.
	if err := giveaway.Validate(now); err != nil {
		return nil, apperrors.NewValidationError("giveaway", err.Error())
	}

	ref, err := s.gateway.SendMessage(ctx, input.ChannelID, s.renderer.DraftPreview(giveaway, endDate))
	if err != nil {
		return nil, apperrors.NewMessagingError("send draft preview", err)
	}
	giveaway.ID = ref.MessageID

	if err := s.repo.Create(ctx, giveaway); err != nil {
		// Roll back the just-sent message best-effort.
		if delErr := s.gateway.DeleteMessage(ctx, ref); delErr != nil {
			logger.Warn().Err(delErr).Str("message_id", ref.MessageID).
				Msg("Failed to delete draft message after create failure")
		}
		return nil, apperrors.NewDatabaseError("create giveaway", err)
	}

	s.sessions.open(giveaway.ID, input.CreatedBy)

	logger.Info().Str("giveaway_id", giveaway.ID).Str("prize", giveaway.Prize).
		Msg("Created giveaway draft")
	return giveaway, nil
}

func (s *giveawayService) draftForUpdate(ctx context.Context, messageID, userID string) (*models.Giveaway, error) {
	if err := s.sessions.authorize(messageID, userID); err != nil {
		return nil, err
	}

	giveaway, err := s.getByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if giveaway.State() != models.StateDraft {
		return nil, apperrors.NewInvalidInputError("This giveaway is no longer being configured.")
	}
	return giveaway, nil
}

func (s *giveawayService) SetAllowedRoles(ctx context.Context, messageID, userID string, roleIDs []string) error {
	giveaway, err := s.draftForUpdate(ctx, messageID, userID)
	if err != nil {
		return err
	}

	if roleIDs == nil {
		roleIDs = []string{}
	}
	if err := s.repo.UpdateFields(ctx, messageID, map[string]interface{}{
		models.FieldAllowedRoles: roleIDs,
	}); err != nil {
		return apperrors.NewDatabaseError("update allowed roles", err)
	}

	giveaway.AllowedRoles = roleIDs
	s.refreshDraftPreview(ctx, giveaway)
	return nil
}

func (s *giveawayService) SetWinnerCount(ctx context.Context, messageID, userID string, count int) error {
	if count < 1 {
		return apperrors.NewValidationError("winner_count", models.ErrInvalidWinnerCount.Error())
	}

	giveaway, err := s.draftForUpdate(ctx, messageID, userID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateFields(ctx, messageID, map[string]interface{}{
		models.FieldWinnerCount: count,
	}); err != nil {
		return apperrors.NewDatabaseError("update winner count", err)
	}

	giveaway.WinnerCount = count
	s.refreshDraftPreview(ctx, giveaway)
	return nil
}

func (s *giveawayService) Confirm(ctx context.Context, messageID, userID string) (*models.Giveaway, error) {
	giveaway, err := s.draftForUpdate(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateFields(ctx, messageID, map[string]interface{}{
		models.FieldFinishedConfiguring: true,
	}); err != nil {
		return nil, apperrors.NewDatabaseError("confirm giveaway", err)
	}
	giveaway.FinishedConfiguring = true
	s.sessions.close(messageID)

	endDate, err := s.guilds.ResolveInstant(ctx, giveaway.GuildID, giveaway.EndDate)
	if err != nil {
		return nil, err
	}
	ref := MessageRef{ChannelID: giveaway.ChannelID, MessageID: giveaway.ID}
	if err := s.gateway.EditMessage(ctx, ref, s.renderer.OpenMessage(giveaway, 0, endDate)); err != nil {
		logger.Warn().Err(err).Str("giveaway_id", giveaway.ID).
			Msg("Failed to update message after confirmation")
	}

	logger.Info().Str("giveaway_id", giveaway.ID).Msg("Giveaway confirmed")
	return giveaway, nil
}

func (s *giveawayService) CancelDraft(ctx context.Context, messageID, userID string) error {
	giveaway, err := s.draftForUpdate(ctx, messageID, userID)
	if err != nil {
		return err
	}

	ref := MessageRef{ChannelID: giveaway.ChannelID, MessageID: giveaway.ID}
	if err := s.gateway.DeleteMessage(ctx, ref); err != nil {
		logger.Warn().Err(err).Str("giveaway_id", giveaway.ID).
			Msg("Failed to delete draft message on cancel")
	}

	if err := s.repo.Delete(ctx, messageID); err != nil {
		return apperrors.NewDatabaseError("delete giveaway", err)
	}
	s.sessions.close(messageID)

	logger.Info().Str("giveaway_id", messageID).Msg("Giveaway draft cancelled")
	return nil
}

func (s *giveawayService) ToggleParticipation(ctx context.Context, messageID, userID string, roleIDs []string, isAdmin bool) (*ToggleResult, error) {
	giveaway, err := s.getByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if giveaway.State() != models.StateOpen {
		return nil, apperrors.NewGiveawayNotFoundError(messageID)
	}

	// The deadline guard holds even when the scheduler has not flipped the
	// ended flag yet.
	if !s.now().Before(giveaway.EndDate) {
		return nil, apperrors.NewExpiredError(messageID)
	}

	if !isAdmin && !giveaway.IsRoleAllowed(roleIDs) {
		return nil, apperrors.NewNotEligibleError(giveaway.AllowedRoles)
	}

	joined := false
	isParticipant, err := s.repo.IsParticipant(ctx, messageID, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("participant lookup", err)
	}
	if isParticipant {
		err = s.repo.RemoveParticipant(ctx, messageID, userID)
	} else {
		joined = true
		err = s.repo.AddParticipant(ctx, messageID, userID)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("participant toggle", err)
	}

	count, err := s.repo.CountParticipants(ctx, messageID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("participant count", err)
	}

	s.refreshOpenMessage(ctx, giveaway, count)

	return &ToggleResult{Joined: joined, Participants: count}, nil
}

func (s *giveawayService) End(ctx context.Context, messageID string) error {
	if err := validateMessageID(messageID); err != nil {
		return err
	}

	giveaway, err := s.getByID(ctx, messageID)
	if err != nil {
		return err
	}
	if giveaway.State() != models.StateOpen {
		return apperrors.NewGiveawayNotFoundError(messageID)
	}
	if !s.now().Before(giveaway.EndDate) {
		return apperrors.NewAlreadyEndedError(messageID)
	}

	return s.CompleteGiveaway(ctx, messageID)
}

func (s *giveawayService) Delete(ctx context.Context, messageID string) error {
	if err := validateMessageID(messageID); err != nil {
		return err
	}

	giveaway, err := s.findByAnyMessageID(ctx, messageID)
	if err != nil {
		return err
	}

	// Associated messages are removed best-effort: a message deleted
	// externally is not an error here.
	origin := MessageRef{ChannelID: giveaway.ChannelID, MessageID: giveaway.ID}
	if err := s.gateway.DeleteMessage(ctx, origin); err != nil {
		logger.Warn().Err(err).Str("giveaway_id", giveaway.ID).
			Msg("Failed to delete giveaway message")
	}
	if giveaway.ResultMessageID != "" {
		result := MessageRef{ChannelID: giveaway.ChannelID, MessageID: giveaway.ResultMessageID}
		if err := s.gateway.DeleteMessage(ctx, result); err != nil {
			logger.Warn().Err(err).Str("giveaway_id", giveaway.ID).
				Msg("Failed to delete result message")
		}
	}

	if err := s.repo.Delete(ctx, giveaway.ID); err != nil {
		return apperrors.NewDatabaseError("delete giveaway", err)
	}
	s.sessions.close(giveaway.ID)

	logger.Info().Str("giveaway_id", giveaway.ID).Str("prize", giveaway.Prize).
		Msg("Deleted giveaway")
	return nil
}

func (s *giveawayService) Reroll(ctx context.Context, messageID string) error {
	if err := validateMessageID(messageID); err != nil {
		return err
	}

	giveaway, err := s.findByAnyMessageID(ctx, messageID)
	if err != nil {
		return err
	}
	if !giveaway.Ended || giveaway.ResultMessageID == "" {
		return apperrors.NewNotEndedError(giveaway.ID)
	}

	participants, err := s.repo.GetParticipants(ctx, giveaway.ID)
	if err != nil {
		return apperrors.NewDatabaseError("participant list", err)
	}
	// Rerolling needs a pool strictly larger than the winner count, otherwise
	// the redraw would return the same set.
	if len(participants) <= giveaway.WinnerCount {
		return apperrors.NewNotEnoughParticipantsError(giveaway.ID)
	}

	result := MessageRef{ChannelID: giveaway.ChannelID, MessageID: giveaway.ResultMessageID}
	if _, err := s.gateway.FetchMessage(ctx, result.ChannelID, result.MessageID); err != nil {
		return apperrors.NewGiveawayNotFoundError(messageID)
	}

	winners, err := SelectWinners(participants, giveaway.WinnerCount)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to draw winners")
	}

	if err := s.gateway.EditMessage(ctx, result, s.renderer.RerollMessage(giveaway, winners, int64(len(participants)))); err != nil {
		return apperrors.NewMessagingError("edit result message", err)
	}

	logger.Info().Str("giveaway_id", giveaway.ID).Int("winners", len(winners)).
		Msg("Rerolled giveaway")
	return nil
}

func (s *giveawayService) List(ctx context.Context, filter ListFilter) ([]*models.Giveaway, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list giveaways", err)
	}

	matched := make([]*models.Giveaway, 0, len(all))
	for _, g := range all {
		if filter.State != "" && g.State() != filter.State {
			continue
		}
		if filter.ChannelID != "" && g.ChannelID != filter.ChannelID {
			continue
		}
		if filter.CreatedBy != "" && g.CreatedBy != filter.CreatedBy {
			continue
		}
		matched = append(matched, g)
	}
	return matched, nil
}

// CompleteGiveaway draws winners, flips the record to ended and emits the
// completion side effects. It is idempotent for already-ended records and
// safe to call concurrently from the scheduler and a manual end.
func (s *giveawayService) CompleteGiveaway(ctx context.Context, giveawayID string) error {
	if _, inFlight := s.processing.LoadOrStore(giveawayID, true); inFlight {
		return nil
	}
	defer s.processing.Delete(giveawayID)

	giveaway, err := s.repo.GetByID(ctx, giveawayID)
	if err == repository.ErrGiveawayNotFound {
		return nil
	}
	if err != nil {
		return apperrors.NewDatabaseError("giveaway lookup", err)
	}
	if giveaway.Ended {
		return nil
	}

	origin, err := s.gateway.FetchMessage(ctx, giveaway.ChannelID, giveaway.ID)
	if err == ErrMessageNotFound {
		// The announcement was deleted externally: the record is orphaned
		// state, clean it up and move on.
		if delErr := s.repo.Delete(ctx, giveawayID); delErr != nil {
			return apperrors.NewDatabaseError("delete orphaned giveaway", delErr)
		}
		logger.Info().Str("giveaway_id", giveawayID).Str("prize", giveaway.Prize).
			Msg("Deleted giveaway because the message was not found")
		return nil
	}
	if err != nil {
		return apperrors.NewMessagingError("fetch giveaway message", err)
	}

	participants, err := s.repo.GetParticipants(ctx, giveawayID)
	if err != nil {
		return apperrors.NewDatabaseError("participant list", err)
	}

	winners, err := SelectWinners(participants, giveaway.WinnerCount)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to draw winners")
	}

	now := s.now()
	endedAt, err := s.guilds.ResolveInstant(ctx, giveaway.GuildID, now)
	if err != nil {
		return err
	}

	if err := s.gateway.EditMessage(ctx, origin, s.renderer.ClosedMessage(giveaway, int64(len(participants)), endedAt)); err != nil {
		logger.Warn().Err(err).Str("giveaway_id", giveawayID).
			Msg("Failed to disable giveaway message")
	}

	result, err := s.gateway.ReplyTo(ctx, origin, s.renderer.ResultMessage(giveaway, winners, int64(len(participants))))
	if err != nil {
		// Without a result message the record must stay pending so the next
		// tick retries.
		return apperrors.NewMessagingError("post result message", err)
	}

	if err := s.repo.UpdateFields(ctx, giveawayID, map[string]interface{}{
		models.FieldResultMessageID: result.MessageID,
		models.FieldEnded:           true,
		models.FieldEndDate:         now,
	}); err != nil {
		return apperrors.NewDatabaseError("finalize giveaway", err)
	}

	logger.Info().Str("giveaway_id", giveawayID).Str("prize", giveaway.Prize).
		Int("participants", len(participants)).Int("winners", len(winners)).
		Msg("Ended giveaway")
	return nil
}

func (s *giveawayService) getByID(ctx context.Context, messageID string) (*models.Giveaway, error) {
	giveaway, err := s.repo.GetByID(ctx, messageID)
	if err == repository.ErrGiveawayNotFound {
		return nil, apperrors.NewGiveawayNotFoundError(messageID)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("giveaway lookup", err)
	}
	return giveaway, nil
}

// findByAnyMessageID resolves a giveaway by its announcement message ID,
// falling back to the result message ID. Delete and reroll accept either.
func (s *giveawayService) findByAnyMessageID(ctx context.Context, messageID string) (*models.Giveaway, error) {
	giveaway, err := s.repo.GetByID(ctx, messageID)
	if err == repository.ErrGiveawayNotFound {
		giveaway, err = s.repo.GetByResultMessageID(ctx, messageID)
	}
	if err == repository.ErrGiveawayNotFound {
		return nil, apperrors.NewGiveawayNotFoundError(messageID)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("giveaway lookup", err)
	}
	return giveaway, nil
}

func (s *giveawayService) refreshDraftPreview(ctx context.Context, giveaway *models.Giveaway) {
	endDate, err := s.guilds.ResolveInstant(ctx, giveaway.GuildID, giveaway.EndDate)
	if err != nil {
		logger.Warn().Err(err).Str("giveaway_id", giveaway.ID).Msg("Failed to resolve end date")
		return
	}
	ref := MessageRef{ChannelID: giveaway.ChannelID, MessageID: giveaway.ID}
	if err := s.gateway.EditMessage(ctx, ref, s.renderer.DraftPreview(giveaway, endDate)); err != nil {
		logger.Warn().Err(err).Str("giveaway_id", giveaway.ID).Msg("Failed to refresh draft preview")
	}
}

func (s *giveawayService) refreshOpenMessage(ctx context.Context, giveaway *models.Giveaway, participants int64) {
	endDate, err := s.guilds.ResolveInstant(ctx, giveaway.GuildID, giveaway.EndDate)
	if err != nil {
		logger.Warn().Err(err).Str("giveaway_id", giveaway.ID).Msg("Failed to resolve end date")
		return
	}
	ref := MessageRef{ChannelID: giveaway.ChannelID, MessageID: giveaway.ID}
	if err := s.gateway.EditMessage(ctx, ref, s.renderer.OpenMessage(giveaway, participants, endDate)); err != nil {
		logger.Warn().Err(err).Str("giveaway_id", giveaway.ID).Msg("Failed to refresh participation counter")
	}
}

func validateMessageID(messageID string) error {
	if messageID == "" {
		return apperrors.NewInvalidInputError("A message ID can only contain numbers! Please try again.")
	}
	for _, r := range messageID {
		if !strings.ContainsRune("0123456789", r) {
			return apperrors.NewInvalidInputError("A message ID can only contain numbers! Please try again.")
		}
	}
	return nil
}
