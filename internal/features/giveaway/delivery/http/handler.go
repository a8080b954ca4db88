package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "giveaway-bot/internal/common/errors"
	"giveaway-bot/internal/features/giveaway/models"
	"giveaway-bot/internal/features/giveaway/repository"
	"giveaway-bot/internal/features/giveaway/service"
)

// GiveawayHandler exposes the read-only admin API over the giveaway store.
type GiveawayHandler struct {
	service service.GiveawayService
	repo    repository.GiveawayRepository
}

func NewGiveawayHandler(service service.GiveawayService, repo repository.GiveawayRepository) *GiveawayHandler {
	return &GiveawayHandler{service: service, repo: repo}
}

func (h *GiveawayHandler) RegisterRoutes(router *gin.RouterGroup) {
	giveaways := router.Group("/giveaways")
	{
		giveaways.GET("", h.list)
		giveaways.GET("/:id", h.getByID)
		giveaways.GET("/:id/participants", h.getParticipants)
	}
}

func (h *GiveawayHandler) list(c *gin.Context) {
	filter := service.ListFilter{
		State:     models.State(c.Query("status")),
		ChannelID: c.Query("channel_id"),
		CreatedBy: c.Query("created_by"),
	}

	giveaways, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": giveaways})
}

func (h *GiveawayHandler) getByID(c *gin.Context) {
	giveaway, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrGiveawayNotFound) {
			err = apperrors.NewGiveawayNotFoundError(c.Param("id"))
		}
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": giveaway})
}

func (h *GiveawayHandler) getParticipants(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.repo.GetByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrGiveawayNotFound) {
			err = apperrors.NewGiveawayNotFoundError(id)
		}
		sendError(c, err)
		return
	}

	participants, err := h.repo.GetParticipants(c.Request.Context(), id)
	if err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"participants": participants,
			"count":        len(participants),
		},
	})
}

func sendError(c *gin.Context, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.ErrCodeInternal, "Internal server error")
	}
	c.JSON(statusCode(appErr), gin.H{"success": false, "error": appErr})
}

func statusCode(appErr *apperrors.AppError) int {
	switch appErr.Code {
	case apperrors.ErrCodeValidation, apperrors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeNotAuthorized, apperrors.ErrCodeSessionExpired:
		return http.StatusForbidden
	case apperrors.ErrCodeNotEligible:
		return http.StatusForbidden
	case apperrors.ErrCodeExpired, apperrors.ErrCodeAlreadyEnded:
		return http.StatusGone
	case apperrors.ErrCodeNotEnded, apperrors.ErrCodeNotEnoughParticipants:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
