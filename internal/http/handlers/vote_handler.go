package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-backend/internal/dto"
	"github.com/ignatzorin/escrow-backend/internal/http/handlers/common"
	"github.com/ignatzorin/escrow-backend/internal/service"
)

// VoteHandler предоставляет HTTP слой для выборов представителя вкладчиков.
type VoteHandler struct {
	votes *service.VoteService
}

// NewVoteHandler создаёт хэндлер.
func NewVoteHandler(votes *service.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// Vote обрабатывает POST /orders/:id/vote. Вес голоса равен сумме взносов
// голосующего; повторный голос перезаписывает предыдущий.
func (h *VoteHandler) Vote(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	candidateID, err := uuid.Parse(req.CandidateID)
	if err != nil {
		common.RespondBadRequest(c, "некорректный candidate_id")
		return
	}

	result, err := h.votes.Vote(c.Request.Context(), userID, orderID, candidateID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
