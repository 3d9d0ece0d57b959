package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/escrow-backend/internal/dto"
	"github.com/ignatzorin/escrow-backend/internal/http/handlers/common"
	"github.com/ignatzorin/escrow-backend/internal/service"
)

// EscrowHandler предоставляет HTTP слой для актов и выплат по этапам.
type EscrowHandler struct {
	escrow *service.EscrowService
}

// NewEscrowHandler создаёт хэндлер.
func NewEscrowHandler(escrow *service.EscrowService) *EscrowHandler {
	return &EscrowHandler{escrow: escrow}
}

// CompleteMilestone обрабатывает POST /orders/:id/milestones/:milestoneId/complete.
// Исполнитель отчитывается о выполнении этапа, по этапу открывается акт
// с его подписью.
func (h *EscrowHandler) CompleteMilestone(c *gin.Context) {
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

	milestoneID, err := common.ParseUUIDParam(c, "milestoneId")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.escrow.MarkMilestoneComplete(c.Request.Context(), userID, orderID, milestoneID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewOrderDetailsResponse(order))
}

// SignAct обрабатывает POST /orders/:id/milestones/:milestoneId/sign.
// Когда подпись замыкает кворум, сумма этапа уходит исполнителю.
func (h *EscrowHandler) SignAct(c *gin.Context) {
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

	milestoneID, err := common.ParseUUIDParam(c, "milestoneId")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.escrow.SignAct(c.Request.Context(), userID, orderID, milestoneID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
