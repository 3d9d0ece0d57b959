package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-backend/internal/dto"
	"github.com/ignatzorin/escrow-backend/internal/http/handlers/common"
	"github.com/ignatzorin/escrow-backend/internal/service"
)

// OrderHandler предоставляет HTTP слой для заказов и взносов.
type OrderHandler struct {
	orders *service.OrderService
}

// NewOrderHandler создаёт хэндлер.
func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create обрабатывает POST /orders.
func (h *OrderHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	in := service.CreateOrderInput{
		Title:      req.Title,
		Milestones: make([]service.MilestoneInput, 0, len(req.Milestones)),
	}
	if req.ContractorID != nil {
		contractorID, err := uuid.Parse(*req.ContractorID)
		if err != nil {
			common.RespondBadRequest(c, "некорректный contractor_id")
			return
		}
		in.ContractorID = &contractorID
	}
	for _, m := range req.Milestones {
		in.Milestones = append(in.Milestones, service.MilestoneInput{
			Description: m.Description,
			Amount:      m.Amount,
		})
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), userID, in)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewOrderDetailsResponse(order))
}

// Get обрабатывает GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewOrderDetailsResponse(order))
}

// List обрабатывает GET /orders.
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Join обрабатывает POST /orders/:id/join. Взнос списывается с баланса
// заказчика и замораживается на эскроу-счёте заказа.
func (h *OrderHandler) Join(c *gin.Context) {
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

	var req dto.JoinOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.JoinOrder(c.Request.Context(), userID, orderID, req.Amount)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewOrderDetailsResponse(order))
}

// AssignContractor обрабатывает POST /orders/:id/contractor.
func (h *OrderHandler) AssignContractor(c *gin.Context) {
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

	var req dto.AssignContractorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	contractorID, err := uuid.Parse(req.ContractorID)
	if err != nil {
		common.RespondBadRequest(c, "некорректный contractor_id")
		return
	}

	order, err := h.orders.AssignContractor(c.Request.Context(), userID, orderID, contractorID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewOrderDetailsResponse(order))
}

// Cancel обрабатывает POST /orders/:id/cancel. Отменить заказ вправе только
// представитель вкладчиков, и только пока работа не началась. Взносы
// возвращаются на балансы вкладчиков.
func (h *OrderHandler) Cancel(c *gin.Context) {
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

	order, err := h.orders.CancelOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewOrderDetailsResponse(order))
}
