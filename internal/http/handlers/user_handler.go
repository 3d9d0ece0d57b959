package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/escrow-backend/internal/dto"
	"github.com/ignatzorin/escrow-backend/internal/http/handlers/common"
	"github.com/ignatzorin/escrow-backend/internal/service"
)

// UserHandler предоставляет HTTP слой для баланса и профиля пользователя.
type UserHandler struct {
	users  *service.UserService
	orders *service.OrderService
}

// NewUserHandler создаёт хэндлер.
func NewUserHandler(users *service.UserService, orders *service.OrderService) *UserHandler {
	return &UserHandler{users: users, orders: orders}
}

// Deposit обрабатывает POST /users/me/deposit. Пополнять баланс могут
// только заказчики.
func (h *UserHandler) Deposit(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	user, err := h.users.Deposit(c.Request.Context(), userID, req.Amount)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Balance обрабатывает GET /users/me/balance.
func (h *UserHandler) Balance(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	user, err := h.users.GetBalance(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": user.ID,
		"balance": user.Balance,
	})
}

// Transactions обрабатывает GET /users/me/transactions.
func (h *UserHandler) Transactions(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.GetPagination(c)

	transactions, err := h.users.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"limit":        limit,
		"offset":       offset,
	})
}

// List обрабатывает GET /users.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// Profile обрабатывает GET /users/:id. Возвращает пользователя вместе с
// заказами, в которых он участвует, с разбивкой по роли участия.
func (h *UserHandler) Profile(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	user, err := h.users.GetBalance(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	involvement, err := h.orders.ViewUserOrders(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserProfileResponse(
		user, involvement.Created, involvement.Joined, involvement.Assigned,
	))
}

// MyOrders обрабатывает GET /users/me/orders.
func (h *UserHandler) MyOrders(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	involvement, err := h.orders.ViewUserOrders(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, involvement)
}
