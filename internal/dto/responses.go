package dto

import (
	"sort"

	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-backend/internal/models"
)

// ErrorResponse represents a standardized error payload
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SuccessResponse represents a standardized success payload
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AuthResponse represents the result of register/login/refresh
type AuthResponse struct {
	User      *models.User `json:"user"`
	TokenPair interface{}  `json:"tokens"`
}

// UserProfileResponse represents a user together with the orders they are
// involved in, keyed by their role in each order
type UserProfileResponse struct {
	*models.User
	CreatedOrders       []uuid.UUID           `json:"created_orders"`
	JoinedContributions map[uuid.UUID]float64 `json:"joined_contributions"`
	AssignedOrders      []uuid.UUID           `json:"assigned_orders"`
}

// NewUserProfileResponse assembles the profile from the user row and their
// order listings
func NewUserProfileResponse(user *models.User, created, joined, assigned []*models.Order) *UserProfileResponse {
	resp := &UserProfileResponse{
		User:                user,
		CreatedOrders:       make([]uuid.UUID, 0, len(created)),
		JoinedContributions: make(map[uuid.UUID]float64, len(joined)),
		AssignedOrders:      make([]uuid.UUID, 0, len(assigned)),
	}
	for _, o := range created {
		resp.CreatedOrders = append(resp.CreatedOrders, o.ID)
	}
	for _, o := range joined {
		resp.JoinedContributions[o.ID] = o.Contributions[user.ID]
	}
	for _, o := range assigned {
		resp.AssignedOrders = append(resp.AssignedOrders, o.ID)
	}
	return resp
}

// MilestoneView is a flattened milestone for order details
type MilestoneView struct {
	ID          uuid.UUID   `json:"id"`
	Description string      `json:"description"`
	Amount      float64     `json:"amount"`
	Status      string      `json:"status"`
	Act         *models.Act `json:"act,omitempty"`
}

// OrderDetailsResponse represents an order with a flattened milestone list
type OrderDetailsResponse struct {
	*models.Order
	MilestoneList []MilestoneView `json:"milestone_list"`
}

// NewOrderDetailsResponse builds the order view
func NewOrderDetailsResponse(order *models.Order) *OrderDetailsResponse {
	resp := &OrderDetailsResponse{
		Order:         order,
		MilestoneList: make([]MilestoneView, 0, len(order.Milestones)),
	}
	for _, m := range order.Milestones {
		resp.MilestoneList = append(resp.MilestoneList, MilestoneView{
			ID:          m.ID,
			Description: m.Description,
			Amount:      m.Amount,
			Status:      m.Status,
			Act:         m.Act,
		})
	}
	// Детерминированный порядок списка при выдаче из map.
	sort.Slice(resp.MilestoneList, func(i, j int) bool {
		return resp.MilestoneList[i].ID.String() < resp.MilestoneList[j].ID.String()
	})
	return resp
}
