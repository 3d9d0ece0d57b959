package dto

// RegisterRequest represents the request to register a user
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// LoginRequest represents the request to log in
type LoginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the request to refresh a token pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// DepositRequest represents the request to top up a balance
type DepositRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// MilestoneRequest represents one milestone in an order creation request
type MilestoneRequest struct {
	Description string  `json:"description" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
}

// CreateOrderRequest represents the request to create an order
type CreateOrderRequest struct {
	Title        string             `json:"title" binding:"required"`
	ContractorID *string            `json:"contractor_id"`
	Milestones   []MilestoneRequest `json:"milestones" binding:"required,min=1"`
}

// JoinOrderRequest represents the request to contribute to an order
type JoinOrderRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// AssignContractorRequest represents the request to assign a contractor
type AssignContractorRequest struct {
	ContractorID string `json:"contractor_id" binding:"required"`
}

// VoteRequest represents a vote for a new representative
type VoteRequest struct {
	CandidateID string `json:"candidate_id" binding:"required"`
}
