package models

// Роли пользователей платформы
const (
	RoleCustomer   = "customer"
	RoleContractor = "contractor"
)

// OrderStatus константы статусов заказов
const (
	OrderStatusPending    = "pending"
	OrderStatusFunded     = "funded"
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// MilestoneStatus константы статусов этапов
const (
	MilestoneStatusPending               = "pending"
	MilestoneStatusCompletedByContractor = "completed_by_contractor"
	MilestoneStatusPaid                  = "paid"
)

// MinSignaturesRequired минимальное количество уникальных подписей,
// после которого акт считается собранным и средства этапа выплачиваются.
const MinSignaturesRequired = 2

// RepresentativeVoteThreshold доля от полной стоимости заказа, которую должны
// суммарно вносить сторонники кандидата, чтобы он стал представителем.
// Порог считается от totalCost, а не от суммы поданных голосов.
const RepresentativeVoteThreshold = 0.75

// ValidRoles список валидных ролей
var ValidRoles = map[string]struct{}{
	RoleCustomer:   {},
	RoleContractor: {},
}

// ValidOrderStatuses список валидных статусов заказов
var ValidOrderStatuses = map[string]struct{}{
	OrderStatusPending:    {},
	OrderStatusFunded:     {},
	OrderStatusInProgress: {},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

// ValidMilestoneStatuses список валидных статусов этапов
var ValidMilestoneStatuses = map[string]struct{}{
	MilestoneStatusPending:               {},
	MilestoneStatusCompletedByContractor: {},
	MilestoneStatusPaid:                  {},
}

// Типы транзакций
const (
	TransactionTypeDeposit       = "deposit"
	TransactionTypeEscrowHold    = "escrow_hold"
	TransactionTypeEscrowRelease = "escrow_release"
	TransactionTypeEscrowRefund  = "escrow_refund"
)
