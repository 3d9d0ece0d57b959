package models

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
)

// Act — акт выполненных работ по одному этапу. Средства этапа выплачиваются
// только после того, как акт соберёт MinSignaturesRequired уникальных подписей.
type Act struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	MilestoneID uuid.UUID   `db:"milestone_id" json:"milestone_id"`
	OrderID     uuid.UUID   `db:"order_id" json:"order_id"`
	Signatures  []uuid.UUID `json:"signatures"`
	IsComplete  bool        `db:"is_complete" json:"is_complete"`
}

// HasSignature проверяет, подписывал ли акт данный пользователь.
func (a *Act) HasSignature(signerID uuid.UUID) bool {
	for _, id := range a.Signatures {
		if id == signerID {
			return true
		}
	}
	return false
}

// AddSignature добавляет подпись и пересчитывает готовность акта.
// Сама по себе готовность денег не двигает — выплату запускает движок.
func (a *Act) AddSignature(signerID uuid.UUID) error {
	if a.IsComplete {
		return apperror.ErrActAlreadyComplete
	}
	if a.HasSignature(signerID) {
		return apperror.ErrDuplicateSignature
	}
	a.Signatures = append(a.Signatures, signerID)
	a.IsComplete = len(a.Signatures) >= MinSignaturesRequired
	return nil
}

// Milestone — этап заказа. Сумма фиксируется при создании заказа.
type Milestone struct {
	ID          uuid.UUID `db:"id" json:"id"`
	OrderID     uuid.UUID `db:"order_id" json:"order_id"`
	Description string    `db:"description" json:"description"`
	Amount      float64   `db:"amount" json:"amount"`
	Status      string    `db:"status" json:"status"`
	Act         *Act      `json:"act,omitempty"`
}

// MilestoneSpec описывает этап при создании заказа.
type MilestoneSpec struct {
	Description string
	Amount      float64
}

// Order описывает коллективно финансируемый заказ. Набор этапов фиксируется
// при создании; totalCost равен сумме этапов и никогда не пересчитывается.
type Order struct {
	ID               uuid.UUID                 `db:"id" json:"id"`
	CreatorID        uuid.UUID                 `db:"creator_id" json:"creator_id"`
	ContractorID     *uuid.UUID                `db:"contractor_id" json:"contractor_id,omitempty"`
	RepresentativeID uuid.UUID                 `db:"representative_id" json:"representative_id"`
	Title            string                    `db:"title" json:"title"`
	Status           string                    `db:"status" json:"status"`
	TotalCost        float64                   `db:"total_cost" json:"total_cost"`
	EscrowBalance    float64                   `db:"escrow_balance" json:"escrow_balance"`
	Milestones       map[uuid.UUID]*Milestone  `json:"milestones"`
	Contributions    map[uuid.UUID]float64     `json:"contributions"`
	Votes            map[uuid.UUID]uuid.UUID   `json:"votes"`
	CreatedAt        time.Time                 `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time                 `db:"updated_at" json:"updated_at"`
}

// NewOrder собирает заказ с фиксированным набором этапов. Представителем
// вкладчиков изначально становится создатель заказа.
func NewOrder(creatorID uuid.UUID, contractorID *uuid.UUID, title string, specs []MilestoneSpec) (*Order, error) {
	if len(specs) == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "заказ должен содержать хотя бы один этап")
	}

	order := &Order{
		ID:               uuid.New(),
		CreatorID:        creatorID,
		ContractorID:     contractorID,
		RepresentativeID: creatorID,
		Title:            title,
		Status:           OrderStatusPending,
		Milestones:       make(map[uuid.UUID]*Milestone, len(specs)),
		Contributions:    make(map[uuid.UUID]float64),
		Votes:            make(map[uuid.UUID]uuid.UUID),
	}

	for _, spec := range specs {
		if spec.Amount <= 0 {
			return nil, apperror.ErrInvalidAmount
		}
		m := &Milestone{
			ID:          uuid.New(),
			OrderID:     order.ID,
			Description: spec.Description,
			Amount:      spec.Amount,
			Status:      MilestoneStatusPending,
		}
		order.Milestones[m.ID] = m
		order.TotalCost += spec.Amount
	}

	return order, nil
}

// Milestone возвращает этап по идентификатору.
func (o *Order) Milestone(id uuid.UUID) (*Milestone, bool) {
	m, ok := o.Milestones[id]
	return m, ok
}

// IsContributor сообщает, внёс ли пользователь средства в заказ.
func (o *Order) IsContributor(userID uuid.UUID) bool {
	return o.Contributions[userID] > 0
}

// AddContribution увеличивает эскроу и накопленный взнос заказчика.
// Взносы принимаются только пока заказ PENDING; взнос сверх оставшейся
// стоимости отклоняется целиком. При достижении totalCost заказ
// переходит в FUNDED — переход односторонний.
func (o *Order) AddContribution(customerID uuid.UUID, amount float64) error {
	if o.Status != OrderStatusPending {
		return apperror.ErrOrderNotPending
	}
	if amount <= 0 {
		return apperror.ErrInvalidAmount
	}
	if o.EscrowBalance+amount > o.TotalCost {
		return apperror.ErrOverfunded
	}

	o.EscrowBalance += amount
	o.Contributions[customerID] += amount

	if o.EscrowBalance >= o.TotalCost {
		o.Status = OrderStatusFunded
	}
	return nil
}

// AssignContractor назначает исполнителя. Допустимо, только пока работа по
// заказу не началась и заказ не завершён.
func (o *Order) AssignContractor(contractorID uuid.UUID) error {
	switch o.Status {
	case OrderStatusCompleted, OrderStatusCancelled:
		return apperror.ErrContractorBusy
	}
	if !o.allMilestonesPending() {
		return apperror.ErrContractorBusy
	}
	id := contractorID
	o.ContractorID = &id
	return nil
}

// MarkMilestoneCompleted фиксирует выполнение этапа исполнителем: создаёт акт,
// сразу добавляет в него подпись исполнителя и переводит заказ из FUNDED
// в IN_PROGRESS при первом выполненном этапе.
func (o *Order) MarkMilestoneCompleted(milestoneID uuid.UUID) (*Milestone, error) {
	if o.ContractorID == nil {
		return nil, apperror.ErrNoContractorAssigned
	}
	if o.Status != OrderStatusFunded && o.Status != OrderStatusInProgress {
		return nil, apperror.ErrOrderNotFundable
	}
	m, ok := o.Milestones[milestoneID]
	if !ok {
		return nil, apperror.ErrMilestoneNotFound
	}
	if m.Status != MilestoneStatusPending {
		return nil, apperror.ErrMilestoneNotPending
	}

	act := &Act{
		ID:          uuid.New(),
		MilestoneID: m.ID,
		OrderID:     o.ID,
	}
	// Подпись исполнителя одна, кворум из MinSignaturesRequired ещё не собран.
	if err := act.AddSignature(*o.ContractorID); err != nil {
		return nil, err
	}
	m.Act = act
	m.Status = MilestoneStatusCompletedByContractor

	if o.Status == OrderStatusFunded {
		o.Status = OrderStatusInProgress
	}
	return m, nil
}

// ReleaseFunds списывает сумму этапа с эскроу и помечает этап оплаченным.
// Возвращает сумму к зачислению исполнителю. Когда оплачены все этапы,
// заказ переходит в COMPLETED.
func (o *Order) ReleaseFunds(milestoneID uuid.UUID) (float64, error) {
	m, ok := o.Milestones[milestoneID]
	if !ok {
		return 0, apperror.ErrMilestoneNotFound
	}
	if m.Act == nil || !m.Act.IsComplete {
		return 0, apperror.ErrActNotComplete
	}
	if m.Status == MilestoneStatusPaid {
		return 0, apperror.ErrMilestoneAlreadyPaid
	}
	if m.Status != MilestoneStatusCompletedByContractor {
		return 0, apperror.ErrWrongMilestoneStatus
	}
	if o.EscrowBalance < m.Amount {
		// Инвариант нарушен: взносы покрывают totalCost, выплаты не превышают
		// суммы этапов. Сюда попадаем только при повреждении данных.
		return 0, apperror.ErrInsufficientEscrow
	}

	o.EscrowBalance -= m.Amount
	m.Status = MilestoneStatusPaid

	allPaid := true
	for _, milestone := range o.Milestones {
		if milestone.Status != MilestoneStatusPaid {
			allPaid = false
			break
		}
	}
	if allPaid {
		o.Status = OrderStatusCompleted
	}
	return m.Amount, nil
}

// AddVote регистрирует голос за кандидата в представители. Голосовать и быть
// кандидатом могут только вкладчики заказа. Повторный голос перезаписывает
// предыдущий выбор голосующего.
func (o *Order) AddVote(voterID, candidateID uuid.UUID) error {
	if !o.IsContributor(voterID) || !o.IsContributor(candidateID) {
		return apperror.ErrNotAContributor
	}
	o.Votes[voterID] = candidateID
	return nil
}

// ResolveVotes подводит итог раунда голосования. Вес голоса равен взносу
// голосующего. Побеждает кандидат с наибольшей суммой поддержки, если она
// достигает RepresentativeVoteThreshold от полной стоимости заказа; при
// равенстве побеждает меньший UUID. После успешного раунда голоса
// сбрасываются — голосование повторяемое, а не накопительное.
func (o *Order) ResolveVotes() (uuid.UUID, bool) {
	support := make(map[uuid.UUID]float64)
	for voter, candidate := range o.Votes {
		support[candidate] += o.Contributions[voter]
	}

	threshold := o.TotalCost * RepresentativeVoteThreshold

	candidates := make([]uuid.UUID, 0, len(support))
	for candidate, total := range support {
		if total >= threshold {
			candidates = append(candidates, candidate)
		}
	}
	if len(candidates) == 0 {
		return uuid.Nil, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		si, sj := support[candidates[i]], support[candidates[j]]
		if si != sj {
			return si > sj
		}
		return candidates[i].String() < candidates[j].String()
	})

	winner := candidates[0]
	o.RepresentativeID = winner
	o.Votes = make(map[uuid.UUID]uuid.UUID)
	return winner, true
}

// Cancel отменяет заказ и возвращает карту возвратов (заказчик → сумма).
// Отмена возможна, пока работа не началась: заказ PENDING либо FUNDED со всеми
// этапами в PENDING. Эскроу обнуляется, история взносов сохраняется.
func (o *Order) Cancel() (map[uuid.UUID]float64, error) {
	switch o.Status {
	case OrderStatusPending, OrderStatusFunded:
	default:
		return nil, apperror.ErrOrderNotCancellable
	}
	if !o.allMilestonesPending() {
		return nil, apperror.ErrOrderNotCancellable
	}

	refunds := make(map[uuid.UUID]float64, len(o.Contributions))
	for customerID, amount := range o.Contributions {
		if amount > 0 {
			refunds[customerID] = amount
		}
	}

	o.EscrowBalance = 0
	o.Status = OrderStatusCancelled
	o.Votes = make(map[uuid.UUID]uuid.UUID)
	return refunds, nil
}

func (o *Order) allMilestonesPending() bool {
	for _, m := range o.Milestones {
		if m.Status != MilestoneStatusPending {
			return false
		}
	}
	return true
}
