package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-backend/internal/models"
)

// VoteService проводит раунды голосования за представителя вкладчиков.
type VoteService struct {
	orders   OrderStore
	locks    *Locks
	notifier Notifier
}

// NewVoteService создаёт сервис голосования.
func NewVoteService(orders OrderStore, locks *Locks) *VoteService {
	return &VoteService{orders: orders, locks: locks}
}

// SetNotifier подключает рассылку событий.
func (s *VoteService) SetNotifier(n Notifier) {
	s.notifier = n
}

// VoteResult описывает итог поданного голоса.
type VoteResult struct {
	Order    *models.Order `json:"order"`
	Resolved bool          `json:"resolved"`
	Winner   *uuid.UUID    `json:"winner,omitempty"`
}

// Vote регистрирует голос и сразу подводит итог раунда. Если какой-либо
// кандидат набрал порог поддержки, он становится представителем, а голоса
// сбрасываются до следующего раунда.
func (s *VoteService) Vote(ctx context.Context, voterID, orderID, candidateID uuid.UUID) (*VoteResult, error) {
	unlock := s.locks.Orders.Lock(orderID)
	defer unlock()

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.AddVote(voterID, candidateID); err != nil {
		return nil, err
	}

	previous := order.RepresentativeID
	winner, resolved := order.ResolveVotes()

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}

	result := &VoteResult{Order: order, Resolved: resolved}
	if resolved {
		w := winner
		result.Winner = &w

		if winner != previous {
			notify(s.notifier, winner, EventRepresentativeChange, order)
			notify(s.notifier, previous, EventRepresentativeChange, order)
		}
	}

	return result, nil
}
