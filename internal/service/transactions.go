package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/escrow-backend/internal/goroutine"
	"github.com/ignatzorin/escrow-backend/internal/logger"
	"github.com/ignatzorin/escrow-backend/internal/models"
)

// recordTransaction записывает движение средств в журнал. Балансы к этому
// моменту уже сохранены, поэтому сбой журнала не откатывает операцию,
// но логируется для последующей сверки.
func recordTransaction(ctx context.Context, transactions TransactionLog, t *models.Transaction) {
	if transactions == nil {
		return
	}
	if err := transactions.Create(ctx, t); err != nil && logger.Log != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"user_id": t.UserID,
			"type":    t.Type,
			"amount":  t.Amount,
		}).Warn("не удалось записать транзакцию в журнал")
	}
}

// notify отправляет событие пользователю, если нотификатор подключён.
// Отправка асинхронная и не влияет на исход операции.
func notify(n Notifier, userID uuid.UUID, event string, data any) {
	if n == nil || userID == uuid.Nil {
		return
	}
	goroutine.SafeGo(func() {
		if err := n.BroadcastToUser(userID, event, data); err != nil && logger.Log != nil {
			logger.Log.WithError(err).WithField("event", event).
				Debug("не удалось доставить уведомление")
		}
	})
}
