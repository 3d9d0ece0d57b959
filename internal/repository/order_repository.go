package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/escrow-backend/internal/models"
	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
)

// OrderRepository хранит заказы как агрегаты: строка orders плюс строки
// milestones, acts, act_signatures, contributions и votes. Чтение и запись
// всегда работают с агрегатом целиком — движок не выполняет частичных апдейтов.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository создаёт экземпляр репозитория.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create сохраняет только что созданный заказ вместе с этапами.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("order repository: create begin tx %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowxContext(ctx, `
		INSERT INTO orders (id, creator_id, contractor_id, representative_id, title, status, total_cost, escrow_balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, order.ID, order.CreatorID, order.ContractorID, order.RepresentativeID,
		order.Title, order.Status, order.TotalCost, order.EscrowBalance,
	).Scan(&order.CreatedAt, &order.UpdatedAt); err != nil {
		return fmt.Errorf("order repository: create order %w", err)
	}

	for _, m := range order.Milestones {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO milestones (id, order_id, description, amount, status)
			VALUES ($1, $2, $3, $4, $5)
		`, m.ID, m.OrderID, m.Description, m.Amount, m.Status); err != nil {
			return fmt.Errorf("order repository: create milestone %w", err)
		}
	}

	return tx.Commit()
}

// GetByID загружает агрегат заказа.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.GetContext(ctx, &order, `
		SELECT id, creator_id, contractor_id, representative_id, title, status, total_cost, escrow_balance, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get by id %w", err)
	}

	if err := r.loadAggregate(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetAll возвращает все заказы c полными агрегатами.
func (r *OrderRepository) GetAll(ctx context.Context) ([]*models.Order, error) {
	return r.listOrders(ctx, `
		SELECT id, creator_id, contractor_id, representative_id, title, status, total_cost, escrow_balance, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC
	`)
}

// ListByCreator возвращает заказы, созданные данным заказчиком.
func (r *OrderRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Order, error) {
	return r.listOrders(ctx, `
		SELECT id, creator_id, contractor_id, representative_id, title, status, total_cost, escrow_balance, created_at, updated_at
		FROM orders
		WHERE creator_id = $1
		ORDER BY created_at DESC
	`, creatorID)
}

// ListByContractor возвращает заказы, назначенные данному исполнителю.
func (r *OrderRepository) ListByContractor(ctx context.Context, contractorID uuid.UUID) ([]*models.Order, error) {
	return r.listOrders(ctx, `
		SELECT id, creator_id, contractor_id, representative_id, title, status, total_cost, escrow_balance, created_at, updated_at
		FROM orders
		WHERE contractor_id = $1
		ORDER BY created_at DESC
	`, contractorID)
}

// ListByContributor возвращает заказы, в которые пользователь внёс средства.
func (r *OrderRepository) ListByContributor(ctx context.Context, customerID uuid.UUID) ([]*models.Order, error) {
	return r.listOrders(ctx, `
		SELECT o.id, o.creator_id, o.contractor_id, o.representative_id, o.title, o.status, o.total_cost, o.escrow_balance, o.created_at, o.updated_at
		FROM orders o
		JOIN contributions c ON c.order_id = o.id
		WHERE c.customer_id = $1
		ORDER BY o.created_at DESC
	`, customerID)
}

// Save записывает агрегат заказа целиком в одной транзакции.
func (r *OrderRepository) Save(ctx context.Context, order *models.Order) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("order repository: save begin tx %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET contractor_id = $2, representative_id = $3, status = $4, escrow_balance = $5, updated_at = NOW()
		WHERE id = $1
	`, order.ID, order.ContractorID, order.RepresentativeID, order.Status, order.EscrowBalance)
	if err != nil {
		return fmt.Errorf("order repository: save order %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return apperror.ErrOrderNotFound
	}

	for _, m := range order.Milestones {
		if _, err := tx.ExecContext(ctx, `
			UPDATE milestones SET status = $2 WHERE id = $1
		`, m.ID, m.Status); err != nil {
			return fmt.Errorf("order repository: save milestone %w", err)
		}

		if m.Act == nil {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO acts (id, milestone_id, order_id, is_complete)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET is_complete = EXCLUDED.is_complete
		`, m.Act.ID, m.Act.MilestoneID, m.Act.OrderID, m.Act.IsComplete); err != nil {
			return fmt.Errorf("order repository: save act %w", err)
		}
		for i, signerID := range m.Act.Signatures {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO act_signatures (act_id, signer_id, position)
				VALUES ($1, $2, $3)
				ON CONFLICT (act_id, signer_id) DO NOTHING
			`, m.Act.ID, signerID, i); err != nil {
				return fmt.Errorf("order repository: save signature %w", err)
			}
		}
	}

	// Взносы накопительные и никогда не уменьшаются, upsert достаточно.
	for customerID, amount := range order.Contributions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO contributions (order_id, customer_id, amount)
			VALUES ($1, $2, $3)
			ON CONFLICT (order_id, customer_id) DO UPDATE SET amount = EXCLUDED.amount
		`, order.ID, customerID, amount); err != nil {
			return fmt.Errorf("order repository: save contribution %w", err)
		}
	}

	// Голоса — переходное состояние раунда: проще переписать целиком.
	if _, err := tx.ExecContext(ctx, `DELETE FROM votes WHERE order_id = $1`, order.ID); err != nil {
		return fmt.Errorf("order repository: clear votes %w", err)
	}
	for voterID, candidateID := range order.Votes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO votes (order_id, voter_id, candidate_id)
			VALUES ($1, $2, $3)
		`, order.ID, voterID, candidateID); err != nil {
			return fmt.Errorf("order repository: save vote %w", err)
		}
	}

	return tx.Commit()
}

func (r *OrderRepository) listOrders(ctx context.Context, query string, args ...interface{}) ([]*models.Order, error) {
	var rows []models.Order
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("order repository: list %w", err)
	}

	orders := make([]*models.Order, 0, len(rows))
	for i := range rows {
		order := rows[i]
		if err := r.loadAggregate(ctx, &order); err != nil {
			return nil, err
		}
		orders = append(orders, &order)
	}
	return orders, nil
}

// loadAggregate дочитывает этапы, акты, подписи, взносы и голоса заказа.
func (r *OrderRepository) loadAggregate(ctx context.Context, order *models.Order) error {
	var milestones []models.Milestone
	if err := r.db.SelectContext(ctx, &milestones, `
		SELECT id, order_id, description, amount, status
		FROM milestones
		WHERE order_id = $1
	`, order.ID); err != nil {
		return fmt.Errorf("order repository: load milestones %w", err)
	}

	order.Milestones = make(map[uuid.UUID]*models.Milestone, len(milestones))
	for i := range milestones {
		m := milestones[i]
		order.Milestones[m.ID] = &m
	}

	var acts []models.Act
	if err := r.db.SelectContext(ctx, &acts, `
		SELECT id, milestone_id, order_id, is_complete
		FROM acts
		WHERE order_id = $1
	`, order.ID); err != nil {
		return fmt.Errorf("order repository: load acts %w", err)
	}

	for i := range acts {
		act := acts[i]
		if err := r.db.SelectContext(ctx, &act.Signatures, `
			SELECT signer_id
			FROM act_signatures
			WHERE act_id = $1
			ORDER BY position
		`, act.ID); err != nil {
			return fmt.Errorf("order repository: load signatures %w", err)
		}
		if m, ok := order.Milestones[act.MilestoneID]; ok {
			m.Act = &act
		}
	}

	rows, err := r.db.QueryxContext(ctx, `
		SELECT customer_id, amount FROM contributions WHERE order_id = $1
	`, order.ID)
	if err != nil {
		return fmt.Errorf("order repository: load contributions %w", err)
	}
	defer rows.Close()

	order.Contributions = make(map[uuid.UUID]float64)
	for rows.Next() {
		var customerID uuid.UUID
		var amount float64
		if err := rows.Scan(&customerID, &amount); err != nil {
			return fmt.Errorf("order repository: scan contribution %w", err)
		}
		order.Contributions[customerID] = amount
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("order repository: contributions rows %w", err)
	}

	voteRows, err := r.db.QueryxContext(ctx, `
		SELECT voter_id, candidate_id FROM votes WHERE order_id = $1
	`, order.ID)
	if err != nil {
		return fmt.Errorf("order repository: load votes %w", err)
	}
	defer voteRows.Close()

	order.Votes = make(map[uuid.UUID]uuid.UUID)
	for voteRows.Next() {
		var voterID, candidateID uuid.UUID
		if err := voteRows.Scan(&voterID, &candidateID); err != nil {
			return fmt.Errorf("order repository: scan vote %w", err)
		}
		order.Votes[voterID] = candidateID
	}
	if err := voteRows.Err(); err != nil {
		return fmt.Errorf("order repository: votes rows %w", err)
	}

	return nil
}
