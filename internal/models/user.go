package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
)

// User описывает участника платформы: заказчика или исполнителя.
// Баланс меняется только через ChangeBalance — прямая запись запрещена.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	Balance      float64   `db:"balance" json:"balance"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// IsCustomer сообщает, может ли пользователь создавать заказы и вносить средства.
func (u *User) IsCustomer() bool {
	return u.Role == RoleCustomer
}

// IsContractor сообщает, может ли пользователь исполнять заказы.
func (u *User) IsContractor() bool {
	return u.Role == RoleContractor
}

// ChangeBalance изменяет баланс на delta. Если результат отрицательный,
// баланс остаётся нетронутым и возвращается ошибка.
func (u *User) ChangeBalance(delta float64) error {
	if u.Balance+delta < 0 {
		return apperror.ErrInsufficientBalance
	}
	u.Balance += delta
	return nil
}
