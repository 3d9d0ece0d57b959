package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	// ErrCodeConsistency помечает нарушение инварианта данных: средства списаны,
	// но не зачислены, эскроу меньше суммы выплаты и т.п. Такие ошибки нельзя
	// ретраить вслепую — требуется вмешательство оператора.
	ErrCodeConsistency ErrorCode = "CONSISTENCY_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeForbidden
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

func IsConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeConflict
}

func IsConsistency(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeConsistency
}

// HTTPStatusOf возвращает HTTP статус ошибки или 500 для неизвестных.
func HTTPStatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

var (
	ErrUserNotFound       = New(ErrCodeNotFound, "пользователь не найден")
	ErrOrderNotFound      = New(ErrCodeNotFound, "заказ не найден")
	ErrMilestoneNotFound  = New(ErrCodeNotFound, "этап не найден")
	ErrUnauthorized       = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden          = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials = New(ErrCodeUnauthorized, "неверные учетные данные")

	// Ошибки валидации входных данных.
	ErrInvalidAmount       = New(ErrCodeValidation, "сумма должна быть положительной")
	ErrInsufficientBalance = New(ErrCodeValidation, "недостаточно средств на балансе")
	ErrOverfunded          = New(ErrCodeValidation, "взнос превышает оставшуюся стоимость заказа")

	// Ошибки состояния: запрошенный переход невозможен в текущем статусе.
	ErrOrderNotPending      = New(ErrCodeConflict, "заказ больше не принимает взносы")
	ErrOrderNotFundable     = New(ErrCodeConflict, "заказ ещё не профинансирован или уже завершён")
	ErrOrderNotCancellable  = New(ErrCodeConflict, "заказ нельзя отменить на этом этапе")
	ErrNoContractorAssigned = New(ErrCodeConflict, "исполнитель не назначен")
	ErrContractorBusy       = New(ErrCodeConflict, "работа по заказу уже началась")
	ErrMilestoneNotPending  = New(ErrCodeConflict, "этап уже отмечен выполненным")
	ErrActNotCreated        = New(ErrCodeConflict, "акт по этапу ещё не создан")
	ErrActAlreadyComplete   = New(ErrCodeConflict, "акт уже собрал необходимые подписи")
	ErrDuplicateSignature   = New(ErrCodeConflict, "подпись уже учтена")
	ErrActNotComplete       = New(ErrCodeConflict, "акт не собрал необходимые подписи")
	ErrMilestoneAlreadyPaid = New(ErrCodeConflict, "этап уже оплачен")
	ErrWrongMilestoneStatus = New(ErrCodeConflict, "этап не готов к выплате")
	ErrNotAContributor      = New(ErrCodeForbidden, "голосовать могут только участники, внёсшие средства")

	// Нарушения инвариантов. В нормальной работе недостижимы.
	ErrInsufficientEscrow  = New(ErrCodeConsistency, "эскроу-баланс меньше суммы этапа")
	ErrPayoutTargetMissing = New(ErrCodeConsistency, "исполнитель не найден при выплате: средства списаны с эскроу")
)
