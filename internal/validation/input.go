package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinNameLength = 3
	MaxNameLength = 50

	MinPasswordLength = 8
	MaxPasswordLength = 72 // предел bcrypt

	MinOrderTitleLength = 3
	MaxOrderTitleLength = 200

	MaxMilestoneDescriptionLength = 1000
	MaxMilestonesPerOrder         = 50

	// MaxAmount ограничивает разовую сумму: депозит, взнос, этап.
	MaxAmount = 100000000.0 // 100 миллионов
)

// ValidateLength проверяет длину строки в рунах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateName проверяет имя пользователя.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("имя обязательно")
	}
	return ValidateLength("имя", name, MinNameLength, MaxNameLength)
}

// ValidatePassword проверяет пароль при регистрации.
func ValidatePassword(password string) error {
	return ValidateLength("пароль", password, MinPasswordLength, MaxPasswordLength)
}

// ValidateAmount проверяет денежную сумму.
func ValidateAmount(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("сумма должна быть положительной")
	}
	if amount > MaxAmount {
		return fmt.Errorf("сумма превышает допустимый максимум")
	}
	return nil
}

// ValidateOrderTitle проверяет название заказа.
func ValidateOrderTitle(title string) error {
	return ValidateLength("название заказа", strings.TrimSpace(title), MinOrderTitleLength, MaxOrderTitleLength)
}

// ValidateMilestoneDescription проверяет описание этапа.
func ValidateMilestoneDescription(description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return fmt.Errorf("описание этапа обязательно")
	}
	return ValidateLength("описание этапа", description, 0, MaxMilestoneDescriptionLength)
}
