package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора владельца заказа.
	ErrUserRequired = errors.New("user_id is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка пустого или слишком длинного названия товара.
	ErrProductNameInvalid = errors.New("product name is required and must not exceed 200 characters")
	// Ошибка неположительной цены товара.
	ErrProductPriceInvalid = errors.New("product price must be greater than zero")

	// ErrProductNotFound возвращается, если товар отсутствует или скрыт soft delete.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound возвращается, если заказ отсутствует или скрыт soft delete.
	ErrOrderNotFound = errors.New("order not found")
	// ErrValidation — входные данные не прошли бизнес-проверку.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden — проверка владения/роли не пройдена.
	// Намеренно отличается от NotFound: вызывающий сам решает, маскировать ли разницу.
	ErrForbidden = errors.New("forbidden")
	// ErrVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrVersionConflict = errors.New("version conflict")
	// ErrInvalidTransition — переход статуса заказа из текущего состояния запрещён.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// IsNotFound проверяет, является ли ошибка отсутствием сущности.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrOrderNotFound)
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsForbidden проверяет, является ли ошибка отказом авторизации.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsValidation проверяет, является ли ошибка ошибкой валидации.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidTransition проверяет, является ли ошибка запрещённым переходом статуса.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}
