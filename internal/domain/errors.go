package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора заказа.
	ErrOrderIDRequired = errors.New("order id is required")
	// Ошибка отрицательной суммы заказа.
	ErrValueNegative = errors.New("order value must be non-negative")
	// Ошибка, если дата создания не разбирается как ISO-8601.
	ErrCreationDateInvalid = errors.New("creation date must be a valid ISO-8601 timestamp")
	// Ошибка отсутствия хотя бы одного товара в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка при некорректном идентификаторе товара (<= 0).
	ErrItemProductInvalid = errors.New("item product id must be greater than zero")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderAlreadyExists сигнализирует о конфликте первичного ключа при создании.
	ErrOrderAlreadyExists = errors.New("order already exists")
)

// IsNotFound проверяет, является ли ошибка отсутствием заказа.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound)
}

// IsAlreadyExists проверяет, является ли ошибка дубликатом первичного ключа.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrOrderAlreadyExists)
}
