package domain

import "time"

// OrderItem представляет одну позицию заказа. Собственного идентификатора
// у позиции нет: она существует только внутри агрегата Order.
type OrderItem struct {
	// ProductID — идентификатор товара; каталог товаров вне системы,
	// ссылочной целостности по нему нет.
	ProductID int64
	// Quantity — количество единиц товара, ожидается > 0.
	Quantity int64
	// Price — цена за единицу в минимальных денежных единицах.
	Price int64
}

// Order агрегирует шапку заказа и его позиции.
type Order struct {
	// ID — глобально уникальный идентификатор заказа, неизменяем после создания.
	ID string
	// Value — сумма заказа. Задаётся вызывающей стороной и намеренно
	// не сверяется с суммой позиций.
	Value int64
	// CreationDate — дата создания в формате ISO-8601, бизнес-факт.
	CreationDate string
	Items        []OrderItem
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
// Хранилище этих проверок не выполняет: это обязанность входного адаптера.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.ID == "" {
		errs = append(errs, ErrOrderIDRequired)
	}
	if o.Value < 0 {
		errs = append(errs, ErrValueNegative)
	}
	if _, err := time.Parse(time.RFC3339, o.CreationDate); err != nil {
		errs = append(errs, ErrCreationDateInvalid)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}

	for _, item := range o.Items {
		if item.ProductID <= 0 {
			errs = append(errs, ErrItemProductInvalid)
		}
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.Price < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
	}

	return errs
}
