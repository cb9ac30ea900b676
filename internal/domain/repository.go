package domain

// OrderRepository описывает требования к хранилищу заказов.
// Каждая операция атомарна: наблюдатель никогда не видит частично
// записанный агрегат. Ошибки хранилища не ретраятся и поднимаются наверх.
type OrderRepository interface {
	// Create сохраняет шапку заказа и все позиции в одной транзакции.
	// Возвращает ErrOrderAlreadyExists, если ID уже занят.
	Create(order Order) error
	// Get возвращает заказ с позициями или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// List возвращает все заказы; у каждого заказа поле Items не nil.
	List() ([]Order, error)
	// Update атомарно обновляет шапку и заменяет весь набор позиций.
	// Отсутствующий заказ ошибкой не считается: затронется ноль строк,
	// трактовка — на вызывающей стороне.
	Update(order Order) error
	// Delete удаляет шапку заказа (позиции — каскадом) и возвращает
	// число затронутых строк шапки: 0 или 1.
	Delete(id string) (int64, error)
}
