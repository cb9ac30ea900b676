package memory

import (
	"sort"
	"sync"

	"orders/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository
// для локальной разработки и тестов адаптеров.
type orderRepositoryInMemory struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
}

// NewOrderRepository возвращает in-memory репозиторий.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		orders: make(map[string]domain.Order),
	}
}

// Create сохраняет новый заказ, если ID ещё не занят.
func (r *orderRepositoryInMemory) Create(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return domain.ErrOrderAlreadyExists
	}
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

// Get возвращает копию заказа или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// List возвращает все заказы, отсортированные по ID для детерминизма.
func (r *orderRepositoryInMemory) List() ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		result = append(result, cloneOrder(order))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Update заменяет шапку и набор позиций. Отсутствующий заказ — no-op,
// как ноль затронутых строк у SQL-бэкендов.
func (r *orderRepositoryInMemory) Update(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; !ok {
		return nil
	}
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

// Delete удаляет заказ вместе с позициями и возвращает число удалённых шапок.
func (r *orderRepositoryInMemory) Delete(id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return 0, nil
	}
	delete(r.orders, id)
	return 1, nil
}

// cloneOrder копирует агрегат, чтобы избежать непредсказуемых мутаций извне,
// и нормализует nil-позиции в пустой срез (контракт List/Get).
func cloneOrder(order domain.Order) domain.Order {
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return order
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
