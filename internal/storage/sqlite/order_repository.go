package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"

	"orders/internal/domain"
)

const opTimeout = 5 * time.Second

// orderRecord и itemRecord отображают строки таблиц на агрегат.
type orderRecord struct {
	ID           string `db:"orderId"`
	Value        int64  `db:"value"`
	CreationDate string `db:"creationDate"`
}

type itemRecord struct {
	OrderID   string `db:"orderId"`
	ProductID int64  `db:"productId"`
	Quantity  int64  `db:"quantity"`
	Price     int64  `db:"price"`
}

type orderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository создаёт SQLite-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// Create вставляет шапку и все позиции в одной транзакции. Любая ошибка
// откатывает транзакцию целиком: ни одна строка этого вызова не переживёт сбой.
func (r *orderRepository) Create(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO "Order" (orderId, value, creationDate) VALUES (?, ?, ?)`,
		order.ID, order.Value, order.CreationDate,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderAlreadyExists
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO Items (orderId, productId, quantity, price) VALUES (?, ?, ?, ?)`,
			order.ID, item.ProductID, item.Quantity, item.Price,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}

	return nil
}

// Get читает шапку, затем позиции. Два чтения намеренно не обёрнуты в
// транзакцию: при единственной пишущей сессии разрыв между запросами
// считается допустимым (осознанное ослабление согласованности).
func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var rec orderRecord
	err := r.db.GetContext(ctx, &rec,
		`SELECT orderId, value, creationDate FROM "Order" WHERE orderId = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	return rec.toDomain(items), nil
}

// List выполняет ровно два запроса независимо от числа заказов: все шапки,
// затем один батч по позициям через IN-список. Заказ без позиций получает
// пустой срез, а не nil.
func (r *orderRepository) List() ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var recs []orderRecord
	if err := r.db.SelectContext(ctx, &recs,
		`SELECT orderId, value, creationDate FROM "Order"`); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	orders := make([]domain.Order, 0, len(recs))
	if len(recs) == 0 {
		return orders, nil
	}

	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ID)
	}

	query, args, err := sqlx.In(
		`SELECT orderId, productId, quantity, price FROM Items WHERE orderId IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build items batch query: %w", err)
	}

	var itemRecs []itemRecord
	if err := r.db.SelectContext(ctx, &itemRecs, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load items batch: %w", err)
	}

	itemsByOrder := make(map[string][]domain.OrderItem, len(recs))
	for _, it := range itemRecs {
		itemsByOrder[it.OrderID] = append(itemsByOrder[it.OrderID], it.toDomain())
	}

	for _, rec := range recs {
		items, ok := itemsByOrder[rec.ID]
		if !ok {
			items = make([]domain.OrderItem, 0)
		}
		orders = append(orders, rec.toDomain(items))
	}

	return orders, nil
}

// Update в одной транзакции обновляет шапку (ID не меняется), удаляет все
// старые позиции и вставляет новые. Либо применяется всё, либо ничего:
// частично заменённого набора позиций наблюдатель не увидит.
func (r *orderRepository) Update(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Отсутствующий заказ даст ноль затронутых строк; это не ошибка
	// репозитория, существование проверяет вызывающая сторона.
	_, err = tx.ExecContext(ctx,
		`UPDATE "Order" SET value = ?, creationDate = ? WHERE orderId = ?`,
		order.Value, order.CreationDate, order.ID,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM Items WHERE orderId = ?`, order.ID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}

	for _, item := range order.Items {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO Items (orderId, productId, quantity, price) VALUES (?, ?, ?, ?)`,
			order.ID, item.ProductID, item.Quantity, item.Price,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update order: %w", err)
	}

	return nil
}

// Delete удаляет шапку одним стейтментом; позиции уходят каскадом в рамках
// того же удаления. Возвращает число затронутых строк шапки (0 или 1),
// чтобы вызывающая сторона отличала "не найдено" без отдельного запроса.
func (r *orderRepository) Delete(id string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM "Order" WHERE orderId = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return affected, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	var recs []itemRecord
	if err := r.db.SelectContext(ctx, &recs,
		`SELECT orderId, productId, quantity, price FROM Items WHERE orderId = ?`, orderID); err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, rec.toDomain())
	}

	return items, nil
}

func (r orderRecord) toDomain(items []domain.OrderItem) domain.Order {
	return domain.Order{
		ID:           r.ID,
		Value:        r.Value,
		CreationDate: r.CreationDate,
		Items:        items,
	}
}

func (r itemRecord) toDomain() domain.OrderItem {
	return domain.OrderItem{
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		Price:     r.Price,
	}
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

var _ domain.OrderRepository = (*orderRepository)(nil)
