package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"orders/internal/domain"
)

const opTimeout = 5 * time.Second

type orderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
// Семантика операций идентична SQLite-бэкенду.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// Create вставляет шапку и все позиции в одной транзакции; любая ошибка
// откатывает транзакцию целиком.
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
		`INSERT INTO "Order" (orderId, value, creationDate) VALUES ($1, $2, $3)`,
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
			`INSERT INTO Items (orderId, productId, quantity, price) VALUES ($1, $2, $3, $4)`,
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

// Get читает шапку, затем позиции; два чтения намеренно не обёрнуты в
// транзакцию (то же осознанное ослабление, что и у SQLite-бэкенда).
func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var order domain.Order
	err := r.db.QueryRowContext(ctx,
		`SELECT orderId, value, creationDate FROM "Order" WHERE orderId = $1`, id,
	).Scan(&order.ID, &order.Value, &order.CreationDate)
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
	order.Items = items

	return order, nil
}

// List выполняет два запроса независимо от числа заказов: шапки, затем
// один батч позиций через IN-список.
func (r *orderRepository) List() ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT orderId, value, creationDate FROM "Order"`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.Value, &order.CreationDate); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}

	query, args, err := sqlx.In(
		`SELECT orderId, productId, quantity, price FROM Items WHERE orderId IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build items batch query: %w", err)
	}

	itemRows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("load items batch: %w", err)
	}
	defer itemRows.Close()

	itemsByOrder := make(map[string][]domain.OrderItem, len(orders))
	for itemRows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := itemRows.Scan(&orderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		itemsByOrder[orderID] = append(itemsByOrder[orderID], item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	for i := range orders {
		items, ok := itemsByOrder[orders[i].ID]
		if !ok {
			items = make([]domain.OrderItem, 0)
		}
		orders[i].Items = items
	}

	return orders, nil
}

// Update в одной транзакции обновляет шапку, удаляет старые позиции и
// вставляет новые. Отсутствующий заказ даёт ноль затронутых строк и
// не считается ошибкой репозитория.
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

	_, err = tx.ExecContext(ctx,
		`UPDATE "Order" SET value = $1, creationDate = $2 WHERE orderId = $3`,
		order.Value, order.CreationDate, order.ID,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM Items WHERE orderId = $1`, order.ID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}

	for _, item := range order.Items {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO Items (orderId, productId, quantity, price) VALUES ($1, $2, $3, $4)`,
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

// Delete удаляет шапку; позиции уходят каскадом. Возвращает число
// затронутых строк шапки.
func (r *orderRepository) Delete(id string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM "Order" WHERE orderId = $1`, id)
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
	rows, err := r.db.QueryContext(ctx,
		`SELECT productId, quantity, price FROM Items WHERE orderId = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.OrderRepository = (*orderRepository)(nil)
