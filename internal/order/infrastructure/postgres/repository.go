package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	catalogdomain "github.com/sajidhasan/bike-store-checkout/internal/catalog/domain"
	"github.com/sajidhasan/bike-store-checkout/internal/order/application"
	"github.com/sajidhasan/bike-store-checkout/internal/order/domain"
	"github.com/sajidhasan/bike-store-checkout/pkg/apperrors"
)

const orderColumns = `id, user_id, total_cents, transaction_id, status, payment_status, is_deleted, created_at, updated_at`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// CreatePendingWithStock is the placement unit of work: re-validate
// stock under a row lock, decrement it, insert the order and its line
// items, and append the outbox event. Two placements racing for the
// last unit serialize on the product row; the loser re-reads the
// post-commit quantity and fails the stock check.
func (r *Repository) CreatePendingWithStock(ctx context.Context, o domain.Order, eventType string, payload []byte, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	for _, item := range o.Items {
		var p catalogdomain.Product
		err := tx.QueryRow(ctx, `
			SELECT id, quantity FROM products
			WHERE id=$1 AND NOT is_deleted
			FOR UPDATE`, item.ProductID).Scan(&p.ID, &p.Quantity)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("product not found")
		}
		if err != nil {
			return err
		}
		if err := catalogdomain.ValidateReservation(p, item.Quantity); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE products
			SET quantity = quantity - $2,
			    in_stock = (quantity - $2) > 0,
			    updated_at = $3
			WHERE id=$1`, item.ProductID, item.Quantity, now)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,false,$7,$8)`,
		o.ID, o.UserID, o.TotalCents, o.TransactionID, o.Status, o.PaymentStatus,
		o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}
	for _, item := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity)
			VALUES ($1,$2,$3)`, o.ID, item.ProductID, item.Quantity)
		if err != nil {
			return err
		}
	}

	if err := appendOutbox(ctx, tx, o.ID, eventType, payload, traceparent); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) GetByTransactionID(ctx context.Context, transactionID string) (domain.Order, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE transaction_id=$1`, transactionID)
	o, err := scanOrder(row)
	if apperrors.Is(err, apperrors.KindNotFound) {
		return domain.Order{}, apperrors.NotFound("no order found with this transaction ID")
	}
	if err != nil {
		return domain.Order{}, err
	}
	if err := r.loadItems(ctx, &o); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

// MarkPaid transitions to PROCESSING/PAID. The guard predicate makes a
// redelivered success callback affect zero rows, which surfaces as
// BadRequest rather than silently re-applying.
func (r *Repository) MarkPaid(ctx context.Context, transactionID, eventType string, payload []byte, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var orderID string
	err = tx.QueryRow(ctx, `
		UPDATE orders
		SET status=$2, payment_status=$3, updated_at=$4
		WHERE transaction_id=$1 AND (status <> $2 OR payment_status <> $3)
		RETURNING id`,
		transactionID, domain.StatusProcessing, domain.PaymentPaid, time.Now().UTC()).Scan(&orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.BadRequest("order was not updated")
	}
	if err != nil {
		return err
	}

	// Outbox events are keyed by order id so this event lands on the
	// same partition as the order's OrderPlaced.
	if err := appendOutbox(ctx, tx, orderID, eventType, payload, traceparent); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// DeleteAndRestock removes the order and returns its reserved stock to
// the product rows in the same transaction.
func (r *Repository) DeleteAndRestock(ctx context.Context, transactionID, eventType string, payload []byte, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var orderID string
	err = tx.QueryRow(ctx, `
		SELECT id FROM orders WHERE transaction_id=$1 FOR UPDATE`, transactionID).Scan(&orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.BadRequest("failed to delete order")
	}
	if err != nil {
		return err
	}

	rows, err := tx.Query(ctx, `
		SELECT product_id, quantity FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return err
	}
	items, err := collectItems(rows)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, item := range items {
		_, err = tx.Exec(ctx, `
			UPDATE products
			SET quantity = quantity + $2,
			    in_stock = (quantity + $2) > 0,
			    updated_at = $3
			WHERE id=$1`, item.ProductID, item.Quantity, now)
		if err != nil {
			return err
		}
	}

	ct, err := tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, orderID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperrors.BadRequest("failed to delete order")
	}

	if err := appendOutbox(ctx, tx, orderID, eventType, payload, traceparent); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) List(ctx context.Context, f application.ListFilter) ([]domain.Order, int, error) {
	where := `NOT is_deleted`
	args := []any{f.Limit, (f.Page - 1) * f.Limit}
	if f.UserID != "" {
		where += ` AND user_id=$3`
		args = append(args, f.UserID)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE `+where+`
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, 0, err
		}
	}

	countArgs := []any{}
	countWhere := `NOT is_deleted`
	if f.UserID != "" {
		countWhere += ` AND user_id=$1`
		countArgs = append(countArgs, f.UserID)
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE `+countWhere, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status *domain.OrderStatus, paymentStatus *domain.PaymentStatus) (domain.Order, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE orders
		SET status = COALESCE($2, status),
		    payment_status = COALESCE($3, payment_status),
		    updated_at = $4
		WHERE id=$1
		RETURNING `+orderColumns,
		id, (*string)(status), (*string)(paymentStatus), time.Now().UTC())
	o, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, err
	}
	if err := r.loadItems(ctx, &o); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *Repository) SoftDelete(ctx context.Context, id string) (domain.Order, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE orders SET is_deleted=true, updated_at=$2
		WHERE id=$1
		RETURNING `+orderColumns, id, time.Now().UTC())
	o, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, err
	}
	if err := r.loadItems(ctx, &o); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *Repository) loadItems(ctx context.Context, o *domain.Order) error {
	rows, err := r.pool.Query(ctx, `
		SELECT product_id, quantity FROM order_items WHERE order_id=$1`, o.ID)
	if err != nil {
		return err
	}
	items, err := collectItems(rows)
	if err != nil {
		return err
	}
	o.Items = items
	return nil
}

func collectItems(rows pgx.Rows) ([]domain.LineItem, error) {
	defer rows.Close()
	var items []domain.LineItem
	for rows.Next() {
		var it domain.LineItem
		if err := rows.Scan(&it.ProductID, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.UserID, &o.TotalCents, &o.TransactionID,
		&o.Status, &o.PaymentStatus, &o.IsDeleted, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, apperrors.NotFound("order not found")
	}
	if err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func appendOutbox(ctx context.Context, tx pgx.Tx, aggregateID, eventType string, payload []byte, traceparent string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
		VALUES ('order', $1, $2, $3, $4, 'pending')`,
		aggregateID, eventType, payload, traceparent)
	return err
}
