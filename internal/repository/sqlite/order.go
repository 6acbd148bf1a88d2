package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tmorder/tmorder/internal/repository"
)

type orderRepo struct {
	db *sql.DB
}

func (r *orderRepo) Create(ctx context.Context, order *repository.Order) (*repository.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	const stmt = `INSERT INTO orders(customer_name, source_lang, target_lang, word_count, topic, deadline_at, status, reminder_flags, chat_id, created_at, updated_at)
	              VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, stmt,
		order.CustomerName,
		order.SourceLang,
		order.TargetLang,
		nullableInt(order.WordCount),
		nullableText(order.Topic),
		order.DeadlineAt,
		string(order.Status),
		int64(order.ReminderFlags),
		nullableInt(order.ChatID),
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if id, err := res.LastInsertId(); err == nil {
		order.ID = id
	}
	return order, nil
}

func (r *orderRepo) FindByID(ctx context.Context, id int64) (*repository.Order, error) {
	row := r.db.QueryRowContext(ctx, orderByIDQuery, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepo) List(ctx context.Context, filter repository.OrderFilter) ([]*repository.Order, error) {
	query := listOrdersQuery
	args := make([]any, 0, 2)
	where := ""
	if filter.Status != "" {
		where = ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.ChatID != nil {
		if where == "" {
			where = ` WHERE chat_id = ?`
		} else {
			where += ` AND chat_id = ?`
		}
		args = append(args, *filter.ChatID)
	}
	query += where + ` ORDER BY deadline_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*repository.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepo) Update(ctx context.Context, order *repository.Order) error {
	if order == nil {
		return errors.New("order is nil")
	}
	const stmt = `UPDATE orders
	              SET customer_name = ?, source_lang = ?, target_lang = ?, word_count = ?, topic = ?, deadline_at = ?, status = ?, chat_id = ?, updated_at = ?
	              WHERE id = ?`
	res, err := r.db.ExecContext(ctx, stmt,
		order.CustomerName,
		order.SourceLang,
		order.TargetLang,
		nullableInt(order.WordCount),
		nullableText(order.Topic),
		order.DeadlineAt,
		string(order.Status),
		nullableInt(order.ChatID),
		order.UpdatedAt,
		order.ID,
	)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *orderRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *orderRepo) FindDueForReminder(ctx context.Context, lo, hi int64, flag repository.ReminderFlags) ([]*repository.Order, error) {
	rows, err := r.db.QueryContext(ctx, dueOrdersQuery, lo, hi, int64(flag))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*repository.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepo) MarkReminderSent(ctx context.Context, id int64, flag repository.ReminderFlags, updatedAt int64) error {
	// OR-ing the bit keeps the flag monotonic: set-once, never cleared.
	const stmt = `UPDATE orders SET reminder_flags = reminder_flags | ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, stmt, int64(flag), updatedAt, id)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type orderScanner interface {
	Scan(dest ...any) error
}

func scanOrder(scanner orderScanner) (*repository.Order, error) {
	var (
		id        int64
		customer  string
		srcLang   string
		tgtLang   string
		wordCount sql.NullInt64
		topic     sql.NullString
		deadline  int64
		status    string
		flags     int64
		chatID    sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	if err := scanner.Scan(&id, &customer, &srcLang, &tgtLang, &wordCount, &topic, &deadline, &status, &flags, &chatID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	order := &repository.Order{
		ID:            id,
		CustomerName:  customer,
		SourceLang:    srcLang,
		TargetLang:    tgtLang,
		Topic:         topic.String,
		DeadlineAt:    deadline,
		Status:        repository.OrderStatus(status),
		ReminderFlags: repository.ReminderFlags(flags),
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
	if wordCount.Valid {
		wc := wordCount.Int64
		order.WordCount = &wc
	}
	if chatID.Valid {
		cid := chatID.Int64
		order.ChatID = &cid
	}
	return order, nil
}

const (
	orderColumns = `id, customer_name, source_lang, target_lang, word_count, topic, deadline_at, status, reminder_flags, chat_id, created_at, updated_at`

	listOrdersQuery = `SELECT ` + orderColumns + ` FROM orders`

	orderByIDQuery = `SELECT ` + orderColumns + ` FROM orders WHERE id = ? LIMIT 1`

	dueOrdersQuery = `SELECT ` + orderColumns + `
	    FROM orders
	    WHERE deadline_at >= ? AND deadline_at <= ?
	      AND reminder_flags & ? = 0
	      AND status NOT IN ('delivered', 'cancelled')
	    ORDER BY deadline_at ASC`
)
