package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/language"

	"github.com/tmorder/tmorder/internal/reminder"
	"github.com/tmorder/tmorder/internal/repository"
)

// OrderService exposes CRUD operations over translation orders. It is the
// single mutation path for every order field except reminder flags, which
// belong to the reminder engine.
type OrderService interface {
	Create(ctx context.Context, input OrderCreateInput) (*OrderView, error)
	Get(ctx context.Context, id int64) (*OrderView, error)
	List(ctx context.Context, status string) ([]OrderView, error)
	Update(ctx context.Context, id int64, input OrderUpdateInput) (*OrderView, error)
	Delete(ctx context.Context, id int64) error
	MarkDelivered(ctx context.Context, id int64) (*OrderView, error)
}

// OrderCreateInput captures fields accepted at order creation.
type OrderCreateInput struct {
	CustomerName string `json:"customer_name"`
	SourceLang   string `json:"source_lang"`
	TargetLang   string `json:"target_lang"`
	WordCount    *int64 `json:"word_count"`
	Topic        string `json:"topic"`
	DeadlineAt   string `json:"deadline_at"`
	ChatID       *int64 `json:"chat_id"`
}

// OrderUpdateInput carries a partial patch; nil fields stay untouched.
type OrderUpdateInput struct {
	CustomerName *string `json:"customer_name"`
	SourceLang   *string `json:"source_lang"`
	TargetLang   *string `json:"target_lang"`
	WordCount    *int64  `json:"word_count"`
	Topic        *string `json:"topic"`
	DeadlineAt   *string `json:"deadline_at"`
	Status       *string `json:"status"`
}

// OrderView mirrors the payload returned to API clients.
type OrderView struct {
	ID           int64           `json:"id"`
	CustomerName string          `json:"customer_name"`
	SourceLang   string          `json:"source_lang"`
	TargetLang   string          `json:"target_lang"`
	WordCount    *int64          `json:"word_count"`
	Topic        string          `json:"topic"`
	DeadlineAt   string          `json:"deadline_at"`
	Status       string          `json:"status"`
	Reminders    map[string]bool `json:"reminders"`
	CreatedAt    int64           `json:"created_at"`
	UpdatedAt    int64           `json:"updated_at"`
}

// deadline inputs accept RFC 3339 or a plain minute-resolution form; both are
// interpreted as UTC when no zone is given.
var deadlineLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04"}

var textSanitizer = sync.OnceValue(func() *bluemonday.Policy {
	return bluemonday.StrictPolicy()
})

type orderService struct {
	orders repository.OrderRepository
	now    func() time.Time
}

// NewOrderService constructs the order CRUD service.
func NewOrderService(orders repository.OrderRepository) OrderService {
	return &orderService{orders: orders, now: time.Now}
}

func (s *orderService) Create(ctx context.Context, input OrderCreateInput) (*OrderView, error) {
	customer := sanitizeText(input.CustomerName)
	if customer == "" {
		return nil, fmt.Errorf("%w: customer_name is required", ErrValidation)
	}
	srcLang, err := normalizeLang(input.SourceLang)
	if err != nil {
		return nil, err
	}
	tgtLang, err := normalizeLang(input.TargetLang)
	if err != nil {
		return nil, err
	}
	if input.WordCount != nil && *input.WordCount < 0 {
		return nil, fmt.Errorf("%w: word_count must not be negative", ErrValidation)
	}
	deadline, err := parseDeadline(input.DeadlineAt)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC().Unix()
	order := &repository.Order{
		CustomerName: customer,
		SourceLang:   srcLang,
		TargetLang:   tgtLang,
		WordCount:    input.WordCount,
		Topic:        sanitizeText(input.Topic),
		DeadlineAt:   deadline.Unix(),
		Status:       repository.StatusPending,
		ChatID:       input.ChatID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := s.orders.Create(ctx, order)
	if err != nil {
		return nil, err
	}
	view := newOrderView(created)
	return &view, nil
}

func (s *orderService) Get(ctx context.Context, id int64) (*OrderView, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	view := newOrderView(order)
	return &view, nil
}

func (s *orderService) List(ctx context.Context, status string) ([]OrderView, error) {
	filter := repository.OrderFilter{}
	if status != "" {
		parsed := repository.OrderStatus(status)
		if !parsed.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
		}
		filter.Status = parsed
	}
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, newOrderView(order))
	}
	return views, nil
}

func (s *orderService) Update(ctx context.Context, id int64, input OrderUpdateInput) (*OrderView, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, ErrOrderTerminal
	}

	if input.CustomerName != nil {
		customer := sanitizeText(*input.CustomerName)
		if customer == "" {
			return nil, fmt.Errorf("%w: customer_name must not be empty", ErrValidation)
		}
		order.CustomerName = customer
	}
	if input.SourceLang != nil {
		lang, err := normalizeLang(*input.SourceLang)
		if err != nil {
			return nil, err
		}
		order.SourceLang = lang
	}
	if input.TargetLang != nil {
		lang, err := normalizeLang(*input.TargetLang)
		if err != nil {
			return nil, err
		}
		order.TargetLang = lang
	}
	if input.WordCount != nil {
		if *input.WordCount < 0 {
			return nil, fmt.Errorf("%w: word_count must not be negative", ErrValidation)
		}
		order.WordCount = input.WordCount
	}
	if input.Topic != nil {
		order.Topic = sanitizeText(*input.Topic)
	}
	if input.DeadlineAt != nil {
		deadline, err := parseDeadline(*input.DeadlineAt)
		if err != nil {
			return nil, err
		}
		order.DeadlineAt = deadline.Unix()
	}
	if input.Status != nil {
		status := repository.OrderStatus(*input.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *input.Status)
		}
		order.Status = status
	}

	order.UpdatedAt = s.now().UTC().Unix()
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, mapRepoErr(err)
	}
	view := newOrderView(order)
	return &view, nil
}

func (s *orderService) Delete(ctx context.Context, id int64) error {
	return mapRepoErr(s.orders.Delete(ctx, id))
}

func (s *orderService) MarkDelivered(ctx context.Context, id int64) (*OrderView, error) {
	status := string(repository.StatusDelivered)
	return s.Update(ctx, id, OrderUpdateInput{Status: &status})
}

func (s *orderService) findOrder(ctx context.Context, id int64) (*repository.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return order, nil
}

func newOrderView(order *repository.Order) OrderView {
	reminders := make(map[string]bool, len(reminder.Horizons))
	for _, spec := range reminder.Horizons {
		reminders[string(spec.Name)] = order.ReminderFlags.Has(spec.Flag)
	}
	return OrderView{
		ID:           order.ID,
		CustomerName: order.CustomerName,
		SourceLang:   order.SourceLang,
		TargetLang:   order.TargetLang,
		WordCount:    order.WordCount,
		Topic:        order.Topic,
		DeadlineAt:   time.Unix(order.DeadlineAt, 0).UTC().Format(time.RFC3339),
		Status:       string(order.Status),
		Reminders:    reminders,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
}

func sanitizeText(raw string) string {
	return strings.TrimSpace(textSanitizer().Sanitize(raw))
}

func normalizeLang(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: language code is required", ErrValidation)
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: unknown language code %q", ErrValidation, raw)
	}
	base, _ := tag.Base()
	return base.String(), nil
}

func parseDeadline(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: deadline_at is required", ErrValidation)
	}
	for _, layout := range deadlineLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse deadline %q", ErrValidation, raw)
}

func mapRepoErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
