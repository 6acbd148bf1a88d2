// Package tui renders a terminal order board over the local database.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tmorder/tmorder/internal/repository"
	"github.com/tmorder/tmorder/internal/repository/sqlite"
)

// OrderInfo couples an order row with its display urgency.
type OrderInfo struct {
	Order   *repository.Order
	Urgency Urgency
}

// Urgency buckets an open order by how close its deadline is.
type Urgency string

const (
	UrgencyOverdue  Urgency = "overdue"
	UrgencyCritical Urgency = "critical" // inside the 2h horizon
	UrgencySoon     Urgency = "soon"     // inside the 24h horizon
	UrgencyCalm     Urgency = "calm"
	UrgencyClosed   Urgency = "closed"
)

// Model is the main TUI model.
type Model struct {
	orders   []OrderInfo
	selected int

	showClosed bool

	store *sqlite.Store

	width  int
	height int

	loading bool
	err     error

	keys keyMap
}

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Quit    key.Binding
	Refresh key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle closed"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}

// NewModel creates a new TUI model.
func NewModel(store *sqlite.Store) Model {
	return Model{
		store:   store,
		keys:    defaultKeyMap(),
		loading: true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadOrders(),
		tickCmd(),
	)
}

type ordersLoadedMsg struct {
	orders []OrderInfo
}

type errorMsg struct {
	err error
}

type tickMsg time.Time

func (m Model) loadOrders() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		rows, err := m.store.Orders().List(ctx, repository.OrderFilter{})
		if err != nil {
			return errorMsg{err: err}
		}

		now := time.Now().UTC()
		orders := make([]OrderInfo, 0, len(rows))
		for _, order := range rows {
			if !m.showClosed && order.Status.Terminal() {
				continue
			}
			orders = append(orders, OrderInfo{
				Order:   order,
				Urgency: calcUrgency(order, now),
			})
		}
		return ordersLoadedMsg{orders: orders}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(30*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func calcUrgency(order *repository.Order, now time.Time) Urgency {
	if order.Status.Terminal() {
		return UrgencyClosed
	}
	remaining := time.Unix(order.DeadlineAt, 0).UTC().Sub(now)
	switch {
	case remaining < 0:
		return UrgencyOverdue
	case remaining <= 2*time.Hour:
		return UrgencyCritical
	case remaining <= 24*time.Hour:
		return UrgencySoon
	default:
		return UrgencyCalm
	}
}
