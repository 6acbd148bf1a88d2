package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ordersLoadedMsg:
		m.loading = false
		m.orders = msg.orders
		m.err = nil
		if m.selected >= len(m.orders) {
			m.selected = max(0, len(m.orders)-1)
		}
		return m, nil

	case errorMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.loadOrders(), tickCmd())
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.orders)-1 {
			m.selected++
		}
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		m.showClosed = !m.showClosed
		m.loading = true
		return m, m.loadOrders()

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.loadOrders()
	}

	return m, nil
}
