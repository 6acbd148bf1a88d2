package tui

import (
	"fmt"
	"strings"
	"time"
)

// View implements tea.Model
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	title := "Translation Orders"
	if m.showClosed {
		title += " (including closed)"
	}
	b.WriteString(styleTitle.Render(title))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styleCritical.Render(fmt.Sprintf("  Error: %v", m.err)))
		b.WriteString("\n\n")
	}
	if m.loading {
		b.WriteString(styleMuted().Render("  Loading..."))
		b.WriteString("\n\n")
	}

	tableHeader := fmt.Sprintf(
		"  %-4s │ %-20s │ %-7s │ %-16s │ %-12s │ %-11s │ %s",
		"ID", "Customer", "Langs", "Deadline", "Time left", "Status", "Urgency",
	)
	b.WriteString(styleTableHeader.Width(m.width).Render(tableHeader))
	b.WriteString("\n")
	b.WriteString(styleMuted().Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	if len(m.orders) == 0 {
		b.WriteString(styleMuted().Render("  No orders. Create one via the API or the bot."))
		b.WriteString("\n")
	} else {
		visibleRows := m.height - 10
		if visibleRows < 5 {
			visibleRows = 5
		}

		startIdx := 0
		if m.selected >= visibleRows {
			startIdx = m.selected - visibleRows + 1
		}
		endIdx := startIdx + visibleRows
		if endIdx > len(m.orders) {
			endIdx = len(m.orders)
		}

		for i := startIdx; i < endIdx; i++ {
			b.WriteString(m.renderOrderRow(m.orders[i], i == m.selected))
			b.WriteString("\n")
		}

		if len(m.orders) > visibleRows {
			scrollInfo := fmt.Sprintf("  Showing %d-%d of %d orders", startIdx+1, endIdx, len(m.orders))
			b.WriteString(styleMuted().Render(scrollInfo))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderSummary())
	b.WriteString("\n\n")

	help := styleHelp.Render("  [↑/↓] Navigate  [a] Toggle closed  [r] Refresh  [q] Quit")
	b.WriteString(help)

	return b.String()
}

func (m Model) renderOrderRow(info OrderInfo, selected bool) string {
	order := info.Order

	customer := order.CustomerName
	if len(customer) > 20 {
		customer = customer[:17] + "..."
	}

	langs := order.SourceLang + "→" + order.TargetLang
	deadline := time.Unix(order.DeadlineAt, 0).UTC().Format("2006-01-02 15:04")

	row := fmt.Sprintf(
		"  %-4d │ %-20s │ %-7s │ %-16s │ %-12s │ %-11s │ %s",
		order.ID, customer, langs, deadline,
		formatTimeLeft(order.DeadlineAt), order.Status, UrgencyIcon(info.Urgency),
	)

	if selected {
		return styleTableRowSelected.Width(m.width).Render(row)
	}
	return styleTableRow.Render(row)
}

func (m Model) renderSummary() string {
	var overdue, critical, soon, calm int
	for _, info := range m.orders {
		switch info.Urgency {
		case UrgencyOverdue:
			overdue++
		case UrgencyCritical:
			critical++
		case UrgencySoon:
			soon++
		case UrgencyCalm:
			calm++
		}
	}
	summary := fmt.Sprintf("  %s  %s  %s  %s",
		styleCritical.Render(fmt.Sprintf("%d overdue", overdue)),
		styleCritical.Render(fmt.Sprintf("%d <2h", critical)),
		styleSoon.Render(fmt.Sprintf("%d <24h", soon)),
		styleCalm.Render(fmt.Sprintf("%d on track", calm)),
	)
	return styleBox.Width(m.width - 4).Render(summary)
}

func formatTimeLeft(deadlineAt int64) string {
	remaining := time.Until(time.Unix(deadlineAt, 0))
	if remaining < 0 {
		remaining = -remaining
		if remaining > 48*time.Hour {
			return fmt.Sprintf("-%dd", int(remaining.Hours()/24))
		}
		return fmt.Sprintf("-%dh%02dm", int(remaining.Hours()), int(remaining.Minutes())%60)
	}
	if remaining > 48*time.Hour {
		return fmt.Sprintf("%dd", int(remaining.Hours()/24))
	}
	return fmt.Sprintf("%dh%02dm", int(remaining.Hours()), int(remaining.Minutes())%60)
}
