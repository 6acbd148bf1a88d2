package reminder

import (
	"fmt"
	"time"

	"github.com/tmorder/tmorder/internal/repository"
)

const deadlineLayout = "2006-01-02 15:04 MST"

// FormatMessage renders the outbound reminder text for one pair.
func FormatMessage(spec HorizonSpec, order *repository.Order) string {
	topic := order.Topic
	if topic == "" {
		topic = "N/A"
	}
	deadline := time.Unix(order.DeadlineAt, 0).UTC().Format(deadlineLayout)
	return fmt.Sprintf("%s Order #%d (%s) is %s\nTopic: %s\nDeadline: %s",
		spec.Icon, order.ID, order.CustomerName, spec.Label, topic, deadline)
}
