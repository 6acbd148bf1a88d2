package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/tmorder/tmorder/internal/repository"
)

// CalendarService renders the subscribable deadline calendar. Access is gated
// by a single opaque token carried as a query parameter, the only credential
// the feed supports.
type CalendarService interface {
	Feed(ctx context.Context, token string) (string, error)
}

type calendarService struct {
	orders repository.OrderRepository
	token  string
}

// NewCalendarService builds the ICS feed service. The token must be non-empty;
// bootstrap guarantees one exists before the service is constructed.
func NewCalendarService(orders repository.OrderRepository, token string) CalendarService {
	return &calendarService{orders: orders, token: token}
}

func (s *calendarService) Feed(ctx context.Context, token string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
		return "", ErrInvalidToken
	}
	orders, err := s.orders.List(ctx, repository.OrderFilter{})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	writeICSLine(&b, "BEGIN:VCALENDAR")
	writeICSLine(&b, "VERSION:2.0")
	writeICSLine(&b, "PRODID:-//tmorder//Deadline Calendar//EN")
	writeICSLine(&b, "CALSCALE:GREGORIAN")
	writeICSLine(&b, "METHOD:PUBLISH")
	writeICSLine(&b, "X-WR-CALNAME:Translation Deadlines")
	for _, order := range orders {
		if order.Status == repository.StatusDelivered {
			continue
		}
		writeEvent(&b, order)
	}
	writeICSLine(&b, "END:VCALENDAR")
	return b.String(), nil
}

func writeEvent(b *strings.Builder, order *repository.Order) {
	deadline := time.Unix(order.DeadlineAt, 0).UTC()
	day := deadline.Format("20060102")
	nextDay := deadline.AddDate(0, 0, 1).Format("20060102")

	summary := fmt.Sprintf("#%d %s %s→%s",
		order.ID, order.CustomerName, order.SourceLang, order.TargetLang)

	var desc strings.Builder
	desc.WriteString("Due " + deadline.Format("2006-01-02 15:04 MST"))
	if order.Topic != "" {
		desc.WriteString("\nTopic: " + order.Topic)
	}
	if order.WordCount != nil {
		desc.WriteString(fmt.Sprintf("\nWords: %d", *order.WordCount))
	}
	desc.WriteString("\nStatus: " + string(order.Status))

	writeICSLine(b, "BEGIN:VEVENT")
	writeICSLine(b, fmt.Sprintf("UID:tmorder-%d@tmorder", order.ID))
	writeICSLine(b, "DTSTAMP:"+time.Unix(order.UpdatedAt, 0).UTC().Format("20060102T150405Z"))
	writeICSLine(b, "DTSTART;VALUE=DATE:"+day)
	writeICSLine(b, "DTEND;VALUE=DATE:"+nextDay)
	writeICSLine(b, "SUMMARY:"+escapeICSText(summary))
	writeICSLine(b, "DESCRIPTION:"+escapeICSText(desc.String()))
	writeICSLine(b, "END:VEVENT")
}

// writeICSLine emits one content line with CRLF termination and 75-octet
// folding as required by RFC 5545 §3.1.
func writeICSLine(b *strings.Builder, line string) {
	const limit = 75
	for len(line) > limit {
		cut := limit
		// never split in the middle of a UTF-8 sequence
		for cut > 0 && line[cut]&0xC0 == 0x80 {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

func escapeICSText(text string) string {
	r := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\n", "\\n",
	)
	return r.Replace(text)
}
