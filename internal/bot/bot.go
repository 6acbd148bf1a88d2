// Package bot implements the Telegram chat front-end: long polling for
// updates, command handling and the guided order creation dialogue.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/tmorder/tmorder/internal/cache"
	"github.com/tmorder/tmorder/internal/notifier"
	"github.com/tmorder/tmorder/internal/service"
)

// Bot consumes Telegram updates and drives the order dialogue.
type Bot struct {
	source   UpdateSource
	sink     notifier.Service
	orders   service.OrderService
	sessions *sessionStore
	logger   *slog.Logger
	offset   int64
}

// Options configure the bot.
type Options struct {
	Source UpdateSource
	Sink   notifier.Service
	Orders service.OrderService
	Cache  cache.Store
	Logger *slog.Logger
}

// New wires a bot instance.
func New(opts Options) (*Bot, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("bot: update source is required")
	}
	if opts.Sink == nil {
		return nil, fmt.Errorf("bot: notification sink is required")
	}
	if opts.Orders == nil {
		return nil, fmt.Errorf("bot: order service is required")
	}
	if opts.Cache == nil {
		return nil, fmt.Errorf("bot: cache store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		source:   opts.Source,
		sink:     opts.Sink,
		orders:   opts.Orders,
		sessions: newSessionStore(opts.Cache),
		logger:   logger,
	}, nil
}

// Run long-polls for updates until the context is cancelled. Poll errors are
// logged and retried with a short pause, they never kill the loop.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("bot started")
	for {
		updates, err := b.source.Updates(ctx, b.offset)
		if err != nil {
			if ctx.Err() != nil {
				b.logger.Info("bot stopped")
				return ctx.Err()
			}
			b.logger.Error("poll updates failed", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}
		for _, update := range updates {
			if update.UpdateID >= b.offset {
				b.offset = update.UpdateID + 1
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes a single update. Exported so tests can drive the
// dialogue without a poll loop.
func (b *Bot) HandleUpdate(ctx context.Context, update Update) {
	if update.Message == nil {
		return
	}
	msg := update.Message
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, msg.Chat.ID, text)
		return
	}

	if sess, ok := b.sessions.get(ctx, msg.Chat.ID); ok {
		b.advanceDialogue(ctx, msg.Chat.ID, sess, text)
		return
	}

	b.reply(ctx, msg.Chat.ID, "I did not get that. Send /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, text string) {
	fields := strings.Fields(text)
	command := strings.ToLower(fields[0])
	// strip the @botname suffix used in group chats
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}

	switch command {
	case "/start":
		b.sessions.clear(ctx, chatID)
		b.reply(ctx, chatID, startMessage)
	case "/help":
		b.reply(ctx, chatID, helpMessage)
	case "/orders":
		b.handleOrders(ctx, chatID)
	case "/done":
		b.handleDone(ctx, chatID, fields[1:])
	case "/new":
		b.sessions.put(ctx, chatID, &session{Step: stepCustomer})
		b.reply(ctx, chatID, "Creating a new order. Who is the customer?")
	case "/cancel":
		if _, ok := b.sessions.get(ctx, chatID); ok {
			b.sessions.clear(ctx, chatID)
			b.reply(ctx, chatID, "Order creation cancelled.")
			return
		}
		b.reply(ctx, chatID, "Nothing to cancel.")
	default:
		b.reply(ctx, chatID, "Unknown command. Send /help for the command list.")
	}
}

func (b *Bot) handleOrders(ctx context.Context, chatID int64) {
	views, err := b.orders.List(ctx, "")
	if err != nil {
		b.logger.Error("list orders failed", "error", err)
		b.reply(ctx, chatID, "Could not load orders, try again later.")
		return
	}

	var lines []string
	for _, view := range views {
		if view.Status == "delivered" || view.Status == "cancelled" {
			continue
		}
		line := fmt.Sprintf("#%d %s %s→%s due %s [%s]",
			view.ID, view.CustomerName, view.SourceLang, view.TargetLang,
			view.DeadlineAt, view.Status)
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		b.reply(ctx, chatID, "No open orders. 🎉")
		return
	}
	b.reply(ctx, chatID, "Open orders:\n"+strings.Join(lines, "\n"))
}

func (b *Bot) handleDone(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		b.reply(ctx, chatID, "Usage: /done <order id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		b.reply(ctx, chatID, fmt.Sprintf("%q is not an order id. Usage: /done <order id>", args[0]))
		return
	}

	view, err := b.orders.MarkDelivered(ctx, id)
	switch {
	case err == nil:
		b.reply(ctx, chatID, fmt.Sprintf("✅ Order #%d (%s) marked as delivered.", view.ID, view.CustomerName))
	case errors.Is(err, service.ErrNotFound):
		b.reply(ctx, chatID, fmt.Sprintf("Order #%d does not exist.", id))
	case errors.Is(err, service.ErrOrderTerminal):
		b.reply(ctx, chatID, fmt.Sprintf("Order #%d is already closed.", id))
	default:
		b.logger.Error("mark delivered failed", "order_id", id, "error", err)
		b.reply(ctx, chatID, "Could not update the order, try again later.")
	}
}

func (b *Bot) advanceDialogue(ctx context.Context, chatID int64, sess *session, answer string) {
	skip := answer == "-"

	switch sess.Step {
	case stepCustomer:
		sess.Draft.CustomerName = answer
		sess.Step = stepSource
		b.sessions.put(ctx, chatID, sess)
		b.reply(ctx, chatID, "Source language? (e.g. en)")
	case stepSource:
		sess.Draft.SourceLang = answer
		sess.Step = stepTarget
		b.sessions.put(ctx, chatID, sess)
		b.reply(ctx, chatID, "Target language? (e.g. de)")
	case stepTarget:
		sess.Draft.TargetLang = answer
		sess.Step = stepWords
		b.sessions.put(ctx, chatID, sess)
		b.reply(ctx, chatID, "Word count? (or - to skip)")
	case stepWords:
		if !skip {
			words, err := strconv.ParseInt(answer, 10, 64)
			if err != nil || words < 0 {
				b.reply(ctx, chatID, "Word count must be a number, or - to skip.")
				return
			}
			sess.Draft.WordCount = &words
		}
		sess.Step = stepTopic
		b.sessions.put(ctx, chatID, sess)
		b.reply(ctx, chatID, "Topic? (or - to skip)")
	case stepTopic:
		if !skip {
			sess.Draft.Topic = answer
		}
		sess.Step = stepDeadline
		b.sessions.put(ctx, chatID, sess)
		b.reply(ctx, chatID, "Deadline? (YYYY-MM-DD HH:MM, UTC)")
	case stepDeadline:
		sess.Draft.DeadlineAt = answer
		sess.Draft.ChatID = &chatID
		view, err := b.orders.Create(ctx, sess.Draft)
		if err != nil {
			if errors.Is(err, service.ErrValidation) {
				b.reply(ctx, chatID, fmt.Sprintf("That did not work: %v\nSend the corrected value, or /cancel.", err))
				b.sessions.put(ctx, chatID, sess)
				return
			}
			b.logger.Error("create order failed", "error", err)
			b.reply(ctx, chatID, "Could not create the order, try again later.")
			b.sessions.clear(ctx, chatID)
			return
		}
		b.sessions.clear(ctx, chatID)
		b.reply(ctx, chatID, fmt.Sprintf(
			"📋 Order #%d created for %s (%s→%s), due %s.\nI will remind you 24h, 6h and 2h before the deadline.",
			view.ID, view.CustomerName, view.SourceLang, view.TargetLang, view.DeadlineAt))
	default:
		b.sessions.clear(ctx, chatID)
		b.reply(ctx, chatID, "Something went wrong, dialogue reset. Send /new to start over.")
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	err := b.sink.Send(ctx, notifier.Message{ChatID: chatID, Text: text})
	if err != nil && !errors.Is(err, notifier.ErrNotImplemented) {
		b.logger.Error("send reply failed", "chat_id", chatID, "error", err)
	}
}

const startMessage = `Welcome to TM-Order! 📋

I track your translation orders and remind you before deadlines.

Available commands:
/new - Create a new order
/orders - List open orders
/done <id> - Mark an order as delivered
/help - Show help`

const helpMessage = `📋 TM-Order Help

Commands:
/new - Create an order step by step
/orders - List open orders
/done <id> - Mark an order as delivered
/cancel - Abort the current dialogue
/help - Show this help

I send reminders 24h, 6h and 2h before each deadline, and once more when it is due.`
