package bot

import (
	"context"
	"strconv"
	"time"

	"github.com/tmorder/tmorder/internal/cache"
	"github.com/tmorder/tmorder/internal/service"
)

// Dialogue steps for the /new order flow, in order.
const (
	stepCustomer = "customer"
	stepSource   = "source"
	stepTarget   = "target"
	stepWords    = "words"
	stepTopic    = "topic"
	stepDeadline = "deadline"
)

const sessionTTL = 10 * time.Minute

// session holds the in-flight /new dialogue state for one chat. It lives in
// the TTL cache, so an abandoned dialogue expires on its own.
type session struct {
	Step  string                   `json:"step"`
	Draft service.OrderCreateInput `json:"draft"`
}

type sessionStore struct {
	cache cache.Store
}

func newSessionStore(store cache.Store) *sessionStore {
	return &sessionStore{cache: store.Namespace("bot:session")}
}

func (s *sessionStore) get(ctx context.Context, chatID int64) (*session, bool) {
	var sess session
	ok, err := s.cache.GetJSON(ctx, strconv.FormatInt(chatID, 10), &sess)
	if err != nil || !ok {
		return nil, false
	}
	return &sess, true
}

func (s *sessionStore) put(ctx context.Context, chatID int64, sess *session) {
	_ = s.cache.SetJSON(ctx, strconv.FormatInt(chatID, 10), sess, sessionTTL)
}

func (s *sessionStore) clear(ctx context.Context, chatID int64) {
	s.cache.Delete(ctx, strconv.FormatInt(chatID, 10))
}
