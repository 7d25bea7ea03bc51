package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/laptop-support/internal/logging"
	"github.com/zhouzirui/laptop-support/internal/model/chat"
	"github.com/zhouzirui/laptop-support/internal/service/support"
)

// Asker sends one query to the support endpoint.
type Asker interface {
	Ask(ctx context.Context, req support.Request) (support.Reply, error)
}

// Outcome reports what a submit attempt did.
type Outcome int

const (
	// OutcomeIgnored means the query was blank and nothing changed.
	OutcomeIgnored Outcome = iota
	// OutcomeBusy means another exchange was outstanding and nothing changed.
	OutcomeBusy
	// OutcomeDispatched means the user message was recorded and an exchange is outstanding.
	OutcomeDispatched
	// OutcomeReplied means the endpoint answered and its reply was recorded.
	OutcomeReplied
	// OutcomeFailed means the endpoint failed and the fallback reply was recorded.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeBusy:
		return "busy"
	case OutcomeDispatched:
		return "dispatched"
	case OutcomeReplied:
		return "replied"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Session owns one conversation and relays queries to the support endpoint.
// At most one exchange is outstanding at a time.
type Session struct {
	asker  Asker
	logger *zap.Logger

	mu        sync.Mutex
	id        string
	createdAt time.Time
	history   []chat.Message
	pending   string
	selected  chat.Context
	awaiting  bool

	subs    map[int]chan chat.State
	nextSub int
}

// Option customizes a Session.
type Option func(*Session)

// WithLogger sets the operator-facing logger that receives failure details.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		s.logger = logging.OrNop(l)
	}
}

// NewSession starts an empty conversation with the default context selected.
func NewSession(asker Asker, opts ...Option) *Session {
	s := &Session{
		asker:     asker,
		logger:    zap.NewNop(),
		id:        uuid.NewString(),
		createdAt: time.Now().UTC(),
		history:   make([]chat.Message, 0, 16),
		selected:  chat.DefaultContext,
		subs:      make(map[int]chan chat.State),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() chat.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SetPendingQuery stores the unsent input text.
func (s *Session) SetPendingQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == query {
		return
	}
	s.pending = query
	s.publishLocked()
}

// SelectContext changes the context used by SubmitPending.
func (s *Session) SelectContext(c chat.Context) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", chat.ErrUnknownContext, string(c))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected == c {
		return nil
	}
	s.selected = c
	s.publishLocked()
	return nil
}

// Submit relays query to the endpoint and records the outcome. It blocks
// until the exchange settles; endpoint failures become a fallback bot
// message and are never returned.
func (s *Session) Submit(ctx context.Context, query string, c chat.Context) Outcome {
	exchange, outcome := s.Dispatch(query, c)
	if exchange == nil {
		return outcome
	}
	return exchange.Await(ctx)
}

// SubmitPending submits the pending query with the selected context.
func (s *Session) SubmitPending(ctx context.Context) Outcome {
	exchange, outcome := s.DispatchPending()
	if exchange == nil {
		return outcome
	}
	return exchange.Await(ctx)
}

// DispatchPending is Dispatch for the pending query and selected context.
func (s *Session) DispatchPending() (*Exchange, Outcome) {
	s.mu.Lock()
	query, c := s.pending, s.selected
	s.mu.Unlock()
	return s.Dispatch(query, c)
}

// Dispatch performs the synchronous half of a submit: it records the user
// message and marks the session as awaiting a response. The returned
// Exchange must be awaited to perform the round trip. A nil Exchange means
// the query was blank, the context unknown, or another exchange is
// outstanding.
func (s *Session) Dispatch(query string, c chat.Context) (*Exchange, Outcome) {
	return s.dispatch(query, c, false)
}

// DispatchInput is Dispatch for input that arrives together with the submit.
// The query and context become the pending query and selected context only
// when the exchange actually starts; an ignored or busy submit leaves them
// as they were.
func (s *Session) DispatchInput(query string, c chat.Context) (*Exchange, Outcome) {
	return s.dispatch(query, c, true)
}

func (s *Session) dispatch(query string, c chat.Context, adopt bool) (*Exchange, Outcome) {
	if strings.TrimSpace(query) == "" {
		return nil, OutcomeIgnored
	}
	if !c.Valid() {
		s.logger.Warn("submit ignored for unknown context", zap.String("context", string(c)))
		return nil, OutcomeIgnored
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.awaiting {
		s.logger.Debug("submit rejected while awaiting response", zap.String("session", s.id))
		return nil, OutcomeBusy
	}

	if adopt {
		s.pending = query
		s.selected = c
	}
	s.history = append(s.history, chat.NewUserMessage(query, c))
	s.awaiting = true
	s.publishLocked()

	return &Exchange{
		session: s,
		request: support.Request{Context: string(c), Query: query},
	}, OutcomeDispatched
}

// Exchange is one outstanding round trip to the support endpoint.
type Exchange struct {
	session *Session
	request support.Request

	once    sync.Once
	outcome Outcome
}

// Request returns the payload the exchange sends.
func (e *Exchange) Request() support.Request {
	return e.request
}

// Await performs the round trip and settles the session. Cancellation of
// ctx is not propagated to the request. Later calls return the first
// outcome without contacting the endpoint again.
func (e *Exchange) Await(ctx context.Context) Outcome {
	e.once.Do(func() {
		reply, err := e.ask(context.WithoutCancel(ctx))
		e.outcome = e.session.settle(e.request, reply, err)
	})
	return e.outcome
}

func (e *Exchange) ask(ctx context.Context) (reply support.Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("support request panicked: %v", r)
		}
	}()
	if e.session.asker == nil {
		return support.Reply{}, fmt.Errorf("support endpoint not configured")
	}
	return e.session.asker.Ask(ctx, e.request)
}

func (s *Session) settle(req support.Request, reply support.Reply, err error) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome := OutcomeReplied
	if err != nil {
		s.logger.Error("error sending message",
			zap.String("session", s.id),
			zap.String("context", req.Context),
			zap.Error(err))
		s.history = append(s.history, chat.NewErrorMessage())
		outcome = OutcomeFailed
	} else {
		s.history = append(s.history, chat.NewBotMessage(reply.Response, reply.Context))
		s.pending = ""
	}
	s.awaiting = false
	s.publishLocked()
	return outcome
}

// Subscribe returns a channel that receives the newest state after every
// change. Slow readers skip intermediate states. Call cancel to stop.
func (s *Session) Subscribe() (<-chan chat.State, func()) {
	ch := make(chan chat.State, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Session) publishLocked() {
	if len(s.subs) == 0 {
		return
	}
	state := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case ch <- state:
		default:
			// replace the unread state with the newer one
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- state:
			default:
			}
		}
	}
}

func (s *Session) snapshotLocked() chat.State {
	history := make([]chat.Message, len(s.history))
	copy(history, s.history)
	return chat.State{
		SessionID:        s.id,
		History:          history,
		PendingQuery:     s.pending,
		SelectedContext:  s.selected,
		AwaitingResponse: s.awaiting,
		CreatedAt:        s.createdAt,
	}
}
