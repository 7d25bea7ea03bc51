package live

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/laptop-support/internal/logging"
	"github.com/zhouzirui/laptop-support/internal/model/chat"
	chatservice "github.com/zhouzirui/laptop-support/internal/service/chat"
)

const writeWait = 10 * time.Second

// Handler WebSocket实时会话处理器
type Handler struct {
	session  *chatservice.Session
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	stopped  bool
	inflight sync.WaitGroup
}

// New 创建WebSocket处理器
func New(session *chatservice.Session, logger *zap.Logger) *Handler {
	return &Handler{
		session: session,
		logger:  logging.OrNop(logger),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

// Stop refuses further submits. Hijacked connections outlive server
// shutdown, so Stop must run before Wait.
func (h *Handler) Stop() {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
}

// Wait blocks until every exchange started over a socket has settled.
func (h *Handler) Wait() {
	h.inflight.Wait()
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// QueryMessage 输入框内容
type QueryMessage struct {
	Query string `json:"query"`
}

// ContextMessage 上下文切换
type ContextMessage struct {
	Context string `json:"context"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func newOutgoing(kind string, data interface{}) outgoingMessage {
	return outgoingMessage{Type: kind, Data: data, Timestamp: time.Now().UnixMilli()}
}

// handleWebSocket 推送会话状态并接收输入、切换上下文、提交命令
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, cancel := h.session.Subscribe()
	defer cancel()

	replies := make(chan outgoingMessage, 8)
	stop := make(chan struct{})
	readDone := make(chan struct{})
	defer close(stop)

	go func() {
		defer close(readDone)
		h.readLoop(r.Context(), conn, replies, stop)
	}()

	if err := h.write(conn, newOutgoing("state", h.session.Snapshot())); err != nil {
		return
	}

	for {
		select {
		case <-readDone:
			return
		case state, ok := <-updates:
			if !ok {
				return
			}
			if err := h.write(conn, newOutgoing("state", state)); err != nil {
				return
			}
		case msg := <-replies:
			if err := h.write(conn, msg); err != nil {
				return
			}
		}
	}
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, replies chan<- outgoingMessage, stop <-chan struct{}) {
	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		reply, ok := h.dispatch(ctx, msg)
		if !ok {
			continue
		}
		select {
		case replies <- reply:
		case <-stop:
			return
		}
	}
}

// dispatch 处理单条入站命令，返回需要回写给客户端的消息
func (h *Handler) dispatch(ctx context.Context, msg inboundMessage) (outgoingMessage, bool) {
	switch msg.Type {
	case "query":
		var payload QueryMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return errorMessage("invalid query payload"), true
		}
		h.session.SetPendingQuery(payload.Query)
		return outgoingMessage{}, false

	case "context":
		var payload ContextMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return errorMessage("invalid context payload"), true
		}
		selected, err := chat.ParseContext(payload.Context)
		if err != nil {
			return errorMessage(err.Error()), true
		}
		_ = h.session.SelectContext(selected)
		return outgoingMessage{}, false

	case "submit":
		h.mu.Lock()
		if h.stopped {
			h.mu.Unlock()
			return errorMessage("server shutting down"), true
		}
		exchange, outcome := h.session.DispatchPending()
		if exchange != nil {
			h.inflight.Add(1)
		}
		h.mu.Unlock()

		if exchange != nil {
			go func() {
				defer h.inflight.Done()
				exchange.Await(ctx)
			}()
		}
		return newOutgoing("outcome", map[string]string{"outcome": outcome.String()}), true

	case "ping":
		return newOutgoing("pong", nil), true

	default:
		return errorMessage("unknown message type: " + msg.Type), true
	}
}

func errorMessage(message string) outgoingMessage {
	return newOutgoing("error", map[string]string{"message": message})
}

func (h *Handler) write(conn *websocket.Conn, msg outgoingMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Debug("websocket write failed", zap.Error(err))
		return err
	}
	return nil
}
