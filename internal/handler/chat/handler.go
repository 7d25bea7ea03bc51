package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/laptop-support/internal/logging"
	"github.com/zhouzirui/laptop-support/internal/model/chat"
	chatService "github.com/zhouzirui/laptop-support/internal/service/chat"
	"github.com/zhouzirui/laptop-support/pkg/utils"
)

const heartbeatInterval = 15 * time.Second

// Handler 聊天会话的HTTP处理器
type Handler struct {
	session *chatService.Session
	logger  *zap.Logger

	inflight sync.WaitGroup
}

// New 创建聊天处理器
func New(session *chatService.Session, logger *zap.Logger) *Handler {
	return &Handler{
		session: session,
		logger:  logging.OrNop(logger),
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/state", h.handleGetState)
	r.Put("/state/query", h.handleSetQuery)
	r.Put("/state/context", h.handleSelectContext)
	r.Post("/submit", h.handleSubmit)
	r.Get("/events", h.handleEvents)
}

// Wait blocks until every exchange started by this handler has settled.
func (h *Handler) Wait() {
	h.inflight.Wait()
}

func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// handleSetQuery 更新输入框内容
func (h *Handler) handleSetQuery(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Query *string `json:"query"`
	}
	if err := decodeBody(r, &payload); err != nil || payload.Query == nil {
		h.respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	h.session.SetPendingQuery(*payload.Query)
	h.respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// handleSelectContext 切换当前上下文
func (h *Handler) handleSelectContext(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Context string `json:"context"`
	}
	if err := decodeBody(r, &payload); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	selected, err := chat.ParseContext(payload.Context)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.session.SelectContext(selected); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// handleSubmit 提交当前输入。query/context 缺省时使用会话中的值；
// wait=true 时等待支持服务返回后再响应。
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Query   *string `json:"query"`
		Context *string `json:"context"`
	}
	if err := decodeBody(r, &payload); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))

	current := h.session.Snapshot()
	query, selected := current.PendingQuery, current.SelectedContext
	if payload.Context != nil {
		parsed, err := chat.ParseContext(*payload.Context)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		selected = parsed
	}
	if payload.Query != nil {
		query = *payload.Query
	}

	// 请求体中的输入仅在真正发出时才写入会话
	exchange, outcome := h.session.DispatchInput(query, selected)
	switch outcome {
	case chatService.OutcomeBusy:
		h.respondJSON(w, http.StatusConflict, submitResponse{Outcome: outcome.String(), State: h.session.Snapshot()})
		return
	case chatService.OutcomeIgnored:
		h.respondJSON(w, http.StatusOK, submitResponse{Outcome: outcome.String(), State: h.session.Snapshot()})
		return
	}

	if wait {
		outcome = exchange.Await(r.Context())
		h.respondJSON(w, http.StatusOK, submitResponse{Outcome: outcome.String(), State: h.session.Snapshot()})
		return
	}

	detached := context.WithoutCancel(r.Context())
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		settled := exchange.Await(detached)
		h.logger.Debug("exchange settled", zap.String("outcome", settled.String()))
	}()
	h.respondJSON(w, http.StatusAccepted, submitResponse{Outcome: outcome.String(), State: h.session.Snapshot()})
}

type submitResponse struct {
	Outcome string     `json:"outcome"`
	State   chat.State `json:"state"`
}

// handleEvents 以 SSE 推送会话状态
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	updates, cancel := h.session.Subscribe()
	defer cancel()

	utils.SetupSSEHeaders(w)
	if err := utils.SendSSEEvent(w, flusher, "state", h.session.Snapshot()); err != nil {
		h.logger.Debug("sse write failed", zap.Error(err))
		return
	}

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-updates:
			if !ok {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, "state", state); err != nil {
				h.logger.Debug("sse write failed", zap.Error(err))
				return
			}
		case t := <-ticker.C:
			if err := utils.SendSSEEvent(w, flusher, "heartbeat", map[string]string{
				"time": t.UTC().Format(time.RFC3339),
			}); err != nil {
				return
			}
		}
	}
}

// decodeBody 解析 JSON 请求体，空请求体视为 {}
func decodeBody(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	if err := utils.RespondJSON(w, status, payload); err != nil {
		h.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
