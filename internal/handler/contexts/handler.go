package contexts

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/laptop-support/internal/model/chat"
	"github.com/zhouzirui/laptop-support/pkg/utils"
)

// Handler 上下文选项的HTTP处理器
type Handler struct {
	options []chat.Option
}

// New 创建上下文处理器
func New() *Handler {
	return &Handler{options: chat.Options()}
}

// RegisterRoutes 注册上下文相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/contexts", h.handleListContexts)
}

// handleListContexts 按显示顺序列出所有上下文
func (h *Handler) handleListContexts(w http.ResponseWriter, r *http.Request) {
	_ = utils.RespondJSON(w, http.StatusOK, h.options)
}
