package page

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/laptop-support/internal/logging"
	"github.com/zhouzirui/laptop-support/internal/model/chat"
)

//go:embed templates/index.html.tmpl
var templates embed.FS

// Title is shown in the page header.
const Title = "Laptop Support Chatbot"

// Handler 渲染聊天页面
type Handler struct {
	tmpl   *template.Template
	logger *zap.Logger
}

// New 解析内嵌模板并创建页面处理器
func New(logger *zap.Logger) (*Handler, error) {
	tmpl, err := template.ParseFS(templates, "templates/index.html.tmpl")
	if err != nil {
		return nil, err
	}
	return &Handler{tmpl: tmpl, logger: logging.OrNop(logger)}, nil
}

// RegisterRoutes 注册页面路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
}

type pageData struct {
	Title   string
	Options []chat.Option
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	data := pageData{Title: Title, Options: chat.Options()}
	if err := h.tmpl.Execute(&buf, data); err != nil {
		h.logger.Error("render chat page", zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
