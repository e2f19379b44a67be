package account

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	accountmodel "github.com/zhouzirui/tg-gateway/internal/model/account"
	accountService "github.com/zhouzirui/tg-gateway/internal/service/account"
	"github.com/zhouzirui/tg-gateway/pkg/utils"
)

// Handler 账号与聊天读取的HTTP处理器
type Handler struct {
	accountSvc *accountService.Service
}

// New 创建账号处理器
func New(accountSvc *accountService.Service) *Handler {
	return &Handler{accountSvc: accountSvc}
}

// RegisterRoutes 注册账号相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/get_chat", h.handleGetChat)
	r.Get("/get_chat_history", h.handleGetChatHistory)
	r.Get("/get_me", h.handleGetMe)
	r.Post("/reply", h.handleReply)
	r.Post("/register_session_string", h.handleRegister)
}

// handleGetChat 获取聊天信息
func (h *Handler) handleGetChat(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	chat, err := h.accountSvc.GetChat(r.Context(), q.Get("session_string"), q.Get("chat_id"))
	if err != nil {
		utils.RespondFailure(w, err)
		return
	}
	respondData(w, chat)
}

// handleGetChatHistory 获取聊天历史，limit 默认 10，最大 100
func (h *Handler) handleGetChatHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	entries, err := h.accountSvc.GetChatHistory(r.Context(), q.Get("session_string"), q.Get("chat_id"), limit)
	if err != nil {
		utils.RespondFailure(w, err)
		return
	}
	respondData(w, entries)
}

// handleGetMe 获取当前账号信息
func (h *Handler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	me, err := h.accountSvc.GetMe(r.Context(), r.URL.Query().Get("session_string"))
	if err != nil {
		utils.RespondFailure(w, err)
		return
	}
	respondData(w, me)
}

// handleReply 回复指定消息
func (h *Handler) handleReply(w http.ResponseWriter, r *http.Request) {
	var payload accountmodel.ReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sent, err := h.accountSvc.Reply(r.Context(), payload)
	if err != nil {
		utils.RespondFailure(w, err)
		return
	}
	respondData(w, sent)
}

// handleRegister 校验并登记已有的 session string
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload accountmodel.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.APIID == 0 || payload.APIHash == "" || payload.SessionString == "" {
		utils.RespondError(w, http.StatusBadRequest, "api_id, api_hash and session_string are required")
		return
	}

	reg, err := h.accountSvc.RegisterSessionString(r.Context(), payload)
	if err != nil {
		utils.RespondFailure(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"data":           reg.Me,
		"session_string": reg.SessionString,
	})
}

// respondData 以统一格式返回成功结果
func respondData(w http.ResponseWriter, data interface{}) {
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}
