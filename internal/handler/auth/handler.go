package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmodel "github.com/zhouzirui/tg-gateway/internal/model/auth"
	authService "github.com/zhouzirui/tg-gateway/internal/service/auth"
	"github.com/zhouzirui/tg-gateway/pkg/utils"
)

// Handler 登录流程的HTTP处理器
type Handler struct {
	authSvc *authService.Service
}

// New 创建登录处理器
func New(authSvc *authService.Service) *Handler {
	return &Handler{authSvc: authSvc}
}

// RegisterRoutes 注册登录相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/export_session", h.handleInitiate)
	r.Post("/complete_auth", h.handleComplete)
}

// handleInitiate 发送验证码并创建待完成的登录会话
func (h *Handler) handleInitiate(w http.ResponseWriter, r *http.Request) {
	var payload authmodel.InitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.authSvc.Initiate(r.Context(), payload)
	if err != nil {
		utils.RespondFailure(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"session_id":      res.SessionID,
		"phone_code_hash": res.PhoneCodeHash,
		"message":         res.Message,
	})
}

// handleComplete 提交验证码（以及可选的两步验证密码），返回 session string
func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	var payload authmodel.CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.SessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	res, err := h.authSvc.Complete(r.Context(), payload)
	if err != nil {
		utils.RespondFailure(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"session_string": res.SessionString,
	})
}
