package comment

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/tg-gateway/internal/model/common"
	commentmodel "github.com/zhouzirui/tg-gateway/internal/model/comment"
	"github.com/zhouzirui/tg-gateway/internal/service/account"
	commentService "github.com/zhouzirui/tg-gateway/internal/service/comment"
	"github.com/zhouzirui/tg-gateway/pkg/utils"
)

// Handler 评论发送的HTTP处理器
type Handler struct {
	poster *commentService.Service
}

// New 创建评论处理器
func New(poster *commentService.Service) *Handler {
	return &Handler{poster: poster}
}

// RegisterRoutes 注册评论相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/send_message", h.handleSendMessage)
}

// handleSendMessage 在频道最近一条可评论的帖子下发送评论，已有相同评论时跳过
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload commentmodel.Request
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.poster.Post(r.Context(), payload)
	if err != nil {
		utils.RespondFailure(w, err)
		return
	}

	if res.Skipped {
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"skipped": true,
			"reason":  res.Reason,
			"data": map[string]interface{}{
				"message_id": nil,
				"chat_id":    chatIDValue(payload.ChatID),
				"date":       nil,
			},
		})
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"skipped": false,
		"data": map[string]interface{}{
			"message_id":        res.MessageID,
			"chat_id":           res.ChatID,
			"date":              account.FormatDate(res.Date),
			"parent_message_id": res.ParentMessageID,
		},
	})
}

// chatIDValue 原样回显请求中的 chat_id，数字保持为数字
func chatIDValue(ref common.ChatRef) interface{} {
	if id, err := strconv.ParseInt(ref.String(), 10, 64); err == nil {
		return id
	}
	return ref.String()
}
