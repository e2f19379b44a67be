package utils

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/tg-gateway/internal/apperr"
)

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]interface{}{"success": false, "error": message})
}

// RespondFailure 根据错误类型选择状态码并发送错误响应
func RespondFailure(w http.ResponseWriter, err error) {
	RespondJSON(w, apperr.HTTPStatus(err), map[string]interface{}{
		"success": false,
		"error":   apperr.Message(err),
		"code":    apperr.KindOf(err),
	})
}
