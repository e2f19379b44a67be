package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/tg-gateway/internal/handler/account"
	"github.com/zhouzirui/tg-gateway/internal/handler/auth"
	"github.com/zhouzirui/tg-gateway/internal/handler/comment"
	middlewarePkg "github.com/zhouzirui/tg-gateway/internal/middleware"
	accountService "github.com/zhouzirui/tg-gateway/internal/service/account"
	authService "github.com/zhouzirui/tg-gateway/internal/service/auth"
	commentService "github.com/zhouzirui/tg-gateway/internal/service/comment"
	"github.com/zhouzirui/tg-gateway/pkg/utils"
)

// Services 路由依赖的业务服务
type Services struct {
	Auth    *authService.Service
	Comment *commentService.Service
	Account *accountService.Service
}

// Options 路由层的可选配置
type Options struct {
	InternalSecret string
	CORSOrigin     string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(svc Services, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(opts.CORSOrigin))

	// 健康检查不需要内部密钥
	r.Get("/health", handleHealth)

	r.Group(func(api chi.Router) {
		api.Use(middlewarePkg.InternalSecret(opts.InternalSecret))

		auth.New(svc.Auth).RegisterRoutes(api)
		comment.New(svc.Comment).RegisterRoutes(api)
		account.New(svc.Account).RegisterRoutes(api)
	})

	return r
}

// handleHealth 健康检查
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "tg-gateway",
	})
}
