package router

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
	"golang.org/x/time/rate"

	"resume-parser-go/internal/api/handler"
	"resume-parser-go/internal/config"
)

// APIKeyHeader 客户端携带密钥的请求头
const APIKeyHeader = "X-API-Key"

// RegisterRoutes 注册 API 路由
// 健康检查和读取接口不鉴权；解析接口在配置了密钥时需要鉴权，并受限流保护
func RegisterRoutes(h *server.Hertz, cfg *config.ServerConfig, resumeHandler *handler.ResumeHandler) {
	api := h.Group("/api/v1")

	api.GET("/health", resumeHandler.Health)
	api.GET("/resume", resumeHandler.GetResume)
	api.GET("/resume/history", resumeHandler.History)
	api.GET("/resume/published-url", resumeHandler.PublishedURL)

	var guards []app.HandlerFunc
	if len(cfg.APIKeys) > 0 {
		guards = append(guards, APIKeyAuth(cfg.APIKeys))
	}
	guards = append(guards, RateLimit(rate.NewLimiter(rate.Limit(cfg.ParseRatePerSecond), cfg.ParseBurst)))
	guards = append(guards, resumeHandler.ParseResume)

	api.POST("/resume/parse", guards...)
}

// APIKeyAuth 校验 X-API-Key 是否在允许列表中
func APIKeyAuth(keys []string) app.HandlerFunc {
	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			allowed[k] = struct{}{}
		}
	}
	return keyauth.New(
		keyauth.WithKeyLookUp("header:"+APIKeyHeader, ""),
		keyauth.WithValidator(func(c context.Context, ctx *app.RequestContext, key string) (bool, error) {
			_, ok := allowed[key]
			return ok, nil
		}),
		keyauth.WithErrorHandler(func(c context.Context, ctx *app.RequestContext, err error) {
			ctx.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"error": "API密钥无效或缺失"})
		}),
	)
}

// RateLimit 令牌桶限流，桶空时直接返回429
func RateLimit(limiter *rate.Limiter) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		if !limiter.Allow() {
			ctx.AbortWithStatusJSON(consts.StatusTooManyRequests, utils.H{"error": "请求过于频繁，请稍后再试"})
			return
		}
		ctx.Next(c)
	}
}
