package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dorhakim100/ZenefyBackend/internal/auth"
	"github.com/dorhakim100/ZenefyBackend/internal/config"
	"github.com/dorhakim100/ZenefyBackend/internal/metrics"
	"github.com/dorhakim100/ZenefyBackend/internal/mw"
	"github.com/dorhakim100/ZenefyBackend/internal/service"
	"github.com/dorhakim100/ZenefyBackend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"
)

// SetupRouter 统一初始化 Gin 中间件、REST API 以及 WebSocket 端点。
func SetupRouter(cfg config.Config, gdb *mongo.Database, hub *ws.Hub) *gin.Engine {
	userSvc := service.NewUserService(gdb, cfg)
	stationSvc := service.NewStationService(gdb, userSvc)
	h := NewHandler(userSvc, stationSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.Env))
	r.Use(mw.RateLimit(rate.Every(time.Second/20), 40))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/refresh", h.RefreshToken)

	api.GET("/station", h.QueryStations)
	api.GET("/station/:id", h.GetStation)
	api.GET("/user", h.QueryUsers)
	api.GET("/user/:id", h.GetUser)

	// 需要 Bearer Token 的业务接口。
	authed := api.Group("")
	authed.Use(auth.AuthMiddleware(cfg, gdb))

	authed.POST("/station", h.AddStation)
	authed.PUT("/station/:id", h.UpdateStation)
	authed.DELETE("/station/:id", h.RemoveStation)
	authed.POST("/station/:id/msg", h.AddStationMsg)
	authed.DELETE("/station/:id/msg/:msgId", h.RemoveStationMsg)
	authed.PUT("/user/:id", h.UpdateUser)

	r.GET("/ws", ws.Serve(hub, stationSvc, userSvc, cfg))

	// 未命中的路由一律回退到 index.html，交给前端路由接管。
	distDir := filepath.Join(".", "public")
	if _, err := os.Stat(filepath.Join(distDir, "index.html")); err == nil {
		r.NoRoute(func(c *gin.Context) {
			path := c.Request.URL.Path
			clean := filepath.Clean(path)
			rel := strings.TrimPrefix(clean, "/")
			if rel == "" {
				c.File(filepath.Join(distDir, "index.html"))
				return
			}
			if strings.HasPrefix(rel, "api/") || rel == "metrics" || rel == "healthz" || strings.HasPrefix(rel, "ws") {
				c.Status(http.StatusNotFound)
				return
			}
			target := filepath.Join(distDir, rel)
			if fi, err := os.Stat(target); err == nil && !fi.IsDir() {
				c.File(target)
				return
			}
			if strings.Contains(rel, ".") {
				c.Status(http.StatusNotFound)
				return
			}
			c.File(filepath.Join(distDir, "index.html"))
		})
	}
	return r
}
