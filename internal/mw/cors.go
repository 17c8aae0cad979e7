package mw

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 前端本地开发的来源，和线上同源部署并存。
var devOrigins = map[string]bool{
	"http://127.0.0.1:3000": true,
	"http://localhost:3000": true,
	"http://127.0.0.1:5173": true,
	"http://localhost:5173": true,
}

// CORS 返回一个支持跨域请求的中间件，dev 环境放行本地前端来源。
func CORS(env string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if env == "dev" {
			if devOrigins[origin] {
				c.Header("Access-Control-Allow-Origin", origin)
			}
		} else {
			// 生产环境前端和后端同源（静态文件由本服务托管），跨域一律不放行。
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
