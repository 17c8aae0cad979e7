package ws

import (
	"context"
	"time"
)

// 落库操作不挂在连接的生命周期上，单独给个有界超时。
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
