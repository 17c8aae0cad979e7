package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// 集合名与原始数据库保持一致。
const (
	CollStation      = "station"
	CollUser         = "user"
	CollRefreshToken = "refresh_token"
)

// Connect 负责建立到 MongoDB 的连接，并带有简单的重试来等待容器就绪。
func Connect(uri, name string) (*mongo.Database, error) {
	var client *mongo.Client
	var err error
	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err = mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err == nil {
			err = client.Ping(ctx, nil)
			if err == nil {
				cancel()
				return client.Database(name), nil
			}
			_ = client.Disconnect(ctx)
		}
		cancel()
		time.Sleep(time.Duration(500+i*200) * time.Millisecond)
	}
	return nil, err
}

// GetCollection 返回指定名称集合的句柄，幂等，无缓存无重试。
func GetCollection(gdb *mongo.Database, name string) *mongo.Collection {
	return gdb.Collection(name)
}
