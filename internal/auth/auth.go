package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dorhakim100/ZenefyBackend/internal/config"
	"github.com/dorhakim100/ZenefyBackend/internal/db"
	"github.com/dorhakim100/ZenefyBackend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

type Claims struct {
	UserID  string `json:"uid"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func VerifyPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func GenerateAccessToken(userID string, isAdmin bool, secret string, ttlMinutes int) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlMinutes) * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseAccessToken(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func GenerateRefreshToken() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func SaveRefreshToken(ctx context.Context, gdb *mongo.Database, userID, token string, expiresAt time.Time) error {
	rt := models.RefreshToken{UserID: userID, Token: token, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	_, err := db.GetCollection(gdb, db.CollRefreshToken).InsertOne(ctx, rt)
	return err
}

func ValidateRefreshToken(ctx context.Context, gdb *mongo.Database, token string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	err := db.GetCollection(gdb, db.CollRefreshToken).FindOne(ctx, bson.M{
		"token":     token,
		"revokedAt": nil,
		"expiresAt": bson.M{"$gt": time.Now()},
	}).Decode(&rt)
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func RevokeRefreshToken(ctx context.Context, gdb *mongo.Database, token string) error {
	now := time.Now()
	_, err := db.GetCollection(gdb, db.CollRefreshToken).UpdateOne(ctx,
		bson.M{"token": token}, bson.M{"$set": bson.M{"revokedAt": now}})
	return err
}

// AuthMiddleware 校验 Bearer Token 并把完整的 loggedinUser 放进请求上下文，
// 后续 handler 显式取出再传给业务层，不做任何隐式的线程级存储。
func AuthMiddleware(cfg config.Config, gdb *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])
		claims, err := ParseAccessToken(tokenStr, cfg.JWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		oid, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		var user models.User
		if err := db.GetCollection(gdb, db.CollUser).FindOne(c.Request.Context(), bson.M{"_id": oid}).Decode(&user); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		c.Set("loggedinUser", &user)
		c.Next()
	}
}

// GetLoggedinUser 返回中间件放入的当前用户，未登录时为 nil。
func GetLoggedinUser(c *gin.Context) *models.User {
	if v, ok := c.Get("loggedinUser"); ok {
		if u, ok2 := v.(*models.User); ok2 {
			return u
		}
	}
	return nil
}
