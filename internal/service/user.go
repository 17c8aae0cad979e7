package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dorhakim100/ZenefyBackend/internal/auth"
	"github.com/dorhakim100/ZenefyBackend/internal/config"
	"github.com/dorhakim100/ZenefyBackend/internal/db"
	"github.com/dorhakim100/ZenefyBackend/internal/models"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUsernameTaken = errors.New("username taken")

// UserService 封装用户相关的业务逻辑，包括 station 删除 / 点赞时
// 对 likedStationsIds、likedSongsIds 的同步写入。
type UserService struct {
	gdb *mongo.Database
	cfg config.Config
}

func NewUserService(gdb *mongo.Database, cfg config.Config) *UserService {
	return &UserService{gdb: gdb, cfg: cfg}
}

// GetByID 按 id 查询用户。
func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	oid, err := ParseID(userID)
	if err != nil {
		return nil, err
	}
	var user models.User
	err = db.GetCollection(s.gdb, db.CollUser).FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		log.Error().Err(err).Str("user_id", userID).Msg("while finding user")
		return nil, err
	}
	return &user, nil
}

// Query 按用户名 / 全名子串查询用户列表。
func (s *UserService) Query(ctx context.Context, txt string) ([]models.User, error) {
	re := primitive.Regex{Pattern: txt, Options: "i"}
	criteria := bson.M{"$or": bson.A{bson.M{"username": re}, bson.M{"fullname": re}}}

	cur, err := db.GetCollection(s.gdb, db.CollUser).Find(ctx, criteria)
	if err != nil {
		log.Error().Err(err).Msg("cannot find users")
		return nil, err
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		log.Error().Err(err).Msg("cannot decode users")
		return nil, err
	}
	return users, nil
}

// Update 只写用户可编辑的字段，用户名和密码走各自的流程。
func (s *UserService) Update(ctx context.Context, user *models.User) (*models.User, error) {
	set := bson.M{
		"fullname":         user.Fullname,
		"imgUrl":           user.ImgURL,
		"likedStationsIds": user.LikedStationsIds,
		"likedSongsIds":    user.LikedSongsIds,
	}
	res, err := db.GetCollection(s.gdb, db.CollUser).UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": set})
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("cannot update user")
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("user %s: %w", user.ID.Hex(), ErrNotFound)
	}
	return user, nil
}

// PullLikedStation 把 station id 从用户的 likedStationsIds 摘掉。
// 单字段 $pull，不会覆盖用户文档上并发进行的其它修改。
func (s *UserService) PullLikedStation(ctx context.Context, userID primitive.ObjectID, stationID string) error {
	_, err := db.GetCollection(s.gdb, db.CollUser).UpdateOne(ctx,
		bson.M{"_id": userID}, bson.M{"$pull": bson.M{"likedStationsIds": stationID}})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("cannot pull liked station")
	}
	return err
}

// MergeLikedSongs 把曲目 id 并入用户的 likedSongsIds（去重，不替换），
// 之前从别的 station 点过的歌不会被冲掉。
func (s *UserService) MergeLikedSongs(ctx context.Context, userID string, songIDs []string) error {
	if len(songIDs) == 0 {
		return nil
	}
	oid, err := ParseID(userID)
	if err != nil {
		return err
	}
	_, err = db.GetCollection(s.gdb, db.CollUser).UpdateOne(ctx,
		bson.M{"_id": oid}, bson.M{"$addToSet": bson.M{"likedSongsIds": bson.M{"$each": songIDs}}})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("cannot merge liked songs")
	}
	return err
}

// RegisterResult 注册成功后返回的数据。
type RegisterResult struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
}

// Register 注册新用户。
func (s *UserService) Register(ctx context.Context, username, fullname, password string) (*RegisterResult, error) {
	count, err := db.GetCollection(s.gdb, db.CollUser).CountDocuments(ctx, bson.M{"username": username})
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		ID:               primitive.NewObjectID(),
		Username:         username,
		Fullname:         fullname,
		Password:         hash,
		LikedStationsIds: []string{},
		LikedSongsIds:    []string{},
		CreatedAt:        time.Now(),
	}
	if _, err := db.GetCollection(s.gdb, db.CollUser).InsertOne(ctx, user); err != nil {
		return nil, err
	}
	return &RegisterResult{ID: user.ID.Hex(), Username: user.Username, Fullname: user.Fullname}, nil
}

// LoginResult 登录成功后返回的数据。
type LoginResult struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"-"`
}

// Login 校验用户名密码并签发 token 对。
func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var user models.User
	err := db.GetCollection(s.gdb, db.CollUser).FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.VerifyPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	at, err := auth.GenerateAccessToken(user.ID.Hex(), user.IsAdmin, s.cfg.JWTSecret, s.cfg.AccessTokenTTLMinutes)
	if err != nil {
		return nil, err
	}
	rt, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	exp := time.Now().Add(time.Duration(s.cfg.RefreshTokenTTLDays) * 24 * time.Hour)
	if err := auth.SaveRefreshToken(ctx, s.gdb, user.ID.Hex(), rt, exp); err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: at, RefreshToken: rt, User: user}, nil
}

// RefreshResult 刷新 token 后返回的新 token 对。
type RefreshResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshTokens 验证旧 refresh token 并签发新 token 对（旋转刷新）。
func (s *UserService) RefreshTokens(ctx context.Context, oldRT string) (*RefreshResult, error) {
	rec, err := auth.ValidateRefreshToken(ctx, s.gdb, oldRT)
	if err != nil {
		return nil, err
	}
	if err := auth.RevokeRefreshToken(ctx, s.gdb, oldRT); err != nil {
		return nil, err
	}
	user, err := s.GetByID(ctx, rec.UserID)
	if err != nil {
		return nil, err
	}
	at, err := auth.GenerateAccessToken(user.ID.Hex(), user.IsAdmin, s.cfg.JWTSecret, s.cfg.AccessTokenTTLMinutes)
	if err != nil {
		return nil, err
	}
	newRT, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	exp := time.Now().Add(time.Duration(s.cfg.RefreshTokenTTLDays) * 24 * time.Hour)
	if err := auth.SaveRefreshToken(ctx, s.gdb, user.ID.Hex(), newRT, exp); err != nil {
		return nil, err
	}
	return &RefreshResult{AccessToken: at, RefreshToken: newRT}, nil
}
