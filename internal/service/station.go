package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dorhakim100/ZenefyBackend/internal/db"
	"github.com/dorhakim100/ZenefyBackend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize 是开启分页时每页的文档数。
const PageSize = 3

// StationService 封装 station 相关的业务逻辑。跨实体的点赞同步
// 统一走 UserService，不直接摸 user 集合。
type StationService struct {
	gdb   *mongo.Database
	users *UserService
}

func NewStationService(gdb *mongo.Database, users *UserService) *StationService {
	return &StationService{gdb: gdb, users: users}
}

// StationFilter 是 Query 的过滤条件。PageIdx 为负表示不分页，返回全量。
type StationFilter struct {
	Txt         string
	StationType string
	SortField   string
	SortDir     int
	PageIdx     int
}

// buildCriteria 对 title 和 stationType 分别做大小写不敏感的子串匹配，
// 两个条件同时生效（AND）；空串正则匹配一切。
func buildCriteria(f StationFilter) bson.M {
	return bson.M{
		"title":       primitive.Regex{Pattern: f.Txt, Options: "i"},
		"stationType": primitive.Regex{Pattern: f.StationType, Options: "i"},
	}
}

func buildSort(f StationFilter) bson.D {
	if f.SortField == "" {
		return nil
	}
	dir := f.SortDir
	if dir != -1 {
		dir = 1
	}
	return bson.D{{Key: f.SortField, Value: dir}}
}

// Query 按条件查询 station 列表，结果可能为空但不为 nil。
func (s *StationService) Query(ctx context.Context, f StationFilter) ([]models.Station, error) {
	opts := options.Find()
	if sort := buildSort(f); sort != nil {
		opts.SetSort(sort)
	}
	if f.PageIdx >= 0 {
		opts.SetSkip(int64(f.PageIdx * PageSize)).SetLimit(PageSize)
	}

	cur, err := db.GetCollection(s.gdb, db.CollStation).Find(ctx, buildCriteria(f), opts)
	if err != nil {
		log.Error().Err(err).Msg("cannot find stations")
		return nil, err
	}
	stations := []models.Station{}
	if err := cur.All(ctx, &stations); err != nil {
		log.Error().Err(err).Msg("cannot decode stations")
		return nil, err
	}
	return stations, nil
}

// GetByID 按 id 查询单个 station，createdAt 以 _id 内嵌的创建时间为准。
func (s *StationService) GetByID(ctx context.Context, stationID string) (*models.Station, error) {
	oid, err := ParseID(stationID)
	if err != nil {
		return nil, err
	}

	var station models.Station
	err = db.GetCollection(s.gdb, db.CollStation).FindOne(ctx, bson.M{"_id": oid}).Decode(&station)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("station %s: %w", stationID, ErrNotFound)
		}
		log.Error().Err(err).Str("station_id", stationID).Msg("while finding station")
		return nil, err
	}
	station.CreatedAt = station.ID.Timestamp()
	return &station, nil
}

// Add 插入新 station。调用方自带 id 时原样采用，撞 id 返回 ErrConflict；
// 否则由服务端分配。其余字段不做校验，原样入库。
func (s *StationService) Add(ctx context.Context, station *models.Station) (*models.Station, error) {
	if station.ID.IsZero() {
		station.ID = primitive.NewObjectID()
	}
	if station.Items == nil {
		station.Items = []models.SongItem{}
	}
	if station.Msgs == nil {
		station.Msgs = []models.StationMsg{}
	}
	_, err := db.GetCollection(s.gdb, db.CollStation).InsertOne(ctx, station)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("station %s: %w", station.ID.Hex(), ErrConflict)
		}
		log.Error().Err(err).Msg("cannot insert station")
		return nil, err
	}
	return station, nil
}

// Update 只写白名单字段，_id 和 msgs 在这里永远不会被改动。
// 请求体带 isLiked 时把该 station 的曲目并入创建者的 likedSongsIds。
func (s *StationService) Update(ctx context.Context, station *models.Station) (*models.Station, error) {
	set := bson.M{
		"title":       station.Title,
		"items":       station.Items,
		"cover":       station.Cover,
		"addedAt":     station.AddedAt,
		"preview":     station.Preview,
		"stationType": station.StationType,
		"createdBy":   station.CreatedBy,
		"createdAt":   station.CreatedAt,
	}

	res, err := db.GetCollection(s.gdb, db.CollStation).UpdateOne(ctx, bson.M{"_id": station.ID}, bson.M{"$set": set})
	if err != nil {
		log.Error().Err(err).Str("station_id", station.ID.Hex()).Msg("cannot update station")
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("station %s: %w", station.ID.Hex(), ErrNotFound)
	}

	if station.IsLiked && station.CreatedBy != nil {
		songIds := make([]string, 0, len(station.Items))
		for _, it := range station.Items {
			songIds = append(songIds, it.ID)
		}
		if err := s.users.MergeLikedSongs(ctx, station.CreatedBy.ID, songIds); err != nil {
			return nil, err
		}
	}
	return station, nil
}

// Remove 删除 station，仅限创建者本人或管理员。删除成功后把该 station
// 从调用者的 likedStationsIds 里摘掉。
func (s *StationService) Remove(ctx context.Context, caller *models.User, stationID string) (string, error) {
	oid, err := ParseID(stationID)
	if err != nil {
		return "", err
	}

	station, err := s.GetByID(ctx, stationID)
	if err != nil {
		return "", err
	}
	owner := station.CreatedBy != nil && station.CreatedBy.ID == caller.ID.Hex()
	if !owner && !caller.IsAdmin {
		return "", fmt.Errorf("station %s: %w", stationID, ErrForbidden)
	}

	res, err := db.GetCollection(s.gdb, db.CollStation).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		log.Error().Err(err).Str("station_id", stationID).Msg("cannot remove station")
		return "", err
	}
	if res.DeletedCount == 0 {
		// 并发删除把文档抢先拿走了
		return "", fmt.Errorf("station %s: %w", stationID, ErrNotFound)
	}

	if err := s.users.PullLikedStation(ctx, caller.ID, stationID); err != nil {
		return "", err
	}
	return stationID, nil
}

// AddMsg 给 station 追加一条聊天消息，id 由服务端生成并保证唯一。
func (s *StationService) AddMsg(ctx context.Context, stationID string, msg *models.StationMsg) (*models.StationMsg, error) {
	oid, err := ParseID(stationID)
	if err != nil {
		return nil, err
	}
	msg.ID = uuid.NewString()
	if msg.At == 0 {
		msg.At = time.Now().UnixMilli()
	}

	res, err := db.GetCollection(s.gdb, db.CollStation).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$push": bson.M{"msgs": msg}})
	if err != nil {
		log.Error().Err(err).Str("station_id", stationID).Msg("cannot add station msg")
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("station %s: %w", stationID, ErrNotFound)
	}
	return msg, nil
}

// RemoveMsg 按 id 摘除消息；msgId 不存在时静默成功，不算错误。
func (s *StationService) RemoveMsg(ctx context.Context, stationID, msgID string) (string, error) {
	oid, err := ParseID(stationID)
	if err != nil {
		return "", err
	}

	res, err := db.GetCollection(s.gdb, db.CollStation).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$pull": bson.M{"msgs": bson.M{"id": msgID}}})
	if err != nil {
		log.Error().Err(err).Str("station_id", stationID).Msg("cannot remove station msg")
		return "", err
	}
	if res.MatchedCount == 0 {
		return "", fmt.Errorf("station %s: %w", stationID, ErrNotFound)
	}
	return msgID, nil
}
