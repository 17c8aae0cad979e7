package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRef 是嵌入在 station 文档里的用户引用，归属判断按 ID 值比较。
type UserRef struct {
	ID       string `bson:"_id" json:"_id"`
	Fullname string `bson:"fullname,omitempty" json:"fullname,omitempty"`
	ImgURL   string `bson:"imgUrl,omitempty" json:"imgUrl,omitempty"`
}

// SongItem 是 station 中的一条曲目引用。
type SongItem struct {
	ID      string `bson:"id" json:"id"`
	Title   string `bson:"title,omitempty" json:"title,omitempty"`
	Artist  string `bson:"artist,omitempty" json:"artist,omitempty"`
	URL     string `bson:"url,omitempty" json:"url,omitempty"`
	ImgURL  string `bson:"imgUrl,omitempty" json:"imgUrl,omitempty"`
	AddedAt int64  `bson:"addedAt,omitempty" json:"addedAt,omitempty"`
}

// StationMsg 是挂在 station 文档 msgs 数组里的聊天消息，id 由服务端生成，
// 同一 station 内唯一。
type StationMsg struct {
	ID  string   `bson:"id" json:"id"`
	Txt string   `bson:"txt" json:"txt"`
	By  *UserRef `bson:"by,omitempty" json:"by,omitempty"`
	At  int64    `bson:"at,omitempty" json:"at,omitempty"`
}

// Station 即播放列表文档。IsLiked 只在请求体里出现，永不落库；
// CreatedAt 读取时由 _id 内嵌的创建时间覆盖。
type Station struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Title       string             `bson:"title" json:"title"`
	StationType string             `bson:"stationType" json:"stationType"`
	Items       []SongItem         `bson:"items" json:"items"`
	Cover       string             `bson:"cover,omitempty" json:"cover,omitempty"`
	AddedAt     int64              `bson:"addedAt,omitempty" json:"addedAt,omitempty"`
	Preview     string             `bson:"preview,omitempty" json:"preview,omitempty"`
	CreatedBy   *UserRef           `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	Msgs        []StationMsg       `bson:"msgs" json:"msgs"`
	IsLiked     bool               `bson:"-" json:"isLiked,omitempty"`
}

type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Username         string             `bson:"username" json:"username"`
	Fullname         string             `bson:"fullname" json:"fullname"`
	Password         string             `bson:"password" json:"-"`
	ImgURL           string             `bson:"imgUrl,omitempty" json:"imgUrl,omitempty"`
	IsAdmin          bool               `bson:"isAdmin,omitempty" json:"isAdmin,omitempty"`
	LikedStationsIds []string           `bson:"likedStationsIds" json:"likedStationsIds"`
	LikedSongsIds    []string           `bson:"likedSongsIds" json:"likedSongsIds"`
	CreatedAt        time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// Ref 返回嵌入其它文档用的精简引用。
func (u *User) Ref() *UserRef {
	return &UserRef{ID: u.ID.Hex(), Fullname: u.Fullname, ImgURL: u.ImgURL}
}

type RefreshToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"userId"`
	Token     string             `bson:"token"`
	ExpiresAt time.Time          `bson:"expiresAt"`
	RevokedAt *time.Time         `bson:"revokedAt,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
}
