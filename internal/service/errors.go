package service

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 业务层通用错误，handler 可根据错误类型映射到合适的 HTTP 状态码
// （404 / 403 / 409 / 400），不需要解析错误文本。
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("id already taken")
	ErrInvalidID = errors.New("invalid id")
)

// ParseID 是 hex 字符串到 ObjectID 的唯一入口，非法输入返回 ErrInvalidID，
// 不会把格式错误当作数据库错误往外漏。
func ParseID(hex string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, hex)
	}
	return oid, nil
}
