package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dorhakim100/ZenefyBackend/internal/auth"
	"github.com/dorhakim100/ZenefyBackend/internal/models"
	"github.com/dorhakim100/ZenefyBackend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Handler 聚合所有 HTTP handler，依赖注入 service 层。
type Handler struct {
	userSvc    *service.UserService
	stationSvc *service.StationService
}

func NewHandler(userSvc *service.UserService, stationSvc *service.StationService) *Handler {
	return &Handler{userSvc: userSvc, stationSvc: stationSvc}
}

// stationError 把业务层错误映射到 HTTP 状态码，未知错误统一 500。
func stationError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not your station"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "id already taken"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// Register 处理用户注册请求。
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Fullname string `json:"fullname"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Fullname = strings.TrimSpace(req.Fullname)
	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if len(req.Username) < 2 || len(req.Username) > 64 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid username"})
		return
	}
	if len(req.Password) < 4 || len(req.Password) > 128 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid password"})
		return
	}
	result, err := h.userSvc.Register(c.Request.Context(), req.Username, req.Fullname, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "username taken"})
			return
		}
		log.Error().Err(err).Str("username", req.Username).Msg("register")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Login 处理用户登录请求。
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	result, err := h.userSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		log.Error().Err(err).Str("username", req.Username).Msg("login")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"user":          result.User,
	})
}

// RefreshToken 处理 token 刷新请求。
func (h *Handler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	result, err := h.userSvc.RefreshTokens(c.Request.Context(), req.RefreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("refresh token")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// QueryStations 处理 station 列表查询，过滤 / 排序 / 可选分页全走 query 参数。
func (h *Handler) QueryStations(c *gin.Context) {
	filter := service.StationFilter{
		Txt:         c.Query("txt"),
		StationType: c.Query("stationType"),
		SortField:   c.Query("sortField"),
		PageIdx:     -1,
	}
	if v, err := strconv.Atoi(c.Query("sortDir")); err == nil {
		filter.SortDir = v
	}
	if v, err := strconv.Atoi(c.Query("pageIdx")); err == nil && v >= 0 {
		filter.PageIdx = v
	}
	stations, err := h.stationSvc.Query(c.Request.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("query stations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stations"})
		return
	}
	c.JSON(http.StatusOK, stations)
}

// GetStation 处理单个 station 查询。
func (h *Handler) GetStation(c *gin.Context) {
	station, err := h.stationSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		stationError(c, err, "failed to get station")
		return
	}
	c.JSON(http.StatusOK, station)
}

// AddStation 处理创建 station 请求，payload 原样入库，调用方可以自带 id。
func (h *Handler) AddStation(c *gin.Context) {
	var station models.Station
	if err := c.ShouldBindJSON(&station); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if station.CreatedBy == nil {
		station.CreatedBy = auth.GetLoggedinUser(c).Ref()
	}
	saved, err := h.stationSvc.Add(c.Request.Context(), &station)
	if err != nil {
		stationError(c, err, "failed to add station")
		return
	}
	c.JSON(http.StatusOK, saved)
}

// UpdateStation 处理更新 station 请求，路径里的 id 为准。
func (h *Handler) UpdateStation(c *gin.Context) {
	var station models.Station
	if err := c.ShouldBindJSON(&station); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	oid, err := service.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	station.ID = oid
	saved, err := h.stationSvc.Update(c.Request.Context(), &station)
	if err != nil {
		stationError(c, err, "failed to update station")
		return
	}
	c.JSON(http.StatusOK, saved)
}

// RemoveStation 处理删除 station 请求，归属校验在业务层。
func (h *Handler) RemoveStation(c *gin.Context) {
	caller := auth.GetLoggedinUser(c)
	removedID, err := h.stationSvc.Remove(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		stationError(c, err, "failed to remove station")
		return
	}
	c.JSON(http.StatusOK, gin.H{"removedId": removedID})
}

// AddStationMsg 给 station 追加聊天消息。
func (h *Handler) AddStationMsg(c *gin.Context) {
	var req struct {
		Txt string `json:"txt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Txt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	msg := models.StationMsg{Txt: req.Txt, By: auth.GetLoggedinUser(c).Ref()}
	saved, err := h.stationSvc.AddMsg(c.Request.Context(), c.Param("id"), &msg)
	if err != nil {
		stationError(c, err, "failed to add station msg")
		return
	}
	c.JSON(http.StatusOK, saved)
}

// RemoveStationMsg 从 station 摘除聊天消息，msgId 不存在时也算成功。
func (h *Handler) RemoveStationMsg(c *gin.Context) {
	removedID, err := h.stationSvc.RemoveMsg(c.Request.Context(), c.Param("id"), c.Param("msgId"))
	if err != nil {
		stationError(c, err, "failed to remove station msg")
		return
	}
	c.JSON(http.StatusOK, gin.H{"removedMsgId": removedID})
}

// QueryUsers 处理用户列表查询。
func (h *Handler) QueryUsers(c *gin.Context) {
	users, err := h.userSvc.Query(c.Request.Context(), c.Query("txt"))
	if err != nil {
		log.Error().Err(err).Msg("query users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUser 处理单个用户查询。
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.userSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		stationError(c, err, "failed to get user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser 处理更新用户请求，只能改自己，管理员除外。
func (h *Handler) UpdateUser(c *gin.Context) {
	caller := auth.GetLoggedinUser(c)
	targetID := c.Param("id")
	if caller.ID.Hex() != targetID && !caller.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your profile"})
		return
	}
	var user models.User
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	oid, err := service.ParseID(targetID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	user.ID = oid
	saved, err := h.userSvc.Update(c.Request.Context(), &user)
	if err != nil {
		stationError(c, err, "failed to update user")
		return
	}
	c.JSON(http.StatusOK, saved)
}
