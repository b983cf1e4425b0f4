package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/amp-server/internal/broker"
	"github.com/taoyao-code/amp-server/internal/logging"
	"github.com/taoyao-code/amp-server/internal/protocol/amp"
	"github.com/taoyao-code/amp-server/internal/storage/models"
	pgstorage "github.com/taoyao-code/amp-server/internal/storage/pg"
)

// JournalReader 指令日志查询（gormrepo.Repository 满足）
type JournalReader interface {
	ListCommands(ctx context.Context, limit int) ([]models.CommandRecord, error)
	ListCommandsByAction(ctx context.Context, action string, limit int) ([]models.CommandRecord, error)
}

// SnapshotReader 最近一次持久化快照（pg.SnapshotRepo 满足）
type SnapshotReader interface {
	LatestSnapshot(ctx context.Context) (amp.Status, time.Time, error)
}

// StatusHandler 状态与指令 REST 接口
type StatusHandler struct {
	broker    *broker.Broker
	journal   JournalReader
	snapshots SnapshotReader
	logger    *zap.Logger
}

func NewStatusHandler(b *broker.Broker, journal JournalReader, snapshots SnapshotReader, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{broker: b, journal: journal, snapshots: snapshots, logger: logging.OrNop(logger)}
}

// ActionRequest 指令请求
type ActionRequest struct {
	Action string `json:"action" binding:"required"`
}

// GetStatus 当前状态
// @Summary 当前功放状态
// @Description 返回缓存状态；尚无缓存时读取一次设备
// @Tags 状态
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} amp.Status
// @Failure 504 {object} ErrorBody
// @Router /api/status [get]
func (h *StatusHandler) GetStatus(c *gin.Context) {
	st, err := h.broker.Status(c.Request.Context())
	if err != nil {
		h.fail(c, "status", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Refresh 强制读取
// @Summary 强制刷新状态
// @Description 读取设备状态并广播给所有订阅者
// @Tags 状态
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} amp.Status
// @Failure 502 {object} ErrorBody
// @Failure 504 {object} ErrorBody
// @Router /api/status/refresh [post]
func (h *StatusHandler) Refresh(c *gin.Context) {
	st, err := h.broker.Refresh(c.Request.Context())
	if err != nil {
		h.fail(c, "refresh", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// ListActions 可用指令
// @Summary 可用指令列表
// @Tags 指令
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string][]string
// @Router /api/actions [get]
func (h *StatusHandler) ListActions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"actions": broker.ActionNames(h.broker.Inputs())})
}

// ApplyAction 执行指令
// @Summary 执行指令
// @Description 执行一个 action（volume_up、select_input_rca 等），返回执行后的状态
// @Tags 指令
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body ActionRequest true "指令"
// @Success 200 {object} amp.Status
// @Failure 400 {object} ErrorBody
// @Failure 501 {object} ErrorBody
// @Failure 502 {object} ErrorBody
// @Failure 504 {object} ErrorBody
// @Router /api/actions [post]
func (h *StatusHandler) ApplyAction(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorBody{Error: err.Error(), Code: CodeBadRequest})
		return
	}
	st, err := h.broker.Apply(c.Request.Context(), req.Action)
	if err != nil {
		h.fail(c, req.Action, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// ListJournal 指令日志
// @Summary 最近的指令日志
// @Tags 日志
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "条数(默认50，最大500)"
// @Param action query string false "按动作过滤"
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} ErrorBody
// @Router /api/journal [get]
func (h *StatusHandler) ListJournal(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorBody{Error: "journal is disabled", Code: CodeUnavailable})
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	var (
		list []models.CommandRecord
		err  error
	)
	if action := c.Query("action"); action != "" {
		list, err = h.journal.ListCommandsByAction(c.Request.Context(), action, limit)
	} else {
		list, err = h.journal.ListCommands(c.Request.Context(), limit)
	}
	if err != nil {
		h.logger.Error("list journal failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorBody{Error: err.Error(), Code: CodeInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": list})
}

// LatestSnapshot 最近持久化的快照
// @Summary 最近持久化的状态快照
// @Tags 状态
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorBody
// @Failure 503 {object} ErrorBody
// @Router /api/snapshots/latest [get]
func (h *StatusHandler) LatestSnapshot(c *gin.Context) {
	if h.snapshots == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorBody{Error: "snapshot history is disabled", Code: CodeUnavailable})
		return
	}
	st, at, err := h.snapshots.LatestSnapshot(c.Request.Context())
	if err != nil {
		if errors.Is(err, pgstorage.ErrNoSnapshot) {
			c.JSON(http.StatusNotFound, ErrorBody{Error: err.Error(), Code: CodeNotFound})
			return
		}
		h.logger.Error("latest snapshot failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorBody{Error: err.Error(), Code: CodeInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": st, "captured_at": at})
}

func (h *StatusHandler) fail(c *gin.Context, action string, err error) {
	code, body := errorBody(err)
	h.logger.Warn("api request failed", zap.String("action", action), zap.Int("http_status", code), zap.Error(err))
	c.JSON(code, body)
}
