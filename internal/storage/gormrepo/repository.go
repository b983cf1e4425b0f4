package gormrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/taoyao-code/amp-server/internal/storage/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Open 复用 pgx 连接池打开 gorm
func Open(pool *pgxpool.Pool) (*gorm.DB, error) {
	sqlDB := stdlib.OpenDBFromPool(pool)
	return gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
}

// Repository 基于 GORM 的指令日志仓储
type Repository struct {
	db *gorm.DB
}

// New 返回使用给定 *gorm.DB 的仓储
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SaveCommands 批量写入
func (r *Repository) SaveCommands(ctx context.Context, recs []models.CommandRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(recs, 100).Error
}

// ListCommands 最近的指令日志，按开始时间倒序
func (r *Repository) ListCommands(ctx context.Context, limit int) ([]models.CommandRecord, error) {
	limit = clampLimit(limit)
	var out []models.CommandRecord
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListCommandsByAction 按动作过滤
func (r *Repository) ListCommandsByAction(ctx context.Context, action string, limit int) ([]models.CommandRecord, error) {
	limit = clampLimit(limit)
	var out []models.CommandRecord
	err := r.db.WithContext(ctx).
		Where("action = ?", action).
		Order("started_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
