package models

import (
	"time"

	"github.com/google/uuid"
)

// 注意：
// - 保持与 db/migrations/0001_init_up.sql 对齐
// - 不使用 gorm.Model，显式声明每个字段

// CommandRecord 映射 command_journal 表（每次 broker 操作一行）
type CommandRecord struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Action  string    `gorm:"column:action;type:text;not null"`
	Success bool      `gorm:"column:success;not null"`
	Error   *string   `gorm:"column:error;type:text"`
	// 成功时记录操作后的关键状态，失败为空
	MainVolume *int16    `gorm:"column:main_volume"`
	Input      *int16    `gorm:"column:input"`
	Standby    *bool     `gorm:"column:standby"`
	StartedAt  time.Time `gorm:"column:started_at;not null;index:idx_command_journal_started_at,sort:desc"`
	DurationMs int64     `gorm:"column:duration_ms;not null;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (CommandRecord) TableName() string { return "command_journal" }

// StatusSnapshot 映射 status_snapshots 表（由 pg 包以原生 SQL 读写）
type StatusSnapshot struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	MainVolume   int16     `gorm:"column:main_volume;not null"`
	Input        int16     `gorm:"column:input;not null"`
	Standby      bool      `gorm:"column:standby;not null"`
	Input1Effect int16     `gorm:"column:input_1_effect;not null"`
	Input2Effect int16     `gorm:"column:input_2_effect;not null"`
	Input6Effect int16     `gorm:"column:input_6_effect;not null"`
	CapturedAt   time.Time `gorm:"column:captured_at;autoCreateTime"`
}

func (StatusSnapshot) TableName() string { return "status_snapshots" }
