package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/taoyao-code/amp-server/internal/broker"
	"github.com/taoyao-code/amp-server/internal/logging"
	"github.com/taoyao-code/amp-server/internal/metrics"
	"github.com/taoyao-code/amp-server/internal/protocol/amp"
	"github.com/taoyao-code/amp-server/internal/storage/models"
)

// ErrNoSnapshot 表中尚无快照
var ErrNoSnapshot = errors.New("no status snapshot")

// DB 快照仓储所需的连接能力（*pgxpool.Pool 满足）
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SnapshotRepo status_snapshots 表的原生 SQL 仓储
type SnapshotRepo struct {
	db DB
}

func NewSnapshotRepo(db DB) *SnapshotRepo { return &SnapshotRepo{db: db} }

// InsertSnapshot 追加一条快照
func (r *SnapshotRepo) InsertSnapshot(ctx context.Context, s amp.Status) error {
	m := models.SnapshotFromStatus(s)
	_, err := r.db.Exec(ctx, `INSERT INTO status_snapshots
        (main_volume, input, standby, input_1_effect, input_2_effect, input_6_effect, captured_at)
        VALUES ($1,$2,$3,$4,$5,$6,NOW())`,
		m.MainVolume, m.Input, m.Standby, m.Input1Effect, m.Input2Effect, m.Input6Effect)
	return err
}

// LatestSnapshot 最近一条快照
func (r *SnapshotRepo) LatestSnapshot(ctx context.Context) (amp.Status, time.Time, error) {
	var m models.StatusSnapshot
	err := r.db.QueryRow(ctx, `SELECT main_volume, input, standby, input_1_effect, input_2_effect, input_6_effect, captured_at
        FROM status_snapshots ORDER BY captured_at DESC, id DESC LIMIT 1`).
		Scan(&m.MainVolume, &m.Input, &m.Standby, &m.Input1Effect, &m.Input2Effect, &m.Input6Effect, &m.CapturedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return amp.Status{}, time.Time{}, ErrNoSnapshot
	}
	if err != nil {
		return amp.Status{}, time.Time{}, err
	}
	return m.Status(), m.CapturedAt, nil
}

// SnapshotSink 订阅 broker 并把每个快照写入历史表
type SnapshotSink struct {
	repo    *SnapshotRepo
	logger  *zap.Logger
	metrics *metrics.AppMetrics
}

func NewSnapshotSink(repo *SnapshotRepo, logger *zap.Logger, m *metrics.AppMetrics) *SnapshotSink {
	return &SnapshotSink{repo: repo, logger: logging.OrNop(logger), metrics: m}
}

// Run 消费订阅直到 ctx 取消或订阅关闭；写入失败只记日志
func (s *SnapshotSink) Run(ctx context.Context, sub *broker.Subscription) {
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-sub.C():
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := s.repo.InsertSnapshot(wctx, st)
			cancel()
			if s.metrics != nil {
				s.metrics.MirrorWriteTotal.WithLabelValues("postgres", metrics.Result(err)).Inc()
			}
			if err != nil {
				s.logger.Warn("snapshot insert failed", zap.Error(err))
			}
		}
	}
}
