package app

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/taoyao-code/amp-server/internal/journal"
	"github.com/taoyao-code/amp-server/internal/storage/gormrepo"
	pgstorage "github.com/taoyao-code/amp-server/internal/storage/pg"
)

// Persistence 数据库相关组件
type Persistence struct {
	Commands  *gormrepo.Repository
	Snapshots *pgstorage.SnapshotRepo
	Journal   *journal.Journal
}

// NewPersistence 在连接池之上组装日志仓储、快照仓储与异步日志
func NewPersistence(pool *pgxpool.Pool, logger *zap.Logger) (*Persistence, error) {
	gdb, err := gormrepo.Open(pool)
	if err != nil {
		return nil, err
	}
	repo := gormrepo.New(gdb)
	return &Persistence{
		Commands:  repo,
		Snapshots: pgstorage.NewSnapshotRepo(pool),
		Journal:   journal.New(repo, journal.Options{}, logger.Named("journal")),
	}, nil
}
