package app

import (
	"context"
	"io/fs"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/taoyao-code/amp-server/db"
	cfgpkg "github.com/taoyao-code/amp-server/internal/config"
	"github.com/taoyao-code/amp-server/internal/migrate"
	pgstorage "github.com/taoyao-code/amp-server/internal/storage/pg"
)

// ConnectDBAndMigrate 建立连接池并按需执行迁移
func ConnectDBAndMigrate(ctx context.Context, cfg cfgpkg.DatabaseConfig, log *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := pgstorage.NewPool(ctx, cfg.DSN, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime, log)
	if err != nil {
		log.Error("db connect error", zap.Error(err))
		return nil, err
	}
	if !cfg.AutoMigrate {
		return pool, nil
	}
	runner, err := migrationRunner(cfg.MigrateDir)
	if err != nil {
		pool.Close()
		return nil, err
	}
	applied, err := runner.Up(ctx, pool)
	if err != nil {
		log.Error("db migrate error", zap.Error(err))
		pool.Close()
		return nil, err
	}
	log.Info("db migrations applied", zap.Int64s("versions", applied))
	return pool, nil
}

// migrationRunner 目录存在时使用磁盘文件，否则使用内嵌迁移
func migrationRunner(dir string) (migrate.Runner, error) {
	if dir != "" {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			return migrate.Runner{Dir: dir}, nil
		}
	}
	sub, err := fs.Sub(db.Migrations, "migrations")
	if err != nil {
		return migrate.Runner{}, err
	}
	return migrate.Runner{FS: sub}, nil
}
