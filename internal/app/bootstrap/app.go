package bootstrap

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	_ "github.com/taoyao-code/amp-server/docs"
	"github.com/taoyao-code/amp-server/internal/api"
	"github.com/taoyao-code/amp-server/internal/api/middleware"
	"github.com/taoyao-code/amp-server/internal/app"
	"github.com/taoyao-code/amp-server/internal/broker"
	cfgpkg "github.com/taoyao-code/amp-server/internal/config"
	"github.com/taoyao-code/amp-server/internal/device"
	"github.com/taoyao-code/amp-server/internal/keepalive"
	"github.com/taoyao-code/amp-server/internal/metrics"
	pgstorage "github.com/taoyao-code/amp-server/internal/storage/pg"
	redisstorage "github.com/taoyao-code/amp-server/internal/storage/redis"
)

// Run 统一启动流程：设备就绪后再对外提供服务
func Run(cfg *cfgpkg.Config, log *zap.Logger) error {
	serverID := app.GenerateServerID()
	log = log.With(zap.String("server_id", serverID))
	log.Info("starting amp server", zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ========== 阶段1: 基础组件 ==========
	reg, appm := app.NewMetrics()
	metricsHandler := metrics.Handler(reg)

	// ========== 阶段2: 串口与设备 ==========
	transport, err := app.OpenTransport(cfg.Serial, log)
	if err != nil {
		log.Error("serial port initialization failed", zap.Error(err))
		return err
	}
	defer func() { _ = transport.Close() }()

	inputs, err := app.LoadInputTable(cfg.Device.InputMapPath, log)
	if err != nil {
		return err
	}

	ctrl := device.New(transport, device.WithLogger(log.Named("device")), device.WithMetrics(appm))
	brokerOpts := []broker.Option{
		broker.WithLogger(log.Named("broker")),
		broker.WithMetrics(appm),
		broker.WithInputTable(inputs),
		broker.WithBuffer(cfg.Device.SubscriberBuffer),
	}

	// ========== 阶段3: 可选持久化（数据库失败直接返回）==========
	var (
		pool        *pgxpool.Pool
		persistence *app.Persistence
	)
	if cfg.Database.Enabled {
		pool, err = app.ConnectDBAndMigrate(ctx, cfg.Database, log)
		if err != nil {
			return err
		}
		defer pool.Close()
		log.Info("database ready", zap.String("dsn", maskDSN(cfg.Database.DSN)))

		persistence, err = app.NewPersistence(pool, log)
		if err != nil {
			return err
		}
		if st, at, err := persistence.Snapshots.LatestSnapshot(ctx); err == nil {
			log.Info("last persisted status", zap.Any("status", st), zap.Time("captured_at", at))
		} else if !errors.Is(err, pgstorage.ErrNoSnapshot) {
			log.Warn("read last snapshot failed", zap.Error(err))
		}
		persistence.Journal.Start(ctx)
		// 写库协程在 ctx 取消后把剩余记录写完
		defer persistence.Journal.Wait()
		brokerOpts = append(brokerOpts, broker.WithRecorder(persistence.Journal))
	}

	b := broker.New(ctrl, brokerOpts...)
	defer b.Close()

	if err := app.InitDevice(ctx, b, cfg.Device, log); err != nil {
		log.Error("device initialization failed", zap.Error(err))
		return err
	}

	healthAgg := app.NewHealthAggregator(b, cfg.Device.KeepAliveInterval)
	app.AddDatabaseChecker(healthAgg, pool)

	// ========== 阶段4: 可选 Redis ==========
	redisClient, err := app.NewRedisClient(cfg.Redis, log)
	if err != nil {
		log.Error("redis initialization failed", zap.Error(err))
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		app.AddRedisChecker(healthAgg, redisClient)
	}

	// ========== 阶段5: 后台消费者与保活 ==========
	// 先于上面的资源关闭执行：取消 ctx 并等待所有后台协程退出
	var wg sync.WaitGroup
	defer func() {
		stop()
		wg.Wait()
	}()
	spawn := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	if persistence != nil {
		sub, err := b.Subscribe(ctx)
		if err != nil {
			return err
		}
		sink := pgstorage.NewSnapshotSink(persistence.Snapshots, log.Named("snapshots"), appm)
		spawn(func() { sink.Run(ctx, sub) })
	}
	if redisClient != nil {
		sub, err := b.Subscribe(ctx)
		if err != nil {
			return err
		}
		mirror := app.NewStatusMirror(redisClient, cfg.Redis, log.Named("redis"), appm)
		if st, at, err := mirror.Latest(ctx); err == nil {
			log.Info("last mirrored status", zap.Any("status", st), zap.Time("updated_at", at))
		} else if !errors.Is(err, redisstorage.ErrNoMirror) {
			log.Warn("read status mirror failed", zap.Error(err))
		}
		spawn(func() { mirror.Run(ctx, sub) })
	}

	ka := keepalive.New(b, cfg.Device.KeepAliveInterval, log.Named("keepalive"), appm)
	spawn(func() { ka.Run(ctx) })

	// ========== 阶段6: HTTP ==========
	readyFn := func() bool { return healthAgg.Ready(context.Background()) }
	httpSrv := app.NewHTTPServer(cfg.HTTP, cfg.Metrics, metricsHandler, readyFn)
	httpSrv.Register(func(r *gin.Engine) {
		deps := api.Deps{
			Broker: b,
			Auth: middleware.AuthConfig{
				APIKeys: cfg.API.Auth.APIKeys,
				Enabled: cfg.API.Auth.Enabled,
			},
			WS: api.WSConfig{
				PingInterval: cfg.API.PingInterval,
				PerSecond:    cfg.API.RateLimit.PerSecond,
				Burst:        cfg.API.RateLimit.Burst,
			},
			Logger: log.Named("api"),
		}
		if persistence != nil {
			deps.Journal = persistence.Commands
			deps.Snapshots = persistence.Snapshots
		}
		api.RegisterRoutes(r, deps)
		app.RegisterHealthRoutes(r, healthAgg)
	})

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.Start() }()
	log.Info("http server started", zap.String("addr", cfg.HTTP.Addr))

	// ========== 阶段7: 等待关闭信号 ==========
	select {
	case <-ctx.Done():
		log.Info("received shutdown signal, gracefully shutting down...")
	case err := <-errCh:
		if err != nil {
			log.Error("http server error", zap.Error(err))
			stop()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown error", zap.Error(err))
	}
	log.Info("http server stopped")
	return nil
}

// maskDSN 隐藏连接串中的密码
func maskDSN(dsn string) string {
	if idx := strings.Index(dsn, "@"); idx > 0 {
		if pwdIdx := strings.LastIndex(dsn[:idx], ":"); pwdIdx > 0 {
			return dsn[:pwdIdx+1] + "****" + dsn[idx:]
		}
	}
	return dsn
}
