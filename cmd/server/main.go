package main

import (
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/taoyao-code/amp-server/internal/app/bootstrap"
	cfgpkg "github.com/taoyao-code/amp-server/internal/config"
	"github.com/taoyao-code/amp-server/internal/logging"
)

// @title Amp Server API
// @version 1.0
// @description 串口功放控制与状态中继服务
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func main() {
	configPath := flag.String("config", "", "config file path (default: $IOT_CONFIG or configs/example.yaml)")
	flag.Parse()

	// 1) 加载配置
	cfg, err := cfgpkg.Load(*configPath)
	if err != nil {
		panic(err)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	// 3) 启动
	if err := bootstrap.Run(cfg, logger); err != nil {
		logger.Error("amp server exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}
