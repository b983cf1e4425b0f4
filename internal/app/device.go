package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/taoyao-code/amp-server/internal/broker"
	cfgpkg "github.com/taoyao-code/amp-server/internal/config"
	"github.com/taoyao-code/amp-server/internal/protocol/amp"
	"github.com/taoyao-code/amp-server/internal/serialport"
)

// OpenTransport 打开配置的串口；未配置时按 USB 匹配条件枚举
func OpenTransport(cfg cfgpkg.SerialConfig, logger *zap.Logger) (*serialport.Transport, error) {
	name := cfg.Port
	if name == "" {
		found, err := serialport.FindPort(cfg.Match)
		if err != nil {
			return nil, err
		}
		logger.Info("serial port discovered", zap.String("port", found),
			zap.String("vid", cfg.Match.VID), zap.String("serial_number", cfg.Match.SerialNumber))
		name = found
	}
	return serialport.Open(name, cfg, logger.Named("serial"))
}

// LoadInputTable 未配置路径时使用内置表
func LoadInputTable(path string, logger *zap.Logger) (*amp.InputTable, error) {
	if path == "" {
		return amp.DefaultInputTable(), nil
	}
	t, err := amp.LoadInputTable(path)
	if err != nil {
		return nil, fmt.Errorf("load input table %s: %w", path, err)
	}
	logger.Info("input table loaded", zap.String("path", path), zap.Strings("variants", t.Variants()))
	return t, nil
}

// InitDevice 启动时读取一次状态，并按配置复位与选择初始输入
func InitDevice(ctx context.Context, b *broker.Broker, cfg cfgpkg.DeviceConfig, logger *zap.Logger) error {
	st, err := b.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("initial status read: %w", err)
	}
	logger.Info("amplifier status", zap.Any("status", st))

	if cfg.ResetOnStart {
		if _, err := b.ResetConfiguration(ctx); err != nil {
			return fmt.Errorf("configuration reset: %w", err)
		}
		logger.Info("amplifier configuration reset")
	}
	if cfg.InitialInput != "" {
		action := broker.SelectInputPrefix + cfg.InitialInput
		if _, err := b.Apply(ctx, action); err != nil {
			return fmt.Errorf("select initial input %q: %w", cfg.InitialInput, err)
		}
		logger.Info("initial input selected", zap.String("input", cfg.InitialInput))
	}
	return nil
}
