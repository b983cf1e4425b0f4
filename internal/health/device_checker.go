package health

import (
	"context"
	"time"
)

// DeviceState 设备链路状态来源（*broker.Broker 满足）
type DeviceState interface {
	Health() (lastOK time.Time, lastErr error)
	Subscribers() int
}

// DeviceChecker 依据最近一次设备交互判断串口链路健康
type DeviceChecker struct {
	dev        DeviceState
	staleAfter time.Duration
	now        func() time.Time
}

// NewDeviceChecker staleAfter 内没有成功交互视为降级（通常取两个保活周期）
func NewDeviceChecker(dev DeviceState, staleAfter time.Duration) *DeviceChecker {
	return &DeviceChecker{dev: dev, staleAfter: staleAfter, now: time.Now}
}

func (c *DeviceChecker) Name() string { return "device" }

func (c *DeviceChecker) Check(context.Context) CheckResult {
	start := c.now()
	lastOK, lastErr := c.dev.Health()
	details := map[string]any{"subscribers": c.dev.Subscribers()}
	if !lastOK.IsZero() {
		details["last_ok"] = lastOK
	}

	res := CheckResult{Status: StatusHealthy, Message: "ok", Details: details}
	switch {
	case lastErr != nil:
		res.Status = StatusUnhealthy
		res.Message = lastErr.Error()
	case lastOK.IsZero():
		res.Status = StatusUnhealthy
		res.Message = "no successful exchange yet"
	case c.staleAfter > 0 && start.Sub(lastOK) > c.staleAfter:
		res.Status = StatusDegraded
		res.Message = "no recent exchange"
	}
	res.Latency = c.now().Sub(start)
	return res
}
