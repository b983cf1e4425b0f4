package serialport

import (
	"strings"

	"go.bug.st/serial/enumerator"

	cfgpkg "github.com/taoyao-code/amp-server/internal/config"
)

// listPorts 测试可替换
var listPorts = enumerator.GetDetailedPortsList

// FindPort 按 VID/PID/序列号匹配 USB 串口，返回第一个命中的端口名
// 空条件视为通配
func FindPort(m cfgpkg.SerialMatch) (string, error) {
	ports, err := listPorts()
	if err != nil {
		return "", err
	}
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		if m.VID != "" && !strings.EqualFold(p.VID, m.VID) {
			continue
		}
		if m.PID != "" && !strings.EqualFold(p.PID, m.PID) {
			continue
		}
		if m.SerialNumber != "" && p.SerialNumber != m.SerialNumber {
			continue
		}
		return p.Name, nil
	}
	return "", ErrNoPort
}
