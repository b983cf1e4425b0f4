package broker

import (
	"sort"
	"strings"

	"github.com/taoyao-code/amp-server/internal/protocol/amp"
)

// Device broker 独占持有的设备（device.Controller 满足）
type Device interface {
	Status() (amp.Status, error)
	CachedStatus() (amp.Status, error)
	VolumeUp() error
	VolumeDown() error
	TurnOn() error
	TurnOff() error
	Mute() error
	SelectInput(in amp.Input) error
	SelectEffect(e amp.Effect) error
	ConfigurationReset() error
	ResetIdleTimeout() error
}

// SelectInputPrefix select_input_<variant>
const SelectInputPrefix = "select_input_"

// 内部操作名，不接受入站调用
const (
	opStatus             = "status"
	opResetIdleTimeout   = "reset_idle_timeout"
	opConfigurationReset = "configuration_reset"
)

// op 一次在独占区内执行的设备操作；run 为空表示只读状态
type op struct {
	name string
	run  func(Device) error
}

func selectEffect(e amp.Effect) func(Device) error {
	return func(d Device) error { return d.SelectEffect(e) }
}

// actions 入站 action 集合（不含 select_input_<variant>）
var actions = map[string]func(Device) error{
	"volume_up":       Device.VolumeUp,
	"volume_down":     Device.VolumeDown,
	"turn_on":         Device.TurnOn,
	"turn_off":        Device.TurnOff,
	"mute":            Device.Mute,
	"effect_3d":       selectEffect(amp.Effect3D),
	"effect_2_1":      selectEffect(amp.Effect2_1),
	"effect_4_1":      selectEffect(amp.Effect4_1),
	"effect_disabled": selectEffect(amp.EffectDisabled),
}

// resolve 将入站 action 映射为设备操作
func resolve(action string, inputs *amp.InputTable) (op, error) {
	if run, ok := actions[action]; ok {
		return op{name: action, run: run}, nil
	}
	if variant, ok := strings.CutPrefix(action, SelectInputPrefix); ok && inputs != nil {
		if in, ok := inputs.Lookup(variant); ok {
			return op{name: action, run: func(d Device) error { return d.SelectInput(in) }}, nil
		}
	}
	return op{}, &UnknownActionError{Action: action}
}

// ActionNames 返回所有可接受的入站 action（排序）
func ActionNames(inputs *amp.InputTable) []string {
	names := make([]string, 0, len(actions)+4)
	for name := range actions {
		names = append(names, name)
	}
	if inputs != nil {
		for _, v := range inputs.Variants() {
			names = append(names, SelectInputPrefix+v)
		}
	}
	sort.Strings(names)
	return names
}
