package amp

import "fmt"

// Effect 音效字节码
type Effect uint8

const (
	Effect3D       Effect = 0x14
	Effect4_1      Effect = 0x15
	Effect2_1      Effect = 0x16
	EffectDisabled Effect = 0x35
)

// String 返回与入站 action 后缀一致的名称
func (e Effect) String() string {
	switch e {
	case Effect3D:
		return "3d"
	case Effect4_1:
		return "4_1"
	case Effect2_1:
		return "2_1"
	case EffectDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("effect(0x%02X)", uint8(e))
	}
}

// Valid 是否为已知的四种音效之一
func (e Effect) Valid() bool {
	switch e {
	case Effect3D, Effect4_1, Effect2_1, EffectDisabled:
		return true
	}
	return false
}

// Input 输入选择字节码（仅收录已逆向的部分）
type Input uint8

const (
	Input3_5mm Input = 0x02
	InputRCA   Input = 0x05
)

// Status 设备状态快照，整体替换，不做局部修改
//
// 只有输入 1/2/6 在协议中暴露音效状态，其余三路没有对应字段。
type Status struct {
	MainVolume   uint8  `json:"main_volume"`
	Input        uint8  `json:"input"`
	Standby      bool   `json:"standby"`
	Input1Effect Effect `json:"input_1_effect"`
	Input2Effect Effect `json:"input_2_effect"`
	Input6Effect Effect `json:"input_6_effect"`
}
