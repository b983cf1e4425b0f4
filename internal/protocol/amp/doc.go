// Package amp 功放串口协议编解码（纯函数，无 I/O）
//
// 指令为固定字节序列，应答为固定长度：部分应答需逐字节回显，
// 状态应答以 AA 0A 14 开头。设备记录格式为
//
//	AA <type> <len> <data...> <checksum>
//
// checksum 为 type、len、data 字节累加和的补码。
package amp
