package amp

// 记录格式常量
const (
	RecordMagic      byte = 0xAA
	RecordTerminator byte = 0x36

	RecordTypeAck    byte = 0xFF
	RecordTypeStatus byte = 0x0A
	RecordTypeConfig byte = 0x0E
)

// Checksum 计算记录校验和：type、len、data 累加和的补码（模256）
func Checksum(body []byte) byte {
	var sum byte
	for _, b := range body {
		sum += b
	}
	return -sum
}

// Record 组装一条带校验和的记录：AA type len data checksum
func Record(typ byte, data []byte) []byte {
	buf := make([]byte, 0, len(data)+4)
	buf = append(buf, RecordMagic, typ, byte(len(data)))
	buf = append(buf, data...)
	return append(buf, Checksum(buf[1:]))
}

// VerifyRecord 校验一条完整记录的末尾校验和
func VerifyRecord(rec []byte) bool {
	if len(rec) < 4 || rec[0] != RecordMagic {
		return false
	}
	n := int(rec[2])
	if len(rec) != n+4 {
		return false
	}
	return Checksum(rec[1:len(rec)-1]) == rec[len(rec)-1]
}
