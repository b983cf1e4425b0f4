package app

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// GenerateServerID 实例 ID：优先环境变量 SERVER_ID，否则 amp-server-{hostname}-{uuid 前 8 位}
func GenerateServerID() string {
	if id := os.Getenv("SERVER_ID"); id != "" {
		return id
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("amp-server-%s-%s", hostname, uuid.NewString()[:8])
}
