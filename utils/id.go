package utils

import (
	"github.com/google/uuid"
)

// GenerateID 生成不透明的随机标识，用于建议批次、建议任务与引导流程
func GenerateID() string {
	return uuid.New().String()
}
