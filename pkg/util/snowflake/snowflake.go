package snowflake

import (
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

var (
	node     *snowflake.Node
	nodeOnce sync.Once
)

// Init 初始化雪花算法节点
// 应在程序启动时调用一次，machineID 范围 0-1023
func Init(machineID int64) {
	nodeOnce.Do(func() {
		if machineID < 0 || machineID > 1023 {
			machineID = 1
			zap.L().Warn("Invalid MachineID in config, using default value 1")
		}
		var err error
		node, err = snowflake.NewNode(machineID)
		if err != nil {
			zap.L().Fatal("Failed to initialize snowflake node", zap.Error(err))
		}
	})
}

// GenerateID 生成雪花 ID (int64)，用作消息主键
func GenerateID() int64 {
	if node == nil {
		Init(1)
	}
	return node.Generate().Int64()
}

// IDToString 转为字符串，避免前端 JavaScript 精度丢失
func IDToString(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseIDString 解析字符串形式的雪花 ID
func ParseIDString(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
