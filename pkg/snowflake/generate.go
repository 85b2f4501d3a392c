package snowflake

import (
	"errors"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// GeneratorType 不同业务对象使用独立的生成器节点，避免 ID 段互相挤占
type GeneratorType int

const (
	GeneratorTypeUser GeneratorType = iota
	GeneratorTypeAlarm
	GeneratorTypeMessage
)

var (
	nodes map[GeneratorType]*snowflake.Node
	once  sync.Once

	errInvalidMachineID   = errors.New("invalid snowflake machine id")
	errGeneratorUninitial = errors.New("snowflake generator is not initialized")
)

func Init(machineID, dataCenterID int64) error {
	var initErr error

	once.Do(func() {
		if machineID < 0 || machineID > 31 {
			initErr = errInvalidMachineID
			return
		}

		// datacenterID 和 machineID 都是 0~31，每个 GeneratorType 在此基础上偏移
		baseID := (dataCenterID << 5) | machineID

		nodes = make(map[GeneratorType]*snowflake.Node)
		for _, t := range []GeneratorType{GeneratorTypeUser, GeneratorTypeAlarm, GeneratorTypeMessage} {
			nodeID := (baseID + int64(t)*32) % 1024

			node, err := snowflake.NewNode(nodeID)
			if err != nil {
				initErr = err
				return
			}
			nodes[t] = node
		}
	})

	return initErr
}

func NextID(t GeneratorType) (int64, error) {
	if nodes == nil {
		return 0, errGeneratorUninitial
	}

	node, ok := nodes[t]
	if !ok {
		return 0, errGeneratorUninitial
	}

	return node.Generate().Int64(), nil
}
