package bptree

import "go.uber.org/zap"

func pageField(name string, p PagePtr) zap.Field {
	return zap.Uint64(name, p)
}
