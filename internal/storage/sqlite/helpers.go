package sqlite

import (
	"time"

	"github.com/aeonmind/mcore/internal/vectorops"
)

func vecToBytes(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	return vectorops.VecToBytes(v)
}

func sqlNow() time.Time {
	return time.Now().UTC()
}
