package graph

import "time"

// nowMs is the wall clock used when an Assembler's Now is nil.
func nowMs() int64 {
	return time.Now().UnixMilli()
}
