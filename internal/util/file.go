package util

import (
	"bytes"

	"github.com/natefinch/atomic"
)

// WriteFileAtomic replaces the file at the given path with the given content,
// so readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte) error {
	return atomic.WriteFile(path, bytes.NewReader(data))
}
