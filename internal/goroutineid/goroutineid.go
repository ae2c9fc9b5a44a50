// Package goroutineid extracts the runtime's identifier for the calling
// goroutine.
//
// The value is parsed from the header of runtime.Stack, which is stable in
// practice ("goroutine N [status]:") though not formally guaranteed. It is
// used to map a goroutine back to the logical thread it is hosting, and must
// not be used for anything that needs to be fast.
package goroutineid

import (
	"runtime"
)

const prefix = "goroutine "

// Get returns the current goroutine's ID, or 0 if it could not be parsed.
func Get() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parse(buf[:n])
}

func parse(b []byte) uint64 {
	if len(b) < len(prefix) || string(b[:len(prefix)]) != prefix {
		return 0
	}
	var id uint64
	for i := len(prefix); i < len(b); i++ {
		if b[i] < '0' || b[i] > '9' {
			break
		}
		id = id*10 + uint64(b[i]-'0')
	}
	return id
}
