package main

import (
	"log"
	"os"
)

// logger wraps the standard library logger with a microsecond timestamp,
// generalizing the teacher's ad hoc fmt.Printf-to-stderr convention
// (video_compositor.go, runtime_ipc.go) into one leveled helper every
// component calls the same way.
var logger = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)

func logf(format string, args ...any) {
	logger.Printf(format, args...)
}

func logerr(operation string, err error) {
	logger.Printf("%s: %v", operation, err)
}
