package logging

import (
	"log"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Configure routes the standard logger to a rotating file. The terminal
// belongs to the TUI, so nothing may log to stderr while it runs.
func Configure(path string) {
	log.SetOutput(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	})
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
}
