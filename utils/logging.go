package utils

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogging sends the standard logger to stderr and, when path is set,
// also to a rotating file. The returned closer flushes the file.
func SetupLogging(path string) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if path == "" {
		log.SetOutput(os.Stderr)
		return noopCloser{}
	}

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, file))
	log.Printf("Logging to %s", path)
	return file
}

type noopCloser struct{}

func (noopCloser) Close() error { return nil }
