package logging

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
)

type Flag int

const (
	Nil Flag = iota
	Performance
	Debug
)

// This is handled this way so that Settings doesn't need to be passed to
// literally every function in the project.
var (
	Mode Flag = Nil

	mu     sync.RWMutex
	global = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// Level returns the slog level a mode logs at. Nil only reports warnings,
// Performance adds timing information and Debug logs everything.
func (f Flag) Level() slog.Level {
	switch f {
	case Performance:
		return slog.LevelInfo
	case Debug:
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

func (f Flag) String() string {
	switch f {
	case Nil:
		return "nil"
	case Performance:
		return "performance"
	case Debug:
		return "debug"
	}
	return fmt.Sprintf("Flag(%d)", int(f))
}

// ParseFlag converts a mode name into a Flag.
func ParseFlag(s string) (Flag, error) {
	switch s {
	case "", "nil":
		return Nil, nil
	case "performance":
		return Performance, nil
	case "debug":
		return Debug, nil
	}
	return Nil, fmt.Errorf("The logging mode '%s' isn't one of 'nil', "+
		"'performance', or 'debug'.", s)
}

// Setup sets Mode and installs a text logger writing to w. The returned
// logger is also what L returns from now on.
func Setup(w io.Writer, mode Flag) *slog.Logger {
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     mode.Level(),
		AddSource: mode == Debug,
	}))

	mu.Lock()
	Mode = mode
	global = l
	mu.Unlock()
	return l
}

// L returns the process logger. Until Setup is called it discards
// everything.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// MemString returns a string containing various statistics on the current
// memory usage of lensfish.
func MemString() string {
	ms := runtime.MemStats{}
	runtime.ReadMemStats(&ms)
	return fmt.Sprintf(
		"Alloc - %d MB; Sys - %d MB Integrated - %d MB",
		ms.Alloc>>20, ms.Sys>>20, ms.TotalAlloc>>20,
	)
}
