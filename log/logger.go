package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/op/go-logging"
)

type Level uint8

// The levels that can be passed to SetLevel and SetModuleLevel.
const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

var levelNames = map[Level]string{
	Debug:   "debug",
	Info:    "info",
	Notice:  "notice",
	Warning: "warning",
	Error:   "error",
}

var backendLevels = map[Level]logging.Level{
	Debug:   logging.DEBUG,
	Info:    logging.INFO,
	Notice:  logging.NOTICE,
	Warning: logging.WARNING,
	Error:   logging.ERROR,
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", uint8(l))
}

// ParseLevel maps a level name such as "debug" or "WARNING" to a Level.
func ParseLevel(name string) (Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for level, levelName := range levelNames {
		if levelName == name {
			return level, nil
		}
	}
	return Notice, fmt.Errorf("log: unknown level %q", name)
}

// The logger format
var format = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
)

// The internal leveled logger backend
var leveledBackend logging.LeveledBackend

// The logger interface
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// Create a new named logger. The name shows up as the module of every
// message and can be used with SetModuleLevel.
func New(name string) Logger {
	return logging.MustGetLogger(name)
}

// Override the backend output sink. The current global level is kept.
func SetSink(sink io.Writer) {
	level := Notice
	if leveledBackend != nil {
		level = levelFromBackend(leveledBackend.GetLevel(""))
	}

	backend := logging.NewLogBackend(sink, "", 0)
	backendWithFormatter := logging.NewBackendFormatter(backend, format)
	leveledBackend = logging.AddModuleLevel(backendWithFormatter)
	logging.SetBackend(leveledBackend)
	SetLevel(level)
}

// Set logger verbosity for all modules.
func SetLevel(level Level) {
	SetModuleLevel("", level)
}

// Set logger verbosity for a single named logger.
func SetModuleLevel(module string, level Level) {
	backendLevel, ok := backendLevels[level]
	if !ok {
		backendLevel = logging.NOTICE
	}
	leveledBackend.SetLevel(backendLevel, module)
}

// GetLevel returns the global verbosity.
func GetLevel() Level {
	return levelFromBackend(leveledBackend.GetLevel(""))
}

func levelFromBackend(backendLevel logging.Level) Level {
	for level, bl := range backendLevels {
		if bl == backendLevel {
			return level
		}
	}
	return Notice
}

func init() {
	SetSink(os.Stdout)
	SetLevel(Notice)
}
