package logger

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"foodcurator/internal/config"

	"go.uber.org/multierr"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger provides leveled logging (info/warning/error) to rotating files and stdout/stderr.
type Logger struct {
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	files      map[string]*lumberjack.Logger
	logDir     string
	mu         sync.Mutex
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(config *config.Config) *Logger {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	logger := &Logger{
		logDir: config.LogDirectory,
		files:  make(map[string]*lumberjack.Logger),
	}

	logger.setupLoggers(config.LogMaxSizeMB, config.LogMaxBackups)
	return logger
}

// New builds a Logger over arbitrary writers without any log files.
func New(info, warning, errs io.Writer) *Logger {
	return &Logger{
		infoLog:    log.New(info, "ℹ️  INFO    ", log.Ldate|log.Ltime),
		warningLog: log.New(warning, "⚠️  WARNING ", log.Ldate|log.Ltime),
		errorLog:   log.New(errs, "❌ ERROR   ", log.Ldate|log.Ltime),
		files:      make(map[string]*lumberjack.Logger),
	}
}

// setupLoggers initializes writers and per-level loggers.
func (l *Logger) setupLoggers(maxSizeMB, maxBackups int) {
	infoWriter := io.MultiWriter(os.Stdout, l.openLogFile("info.log", maxSizeMB, maxBackups))
	warningWriter := io.MultiWriter(os.Stdout, l.openLogFile("warning.log", maxSizeMB, maxBackups))
	errorWriter := io.MultiWriter(os.Stderr, l.openLogFile("error.log", maxSizeMB, maxBackups))

	l.infoLog = log.New(infoWriter, "ℹ️  INFO    ", log.Ldate|log.Ltime|log.Lshortfile)
	l.warningLog = log.New(warningWriter, "⚠️  WARNING ", log.Ldate|log.Ltime|log.Lshortfile)
	l.errorLog = log.New(errorWriter, "❌ ERROR   ", log.Ldate|log.Ltime|log.Lshortfile)
}

// openLogFile returns a size-rotated writer for a file in the log directory.
func (l *Logger) openLogFile(name string, maxSizeMB, maxBackups int) *lumberjack.Logger {
	file := &lumberjack.Logger{
		Filename:   filepath.Join(l.logDir, name),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}
	l.files[name] = file
	return file
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Printf(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Printf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Printf(format, v...)
}

// Rotate starts a fresh file for the given log, keeping the old one as a backup.
func (l *Logger) Rotate(fileName string) {
	l.mu.Lock()
	file, ok := l.files[fileName]
	l.mu.Unlock()

	if !ok {
		l.Warning("Unknown log file: %s", fileName)
		return
	}
	if err := file.Rotate(); err != nil {
		l.Error("Error rotating %s: %v", fileName, err)
		return
	}
	l.Info("Log %s rotated.", fileName)
}

// RotateAll rotates every log file, e.g. on SIGHUP.
func (l *Logger) RotateAll() {
	l.mu.Lock()
	names := make([]string, 0, len(l.files))
	for name := range l.files {
		names = append(names, name)
	}
	l.mu.Unlock()

	sort.Strings(names)
	for _, name := range names {
		l.Rotate(name)
	}
}

// Close flushes and closes all log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var err error
	for _, file := range l.files {
		err = multierr.Append(err, file.Close())
	}
	return err
}
