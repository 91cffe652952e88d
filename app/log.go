package app

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const logMaxEntries = 500

// LogEntry is a single log line.
type LogEntry struct {
	Time    time.Time
	Package string
	Message string
}

var (
	logMu      sync.Mutex
	logEntries []*LogEntry
	logFile    *os.File
)

// OpenLogFile opens the run log file. Log lines are written to stderr
// regardless, the file is best effort.
func OpenLogFile(dir string) {
	os.MkdirAll(dir, 0700)
	f, err := os.OpenFile(filepath.Join(dir, "blogr.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[app] Could not open log file: %v\n", err)
		return
	}
	logMu.Lock()
	logFile = f
	logMu.Unlock()
}

// CloseLogFile flushes and closes the run log file.
func CloseLogFile() {
	logMu.Lock()
	defer logMu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Log writes a log message for the given package.
func Log(pkg, format string, args ...interface{}) {
	entry := &LogEntry{
		Time:    time.Now(),
		Package: pkg,
		Message: fmt.Sprintf(format, args...),
	}

	line := fmt.Sprintf("%s [%s] %s\n", entry.Time.Format("2006-01-02 15:04:05"), pkg, entry.Message)
	fmt.Fprint(os.Stderr, line)

	logMu.Lock()
	if logFile != nil {
		logFile.WriteString(line)
	}
	logEntries = append(logEntries, entry)
	if len(logEntries) > logMaxEntries {
		logEntries = logEntries[len(logEntries)-logMaxEntries:]
	}
	logMu.Unlock()
}

// GetLog returns a copy of the log in reverse-chronological order.
func GetLog() []*LogEntry {
	logMu.Lock()
	defer logMu.Unlock()
	result := make([]*LogEntry, len(logEntries))
	for i, e := range logEntries {
		result[len(logEntries)-1-i] = e
	}
	return result
}
