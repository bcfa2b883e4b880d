package testdoubles

import (
	"fmt"
	"strings"
	"sync"
)

// LoggerSpy реализует printf-логгер сервисов и запоминает сообщения для проверок в тестах
type LoggerSpy struct {
	mu      sync.Mutex
	records []LogRecord
}

// LogRecord одно записанное сообщение
type LogRecord struct {
	Level   string
	Message string
}

func NewLoggerSpy() *LoggerSpy {
	return &LoggerSpy{}
}

func (s *LoggerSpy) Debug(format string, v ...interface{}) { s.record("debug", format, v...) }
func (s *LoggerSpy) Info(format string, v ...interface{})  { s.record("info", format, v...) }
func (s *LoggerSpy) Warn(format string, v ...interface{})  { s.record("warn", format, v...) }
func (s *LoggerSpy) Error(format string, v ...interface{}) { s.record("error", format, v...) }

func (s *LoggerSpy) record(level, format string, v ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, LogRecord{Level: level, Message: fmt.Sprintf(format, v...)})
}

// Records возвращает копию записанных сообщений уровня level (пустой level = все)
func (s *LoggerSpy) Records(level string) []LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LogRecord, 0, len(s.records))
	for _, r := range s.records {
		if level == "" || r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// Contains сообщает, есть ли сообщение уровня level, содержащее substr
func (s *LoggerSpy) Contains(level, substr string) bool {
	for _, r := range s.Records(level) {
		if strings.Contains(r.Message, substr) {
			return true
		}
	}
	return false
}
