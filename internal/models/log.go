package models

import "time"

// LogEntry is one captured request/response cycle, kept in the in-memory
// log ring for the admin log browser and the live stream.
type LogEntry struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Level      string            `json:"level"`
	Method     string            `json:"method"`
	URL        string            `json:"url"`
	Status     int               `json:"status"`
	DurationMs int64             `json:"responseTime"`
	ClientIP   string            `json:"ip,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
	Query      map[string]string `json:"query,omitempty"`
}

// LogFilter narrows the entries returned by the log service.
type LogFilter struct {
	Method    string
	MinStatus int
	Limit     int
}
