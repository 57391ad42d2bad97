package model

import (
	"html/template"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleError     Role = "error"
)

// Message is one entry of the chat transcript. HTML is already escaped and
// safe to embed as-is.
type Message struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	HTML      template.HTML  `json:"html"`
	Response  *QueryResponse `json:"response,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// SessionStats is the running aggregate over successful queries.
type SessionStats struct {
	TotalQueries    int     `json:"total_queries"`
	TotalConfidence float64 `json:"total_confidence"`
	AvgConfidence   float64 `json:"avg_confidence"`
}
