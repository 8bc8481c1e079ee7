// Package models defines login access log records.
package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"
)

type Action string

const (
	ActionLoginOTP      Action = "LOGIN_OTP"
	ActionLoginPassword Action = "LOGIN_PASSWORD"
	ActionAdminLogin    Action = "ADMIN_LOGIN"
	ActionRegister      Action = "REGISTER"
)

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// FilterAll disables a status or role filter.
const FilterAll = "ALL"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Event is one login or registration attempt.
type Event struct {
	ID            uuid.UUID      `json:"id"`
	Email         string         `json:"email"`
	Role          string         `json:"role"`
	Action        Action         `json:"action"`
	Status        Status         `json:"status"`
	FailureReason string         `json:"failureReason,omitempty"`
	IPAddress     string         `json:"ipAddress"`
	UserAgent     string         `json:"userAgent"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// ClientMetadata describes the client behind a User-Agent header.
func ClientMetadata(userAgent string) map[string]any {
	if userAgent == "" || userAgent == "unknown" {
		return map[string]any{}
	}
	ua := useragent.New(userAgent)
	browser, version := ua.Browser()
	device := "desktop"
	switch {
	case ua.Bot():
		device = "bot"
	case ua.Mobile():
		device = "mobile"
	}
	return map[string]any{
		"browser":        browser,
		"browserVersion": version,
		"os":             ua.OS(),
		"device":         device,
	}
}

// Filter selects a page of events. Empty or ALL status and role match everything.
type Filter struct {
	Status string
	Role   string
	Page   int
	Limit  int
}

// Normalize clamps paging to sane values and folds ALL into no filter.
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Status == FilterAll {
		f.Status = ""
	}
	if f.Role == FilterAll {
		f.Role = ""
	}
	return f
}

func (f Filter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Matches reports whether e passes the status and role filters.
func (f Filter) Matches(e *Event) bool {
	if f.Status != "" && string(e.Status) != f.Status {
		return false
	}
	return f.Role == "" || e.Role == f.Role
}

type Pagination struct {
	Total int `json:"total"`
	Pages int `json:"pages"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Page is one page of events, newest first.
type Page struct {
	Logs       []*Event   `json:"logs"`
	Pagination Pagination `json:"pagination"`
}

func NewPage(logs []*Event, total int, f Filter) *Page {
	if logs == nil {
		logs = []*Event{}
	}
	return &Page{
		Logs: logs,
		Pagination: Pagination{
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(f.Limit))),
			Page:  f.Page,
			Limit: f.Limit,
		},
	}
}
