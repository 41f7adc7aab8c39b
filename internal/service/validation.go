package service

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/maxviazov/sideline-stats-service/internal/model"
)

const (
	dateLayout   = "2006-01-02"
	maxNameRunes = 60
)

// requireName trims v and records a field error when it is empty or too long.
func requireName(field, v string, ferrs *[]FieldError) string {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		*ferrs = append(*ferrs, FieldError{Field: field, Message: "must not be empty"})
	case utf8.RuneCountInString(v) > maxNameRunes:
		*ferrs = append(*ferrs, FieldError{Field: field, Message: "must be at most 60 characters"})
	}
	return v
}

// optionalDate accepts an empty value (filled by the caller) or a YYYY-MM-DD date.
func optionalDate(field, v string, ferrs *[]FieldError) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if _, err := time.Parse(dateLayout, v); err != nil {
		*ferrs = append(*ferrs, FieldError{Field: field, Message: "must be in YYYY-MM-DD format"})
	}
	return v
}

func parseTeam(v string, ferrs *[]FieldError) model.Team {
	t := model.Team(strings.ToLower(strings.TrimSpace(v)))
	if !t.Valid() {
		*ferrs = append(*ferrs, FieldError{Field: "team", Message: "must be home or away"})
	}
	return t
}

func parseEventType(v string, ferrs *[]FieldError) model.EventType {
	e := model.EventType(strings.ToLower(strings.TrimSpace(v)))
	if !e.Valid() {
		*ferrs = append(*ferrs, FieldError{Field: "eventType", Message: "unknown event type"})
	}
	return e
}

func requireID(field, v string, ferrs *[]FieldError) string {
	v = strings.TrimSpace(v)
	if v == "" {
		*ferrs = append(*ferrs, FieldError{Field: field, Message: "must not be empty"})
	}
	return v
}
