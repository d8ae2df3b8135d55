package domain

import (
	"strings"
	"time"
)

// ChangeType is the Indexing API notification type.
type ChangeType string

const (
	ChangeUpdated ChangeType = "URL_UPDATED"
	ChangeDeleted ChangeType = "URL_DELETED"
)

func (c ChangeType) IsValid() bool {
	switch c {
	case ChangeUpdated, ChangeDeleted:
		return true
	}
	return false
}

// ParseChangeType accepts the wire form or the short CLI form
// ("updated", "deleted"). An empty string means URL_UPDATED.
func ParseChangeType(s string) (ChangeType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "URL_UPDATED", "UPDATED":
		return ChangeUpdated, nil
	case "URL_DELETED", "DELETED":
		return ChangeDeleted, nil
	}
	return "", invalid("type", ErrInvalidChangeType)
}

// URLNotification is one entry of the Indexing API metadata.
type URLNotification struct {
	URL        string     `json:"url"`
	Type       ChangeType `json:"type"`
	NotifyTime *time.Time `json:"notifyTime,omitempty"`
}

// URLNotificationMetadata is what the Indexing API knows about a URL.
type URLNotificationMetadata struct {
	URL          string           `json:"url"`
	LatestUpdate *URLNotification `json:"latestUpdate,omitempty"`
	LatestRemove *URLNotification `json:"latestRemove,omitempty"`
}

// NotificationResult is the decoded body of a successful publish call.
type NotificationResult struct {
	Metadata URLNotificationMetadata `json:"urlNotificationMetadata"`
}

// URLUpdateResult is one item of a multi-URL publish run. Exactly one of
// Result and Err is set.
type URLUpdateResult struct {
	URL    string
	Result *NotificationResult
	Err    error
}

// URLStatusResult is one item of a multi-URL metadata lookup.
type URLStatusResult struct {
	URL      string
	Metadata *URLNotificationMetadata
	Err      error
}

// ValidateNotificationURL checks a URL passed to the Indexing API.
func ValidateNotificationURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return invalid("url", ErrEmptyURLList)
	}
	if _, err := parseAbsolute(raw); err != nil {
		return invalid("url", ErrInvalidURL)
	}
	return nil
}
