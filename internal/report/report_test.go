package report_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/notifyhub/indexnotify/internal/domain"
	"github.com/notifyhub/indexnotify/internal/report"
)

func ptr[T any](v T) *T { return &v }

func TestWriteSubmission(t *testing.T) {
	start := time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
	r := &domain.SubmissionReport{
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Outcomes: []domain.SubmissionOutcome{
			{Endpoint: domain.NewEndpoint("api.indexnow.org"), Succeeded: true, StatusCode: ptr(202), Attempts: 1},
			{Endpoint: domain.NewEndpoint("yandex.com"), StatusCode: ptr(403), ResponseBody: ptr(`{"error":"bad key"}`), Attempts: 1},
			{Endpoint: domain.NewEndpoint("www.bing.com"), ErrorMessage: ptr("transport www.bing.com: timeout"), Attempts: 1},
		},
	}

	var buf bytes.Buffer
	if err := report.WriteSubmission(&buf, r); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{"api.indexnow.org", "202", `{"error":"bad key"}`, "timeout", "succeeded: 1/3", "failed: 2/3", "1.5s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestWriteURLResults(t *testing.T) {
	when := time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
	results := []domain.URLUpdateResult{
		{URL: "https://example.com/", Result: &domain.NotificationResult{Metadata: domain.URLNotificationMetadata{
			LatestUpdate: &domain.URLNotification{NotifyTime: &when},
		}}},
		{URL: "https://example.com/b", Err: errors.New("authentication: status 403")},
	}

	var buf bytes.Buffer
	if err := report.WriteURLResults(&buf, results); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "2026-10-17T08:00:00Z") || !strings.Contains(out, "status 403") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "succeeded: 1/2") {
		t.Fatalf("expected summary line, got:\n%s", out)
	}
}

func TestWriteStatuses(t *testing.T) {
	results := []domain.URLStatusResult{
		{URL: "https://example.com/", Metadata: &domain.URLNotificationMetadata{}},
		{URL: "https://example.com/x", Err: errors.New("remote rejected request: status 404")},
	}

	var buf bytes.Buffer
	if err := report.WriteStatuses(&buf, results); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "status 404") {
		t.Fatalf("expected error in output:\n%s", buf.String())
	}
}

func TestWriteSubmission_TruncatesOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("é", 300)
	r := &domain.SubmissionReport{Outcomes: []domain.SubmissionOutcome{
		{Endpoint: domain.NewEndpoint("yandex.com"), StatusCode: ptr(400), ResponseBody: ptr(body), Attempts: 1},
	}}

	var buf bytes.Buffer
	if err := report.WriteSubmission(&buf, r); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !utf8.ValidString(out) {
		t.Fatal("expected valid UTF-8 output")
	}
	if !strings.Contains(out, strings.Repeat("é", 200)+"…") {
		t.Fatalf("expected 200 runes then an ellipsis:\n%s", out)
	}
	if strings.Contains(out, strings.Repeat("é", 201)) {
		t.Fatal("expected the body to be cut at 200 runes")
	}
}
