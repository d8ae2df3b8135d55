// Package report renders notifier results as plain text for the CLI.
// It only formats; nothing here touches the network.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/notifyhub/indexnotify/internal/domain"
)

// maxBodyLen is counted in runes.
const maxBodyLen = 200

// WriteSubmission prints one line per endpoint followed by the summary.
func WriteSubmission(w io.Writer, r *domain.SubmissionReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ENDPOINT\tRESULT\tSTATUS\tATTEMPTS\tDETAIL\n")
	for _, o := range r.Outcomes {
		result := "ok"
		if !o.Succeeded {
			result = "FAILED"
		}
		status := "-"
		if o.StatusCode != nil {
			status = strconv.Itoa(*o.StatusCode)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			o.Endpoint.Identifier, result, status, o.Attempts, detail(o))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	total := len(r.Outcomes)
	_, err := fmt.Fprintf(w, "\nsucceeded: %d/%d  failed: %d/%d  (%s)\n",
		r.SuccessCount(), total, r.FailureCount(), total,
		r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	return err
}

// WriteURLResults prints the outcome of a multi-URL publish run.
func WriteURLResults(w io.Writer, results []domain.URLUpdateResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "URL\tRESULT\tDETAIL\n")
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(tw, "%s\tFAILED\t%s\n", r.URL, truncate(r.Err.Error()))
			continue
		}
		notified := "-"
		if u := r.Result.Metadata.LatestUpdate; u != nil && u.NotifyTime != nil {
			notified = u.NotifyTime.UTC().Format(time.RFC3339)
		} else if d := r.Result.Metadata.LatestRemove; d != nil && d.NotifyTime != nil {
			notified = d.NotifyTime.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\tok\tnotified %s\n", r.URL, notified)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nsucceeded: %d/%d  failed: %d/%d\n",
		len(results)-failed, len(results), failed, len(results))
	return err
}

// WriteStatuses prints the latest update and removal the Indexing API has
// recorded for each URL.
func WriteStatuses(w io.Writer, results []domain.URLStatusResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "URL\tLATEST UPDATE\tLATEST REMOVE\n")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\terror: %s\t\n", r.URL, truncate(r.Err.Error()))
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.URL, stamp(r.Metadata.LatestUpdate), stamp(r.Metadata.LatestRemove))
	}
	return tw.Flush()
}

func detail(o domain.SubmissionOutcome) string {
	switch {
	case o.Succeeded:
		return o.Latency.Round(time.Millisecond).String()
	case o.ResponseBody != nil:
		return truncate(*o.ResponseBody)
	case o.ErrorMessage != nil:
		return truncate(*o.ErrorMessage)
	}
	return ""
}

func stamp(n *domain.URLNotification) string {
	if n == nil || n.NotifyTime == nil {
		return "-"
	}
	return n.NotifyTime.UTC().Format(time.RFC3339)
}

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxBodyLen {
		return s
	}
	return string([]rune(s)[:maxBodyLen]) + "…"
}
