package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/notifyhub/indexnotify/internal/config"
	"github.com/notifyhub/indexnotify/internal/domain"
	"github.com/notifyhub/indexnotify/internal/report"
)

const usage = `usage: indexnotify <command> [flags]

commands:
  serve      run the HTTP API
  indexnow   submit URLs to every IndexNow endpoint
  submit     notify the Google Indexing API of URL changes
  status     show Indexing API metadata for URLs
  keygen     print a new IndexNow key
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	cmd, rest := args[0], args[1:]

	if cmd == "keygen" {
		key := newKey()
		fmt.Fprintln(stdout, key)
		fmt.Fprintf(stdout, "host it at https://<your-host>/%s.txt containing only the key\n", key)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 1
	}
	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(stderr, "logger:", err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "serve":
		return serve(ctx, cfg, logger)
	case "indexnow":
		return runIndexNow(ctx, cfg, logger, rest, stdout, stderr)
	case "submit":
		return runSubmit(ctx, cfg, logger, rest, stdout, stderr)
	case "status":
		return runStatus(ctx, cfg, logger, rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}
}

func runIndexNow(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("indexnow", flag.ContinueOnError)
	fs.SetOutput(stderr)
	urls := fs.String("urls", "", "comma-separated URLs (default INDEXNOW_URLS)")
	endpoints := fs.String("endpoints", "", "comma-separated endpoint hosts (default INDEXNOW_ENDPOINTS)")
	verbose := fs.Bool("v", false, "show the full key")
	asJSON := fs.Bool("json", false, "print reports as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := cfg.RequireIndexNow(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	list := append(splitList(*urls), fs.Args()...)
	req := cfg.NotificationRequest(list)
	eps := cfg.EndpointList()
	if *endpoints != "" {
		eps = domain.EndpointsFromHosts(splitList(*endpoints))
	}

	n, _, err := buildNotifier(cfg, logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	shown := cfg.Key
	if !*verbose {
		shown = maskKey(cfg.Key)
	}
	fmt.Fprintf(stdout, "host %s, key %s, %d url(s), %d endpoint(s)\n", req.AuthorityHost, shown, len(domain.DedupeURLs(req.URLs)), len(eps))

	reports, err := n.SubmitAll(ctx, req, eps)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	for _, r := range reports {
		if *asJSON {
			err = writeJSON(stdout, r)
		} else {
			err = report.WriteSubmission(stdout, r)
		}
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}
	if allFailed(reports) {
		return 1
	}
	return 0
}

func runSubmit(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	typ := fs.String("type", "updated", "updated or deleted")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	changeType, err := domain.ParseChangeType(*typ)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if err := cfg.RequireIndexing(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	urls := fs.Args()
	if len(urls) == 0 {
		urls = cfg.IndexingURLs
	}

	n, _, err := buildNotifier(cfg, logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	results, err := n.SubmitURLUpdates(ctx, urls, changeType)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if err := report.WriteURLResults(stdout, results); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	for _, r := range results {
		if r.Err == nil {
			return 0
		}
	}
	return 1
}

func runStatus(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := cfg.RequireIndexing(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	urls := fs.Args()
	if len(urls) == 0 {
		urls = cfg.IndexingURLs
	}

	n, _, err := buildNotifier(cfg, logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	results, err := n.GetURLStatuses(ctx, urls)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if err := report.WriteStatuses(stdout, results); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

// allFailed reports whether no endpoint accepted any chunk.
func allFailed(reports []*domain.SubmissionReport) bool {
	for _, r := range reports {
		if r.SuccessCount() > 0 {
			return false
		}
	}
	return true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + strings.Repeat("*", len(key)-4)
}
