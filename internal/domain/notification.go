package domain

import (
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxURLsPerRequest is the IndexNow limit for a single POST.
	MaxURLsPerRequest = 10000

	DefaultEndpointPath = "/indexnow"
)

// DefaultEndpointHosts are the public IndexNow receivers.
var DefaultEndpointHosts = []string{
	"api.indexnow.org",
	"www.bing.com",
	"yandex.com",
}

var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9-]{8,128}$`)

// Endpoint is one IndexNow receiver. Identifier is a hostname, optionally
// with a port.
type Endpoint struct {
	Identifier string `json:"identifier"`
	Path       string `json:"path"`
	Method     string `json:"method"`
}

func NewEndpoint(host string) Endpoint {
	return Endpoint{
		Identifier: strings.TrimSpace(host),
		Path:       DefaultEndpointPath,
		Method:     http.MethodPost,
	}
}

// EndpointsFromHosts builds endpoints in the order the hosts were given.
func EndpointsFromHosts(hosts []string) []Endpoint {
	endpoints := make([]Endpoint, 0, len(hosts))
	for _, h := range hosts {
		if strings.TrimSpace(h) == "" {
			continue
		}
		endpoints = append(endpoints, NewEndpoint(h))
	}
	return endpoints
}

// NotificationRequest is the input of one IndexNow submission. Callers own it;
// the notifier works on a normalized copy.
type NotificationRequest struct {
	URLs           []string
	AuthorityHost  string
	SharedKey      string
	KeyLocationURL string
}

// Normalized returns a copy with trimmed fields and duplicate URLs removed,
// keeping first-seen order.
func (r NotificationRequest) Normalized() NotificationRequest {
	out := NotificationRequest{
		AuthorityHost:  strings.TrimSpace(r.AuthorityHost),
		SharedKey:      strings.TrimSpace(r.SharedKey),
		KeyLocationURL: strings.TrimSpace(r.KeyLocationURL),
		URLs:           DedupeURLs(r.URLs),
	}
	return out
}

// Validate checks the request for IndexNow, which enforces host matching.
func (r NotificationRequest) Validate() error {
	if len(r.URLs) == 0 {
		return invalid("urls", ErrEmptyURLList)
	}
	if len(r.URLs) > MaxURLsPerRequest {
		return invalid("urls", ErrTooManyURLs)
	}
	if r.SharedKey == "" {
		return invalid("key", ErrEmptyKey)
	}
	if !keyPattern.MatchString(r.SharedKey) {
		return invalid("key", ErrInvalidKey)
	}
	if r.AuthorityHost == "" {
		return invalid("host", ErrEmptyHost)
	}
	if !isBareHost(r.AuthorityHost) {
		return invalid("host", ErrInvalidHost)
	}
	authority := hostOnly(r.AuthorityHost)

	for _, raw := range r.URLs {
		u, err := parseAbsolute(raw)
		if err != nil {
			return invalid(raw, ErrInvalidURL)
		}
		if !strings.EqualFold(u.Hostname(), authority) {
			return invalid(raw, ErrHostMismatch)
		}
	}

	if r.KeyLocationURL != "" {
		u, err := parseAbsolute(r.KeyLocationURL)
		if err != nil || !strings.EqualFold(u.Hostname(), authority) {
			return invalid("keyLocation", ErrInvalidKeyLocation)
		}
	}
	return nil
}

// Chunks splits the request into requests of at most size URLs each.
func (r NotificationRequest) Chunks(size int) []NotificationRequest {
	if size <= 0 {
		size = MaxURLsPerRequest
	}
	if len(r.URLs) <= size {
		return []NotificationRequest{r}
	}
	var out []NotificationRequest
	for i := 0; i < len(r.URLs); i += size {
		end := min(i+size, len(r.URLs))
		c := r
		c.URLs = r.URLs[i:end]
		out = append(out, c)
	}
	return out
}

// ValidateEndpoints fails fast on an empty or malformed endpoint list.
func ValidateEndpoints(endpoints []Endpoint) error {
	if len(endpoints) == 0 {
		return invalid("endpoints", ErrNoEndpoints)
	}
	for i, ep := range endpoints {
		if !isBareHost(ep.Identifier) || (ep.Path != "" && !strings.HasPrefix(ep.Path, "/")) {
			return invalid("endpoints["+strconv.Itoa(i)+"]", ErrInvalidEndpoint)
		}
	}
	return nil
}

// isBareHost accepts "host" or "host:port" and nothing else: no scheme,
// userinfo, path, query or whitespace.
func isBareHost(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n/\\?#@") {
		return false
	}
	u, err := url.Parse("//" + s)
	if err != nil || u.User != nil || u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		return false
	}
	return u.Hostname() != ""
}

// DefaultKeyLocation follows the IndexNow convention of hosting the key at
// the site root as <key>.txt.
func DefaultKeyLocation(host, key string) string {
	if host == "" || key == "" {
		return ""
	}
	return "https://" + host + "/" + key + ".txt"
}

// IsSuccessStatus reports whether an IndexNow response status counts as accepted.
func IsSuccessStatus(code int) bool {
	return code == http.StatusOK || code == http.StatusAccepted
}

// SubmissionOutcome is the result of one endpoint attempt. It is never
// mutated after creation.
type SubmissionOutcome struct {
	Endpoint     Endpoint      `json:"endpoint"`
	Succeeded    bool          `json:"succeeded"`
	StatusCode   *int          `json:"status_code,omitempty"`
	ResponseBody *string       `json:"response_body,omitempty"`
	ErrorMessage *string       `json:"error_message,omitempty"`
	Attempts     int           `json:"attempts"`
	Latency      time.Duration `json:"latency_ns"`
}

// SubmissionReport lists outcomes in the order endpoints were supplied.
// Counts are derived, never stored.
type SubmissionReport struct {
	ID         string              `json:"id"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Outcomes   []SubmissionOutcome `json:"outcomes"`
}

func (r SubmissionReport) SuccessCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Succeeded {
			n++
		}
	}
	return n
}

func (r SubmissionReport) FailureCount() int {
	return len(r.Outcomes) - r.SuccessCount()
}

func (r SubmissionReport) MarshalJSON() ([]byte, error) {
	type plain SubmissionReport
	return json.Marshal(struct {
		plain
		SuccessCount int `json:"success_count"`
		FailureCount int `json:"failure_count"`
	}{plain(r), r.SuccessCount(), r.FailureCount()})
}

// DedupeURLs trims and removes empty and repeated entries, preserving order.
func DedupeURLs(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

func parseAbsolute(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}
	return u, nil
}

func hostOnly(host string) string {
	if u, err := url.Parse("//" + host); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return host
}
