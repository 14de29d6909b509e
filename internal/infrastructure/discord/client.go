package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync"

	"github.com/qj0r9j0vc2/modmail/internal/domain/entity"
	domainerrors "github.com/qj0r9j0vc2/modmail/internal/domain/errors"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/resilience"
)

const (
	// DefaultBaseURL is the versioned REST API root.
	DefaultBaseURL = "https://discord.com/api/v10"

	userAgent      = "DiscordBot (https://github.com/qj0r9j0vc2/modmail, 1.0)"
	auditLogHeader = "X-Audit-Log-Reason"
	globalBucket   = "global"
	maxErrorBody   = 4 << 10
)

// RequestRecorder receives per-call metrics. *observability.Metrics implements it.
type RequestRecorder interface {
	RecordDiscordRequest(ctx context.Context, route string, statusCode int, duration time.Duration)
	RecordDiscordRateLimited(ctx context.Context, route string)
}

type noopRecorder struct{}

func (noopRecorder) RecordDiscordRequest(context.Context, string, int, time.Duration) {}
func (noopRecorder) RecordDiscordRateLimited(context.Context, string)                 {}

// APIError is a non-2xx answer from the REST API.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("discord api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("discord api: status %d: %s (code %d)", e.StatusCode, e.Message, e.Code)
}

// Client is a minimal Discord REST client covering messages and threads.
// It never retries. A 429 marks the route bucket as limited until its reset
// time and later calls to that bucket fail fast with ErrRateLimited.
type Client struct {
	baseURL    string
	botToken   string
	httpClient *http.Client
	metrics    RequestRecorder
	now        func() time.Time

	// bucket key -> time the limit resets
	rateLimits *xsync.MapOf[string, time.Time]

	breaker *resilience.CircuitBreaker
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root (used by tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTimeout bounds every outbound call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics records per-call metrics.
func WithMetrics(rec RequestRecorder) Option {
	return func(c *Client) {
		if rec != nil {
			c.metrics = rec
		}
	}
}

// WithCircuitBreaker fails calls fast after maxFailures consecutive transient
// failures (server errors, network errors) until openTimeout has passed.
// Rate limits and 4xx answers do not count.
func WithCircuitBreaker(maxFailures int, openTimeout time.Duration) Option {
	return func(c *Client) {
		if maxFailures <= 0 {
			return
		}
		c.breaker = resilience.NewCircuitBreaker("discord", maxFailures, openTimeout,
			resilience.WithFailureFilter(tripsBreaker),
		)
	}
}

func tripsBreaker(err error) bool {
	return domainerrors.IsTransientError(err) && !errors.Is(err, domainerrors.ErrRateLimited)
}

// NewClient creates a new Discord REST client authenticating as a bot.
func NewClient(botToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		botToken:   botToken,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		metrics:    noopRecorder{},
		now:        time.Now,
		rateLimits: xsync.NewMapOf[time.Time](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateMessage posts a message to a channel or thread and returns its ID.
func (c *Client) CreateMessage(ctx context.Context, channelID string, msg entity.OutboundMessage) (string, error) {
	var out messageResponse
	err := c.do(ctx, request{
		method:  http.MethodPost,
		route:   "/channels/{channel.id}/messages",
		majorID: channelID,
		path:    fmt.Sprintf("/channels/%s/messages", url.PathEscape(channelID)),
		body:    NewMessagePayload(msg),
		out:     &out,
	})
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

// EditMessage replaces the content and components of an existing message.
func (c *Client) EditMessage(ctx context.Context, channelID, messageID string, msg entity.OutboundMessage) error {
	return c.do(ctx, request{
		method:  http.MethodPatch,
		route:   "/channels/{channel.id}/messages/{message.id}",
		majorID: channelID,
		path:    fmt.Sprintf("/channels/%s/messages/%s", url.PathEscape(channelID), url.PathEscape(messageID)),
		body:    NewMessagePayload(msg),
	})
}

// CreatePrivateThread starts a private, non-invitable thread under parentID.
func (c *Client) CreatePrivateThread(ctx context.Context, parentID, name string) (entity.Thread, error) {
	var out channelResponse
	err := c.do(ctx, request{
		method:  http.MethodPost,
		route:   "/channels/{channel.id}/threads",
		majorID: parentID,
		path:    fmt.Sprintf("/channels/%s/threads", url.PathEscape(parentID)),
		body: startThreadRequest{
			Name:      name,
			Type:      channelTypePrivateThread,
			Invitable: false,
		},
		out: &out,
	})
	if err != nil {
		return entity.Thread{}, err
	}

	thread := entity.Thread{ID: out.ID, Name: out.Name, ParentID: out.ParentID}
	if thread.Name == "" {
		thread.Name = name
	}
	if thread.ParentID == "" {
		thread.ParentID = parentID
	}
	return thread, nil
}

// ModifyThread writes the archived and locked flags of a thread.
// reason is recorded in the guild audit log.
func (c *Client) ModifyThread(ctx context.Context, threadID string, state entity.ThreadState, reason string) error {
	var headers map[string]string
	if reason != "" {
		headers = map[string]string{auditLogHeader: url.PathEscape(reason)}
	}

	return c.do(ctx, request{
		method:  http.MethodPatch,
		route:   "/channels/{channel.id}",
		majorID: threadID,
		path:    fmt.Sprintf("/channels/%s", url.PathEscape(threadID)),
		body:    modifyThreadRequest{Archived: state.Archived, Locked: state.Locked},
		headers: headers,
	})
}

type request struct {
	method  string
	route   string // template used for metrics and bucket keys
	majorID string
	path    string
	body    any
	headers map[string]string
	out     any
}

func (r request) operation() string {
	return r.method + " " + r.route
}

func (r request) bucket() string {
	return r.operation() + ":" + r.majorID
}

func (c *Client) do(ctx context.Context, r request) error {
	if c.breaker == nil {
		return c.send(ctx, r)
	}

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.send(ctx, r)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return domainerrors.NewTransientError(r.operation(), err)
	}
	return err
}

func (c *Client) send(ctx context.Context, r request) error {
	op := r.operation()

	if err := c.checkLimited(ctx, r); err != nil {
		return err
	}

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return domainerrors.NewPermanentError(op+": encoding body", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return domainerrors.NewPermanentError(op+": building request", err)
	}
	req.Header.Set("Authorization", "Bot "+c.botToken)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordDiscordRequest(ctx, op, 0, time.Since(start))
		return categorizeError(err, op)
	}
	defer resp.Body.Close()
	c.metrics.RecordDiscordRequest(ctx, op, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusTooManyRequests {
		return c.recordRateLimit(resp, r)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return categorizeStatus(resp, op)
	}

	if r.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(r.out); err != nil {
		return domainerrors.NewPermanentError(op+": decoding response", err)
	}
	return nil
}

// checkLimited fails fast while the route bucket or the global bucket is limited.
func (c *Client) checkLimited(ctx context.Context, r request) error {
	now := c.now()
	for _, key := range []string{globalBucket, r.bucket()} {
		resetAt, ok := c.rateLimits.Load(key)
		if !ok {
			continue
		}
		if resetAt.After(now) {
			c.metrics.RecordDiscordRateLimited(ctx, r.operation())
			return domainerrors.NewTransientError(
				fmt.Sprintf("%s: limited until %s", r.operation(), resetAt.UTC().Format(time.RFC3339)),
				domainerrors.ErrRateLimited,
			)
		}
		// The limit has reset.
		c.rateLimits.Delete(key)
	}
	return nil
}

func (c *Client) recordRateLimit(resp *http.Response, r request) error {
	var apiErr apiErrorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&apiErr)

	wait := parseSeconds(resp.Header.Get("X-RateLimit-Reset-After"))
	if wait == 0 {
		wait = parseSeconds(resp.Header.Get("Retry-After"))
	}
	if wait == 0 && apiErr.RetryAfter > 0 {
		wait = time.Duration(apiErr.RetryAfter * float64(time.Second))
	}
	if wait == 0 {
		wait = time.Second
	}

	key := r.bucket()
	if strings.EqualFold(resp.Header.Get("X-RateLimit-Global"), "true") {
		key = globalBucket
	}
	c.rateLimits.Store(key, c.now().Add(wait))

	return domainerrors.NewTransientError(
		fmt.Sprintf("%s: rate limited for %s", r.operation(), wait),
		domainerrors.ErrRateLimited,
	)
}

func parseSeconds(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

// categorizeStatus classifies an error response: 5xx is transient, everything
// else (bad request, missing permission, unknown channel) is permanent.
func categorizeStatus(resp *http.Response, operation string) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var parsed apiErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&parsed); err == nil {
		apiErr.Code = parsed.Code
		apiErr.Message = parsed.Message
	}

	if resp.StatusCode >= 500 {
		return domainerrors.NewTransientError(operation+": discord server error", apiErr)
	}
	return domainerrors.NewPermanentError(operation, apiErr)
}

// categorizeError classifies transport failures.
func categorizeError(err error, operation string) error {
	if err == nil {
		return nil
	}

	// Check for context errors (transient)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domainerrors.NewTransientError(operation+": context error", err)
	}

	// Check for network errors (transient)
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domainerrors.NewTransientError(operation+": network error", err)
	}

	return domainerrors.NewPermanentError(operation, err)
}
