// Package pipeline wraps outbound provider HTTP calls with request
// deduplication, response caching, per-provider rate limiting, bounded retry
// on transient failures, and per-attempt timeouts. Both model backends route
// every request through one Pipeline instance per provider.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
)

// Tuned retry defaults. Overridable through Policy.
const (
	DefaultMaxAttempts    = 3
	DefaultAttemptTimeout = 90 * time.Second
	DefaultBackoffStep    = 400 * time.Millisecond
	DefaultCacheTTL       = 5 * time.Minute
)

// Policy controls retry, timeout, and caching for calls issued through a
// Pipeline.
type Policy struct {
	// MaxAttempts bounds how many times one logical request is sent.
	MaxAttempts int
	// AttemptTimeout is the fixed deadline each individual attempt races
	// against. Timing out counts as a retryable failure.
	AttemptTimeout time.Duration
	// BackoffStep scales the wait between attempts: attempt × BackoffStep.
	BackoffStep time.Duration
	// CacheTTL is how long successful responses stay cached. Zero disables
	// caching even when a cache is attached.
	CacheTTL time.Duration
}

// DefaultPolicy returns the tuned production policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    DefaultMaxAttempts,
		AttemptTimeout: DefaultAttemptTimeout,
		BackoffStep:    DefaultBackoffStep,
		CacheTTL:       DefaultCacheTTL,
	}
}

// Request is one outbound provider call. Body is owned by the pipeline once
// submitted and is never mutated.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the outcome of a provider call. Non-2xx statuses are returned
// as responses, not errors; callers interpret the status and body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Clone returns an independent deep copy, so no caller can mutate another
// caller's view of a coalesced or cached response.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	c := &Response{
		StatusCode: r.StatusCode,
		Header:     r.Header.Clone(),
		Body:       make([]byte, len(r.Body)),
	}
	copy(c.Body, r.Body)
	return c
}

func (r *Response) approxSize() int {
	size := len(r.Body)
	for k, vs := range r.Header {
		size += len(k)
		for _, v := range vs {
			size += len(v)
		}
	}
	return size
}

// Pipeline issues HTTP requests for a single provider instance. All fields
// are fixed at construction; the zero value is not usable.
type Pipeline struct {
	provider string
	policy   Policy
	limiter  *Limiter
	cache    *Cache
	secrets  []string
	base     http.RoundTripper
	flight   singleflight.Group
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPolicy replaces the default retry/timeout/cache policy.
func WithPolicy(p Policy) Option {
	return func(pl *Pipeline) { pl.policy = p }
}

// WithLimiter attaches a rate limiter. Nil disables rate limiting.
func WithLimiter(l *Limiter) Option {
	return func(pl *Pipeline) { pl.limiter = l }
}

// WithCache attaches a response cache. Nil disables caching.
func WithCache(c *Cache) Option {
	return func(pl *Pipeline) { pl.cache = c }
}

// WithTransport replaces the underlying HTTP transport. Used by tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(pl *Pipeline) { pl.base = rt }
}

// WithSecretHeaders adds header names (case-insensitive) whose values are
// redacted inside cache/dedupe keys, on top of the built-in set.
func WithSecretHeaders(names ...string) Option {
	return func(pl *Pipeline) { pl.secrets = append(pl.secrets, names...) }
}

// New creates a Pipeline for one provider instance.
func New(provider string, opts ...Option) *Pipeline {
	p := &Pipeline{
		provider: provider,
		policy:   DefaultPolicy(),
		secrets:  defaultSecretHeaders(),
		base:     http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.policy.MaxAttempts < 1 {
		p.policy.MaxAttempts = 1
	}
	return p
}

// Provider reports the provider tag this pipeline serves.
func (p *Pipeline) Provider() string {
	return p.provider
}

// HTTPClient returns an *http.Client whose transport routes through the
// pipeline, adding extraHeader to every request. This is how SDK-based
// backends (created with their own client plumbing) pick up deduplication,
// caching, rate limiting, and retries.
func (p *Pipeline) HTTPClient(extraHeader map[string]string) *http.Client {
	return &http.Client{Transport: &Transport{Pipeline: p, SetHeaders: extraHeader}}
}

// Do issues one logical request. Identical in-flight requests are coalesced
// into a single call; each caller receives an independent copy of the
// response. Successful responses are cached per policy.
func (p *Pipeline) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := p.requestKey(req)

	if p.cache != nil && p.policy.CacheTTL > 0 {
		if resp, ok := p.cache.Get(key); ok {
			slog.Debug("response cache hit", "provider", p.provider, "url", req.URL)
			return resp, nil
		}
	}

	// The executed call is shared by every coalesced caller, so it must not
	// die with whichever caller happened to start it. Each caller still
	// unblocks on its own cancellation below; the call itself stays bounded
	// by the per-attempt timeout.
	callCtx := context.WithoutCancel(ctx)
	ch := p.flight.DoChan(key, func() (any, error) {
		return p.execute(callCtx, req, key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Response).Clone(), nil
	}
}

func (p *Pipeline) execute(ctx context.Context, req *Request, key string) (*Response, error) {
	var lastErr error

	for attempt := 1; attempt <= p.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			wait := time.Duration(attempt-1) * p.policy.BackoffStep
			slog.Debug("retrying provider call",
				"provider", p.provider, "attempt", attempt, "wait", wait)
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
		}

		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := p.attempt(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if retryableStatus(resp.StatusCode) && attempt < p.policy.MaxAttempts {
			slog.Debug("retryable status from provider",
				"provider", p.provider, "status", resp.StatusCode, "attempt", attempt)
			lastErr = fmt.Errorf("%s returned status %d", p.provider, resp.StatusCode)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 &&
			p.cache != nil && p.policy.CacheTTL > 0 {
			p.cache.Set(key, resp, p.policy.CacheTTL)
		}
		return resp, nil
	}

	return nil, fmt.Errorf("%s request failed after %d attempts: %w",
		p.provider, p.policy.MaxAttempts, lastErr)
}

// attempt sends the request once, bounded by the per-attempt timeout.
func (p *Pipeline) attempt(ctx context.Context, req *Request) (*Response, error) {
	actx := ctx
	if p.policy.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, p.policy.AttemptTimeout)
		defer cancel()
	}

	hreq, err := http.NewRequestWithContext(actx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}

	hresp, err := p.base.RoundTrip(hreq)
	if err != nil {
		return nil, err
	}
	defer hresp.Body.Close()

	body, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: hresp.StatusCode,
		Header:     hresp.Header.Clone(),
		Body:       body,
	}, nil
}

// retryableStatus reports whether an HTTP status is worth another attempt:
// rate limiting and server-side failures only. Other 4xx statuses are final.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
