package clients

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	sparkerr "github.com/gwos/sparkmon/errors"
	"github.com/gwos/sparkmon/tracing"
)

const (
	// DefaultTimeout limits a whole logical call, retries included
	DefaultTimeout = 12 * time.Second
	// DefaultMaxRetries limits connection-level retries per scheme
	DefaultMaxRetries = 100

	HdrRequestID = "X-Request-Id"

	defaultRetryWaitTime    = 5 * time.Millisecond
	defaultRetryMaxWaitTime = 50 * time.Millisecond
	maxStatusBody           = 512
)

// RetryPolicy maps URL scheme to the count of connection-level retries
type RetryPolicy map[string]int

// DefaultRetryPolicy returns separate budgets for plain and secure transports
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		"http":  DefaultMaxRetries,
		"https": DefaultMaxRetries,
	}
}

func (p RetryPolicy) max() int {
	n := 0
	for _, v := range p {
		n = max(n, v)
	}
	return n
}

// Req defines request context
type Req struct {
	Err      error
	Headers  map[string]string
	Method   string
	Params   map[string]string
	Payload  []byte
	Response []byte
	Status   int
	URL      string
	Attempts int

	duration time.Duration
}

func (q Req) logDetails(e *zerolog.Event) {
	e.Str("url", q.URL).
		Str("method", q.Method).
		Int("status", q.Status).
		Int("attempts", q.Attempts).
		Dur("duration", q.duration)
	if q.Err != nil {
		e.AnErr("error", q.Err)
	}
	if len(q.Params) > 0 {
		e.Interface("params", q.Params)
	}
	if len(q.Headers) > 0 {
		e.Interface("headers", q.Headers)
	}
	if q.Status >= 400 && len(q.Response) > 0 {
		if bytes.HasPrefix(q.Response, []byte(`{`)) {
			e.RawJSON("response", q.Response)
		} else {
			e.Str("response", excerpt(q.Response))
		}
	}
}

// Transport performs HTTP GET requests with a uniform resiliency policy:
// connection-level retries per scheme, a fixed timeout for the whole call,
// and optional TLS verification.
// Transport is safe for concurrent use.
type Transport struct {
	cl *resty.Client

	insecureSkipVerify bool
	retries            RetryPolicy
	retryWaitTime      time.Duration
	retryMaxWaitTime   time.Duration
	roundTripper       http.RoundTripper
	timeout            time.Duration
}

// TransportOption defines transport option
type TransportOption func(*Transport)

// WithInsecureSkipVerify turns off TLS certificate validation,
// internal monitoring endpoints often run with self-signed certificates
func WithInsecureSkipVerify(b bool) TransportOption {
	return func(t *Transport) { t.insecureSkipVerify = b }
}

// WithRetryPolicy overrides retry budgets per scheme
func WithRetryPolicy(p RetryPolicy) TransportOption {
	return func(t *Transport) { t.retries = p }
}

// WithRetryWait defines wait bounds between retries
func WithRetryWait(min, max time.Duration) TransportOption {
	return func(t *Transport) {
		t.retryWaitTime = min
		t.retryMaxWaitTime = max
	}
}

// WithRoundTripper replaces the underlying http transport
func WithRoundTripper(rt http.RoundTripper) TransportOption {
	return func(t *Transport) { t.roundTripper = rt }
}

// NewTransport creates transport, TLS verification is off by default
func NewTransport(opts ...TransportOption) *Transport {
	t := &Transport{
		insecureSkipVerify: true,
		retries:            DefaultRetryPolicy(),
		retryWaitTime:      defaultRetryWaitTime,
		retryMaxWaitTime:   defaultRetryMaxWaitTime,
		timeout:            DefaultTimeout,
	}
	for _, optFn := range opts {
		optFn(t)
	}

	rt := t.roundTripper
	if rt == nil {
		rt = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   t.timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: t.insecureSkipVerify, // nolint:gosec
			},
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
	}

	t.cl = resty.New().
		SetTransport(rt).
		SetLogger(restyLogger{}).
		SetAllowGetMethodPayload(true).
		SetRetryCount(t.retries.max()).
		SetRetryWaitTime(t.retryWaitTime).
		SetRetryMaxWaitTime(t.retryMaxWaitTime).
		AddRetryCondition(t.retryCondition).
		AddRetryHook(func(resp *resty.Response, _ error) {
			retriesTotal.WithLabelValues(responseScheme(resp)).Inc()
		}).
		SetPreRequestHook(func(_ *resty.Client, req *http.Request) error {
			_, _ = tracing.HookRequestContext(req.Context(), req)
			return nil
		})
	return t
}

// retryCondition retries connection-level failures only,
// HTTP statuses are never retried
func (t *Transport) retryCondition(resp *resty.Response, err error) bool {
	if err == nil || resp == nil || resp.Request == nil {
		return false
	}
	if ctx := resp.Request.Context(); ctx != nil && ctx.Err() != nil {
		return false
	}
	if sparkerr.IsErrorTimedOut(err) || !sparkerr.IsErrorConnection(err) {
		return false
	}
	return resp.Request.Attempt <= t.retries[responseScheme(resp)]
}

// Get performs GET and returns the JSON body decoded to a generic value
func (t *Transport) Get(ctx context.Context, requestURL string,
	headers map[string]string, params map[string]string) (any, error) {
	body, err := t.GetBytes(ctx, requestURL, headers, params)
	if err != nil {
		return nil, err
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", sparkerr.ErrDecode, requestURL, err)
	}
	return v, nil
}

// GetBytes performs GET and returns the raw body of a success response
func (t *Transport) GetBytes(ctx context.Context, requestURL string,
	headers map[string]string, params map[string]string) ([]byte, error) {
	req := Req{
		URL:     requestURL,
		Method:  http.MethodGet,
		Headers: headers,
		Params:  params,
	}
	if err := t.Send(ctx, &req); err != nil {
		return nil, err
	}
	return req.Response, nil
}

// Send sends request, fills the response fields of q
func (t *Transport) Send(ctx context.Context, q *Req) (err error) {
	scheme := urlScheme(q.URL)
	ctx, span := tracing.StartTraceSpan(ctx, "clients", q.Method)
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer func() {
		cancel()
		q.Err = err
		tracing.EndTraceSpan(span,
			tracing.TraceAttrStr("url", q.URL),
			tracing.TraceAttrInt("status", q.Status),
			tracing.TraceAttrInt("attempts", q.Attempts),
			tracing.TraceAttrError(err),
		)
		requestDuration.WithLabelValues(scheme).Observe(q.duration.Seconds())
		requestsTotal.WithLabelValues(scheme, outcome(err)).Inc()
		log.Debug().Func(q.logDetails).Msg("spark monitoring request")
	}()

	headers := make(map[string]string, len(q.Headers)+1)
	for k, v := range q.Headers {
		headers[k] = v
	}
	if _, ok := headers[HdrRequestID]; !ok {
		if id, err := uuid.GenerateUUID(); err == nil {
			headers[HdrRequestID] = id
		}
	}

	r := t.cl.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetQueryParams(q.Params)
	if q.Payload != nil {
		r.SetBody(q.Payload)
	}

	t0 := time.Now()
	resp, err := r.Execute(q.Method, q.URL)
	q.duration = time.Since(t0).Truncate(time.Millisecond)
	q.Attempts = r.Attempt
	if err != nil {
		q.Status = -1
		return classify(ctx, q.Method, q.URL, err)
	}

	q.Status, q.Response = resp.StatusCode(), resp.Body()
	if !resp.IsSuccess() {
		return &sparkerr.StatusError{URL: q.URL, Status: q.Status, Body: excerpt(q.Response)}
	}
	return nil
}

func classify(ctx context.Context, method, requestURL string, err error) error {
	switch {
	case errors.Is(err, context.Canceled) && ctx.Err() != context.DeadlineExceeded:
		return fmt.Errorf("%s %s: %w", method, requestURL, err)
	case ctx.Err() == context.DeadlineExceeded || sparkerr.IsErrorTimedOut(err):
		return fmt.Errorf("%w: %s %s: %w", sparkerr.ErrTimeout, method, requestURL, err)
	default:
		return fmt.Errorf("%w: %s %s: %w", sparkerr.ErrConnection, method, requestURL, err)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, sparkerr.ErrTimeout):
		return "timeout"
	case errors.Is(err, sparkerr.ErrStatus):
		return "status"
	case errors.Is(err, sparkerr.ErrConnection):
		return "connection"
	default:
		return "canceled"
	}
}

func excerpt(p []byte) string {
	if len(p) > maxStatusBody {
		return string(p[:maxStatusBody]) + "..."
	}
	return string(p)
}

func responseScheme(resp *resty.Response) string {
	if resp == nil || resp.Request == nil {
		return ""
	}
	return urlScheme(resp.Request.URL)
}

func urlScheme(s string) string {
	if u, err := url.Parse(s); err == nil {
		return u.Scheme
	}
	return ""
}

// restyLogger routes resty messages into zerolog
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...any) { log.Debug().Msgf("resty: "+format, v...) }
func (restyLogger) Warnf(format string, v ...any)  { log.Debug().Msgf("resty: "+format, v...) }
func (restyLogger) Debugf(format string, v ...any) { log.Trace().Msgf("resty: "+format, v...) }
