package clients

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sparkerr "github.com/gwos/sparkmon/errors"
)

// refuser refuses first connections then delegates to next
type refuser struct {
	mu    sync.Mutex
	calls int
	fail  int
	next  http.RoundTripper
}

func (r *refuser) RoundTrip(req *http.Request) (*http.Response, error) {
	r.mu.Lock()
	r.calls++
	n := r.calls
	r.mu.Unlock()
	if r.fail < 0 || n <= r.fail {
		return nil, &net.OpError{Op: "dial", Net: "tcp",
			Err: &os.SyscallError{Syscall: "connect", Err: syscall.ECONNREFUSED}}
	}
	return r.next.RoundTrip(req)
}

func (r *refuser) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestNewTransportDefaults(t *testing.T) {
	tr := NewTransport()
	assert.Equal(t, 12*time.Second, tr.timeout)
	assert.True(t, tr.insecureSkipVerify)
	assert.Equal(t, RetryPolicy{"http": 100, "https": 100}, tr.retries)
	assert.Equal(t, 100, tr.cl.RetryCount)
}

func TestTransportGet(t *testing.T) {
	var gotReqID, gotQuery, gotHdr string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReqID = r.Header.Get(HdrRequestID)
		gotHdr = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"id":"app-1","name":"first"},{"id":"app-2","name":"second"}]`))
	}))
	defer ts.Close()

	v, err := NewTransport().Get(context.Background(), ts.URL+"/api/v1/applications",
		map[string]string{"Authorization": "Bearer TOKEN"},
		map[string]string{"status": "running", "limit": "2"})
	require.NoError(t, err)

	items, ok := v.([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, "app-1", items[0].(map[string]any)["id"])
	assert.Equal(t, "app-2", items[1].(map[string]any)["id"])
	assert.NotEmpty(t, gotReqID)
	assert.Equal(t, "Bearer TOKEN", gotHdr)
	assert.Equal(t, "limit=2&status=running", gotQuery)
}

func TestTransportGetNumbers(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"memoryUsed":9007199254740993}`))
	}))
	defer ts.Close()

	v, err := NewTransport().Get(context.Background(), ts.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, json.Number("9007199254740993"), v.(map[string]any)["memoryUsed"])
}

func TestTransportRetriesRefusedConnections(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	rt := &refuser{fail: 99, next: http.DefaultTransport}
	tr := NewTransport(WithRoundTripper(rt), WithRetryWait(time.Millisecond, time.Millisecond))

	retriesBefore := testutil.ToFloat64(retriesTotal.WithLabelValues("http"))
	body, err := tr.GetBytes(context.Background(), ts.URL, nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, 100, rt.Calls())
	assert.Equal(t, float64(99), testutil.ToFloat64(retriesTotal.WithLabelValues("http"))-retriesBefore)
}

func TestTransportRetriesExhausted(t *testing.T) {
	rt := &refuser{fail: -1}
	tr := NewTransport(WithRoundTripper(rt),
		WithRetryPolicy(RetryPolicy{"http": 3, "https": 1}),
		WithRetryWait(time.Millisecond, time.Millisecond))

	_, err := tr.GetBytes(context.Background(), "http://spark.local:4040/api/v1/applications", nil, nil)
	assert.ErrorIs(t, err, sparkerr.ErrConnection)
	assert.True(t, sparkerr.IsErrorConnectionRefused(err))
	assert.Equal(t, 4, rt.Calls())
}

func TestTransportRetryBudgetPerScheme(t *testing.T) {
	rt := &refuser{fail: -1}
	tr := NewTransport(WithRoundTripper(rt),
		WithRetryPolicy(RetryPolicy{"http": 3, "https": 1}),
		WithRetryWait(time.Millisecond, time.Millisecond))

	_, err := tr.GetBytes(context.Background(), "https://spark.local:4040/api/v1/applications", nil, nil)
	assert.ErrorIs(t, err, sparkerr.ErrConnection)
	assert.Equal(t, 2, rt.Calls())
}

func TestTransportTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()
	defer close(release)

	tr := NewTransport()
	tr.timeout = 200 * time.Millisecond

	t0 := time.Now()
	_, err := tr.GetBytes(context.Background(), ts.URL, nil, nil)
	elapsed := time.Since(t0)

	assert.ErrorIs(t, err, sparkerr.ErrTimeout)
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestTransportStatusNotRetried(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		http.Error(w, "unknown app: app-404", http.StatusNotFound)
	}))
	defer ts.Close()

	before := testutil.ToFloat64(requestsTotal.WithLabelValues("http", "status"))
	_, err := NewTransport().GetBytes(context.Background(), ts.URL+"/api/v1/applications/app-404/jobs", nil, nil)

	assert.ErrorIs(t, err, sparkerr.ErrStatus)
	var statusErr *sparkerr.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Status)
	assert.Contains(t, statusErr.Body, "unknown app")
	assert.Equal(t, 1, calls)
	assert.Equal(t, float64(1), testutil.ToFloat64(requestsTotal.WithLabelValues("http", "status"))-before)
}

func TestTransportDecodeError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>Spark Jobs</html>`))
	}))
	defer ts.Close()

	v, err := NewTransport().Get(context.Background(), ts.URL, nil, nil)
	assert.ErrorIs(t, err, sparkerr.ErrDecode)
	assert.Nil(t, v)
}

func TestTransportTLSVerification(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	_, err := NewTransport().GetBytes(context.Background(), ts.URL, nil, nil)
	assert.NoError(t, err)

	_, err = NewTransport(WithInsecureSkipVerify(false)).GetBytes(context.Background(), ts.URL, nil, nil)
	assert.ErrorIs(t, err, sparkerr.ErrConnection)
}

func TestTransportCanceled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := NewTransport().GetBytes(ctx, ts.URL, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, sparkerr.ErrTimeout)
}
