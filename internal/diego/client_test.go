package diego

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/me/diegobridge/pkg/bbs"
)

type fakeResolver struct {
	mu    sync.Mutex
	addrs []string
	err   error
	calls int
}

func (r *fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return append([]string(nil), r.addrs...), nil
}

// fakeTransport records every request and answers through handler.
type fakeTransport struct {
	mu       sync.Mutex
	requests []*http.Request
	handler  func(attempt int, req *http.Request) (*http.Response, error)
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	attempt := len(f.requests)
	f.mu.Unlock()
	return f.handler(attempt, req)
}

func (f *fakeTransport) hosts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.URL.Host
	}
	return out
}

func reply(req *http.Request, status int, msg bbs.Message) (*http.Response, error) {
	var body []byte
	if msg != nil {
		var err error
		if body, err = bbs.Marshal(msg); err != nil {
			return nil, err
		}
	}
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewReader(body)),
		Request:    req,
	}, nil
}

func refused(req *http.Request) (*http.Response, error) {
	return nil, fmt.Errorf("dial tcp %s: connect: connection refused", req.URL.Host)
}

func newTestClient(t *testing.T, r *fakeResolver, ft *fakeTransport) *Client {
	t.Helper()
	c, err := NewClient(
		Config{URL: "https://bbs.service.cf.internal:8889"},
		WithResolver(r),
		WithHTTPClient(&http.Client{Transport: ft}),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func threeReplicas() *fakeResolver {
	return &fakeResolver{addrs: []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}}
}

func TestDesireLRP_SucceedsOnThirdReplica(t *testing.T) {
	ft := &fakeTransport{handler: func(attempt int, req *http.Request) (*http.Response, error) {
		if attempt < 3 {
			return refused(req)
		}
		return reply(req, http.StatusOK, &bbs.DesiredLRPLifecycleResponse{})
	}}
	c := newTestClient(t, threeReplicas(), ft)

	if err := c.DesireLRP(context.Background(), &bbs.DesiredLRP{ProcessGuid: "pg", Domain: "cf-apps"}); err != nil {
		t.Fatalf("DesireLRP: %v", err)
	}
	want := []string{"10.0.0.1:8889", "10.0.0.2:8889", "10.0.0.3:8889"}
	if diff := cmp.Diff(want, ft.hosts()); diff != "" {
		t.Errorf("attempted hosts (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"10.0.0.3"}, c.Addresses()); diff != "" {
		t.Errorf("remaining addresses (-want +got):\n%s", diff)
	}
}

func TestDesireLRP_AllReplicasFail(t *testing.T) {
	ft := &fakeTransport{handler: func(_ int, req *http.Request) (*http.Response, error) {
		return refused(req)
	}}
	c := newTestClient(t, threeReplicas(), ft)

	err := c.DesireLRP(context.Background(), &bbs.DesiredLRP{ProcessGuid: "pg"})
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error = %v, want *RequestError", err)
	}
	if reqErr.Attempts != MaxAttempts {
		t.Errorf("Attempts = %d, want %d", reqErr.Attempts, MaxAttempts)
	}
	if !strings.Contains(reqErr.Error(), "10.0.0.3:8889: connect: connection refused") {
		t.Errorf("message = %q, want last transport error", reqErr.Error())
	}
	if got := len(ft.hosts()); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
	if got := c.Addresses(); len(got) != 0 {
		t.Errorf("remaining addresses = %v, want none", got)
	}
}

func TestDo_ServerErrorIsNotRetried(t *testing.T) {
	ft := &fakeTransport{handler: func(_ int, req *http.Request) (*http.Response, error) {
		resp, err := reply(req, http.StatusInternalServerError, nil)
		resp.Body = io.NopCloser(strings.NewReader("boom"))
		return resp, err
	}}
	c := newTestClient(t, threeReplicas(), ft)

	err := c.UpsertDomain(context.Background(), "cf-apps", 2*time.Minute)
	var respErr *ResponseError
	if !errors.As(err, &respErr) {
		t.Fatalf("error = %v, want *ResponseError", err)
	}
	if respErr.Status != http.StatusInternalServerError || string(respErr.Body) != "boom" {
		t.Errorf("ResponseError = %d %q", respErr.Status, respErr.Body)
	}
	if got := len(ft.hosts()); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestDo_RetryBound(t *testing.T) {
	for n := 0; n <= 4; n++ {
		t.Run(fmt.Sprintf("fail_%d", n), func(t *testing.T) {
			ft := &fakeTransport{handler: func(attempt int, req *http.Request) (*http.Response, error) {
				if attempt <= n {
					return refused(req)
				}
				return reply(req, http.StatusOK, &bbs.PingResponse{Available: true})
			}}
			r := &fakeResolver{addrs: []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5"}}
			c := newTestClient(t, r, ft)

			ok, err := c.Ping(context.Background())
			wantAttempts := min(n+1, MaxAttempts)
			if got := len(ft.hosts()); got != wantAttempts {
				t.Errorf("attempts = %d, want %d", got, wantAttempts)
			}
			if n < MaxAttempts {
				if err != nil || !ok {
					t.Errorf("Ping = %v, %v; want true, nil", ok, err)
				}
				return
			}
			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Errorf("error = %v, want *RequestError", err)
			}
		})
	}
}

func TestDo_RotatesBeforeReuse(t *testing.T) {
	ft := &fakeTransport{handler: func(_ int, req *http.Request) (*http.Response, error) {
		return refused(req)
	}}
	r := &fakeResolver{addrs: []string{"10.0.0.1", "10.0.0.2"}}
	c := newTestClient(t, r, ft)

	_, err := c.TaskByGUID(context.Background(), "t1")
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error = %v, want *RequestError", err)
	}
	want := []string{"10.0.0.1:8889", "10.0.0.2:8889", "10.0.0.1:8889"}
	if diff := cmp.Diff(want, ft.hosts()); diff != "" {
		t.Errorf("attempted hosts (-want +got):\n%s", diff)
	}
	if r.calls != 2 {
		t.Errorf("resolver calls = %d, want 2 (re-resolve after the list ran dry)", r.calls)
	}
}

// A resolver answer with repeated addresses still tries each distinct
// replica before any is reused.
func TestDo_DuplicateResolvedAddresses(t *testing.T) {
	ft := &fakeTransport{handler: func(_ int, req *http.Request) (*http.Response, error) {
		return refused(req)
	}}
	r := &fakeResolver{addrs: []string{"10.0.0.1", "10.0.0.1", "10.0.0.2"}}
	c := newTestClient(t, r, ft)

	_, err := c.TaskByGUID(context.Background(), "t1")
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error = %v, want *RequestError", err)
	}
	want := []string{"10.0.0.1:8889", "10.0.0.2:8889", "10.0.0.1:8889"}
	if diff := cmp.Diff(want, ft.hosts()); diff != "" {
		t.Errorf("attempted hosts (-want +got):\n%s", diff)
	}
}

func TestUnique(t *testing.T) {
	got := unique([]string{"b", "a", "b", "c", "a"})
	if diff := cmp.Diff([]string{"b", "a", "c"}, got); diff != "" {
		t.Errorf("unique (-want +got):\n%s", diff)
	}
}

func TestDo_DNSFailure(t *testing.T) {
	ft := &fakeTransport{handler: func(_ int, req *http.Request) (*http.Response, error) {
		t.Error("no request expected")
		return refused(req)
	}}
	c := newTestClient(t, &fakeResolver{err: errors.New("no such host")}, ft)

	err := c.CancelTask(context.Background(), "t1")
	var dnsErr *DNSResolutionError
	if !errors.As(err, &dnsErr) {
		t.Fatalf("error = %v, want *DNSResolutionError", err)
	}
	if dnsErr.Host != "bbs.service.cf.internal" {
		t.Errorf("Host = %q", dnsErr.Host)
	}

	c = newTestClient(t, &fakeResolver{}, ft)
	if err := c.CancelTask(context.Background(), "t1"); !errors.As(err, &dnsErr) {
		t.Errorf("empty resolution error = %v, want *DNSResolutionError", err)
	}
}

func TestDo_EncodeErrorBeforeAnyCall(t *testing.T) {
	r := threeReplicas()
	ft := &fakeTransport{handler: func(_ int, req *http.Request) (*http.Response, error) {
		return reply(req, http.StatusOK, nil)
	}}
	c := newTestClient(t, r, ft)

	err := c.DesireTask(context.Background(), &bbs.DesireTaskRequest{TaskGuid: "bad\xff", Domain: "cf-tasks"})
	var encErr *EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("error = %v, want *EncodeError", err)
	}
	if r.calls != 0 || len(ft.hosts()) != 0 {
		t.Errorf("resolver calls = %d, requests = %d; want 0, 0", r.calls, len(ft.hosts()))
	}
}

func TestDo_DecodeError(t *testing.T) {
	ft := &fakeTransport{handler: func(_ int, req *http.Request) (*http.Response, error) {
		resp, err := reply(req, http.StatusOK, nil)
		resp.Body = io.NopCloser(bytes.NewReader([]byte{0x0a, 0x05, 'x'}))
		return resp, err
	}}
	c := newTestClient(t, threeReplicas(), ft)

	_, err := c.Tasks(context.Background(), "cf-tasks", "")
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
	if got := len(ft.hosts()); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestDo_RequestShape(t *testing.T) {
	ft := &fakeTransport{handler: func(_ int, req *http.Request) (*http.Response, error) {
		return reply(req, http.StatusOK, &bbs.DesiredLRPSchedulingInfosResponse{
			DesiredLRPSchedulingInfos: []*bbs.DesiredLRPSchedulingInfo{
				{DesiredLRPKey: &bbs.DesiredLRPKey{ProcessGuid: "pg", Domain: "cf-apps"}, Instances: 2},
			},
		})
	}}
	c := newTestClient(t, threeReplicas(), ft)

	infos, err := c.DesiredLRPSchedulingInfos(context.Background(), "cf-apps")
	if err != nil {
		t.Fatalf("DesiredLRPSchedulingInfos: %v", err)
	}
	if len(infos) != 1 || infos[0].Instances != 2 {
		t.Errorf("infos = %+v", infos)
	}

	req := ft.requests[0]
	if req.Method != http.MethodPost {
		t.Errorf("Method = %s", req.Method)
	}
	if req.URL.Path != bbs.DesiredLRPSchedulingInfosRoute {
		t.Errorf("Path = %s", req.URL.Path)
	}
	if req.Host != "bbs.service.cf.internal:8889" {
		t.Errorf("Host = %q, want logical hostname", req.Host)
	}
	if ct := req.Header.Get("Content-Type"); ct != bbs.ContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	if req.URL.Scheme != "https" {
		t.Errorf("Scheme = %q", req.URL.Scheme)
	}
}

func TestOperations_ApplicationError(t *testing.T) {
	ft := &fakeTransport{handler: func(_ int, req *http.Request) (*http.Response, error) {
		return reply(req, http.StatusOK, &bbs.DesiredLRPResponse{
			Error: &bbs.Error{Type: bbs.ErrorTypeResourceNotFound, Message: "the requested resource could not be found"},
		})
	}}
	c := newTestClient(t, threeReplicas(), ft)

	_, err := c.DesiredLRPByProcessGUID(context.Background(), "missing")
	var appErr *bbs.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("error = %v, want *bbs.Error", err)
	}
	if appErr.Type != bbs.ErrorTypeResourceNotFound {
		t.Errorf("Type = %v", appErr.Type)
	}
}

func TestOperations_NilApplicationError(t *testing.T) {
	ft := &fakeTransport{handler: func(_ int, req *http.Request) (*http.Response, error) {
		return reply(req, http.StatusOK, &bbs.ActualLRPLifecycleResponse{})
	}}
	c := newTestClient(t, threeReplicas(), ft)

	if err := c.RetireActualLRP(context.Background(), &bbs.ActualLRPKey{ProcessGuid: "pg", Index: 1}); err != nil {
		t.Errorf("RetireActualLRP = %v, want nil", err)
	}
	if err := c.RemoveDesiredLRP(context.Background(), "pg"); err != nil {
		t.Errorf("RemoveDesiredLRP = %v, want nil", err)
	}
	zero := int32(0)
	if err := c.UpdateDesiredLRP(context.Background(), "pg", &bbs.DesiredLRPUpdate{Instances: &zero}); err != nil {
		t.Errorf("UpdateDesiredLRP = %v, want nil", err)
	}
}

func TestClient_ConcurrentCalls(t *testing.T) {
	ft := &fakeTransport{handler: func(_ int, req *http.Request) (*http.Response, error) {
		if strings.HasPrefix(req.URL.Host, "10.0.0.1") {
			return refused(req)
		}
		return reply(req, http.StatusOK, &bbs.ActualLRPsResponse{})
	}}
	c := newTestClient(t, threeReplicas(), ft)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.ActualLRPsByProcessGUID(context.Background(), "pg")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("ActualLRPsByProcessGUID: %v", err)
		}
	}
	for _, a := range c.Addresses() {
		if a == "10.0.0.1" {
			t.Error("failed replica still in shared list")
		}
	}
}

func TestNewClient_InvalidURL(t *testing.T) {
	if _, err := NewClient(Config{URL: "://bad"}); err == nil {
		t.Error("expected error for unparsable url")
	}
	if _, err := NewClient(Config{URL: "/no-host"}); err == nil {
		t.Error("expected error for url without host")
	}
}

func TestNewClient_DefaultPort(t *testing.T) {
	c, err := NewClient(Config{URL: "https://bbs.internal"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.port != "443" {
		t.Errorf("port = %q, want 443", c.port)
	}
}

func TestLoadTLS_MissingFiles(t *testing.T) {
	_, err := NewClient(Config{URL: "https://bbs.internal:8889", CACertFile: "/nonexistent/ca.crt"})
	if err == nil {
		t.Error("expected error for missing CA file")
	}
}
