package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchagent/internal/domain"
	"github.com/kailas-cloud/searchagent/internal/domain/run"
	"github.com/kailas-cloud/searchagent/internal/schedule"
	healthuc "github.com/kailas-cloud/searchagent/internal/usecase/health"
	"github.com/kailas-cloud/searchagent/internal/usecase/notify"
)

// --- Mocks ---

type mockTrigger struct {
	err     error
	cfg     notify.RunConfig
	calls   int
	running bool
	next    time.Time
}

func (m *mockTrigger) Trigger(modify func(*notify.RunConfig)) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	if modify != nil {
		modify(&m.cfg)
	}
	return nil
}

func (m *mockTrigger) Running() bool   { return m.running }
func (m *mockTrigger) Next() time.Time { return m.next }

type mockLastRun struct {
	summary run.Summary
	err     error
}

func (m *mockLastRun) Last(context.Context) (run.Summary, error) { return m.summary, m.err }

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

func newTestRouter(tr *mockTrigger, lr *mockLastRun, h *mockHealth, keys ...string) http.Handler {
	if h == nil {
		h = &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}}
	}
	return NewServer(tr, lr, h, zap.NewNop()).Router(keys)
}

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// --- Tests ---

func TestTriggerRun_Accepted(t *testing.T) {
	tr := &mockTrigger{cfg: notify.RunConfig{SendNotifications: true, Workers: 2}}
	h := newTestRouter(tr, &mockLastRun{}, nil)

	rr := do(t, h, http.MethodPost, "/runs", `{"dry_run": true, "only_user": "ann@example.com"}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if !tr.cfg.DryRun || tr.cfg.OnlyPrincipalEmail != "ann@example.com" {
		t.Errorf("override not applied: %+v", tr.cfg)
	}
	if !tr.cfg.SendNotifications || tr.cfg.Workers != 2 {
		t.Errorf("defaults lost: %+v", tr.cfg)
	}
}

func TestTriggerRun_EmptyBody(t *testing.T) {
	tr := &mockTrigger{}
	h := newTestRouter(tr, &mockLastRun{}, nil)

	if rr := do(t, h, http.MethodPost, "/runs", ""); rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if tr.calls != 1 {
		t.Errorf("calls = %d", tr.calls)
	}
}

func TestTriggerRun_BadBody(t *testing.T) {
	tr := &mockTrigger{}
	h := newTestRouter(tr, &mockLastRun{}, nil)

	rr := do(t, h, http.MethodPost, "/runs", `{"dry_run": "yes"`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if tr.calls != 0 {
		t.Error("trigger called for a bad request")
	}
}

func TestTriggerRun_Errors(t *testing.T) {
	tests := []struct {
		err  error
		want int
		code string
	}{
		{schedule.ErrRunInProgress, http.StatusConflict, codeRunInProgress},
		{schedule.ErrStopped, http.StatusServiceUnavailable, codeUnavailable},
		{errors.New("boom"), http.StatusInternalServerError, codeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			h := newTestRouter(&mockTrigger{err: tt.err}, &mockLastRun{}, nil)
			rr := do(t, h, http.MethodPost, "/runs", "")
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}
}

func TestLastRun(t *testing.T) {
	lr := &mockLastRun{summary: run.Summary{RunID: "r-7", Processed: 3, Sent: 1}}
	h := newTestRouter(&mockTrigger{}, lr, nil)

	rr := do(t, h, http.MethodGet, "/runs/last", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var got run.Summary
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RunID != "r-7" || got.Processed != 3 || got.Sent != 1 {
		t.Errorf("unexpected summary: %+v", got)
	}
}

func TestLastRun_NotFound(t *testing.T) {
	h := newTestRouter(&mockTrigger{}, &mockLastRun{err: domain.ErrNotFound}, nil)
	if rr := do(t, h, http.MethodGet, "/runs/last", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestRunStatus(t *testing.T) {
	next := time.Date(2026, 10, 18, 6, 0, 0, 0, time.UTC)
	h := newTestRouter(&mockTrigger{running: true, next: next}, &mockLastRun{}, nil)

	rr := do(t, h, http.MethodGet, "/runs/status", "")
	var got RunStatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Running || got.NextRun == nil || !got.NextRun.Equal(next) {
		t.Errorf("unexpected status: %+v", got)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			h := newTestRouter(&mockTrigger{}, &mockLastRun{},
				&mockHealth{report: healthuc.Report{Status: tt.status}}, "secret")

			rr := do(t, h, http.MethodGet, "/health", "")
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			var got HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Status != tt.status || got.Version == "" {
				t.Errorf("unexpected body: %+v", got)
			}
		})
	}
}

func TestRouter_AuthAndRequestID(t *testing.T) {
	h := newTestRouter(&mockTrigger{}, &mockLastRun{}, nil, "secret")

	if rr := do(t, h, http.MethodPost, "/runs", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated trigger: status %d", rr.Code)
	}
	rr := do(t, h, http.MethodPost, "/runs", "", "Authorization", "Bearer secret")
	if rr.Code != http.StatusAccepted {
		t.Errorf("authenticated trigger: status %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestRouter_NotFound(t *testing.T) {
	h := newTestRouter(&mockTrigger{}, &mockLastRun{}, nil)
	rr := do(t, h, http.MethodGet, "/listings", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Type"), "application/json") {
		t.Error("not found should be JSON")
	}
}

func TestRecoverJSON(t *testing.T) {
	h := recoverJSON(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
}
