package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{name: "default timeout", timeout: 0, want: 5 * time.Second},
		{name: "custom timeout", timeout: 10 * time.Second, want: 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(tt.timeout)
			if checker.checkTimeout != tt.want {
				t.Errorf("checkTimeout = %v, want %v", checker.checkTimeout, tt.want)
			}
			if len(checker.Checks()) != 0 {
				t.Errorf("Checks() = %v, want none", checker.Checks())
			}
		})
	}
}

func TestRegisterCheckReplaces(t *testing.T) {
	checker := New(time.Second)
	checker.RegisterCheck("store", func(ctx context.Context) error { return errors.New("down") })
	checker.RegisterCheck("store", func(ctx context.Context) error { return nil })
	checker.RegisterCheck("last_run", func(ctx context.Context) error { return nil })

	names := checker.Checks()
	if len(names) != 2 || names[0] != "last_run" || names[1] != "store" {
		t.Fatalf("Checks() = %v, want [last_run store]", names)
	}

	status := checker.CheckReadiness(context.Background())
	if status.Status != StatusReady {
		t.Errorf("Status = %q, want %q", status.Status, StatusReady)
	}
}

func TestCheckReadiness(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]CheckFunc
		want   string
	}{
		{
			name:   "no checks",
			checks: nil,
			want:   StatusReady,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"store":    func(ctx context.Context) error { return nil },
				"last_run": func(ctx context.Context) error { return nil },
			},
			want: StatusReady,
		},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"store":    func(ctx context.Context) error { return nil },
				"last_run": func(ctx context.Context) error { return errors.New("1 client failed") },
			},
			want: StatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second)
			for name, fn := range tt.checks {
				checker.RegisterCheck(name, fn)
			}
			status := checker.CheckReadiness(context.Background())
			if status.Status != tt.want {
				t.Errorf("Status = %q, want %q", status.Status, tt.want)
			}
			if len(status.Checks) != len(tt.checks) {
				t.Errorf("len(Checks) = %d, want %d", len(status.Checks), len(tt.checks))
			}
		})
	}
}

func TestCheckTimeout(t *testing.T) {
	checker := New(20 * time.Millisecond)
	checker.RegisterCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	})

	status := checker.CheckReadiness(context.Background())
	result := status.Checks["slow"]
	if result.Status != StatusUnhealthy {
		t.Errorf("slow check status = %q, want %q", result.Status, StatusUnhealthy)
	}
	if result.Message != "health check timeout" {
		t.Errorf("slow check message = %q, want timeout", result.Message)
	}
}

func TestEndpoints(t *testing.T) {
	checker := New(time.Second)
	failing := true
	checker.RegisterCheck("last_run", func(ctx context.Context) error {
		if failing {
			return errors.New("no successful run yet")
		}
		return nil
	})

	mux := http.NewServeMux()
	Register(mux, checker, "1.2.0", "abc123", "2026-01-01")

	tests := []struct {
		name     string
		method   string
		path     string
		healthy  bool
		wantCode int
	}{
		{name: "liveness", method: http.MethodGet, path: LivenessPath, wantCode: http.StatusOK},
		{name: "readiness degraded", method: http.MethodGet, path: ReadinessPath, wantCode: http.StatusServiceUnavailable},
		{name: "readiness ready", method: http.MethodGet, path: ReadinessPath, healthy: true, wantCode: http.StatusOK},
		{name: "version", method: http.MethodGet, path: VersionPath, wantCode: http.StatusOK},
		{name: "head liveness", method: http.MethodHead, path: LivenessPath, wantCode: http.StatusOK},
		{name: "post rejected", method: http.MethodPost, path: LivenessPath, wantCode: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failing = !tt.healthy
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.method == http.MethodHead && rec.Body.Len() != 0 {
				t.Errorf("HEAD body = %q, want empty", rec.Body.String())
			}
		})
	}
}

func TestReadinessBody(t *testing.T) {
	checker := New(time.Second)
	checker.RegisterCheck("store", func(ctx context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	checker.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, ReadinessPath, nil))

	var body HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != StatusDegraded {
		t.Errorf("Status = %q, want %q", body.Status, StatusDegraded)
	}
	if got := body.Checks["store"].Message; got != "connection refused" {
		t.Errorf("store message = %q, want %q", got, "connection refused")
	}
}

func TestVersionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler("1.2.0", "abc123", "2026-01-01")(rec, httptest.NewRequest(http.MethodGet, VersionPath, nil))

	var info VersionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Version != "1.2.0" || info.Commit != "abc123" {
		t.Errorf("info = %+v, want version 1.2.0 commit abc123", info)
	}
	if info.GoVersion == "" {
		t.Error("GoVersion is empty")
	}
}
