package health

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type mockChecker struct {
	name   string
	result CheckResult
	delay  time.Duration
}

func (m *mockChecker) Check(ctx context.Context) CheckResult {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return m.result
}

func (m *mockChecker) Name() string {
	return m.name
}

func fixed(name string, status Status, errText string) *mockChecker {
	return &mockChecker{name: name, result: CheckResult{Name: name, Status: status, Error: errText}}
}

type mockHealthCheckable struct {
	err error
}

func (m *mockHealthCheckable) HealthCheck(context.Context) error {
	return m.err
}

type slowCheckable struct {
	delay time.Duration
}

func (s *slowCheckable) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.delay):
		return nil
	}
}

func TestAdapterChecker(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		checker := NewAdapterChecker("sqlite", &mockHealthCheckable{}, 0)
		if checker.Name() != "sqlite" || checker.timeout != defaultCheckTimeout {
			t.Fatalf("unexpected checker %+v", checker)
		}
		result := checker.Check(context.Background())
		if result.Status != StatusHealthy || result.Message != "OK" || result.Error != "" {
			t.Errorf("unexpected result %+v", result)
		}
		if result.Timestamp.IsZero() {
			t.Error("expected timestamp")
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		result := NewAdapterChecker("sqlite", &mockHealthCheckable{err: errors.New("connection refused")}, time.Second).Check(context.Background())
		if result.Status != StatusUnhealthy || result.Error != "connection refused" || result.Message != "" {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("slow store times out", func(t *testing.T) {
		checker := NewAdapterChecker("slow", &slowCheckable{delay: 200 * time.Millisecond}, 50*time.Millisecond)
		start := time.Now()
		result := checker.Check(context.Background())
		if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
			t.Errorf("check took %v, expected the 50ms timeout to apply", elapsed)
		}
		if result.Status != StatusUnhealthy || !strings.Contains(result.Error, "deadline") {
			t.Errorf("unexpected result %+v", result)
		}
	})
}

func TestCompositeChecker(t *testing.T) {
	tests := []struct {
		name       string
		checkers   []Checker
		wantStatus Status
		wantError  string
	}{
		{name: "empty", wantStatus: StatusHealthy},
		{
			name:       "all healthy",
			checkers:   []Checker{fixed("a", StatusHealthy, ""), fixed("b", StatusHealthy, "")},
			wantStatus: StatusHealthy,
		},
		{
			name:       "degraded",
			checkers:   []Checker{fixed("a", StatusHealthy, ""), fixed("b", StatusDegraded, "")},
			wantStatus: StatusDegraded,
		},
		{
			name:       "unhealthy outranks degraded",
			checkers:   []Checker{fixed("a", StatusDegraded, ""), fixed("b", StatusUnhealthy, "refused")},
			wantStatus: StatusUnhealthy,
			wantError:  "b: refused",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			composite := NewCompositeChecker("database", tt.checkers...)
			result := composite.Check(context.Background())
			if result.Name != "database" || composite.Name() != "database" {
				t.Errorf("unexpected name %q", result.Name)
			}
			if result.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", result.Status, tt.wantStatus)
			}
			if result.Error != tt.wantError {
				t.Errorf("error = %q, want %q", result.Error, tt.wantError)
			}
		})
	}
}

func TestCompositeChecker_DegradedMessage(t *testing.T) {
	degraded := &mockChecker{name: "schema", result: CheckResult{Name: "schema", Status: StatusDegraded, Message: "1 pending migration(s)"}}
	result := NewCompositeChecker("database", fixed("connection", StatusHealthy, ""), degraded).Check(context.Background())
	if result.Message != "schema: 1 pending migration(s)" {
		t.Errorf("message = %q", result.Message)
	}
}

func TestCustomChecker(t *testing.T) {
	tests := []struct {
		name    string
		status  Status
		message string
		err     error
	}{
		{name: "healthy", status: StatusHealthy, message: "all good"},
		{name: "degraded", status: StatusDegraded, message: "partially available"},
		{name: "unhealthy", status: StatusUnhealthy, message: "something wrong", err: errors.New("connection failed")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewCustomChecker("custom", func(context.Context) (Status, string, error) {
				return tt.status, tt.message, tt.err
			})
			result := checker.Check(context.Background())
			if result.Status != tt.status || result.Message != tt.message {
				t.Errorf("unexpected result %+v", result)
			}
			if (tt.err != nil) != (result.Error != "") {
				t.Errorf("error = %q, want %v", result.Error, tt.err)
			}
		})
	}
}
