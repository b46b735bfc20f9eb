package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockChecker struct {
	err    error
	called bool
}

func (m *mockChecker) HealthCheck(_ context.Context) error {
	m.called = true
	return m.err
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockChecker{}, &mockChecker{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks[ComponentDatabase] != CheckOK {
		t.Errorf("expected database %q, got %q", CheckOK, r.Checks[ComponentDatabase])
	}
	if r.Checks[ComponentEmbedding] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks[ComponentEmbedding])
	}
}

func TestCheck_DBError(t *testing.T) {
	svc := New(&mockChecker{err: errors.New("conn refused")}, &mockChecker{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentDatabase] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks[ComponentDatabase])
	}
	if r.Checks[ComponentEmbedding] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks[ComponentEmbedding])
	}
}

func TestCheck_EmbeddingError(t *testing.T) {
	svc := New(&mockChecker{}, &mockChecker{err: errors.New("timeout")}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentEmbedding] != CheckError {
		t.Errorf("expected embedding %q, got %q", CheckError, r.Checks[ComponentEmbedding])
	}
}

func TestCheck_NilCheckersSkipped(t *testing.T) {
	svc := New(nil, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 0 {
		t.Errorf("expected no checks, got %v", r.Checks)
	}
}

func TestCheck_TimeoutApplied(t *testing.T) {
	slow := CheckerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	svc := New(slow, nil, nil).WithTimeout(10 * time.Millisecond)

	r := svc.Check(context.Background())
	if r.Checks[ComponentDatabase] != CheckError {
		t.Errorf("expected timed-out check to fail, got %q", r.Checks[ComponentDatabase])
	}
}

func TestCheckerFunc(t *testing.T) {
	want := errors.New("x")
	if err := CheckerFunc(func(context.Context) error { return want }).HealthCheck(context.Background()); err != want {
		t.Errorf("CheckerFunc returned %v", err)
	}
}
