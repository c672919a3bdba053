package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStatusWithoutChecks(t *testing.T) {
	if r := NewService().Status(context.Background()); !r.OK || len(r.Checks) != 0 {
		t.Fatalf("unexpected report %+v", r)
	}
	var nilSvc *Service
	if r := nilSvc.Status(context.Background()); !r.OK {
		t.Fatalf("nil service must report ok")
	}
}

func TestStatusReportsFailures(t *testing.T) {
	svc := NewService()
	svc.Timeout = 50 * time.Millisecond
	svc.Add("database", func(ctx context.Context) error { return nil })
	svc.Add("ledger", func(ctx context.Context) error { return errors.New("listen failed") })
	svc.Add("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	r := svc.Status(context.Background())
	if r.OK {
		t.Fatalf("expected failure")
	}
	if r.Checks["database"] != "ok" || r.Checks["ledger"] != "listen failed" {
		t.Fatalf("unexpected checks %+v", r.Checks)
	}
	if r.Checks["slow"] != context.DeadlineExceeded.Error() {
		t.Fatalf("expected timeout, got %q", r.Checks["slow"])
	}
}
