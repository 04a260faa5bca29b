package loadgen

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/userdeck/authkit/internal/mockserver"
)

func TestRunGeneratesAuthTraffic(t *testing.T) {
	srv := mockserver.New(mockserver.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	srv.Seed("load@b.com", "pw", "user")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	result, err := Run(context.Background(), Config{
		BaseURL:     ts.URL,
		Profile:     "mixed",
		Duration:    400 * time.Millisecond,
		RPS:         50,
		Concurrency: 4,
		Seed:        42,
		Email:       "load@b.com",
		Password:    "pw",
	})
	if err != nil {
		t.Fatalf("run loadgen: %v", err)
	}
	if result.TotalRequests == 0 {
		t.Fatal("expected traffic to be generated")
	}
	if result.Failures != 0 {
		t.Fatalf("unexpected transport failures: %d", result.Failures)
	}
}

func TestRunRequiresBaseURL(t *testing.T) {
	if _, err := Run(context.Background(), Config{}); err == nil {
		t.Fatal("expected error without base URL")
	}
}
