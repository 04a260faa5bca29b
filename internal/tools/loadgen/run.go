package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Config drives a burst of auth traffic against a running API, exercising
// the login, refresh and reset-request endpoints.
type Config struct {
	BaseURL     string
	Profile     string // "auth" or "mixed"
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64

	// Seeded credentials for the happy-path login requests.
	Email    string
	Password string
}

type Result struct {
	TotalRequests int
	Failures      int
	StatusCounts  map[string]int
}

func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 5 * time.Second
	}
	profile := normalizeProfile(cfg.Profile)

	client := &http.Client{Timeout: 10 * time.Second}
	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var (
		mu     sync.Mutex
		result = &Result{StatusCounts: map[string]int{}}
	)
	record := func(status int, failed bool) {
		mu.Lock()
		defer mu.Unlock()
		result.TotalRequests++
		if failed {
			result.Failures++
			return
		}
		result.StatusCounts[classifyStatusClass(status)]++
	}

	interval := time.Second / time.Duration(cfg.RPS)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(cfg.Seed + int64(worker)))
			ticker := time.NewTicker(interval * time.Duration(cfg.Concurrency))
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					status, err := fire(ctx, client, cfg, profile, rng)
					record(status, err != nil)
				}
			}
		}(i)
	}
	wg.Wait()
	return result, nil
}

func fire(ctx context.Context, client *http.Client, cfg Config, profile string, rng *rand.Rand) (int, error) {
	path := "/auth/login"
	body := map[string]string{"email": cfg.Email, "password": cfg.Password}

	roll := rng.Intn(100)
	switch {
	case roll < 30:
		body["password"] = "definitely-wrong"
	case profile == "mixed" && roll < 45:
		path = "/auth/reset-password-request"
		body = map[string]string{"email": cfg.Email}
	case profile == "mixed" && roll < 55:
		path = "/auth/jwt-refresh"
		body = map[string]string{"refreshToken": "replayed-token"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(cfg.BaseURL, "/")+path, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if path == "/auth/jwt-refresh" {
		req.Header.Set("Authorization", "Bearer stale-access-token")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

func classifyStatusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	default:
		return "other"
	}
}

func normalizeProfile(profile string) string {
	v := strings.TrimSpace(strings.ToLower(profile))
	if v == "" {
		return "mixed"
	}
	return v
}
