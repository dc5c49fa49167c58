//go:build integration
// +build integration

package integration

import (
	"net/http"
	"testing"
)

func TestHealthz(t *testing.T) {
	resp, err := http.Get(baseURL() + "/healthz")
	if err != nil {
		t.Fatalf("health check request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}
}

func TestPing(t *testing.T) {
	resp, err := http.Get(baseURL() + "/api/ping")
	if err != nil {
		t.Fatalf("ping request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dependencies unhealthy: %d", resp.StatusCode)
	}
}
