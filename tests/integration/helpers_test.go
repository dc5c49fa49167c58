//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

type registeredUser struct {
	ID           float64
	Username     string
	AccessToken  string
	RefreshToken string
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func baseURL() string {
	return envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8000")
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
}

func makeRequest(t *testing.T, method, url, token string, payload interface{}) *http.Response {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func createRegisteredUser(t *testing.T, username, password string) registeredUser {
	t.Helper()

	resp := makeRequest(t, http.MethodPost, baseURL()+"/api/accounts/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected register status: %d, body: %v", resp.StatusCode, decodeBody(t, resp))
	}
	created := decodeBody(t, resp)

	user := loginUser(t, username, password)
	user.ID, _ = created["id"].(float64)
	return user
}

func loginUser(t *testing.T, username, password string) registeredUser {
	t.Helper()

	resp := makeRequest(t, http.MethodPost, baseURL()+"/api/accounts/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected login status: %d, body: %v", resp.StatusCode, decodeBody(t, resp))
	}

	out := decodeBody(t, resp)
	access, _ := out["access"].(string)
	refresh, _ := out["refresh"].(string)
	return registeredUser{Username: username, AccessToken: access, RefreshToken: refresh}
}
