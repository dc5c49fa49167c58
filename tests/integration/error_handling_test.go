//go:build integration
// +build integration

package integration

import (
	"net/http"
	"testing"
)

func TestUnauthorizedAccess(t *testing.T) {
	resp := makeRequest(t, http.MethodGet, baseURL()+"/api/accounts/users/me", "", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if errResp := decodeBody(t, resp); errResp["error"] == nil {
		t.Fatal("error field is missing")
	}
}

func TestValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		payload map[string]string
		status  int
	}{
		{"short username", map[string]string{"username": "ab", "email": "ab@example.com", "password": "testpassword123"}, http.StatusBadRequest},
		{"bad email", map[string]string{"username": uniqueName("v"), "email": "nope", "password": "testpassword123"}, http.StatusBadRequest},
		{"short password", map[string]string{"username": uniqueName("v"), "email": uniqueName("v") + "@example.com", "password": "short"}, http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := makeRequest(t, http.MethodPost, baseURL()+"/api/accounts/auth/register", "", tc.payload)
			defer resp.Body.Close()
			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.StatusCode)
			}
		})
	}
}

func TestOAuthErrorEnvelope(t *testing.T) {
	resp := makeRequest(t, http.MethodPost, baseURL()+"/api/accounts/oauth2/authorize", "", map[string]string{
		"provider":     "myspace",
		"redirect_uri": "http://localhost/cb",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	out := decodeBody(t, resp)
	if out["error"] != "invalid_provider" {
		t.Fatalf("unexpected error code: %v", out["error"])
	}
	if out["error_description"] == nil {
		t.Fatal("error_description is missing")
	}
}

func TestOAuthProvidersListing(t *testing.T) {
	resp := makeRequest(t, http.MethodGet, baseURL()+"/api/accounts/oauth2/providers", "", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if _, ok := decodeBody(t, resp)["providers"].([]interface{}); !ok {
		t.Fatal("providers list is missing")
	}
}
