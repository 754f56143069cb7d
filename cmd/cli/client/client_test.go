package client

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func setup(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	t.Setenv("GEO_API_URL", srv.URL)
	t.Setenv("GEO_TOKEN", "")
	t.Setenv("GEO_TOKEN_FILE", filepath.Join(t.TempDir(), "token"))
}

func TestDo_SendsBearerAndDecodes(t *testing.T) {
	setup(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer abc" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		if r.Method != http.MethodPut || r.URL.Path != "/v1/layer" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"name":"Parcels"}` {
			t.Errorf("unexpected body %s", body)
		}
		w.Write([]byte(`{"layerId":1}`))
	})
	t.Setenv("GEO_TOKEN", "abc")

	var out struct {
		LayerID int `json:"layerId"`
	}
	if err := Do(http.MethodPut, "/v1/layer", map[string]string{"name": "Parcels"}, &out); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out.LayerID != 1 {
		t.Errorf("expected layerId 1, got %d", out.LayerID)
	}
}

func TestDo_RawMessagePassedThrough(t *testing.T) {
	doc := `{"type":"Feature",  "geometry":{"type":"Point"}}`
	setup(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != doc {
			t.Errorf("body was re-encoded: %s", body)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("expected anonymous request")
		}
	})

	if err := Do(http.MethodPut, "/v1/feature", json.RawMessage(doc), nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func TestDo_ErrorBodies(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"problem", http.StatusForbidden, `{"status":403,"title":"Forbidden","detail":"token is expired"}`, "token is expired"},
		{"error", http.StatusNotFound, `{"error":"layer not found"}`, "layer not found"},
		{"fields", http.StatusBadRequest, `{"error":"validation failed","fields":{"name":"required"}}`, "validation failed [name: required]"},
		{"plain", http.StatusBadGateway, "upstream down\n", "upstream down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			err := Do(http.MethodGet, "/v1/layer", nil, nil)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Status != tt.status || apiErr.Message != tt.want {
				t.Errorf("got %d %q, want %d %q", apiErr.Status, apiErr.Message, tt.status, tt.want)
			}
		})
	}
}
