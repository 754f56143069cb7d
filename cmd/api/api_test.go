package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/crucial707/geo-catalog/internal/auth/authtest"
	"github.com/crucial707/geo-catalog/internal/config"
)

func newTestServer(t *testing.T) (*httptest.Server, sqlmock.Sqlmock, *authtest.Issuer) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	iss := authtest.NewIssuer(t)
	cfg := config.Config{
		OIDC:               iss.OIDC,
		MaxBodyBytes:       1 << 20,
		MutationsPerMinute: 600,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(newRouter(db, cfg, iss.Verifier(), logger))
	t.Cleanup(srv.Close)
	return srv, mock, iss
}

func do(t *testing.T, srv *httptest.Server, method, path, authz, body string) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAPI_HealthAndIndex(t *testing.T) {
	srv, _, _ := newTestServer(t)

	if resp := do(t, srv, http.MethodGet, "/health", "", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("health: got %d", resp.StatusCode)
	}

	resp := do(t, srv, http.MethodGet, "/v1", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("index: got %d", resp.StatusCode)
	}
	var out struct {
		Endpoints []string `json:"endpoints"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || len(out.Endpoints) == 0 {
		t.Errorf("index body: %v %+v", err, out)
	}
}

func TestAPI_Ready(t *testing.T) {
	srv, _, _ := newTestServer(t)
	// sqlmock answers pings unless MonitorPingsOption is set.
	if resp := do(t, srv, http.MethodGet, "/ready", "", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("ready: got %d", resp.StatusCode)
	}
}

func TestAPI_AnonymousMutationForbidden(t *testing.T) {
	srv, mock, _ := newTestServer(t)

	resp := do(t, srv, http.MethodPut, "/v1/layer", "", `{"name":"Roads"}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("got %d, want 403", resp.StatusCode)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no database access expected: %v", err)
	}
}

func TestAPI_ForgedTokenForbidden(t *testing.T) {
	srv, mock, _ := newTestServer(t)
	forger := authtest.NewIssuer(t)

	resp := do(t, srv, http.MethodDelete, "/v1/layer/1", forger.Header(t, "mallory"), "")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("got %d, want 403", resp.StatusCode)
	}
	var p struct {
		Status   int    `json:"status"`
		Detail   string `json:"detail"`
		Instance string `json:"instance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if p.Status != 403 || p.Instance != "/v1/layer/1" || p.Detail != "invalid token signature" {
		t.Errorf("unexpected problem: %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no database access expected: %v", err)
	}
}

// A geometry update by alice commits with one UPDATE ledger row written in the
// same transaction.
func TestAPI_FeatureUpdateWritesLedger(t *testing.T) {
	srv, mock, iss := newTestServer(t)

	oldDoc := `{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{}}`
	newDoc := `{"type":"Feature","geometry":{"type":"Point","coordinates":[3,4]},"properties":{}}`
	before := `{"feature_id":12,"layer_id":null,"geo_type":"Point","geo_json":` + oldDoc +
		`,"created_by":"bob","created_at":"2026-10-01T09:00:00+00:00","updated_by":null,"updated_at":null}`
	after := `{"feature_id":12,"layer_id":null,"geo_type":"Point","geo_json":` + newDoc +
		`,"created_by":"bob","created_at":"2026-10-01T09:00:00+00:00","updated_by":"alice","updated_at":"2026-10-17T09:00:00+00:00"}`

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT row_to_json\(t\.\*\) FROM feature AS t WHERE t\.feature_id = \$1 FOR UPDATE`).
		WithArgs(12).
		WillReturnRows(sqlmock.NewRows([]string{"row_to_json"}).AddRow(before))
	mock.ExpectQuery(`UPDATE feature AS t SET geo_type = \$1, geo_json = \$2, updated_by = \$3`).
		WithArgs("Point", newDoc, "alice", 12).
		WillReturnRows(sqlmock.NewRows([]string{"row_to_json"}).AddRow(after))
	mock.ExpectExec(`SAVEPOINT audit_capture`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO audit\.logged_actions`).
		WithArgs("public", "feature", "alice", "UPDATE", before, after).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`RELEASE SAVEPOINT audit_capture`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	resp := do(t, srv, http.MethodPatch, "/v1/feature/12", iss.Header(t, "alice"), newDoc)
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("got %d: %s", resp.StatusCode, b)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAPI_MetricsExposesLedgerCounters(t *testing.T) {
	srv, _, _ := newTestServer(t)
	do(t, srv, http.MethodGet, "/health", "", "")

	resp := do(t, srv, http.MethodGet, "/metrics", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: got %d", resp.StatusCode)
	}
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	for _, name := range []string{"http_requests_total", "auth_failures_total"} {
		if !strings.Contains(buf.String(), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
