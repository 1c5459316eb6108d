package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/example/go-textfreq/internal/metrics"
	"github.com/example/go-textfreq/internal/report"
	"github.com/example/go-textfreq/internal/server"
	"github.com/example/go-textfreq/internal/testutil"
)

// newTestRoot writes the canal sentence to canal.txt in a fresh directory.
func newTestRoot(t *testing.T) string {
	t.Helper()

	return filepath.Dir(testutil.WriteTextFile(t, "canal.txt", testutil.CanalText))
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["error"]
}

// ---------------------------------------------------------------------------
// GET /health
// ---------------------------------------------------------------------------

func TestHealth_Returns200WithStatusOK(t *testing.T) {
	h := server.NewHandler(t.TempDir())

	rec := get(t, h, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body["status"] != "ok" {
		t.Errorf("want status=ok, got %q", body["status"])
	}

	if _, ok := body["version"]; !ok {
		t.Error("want version field in response")
	}
}

func TestHealth_SetsRequestID(t *testing.T) {
	h := server.NewHandler(t.TempDir())

	rec := get(t, h, "/health")
	if rec.Header().Get(server.RequestIDHeader) == "" {
		t.Error("want generated request id header")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(server.RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(server.RequestIDHeader); got != "abc-123" {
		t.Errorf("want incoming request id echoed, got %q", got)
	}
}

func TestHealth_RejectsPost(t *testing.T) {
	h := server.NewHandler(t.TempDir())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("want 405, got %d", rec.Code)
	}
}

func TestUnknownRoute_Returns404JSON(t *testing.T) {
	rec := get(t, server.NewHandler(t.TempDir()), "/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}

	if msg := decodeError(t, rec); msg != "not found" {
		t.Errorf("want 'not found', got %q", msg)
	}
}

// ---------------------------------------------------------------------------
// GET /v1/tokens
// ---------------------------------------------------------------------------

func TestTokens_ReturnsSequence(t *testing.T) {
	h := server.NewHandler(newTestRoot(t))

	rec := get(t, h, "/v1/tokens?file=canal.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body report.TokenList
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body.Total != 7 || strings.Join(body.Tokens, " ") != "a man a plan a canal panama" {
		t.Errorf("unexpected tokens: %+v", body)
	}

	if body.Source != "canal.txt" {
		t.Errorf("source = %q; want canal.txt", body.Source)
	}
}

func TestTokens_Distinct(t *testing.T) {
	h := server.NewHandler(newTestRoot(t))

	rec := get(t, h, "/v1/tokens?file=canal.txt&distinct=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	var body report.TokenList
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body.Op != "distinct" || len(body.Tokens) != 5 {
		t.Errorf("unexpected distinct result: %+v", body)
	}
}

func TestTokens_InvalidDistinctReturns400(t *testing.T) {
	rec := get(t, server.NewHandler(newTestRoot(t)), "/v1/tokens?file=canal.txt&distinct=maybe")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// GET /v1/frequencies/{kind}
// ---------------------------------------------------------------------------

func TestFrequencies_Words(t *testing.T) {
	h := server.NewHandler(newTestRoot(t))

	rec := get(t, h, "/v1/frequencies/words?file=canal.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("want application/json, got %q", ct)
	}

	var body report.Report
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if len(body.Entries) == 0 || body.Entries[0] != (report.Row{Key: "a", Count: 3}) {
		t.Errorf("want a:3 first, got %+v", body.Entries)
	}

	if body.Total != 7 {
		t.Errorf("total = %d; want 7", body.Total)
	}
}

func TestFrequencies_TwoGramsAndPalindromes(t *testing.T) {
	h := server.NewHandler(newTestRoot(t))

	for kind, want := range map[string]string{
		"twograms":    "a man",
		"palindromes": "amana",
	} {
		t.Run(kind, func(t *testing.T) {
			rec := get(t, h, "/v1/frequencies/"+kind+"?file=canal.txt")
			if rec.Code != http.StatusOK {
				t.Fatalf("want 200, got %d", rec.Code)
			}

			var body report.Report
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}

			if len(body.Entries) == 0 || body.Entries[0].Key != want {
				t.Errorf("want first key %q, got %+v", want, body.Entries)
			}
		})
	}
}

func TestFrequencies_Limit(t *testing.T) {
	h := server.NewHandler(newTestRoot(t))

	rec := get(t, h, "/v1/frequencies/words?file=canal.txt&limit=2")
	var body report.Report
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if len(body.Entries) != 2 || body.Distinct != 5 {
		t.Errorf("want 2 of 5 entries, got %d of %d", len(body.Entries), body.Distinct)
	}

	for _, bad := range []string{"-1", "ten"} {
		rec := get(t, h, "/v1/frequencies/words?file=canal.txt&limit="+bad)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: want 400, got %d", bad, rec.Code)
		}
	}
}

func TestFrequencies_UnknownKindReturns404(t *testing.T) {
	rec := get(t, server.NewHandler(newTestRoot(t)), "/v1/frequencies/trigrams?file=canal.txt")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}

	if msg := decodeError(t, rec); !strings.Contains(msg, "trigrams") {
		t.Errorf("error should name the kind, got %q", msg)
	}
}

// ---------------------------------------------------------------------------
// source resolution and error mapping
// ---------------------------------------------------------------------------

func TestAnalysis_BadFileReturns400(t *testing.T) {
	h := server.NewHandler(newTestRoot(t))

	for _, file := range []string{"", "../canal.txt", "/etc/passwd.txt", "notes.md"} {
		t.Run(file, func(t *testing.T) {
			rec := get(t, h, "/v1/frequencies/words?file="+file)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d", rec.Code)
			}
		})
	}
}

func TestAnalysis_MissingFileReturns404(t *testing.T) {
	root := t.TempDir()
	rec := get(t, server.NewHandler(root), "/v1/tokens?file=ghost.txt")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}

	if msg := decodeError(t, rec); strings.Contains(msg, root) {
		t.Errorf("error must not leak server paths: %q", msg)
	}
}

func TestAnalysis_SubdirectoryAllowed(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "books"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "books", "wow.txt"), []byte("wow wow"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := get(t, server.NewHandler(root), "/v1/frequencies/palindromes?file=books/wow.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAnalysis_SymlinkOutsideRootReturns400(t *testing.T) {
	outside := testutil.WriteTextFile(t, "secret.txt", "topsecret words")
	root := t.TempDir()
	if err := os.Symlink(outside, filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	rec := get(t, server.NewHandler(root), "/v1/tokens?file=link.txt")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := rec.Body.String(); strings.Contains(body, "topsecret") {
		t.Errorf("response leaked file outside root: %s", body)
	}
}

func TestAnalysis_SymlinkInsideRootAllowed(t *testing.T) {
	root := newTestRoot(t)
	if err := os.Symlink("canal.txt", filepath.Join(root, "alias.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	rec := get(t, server.NewHandler(root), "/v1/frequencies/words?file=alias.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAnalysis_MissingRootReturns500(t *testing.T) {
	root := filepath.Join(t.TempDir(), "gone")

	rec := get(t, server.NewHandler(root), "/v1/tokens?file=canal.txt")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); strings.Contains(msg, root) {
		t.Errorf("error must not leak server paths: %q", msg)
	}
}

func TestAnalysis_TimeoutReturns504(t *testing.T) {
	h := server.NewHandler(newTestRoot(t), server.WithRequestTimeout(time.Nanosecond))

	rec := get(t, h, "/v1/frequencies/words?file=canal.txt")
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("want 504, got %d", rec.Code)
	}
}

func TestAnalysis_UnlimitedWorkers(t *testing.T) {
	h := server.NewHandler(newTestRoot(t), server.WithWorkers(0), server.WithRequestTimeout(0))

	rec := get(t, h, "/v1/tokens?file=canal.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
}

func TestAnalysis_Encoding(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "latin.txt"), []byte("caf\xe9"), 0o644); err != nil {
		t.Fatal(err)
	}

	h := server.NewHandler(root, server.WithEncoding("latin1"), server.WithBufferSize(2))
	rec := get(t, h, "/v1/tokens?file=latin.txt")

	var body report.TokenList
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if len(body.Tokens) != 1 || body.Tokens[0] != "café" {
		t.Errorf("want [café], got %v", body.Tokens)
	}
}

// ---------------------------------------------------------------------------
// GET /metrics
// ---------------------------------------------------------------------------

func TestMetrics_ExposesScanCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := server.NewHandler(newTestRoot(t),
		server.WithGatherer(reg),
		server.WithRecorder(metrics.New(reg)),
	)

	if rec := get(t, h, "/v1/frequencies/words?file=canal.txt"); rec.Code != http.StatusOK {
		t.Fatalf("analysis: want 200, got %d", rec.Code)
	}

	rec := get(t, h, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`textfreq_scans_total{result="ok"} 1`,
		"textfreq_tokens_total 7",
		`textfreq_operations_total{op="words"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q:\n%s", want, body)
		}
	}
}
