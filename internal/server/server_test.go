package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/provscan/internal/extract"
	"github.com/ppiankov/provscan/internal/harness"
	"github.com/ppiankov/provscan/internal/model"
	"github.com/ppiankov/provscan/internal/pipeline"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 64)...)
	jpegBytes = append([]byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), bytes.Repeat([]byte{0}, 64)...)
)

type fakeExtractor struct {
	store *extract.ManifestStore
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context, path string) (*extract.ManifestStore, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.store, nil
}

type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(ctx context.Context, path string) (*pipeline.Result, error) {
	return nil, errors.New("extractor crashed")
}

func photoshopStore() *extract.ManifestStore {
	return &extract.ManifestStore{
		ActiveManifest: "urn:uuid:1",
		Manifests: map[string]extract.Manifest{
			"urn:uuid:1": {ClaimGeneratorInfo: []extract.GeneratorInfo{{Name: "Photoshop"}}},
		},
		Validation: &extract.ValidationResults{
			State: model.StateInvalid,
			ActiveManifest: &extract.StatusCodes{
				Failure: []extract.ValidationStatus{
					{Code: "signingCredential.untrusted"},
					{Code: "assertion.dataHash.mismatch"},
				},
			},
		},
	}
}

// trustedStore has no claims and one trusted certificate: score 20, confidence 80
func trustedStore() *extract.ManifestStore {
	return &extract.ManifestStore{
		Manifests: map[string]extract.Manifest{},
		Validation: &extract.ValidationResults{
			State: model.StateTrusted,
			ActiveManifest: &extract.StatusCodes{
				Success: []extract.ValidationStatus{{Code: "signingCredential.trusted"}},
			},
		},
	}
}

func testConfig() model.ServerConfig {
	cfg := model.DefaultConfig().Server
	cfg.RequestsPerSecond = 0
	return cfg
}

func newTestServer(cfg model.ServerConfig, store *extract.ManifestStore) *Server {
	p := pipeline.New(model.DefaultConfig(), &fakeExtractor{store: store})
	return New(cfg, p)
}

func uploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestUpload_Generated(t *testing.T) {
	s := newTestServer(testConfig(), photoshopStore())

	rec := serve(s, uploadRequest(t, "image", "photo.png", pngBytes))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	body := decode(t, rec)
	analysis := body["analysis"].(map[string]interface{})
	assert.Equal(t, "AI Generated", analysis["verdict"])
	assert.Equal(t, "Generated", analysis["classification"])
	assert.Equal(t, 100.0, analysis["score"])
	assert.Equal(t, 91.0, analysis["confidence"])
	assert.NotContains(t, analysis, "explanation")

	report := body["report"].(map[string]interface{})
	assert.Equal(t, "photo.png", report["file_name"])
	assert.Equal(t, 2.0, report["trust"].(map[string]interface{})["certificate_count"])

	metadata := body["metadata"].(map[string]interface{})
	assert.Equal(t, rec.Header().Get(requestIDHeader), metadata["request_id"])
	assert.Len(t, metadata["digest"], 64)
	assert.Equal(t, false, metadata["cache_hit"])
	assert.Equal(t, "image/png", metadata["mime_type"])
}

func TestUpload_Authentic(t *testing.T) {
	s := newTestServer(testConfig(), trustedStore())

	rec := serve(s, uploadRequest(t, "image", "camera.JPG", jpegBytes))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	analysis := decode(t, rec)["analysis"].(map[string]interface{})
	assert.Equal(t, "Authentic", analysis["verdict"])
	assert.Equal(t, "Genuine", analysis["classification"])
}

func TestUpload_RequestIDPassthrough(t *testing.T) {
	s := newTestServer(testConfig(), photoshopStore())

	req := uploadRequest(t, "image", "photo.png", pngBytes)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := serve(s, req)

	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestUpload_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		filename string
		content  []byte
		want     int
	}{
		{"wrong field", "file", "photo.png", pngBytes, http.StatusBadRequest},
		{"unsupported extension", "image", "notes.txt", pngBytes, http.StatusBadRequest},
		{"no extension", "image", "photo", pngBytes, http.StatusBadRequest},
		{"not media", "image", "photo.png", []byte("just some text, not an image"), http.StatusBadRequest},
		{"filename too long", "image", strings.Repeat("a", 300) + ".png", pngBytes, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(testConfig(), photoshopStore())

			rec := serve(s, uploadRequest(t, tt.field, tt.filename, tt.content))
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Contains(t, decode(t, rec), "error")
			assert.Equal(t, harness.LabelFail, harness.VerdictLabel(rec.Body.Bytes()))
			assert.Equal(t, int64(0), s.Metrics().Snapshot().Failures)
		})
	}
}

func TestUpload_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 128
	s := newTestServer(cfg, photoshopStore())

	rec := serve(s, uploadRequest(t, "image", "big.png", append(pngBytes, make([]byte, 1024)...)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, harness.LabelFail, harness.VerdictLabel(rec.Body.Bytes()))
}

func TestUpload_AnalysisFailed(t *testing.T) {
	s := New(testConfig(), failingAnalyzer{})

	rec := serve(s, uploadRequest(t, "image", "photo.png", pngBytes))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Analysis Failed", body["analysis"].(map[string]interface{})["verdict"])
	assert.Equal(t, "extractor crashed", body["error"])
	assert.Equal(t, harness.LabelFail, harness.VerdictLabel(rec.Body.Bytes()))

	snap := s.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.Requests)
	assert.Equal(t, int64(1), snap.Failures)
}

func TestUpload_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 1
	s := newTestServer(cfg, photoshopStore())

	first := serve(s, uploadRequest(t, "image", "photo.png", pngBytes))
	assert.Equal(t, http.StatusOK, first.Code)

	second := serve(s, uploadRequest(t, "image", "photo.png", pngBytes))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, harness.LabelFail, harness.VerdictLabel(second.Body.Bytes()))
	assert.Equal(t, int64(1), s.Metrics().Snapshot().Rejected)

	// Health is not rate limited
	health := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(testConfig(), photoshopStore())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["healthy"])
	assert.Contains(t, body, "uptime_s")
	_, err := time.Parse(time.RFC3339, body["timestamp"].(string))
	assert.NoError(t, err)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(testConfig(), photoshopStore())

	serve(s, uploadRequest(t, "image", "a.png", pngBytes))
	serve(s, uploadRequest(t, "image", "b.png", pngBytes))
	serve(s, uploadRequest(t, "image", "c.txt", pngBytes))

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var snap MetricsSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, int64(3), snap.Requests)
	assert.Equal(t, int64(0), snap.Failures)
	assert.Equal(t, map[string]int64{"AI Generated": 2}, snap.Verdicts)
}

func TestVerdictLabel(t *testing.T) {
	assert.Equal(t, "Authentic", VerdictLabel(model.VerdictGenuine))
	assert.Equal(t, "Manipulated", VerdictLabel(model.VerdictModified))
	assert.Equal(t, "AI Generated", VerdictLabel(model.VerdictGenerated))
	assert.Equal(t, "Inconclusive", VerdictLabel(model.VerdictUnknown))
	assert.Equal(t, "Inconclusive", VerdictLabel(model.Verdict("bogus")))
}

func TestCORSConfig(t *testing.T) {
	_, ok := corsConfig(nil)
	assert.False(t, ok)

	cfg, ok := corsConfig([]string{"*"})
	require.True(t, ok)
	assert.True(t, cfg.AllowAllOrigins)
	assert.Empty(t, cfg.AllowOrigins)

	cfg, ok = corsConfig([]string{"https://example.com"})
	require.True(t, ok)
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"https://example.com"}, cfg.AllowOrigins)
}

func TestCORSHeaders(t *testing.T) {
	s := newTestServer(testConfig(), photoshopStore())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := serve(s, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

// The harness and server agree on the response contract
func TestHarnessAgainstServer(t *testing.T) {
	s := newTestServer(testConfig(), trustedStore())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), pngBytes, 0o644))
	}

	h := harness.New(harness.NewClient(ts.URL+"/upload", 5*time.Second, "", ""), harness.Options{})
	report, err := h.Run(context.Background(), dir, harness.LabelGenuine)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Hits)
	assert.Equal(t, 1.0, report.Accuracy)
}

func TestHarnessAgainstDefaultServer(t *testing.T) {
	// Default limits: 5 requests per second, burst 10
	s := newTestServer(model.DefaultConfig().Server, trustedStore())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	const files = 30
	dir := t.TempDir()
	for i := 0; i < files; i++ {
		name := filepath.Join(dir, fmt.Sprintf("img%02d.png", i))
		require.NoError(t, os.WriteFile(name, pngBytes, 0o644))
	}

	h := harness.New(harness.NewClient(ts.URL+"/upload", 5*time.Second, "", ""), harness.Options{})
	report, err := h.Run(context.Background(), dir, harness.LabelGenuine)
	require.NoError(t, err)

	assert.Equal(t, files, report.FilesAnalyzed)
	assert.Equal(t, 0, report.Misses, "refused uploads must not be scored as wrong verdicts")
	assert.Equal(t, files, report.Hits+report.Fails)
	assert.Greater(t, report.Fails, 0)
	assert.Equal(t, int64(report.Fails), s.Metrics().Snapshot().Rejected)
}

func TestRun_Shutdown(t *testing.T) {
	cfg := testConfig()
	cfg.Addr = "127.0.0.1:0"
	s := newTestServer(cfg, photoshopStore())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
