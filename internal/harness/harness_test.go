package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpected(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1", LabelGenuine, false},
		{"real", LabelGenuine, false},
		{"genuine", LabelGenuine, false},
		{"2", LabelGenerated, false},
		{"fake", LabelGenerated, false},
		{"generated", LabelGenerated, false},
		{"0", 0, true},
		{"Genuine", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseExpected(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestVerdictLabel(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"authentic", `{"analysis":{"verdict":"Authentic"}}`, LabelGenuine},
		{"authentic with suffix", `{"analysis":{"verdict":"Likely Authentic"}}`, LabelGenuine},
		{"ai generated", `{"analysis":{"verdict":"AI Generated"}}`, LabelGenerated},
		{"manipulated", `{"analysis":{"verdict":"Manipulated"}}`, LabelGenerated},
		{"missing verdict", `{"analysis":{}}`, LabelGenerated},
		{"analysis failed", `{"analysis":{"verdict":"Analysis Failed"}}`, LabelFail},
		{"failure text anywhere", `oops: Analysis Failed`, LabelFail},
		{"invalid json", `<html>bad gateway</html>`, LabelFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerdictLabel([]byte(tt.body)))
		})
	}
}

func TestUploadMimeType(t *testing.T) {
	for name, want := range map[string]string{
		"a.png":  "image/png",
		"a.PNG":  "image/png",
		"b.jpg":  "image/jpeg",
		"c.jpeg": "image/jpeg",
	} {
		got, err := UploadMimeType(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	for _, name := range []string{"d.gif", "noext", "e.webp"} {
		_, err := UploadMimeType(name)
		assert.True(t, errors.Is(err, ErrUnsupportedType), name)
	}
}

func TestNewEvalReport(t *testing.T) {
	report := NewEvalReport([]EvalResult{
		{ExpectedResult: 2, ActualResult: 2, FileName: "a.png"},
		{ExpectedResult: 2, ActualResult: 1, FileName: "b.png"},
		{ExpectedResult: 2, ActualResult: 0, FileName: "c.gif"},
		{ExpectedResult: 2, ActualResult: 2, FileName: "d.jpg"},
	})

	assert.Equal(t, 4, report.FilesAnalyzed)
	assert.Equal(t, 2, report.ExpectedResult)
	assert.Equal(t, 2, report.Hits)
	assert.Equal(t, 1, report.Misses)
	assert.Equal(t, 1, report.Fails)
	assert.InDelta(t, 0.5, report.Accuracy, 1e-9)
}

func TestNewEvalReport_Empty(t *testing.T) {
	report := NewEvalReport(nil)

	assert.Equal(t, 0, report.FilesAnalyzed)
	assert.Equal(t, 0, report.ExpectedResult)
	assert.Equal(t, 0.0, report.Accuracy)
	assert.NotNil(t, report.Results)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.JSONEq(t, `{"files_analyzed":0,"expected_result":0,"hits":0,"misses":0,"fails":0,"accuracy":0,"results":[]}`, string(data))
}

func TestPrintSummary(t *testing.T) {
	report := NewEvalReport([]EvalResult{
		{ExpectedResult: 1, ActualResult: 1, FileName: "a.png"},
		{ExpectedResult: 1, ActualResult: 0, FileName: "b.gif"},
	})

	var buf bytes.Buffer
	PrintSummary(&buf, report)

	want := "expect\tactual\tfile\n" +
		"1\t1\ta.png\n" +
		"1\t0\tb.gif\n" +
		"files analyzed:\t2\n" +
		"expected:\t1\n" +
		"hits:\t\t1\n" +
		"misses:\t\t0\n" +
		"fails:\t\t1\n" +
		"accuracy:\t0.5\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	report := NewEvalReport([]EvalResult{{ExpectedResult: 1, ActualResult: 2, FileName: "a.png"}})

	require.NoError(t, WriteReport(path, report))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded EvalReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 1, decoded.Misses)
	assert.Equal(t, "a.png", decoded.Results[0].FileName)
}

// mockEndpoint records uploads and answers with a fixed body
type mockEndpoint struct {
	mu       sync.Mutex
	uploads  []string
	types    []string
	response func(name string) string
}

func (m *mockEndpoint) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		file, header, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			http.Error(w, "missing image", http.StatusBadRequest)
			return
		}
		defer file.Close()
		_, _ = io.Copy(io.Discard, file)

		m.mu.Lock()
		m.uploads = append(m.uploads, header.Filename)
		m.types = append(m.types, header.Header.Get("Content-Type"))
		m.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(m.response(header.Filename)))
	}
}

func writeFiles(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("image bytes "+name), 0o644))
	}
	return dir
}

func TestHarness_Run_AllAuthentic(t *testing.T) {
	endpoint := &mockEndpoint{response: func(string) string { return `{"analysis":{"verdict":"Authentic"}}` }}
	server := httptest.NewServer(endpoint.handler(t))
	defer server.Close()

	dir := writeFiles(t, "c.png", "a.jpg", "b.jpeg", "d.PNG")

	h := New(NewClient(server.URL+"/upload", 5*time.Second, "", ""), Options{})
	report, err := h.Run(context.Background(), dir, LabelGenuine)
	require.NoError(t, err)

	assert.Equal(t, 4, report.FilesAnalyzed)
	assert.Equal(t, 4, report.Hits)
	assert.Equal(t, 0, report.Misses)
	assert.Equal(t, 0, report.Fails)
	assert.Equal(t, 1.0, report.Accuracy)

	var names []string
	for _, r := range report.Results {
		names = append(names, r.FileName)
	}
	assert.Equal(t, []string{"a.jpg", "b.jpeg", "c.png", "d.PNG"}, names)
	assert.Contains(t, endpoint.types, "image/png")
	assert.Contains(t, endpoint.types, "image/jpeg")
}

func TestHarness_Run_MixedOutcomes(t *testing.T) {
	endpoint := &mockEndpoint{response: func(name string) string {
		switch {
		case strings.HasPrefix(name, "fake"):
			return `{"analysis":{"verdict":"AI Generated"}}`
		case strings.HasPrefix(name, "broken"):
			return `{"analysis":{"verdict":"Analysis Failed"},"error":"extractor crashed"}`
		default:
			return `{"analysis":{"verdict":"Authentic"}}`
		}
	}}
	server := httptest.NewServer(endpoint.handler(t))
	defer server.Close()

	dir := writeFiles(t, "fake1.png", "fake2.jpg", "real.png", "broken.png", "notes.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	h := New(NewClient(server.URL, 5*time.Second, "", ""), Options{Concurrency: 3})
	report, err := h.Run(context.Background(), dir, LabelGenerated)
	require.NoError(t, err)

	assert.Equal(t, 5, report.FilesAnalyzed)
	assert.Equal(t, 2, report.Hits)
	assert.Equal(t, 1, report.Misses)
	assert.Equal(t, 2, report.Fails) // broken.png and notes.txt
	assert.InDelta(t, 0.4, report.Accuracy, 1e-9)
	assert.NotContains(t, endpoint.uploads, "notes.txt")

	// Directory order regardless of concurrency
	assert.Equal(t, "broken.png", report.Results[0].FileName)
	assert.Equal(t, "real.png", report.Results[4].FileName)
}

func TestHarness_Run_UnreachableEndpoint(t *testing.T) {
	dir := writeFiles(t, "a.png", "b.png")

	h := New(NewClient("http://127.0.0.1:1/upload", time.Second, "", ""), Options{})
	report, err := h.Run(context.Background(), dir, LabelGenuine)
	require.NoError(t, err)

	assert.Equal(t, 2, report.FilesAnalyzed)
	assert.Equal(t, 2, report.Fails)
	assert.Equal(t, 0.0, report.Accuracy)
}

func TestHarness_Run_MissingDirectory(t *testing.T) {
	h := New(NewClient("http://127.0.0.1:1/upload", time.Second, "", ""), Options{})

	report, err := h.Run(context.Background(), filepath.Join(t.TempDir(), "missing"), LabelGenuine)
	require.NoError(t, err)
	assert.Equal(t, 0, report.FilesAnalyzed)
	assert.Equal(t, 0, report.ExpectedResult)
}

func TestHarness_Run_RateLimited(t *testing.T) {
	endpoint := &mockEndpoint{response: func(string) string { return `{"analysis":{"verdict":"Authentic"}}` }}
	server := httptest.NewServer(endpoint.handler(t))
	defer server.Close()

	dir := writeFiles(t, "a.png", "b.png", "c.png")

	h := New(NewClient(server.URL, 5*time.Second, "", ""), Options{Concurrency: 3, RequestsPerSecond: 40})
	start := time.Now()
	report, err := h.Run(context.Background(), dir, LabelGenuine)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Hits)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}
