package util

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLogLevel(t *testing.T) {
	defer func() { _ = SetLogLevel("info") }()

	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"WARN", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
	}

	for _, tt := range tests {
		if err := SetLogLevel(tt.in); err != nil {
			t.Fatalf("SetLogLevel(%q) failed: %v", tt.in, err)
		}
		if Log.GetLevel() != tt.want {
			t.Errorf("SetLogLevel(%q): got %v, want %v", tt.in, Log.GetLevel(), tt.want)
		}
	}

	if err := SetLogLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSetLogFormat(t *testing.T) {
	defer func() { _ = SetLogFormat("text") }()

	if err := SetLogFormat("json"); err != nil {
		t.Fatalf("SetLogFormat failed: %v", err)
	}
	if _, ok := Log.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("expected JSON formatter, got %T", Log.Formatter)
	}
	if err := SetLogFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://plain:8080", "http://secure:8443", "")

	req := httptest.NewRequest(http.MethodGet, "https://example.com/upload", nil)
	u, err := proxy(req)
	if err != nil {
		t.Fatalf("proxy failed: %v", err)
	}
	if u.Host != "secure:8443" {
		t.Errorf("expected https proxy, got %s", u.Host)
	}

	req = httptest.NewRequest(http.MethodGet, "http://example.com/upload", nil)
	u, err = proxy(req)
	if err != nil {
		t.Fatalf("proxy failed: %v", err)
	}
	if u.Host != "plain:8080" {
		t.Errorf("expected http proxy, got %s", u.Host)
	}
}

func TestNewProxyFunc_NoProxy(t *testing.T) {
	proxy := NewProxyFunc("http://plain:8080", "", "localhost, .internal")

	for _, target := range []string{"http://localhost:8080/upload", "http://scan.internal/upload"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		u, err := proxy(req)
		if err != nil {
			t.Fatalf("proxy failed: %v", err)
		}
		if u != nil {
			t.Errorf("expected %s to bypass the proxy, got %s", target, u)
		}
	}
}
