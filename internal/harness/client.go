package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/provscan/internal/util"
)

// ErrUnsupportedType is returned for files the harness does not upload
var ErrUnsupportedType = errors.New("unsupported file type")

// uploadField is the multipart field the upload endpoint reads
const uploadField = "image"

// maxResponseBytes caps how much of a response body is read
const maxResponseBytes = 1 << 20

var uploadMimeTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
}

// Client uploads files to an analysis endpoint
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a client for endpoint. Proxies default to the environment.
func NewClient(endpoint string, timeout time.Duration, httpProxy, httpsProxy string) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpProxy, httpsProxy, ""),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
	}
}

// Endpoint returns the upload URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// UploadMimeType returns the content type for a file name, by extension
func UploadMimeType(name string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	mime, ok := uploadMimeTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, name)
	}
	return mime, nil
}

// Upload sends one file and returns the result label from the response.
// The response status is not inspected; the body decides the label.
func (c *Client) Upload(ctx context.Context, path string) (int, error) {
	name := filepath.Base(path)

	mime, err := UploadMimeType(name)
	if err != nil {
		return LabelFail, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return LabelFail, fmt.Errorf("read file: %w", err)
	}

	body, contentType, err := multipartBody(name, mime, data)
	if err != nil {
		return LabelFail, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return LabelFail, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return LabelFail, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return LabelFail, fmt.Errorf("read response: %w", err)
	}

	return VerdictLabel(respBody), nil
}

func multipartBody(name, mime string, data []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, uploadField, escapeQuotes(name)))
	header.Set("Content-Type", mime)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("write part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
