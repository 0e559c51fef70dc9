// Package remote talks to the image service that measures uploaded artwork
// and renders resized resources from it.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/felixgeelhaar/resgen/internal/log"
	"github.com/felixgeelhaar/resgen/internal/version"
)

// DefaultBaseURL is the public image service.
const DefaultBaseURL = "https://res.ionic.io"

const (
	uploadPath    = "/api/v1/upload"
	transformPath = "/api/v1/transform"
)

// Sentinel errors returned (wrapped) by Client methods.
var (
	ErrUnreachable = errors.New("image service unreachable")
	ErrNotFound    = errors.New("image service endpoint not found")
	ErrServer      = errors.New("image service error")
	ErrStatus      = errors.New("unexpected image service status")
	ErrMalformed   = errors.New("malformed image service response")
)

// Config configures a Client.
type Config struct {
	BaseURL string
	// Timeout bounds each HTTP attempt. Zero means no timeout.
	Timeout time.Duration
	// Retries is how many times a failed attempt is retried.
	Retries int
	Logger  *log.Logger
}

// Client is the image service API client
type Client struct {
	BaseURL    string
	ClientTag  string
	HTTPClient *retryablehttp.Client
}

// ImageInfo is what the service reports about uploaded artwork.
type ImageInfo struct {
	Width  int  `json:"Width"`
	Height int  `json:"Height"`
	Vector bool `json:"Vector"`
}

// TransformRequest asks the service to render one output image.
type TransformRequest struct {
	ImageID  string
	Name     string
	Platform string
	Category string
	Width    int
	Height   int
}

// ProxyEnv names the proxy variable consulted when none of the standard
// HTTP_PROXY/HTTPS_PROXY variables apply.
const ProxyEnv = "PROXY"

// NewClient creates a new image service client. The transport honors the
// standard proxy environment variables, then PROXY.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = cfg.Timeout
	if tr, ok := httpClient.Transport.(*http.Transport); ok {
		tr.Proxy = proxyFromEnvironment
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpClient
	rc.RetryMax = max(cfg.Retries, 0)
	rc.RetryWaitMin = 250 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if cfg.Logger != nil {
		rc.Logger = cfg.Logger
	} else {
		rc.Logger = nil
	}

	return &Client{
		BaseURL:    baseURL,
		ClientTag:  version.ClientTag(),
		HTTPClient: rc,
	}
}

func proxyFromEnvironment(req *http.Request) (*url.URL, error) {
	u, err := http.ProxyFromEnvironment(req)
	if u != nil || err != nil {
		return u, err
	}
	raw := strings.TrimSpace(os.Getenv(ProxyEnv))
	if raw == "" || isLoopback(req.URL.Hostname()) {
		return nil, nil
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err = url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value: %w", ProxyEnv, err)
	}
	return u, nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Upload sends the artwork at path under imageID and returns its
// authoritative dimensions.
func (c *Client) Upload(ctx context.Context, imageID, path string) (*ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	body, contentType, err := c.multipartBody(
		[]field{{"image_id", imageID}},
		&filePart{name: "src", filename: filepath.Base(path), r: f},
	)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, uploadPath, body, contentType)
	if err != nil {
		return nil, err
	}

	var info ImageInfo
	if err := parseResponse(resp, "upload", &info); err != nil {
		return nil, err
	}
	if !info.Vector && (info.Width <= 0 || info.Height <= 0) {
		return nil, fmt.Errorf("upload: %w: missing dimensions", ErrMalformed)
	}
	return &info, nil
}

// Transform renders the requested output and streams the PNG into w.
func (c *Client) Transform(ctx context.Context, req TransformRequest, w io.Writer) error {
	body, contentType, err := c.multipartBody([]field{
		{"image_id", req.ImageID},
		{"name", req.Name},
		{"platform", req.Platform},
		{"width", strconv.Itoa(req.Width)},
		{"height", strconv.Itoa(req.Height)},
		{"res_type", req.Category},
		{"crop", "center"},
		{"encoding", "png"},
	}, nil)
	if err != nil {
		return err
	}

	resp, err := c.doRequest(ctx, transformPath, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "transform"); err != nil {
		return err
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("transform: read response: %w: %w", ErrUnreachable, err)
	}
	return nil
}

type field struct {
	name, value string
}

type filePart struct {
	name, filename string
	r              io.Reader
}

// multipartBody encodes fields, an optional file and the client tag. The
// body is buffered so retries can replay it.
func (c *Client) multipartBody(fields []field, file *filePart) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("failed to encode %s: %w", f.name, err)
		}
	}
	if file != nil {
		part, err := mw.CreateFormFile(file.name, file.filename)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode %s: %w", file.name, err)
		}
		if _, err := io.Copy(part, file.r); err != nil {
			return nil, "", fmt.Errorf("read source: %w", err)
		}
	}
	if err := mw.WriteField("cli_version", c.ClientTag); err != nil {
		return nil, "", fmt.Errorf("failed to encode cli_version: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish request body: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

// doRequest performs a POST, mapping transport failures to ErrUnreachable.
func (c *Client) doRequest(ctx context.Context, path string, body []byte, contentType string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", c.ClientTag)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s: %w: %w", path, ErrUnreachable, err)
	}
	return resp, nil
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusError is a non-2xx reply. It unwraps to ErrNotFound, ErrServer or
// ErrStatus.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s failed with status %d", e.Op, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode >= 500:
		return ErrServer
	default:
		return ErrStatus
	}
}

// checkStatus returns a StatusError for non-2xx responses. It consumes the
// body in that case.
func checkStatus(resp *http.Response, op string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Error != "" {
			msg = errResp.Error
		} else if errResp.Message != "" {
			msg = errResp.Message
		}
	}

	return &StatusError{Op: op, StatusCode: resp.StatusCode, Message: msg}
}

// parseResponse parses the response body into the target struct
func parseResponse(resp *http.Response, op string, target any) error {
	defer resp.Body.Close()

	if err := checkStatus(resp, op); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrMalformed, err)
	}
	return nil
}
