// Package upload sends winner archives to the gallery service.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/baldhumanity/artlife-go/artlife"
)

// Response is the JSON body returned by the upload endpoint.
type Response struct {
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Client posts GIF archives as multipart form uploads.
type Client struct {
	URL        string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

var _ artlife.Notifier = (*Client)(nil)

// NewClient creates an uploader for the given endpoint.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		URL:        url,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     slog.Default(),
	}
}

// Notify uploads the archive at path.
func (c *Client) Notify(ctx context.Context, path string) error {
	_, err := c.Upload(ctx, path)
	return err
}

// Upload posts one .gif file in the form field "file" and returns the
// public URL reported by the server.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	if !strings.EqualFold(filepath.Ext(path), ".gif") {
		return "", fmt.Errorf("only gif archives can be uploaded, got '%s'", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read archive '%s': %w", path, err)
	}

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(path)))
	header.Set("Content-Type", "image/gif")
	part, err := form.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, body)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	c.logger().Info("uploading archive", "file", filepath.Base(path), "size", humanize.Bytes(uint64(len(data))), "url", c.URL)
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var reply Response
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", fmt.Errorf("failed to parse upload response: %w", err)
	}
	if reply.Status != "ok" {
		return "", fmt.Errorf("upload rejected: %s", reply.Detail)
	}
	c.logger().Info("archive uploaded", "file", filepath.Base(path), "url", reply.URL)
	return reply.URL, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
