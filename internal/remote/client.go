// Package remote is the outbound side of the bridge: signed JSON-over-HTTPS
// calls to the quiz service. Every call fails closed — a transport error or
// a non-200 answer is a hard failure, never a silent success.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/quizlink/quizlink-bridge/internal/token"
)

// ErrRemote wraps every failed quiz-service call.
var ErrRemote = errors.New("remote: quiz service call failed")

const versionHeader = "X-Plugin-Version"

type Client struct {
	HTTP        *http.Client
	BaseURL     string
	AccessKeyID string
	Version     string
	Signer      *token.Signer
	Log         zerolog.Logger
}

func NewClient(baseURL, accessKeyID, version string, signer *token.Signer, log zerolog.Logger) *Client {
	return &Client{
		HTTP:        &http.Client{Timeout: 15 * time.Second},
		BaseURL:     baseURL,
		AccessKeyID: accessKeyID,
		Version:     version,
		Signer:      signer,
		Log:         log,
	}
}

func (c *Client) url(path string) string {
	base := c.BaseURL
	if base != "" && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + path
}

func (c *Client) get(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemote, err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, rawURL string, body, out interface{}) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemote, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemote, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set(versionHeader, c.Version)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemote, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s: %d %s", ErrRemote, req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(b))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrRemote, err)
	}
	return nil
}
