// Package tfe implements the read-only API client for the remote
// Terraform-Enterprise-style service: JSON:API metadata calls and
// gzip-compressed archive downloads.
package tfe

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/ml4/tfe-probe/pkg/config"
	"github.com/ml4/tfe-probe/pkg/fault"
)

// Client issues authenticated read requests against the remote service.
// There is deliberately no timeout, retry or backoff: any transport error
// is terminal for the audit.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient builds a client from the environment configuration. The trust
// anchor named by the configuration is loaded into the transport's root
// pool.
func NewClient(cfg *config.Config, log zerolog.Logger) (*Client, error) {
	pem, err := os.ReadFile(cfg.CACertFile)
	if err != nil {
		return nil, fault.Preconditionf("reading CA certificate %s: %v", cfg.CACertFile, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fault.Preconditionf("no certificates found in %s", cfg.CACertFile)
	}

	return &Client{
		baseURL: cfg.Address,
		token:   cfg.Token,
		httpClient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{RootCAs: pool},
			},
		},
		log: log,
	}, nil
}

// doRequest performs an authenticated GET against an /api/v2 path.
func (c *Client) doRequest(ctx context.Context, path string) (*http.Response, error) {
	url := c.baseURL + "/api/v2" + path

	c.log.Debug().Str("url", url).Msg("calling service")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/vnd.api+json")

	return c.httpClient.Do(req)
}

// get fetches a metadata path and decodes the JSON response body into out.
// A transport failure or a malformed body is a transport fault.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	resp, err := c.doRequest(ctx, path)
	if err != nil {
		return fault.Transportf("request to %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fault.Transportf("reading response from %s: %v", path, err)
	}

	c.log.Debug().Str("path", path).Str("payload", string(body)).Msg("raw payload")

	if err := json.Unmarshal(body, out); err != nil {
		return fault.Transportf("malformed response from %s: %v", path, err)
	}
	return nil
}

// Download fetches a binary path, treats the body as a gzip-compressed
// stream, decompresses it in memory and writes the result to dest in a
// single write.
func (c *Client) Download(ctx context.Context, path, dest string) error {
	resp, err := c.doRequest(ctx, path)
	if err != nil {
		return fault.Transportf("download from %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		return fault.Transportf("response body from %s is not gzip: %v", path, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, zr); err != nil {
		return fault.Transportf("decompressing response from %s: %v", path, err)
	}
	if err := zr.Close(); err != nil {
		return fault.Transportf("decompressing response from %s: %v", path, err)
	}

	if err := os.WriteFile(dest, buf.Bytes(), 0644); err != nil {
		return fault.Filesystemf("writing archive to %s: %v", dest, err)
	}

	c.log.Debug().Str("path", path).Str("dest", dest).Int("bytes", buf.Len()).Msg("archive downloaded")
	return nil
}
