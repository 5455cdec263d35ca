package iiif

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/siherrmann/inscriber/config"
	"github.com/siherrmann/inscriber/helper"
	"github.com/siherrmann/inscriber/model"
)

// maxTextBytes bounds the size of a text/plain rendering.
const maxTextBytes = 16 << 20

// Client fetches manifests, text renderings and images over HTTP.
type Client struct {
	http       *http.Client
	attempts   uint
	retryDelay time.Duration
	userAgent  string
	logger     *slog.Logger
}

// NewClient creates a client from the HTTP configuration.
func NewClient(cfg config.HTTPConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:       &http.Client{Timeout: cfg.Timeout},
		attempts:   cfg.Retries + 1,
		retryDelay: cfg.RetryDelay,
		userAgent:  cfg.UserAgent,
		logger:     logger,
	}
}

// statusError is returned for non-success HTTP responses.
type statusError struct {
	URI    string
	Status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URI, e.Status)
}

// get performs a GET with retries and hands the successful response body to fn.
// Client errors other than 408 and 429 are not retried.
func (c *Client) get(ctx context.Context, uri string, fn func(body io.Reader) error) error {
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if c.userAgent != "" {
				req.Header.Set("User-Agent", c.userAgent)
			}

			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
				statusErr := &statusError{URI: uri, Status: resp.StatusCode}
				if resp.StatusCode >= 400 && resp.StatusCode < 500 &&
					resp.StatusCode != http.StatusRequestTimeout &&
					resp.StatusCode != http.StatusTooManyRequests {
					return retry.Unrecoverable(statusErr)
				}
				return statusErr
			}
			return fn(resp.Body)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("Retrying request", slog.String("uri", uri), slog.Uint64("attempt", uint64(n+1)), slog.String("error", err.Error()))
		}),
	)
}

// FetchManifest downloads, validates and decodes a manifest.
// Transport failures yield helper.ErrManifestUnavailable, malformed documents helper.ErrManifestSchema.
func (c *Client) FetchManifest(ctx context.Context, uri string) (*model.Manifest, error) {
	c.logger.Debug("Downloading manifest", slog.String("uri", uri))

	var data []byte
	err := c.get(ctx, uri, func(body io.Reader) error {
		var err error
		data, err = io.ReadAll(body)
		return err
	})
	if err != nil {
		return nil, helper.Kind(helper.ErrManifestUnavailable, uri, err)
	}

	manifest, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	if !manifest.HasSequences() {
		c.logger.Warn("Manifest has no sequences", slog.String("uri", uri), slog.String("id", manifest.ID()))
	}
	return manifest, nil
}

// FetchText downloads a text/plain rendering and trims surrounding whitespace.
func (c *Client) FetchText(ctx context.Context, uri string) (string, error) {
	var text string
	err := c.get(ctx, uri, func(body io.Reader) error {
		data, err := io.ReadAll(io.LimitReader(body, maxTextBytes))
		if err != nil {
			return err
		}
		text = strings.TrimSpace(string(data))
		return nil
	})
	if err != nil {
		return "", helper.NewError("fetch text rendering", err)
	}
	return text, nil
}

// DownloadImage streams uri into path. The body is written to a temporary file
// next to path and renamed on success. Any failure yields helper.ErrImageUnavailable.
func (c *Client) DownloadImage(ctx context.Context, uri string, path string) error {
	c.logger.Debug("Downloading image", slog.String("uri", uri), slog.String("path", path))

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return helper.Kind(helper.ErrImageUnavailable, path, err)
	}

	err := c.get(ctx, uri, func(body io.Reader) error {
		tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.part")
		if err != nil {
			return retry.Unrecoverable(err)
		}
		tmpName := tmp.Name()
		defer func() {
			_ = os.Remove(tmpName)
		}()

		if _, err := io.Copy(tmp, body); err != nil {
			_ = tmp.Close()
			return err
		}
		if err := tmp.Close(); err != nil {
			return retry.Unrecoverable(err)
		}
		if err := os.Rename(tmpName, path); err != nil {
			return retry.Unrecoverable(err)
		}
		return nil
	})
	if err != nil {
		return helper.Kind(helper.ErrImageUnavailable, uri, err)
	}
	return nil
}

// IsNotFound reports whether err was caused by a 404 response.
func IsNotFound(err error) bool {
	var statusErr *statusError
	return errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound
}
