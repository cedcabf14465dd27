// Package upload delivers passed claims to their destinations: the local
// claim store and, optionally, a remote claims service.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/banshee-data/geoclaim/internal/httputil"
	"github.com/banshee-data/geoclaim/internal/session"
	"github.com/banshee-data/geoclaim/internal/version"
)

// maxErrorBody bounds how much of a failed response is quoted in errors.
const maxErrorBody = 256

// HTTPUploader POSTs claims as JSON to a remote endpoint.
type HTTPUploader struct {
	client httputil.HTTPClient
	url    string
	token  string
}

// NewHTTPUploader posts to url. A non-empty token is sent as a bearer
// token. A nil client uses http.DefaultClient.
func NewHTTPUploader(client httputil.HTTPClient, url, token string) *HTTPUploader {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPUploader{client: client, url: url, token: token}
}

// Upload sends c and treats any 2xx status as success.
func (u *HTTPUploader) Upload(ctx context.Context, c session.Claim) error {
	body, err := json.Marshal(c)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "geoclaim/"+version.Version)
	req.Header.Set("Idempotency-Key", c.ID)
	if u.token != "" {
		req.Header.Set("Authorization", "Bearer "+u.token)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload claim %s: %w", c.ID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("upload claim %s: %s: %s", c.ID, resp.Status, strings.TrimSpace(string(snippet)))
	}
	return nil
}

// Fanout delivers each claim to every uploader, even when an earlier one
// fails, and joins their errors.
type Fanout []session.Uploader

func (f Fanout) Upload(ctx context.Context, c session.Claim) error {
	var errs []error
	for _, u := range f {
		if err := u.Upload(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
