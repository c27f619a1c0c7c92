// Package metadata fetches the off-chain JSON document a token URI points
// at.
package metadata

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const maxDocumentSize = 1 << 20

var empty = []byte("{}")

type Fetcher struct {
	client *retryablehttp.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := retryablehttp.NewClient()
	client.RetryMax = 1
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 500 * time.Millisecond
	client.HTTPClient.Timeout = timeout
	client.Logger = nil

	return &Fetcher{client: client}
}

// Fetch returns the metadata document at uri. Any failure yields an empty
// object so callers never have to branch on it.
func (f *Fetcher) Fetch(ctx context.Context, uri string) []byte {
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		return empty
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return empty
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		log.WithFields(log.Fields{
			"uri":   uri,
			"error": err.Error(),
		}).Debug("Metadata fetch failed")
		return empty
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithFields(log.Fields{
			"uri":    uri,
			"status": resp.StatusCode,
		}).Debug("Metadata fetch returned non-200")
		return empty
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil || !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return empty
	}
	return raw
}
