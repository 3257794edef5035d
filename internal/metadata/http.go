// file: internal/metadata/http.go
// version: 1.0.0
// guid: bde920ca-d487-43af-90fb-0a559792478a

package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// UserAgent is sent with every provider request. MusicBrainz and Last.fm
// reject anonymous clients.
const UserAgent = "spit/1.0 ( https://github.com/jdfalk/spit )"

// errNotFound marks a 404 from an upstream; callers turn it into an empty result.
var errNotFound = errors.New("not found")

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// baseURLFromEnv returns the env override for a provider base URL, or def.
func baseURLFromEnv(env, def string) string {
	if v := os.Getenv(env); v != "" {
		return strings.TrimRight(v, "/")
	}
	return def
}

// getJSON performs a GET and decodes a JSON body into out.
// A 404 response yields errNotFound.
func getJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
