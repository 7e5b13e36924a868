// Package update checks the published release manifest for a newer richcord.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"tools.zach/dev/richcord/internal/paths"
)

// ManifestURL is the release manifest location. Set at build time via
//
//	-X tools.zach/dev/richcord/internal/update.ManifestURL=https://.../.release-manifest.json
//
// An empty value disables the check.
var ManifestURL string

// Result is the outcome of a version check.
type Result struct {
	Current string
	Latest  string
	// Newer is true when Latest is a higher version than Current.
	Newer bool
}

// Checker fetches the manifest over a retrying HTTP client.
type Checker struct {
	url    string
	client *retryablehttp.Client
}

// NewChecker returns a Checker for the manifest at url.
func NewChecker(url string) *Checker {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.HTTPClient.Timeout = 5 * time.Second
	client.Logger = nil
	return &Checker{url: url, client: client}
}

// Latest returns the release version stored under the manifest's "." key.
func (c *Checker) Latest(ctx context.Context) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", paths.ReleaseManifest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", paths.ReleaseManifest, resp.StatusCode)
	}

	var manifest map[string]string
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&manifest); err != nil {
		return "", fmt.Errorf("parse %s: %w", paths.ReleaseManifest, err)
	}
	return manifest["."], nil
}

// Check compares current against the published release.
func (c *Checker) Check(ctx context.Context, current string) (Result, error) {
	latest, err := c.Latest(ctx)
	if err != nil {
		return Result{Current: current}, err
	}
	return Result{Current: current, Latest: latest, Newer: Less(current, latest)}, nil
}

// Notify runs a check against [ManifestURL] and logs when a newer release
// exists. Failures are logged at debug level only.
func Notify(ctx context.Context, current string) {
	if ManifestURL == "" {
		slog.Debug("skipping version check: no manifest URL")
		return
	}
	res, err := NewChecker(ManifestURL).Check(ctx, current)
	if err != nil {
		slog.Debug("version check failed", "error", err)
		return
	}
	if res.Newer {
		slog.Info("new version available", "current", res.Current, "latest", res.Latest)
	}
}

// ///////////////////////////////////////////////
// Version Comparison
// ///////////////////////////////////////////////

type semver struct {
	core [3]int
	pre  bool
}

// parse reads "v1.2.3", "1.2.3-rc.1" or "1.2.3+build". ok is false for
// anything else.
func parse(s string) (v semver, ok bool) {
	s = strings.TrimPrefix(s, "v")
	if i := strings.IndexByte(s, '+'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '-'); i >= 0 {
		s, v.pre = s[:i], true
	}
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return semver{}, false
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || p == "" || p[0] == '+' {
			return semver{}, false
		}
		v.core[i] = n
	}
	return v, true
}

// Less reports whether version a sorts before b. A pre-release sorts before
// its release. Unparseable versions never compare less.
func Less(a, b string) bool {
	va, okA := parse(a)
	vb, okB := parse(b)
	if !okA || !okB {
		return false
	}
	for i := range va.core {
		if va.core[i] != vb.core[i] {
			return va.core[i] < vb.core[i]
		}
	}
	return va.pre && !vb.pre
}
