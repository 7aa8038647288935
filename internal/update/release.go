package update

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/mod/semver"
)

// ReleaseClient resolves the latest published version by following the
// releases/latest redirect, whose final URL ends in the release tag.
type ReleaseClient struct {
	url   string
	resty *resty.Client
}

// NewReleaseClient creates a client for latestURL, e.g.
// https://github.com/<owner>/<repo>/releases/latest.
func NewReleaseClient(latestURL string, timeout time.Duration) *ReleaseClient {
	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetHeader("User-Agent", "droidprune-update-check")
	return &ReleaseClient{url: latestURL, resty: client}
}

// Latest returns the latest version without a leading "v".
func (c *ReleaseClient) Latest(ctx context.Context) (string, error) {
	resp, err := c.resty.R().SetContext(ctx).Get(c.url)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("server returned status code: %d", resp.StatusCode())
	}

	final := resp.RawResponse.Request.URL
	if !strings.Contains(final.Path, "/releases/tag/") {
		return "", fmt.Errorf("could not determine latest version from %s", final)
	}

	tag := path.Base(final.Path)
	return strings.TrimPrefix(tag, "v"), nil
}

// IsOutdated reports whether latest is a newer semantic version than
// current. Versions that do not parse are never considered outdated.
func IsOutdated(latest, current string) bool {
	l, c := canonical(latest), canonical(current)
	if !semver.IsValid(l) || !semver.IsValid(c) {
		return false
	}
	return semver.Compare(l, c) > 0
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
