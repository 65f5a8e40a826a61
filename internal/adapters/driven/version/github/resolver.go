// Package github resolves documentation source versions from GitHub
// releases and tags.
package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/docdex-io/docdex/internal/core/ports/driven"
	"github.com/docdex-io/docdex/internal/logger"
)

// Ensure Resolver implements the interface.
var _ driven.VersionResolver = (*Resolver)(nil)

// UnknownVersion is returned when no version can be determined.
const UnknownVersion = "unknown"

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Resolver looks up the latest release of a source's repository,
// falling back to the newest tag for repositories without releases.
type Resolver struct {
	gh *gh.Client
}

// Option configures the resolver.
type Option func(*Resolver) error

// WithToken authenticates requests, raising the API rate limit.
func WithToken(token string) Option {
	return func(r *Resolver) error {
		r.gh = r.gh.WithAuthToken(token)
		return nil
	}
}

// WithBaseURL points the resolver at a different API endpoint.
func WithBaseURL(url string) Option {
	return func(r *Resolver) error {
		client, err := r.gh.WithEnterpriseURLs(url, url)
		if err != nil {
			return fmt.Errorf("setting base URL: %w", err)
		}
		r.gh = client
		return nil
	}
}

// NewResolver creates a GitHub version resolver. Unauthenticated
// access suffices for public documentation repositories.
func NewResolver(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		gh: gh.NewClient(&http.Client{Timeout: DefaultTimeout}),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Resolve returns the version of the repository named by origin.
// Origin accepts "owner/name" or a github.com URL. Failures degrade to
// UnknownVersion; a source without a resolvable version is still usable.
func (r *Resolver) Resolve(ctx context.Context, origin string) string {
	owner, repo, ok := splitOrigin(origin)
	if !ok {
		logger.Debug("version: origin %q is not a GitHub repository", origin)
		return UnknownVersion
	}

	release, _, err := r.gh.Repositories.GetLatestRelease(ctx, owner, repo)
	if err == nil && release.GetTagName() != "" {
		return strings.TrimPrefix(release.GetTagName(), "v")
	}

	// Repositories without releases often still tag versions.
	tags, _, err := r.gh.Repositories.ListTags(ctx, owner, repo, &gh.ListOptions{PerPage: 1})
	if err != nil || len(tags) == 0 {
		logger.Debug("version: no release or tag for %s/%s", owner, repo)
		return UnknownVersion
	}
	return strings.TrimPrefix(tags[0].GetName(), "v")
}

// splitOrigin extracts owner and repository from an origin string.
func splitOrigin(origin string) (owner, repo string, ok bool) {
	origin = strings.TrimSuffix(origin, ".git")
	origin = strings.TrimPrefix(origin, "https://")
	origin = strings.TrimPrefix(origin, "http://")
	origin = strings.TrimPrefix(origin, "github.com/")

	parts := strings.Split(strings.Trim(origin, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
