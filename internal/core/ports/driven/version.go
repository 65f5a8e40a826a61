package driven

import "context"

// VersionResolver determines the current version of a documentation
// source, e.g. from its repository's releases or tags.
type VersionResolver interface {
	// Resolve returns the version string for the origin, or "unknown"
	// when none can be determined.
	Resolve(ctx context.Context, origin string) string
}
