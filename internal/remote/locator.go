// Package remote fetches plugins from git hosts on demand. A locator such
// as github:user/repo/path@ref is cloned sparsely, pinned to its ref, into
// <data-dir>/plugins/<host>/<user>/<repo>/<ref>/ and only the requested
// path is checked out.
package remote

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultRef is checked out when a locator names no ref.
const DefaultRef = "main"

// Hosts maps locator sources to git hosts.
var Hosts = map[string]string{
	"github":   "github.com",
	"gitlab":   "gitlab.com",
	"codeberg": "codeberg.org",
}

// Locator identifies a plugin directory inside a git repository at a ref.
type Locator struct {
	Source string
	Host   string
	User   string
	Repo   string
	Path   string
	Ref    string
}

// IsRemote reports whether raw starts with a known source prefix.
func IsRemote(raw string) bool {
	source, _, ok := strings.Cut(raw, ":")
	if !ok {
		return false
	}
	_, known := Hosts[source]
	return known
}

// ParseLocator parses source:user/repo/path[@ref].
func ParseLocator(raw string) (Locator, error) {
	source, rest, ok := strings.Cut(raw, ":")
	if !ok {
		return Locator{}, NewLocatorError(raw, "missing source prefix")
	}
	host, known := Hosts[source]
	if !known {
		return Locator{}, NewLocatorError(raw, fmt.Sprintf("unknown source %q", source))
	}

	ref := DefaultRef
	if idx := strings.LastIndex(rest, "@"); idx >= 0 {
		rest, ref = rest[:idx], rest[idx+1:]
		if ref == "" || strings.ContainsAny(ref, `/\`) {
			return Locator{}, NewLocatorError(raw, "ref must be a single non-empty path segment")
		}
	}

	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 3 {
		return Locator{}, NewLocatorError(raw, "expected user/repo/path")
	}

	loc := Locator{
		Source: source,
		Host:   host,
		User:   parts[0],
		Repo:   parts[1],
		Path:   strings.Trim(parts[2], "/"),
		Ref:    ref,
	}
	for _, segment := range loc.segments() {
		if segment == "" || segment == "." || segment == ".." {
			return Locator{}, NewLocatorError(raw, "empty or relative path segment")
		}
	}
	return loc, nil
}

func (l Locator) segments() []string {
	segs := []string{l.User, l.Repo}
	segs = append(segs, strings.Split(l.Path, "/")...)
	return append(segs, l.Ref)
}

// String renders the locator in canonical form, always with a ref.
func (l Locator) String() string {
	return fmt.Sprintf("%s:%s/%s/%s@%s", l.Source, l.User, l.Repo, l.Path, l.Ref)
}

// CloneURL is the https URL git clones from.
func (l Locator) CloneURL() string {
	return fmt.Sprintf("https://%s/%s/%s.git", l.Host, l.User, l.Repo)
}

// RepoDir is where the ref is cloned under base.
func (l Locator) RepoDir(base string) string {
	return filepath.Join(base, l.Host, l.User, l.Repo, l.Ref)
}

// PluginDir is the plugin directory inside the clone.
func (l Locator) PluginDir(base string) string {
	return filepath.Join(l.RepoDir(base), filepath.FromSlash(l.Path))
}
