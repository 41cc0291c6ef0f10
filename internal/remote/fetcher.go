package remote

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/dorcha-inc/pal/internal/core"
)

// Fetcher materializes remote locators under a base directory.
type Fetcher struct {
	baseDir string
	git     GitRunner
	ensured *xsync.MapOf[string, string]
}

// NewFetcher creates a fetcher storing clones under baseDir.
func NewFetcher(baseDir string, git GitRunner) *Fetcher {
	return &Fetcher{
		baseDir: baseDir,
		git:     git,
		ensured: xsync.NewMapOf[string, string](),
	}
}

// BaseDir returns the directory clones are stored under.
func (f *Fetcher) BaseDir() string {
	return f.baseDir
}

// IsRemote reports whether location is a remote locator.
func (f *Fetcher) IsRemote(location string) bool {
	return IsRemote(location)
}

// Ensure returns the local directory of the plugin at raw, cloning the
// repository or adding the path to its sparse checkout when needed. It is
// idempotent: a present clone is not cloned again and a present path is not
// added again.
func (f *Fetcher) Ensure(ctx context.Context, raw string) (string, error) {
	loc, err := ParseLocator(raw)
	if err != nil {
		return "", err
	}
	key := loc.String()
	if dir, ok := f.ensured.Load(key); ok {
		return dir, nil
	}

	dir, err := f.ensure(ctx, loc)
	if err != nil {
		return "", err
	}
	f.ensured.Store(key, dir)
	return dir, nil
}

func (f *Fetcher) ensure(ctx context.Context, loc Locator) (string, error) {
	repoDir := loc.RepoDir(f.baseDir)
	pluginDir := loc.PluginDir(f.baseDir)
	if hasClone(repoDir) && core.IsDir(pluginDir) {
		return pluginDir, nil
	}

	// Serialize first-time fetches of one ref across processes, then look
	// again: another process may have finished while we waited.
	unlock, err := acquireLock(repoDir + ".lock")
	if err != nil {
		return "", NewFetchError(loc.String(), "lock", err)
	}
	defer core.LogDeferredError(unlock)

	if !hasClone(repoDir) {
		// #nosec G301 -- plugin data directory
		if err := os.MkdirAll(filepath.Dir(repoDir), 0755); err != nil {
			return "", NewFetchError(loc.String(), "clone", err)
		}
		zap.L().Info("Cloning remote plugin repository",
			zap.String("url", loc.CloneURL()),
			zap.String("ref", loc.Ref),
			zap.String("dir", repoDir))
		if err := f.git.SparseClone(ctx, loc.CloneURL(), loc.Ref, repoDir); err != nil {
			return "", NewFetchError(loc.String(), "clone", err)
		}
	}

	if !core.IsDir(pluginDir) {
		zap.L().Info("Adding plugin path to sparse checkout", zap.String("path", loc.Path), zap.String("repo", repoDir))
		if err := f.git.SparseCheckoutAdd(ctx, repoDir, loc.Path); err != nil {
			return "", NewFetchError(loc.String(), "sparse-checkout", err)
		}
		if !core.IsDir(pluginDir) {
			return "", NewFetchError(loc.String(), "sparse-checkout",
				fmt.Errorf("path %s does not exist at ref %s", loc.Path, loc.Ref))
		}
	}

	return pluginDir, nil
}

func hasClone(repoDir string) bool {
	return core.Exists(filepath.Join(repoDir, ".git"))
}
