package remote

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"
	"golang.org/x/sync/errgroup"
)

// DefaultUpdateParallelism bounds concurrent pulls in Update.
const DefaultUpdateParallelism = 4

// Repo is one cloned ref.
type Repo struct {
	Host string
	User string
	Name string
	Ref  string
	Dir  string
}

// String renders host/user/repo/ref.
func (r Repo) String() string {
	return strings.Join([]string{r.Host, r.User, r.Name, r.Ref}, "/")
}

// Pinned reports whether the ref is a semantic version tag. Tags never move,
// so pinned clones are skipped by Update.
func (r Repo) Pinned() bool {
	return semver.IsValid(r.Ref)
}

// Repos walks the host/user/repo/ref layout and returns every directory
// holding a clone, sorted by repository and then newest version first.
func (f *Fetcher) Repos() ([]Repo, error) {
	var repos []Repo
	hosts, err := readDirs(f.baseDir)
	if err != nil {
		return nil, err
	}
	for _, host := range hosts {
		users, _ := readDirs(filepath.Join(f.baseDir, host))
		for _, user := range users {
			names, _ := readDirs(filepath.Join(f.baseDir, host, user))
			for _, name := range names {
				refs, _ := readDirs(filepath.Join(f.baseDir, host, user, name))
				for _, ref := range refs {
					dir := filepath.Join(f.baseDir, host, user, name, ref)
					if hasClone(dir) {
						repos = append(repos, Repo{Host: host, User: user, Name: name, Ref: ref, Dir: dir})
					}
				}
			}
		}
	}
	slices.SortFunc(repos, compareRepos)
	return repos, nil
}

func compareRepos(a, b Repo) int {
	if c := strings.Compare(a.Host+"/"+a.User+"/"+a.Name, b.Host+"/"+b.User+"/"+b.Name); c != 0 {
		return c
	}
	if semver.IsValid(a.Ref) && semver.IsValid(b.Ref) {
		return semver.Compare(b.Ref, a.Ref)
	}
	return strings.Compare(a.Ref, b.Ref)
}

// readDirs lists subdirectory names. A missing directory is empty.
func readDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// RepoInfo is a listed clone with its last commit.
type RepoInfo struct {
	Repo   Repo
	Commit string
	Err    error
}

// List returns every clone with its last commit.
func (f *Fetcher) List(ctx context.Context) ([]RepoInfo, error) {
	repos, err := f.Repos()
	if err != nil {
		return nil, err
	}
	infos := make([]RepoInfo, len(repos))
	for i, repo := range repos {
		commit, err := f.git.LastCommit(ctx, repo.Dir)
		infos[i] = RepoInfo{Repo: repo, Commit: commit, Err: err}
	}
	return infos, nil
}

type UpdateStatus string

const (
	UpdateStatusUpdated UpdateStatus = "updated"
	UpdateStatusPinned  UpdateStatus = "pinned"
	UpdateStatusFailed  UpdateStatus = "failed"
)

// UpdateResult is the outcome of updating one clone.
type UpdateResult struct {
	Repo    Repo
	Status  UpdateStatus
	Message string
	Err     error
}

// Update fast-forwards every clone, up to parallelism at a time. A failing
// repository does not stop the others; results are in Repos order.
func (f *Fetcher) Update(ctx context.Context, parallelism int) ([]UpdateResult, error) {
	repos, err := f.Repos()
	if err != nil {
		return nil, err
	}
	if parallelism < 1 {
		parallelism = DefaultUpdateParallelism
	}

	results := make([]UpdateResult, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, repo := range repos {
		g.Go(func() error {
			results[i] = f.updateOne(gctx, repo)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (f *Fetcher) updateOne(ctx context.Context, repo Repo) UpdateResult {
	if repo.Pinned() {
		return UpdateResult{Repo: repo, Status: UpdateStatusPinned, Message: "pinned to " + repo.Ref}
	}
	out, err := f.git.PullFastForward(ctx, repo.Dir)
	if err != nil {
		zap.L().Warn("Failed to update remote plugin repository", zap.String("repo", repo.String()), zap.Error(err))
		return UpdateResult{Repo: repo, Status: UpdateStatusFailed, Message: err.Error(), Err: err}
	}
	return UpdateResult{Repo: repo, Status: UpdateStatusUpdated, Message: out}
}
