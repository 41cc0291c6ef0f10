package remote

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeClone(t *testing.T, base string, parts ...string) string {
	t.Helper()
	dir := filepath.Join(append([]string{base}, parts...)...)
	// #nosec G301 -- test directory permissions are acceptable for temporary test files
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0755))
	return dir
}

func TestRepos(t *testing.T) {
	base := t.TempDir()
	makeClone(t, base, "github.com", "zcag", "pal", "main")
	makeClone(t, base, "github.com", "zcag", "pal", "v1.2.0")
	makeClone(t, base, "github.com", "zcag", "pal", "v1.10.0")
	makeClone(t, base, "codeberg.org", "me", "tools", "dev")
	// not clones
	// #nosec G301 -- test directory permissions are acceptable for temporary test files
	require.NoError(t, os.MkdirAll(filepath.Join(base, "github.com", "zcag", "other", "main"), 0755))
	// #nosec G306 -- test file permissions are acceptable for temporary test files
	require.NoError(t, os.WriteFile(filepath.Join(base, "github.com", "zcag", "pal", "main.lock"), nil, 0644))

	repos, err := NewFetcher(base, &MockGitRunner{}).Repos()
	require.NoError(t, err)

	var names []string
	for _, r := range repos {
		names = append(names, r.String())
	}
	assert.Equal(t, []string{
		"codeberg.org/me/tools/dev",
		"github.com/zcag/pal/main",
		"github.com/zcag/pal/v1.10.0",
		"github.com/zcag/pal/v1.2.0",
	}, names)
}

func TestRepos_EmptyBase(t *testing.T) {
	repos, err := NewFetcher(filepath.Join(t.TempDir(), "missing"), &MockGitRunner{}).Repos()
	require.NoError(t, err)
	assert.Empty(t, repos)
}

func TestRepoPinned(t *testing.T) {
	assert.True(t, Repo{Ref: "v1.2.0"}.Pinned())
	assert.True(t, Repo{Ref: "v2"}.Pinned())
	assert.False(t, Repo{Ref: "main"}.Pinned())
	assert.False(t, Repo{Ref: "1.2.0"}.Pinned())
}

func TestList(t *testing.T) {
	base := t.TempDir()
	makeClone(t, base, "github.com", "zcag", "pal", "main")

	infos, err := NewFetcher(base, &MockGitRunner{Commit: "abc1234 2 days ago"}).List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "abc1234 2 days ago", infos[0].Commit)
	assert.NoError(t, infos[0].Err)
}

func TestUpdate(t *testing.T) {
	base := t.TempDir()
	good := makeClone(t, base, "github.com", "a", "good", "main")
	bad := makeClone(t, base, "github.com", "b", "bad", "main")
	pinned := makeClone(t, base, "github.com", "c", "pinned", "v1.0.0")

	git := &MockGitRunner{PullFunc: func(repoPath string) (string, error) {
		if repoPath == bad {
			return "", errors.New("not possible to fast-forward")
		}
		return "Already up to date.", nil
	}}

	results, err := NewFetcher(base, git).Update(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, good, results[0].Repo.Dir)
	assert.Equal(t, UpdateStatusUpdated, results[0].Status)
	assert.Equal(t, "Already up to date.", results[0].Message)

	assert.Equal(t, bad, results[1].Repo.Dir)
	assert.Equal(t, UpdateStatusFailed, results[1].Status)
	assert.Error(t, results[1].Err)

	assert.Equal(t, pinned, results[2].Repo.Dir)
	assert.Equal(t, UpdateStatusPinned, results[2].Status)

	assert.ElementsMatch(t, []string{good, bad}, git.PullCalls)
}
