package remote

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// GitRunner is an interface for running git commands, allowing for testing with mocks
type GitRunner interface {
	// SparseClone makes a shallow, blob-filtered, sparse clone of ref.
	SparseClone(ctx context.Context, url, ref, targetPath string) error
	// SparseCheckoutAdd adds path to the sparse checkout of repoPath.
	SparseCheckoutAdd(ctx context.Context, repoPath, path string) error
	// PullFastForward fast-forwards repoPath and returns git's summary.
	PullFastForward(ctx context.Context, repoPath string) (string, error)
	// LastCommit describes HEAD as "<short-hash> <relative-date>".
	LastCommit(ctx context.Context, repoPath string) (string, error)
}

// execGitRunner implements GitRunner using exec.CommandContext
type execGitRunner struct {
	gitPath string
}

// NewExecGitRunner returns a GitRunner backed by the git binary on PATH.
func NewExecGitRunner() GitRunner {
	return &execGitRunner{gitPath: "git"}
}

func (e *execGitRunner) run(ctx context.Context, args ...string) (string, error) {
	if _, err := exec.LookPath(e.gitPath); err != nil {
		return "", fmt.Errorf("git is required for remote plugins: %w", err)
	}
	// #nosec G204 -- arguments come from a parsed locator
	cmd := exec.CommandContext(ctx, e.gitPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w, output: %s", args[0], err, strings.TrimSpace(string(output)))
	}
	return strings.TrimSpace(string(output)), nil
}

func (e *execGitRunner) SparseClone(ctx context.Context, url, ref, targetPath string) error {
	_, err := e.run(ctx, "clone", "--sparse", "--filter=blob:none", "--depth=1", "--branch", ref, url, targetPath)
	return err
}

func (e *execGitRunner) SparseCheckoutAdd(ctx context.Context, repoPath, path string) error {
	_, err := e.run(ctx, "-C", repoPath, "sparse-checkout", "add", path)
	return err
}

func (e *execGitRunner) PullFastForward(ctx context.Context, repoPath string) (string, error) {
	return e.run(ctx, "-C", repoPath, "pull", "--ff-only")
}

func (e *execGitRunner) LastCommit(ctx context.Context, repoPath string) (string, error) {
	return e.run(ctx, "-C", repoPath, "log", "-1", "--format=%h %ar")
}

// Interface guard
var _ GitRunner = &execGitRunner{}

// CloneCall records one SparseClone invocation.
type CloneCall struct {
	URL, Ref, TargetPath string
}

// AddCall records one SparseCheckoutAdd invocation.
type AddCall struct {
	RepoPath, Path string
}

// MockGitRunner is a mock implementation of GitRunner for testing
// It can be used across packages to test code that depends on GitRunner.
// It is safe for concurrent use.
type MockGitRunner struct {
	CloneErr      error
	AddErr        error
	PullErr       error
	PullOutput    string
	Commit        string
	CloneFunc     func(url, ref, targetPath string) error
	AddFunc       func(repoPath, path string) error
	PullFunc      func(repoPath string) (string, error)
	CloneCalls    []CloneCall
	AddCalls      []AddCall
	PullCalls     []string
	LastCommitErr error

	mu sync.Mutex
}

func (m *MockGitRunner) SparseClone(_ context.Context, url, ref, targetPath string) error {
	m.mu.Lock()
	m.CloneCalls = append(m.CloneCalls, CloneCall{URL: url, Ref: ref, TargetPath: targetPath})
	m.mu.Unlock()
	if m.CloneFunc != nil {
		return m.CloneFunc(url, ref, targetPath)
	}
	return m.CloneErr
}

func (m *MockGitRunner) SparseCheckoutAdd(_ context.Context, repoPath, path string) error {
	m.mu.Lock()
	m.AddCalls = append(m.AddCalls, AddCall{RepoPath: repoPath, Path: path})
	m.mu.Unlock()
	if m.AddFunc != nil {
		return m.AddFunc(repoPath, path)
	}
	return m.AddErr
}

func (m *MockGitRunner) PullFastForward(_ context.Context, repoPath string) (string, error) {
	m.mu.Lock()
	m.PullCalls = append(m.PullCalls, repoPath)
	m.mu.Unlock()
	if m.PullFunc != nil {
		return m.PullFunc(repoPath)
	}
	return m.PullOutput, m.PullErr
}

func (m *MockGitRunner) LastCommit(_ context.Context, _ string) (string, error) {
	return m.Commit, m.LastCommitErr
}

// Interface guard
var _ GitRunner = &MockGitRunner{}
