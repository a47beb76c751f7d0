package gitanalyzer

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/bobbin-dev/bobbin/internal/bobbinerr"
)

// Analyzer is the git-analysis contract. Every operation spawns the
// system git binary in Dir and parses its text output. An empty history
// yields empty collections, never an error; a directory that is not a
// git repository, a missing git binary or non-UTF8 output is a typed
// error.
type Analyzer interface {
	AnalyzeCoupling(ctx context.Context, depth, threshold int, sinceCommit string) ([]FileCoupling, error)
	GetFileChurn(ctx context.Context, since string) (map[string]int, error)
	GetFileHistory(ctx context.Context, file string, limit int) ([]Commit, error)
	ListCommits(ctx context.Context, limit int) ([]Commit, error)
	BlameLines(ctx context.Context, file string, start, end int) ([]BlameLine, error)
	GetCommitFiles(ctx context.Context, commitHash string) ([]string, error)
	GetDiffFiles(ctx context.Context, spec DiffSpec) ([]FileDiff, error)
	GetChangedFiles(ctx context.Context, sinceCommit string) ([]string, error)
}

type analyzer struct {
	dir string
}

// New returns an Analyzer that operates on the repository rooted at dir.
func New(dir string) Analyzer {
	return &analyzer{dir: dir}
}

// run executes git with args in a.dir and returns trimmed stdout.
//
// If the command exits non-zero because there are no commits yet, run
// returns ("", nil) — callers treat that as an empty result, matching
// the "empty history yields empty collections" contract. A genuinely
// fatal condition (git not on PATH,
// "not a git repository", non-UTF8 output) is returned as a typed
// bobbinerr instead.
func (a *analyzer) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = a.dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			if isFatalGitError(stderr.String()) {
				return "", bobbinerr.New(bobbinerr.KindGitUnavailable, "gitanalyzer.run",
					errors.New(strings.TrimSpace(stderr.String())))
			}
			return "", nil
		}
		return "", bobbinerr.New(bobbinerr.KindGitUnavailable, "gitanalyzer.run", err)
	}
	out := stdout.Bytes()
	if !utf8.Valid(out) {
		return "", bobbinerr.New(bobbinerr.KindGitUnavailable, "gitanalyzer.run",
			errors.New("git output is not valid UTF-8"))
	}
	return strings.TrimRight(string(out), "\n"), nil
}

// isFatalGitError reports whether stderr describes a condition that
// should surface as an error rather than an empty result: a missing
// repository, not the ordinary "no commits match" case.
func isFatalGitError(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "not a git repository") ||
		strings.Contains(s, "fatal: bad revision") && strings.Contains(s, "head")
}

// runLines is run plus splitting into non-empty lines.
func (a *analyzer) runLines(ctx context.Context, args ...string) ([]string, error) {
	out, err := a.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	raw := strings.Split(out, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines, nil
}
