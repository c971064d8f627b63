package persist

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Sink сохраняет файл истории куда-то за пределы рабочей копии.
type Sink interface {
	Persist(ctx context.Context, path string) error
}

// NopSink - когда коммит выключен.
type NopSink struct{}

func (NopSink) Persist(context.Context, string) error { return nil }

const defaultCommitMessage = "Update flight price history"

type runFunc func(ctx context.Context, dir string, name string, args ...string) ([]byte, error)

// GitSink коммитит файл истории и пушит в upstream текущей ветки.
type GitSink struct {
	Dir     string
	Message string
	run     runFunc
}

func NewGitSink(dir string) *GitSink {
	return &GitSink{Dir: dir, Message: defaultCommitMessage, run: runCommand}
}

func (g *GitSink) Persist(ctx context.Context, path string) error {
	rel := path
	if filepath.IsAbs(path) {
		if r, err := filepath.Rel(g.Dir, path); err == nil {
			rel = r
		}
	}

	steps := [][]string{
		{"add", "--", rel},
		{"commit", "-m", g.Message, "--", rel},
		{"push"},
	}
	for _, args := range steps {
		if out, err := g.run(ctx, g.Dir, "git", args...); err != nil {
			return fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
		}
	}
	return nil
}

func runCommand(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}
