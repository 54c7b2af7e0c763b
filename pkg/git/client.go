package git

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/gilt/pkg/errors"
	"github.com/arthur-debert/gilt/pkg/logging"
	"github.com/rs/zerolog"
)

// Client runs the git operations a checkout needs. Each call runs in dir.
type Client interface {
	// Clone clones repository into dir, which must not exist yet
	Clone(ctx context.Context, repository, dir string) error

	// Fetch updates the remote-tracking refs of the clone at dir
	Fetch(ctx context.Context, dir string) error

	// Checkout switches the clone at dir to ref
	Checkout(ctx context.Context, dir, ref string) error

	// Clean removes untracked and ignored files
	Clean(ctx context.Context, dir string) error

	// Pull fast-forwards the current branch
	Pull(ctx context.Context, dir string) error

	// RevParse resolves rev to a full object name
	RevParse(ctx context.Context, dir, rev string) (string, error)
}

// CommandClient implements Client with the git executable
type CommandClient struct {
	// Binary is the git executable, "git" when empty
	Binary string

	logger zerolog.Logger
}

// NewCommandClient returns a Client backed by the git found on PATH
func NewCommandClient() *CommandClient {
	return &CommandClient{
		Binary: "git",
		logger: logging.GetLogger("git.command"),
	}
}

func (c *CommandClient) Clone(ctx context.Context, repository, dir string) error {
	_, err := c.run(ctx, filepath.Dir(dir), "clone", "--", repository, dir)
	return err
}

func (c *CommandClient) Fetch(ctx context.Context, dir string) error {
	_, err := c.run(ctx, dir, "fetch")
	return err
}

func (c *CommandClient) Checkout(ctx context.Context, dir, ref string) error {
	if strings.HasPrefix(ref, "-") {
		return errors.Newf(errors.ErrInvalidInput, "%q is not a git ref", ref).WithDetail("ref", ref)
	}
	// a trailing -- makes git read ref as a revision and never as a path
	_, err := c.run(ctx, dir, "checkout", ref, "--")
	return err
}

func (c *CommandClient) Clean(ctx context.Context, dir string) error {
	_, err := c.run(ctx, dir, "clean", "-d", "-x", "-f")
	return err
}

func (c *CommandClient) Pull(ctx context.Context, dir string) error {
	_, err := c.run(ctx, dir, "pull", "--rebase", "--ff-only")
	return err
}

func (c *CommandClient) RevParse(ctx context.Context, dir, rev string) (string, error) {
	out, err := c.run(ctx, dir, "rev-parse", rev)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// run executes git with args in dir and returns its stdout
func (c *CommandClient) run(ctx context.Context, dir string, args ...string) (string, error) {
	binary := c.Binary
	if binary == "" {
		binary = "git"
	}

	logging.LogCommand(c.logger, dir, binary, args)

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = dir
	// Never block on a credential prompt
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", errors.Wrapf(ctxErr, errors.ErrInterrupted, "git %s interrupted", args[0]).
				WithDetail("dir", dir)
		}

		giltErr := errors.Wrapf(err, errors.ErrCheckout, "git %s failed", args[0]).
			WithDetail("args", args).
			WithDetail("dir", dir)
		if exitErr, ok := err.(*exec.ExitError); ok {
			giltErr = giltErr.WithDetail("exit_code", exitErr.ExitCode())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			giltErr.Message += ": " + msg
			giltErr = giltErr.WithDetail("stderr", msg)
		}

		c.logger.Debug().
			Err(err).
			Strs("args", args).
			Str("stderr", strings.TrimSpace(stderr.String())).
			Msg("git command failed")
		return "", giltErr
	}

	c.logger.Trace().
		Strs("args", args).
		Str("stdout", strings.TrimSpace(stdout.String())).
		Msg("git command finished")
	return stdout.String(), nil
}
