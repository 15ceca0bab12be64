// Package launch starts the Java application with the resolved class path.
package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Spec describes one launch.
type Spec struct {
	Java              string   // Path to the java binary
	ContentDir        string   // Directory whose *.jar files form the class path
	Entrypoint        string   // Main class
	Args              []string // Extra program arguments
	BootstrapCommands []string // Lines written to the child's stdin before the user's input

	Stdin  io.Reader // Defaults to os.Stdin
	Stdout io.Writer // Defaults to os.Stdout
	Stderr io.Writer // Defaults to os.Stderr
}

// ClassPath returns the wildcard class path for dir.
func ClassPath(dir string) string {
	return filepath.Join(dir, "*")
}

// args returns the java command line for s.
func (s Spec) args() []string {
	args := []string{"-cp", ClassPath(s.ContentDir), s.Entrypoint}
	return append(args, s.Args...)
}

// Preamble is the bootstrap command block: the commands joined by newlines
// with a trailing newline, or empty when there are none.
func Preamble(commands []string) string {
	if len(commands) == 0 {
		return ""
	}
	return strings.Join(commands, "\n") + "\n"
}

// Run starts java, feeds the bootstrap commands followed by Stdin, and waits
// for it to exit. The returned code is the child's exit status; err is set
// only when the process could not be started or waited on. Cancelling ctx
// kills the child.
func Run(ctx context.Context, s Spec) (int, error) {
	if s.Java == "" {
		return -1, errors.New("launch: no java binary")
	}
	if s.Entrypoint == "" {
		return -1, errors.New("launch: no entrypoint")
	}
	if s.Stdin == nil {
		s.Stdin = os.Stdin
	}
	if s.Stdout == nil {
		s.Stdout = os.Stdout
	}
	if s.Stderr == nil {
		s.Stderr = os.Stderr
	}

	cmd := exec.CommandContext(ctx, s.Java, s.args()...)
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr

	preamble := Preamble(s.BootstrapCommands)
	file, isFile := s.Stdin.(*os.File)
	if preamble == "" && isFile {
		cmd.Stdin = file
		if err := cmd.Start(); err != nil {
			return -1, fmt.Errorf("launch %s: %w", s.Java, err)
		}
		return wait(ctx, cmd)
	}

	// Anything else is fed through a pipe from a goroutine that Wait does
	// not join: a copy blocked on the terminal must not outlive the child.
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return -1, err
	}
	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("launch %s: %w", s.Java, err)
	}
	go feed(stdin, preamble, s.Stdin)
	return wait(ctx, cmd)
}

// feed writes the preamble then forwards user input until either side
// closes. Write errors mean the child is gone.
func feed(w io.WriteCloser, preamble string, user io.Reader) {
	defer w.Close()
	if _, err := io.WriteString(w, preamble); err != nil {
		return
	}
	_, _ = io.Copy(w, user)
}

func wait(ctx context.Context, cmd *exec.Cmd) (int, error) {
	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ctx.Err() != nil {
			return exitErr.ExitCode(), ctx.Err()
		}
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
