package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// SSHRunner executes commands on cluster nodes over ssh and moves files with
// scp. Commands addressed to the local host run directly through the shell.
type SSHRunner struct {
	User     string
	hostname string
}

// NewSSHRunner creates a runner that connects as the given user
func NewSSHRunner(user string) *SSHRunner {
	hostname, _ := os.Hostname()
	return &SSHRunner{
		User:     user,
		hostname: hostname,
	}
}

// Exec runs the command on the given node and captures its stdout
func (r *SSHRunner) Exec(ctx context.Context, node, command string) (int, []string, error) {
	name, args := r.execArgs(node, command)
	cmd := exec.CommandContext(ctx, name, args...)

	out, err := cmd.Output()
	rc := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return 0, nil, fmt.Errorf("failed to run command on %s: %w", node, err)
		}
		rc = exitErr.ExitCode()
	}

	return rc, splitLines(out), nil
}

// Copy moves a file between endpoints. Either side may be "path" for the
// local host or "node:path" for a remote one.
func (r *SSHRunner) Copy(ctx context.Context, src, dst string) error {
	args := []string{"-q", "-o", "BatchMode=yes", r.endpoint(src), r.endpoint(dst)}
	cmd := exec.CommandContext(ctx, "scp", args...)

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w (%s)", src, dst, err, bytes.TrimSpace(out))
	}
	return nil
}

func (r *SSHRunner) execArgs(node, command string) (string, []string) {
	if r.isLocal(node) {
		return "sh", []string{"-c", command}
	}

	return "ssh", []string{
		"-n", "-x",
		"-o", "BatchMode=yes",
		"-o", "ConnectTimeout=30",
		"-l", r.User,
		node, command,
	}
}

func (r *SSHRunner) endpoint(ep string) string {
	host, path, ok := strings.Cut(ep, ":")
	if !ok {
		return ep
	}
	if r.isLocal(host) {
		return path
	}
	return r.User + "@" + host + ":" + path
}

func (r *SSHRunner) isLocal(node string) bool {
	if node == "" || node == "localhost" || node == r.hostname {
		return true
	}
	// Compare simple hostnames so that node1 matches node1.example.com
	return simpleName(node) == simpleName(r.hostname) && r.hostname != ""
}

func simpleName(host string) string {
	name, _, _ := strings.Cut(host, ".")
	return name
}

func splitLines(out []byte) []string {
	trimmed := strings.TrimRight(string(out), "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}
