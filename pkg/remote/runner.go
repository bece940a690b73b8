package remote

import (
	"context"
)

// Runner is the command channel to cluster nodes. Exec returns the remote
// exit code and output lines; err is non-nil only when the command could not
// be attempted at all. A nonzero exit code with output is a normal result.
type Runner interface {
	Exec(ctx context.Context, node, command string) (rc int, output []string, err error)
	Copy(ctx context.Context, src, dst string) error
}

// ExecAsync runs the command without waiting for completion. Failures to
// launch are reported through errFn; the remote exit code is discarded.
func ExecAsync(ctx context.Context, r Runner, node, command string, errFn func(error)) {
	go func() {
		if _, _, err := r.Exec(ctx, node, command); err != nil && errFn != nil {
			errFn(err)
		}
	}()
}
