package logwatch

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clustermill/proctor/pkg/log"
	"github.com/clustermill/proctor/pkg/remote"
)

// Kind selects the log channel a watch reads from
type Kind string

const (
	// KindFile tails the cluster log file on each node
	KindFile Kind = "file"
	// KindJournal reads the systemd journal on each node
	KindJournal Kind = "journal"
	// KindRemote tails the aggregated log file on the local host
	KindRemote Kind = "remote"
)

// Options configures a Watch
type Options struct {
	Kind     Kind
	File     string // log file path for the file and remote kinds
	Nodes    []string
	Patterns []string
	Timeout  time.Duration
	Name     string // tag for diagnostics
}

// Watch observes log channels for a set of patterns. A watch must be armed
// before the activity of interest so that only new content is considered.
type Watch struct {
	kind     Kind
	file     string
	nodes    []string
	targets  []string
	patterns []*regexp.Regexp
	raw      []string
	timeout  time.Duration
	runner   remote.Runner
	logger   zerolog.Logger

	offsets map[string]int64  // per target, file kinds
	since   map[string]string // per target, journal kind
	matched []bool
	armed   bool
}

// New compiles the patterns and prepares a watch of the given kind
func New(runner remote.Runner, opts Options) (*Watch, error) {
	if len(opts.Patterns) == 0 {
		return nil, fmt.Errorf("no patterns to watch")
	}

	compiled := make([]*regexp.Regexp, 0, len(opts.Patterns))
	for _, p := range opts.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}

	targets := opts.Nodes
	if opts.Kind == KindRemote {
		targets = []string{"localhost"}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Watch{
		kind:     opts.Kind,
		file:     opts.File,
		nodes:    opts.Nodes,
		targets:  targets,
		patterns: compiled,
		raw:      opts.Patterns,
		timeout:  timeout,
		runner:   runner,
		logger:   log.WithComponent("logwatch").With().Str("kind", string(opts.Kind)).Str("watch", opts.Name).Logger(),
	}, nil
}

// Kind returns the channel this watch reads from
func (w *Watch) Kind() Kind {
	return w.kind
}

// Arm records per-target cursors so that later scans see only content
// written after this point. Unreachable targets fall back to reading from
// the start of the channel.
func (w *Watch) Arm(ctx context.Context) {
	w.offsets = make(map[string]int64, len(w.targets))
	w.since = make(map[string]string, len(w.targets))
	w.matched = make([]bool, len(w.patterns))
	w.armed = true

	for _, target := range w.targets {
		switch w.kind {
		case KindJournal:
			// Use the node's own clock to avoid skew in --since
			rc, out, err := w.runner.Exec(ctx, target, `date +"%Y-%m-%d %H:%M:%S"`)
			if err != nil || rc != 0 || len(out) == 0 {
				w.since[target] = time.Now().Format("2006-01-02 15:04:05")
				w.logger.Debug().Str("node", target).Msg("falling back to local clock for journal cursor")
				continue
			}
			w.since[target] = strings.TrimSpace(out[0])

		default:
			rc, out, err := w.runner.Exec(ctx, target, fmt.Sprintf("wc -c < %s", w.file))
			if err != nil || rc != 0 || len(out) == 0 {
				w.offsets[target] = 0
				w.logger.Debug().Str("node", target).Msg("could not size log file, reading from start")
				continue
			}
			size, perr := strconv.ParseInt(strings.TrimSpace(out[0]), 10, 64)
			if perr != nil {
				size = 0
			}
			w.offsets[target] = size
		}
	}
}

// WaitAll polls the watched channels until every pattern has matched at
// least once or the watch times out
func (w *Watch) WaitAll(ctx context.Context) bool {
	if !w.armed {
		return false
	}

	deadline := time.Now().Add(w.timeout)
	for {
		if w.scan(ctx) {
			return true
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		interval := time.Second
		if remaining < interval {
			interval = remaining
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}
	}
}

// Unmatched returns the patterns that have not matched yet
func (w *Watch) Unmatched() []string {
	var unmatched []string
	for i, ok := range w.matched {
		if !ok {
			unmatched = append(unmatched, w.raw[i])
		}
	}
	return unmatched
}

func (w *Watch) scan(ctx context.Context) bool {
	for _, target := range w.targets {
		for _, line := range w.fetch(ctx, target) {
			for i, re := range w.patterns {
				if !w.matched[i] && re.MatchString(line) {
					w.matched[i] = true
					w.logger.Debug().Str("node", target).Str("pattern", w.raw[i]).Msg("pattern matched")
				}
			}
		}
	}

	for _, ok := range w.matched {
		if !ok {
			return false
		}
	}
	return true
}

func (w *Watch) fetch(ctx context.Context, target string) []string {
	var command string
	switch w.kind {
	case KindJournal:
		command = fmt.Sprintf(`journalctl --no-pager -o cat --since "%s"`, w.since[target])
	default:
		command = fmt.Sprintf("tail -c +%d %s", w.offsets[target]+1, w.file)
	}

	rc, out, err := w.runner.Exec(ctx, target, command)
	if err != nil {
		w.logger.Debug().Str("node", target).Err(err).Msg("log fetch failed")
		return nil
	}
	if rc != 0 {
		return nil
	}
	return out
}
