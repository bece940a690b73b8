package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clustermill/proctor/pkg/log"
	"github.com/clustermill/proctor/pkg/logwatch"
	"github.com/clustermill/proctor/pkg/remote"
)

// testMessagePrefix starts every probe message logged on the nodes
const testMessagePrefix = "Test message from"

// LogAudit verifies that some logging channel on each node is usable, by
// logging a unique test message and reading it back through the logging
// tools. A channel that worked once is remembered and tried alone on later
// runs.
type LogAudit struct {
	deps   Deps
	logger zerolog.Logger
}

// NewLogAudit creates the logging audit
func NewLogAudit(deps Deps) *LogAudit {
	return &LogAudit{deps: deps, logger: log.WithAudit("log")}
}

// Name returns the audit name
func (a *LogAudit) Name() string { return "log" }

// Applicable reports whether this audit should run
func (a *LogAudit) Applicable() bool {
	return applicable(a.deps.Config, a.Name())
}

// Run proves a log channel, restarting the logging stack between attempts.
// Exhausting every attempt is unrecoverable: later audits depend on node
// logs being written and readable.
func (a *LogAudit) Run(ctx context.Context) (bool, error) {
	if !a.deps.Cluster.WaitAllReachable(ctx) {
		a.logger.Warn().Msg("not all nodes reachable, auditing anyway")
	}

	maxAttempts := a.deps.Config.Limits.LogAttempts
	for attempt := 0; attempt <= maxAttempts; attempt++ {
		if a.testLogging(ctx) {
			return true, nil
		}
		if attempt == maxAttempts {
			break
		}

		a.restartLogging(ctx)

		backoff := time.Duration(60*(attempt+1)) * time.Second
		a.logger.Info().Dur("backoff", backoff).Msg("no log channel proven, backing off")
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(backoff):
		}
	}

	a.logger.Error().Msg("cluster logging unrecoverable")
	return false, fmt.Errorf("no usable log channel on the cluster: %w", ErrUnrecoverable)
}

// testLogging emits one uniquely tagged message per node and checks the
// candidate channels for all of them
func (a *LogAudit) testLogging(ctx context.Context) bool {
	token := uuid.NewString()
	nodes := a.deps.Cluster.Nodes()

	patterns := make([]string, 0, len(nodes))
	for _, node := range nodes {
		// Anchor on the simple hostname too, so a syslog writing the wrong
		// hostname does not pass
		simple, _, _ := strings.Cut(node, ".")
		patterns = append(patterns, fmt.Sprintf("%s.*%s %s %s", simple, testMessagePrefix, node, token))
	}

	var kinds []logwatch.Kind
	sticky, haveSticky := a.deps.Store.LogKind()
	if haveSticky {
		kinds = []logwatch.Kind{logwatch.Kind(sticky)}
	} else {
		kinds = []logwatch.Kind{logwatch.KindFile}
		if a.deps.Config.LogWatch.Systemd {
			kinds = append(kinds, logwatch.KindJournal)
		}
		kinds = append(kinds, logwatch.KindRemote)
		a.logger.Info().Str("token", token).Msg("logging test message")
	}

	watches := make([]*logwatch.Watch, 0, len(kinds))
	for _, kind := range kinds {
		watch, err := logwatch.New(a.deps.Runner, logwatch.Options{
			Kind:     kind,
			File:     a.deps.Config.LogWatch.File,
			Nodes:    nodes,
			Patterns: patterns,
			Timeout:  time.Duration(a.deps.Config.Limits.WatchTimeout) * time.Second,
			Name:     "log-audit",
		})
		if err != nil {
			a.logger.Error().Str("kind", string(kind)).Err(err).Msg("cannot create log watch")
			continue
		}

		// Arm before emitting so the watches only see new content
		watch.Arm(ctx)
		watches = append(watches, watch)
	}
	if len(watches) == 0 {
		return false
	}

	for _, node := range nodes {
		command := fmt.Sprintf("logger -p %s.info %s %s %s",
			a.deps.Config.LogWatch.Facility, testMessagePrefix, node, token)
		remote.ExecAsync(ctx, a.deps.Runner, node, command, func(err error) {
			a.logger.Error().Str("node", node).Str("command", command).Err(err).
				Msg("cannot emit test message")
		})
	}

	for _, watch := range watches {
		if !haveSticky {
			a.logger.Info().Str("kind", string(watch.Kind())).Msg("checking for test message")
		}

		if watch.WaitAll(ctx) {
			if !haveSticky {
				a.logger.Info().Str("kind", string(watch.Kind())).Msg("found test message")
				if err := a.deps.Store.SetLogKind(string(watch.Kind())); err != nil {
					a.logger.Warn().Err(err).Msg("failed to record log kind")
				}
			}
			return true
		}

		for _, pattern := range watch.Unmatched() {
			a.logger.Error().Str("kind", string(watch.Kind())).Str("pattern", pattern).
				Msg("test message not found")
		}
	}

	return false
}

// restartLogging restarts the logging stack on every node
func (a *LogAudit) restartLogging(ctx context.Context) {
	nodes := a.deps.Cluster.Nodes()
	a.logger.Debug().Strs("nodes", nodes).Msg("restarting logging")

	for _, node := range nodes {
		if a.deps.Config.LogWatch.Systemd {
			if rc, _, err := a.deps.Runner.Exec(ctx, node, "systemctl stop systemd-journald.socket"); err != nil || rc != 0 {
				a.logger.Error().Str("node", node).Err(err).Msg("cannot stop systemd-journald")
			}
			if rc, _, err := a.deps.Runner.Exec(ctx, node, "systemctl start systemd-journald.service"); err != nil || rc != 0 {
				a.logger.Error().Str("node", node).Err(err).Msg("cannot start systemd-journald")
			}
		}

		if syslogd := a.deps.Config.LogWatch.Syslogd; syslogd != "" {
			command := fmt.Sprintf("service %s restart", syslogd)
			if rc, _, err := a.deps.Runner.Exec(ctx, node, command); err != nil || rc != 0 {
				a.logger.Error().Str("node", node).Str("service", syslogd).Err(err).
					Msg("cannot restart syslog daemon")
			}
		}
	}
}
