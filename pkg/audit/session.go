package audit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/clustermill/proctor/pkg/log"
	"github.com/clustermill/proctor/pkg/metrics"
	"github.com/clustermill/proctor/pkg/report"
)

// Session executes a sequence of audits and aggregates their verdicts
type Session struct {
	audits []Audit
	broker *report.Broker
	logger zerolog.Logger
}

// NewSession creates a session over the given audits. The broker may be nil
// when no consumer wants lifecycle events.
func NewSession(audits []Audit, broker *report.Broker) *Session {
	return &Session{
		audits: audits,
		broker: broker,
		logger: log.WithComponent("session"),
	}
}

// Run executes each applicable audit in order and returns the names of the
// audits whose verdict was false. The first unrecoverable error aborts the
// remaining audits and is returned.
func (s *Session) Run(ctx context.Context) ([]string, error) {
	var failed []string

	s.publish(report.EventSessionStarted, "", fmt.Sprintf("running %d audits", len(s.audits)))

	for _, a := range s.audits {
		if !a.Applicable() {
			s.logger.Debug().Str("audit", a.Name()).Msg("audit not applicable, skipped")
			continue
		}
		if err := ctx.Err(); err != nil {
			return failed, err
		}

		auditCtx, end := startSpan(ctx, "audit."+a.Name())
		timer := metrics.NewTimer()

		s.publish(report.EventAuditStarted, a.Name(), "")
		metrics.AuditRuns.WithLabelValues(a.Name()).Inc()

		passed, err := a.Run(auditCtx)

		timer.ObserveDurationVec(metrics.AuditDuration, a.Name())
		end(passed)

		if err != nil {
			if !passed {
				failed = append(failed, a.Name())
				metrics.AuditFailures.WithLabelValues(a.Name()).Inc()
			}
			metrics.AuditUnrecoverable.Inc()
			s.publish(report.EventAuditUnrecoverable, a.Name(), err.Error())
			s.logger.Error().Str("audit", a.Name()).Err(err).Msg("audit unrecoverable, aborting session")
			return failed, err
		}

		if passed {
			s.publish(report.EventAuditPassed, a.Name(), "")
			continue
		}

		failed = append(failed, a.Name())
		metrics.AuditFailures.WithLabelValues(a.Name()).Inc()
		s.publish(report.EventAuditFailed, a.Name(), "violations found")
		s.logger.Error().Str("audit", a.Name()).Msg("audit failed")
	}

	summary := "all audits passed"
	if len(failed) > 0 {
		summary = fmt.Sprintf("%d audits failed", len(failed))
	}
	s.publish(report.EventSessionCompleted, "", summary)

	return failed, nil
}

func (s *Session) publish(eventType report.EventType, audit, message string) {
	if s.broker == nil {
		return
	}
	s.broker.PublishAudit(eventType, audit, message)
}
