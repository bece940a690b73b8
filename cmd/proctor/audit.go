package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clustermill/proctor/pkg/audit"
	"github.com/clustermill/proctor/pkg/metrics"
	"github.com/clustermill/proctor/pkg/report"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run consistency audits against the cluster",
}

var auditRunCmd = &cobra.Command{
	Use:   "run [audit...]",
	Short: "Run the audit catalog, or a named subset of it",
	Long: `Run audits against the configured cluster.

With no arguments the whole catalog runs in its canonical order. Named
audits run in the order given.

Examples:
  # Run everything once
  proctor -c cluster.yaml audit run

  # Keep auditing until something breaks
  proctor -c cluster.yaml audit run --until-fail

  # Just the placement audits
  proctor -c cluster.yaml audit run primitive group colocation`,
	RunE: runAudits,
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the audit catalog and its applicability",
	RunE:  listAudits,
}

func init() {
	auditRunCmd.Flags().Bool("until-fail", false, "Repeat the session until an audit fails")
	auditRunCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address while auditing")

	auditCmd.AddCommand(auditRunCmd)
	auditCmd.AddCommand(auditListCmd)
	rootCmd.AddCommand(auditCmd)
}

func runAudits(cmd *cobra.Command, args []string) error {
	untilFail, _ := cmd.Flags().GetBool("until-fail")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	deps, closeDeps, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	defer closeDeps()

	audits, err := audit.ByName(deps, args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := audit.SetupTracing(strings.EqualFold(os.Getenv("PROCTOR_TRACE"), "true"))
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() { _ = shutdownTracing(ctx) }()

	broker := report.NewBroker()
	broker.Start()
	defer broker.Stop()
	go printEvents(broker.Subscribe())

	if metricsAddr != "" {
		collector := metrics.NewCollector(deps.Cluster)
		collector.Start()
		defer collector.Stop()

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		server := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if serr := server.ListenAndServe(); serr != nil && serr != http.ErrServerClosed {
				fmt.Fprintf(os.Stderr, "metrics server error: %v\n", serr)
			}
		}()
		defer server.Close()

		fmt.Printf("Serving metrics on %s/metrics\n", metricsAddr)
	}

	// First interrupt lets the session in flight finish, second one forces
	// the audits to abort
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	stopCh := make(chan struct{})
	go func() {
		<-sigCh
		fmt.Println("\nInterrupt received, finishing the session in flight...")
		close(stopCh)
		<-sigCh
		fmt.Fprintln(os.Stderr, "Forcing shutdown")
		cancel()
	}()

	sess := audit.NewSession(audits, broker)
	rounds := 0
	for {
		failed, err := sess.Run(ctx)
		rounds++

		if err != nil {
			return fmt.Errorf("audit session aborted: %w", err)
		}
		if len(failed) > 0 {
			return fmt.Errorf("%d audits failed: %s", len(failed), strings.Join(failed, ", "))
		}

		if !untilFail {
			break
		}

		select {
		case <-stopCh:
			fmt.Printf("Stopped after %d clean rounds\n", rounds)
			return nil
		case <-time.After(time.Second):
		}
	}

	// Give the event printer a beat to drain
	time.Sleep(100 * time.Millisecond)
	fmt.Println("✓ All audits passed")
	return nil
}

func listAudits(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	deps, closeDeps, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	defer closeDeps()

	fmt.Printf("%-18s %s\n", "AUDIT", "APPLICABLE")
	for _, a := range audit.Catalog(deps) {
		applicable := "yes"
		if !a.Applicable() {
			applicable = "no"
		}
		fmt.Printf("%-18s %s\n", a.Name(), applicable)
	}
	return nil
}

// printEvents renders audit lifecycle events as they happen
func printEvents(sub report.Subscriber) {
	for ev := range sub {
		switch ev.Type {
		case report.EventAuditStarted:
			fmt.Printf("→ %s\n", ev.Audit)
		case report.EventAuditPassed:
			fmt.Printf("✓ %s\n", ev.Audit)
		case report.EventAuditFailed:
			fmt.Printf("✗ %s: %s\n", ev.Audit, ev.Message)
		case report.EventAuditUnrecoverable:
			fmt.Printf("✗ %s (unrecoverable): %s\n", ev.Audit, ev.Message)
		}
	}
}
