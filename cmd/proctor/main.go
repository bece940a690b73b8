package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clustermill/proctor/pkg/audit"
	"github.com/clustermill/proctor/pkg/cluster"
	"github.com/clustermill/proctor/pkg/config"
	"github.com/clustermill/proctor/pkg/log"
	"github.com/clustermill/proctor/pkg/remote"
	"github.com/clustermill/proctor/pkg/session"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "proctor",
	Short: "Proctor - consistency audits for Pacemaker clusters",
	Long: `Proctor interrogates a running Pacemaker/Corosync cluster over SSH
and verifies the invariants a healthy cluster must hold: resource
placement, membership and leadership, configuration replicas, cluster
logging, and the state of every node's filesystem.

A failed audit is a cluster defect. An unrecoverable condition, such as
a full log disk, aborts the whole session.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Proctor version %s\nCommit: %s\nBuilt: %s\n",
		Version, GitCommit, BuildDate,
	))

	rootCmd.PersistentFlags().StringP("config", "c", "", "Cluster configuration file (YAML)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Proctor version %s\nCommit: %s\nBuilt: %s\n", Version, GitCommit, BuildDate)
	},
}

// loadConfig reads the configuration named by --config and initializes the
// global logger from it. Without the flag, a proctor.yaml in the working
// directory is picked up when present.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		if _, err := os.Stat("proctor.yaml"); err == nil {
			path = "proctor.yaml"
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
	})

	return cfg, nil
}

// buildDeps assembles the audit collaborators: the SSH runner, the cluster
// view and the session store. The returned closer releases the store.
func buildDeps(cfg *config.Config) (audit.Deps, func(), error) {
	runner := remote.NewSSHRunner(cfg.SSHUser)

	var store session.Store
	if cfg.DataDir != "" {
		boltStore, err := session.NewBoltStore(cfg.DataDir)
		if err != nil {
			return audit.Deps{}, nil, fmt.Errorf("failed to open session store: %w", err)
		}
		store = boltStore
	} else {
		store = session.NewMemoryStore()
	}

	deps := audit.Deps{
		Config:  cfg,
		Runner:  runner,
		Cluster: cluster.NewManager(runner, cfg),
		Store:   store,
	}

	return deps, func() { _ = store.Close() }, nil
}
