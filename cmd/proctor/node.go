package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clustermill/proctor/pkg/cluster"
	"github.com/clustermill/proctor/pkg/remote"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Inspect cluster nodes",
}

var nodeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe the controller state of every configured node",
	RunE:  nodeStatus,
}

func init() {
	nodeStatusCmd.Flags().Duration("timeout", time.Minute, "Overall probe timeout")

	nodeCmd.AddCommand(nodeStatusCmd)
	rootCmd.AddCommand(nodeCmd)
}

func nodeStatus(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	runner := remote.NewSSHRunner(cfg.SSHUser)
	manager := cluster.NewManager(runner, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fmt.Printf("%-24s %-10s %s\n", "NODE", "EXPECTED", "STATE")
	for _, node := range manager.Nodes() {
		fmt.Printf("%-24s %-10s %s\n", node, manager.Expected(node), manager.ProbeNode(ctx, node))
	}

	return nil
}
