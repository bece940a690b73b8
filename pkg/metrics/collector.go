package metrics

import (
	"context"
	"time"

	"github.com/clustermill/proctor/pkg/cluster"
	"github.com/clustermill/proctor/pkg/types"
)

// Collector periodically probes the cluster and exports node state gauges
type Collector struct {
	manager *cluster.Manager
	stopCh  chan struct{}
}

// NewCollector creates a collector over the given cluster view
func NewCollector(mgr *cluster.Manager) *Collector {
	return &Collector{
		manager: mgr,
		stopCh:  make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	counts := make(map[string]int)
	for _, node := range c.manager.Nodes() {
		state := c.manager.ProbeNode(ctx, node)
		counts[stateLabel(state)]++
	}

	for state, count := range counts {
		NodesTotal.WithLabelValues(state).Set(float64(count))
	}
}

func stateLabel(state types.ControllerState) string {
	switch state {
	case types.ControllerUpStable:
		return "stable"
	case types.ControllerUpUnstable:
		return "unstable"
	default:
		return "down"
	}
}
