/*
Package logwatch observes cluster log channels for expected patterns.

A Watch reads one of three channels: the cluster log file on each node, the
systemd journal on each node, or the aggregated log file on the local host.
The flow is always arm-then-look: Arm records a cursor per node (a byte
offset for files, a node-local timestamp for the journal) before the
interesting activity happens, and WaitAll then polls for new content until
every pattern has matched or the watch times out.

	w, err := logwatch.New(runner, logwatch.Options{
		Kind:     logwatch.KindFile,
		File:     "/var/log/messages",
		Nodes:    nodes,
		Patterns: patterns,
		Timeout:  30 * time.Second,
	})
	if err != nil {
		return err
	}
	w.Arm(ctx)
	// ... trigger the activity ...
	if !w.WaitAll(ctx) {
		for _, p := range w.Unmatched() {
			// report
		}
	}

Watches are single-shot per arming; re-arming resets the match state. The
log audit keeps one watch per candidate channel and records which kind
proved usable.
*/
package logwatch
