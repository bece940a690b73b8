/*
Package report distributes audit lifecycle events to interested consumers.

The audit session publishes an event when an audit starts, passes, fails or
aborts, and when a whole session begins or completes. Consumers subscribe to
the broker and receive events on a buffered channel; the command line front
end uses this to print verdicts as they happen without coupling the audit
engine to any output format.

# Usage

	broker := report.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	go func() {
		for event := range sub {
			fmt.Printf("%s %s: %s\n", event.Timestamp.Format(time.RFC3339),
				event.Type, event.Message)
		}
	}()

	broker.PublishAudit(report.EventAuditFailed, "primitive",
		"resource rsc1 active on 2 nodes")

Delivery is best effort. A subscriber that stops draining its channel loses
events once its buffer fills; the broker never blocks a publisher on a slow
consumer.
*/
package report
