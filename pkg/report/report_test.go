package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	event := NewEvent(EventAuditFailed, "disk", "node1 low on space")

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, EventAuditFailed, event.Type)
	assert.Equal(t, "disk", event.Audit)
	assert.Equal(t, "node1 low on space", event.Message)
	assert.False(t, event.Timestamp.IsZero())
}

func TestPublishDelivers(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	broker.PublishAudit(EventAuditPassed, "partition", "1 partition, quorum held")

	select {
	case event := <-sub:
		require.NotNil(t, event)
		assert.Equal(t, EventAuditPassed, event.Type)
		assert.Equal(t, "partition", event.Audit)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublishFansOut(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	first := broker.Subscribe()
	second := broker.Subscribe()

	broker.PublishAudit(EventAuditStarted, "cib", "comparing replicas")

	for _, sub := range []Subscriber{first, second} {
		select {
		case event := <-sub:
			assert.Equal(t, EventAuditStarted, event.Type)
		case <-time.After(2 * time.Second):
			t.Fatal("event not delivered to all subscribers")
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	require.Equal(t, 1, broker.SubscriberCount())

	broker.Unsubscribe(sub)
	assert.Equal(t, 0, broker.SubscriberCount())

	_, open := <-sub
	assert.False(t, open)
}

func TestPublishAfterStopDoesNotBlock(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	broker.Stop()

	done := make(chan struct{})
	go func() {
		// Fill well past the event buffer; Stop must unblock publishers
		for i := 0; i < 200; i++ {
			broker.PublishAudit(EventAuditPassed, "file", "no new core files")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked after Stop")
	}
}
