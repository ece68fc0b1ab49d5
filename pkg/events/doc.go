/*
Package events is an in-memory pub/sub broker for Chronicle's lifecycle
events: milestone applied, bootstrap completed, solidifier synced, output
spent, upstream connection lost/restored.

Publish queues onto a 100-event buffer and blocks only while that buffer
is full (or until Stop); slow subscribers drop events rather than stall
the broadcast loop. Use it for observability fan-out (metrics, logs) — not as
the solidifier's fetch-back continuation, which owns its own per-worker
request channels (see pkg/solidifier) since that needs reliable delivery to
exactly one worker, not broadcast.

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)
	go func() {
		for ev := range sub {
			log.Info(ev.Message)
		}
	}()

	broker.Publish(&events.Event{Type: events.EventMilestoneApplied, Message: "slot 101 applied"})
*/
package events
