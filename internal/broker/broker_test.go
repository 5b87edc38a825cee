package broker

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/roomly/roomly/internal/apperr"
)

func newTestBroker() *Broker {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func recvEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case data, ok := <-sub.C():
		if !ok {
			t.Fatal("send channel closed")
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		return ev
	default:
		t.Fatal("no event queued")
	}
	return Event{}
}

func TestSubscribeQueuesHello(t *testing.T) {
	b := newTestBroker()

	sub, err := b.Subscribe(1, 10, "conn-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	ev := recvEvent(t, sub)
	if ev.Type != TypeHello {
		t.Errorf("first event = %q, want hello", ev.Type)
	}
	if b.SubscriberCount(1) != 1 {
		t.Errorf("subscriber count = %d, want 1", b.SubscriberCount(1))
	}
}

func TestConnectionLimitPerUser(t *testing.T) {
	b := newTestBroker()

	for i := 0; i < MaxConnectionsPerUser; i++ {
		if _, err := b.Subscribe(1, 10, fmt.Sprintf("conn-%d", i)); err != nil {
			t.Fatalf("subscribe %d: %v", i, err)
		}
	}

	_, err := b.Subscribe(1, 10, "conn-extra")
	if !apperr.Is(err, apperr.CodeRateLimited) {
		t.Errorf("4th subscription: expected rate_limited, got %v", err)
	}

	// A different user in the same household is unaffected
	if _, err := b.Subscribe(1, 11, "conn-other-user"); err != nil {
		t.Errorf("other user subscribe: %v", err)
	}

	// The same user against another household is unaffected
	if _, err := b.Subscribe(2, 10, "conn-other-house"); err != nil {
		t.Errorf("other household subscribe: %v", err)
	}
}

func TestPublishFansOutToHouseholdOnly(t *testing.T) {
	b := newTestBroker()

	subA1, _ := b.Subscribe(1, 10, "a1")
	subA2, _ := b.Subscribe(1, 11, "a2")
	subB, _ := b.Subscribe(2, 12, "b1")

	// Drain hello events
	recvEvent(t, subA1)
	recvEvent(t, subA2)
	recvEvent(t, subB)

	b.Publish(1, NewTaskCreated(TaskCreatedData{TaskID: 7, Title: "Sweep"}))

	for _, sub := range []*Subscription{subA1, subA2} {
		ev := recvEvent(t, sub)
		if ev.Type != TypeTaskCreated {
			t.Errorf("event type = %q, want task_created", ev.Type)
		}
	}

	select {
	case data := <-subB.C():
		t.Errorf("household 2 should not receive household 1 events, got %s", data)
	default:
	}
}

func TestPublishOrderPreserved(t *testing.T) {
	b := newTestBroker()

	sub, _ := b.Subscribe(1, 10, "c1")
	recvEvent(t, sub)

	for i := 0; i < 5; i++ {
		b.Publish(1, NewCommentAdded(CommentAddedData{TaskID: 1, CommentID: int64(i)}))
	}

	for i := 0; i < 5; i++ {
		ev := recvEvent(t, sub)
		raw, _ := json.Marshal(ev.Data)
		var d CommentAddedData
		if err := json.Unmarshal(raw, &d); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		if d.CommentID != int64(i) {
			t.Errorf("event %d carries comment %d, want in-order delivery", i, d.CommentID)
		}
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := newTestBroker()

	sub, _ := b.Subscribe(1, 10, "slow")

	// Fill the buffer well past capacity; Publish must never block
	for i := 0; i < sendBufferSize*2; i++ {
		b.Publish(1, NewPing())
	}

	var received int
	for {
		select {
		case <-sub.C():
			received++
			continue
		default:
		}
		break
	}
	if received != sendBufferSize {
		t.Errorf("received %d events, want full buffer %d", received, sendBufferSize)
	}
}

func TestUnsubscribeIdempotent(t *testing.T) {
	b := newTestBroker()

	sub, _ := b.Subscribe(1, 10, "gone")
	b.Unsubscribe(1, "gone")
	b.Unsubscribe(1, "gone")
	b.Unsubscribe(1, "never-existed")

	if b.SubscriberCount(1) != 0 {
		t.Errorf("subscriber count = %d, want 0", b.SubscriberCount(1))
	}

	// Channel is closed after the hello drains
	<-sub.C()
	if _, ok := <-sub.C(); ok {
		t.Error("send channel should be closed after unsubscribe")
	}

	// Publishing to an empty household is a no-op
	b.Publish(1, NewPing())
}

func TestConcurrentSubscribePublish(t *testing.T) {
	b := newTestBroker()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("conn-%d", i)
			sub, err := b.Subscribe(int64(i%4), int64(i), id)
			if err != nil {
				t.Errorf("subscribe: %v", err)
				return
			}
			b.Publish(int64(i%4), NewPing())
			for {
				select {
				case <-sub.C():
					continue
				default:
				}
				break
			}
			b.Unsubscribe(int64(i%4), id)
		}(i)
	}
	wg.Wait()

	for h := int64(0); h < 4; h++ {
		if n := b.SubscriberCount(h); n != 0 {
			t.Errorf("household %d count = %d, want 0", h, n)
		}
	}
}
