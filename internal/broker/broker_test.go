package broker

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestBroker() *Broker {
	return New(zerolog.Nop())
}

func TestPublishReachesSubscribers(t *testing.T) {
	req := require.New(t)
	b := newTestBroker()

	s1 := b.Subscribe(TopicLobbies)
	s2 := b.Subscribe(TopicLobbies)
	other := b.Subscribe(TopicMessages(1))

	b.Publish(TopicLobbies, "hello")

	req.Equal("hello", <-s1.C)
	req.Equal("hello", <-s2.C)

	select {
	case ev := <-other.C:
		t.Fatalf("unrelated topic received %v", ev)
	default:
	}
}

func TestNoReplayForLateSubscribers(t *testing.T) {
	req := require.New(t)
	b := newTestBroker()

	b.Publish(TopicLobbies, "missed")

	sub := b.Subscribe(TopicLobbies)
	select {
	case ev := <-sub.C:
		t.Fatalf("late subscriber received past event %v", ev)
	default:
	}

	b.Publish(TopicLobbies, "seen")
	req.Equal("seen", <-sub.C)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	req := require.New(t)
	b := newTestBroker()

	sub := b.Subscribe(TopicParticipants(7))
	b.Unsubscribe(sub)

	_, open := <-sub.C
	req.False(open)

	// Publishing after unsubscribe must not panic or deliver.
	b.Publish(TopicParticipants(7), "gone")

	// Unsubscribing twice is a no-op.
	b.Unsubscribe(sub)
	req.Zero(b.Subscribers())
}

func TestPublishNeverBlocks(t *testing.T) {
	req := require.New(t)
	b := newTestBroker()

	sub := b.Subscribe(TopicLobbies)

	// Overfill the subscriber queue; publish must return regardless.
	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultBuffer*2; i++ {
			b.Publish(TopicLobbies, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber queue")
	}

	// The first defaultBuffer events are waiting; the rest were
	// dropped for this subscriber.
	req.Equal(0, <-sub.C)
}

func TestConcurrentSubscribePublishUnsubscribe(t *testing.T) {
	b := newTestBroker()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sub := b.Subscribe(TopicLobbies)
				b.Unsubscribe(sub)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Publish(TopicLobbies, j)
			}
		}()
	}
	wg.Wait()

	if n := b.Subscribers(); n != 0 {
		t.Fatalf("expected no live subscribers, got %d", n)
	}
}

func TestTopicNames(t *testing.T) {
	req := require.New(t)
	req.Equal("lobby.42.participants", TopicParticipants(42))
	req.Equal("lobby.42.messages", TopicMessages(42))
}
