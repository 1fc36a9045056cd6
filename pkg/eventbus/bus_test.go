package eventbus

import (
	"testing"
	"time"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := New()
	a := make(Subscriber, 1)
	b := make(Subscriber, 1)
	bus.Subscribe("evt", a)
	bus.Subscribe("evt", b)

	bus.Publish("evt", 42)

	for name, sub := range map[string]Subscriber{"a": a, "b": b} {
		select {
		case msg := <-sub:
			if msg.Topic != "evt" || msg.Data.(int) != 42 {
				t.Fatalf("%s got %+v", name, msg)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s never received the message", name)
		}
	}
}

func TestUnSubscribeStopsDelivery(t *testing.T) {
	bus := New()
	sub := make(Subscriber, 1)
	bus.Subscribe("evt", sub)
	bus.UnSubscribe("evt", sub)

	bus.Publish("evt", nil)

	select {
	case <-sub:
		t.Fatal("unsubscribed channel still received a message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	bus := New()
	done := make(chan struct{})
	go func() {
		bus.Publish("nobody", "x")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no subscribers")
	}
}
