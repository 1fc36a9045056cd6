package eventbus

import (
	"sync"
)

type Topic string

type Message struct {
	Topic Topic
	Data  interface{}
}

type Subscriber chan Message

// Bus is a minimal topic bus. Publish never blocks the publisher: the
// fan-out to subscribers runs on its own goroutine, so slow consumers
// only delay each other, not the producing component.
type Bus struct {
	topics map[Topic][]Subscriber
	rw     sync.RWMutex
}

func New() *Bus {
	return &Bus{
		topics: map[Topic][]Subscriber{},
	}
}

func (bus *Bus) Subscribe(topic Topic, subscriber Subscriber) {
	bus.rw.Lock()
	bus.topics[topic] = append(bus.topics[topic], subscriber)
	bus.rw.Unlock()
}

func (bus *Bus) Publish(topic Topic, data interface{}) {
	bus.rw.RLock()
	subscribers, ok := bus.topics[topic]
	if ok {
		subs := append([]Subscriber{}, subscribers...)
		go func(msg Message) {
			for _, subscriber := range subs {
				subscriber <- msg
			}
		}(Message{Topic: topic, Data: data})
	}
	bus.rw.RUnlock()
}

func (bus *Bus) UnSubscribe(topic Topic, subscriber Subscriber) {
	bus.rw.Lock()
	if subs, ok := bus.topics[topic]; ok {
		for i, s := range subs {
			if s == subscriber {
				bus.topics[topic] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
	bus.rw.Unlock()
}
