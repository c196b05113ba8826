// bus.go
package bus

import (
	"sync"
)

// Topic is a path of string tokens, e.g. {"led", "level"}.
// The token "+" in a subscription matches any single token.
type Topic []string

// Wildcard matches one token at its level in a subscription topic.
const Wildcard = "+"

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
}

// -----------------------------------------------------------------------------
// Subscription
// -----------------------------------------------------------------------------

type Subscription struct {
	topic Topic
	ch    chan *Message
	bus   *Bus
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.bus.unsubscribe(s) }

// -----------------------------------------------------------------------------
// Trie node
// -----------------------------------------------------------------------------

type node struct {
	children map[string]*node
	subs     []*Subscription
	retained *Message
}

// -----------------------------------------------------------------------------
// Bus
// -----------------------------------------------------------------------------

// Bus is an in-process publish/subscribe broker with retained messages.
// Delivery is non-blocking; a full subscriber queue drops its oldest entry.
type Bus struct {
	mu   sync.RWMutex
	root *node
	qLen int
}

// New creates a bus with the given per-subscription queue length.
func New(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8 // safe default
	}
	return &Bus{
		root: &node{},
		qLen: queueLen,
	}
}

// Subscribe registers interest in a topic. The topic may contain Wildcard
// tokens. A retained message under an exactly matching node is delivered
// immediately.
func (b *Bus) Subscribe(topic Topic) *Subscription {
	sub := &Subscription{
		topic: append(Topic(nil), topic...),
		ch:    make(chan *Message, b.qLen),
		bus:   b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	for _, tok := range sub.topic {
		if n.children == nil {
			n.children = make(map[string]*node)
		}
		child, ok := n.children[tok]
		if !ok {
			child = &node{}
			n.children[tok] = child
		}
		n = child
	}
	n.subs = append(n.subs, sub)

	// Deliver retained messages already matching this subscription.
	b.walkRetained(b.root, sub.topic, func(m *Message) {
		select {
		case sub.ch <- m:
		default:
		}
	})
	return sub
}

// Publish delivers a message to every matching subscriber. When the message
// is retained it is also stored (or cleared, for a nil payload) at its node.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.deliver(b.root, msg.Topic, msg)

	if !msg.Retained {
		return
	}
	n := b.root
	for _, tok := range msg.Topic {
		if n.children == nil {
			n.children = make(map[string]*node)
		}
		child, ok := n.children[tok]
		if !ok {
			child = &node{}
			n.children[tok] = child
		}
		n = child
	}
	if msg.Payload == nil {
		n.retained = nil
	} else {
		n.retained = msg
	}
}

// deliver walks subscription branches, following both the exact token and
// the wildcard at each level.
func (b *Bus) deliver(n *node, rest Topic, msg *Message) {
	if n == nil {
		return
	}
	if len(rest) == 0 {
		for _, sub := range n.subs {
			select {
			case sub.ch <- msg:
			default:
				// drop oldest if queue full
				select {
				case <-sub.ch:
				default:
				}
				select {
				case sub.ch <- msg:
				default:
				}
			}
		}
		return
	}
	if n.children == nil {
		return
	}
	b.deliver(n.children[rest[0]], rest[1:], msg)
	b.deliver(n.children[Wildcard], rest[1:], msg)
}

// walkRetained visits retained messages under nodes matching a subscription
// topic (which may contain wildcards).
func (b *Bus) walkRetained(n *node, rest Topic, fn func(*Message)) {
	if n == nil {
		return
	}
	if len(rest) == 0 {
		if n.retained != nil {
			fn(n.retained)
		}
		return
	}
	if n.children == nil {
		return
	}
	if rest[0] == Wildcard {
		for _, child := range n.children {
			b.walkRetained(child, rest[1:], fn)
		}
		return
	}
	b.walkRetained(n.children[rest[0]], rest[1:], fn)
}

// unsubscribe removes a subscription and prunes empty trie nodes.
func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	var stack []*node
	for _, tok := range sub.topic {
		if n.children == nil {
			return
		}
		child, ok := n.children[tok]
		if !ok {
			return
		}
		stack = append(stack, n)
		n = child
	}

	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}
	close(sub.ch)

	for i := len(sub.topic) - 1; i >= 0; i-- {
		parent := stack[i]
		key := sub.topic[i]
		child := parent.children[key]
		if len(child.subs) == 0 && len(child.children) == 0 && child.retained == nil {
			delete(parent.children, key)
		} else {
			break
		}
	}
}
