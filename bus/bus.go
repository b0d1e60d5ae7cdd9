// bus.go
package bus

import (
	"context"
	"reflect"
	"strconv"
	"sync"
)

// -----------------------------------------------------------------------------
// Topics
// -----------------------------------------------------------------------------

// Topic is a sequence of comparable tokens (usually strings or ints).
type Topic []any

// T builds a Topic, panicking on tokens that cannot be map keys.
func T(tokens ...any) Topic {
	for _, tok := range tokens {
		if tok == nil || !reflect.TypeOf(tok).Comparable() {
			panic("bus: topic token is not comparable")
		}
	}
	return Topic(tokens)
}

// -----------------------------------------------------------------------------
// Message
// -----------------------------------------------------------------------------

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	ReplyTo  Topic
}

// CanReply reports whether the sender is waiting for a reply.
func (m *Message) CanReply() bool { return m != nil && len(m.ReplyTo) > 0 }

// -----------------------------------------------------------------------------
// Subscription
// -----------------------------------------------------------------------------

type Subscription struct {
	topic Topic
	ch    chan *Message
	conn  *Connection
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

// deliver never blocks; a full queue loses its oldest message.
func (s *Subscription) deliver(msg *Message) {
	select {
	case s.ch <- msg:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- msg:
	default:
	}
}

// -----------------------------------------------------------------------------
// Trie
// -----------------------------------------------------------------------------

type node struct {
	children map[any]*node
	subs     []*Subscription
	retained *Message
}

func (n *node) child(tok any, create bool) *node {
	if c, ok := n.children[tok]; ok || !create {
		return c
	}
	if n.children == nil {
		n.children = make(map[any]*node)
	}
	c := &node{}
	n.children[tok] = c
	return c
}

func (n *node) empty() bool {
	return len(n.subs) == 0 && len(n.children) == 0 && n.retained == nil
}

// -----------------------------------------------------------------------------
// Bus
// -----------------------------------------------------------------------------

type Bus struct {
	mu       sync.Mutex
	subs     *node // subscription patterns
	retained *node // retained messages by exact topic
	qLen     int
	single   any
	multi    any
	nextID   uint64
}

// NewBus creates a bus with the given per-subscription queue length. The
// optional wildcards override the single-level ("+") and multi-level ("#")
// tokens, in that order.
func NewBus(queueLen int, wildcards ...string) *Bus {
	if queueLen <= 0 {
		queueLen = 8
	}
	b := &Bus{
		subs:     &node{},
		retained: &node{},
		qLen:     queueLen,
		single:   "+",
		multi:    "#",
	}
	if len(wildcards) > 0 && wildcards[0] != "" {
		b.single = wildcards[0]
	}
	if len(wildcards) > 1 && wildcards[1] != "" {
		b.multi = wildcards[1]
	}
	return b
}

// NewMessage builds a message; it does not publish it.
func (b *Bus) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

// Publish delivers msg to every matching subscription and updates the
// retained store. A retained message with a nil payload clears the topic.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if msg.Retained {
		b.storeRetained(msg)
	}
	b.match(b.subs, msg.Topic, 0, msg)
}

func (b *Bus) match(n *node, topic Topic, i int, msg *Message) {
	if n == nil {
		return
	}
	if m := n.children[b.multi]; m != nil {
		for _, s := range m.subs {
			s.deliver(msg)
		}
	}
	if i == len(topic) {
		for _, s := range n.subs {
			s.deliver(msg)
		}
		return
	}
	b.match(n.children[topic[i]], topic, i+1, msg)
	if topic[i] != b.single {
		b.match(n.children[b.single], topic, i+1, msg)
	}
}

func (b *Bus) storeRetained(msg *Message) {
	if msg.Payload != nil {
		n := b.retained
		for _, tok := range msg.Topic {
			n = n.child(tok, true)
		}
		n.retained = msg
		return
	}
	path := []*node{b.retained}
	n := b.retained
	for _, tok := range msg.Topic {
		if n = n.child(tok, false); n == nil {
			return
		}
		path = append(path, n)
	}
	n.retained = nil
	for i := len(msg.Topic) - 1; i >= 0; i-- {
		if !path[i+1].empty() {
			break
		}
		delete(path[i].children, msg.Topic[i])
	}
}

// replayRetained sends every retained message matching pattern to s.
func (b *Bus) replayRetained(n *node, pattern Topic, i int, s *Subscription) {
	if n == nil {
		return
	}
	if i == len(pattern) {
		if n.retained != nil {
			s.deliver(n.retained)
		}
		return
	}
	switch pattern[i] {
	case b.multi:
		b.replayAll(n, s)
	case b.single:
		for _, c := range n.children {
			b.replayRetained(c, pattern, i+1, s)
		}
	default:
		b.replayRetained(n.children[pattern[i]], pattern, i+1, s)
	}
}

func (b *Bus) replayAll(n *node, s *Subscription) {
	if n.retained != nil {
		s.deliver(n.retained)
	}
	for _, c := range n.children {
		b.replayAll(c, s)
	}
}

func (b *Bus) addSubscription(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.subs
	for _, tok := range s.topic {
		n = n.child(tok, true)
	}
	n.subs = append(n.subs, s)
	b.replayRetained(b.retained, s.topic, 0, s)
}

func (b *Bus) removeSubscription(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	path := []*node{b.subs}
	n := b.subs
	for _, tok := range s.topic {
		if n = n.child(tok, false); n == nil {
			return
		}
		path = append(path, n)
	}
	for i, x := range n.subs {
		if x == s {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}
	for i := len(s.topic) - 1; i >= 0; i-- {
		if !path[i+1].empty() {
			break
		}
		delete(path[i].children, s.topic[i])
	}
}

func (b *Bus) replyTopic() Topic {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.mu.Unlock()
	return T("_reply", strconv.FormatUint(id, 10))
}

// -----------------------------------------------------------------------------
// Connection
// -----------------------------------------------------------------------------

type Connection struct {
	bus  *Bus
	mu   sync.Mutex
	subs []*Subscription
	id   string
}

// NewConnection creates a new connection bound to this bus.
func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) NewMessage(topic Topic, payload any, retained bool) *Message {
	return c.bus.NewMessage(topic, payload, retained)
}

func (c *Connection) Publish(msg *Message) { c.bus.Publish(msg) }

// Subscribe registers a subscription owned by this connection. Matching
// retained messages are queued immediately.
func (c *Connection) Subscribe(topic Topic) *Subscription {
	s := &Subscription{
		topic: topic,
		ch:    make(chan *Message, c.bus.qLen),
		conn:  c,
	}
	c.mu.Lock()
	c.subs = append(c.subs, s)
	c.mu.Unlock()
	c.bus.addSubscription(s)
	return s
}

// Unsubscribe removes the subscription and closes its channel.
func (c *Connection) Unsubscribe(s *Subscription) {
	c.mu.Lock()
	found := false
	for i, x := range c.subs {
		if x == s {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			found = true
			break
		}
	}
	c.mu.Unlock()
	if !found {
		return
	}
	c.bus.removeSubscription(s)
	close(s.ch)
}

// Disconnect closes all subscriptions owned by the connection.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, s := range subs {
		c.bus.removeSubscription(s)
		close(s.ch)
	}
}

// Request publishes msg with a fresh ReplyTo topic and returns the
// subscription the reply will arrive on. The caller unsubscribes it.
func (c *Connection) Request(msg *Message) *Subscription {
	msg.ReplyTo = c.bus.replyTopic()
	s := c.Subscribe(msg.ReplyTo)
	c.Publish(msg)
	return s
}

// RequestWait publishes msg and waits for the first reply or ctx.
func (c *Connection) RequestWait(ctx context.Context, msg *Message) (*Message, error) {
	s := c.Request(msg)
	defer c.Unsubscribe(s)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case reply := <-s.Channel():
		return reply, nil
	}
}

// Reply answers req on its ReplyTo topic. It is a no-op if req expects none.
func (c *Connection) Reply(req *Message, payload any, retained bool) {
	if !req.CanReply() {
		return
	}
	c.Publish(c.NewMessage(req.ReplyTo, payload, retained))
}
