// Package bus is the in-process topic bus the simulator and the system
// telemetry publish on. Topics are token paths; "+" matches one level and
// "#" matches the rest of the path. Retained messages are replayed to new
// subscribers.
package bus

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
)

const (
	wildOne  = "+"
	wildRest = "#"
)

// Token is one topic level. It must be comparable (string, int, ...).
type Token = any

// Topic is a token path.
type Topic []Token

// T builds a Topic, panicking on a non-comparable token.
func T(tokens ...Token) Topic {
	for _, tok := range tokens {
		mustComparable(tok)
	}
	return Topic(tokens)
}

func mustComparable(tok Token) {
	defer func() {
		if r := recover(); r != nil {
			panic("bus: non-comparable topic token")
		}
	}()
	m := map[Token]struct{}{}
	m[tok] = struct{}{}
}

// Message is one publication. A retained message with a nil payload clears
// the retained value at its topic.
type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	ReplyTo  Topic
}

type Subscription struct {
	topic Topic
	ch    chan *Message
	conn  *Connection
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

type node struct {
	children map[Token]*node
	subs     []*Subscription
	retained *Message
}

func (n *node) child(tok Token, create bool) *node {
	if c, ok := n.children[tok]; ok {
		return c
	}
	if !create {
		return nil
	}
	if n.children == nil {
		n.children = make(map[Token]*node)
	}
	c := &node{}
	n.children[tok] = c
	return c
}

type Bus struct {
	mu    sync.Mutex
	root  *node
	qLen  int
	reply atomic.Uint32
}

// NewBus creates a bus whose subscriptions queue up to queueLen messages;
// a full queue drops its oldest message.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8
	}
	return &Bus{root: &node{}, qLen: queueLen}
}

func (b *Bus) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

// Publish delivers msg to every matching subscription.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if msg.Retained {
		n := b.root
		for _, tok := range msg.Topic {
			n = n.child(tok, true)
		}
		if msg.Payload == nil {
			n.retained = nil
		} else {
			n.retained = msg
		}
	}
	b.deliver(b.root, msg.Topic, msg)
}

// deliver walks subscription patterns that match topic.
func (b *Bus) deliver(n *node, topic Topic, msg *Message) {
	if n == nil {
		return
	}
	if h := n.child(wildRest, false); h != nil {
		send(h.subs, msg)
	}
	if len(topic) == 0 {
		send(n.subs, msg)
		return
	}
	b.deliver(n.child(topic[0], false), topic[1:], msg)
	if topic[0] != wildOne {
		b.deliver(n.child(wildOne, false), topic[1:], msg)
	}
}

func send(subs []*Subscription, msg *Message) {
	for _, s := range subs {
		select {
		case s.ch <- msg:
		default:
			select {
			case <-s.ch:
			default:
			}
			select {
			case s.ch <- msg:
			default:
			}
		}
	}
}

func (b *Bus) subscribe(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	for _, tok := range s.topic {
		n = n.child(tok, true)
	}
	n.subs = append(n.subs, s)
	replay(b.root, s.topic, s)
}

// replay sends retained messages under n that match pattern.
func replay(n *node, pattern Topic, s *Subscription) {
	if n == nil {
		return
	}
	if len(pattern) == 0 {
		if n.retained != nil {
			send([]*Subscription{s}, n.retained)
		}
		return
	}
	switch pattern[0] {
	case wildRest:
		walkRetained(n, s)
	case wildOne:
		for tok, c := range n.children {
			if tok == wildOne || tok == wildRest {
				continue
			}
			replay(c, pattern[1:], s)
		}
	default:
		replay(n.child(pattern[0], false), pattern[1:], s)
	}
}

func walkRetained(n *node, s *Subscription) {
	if n.retained != nil {
		send([]*Subscription{s}, n.retained)
	}
	for _, c := range n.children {
		walkRetained(c, s)
	}
}

func (b *Bus) unsubscribe(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	path := []*node{n}
	for _, tok := range s.topic {
		n = n.child(tok, false)
		if n == nil {
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
		c := path[i+1]
		if len(c.subs) != 0 || len(c.children) != 0 || c.retained != nil {
			break
		}
		delete(path[i].children, s.topic[i])
	}
}

// Connection groups the subscriptions of one client.
type Connection struct {
	bus  *Bus
	id   string
	mu   sync.Mutex
	subs []*Subscription
}

func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) NewMessage(topic Topic, payload any, retained bool) *Message {
	return c.bus.NewMessage(topic, payload, retained)
}

func (c *Connection) Publish(msg *Message) { c.bus.Publish(msg) }

func (c *Connection) Subscribe(topic Topic) *Subscription {
	s := &Subscription{
		topic: topic,
		ch:    make(chan *Message, c.bus.qLen),
		conn:  c,
	}
	c.mu.Lock()
	c.subs = append(c.subs, s)
	c.mu.Unlock()
	c.bus.subscribe(s)
	return s
}

// Unsubscribe removes s and closes its channel.
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
	c.bus.unsubscribe(s)
	close(s.ch)
}

// Disconnect drops every subscription of c.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()
	for _, s := range subs {
		c.bus.unsubscribe(s)
		close(s.ch)
	}
}

// Request subscribes to a fresh reply topic, stamps it on msg and publishes.
// The caller owns the returned subscription.
func (c *Connection) Request(msg *Message) *Subscription {
	n := c.bus.reply.Add(1)
	msg.ReplyTo = T("_reply", c.id, strconv.FormatUint(uint64(n), 10))
	s := c.Subscribe(msg.ReplyTo)
	c.Publish(msg)
	return s
}

// RequestWait is Request plus waiting for the first reply or ctx.
func (c *Connection) RequestWait(ctx context.Context, msg *Message) (*Message, error) {
	s := c.Request(msg)
	defer c.Unsubscribe(s)
	select {
	case r := <-s.Channel():
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Reply answers req on its ReplyTo topic. Requests without one are ignored.
func (c *Connection) Reply(req *Message, payload any, retained bool) {
	if len(req.ReplyTo) == 0 {
		return
	}
	c.Publish(c.NewMessage(req.ReplyTo, payload, retained))
}
