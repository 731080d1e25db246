package messaging

import "sync"

// Receiver handles a delivered delayed message. HandleMessage mirrors the
// engine's polymorphic handle_message dispatch (§4.B).
type Receiver interface {
	HandleMessage(msg Message) bool
}

// Message is a delayed message record (spec.md §3): sender, receiver, code,
// payload, and the millisecond clock time it should fire at.
type Message struct {
	Sender   Listener
	Receiver Receiver
	Code     Code
	Payload  interface{}
	FireAtMs int64

	seq int64 // enqueue order, used to break FireAtMs ties FIFO
}

// RandSource supplies the uniform(0, randMs) jitter term for Send. Tests
// should pass a deterministic source; the engine wires a real PRNG.
type RandSource interface {
	// Intn returns a pseudo-random value in [0, n). n > 0.
	Intn(n int64) int64
}

// Queue is the single global delayed-message queue, ordered by fire time.
type Queue struct {
	mu       sync.Mutex
	pending  []*Message
	nextSeq  int64
}

// NewQueue creates an empty delayed-message queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Send enqueues a message to fire at now+delayMs+uniform(0,randMs). A nil
// rand with randMs > 0 is treated as zero jitter.
func (q *Queue) Send(sender Listener, receiver Receiver, code Code, nowMs, delayMs, randMs int64, rand RandSource) *Message {
	jitter := int64(0)
	if randMs > 0 && rand != nil {
		jitter = rand.Intn(randMs)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	msg := &Message{
		Sender:   sender,
		Receiver: receiver,
		Code:     code,
		FireAtMs: nowMs + delayMs + jitter,
		seq:      q.nextSeq,
	}
	q.nextSeq++

	q.insertLocked(msg)
	return msg
}

// insertLocked keeps q.pending ordered by (FireAtMs, seq) ascending.
func (q *Queue) insertLocked(msg *Message) {
	i := 0
	for ; i < len(q.pending); i++ {
		if q.pending[i].FireAtMs > msg.FireAtMs {
			break
		}
	}
	q.pending = append(q.pending, nil)
	copy(q.pending[i+1:], q.pending[i:])
	q.pending[i] = msg
}

// Dispatch delivers every message with FireAtMs <= nowMs, in fire-time then
// enqueue order, and returns how many were delivered. Called once per game
// frame (spec.md §4.B).
func (q *Queue) Dispatch(nowMs int64) int {
	q.mu.Lock()
	due := 0
	for due < len(q.pending) && q.pending[due].FireAtMs <= nowMs {
		due++
	}
	ready := q.pending[:due]
	q.pending = q.pending[due:]
	q.mu.Unlock()

	for _, msg := range ready {
		msg.Receiver.HandleMessage(*msg)
	}
	return len(ready)
}

// CancelAll discards every pending message.
func (q *Queue) CancelAll() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = nil
}

// CancelReceiver discards every pending message addressed to receiver.
func (q *Queue) CancelReceiver(receiver Receiver) {
	q.filter(func(m *Message) bool { return m.Receiver != receiver })
}

// CancelSender discards every pending message sent by sender.
func (q *Queue) CancelSender(sender Listener) {
	q.filter(func(m *Message) bool { return m.Sender != sender })
}

// CancelCode discards every pending message with the given code.
func (q *Queue) CancelCode(code Code) {
	q.filter(func(m *Message) bool { return m.Code != code })
}

func (q *Queue) filter(keep func(*Message) bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.pending[:0]
	for _, m := range q.pending {
		if keep(m) {
			kept = append(kept, m)
		}
	}
	q.pending = kept
}

// Len reports the number of messages currently pending.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
