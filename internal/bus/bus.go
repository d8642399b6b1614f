// Package bus provides the two in-process message shapes used between the
// bus adapters and the orchestrator: request/response with a mandatory
// reply, and one-shot notifications.
package bus

import (
	"context"
)

// Request is one inbound message plus the slot its reply goes to.
type Request[Req, Resp any] struct {
	Body  Req
	reply chan Resp
}

// Reply answers the request. Only the first call has an effect and it never
// blocks, even if the sender has given up waiting.
func (r Request[Req, Resp]) Reply(resp Resp) {
	select {
	case r.reply <- resp:
	default:
	}
}

// RequestChannel carries messages that must be answered.
type RequestChannel[Req, Resp any] struct {
	ch chan Request[Req, Resp]
}

func NewRequestChannel[Req, Resp any](buffer int) *RequestChannel[Req, Resp] {
	return &RequestChannel[Req, Resp]{ch: make(chan Request[Req, Resp], buffer)}
}

// Send delivers body and waits for its reply or ctx.
func (c *RequestChannel[Req, Resp]) Send(ctx context.Context, body Req) (Resp, error) {
	var zero Resp
	req := Request[Req, Resp]{Body: body, reply: make(chan Resp, 1)}
	select {
	case c.ch <- req:
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	select {
	case resp := <-req.reply:
		return resp, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Inbox is the receiving end, drained by exactly one handler loop.
func (c *RequestChannel[Req, Resp]) Inbox() <-chan Request[Req, Resp] { return c.ch }

// NotifyChannel carries fire-and-forget messages.
type NotifyChannel[T any] struct {
	ch chan T
}

func NewNotifyChannel[T any](buffer int) *NotifyChannel[T] {
	return &NotifyChannel[T]{ch: make(chan T, buffer)}
}

// Post enqueues msg. It returns once the message is accepted, not handled.
func (c *NotifyChannel[T]) Post(ctx context.Context, msg T) error {
	select {
	case c.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *NotifyChannel[T]) Inbox() <-chan T { return c.ch }
