// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: actormesh/actormesh.go
// Summary: The per-application goroutine/mailbox mesh the Reactor drives
// every actor through: one buffered mailbox and one worker goroutine per
// pid, with bounded overall concurrency and coordinated shutdown.

package actormesh

import (
	"context"
	"log"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/skylinewm/skyline/tracing"
)

// mailboxCapacity bounds how far an actor's mailbox can lag the Reactor's
// own event intake before back-pressure kicks in (spec §5's ordering
// guarantee requires FIFO delivery per actor, not unbounded buffering).
const mailboxCapacity = 64

// Task is one unit of work enqueued onto an actor's mailbox.
type Task func(ctx context.Context)

// envelope pairs a Task with the label its mailbox span should carry.
type envelope struct {
	label string
	task  Task
}

type mailbox struct {
	ch chan envelope
}

// Mesh runs one worker goroutine per registered actor key (typically a
// pid), each draining its own mailbox in submission order, while
// bounding the number of actors that may be mid-task concurrently via a
// weighted semaphore — the same shape as a worker pool, scoped per actor
// instead of per task.
type Mesh struct {
	sem    *semaphore.Weighted
	group  *errgroup.Group
	ctx    context.Context
	tracer *tracing.Provider

	mailboxes map[uint32]*mailbox
}

// New creates a Mesh bound to ctx; the Mesh's workers are canceled when
// ctx is canceled, and Wait returns once all outstanding tasks drain.
// tracer may be nil, in which case spans are skipped entirely.
func New(ctx context.Context, maxConcurrentActors int64, tracer *tracing.Provider) *Mesh {
	group, gctx := errgroup.WithContext(ctx)
	return &Mesh{
		sem:       semaphore.NewWeighted(maxConcurrentActors),
		group:     group,
		ctx:       gctx,
		tracer:    tracer,
		mailboxes: make(map[uint32]*mailbox),
	}
}

// Ensure registers pid's mailbox and worker if not already present.
func (m *Mesh) Ensure(pid uint32) {
	if _, ok := m.mailboxes[pid]; ok {
		return
	}
	mb := &mailbox{ch: make(chan envelope, mailboxCapacity)}
	m.mailboxes[pid] = mb
	m.group.Go(func() error {
		return m.drain(pid, mb)
	})
}

func (m *Mesh) drain(pid uint32, mb *mailbox) error {
	for {
		select {
		case <-m.ctx.Done():
			return m.ctx.Err()
		case env, ok := <-mb.ch:
			if !ok {
				return nil
			}
			if err := m.sem.Acquire(m.ctx, 1); err != nil {
				return err
			}
			taskCtx := m.ctx
			var span trace.Span
			if m.tracer != nil {
				taskCtx, span = m.tracer.StartMailboxSpan(m.ctx, pid, env.label)
			}
			env.task(taskCtx)
			if span != nil {
				span.End()
			}
			m.sem.Release(1)
		}
	}
}

// Send enqueues task onto pid's mailbox (tagged with label for its
// tracing span), registering the mailbox first if needed. Returns
// false if ctx is done before the task could be enqueued.
func (m *Mesh) Send(ctx context.Context, pid uint32, label string, task Task) bool {
	if ctx.Err() != nil {
		return false
	}
	m.Ensure(pid)
	mb := m.mailboxes[pid]
	select {
	case mb.ch <- envelope{label: label, task: task}:
		return true
	case <-ctx.Done():
		return false
	}
}

// Remove closes and drops pid's mailbox (e.g. once its app has exited);
// tasks already queued on it still run before its worker exits. A later
// Send for pid registers a fresh mailbox.
func (m *Mesh) Remove(pid uint32) {
	if mb, ok := m.mailboxes[pid]; ok {
		close(mb.ch)
		delete(m.mailboxes, pid)
	}
}

// Wait blocks until every worker goroutine has exited (context
// cancellation, or all mailboxes closed and drained).
func (m *Mesh) Wait() error {
	err := m.group.Wait()
	if err != nil && err != context.Canceled {
		log.Printf("actormesh: worker exited with error: %v", err)
	}
	return err
}
