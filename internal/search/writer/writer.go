// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package writer implements the single-writer indexing actor (spec §4.3): one
background goroutine owns the index's mutating handle, consumers send
operations over a bounded channel, and a 15-second idle timer drives
batched auto-commit.

# State machine

	Idle  + op arrives            -> Dirty   (apply op)
	Idle  + channel closed        -> Terminal (commit; exit)
	Dirty + op arrives before 15s -> Dirty   (apply op)
	Dirty + 15s elapse, no op     -> Idle    (commit)
	Dirty + channel closed        -> Terminal (commit; exit)

A commit is never acknowledged to the caller that triggered it — sending an
op onto the channel only promises "durable at or before the next 15-second
boundary" (spec §4.6).
*/
package writer

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// AutoCommitInterval is the idle-timer cadence after which a dirty writer
// flushes its pending batch (spec: "15 seconds").
const AutoCommitInterval = 15 * time.Second

// channelCapacity is the writer channel's bound (spec: "capacity 4"). It is
// a deliberate throttle: producers block once it fills, which caps how much
// unflushed work (and therefore memory-arena usage) the actor can accumulate.
const channelCapacity = 4

// ErrClosed is returned by an operation sent to a writer that has already
// shut down.
var ErrClosed = errors.New("writer: closed")

// Batch accumulates index/delete operations for one commit. Its method set
// matches bleve.Batch exactly, so a real *bleve.Batch satisfies it without
// any adapter; tests use an in-memory fake instead.
type Batch interface {
	Index(id string, data interface{}) error
	Delete(id string)
}

// Index is the subset of bleve.Index the writer actor needs. indexmgr wires
// a real on-disk bleve.Index behind it; tests use an in-memory fake.
type Index interface {
	NewBatch() Batch
	Batch(b Batch) error
	AllDocIDs() ([]string, error)
}

type op interface{ isOp() }

type addDocumentOp struct {
	id     string
	fields map[string]interface{}
}

type deleteOp struct{ id string }

type clearAllOp struct{}

type pingOp struct{ ack chan error }

func (addDocumentOp) isOp() {}
func (deleteOp) isOp()      {}
func (clearAllOp) isOp()    {}
func (pingOp) isOp()        {}

// Writer is a handle to the running actor. The zero value is not usable;
// construct one with Start.
type Writer struct {
	ops  chan op
	done chan struct{}
	err  error
	log  *slog.Logger
}

// Start spawns the writer actor over idx and blocks until it acknowledges a
// startup ping, mirroring the reference service's start_writer handshake.
// If the ping cannot be delivered or acknowledged, the actor is joined and
// its terminal error (if any) is returned. log receives the actor's state
// transitions ("auto_commit_fired", "writer_actor_exiting").
func Start(ctx context.Context, idx Index, log *slog.Logger) (*Writer, error) {
	return start(ctx, idx, AutoCommitInterval, log)
}

func start(ctx context.Context, idx Index, autoCommit time.Duration, log *slog.Logger) (*Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w := &Writer{
		ops:  make(chan op, channelCapacity),
		done: make(chan struct{}),
		log:  log,
	}
	go w.run(idx, autoCommit)

	ack := make(chan error, 1)
	select {
	case w.ops <- pingOp{ack: ack}:
	case <-ctx.Done():
		close(w.ops)
		<-w.done
		return nil, ctx.Err()
	case <-w.done:
		return nil, w.terminalError()
	}

	select {
	case <-ack:
		return w, nil
	case <-ctx.Done():
		close(w.ops)
		<-w.done
		return nil, ctx.Err()
	case <-w.done:
		return nil, w.terminalError()
	}
}

// AddDocument enqueues an upsert of a document under id. Returns once the
// channel has accepted the op; the write is not yet durable.
func (w *Writer) AddDocument(ctx context.Context, id string, fields map[string]interface{}) error {
	return w.send(ctx, addDocumentOp{id: id, fields: fields})
}

// Delete enqueues removal of the document with the given id.
func (w *Writer) Delete(ctx context.Context, id string) error {
	return w.send(ctx, deleteOp{id: id})
}

// ClearAll enqueues removal of every document currently in the index, used
// by an entity's refresh_all before it re-adds every live row.
func (w *Writer) ClearAll(ctx context.Context) error {
	return w.send(ctx, clearAllOp{})
}

// Close signals the actor to shut down: it commits the pending batch and
// exits. Close blocks until the actor has stopped.
func (w *Writer) Close() error {
	select {
	case <-w.done:
	default:
		close(w.ops)
	}
	<-w.done
	return w.err
}

func (w *Writer) send(ctx context.Context, o op) error {
	select {
	case w.ops <- o:
		return nil
	case <-w.done:
		return w.terminalError()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) terminalError() error {
	if w.err != nil {
		return w.err
	}
	return ErrClosed
}

func (w *Writer) run(idx Index, autoCommit time.Duration) {
	defer close(w.done)
	defer func() { w.log.Info("writer_actor_exiting", slog.Any("error", w.err)) }()

	batch := idx.NewBatch()
	dirty := false

	timer := time.NewTimer(autoCommit)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case o, ok := <-w.ops:
			if !ok {
				w.err = idx.Batch(batch)
				return
			}
			if p, isPing := o.(pingOp); isPing {
				p.ack <- nil
				continue
			}
			if err := apply(idx, batch, o); err != nil {
				w.err = err
				return
			}
			timer.Reset(autoCommit)
			dirty = true

		case <-timer.C:
			if dirty {
				if err := idx.Batch(batch); err != nil {
					w.err = err
					return
				}
				batch = idx.NewBatch()
				dirty = false
				w.log.Info("auto_commit_fired")
			}
		}
	}
}

// apply mutates the pending batch for a single op. ClearAll is expanded
// into a delete of every document id currently known to the index —
// bleve has no single "delete all" primitive, so this approximates
// tantivy's delete_all_documents(), which itself only takes effect at the
// next commit.
func apply(idx Index, batch Batch, o op) error {
	switch v := o.(type) {
	case addDocumentOp:
		if err := batch.Index(v.id, v.fields); err != nil {
			return err
		}
	case deleteOp:
		batch.Delete(v.id)
	case clearAllOp:
		ids, err := idx.AllDocIDs()
		if err != nil {
			return err
		}
		for _, id := range ids {
			batch.Delete(id)
		}
	}
	return nil
}
