// Package worker runs retrieval work on a single background goroutine.
// Requests are handled strictly one at a time in arrival order and every
// accepted request gets exactly one response.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"scadarag/internal/domain"
	"scadarag/internal/service"
)

// ErrStopped is returned by Do once Run has returned.
var ErrStopped = errors.New("worker stopped")

type job struct {
	req   Request
	reply chan Response
}

type Worker struct {
	session *service.Session
	log     logr.Logger
	queue   chan job
	done    chan struct{}
}

// New creates a worker over session with room for queueSize pending requests.
func New(session *service.Session, queueSize int, log logr.Logger) *Worker {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Worker{
		session: session,
		log:     log.WithName("worker"),
		queue:   make(chan job, queueSize),
		done:    make(chan struct{}),
	}
}

// Run handles requests until ctx is cancelled. It must be called once.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-w.queue:
			j.reply <- w.handle(ctx, j.req)
		}
	}
}

// Do enqueues req and waits for its response. Cancelling ctx stops the wait,
// not the request: a request already queued still runs to completion.
func (w *Worker) Do(ctx context.Context, req Request) (Response, error) {
	j := job{req: req, reply: make(chan Response, 1)}
	select {
	case w.queue <- j:
	case <-w.done:
		return Response{}, ErrStopped
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
	select {
	case resp := <-j.reply:
		return resp, nil
	case <-w.done:
		// Run may have replied just before stopping
		select {
		case resp := <-j.reply:
			return resp, nil
		default:
			return Response{}, ErrStopped
		}
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

func (w *Worker) handle(ctx context.Context, req Request) Response {
	w.log.V(1).Info("handling message", "type", req.Type)
	resp, err := w.dispatch(ctx, req)
	if err != nil {
		w.log.Info("message failed", "type", req.Type, "error", err.Error())
		return errorResponse(err)
	}
	return resp
}

func (w *Worker) dispatch(ctx context.Context, req Request) (Response, error) {
	switch req.Type {
	case TypeIngest:
		var p IngestPayload
		if err := decode(req.Payload, &p); err != nil {
			return Response{}, err
		}
		docs := make([]domain.Document, len(p.Docs))
		for i, d := range p.Docs {
			docs[i] = d.Document()
		}
		if err := w.session.Ingest(ctx, docs); err != nil {
			return Response{}, err
		}
		return indexed(), nil

	case TypeReset:
		if err := w.session.Reset(); err != nil {
			return Response{}, err
		}
		return indexed(), nil

	case TypeRemove:
		var p RemovePayload
		if err := decode(req.Payload, &p); err != nil {
			return Response{}, err
		}
		if _, err := w.session.Remove(ctx, p.IDs...); err != nil {
			return Response{}, err
		}
		return indexed(), nil

	case TypeQuery:
		var p QueryPayload
		if err := decode(req.Payload, &p); err != nil {
			return Response{}, err
		}
		k := 0
		if p.K != nil {
			k = *p.K
		}
		ans, err := w.session.Query(ctx, p.Query, k)
		if err != nil {
			return Response{}, err
		}
		return NewResult(ans), nil

	default:
		return Response{}, fmt.Errorf("unknown message type %q", req.Type)
	}
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.New("missing payload")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	return nil
}
