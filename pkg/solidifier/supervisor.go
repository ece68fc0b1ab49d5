package solidifier

import (
	"context"
	"fmt"
	"sync"

	"github.com/chronicle-go/chronicle/pkg/events"
	"github.com/chronicle-go/chronicle/pkg/storage"
)

// Supervisor owns the fixed worker array and the dispatcher goroutines
// that turn each worker's fetchRequests into real upstream calls. Workers
// are never added or removed at runtime (Design decision: no rebalancing
// of the m mod N routing).
type Supervisor struct {
	workers []*Worker
	fetcher Fetcher

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewSupervisor creates n independent workers and starts their dispatcher
// goroutines, each translating that worker's fetchRequests into calls
// against fetcher.
func NewSupervisor(ctx context.Context, n int, store storage.Store, fetcher Fetcher, broker *events.Broker) *Supervisor {
	ctx, cancel := context.WithCancel(ctx)
	s := &Supervisor{fetcher: fetcher, cancel: cancel}
	s.workers = make([]*Worker, n)
	for i := range s.workers {
		s.workers[i] = newWorker(i, store, broker)
		s.wg.Add(1)
		go s.dispatch(ctx, s.workers[i])
	}
	return s
}

// Stop halts every dispatcher goroutine and waits for them to exit.
func (s *Supervisor) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Solidify routes a milestone to worker (milestone_index mod N) and walks
// its past cone to completion.
func (s *Supervisor) Solidify(ctx context.Context, state *MilestoneState) (*SyncRecord, error) {
	w := s.workers[int(state.MilestoneIndex)%len(s.workers)]
	return w.Process(ctx, state)
}

func (s *Supervisor) dispatch(ctx context.Context, w *Worker) {
	defer s.wg.Done()
	for {
		select {
		case req := <-w.fetchOut:
			resp := s.resolve(ctx, req)
			select {
			case req.resume <- resp:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Supervisor) resolve(ctx context.Context, req fetchRequest) fetchResponse {
	switch req.kind {
	case fetchMessage:
		doc, err := s.fetcher.FetchBlock(ctx, req.blockId)
		return fetchResponse{doc: doc, err: err}
	case fetchMetadata:
		milestone, err := s.fetcher.FetchMetadata(ctx, req.blockId)
		return fetchResponse{milestone: milestone, err: err}
	default:
		return fetchResponse{err: fmt.Errorf("solidifier: unknown fetch kind %q", req.kind)}
	}
}
