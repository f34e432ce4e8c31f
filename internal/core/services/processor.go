package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// Ensure ProcessorService implements the interface.
var _ driving.DocumentProcessor = (*ProcessorService)(nil)

// DefaultWorkers bounds ProcessAll when no worker count is configured.
const DefaultWorkers = 4

// run tracks one in-flight processing run.
type run struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// ProcessorService owns document status transitions. It loads a document's
// source, hands it to the chunking provider and commits the resulting
// chunks atomically through the chunk store.
type ProcessorService struct {
	docStore   driven.DocumentStore
	chunkStore driven.ChunkStore
	loader     driven.SourceLoader
	provider   driven.ChunkingProvider
	notifier   driven.StatusNotifier
	metrics    driven.MetricsRecorder
	workers    int

	mu       sync.Mutex
	inFlight map[string]*run
	retired  map[string]struct{}

	now func() time.Time
}

// NewProcessorService creates a processor. notifier may be nil.
func NewProcessorService(
	docStore driven.DocumentStore,
	chunkStore driven.ChunkStore,
	loader driven.SourceLoader,
	provider driven.ChunkingProvider,
	notifier driven.StatusNotifier,
	workers int,
) *ProcessorService {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &ProcessorService{
		docStore:   docStore,
		chunkStore: chunkStore,
		loader:     loader,
		provider:   provider,
		notifier:   notifier,
		metrics:    noopMetrics{},
		workers:    workers,
		inFlight:   make(map[string]*run),
		retired:    make(map[string]struct{}),
		now:        time.Now,
	}
}

// SetMetrics sets the recorder for processing measurements.
func (s *ProcessorService) SetMetrics(m driven.MetricsRecorder) {
	if m != nil {
		s.metrics = m
	}
}

// Process implements driving.DocumentProcessor.
func (s *ProcessorService) Process(ctx context.Context, documentID string) error {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document %s: %w", documentID, err)
	}

	runCtx, r, err := s.claim(ctx, doc)
	if err != nil {
		return err
	}
	defer s.release(doc.ID, r)

	log := logger.With("document", doc.ID)
	log.Debug("processing %s (%s)", doc.Title, doc.Status)

	from := doc.Status
	if err := s.transition(ctx, doc, domain.StatusProcessing, ""); err != nil {
		return err
	}
	s.publish(ctx, domain.StatusChange{DocumentID: doc.ID, From: from, To: domain.StatusProcessing})

	start := s.now()
	s.metrics.ProcessingStarted()

	result, err := s.ingest(runCtx, doc)
	if err != nil {
		s.metrics.RecordProcessing(string(domain.StatusFailed), 0, s.now().Sub(start))
		return s.fail(ctx, doc, err)
	}

	if result.Title != "" {
		doc.Title = result.Title
	}
	doc.TotalChunks = len(result.Chunks)
	if err := s.transition(context.WithoutCancel(ctx), doc, domain.StatusCompleted, ""); err != nil {
		s.metrics.RecordProcessing(string(domain.StatusFailed), 0, s.now().Sub(start))
		return s.fail(ctx, doc, err)
	}
	s.metrics.RecordProcessing(string(domain.StatusCompleted), len(result.Chunks), s.now().Sub(start))
	s.publish(ctx, domain.StatusChange{
		DocumentID: doc.ID,
		From:       domain.StatusProcessing,
		To:         domain.StatusCompleted,
		Chunks:     len(result.Chunks),
	})

	log.Info("processed %q: %d chunks in %v", doc.Title, len(result.Chunks), s.now().Sub(start).Round(time.Millisecond))
	return nil
}

// ingest loads, chunks and commits. Nothing is committed unless every
// step succeeds and the run was not cancelled.
func (s *ProcessorService) ingest(ctx context.Context, doc *domain.Document) (*driven.ProviderResult, error) {
	raw, err := s.loader.Load(ctx, *doc)
	if err != nil {
		return nil, fmt.Errorf("load source: %w", err)
	}

	result, err := s.provider.Process(ctx, *doc, raw.Content)
	if err != nil {
		return nil, err
	}
	if len(result.Chunks) == 0 && len(bytes.TrimSpace(raw.Content)) > 0 {
		return nil, domain.ErrNoChunks
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.chunkStore.Put(ctx, doc.ID, result.Chunks); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}
	return result, nil
}

// fail removes partial output, marks the document failed and returns the
// cause wrapped in domain.ErrIngestionFailure.
func (s *ProcessorService) fail(ctx context.Context, doc *domain.Document, cause error) error {
	cleanup := context.WithoutCancel(ctx)
	log := logger.With("document", doc.ID)

	if err := s.chunkStore.DeleteChunks(cleanup, doc.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Warn("delete chunks after failure: %v", err)
	}

	doc.TotalChunks = 0
	if err := s.transition(cleanup, doc, domain.StatusFailed, cause.Error()); err != nil {
		log.Warn("mark failed: %v", err)
	} else {
		s.publish(cleanup, domain.StatusChange{
			DocumentID: doc.ID,
			From:       domain.StatusProcessing,
			To:         domain.StatusFailed,
			Error:      cause.Error(),
		})
	}

	log.Warn("processing failed: %v", cause)
	return fmt.Errorf("%w: %s: %w", domain.ErrIngestionFailure, doc.ID, cause)
}

// transition validates and persists a status change. SaveDocument is an
// upsert, so a document removed since it was read is never recreated.
func (s *ProcessorService) transition(ctx context.Context, doc *domain.Document, to domain.ProcessingStatus, lastError string) error {
	if !doc.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, doc.Status, to)
	}
	if _, err := s.docStore.GetDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("document %s: %w", doc.ID, err)
	}

	doc.Status = to
	doc.LastError = lastError
	doc.UpdatedAt = s.now()
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	return nil
}

// claim registers a run for doc, rejecting concurrent runs and invalid
// starting states.
func (s *ProcessorService) claim(ctx context.Context, doc *domain.Document) (context.Context, *run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, gone := s.retired[doc.ID]; gone {
		return nil, nil, fmt.Errorf("%w: document %s was removed", domain.ErrNotFound, doc.ID)
	}
	if _, busy := s.inFlight[doc.ID]; busy {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrProcessingInProgress, doc.ID)
	}
	if doc.Status == domain.StatusProcessing {
		// Left over from an interrupted run; nothing in this process owns it.
		logger.Warn("recovering stale processing state for %s", doc.ID)
		doc.Status = domain.StatusFailed
	}
	if !doc.Status.CanTransitionTo(domain.StatusProcessing) {
		return nil, nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, doc.Status, domain.StatusProcessing)
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{cancel: cancel, done: make(chan struct{})}
	s.inFlight[doc.ID] = r
	return runCtx, r, nil
}

func (s *ProcessorService) release(documentID string, r *run) {
	s.mu.Lock()
	if s.inFlight[documentID] == r {
		delete(s.inFlight, documentID)
	}
	s.mu.Unlock()
	r.cancel()
	close(r.done)
}

// Cancel implements driving.DocumentProcessor. It blocks until the
// cancelled run has finished cleaning up.
func (s *ProcessorService) Cancel(documentID string) bool {
	return s.stop(documentID, false)
}

// Retire cancels any in-flight run for a document that is about to be
// deleted and rejects later runs with domain.ErrNotFound. Once Retire
// returns, no run can write the document again.
func (s *ProcessorService) Retire(documentID string) bool {
	return s.stop(documentID, true)
}

func (s *ProcessorService) stop(documentID string, retire bool) bool {
	s.mu.Lock()
	if retire {
		s.retired[documentID] = struct{}{}
	}
	r, ok := s.inFlight[documentID]
	s.mu.Unlock()
	if !ok {
		return false
	}
	r.cancel()
	<-r.done
	return true
}

// InFlight returns how many documents are being processed.
func (s *ProcessorService) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight)
}

// ProcessAll implements driving.DocumentProcessor.
func (s *ProcessorService) ProcessAll(ctx context.Context, documentIDs []string) error {
	logger.Section("Processing")
	logger.Debug("documents: %d, workers: %d", len(documentIDs), s.workers)

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(s.workers)

	for _, id := range documentIDs {
		g.Go(func() error {
			if err := s.Process(ctx, id); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// ProcessPending implements driving.DocumentProcessor.
func (s *ProcessorService) ProcessPending(ctx context.Context) error {
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	var ids []string
	for _, d := range docs {
		if d.Status == domain.StatusPending || d.Status == domain.StatusFailed {
			ids = append(ids, d.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return s.ProcessAll(ctx, ids)
}

// Subscribe implements driving.DocumentProcessor.
func (s *ProcessorService) Subscribe(ctx context.Context) (<-chan domain.StatusChange, error) {
	if s.notifier == nil {
		return nil, fmt.Errorf("%w: no status notifier configured", domain.ErrInvalidInput)
	}
	return s.notifier.Subscribe(ctx)
}

func (s *ProcessorService) publish(ctx context.Context, change domain.StatusChange) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, change); err != nil {
		logger.Warn("publish status change for %s: %v", change.DocumentID, err)
	}
}
