package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// Ensure AssemblerService implements the interface.
var _ driving.ContextAssembler = (*AssemblerService)(nil)

// AssemblerConfig holds the assembly defaults. Zero fields take the
// values of domain.DefaultAppSettings.
type AssemblerConfig struct {
	TopK        int
	Timeout     time.Duration
	TokenBudget int
	Mode        domain.ContextMode
}

// AssemblerConfigFrom extracts the assembly settings from app settings.
func AssemblerConfigFrom(s domain.AppSettings) AssemblerConfig {
	return AssemblerConfig{
		TopK:        s.Retrieval.TopK,
		Timeout:     s.Retrieval.Timeout,
		TokenBudget: s.Context.TokenBudget,
		Mode:        s.Context.Mode,
	}
}

func (c AssemblerConfig) withDefaults() AssemblerConfig {
	defaults := domain.DefaultAppSettings()
	if c.TopK <= 0 {
		c.TopK = defaults.Retrieval.TopK
	}
	if c.Timeout <= 0 {
		c.Timeout = defaults.Retrieval.Timeout
	}
	if c.TokenBudget <= 0 {
		c.TokenBudget = defaults.Context.TokenBudget
	}
	if !c.Mode.IsValid() {
		c.Mode = defaults.Context.Mode
	}
	return c
}

// AssemblerService builds the context bundle for each chat turn.
type AssemblerService struct {
	docStore    driven.DocumentStore
	chunkStore  driven.ChunkStore
	sessions    driven.SessionStore
	search      driving.SimilaritySearch
	counter     driven.TokenCounter
	checksummer driven.Checksummer
	metrics     driven.MetricsRecorder
	config      AssemblerConfig
}

// NewAssemblerService creates a new context assembler.
func NewAssemblerService(
	docStore driven.DocumentStore,
	chunkStore driven.ChunkStore,
	sessions driven.SessionStore,
	search driving.SimilaritySearch,
	counter driven.TokenCounter,
	checksummer driven.Checksummer,
	config AssemblerConfig,
) *AssemblerService {
	return &AssemblerService{
		docStore:    docStore,
		chunkStore:  chunkStore,
		sessions:    sessions,
		search:      search,
		counter:     counter,
		checksummer: checksummer,
		metrics:     noopMetrics{},
		config:      config.withDefaults(),
	}
}

// SetMetrics sets the recorder for build measurements.
func (s *AssemblerService) SetMetrics(m driven.MetricsRecorder) {
	if m != nil {
		s.metrics = m
	}
}

// Build implements driving.ContextAssembler.
//
// Explicit contexts (pinned items, then the message's own) are always kept.
// Retrieved chunks that repeat an explicit context are dropped, then the
// lowest-scoring retrieved chunks are dropped until the bundle fits the
// budget.
func (s *AssemblerService) Build(ctx context.Context, req domain.BuildRequest) (*domain.BuildResult, error) {
	budget := req.TokenBudget
	if budget <= 0 {
		budget = s.config.TokenBudget
	}
	mode := req.Mode
	if !mode.IsValid() {
		mode = s.config.Mode
	}

	explicit, err := s.explicitContexts(ctx, req, mode)
	if err != nil {
		return nil, err
	}

	result := &domain.BuildResult{}
	var retrieved []domain.RetrievedContext
	if strings.TrimSpace(req.Message) != "" {
		retrieved, result.RetrievalErr = s.retrieve(ctx, req.Message)
		if result.RetrievalErr != nil {
			if errors.Is(result.RetrievalErr, domain.ErrDimensionMismatch) {
				return nil, result.RetrievalErr
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			reason := degradationReason(result.RetrievalErr)
			s.metrics.RecordDegradation(reason)
			logger.Warn("retrieval degraded (%s): %v", reason, result.RetrievalErr)
		}
	}

	retrieved, result.Deduplicated = deduplicate(explicit, retrieved)
	sortRetrieved(retrieved, req.ActiveDocumentID)

	explicitTokens := 0
	for _, e := range explicit {
		explicitTokens += e.TokenCount
	}
	result.OverBudget = explicitTokens > budget
	retrieved, result.Dropped = fitBudget(retrieved, budget-explicitTokens)

	sources := make([]domain.ContextSource, 0, len(explicit)+len(retrieved))
	for _, e := range explicit {
		sources = append(sources, e)
	}
	for _, r := range retrieved {
		sources = append(sources, r)
	}
	result.Bundle = domain.ContextBundle{
		SessionID:        req.SessionID,
		ActiveDocumentID: req.ActiveDocumentID,
		Sources:          sources,
	}
	result.Rendered = RenderBundle(result.Bundle)

	s.metrics.RecordBuild(result.Bundle.TotalTokens(), result.Deduplicated, result.Dropped)
	logger.Debug("context: %d explicit, %d retrieved, %d tokens (budget %d), %d deduplicated, %d dropped",
		len(explicit), len(retrieved), result.Bundle.TotalTokens(), budget, result.Deduplicated, result.Dropped)
	return result, nil
}

// explicitContexts returns pinned items (session mode only) followed by the
// request's contexts, first occurrence of each ID winning.
func (s *AssemblerService) explicitContexts(
	ctx context.Context, req domain.BuildRequest, mode domain.ContextMode,
) ([]domain.ExplicitContext, error) {
	var all []domain.ExplicitContext
	if mode == domain.ContextModeSession && req.SessionID != "" && s.sessions != nil {
		items, err := s.sessions.Items(ctx, req.SessionID)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", req.SessionID, err)
		}
		for _, item := range items {
			all = append(all, item.Context)
		}
	}
	all = append(all, req.Explicit...)

	seen := make(map[string]bool, len(all))
	out := make([]domain.ExplicitContext, 0, len(all))
	for _, e := range all {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: explicit context without ID", domain.ErrInvalidInput)
		}
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		if e.TokenCount <= 0 {
			e.TokenCount = s.counter.Count(e.Content)
		}
		if e.Checksum == "" {
			e.Checksum = s.checksummer.Checksum(e.Content)
		}
		out = append(out, e)
	}
	return out, nil
}

// retrieve embeds the message and searches within the retrieval timeout.
func (s *AssemblerService) retrieve(ctx context.Context, message string) ([]domain.RetrievedContext, error) {
	if s.search == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	rctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	hits, err := s.search.SearchText(rctx, message, s.config.TopK)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrSearchTimeout) {
			err = fmt.Errorf("%w: %w", domain.ErrSearchTimeout, err)
		}
		return nil, err
	}

	titles := make(map[string]string)
	out := make([]domain.RetrievedContext, 0, len(hits))
	for _, h := range hits {
		title, ok := titles[h.Chunk.DocumentID]
		if !ok {
			if doc, err := s.docStore.GetDocument(ctx, h.Chunk.DocumentID); err == nil {
				title = doc.Title
			}
			titles[h.Chunk.DocumentID] = title
		}
		out = append(out, domain.RetrievedContext{
			Chunk:         h.Chunk,
			DocumentTitle: title,
			Score:         h.Score,
			TokenCount:    s.counter.Count(h.Chunk.Content),
		})
	}
	return out, nil
}

// deduplicate drops retrieved contexts whose ID repeats an earlier source or
// whose pages an explicit context of the same document already covers.
func deduplicate(explicit []domain.ExplicitContext, retrieved []domain.RetrievedContext) ([]domain.RetrievedContext, int) {
	seen := make(map[string]bool, len(explicit)+len(retrieved))
	for _, e := range explicit {
		seen[e.ID] = true
	}

	kept := retrieved[:0:0]
	dropped := 0
	for _, r := range retrieved {
		if seen[r.Chunk.ID] || coveredByExplicit(explicit, r) {
			dropped++
			continue
		}
		seen[r.Chunk.ID] = true
		kept = append(kept, r)
	}
	return kept, dropped
}

func coveredByExplicit(explicit []domain.ExplicitContext, r domain.RetrievedContext) bool {
	pages := r.PageNumbers()
	for _, e := range explicit {
		if e.Covers(r.Chunk.DocumentID, pages) {
			return true
		}
	}
	return false
}

// sortRetrieved orders by score descending. Among equal scores the active
// document comes first, then chunk position and document ID.
func sortRetrieved(retrieved []domain.RetrievedContext, activeDocumentID string) {
	sort.SliceStable(retrieved, func(i, j int) bool {
		a, b := retrieved[i], retrieved[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		aActive := activeDocumentID != "" && a.Chunk.DocumentID == activeDocumentID
		bActive := activeDocumentID != "" && b.Chunk.DocumentID == activeDocumentID
		if aActive != bActive {
			return aActive
		}
		if a.Chunk.Position != b.Chunk.Position {
			return a.Chunk.Position < b.Chunk.Position
		}
		return a.Chunk.DocumentID < b.Chunk.DocumentID
	})
}

// fitBudget drops contexts from the end (lowest score) until the rest fit
// within available tokens.
func fitBudget(retrieved []domain.RetrievedContext, available int) ([]domain.RetrievedContext, int) {
	total := 0
	for _, r := range retrieved {
		total += r.TokenCount
	}
	n := len(retrieved)
	for n > 0 && total > available {
		n--
		total -= retrieved[n].TokenCount
	}
	return retrieved[:n], len(retrieved) - n
}

func degradationReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyIndex):
		return "empty_index"
	case errors.Is(err, domain.ErrSearchTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return "embedding_unavailable"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	default:
		return "provider_error"
	}
}

// SelectionContext implements driving.ContextAssembler.
func (s *AssemblerService) SelectionContext(
	ctx context.Context, documentID, text string, loc *domain.SelectionLocation,
) (domain.ExplicitContext, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ExplicitContext{}, fmt.Errorf("%w: empty selection", domain.ErrInvalidInput)
	}
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return domain.ExplicitContext{}, fmt.Errorf("get document %s: %w", documentID, err)
	}

	checksum := s.checksummer.Checksum(text)
	return domain.ExplicitContext{
		ID:            "selection:" + doc.ID + ":" + checksum,
		Shape:         domain.ExplicitSelection,
		DocumentID:    doc.ID,
		DocumentTitle: doc.Title,
		Content:       text,
		TokenCount:    s.counter.Count(text),
		Checksum:      checksum,
		Location:      loc,
	}, nil
}

// PageRangeContext implements driving.ContextAssembler.
func (s *AssemblerService) PageRangeContext(
	ctx context.Context, documentID string, from, to int,
) (domain.ExplicitContext, error) {
	pr := domain.PageRange{From: from, To: to}
	if from < 1 || to < from {
		return domain.ExplicitContext{}, fmt.Errorf("%w: page range %d-%d", domain.ErrInvalidInput, from, to)
	}

	doc, chunks, err := s.documentChunks(ctx, documentID)
	if err != nil {
		return domain.ExplicitContext{}, err
	}

	var parts []string
	for _, c := range chunks {
		for _, p := range c.Pages() {
			if pr.Contains(p) {
				parts = append(parts, c.Content)
				break
			}
		}
	}
	if len(parts) == 0 {
		return domain.ExplicitContext{}, fmt.Errorf("%w: no text on pages %d-%d of %s",
			domain.ErrInvalidInput, from, to, documentID)
	}

	content := strings.Join(parts, renderSeparator)
	return domain.ExplicitContext{
		ID:            fmt.Sprintf("pages:%s:%d-%d", doc.ID, from, to),
		Shape:         domain.ExplicitPageRange,
		DocumentID:    doc.ID,
		DocumentTitle: doc.Title,
		Content:       content,
		TokenCount:    s.counter.Count(content),
		Checksum:      s.checksummer.Checksum(content),
		Range:         &pr,
	}, nil
}

// DocumentContext implements driving.ContextAssembler.
func (s *AssemblerService) DocumentContext(ctx context.Context, documentID string) (domain.ExplicitContext, error) {
	doc, chunks, err := s.documentChunks(ctx, documentID)
	if err != nil {
		return domain.ExplicitContext{}, err
	}
	if len(chunks) == 0 {
		return domain.ExplicitContext{}, fmt.Errorf("%w: document %s has no processed text",
			domain.ErrInvalidInput, documentID)
	}

	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	content := strings.Join(parts, renderSeparator)
	return domain.ExplicitContext{
		ID:            "document:" + doc.ID,
		Shape:         domain.ExplicitDocument,
		DocumentID:    doc.ID,
		DocumentTitle: doc.Title,
		Content:       content,
		TokenCount:    s.counter.Count(content),
		Checksum:      s.checksummer.Checksum(content),
	}, nil
}

// documentChunks loads a completed document and its chunks.
func (s *AssemblerService) documentChunks(ctx context.Context, documentID string) (*domain.Document, []domain.Chunk, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, nil, fmt.Errorf("get document %s: %w", documentID, err)
	}
	if doc.Status != domain.StatusCompleted {
		return nil, nil, fmt.Errorf("%w: document %s is %s", domain.ErrInvalidInput, documentID, doc.Status)
	}
	chunks, err := s.chunkStore.ChunksForDocument(ctx, documentID)
	if err != nil {
		return nil, nil, fmt.Errorf("load chunks for %s: %w", documentID, err)
	}
	return doc, chunks, nil
}
