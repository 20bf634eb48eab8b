// Package rag orchestrates the retrieval-augmented generation pipeline:
// embed the question, search the vector store, filter by similarity, and
// generate a grounded answer.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/codeware/rag-chatbot/services"
	"github.com/codeware/rag-chatbot/services/vectorstore"
)

// Embedder turns text into a query vector.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Searcher retrieves the most similar document chunks for a vector.
type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]vectorstore.SearchResult, error)
}

// Generator produces a completion, grounded in context documents when
// they are provided.
type Generator interface {
	Generate(ctx context.Context, question string, contextDocs []string) (string, error)
}

// Answer is the pipeline result. Sources lists the distinct documents the
// answer was grounded in, ordered by retrieval rank; it is empty but
// non-nil when nothing relevant was found.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// Service runs the retrieval pipeline with a fixed similarity threshold.
type Service struct {
	embedder  Embedder
	searcher  Searcher
	generator Generator
	threshold float32
	topK      int
	logger    *zap.Logger
}

// NewService wires the pipeline stages. Results scoring below threshold
// are discarded before generation.
func NewService(embedder Embedder, searcher Searcher, generator Generator, threshold float32, topK int, logger *zap.Logger) *Service {
	return &Service{
		embedder:  embedder,
		searcher:  searcher,
		generator: generator,
		threshold: threshold,
		topK:      topK,
		logger:    logger,
	}
}

// Answer runs the full pipeline for a question. When no retrieved chunk
// clears the similarity threshold, the model generates a polite
// no-information response instead of answering ungrounded.
func (s *Service) Answer(ctx context.Context, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, services.ErrEmptyQuestion
	}

	vector, err := s.embedder.EmbedText(ctx, question)
	if err != nil {
		return Answer{}, s.wrapErr(err)
	}

	results, err := s.searcher.Search(ctx, vector, s.topK)
	if err != nil {
		return Answer{}, s.wrapErr(err)
	}

	docs, sources := s.filterByScore(results)

	s.logger.Info("retrieved context",
		zap.Int("hits", len(results)),
		zap.Int("relevant", len(docs)),
		zap.Float32("threshold", s.threshold))

	if len(docs) == 0 {
		apology, err := s.generator.Generate(ctx, noContextPrompt(question), nil)
		if err != nil {
			return Answer{}, s.wrapErr(err)
		}
		return Answer{Answer: apology, Sources: []string{}}, nil
	}

	answer, err := s.generator.Generate(ctx, question, docs)
	if err != nil {
		return Answer{}, s.wrapErr(err)
	}

	return Answer{Answer: answer, Sources: sources}, nil
}

// filterByScore keeps chunks at or above the threshold, in retrieval
// order, and collects their distinct non-empty sources by first
// appearance.
func (s *Service) filterByScore(results []vectorstore.SearchResult) ([]string, []string) {
	var docs []string
	sources := []string{}
	seen := make(map[string]bool)

	for _, r := range results {
		if r.Score < s.threshold {
			continue
		}
		docs = append(docs, r.Text)
		if r.Source != "" && !seen[r.Source] {
			seen[r.Source] = true
			sources = append(sources, r.Source)
		}
	}
	return docs, sources
}

func noContextPrompt(question string) string {
	return fmt.Sprintf(`You are a helpful and professional assistant. No relevant documents were found for the user's query.

User Question: %s

Generate a polite, concise 2-3 sentence response that:
- acknowledges the user's question,
- clearly explains that no matching information was found,
- offers guidance on rephrasing or contacting support for further help.

Your response should be empathetic, clear, and user-friendly.

Response:`, question)
}

// wrapErr keeps domain errors from the pipeline stages intact and wraps
// anything else as an internal failure.
func (s *Service) wrapErr(err error) error {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return services.WrapInternal("rag pipeline failed", err)
}
