// Package classifier decides whether a query needs document retrieval or
// can be answered directly.
package classifier

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Decision is the routing outcome for a user query.
type Decision string

const (
	// DecisionDirect answers from the model alone.
	DecisionDirect Decision = "DIRECT"
	// DecisionRAG retrieves documents before answering.
	DecisionRAG Decision = "RAG"
)

// Generator produces a completion for a prompt, optionally grounded in
// context documents.
type Generator interface {
	Generate(ctx context.Context, question string, contextDocs []string) (string, error)
}

// Service routes queries by asking the language model for a one-word
// decision.
type Service struct {
	generator        Generator
	fallbackGreeting string
	logger           *zap.Logger
}

// NewService creates a classifier. fallbackGreeting is returned when a
// direct response cannot be generated.
func NewService(generator Generator, fallbackGreeting string, logger *zap.Logger) *Service {
	return &Service{
		generator:        generator,
		fallbackGreeting: fallbackGreeting,
		logger:           logger,
	}
}

const decisionPromptFormat = `You are a decision classifier. Decide whether the user's query should be:
- DIRECT → Answered immediately by the assistant (greetings, chit-chat, general knowledge, questions about the assistant, opinion questions, simple factual questions)
- RAG → Requires searching internal documents (company policies, pricing, services, procedures, product details, account-related questions, technical instructions, configuration details, etc.)

User Query: %q

Rules:
Use DIRECT when:
 - The query is general conversation (hello, how are you, who are you, what can you do)
 - It is general knowledge (what is python, what is AI)
 - It is opinion/creative (tell me a joke, explain something)
 - It does NOT mention company-specific or product-specific details

Use RAG when:
 - The query asks about company information, policies, pricing, packages, billing
 - Product or system features, configuration, APIs, errors, troubleshooting
 - Anything requiring factual accuracy about stored knowledge

Respond with ONLY one word: DIRECT or RAG.

Decision:`

// Classify routes a query. Empty queries are answered directly, and a
// failed or ambiguous model decision falls through to retrieval so the
// answer can still be grounded.
func (s *Service) Classify(ctx context.Context, query string) Decision {
	if strings.TrimSpace(query) == "" {
		return DecisionDirect
	}

	prompt := fmt.Sprintf(decisionPromptFormat, query)

	decision, err := s.generator.Generate(ctx, prompt, nil)
	if err != nil {
		s.logger.Error("classification failed, falling back to retrieval", zap.Error(err))
		return DecisionRAG
	}

	decision = strings.ToUpper(strings.TrimSpace(decision))
	s.logger.Info("classified query",
		zap.String("decision", decision),
		zap.Int("query_length", len(query)))

	if decision == string(DecisionDirect) {
		return DecisionDirect
	}
	return DecisionRAG
}

// DirectResponse answers a conversational query without retrieval. A
// generation failure degrades to the configured greeting instead of an
// error so chit-chat never hard-fails.
func (s *Service) DirectResponse(ctx context.Context, query string) string {
	prompt := fmt.Sprintf(
		"You are a friendly and helpful assistant. Respond naturally to the user's message.\n\nUser: %s\n\nAssistant:",
		query,
	)

	response, err := s.generator.Generate(ctx, prompt, nil)
	if err != nil {
		s.logger.Error("direct response failed, using fallback greeting", zap.Error(err))
		return s.fallbackGreeting
	}
	return response
}
