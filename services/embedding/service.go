// Package embedding implements the embedding gateway over the Ollama
// embeddings API.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"github.com/codeware/rag-chatbot/services"
)

// Service turns text into dense vectors using an Ollama embedding model.
type Service struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewService creates an embedding gateway bound to one model.
func NewService(client *api.Client, model string, timeout time.Duration, logger *zap.Logger) *Service {
	return &Service{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

// EmbedText returns the embedding vector for the text. The vector is
// converted to float32 to match the vector store's wire format.
func (s *Service) EmbedText(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, services.ErrEmptyText
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.Embeddings(ctx, &api.EmbeddingRequest{
		Model:  s.model,
		Prompt: text,
	})
	if err != nil {
		return nil, s.wrapErr(err)
	}

	if len(resp.Embedding) == 0 {
		return nil, services.ErrEmptyEmbedding
	}

	vector := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		vector[i] = float32(v)
	}

	s.logger.Debug("embedded text",
		zap.String("model", s.model),
		zap.Int("text_length", len(text)),
		zap.Int("dimension", len(vector)))

	return vector, nil
}

func (s *Service) wrapErr(err error) error {
	var statusErr api.StatusError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()):
		return services.WrapTransport(fmt.Sprintf("ollama embedding timed out after %s", s.timeout), err)
	case errors.As(err, &statusErr):
		return services.WrapTransport(fmt.Sprintf("ollama returned status %d", statusErr.StatusCode), err)
	default:
		return services.WrapTransport("could not reach ollama, is it running?", err)
	}
}
