// Package llm implements the generation gateway over the Ollama generate API.
package llm

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

// Service generates answers using an Ollama language model.
type Service struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewService creates a generation gateway bound to one model.
func NewService(client *api.Client, model string, timeout time.Duration, logger *zap.Logger) *Service {
	return &Service{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

// Generate produces a completion for the question. When contextDocs is
// non-empty the prompt instructs the model to answer from the documents only;
// otherwise the question is answered directly.
func (s *Service) Generate(ctx context.Context, question string, contextDocs []string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", services.ErrEmptyQuestion
	}

	prompt := BuildPrompt(question, contextDocs)

	s.logger.Debug("llm request",
		zap.String("model", s.model),
		zap.Int("context_docs", len(contextDocs)),
		zap.Int("question_length", len(question)))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stream := false
	req := &api.GenerateRequest{
		Model:  s.model,
		Prompt: prompt,
		Stream: &stream,
	}

	var sb strings.Builder
	err := s.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", s.wrapErr(err)
	}

	answer := strings.TrimSpace(sb.String())
	if answer == "" {
		return "", services.ErrEmptyCompletion
	}
	return answer, nil
}

// wrapErr classifies an Ollama client failure into a transport error with a
// distinct signal for timeout, HTTP status, and connection failures.
func (s *Service) wrapErr(err error) error {
	var statusErr api.StatusError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()):
		return services.WrapTransport(fmt.Sprintf("ollama generation timed out after %s", s.timeout), err)
	case errors.As(err, &statusErr):
		return services.WrapTransport(fmt.Sprintf("ollama returned status %d", statusErr.StatusCode), err)
	default:
		return services.WrapTransport("could not reach ollama, is it running?", err)
	}
}

// VerifyModels checks that every named model is installed on the Ollama host.
func VerifyModels(ctx context.Context, client *api.Client, names ...string) error {
	resp, err := client.List(ctx)
	if err != nil {
		return services.WrapTransport("could not list ollama models", err)
	}

	installed := make(map[string]bool, len(resp.Models))
	for _, m := range resp.Models {
		installed[m.Name] = true
	}

	var missing []string
	for _, name := range names {
		if !installed[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return services.WrapData(
			fmt.Sprintf("required ollama models not found: %s (run: ollama pull <model>)", strings.Join(missing, ", ")),
			nil,
		)
	}
	return nil
}

// Pinger reports whether the Ollama host is reachable.
type Pinger struct {
	client *api.Client
}

// NewPinger wraps a client for health checks.
func NewPinger(client *api.Client) *Pinger {
	return &Pinger{client: client}
}

// Ping lists models as a cheap reachability probe.
func (p *Pinger) Ping(ctx context.Context) error {
	if _, err := p.client.List(ctx); err != nil {
		return services.WrapTransport("ollama is unreachable", err)
	}
	return nil
}
