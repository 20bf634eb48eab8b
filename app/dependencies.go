// Package app wires configuration, clients, services, and handlers into a
// single dependency container.
package app

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/codeware/rag-chatbot/config"
	"github.com/codeware/rag-chatbot/handlers"
	"github.com/codeware/rag-chatbot/services/classifier"
	"github.com/codeware/rag-chatbot/services/embedding"
	"github.com/codeware/rag-chatbot/services/llm"
	"github.com/codeware/rag-chatbot/services/rag"
	"github.com/codeware/rag-chatbot/services/vectorstore"
)

// Dependencies holds all initialized application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	OllamaClient *api.Client
	QdrantConn   *grpc.ClientConn

	Embedding   *embedding.Service
	LLM         *llm.Service
	VectorStore *vectorstore.Service
	Classifier  *classifier.Service
	RAG         *rag.Service

	ChatHandler   *handlers.ChatHandler
	HealthHandler *handlers.HealthHandler
}

// NewDependencies creates and wires all application dependencies
func NewDependencies(cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	ollamaURL, err := url.Parse(cfg.Ollama.Host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", cfg.Ollama.Host, err)
	}
	ollamaClient := api.NewClient(ollamaURL, http.DefaultClient)

	qdrantConn, err := grpc.Dial(cfg.Qdrant.Address(),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant at %s: %w", cfg.Qdrant.Address(), err)
	}

	embeddingSvc := embedding.NewService(ollamaClient, cfg.Ollama.EmbeddingModel, cfg.Ollama.EmbedTimeout, logger)
	llmSvc := llm.NewService(ollamaClient, cfg.Ollama.LLMModel, cfg.Ollama.GenerateTimeout, logger)
	vectorStore := vectorstore.NewService(qdrantConn, cfg.Qdrant.Collection, cfg.Qdrant.VectorSize, logger)
	classifierSvc := classifier.NewService(llmSvc, cfg.RAG.FallbackGreeting, logger)
	ragSvc := rag.NewService(embeddingSvc, vectorStore, llmSvc,
		cfg.RAG.SimilarityThreshold, cfg.RAG.TopK, logger)

	deps := &Dependencies{
		Config:        cfg,
		Logger:        logger,
		OllamaClient:  ollamaClient,
		QdrantConn:    qdrantConn,
		Embedding:     embeddingSvc,
		LLM:           llmSvc,
		VectorStore:   vectorStore,
		Classifier:    classifierSvc,
		RAG:           ragSvc,
		ChatHandler:   handlers.NewChatHandler(classifierSvc, ragSvc, logger),
		HealthHandler: handlers.NewHealthHandler(llm.NewPinger(ollamaClient), vectorStore, logger),
	}

	logger.Info("dependencies initialized",
		zap.String("ollama_host", cfg.Ollama.Host),
		zap.String("qdrant_address", cfg.Qdrant.Address()),
		zap.String("collection", cfg.Qdrant.Collection))

	return deps, nil
}

// VerifyReadiness checks that the required models are installed and the
// vector collection exists, creating the collection if needed. Call this
// once at startup before serving traffic.
func (d *Dependencies) VerifyReadiness(ctx context.Context) error {
	if err := llm.VerifyModels(ctx, d.OllamaClient,
		d.Config.Ollama.LLMModel, d.Config.Ollama.EmbeddingModel); err != nil {
		return fmt.Errorf("ollama model verification failed: %w", err)
	}

	if err := d.VectorStore.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("qdrant collection setup failed: %w", err)
	}

	return nil
}

// Close releases all held connections
func (d *Dependencies) Close() error {
	if d.QdrantConn != nil {
		if err := d.QdrantConn.Close(); err != nil {
			return fmt.Errorf("failed to close qdrant connection: %w", err)
		}
	}
	return nil
}
