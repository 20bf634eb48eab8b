// Command ingest indexes PDF documents into the vector store so the chat
// backend can retrieve them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codeware/rag-chatbot/app"
	"github.com/codeware/rag-chatbot/config"
	"github.com/codeware/rag-chatbot/internal/ingest"
	"github.com/codeware/rag-chatbot/internal/observability"
	"github.com/codeware/rag-chatbot/services/vectorstore"
)

const upsertBatchSize = 100

func main() {
	dir := flag.String("dir", "", "directory of PDF files to index (recursive)")
	chunkSize := flag.Int("chunk-size", ingest.DefaultChunkSize, "chunk size in characters")
	chunkOverlap := flag.Int("chunk-overlap", ingest.DefaultChunkOverlap, "overlap between chunks in characters")
	flag.Parse()

	files := flag.Args()

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if *dir != "" {
		found, err := findPDFs(*dir)
		if err != nil {
			logger.Fatal("failed to scan directory", zap.String("dir", *dir), zap.Error(err))
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: ingest [-dir documents/] [file.pdf ...]")
		os.Exit(2)
	}

	deps, err := app.NewDependencies(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize dependencies", zap.Error(err))
	}
	defer func() { _ = deps.Close() }()

	ctx := context.Background()
	if err := deps.VerifyReadiness(ctx); err != nil {
		logger.Fatal("startup verification failed", zap.Error(err))
	}

	chunker := ingest.NewChunker(*chunkSize, *chunkOverlap)

	total := 0
	for _, path := range files {
		n, err := indexFile(ctx, deps, chunker, path)
		if err != nil {
			logger.Fatal("indexing failed", zap.String("file", path), zap.Error(err))
		}
		logger.Info("indexed file", zap.String("file", path), zap.Int("chunks", n))
		total += n
	}

	logger.Info("ingestion complete",
		zap.Int("files", len(files)),
		zap.Int("chunks", total),
		zap.String("collection", cfg.Qdrant.Collection))
}

func indexFile(ctx context.Context, deps *app.Dependencies, chunker *ingest.Chunker, path string) (int, error) {
	text, err := ingest.ExtractPDF(path)
	if err != nil {
		return 0, err
	}

	chunks := chunker.Split(text, filepath.Base(path))
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no chunks created from %s", path)
	}

	batch := make([]vectorstore.Point, 0, upsertBatchSize)
	for _, chunk := range chunks {
		vector, err := deps.Embedding.EmbedText(ctx, chunk.Text)
		if err != nil {
			return 0, fmt.Errorf("embedding chunk %d: %w", chunk.Index, err)
		}

		batch = append(batch, vectorstore.Point{
			ID:     uuid.NewString(),
			Vector: vector,
			Text:   chunk.Text,
			Source: chunk.Source,
			Index:  chunk.Index,
		})

		if len(batch) >= upsertBatchSize {
			if err := deps.VectorStore.Upsert(ctx, batch); err != nil {
				return 0, err
			}
			batch = batch[:0]
		}
	}

	if err := deps.VectorStore.Upsert(ctx, batch); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func findPDFs(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
