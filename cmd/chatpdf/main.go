package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ZayedShahcode/ChatPDF/internal/answerer"
	"github.com/ZayedShahcode/ChatPDF/internal/chunker"
	"github.com/ZayedShahcode/ChatPDF/internal/config"
	"github.com/ZayedShahcode/ChatPDF/internal/documents"
	"github.com/ZayedShahcode/ChatPDF/internal/indexer"
	"github.com/ZayedShahcode/ChatPDF/internal/llm"
	"github.com/ZayedShahcode/ChatPDF/internal/logger"
	"github.com/ZayedShahcode/ChatPDF/internal/registry"
	"github.com/ZayedShahcode/ChatPDF/internal/server"
)

func main() {
	reset := flag.Bool("reset", false, "Wipe the registry, uploads, and indexes before serving")
	flag.Parse()

	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Fail fast on a missing credential before any network call.
	provider, err := llm.New(llm.Config{
		Provider:    cfg.Provider,
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		EmbedModel:  cfg.EmbedModel,
		ChatModel:   cfg.ChatModel,
		OllamaModel: cfg.OllamaModel,
	})
	if err != nil {
		log.Fatal("Failed to init llm provider", "provider", cfg.Provider, "error", err)
	}

	ctx := context.Background()

	reg, err := registry.Open(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("Failed to open registry", "error", err)
	}
	defer reg.Close()
	if err := reg.Init(ctx); err != nil {
		log.Fatal("Failed to migrate registry", "error", err)
	}

	splitter := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	builder := indexer.New(splitter, provider, log)
	ans := answerer.New(provider, cfg.TopK, log)

	docs, err := documents.NewService(log, reg, builder, ans, cfg.UploadDir, cfg.VectorDir)
	if err != nil {
		log.Fatal("Failed to init document service", "error", err)
	}

	if *reset {
		log.Warn("Clearing all data", "upload_dir", cfg.UploadDir, "vector_dir", cfg.VectorDir)
		if err := docs.ClearAll(ctx); err != nil {
			log.Fatal("Failed to clear data", "error", err)
		}
	}

	router := server.NewRouter(server.NewHandler(log, docs))

	log.Info("Server listening",
		"port", cfg.Port,
		"provider", cfg.Provider,
		"embedding_model", provider.Model(),
	)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server failed", "error", err)
	}
}
