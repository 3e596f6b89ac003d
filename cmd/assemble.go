package cmd

import (
	"fmt"
	"log/slog"

	"github.com/docpipe/docpipe/internal/artifacts"
	"github.com/docpipe/docpipe/internal/audit"
	"github.com/docpipe/docpipe/internal/chunk"
	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/embed"
	"github.com/docpipe/docpipe/internal/enrich"
	"github.com/docpipe/docpipe/internal/extract"
	"github.com/docpipe/docpipe/internal/lifecycle"
	"github.com/docpipe/docpipe/internal/normalize"
	"github.com/docpipe/docpipe/internal/pipeline"
	"github.com/docpipe/docpipe/internal/providers"
	"github.com/docpipe/docpipe/internal/vectorstore"
)

// buildEngine wires the eight stages in execution order from the loaded
// configuration. Provider clients are resolved here so that a missing
// provider fails at startup, not mid-run.
func buildEngine(cfg *config.Config, logger *slog.Logger) (*pipeline.Engine, error) {
	registry := providers.NewRegistry(cfg.Global.Providers, cfg.Embedding.Dimensions)
	saver := artifacts.NewWriter(cfg.Global.Paths.OutputDir, cfg.Extraction.Timestamp)

	extractStage, err := buildExtraction(cfg, registry, saver, logger)
	if err != nil {
		return nil, err
	}
	chunkStage, err := buildChunking(cfg, registry, saver, logger)
	if err != nil {
		return nil, err
	}
	enrichStage, err := buildEnrichment(cfg, registry, saver, logger)
	if err != nil {
		return nil, err
	}
	auditStage, err := buildAudit(cfg, registry, logger)
	if err != nil {
		return nil, err
	}
	embedStage, err := buildEmbedding(cfg, registry, logger)
	if err != nil {
		return nil, err
	}
	storageStage, err := buildStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	stages := []pipeline.Stage{
		extractStage,
		chunkStage,
		enrichStage,
		auditStage,
		embedStage,
		normalize.NewStage(cfg.Normalization, logger),
		storageStage,
		lifecycle.NewStage(cfg.Lifecycle, cfg.Global.Paths, logger),
	}

	return pipeline.NewEngine(stages,
		pipeline.WithEnabledFunc(cfg.Global.StageEnabled),
		pipeline.WithLogger(logger),
	), nil
}

func buildExtraction(cfg *config.Config, registry *providers.Registry, saver *artifacts.Writer, logger *slog.Logger) (*extract.Stage, error) {
	var vision extract.VisionCompleter
	if cfg.Extraction.UseVLM && cfg.Extraction.VLM.Provider != "" {
		client, err := registry.LLM(cfg.Extraction.VLM.Provider)
		if err != nil {
			return nil, fmt.Errorf("vlm extractor; %w", err)
		}
		vc, ok := client.(extract.VisionCompleter)
		if !ok {
			return nil, fmt.Errorf("provider %q does not support vision requests", cfg.Extraction.VLM.Provider)
		}
		vision = vc
	}

	reg := extract.BuildRegistry(cfg.Extraction, vision)
	fallback, err := extract.NewFallbackManager(reg, cfg.Extraction, logger)
	if err != nil {
		return nil, err
	}
	return extract.NewStage(cfg.Extraction, cfg.Global.Paths.InputDir, fallback, saver, logger), nil
}

func buildChunking(cfg *config.Config, registry *providers.Registry, saver *artifacts.Writer, logger *slog.Logger) (*chunk.Stage, error) {
	var embClient providers.EmbeddingClient
	if cfg.Chunking.Strategy == "semantic" {
		client, err := registry.Embeddings(cfg.Embedding.Provider)
		if err != nil {
			return nil, fmt.Errorf("semantic chunking; %w", err)
		}
		// Boundary detection hits the same endpoint as the embedding
		// stage, so it shares that stage's rate limits.
		embClient = providers.NewRateLimitedEmbedder(client, cfg.Embedding.RateLimit, logger)
	}

	var llmClient providers.LLMClient
	if cfg.Chunking.Strategy == "llm_guided" {
		client, err := registry.LLM(cfg.Chunking.LLM.Provider)
		if err != nil {
			return nil, fmt.Errorf("llm-guided chunking; %w", err)
		}
		llmClient = client
	}

	chunker, err := chunk.NewChunkerFromConfig(cfg.Chunking, embClient, cfg.Embedding.Model, llmClient, logger)
	if err != nil {
		return nil, err
	}
	return chunk.NewStage(cfg.Chunking, chunker, saver, logger), nil
}

func buildEnrichment(cfg *config.Config, registry *providers.Registry, saver *artifacts.Writer, logger *slog.Logger) (*enrich.Stage, error) {
	var llm providers.LLMClient
	if cfg.Enrichment.UseLLM {
		client, err := registry.LLM(cfg.Enrichment.LLM.Provider)
		if err != nil {
			return nil, fmt.Errorf("enrichment classifier; %w", err)
		}
		llm = client
	}
	return enrich.NewStage(cfg.Enrichment, cfg.Global.Regulatory.Frameworks, llm, saver, logger), nil
}

func buildAudit(cfg *config.Config, registry *providers.Registry, logger *slog.Logger) (*audit.Stage, error) {
	var llm providers.LLMClient
	if cfg.Audit.Summary.Enabled {
		client, err := registry.LLM(cfg.Audit.Summary.LLM.Provider)
		if err != nil {
			return nil, fmt.Errorf("audit summary; %w", err)
		}
		llm = client
	}
	return audit.NewStage(cfg.Audit, llm, logger), nil
}

func buildEmbedding(cfg *config.Config, registry *providers.Registry, logger *slog.Logger) (*embed.Stage, error) {
	client, err := registry.Embeddings(cfg.Embedding.Provider)
	if err != nil {
		return nil, fmt.Errorf("embedding stage; %w", err)
	}

	var redisTier *embed.RedisCache
	if cfg.Embedding.Cache.Redis.Enabled {
		redisTier = embed.NewRedisCache(cfg.Embedding.Cache.Redis, cfg.Embedding.Cache.TTLDays, logger)
	}
	return embed.NewStage(cfg.Embedding, client, redisTier, logger), nil
}

// buildStorage only opens a backend client when the stage is enabled;
// a disabled stage still appears in run reports as skipped.
func buildStorage(cfg *config.Config, logger *slog.Logger) (*vectorstore.Stage, error) {
	if !cfg.Global.StageEnabled("storage") {
		return vectorstore.NewStage(cfg.Storage, nil, logger), nil
	}
	store, err := vectorstore.NewStore(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	return vectorstore.NewStage(cfg.Storage, store, logger), nil
}
