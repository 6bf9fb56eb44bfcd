package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/0xcro3dile/faqbot-go/internal/adapters/chatlog"
	"github.com/0xcro3dile/faqbot-go/internal/adapters/knowledge"
	"github.com/0xcro3dile/faqbot-go/internal/adapters/llm"
	"github.com/0xcro3dile/faqbot-go/internal/domain/ports"
	"github.com/0xcro3dile/faqbot-go/internal/domain/usecases"
	"github.com/0xcro3dile/faqbot-go/internal/infrastructure/config"
	"github.com/0xcro3dile/faqbot-go/internal/infrastructure/logging"
)

// app holds the wired pipeline.
type app struct {
	chat   *usecases.ChatUseCase
	ingest *usecases.IngestUseCase
	store  ports.InteractionStore
}

func (a *app) Close() error { return a.store.Close() }

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
}

// newApp builds the index and every adapter. A knowledge base that cannot
// be loaded is fatal.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, metrics ports.Metrics) (*app, error) {
	ingest := usecases.NewIngestUseCase(knowledge.NewJSONLoader(cfg.Knowledge.Path), logger)
	idx, err := ingest.Build(ctx)
	if err != nil {
		return nil, err
	}

	completion, err := newCompletionService(cfg.LLM)
	if err != nil {
		return nil, err
	}

	store, err := newInteractionStore(cfg.Chatlog)
	if err != nil {
		return nil, err
	}

	composer := usecases.NewComposer(completion,
		usecases.Persona{
			Name:      cfg.Institution.Name,
			ShortName: cfg.Institution.ShortName,
			Website:   cfg.Institution.Website,
		},
		usecases.GenerationParams{
			Model:       cfg.LLM.ResolvedModel(),
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		},
	)
	recorder := usecases.NewRecorder(store, logger, metrics)
	chat := usecases.NewChatUseCase(idx, composer, recorder,
		usecases.ChatConfig{
			TopK:              cfg.Retrieval.TopK,
			Threshold:         cfg.Retrieval.Threshold,
			GenerationTimeout: cfg.LLM.Timeout,
		},
		logger, metrics,
	)

	logger.Info("pipeline ready",
		zap.Int("entries", idx.Len()),
		zap.String("llm", completion.Name()),
		zap.String("model", cfg.LLM.ResolvedModel()),
		zap.String("chatlog", cfg.Chatlog.Driver),
		zap.String("chatlog_path", cfg.Chatlog.ResolvedPath()),
	)
	return &app{chat: chat, ingest: ingest, store: store}, nil
}

func newCompletionService(cfg config.LLMConfig) (ports.CompletionService, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return llm.NewOllamaAdapter(cfg.BaseURL, cfg.ResolvedModel(), cfg.Timeout), nil
	case config.ProviderGroq, config.ProviderOpenAI:
		baseURL := cfg.BaseURL
		if baseURL == "" && cfg.Provider == config.ProviderOpenAI {
			baseURL = llm.OpenAIBaseURL
		}
		return llm.NewOpenAIAdapter(llm.OpenAIOptions{
			Provider: cfg.Provider,
			BaseURL:  baseURL,
			APIKey:   cfg.APIKey,
			Model:    cfg.ResolvedModel(),
			Timeout:  cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func newInteractionStore(cfg config.ChatlogConfig) (ports.InteractionStore, error) {
	switch cfg.Driver {
	case config.DriverJSON:
		return chatlog.NewJSONFileStore(cfg.ResolvedPath()), nil
	case config.DriverSQLite:
		return chatlog.NewSQLiteStore(cfg.ResolvedPath())
	case config.DriverNone:
		return chatlog.NopStore{}, nil
	default:
		return nil, fmt.Errorf("unknown chatlog driver %q", cfg.Driver)
	}
}
