package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/0xcro3dile/faqbot-go/internal/adapters/knowledge"
	"github.com/0xcro3dile/faqbot-go/internal/domain/entities"
	"github.com/0xcro3dile/faqbot-go/internal/domain/usecases"
	"github.com/0xcro3dile/faqbot-go/internal/infrastructure/config"
	httpserver "github.com/0xcro3dile/faqbot-go/internal/infrastructure/http"
	"github.com/0xcro3dile/faqbot-go/internal/infrastructure/metrics"
)

func newRootCommand() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "faqbot",
		Short:         "Retrieval-grounded FAQ assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, json or toml)")
	config.RegisterFlags(root.PersistentFlags())

	load := func(cmd *cobra.Command) (*config.Config, error) {
		return config.Load(configFile, cmd.Flags())
	}

	root.AddCommand(
		newServeCommand(load),
		newAskCommand(load),
		newRetrieveCommand(load),
	)
	return root
}

type loadFunc func(cmd *cobra.Command) (*config.Config, error)

func newServeCommand(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP chat server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			prom := metrics.New()
			app, err := newApp(cmd.Context(), cfg, logger, prom)
			if err != nil {
				logger.Error("startup failed", zap.Error(err))
				return err
			}
			defer app.Close()

			server := httpserver.NewServer(app.chat, logger, httpserver.Options{
				Addr:         cfg.Server.Addr,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				RateLimit:    cfg.Server.RateLimit,
				RateBurst:    cfg.Server.RateBurst,
				Title:        cfg.Institution.ShortName + " Assistant",
				Metrics:      prom.Handler(),
			})

			var watcher *knowledge.Watcher
			if cfg.Knowledge.Watch {
				if watcher, err = knowledge.NewWatcher(logger); err != nil {
					return fmt.Errorf("starting knowledge watcher: %w", err)
				}
				defer watcher.Stop()
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return server.Start(ctx) })
			if watcher != nil {
				g.Go(func() error { return app.ingest.Watch(ctx, watcher, app.chat) })
			}
			return g.Wait()
		},
	}
}

func newAskCommand(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question through the full pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			app, err := newApp(cmd.Context(), cfg, logger, nil)
			if err != nil {
				return err
			}
			defer app.Close()

			resp := app.chat.Chat(cmd.Context(), &entities.ChatRequest{Message: strings.Join(args, " ")})
			fmt.Fprintln(cmd.OutOrStdout(), resp.Reply)
			return nil
		},
	}
}

func newRetrieveCommand(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "retrieve <question>",
		Short: "Show ranked knowledge entries without calling the model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.ValidateRetrieval(); err != nil {
				return err
			}

			ingest := usecases.NewIngestUseCase(knowledge.NewJSONLoader(cfg.Knowledge.Path), nil)
			idx, err := ingest.Build(cmd.Context())
			if err != nil {
				return err
			}

			results := idx.Retrieve(strings.Join(args, " "), cfg.Retrieval.TopK, 0)
			out := cmd.OutOrStdout()
			for i, r := range results {
				fmt.Fprintf(out, "%d. [%.4f] %s\n   %s\n", i+1, r.Score, r.Entry.Question, r.Entry.Answer)
			}
			fmt.Fprintf(out, "grounded: %t (threshold %.2f)\n",
				usecases.IsGrounded(results, cfg.Retrieval.Threshold), cfg.Retrieval.Threshold)
			return nil
		},
	}
}
