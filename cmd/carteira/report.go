package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gfranco/carteira/internal/collector/yahoo"
	"github.com/gfranco/carteira/internal/config"
	"github.com/gfranco/carteira/internal/llm/factory"
	"github.com/gfranco/carteira/internal/logger"
	"github.com/gfranco/carteira/internal/metrics"
	"github.com/gfranco/carteira/internal/narrative"
	"github.com/gfranco/carteira/internal/notifier"
	"github.com/gfranco/carteira/internal/notifier/email"
	"github.com/gfranco/carteira/internal/notifier/telegram"
	"github.com/gfranco/carteira/internal/notifier/webhook"
	"github.com/gfranco/carteira/internal/pipeline"
	"github.com/gfranco/carteira/internal/report"
	"github.com/gfranco/carteira/internal/sentiment"
	"github.com/gfranco/carteira/internal/storage/archive"
)

var (
	reportNoDeliver bool
	reportOutFile   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate and deliver the weekly report once",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportNoDeliver, "no-deliver", false, "generate without sending to any channel")
	reportCmd.Flags().StringVarP(&reportOutFile, "output", "o", "", "also write the PDF to this path")
	rootCmd.AddCommand(reportCmd)
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	log := logger.Must(debug)

	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		cfg.LLM.OpenAI.APIKey = os.Getenv("GROQ_API_KEY")
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, log, nil
}

// buildPipeline wires every component from configuration. The returned
// registry gathers both HTTP and pipeline metrics.
func buildPipeline(cfg *config.Config, log *zap.Logger) (*pipeline.Pipeline, *metrics.Registry, error) {
	provider, err := factory.New(cfg.LLM)
	if err != nil {
		return nil, nil, fmt.Errorf("creating llm provider: %w", err)
	}

	channels := notifier.NewRegistry()
	if cfg.Notifiers.Telegram.Enabled {
		channels.Register(telegram.New(cfg.Notifiers.Telegram.BotToken, cfg.Notifiers.Telegram.ChatID))
	}
	if cfg.Notifiers.Email.Enabled {
		e := cfg.Notifiers.Email
		channels.Register(email.New(e.Host, e.Port, e.Username, e.Password, e.From, e.To))
	}
	if cfg.Notifiers.Webhook.Enabled {
		channels.Register(webhook.New(cfg.Notifiers.Webhook.URL, cfg.Notifiers.Webhook.Headers))
	}

	store, err := archive.New(cfg.Archive)
	if err != nil {
		return nil, nil, fmt.Errorf("creating archive: %w", err)
	}

	reg := metrics.NewRegistry()
	p := pipeline.New(pipeline.Deps{
		Assets:       cfg.Assets(),
		Correlations: cfg.Correlations,
		Source:       yahoo.New(log),
		Scorer:       sentiment.New(provider, log),
		Narrator:     narrative.New(provider, cfg.Narrative.StageDelay, log),
		Renderer:     report.NewRenderer(log),
		Archive:      store,
		Notifiers:    channels,
		Metrics:      reg,
		Logger:       log,
	})
	return p, reg, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	p, _, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}

	ctx := context.Background()
	run, err := p.Execute(ctx)
	if err != nil {
		return fmt.Errorf("report run failed: %w", err)
	}

	if reportOutFile != "" {
		if err := os.WriteFile(reportOutFile, run.PDF, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", reportOutFile, err)
		}
		log.Info("report written", zap.String("path", reportOutFile))
	}

	if reportNoDeliver {
		log.Info("delivery skipped", zap.String("run_id", run.ID))
		return nil
	}

	if errs := p.Deliver(ctx, run); len(errs) > 0 {
		for channel, derr := range errs {
			log.Error("delivery failed", zap.String("channel", channel), zap.Error(derr))
		}
		return fmt.Errorf("%d delivery channel(s) failed", len(errs))
	}

	log.Info("report delivered", zap.String("run_id", run.ID))
	return nil
}
