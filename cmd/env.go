package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/blueprint-cli/internal/adjudicate"
	"github.com/sells-group/blueprint-cli/internal/config"
	"github.com/sells-group/blueprint-cli/internal/fusion"
	"github.com/sells-group/blueprint-cli/internal/pipeline"
	"github.com/sells-group/blueprint-cli/internal/provider"
	"github.com/sells-group/blueprint-cli/internal/store"
	"github.com/sells-group/blueprint-cli/internal/telemetry"
	anthropicpkg "github.com/sells-group/blueprint-cli/pkg/anthropic"
)

// pipelineEnv bundles the handles a command needs to run extractions.
type pipelineEnv struct {
	Pipeline *pipeline.Pipeline
	Store    store.Store
}

func (e *pipelineEnv) Close() {
	_ = e.Store.Close()
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "blueprint.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline wires the providers, store, adjudicator, and telemetry into a
// ready pipeline. The Claude provider doubles as the first-pass region
// classifier when an API key is configured.
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	lowConf := cfg.Hotspot.LowConfThreshold

	reg := provider.NewRegistry()
	if cfg.Providers.Reducto.BaseURL != "" {
		reg.Register(provider.NewReducto(cfg.Providers.Reducto, lowConf))
	}
	if cfg.Providers.OCR.BaseURL != "" {
		reg.Register(provider.NewOCRWord(cfg.Providers.OCR, lowConf))
	}
	if cfg.Providers.LayoutLM.BaseURL != "" {
		reg.Register(provider.NewLayoutLM(cfg.Providers.LayoutLM, lowConf))
	}
	if cfg.Providers.Donut.BaseURL != "" {
		reg.Register(provider.NewDonut(cfg.Providers.Donut, lowConf))
	}

	var classifier pipeline.RegionClassifier
	var anthropicClient anthropicpkg.Client
	if cfg.Providers.Claude.Key != "" {
		anthropicClient = anthropicpkg.NewClient(cfg.Providers.Claude.Key)
		claude := provider.NewClaude(anthropicClient, cfg.Providers.Claude, lowConf)
		reg.Register(claude)
		classifier = claude
	}

	if len(reg.List()) == 0 {
		_ = st.Close()
		return nil, eris.New("no providers configured; set at least one base URL or the Claude API key")
	}

	var adj *adjudicate.Adjudicator
	if cfg.Adjudicator.Enabled && anthropicClient != nil {
		adj = adjudicate.New(anthropicClient, cfg.Adjudicator)
	} else {
		adj = adjudicate.New(nil, cfg.Adjudicator)
	}

	tel := telemetry.NewLogger(cfg.Telemetry.LogPath)

	rules, err := fusionRules(cfg, rulesFile)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &pipelineEnv{
		Pipeline: pipeline.NewWithRules(cfg, rules, reg, classifier, adj, st, tel),
		Store:    st,
	}, nil
}

// fusionRules resolves the fusion rule set: the --rules YAML file when given,
// otherwise the rules embedded in the config.
func fusionRules(cfg *config.Config, path string) (fusion.Rules, error) {
	if path == "" {
		return fusion.RulesFromConfig(cfg), nil
	}
	rules, err := fusion.LoadRules(path)
	if err != nil {
		return fusion.Rules{}, err
	}
	return *rules, nil
}
