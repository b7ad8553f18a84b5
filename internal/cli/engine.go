package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/newstag/internal/cache"
	"github.com/ppiankov/newstag/internal/classify"
	"github.com/ppiankov/newstag/internal/dictionary"
	"github.com/ppiankov/newstag/internal/llm"
	"github.com/ppiankov/newstag/internal/model"
)

// engineFlags are the classification flags shared by classify and batch
type engineFlags struct {
	companies   string
	sectors     string
	threshold   int
	engine      string
	llmProvider string
	llmModel    string
	noCache     bool
}

func addEngineFlags(cmd *cobra.Command, f *engineFlags) {
	defaults := model.DefaultConfig()

	cmd.Flags().StringVar(&f.companies, "companies", defaults.Dictionary.CompaniesPath, "company dictionary CSV")
	cmd.Flags().StringVar(&f.sectors, "sectors", defaults.Dictionary.SectorsPath, "sector dictionary CSV")
	cmd.Flags().IntVar(&f.threshold, "threshold", defaults.Match.Threshold, "similarity threshold (0-100)")
	cmd.Flags().StringVar(&f.engine, "engine", defaults.Match.Engine, "classification engine (fuzzy, llm)")
	cmd.Flags().StringVar(&f.llmProvider, "llm-provider", defaults.LLM.Provider, "LLM provider (openai, anthropic, ollama, gemini)")
	cmd.Flags().StringVar(&f.llmModel, "llm-model", defaults.LLM.Model, "LLM model name")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable cache")
}

// apply copies explicitly set flags over cfg and revalidates it
func (f *engineFlags) apply(cmd *cobra.Command, cfg *model.Config) error {
	flags := cmd.Flags()
	if flags.Changed("companies") {
		cfg.Dictionary.CompaniesPath = f.companies
	}
	if flags.Changed("sectors") {
		cfg.Dictionary.SectorsPath = f.sectors
	}
	if flags.Changed("threshold") {
		cfg.Match.Threshold = f.threshold
	}
	if flags.Changed("engine") {
		cfg.Match.Engine = f.engine
	}
	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = f.llmProvider
		// A model chosen for another provider rarely fits
		if !flags.Changed("llm-model") && cfg.LLM.Model == model.DefaultConfig().LLM.Model {
			cfg.LLM.Model = ""
		}
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = f.llmModel
	}
	if f.noCache {
		cfg.Cache.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// loadDictionary loads both dictionaries named by cfg
func loadDictionary(cfg *model.Config) (*dictionary.Dictionary, error) {
	dict, err := dictionary.Load(cfg.Dictionary.CompaniesPath, cfg.Dictionary.SectorsPath)
	if err != nil {
		return nil, err
	}
	logf("✓ Loaded %d companies and %d sectors\n", len(dict.Companies), dict.Sectors.Len())
	return dict, nil
}

// buildClassifier returns the classifier selected by cfg.Match.Engine
func buildClassifier(cfg *model.Config, dict *dictionary.Dictionary) (classify.Classifier, error) {
	switch cfg.Match.Engine {
	case "fuzzy":
		return classify.NewFuzzyClassifier(dict, cfg.Match.Threshold), nil

	case "llm":
		provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
		if err != nil {
			return nil, fmt.Errorf("create LLM provider: %w", err)
		}
		return llm.NewClassifier(provider, dict, cache.New(cfg.Cache)), nil

	default:
		return nil, fmt.Errorf("unknown engine: %q (supported: fuzzy, llm)", cfg.Match.Engine)
	}
}
