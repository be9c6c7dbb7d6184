package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"codeberg.org/snonux/xamr/internal"
	"codeberg.org/snonux/xamr/internal/amr"
	"codeberg.org/snonux/xamr/internal/embedding"
	"codeberg.org/snonux/xamr/internal/layout"
	"codeberg.org/snonux/xamr/internal/processor"
	"codeberg.org/snonux/xamr/internal/smatch"
	"codeberg.org/snonux/xamr/internal/store"
	"codeberg.org/snonux/xamr/internal/translation"
)

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".xamr" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".xamr")
	}

	// Environment variables, XAMR_AMR_COMMAND for amr.command
	viper.SetEnvPrefix("XAMR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setPathDefaults() {
	d := layout.DefaultPaths()
	viper.SetDefault("paths.data", d.DataDir)
	viper.SetDefault("paths.gold_sentences", d.GoldSentenceDir)
	viper.SetDefault("paths.gold_amr", d.GoldAMRDir)
	viper.SetDefault("paths.translations", d.TranslationDir)
	viper.SetDefault("paths.backtranslations", d.BacktransDir)
	viper.SetDefault("paths.graphs", d.GraphDir)
	viper.SetDefault("paths.report", d.Report)
	viper.SetDefault("paths.gold_unified", d.GoldUnified)
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("openai.api_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	for _, env := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}
	return viper.GetString("gemini.api_key")
}

func apiKeyFor(backend string) string {
	if backend == "gemini" {
		return GetGeminiKey()
	}
	return GetOpenAIKey()
}

// Paths returns the dataset layout with configured overrides
func Paths() layout.Paths {
	setPathDefaults()
	return layout.Paths{
		DataDir:         viper.GetString("paths.data"),
		GoldSentenceDir: viper.GetString("paths.gold_sentences"),
		GoldAMRDir:      viper.GetString("paths.gold_amr"),
		TranslationDir:  viper.GetString("paths.translations"),
		BacktransDir:    viper.GetString("paths.backtranslations"),
		GraphDir:        viper.GetString("paths.graphs"),
		Report:          viper.GetString("paths.report"),
		GoldUnified:     viper.GetString("paths.gold_unified"),
	}
}

// TranslationConfig builds the translation backend configuration
func TranslationConfig() *translation.Config {
	backend := viper.GetString("translation.backend")
	return &translation.Config{
		Backend: backend,
		Model:   viper.GetString("translation.model"),
		APIKey:  apiKeyFor(backend),
		BaseURL: viper.GetString("translation.base_url"),
	}
}

// EmbeddingConfig builds the embedding backend configuration
func EmbeddingConfig() *embedding.Config {
	backend := viper.GetString("embedding.backend")
	config := embedding.DefaultConfig()
	config.Backend = backend
	config.APIKey = apiKeyFor(backend)
	config.BaseURL = viper.GetString("embedding.base_url")
	if model := viper.GetString("embedding.model"); model != "" {
		config.Model = model
	}
	if size := viper.GetInt("embedding.batch_size"); size > 0 {
		config.BatchSize = size
	}
	return config
}

// ParserConfig builds the AMR parser configuration
func ParserConfig() *amr.Config {
	return &amr.Config{
		Backend:  viper.GetString("amr.backend"),
		Fallback: viper.GetString("amr.fallback"),
		Command:  viper.GetString("amr.command"),
		Args:     viper.GetStringSlice("amr.args"),
		ModelDir: viper.GetString("amr.model_dir"),
		Device:   viper.GetString("amr.device"),
		Model:    viper.GetString("amr.model"),
		APIKey:   GetOpenAIKey(),
		BaseURL:  viper.GetString("amr.base_url"),
	}
}

// ProcessorConfig builds the pipeline configuration for one run
func ProcessorConfig(flags *Flags) processor.Config {
	config := processor.DefaultConfig()
	config.Paths = Paths()
	if langs := viper.GetStringSlice("languages"); len(langs) > 0 {
		config.Languages = normalizeLanguages(langs)
	}
	config.TrailingLines = flags.TrailingLines
	if viper.IsSet("unify.trailing_lines") {
		config.TrailingLines = viper.GetInt("unify.trailing_lines")
	}
	config.Smatch = smatch.Options{Restarts: flags.SmatchRestarts, Seed: flags.SmatchSeed}
	if viper.IsSet("smatch.restarts") {
		config.Smatch.Restarts = viper.GetInt("smatch.restarts")
	}
	if viper.IsSet("smatch.seed") {
		config.Smatch.Seed = viper.GetInt64("smatch.seed")
	}
	config.RunID = internal.GenerateRunID(strings.Join(os.Args, " "))
	return config
}

func normalizeLanguages(langs []string) []string {
	var out []string
	for _, l := range langs {
		for _, part := range strings.Split(l, ",") {
			if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

type need int

const (
	needBackend need = 1 << iota
	needEmbedder
	needParser
)

// newProcessor builds a processor with the backends a command needs. The
// returned cleanup closes the ledger.
func newProcessor(ctx context.Context, flags *Flags, needs need) (*processor.Processor, func(), error) {
	var deps processor.Deps
	cleanup := func() {}

	if needs&needBackend != 0 {
		backend, err := translation.NewBackend(ctx, TranslationConfig())
		if err != nil {
			return nil, cleanup, fmt.Errorf("translation backend: %w", err)
		}
		deps.Backend = backend
	}

	if needs&needEmbedder != 0 && !flags.NoCosine {
		embedder, err := embedding.New(ctx, EmbeddingConfig())
		if err != nil {
			return nil, cleanup, fmt.Errorf("embedding backend: %w (use --no-cosine to skip cosine similarity)", err)
		}
		deps.Embedder = embedder
	}

	if needs&needParser != 0 {
		parser, err := amr.NewParser(ParserConfig())
		if err != nil {
			return nil, cleanup, fmt.Errorf("AMR parser: %w", err)
		}
		deps.Parser = parser
	}

	if path := viper.GetString("ledger"); path != "" {
		ledger, err := store.Open(path)
		if err != nil {
			return nil, cleanup, err
		}
		deps.Ledger = ledger
		cleanup = func() { ledger.Close() }
	}

	return processor.NewProcessor(ProcessorConfig(flags), deps), cleanup, nil
}
