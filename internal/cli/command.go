package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/xamr/internal"
	"codeberg.org/snonux/xamr/internal/archive"
	"codeberg.org/snonux/xamr/internal/layout"
	"codeberg.org/snonux/xamr/internal/logger"
	"codeberg.org/snonux/xamr/internal/metrics"
	"codeberg.org/snonux/xamr/internal/models"
	"codeberg.org/snonux/xamr/internal/store"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "xamr",
		Short: "Cross-lingual AMR parsing via machine translation",
		Long: `xamr translates non-English sentences into English, parses the
translations into Abstract Meaning Representation graphs and scores
both steps: BLEU and cosine similarity for the translations, smatch for
the graphs.

Examples:
  xamr run DE data/amr-release-2.0-amrs-test-bolt.sentences.DE.txt
  xamr translate DE ES            # translate every category file
  xamr parse                      # parse all translations
  xamr unify --truncate           # merge graph files per language
  xamr smatch                     # score unified graphs against gold`,
		Version:       internal.Version,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Setup(viper.GetString("log.level"), viper.GetString("log.format"))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if flags.MetricsFile == "" {
				return nil
			}
			return metrics.WriteTextfile(flags.MetricsFile)
		},
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	rootCmd.AddCommand(
		newRunCommand(flags),
		newTranslateCommand(flags),
		newBacktranslateCommand(flags),
		newParseCommand(flags),
		newUnifyCommand(flags),
		newSmatchCommand(flags),
		newEvaluateTranslationCommand(flags),
		newExtractSourcesCommand(flags),
		newListModelsCommand(),
		newArchiveCommand(),
		newHistoryCommand(),
	)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	d := layout.DefaultPaths()
	pf := cmd.PersistentFlags()

	// Global flags
	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.xamr.yaml)")
	pf.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")
	pf.StringVar(&flags.LogFormat, "log-format", flags.LogFormat, "Log format: console or json")
	pf.StringVar(&flags.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile when done")
	pf.StringVar(&flags.Ledger, "ledger", "", "SQLite ledger recording every computed metric")
	pf.StringSliceVar(&flags.Languages, "lang", flags.Languages, "Languages to process")

	// Dataset layout
	pf.String("data-dir", d.DataDir, "Directory with the source-language sentence files")
	pf.String("gold-sentences-dir", d.GoldSentenceDir, "Directory with the English gold sentences")
	pf.String("gold-amr-dir", d.GoldAMRDir, "Directory with the gold AMR graphs")
	pf.String("translation-dir", d.TranslationDir, "Output directory for translations")
	pf.String("backtranslation-dir", d.BacktransDir, "Output directory for backtranslations")
	pf.String("graph-dir", d.GraphDir, "Output directory for parsed graphs")
	pf.String("report", d.Report, "Evaluation report the scores are appended to")
	pf.String("gold-unified", d.GoldUnified, "Unified gold graph file")

	// Translation flags
	pf.StringVar(&flags.TranslationBackend, "translation-backend", flags.TranslationBackend, "Translation backend: openai or gemini")
	pf.StringVar(&flags.TranslationModel, "translation-model", flags.TranslationModel, "Translation model")

	// Embedding flags
	pf.StringVar(&flags.EmbeddingBackend, "embedding-backend", flags.EmbeddingBackend, "Embedding backend: openai or gemini")
	pf.StringVar(&flags.EmbeddingModel, "embedding-model", flags.EmbeddingModel, "Embedding model for cosine similarity")
	pf.BoolVar(&flags.NoCosine, "no-cosine", false, "Skip cosine similarity")

	// AMR parser flags
	pf.StringVar(&flags.AMRBackend, "amr-backend", flags.AMRBackend, "AMR parser: command or openai")
	pf.StringVar(&flags.AMRFallback, "amr-fallback", "", "Parser used for sentences the primary parser fails on")
	pf.StringVar(&flags.AMRCommand, "amr-command", flags.AMRCommand, "External sentence-to-graph command")
	pf.StringVar(&flags.AMRModelDir, "amr-model-dir", "", "Model directory passed to the parser command")
	pf.StringVar(&flags.AMRDevice, "amr-device", "", "Device passed to the parser command, e.g. cpu")
	pf.StringVar(&flags.AMRModel, "amr-model", flags.AMRModel, "Chat model for the openai parser")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("log.format", pf.Lookup("log-format"))
	viper.BindPFlag("ledger", pf.Lookup("ledger"))
	viper.BindPFlag("languages", pf.Lookup("lang"))

	viper.BindPFlag("paths.data", pf.Lookup("data-dir"))
	viper.BindPFlag("paths.gold_sentences", pf.Lookup("gold-sentences-dir"))
	viper.BindPFlag("paths.gold_amr", pf.Lookup("gold-amr-dir"))
	viper.BindPFlag("paths.translations", pf.Lookup("translation-dir"))
	viper.BindPFlag("paths.backtranslations", pf.Lookup("backtranslation-dir"))
	viper.BindPFlag("paths.graphs", pf.Lookup("graph-dir"))
	viper.BindPFlag("paths.report", pf.Lookup("report"))
	viper.BindPFlag("paths.gold_unified", pf.Lookup("gold-unified"))

	viper.BindPFlag("translation.backend", pf.Lookup("translation-backend"))
	viper.BindPFlag("translation.model", pf.Lookup("translation-model"))
	viper.BindPFlag("embedding.backend", pf.Lookup("embedding-backend"))
	viper.BindPFlag("embedding.model", pf.Lookup("embedding-model"))

	viper.BindPFlag("amr.backend", pf.Lookup("amr-backend"))
	viper.BindPFlag("amr.fallback", pf.Lookup("amr-fallback"))
	viper.BindPFlag("amr.command", pf.Lookup("amr-command"))
	viper.BindPFlag("amr.model_dir", pf.Lookup("amr-model-dir"))
	viper.BindPFlag("amr.device", pf.Lookup("amr-device"))
	viper.BindPFlag("amr.model", pf.Lookup("amr-model"))
}

func newRunCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "run <LANG> <file>",
		Short: "Translate, parse and score one source file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, cleanup, err := newProcessor(cmd.Context(), flags, needBackend|needEmbedder|needParser)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := proc.ProcessFile(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("\nDone!\n")
			return nil
		},
	}
}

func newTranslateCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "translate [LANG...]",
		Short: "Translate every category file of the given languages into English",
		RunE: func(cmd *cobra.Command, args []string) error {
			setLanguages(args)
			proc, cleanup, err := newProcessor(cmd.Context(), flags, needBackend|needEmbedder)
			if err != nil {
				return err
			}
			defer cleanup()

			for _, lang := range proc.Languages() {
				if err := proc.TranslateLanguage(cmd.Context(), lang); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newBacktranslateCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "backtranslate [LANG...]",
		Short: "Translate the English translations back and score them against the sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			setLanguages(args)
			proc, cleanup, err := newProcessor(cmd.Context(), flags, needBackend|needEmbedder)
			if err != nil {
				return err
			}
			defer cleanup()

			for _, lang := range proc.Languages() {
				if err := proc.Backtranslate(cmd.Context(), lang); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newParseCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "parse",
		Short: "Parse every translation file into AMR graphs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, cleanup, err := newProcessor(cmd.Context(), flags, needParser)
			if err != nil {
				return err
			}
			defer cleanup()
			return proc.ParseTranslations(cmd.Context())
		},
	}
}

func newUnifyCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unify",
		Short: "Merge the category graph files into one file per language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, cleanup, err := newProcessor(cmd.Context(), flags, 0)
			if err != nil {
				return err
			}
			defer cleanup()
			return proc.Unify(flags.Truncate)
		},
	}
	cmd.Flags().BoolVar(&flags.Truncate, "truncate", false, "Drop the trailing lines of every graph file first")
	cmd.Flags().IntVar(&flags.TrailingLines, "lines", flags.TrailingLines, "Number of trailing lines --truncate drops")
	viper.BindPFlag("unify.trailing_lines", cmd.Flags().Lookup("lines"))
	return cmd
}

func newSmatchCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smatch [gold predicted]",
		Short: "Score graph files with smatch",
		Long: `Without arguments every unified language file is scored against the
unified gold file. With two arguments the predicted file is scored
against the gold file.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("accepts 0 or 2 arg(s), received %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, cleanup, err := newProcessor(cmd.Context(), flags, 0)
			if err != nil {
				return err
			}
			defer cleanup()

			if len(args) == 2 {
				return proc.EvaluateSmatchFiles(cmd.Context(), args[0], args[1])
			}
			return proc.EvaluateSmatch(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&flags.SmatchRestarts, "restarts", flags.SmatchRestarts, "Random restarts of the mapping search")
	cmd.Flags().Int64Var(&flags.SmatchSeed, "seed", flags.SmatchSeed, "Seed of the random restarts")
	viper.BindPFlag("smatch.restarts", cmd.Flags().Lookup("restarts"))
	viper.BindPFlag("smatch.seed", cmd.Flags().Lookup("seed"))
	return cmd
}

func newEvaluateTranslationCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate-translation <gold> <translated>",
		Short: "Score an existing translation file with BLEU and cosine similarity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, cleanup, err := newProcessor(cmd.Context(), flags, needEmbedder)
			if err != nil {
				return err
			}
			defer cleanup()
			return proc.EvaluateTranslation(cmd.Context(), args[0], args[1])
		},
	}
}

func newExtractSourcesCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "extract-sources",
		Short: "Write the English gold sentences found in the gold graph files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, cleanup, err := newProcessor(cmd.Context(), flags, 0)
			if err != nil {
				return err
			}
			defer cleanup()
			_, err = proc.ExtractSources()
			return err
		},
	}
}

func newListModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-models",
		Short: "List available OpenAI models for the current API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lister := models.NewLister(GetOpenAIKey())
			return lister.ListAvailableModels(cmd.Context())
		},
	}
}

func newArchiveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Move the translation, backtranslation and graph directories into archive/",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := Paths()
			moved, err := archive.ArchiveOutputs(p.TranslationDir, p.BacktransDir, p.GraphDir)
			if err != nil {
				return fmt.Errorf("failed to archive outputs: %w", err)
			}
			if len(moved) == 0 {
				fmt.Println("Nothing to archive")
			}
			return nil
		},
	}
}

func newHistoryCommand() *cobra.Command {
	var filter store.Filter
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the metrics recorded in the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("ledger")
			if path == "" {
				return fmt.Errorf("no ledger configured, use --ledger or set ledger in .xamr.yaml")
			}
			ledger, err := store.Open(path)
			if err != nil {
				return err
			}
			defer ledger.Close()

			rows, err := ledger.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only show this run")
	cmd.Flags().StringVar(&filter.Kind, "kind", "", "Only show this metric: bleu, cosine or smatch")
	cmd.Flags().StringVar(&filter.Language, "language", "", "Only show this language")
	return cmd
}

func printHistory(w io.Writer, rows []store.Evaluation) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No evaluations recorded")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tKIND\tLANG\tSCORE\tPAIRS\tSUBJECT")
	for _, e := range rows {
		var score string
		if e.Kind == store.KindSmatch {
			score = fmt.Sprintf("P=%.4f R=%.4f F=%.4f", e.Precision, e.Recall, e.F1)
		} else {
			score = fmt.Sprintf("mean=%.4f std=%.4f", e.Mean, e.Std)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", e.RunID, e.Kind, e.Language, score, e.Pairs, e.Subject)
	}
	tw.Flush()
}

// setLanguages overrides the configured languages with positional arguments
func setLanguages(args []string) {
	if len(args) > 0 {
		viper.Set("languages", args)
	}
}
