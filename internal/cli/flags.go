package cli

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile     string
	LogLevel    string
	LogFormat   string
	MetricsFile string
	Ledger      string
	Languages   []string

	// Translation flags
	TranslationBackend string
	TranslationModel   string

	// Embedding flags
	EmbeddingBackend string
	EmbeddingModel   string
	NoCosine         bool

	// AMR parser flags
	AMRBackend  string
	AMRFallback string
	AMRCommand  string
	AMRModelDir string
	AMRDevice   string
	AMRModel    string

	// Unification and smatch flags
	Truncate       bool
	TrailingLines  int
	SmatchRestarts int
	SmatchSeed     int64
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		LogLevel:           "info",
		LogFormat:          "console",
		Languages:          []string{"DE", "ES", "IT", "ZH"},
		TranslationBackend: "openai",
		TranslationModel:   "gpt-4o-mini",
		EmbeddingBackend:   "openai",
		EmbeddingModel:     "text-embedding-3-small",
		AMRBackend:         "command",
		AMRCommand:         "amr-stog",
		AMRModel:           "gpt-4o",
		TrailingLines:      5,
		SmatchRestarts:     4,
		SmatchSeed:         1,
	}
}
