package config

import (
	"os"
	"path/filepath"
	"strconv"

	"dialectloss/internal/errors"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Paths   PathConfig
	Output  OutputConfig
	Grid    GridConfig
	Fit     FitConfig
	Workers int

	Variables   []VariableSpec
	FisherPairs []SpeakerPair
}

// PathConfig holds file system paths
type PathConfig struct {
	TablesDir string // per-variable input tables
	FigureDir string
	TableDir  string
}

// OutputConfig controls which terminal artifacts are persisted
type OutputConfig struct {
	SaveFigures bool
	SaveTables  bool
}

// GridConfig holds the prediction grid and axis bounds
type GridConfig struct {
	YearMin     int // plot axis lower bound and centering origin
	YearMinBand int // lower bound of the turning-point search grid
	YearMax     int
	Points      int
}

// FitConfig holds model fitting settings
type FitConfig struct {
	NAGQ       int     // Gauss-Hermite order; 1 is the Laplace approximation
	ProfileTol float64 // deviance tolerance for profile CI convergence
}

// VariableSpec describes one variable in the batch. AltOptimizer selects the
// derivative-free fallback optimizer for numerically harder fits. Annotated
// marks the variable that gets the speaker-labelled scatter plot.
type VariableSpec struct {
	ID           string
	AltOptimizer bool
	Annotated    bool
}

// TablePath returns the input table path for a variable, preferring the CSV
// convention tables/<id>.csv; an .xlsx sibling is picked up when present.
func (c *Config) TablePath(id string) string {
	csv := filepath.Join(c.Paths.TablesDir, id+".csv")
	if _, err := os.Stat(csv); err == nil {
		return csv
	}
	xlsx := filepath.Join(c.Paths.TablesDir, id+".xlsx")
	if _, err := os.Stat(xlsx); err == nil {
		return xlsx
	}
	return csv
}

// SpeakerPair designates two speakers whose conservative/innovative counts
// for one variable are compared with Fisher's exact test.
type SpeakerPair struct {
	Variable string
	SpeakerA string
	SpeakerB string
}

// DefaultVariables is the fixed batch: eleven variables in processing order.
// The optimizer choice lives here rather than in branching on variable names.
func DefaultVariables() []VariableSpec {
	return []VariableSpec{
		{ID: "okane", Annotated: true},
		{ID: "jat", AltOptimizer: true},
		{ID: "shch"},
		{ID: "soft_t"},
		{ID: "sja"},
		{ID: "gerund"},
		{ID: "nu_drop"},
		{ID: "comparative"},
		{ID: "locative"},
		{ID: "infinitive"},
		{ID: "clusters"},
	}
}

// DefaultFisherPairs are the three manually designated speaker comparisons.
func DefaultFisherPairs() []SpeakerPair {
	return []SpeakerPair{
		{Variable: "okane", SpeakerA: "akf1937", SpeakerB: "mev1963"},
		{Variable: "sja", SpeakerA: "nnb1938", SpeakerB: "osg1961"},
		{Variable: "soft_t", SpeakerA: "akf1937", SpeakerB: "osg1961"},
	}
}

// Load reads configuration from environment variables, applying defaults.
// A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Paths: PathConfig{
			TablesDir: getEnvOrDefault("TABLES_DIR", "tables"),
			FigureDir: getEnvOrDefault("FIGURE_DIR", "figures"),
			TableDir:  getEnvOrDefault("TABLE_DIR", "out"),
		},
		Output: OutputConfig{
			SaveFigures: getEnvBoolOrDefault("SAVE_FIGURES", false),
			SaveTables:  getEnvBoolOrDefault("SAVE_TABLES", false),
		},
		Grid: GridConfig{
			YearMin:     getEnvIntOrDefault("YEARMIN", 1920),
			YearMinBand: getEnvIntOrDefault("YEARMIN_BAND", 1800),
			YearMax:     getEnvIntOrDefault("YEARMAX", 2000),
			Points:      getEnvIntOrDefault("GRID_POINTS", 10000),
		},
		Fit: FitConfig{
			NAGQ:       getEnvIntOrDefault("NAGQ", 15),
			ProfileTol: getEnvFloatOrDefault("PROFILE_TOL", 1e-6),
		},
		Workers:     getEnvIntOrDefault("WORKERS", 4),
		Variables:   DefaultVariables(),
		FisherPairs: DefaultFisherPairs(),
	}

	if err := validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Grid.Points < 2 {
		return errors.ConfigInvalid("GRID_POINTS must be at least 2")
	}
	if cfg.Grid.YearMinBand >= cfg.Grid.YearMax {
		return errors.ConfigInvalid("YEARMIN_BAND must be below YEARMAX")
	}
	if cfg.Fit.NAGQ < 1 {
		return errors.ConfigInvalid("NAGQ must be at least 1")
	}
	if cfg.Fit.ProfileTol <= 0 {
		return errors.ConfigInvalid("PROFILE_TOL must be positive")
	}
	if cfg.Workers < 1 {
		return errors.ConfigInvalid("WORKERS must be at least 1")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloatOrDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBoolOrDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
