package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up when none is given.
const DefaultFile = "coursepack.yaml"

// MaxWorkers caps the extraction pool regardless of CPU count.
const MaxWorkers = 8

// Conventions names the fixed attribute and class family the documents are
// authored with.
type Conventions struct {
	LiteralName        string `yaml:"literal_name"`
	QuizFileMarker     string `yaml:"quiz_file_marker"`
	SubtitleClass      string `yaml:"subtitle_class"`
	ModuleBadgeClass   string `yaml:"module_badge_class"`
	ModuleAttr         string `yaml:"module_attr"`
	ContentClass       string `yaml:"content_class"`
	TabClass           string `yaml:"tab_class"`
	TabIDAttr          string `yaml:"tab_id_attr"`
	TabIconAttr        string `yaml:"tab_icon_attr"`
	PrevClass          string `yaml:"prev_class"`
	NextClass          string `yaml:"next_class"`
	QuizDescClass      string `yaml:"quiz_description_class"`
	QuizContainerAttr  string `yaml:"quiz_container_attr"`
	QuizContainerClass string `yaml:"quiz_container_class"`
	PassingScoreAttr   string `yaml:"passing_score_attr"`
	TimeLimitAttr      string `yaml:"time_limit_attr"`
	QuestionCountAttr  string `yaml:"question_count_attr"`
}

// QuizDefaults fill scoring parameters a quiz document does not declare.
type QuizDefaults struct {
	PassingScore     int `yaml:"passing_score"`
	TimeLimitMinutes int `yaml:"time_limit_minutes"`
	Points           int `yaml:"points"`
}

// Config holds configuration for one extraction run.
type Config struct {
	// InputDir is scanned recursively for .html documents.
	InputDir string `yaml:"input_dir"`
	// OutputDir receives the JSON artifacts and the report.
	OutputDir string `yaml:"output_dir"`
	// Workers bounds parallel per-document extraction.
	Workers int `yaml:"workers"`
	// LogMode is "dev" or "prod".
	LogMode string `yaml:"log_mode"`

	Quiz        QuizDefaults `yaml:"quiz"`
	Conventions Conventions  `yaml:"conventions"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	workers := runtime.NumCPU()
	if workers > MaxWorkers {
		workers = MaxWorkers
	}
	return Config{
		InputDir:  "./content",
		OutputDir: "./out",
		Workers:   workers,
		LogMode:   "dev",
		Quiz: QuizDefaults{
			PassingScore: 70,
			Points:       1,
		},
		Conventions: DefaultConventions(),
	}
}

// DefaultConventions returns the attribute family used by the course site.
func DefaultConventions() Conventions {
	return Conventions{
		LiteralName:        "questions",
		QuizFileMarker:     "quiz",
		SubtitleClass:      "lesson-subtitle",
		ModuleBadgeClass:   "module-badge",
		ModuleAttr:         "data-module",
		ContentClass:       "lesson-content",
		TabClass:           "tab",
		TabIDAttr:          "data-tab",
		TabIconAttr:        "data-icon",
		PrevClass:          "nav-prev",
		NextClass:          "nav-next",
		QuizDescClass:      "quiz-description",
		QuizContainerAttr:  "data-quiz",
		QuizContainerClass: "quiz-container",
		PassingScoreAttr:   "data-passing-score",
		TimeLimitAttr:      "data-time-limit",
		QuestionCountAttr:  "data-question-count",
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file at the default location is not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("COURSEPACK_INPUT_DIR"); v != "" {
		c.InputDir = v
	}
	if v := os.Getenv("COURSEPACK_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("COURSEPACK_LOG_MODE"); v != "" {
		c.LogMode = v
	}
	if v := os.Getenv("COURSEPACK_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("COURSEPACK_WORKERS: %w", err)
		}
		c.Workers = n
	}
	return nil
}

// Validate checks the fields a run cannot do without.
func (c Config) Validate() error {
	if c.InputDir == "" {
		return errors.New("input_dir is required")
	}
	if c.OutputDir == "" {
		return errors.New("output_dir is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Conventions.LiteralName == "" {
		return errors.New("conventions.literal_name is required")
	}
	return nil
}
