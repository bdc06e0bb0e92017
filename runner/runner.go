package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/tpgainz/nzbn-directors/nzbn"
)

const (
	RunModeBatch = iota + 1
	RunModeWeb
	RunModeLookup
	RunModeExport
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	ErrInvalidRunMode = errors.New("invalid run mode")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

type Runner interface {
	Run(context.Context) error
	Close(context.Context) error
}

// Config is shared by every run mode. Fields tagged with yaml can be set
// from the --config file.
type Config struct {
	RunMode int `yaml:"-" validate:"min=1,max=4"`

	SubscriptionKey string        `yaml:"subscription_key"`
	BaseURL         string        `yaml:"base_url" validate:"required,url"`
	SearchTimeout   time.Duration `yaml:"search_timeout" validate:"gt=0"`
	DetailTimeout   time.Duration `yaml:"detail_timeout" validate:"gt=0"`

	Dsn                 string `yaml:"dsn"`
	JobCompletionAPIURL string `yaml:"completion_url" validate:"omitempty,url"`

	Addr    string `yaml:"addr" validate:"required"`
	Profile string `yaml:"profile" validate:"required,oneof=title owners"`
	Format  string `yaml:"format" validate:"required,oneof=text json"`
	Verbose bool   `yaml:"verbose"`

	InputFile  string   `yaml:"-"`
	OutputFile string   `yaml:"-"`
	Names      []string `yaml:"-"`
	RunID      string   `yaml:"-"`

	Logger *zap.Logger `yaml:"-" validate:"-"`
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:       nzbn.DefaultBaseURL,
		SearchTimeout: nzbn.DefaultSearchTimeout,
		DetailTimeout: nzbn.DefaultDetailTimeout,
		Addr:          ":8080",
		Profile:       "title",
		Format:        FormatText,
	}
}

// LoadConfigFile overlays the YAML document at path onto cfg.
func LoadConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return nil
}

// ApplyEnv overlays environment settings onto cfg. NZBN_API_KEY wins over
// the older API_KEY name.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup("API_KEY"); ok && v != "" {
		cfg.SubscriptionKey = v
	}

	if v, ok := lookup("NZBN_API_KEY"); ok && v != "" {
		cfg.SubscriptionKey = v
	}

	if v, ok := lookup("NZBN_BASE_URL"); ok && v != "" {
		cfg.BaseURL = v
	}

	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		cfg.Dsn = v
	}

	if v, ok := lookup("JOB_COMPLETION_API_URL"); ok && v != "" {
		cfg.JobCompletionAPIURL = v
	}
}

// Validate checks cfg. A missing subscription key is not an error here; the
// registry client reports it on first use.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.RunMode == RunModeExport && (c.Dsn == "" || c.RunID == "") {
		return fmt.Errorf("%w: export needs a database and a run id", ErrInvalidConfig)
	}

	return nil
}

// NewService builds the registry client and lookup service for cfg.
func (c *Config) NewService() *nzbn.Service {
	logger := c.Log()

	client := nzbn.NewClient(c.SubscriptionKey,
		nzbn.WithBaseURL(c.BaseURL),
		nzbn.WithTimeouts(c.SearchTimeout, c.DetailTimeout),
		nzbn.WithLogger(logger),
	)

	return nzbn.NewService(client, logger)
}

// Log returns the configured logger, or a no-op one.
func (c *Config) Log() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}

	return c.Logger
}

func NewLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	return config.Build()
}

func wrapText(text string, width int) []string {
	var lines []string

	currentLine := ""
	currentWidth := 0

	for _, r := range text {
		runeWidth := runewidth.RuneWidth(r)
		if currentWidth+runeWidth > width {
			lines = append(lines, currentLine)
			currentLine = string(r)
			currentWidth = runeWidth
		} else {
			currentLine += string(r)
			currentWidth += runeWidth
		}
	}

	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return lines
}

func banner(messages []string, width int) string {
	if width <= 0 {
		var err error

		width, _, err = term.GetSize(int(os.Stderr.Fd()))
		if err != nil {
			width = 80
		}
	}

	if width < 20 {
		width = 20
	}

	contentWidth := width - 4

	var wrappedLines []string
	for _, message := range messages {
		wrappedLines = append(wrappedLines, wrapText(message, contentWidth)...)
	}

	var builder strings.Builder

	builder.WriteString("╔" + strings.Repeat("═", width-2) + "╗\n")

	for _, line := range wrappedLines {
		paddingRight := max(contentWidth-runewidth.StringWidth(line), 0)

		builder.WriteString(fmt.Sprintf("║ %s%s ║\n", line, strings.Repeat(" ", paddingRight)))
	}

	builder.WriteString("╚" + strings.Repeat("═", width-2) + "╝\n")

	return builder.String()
}

// Banner prints the startup box to stderr, skipped when stderr is not a
// terminal so piped output stays clean.
func Banner(cfg *Config) {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return
	}

	messages := []string{
		"🏢 NZBN Directors Lookup",
		"🔎 Registry: " + cfg.BaseURL,
	}

	if cfg.SubscriptionKey == "" {
		messages = append(messages, "⚠️  No subscription key set (NZBN_API_KEY); registry calls will fail")
	}

	fmt.Fprintln(os.Stderr, banner(messages, 0))
}
