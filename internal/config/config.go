package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"gopkg.in/yaml.v3"

	"teapod/internal/theme"
)

// Config represents the persisted application configuration.
type Config struct {
	DataRoot                   string `yaml:"data_root"`
	UserAgent                  string `yaml:"user_agent"`
	Proxy                      string `yaml:"proxy,omitempty"`
	TLSVerify                  bool   `yaml:"tls_verify"`
	TickIntervalMS             int    `yaml:"tick_interval_ms"`
	ColorTheme                 string `yaml:"color_theme"`
	MaxEpisodeDescriptionLines int    `yaml:"max_episode_description_lines"`
}

// Defaults returns the baseline configuration used on first run.
func Defaults() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataRoot:                   filepath.Join(home, "Podcasts"),
		UserAgent:                  "teapod/dev",
		TLSVerify:                  true,
		TickIntervalMS:             50,
		ColorTheme:                 theme.Default,
		MaxEpisodeDescriptionLines: 12,
	}
}

// Ensure loads configuration from the provided path, prompting the user to
// create one if it does not yet exist.
func Ensure(ctx context.Context, path string) (Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	cfg = Defaults()
	if err := bootstrap(ctx, &cfg); err != nil {
		return Config{}, err
	}
	if err := Save(path, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads configuration from disk.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if strings.TrimSpace(cfg.ColorTheme) == "" {
		cfg.ColorTheme = theme.Default
	}
	if cfg.TickIntervalMS <= 0 {
		cfg.TickIntervalMS = Defaults().TickIntervalMS
	}
	if cfg.MaxEpisodeDescriptionLines <= 0 {
		cfg.MaxEpisodeDescriptionLines = Defaults().MaxEpisodeDescriptionLines
	}
	return cfg, nil
}

// Save writes configuration back to disk, ensuring directory permissions
// are restrictive.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	temp := path + ".tmp"
	if err := os.WriteFile(temp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(temp, path)
}

func bootstrap(ctx context.Context, cfg *Config) error {
	if fromEnv := strings.TrimSpace(os.Getenv("TEAPOD_DATA_ROOT")); fromEnv != "" {
		resolved, err := expandPath(fromEnv)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(resolved, 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
		cfg.DataRoot = resolved
		return nil
	}

	prompt := &survey.Input{
		Message: "Choose a data directory for feeds and audio",
		Default: cfg.DataRoot,
	}

	var answer string
	if err := survey.AskOne(prompt, &answer, survey.WithValidator(survey.Required)); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return fmt.Errorf("initialisation interrupted")
		}
		return err
	}

	resolved, err := expandPath(strings.TrimSpace(answer))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	cfg.DataRoot = resolved
	return nil
}

// EditInteractive opens an interactive survey session allowing the user to
// update configuration values.
func EditInteractive(ctx context.Context, cfg Config) (Config, error) {
	questions := []*survey.Question{
		{
			Name: "data_root",
			Prompt: &survey.Input{
				Message: "Data directory",
				Default: cfg.DataRoot,
			},
			Validate: survey.Required,
		},
		{
			Name: "user_agent",
			Prompt: &survey.Input{
				Message: "User agent",
				Default: cfg.UserAgent,
			},
		},
		{
			Name: "proxy",
			Prompt: &survey.Input{
				Message: "HTTP proxy (optional)",
				Default: cfg.Proxy,
			},
		},
		{
			Name: "tls_verify",
			Prompt: &survey.Confirm{
				Message: "Verify TLS certificates",
				Default: cfg.TLSVerify,
			},
		},
		{
			Name: "tick_interval_ms",
			Prompt: &survey.Input{
				Message: "UI tick interval (milliseconds)",
				Default: fmt.Sprintf("%d", cfg.TickIntervalMS),
			},
			Validate: validatePositiveInt,
		},
		{
			Name: "color_theme",
			Prompt: &survey.Select{
				Message: "Color theme",
				Options: theme.Names(),
				Default: cfg.ColorTheme,
			},
		},
		{
			Name: "max_episode_description_lines",
			Prompt: &survey.Input{
				Message: "Maximum description lines in episode view",
				Default: fmt.Sprintf("%d", cfg.MaxEpisodeDescriptionLines),
			},
			Validate: validatePositiveInt,
		},
	}

	select {
	case <-ctx.Done():
		return Config{}, ctx.Err()
	default:
	}

	answers := map[string]interface{}{}
	if err := survey.Ask(questions, &answers); err != nil {
		return Config{}, err
	}

	cfg.DataRoot = strings.TrimSpace(answers["data_root"].(string))
	cfg.UserAgent = strings.TrimSpace(answers["user_agent"].(string))
	cfg.Proxy = strings.TrimSpace(answers["proxy"].(string))
	cfg.TLSVerify = answers["tls_verify"].(bool)
	cfg.TickIntervalMS = toInt(answers["tick_interval_ms"])
	if themeName, ok := answers["color_theme"].(string); ok {
		cfg.ColorTheme = themeName
	}
	cfg.MaxEpisodeDescriptionLines = toInt(answers["max_episode_description_lines"])

	return cfg, nil
}

func validatePositiveInt(ans interface{}) error {
	v := strings.TrimSpace(ans.(string))
	if v == "" {
		return errors.New("value required")
	}
	i, err := parseInt(v)
	if err != nil {
		return err
	}
	if i <= 0 {
		return errors.New("must be greater than zero")
	}
	return nil
}

func parseInt(value string) (int, error) {
	var i int
	if _, err := fmt.Sscanf(value, "%d", &i); err != nil {
		return 0, errors.New("must be a number")
	}
	return i, nil
}

func toInt(value interface{}) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case string:
		i, _ := parseInt(v)
		return i
	default:
		return 0
	}
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
