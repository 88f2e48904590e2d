package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/stormlightlabs/memoria/internal/config"
	"github.com/stormlightlabs/memoria/internal/search"
	"github.com/stormlightlabs/memoria/internal/shared"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage the memoria configuration file.

Configuration is stored in TOML format in the XDG config directory.
MEMORIA_CONFIG points at a different file.`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigEditCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigGetCommand())
	cmd.AddCommand(newConfigPathCommand())

	return cmd
}

// configKey reads and writes one dotted configuration key.
type configKey struct {
	get func(*config.Config) string
	set func(*config.Config, string) error
}

func intKey(field func(*config.Config) *int) configKey {
	return configKey{
		get: func(c *config.Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *config.Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid number: %s", v)
			}
			*field(c) = n
			return nil
		},
	}
}

func floatKey(field func(*config.Config) *float64) configKey {
	return configKey{
		get: func(c *config.Config) string { return strconv.FormatFloat(*field(c), 'g', -1, 64) },
		set: func(c *config.Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 {
				return fmt.Errorf("invalid number: %s", v)
			}
			*field(c) = f
			return nil
		},
	}
}

func stringKey(field func(*config.Config) *string) configKey {
	return configKey{
		get: func(c *config.Config) string { return *field(c) },
		set: func(c *config.Config, v string) error {
			*field(c) = v
			return nil
		},
	}
}

func boolKey(field func(*config.Config) *bool) configKey {
	return configKey{
		get: func(c *config.Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *config.Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid boolean: %s (use true/false)", v)
			}
			*field(c) = b
			return nil
		},
	}
}

var configKeys = map[string]configKey{
	"database.default":               stringKey(func(c *config.Config) *string { return &c.Database.Default }),
	"embedding.provider":             stringKey(func(c *config.Config) *string { return &c.Embedding.Provider }),
	"embedding.base_url":             stringKey(func(c *config.Config) *string { return &c.Embedding.BaseURL }),
	"embedding.api_key":              stringKey(func(c *config.Config) *string { return &c.Embedding.APIKey }),
	"embedding.model":                stringKey(func(c *config.Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions":           intKey(func(c *config.Config) *int { return &c.Embedding.Dimensions }),
	"embedding.timeout_seconds":      intKey(func(c *config.Config) *int { return &c.Embedding.TimeoutSeconds }),
	"embedding.load_timeout_seconds": intKey(func(c *config.Config) *int { return &c.Embedding.LoadTimeoutSeconds }),
	"embedding.requests_per_second":  floatKey(func(c *config.Config) *float64 { return &c.Embedding.RequestsPerSecond }),
	"embedding.batch_size":           intKey(func(c *config.Config) *int { return &c.Embedding.BatchSize }),
	"embedding.query_cache_size":     intKey(func(c *config.Config) *int { return &c.Embedding.QueryCacheSize }),
	"search.default_limit":           intKey(func(c *config.Config) *int { return &c.Search.DefaultLimit }),
	"search.vector_weight":           floatKey(func(c *config.Config) *float64 { return &c.Search.VectorWeight }),
	"search.text_weight":             floatKey(func(c *config.Config) *float64 { return &c.Search.TextWeight }),
	"search.mode": {
		get: func(c *config.Config) string { return c.Search.Mode },
		set: func(c *config.Config, v string) error {
			mode, err := search.ParseMode(v)
			if err != nil {
				return err
			}
			c.Search.Mode = string(mode)
			return nil
		},
	},
	"display.width":           intKey(func(c *config.Config) *int { return &c.Display.Width }),
	"display.render_markdown": boolKey(func(c *config.Config) *bool { return &c.Display.RenderMarkdown }),
	"display.color_output": {
		get: func(c *config.Config) string {
			if c.Display.ColorOutput == nil {
				return "auto"
			}
			return strconv.FormatBool(*c.Display.ColorOutput)
		},
		set: func(c *config.Config, v string) error {
			if v == "auto" {
				c.Display.ColorOutput = nil
				return nil
			}
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value: %s (use true/false/auto)", v)
			}
			c.Display.ColorOutput = shared.BoolPtr(b)
			return nil
		},
	},
}

func lookupKey(key string) (configKey, error) {
	k, ok := configKeys[key]
	if !ok {
		keys := make([]string, 0, len(configKeys))
		for name := range configKeys {
			keys = append(keys, name)
		}
		slices.Sort(keys)
		return configKey{}, fmt.Errorf("unknown configuration key: %s (known: %s)", key, strings.Join(keys, ", "))
	}
	return k, nil
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load()
			if err != nil {
				return err
			}
			configPath, err := config.FilePath()
			if err != nil {
				return err
			}

			shown := *c
			if shown.Embedding.APIKey != "" {
				shown.Embedding.APIKey = "********"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# Configuration file: %s\n\n", configPath)
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(shown)
		},
	}
}

func newConfigEditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open configuration in editor",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := config.FilePath()
			if err != nil {
				return err
			}

			if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
				if err := config.DefaultConfig().Save(); err != nil {
					return fmt.Errorf("failed to create default config: %w", err)
				}
			}

			editor := os.Getenv("EDITOR")
			if editor == "" {
				editor = "vi"
			}

			editCmd := exec.Command(editor, configPath)
			editCmd.Stdin = os.Stdin
			editCmd.Stdout = os.Stdout
			editCmd.Stderr = os.Stderr
			return editCmd.Run()
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "set <key> <value>",
		Short:   "Set a configuration value",
		Example: `  memoria config set embedding.provider openai
  memoria config set embedding.base_url http://localhost:8080/v1
  memoria config set search.mode hybrid`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			k, err := lookupKey(key)
			if err != nil {
				return err
			}
			c, err := config.Load()
			if err != nil {
				return err
			}
			if err := k.set(c, value); err != nil {
				return err
			}
			if err := c.Validate(); err != nil {
				return err
			}
			if err := c.Save(); err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			}
			return nil
		},
	}
}

func newConfigGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := lookupKey(args[0])
			if err != nil {
				return err
			}
			c, err := config.Load()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), k.get(c))
			return nil
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := config.FilePath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), configPath)
			return nil
		},
	}
}
