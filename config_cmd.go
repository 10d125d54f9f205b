package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/x/editor"
	"github.com/dgnsrekt/autocast/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const defaultConfig = `# API endpoint: openai, avalai, openrouter, aws, azure, custom, or a URL
endpoint: "openai"
# URL for the custom endpoint, or a filled-in URL for endpoints with placeholders
# endpoint_url: ""
# API key; AUTOCAST_API_KEY and OPENAI_API_KEY take precedence
# api_key: ""
# interface language: en, fa or ar (default: detected from the environment)
# locale: "en"

script:
  # chat model used to write scripts
  model: "gpt-4o-mini"
  # language of generated scripts
  language: "en"
  # 0.0 to 2.0
  temperature: 0.7
  max_tokens: 2000
  # default, educational, storytelling, conversational, professional or custom
  template: "default"
  # system prompt used with the custom template
  # custom_prompt: ""

speech:
  # tts-1 or tts-1-hd
  model: "tts-1"
  # alloy, echo, fable, onyx, nova or shimmer
  voice: "alloy"
  # 0.25 to 4.0
  speed: 1.0
  # chunks synthesized at once
  concurrency: 3
  # characters per request, at most 4096
  chunk_size: 4096

cache:
  enabled: true
  # dir: "~/.cache/autocast/audio"
  memory_mb: 64
  disk_mb: 512
  # drop cached audio older than this many days (0 keeps everything)
  max_age_days: 30

network:
  timeout: "2m"
  max_retries: 2
  # 0 disables throttling
  requests_per_minute: 0

# where speak writes audio when -o is not given
# output_dir: "."
`

var configCmd = &cobra.Command{
	Use:         "config",
	Hidden:      false,
	Short:       "Edit the autocast config file",
	Long:        paragraph(fmt.Sprintf("\n%s the autocast config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example:     paragraph("autocast config\nautocast config --config path/to/config.yml\nautocast config set speech.voice nova"),
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoSettings: "true"},
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := configPath()
		if err := ensureConfigFile(path); err != nil {
			return err
		}

		c, err := editor.Cmd("AutoCast", path)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Wrote config file to:", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Long:  paragraph(fmt.Sprintf("\n%s the settings in effect after reading the config file, environment and flags. The API key is redacted.", keyword("Print"))),
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := config.Load(viper.GetViper())
		if err != nil {
			return err //nolint:wrapcheck
		}
		b, err := yaml.Marshal(s.Redacted())
		if err != nil {
			return fmt.Errorf("unable to encode settings: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err //nolint:wrapcheck
	},
}

var configSetCmd = &cobra.Command{
	Use:     "set KEY VALUE",
	Short:   "Change one setting in the config file",
	Example: paragraph("autocast config set speech.voice nova\nautocast config set network.timeout 30s"),
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		if err := setConfigValue(path, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Wrote config file to:", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
}

// configPath is the file the config commands work on.
func configPath() string {
	switch {
	case configFile != "":
		return config.ExpandPath(configFile)
	case viper.ConfigFileUsed() != "":
		return viper.ConfigFileUsed()
	}
	return defaultConfigFile
}

// setConfigValue validates key=value against the file alone, so values from
// the environment or flags are never written back. Comments in the file are
// not preserved.
func setConfigValue(file, key, value string) error {
	v := viper.New()
	config.SetDefaults(v)
	key = strings.ToLower(strings.TrimSpace(key))
	if key != "api_key" && !slices.Contains(v.AllKeys(), key) {
		return fmt.Errorf("%w: unknown setting %q", config.ErrInvalid, key)
	}

	v.SetConfigFile(file)
	v.SetConfigType("yaml")
	if _, err := os.Stat(file); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}
	v.Set(key, value)

	s, err := config.Load(v)
	if err != nil {
		return err //nolint:wrapcheck
	}
	return s.Save(file) //nolint:wrapcheck
}

func ensureConfigFile(file string) error {
	if file == "" {
		return errors.New("no configuration file path")
	}

	if ext := path.Ext(file); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
