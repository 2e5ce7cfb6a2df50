package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"storyreel/internal/config"
)

const redacted = "<redacted>"

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create, check or print the configuration",
	}
	cmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx), newConfigShowCommand(ctx))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		target    string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := initTarget(target)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !overwrite {
				return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("check config path: %w", err)
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\nAPI keys can live in %s\n",
				path, filepath.Join(filepath.Dir(path), ".env"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&target, "path", "p", "", "Where to write the file (default ~/.config/storyreel/config.toml)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func initTarget(flag string) (string, error) {
	if flag = strings.TrimSpace(flag); flag != "" {
		return config.ExpandPath(flag)
	}
	return config.DefaultConfigPath()
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and report which credentials are set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			source := ctx.configPath
			if !ctx.configSeen {
				source += " (not found, defaults used)"
			}
			fmt.Fprintf(out, "Config: %s\n", source)

			rows := make([][]string, 0, 5)
			for _, c := range credentialStatus(cfg) {
				rows = append(rows, []string{c.name, yesNo(c.set), c.needed})
			}
			fmt.Fprintln(out, renderTable([]string{"Credential", "Set", "Needed for"}, rows))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets hidden",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			data, err := toml.Marshal(redactSecrets(*cfg))
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

type credential struct {
	name   string
	set    bool
	needed string
}

func credentialStatus(cfg *config.Config) []credential {
	return []credential{
		{"reddit.client_id", cfg.Reddit.ClientID != "", "OAuth listing (optional)"},
		{"llm.api_key", cfg.LLM.APIKey != "", "narration rewrite"},
		{"tts.api_key", cfg.TTS.APIKey != "", "voiceover"},
		{"pexels.api_key", cfg.Pexels.APIKey != "", "stock footage (optional)"},
		{"notifications.ntfy_topic", cfg.Notifications.NtfyTopic != "", "push notifications (optional)"},
	}
}

// redactSecrets works on a copy; cfg is passed by value.
func redactSecrets(cfg config.Config) config.Config {
	for _, secret := range []*string{
		&cfg.Reddit.ClientSecret,
		&cfg.LLM.APIKey,
		&cfg.TTS.APIKey,
		&cfg.Pexels.APIKey,
		&cfg.Paths.APIToken,
	} {
		if *secret != "" {
			*secret = redacted
		}
	}
	return cfg
}
