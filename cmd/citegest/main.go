// Package main is the citegest command-line interface: parse a document,
// query it and generate cited content from the terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgallion1/citegest/internal/app"
	"github.com/dgallion1/citegest/internal/config"
	"github.com/dgallion1/citegest/internal/retriever"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the citegest CLI.
var rootCmd = &cobra.Command{
	Use:   "citegest",
	Short: "Structure documents and generate citation-grounded content",
	Long: `citegest parses a structured document (a constitution, bylaws, a
policy manual) into chapters and numbered sections, answers lookups against
it, and generates short-form content that cites the sections it draws on.

Settings come from flags, CITEGEST_* environment variables, or citegest.yaml.
Provider credentials use the same variables as the server (ANTHROPIC_API_KEY,
OPENAI_API_KEY, OLLAMA_HOST).`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./citegest.yaml or ~/.config/citegest/config.yaml)")
	pf.String("document", "", "document file to load")
	pf.String("strategy", "", "parsing strategy (default chapter_section)")
	pf.String("manifest", "", "document manifest (YAML)")
	pf.String("provider", "", "LLM provider: anthropic, openai or ollama")
	pf.String("model", "", "model override for the provider")
	pf.String("drafts", config.DraftsNone, "draft storage: sqlite, pathstore or none")
	pf.Bool("json", false, "output JSON")
	pf.BoolP("verbose", "v", false, "log progress to stderr")

	for _, name := range []string{"document", "strategy", "manifest", "provider", "model", "drafts", "json", "verbose"} {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version of citegest",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("citegest %s\n", version)
		},
	})
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("citegest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "citegest"))
		}
	}

	viper.SetEnvPrefix("CITEGEST")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && viper.GetBool("verbose") {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// cliConfig layers viper settings over the environment configuration.
func cliConfig() config.Config {
	cfg := config.Load()
	if v := viper.GetString("strategy"); v != "" {
		cfg.DocumentStrategy = v
	}
	if v := viper.GetString("manifest"); v != "" {
		cfg.DocumentManifest = v
	}
	if v := viper.GetString("document"); v != "" {
		cfg.DocumentPath = v
	}
	if v := viper.GetString("provider"); v != "" {
		cfg.LLMProvider = v
	}
	if v := viper.GetString("model"); v != "" {
		cfg.AnthropicModel, cfg.OpenAIModel, cfg.OllamaModel = v, v, v
	}
	cfg.DraftsBackend = viper.GetString("drafts")
	return cfg
}

func logger() *slog.Logger {
	level := slog.LevelWarn
	if viper.GetBool("verbose") {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadApp builds the components and loads the configured document.
func loadApp(ctx context.Context) (*app.App, *retriever.Retriever, error) {
	cfg := cliConfig()
	if cfg.DocumentPath == "" {
		return nil, nil, fmt.Errorf("no document: pass --document or set CITEGEST_DOCUMENT")
	}
	a, err := app.New(cfg, logger())
	if err != nil {
		return nil, nil, err
	}
	if err := a.LoadDocument(ctx, cfg.DocumentPath); err != nil {
		a.Close()
		return nil, nil, err
	}
	return a, a.Current(), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
