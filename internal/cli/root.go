// Package cli wires the lazycare subcommands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lazycare/internal/config"
)

// Indirection layer to allow stubbing in tests
var (
	fnServe    = runServe
	fnFinetune = runFinetune
	fnProbe    = runProbe
)

// Flags holds the global and per-command flag values.
type Flags struct {
	ConfigPath  string
	EnvFiles    []string
	LogLevel    string
	Addr        string
	ModelDir    string
	Backend     string
	CORSOrigins string
	Dataset     string
	Samples     int
}

// Run executes the command line in args.
func Run(ctx context.Context, args []string, stdout io.Writer) error {
	root := buildRootCmd(&Flags{}, stdout)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func buildRootCmd(f *Flags, stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "lazycare",
		Short:         "Serve and fine-tune the Lazy Care health assistant model",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.PersistentFlags().StringVarP(&f.ConfigPath, "config", "c", os.Getenv("LAZYCARE_CONFIG"), "Config file (.yaml|.yml|.json|.toml)")
	root.PersistentFlags().StringSliceVar(&f.EnvFiles, "env-file", []string{config.DefaultEnvFile}, "Env files loaded before reading the environment")
	root.PersistentFlags().StringVar(&f.LogLevel, "log-level", "", "Log level: trace|debug|info|warn|error")

	serveCmd := &cobra.Command{
		Use:     "serve",
		Short:   "Load the model once and serve the HTTP API",
		Example: "  lazycare serve --model-dir ./saved_model\n  lazycare serve --backend openai -c lazycare.yaml",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			return fnServe(cmd.Context(), cfg)
		},
	}
	serveCmd.Flags().StringVar(&f.Addr, "addr", "", "HTTP listen address (default :8000)")
	serveCmd.Flags().StringVar(&f.ModelDir, "model-dir", "", "Model artifact directory (default ./saved_model)")
	serveCmd.Flags().StringVar(&f.Backend, "backend", "", "Generation backend: spawn|openai|llama")
	serveCmd.Flags().StringVar(&f.CORSOrigins, "cors-origins", "", "Comma-separated allowed origins; enables CORS")

	finetuneCmd := &cobra.Command{
		Use:     "finetune",
		Short:   "Fine-tune the base model on a Question/Answer CSV",
		Example: "  lazycare finetune --dataset dataset/icliniq_medical_qa_cleaned.csv",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Finetune.Dataset) == "" {
				return fmt.Errorf("no dataset: pass --dataset or set finetune.dataset")
			}
			return fnFinetune(cmd.Context(), cfg)
		},
	}
	finetuneCmd.Flags().StringVar(&f.Dataset, "dataset", "", "CSV file with Question and Answer columns")

	probeCmd := &cobra.Command{
		Use:   "probe",
		Short: "Run the fixed probe prompts against the model and print every sample",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			return fnProbe(cmd.Context(), cfg, f.Samples, cmd.OutOrStdout())
		},
	}
	probeCmd.Flags().StringVar(&f.ModelDir, "model-dir", "", "Model artifact directory (default ./saved_model)")
	probeCmd.Flags().StringVar(&f.Backend, "backend", "", "Generation backend: spawn|openai|llama")
	probeCmd.Flags().IntVar(&f.Samples, "samples", 3, "Samples drawn for the persona chat probe")

	root.AddCommand(serveCmd, finetuneCmd, probeCmd)
	return root
}

// loadConfig layers env files, the config file, LAZYCARE_* variables and
// flags, then applies defaults and validates.
func loadConfig(f *Flags) (config.Config, error) {
	if err := config.LoadEnvFiles(f.EnvFiles...); err != nil {
		return config.Config{}, fmt.Errorf("load env files: %w", err)
	}
	var cfg config.Config
	if f.ConfigPath != "" {
		c, err := config.Load(f.ConfigPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = c
	}
	cfg.ApplyEnv()
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.Addr != "" {
		cfg.Server.Addr = f.Addr
	}
	if f.ModelDir != "" {
		cfg.Model.Dir = f.ModelDir
	}
	if f.Backend != "" {
		cfg.Model.Backend = f.Backend
	}
	if origins := splitCSV(f.CORSOrigins); len(origins) > 0 {
		cfg.Server.CORS.Enabled = true
		cfg.Server.CORS.AllowedOrigins = origins
	}
	if f.Dataset != "" {
		cfg.Finetune.Dataset = f.Dataset
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// splitCSV splits a comma-separated list and drops empty items.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
