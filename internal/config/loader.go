package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for all subcommands.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Server     Server     `json:"server" yaml:"server" toml:"server"`
	Model      Model      `json:"model" yaml:"model" toml:"model"`
	Generation Generation `json:"generation" yaml:"generation" toml:"generation"`
	Chat       Chat       `json:"chat" yaml:"chat" toml:"chat"`
	History    History    `json:"history" yaml:"history" toml:"history"`
	Users      Users      `json:"users" yaml:"users" toml:"users"`
	Finetune   Finetune   `json:"finetune" yaml:"finetune" toml:"finetune"`
	Hub        Hub        `json:"hub" yaml:"hub" toml:"hub"`
	Log        Log        `json:"log" yaml:"log" toml:"log"`
}

type Server struct {
	Addr                   string `json:"addr" yaml:"addr" toml:"addr"`
	MaxBodyBytes           int64  `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	GenerateTimeoutSeconds int64  `json:"generate_timeout_seconds" yaml:"generate_timeout_seconds" toml:"generate_timeout_seconds"`
	ShutdownTimeoutSeconds int64  `json:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds" toml:"shutdown_timeout_seconds"`
	CORS                   CORS   `json:"cors" yaml:"cors" toml:"cors"`
}

type CORS struct {
	Enabled        bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" toml:"allowed_origins"`
	AllowedMethods []string `json:"allowed_methods" yaml:"allowed_methods" toml:"allowed_methods"`
	AllowedHeaders []string `json:"allowed_headers" yaml:"allowed_headers" toml:"allowed_headers"`
}

// Model selects the artifact and the backend that serves it.
type Model struct {
	Dir      string `json:"dir" yaml:"dir" toml:"dir"`
	Backend  string `json:"backend" yaml:"backend" toml:"backend"`
	Template string `json:"template" yaml:"template" toml:"template"`
	// openai backend
	BaseURL string `json:"base_url" yaml:"base_url" toml:"base_url"`
	APIKey  string `json:"api_key" yaml:"api_key" toml:"api_key"`
	Name    string `json:"name" yaml:"name" toml:"name"`
	// spawn / llama backends
	LlamaBin       string   `json:"llama_bin" yaml:"llama_bin" toml:"llama_bin"`
	LlamaHost      string   `json:"llama_host" yaml:"llama_host" toml:"llama_host"`
	LlamaPortStart int      `json:"llama_port_start" yaml:"llama_port_start" toml:"llama_port_start"`
	LlamaPortEnd   int      `json:"llama_port_end" yaml:"llama_port_end" toml:"llama_port_end"`
	CtxSize        int      `json:"ctx_size" yaml:"ctx_size" toml:"ctx_size"`
	Threads        int      `json:"threads" yaml:"threads" toml:"threads"`
	GPULayers      int      `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	ExtraArgs      []string `json:"extra_args" yaml:"extra_args" toml:"extra_args"`
	ReadySeconds   int      `json:"ready_seconds" yaml:"ready_seconds" toml:"ready_seconds"`
}

// Generation is the fixed sampling configuration. Requests cannot override it.
type Generation struct {
	MaxNewTokens       int      `json:"max_new_tokens" yaml:"max_new_tokens" toml:"max_new_tokens"`
	DoSample           *bool    `json:"do_sample" yaml:"do_sample" toml:"do_sample"`
	Temperature        float64  `json:"temperature" yaml:"temperature" toml:"temperature"`
	TopK               int      `json:"top_k" yaml:"top_k" toml:"top_k"`
	TopP               float64  `json:"top_p" yaml:"top_p" toml:"top_p"`
	NumReturnSequences int      `json:"num_return_sequences" yaml:"num_return_sequences" toml:"num_return_sequences"`
	Seed               int64    `json:"seed" yaml:"seed" toml:"seed"`
	Stop               []string `json:"stop" yaml:"stop" toml:"stop"`
	ReturnFullText     *bool    `json:"return_full_text" yaml:"return_full_text" toml:"return_full_text"`
}

// Chat configures the persona-driven generation route.
type Chat struct {
	Route   string `json:"route" yaml:"route" toml:"route"`
	Persona string `json:"persona" yaml:"persona" toml:"persona"`
}

type History struct {
	Backend  string `json:"backend" yaml:"backend" toml:"backend"`
	RedisURL string `json:"redis_url" yaml:"redis_url" toml:"redis_url"`
	Prefix   string `json:"prefix" yaml:"prefix" toml:"prefix"`
}

// Users configures the profile store. An empty RedisURL reuses history.redis_url.
type Users struct {
	Backend  string `json:"backend" yaml:"backend" toml:"backend"`
	RedisURL string `json:"redis_url" yaml:"redis_url" toml:"redis_url"`
	Prefix   string `json:"prefix" yaml:"prefix" toml:"prefix"`
}

type Finetune struct {
	Dataset      string `json:"dataset" yaml:"dataset" toml:"dataset"`
	MaxRows      int    `json:"max_rows" yaml:"max_rows" toml:"max_rows"`
	BaseModel    string `json:"base_model" yaml:"base_model" toml:"base_model"`
	TokenizerURL string `json:"tokenizer_url" yaml:"tokenizer_url" toml:"tokenizer_url"`
	MaxLength    int    `json:"max_length" yaml:"max_length" toml:"max_length"`
	PadTokenID   *int   `json:"pad_token_id" yaml:"pad_token_id" toml:"pad_token_id"`
	PaddingSide  string `json:"padding_side" yaml:"padding_side" toml:"padding_side"`
	WorkDir      string `json:"work_dir" yaml:"work_dir" toml:"work_dir"`
	OutputDir    string `json:"output_dir" yaml:"output_dir" toml:"output_dir"`
	SaveDir      string `json:"save_dir" yaml:"save_dir" toml:"save_dir"`
	// TrainerCmd is the external training command, e.g. ["python3", "train_clm.py"].
	TrainerCmd []string `json:"trainer_cmd" yaml:"trainer_cmd" toml:"trainer_cmd"`
	Training   Training `json:"training" yaml:"training" toml:"training"`
}

// Training mirrors the fixed hyperparameters handed to the trainer.
type Training struct {
	EvalStrategy              string  `json:"eval_strategy" yaml:"eval_strategy" toml:"eval_strategy"`
	LoggingStrategy           string  `json:"logging_strategy" yaml:"logging_strategy" toml:"logging_strategy"`
	LoggingSteps              int     `json:"logging_steps" yaml:"logging_steps" toml:"logging_steps"`
	LearningRate              float64 `json:"learning_rate" yaml:"learning_rate" toml:"learning_rate"`
	PerDeviceTrainBatchSize   int     `json:"per_device_train_batch_size" yaml:"per_device_train_batch_size" toml:"per_device_train_batch_size"`
	PerDeviceEvalBatchSize    int     `json:"per_device_eval_batch_size" yaml:"per_device_eval_batch_size" toml:"per_device_eval_batch_size"`
	NumTrainEpochs            int     `json:"num_train_epochs" yaml:"num_train_epochs" toml:"num_train_epochs"`
	WeightDecay               float64 `json:"weight_decay" yaml:"weight_decay" toml:"weight_decay"`
	GradientAccumulationSteps int     `json:"gradient_accumulation_steps" yaml:"gradient_accumulation_steps" toml:"gradient_accumulation_steps"`
	FP16                      *bool   `json:"fp16" yaml:"fp16" toml:"fp16"`
	SaveTotalLimit            int     `json:"save_total_limit" yaml:"save_total_limit" toml:"save_total_limit"`
	ReportTo                  string  `json:"report_to" yaml:"report_to" toml:"report_to"`
}

// Hub holds the model registry credential settings.
type Hub struct {
	Endpoint string `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	EnvFile  string `json:"env_file" yaml:"env_file" toml:"env_file"`
	TokenEnv string `json:"token_env" yaml:"token_env" toml:"token_env"`
}

type Log struct {
	Level  string `json:"level" yaml:"level" toml:"level"`
	Format string `json:"format" yaml:"format" toml:"format"`
	File   string `json:"file" yaml:"file" toml:"file"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// LoadEnvFiles loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		existing = append(existing, p)
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ApplyEnv overrides selected fields from LAZYCARE_* environment variables.
func (c *Config) ApplyEnv() {
	setStr := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setStr("LAZYCARE_ADDR", &c.Server.Addr)
	setStr("LAZYCARE_MODEL_DIR", &c.Model.Dir)
	setStr("LAZYCARE_BACKEND", &c.Model.Backend)
	setStr("LAZYCARE_BASE_URL", &c.Model.BaseURL)
	setStr("LAZYCARE_API_KEY", &c.Model.APIKey)
	setStr("LAZYCARE_LLAMA_BIN", &c.Model.LlamaBin)
	setStr("LAZYCARE_HISTORY_BACKEND", &c.History.Backend)
	setStr("LAZYCARE_REDIS_URL", &c.History.RedisURL)
	setStr("LAZYCARE_USERS_BACKEND", &c.Users.Backend)
	setStr("LAZYCARE_LOG_LEVEL", &c.Log.Level)
	setStr("LAZYCARE_LOG_FILE", &c.Log.File)
	if v := os.Getenv("LAZYCARE_GENERATE_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Server.GenerateTimeoutSeconds = n
		}
	}
}
