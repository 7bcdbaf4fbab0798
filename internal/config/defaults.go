package config

import (
	"fmt"
	"strings"
)

const (
	DefaultAddr         = ":8000"
	DefaultModelDir     = "./saved_model"
	DefaultBackend      = "spawn"
	DefaultChatRoute    = "/tinyllama-generate"
	DefaultPersona      = "You are a helpful medical assistant."
	DefaultBaseModel    = "TinyLlama/TinyLlama-1.1B-Chat-v1.0"
	DefaultHubEndpoint  = "https://huggingface.co"
	DefaultTokenEnv     = "HUGGINGFACE_TOKEN"
	DefaultEnvFile      = ".env"
	DefaultMaxRows      = 100
	DefaultMaxLength    = 512
	DefaultPadTokenID   = 2
	DefaultMaxBodyBytes = 1 << 20
)

// Default returns a fully populated configuration.
func Default() Config {
	return Config{}.WithDefaults()
}

// WithDefaults returns a copy with every unspecified field set to its default.
func (c Config) WithDefaults() Config {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		c.Server.ShutdownTimeoutSeconds = 5
	}
	if c.Server.CORS.Enabled {
		if len(c.Server.CORS.AllowedOrigins) == 0 {
			c.Server.CORS.AllowedOrigins = []string{"http://localhost:3000"}
		}
		if len(c.Server.CORS.AllowedMethods) == 0 {
			c.Server.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE"}
		}
		if len(c.Server.CORS.AllowedHeaders) == 0 {
			c.Server.CORS.AllowedHeaders = []string{"Content-Type", "Authorization"}
		}
	}

	if c.Model.Dir == "" {
		c.Model.Dir = DefaultModelDir
	}
	if c.Model.Backend == "" {
		c.Model.Backend = DefaultBackend
	}
	if c.Model.LlamaBin == "" {
		c.Model.LlamaBin = "llama-server"
	}
	if c.Model.LlamaHost == "" {
		c.Model.LlamaHost = "127.0.0.1"
	}
	if c.Model.ReadySeconds <= 0 {
		c.Model.ReadySeconds = 60
	}

	g := &c.Generation
	if g.MaxNewTokens <= 0 {
		g.MaxNewTokens = 256
	}
	if g.DoSample == nil {
		g.DoSample = boolPtr(true)
	}
	if g.Temperature <= 0 {
		g.Temperature = 0.7
	}
	if g.TopK <= 0 {
		g.TopK = 50
	}
	if g.TopP <= 0 {
		g.TopP = 0.95
	}
	if g.NumReturnSequences <= 0 {
		g.NumReturnSequences = 1
	}
	if g.ReturnFullText == nil {
		g.ReturnFullText = boolPtr(true)
	}

	if c.Chat.Route == "" {
		c.Chat.Route = DefaultChatRoute
	}
	if !strings.HasPrefix(c.Chat.Route, "/") {
		c.Chat.Route = "/" + c.Chat.Route
	}
	if c.Chat.Persona == "" {
		c.Chat.Persona = DefaultPersona
	}

	if c.History.Backend == "" {
		c.History.Backend = "memory"
	}
	if c.History.Prefix == "" {
		c.History.Prefix = "lazycare:chat:"
	}

	if c.Users.Backend == "" {
		c.Users.Backend = "memory"
	}
	if c.Users.RedisURL == "" {
		c.Users.RedisURL = c.History.RedisURL
	}
	if c.Users.Prefix == "" {
		c.Users.Prefix = "lazycare:user:"
	}

	f := &c.Finetune
	if f.MaxRows == 0 {
		f.MaxRows = DefaultMaxRows
	}
	if f.BaseModel == "" {
		f.BaseModel = DefaultBaseModel
	}
	if f.TokenizerURL == "" {
		f.TokenizerURL = "http://127.0.0.1:8080"
	}
	if f.MaxLength <= 0 {
		f.MaxLength = DefaultMaxLength
	}
	if f.PadTokenID == nil {
		f.PadTokenID = intPtr(DefaultPadTokenID)
	}
	if f.PaddingSide == "" {
		f.PaddingSide = "right"
	}
	if f.WorkDir == "" {
		f.WorkDir = "./data"
	}
	if f.OutputDir == "" {
		f.OutputDir = "./results"
	}
	if f.SaveDir == "" {
		f.SaveDir = DefaultModelDir
	}
	t := &f.Training
	if t.EvalStrategy == "" {
		t.EvalStrategy = "epoch"
	}
	if t.LoggingStrategy == "" {
		t.LoggingStrategy = "steps"
	}
	if t.LoggingSteps <= 0 {
		t.LoggingSteps = 10
	}
	if t.LearningRate <= 0 {
		t.LearningRate = 1e-5
	}
	if t.PerDeviceTrainBatchSize <= 0 {
		t.PerDeviceTrainBatchSize = 4
	}
	if t.PerDeviceEvalBatchSize <= 0 {
		t.PerDeviceEvalBatchSize = 4
	}
	if t.NumTrainEpochs <= 0 {
		t.NumTrainEpochs = 3
	}
	if t.WeightDecay <= 0 {
		t.WeightDecay = 0.01
	}
	if t.GradientAccumulationSteps <= 0 {
		t.GradientAccumulationSteps = 4
	}
	if t.FP16 == nil {
		t.FP16 = boolPtr(true)
	}
	if t.SaveTotalLimit <= 0 {
		t.SaveTotalLimit = 2
	}
	if t.ReportTo == "" {
		t.ReportTo = "tensorboard"
	}

	if c.Hub.Endpoint == "" {
		c.Hub.Endpoint = DefaultHubEndpoint
	}
	if c.Hub.EnvFile == "" {
		c.Hub.EnvFile = DefaultEnvFile
	}
	if c.Hub.TokenEnv == "" {
		c.Hub.TokenEnv = DefaultTokenEnv
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	return c
}

// Validate checks cross-field constraints after defaults were applied.
func (c Config) Validate() error {
	switch c.Model.Backend {
	case "openai":
		if strings.TrimSpace(c.Model.BaseURL) == "" {
			return fmt.Errorf("model.base_url is required for the openai backend")
		}
	case "spawn", "llama":
	default:
		return fmt.Errorf("unknown model.backend %q (want openai|spawn|llama)", c.Model.Backend)
	}
	switch c.History.Backend {
	case "memory", "off":
	case "redis":
		if strings.TrimSpace(c.History.RedisURL) == "" {
			return fmt.Errorf("history.redis_url is required for the redis history backend")
		}
	default:
		return fmt.Errorf("unknown history.backend %q (want memory|redis|off)", c.History.Backend)
	}
	switch c.Users.Backend {
	case "memory", "off":
	case "redis":
		if strings.TrimSpace(c.Users.RedisURL) == "" {
			return fmt.Errorf("users.redis_url (or history.redis_url) is required for the redis users backend")
		}
	default:
		return fmt.Errorf("unknown users.backend %q (want memory|redis|off)", c.Users.Backend)
	}
	switch c.Finetune.PaddingSide {
	case "left", "right":
	default:
		return fmt.Errorf("finetune.padding_side must be left or right, got %q", c.Finetune.PaddingSide)
	}
	if c.Model.LlamaPortStart > 0 && c.Model.LlamaPortEnd < c.Model.LlamaPortStart {
		return fmt.Errorf("model.llama_port_end must be >= llama_port_start")
	}
	if c.Generation.TopP > 1 {
		return fmt.Errorf("generation.top_p must be in (0,1], got %v", c.Generation.TopP)
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }
