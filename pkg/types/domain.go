package types

import "encoding/json"

// ModelInfo describes the model artifact a server process loaded at start.
type ModelInfo struct {
	// Directory the artifact was read from.
	// example: ./saved_model
	Dir string `json:"dir" example:"./saved_model"`
	// Base model the artifact was fine-tuned from, if known.
	// example: TinyLlama/TinyLlama-1.1B-Chat-v1.0
	BaseModel string `json:"base_model,omitempty" example:"TinyLlama/TinyLlama-1.1B-Chat-v1.0"`
	// Weights file inside Dir.
	// example: model.gguf
	Weights string `json:"weights,omitempty" example:"model.gguf"`
}

// Sampling mirrors the generation parameters a server applies.
type Sampling struct {
	MaxNewTokens       int     `json:"max_new_tokens" example:"256"`
	DoSample           bool    `json:"do_sample" example:"true"`
	Temperature        float64 `json:"temperature" example:"0.7"`
	TopK               int     `json:"top_k" example:"50"`
	TopP               float64 `json:"top_p" example:"0.95"`
	NumReturnSequences int     `json:"num_return_sequences" example:"1"`
}

// ChatRecord is one stored exchange between a user and the assistant.
type ChatRecord struct {
	ID         string `json:"id" example:"6f1c3f5e-1f7a-4c55-9f5b-1b3d2f0e9a77"`
	Email      string `json:"email" example:"jane@example.com"`
	Message    string `json:"message"`
	AIResponse string `json:"aiResponse"`
	// RFC3339 timestamp with nanoseconds.
	Timestamp string `json:"timestamp" example:"2025-03-01T10:00:00.000000000Z"`
}

// UserProfile holds the personal details a user keeps next to their chat history.
type UserProfile struct {
	ID       string `json:"id" example:"0b7e3c2a-5d1f-4b8e-9a6c-2f4d8e1a7b3c"`
	Username string `json:"username" example:"jane"`
	Email    string `json:"email" example:"jane@example.com"`
	// Date of birth, YYYY-MM-DD or RFC3339. Always in the past.
	Birthday   string      `json:"birthday,omitempty" example:"1990-04-12"`
	Gender     string      `json:"gender,omitempty" example:"female"`
	Weight     json.Number `json:"weight,omitempty" swaggertype:"number" example:"62.5"`
	WeightUnit string      `json:"weight_unit,omitempty" example:"kg"`
	CreatedAt  string      `json:"createdAt" example:"2025-03-01T10:00:00.000000000Z"`
	UpdatedAt  string      `json:"updatedAt" example:"2025-03-01T10:00:00.000000000Z"`
}
