package types

import "encoding/json"

// GenerateRequest is the payload for POST /generate.
type GenerateRequest struct {
	// Raw prompt handed to the model as-is.
	// example: <|user|>\nWhat are some tips for better sleep?\n<|assistant|>\n
	Prompt string `json:"prompt" example:"<|user|>\nWhat are some tips for better sleep?\n<|assistant|>\n"`
}

// GenerateResponse is returned by POST /generate.
type GenerateResponse struct {
	// First sampled output. Includes the prompt as prefix when the server returns full text.
	GeneratedText string `json:"generated_text"`
	// All sampled outputs when the server is configured for more than one sequence.
	GeneratedTexts []string `json:"generated_texts,omitempty"`
}

// ChatRequest is the payload for the chat generation route and POST /chat/{email}.
type ChatRequest struct {
	// Free-text user message. Must not be blank.
	// example: What are some tips for better sleep?
	UserInput string `json:"user_input" example:"What are some tips for better sleep?"`
}

// ChatResponse is returned by the chat generation route.
type ChatResponse struct {
	// First sampled output, including the rendered chat prompt when full text is returned.
	Response string `json:"response"`
	// All sampled outputs when more than one sequence is requested.
	Responses []string `json:"responses,omitempty"`
}

// HistoryResponse wraps the records returned by GET /chat/{email}.
type HistoryResponse struct {
	Success bool         `json:"success"`
	Data    []ChatRecord `json:"data"`
}

// ResultResponse reports the outcome of a history mutation.
type ResultResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: user_input is required
	Error string `json:"error" example:"user_input is required"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Backend kind serving generations (openai, spawn, llama).
	// example: spawn
	Backend string `json:"backend" example:"spawn"`
	// Loaded model as reported by the artifact.
	Model ModelInfo `json:"model"`
	// Chat template used to render conversations.
	// example: zephyr
	Template string `json:"template" example:"zephyr"`
	// Fixed sampling configuration applied to every request.
	Sampling Sampling `json:"sampling"`
	// Whether the backend finished loading.
	Ready bool `json:"ready"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// ProfileRequest is the payload for POST /user and the PUT /user routes.
// Absent fields are left unchanged; weight accepts a number, a numeric
// string, or null/"" to clear it.
type ProfileRequest struct {
	Username   *string         `json:"username,omitempty" example:"jane"`
	Email      *string         `json:"email,omitempty" example:"jane@example.com"`
	Birthday   *string         `json:"birthday,omitempty" example:"1990-04-12"`
	Gender     *string         `json:"gender,omitempty" example:"female"`
	Weight     json.RawMessage `json:"weight,omitempty" swaggertype:"number" example:"62.5"`
	WeightUnit *string         `json:"weight_unit,omitempty" example:"kg"`
}

// ProfileResponse wraps the outcome of a /user call.
type ProfileResponse struct {
	Success bool         `json:"success"`
	Data    *UserProfile `json:"data,omitempty"`
	Message string       `json:"message,omitempty"`
}
