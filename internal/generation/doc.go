// Package generation owns the singleton text-generation service and the
// backends it can run on. It is split by concern:
//
//   - service.go: Service, the object the HTTP layer and the probe command
//     receive by injection. Builds chat prompts and applies full-text output.
//   - backend.go: Backend interface and SamplingParams.
//   - backend_openai.go: OpenAI-compatible completion servers (llama-server,
//     vLLM, TGI) through openai-go.
//   - backend_spawn.go: starts one llama-server child process on the artifact
//     weights and talks to it through the openai backend.
//   - backend_llama.go / backend_llama_stub.go: in-process go-llama.cpp,
//     enabled with `-tags=llama`.
//   - factory.go: backend selection from configuration.
//   - errors.go, metrics.go: error kinds and Prometheus instrumentation.
//
// There is no queue or scheduler. Each call goes straight to the backend and
// concurrent calls rely on whatever the backend runtime provides.
package generation
