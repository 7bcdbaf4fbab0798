package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lazycare/internal/history"
	"lazycare/internal/profile"
	"lazycare/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Complete(ctx context.Context, prompt string) ([]string, error)
	Chat(ctx context.Context, persona, userInput string) (string, []string, error)
	Status() types.StatusResponse
	Ready() bool
}

// Options selects the chat route, its persona and the stores.
// A nil History disables the /chat routes; nil Users disables /user.
type Options struct {
	ChatRoute string
	Persona   string
	History   history.Store
	Users     *profile.Service
}

// NewMux builds the router. svc is the generation singleton loaded at start.
func NewMux(svc Service, opts Options) http.Handler {
	if opts.ChatRoute == "" {
		opts.ChatRoute = "/tinyllama-generate"
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsAllowedOrigins,
			AllowedMethods:   corsAllowedMethods,
			AllowedHeaders:   corsAllowedHeaders,
			AllowCredentials: true,
		}))
	}

	h := &handlers{svc: svc, persona: opts.Persona, store: opts.History, users: opts.Users}

	r.Post("/generate", h.generate)
	r.Post(opts.ChatRoute, h.chat)
	if h.store != nil {
		r.Post("/chat/{email}", h.createChat)
		r.Get("/chat/{email}", h.listChats)
		r.Delete("/chat/{email}/{messageId}", h.deleteChat)
		r.Delete("/chat/email/{email}", h.deleteAllChats)
	}
	if h.users != nil {
		h.mountUsers(r)
	}

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)
	return r
}

type handlers struct {
	svc     Service
	persona string
	store   history.Store
	users   *profile.Service
}

// decodeJSON enforces the content type and body limit and decodes into v.
// It writes the error response itself and reports whether to continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Oversized bodies also land here; the size is not disclosed.
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// fail writes err unless the client is gone or the server is shutting down.
func fail(w http.ResponseWriter, r *http.Request, rl reqLog, msg string, err error) {
	if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
		return
	}
	status := statusFor(err)
	writeJSONError(w, status, err.Error())
	rl.failed(msg, status, err)
}

// generate handles POST /generate with a raw prompt.
func (h *handlers) generate(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSONError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	rl := newReqLog(r)
	rl.started("generate")
	ctx, cancel := generationContext(r.Context())
	defer cancel()
	outs, err := h.svc.Complete(ctx, req.Prompt)
	if err != nil {
		fail(w, r, rl, "generate", err)
		return
	}
	rl.texts(req.Prompt, outs)
	resp := types.GenerateResponse{GeneratedText: outs[0]}
	if len(outs) > 1 {
		resp.GeneratedTexts = outs
	}
	writeJSON(w, http.StatusOK, resp)
	rl.done("generate")
}

// chat handles the persona route with {"user_input"}.
func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.UserInput) == "" {
		writeJSONError(w, http.StatusBadRequest, "user_input is required")
		return
	}
	rl := newReqLog(r)
	rl.started("chat")
	ctx, cancel := generationContext(r.Context())
	defer cancel()
	prompt, outs, err := h.svc.Chat(ctx, h.persona, req.UserInput)
	if err != nil {
		fail(w, r, rl, "chat", err)
		return
	}
	rl.texts(prompt, outs)
	resp := types.ChatResponse{Response: outs[0]}
	if len(outs) > 1 {
		resp.Responses = outs
	}
	writeJSON(w, http.StatusOK, resp)
	rl.done("chat")
}

// createChat generates a reply and stores the exchange for the email.
func (h *handlers) createChat(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	var req types.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.UserInput) == "" {
		writeJSONError(w, http.StatusBadRequest, "user_input is required")
		return
	}
	rl := newReqLog(r)
	rl.started("chat record")
	ctx, cancel := generationContext(r.Context())
	defer cancel()
	prompt, outs, err := h.svc.Chat(ctx, h.persona, req.UserInput)
	if err != nil {
		fail(w, r, rl, "chat record", err)
		return
	}
	rec := history.NewRecord(email, req.UserInput, strings.TrimPrefix(outs[0], prompt))
	err = h.store.Append(r.Context(), rec)
	observeHistory("append", err)
	if err != nil {
		fail(w, r, rl, "chat record", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
	rl.done("chat record")
}

func (h *handlers) listChats(w http.ResponseWriter, r *http.Request) {
	recs, err := h.store.List(r.Context(), chi.URLParam(r, "email"))
	observeHistory("list", err)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, types.ResultResponse{Error: "failed to retrieve chat history: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, types.HistoryResponse{Success: true, Data: recs})
}

func (h *handlers) deleteChat(w http.ResponseWriter, r *http.Request) {
	err := h.store.Delete(r.Context(), chi.URLParam(r, "email"), chi.URLParam(r, "messageId"))
	observeHistory("delete", err)
	writeDeleteResult(w, err, "chat message deleted")
}

func (h *handlers) deleteAllChats(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	err := h.store.DeleteAll(r.Context(), email)
	observeHistory("delete_all", err)
	writeDeleteResult(w, err, "all chat records for "+email+" have been deleted")
}

func writeDeleteResult(w http.ResponseWriter, err error, okMsg string) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, types.ResultResponse{Success: true, Message: okMsg})
	case errors.Is(err, history.ErrNotFound):
		writeJSON(w, http.StatusNotFound, types.ResultResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, types.ResultResponse{Error: "failed to delete chat records: " + err.Error()})
	}
}
