package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lazycare/internal/history"
	"lazycare/internal/profile"
	"lazycare/pkg/types"
)

func (h *handlers) mountUsers(r chi.Router) {
	r.Route("/user", func(r chi.Router) {
		r.Post("/", h.upsertUser)
		r.Get("/email/{email}", h.getUserByEmail)
		r.Put("/email/{email}", h.updateUserByEmail)
		r.Delete("/email/{email}", h.clearUserByEmail)
		r.Get("/{userId}", h.getUser)
		r.Put("/{userId}", h.updateUser)
		r.Delete("/{userId}", h.deleteUser)
	})
}

// upsertUser creates a profile (201) or updates the existing one for the email (200).
func (h *handlers) upsertUser(w http.ResponseWriter, r *http.Request) {
	var req types.ProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, created, err := h.users.Upsert(r.Context(), req)
	observeProfile("upsert", err)
	if err != nil {
		writeProfileError(w, r, "upsert user", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, types.ProfileResponse{Success: true, Data: &p})
}

func (h *handlers) getUserByEmail(w http.ResponseWriter, r *http.Request) {
	p, err := h.users.Get(r.Context(), chi.URLParam(r, "email"))
	observeProfile("get", err)
	writeProfile(w, r, "get user", p, err)
}

func (h *handlers) getUser(w http.ResponseWriter, r *http.Request) {
	p, err := h.users.GetByID(r.Context(), chi.URLParam(r, "userId"))
	observeProfile("get", err)
	writeProfile(w, r, "get user", p, err)
}

func (h *handlers) updateUserByEmail(w http.ResponseWriter, r *http.Request) {
	var req types.ProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.users.Update(r.Context(), chi.URLParam(r, "email"), req)
	observeProfile("update", err)
	writeProfile(w, r, "update user", p, err)
}

func (h *handlers) updateUser(w http.ResponseWriter, r *http.Request) {
	var req types.ProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.users.UpdateByID(r.Context(), chi.URLParam(r, "userId"), req)
	observeProfile("update", err)
	writeProfile(w, r, "update user", p, err)
}

// clearUserByEmail drops birthday, gender and weight but keeps the account.
func (h *handlers) clearUserByEmail(w http.ResponseWriter, r *http.Request) {
	p, err := h.users.ClearDetails(r.Context(), chi.URLParam(r, "email"))
	observeProfile("clear", err)
	if err != nil {
		writeProfileError(w, r, "clear user fields", err)
		return
	}
	writeJSON(w, http.StatusOK, types.ProfileResponse{Success: true, Message: "user profile updated, specific fields cleared", Data: &p})
}

// deleteUser removes the profile and the chat history of its email.
func (h *handlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	p, err := h.users.Delete(r.Context(), chi.URLParam(r, "userId"))
	observeProfile("delete", err)
	if err != nil {
		writeProfileError(w, r, "delete user", err)
		return
	}
	if h.store != nil {
		herr := h.store.DeleteAll(r.Context(), p.Email)
		observeHistory("delete_all", herr)
		if herr != nil && !errors.Is(herr, history.ErrNotFound) {
			newReqLog(r).failed("delete user chat history", http.StatusInternalServerError, herr)
		}
	}
	writeJSON(w, http.StatusOK, types.ProfileResponse{Success: true, Message: "user successfully deleted"})
}

func writeProfile(w http.ResponseWriter, r *http.Request, op string, p types.UserProfile, err error) {
	if err != nil {
		writeProfileError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, types.ProfileResponse{Success: true, Data: &p})
}

func writeProfileError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		newReqLog(r).failed(op, status, err)
	}
	writeJSON(w, status, types.ProfileResponse{Success: false, Message: err.Error()})
}

// observeProfile counts one profile store call.
func observeProfile(op string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, profile.ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	profileOperationsTotal.WithLabelValues(op, outcome).Inc()
}
