package server

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"supportdesk/internal/domain"
	"supportdesk/internal/services"
	"supportdesk/internal/store"
	"supportdesk/internal/validation"
	apperrors "supportdesk/pkg/errors"
)

type handler struct {
	deps Deps
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if h.deps.DBHealth != nil {
		if err := h.deps.DBHealth(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, user, err := h.deps.Auth.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"username":     user.Username,
	})
}

func (h *handler) submitBasic(w http.ResponseWriter, r *http.Request) {
	var sub services.BasicSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req, err := h.deps.Support.SubmitBasic(r.Context(), sub)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, req)
}

func (h *handler) submitPhone(w http.ResponseWriter, r *http.Request) {
	var sub services.PhoneSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req, err := h.deps.Support.SubmitPhone(r.Context(), sub)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, req)
}

func (h *handler) submitLocation(w http.ResponseWriter, r *http.Request) {
	var sub services.LocationSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if sub.IPAddress == "" {
		sub.IPAddress = remoteIP(r)
	}
	req, err := h.deps.Support.SubmitLocation(r.Context(), sub)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, req)
}

func (h *handler) submitFull(w http.ResponseWriter, r *http.Request) {
	var sub services.FullSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if sub.IPAddress == "" {
		sub.IPAddress = remoteIP(r)
	}
	req, err := h.deps.Support.SubmitFull(r.Context(), sub)
	if err != nil {
		// The record may have been persisted even when the
		// confirmation send failed; the error still surfaces.
		h.writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, req)
}

func (h *handler) listSupport(w http.ResponseWriter, r *http.Request) {
	f := store.ListFilter{
		Search: r.URL.Query().Get("q"),
		Tier:   domain.Tier(r.URL.Query().Get("tier")),
		Offset: queryInt(r, "skip", 0),
		Limit:  queryInt(r, "limit", 50),
	}
	if f.Tier != "" && !f.Tier.Valid() {
		respondError(w, http.StatusBadRequest, "unknown tier")
		return
	}
	f.CreatedAfter = queryTime(r, "created_after")
	f.CreatedBefore = queryTime(r, "created_before")
	f.ModifiedAfter = queryTime(r, "modified_after")
	f.ModifiedBefore = queryTime(r, "modified_before")

	reqs, err := h.deps.Support.List(r.Context(), f)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reqs)
}

func (h *handler) getSupport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	req, err := h.deps.Support.Get(r.Context(), uint(id))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}

func (h *handler) listContacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	contacts, err := h.deps.Contacts.List(r.Context(), q.Get("q"),
		q.Get("with_email") == "true", q.Get("with_phone") == "true")
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, contacts)
}

func (h *handler) createContact(w http.ResponseWriter, r *http.Request) {
	var c domain.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.deps.Contacts.Create(r.Context(), &c); err != nil {
		h.writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *handler) getContact(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	c, err := h.deps.Contacts.Get(r.Context(), uint(id))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *handler) updateContact(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var c domain.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c.ID = uint(id)
	if err := h.deps.Contacts.Update(r.Context(), &c); err != nil {
		h.writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *handler) deleteContact(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.deps.Contacts.Delete(r.Context(), uint(id)); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) createLabel(w http.ResponseWriter, r *http.Request) {
	var l domain.Label
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.deps.Contacts.CreateLabel(r.Context(), &l); err != nil {
		h.writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, l)
}

func (h *handler) listLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := h.deps.Contacts.SearchLabels(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, labels)
}

func (h *handler) addCustomField(w http.ResponseWriter, r *http.Request) {
	contactID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var f domain.CustomField
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	f.ContactID = uint(contactID)
	if err := h.deps.Contacts.AddCustomField(r.Context(), &f); err != nil {
		h.writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, f)
}

func (h *handler) assignLabel(w http.ResponseWriter, r *http.Request) {
	contactID, err1 := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	labelID, err2 := strconv.ParseUint(chi.URLParam(r, "labelID"), 10, 32)
	if err1 != nil || err2 != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.deps.Contacts.AssignLabel(r.Context(), uint(contactID), uint(labelID)); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) contactsByLabel(w http.ResponseWriter, r *http.Request) {
	labelID, err := strconv.ParseUint(chi.URLParam(r, "labelID"), 10, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	contacts, err := h.deps.Contacts.ContactsByLabel(r.Context(), uint(labelID))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, contacts)
}

// writeServiceError maps service errors to HTTP responses. Validation
// failures return the field-keyed message map.
func (h *handler) writeServiceError(w http.ResponseWriter, err error) {
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		respondJSON(w, http.StatusBadRequest, map[string]any{"errors": fieldErrs})
		return
	}
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrContactNotFound) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeUnauthorized:
		respondError(w, http.StatusUnauthorized, err.Error())
	case apperrors.ErrCodeBadRequest:
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[ERROR] %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[ERROR] Failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func queryTime(r *http.Request, key string) *time.Time {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &t
}
