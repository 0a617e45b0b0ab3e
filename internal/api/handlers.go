package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/notenest/internal/entryservice"
	"github.com/starford/notenest/internal/models"
)

const maxBodyBytes = 1 << 20

// EntryService is what the handlers need from the service layer.
type EntryService interface {
	List(ctx context.Context, q entryservice.Query) ([]models.Entry, error)
	Get(ctx context.Context, id uuid.UUID) (models.Entry, error)
	Create(ctx context.Context, d entryservice.Draft) (models.Entry, error)
	Update(ctx context.Context, id uuid.UUID, d entryservice.Draft, ifMatch string) (models.Entry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler holds API route handlers.
type Handler struct {
	svc EntryService
}

// NewHandler creates a new Handler.
func NewHandler(svc EntryService) *Handler {
	return &Handler{svc: svc}
}

func entryID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid entry id"))
		return uuid.Nil, false
	}
	return id, true
}

func decodeEntry(w http.ResponseWriter, r *http.Request) (EntryRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return req, false
	}
	return req, true
}

func setETag(w http.ResponseWriter, resp EntryResponse) {
	w.Header().Set("ETag", `"`+resp.ETag+`"`)
}

// ListEntries handles GET /api/entries.
//
//	@Summary		List entries with optional filtering
//	@Tags			entries
//	@Produce		json
//	@Param			tag		query		string	false	"Filter by tag"
//	@Param			q		query		string	false	"Case-insensitive text in title or note"
//	@Param			sort	query		string	false	"Sort order; ignored unless cache.honor_sort_order is set"	Enums(title, created, modified)
//	@Success		200		{object}	EntryListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries [get]
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := entryservice.Query{
		Tag:  params.Get("tag"),
		Text: params.Get("q"),
		Sort: params.Get("sort"),
	}
	if err := validation.Validate(q.Sort, validation.In(entryservice.SortOrders...)); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("sort: "+err.Error()))
		return
	}

	entries, err := h.svc.List(r.Context(), q)
	if err != nil {
		writeServiceError(w, "list entries", err)
		return
	}
	items := make([]EntryResponse, len(entries))
	for i, e := range entries {
		items[i] = toResponse(e)
	}
	writeJSON(w, http.StatusOK, EntryListResponse{Entries: items, Total: len(items)})
}

// GetEntry handles GET /api/entries/{id}.
//
//	@Summary		Get a single entry
//	@Tags			entries
//	@Produce		json
//	@Param			id	path		string	true	"Entry ID"
//	@Success		200	{object}	EntryResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{id} [get]
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	e, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, "get entry", err)
		return
	}
	resp := toResponse(e)
	setETag(w, resp)
	writeJSON(w, http.StatusOK, resp)
}

// CreateEntry handles POST /api/entries.
//
//	@Summary		Create an entry
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EntryRequest	true	"Entry to create"
//	@Success		201		{object}	EntryResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries [post]
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEntry(w, r)
	if !ok {
		return
	}
	e, err := h.svc.Create(r.Context(), req.draft())
	if err != nil {
		writeServiceError(w, "create entry", err)
		return
	}
	resp := toResponse(e)
	setETag(w, resp)
	w.Header().Set("Location", "/api/entries/"+resp.ID)
	writeJSON(w, http.StatusCreated, resp)
}

// UpdateEntry handles PUT /api/entries/{id}.
//
//	@Summary		Replace an entry with optimistic concurrency
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string			true	"Entry ID"
//	@Param			If-Match	header		string			false	"ETag from a previous read"
//	@Param			body		body		EntryRequest	true	"New entry fields"
//	@Success		200			{object}	EntryResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{id} [put]
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	req, ok := decodeEntry(w, r)
	if !ok {
		return
	}
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	e, err := h.svc.Update(r.Context(), id, req.draft(), ifMatch)
	if err != nil {
		writeServiceError(w, "update entry", err)
		return
	}
	resp := toResponse(e)
	setETag(w, resp)
	writeJSON(w, http.StatusOK, resp)
}

// DeleteEntry handles DELETE /api/entries/{id}.
//
//	@Summary		Delete an entry
//	@Tags			entries
//	@Param			id	path	string	true	"Entry ID"
//	@Success		204	"Entry deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{id} [delete]
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, "delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
