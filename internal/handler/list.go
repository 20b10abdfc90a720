package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/household"
	"github.com/dukerupert/hearth/internal/model"
)

type ListHandler struct {
	svc *household.Service
	responder
}

func NewListHandler(svc *household.Service, logger *slog.Logger, development bool) *ListHandler {
	return &ListHandler{svc: svc, responder: newResponder(logger, development)}
}

func (h *ListHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListItems(r.Context(), chi.URLParam(r, "listId"), auth.UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type createItemRequest struct {
	Text        string          `json:"text"`
	Description *string         `json:"description"`
	Priority    *model.Priority `json:"priority"`
	DueDate     *time.Time      `json:"dueDate"`
}

func (h *ListHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	item, err := h.svc.CreateItem(r.Context(), chi.URLParam(r, "listId"), auth.UserID(r.Context()), household.ItemInput{
		Text:        req.Text,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *ListHandler) SetCompleted(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Completed *bool `json:"completed"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Completed == nil {
		h.badRequest(w, "completed is required")
		return
	}

	item, err := h.svc.SetItemCompleted(r.Context(), chi.URLParam(r, "itemId"), auth.UserID(r.Context()), *req.Completed)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ListHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch household.ItemPatch
	if !h.decode(w, r, &patch) {
		return
	}

	item, err := h.svc.UpdateItem(r.Context(), chi.URLParam(r, "itemId"), auth.UserID(r.Context()), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ListHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteItem(r.Context(), chi.URLParam(r, "itemId"), auth.UserID(r.Context())); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
