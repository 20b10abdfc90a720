package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/household"
)

type HouseholdHandler struct {
	svc *household.Service
	responder
}

func NewHouseholdHandler(svc *household.Service, logger *slog.Logger, development bool) *HouseholdHandler {
	return &HouseholdHandler{svc: svc, responder: newResponder(logger, development)}
}

func (h *HouseholdHandler) List(w http.ResponseWriter, r *http.Request) {
	households, err := h.svc.ListHouseholds(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, households)
}

type createHouseholdRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createHouseholdRequest
	if !h.decode(w, r, &req) {
		return
	}

	d, err := h.svc.CreateHousehold(r.Context(), auth.UserID(r.Context()), req.Name, req.Description)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GetHousehold(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type updateSecretRequest struct {
	Secret string `json:"secret"`
}

func (h *HouseholdHandler) UpdateSecret(w http.ResponseWriter, r *http.Request) {
	var req updateSecretRequest
	if !h.decode(w, r, &req) {
		return
	}

	hh, err := h.svc.UpdateSecret(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()), req.Secret)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hh)
}

type leaveResponse struct {
	Message string `json:"message"`
	*household.LeaveResult
}

func (h *HouseholdHandler) Leave(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Leave(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	msg := "Successfully left household"
	if res.HouseholdDeleted {
		msg = "Successfully left household; it had no remaining members and was deleted"
	}
	writeJSON(w, http.StatusOK, leaveResponse{Message: msg, LeaveResult: res})
}
