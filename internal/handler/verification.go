package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/household"
)

type VerificationHandler struct {
	svc *household.Service
	responder
}

func NewVerificationHandler(svc *household.Service, logger *slog.Logger, development bool) *VerificationHandler {
	return &VerificationHandler{svc: svc, responder: newResponder(logger, development)}
}

type generateRequest struct {
	HouseholdID string `json:"householdId"`
}

type generateResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *VerificationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !h.decode(w, r, &req) {
		return
	}

	vc, err := h.svc.GenerateCode(r.Context(), req.HouseholdID, auth.UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{Code: vc.Code, ExpiresAt: vc.ExpiresAt})
}

type validateRequest struct {
	Code   string `json:"code"`
	Secret string `json:"secret"`
}

type validateResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	HouseholdID   string `json:"householdId"`
	AlreadyMember bool   `json:"alreadyMember"`
}

func (h *VerificationHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.svc.ValidateAndJoin(r.Context(), req.Code, req.Secret, auth.UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	msg := "Successfully joined household"
	if res.AlreadyMember {
		msg = "Already a member of this household"
	}
	writeJSON(w, http.StatusOK, validateResponse{
		Success:       true,
		Message:       msg,
		HouseholdID:   res.Household.ID,
		AlreadyMember: res.AlreadyMember,
	})
}
