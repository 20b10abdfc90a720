package household

import (
	"context"
	"errors"
	"strings"

	"github.com/dukerupert/hearth/internal/metrics"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

// GenerateCode issues a fresh invitation code for the household, replacing
// any earlier one. Only admins may call it.
func (s *Service) GenerateCode(ctx context.Context, householdID, userID string) (*model.VerificationCode, error) {
	if userID == "" {
		return nil, unauthenticated()
	}
	if strings.TrimSpace(householdID) == "" {
		return nil, invalidInput("Household ID is required")
	}
	if err := s.requireAdmin(ctx, householdID, userID); err != nil {
		return nil, err
	}

	vc, err := s.codes.Replace(ctx, householdID, s.now())
	if err != nil {
		return nil, internal("Failed to generate verification code", err)
	}
	s.metrics.IncCodeGenerated()
	s.logger.Info("verification code generated", "household_id", householdID, "user_id", userID, "expires_at", vc.ExpiresAt)
	return vc, nil
}

// JoinResult reports the outcome of ValidateAndJoin.
type JoinResult struct {
	Household *model.Household
	// AlreadyMember is set when the caller was a member before the call.
	// The code is left unconsumed in that case.
	AlreadyMember bool
}

// ValidateAndJoin admits userID to the household that issued code, provided
// secret matches that household's secret. Unknown, expired, used and
// wrong-secret attempts are indistinguishable to the caller.
func (s *Service) ValidateAndJoin(ctx context.Context, code, secret, userID string) (*JoinResult, error) {
	if userID == "" {
		return nil, unauthenticated()
	}
	code = strings.TrimSpace(code)
	if code == "" || secret == "" {
		return nil, invalidInput("Code and secret are required")
	}

	res, err := s.codes.Redeem(ctx, code, secret, userID, s.now())
	switch {
	case errors.Is(err, store.ErrCodeInvalid):
		s.metrics.IncCodeValidation(metrics.OutcomeRejected)
		s.logger.Warn("verification code rejected", "user_id", userID)
		return nil, invalidCode()
	case errors.Is(err, store.ErrDuplicateMember):
		return nil, conflict("Already a member of this household", err)
	case err != nil:
		return nil, internal("Failed to verify code", err)
	}

	h := *res.Household
	h.Secret = nil

	if res.AlreadyMember {
		s.metrics.IncCodeValidation(metrics.OutcomeAlreadyMember)
		s.logger.Info("verification code presented by existing member", "household_id", h.ID, "user_id", userID)
		return &JoinResult{Household: &h, AlreadyMember: true}, nil
	}

	s.metrics.IncCodeValidation(metrics.OutcomeJoined)
	s.logger.Info("member joined household", "household_id", h.ID, "user_id", userID)
	s.notifier.Notify(h.ID, "member", "joined", userID)
	return &JoinResult{Household: &h}, nil
}

// CleanupExpiredCodes deletes codes that are expired or used. Callers
// schedule it; the service never runs it on its own.
func (s *Service) CleanupExpiredCodes(ctx context.Context) (int64, error) {
	n, err := s.codes.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, internal("Failed to clean up verification codes", err)
	}
	s.metrics.AddCodesCleaned(n)
	if n > 0 {
		s.logger.Info("cleaned up verification codes", "count", n)
	}
	return n, nil
}
