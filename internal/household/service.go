// Package household implements household membership, invitation codes and
// list items on top of the store layer. Every operation takes the caller's
// verified user id and performs its own membership and role checks.
package household

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dukerupert/hearth/internal/metrics"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

const (
	// MinSecretLength is the shortest household secret an admin may set.
	MinSecretLength = 4

	minNameLength = 3
	maxNameLength = 256
)

// Notifier receives change events for a household. Implementations must not
// block.
type Notifier interface {
	Notify(householdID, entity, action, id string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string, string, string) {}

type Service struct {
	households *store.HouseholdStore
	codes      *store.VerificationStore
	lists      *store.ListStore
	notifier   Notifier
	metrics    metrics.Recorder
	logger     *slog.Logger
	now        func() time.Time
}

// NewService wires a Service over db. notifier and recorder may be nil.
func NewService(db *sql.DB, notifier Notifier, recorder metrics.Recorder, logger *slog.Logger) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		households: store.NewHouseholdStore(db),
		codes:      store.NewVerificationStore(db),
		lists:      store.NewListStore(db),
		notifier:   notifier,
		metrics:    recorder,
		logger:     logger.With("component", "household"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// membership returns the caller's membership, or nil if they have none.
func (s *Service) membership(ctx context.Context, householdID, userID string) (*model.Membership, error) {
	m, err := s.households.GetMember(ctx, householdID, userID)
	if err != nil {
		return nil, internal("Failed to look up membership", err)
	}
	return m, nil
}

func (s *Service) requireAdmin(ctx context.Context, householdID, userID string) error {
	m, err := s.membership(ctx, householdID, userID)
	if err != nil {
		return err
	}
	if m == nil || m.Role != model.RoleAdmin {
		return forbidden("Only household admins can perform this action")
	}
	return nil
}

// IsMember reports whether userID belongs to the household.
func (s *Service) IsMember(ctx context.Context, householdID, userID string) (bool, error) {
	if userID == "" {
		return false, unauthenticated()
	}
	m, err := s.membership(ctx, householdID, userID)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

// CreateHousehold creates a household with userID as its sole admin and
// seeds the default lists.
func (s *Service) CreateHousehold(ctx context.Context, userID, name string, description *string) (*model.HouseholdDetail, error) {
	if userID == "" {
		return nil, unauthenticated()
	}
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < minNameLength || n > maxNameLength {
		return nil, invalidInput("Household name must be between 3 and 256 characters")
	}
	if description != nil {
		d := strings.TrimSpace(*description)
		description = &d
	}

	h, err := s.households.Create(ctx, name, description, userID, s.now())
	if err != nil {
		return nil, internal("Failed to create household", err)
	}
	s.metrics.IncHouseholdCreated()
	s.logger.Info("household created", "household_id", h.ID, "user_id", userID)

	return s.detail(ctx, h, userID)
}

// ListHouseholds returns every household userID belongs to.
func (s *Service) ListHouseholds(ctx context.Context, userID string) ([]model.HouseholdDetail, error) {
	if userID == "" {
		return nil, unauthenticated()
	}
	households, err := s.households.ListForUser(ctx, userID)
	if err != nil {
		return nil, internal("Failed to fetch households", err)
	}

	details := make([]model.HouseholdDetail, 0, len(households))
	for i := range households {
		d, err := s.detail(ctx, &households[i], userID)
		if err != nil {
			return nil, err
		}
		details = append(details, *d)
	}
	return details, nil
}

// GetHousehold returns the household if userID is a member. Missing
// households and non-members are both NotFound.
func (s *Service) GetHousehold(ctx context.Context, householdID, userID string) (*model.HouseholdDetail, error) {
	if userID == "" {
		return nil, unauthenticated()
	}
	m, err := s.membership(ctx, householdID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, notFound("Household not found or access denied")
	}
	h, err := s.households.GetByID(ctx, householdID)
	if err != nil {
		return nil, internal("Failed to fetch household", err)
	}
	if h == nil {
		return nil, notFound("Household not found or access denied")
	}
	return s.detail(ctx, h, userID)
}

// detail assembles members and lists. The secret is only kept for admins.
func (s *Service) detail(ctx context.Context, h *model.Household, viewerID string) (*model.HouseholdDetail, error) {
	members, err := s.households.ListMembers(ctx, h.ID)
	if err != nil {
		return nil, internal("Failed to fetch members", err)
	}
	lists, err := s.lists.ListByHousehold(ctx, h.ID)
	if err != nil {
		return nil, internal("Failed to fetch lists", err)
	}
	if members == nil {
		members = []model.Membership{}
	}
	if lists == nil {
		lists = []model.List{}
	}

	d := &model.HouseholdDetail{Household: *h, Members: members, Lists: lists}
	if !isAdmin(members, viewerID) {
		d.Secret = nil
	}
	return d, nil
}

func isAdmin(members []model.Membership, userID string) bool {
	for _, m := range members {
		if m.UserID == userID {
			return m.Role == model.RoleAdmin
		}
	}
	return false
}

// UpdateSecret replaces the household secret. The length check runs before
// the role check.
func (s *Service) UpdateSecret(ctx context.Context, householdID, userID, secret string) (*model.Household, error) {
	if userID == "" {
		return nil, unauthenticated()
	}
	if utf8.RuneCountInString(secret) < MinSecretLength {
		return nil, invalidInput("Secret must be at least 4 characters long")
	}
	if err := s.requireAdmin(ctx, householdID, userID); err != nil {
		return nil, err
	}

	h, err := s.households.UpdateSecret(ctx, householdID, secret, s.now())
	if err != nil {
		return nil, internal("Failed to update household secret", err)
	}
	if h == nil {
		return nil, notFound("Household not found")
	}
	s.logger.Info("household secret updated", "household_id", householdID, "user_id", userID)
	s.notifier.Notify(householdID, "household", "updated", householdID)
	return h, nil
}

// LeaveResult reports the outcome of Leave.
type LeaveResult struct {
	HouseholdDeleted bool   `json:"householdDeleted"`
	PromotedUserID   string `json:"promotedUserId,omitempty"`
}

// Leave removes userID from the household. The last member leaving deletes
// the household; an admin leaving hands the role to the longest-standing
// remaining member.
func (s *Service) Leave(ctx context.Context, householdID, userID string) (*LeaveResult, error) {
	if userID == "" {
		return nil, unauthenticated()
	}
	res, err := s.households.Leave(ctx, householdID, userID)
	switch {
	case errors.Is(err, store.ErrNotMember):
		return nil, notFound("Household membership not found")
	case err != nil:
		return nil, internal("Failed to leave household", err)
	}

	log := s.logger.With("household_id", householdID, "user_id", userID)
	switch {
	case res.HouseholdDeleted:
		s.metrics.IncMemberLeft(metrics.OutcomeHouseholdDeleted)
		log.Info("last member left, household deleted")
		s.notifier.Notify(householdID, "household", "deleted", householdID)
	case res.PromotedUserID != "":
		s.metrics.IncMemberLeft(metrics.OutcomePromoted)
		log.Info("admin left household", "promoted_user_id", res.PromotedUserID)
		s.notifier.Notify(householdID, "member", "left", userID)
		s.notifier.Notify(householdID, "member", "promoted", res.PromotedUserID)
	default:
		s.metrics.IncMemberLeft(metrics.OutcomeLeft)
		log.Info("member left household")
		s.notifier.Notify(householdID, "member", "left", userID)
	}

	return &LeaveResult{HouseholdDeleted: res.HouseholdDeleted, PromotedUserID: res.PromotedUserID}, nil
}
