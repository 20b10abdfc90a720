package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/hearth/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(row scanner) (*model.Household, error) {
	var h model.Household
	var description, secret sql.NullString
	err := row.Scan(&h.ID, &h.Name, &description, &secret, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	h.Description = stringPtr(description)
	h.Secret = stringPtr(secret)
	return &h, nil
}

func scanMembership(row scanner) (*model.Membership, error) {
	var m model.Membership
	err := row.Scan(&m.UserID, &m.HouseholdID, &m.Role, &m.JoinedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const householdCols = `id, name, description, secret, created_at, updated_at`
const membershipCols = `user_id, household_id, role, joined_at`

// defaultLists are seeded into every new household.
var defaultLists = []struct {
	name     string
	listType model.ListType
}{
	{"Tasks", model.ListTypeTodo},
	{"Groceries", model.ListTypeShopping},
}

// Create inserts a household, makes creatorID its sole admin, and seeds the
// default lists, all in one transaction.
func (s *HouseholdStore) Create(ctx context.Context, name string, description *string, creatorID string, now time.Time) (*model.Household, error) {
	id := newID()
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO households (id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			id, name, nullString(description), now, now,
		); err != nil {
			return fmt.Errorf("insert household: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO household_members (user_id, household_id, role, joined_at) VALUES (?, ?, ?, ?)`,
			creatorID, id, model.RoleAdmin, now,
		); err != nil {
			return fmt.Errorf("insert creator membership: %w", err)
		}
		for _, l := range defaultLists {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO lists (id, household_id, name, type, created_by, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				newID(), id, l.name, l.listType, creatorID, now, now,
			); err != nil {
				return fmt.Errorf("seed list %q: %w", l.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *HouseholdStore) GetByID(ctx context.Context, id string) (*model.Household, error) {
	return getHousehold(ctx, s.db, id)
}

func getHousehold(ctx context.Context, q querier, id string) (*model.Household, error) {
	row := q.QueryRowContext(ctx, `SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

// ListForUser returns the households userID belongs to, oldest first.
func (s *HouseholdStore) ListForUser(ctx context.Context, userID string) ([]model.Household, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT h.id, h.name, h.description, h.secret, h.created_at, h.updated_at
		 FROM households h
		 JOIN household_members hm ON h.id = hm.household_id
		 WHERE hm.user_id = ?
		 ORDER BY h.created_at ASC, h.id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list households for user: %w", err)
	}
	defer rows.Close()

	var households []model.Household
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		households = append(households, *h)
	}
	return households, rows.Err()
}

func (s *HouseholdStore) UpdateSecret(ctx context.Context, id, secret string, now time.Time) (*model.Household, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE households SET secret = ?, updated_at = ? WHERE id = ?`,
		secret, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update household secret: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Delete removes a household; memberships, lists, items and codes cascade.
func (s *HouseholdStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM households WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete household: %w", err)
	}
	return nil
}

func (s *HouseholdStore) AddMember(ctx context.Context, householdID, userID string, role model.Role, joinedAt time.Time) (*model.Membership, error) {
	if err := insertMember(ctx, s.db, householdID, userID, role, joinedAt); err != nil {
		return nil, err
	}
	return s.GetMember(ctx, householdID, userID)
}

func insertMember(ctx context.Context, q querier, householdID, userID string, role model.Role, joinedAt time.Time) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO household_members (user_id, household_id, role, joined_at) VALUES (?, ?, ?, ?)`,
		userID, householdID, role, joinedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateMember
	}
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (s *HouseholdStore) GetMember(ctx context.Context, householdID, userID string) (*model.Membership, error) {
	return getMember(ctx, s.db, householdID, userID)
}

func getMember(ctx context.Context, q querier, householdID, userID string) (*model.Membership, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+membershipCols+` FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	)
	m, err := scanMembership(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *HouseholdStore) CountMembers(ctx context.Context, householdID string) (int, error) {
	return countMembers(ctx, s.db, householdID)
}

func countMembers(ctx context.Context, q querier, householdID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM household_members WHERE household_id = ?`,
		householdID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

// ListMembers returns the household's members with their user records,
// longest-tenured first.
func (s *HouseholdStore) ListMembers(ctx context.Context, householdID string) ([]model.Membership, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT hm.user_id, hm.household_id, hm.role, hm.joined_at,
		        u.id, u.email, u.name, u.created_at, u.updated_at
		 FROM household_members hm
		 JOIN users u ON u.id = hm.user_id
		 WHERE hm.household_id = ?
		 ORDER BY hm.joined_at ASC, hm.user_id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Membership
	for rows.Next() {
		var m model.Membership
		var u model.User
		var name sql.NullString
		if err := rows.Scan(
			&m.UserID, &m.HouseholdID, &m.Role, &m.JoinedAt,
			&u.ID, &u.Email, &name, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		u.Name = stringPtr(name)
		m.User = &u
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *HouseholdStore) UpdateMemberRole(ctx context.Context, householdID, userID string, role model.Role) (*model.Membership, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE household_members SET role = ? WHERE household_id = ? AND user_id = ?`,
		role, householdID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update member role: %w", err)
	}
	return s.GetMember(ctx, householdID, userID)
}

// LeaveResult describes what a Leave transition did.
type LeaveResult struct {
	HouseholdDeleted bool
	// PromotedUserID is set when the departing admin handed the role over.
	PromotedUserID string
}

// Leave removes userID from the household in a single transaction. The sole
// remaining member's departure deletes the household; an admin's departure
// promotes the earliest-joined remaining member (ties broken by user id).
func (s *HouseholdStore) Leave(ctx context.Context, householdID, userID string) (*LeaveResult, error) {
	var res LeaveResult
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		m, err := getMember(ctx, tx, householdID, userID)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrNotMember
		}

		n, err := countMembers(ctx, tx, householdID)
		if err != nil {
			return err
		}
		if n == 1 {
			if _, err := tx.ExecContext(ctx, `DELETE FROM households WHERE id = ?`, householdID); err != nil {
				return fmt.Errorf("delete household: %w", err)
			}
			res.HouseholdDeleted = true
			return nil
		}

		if m.Role == model.RoleAdmin {
			var successor string
			err := tx.QueryRowContext(ctx,
				`SELECT user_id FROM household_members
				 WHERE household_id = ? AND user_id <> ?
				 ORDER BY joined_at ASC, user_id ASC
				 LIMIT 1`,
				householdID, userID,
			).Scan(&successor)
			if err != nil {
				return fmt.Errorf("select successor: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE household_members SET role = ? WHERE household_id = ? AND user_id = ?`,
				model.RoleAdmin, householdID, successor,
			); err != nil {
				return fmt.Errorf("promote successor: %w", err)
			}
			res.PromotedUserID = successor
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM household_members WHERE household_id = ? AND user_id = ?`,
			householdID, userID,
		); err != nil {
			return fmt.Errorf("remove member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
