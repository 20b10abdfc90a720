package store

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/dukerupert/hearth/internal/model"
)

const (
	// CodeTTL is how long a freshly generated verification code stays valid.
	CodeTTL = time.Hour

	maxCodeDraws = 5
)

var errCodeSpaceBusy = errors.New("could not draw an unused verification code")

type VerificationStore struct {
	db *sql.DB
	// draw is swapped in tests to force collisions.
	draw func() (string, error)
}

func NewVerificationStore(db *sql.DB) *VerificationStore {
	return &VerificationStore{db: db, draw: generateCode}
}

func scanVerificationCode(row scanner) (*model.VerificationCode, error) {
	var vc model.VerificationCode
	var used int
	err := row.Scan(&vc.ID, &vc.Code, &vc.HouseholdID, &vc.ExpiresAt, &used, &vc.CreatedAt)
	if err != nil {
		return nil, err
	}
	vc.Used = used != 0
	return &vc, nil
}

const verificationCodeCols = `id, code, household_id, expires_at, used, created_at`

// generateCode returns a 6-digit numeric code (100000–999999).
func generateCode() (string, error) {
	// Range: 100000 to 999999 (900000 values)
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Replace deletes every code for the household and issues a new one expiring
// CodeTTL after now. Delete and insert share one transaction, so a household
// never holds two codes. A drawn value already held by another household's
// live code is re-drawn so that lookups by value stay unambiguous.
func (s *VerificationStore) Replace(ctx context.Context, householdID string, now time.Time) (*model.VerificationCode, error) {
	vc := &model.VerificationCode{
		ID:          newID(),
		HouseholdID: householdID,
		ExpiresAt:   now.Add(CodeTTL),
		CreatedAt:   now,
	}
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM verification_codes WHERE household_id = ?`,
			householdID,
		); err != nil {
			return fmt.Errorf("delete previous codes: %w", err)
		}

		code, err := s.drawUnused(ctx, tx, now)
		if err != nil {
			return err
		}
		vc.Code = code

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO verification_codes (id, code, household_id, expires_at, used, created_at) VALUES (?, ?, ?, ?, 0, ?)`,
			vc.ID, vc.Code, vc.HouseholdID, vc.ExpiresAt, vc.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert verification code: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vc, nil
}

func (s *VerificationStore) drawUnused(ctx context.Context, q querier, now time.Time) (string, error) {
	for range maxCodeDraws {
		code, err := s.draw()
		if err != nil {
			return "", err
		}
		var n int
		if err := q.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM verification_codes WHERE code = ? AND used = 0 AND expires_at > ?`,
			code, now,
		).Scan(&n); err != nil {
			return "", fmt.Errorf("check code collision: %w", err)
		}
		if n == 0 {
			return code, nil
		}
	}
	return "", errCodeSpaceBusy
}

// GetActive returns the unused, unexpired code with the given value, or nil.
func (s *VerificationStore) GetActive(ctx context.Context, code string, now time.Time) (*model.VerificationCode, error) {
	return getActiveCode(ctx, s.db, code, now)
}

func getActiveCode(ctx context.Context, q querier, code string, now time.Time) (*model.VerificationCode, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+verificationCodeCols+` FROM verification_codes
		 WHERE code = ? AND used = 0 AND expires_at > ?
		 ORDER BY created_at DESC LIMIT 1`,
		code, now,
	)
	vc, err := scanVerificationCode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active code: %w", err)
	}
	return vc, nil
}

func (s *VerificationStore) ListForHousehold(ctx context.Context, householdID string) ([]model.VerificationCode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+verificationCodeCols+` FROM verification_codes WHERE household_id = ? ORDER BY created_at ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list verification codes: %w", err)
	}
	defer rows.Close()

	var codes []model.VerificationCode
	for rows.Next() {
		vc, err := scanVerificationCode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verification code: %w", err)
		}
		codes = append(codes, *vc)
	}
	return codes, rows.Err()
}

// RedeemResult is the outcome of a successful Redeem.
type RedeemResult struct {
	Household *model.Household
	// AlreadyMember reports that the user was a member before redeeming; the
	// code was left unconsumed and no membership was written.
	AlreadyMember bool
}

// Redeem admits userID to the household that owns code, provided the code is
// live and secret matches the household secret. Lookup, consumption and the
// membership insert happen in one transaction, and consumption is conditional
// on the code still being unused, so a code admits at most one member.
// Every rejection is ErrCodeInvalid.
func (s *VerificationStore) Redeem(ctx context.Context, code, secret, userID string, now time.Time) (*RedeemResult, error) {
	var res RedeemResult
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		vc, err := getActiveCode(ctx, tx, code, now)
		if err != nil {
			return err
		}
		if vc == nil {
			return ErrCodeInvalid
		}

		h, err := getHousehold(ctx, tx, vc.HouseholdID)
		if err != nil {
			return err
		}
		if h == nil || h.Secret == nil || !secretsEqual(*h.Secret, secret) {
			return ErrCodeInvalid
		}
		res.Household = h

		existing, err := getMember(ctx, tx, h.ID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			res.AlreadyMember = true
			return nil
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE verification_codes SET used = 1 WHERE id = ? AND used = 0`,
			vc.ID,
		)
		if err != nil {
			return fmt.Errorf("mark code used: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return ErrCodeInvalid
		}

		return insertMember(ctx, tx, h.ID, userID, model.RoleMember, now)
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func secretsEqual(stored, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}

// DeleteExpired removes codes that are expired or already consumed.
func (s *VerificationStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE expires_at < ? OR used = 1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired verification codes: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
