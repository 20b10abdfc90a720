package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/hearth/internal/model"
)

type ListStore struct {
	db *sql.DB
}

func NewListStore(db *sql.DB) *ListStore {
	return &ListStore{db: db}
}

// --- List methods ---

func scanList(row scanner) (*model.List, error) {
	var l model.List
	var description sql.NullString
	var archived int
	err := row.Scan(&l.ID, &l.HouseholdID, &l.Name, &description, &l.Type, &archived, &l.CreatedByID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Description = stringPtr(description)
	l.IsArchived = archived != 0
	return &l, nil
}

const listCols = `l.id, l.household_id, l.name, l.description, l.type, l.is_archived, l.created_by, l.created_at, l.updated_at`

// ListByHousehold returns the household's lists, oldest first, each with its
// items oldest first.
func (s *ListStore) ListByHousehold(ctx context.Context, householdID string) ([]model.List, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listCols+` FROM lists l WHERE l.household_id = ? ORDER BY l.created_at ASC, l.name DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}

	var lists []model.List
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, *l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range lists {
		items, err := s.listItems(ctx, lists[i].ID, "ASC")
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []model.ListItem{}
		}
		lists[i].Items = items
	}
	return lists, nil
}

// GetForMember returns the list if userID belongs to its household, or nil.
func (s *ListStore) GetForMember(ctx context.Context, listID, userID string) (*model.List, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+listCols+` FROM lists l
		 JOIN household_members hm ON hm.household_id = l.household_id
		 WHERE l.id = ? AND hm.user_id = ?`,
		listID, userID,
	)
	l, err := scanList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	return l, nil
}

// --- Item methods ---

func scanItem(row scanner) (*model.ListItem, error) {
	var item model.ListItem
	var description, completedBy, priority sql.NullString
	var completedAt, dueDate sql.NullTime
	var completed int

	err := row.Scan(
		&item.ID, &item.ListID, &item.Text, &description, &completed,
		&completedAt, &completedBy, &priority, &dueDate, &item.CreatedByID,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Completed = completed != 0
	item.Description = stringPtr(description)
	item.CompletedByID = stringPtr(completedBy)
	if completedAt.Valid {
		item.CompletedAt = &completedAt.Time
	}
	if priority.Valid {
		p := model.Priority(priority.String)
		item.Priority = &p
	}
	if dueDate.Valid {
		item.DueDate = &dueDate.Time
	}
	return &item, nil
}

const itemCols = `i.id, i.list_id, i.text, i.description, i.completed, i.completed_at, i.completed_by, i.priority, i.due_date, i.created_by, i.created_at, i.updated_at`

func (s *ListStore) GetItemByID(ctx context.Context, id string) (*model.ListItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemCols+` FROM list_items i WHERE i.id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// GetItemForMember returns the item and the id of the household it belongs
// to if userID is a member of that household. A nil item means not found or
// not accessible.
func (s *ListStore) GetItemForMember(ctx context.Context, itemID, userID string) (*model.ListItem, string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemCols+`, l.household_id FROM list_items i
		 JOIN lists l ON l.id = i.list_id
		 JOIN household_members hm ON hm.household_id = l.household_id
		 WHERE i.id = ? AND hm.user_id = ?`,
		itemID, userID,
	)

	var householdID string
	item, err := scanItem(rowWithTail{row: row, tail: []any{&householdID}})
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("get item for member: %w", err)
	}
	return item, householdID, nil
}

// rowWithTail appends extra scan destinations after the ones scanItem uses.
type rowWithTail struct {
	row  scanner
	tail []any
}

func (r rowWithTail) Scan(dest ...any) error {
	return r.row.Scan(append(dest, r.tail...)...)
}

// ListItems returns a list's items, newest first.
func (s *ListStore) ListItems(ctx context.Context, listID string) ([]model.ListItem, error) {
	return s.listItems(ctx, listID, "DESC")
}

func (s *ListStore) listItems(ctx context.Context, listID, order string) ([]model.ListItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemCols+` FROM list_items i WHERE i.list_id = ? ORDER BY i.created_at `+order+`, i.id `+order,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.ListItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// NewItem holds the fields of an item being created.
type NewItem struct {
	ListID      string
	Text        string
	Description *string
	Priority    *model.Priority
	DueDate     *time.Time
	CreatedByID string
}

func (s *ListStore) CreateItem(ctx context.Context, in NewItem, now time.Time) (*model.ListItem, error) {
	id := newID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO list_items (id, list_id, text, description, priority, due_date, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.ListID, in.Text, nullString(in.Description), nullPriority(in.Priority), nullTime(in.DueDate),
		in.CreatedByID, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return s.GetItemByID(ctx, id)
}

// SaveItem writes every mutable field of item back to its row.
func (s *ListStore) SaveItem(ctx context.Context, item *model.ListItem, now time.Time) (*model.ListItem, error) {
	completed := 0
	if item.Completed {
		completed = 1
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE list_items
		 SET text = ?, description = ?, completed = ?, completed_at = ?, completed_by = ?,
		     priority = ?, due_date = ?, updated_at = ?
		 WHERE id = ?`,
		item.Text, nullString(item.Description), completed, nullTime(item.CompletedAt), nullString(item.CompletedByID),
		nullPriority(item.Priority), nullTime(item.DueDate), now, item.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return s.GetItemByID(ctx, item.ID)
}

func (s *ListStore) DeleteItem(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM list_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullPriority(p *model.Priority) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*p), Valid: true}
}
