package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"courtbook/internal/models"

	"github.com/google/uuid"
)

const memberSelect = `SELECT id, first_name, last_name, email, phone, is_admin, created_at FROM members`

func scanMember(row rowScanner) (*models.Member, error) {
	var m models.Member
	if err := row.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Email, &m.Phone, &m.IsAdmin, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMember inserts m, generating an ID when none is set.
func (db *DB) CreateMember(ctx context.Context, m *models.Member) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO members (id, first_name, last_name, email, phone, is_admin, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.FirstName, m.LastName, m.Email, m.Phone, m.IsAdmin, m.CreatedAt,
	)
	return classify("create member", err)
}

func (db *DB) GetMember(ctx context.Context, id string) (*models.Member, error) {
	m, err := scanMember(db.QueryRowContext(ctx, memberSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, classify("get member", err)
	}
	return m, nil
}

// GetMembersByIDs loads the given members keyed by ID. Unknown IDs are
// simply absent from the result.
func (db *DB) GetMembersByIDs(ctx context.Context, ids []string) (map[string]*models.Member, error) {
	members := make(map[string]*models.Member, len(ids))
	if len(ids) == 0 {
		return members, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.QueryContext(ctx, memberSelect+` WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, classify("get members", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// DeleteMember removes the member; their reservations go with them.
func (db *DB) DeleteMember(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return classify("delete member", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if n == 0 {
		return ErrMemberNotFound
	}
	return nil
}
