package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"courtbook/internal/models"
	"courtbook/internal/schedule"

	"github.com/google/uuid"
)

const reservationColumns = `r.id, r.member_id, r.court_number, r.reservation_time, r.reservation_date,
	COALESCE(m.first_name, ''), COALESCE(m.last_name, ''), r.created_at`

const reservationSelect = `SELECT ` + reservationColumns + `
	FROM reservations r
	LEFT JOIN members m ON m.id = r.member_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	var (
		r       models.Reservation
		dateStr string
	)
	if err := row.Scan(
		&r.ID, &r.MemberID, &r.CourtNumber, &r.ReservationTime, &dateStr,
		&r.MemberFirstName, &r.MemberLastName, &r.CreatedAt,
	); err != nil {
		return nil, err
	}

	date, err := schedule.ParseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("reservation %s: %w", r.ID, err)
	}
	r.ReservationDate = date
	return &r, nil
}

func scanReservations(rows *sql.Rows) ([]*models.Reservation, error) {
	defer rows.Close()

	reservations := make([]*models.Reservation, 0)
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reservations: %w", err)
	}
	return reservations, nil
}

// CreateReservation inserts r inside the per-date lock and a single
// transaction. On success r.ID and r.CreatedAt are filled in; any ID the
// caller set is replaced.
func (db *DB) CreateReservation(ctx context.Context, r *models.Reservation, window schedule.Window) error {
	if !window.Contains(r.ReservationDate) || !db.grid.Contains(r.ReservationTime, r.CourtNumber) {
		return ErrInvalidSlot
	}

	unlock, err := db.lockDate(ctx, r.ReservationDate)
	if err != nil {
		return err
	}
	defer unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	date := r.ReservationDate.String()

	var taken int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE reservation_date = ? AND reservation_time = ? AND court_number = ?`,
		date, r.ReservationTime, r.CourtNumber,
	).Scan(&taken)
	if err != nil {
		return classify("check slot", err)
	}
	if taken > 0 {
		return ErrSlotTaken
	}

	var held int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE reservation_date = ? AND member_id = ?`,
		date, r.MemberID,
	).Scan(&held)
	if err != nil {
		return classify("check member", err)
	}
	if held > 0 {
		return ErrMemberAlreadyBooked
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO reservations (id, member_id, reservation_date, reservation_time, court_number, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, r.MemberID, date, r.ReservationTime, r.CourtNumber, now,
	)
	if err != nil {
		return classify("insert reservation", err)
	}

	if err := tx.Commit(); err != nil {
		return classify("commit reservation", err)
	}

	r.ID = id
	r.CreatedAt = now

	db.logger.Debug().
		Str("reservation_id", id).
		Str("member_id", r.MemberID).
		Str("date", date).
		Int("hour", r.ReservationTime).
		Int("court", r.CourtNumber).
		Msg("Reservation stored")
	return nil
}

// CancelReservation hard-deletes the reservation. Only its owner or an
// admin may cancel it. The deleted row is returned.
func (db *DB) CancelReservation(ctx context.Context, id, callerID string, callerIsAdmin bool) (*models.Reservation, error) {
	existing, err := db.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !callerIsAdmin && existing.MemberID != callerID {
		return nil, ErrForbidden
	}

	unlock, err := db.lockDate(ctx, existing.ReservationDate)
	if err != nil {
		return nil, err
	}
	defer unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var owner string
	err = tx.QueryRowContext(ctx, `SELECT member_id FROM reservations WHERE id = ?`, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classify("load reservation", err)
	}
	if !callerIsAdmin && owner != callerID {
		return nil, ErrForbidden
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id); err != nil {
		return nil, classify("delete reservation", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, classify("commit cancellation", err)
	}

	db.logger.Debug().
		Str("reservation_id", id).
		Str("caller_id", callerID).
		Bool("admin", callerIsAdmin).
		Msg("Reservation deleted")
	return existing, nil
}

func (db *DB) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	row := db.QueryRowContext(ctx, reservationSelect+` WHERE r.id = ?`, id)
	r, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classify("get reservation", err)
	}
	return r, nil
}

// ListReservationsByDate returns the day's reservations ordered by hour
// then court, with member names joined in.
func (db *DB) ListReservationsByDate(ctx context.Context, date schedule.Date) ([]*models.Reservation, error) {
	rows, err := db.QueryContext(ctx,
		reservationSelect+` WHERE r.reservation_date = ? ORDER BY r.reservation_time, r.court_number`,
		date.String(),
	)
	if err != nil {
		return nil, classify("list reservations", err)
	}
	return scanReservations(rows)
}

// ListReservationsBetween returns reservations with from <= date <= to.
func (db *DB) ListReservationsBetween(ctx context.Context, from, to schedule.Date) ([]*models.Reservation, error) {
	rows, err := db.QueryContext(ctx,
		reservationSelect+` WHERE r.reservation_date >= ? AND r.reservation_date <= ?
		ORDER BY r.reservation_date, r.reservation_time, r.court_number`,
		from.String(), to.String(),
	)
	if err != nil {
		return nil, classify("list reservations between", err)
	}
	return scanReservations(rows)
}

// PurgeReservationsBefore deletes every reservation dated strictly before
// date and reports how many rows went.
func (db *DB) PurgeReservationsBefore(ctx context.Context, date schedule.Date) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM reservations WHERE reservation_date < ?`, date.String())
	if err != nil {
		return 0, classify("purge reservations", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge reservations: %w", err)
	}
	return n, nil
}
