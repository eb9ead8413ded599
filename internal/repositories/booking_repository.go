package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	intconfig "pothikbondhu/internal/config"
	intdb "pothikbondhu/internal/db"
	"pothikbondhu/internal/domain"
	"pothikbondhu/internal/domain/models"
)

var bookingColumns = []string{
	"b.id", "b.user_id", "b.guide_id", "b.trip_start", "b.trip_end",
	"b.booking_date", "b.status", "b.is_rated", "b.user_rating", "b.user_review",
	"COALESCE(g.name, '')", "COALESCE(g.photo, '')", "COALESCE(g.phone, '')", "COALESCE(g.email, '')",
	"COALESCE(t.name, '')",
}

// BookingState is the lockable part of a bookings row.
type BookingState struct {
	ID      domain.ID
	UserID  domain.ID
	GuideID domain.ID
	Status  models.BookingStatus
	IsRated bool
}

type BookingRepository struct {
	DB *sql.DB
	Tx *sql.Tx
}

func (r BookingRepository) WithTx(tx *sql.Tx) BookingRepository {
	r.Tx = tx
	return r
}

func (r BookingRepository) q() intdb.Querier {
	if r.Tx != nil {
		return r.Tx
	}
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func bookingSelect() sq.SelectBuilder {
	return sq.Select(bookingColumns...).
		From("bookings b").
		LeftJoin("users g ON g.id = b.guide_id").
		LeftJoin("users t ON t.id = b.user_id")
}

func scanBooking(row rowScanner) (models.Booking, error) {
	var (
		b      models.Booking
		status string
		rating sql.NullFloat64
		review sql.NullString
	)
	if err := row.Scan(
		&b.ID, &b.UserID, &b.GuideID, &b.TripStart, &b.TripEnd,
		&b.BookingDate, &status, &b.IsRated, &rating, &review,
		&b.GuideName, &b.GuidePhoto, &b.GuidePhone, &b.GuideEmail,
		&b.TravelerName,
	); err != nil {
		return models.Booking{}, err
	}
	b.Status = models.BookingStatus(status)
	if rating.Valid {
		v := rating.Float64
		b.UserRating = &v
	}
	if review.Valid {
		v := review.String
		b.UserReview = &v
	}
	return b, nil
}

// Insert stores a pending booking and returns its id.
func (r BookingRepository) Insert(ctx context.Context, nb models.NewBooking) (domain.ID, error) {
	res, err := r.q().ExecContext(ctx, `
		INSERT INTO bookings (user_id, guide_id, trip_start, trip_end, status, is_rated)
		VALUES (?, ?, ?, ?, ?, FALSE)
	`, int64(nb.UserID), int64(nb.GuideID), nb.TripStart, nb.TripEnd, string(models.StatusPending))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return domain.ID(id), nil
}

// Get returns the booking enriched with guide display fields.
func (r BookingRepository) Get(ctx context.Context, id domain.ID) (models.Booking, error) {
	query, args, err := bookingSelect().Where(sq.Eq{"b.id": int64(id)}).Limit(1).ToSql()
	if err != nil {
		return models.Booking{}, fmt.Errorf("build booking query: %w", err)
	}
	b, err := scanBooking(r.q().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking", Err: err}
	}
	return b, err
}

func (r BookingRepository) ListByUser(ctx context.Context, userID domain.ID) ([]models.Booking, error) {
	return r.list(ctx, sq.Eq{"b.user_id": int64(userID)})
}

func (r BookingRepository) ListByGuide(ctx context.Context, guideID domain.ID) ([]models.Booking, error) {
	return r.list(ctx, sq.Eq{"b.guide_id": int64(guideID)})
}

func (r BookingRepository) list(ctx context.Context, where sq.Eq) ([]models.Booking, error) {
	query, args, err := bookingSelect().Where(where).OrderBy("b.booking_date DESC", "b.id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build booking list: %w", err)
	}
	rows, err := r.q().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// LockState reads the booking row with FOR UPDATE; use inside a transaction.
func (r BookingRepository) LockState(ctx context.Context, id domain.ID) (BookingState, error) {
	var (
		s      BookingState
		status string
	)
	err := r.q().QueryRowContext(ctx, `
		SELECT id, user_id, guide_id, status, is_rated
		FROM bookings
		WHERE id = ?
		FOR UPDATE
	`, int64(id)).Scan(&s.ID, &s.UserID, &s.GuideID, &status, &s.IsRated)
	if errors.Is(err, sql.ErrNoRows) {
		return BookingState{}, domain.NotFoundError{Resource: "booking", Err: err}
	}
	if err != nil {
		return BookingState{}, err
	}
	s.Status = models.BookingStatus(status)
	return s, nil
}

func (r BookingRepository) UpdateStatus(ctx context.Context, id domain.ID, status models.BookingStatus) error {
	_, err := r.q().ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, string(status), int64(id))
	return err
}

// MarkRated records the traveler's rating and optional review.
func (r BookingRepository) MarkRated(ctx context.Context, id domain.ID, rating float64, review string) error {
	_, err := r.q().ExecContext(ctx, `
		UPDATE bookings SET is_rated = TRUE, user_rating = ?, user_review = ? WHERE id = ?
	`, rating, intdb.NullIfEmpty(review), int64(id))
	return err
}
