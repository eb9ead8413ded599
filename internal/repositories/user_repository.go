package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"

	intconfig "pothikbondhu/internal/config"
	intdb "pothikbondhu/internal/db"
	"pothikbondhu/internal/domain"
	"pothikbondhu/internal/domain/models"
)

const mysqlDuplicateKey = 1062

var userColumns = []string{
	"id", "name", "email", "password", "role",
	"COALESCE(photo, '')", "COALESCE(phone, '')",
	"COALESCE(district, '')", "COALESCE(location, '')",
	"experience_start_date", "languages",
	"is_available", "rating", "rating_count", "created_at",
}

// GuideFilter narrows ListGuides. Empty fields do not filter.
type GuideFilter struct {
	Location      string
	AvailableOnly bool
}

type UserRepository struct {
	DB *sql.DB
	Tx *sql.Tx
}

// WithTx returns a copy whose statements run inside tx.
func (r UserRepository) WithTx(tx *sql.Tx) UserRepository {
	r.Tx = tx
	return r
}

func (r UserRepository) q() intdb.Querier {
	if r.Tx != nil {
		return r.Tx
	}
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var (
		u         models.User
		role      string
		expStart  sql.NullTime
		languages sql.NullString
	)
	if err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role,
		&u.Photo, &u.Phone,
		&u.HomeDistrict, &u.CurrentLocation,
		&expStart, &languages,
		&u.IsAvailable, &u.Rating, &u.RatingCount, &u.CreatedAt,
	); err != nil {
		return models.User{}, err
	}
	u.Role = domain.Role(role)
	if expStart.Valid {
		t := expStart.Time
		u.ExperienceStartDate = &t
	}
	list, err := intdb.DecodeList(languages)
	if err != nil {
		return models.User{}, err
	}
	u.Languages = list
	return u, nil
}

// Create inserts u and returns it with its generated id.
func (r UserRepository) Create(ctx context.Context, u models.User) (models.User, error) {
	langs, err := intdb.EncodeList(u.Languages)
	if err != nil {
		return models.User{}, fmt.Errorf("encode languages: %w", err)
	}
	var expStart any
	if u.ExperienceStartDate != nil {
		expStart = u.ExperienceStartDate.Format("2006-01-02")
	}

	res, err := r.q().ExecContext(ctx, `
		INSERT INTO users
			(name, email, password, role, photo, phone, district, location,
			 experience_start_date, languages, is_available, rating, rating_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		u.Name, u.Email, u.PasswordHash, string(u.Role),
		intdb.NullIfEmpty(u.Photo), intdb.NullIfEmpty(u.Phone),
		intdb.NullIfEmpty(u.HomeDistrict), intdb.NullIfEmpty(u.CurrentLocation),
		expStart, langs, u.IsAvailable, u.Rating, u.RatingCount,
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateKey {
			return models.User{}, domain.ConflictError{Resource: "email", Msg: "email already exists", Err: err}
		}
		return models.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}
	u.ID = domain.ID(id)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return u, nil
}

func (r UserRepository) getOne(ctx context.Context, where string, arg any, suffix string) (models.User, error) {
	query := "SELECT " + strings.Join(userColumns, ", ") + " FROM users WHERE " + where + " LIMIT 1" + suffix
	u, err := scanUser(r.q().QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, domain.NotFoundError{Resource: "user", Err: err}
	}
	return u, err
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return r.getOne(ctx, "email = ?", email, "")
}

func (r UserRepository) GetByID(ctx context.Context, id domain.ID) (models.User, error) {
	return r.getOne(ctx, "id = ?", int64(id), "")
}

// LockByID reads the row with FOR UPDATE; only meaningful inside a transaction.
func (r UserRepository) LockByID(ctx context.Context, id domain.ID) (models.User, error) {
	return r.getOne(ctx, "id = ?", int64(id), " FOR UPDATE")
}

// ListGuides returns guide accounts, best rated first.
func (r UserRepository) ListGuides(ctx context.Context, f GuideFilter) ([]models.User, error) {
	b := sq.Select(userColumns...).
		From("users").
		Where(sq.Eq{"role": string(domain.RoleGuide)}).
		OrderBy("rating DESC", "id ASC")
	if loc := strings.TrimSpace(f.Location); loc != "" {
		b = b.Where(sq.Eq{"location": loc})
	}
	if f.AvailableOnly {
		b = b.Where(sq.Eq{"is_available": true})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build guide query: %w", err)
	}
	rows, err := r.q().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r UserRepository) UpdateLocation(ctx context.Context, id domain.ID, location string) error {
	_, err := r.q().ExecContext(ctx, `UPDATE users SET location = ? WHERE id = ?`, location, int64(id))
	return err
}

func (r UserRepository) SetAvailability(ctx context.Context, id domain.ID, available bool) error {
	_, err := r.q().ExecContext(ctx, `UPDATE users SET is_available = ? WHERE id = ?`, available, int64(id))
	return err
}

func (r UserRepository) UpdateRating(ctx context.Context, id domain.ID, rating float64, count int) error {
	_, err := r.q().ExecContext(ctx, `UPDATE users SET rating = ?, rating_count = ? WHERE id = ?`, rating, count, int64(id))
	return err
}
