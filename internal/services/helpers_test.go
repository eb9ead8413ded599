package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"pothikbondhu/internal/events"
	"pothikbondhu/internal/gazetteer"
	"pothikbondhu/internal/locator"
)

var (
	testLocatorOnce sync.Once
	testLocator     *locator.Locator
)

func districts(t *testing.T) *locator.Locator {
	t.Helper()
	testLocatorOnce.Do(func() {
		testLocator = locator.New(gazetteer.MustLoad())
	})
	return testLocator
}

var userColumns = []string{
	"id", "name", "email", "password", "role", "photo", "phone", "district", "location",
	"experience_start_date", "languages", "is_available", "rating", "rating_count", "created_at",
}

var bookingColumns = []string{
	"id", "user_id", "guide_id", "trip_start", "trip_end", "booking_date", "status",
	"is_rated", "user_rating", "user_review", "guide_name", "guide_photo", "guide_phone", "guide_email",
	"traveler_name",
}

var stateColumns = []string{"id", "user_id", "guide_id", "status", "is_rated"}

func guideRows(id int64, location string, available bool, rating float64, count int) *sqlmock.Rows {
	start := time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(userColumns).AddRow(
		id, "Karim", "karim@mail.test", "hash", "guide", "photo", "01700000000", "Sylhet", location,
		start, `["Bengali","English"]`, available, rating, count, time.Now(),
	)
}

func travelerRows(id int64) *sqlmock.Rows {
	return sqlmock.NewRows(userColumns).AddRow(
		id, "Rahim", "rahim@mail.test", "hash", "traveler", "photo", "", "", "",
		nil, nil, true, 5.0, 0, time.Now(),
	)
}

func bookingRows(id, userID, guideID int64, start, end, status string) *sqlmock.Rows {
	return sqlmock.NewRows(bookingColumns).AddRow(
		id, userID, guideID, start, end, time.Now(), status, false, nil, nil,
		"Karim", "photo", "01700000000", "karim@mail.test", "Rahim",
	)
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
