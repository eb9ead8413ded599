package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pothikbondhu/internal/domain"
	"pothikbondhu/internal/domain/models"
	"pothikbondhu/internal/repositories"
)

var (
	traveler = domain.Actor{UserID: 1, Role: domain.RoleTraveler}
	guide    = domain.Actor{UserID: 3, Role: domain.RoleGuide}
	stranger = domain.Actor{UserID: 9, Role: domain.RoleTraveler}
)

func bookingSvc(t *testing.T, db *sql.DB, pub *recordingPublisher) BookingService {
	return BookingService{
		Bookings:  repositories.BookingRepository{DB: db},
		Users:     repositories.UserRepository{DB: db},
		Locations: districts(t),
		Events:    pub,
		DB:        db,
	}
}

func expectLock(mock sqlmock.Sqlmock, id int64, status string, rated bool) {
	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings\\s+WHERE id = \\?\\s+FOR UPDATE").WithArgs(id).
		WillReturnRows(sqlmock.NewRows(stateColumns).AddRow(id, 1, 3, status, rated))
}

func TestCreateRejectsSelfBookingBeforeSQL(t *testing.T) {
	db, mock := newMock(t)
	svc := bookingSvc(t, db, &recordingPublisher{})

	self := domain.Actor{UserID: 3, Role: domain.RoleTraveler}
	_, err := svc.Create(context.Background(), self, CreateBookingInput{
		UserID: 3, GuideID: 3, TripStart: "Dhaka", TripEnd: "Sylhet",
	})
	require.Error(t, err)
	assert.Equal(t, ErrSelfBooking, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCanonicalisesTripAndReturnsGuideFields(t *testing.T) {
	db, mock := newMock(t)
	pub := &recordingPublisher{}
	svc := bookingSvc(t, db, pub)

	mock.ExpectQuery("FROM users WHERE id = \\?").WithArgs(int64(3)).
		WillReturnRows(guideRows(3, "Sylhet", true, 5.0, 0))
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(int64(1), int64(3), "Dhaka", "Cox's Bazar", "pending").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("FROM bookings b LEFT JOIN users g").WithArgs(int64(11)).
		WillReturnRows(bookingRows(11, 1, 3, "Dhaka", "Cox's Bazar", "pending"))

	b, err := svc.Create(context.Background(), traveler, CreateBookingInput{
		GuideID: 3, TripStart: " dhaka ", TripEnd: "Cox Bazar",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, b.Status)
	assert.Equal(t, "Karim", b.GuideName)
	assert.Equal(t, "karim@mail.test", b.GuideEmail)
	assert.Equal(t, []string{ActionCreate}, pub.types())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateKeepsUnknownTripText(t *testing.T) {
	db, mock := newMock(t)
	svc := bookingSvc(t, db, &recordingPublisher{})

	mock.ExpectQuery("FROM users WHERE id = \\?").WithArgs(int64(3)).
		WillReturnRows(guideRows(3, "Sylhet", true, 5.0, 0))
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(int64(1), int64(3), "Dhaka", "Ratargul Swamp Forest", "pending").
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectQuery("FROM bookings b LEFT JOIN users g").WithArgs(int64(12)).
		WillReturnRows(bookingRows(12, 1, 3, "Dhaka", "Ratargul Swamp Forest", "pending"))

	_, err := svc.Create(context.Background(), traveler, CreateBookingInput{
		GuideID: 3, TripStart: "Dhaka", TripEnd: "  Ratargul   Swamp Forest ",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsNonGuideTarget(t *testing.T) {
	db, mock := newMock(t)
	svc := bookingSvc(t, db, &recordingPublisher{})

	mock.ExpectQuery("FROM users WHERE id = \\?").WithArgs(int64(4)).
		WillReturnRows(travelerRows(4))

	_, err := svc.Create(context.Background(), traveler, CreateBookingInput{GuideID: 4, TripStart: "Dhaka", TripEnd: "Sylhet"})
	assert.True(t, domain.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRequiresTravelerActing(t *testing.T) {
	db, mock := newMock(t)
	svc := bookingSvc(t, db, &recordingPublisher{})

	_, err := svc.Create(context.Background(), traveler, CreateBookingInput{UserID: 2, GuideID: 3, TripStart: "Dhaka", TripEnd: "Sylhet"})
	assert.True(t, domain.IsForbidden(err))

	_, err = svc.Create(context.Background(), domain.Actor{UserID: 5, Role: domain.RoleGuide},
		CreateBookingInput{GuideID: 3, TripStart: "Dhaka", TripEnd: "Sylhet"})
	assert.True(t, domain.IsForbidden(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptMarksGuideUnavailable(t *testing.T) {
	db, mock := newMock(t)
	pub := &recordingPublisher{}
	svc := bookingSvc(t, db, pub)

	expectLock(mock, 5, "pending", false)
	mock.ExpectExec("UPDATE bookings SET status = \\?").WithArgs("active", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET is_available = \\?").WithArgs(false, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM bookings b LEFT JOIN users g").WithArgs(int64(5)).
		WillReturnRows(bookingRows(5, 1, 3, "Dhaka", "Sylhet", "active"))

	b, err := svc.Accept(context.Background(), guide, 5)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, b.Status)
	assert.Equal(t, []string{ActionAccept}, pub.types())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptAlreadyActiveIsInvalidTransition(t *testing.T) {
	db, mock := newMock(t)
	pub := &recordingPublisher{}
	svc := bookingSvc(t, db, pub)

	expectLock(mock, 5, "active", false)
	mock.ExpectRollback()

	_, err := svc.Accept(context.Background(), guide, 5)
	require.Error(t, err)
	assert.True(t, domain.IsInvalidTransition(err))
	assert.Equal(t, "cannot accept a booking that is active", err.Error())
	assert.Empty(t, pub.types())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteFromPendingIsInvalidTransition(t *testing.T) {
	db, mock := newMock(t)
	svc := bookingSvc(t, db, &recordingPublisher{})

	expectLock(mock, 5, "pending", false)
	mock.ExpectRollback()

	_, err := svc.Complete(context.Background(), traveler, 5)
	assert.True(t, domain.IsInvalidTransition(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptByTravelerIsForbidden(t *testing.T) {
	db, mock := newMock(t)
	svc := bookingSvc(t, db, &recordingPublisher{})

	expectLock(mock, 5, "pending", false)
	mock.ExpectRollback()

	_, err := svc.Accept(context.Background(), traveler, 5)
	assert.True(t, domain.IsForbidden(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionMissingBooking(t *testing.T) {
	db, mock := newMock(t)
	svc := bookingSvc(t, db, &recordingPublisher{})

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(int64(404)).WillReturnRows(sqlmock.NewRows(stateColumns))
	mock.ExpectRollback()

	_, err := svc.Reject(context.Background(), guide, 404)
	assert.True(t, domain.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelPendingLeavesGuideAlone(t *testing.T) {
	db, mock := newMock(t)
	svc := bookingSvc(t, db, &recordingPublisher{})

	expectLock(mock, 5, "pending", false)
	mock.ExpectExec("UPDATE bookings SET status = \\?").WithArgs("cancelled", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM bookings b LEFT JOIN users g").WithArgs(int64(5)).
		WillReturnRows(bookingRows(5, 1, 3, "Dhaka", "Sylhet", "cancelled"))

	_, err := svc.Cancel(context.Background(), traveler, 5)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelActiveFreesGuide(t *testing.T) {
	db, mock := newMock(t)
	svc := bookingSvc(t, db, &recordingPublisher{})

	expectLock(mock, 5, "active", false)
	mock.ExpectExec("UPDATE bookings SET status = \\?").WithArgs("cancelled", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET is_available = \\?").WithArgs(true, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM bookings b LEFT JOIN users g").WithArgs(int64(5)).
		WillReturnRows(bookingRows(5, 1, 3, "Dhaka", "Sylhet", "cancelled"))

	_, err := svc.Cancel(context.Background(), guide, 5)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteFreesGuide(t *testing.T) {
	db, mock := newMock(t)
	svc := bookingSvc(t, db, &recordingPublisher{})

	expectLock(mock, 5, "active", false)
	mock.ExpectExec("UPDATE bookings SET status = \\?").WithArgs("completed", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET is_available = \\?").WithArgs(true, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM bookings b LEFT JOIN users g").WithArgs(int64(5)).
		WillReturnRows(bookingRows(5, 1, 3, "Dhaka", "Sylhet", "completed"))

	b, err := svc.Complete(context.Background(), traveler, 5)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, b.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityFailureRollsBack(t *testing.T) {
	db, mock := newMock(t)
	pub := &recordingPublisher{}
	svc := bookingSvc(t, db, pub)

	expectLock(mock, 5, "pending", false)
	mock.ExpectExec("UPDATE bookings SET status = \\?").WithArgs("active", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET is_available = \\?").WithArgs(false, int64(3)).
		WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	_, err := svc.Accept(context.Background(), guide, 5)
	require.Error(t, err)
	assert.True(t, domain.IsInternal(err))
	assert.Empty(t, pub.types())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishFailureDoesNotFailTransition(t *testing.T) {
	db, mock := newMock(t)
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := bookingSvc(t, db, pub)

	expectLock(mock, 5, "pending", false)
	mock.ExpectExec("UPDATE bookings SET status = \\?").WithArgs("rejected", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM bookings b LEFT JOIN users g").WithArgs(int64(5)).
		WillReturnRows(bookingRows(5, 1, 3, "Dhaka", "Sylhet", "rejected"))

	_, err := svc.Reject(context.Background(), guide, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{ActionReject}, pub.types())
}

func TestTransitionUnknownAction(t *testing.T) {
	svc := BookingService{}
	_, err := svc.Transition(context.Background(), guide, 5, "teleport")
	assert.True(t, domain.IsValidation(err))
}

func expectRate(mock sqlmock.Sqlmock, bookingID int64, oldRating float64, oldCount int, value, newRating float64, newCount int) {
	expectLock(mock, bookingID, "completed", false)
	mock.ExpectQuery("FROM users WHERE id = \\? LIMIT 1 FOR UPDATE").WithArgs(int64(3)).
		WillReturnRows(guideRows(3, "Sylhet", true, oldRating, oldCount))
	mock.ExpectExec("UPDATE bookings SET is_rated = TRUE").WithArgs(value, nil, bookingID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET rating = \\?, rating_count = \\?").WithArgs(newRating, newCount, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
}

func TestRateScenario(t *testing.T) {
	db, mock := newMock(t)
	svc := bookingSvc(t, db, &recordingPublisher{})

	expectRate(mock, 5, 5.0, 0, 3, 3.0, 1)
	expectRate(mock, 6, 3.0, 1, 5, 4.0, 2)

	out, err := svc.Rate(context.Background(), traveler, 5, RateInput{Rating: 3})
	require.NoError(t, err)
	assert.Equal(t, 3.0, out.Rating)
	assert.Equal(t, 1, out.RatingCount)

	out, err = svc.Rate(context.Background(), traveler, 6, RateInput{Rating: 5, Review: "  "})
	require.NoError(t, err)
	assert.Equal(t, 4.0, out.Rating)
	assert.Equal(t, 2, out.RatingCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRateTwiceIsAlreadyRated(t *testing.T) {
	db, mock := newMock(t)
	svc := bookingSvc(t, db, &recordingPublisher{})

	expectLock(mock, 5, "completed", true)
	mock.ExpectRollback()

	_, err := svc.Rate(context.Background(), traveler, 5, RateInput{Rating: 4})
	assert.True(t, domain.IsAlreadyRated(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRateRequiresCompletedAndTraveler(t *testing.T) {
	db, mock := newMock(t)
	svc := bookingSvc(t, db, &recordingPublisher{})

	expectLock(mock, 5, "active", false)
	mock.ExpectRollback()
	_, err := svc.Rate(context.Background(), traveler, 5, RateInput{Rating: 4})
	assert.True(t, domain.IsInvalidTransition(err))

	expectLock(mock, 5, "completed", false)
	mock.ExpectRollback()
	_, err = svc.Rate(context.Background(), guide, 5, RateInput{Rating: 4})
	assert.True(t, domain.IsForbidden(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListForUserChecksActor(t *testing.T) {
	db, mock := newMock(t)
	svc := bookingSvc(t, db, &recordingPublisher{})

	_, err := svc.ListForUser(context.Background(), stranger, 1)
	assert.True(t, domain.IsForbidden(err))

	mock.ExpectQuery("WHERE b.user_id = \\? ORDER BY b.booking_date DESC").WithArgs(int64(1)).
		WillReturnRows(bookingRows(5, 1, 3, "Dhaka", "Sylhet", "pending"))
	list, err := svc.ListForUser(context.Background(), traveler, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHidesBookingFromStrangers(t *testing.T) {
	db, mock := newMock(t)
	svc := bookingSvc(t, db, &recordingPublisher{})

	mock.ExpectQuery("FROM bookings b LEFT JOIN users g").WithArgs(int64(5)).
		WillReturnRows(bookingRows(5, 1, 3, "Dhaka", "Sylhet", "active"))
	_, err := svc.Get(context.Background(), stranger, 5)
	assert.True(t, domain.IsForbidden(err))
}
