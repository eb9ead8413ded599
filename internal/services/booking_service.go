package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	intconfig "pothikbondhu/internal/config"
	"pothikbondhu/internal/domain"
	"pothikbondhu/internal/domain/models"
	"pothikbondhu/internal/events"
	"pothikbondhu/internal/metrics"
	"pothikbondhu/internal/repositories"
	"pothikbondhu/internal/trip"
	"pothikbondhu/internal/utils"
)

const (
	ActionCreate   = "create"
	ActionAccept   = "accept"
	ActionReject   = "reject"
	ActionCancel   = "cancel"
	ActionComplete = "complete"
	ActionRate     = "rate"
)

// ErrSelfBooking is returned before any write when a user books themselves.
var ErrSelfBooking = domain.ValidationError{Field: "guideId", Msg: "you cannot book yourself as a guide"}

type CreateBookingInput struct {
	UserID    domain.ID `json:"userId,string"`
	GuideID   domain.ID `json:"guideId,string"`
	TripStart string    `json:"tripStart"`
	TripEnd   string    `json:"tripEnd"`
}

type RateInput struct {
	Rating float64 `json:"rating"`
	Review string  `json:"review"`
}

// RatingOutcome is the guide aggregate after a rating was applied.
type RatingOutcome struct {
	BookingID   domain.ID `json:"bookingId,string"`
	GuideID     domain.ID `json:"guideId,string"`
	Rating      float64   `json:"rating"`
	RatingCount int       `json:"ratingCount"`
}

type BookingService struct {
	Bookings  repositories.BookingRepository
	Users     repositories.UserRepository
	Locations trip.Resolver
	Events    events.Publisher
	Metrics   *metrics.Metrics
	DB        *sql.DB
	RequestID string
}

func (s BookingService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s BookingService) publisher() events.Publisher {
	if s.Events != nil {
		return s.Events
	}
	return events.Nop{}
}

// transitionRule describes one edge set of the booking state machine.
type transitionRule struct {
	from   []models.BookingStatus
	to     models.BookingStatus
	permit func(actor domain.Actor, st repositories.BookingState) bool
	// guideAvailable gives the guide availability to write, given the prior status.
	guideAvailable func(prior models.BookingStatus) *bool
}

func isGuideOf(actor domain.Actor, st repositories.BookingState) bool {
	return actor.UserID == st.GuideID
}

func isTravelerOf(actor domain.Actor, st repositories.BookingState) bool {
	return actor.UserID == st.UserID
}

func isPartyOf(actor domain.Actor, st repositories.BookingState) bool {
	return isGuideOf(actor, st) || isTravelerOf(actor, st)
}

func availability(v bool) func(models.BookingStatus) *bool {
	return func(models.BookingStatus) *bool { return &v }
}

var transitions = map[string]transitionRule{
	ActionAccept: {
		from:           []models.BookingStatus{models.StatusPending},
		to:             models.StatusActive,
		permit:         isGuideOf,
		guideAvailable: availability(false),
	},
	ActionReject: {
		from:   []models.BookingStatus{models.StatusPending},
		to:     models.StatusRejected,
		permit: isGuideOf,
	},
	ActionCancel: {
		from:   []models.BookingStatus{models.StatusPending, models.StatusActive},
		to:     models.StatusCancelled,
		permit: isPartyOf,
		guideAvailable: func(prior models.BookingStatus) *bool {
			if prior != models.StatusActive {
				return nil
			}
			v := true
			return &v
		},
	},
	ActionComplete: {
		from:           []models.BookingStatus{models.StatusActive},
		to:             models.StatusCompleted,
		permit:         isPartyOf,
		guideAvailable: availability(true),
	},
}

func (r transitionRule) allowedFrom(s models.BookingStatus) bool {
	for _, f := range r.from {
		if f == s {
			return true
		}
	}
	return false
}

// Create inserts a pending booking for the calling traveler.
func (s BookingService) Create(ctx context.Context, actor domain.Actor, in CreateBookingInput) (models.Booking, error) {
	if in.UserID == 0 {
		in.UserID = actor.UserID
	}
	if in.GuideID == in.UserID || in.GuideID == actor.UserID {
		return models.Booking{}, ErrSelfBooking
	}
	if in.UserID != actor.UserID {
		return models.Booking{}, domain.ForbiddenError{Msg: "cannot book on behalf of another user"}
	}
	if actor.Role != domain.RoleTraveler {
		return models.Booking{}, domain.ForbiddenError{Msg: "only travelers can book guides"}
	}
	if in.GuideID <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "guideId", Msg: "guideId is required"}
	}
	start, end := s.canonicalOrRaw(in.TripStart), s.canonicalOrRaw(in.TripEnd)
	if start == "" || end == "" {
		return models.Booking{}, domain.ValidationError{Field: "trip", Msg: "tripStart and tripEnd are required"}
	}

	guide, err := s.Users.GetByID(ctx, in.GuideID)
	if err != nil {
		if domain.IsNotFound(err) {
			return models.Booking{}, domain.NotFoundError{Resource: "guide", Err: err}
		}
		return models.Booking{}, domain.InternalError{Msg: "booking failed", Err: err}
	}
	if guide.Role != domain.RoleGuide {
		return models.Booking{}, domain.NotFoundError{Resource: "guide"}
	}

	id, err := s.Bookings.Insert(ctx, models.NewBooking{
		UserID:    in.UserID,
		GuideID:   in.GuideID,
		TripStart: start,
		TripEnd:   end,
	})
	s.Metrics.Transition(ActionCreate, err)
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "booking failed", Err: err}
	}

	b, err := s.Bookings.Get(ctx, id)
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "booking created but could not be read back", Err: err}
	}
	utils.LogEvent(s.RequestID, "bookings", ActionCreate, fmt.Sprintf("booking_id=%d guide_id=%d", id, in.GuideID))
	s.publish(ctx, ActionCreate, repositories.BookingState{ID: id, UserID: in.UserID, GuideID: in.GuideID}, models.StatusPending)
	return b, nil
}

func (s BookingService) Accept(ctx context.Context, actor domain.Actor, id domain.ID) (models.Booking, error) {
	return s.transition(ctx, actor, id, ActionAccept)
}

func (s BookingService) Reject(ctx context.Context, actor domain.Actor, id domain.ID) (models.Booking, error) {
	return s.transition(ctx, actor, id, ActionReject)
}

func (s BookingService) Cancel(ctx context.Context, actor domain.Actor, id domain.ID) (models.Booking, error) {
	return s.transition(ctx, actor, id, ActionCancel)
}

func (s BookingService) Complete(ctx context.Context, actor domain.Actor, id domain.ID) (models.Booking, error) {
	return s.transition(ctx, actor, id, ActionComplete)
}

// Transition applies the named action; it is the entry point for the HTTP layer.
func (s BookingService) Transition(ctx context.Context, actor domain.Actor, id domain.ID, action string) (models.Booking, error) {
	if _, ok := transitions[action]; !ok {
		return models.Booking{}, domain.ValidationError{Field: "action", Msg: fmt.Sprintf("unknown booking action %q", action)}
	}
	return s.transition(ctx, actor, id, action)
}

func (s BookingService) transition(ctx context.Context, actor domain.Actor, id domain.ID, action string) (out models.Booking, err error) {
	rule := transitions[action]
	defer func() { s.Metrics.Transition(action, err) }()

	tx, err := s.db().BeginTx(ctx, nil)
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "failed to start transaction", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	st, err := s.Bookings.WithTx(tx).LockState(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return models.Booking{}, err
		}
		return models.Booking{}, domain.InternalError{Msg: "failed to load booking", Err: err}
	}
	if !rule.permit(actor, st) {
		return models.Booking{}, domain.ForbiddenError{Msg: fmt.Sprintf("you cannot %s this booking", action)}
	}
	if !rule.allowedFrom(st.Status) {
		return models.Booking{}, domain.InvalidTransitionError{Action: action, From: string(st.Status)}
	}

	if err := s.Bookings.WithTx(tx).UpdateStatus(ctx, id, rule.to); err != nil {
		return models.Booking{}, domain.InternalError{Msg: "failed to update booking", Err: err}
	}
	if rule.guideAvailable != nil {
		if v := rule.guideAvailable(st.Status); v != nil {
			if err := s.Users.WithTx(tx).SetAvailability(ctx, st.GuideID, *v); err != nil {
				return models.Booking{}, domain.InternalError{Msg: "failed to update guide availability", Err: err}
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return models.Booking{}, domain.InternalError{Msg: "failed to commit transition", Err: err}
	}

	utils.LogEvent(s.RequestID, "bookings", action,
		fmt.Sprintf("booking_id=%d %s->%s", id, st.Status, rule.to))
	s.publish(ctx, action, st, rule.to)

	out, err = s.Bookings.Get(ctx, id)
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "transition applied but booking could not be read back", Err: err}
	}
	return out, nil
}

// Rate records the traveler's rating and folds it into the guide aggregate in one transaction.
func (s BookingService) Rate(ctx context.Context, actor domain.Actor, id domain.ID, in RateInput) (out RatingOutcome, err error) {
	defer func() { s.Metrics.Transition(ActionRate, err) }()

	if math.IsNaN(in.Rating) || math.IsInf(in.Rating, 0) {
		return RatingOutcome{}, domain.ValidationError{Field: "rating", Msg: "rating must be a number"}
	}
	review := strings.TrimSpace(in.Review)

	tx, err := s.db().BeginTx(ctx, nil)
	if err != nil {
		return RatingOutcome{}, domain.InternalError{Msg: "failed to start transaction", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	st, err := s.Bookings.WithTx(tx).LockState(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return RatingOutcome{}, err
		}
		return RatingOutcome{}, domain.InternalError{Msg: "failed to load booking", Err: err}
	}
	if !isTravelerOf(actor, st) {
		return RatingOutcome{}, domain.ForbiddenError{Msg: "only the traveler can rate this booking"}
	}
	if st.IsRated {
		return RatingOutcome{}, domain.AlreadyRatedError{BookingID: id}
	}
	if st.Status != models.StatusCompleted {
		return RatingOutcome{}, domain.InvalidTransitionError{Action: ActionRate, From: string(st.Status)}
	}

	guide, err := s.Users.WithTx(tx).LockByID(ctx, st.GuideID)
	if err != nil {
		return RatingOutcome{}, domain.InternalError{Msg: "failed to load guide", Err: err}
	}
	rating, count := NextRating(guide.Rating, guide.RatingCount, in.Rating)

	if err := s.Bookings.WithTx(tx).MarkRated(ctx, id, in.Rating, review); err != nil {
		return RatingOutcome{}, domain.InternalError{Msg: "failed to record rating", Err: err}
	}
	if err := s.Users.WithTx(tx).UpdateRating(ctx, st.GuideID, rating, count); err != nil {
		return RatingOutcome{}, domain.InternalError{Msg: "failed to update guide rating", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return RatingOutcome{}, domain.InternalError{Msg: "failed to commit rating", Err: err}
	}

	utils.LogEvent(s.RequestID, "bookings", ActionRate,
		fmt.Sprintf("booking_id=%d guide_id=%d rating=%.1f count=%d", id, st.GuideID, rating, count))
	s.publish(ctx, ActionRate, st, st.Status)
	return RatingOutcome{BookingID: id, GuideID: st.GuideID, Rating: rating, RatingCount: count}, nil
}

func (s BookingService) ListForUser(ctx context.Context, actor domain.Actor, userID domain.ID) ([]models.Booking, error) {
	if actor.UserID != userID {
		return nil, domain.ForbiddenError{Msg: "cannot list another user's bookings"}
	}
	out, err := s.Bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to fetch bookings", Err: err}
	}
	return out, nil
}

func (s BookingService) ListForGuide(ctx context.Context, actor domain.Actor, guideID domain.ID) ([]models.Booking, error) {
	if actor.UserID != guideID {
		return nil, domain.ForbiddenError{Msg: "cannot list another guide's jobs"}
	}
	out, err := s.Bookings.ListByGuide(ctx, guideID)
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to fetch jobs", Err: err}
	}
	return out, nil
}

// Get returns a booking visible to either party.
func (s BookingService) Get(ctx context.Context, actor domain.Actor, id domain.ID) (models.Booking, error) {
	b, err := s.Bookings.Get(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return models.Booking{}, err
		}
		return models.Booking{}, domain.InternalError{Msg: "failed to fetch booking", Err: err}
	}
	if actor.UserID != b.UserID && actor.UserID != b.GuideID {
		return models.Booking{}, domain.ForbiddenError{Msg: "not a party to this booking"}
	}
	return b, nil
}

func (s BookingService) publish(ctx context.Context, action string, st repositories.BookingState, status models.BookingStatus) {
	e := events.BookingEvent{
		Type:       action,
		BookingID:  st.ID,
		UserID:     st.UserID,
		GuideID:    st.GuideID,
		Status:     status,
		OccurredAt: utils.NowUTC(),
	}
	if err := s.publisher().Publish(ctx, e); err != nil {
		utils.LogWarn(s.RequestID, "bookings", "publish_event", err, zap.String("routing_key", e.RoutingKey()))
	}
}

func (s BookingService) canonicalOrRaw(text string) string {
	text = utils.NormalizeSpace(text)
	if text == "" || s.Locations == nil {
		return text
	}
	if loc, ok := s.Locations.Resolve(text); ok {
		return loc.Name
	}
	return text
}
