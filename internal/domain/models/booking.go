package models

import (
	"time"

	"pothikbondhu/internal/domain"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusActive    BookingStatus = "active"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
	StatusRejected  BookingStatus = "rejected"
)

// Terminal reports whether no transition leaves the status.
func (s BookingStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}

// Booking mirrors a bookings row plus guide display fields from the users join.
type Booking struct {
	ID           domain.ID     `json:"id,string"`
	UserID       domain.ID     `json:"userId,string"`
	GuideID      domain.ID     `json:"guideId,string"`
	GuideName    string        `json:"guideName"`
	GuidePhoto   string        `json:"guidePhoto"`
	GuidePhone   string        `json:"guidePhone"`
	GuideEmail   string        `json:"guideEmail"`
	TravelerName string        `json:"travelerName,omitempty"`
	TripStart    string        `json:"tripStart"`
	TripEnd      string        `json:"tripEnd"`
	BookingDate  time.Time     `json:"bookingDate"`
	Status       BookingStatus `json:"status"`
	IsRated      bool          `json:"isRated"`
	UserRating   *float64      `json:"userRating,omitempty"`
	UserReview   *string       `json:"userReview,omitempty"`
}

// NewBooking carries the validated fields for an insert.
type NewBooking struct {
	UserID    domain.ID
	GuideID   domain.ID
	TripStart string
	TripEnd   string
}
