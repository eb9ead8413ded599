package models

import (
	"time"

	"pothikbondhu/internal/domain"
)

const (
	DefaultRating      = 5.0
	DefaultRatingCount = 0
)

// User mirrors a users row. Guide-only fields are zero for travelers.
type User struct {
	ID                  domain.ID
	Name                string
	Email               string
	PasswordHash        string
	Role                domain.Role
	Photo               string
	Phone               string
	HomeDistrict        string
	CurrentLocation     string
	ExperienceStartDate *time.Time
	Languages           []string
	IsAvailable         bool
	Rating              float64
	RatingCount         int
	CreatedAt           time.Time
}

// PublicUser is the user payload sent to clients; it never carries the password hash.
type PublicUser struct {
	ID                  domain.ID   `json:"id,string"`
	Name                string      `json:"name"`
	Email               string      `json:"email"`
	Role                domain.Role `json:"role"`
	Photo               string      `json:"photo,omitempty"`
	Phone               string      `json:"phone,omitempty"`
	District            string      `json:"district,omitempty"`
	CurrentLocation     string      `json:"currentLocation,omitempty"`
	ExperienceStartDate string      `json:"experienceStartDate,omitempty"`
	Languages           []string    `json:"languages,omitempty"`
	IsAvailable         *bool       `json:"isAvailable,omitempty"`
	Rating              *float64    `json:"rating,omitempty"`
	RatingCount         *int        `json:"ratingCount,omitempty"`
}

func (u *User) ToPublic() PublicUser {
	out := PublicUser{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
		Photo: u.Photo,
	}
	if u.Role != domain.RoleGuide {
		return out
	}
	available, rating, count := u.IsAvailable, u.Rating, u.RatingCount
	out.Phone = u.Phone
	out.District = u.HomeDistrict
	out.CurrentLocation = u.CurrentLocation
	if u.ExperienceStartDate != nil {
		out.ExperienceStartDate = u.ExperienceStartDate.Format("2006-01-02")
	}
	out.Languages = u.Languages
	out.IsAvailable = &available
	out.Rating = &rating
	out.RatingCount = &count
	return out
}

// Guide is the directory projection of a guide account.
type Guide struct {
	ID          domain.ID `json:"id,string"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Photo       string    `json:"photo"`
	Location    string    `json:"location"`
	District    string    `json:"district"`
	Rating      float64   `json:"rating"`
	RatingCount int       `json:"ratingCount"`
	Experience  string    `json:"experience"`
	Languages   []string  `json:"languages"`
	IsAvailable bool      `json:"isAvailable"`
}
