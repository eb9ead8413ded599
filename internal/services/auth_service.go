package services

import (
	"context"
	"errors"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"pothikbondhu/internal/domain"
	"pothikbondhu/internal/domain/models"
	"pothikbondhu/internal/repositories"
	"pothikbondhu/internal/trip"
	"pothikbondhu/internal/utils"
)

const minPasswordLen = 6

var errInvalidCredentials = domain.UnauthorizedError{Msg: "invalid credentials"}

// RegisterInput is the wire form of a registration body.
type RegisterInput struct {
	Name                string   `json:"name"`
	Email               string   `json:"email"`
	Password            string   `json:"password"`
	Role                string   `json:"role"`
	Phone               string   `json:"phone"`
	District            string   `json:"district"`
	Location            string   `json:"location"`
	ExperienceStartDate string   `json:"experienceStartDate"`
	Languages           []string `json:"languages"`
}

// Registration is either a TravelerRegistration or a GuideRegistration.
type Registration interface {
	account() Account
}

// Account holds the fields every role registers with.
type Account struct {
	Name     string
	Email    string
	Password string
}

type TravelerRegistration struct {
	Account
}

func (r TravelerRegistration) account() Account { return r.Account }

type GuideRegistration struct {
	Account
	Phone           string
	District        string
	Location        string
	ExperienceStart *time.Time
	Languages       []string
}

func (r GuideRegistration) account() Account { return r.Account }

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned by both register and login.
type AuthResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

type AuthService struct {
	Users     repositories.UserRepository
	Locations trip.Resolver
	Tokens    TokenIssuer
	RequestID string
}

// ParseRegistration validates in against the schema of its role.
func (s AuthService) ParseRegistration(in RegisterInput) (Registration, error) {
	acc := Account{
		Name:     utils.NormalizeSpace(in.Name),
		Email:    utils.NormalizeEmail(in.Email),
		Password: in.Password,
	}
	if acc.Name == "" {
		return nil, domain.ValidationError{Field: "name", Msg: "name is required"}
	}
	if acc.Email == "" {
		return nil, domain.ValidationError{Field: "email", Msg: "email is required"}
	}
	if _, err := mail.ParseAddress(acc.Email); err != nil {
		return nil, domain.ValidationError{Field: "email", Msg: "email is not valid", Err: err}
	}
	if len(acc.Password) < minPasswordLen {
		return nil, domain.ValidationError{Field: "password", Msg: "password must be at least 6 characters"}
	}

	switch domain.Role(strings.ToLower(strings.TrimSpace(in.Role))) {
	case domain.RoleTraveler, "":
		return TravelerRegistration{Account: acc}, nil
	case domain.RoleGuide:
	default:
		return nil, domain.ValidationError{Field: "role", Msg: "role must be traveler or guide"}
	}

	g := GuideRegistration{
		Account:   acc,
		Phone:     utils.TrimOrEmpty(in.Phone),
		Languages: utils.CleanList(in.Languages),
	}
	if g.Phone == "" {
		return nil, domain.ValidationError{Field: "phone", Msg: "phone is required for guides"}
	}

	district, ok := s.canonical(in.District)
	if !ok {
		return nil, domain.ValidationError{Field: "district", Msg: "district is not a known location"}
	}
	g.District = district
	g.Location = district
	if strings.TrimSpace(in.Location) != "" {
		loc, ok := s.canonical(in.Location)
		if !ok {
			return nil, domain.ValidationError{Field: "location", Msg: "location is not a known location"}
		}
		g.Location = loc
	}

	if raw := strings.TrimSpace(in.ExperienceStartDate); raw != "" {
		start, err := utils.ParseDate(raw)
		if err != nil {
			return nil, domain.ValidationError{Field: "experienceStartDate", Msg: "use YYYY-MM-DD", Err: err}
		}
		if start.After(utils.NowUTC()) {
			return nil, domain.ValidationError{Field: "experienceStartDate", Msg: "date is in the future"}
		}
		g.ExperienceStart = &start
	}
	return g, nil
}

func (s AuthService) canonical(text string) (string, bool) {
	if s.Locations == nil || strings.TrimSpace(text) == "" {
		return "", false
	}
	loc, ok := s.Locations.Resolve(text)
	if !ok {
		return "", false
	}
	return loc.Name, true
}

func (s AuthService) Register(ctx context.Context, reg Registration) (AuthResult, error) {
	acc := reg.account()
	hash, err := bcrypt.GenerateFromPassword([]byte(acc.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResult{}, domain.InternalError{Msg: "failed to hash password", Err: err}
	}

	u := models.User{
		Name:         acc.Name,
		Email:        acc.Email,
		PasswordHash: string(hash),
		Role:         domain.RoleTraveler,
		Photo:        avatarURL(acc.Name),
		Languages:    []string{},
		IsAvailable:  true,
		Rating:       models.DefaultRating,
		RatingCount:  models.DefaultRatingCount,
	}
	if g, ok := reg.(GuideRegistration); ok {
		u.Role = domain.RoleGuide
		u.Phone = g.Phone
		u.HomeDistrict = g.District
		u.CurrentLocation = g.Location
		u.ExperienceStartDate = g.ExperienceStart
		u.Languages = g.Languages
	}

	created, err := s.Users.Create(ctx, u)
	if err != nil {
		if domain.IsConflict(err) {
			return AuthResult{}, err
		}
		return AuthResult{}, domain.InternalError{Msg: "registration failed", Err: err}
	}
	utils.LogEvent(s.RequestID, "auth", "register", "user registered")
	return s.result(created)
}

func (s AuthService) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	email := utils.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return AuthResult{}, errInvalidCredentials
	}

	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsNotFound(err) {
			return AuthResult{}, errInvalidCredentials
		}
		return AuthResult{}, domain.InternalError{Msg: "login failed", Err: err}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			utils.LogWarn(s.RequestID, "auth", "login", err)
		}
		return AuthResult{}, errInvalidCredentials
	}
	utils.LogEvent(s.RequestID, "auth", "login", "user logged in")
	return s.result(u)
}

func (s AuthService) result(u models.User) (AuthResult, error) {
	token, err := s.Tokens.Issue(u)
	if err != nil {
		return AuthResult{}, domain.InternalError{Msg: "failed to issue token", Err: err}
	}
	return AuthResult{Token: token, User: u.ToPublic()}, nil
}

func avatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + strings.ReplaceAll(url.QueryEscape(name), "+", "%20") +
		"&background=random&size=128"
}
