package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pothikbondhu/internal/domain"
	"pothikbondhu/internal/domain/models"
	"pothikbondhu/internal/repositories"
	"pothikbondhu/internal/trip"
	"pothikbondhu/internal/utils"
)

type GuideService struct {
	Users     repositories.UserRepository
	Locations trip.Resolver
	Now       func() time.Time
	RequestID string
}

func (s GuideService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

// ExperienceLabel renders whole years since start as "<n> Years", or "New".
func ExperienceLabel(start *time.Time, now time.Time) string {
	if start == nil {
		return "New"
	}
	years := utils.WholeYearsBetween(*start, now)
	if years <= 0 {
		return "New"
	}
	return fmt.Sprintf("%d Years", years)
}

func (s GuideService) toGuide(u models.User) models.Guide {
	langs := u.Languages
	if langs == nil {
		langs = []string{}
	}
	return models.Guide{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		Photo:       u.Photo,
		Location:    u.CurrentLocation,
		District:    u.HomeDistrict,
		Rating:      u.Rating,
		RatingCount: u.RatingCount,
		Experience:  ExperienceLabel(u.ExperienceStartDate, s.now()),
		Languages:   langs,
		IsAvailable: u.IsAvailable,
	}
}

func (s GuideService) list(ctx context.Context, f repositories.GuideFilter) ([]models.Guide, error) {
	users, err := s.Users.ListGuides(ctx, f)
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to fetch guides", Err: err}
	}
	out := make([]models.Guide, 0, len(users))
	for _, u := range users {
		out = append(out, s.toGuide(u))
	}
	return out, nil
}

func (s GuideService) ListAll(ctx context.Context) ([]models.Guide, error) {
	return s.list(ctx, repositories.GuideFilter{})
}

// ListAvailable returns available guides, optionally only those currently at location.
func (s GuideService) ListAvailable(ctx context.Context, location string) ([]models.Guide, error) {
	return s.list(ctx, repositories.GuideFilter{
		Location:      s.canonicalOrRaw(location),
		AvailableOnly: true,
	})
}

// GroupByLocation buckets every guide under its current location.
func (s GuideService) GroupByLocation(ctx context.Context) (map[string][]models.Guide, error) {
	guides, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]models.Guide)
	for _, g := range guides {
		key := g.Location
		if key == "" {
			key = g.District
		}
		grouped[key] = append(grouped[key], g)
	}
	return grouped, nil
}

func (s GuideService) Get(ctx context.Context, id domain.ID) (models.Guide, error) {
	u, err := s.guideUser(ctx, id)
	if err != nil {
		return models.Guide{}, err
	}
	return s.toGuide(u), nil
}

func (s GuideService) guideUser(ctx context.Context, id domain.ID) (models.User, error) {
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return models.User{}, domain.NotFoundError{Resource: "guide", Err: err}
		}
		return models.User{}, domain.InternalError{Msg: "failed to fetch guide", Err: err}
	}
	if u.Role != domain.RoleGuide {
		return models.User{}, domain.NotFoundError{Resource: "guide"}
	}
	return u, nil
}

func (s GuideService) requireGuide(actor domain.Actor) error {
	if actor.Role != domain.RoleGuide {
		return domain.ForbiddenError{Msg: "only guides can change guide status"}
	}
	return nil
}

// UpdateLocation moves the calling guide to a known gazetteer location.
func (s GuideService) UpdateLocation(ctx context.Context, actor domain.Actor, location string) (models.Guide, error) {
	if err := s.requireGuide(actor); err != nil {
		return models.Guide{}, err
	}
	if s.Locations == nil {
		return models.Guide{}, domain.InternalError{Msg: "locator not configured"}
	}
	loc, ok := s.Locations.Resolve(location)
	if !ok {
		return models.Guide{}, domain.ValidationError{Field: "location", Msg: "location is not a known district"}
	}

	u, err := s.guideUser(ctx, actor.UserID)
	if err != nil {
		return models.Guide{}, err
	}
	if err := s.Users.UpdateLocation(ctx, u.ID, loc.Name); err != nil {
		return models.Guide{}, domain.InternalError{Msg: "failed to update location", Err: err}
	}
	u.CurrentLocation = loc.Name
	utils.LogEvent(s.RequestID, "guides", "update_location", "guide moved to "+loc.Name)
	return s.toGuide(u), nil
}

func (s GuideService) SetAvailability(ctx context.Context, actor domain.Actor, available bool) (models.Guide, error) {
	if err := s.requireGuide(actor); err != nil {
		return models.Guide{}, err
	}
	u, err := s.guideUser(ctx, actor.UserID)
	if err != nil {
		return models.Guide{}, err
	}
	if err := s.Users.SetAvailability(ctx, u.ID, available); err != nil {
		return models.Guide{}, domain.InternalError{Msg: "failed to update availability", Err: err}
	}
	u.IsAvailable = available
	utils.LogEvent(s.RequestID, "guides", "set_availability", fmt.Sprintf("available=%t", available))
	return s.toGuide(u), nil
}

func (s GuideService) canonicalOrRaw(text string) string {
	text = strings.TrimSpace(text)
	if text == "" || s.Locations == nil {
		return text
	}
	if loc, ok := s.Locations.Resolve(text); ok {
		return loc.Name
	}
	return text
}
