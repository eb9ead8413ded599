package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"pothikbondhu/internal/domain"
	"pothikbondhu/internal/domain/models"
	"pothikbondhu/internal/utils"
)

// VoucherService renders a PDF booking confirmation for either party.
type VoucherService struct {
	Bookings  BookingService
	Loader    func(ctx context.Context, actor domain.Actor, id domain.ID) (models.Booking, error)
	Now       func() time.Time
	RequestID string
}

func (s VoucherService) load(ctx context.Context, actor domain.Actor, id domain.ID) (models.Booking, error) {
	if s.Loader != nil {
		return s.Loader(ctx, actor, id)
	}
	return s.Bookings.Get(ctx, actor, id)
}

// Generate returns the PDF bytes and a download filename.
func (s VoucherService) Generate(ctx context.Context, actor domain.Actor, id domain.ID) ([]byte, string, error) {
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	if b.Status != models.StatusActive && b.Status != models.StatusCompleted {
		return nil, "", domain.InvalidTransitionError{Action: "issue a voucher for", From: string(b.Status)}
	}

	now := utils.NowUTC()
	if s.Now != nil {
		now = s.Now()
	}
	data, err := buildVoucherPDF(b, now)
	if err != nil {
		return nil, "", domain.InternalError{Msg: "failed to render voucher", Err: err}
	}
	utils.LogEvent(s.RequestID, "vouchers", "generate", fmt.Sprintf("booking_id=%d", b.ID))
	return data, fmt.Sprintf("VOUCHER_%d_%s.pdf", b.ID, utils.SafeFilenamePart(b.TripStart+"_"+b.TripEnd)), nil
}

func buildVoucherPDF(b models.Booking, issued time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Pothik-bondhu booking voucher", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BOOKING VOUCHER")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Voucher No     : PB-%d", b.ID),
		fmt.Sprintf("Issued         : %s UTC", utils.FormatDateTime(issued)),
		fmt.Sprintf("Status         : %s", strings.ToUpper(string(b.Status))),
		fmt.Sprintf("Traveler       : %s", safe(b.TravelerName, "-")),
		fmt.Sprintf("Guide          : %s", safe(b.GuideName, "-")),
		fmt.Sprintf("Guide Phone    : %s", safe(b.GuidePhone, "-")),
		fmt.Sprintf("Guide Email    : %s", safe(b.GuideEmail, "-")),
		fmt.Sprintf("Route          : %s -> %s", safe(b.TripStart, "-"), safe(b.TripEnd, "-")),
		fmt.Sprintf("Booked On      : %s", utils.FormatDate(b.BookingDate)),
	}
	if b.UserRating != nil {
		lines = append(lines, fmt.Sprintf("Your Rating    : %.1f / 5", *b.UserRating))
	}
	for _, line := range lines {
		pdf.Cell(0, 7, tr(line))
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Show this voucher to your guide at the start of the trip.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
