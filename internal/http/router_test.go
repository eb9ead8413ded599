package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	intconfig "pothikbondhu/internal/config"
	"pothikbondhu/internal/domain"
	"pothikbondhu/internal/domain/models"
	"pothikbondhu/internal/gazetteer"
	h "pothikbondhu/internal/http/handlers"
	"pothikbondhu/internal/locator"
	"pothikbondhu/internal/metrics"
	"pothikbondhu/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type downRoutes struct{}

func (downRoutes) Route(context.Context, models.Point, models.Point) (models.Route, error) {
	return models.Route{}, errors.New("routing unavailable")
}

type testServer struct {
	router *gin.Engine
	mock   sqlmock.Sqlmock
	tokens services.TokenIssuer
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	g := gazetteer.MustLoad()
	tokens := services.TokenIssuer{Secret: []byte("router-test"), TTL: time.Hour}
	hs := &h.Handlers{
		DB:              db,
		Gazetteer:       g,
		Locator:         locator.New(g),
		Routes:          downRoutes{},
		Tokens:          tokens,
		Metrics:         metrics.New(),
		ExternalTimeout: 100 * time.Millisecond,
	}
	return &testServer{router: NewRouter(intconfig.Env{}, hs), mock: mock, tokens: tokens}
}

func (s *testServer) token(t *testing.T, id domain.ID, role domain.Role) string {
	tok, err := s.tokens.Issue(models.User{ID: id, Role: role})
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t)
	assert.Equal(t, http.StatusOK, s.do("GET", "/api/health", "", "").Code)

	rec := s.do("GET", "/api/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pothik_http_request_duration_seconds")

	rec = s.do("GET", "/api/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDBCheckReportsMissingTables(t *testing.T) {
	s := newServer(t)
	s.mock.ExpectPing()
	s.mock.ExpectQuery("information_schema\\.tables").WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("users"))
	s.mock.ExpectQuery("information_schema\\.tables").WithArgs("bookings").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}))

	rec := s.do("GET", "/api/db-check", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "schema_incomplete", decode(t, rec)["code"])
}

func TestResolveDistrict(t *testing.T) {
	s := newServer(t)

	rec := s.do("GET", "/api/districts/resolve?q=Cox%20Bazar", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Cox's Bazar", decode(t, rec)["name"])

	rec = s.do("GET", "/api/districts/resolve?q=zzzz", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do("GET", "/api/districts/resolve", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListDistricts(t *testing.T) {
	s := newServer(t)
	rec := s.do("GET", "/api/districts", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var all []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 64)
}

func TestPlanTrip(t *testing.T) {
	s := newServer(t)

	rec := s.do("GET", "/api/trips/plan?from=Dhaka&to=Sylhet", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["fallback"])
	assert.Len(t, body["path"], 21)

	rec = s.do("GET", "/api/trips/plan?from=Dhaka&to=Nonexistent%20Place", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	details := decode(t, rec)["details"].(map[string]any)
	assert.Equal(t, "to", details["side"])
	assert.Equal(t, "Nonexistent Place", details["input"])

	rec = s.do("GET", "/api/trips/plan?from=dhaka&to=Dacca", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterAndLoginErrors(t *testing.T) {
	s := newServer(t)

	rec := s.do("POST", "/api/auth/register", "", `{"name":"A","email":"a@mail.test","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decode(t, rec)["code"])

	rec = s.do("POST", "/api/auth/register", "", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.mock.ExpectQuery("FROM users WHERE email = \\?").WithArgs("ghost@mail.test").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	rec = s.do("POST", "/api/auth/login", "", `{"email":"ghost@mail.test","password":"secret1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", decode(t, rec)["error"])
}

func TestBookingsRequireAuth(t *testing.T) {
	s := newServer(t)
	rec := s.do("POST", "/api/bookings", "", `{"guideId":"3","tripStart":"Dhaka","tripEnd":"Sylhet"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSelfBookingRejected(t *testing.T) {
	s := newServer(t)
	tok := s.token(t, 3, domain.RoleTraveler)
	rec := s.do("POST", "/api/bookings", tok, `{"userId":"3","guideId":"3","tripStart":"Dhaka","tripEnd":"Sylhet"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func expectState(mock sqlmock.Sqlmock, status string) {
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "guide_id", "status", "is_rated"}).
			AddRow(5, 1, 3, status, false))
}

func TestAcceptBooking(t *testing.T) {
	s := newServer(t)
	expectState(s.mock, "pending")
	s.mock.ExpectExec("UPDATE bookings SET status = \\?").WithArgs("active", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec("UPDATE users SET is_available = \\?").WithArgs(false, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()
	s.mock.ExpectQuery("FROM bookings b").WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "guide_id", "trip_start", "trip_end", "booking_date", "status",
			"is_rated", "user_rating", "user_review", "gn", "gp", "gph", "ge", "tn",
		}).AddRow(5, 1, 3, "Dhaka", "Sylhet", time.Now(), "active", false, nil, nil, "Karim", "", "", "", "Rahim"))

	rec := s.do("POST", "/api/bookings/5/accept", s.token(t, 3, domain.RoleGuide), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "active", body["status"])
	assert.Equal(t, "5", body["id"])
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestCompletePendingConflicts(t *testing.T) {
	s := newServer(t)
	expectState(s.mock, "pending")
	s.mock.ExpectRollback()

	rec := s.do("POST", "/api/bookings/5/complete", s.token(t, 1, domain.RoleTraveler), "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", decode(t, rec)["code"])
}

func TestRateAlreadyRatedConflicts(t *testing.T) {
	s := newServer(t)
	s.mock.ExpectBegin()
	s.mock.ExpectQuery("FOR UPDATE").WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "guide_id", "status", "is_rated"}).
			AddRow(5, 1, 3, "completed", true))
	s.mock.ExpectRollback()

	rec := s.do("POST", "/api/bookings/5/rate", s.token(t, 1, domain.RoleTraveler), `{"rating":4,"review":"ok"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_rated", decode(t, rec)["code"])
}

func TestGuideOnlyRoutes(t *testing.T) {
	s := newServer(t)
	rec := s.do("PUT", "/api/guides/me/availability", s.token(t, 1, domain.RoleTraveler), `{"isAvailable":false}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do("PUT", "/api/guides/me/availability", s.token(t, 3, domain.RoleGuide), `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBadPathID(t *testing.T) {
	s := newServer(t)
	rec := s.do("POST", "/api/bookings/abc/accept", s.token(t, 3, domain.RoleGuide), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
