package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tms-admin/tms-api/internal/models"
	"github.com/tms-admin/tms-api/internal/repository"
	"github.com/tms-admin/tms-api/internal/service"
	"github.com/tms-admin/tms-api/pkg/config"
)

func newTestRouter(t *testing.T) (*gin.Engine, *repository.Factory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, repository.CreateSchema(context.Background(), db))
	t.Cleanup(func() { _ = db.Close() })

	factory := repository.NewFactory(db)
	logger := zap.NewNop()

	authCfg := service.AuthConfig{
		AccessTokenSecret:  "router-test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "tms-api",
		Audience:           []string{"tms-admin"},
	}

	svcs := Services{
		Auth:         service.NewAuthService(factory.New().Users, nil, logger, authCfg),
		Participants: service.NewParticipantService(factory, nil, logger),
		Trainings:    service.NewTrainingService(factory, nil, logger),
		Enrollments:  service.NewEnrollmentService(factory, nil, logger),
		Allowances:   service.NewAllowanceService(factory, nil, logger),
		Exports:      service.NewExportService(factory, logger),
		Metrics:      service.NewMetricsService(),

		Departments: service.NewLookupService[models.Department, *models.Department](factory, func(u *repository.UnitOfWork) service.LookupStore[models.Department] {
			return u.Departments
		}, "department", nil, logger),
		Facilities: service.NewLookupService[models.Facility, *models.Facility](factory, func(u *repository.UnitOfWork) service.LookupStore[models.Facility] {
			return u.Facilities
		}, "facility", nil, logger),
		Designations: service.NewLookupService[models.Designation, *models.Designation](factory, func(u *repository.UnitOfWork) service.LookupStore[models.Designation] {
			return u.Designations
		}, "designation", nil, logger),
		SalaryScales: service.NewLookupService[models.SalaryScale, *models.SalaryScale](factory, func(u *repository.UnitOfWork) service.LookupStore[models.SalaryScale] {
			return u.SalaryScales
		}, "salary scale", nil, logger),
		Sponsors: service.NewLookupService[models.Sponsor, *models.Sponsor](factory, func(u *repository.UnitOfWork) service.LookupStore[models.Sponsor] {
			return u.Sponsors
		}, "sponsor", nil, logger),
		AllowanceTypes: service.NewLookupService[models.AllowanceType, *models.AllowanceType](factory, func(u *repository.UnitOfWork) service.LookupStore[models.AllowanceType] {
			return u.AllowanceTypes
		}, "allowance type", nil, logger),
		AllowanceStatuses: service.NewLookupService[models.AllowanceStatus, *models.AllowanceStatus](factory, func(u *repository.UnitOfWork) service.LookupStore[models.AllowanceStatus] {
			return u.AllowanceStatuses
		}, "allowance status", nil, logger),
	}

	cfg := &config.Config{Env: config.EnvDevelopment, APIPrefix: "/api/v1"}
	return NewRouter(cfg, logger, svcs), factory
}

func seedUser(t *testing.T, factory *repository.Factory, email string, role models.UserRole) {
	t.Helper()
	uow := factory.New()
	defer uow.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("router-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, uow.Users.Create(context.Background(), &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Router Test",
		Role:         role,
		Active:       true,
	}))
}

func login(t *testing.T, router *gin.Engine, email string) string {
	t.Helper()
	body, _ := json.Marshal(gin.H{"email": email, "password": "router-pass"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var envelope struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.AccessToken)
	return envelope.Data.AccessToken
}

func doJSON(router *gin.Engine, method, path, token string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(rec, req)
	return rec
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(router, http.MethodGet, "/api/v1/participants", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestParticipantCRUDOverHTTP(t *testing.T) {
	router, factory := newTestRouter(t)
	seedUser(t, factory, "admin@tms.local", models.RoleAdmin)
	token := login(t, router, "admin@tms.local")

	rec := doJSON(router, http.MethodPost, "/api/v1/participants", token, gin.H{
		"first_name": "Harriet",
		"last_name":  "Acan",
		"id_number":  "HT-001",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data models.Participant `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.Data.ID)
	// Audit columns carry the authenticated user.
	assert.Equal(t, "admin@tms.local", created.Data.CreatedBy)

	rec = doJSON(router, http.MethodGet, "/api/v1/participants?search=Acan", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Data       []models.Participant `json:"data"`
		Pagination *models.Pagination   `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed.Data, 1)
	require.NotNil(t, listed.Pagination)
	assert.Equal(t, 1, listed.Pagination.TotalCount)

	rec = doJSON(router, http.MethodDelete, "/api/v1/participants/1", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(router, http.MethodGet, "/api/v1/participants/1", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestViewerCannotWrite(t *testing.T) {
	router, factory := newTestRouter(t)
	seedUser(t, factory, "viewer@tms.local", models.RoleViewer)
	token := login(t, router, "viewer@tms.local")

	rec := doJSON(router, http.MethodPost, "/api/v1/participants", token, gin.H{
		"first_name": "Read",
		"last_name":  "Only",
		"id_number":  "RO-001",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(router, http.MethodGet, "/api/v1/participants", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLookupRoutesOverHTTP(t *testing.T) {
	router, factory := newTestRouter(t)
	seedUser(t, factory, "staff@tms.local", models.RoleStaff)
	token := login(t, router, "staff@tms.local")

	rec := doJSON(router, http.MethodPost, "/api/v1/lookups/departments", token, gin.H{"name": "Radiology", "code": "RAD"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(router, http.MethodPost, "/api/v1/lookups/departments", token, gin.H{"name": "Radiology"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(router, http.MethodGet, "/api/v1/lookups/departments", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed struct {
		Data []models.Department `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed.Data, 1)
}

func TestHealthAndMetricsExposed(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
