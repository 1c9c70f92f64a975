package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"habit_tracker_backend/internal/config"
	"habit_tracker_backend/internal/middleware"
	"habit_tracker_backend/internal/repository"
	"habit_tracker_backend/internal/service"
	"habit_tracker_backend/internal/testutil"
	"habit_tracker_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMailer struct {
	subjects []string
	err      error
}

func (m *stubMailer) Send(_ context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.subjects = append(m.subjects, subject)
	return nil
}

type testServer struct {
	router *gin.Engine
	mailer *stubMailer
	habits *repository.HabitRepository
}

func newTestServer(t *testing.T, guestEmail string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	userRepo := repository.NewUserRepository(db)
	habitRepo := repository.NewHabitRepository(db)

	identity := service.NewGuestIdentityProvider(config.GuestConfig{ID: 1, Email: guestEmail, Name: "Guest"})
	insights := service.NewInsightService(habitRepo, nil)
	mailer := &stubMailer{}

	auth := NewAuthController(service.NewAuthService(userRepo), identity)
	habits := NewHabitController(service.NewHabitService(habitRepo, nil))
	analyticsCtl := NewAnalyticsController(insights)
	uploads := NewUploadController(service.NewUploadService(
		habitRepo,
		repository.NewUploadedDataRepository(db),
		repository.NewUploadArchiveRepository(db),
		&service.LocalStorageProvider{Root: t.TempDir()},
		nil,
	))
	email := NewEmailController(service.NewReminderService(mailer, userRepo, insights, 30))

	r := gin.New()
	r.GET("/api/health", NewHealthController(db, identity.Mode()).HealthCheck)
	r.POST("/api/register", auth.Register)
	r.POST("/api/login", auth.Login)
	r.POST("/api/logout", auth.Logout)
	r.POST("/api/analytics/insights/preview", analyticsCtl.Preview)

	api := r.Group("/api", middleware.IdentityMiddleware(identity))
	api.GET("/me", auth.Me)
	api.POST("/habits", habits.LogHabit)
	api.GET("/habits/summary", habits.GetSummary)
	api.GET("/analytics/insights", analyticsCtl.GetInsights)
	api.POST("/upload", uploads.Upload)
	api.POST("/upload/manual", uploads.AddManualEntry)
	api.GET("/uploads", uploads.ListUploads)
	api.POST("/email/reminder", email.SendReminder)
	api.POST("/email/test-reminder", email.SendTestReminder)

	return &testServer{router: r, mailer: mailer, habits: habitRepo}
}

func (s *testServer) do(req *http.Request) (*httptest.ResponseRecorder, util.Response) {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	var resp util.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func (s *testServer) doJSON(method, path, body string) (*httptest.ResponseRecorder, util.Response) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func dataMap(t *testing.T, resp util.Response) map[string]interface{} {
	t.Helper()
	m, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", resp.Data)
	return m
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, "guest@example.com")
	w, resp := s.doJSON(http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", dataMap(t, resp)["status"])
	assert.Equal(t, util.IdentityGuest, dataMap(t, resp)["identity"])
}

func TestAuthEndpoints_GuestMode(t *testing.T) {
	s := newTestServer(t, "guest@example.com")

	w, resp := s.doJSON(http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "guest@example.com", dataMap(t, resp)["email"])
	assert.EqualValues(t, 1, dataMap(t, resp)["id"])

	w, resp = s.doJSON(http.MethodPost, "/api/login", `{"email":"me@example.com","password":"x"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	user := dataMap(t, resp)["user"].(map[string]interface{})
	assert.Equal(t, "me@example.com", user["email"])

	w, resp = s.doJSON(http.MethodPost, "/api/logout", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logged out", resp.Message)

	w, _ = s.doJSON(http.MethodPost, "/api/register", `{"name":"A","email":"a@example.com","password":"longenough"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	w, _ = s.doJSON(http.MethodPost, "/api/register", `{"name":"A","email":"a@example.com","password":"longenough"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	w, _ = s.doJSON(http.MethodPost, "/api/register", `{"name":"A","email":"not-an-email","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHabitEndpoints(t *testing.T) {
	s := newTestServer(t, "guest@example.com")

	w, resp := s.doJSON(http.MethodPost, "/api/habits", `{"date":"2024-01-01","status":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "habit_name and date are required", resp.Message)

	w, resp = s.doJSON(http.MethodPost, "/api/habits", `{"habit_name":"read","status":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "date is required", resp.Message)

	w, _ = s.doJSON(http.MethodPost, "/api/habits", `{"habit_name":"read","date":"01/02/2024","status":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = s.doJSON(http.MethodPost, "/api/habits", `{"habit_name":"read","date":"2024-01-01","status":"1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Habit saved", resp.Message)
	assert.EqualValues(t, 1, dataMap(t, resp)["status"])

	habits, err := s.habits.FindByUser(1)
	require.NoError(t, err)
	assert.Len(t, habits, 1)

	w, resp = s.doJSON(http.MethodGet, "/api/habits/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	summary := dataMap(t, resp)
	assert.Contains(t, summary, "weekly")
	assert.Contains(t, summary, "successFailure")

	w, resp = s.doJSON(http.MethodGet, "/api/analytics/insights", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "low", dataMap(t, resp)["riskLevel"])
}

func TestInsightPreview(t *testing.T) {
	s := newTestServer(t, "guest@example.com")

	body := `[{"date":"2024-01-01","status":1},{"date":"2024-01-02","status":0},{"date":"2024-01-03","status":"1"}]`
	w, resp := s.doJSON(http.MethodPost, "/api/analytics/insights/preview", body)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataMap(t, resp)
	assert.Equal(t, "medium", data["riskLevel"])
	assert.Equal(t, 0.7, data["predictionScore"])
	metrics := data["keyMetrics"].(map[string]interface{})
	assert.Equal(t, "66.7%", metrics["completionRate"])

	w, _ = s.doJSON(http.MethodPost, "/api/analytics/insights/preview", `[{"date":"someday","status":1}]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func multipartUpload(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadEndpoints(t *testing.T) {
	s := newTestServer(t, "guest@example.com")

	w, resp := s.do(multipartUpload(t, "", "", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file uploaded", resp.Message)

	w, resp = s.do(multipartUpload(t, util.UploadFormField, "notes.txt", "hello"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unsupported file type", resp.Message)

	csvData := "habit_name,date,status\nread,2024-01-01,1\nread,2024-01-02,0\n,2024-01-03,\n"
	w, resp = s.do(multipartUpload(t, util.UploadFormField, "habits.csv", csvData))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "File processed", resp.Message)
	data := dataMap(t, resp)
	assert.EqualValues(t, 2, data["habitsImported"])
	assert.EqualValues(t, 0, data["entriesImported"])

	w, resp = s.doJSON(http.MethodGet, "/api/uploads", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp.Data, 1)

	w, resp = s.doJSON(http.MethodPost, "/api/upload/manual", `{"date":"2024-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "value and date are required", resp.Message)

	w, resp = s.doJSON(http.MethodPost, "/api/upload/manual", `{"value":3.5,"date":"2024-01-01"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "manual", dataMap(t, resp)["source"])
}

func TestEmailEndpoints(t *testing.T) {
	s := newTestServer(t, "guest@example.com")

	w, resp := s.doJSON(http.MethodPost, "/api/email/reminder", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Reminder email sent", resp.Message)

	w, resp = s.doJSON(http.MethodPost, "/api/email/test-reminder", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Test reminder email triggered", resp.Message)
	assert.Equal(t, []string{"Habit Reminder", "Test Habit Reminder"}, s.mailer.subjects)

	s.mailer.err = errors.New("smtp down")
	w, resp = s.doJSON(http.MethodPost, "/api/email/reminder", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Could not send email", resp.Message)
}

func TestEmailEndpoints_MissingRecipient(t *testing.T) {
	s := newTestServer(t, "")

	w, _ := s.doJSON(http.MethodPost, "/api/email/reminder", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
