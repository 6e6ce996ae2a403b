package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aptracker/internal/calendar"
	"aptracker/internal/handler"
	"aptracker/internal/lifecycle"
	"aptracker/internal/middleware"
	"aptracker/internal/repository/memory"
	"aptracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

func testClock() time.Time { return calendar.Date(2024, time.March, 15).Add(9 * time.Hour) }

type server struct {
	router *gin.Engine
	users  service.UserService
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repos := memory.NewStore().Repositories()
	rules := service.DefaultRules()
	log := zerolog.Nop()
	auth := middleware.NewAuth(testSecret, false)

	invoices := service.NewInvoiceService(repos, rules, nil, nil, testClock, log)
	users := service.NewUserService(repos, service.TokenConfig{Secret: testSecret, TTL: time.Hour}, log)

	r := gin.New()
	api := r.Group("")
	handler.NewVendorHandler(service.NewVendorService(repos, rules, log), auth).RegisterRoutes(api)
	handler.NewInvoiceHandler(invoices, service.NewReportService(repos, testClock), auth).RegisterRoutes(api)
	handler.NewForecastHandler(service.NewForecastService(repos, rules, testClock, log), auth).RegisterRoutes(api)
	handler.NewAuditHandler(service.NewAuditService(repos.Audit), auth).RegisterRoutes(api)
	handler.NewUserHandler(users, auth).RegisterRoutes(api)

	return &server{router: r, users: users}
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "00000000-0000-0000-0000-000000000001",
		"role": role,
		"name": strings.ToLower(role),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Field      string          `json:"field"`
	Failures   []string        `json:"failures"`
}

func (s *server) do(t *testing.T, method, path, role string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, role))
	}
	return s.serve(t, req)
}

func (s *server) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *server) createVendor(t *testing.T) service.VendorResponse {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/vendors", lifecycle.RoleAPStaff, map[string]interface{}{
		"code":              "ACME",
		"tax_id":            "01.234.567.8-901.000",
		"name":              "Acme Supplies",
		"payment_term_days": 30,
	})
	require.Equal(t, http.StatusCreated, w.Code, env.Error)
	var v service.VendorResponse
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func (s *server) createInvoice(t *testing.T, vendorID, number string) service.InvoiceResponse {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/invoices", lifecycle.RoleAPStaff, map[string]interface{}{
		"vendor_id":      vendorID,
		"invoice_number": number,
		"entry_date":     "2024-03-01",
		"amount":         "1000000",
		"attestations": map[string]bool{
			"signature":        true,
			"unit_price_match": true,
			"quantity_match":   true,
			"gl_account":       true,
			"goods_receipt":    true,
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, env.Error)
	var inv service.InvoiceResponse
	require.NoError(t, json.Unmarshal(env.Data, &inv))
	return inv
}

func TestAuthRequired(t *testing.T) {
	s := newServer(t)

	w, env := s.do(t, http.MethodGet, "/api/invoices", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "error", env.Status)

	w, _ = s.do(t, http.MethodPost, "/api/users", lifecycle.RoleAPStaff, map[string]string{
		"username": "x", "email": "x@example.com", "password": "secret1", "role": "AP_STAFF",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/audit-logs", lifecycle.RoleAPStaff, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLoginSetsCookie(t *testing.T) {
	s := newServer(t)
	require.NoError(t, s.users.BootstrapAdmin(context.Background(), "admin", "admin@example.com", "s3cret!"))

	w, env := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "admin@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, service.ErrInvalidCredentials.Error(), env.Error)

	w, env = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "admin@example.com", "password": "s3cret!",
	})
	require.Equal(t, http.StatusOK, w.Code, env.Error)

	var tok service.TokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &tok))
	assert.Equal(t, lifecycle.RoleAdmin, tok.User.Role)

	var cookie *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "access_token" {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	w, env = s.serve(t, req)
	require.Equal(t, http.StatusOK, w.Code, env.Error)

	var me service.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "admin", me.Username)
}

func TestInvoiceLifecycleOverHTTP(t *testing.T) {
	s := newServer(t)
	v := s.createVendor(t)
	inv := s.createInvoice(t, v.ID.String(), "INV-001")
	assert.Equal(t, lifecycle.StatusDraft, inv.Status)
	assert.Equal(t, "2024-04-25", inv.DueDate)

	base := "/api/invoices/" + inv.ID

	w, env := s.do(t, http.MethodPost, base+"/actions/submit", lifecycle.RoleAPStaff, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Error)

	w, _ = s.do(t, http.MethodPost, base+"/actions/approve", lifecycle.RoleAPStaff, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.do(t, http.MethodPost, base+"/actions/approve", lifecycle.RoleFinanceManager, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Error)

	w, _ = s.do(t, http.MethodPut, base, lifecycle.RoleAPStaff, map[string]string{"amount": "5"})
	assert.Equal(t, http.StatusConflict, w.Code, "approved invoices are locked")

	w, _ = s.do(t, http.MethodDelete, base, lifecycle.RoleAPStaff, nil)
	assert.Equal(t, http.StatusConflict, w.Code, "only drafts can be deleted")

	w, env = s.do(t, http.MethodPost, base+"/actions/schedule", lifecycle.RoleAPStaff, map[string]string{"date": "2024-04-05"})
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	var scheduled service.InvoiceResponse
	require.NoError(t, json.Unmarshal(env.Data, &scheduled))
	require.NotNil(t, scheduled.PlannedPaymentDate)
	assert.Equal(t, "2024-04-05", *scheduled.PlannedPaymentDate)

	w, _ = s.do(t, http.MethodPost, base+"/actions/submit", lifecycle.RoleAPStaff, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(t, http.MethodPost, base+"/actions/launch", lifecycle.RoleAPStaff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(t, http.MethodGet, "/api/schedules", lifecycle.RoleAPStaff, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	var schedules []service.ScheduleResponse
	require.NoError(t, json.Unmarshal(env.Data, &schedules))
	require.Len(t, schedules, 1)
	assert.Equal(t, "2024-04-05", schedules[0].PlannedPaymentDate)

	w, env = s.do(t, http.MethodGet, "/api/audit-logs", lifecycle.RoleFinanceManager, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Error)
}

func TestInvoiceErrors(t *testing.T) {
	s := newServer(t)
	v := s.createVendor(t)
	s.createInvoice(t, v.ID.String(), "INV-001")

	w, _ := s.do(t, http.MethodGet, "/api/invoices/00000000-0000-0000-0000-00000000dead", lifecycle.RoleAPStaff, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env := s.do(t, http.MethodPost, "/api/invoices", lifecycle.RoleAPStaff, map[string]string{
		"vendor_id": v.ID.String(), "invoice_number": "INV-001", "amount": "10",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "duplicate number")
	assert.Equal(t, "invoice_number", env.Field)

	w, _ = s.do(t, http.MethodPost, "/api/invoices", lifecycle.RoleAPStaff, map[string]string{
		"vendor_id": "00000000-0000-0000-0000-00000000beef", "invoice_number": "INV-002", "amount": "10",
	})
	assert.Equal(t, http.StatusConflict, w.Code, "missing vendor")

	w, _ = s.do(t, http.MethodDelete, "/api/vendors/"+v.ID.String(), lifecycle.RoleAdmin, nil)
	assert.Equal(t, http.StatusConflict, w.Code, "vendor still referenced")
}

func TestListAndExport(t *testing.T) {
	s := newServer(t)
	v := s.createVendor(t)
	s.createInvoice(t, v.ID.String(), "INV-001")
	s.createInvoice(t, v.ID.String(), "INV-002")

	w, env := s.do(t, http.MethodGet, "/api/invoices?search=inv-002&limit=5", lifecycle.RoleAPStaff, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	var page struct {
		Invoices []service.InvoiceResponse `json:"invoices"`
		Total    int64                     `json:"total"`
		Limit    int                       `json:"limit"`
		Pages    int64                     `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 5, page.Limit)
	assert.EqualValues(t, 1, page.Pages)
	require.Len(t, page.Invoices, 1)
	assert.Equal(t, "INV-002", page.Invoices[0].InvoiceNumber)

	w, _ = s.do(t, http.MethodGet, "/api/invoices/export", lifecycle.RoleAPStaff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, strings.HasPrefix(w.Body.String(), "Invoice Number,PO Number,Vendor Name"))

	w, _ = s.do(t, http.MethodGet, "/api/invoices/export?format=pdf", lifecycle.RoleAPStaff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w, _ = s.do(t, http.MethodGet, "/api/invoices/export?format=xlsx", lifecycle.RoleAPStaff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportUpload(t *testing.T) {
	s := newServer(t)
	s.createVendor(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "invoices.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("Invoice Number,PO Number,Vendor Name,Entry Date,Due Date,Amount,Currency\n" +
		"IMP-1,PO-1,acme supplies,2024-03-01,,1500,IDR\n" +
		"IMP-2,,Unknown,2024-03-01,,10,IDR\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/invoices/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token(t, lifecycle.RoleAPStaff))
	w, env := s.serve(t, req)
	require.Equal(t, http.StatusOK, w.Code, env.Error)

	var res struct {
		Created int `json:"created"`
		Failed  int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Failed)
}

func TestForecastAndDueDate(t *testing.T) {
	s := newServer(t)
	v := s.createVendor(t)
	s.createInvoice(t, v.ID.String(), "INV-001")

	w, _ := s.do(t, http.MethodGet, "/api/forecast?delay_days=abc", lifecycle.RoleAPStaff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := s.do(t, http.MethodGet, "/api/forecast?delay_days=2", lifecycle.RoleAPStaff, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	var fc service.ForecastResponse
	require.NoError(t, json.Unmarshal(env.Data, &fc))
	assert.Equal(t, 2, fc.DelayDays)

	w, env = s.do(t, http.MethodGet, "/api/dashboard", lifecycle.RoleAPStaff, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Error)

	w, env = s.do(t, http.MethodPost, "/api/due-date", lifecycle.RoleAPStaff, map[string]interface{}{
		"term_code":  60,
		"entry_date": "2024-03-26",
	})
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	var due service.DueDateResponse
	require.NoError(t, json.Unmarshal(env.Data, &due))
	assert.True(t, due.CycleTerm)
	require.NotNil(t, due.DueDate)
	assert.Equal(t, "2024-06-25", *due.DueDate)

	w, env = s.do(t, http.MethodPost, "/api/due-date", lifecycle.RoleAPStaff, map[string]interface{}{"term_code": 14})
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, &due))
	assert.Nil(t, due.DueDate)
	assert.NotEmpty(t, due.Reason)
}
