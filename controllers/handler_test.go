package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"barberpro-backend/config"
	"barberpro-backend/controllers"
	"barberpro-backend/events"
	"barberpro-backend/routes"
	"barberpro-backend/services"
	"barberpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func newServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), config.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps := services.Deps{DB: db, Logger: logger, Publisher: events.Nop{}}
	tenants := services.NewTenantService(deps)
	if err := tenants.EnsureGlobalAdmin(context.Background(), "root@platform.test", "password123"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	h := &controllers.Handler{
		Tenants:   tenants,
		Staff:     services.NewStaffService(deps),
		Catalog:   services.NewCatalogService(deps),
		Slots:     services.NewSlotService(deps),
		Bookings:  services.NewBookingService(deps),
		Cash:      services.NewCashService(deps),
		Payments:  services.NewPaymentService(deps),
		Expenses:  services.NewExpenseService(deps),
		Reports:   services.NewReportService(deps),
		Reminders: services.NewReminderService(deps, services.NopSender{}, time.UTC),
		Tokens:    utils.NewTokenIssuer("test-secret", time.Hour),
		Logger:    logger,
	}
	cfg := &config.Config{AllowedOrigins: []string{"http://localhost:3000"}}
	return routes.SetupRouter(h, cfg, nil, logger)
}

func do(t *testing.T, srv http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func expect(t *testing.T, w *httptest.ResponseRecorder, status int, out any) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("got status %d, want %d: %s", w.Code, status, w.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s: %v", w.Body.String(), err)
		}
	}
}

func login(t *testing.T, srv http.Handler, email string) string {
	t.Helper()
	var resp struct {
		Token string `json:"token"`
	}
	expect(t, do(t, srv, http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": "password123"}), http.StatusOK, &resp)
	return resp.Token
}

func TestBookingToCashFlow(t *testing.T) {
	srv := newServer(t)
	root := login(t, srv, "root@platform.test")

	expect(t, do(t, srv, http.MethodPost, "/admin/tenants", root, gin.H{
		"name":          "Sharp Cuts",
		"slug":          "sharp-cuts",
		"adminEmail":    "owner@sharp.test",
		"adminPassword": "password123",
	}), http.StatusCreated, nil)
	owner := login(t, srv, "owner@sharp.test")

	var barber struct{ ID string }
	expect(t, do(t, srv, http.MethodPost, "/api/staff", owner, gin.H{
		"name": "Joe", "email": "joe@sharp.test", "password": "password123",
	}), http.StatusCreated, &barber)

	var service struct{ ID string }
	expect(t, do(t, srv, http.MethodPost, "/api/services", owner, gin.H{
		"name": "Haircut", "price": "35.00", "duration": 30,
	}), http.StatusCreated, &service)

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format(utils.DateLayout)
	var generated struct{ Created int }
	expect(t, do(t, srv, http.MethodPost, "/api/slots/generate", owner, gin.H{
		"staffId":  barber.ID,
		"weekdays": []int{0, 1, 2, 3, 4, 5, 6},
		"start":    "09:00",
		"end":      "10:00",
		"interval": 30,
		"from":     tomorrow,
		"to":       tomorrow,
	}), http.StatusCreated, &generated)
	if generated.Created != 2 {
		t.Fatalf("created %d slots, want 2", generated.Created)
	}

	var availability struct {
		Slots []struct {
			ID   string `json:"id"`
			Time string `json:"time"`
		} `json:"slots"`
	}
	expect(t, do(t, srv, http.MethodGet, "/public/sharp-cuts/availability?staffId="+barber.ID, "", nil), http.StatusOK, &availability)
	if len(availability.Slots) != 2 || availability.Slots[0].Time != "09:00" {
		t.Fatalf("unexpected availability %+v", availability)
	}

	booking := gin.H{
		"staffId":       barber.ID,
		"serviceId":     service.ID,
		"slotId":        availability.Slots[0].ID,
		"clientName":    "Ana",
		"clientContact": "+5511999990000",
	}
	var booked struct {
		ID string `json:"id"`
	}
	expect(t, do(t, srv, http.MethodPost, "/public/sharp-cuts/bookings", "", booking), http.StatusCreated, &booked)
	expect(t, do(t, srv, http.MethodPost, "/public/sharp-cuts/bookings", "", booking), http.StatusConflict, nil)
	expect(t, do(t, srv, http.MethodPost, "/public/unknown-shop/bookings", "", booking), http.StatusNotFound, nil)

	var completed struct{ Changed bool }
	expect(t, do(t, srv, http.MethodPost, "/api/appointments/"+booked.ID+"/complete", owner, nil), http.StatusOK, &completed)
	if !completed.Changed {
		t.Fatal("first completion should change the appointment")
	}
	expect(t, do(t, srv, http.MethodPost, "/api/appointments/"+booked.ID+"/complete", owner, nil), http.StatusOK, &completed)
	if completed.Changed {
		t.Fatal("second completion should be a no-op")
	}

	var current struct {
		Session struct{ ID string } `json:"session"`
		Balance string              `json:"balance"`
	}
	expect(t, do(t, srv, http.MethodGet, "/api/cash/current", owner, nil), http.StatusOK, &current)
	if current.Balance != "35" {
		t.Fatalf("balance = %q, want 35", current.Balance)
	}

	var closed struct{ Status string }
	expect(t, do(t, srv, http.MethodPost, "/api/cash/close", owner, gin.H{"notes": "end of day"}), http.StatusOK, &closed)
	if closed.Status != "CLOSED" {
		t.Fatalf("status = %q", closed.Status)
	}

	// movements on a closed session are rejected
	expect(t, do(t, srv, http.MethodPost, "/api/cash/sessions/"+current.Session.ID+"/entries", owner, gin.H{"amount": "10"}),
		http.StatusUnprocessableEntity, nil)

	var rec struct{ Matches bool }
	expect(t, do(t, srv, http.MethodGet, "/api/cash/sessions/"+current.Session.ID+"/reconcile", owner, nil), http.StatusOK, &rec)
	if !rec.Matches {
		t.Fatal("closed session does not reconcile")
	}
}

func TestAccessControl(t *testing.T) {
	srv := newServer(t)
	root := login(t, srv, "root@platform.test")
	expect(t, do(t, srv, http.MethodPost, "/admin/tenants", root, gin.H{
		"name": "Sharp Cuts", "slug": "sharp-cuts", "adminEmail": "owner@sharp.test", "adminPassword": "password123",
	}), http.StatusCreated, nil)
	owner := login(t, srv, "owner@sharp.test")
	expect(t, do(t, srv, http.MethodPost, "/api/staff", owner, gin.H{
		"name": "Joe", "email": "joe@sharp.test", "password": "password123",
	}), http.StatusCreated, nil)
	barber := login(t, srv, "joe@sharp.test")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"anonymous dashboard", http.MethodGet, "/api/dashboard", "", http.StatusUnauthorized},
		{"owner dashboard", http.MethodGet, "/api/dashboard", owner, http.StatusOK},
		{"barber cannot manage staff", http.MethodGet, "/api/staff", barber, http.StatusForbidden},
		{"barber agenda", http.MethodGet, "/barber/appointments", barber, http.StatusOK},
		{"owner is not a barber", http.MethodGet, "/barber/appointments", owner, http.StatusForbidden},
		{"owner cannot list tenants", http.MethodGet, "/admin/tenants", owner, http.StatusForbidden},
		{"root lists tenants", http.MethodGet, "/admin/tenants", root, http.StatusOK},
		{"root has no tenant routes", http.MethodGet, "/api/dashboard", root, http.StatusForbidden},
		{"bad id", http.MethodGet, "/api/staff/not-a-uuid", owner, http.StatusBadRequest},
		{"bad date range", http.MethodGet, "/api/reports?from=2030-02-10&to=2030-02-01", owner, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, tt.method, tt.path, tt.token, nil)
			if w.Code != tt.want {
				t.Errorf("got status %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}

	expect(t, do(t, srv, http.MethodPost, "/auth/login", "", gin.H{"email": "owner@sharp.test", "password": "wrong-password"}),
		http.StatusUnauthorized, nil)
}

func TestCloseCashSessionWithoutBody(t *testing.T) {
	srv := newServer(t)
	root := login(t, srv, "root@platform.test")
	expect(t, do(t, srv, http.MethodPost, "/admin/tenants", root, gin.H{
		"name": "Fade Room", "slug": "fade-room", "adminEmail": "owner@fade.test", "adminPassword": "password123",
	}), http.StatusCreated, nil)
	owner := login(t, srv, "owner@fade.test")

	expect(t, do(t, srv, http.MethodPost, "/api/cash/open", owner, gin.H{"openingBalance": "20"}), http.StatusCreated, nil)

	var closed struct {
		Status         string
		ClosingBalance string
		Discrepancy    string
	}
	expect(t, do(t, srv, http.MethodPost, "/api/cash/close", owner, nil), http.StatusOK, &closed)
	if closed.Status != "CLOSED" {
		t.Fatalf("status = %q", closed.Status)
	}
	if closed.ClosingBalance != "20" || closed.Discrepancy != "0" {
		t.Fatalf("closing = %q, discrepancy = %q", closed.ClosingBalance, closed.Discrepancy)
	}
}
