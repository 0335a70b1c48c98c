package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mercato-backend/models"

	"github.com/gin-gonic/gin"
)

// pollBillingJob polls the job endpoint until the run reaches a terminal
// status or the deadline passes.
func pollBillingJob(t *testing.T, router *gin.Engine, jobID, token string) map[string]interface{} {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authRequest("GET", "/api/admin/billing/jobs/"+jobID, nil, token))
		if w.Code != http.StatusOK {
			t.Fatalf("job poll returned %d: %s", w.Code, w.Body.String())
		}
		job := parseResponse(w)
		if job["status"] == "completed" || job["status"] == "failed" {
			return job
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("billing run did not finish in time")
	return nil
}

func TestRunBilling(t *testing.T) {
	db := freshDB()
	router := setupBillingRouter(db)

	_, token := seedTestUser(db, "admin@example.com", "admin", nil)
	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "Corner Deli", owner.ID)
	cat := seedCategory(db, store.ID, "Sandwiches")
	prod := seedProduct(db, store.ID, cat.ID, "Club Sandwich", 7.50)
	customer, _ := seedTestUser(db, "buyer@example.com", "customer", nil)

	// Two delivered orders count; the pending one does not.
	seedOrder(db, customer.ID, store.ID, prod.ID, models.OrderStatusDelivered)
	seedOrder(db, customer.ID, store.ID, prod.ID, models.OrderStatusDelivered)
	seedOrder(db, customer.ID, store.ID, prod.ID, models.OrderStatusPending)

	period := time.Now().UTC().Format("2006-01")
	body := map[string]interface{}{"period": period}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/admin/billing/run", body, token))

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	jobID, ok := resp["job_id"].(string)
	if !ok || jobID == "" {
		t.Fatalf("expected job_id in response, got %v", resp)
	}
	if resp["period"] != period {
		t.Errorf("expected period %s, got %v", period, resp["period"])
	}

	job := pollBillingJob(t, router, jobID, token)
	if job["status"] != "completed" {
		t.Fatalf("expected completed run, got %v", job["status"])
	}
	if job["generated"].(float64) != 1 {
		t.Errorf("expected 1 statement generated, got %v", job["generated"])
	}

	var record models.BillingRecord
	if err := db.Where("store_id = ? AND period = ?", store.ID, period).First(&record).Error; err != nil {
		t.Fatalf("billing record not created: %v", err)
	}
	if record.OrderCount != 2 {
		t.Errorf("expected 2 delivered orders counted, got %d", record.OrderCount)
	}
	if record.GrossVolume != 29.98 {
		t.Errorf("expected gross volume 29.98, got %v", record.GrossVolume)
	}
	if record.Commission != 29.98*0.10 {
		t.Errorf("expected commission at default rate, got %v", record.Commission)
	}
}

func TestRunBillingSkipsExistingStatement(t *testing.T) {
	db := freshDB()
	router := setupBillingRouter(db)

	_, token := seedTestUser(db, "admin@example.com", "admin", nil)
	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "Corner Deli", owner.ID)

	period := time.Now().UTC().Format("2006-01")
	db.Create(&models.BillingRecord{
		StoreID:        store.ID,
		Period:         period,
		OrderCount:     5,
		GrossVolume:    100,
		CommissionRate: 0.10,
		Commission:     10,
		GeneratedAt:    time.Now(),
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/admin/billing/run",
		map[string]interface{}{"period": period}, token))

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	jobID := parseResponse(w)["job_id"].(string)

	job := pollBillingJob(t, router, jobID, token)
	if job["status"] != "completed" {
		t.Fatalf("expected completed run, got %v", job["status"])
	}
	if job["skipped"].(float64) != 1 {
		t.Errorf("expected 1 store skipped, got %v", job["skipped"])
	}

	var count int64
	db.Model(&models.BillingRecord{}).Where("store_id = ? AND period = ?", store.ID, period).Count(&count)
	if count != 1 {
		t.Errorf("expected statement not to be duplicated, got %d records", count)
	}
}

func TestRunBillingInvalidPeriod(t *testing.T) {
	db := freshDB()
	router := setupBillingRouter(db)

	_, token := seedTestUser(db, "admin@example.com", "admin", nil)

	for _, period := range []string{"2026", "08-2026", "2026-13", "last-month"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authRequest("POST", "/api/admin/billing/run",
			map[string]interface{}{"period": period}, token))
		if w.Code != http.StatusBadRequest {
			t.Errorf("period %q: expected 400, got %d", period, w.Code)
		}
	}
}

func TestRunBillingDefaultsToPreviousMonth(t *testing.T) {
	db := freshDB()
	router := setupBillingRouter(db)

	_, token := seedTestUser(db, "admin@example.com", "admin", nil)
	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	seedStore(db, "Corner Deli", owner.ID)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/admin/billing/run", nil, token))

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	want := time.Now().AddDate(0, -1, 0).Format("2006-01")
	if resp["period"] != want {
		t.Errorf("expected default period %s, got %v", want, resp["period"])
	}

	pollBillingJob(t, router, resp["job_id"].(string), token)
}

func TestRunBillingCustomerForbidden(t *testing.T) {
	db := freshDB()
	router := setupBillingRouter(db)

	_, token := seedTestUser(db, "buyer@example.com", "customer", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/admin/billing/run", nil, token))

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin, got %d", w.Code)
	}
}

func TestGetBillingJobNotFound(t *testing.T) {
	db := freshDB()
	router := setupBillingRouter(db)

	_, token := seedTestUser(db, "admin@example.com", "admin", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET",
		"/api/admin/billing/jobs/a2d7c87e-6a1f-4c28-9c0e-0a3df3a1b001", nil, token))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown job, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/admin/billing/jobs/not-a-uuid", nil, token))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed job ID, got %d", w.Code)
	}
}

func TestListBillingRecords(t *testing.T) {
	db := freshDB()
	router := setupBillingRouter(db)

	_, token := seedTestUser(db, "admin@example.com", "admin", nil)
	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	deli := seedStore(db, "Corner Deli", owner.ID)
	shop := seedStore(db, "Other Shop", owner.ID)

	records := []models.BillingRecord{
		{StoreID: deli.ID, Period: "2026-06", CommissionRate: 0.10, GeneratedAt: time.Now()},
		{StoreID: deli.ID, Period: "2026-07", CommissionRate: 0.10, GeneratedAt: time.Now()},
		{StoreID: shop.ID, Period: "2026-07", CommissionRate: 0.10, GeneratedAt: time.Now()},
	}
	for i := range records {
		db.Create(&records[i])
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/admin/billing", nil, token))
	if got := len(parseResponseArray(w)); got != 3 {
		t.Errorf("expected 3 records, got %d", got)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/admin/billing?period=2026-07", nil, token))
	if got := len(parseResponseArray(w)); got != 2 {
		t.Errorf("expected 2 records for 2026-07, got %d", got)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/admin/billing?store_id="+deli.ID.String(), nil, token))
	if got := len(parseResponseArray(w)); got != 2 {
		t.Errorf("expected 2 records for store, got %d", got)
	}
}
