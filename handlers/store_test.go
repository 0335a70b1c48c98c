package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mercato-backend/models"

	"github.com/google/uuid"
)

func TestGetStoreStatusOpen(t *testing.T) {
	db := freshDB()
	r := setupStoreRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "Open Store", owner.ID)
	seedOpenAllWeek(db, store.ID)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest("GET", "/api/stores/"+store.ID.String()+"/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if resp["is_open"] != true {
		t.Errorf("expected is_open true, got %v", resp["is_open"])
	}
	if resp["force_status"] != "normal" {
		t.Errorf("expected force_status normal, got %v", resp["force_status"])
	}
	hours, ok := resp["all_hours"].([]interface{})
	if !ok || len(hours) != 7 {
		t.Errorf("expected 7 hours entries, got %v", resp["all_hours"])
	}
}

func TestGetStoreStatusClosedNoHours(t *testing.T) {
	db := freshDB()
	r := setupStoreRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "Closed Store", owner.ID)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest("GET", "/api/stores/"+store.ID.String()+"/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if resp["is_open"] != false {
		t.Errorf("expected is_open false, got %v", resp["is_open"])
	}
	// A store with no hours at all has no next opening to advertise
	if _, present := resp["next_open_time"]; present {
		t.Errorf("expected no next_open_time, got %v", resp["next_open_time"])
	}
}

func TestGetStoreStatusNextOpening(t *testing.T) {
	db := freshDB()
	r := setupStoreRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "Tomorrow Store", owner.ID)

	// Only open tomorrow (store runs on UTC in tests)
	tomorrow := (int(time.Now().UTC().Weekday()) + 1) % 7
	seedStoreHours(db, store.ID, tomorrow, "09:00", "17:00")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest("GET", "/api/stores/"+store.ID.String()+"/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if resp["is_open"] != false {
		t.Errorf("expected is_open false, got %v", resp["is_open"])
	}
	next, ok := resp["next_open_time"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected next_open_time object, got %v", resp["next_open_time"])
	}
	if int(next["day_of_week"].(float64)) != tomorrow {
		t.Errorf("expected next opening on day %d, got %v", tomorrow, next["day_of_week"])
	}
	if next["time"] != "09:00" {
		t.Errorf("expected next opening at 09:00, got %v", next["time"])
	}
}

func TestGetStoreStatusForceClosed(t *testing.T) {
	db := freshDB()
	r := setupStoreRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "Force Closed Store", owner.ID)
	seedOpenAllWeek(db, store.ID)
	db.Model(&store).Update("force_status", "force_closed")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest("GET", "/api/stores/"+store.ID.String()+"/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if resp["is_open"] != false {
		t.Errorf("expected is_open false under force_closed, got %v", resp["is_open"])
	}
	// Deliberately shut stores do not advertise an opening time
	if _, present := resp["next_open_time"]; present {
		t.Errorf("expected no next_open_time under force_closed, got %v", resp["next_open_time"])
	}
}

func TestGetStoreStatusForceOpen(t *testing.T) {
	db := freshDB()
	r := setupStoreRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "Force Open Store", owner.ID)
	// No hours at all, yet force_open wins
	db.Model(&store).Update("force_status", "force_open")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest("GET", "/api/stores/"+store.ID.String()+"/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if resp["is_open"] != true {
		t.Errorf("expected is_open true under force_open, got %v", resp["is_open"])
	}
}

func TestGetStoreStatusCorruptHours(t *testing.T) {
	db := freshDB()
	r := setupStoreRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "Corrupt Store", owner.ID)
	seedStoreHours(db, store.ID, int(time.Now().UTC().Weekday()), "not-a-time", "21:00")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest("GET", "/api/stores/"+store.ID.String()+"/status", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for corrupt hours, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetStoreStatusNotFound(t *testing.T) {
	db := freshDB()
	r := setupStoreRouter(db)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest("GET", "/api/stores/"+uuid.New().String()+"/status", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetNearestStore(t *testing.T) {
	db := freshDB()
	r := setupStoreRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	near := seedStore(db, "Near Store", owner.ID)
	far := seedStore(db, "Far Store", owner.ID)
	// Move the far store to Manchester, well outside its radius from London
	db.Model(&far).Updates(map[string]interface{}{"latitude": 53.4808, "longitude": -2.2426})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest("GET", "/api/stores/nearest?lat=51.5074&lng=-0.1278", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	storeResp := resp["store"].(map[string]interface{})
	if storeResp["id"] != near.ID.String() {
		t.Errorf("expected nearest store %s, got %v", near.ID, storeResp["id"])
	}
}

func TestGetNearestStoreNoneInRange(t *testing.T) {
	db := freshDB()
	r := setupStoreRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	seedStore(db, "London Store", owner.ID)

	// New York is far outside a 5 mile radius of London
	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest("GET", "/api/stores/nearest?lat=40.7128&lng=-74.0060", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetNearestStoreMissingParams(t *testing.T) {
	db := freshDB()
	r := setupStoreRouter(db)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest("GET", "/api/stores/nearest", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestListActiveStoresHidesInactive(t *testing.T) {
	db := freshDB()
	r := setupStoreRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	seedStore(db, "Active Store", owner.ID)
	inactive := seedStore(db, "Inactive Store", owner.ID)
	db.Model(&inactive).Update("is_active", false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest("GET", "/api/stores", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	stores := parseResponseArray(w)
	if len(stores) != 1 {
		t.Errorf("expected 1 store, got %d", len(stores))
	}
}

func TestGetStorePaymentMethodsOnlyEnabled(t *testing.T) {
	db := freshDB()
	r := setupStoreRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "Tender Store", owner.ID)
	seedPaymentMethod(db, store.ID, "cash")
	disabled := seedPaymentMethod(db, store.ID, "online")
	db.Model(&disabled).Update("is_enabled", false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest("GET", "/api/stores/"+store.ID.String()+"/payment-methods", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	methods := parseResponseArray(w)
	if len(methods) != 1 {
		t.Errorf("expected 1 enabled method, got %d", len(methods))
	}
}

func TestAdminCreateStore(t *testing.T) {
	db := freshDB()
	r := setupStoreRouter(db)

	_, adminToken := seedTestUser(db, "admin@test.com", "admin", nil)

	body := map[string]interface{}{
		"name":           "New Store",
		"slug":           "new-store",
		"owner_email":    "newowner@test.com",
		"owner_name":     "New Owner",
		"owner_password": "supersecret1",
		"latitude":       51.5,
		"longitude":      -0.12,
		"timezone":       "Europe/London",
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authRequest("POST", "/api/admin/stores", body, adminToken))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var store models.Store
	if err := db.Where("slug = ?", "new-store").First(&store).Error; err != nil {
		t.Fatalf("store not persisted: %v", err)
	}

	// Default hours for all 7 days and default tenders come with the store
	var hoursCount int64
	db.Model(&models.StoreHours{}).Where("store_id = ?", store.ID).Count(&hoursCount)
	if hoursCount != 7 {
		t.Errorf("expected 7 default hours rows, got %d", hoursCount)
	}

	var owner models.User
	if err := db.Where("email = ?", "newowner@test.com").First(&owner).Error; err != nil {
		t.Fatalf("owner not created: %v", err)
	}
	if owner.Role != "store_owner" {
		t.Errorf("expected role store_owner, got %s", owner.Role)
	}
}

func TestAdminCreateStoreInvalidTimezone(t *testing.T) {
	db := freshDB()
	r := setupStoreRouter(db)

	_, adminToken := seedTestUser(db, "admin@test.com", "admin", nil)

	body := map[string]interface{}{
		"name":           "Bad TZ Store",
		"slug":           "bad-tz-store",
		"owner_email":    "owner-tz@test.com",
		"owner_password": "supersecret1",
		"latitude":       51.5,
		"longitude":      -0.12,
		"timezone":       "Mars/Olympus",
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authRequest("POST", "/api/admin/stores", body, adminToken))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown timezone, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdminDeleteStoreWithOrders(t *testing.T) {
	db := freshDB()
	r := setupStoreRouter(db)

	_, adminToken := seedTestUser(db, "admin@test.com", "admin", nil)
	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	customer, _ := seedTestUser(db, "customer@test.com", "customer", nil)
	store := seedStore(db, "Busy Store", owner.ID)
	cat := seedCategory(db, store.ID, "Drinks")
	prod := seedProduct(db, store.ID, cat.ID, "Cola", 1.50)
	seedOrder(db, customer.ID, store.ID, prod.ID, models.OrderStatusPending)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authRequest("DELETE", "/api/admin/stores/"+store.ID.String(), nil, adminToken))

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 deleting store with orders, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdminStoreRoutesRequireAdmin(t *testing.T) {
	db := freshDB()
	r := setupStoreRouter(db)

	_, customerToken := seedTestUser(db, "customer@test.com", "customer", nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authRequest("GET", "/api/admin/stores", nil, customerToken))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}
