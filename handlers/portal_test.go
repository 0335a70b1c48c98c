package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"mercato-backend/models"
)

func TestGetMyStore(t *testing.T) {
	db := freshDB()
	r := setupPortalRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "My Store", owner.ID)
	_, token := seedStoreOwnerWithToken(db, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authRequest("GET", "/api/portal/store", nil, token))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if resp["id"] != store.ID.String() {
		t.Errorf("expected store %s, got %v", store.ID, resp["id"])
	}
}

func TestUpdateMyStoreInvalidTimezone(t *testing.T) {
	db := freshDB()
	r := setupPortalRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "My Store", owner.ID)
	_, token := seedStoreOwnerWithToken(db, store)

	body := map[string]interface{}{"timezone": "Not/AZone"}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authRequest("PUT", "/api/portal/store", body, token))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUploadLogo(t *testing.T) {
	db := freshDB()
	storage := newMockStorage()
	r := setupPortalRouterWithStorage(db, storage)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "Logo Store", owner.ID)
	_, token := seedStoreOwnerWithToken(db, store)

	w := httptest.NewRecorder()
	req := multipartRequest("POST", "/api/portal/store/logo", nil, map[string]string{"logo": "logo.jpg"}, token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if storage.UploadCallCount != 1 {
		t.Errorf("expected 1 upload, got %d", storage.UploadCallCount)
	}
	var updated models.Store
	db.First(&updated, "id = ?", store.ID)
	if updated.LogoURL == "" {
		t.Errorf("expected logo_url persisted")
	}
}

// ========== Opening Hours ==========

func TestReplaceStoreHours(t *testing.T) {
	db := freshDB()
	r := setupPortalRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "Hours Store", owner.ID)
	_, token := seedStoreOwnerWithToken(db, store)
	seedStoreHours(db, store.ID, 0, "10:00", "16:00")

	// Split shift on Monday, closed the rest of the week
	body := map[string]interface{}{
		"hours": []map[string]interface{}{
			{"day_of_week": 1, "open_time": "09:00", "close_time": "14:00"},
			{"day_of_week": 1, "open_time": "17:00", "close_time": "22:00"},
		},
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authRequest("PUT", "/api/portal/store/hours", body, token))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var hours []models.StoreHours
	db.Where("store_id = ?", store.ID).Order("open_time").Find(&hours)
	if len(hours) != 2 {
		t.Fatalf("expected 2 hours rows after replace, got %d", len(hours))
	}
	if hours[0].DayOfWeek != 1 || hours[0].OpenTime != "09:00" {
		t.Errorf("unexpected first window: %+v", hours[0])
	}
	// The Sunday row seeded before the replace must be gone
	var sundayCount int64
	db.Model(&models.StoreHours{}).Where("store_id = ? AND day_of_week = 0", store.ID).Count(&sundayCount)
	if sundayCount != 0 {
		t.Errorf("expected old Sunday row removed, got %d", sundayCount)
	}
}

func TestReplaceStoreHoursInvalidTime(t *testing.T) {
	db := freshDB()
	r := setupPortalRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "Hours Store", owner.ID)
	_, token := seedStoreOwnerWithToken(db, store)
	existing := seedStoreHours(db, store.ID, 2, "09:00", "17:00")

	body := map[string]interface{}{
		"hours": []map[string]interface{}{
			{"day_of_week": 1, "open_time": "25:00", "close_time": "26:00"},
		},
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authRequest("PUT", "/api/portal/store/hours", body, token))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid time, got %d: %s", w.Code, w.Body.String())
	}
	// Rejected before anything was written
	var count int64
	db.Model(&models.StoreHours{}).Where("id = ?", existing.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected existing hours untouched")
	}
}

func TestReplaceStoreHoursInvalidDay(t *testing.T) {
	db := freshDB()
	r := setupPortalRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "Hours Store", owner.ID)
	_, token := seedStoreOwnerWithToken(db, store)

	body := map[string]interface{}{
		"hours": []map[string]interface{}{
			{"day_of_week": 7, "open_time": "09:00", "close_time": "17:00"},
		},
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authRequest("PUT", "/api/portal/store/hours", body, token))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for day 7, got %d: %s", w.Code, w.Body.String())
	}
}

func TestReplaceStoreHoursRejectsOvernightWindow(t *testing.T) {
	db := freshDB()
	r := setupPortalRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "Hours Store", owner.ID)
	_, token := seedStoreOwnerWithToken(db, store)

	body := map[string]interface{}{
		"hours": []map[string]interface{}{
			{"day_of_week": 5, "open_time": "22:00", "close_time": "02:00"},
		},
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authRequest("PUT", "/api/portal/store/hours", body, token))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for overnight window, got %d: %s", w.Code, w.Body.String())
	}
}

func TestReplaceStoreHoursEmptyClearsSchedule(t *testing.T) {
	db := freshDB()
	r := setupPortalRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "Hours Store", owner.ID)
	_, token := seedStoreOwnerWithToken(db, store)
	seedOpenAllWeek(db, store.ID)

	body := map[string]interface{}{"hours": []map[string]interface{}{}}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authRequest("PUT", "/api/portal/store/hours", body, token))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var count int64
	db.Model(&models.StoreHours{}).Where("store_id = ?", store.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected schedule cleared, got %d rows", count)
	}
}

// ========== Force Status ==========

func TestUpdateForceStatus(t *testing.T) {
	db := freshDB()
	r := setupPortalRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "Override Store", owner.ID)
	_, token := seedStoreOwnerWithToken(db, store)

	body := map[string]interface{}{"force_status": "force_closed"}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authRequest("PUT", "/api/portal/store/force-status", body, token))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if resp["is_open"] != false {
		t.Errorf("expected evaluated is_open false, got %v", resp["is_open"])
	}
	if resp["force_status"] != "force_closed" {
		t.Errorf("expected force_status force_closed, got %v", resp["force_status"])
	}

	var updated models.Store
	db.First(&updated, "id = ?", store.ID)
	if string(updated.ForceStatus) != "force_closed" {
		t.Errorf("expected persisted force_closed, got %s", updated.ForceStatus)
	}
}

func TestUpdateForceStatusInvalidValue(t *testing.T) {
	db := freshDB()
	r := setupPortalRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "Override Store", owner.ID)
	_, token := seedStoreOwnerWithToken(db, store)

	body := map[string]interface{}{"force_status": "closed_forever"}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authRequest("PUT", "/api/portal/store/force-status", body, token))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown override, got %d: %s", w.Code, w.Body.String())
	}
	var updated models.Store
	db.First(&updated, "id = ?", store.ID)
	if string(updated.ForceStatus) != "normal" {
		t.Errorf("expected force_status unchanged, got %s", updated.ForceStatus)
	}
}

// ========== Orders ==========

func TestPortalUpdateOrderStatusScoped(t *testing.T) {
	db := freshDB()
	r := setupPortalRouter(db)

	ownerA, _ := seedTestUser(db, "owner-a@test.com", "store_owner", nil)
	ownerB, _ := seedTestUser(db, "owner-b@test.com", "store_owner", nil)
	storeA := seedStore(db, "Store A", ownerA.ID)
	storeB := seedStore(db, "Store B", ownerB.ID)
	customer, _ := seedTestUser(db, "customer@test.com", "customer", nil)
	cat := seedCategory(db, storeB.ID, "Mains")
	prod := seedProduct(db, storeB.ID, cat.ID, "Item", 5.00)
	otherStoreOrder := seedOrder(db, customer.ID, storeB.ID, prod.ID, models.OrderStatusPending)
	_, tokenA := seedStoreOwnerWithToken(db, storeA)

	body := map[string]interface{}{"status": "confirmed"}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authRequest("PUT", "/api/portal/orders/"+otherStoreOrder.ID.String()+"/status", body, tokenA))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another store's order, got %d: %s", w.Code, w.Body.String())
	}
}

// ========== Staff ==========

func TestInviteStaff(t *testing.T) {
	db := freshDB()
	r := setupPortalRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "Staff Store", owner.ID)
	_, token := seedStoreOwnerWithToken(db, store)

	body := map[string]interface{}{
		"email":    "staff@test.com",
		"name":     "New Staff",
		"password": "staffpass123",
		"role":     "staff",
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authRequest("POST", "/api/portal/staff", body, token))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var user models.User
	if err := db.Where("email = ?", "staff@test.com").First(&user).Error; err != nil {
		t.Fatalf("staff user not created: %v", err)
	}
	if user.Role != "store_staff" {
		t.Errorf("expected role store_staff, got %s", user.Role)
	}
	if user.StoreID == nil || *user.StoreID != store.ID {
		t.Errorf("expected staff bound to store %s", store.ID)
	}
}

func TestInviteStaffForbiddenForStaff(t *testing.T) {
	db := freshDB()
	r := setupPortalRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "Staff Store", owner.ID)
	storeID := store.ID
	_, staffToken := seedTestUser(db, "staff@test.com", "store_staff", &storeID)

	body := map[string]interface{}{
		"email":    "more-staff@test.com",
		"password": "staffpass123",
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authRequest("POST", "/api/portal/staff", body, staffToken))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff inviting staff, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRemoveStaffResetsRole(t *testing.T) {
	db := freshDB()
	r := setupPortalRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "Staff Store", owner.ID)
	storeID := store.ID
	staffUser, _ := seedTestUser(db, "staff@test.com", "store_staff", &storeID)
	staff := seedStoreStaff(db, store.ID, staffUser.ID, "staff")
	_, token := seedStoreOwnerWithToken(db, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authRequest("DELETE", "/api/portal/staff/"+staff.ID.String(), nil, token))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var user models.User
	db.First(&user, "id = ?", staffUser.ID)
	if user.Role != "customer" {
		t.Errorf("expected role reset to customer, got %s", user.Role)
	}
	if user.StoreID != nil {
		t.Errorf("expected store binding cleared, got %v", user.StoreID)
	}
}

// ========== Dashboard ==========

func TestPortalDashboard(t *testing.T) {
	db := freshDB()
	r := setupPortalRouter(db)

	owner, _ := seedTestUser(db, "owner@test.com", "store_owner", nil)
	store := seedStore(db, "Dash Store", owner.ID)
	customer, _ := seedTestUser(db, "customer@test.com", "customer", nil)
	cat := seedCategory(db, store.ID, "Mains")
	prod := seedProduct(db, store.ID, cat.ID, "Item", 5.00)
	lowStock := seedProduct(db, store.ID, cat.ID, "Scarce", 3.00)
	db.Model(&lowStock).Update("stock", 2)
	seedOrder(db, customer.ID, store.ID, prod.ID, models.OrderStatusPending)
	seedOrder(db, customer.ID, store.ID, prod.ID, models.OrderStatusDelivered)
	_, token := seedStoreOwnerWithToken(db, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authRequest("GET", "/api/portal/dashboard", nil, token))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if resp["total_orders"].(float64) != 2 {
		t.Errorf("expected 2 orders, got %v", resp["total_orders"])
	}
	if resp["pending_orders"].(float64) != 1 {
		t.Errorf("expected 1 pending order, got %v", resp["pending_orders"])
	}
	if resp["low_stock_alerts"].(float64) != 1 {
		t.Errorf("expected 1 low stock alert, got %v", resp["low_stock_alerts"])
	}
}
