package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gorm.io/gorm"

	"github.com/opsdeck/opsdeck/internal/catalog"
	"github.com/opsdeck/opsdeck/internal/database"
	"github.com/opsdeck/opsdeck/internal/middleware"
	"github.com/opsdeck/opsdeck/internal/services"
)

func newAPIMux(t *testing.T, db *gorm.DB) *http.ServeMux {
	mux := http.NewServeMux()
	NewAPIHandler(db, catalog.NewService(db), services.NewWorkOrderService(db)).SetupRoutes(mux)
	return mux
}

// submitOpenOccurrence drives a real submission so the occurrence and
// its work order exist the way production creates them.
func submitOpenOccurrence(t *testing.T, db *gorm.DB, assetID uint, title string) (*database.Occurrence, *database.WorkOrder) {
	coordinator := services.NewResolutionCoordinator(db, catalog.NewService(db))
	result, err := coordinator.Submit(context.Background(), services.Actor{Username: "tech-1", Role: "technician"}, &services.SubmissionRequest{
		AssetID:     assetID,
		Title:       title,
		ForceCreate: true,
	})
	if err != nil {
		t.Fatalf("failed to submit fixture report: %v", err)
	}
	if result.Occurrence == nil || result.WorkOrder == nil {
		t.Fatalf("fixture submission did not create occurrence and work order: %+v", result)
	}
	return result.Occurrence, result.WorkOrder
}

func withClaims(req *http.Request, role string, capabilities ...string) *http.Request {
	claims := &middleware.UserClaims{Username: "user-1", Role: role, Capabilities: capabilities}
	return req.WithContext(context.WithValue(req.Context(), middleware.UserContextKey, claims))
}

func TestOccurrenceEndpoints(t *testing.T) {
	db := setupTestDB(t)
	asset := seedAsset(t, db)
	occ, wo := submitOpenOccurrence(t, db, asset.ID, "Hydraulic fluid leaking near pump")
	mux := newAPIMux(t, db)

	// List with status filter.
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/occurrences?status=open", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var list struct {
		Data       []database.Occurrence `json:"data"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if len(list.Data) != 1 || list.Pagination.Total != 1 {
		t.Errorf("expected 1 open occurrence, got %d (total %d)", len(list.Data), list.Pagination.Total)
	}

	// Get by UUID includes the dispatched work order.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/occurrences/"+occ.UUID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var detail struct {
		Occurrence database.Occurrence `json:"occurrence"`
		WorkOrder  *database.WorkOrder `json:"workOrder"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if detail.Occurrence.UUID != occ.UUID {
		t.Errorf("got occurrence %s, want %s", detail.Occurrence.UUID, occ.UUID)
	}
	if detail.WorkOrder == nil || detail.WorkOrder.UUID != wo.UUID {
		t.Errorf("expected work order %s in detail response", wo.UUID)
	}

	// Report history.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/occurrences/"+occ.UUID+"/reports", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var reports []database.OccurrenceReport
	if err := json.Unmarshal(rec.Body.Bytes(), &reports); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if len(reports) != 1 {
		t.Errorf("expected 1 report, got %d", len(reports))
	}

	// Unknown UUID.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/occurrences/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestWorkOrderAssignEndpoint_RoleGated(t *testing.T) {
	db := setupTestDB(t)
	asset := seedAsset(t, db)
	_, wo := submitOpenOccurrence(t, db, asset.ID, "Hydraulic fluid leaking near pump")
	mux := newAPIMux(t, db)

	body := []byte(`{"assignee":"tech-2"}`)

	// A technician without the capability is refused.
	req := withClaims(httptest.NewRequest(http.MethodPost, "/api/workorders/"+wo.UUID+"/assign", bytes.NewReader(body)), "technician")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for technician, got %d: %s", rec.Code, rec.Body.String())
	}

	var wCount int64
	db.Model(&database.WorkOrder{}).Where("status = ?", database.WorkOrderStatusAssigned).Count(&wCount)
	if wCount != 0 {
		t.Fatal("denied assignment must not write")
	}

	// A supervisor passes the gate.
	req = withClaims(httptest.NewRequest(http.MethodPost, "/api/workorders/"+wo.UUID+"/assign", bytes.NewReader(body)), "supervisor")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for supervisor, got %d: %s", rec.Code, rec.Body.String())
	}

	var reloaded database.WorkOrder
	if err := db.Where("uuid = ?", wo.UUID).First(&reloaded).Error; err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if reloaded.Status != database.WorkOrderStatusAssigned || reloaded.Assignee != "tech-2" {
		t.Errorf("assignment did not stick: %+v", reloaded)
	}
	if reloaded.AssignedBy != "user-1" {
		t.Errorf("expected assigned_by user-1, got %s", reloaded.AssignedBy)
	}
}

func TestWorkOrderAssignEndpoint_ExplicitCapability(t *testing.T) {
	db := setupTestDB(t)
	asset := seedAsset(t, db)
	_, wo := submitOpenOccurrence(t, db, asset.ID, "Hydraulic fluid leaking near pump")
	mux := newAPIMux(t, db)

	req := withClaims(
		httptest.NewRequest(http.MethodPost, "/api/workorders/"+wo.UUID+"/assign", bytes.NewReader([]byte(`{"assignee":"tech-2"}`))),
		"technician", services.CapabilityAssignWorkOrders,
	)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected capability holder to pass, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestWorkOrderCompleteEndpoint(t *testing.T) {
	db := setupTestDB(t)
	asset := seedAsset(t, db)
	occ, wo := submitOpenOccurrence(t, db, asset.ID, "Hydraulic fluid leaking near pump")
	mux := newAPIMux(t, db)

	req := httptest.NewRequest(http.MethodPost, "/api/workorders/"+wo.UUID+"/complete", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var reloaded database.Occurrence
	if err := db.First(&reloaded, occ.ID).Error; err != nil {
		t.Fatalf("failed to reload occurrence: %v", err)
	}
	if reloaded.Status != database.OccurrenceStatusClosed {
		t.Errorf("expected occurrence closed after completion, got %s", reloaded.Status)
	}
}

func TestWorkOrderListEndpoint(t *testing.T) {
	db := setupTestDB(t)
	asset := seedAsset(t, db)
	submitOpenOccurrence(t, db, asset.ID, "Hydraulic fluid leaking near pump")
	mux := newAPIMux(t, db)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/workorders?status=pending", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var orders []database.WorkOrder
	if err := json.Unmarshal(rec.Body.Bytes(), &orders); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if len(orders) != 1 {
		t.Errorf("expected 1 pending work order, got %d", len(orders))
	}
}

func TestAssetEndpoints(t *testing.T) {
	db := setupTestDB(t)
	asset := seedAsset(t, db)
	comp := &database.AssetComponent{AssetID: asset.ID, Name: "Hydraulic Unit"}
	if err := db.Create(comp).Error; err != nil {
		t.Fatalf("failed to create component: %v", err)
	}
	mux := newAPIMux(t, db)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/assets", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var assets []database.Asset
	if err := json.Unmarshal(rec.Body.Bytes(), &assets); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if len(assets) != 1 {
		t.Errorf("expected 1 asset, got %d", len(assets))
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/assets/1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var detail database.Asset
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if len(detail.Components) != 1 {
		t.Errorf("expected hierarchy in asset detail, got %+v", detail.Components)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/assets/999", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown asset, got %d", rec.Code)
	}
}

func TestMatcherSettingsEndpoint(t *testing.T) {
	db := setupTestDB(t)
	mux := newAPIMux(t, db)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings/matcher", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var settings database.MatcherSettings
	if err := json.Unmarshal(rec.Body.Bytes(), &settings); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if settings.RelevanceFloor != 40 {
		t.Errorf("expected default relevance floor 40, got %d", settings.RelevanceFloor)
	}

	settings.RelevanceFloor = 55
	payload, _ := json.Marshal(settings)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/settings/matcher", bytes.NewReader(payload)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	reloaded, err := database.GetOrCreateMatcherSettings(db)
	if err != nil {
		t.Fatalf("failed to reload settings: %v", err)
	}
	if reloaded.RelevanceFloor != 55 {
		t.Errorf("update did not persist; relevance floor %d", reloaded.RelevanceFloor)
	}

	// Invalid values are rejected.
	settings.RelevanceFloor = 300
	payload, _ = json.Marshal(settings)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/settings/matcher", bytes.NewReader(payload)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for out-of-range floor, got %d", rec.Code)
	}
}
