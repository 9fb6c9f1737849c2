package audit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/noah-isme/toko-billing/internal/common"
	dbgen "github.com/noah-isme/toko-billing/internal/db/gen"
	"github.com/noah-isme/toko-billing/internal/obs"
	"github.com/noah-isme/toko-billing/internal/tenant"
)

type stubStore struct {
	lastInsert dbgen.InsertAuditLogParams
	calls      int
}

func (s *stubStore) InsertAuditLog(_ context.Context, arg dbgen.InsertAuditLogParams) (dbgen.AuditLog, error) {
	s.calls++
	s.lastInsert = arg
	return dbgen.AuditLog{}, nil
}

func TestServiceRecord(t *testing.T) {
	store := &stubStore{}
	svc := Service{Store: store, Enabled: true, SamplingRate: 1}
	merchantID := uuid.NewString()
	storeID := uuid.NewString()

	req := httptest.NewRequest(http.MethodPost, "https://api.test/api/v1/integrations/payment-gateway?dry=1", nil)
	req.Header.Set("User-Agent", "tester")
	req.Header.Set("X-Request-ID", "req-123")
	req.RemoteAddr = "10.0.0.2:54321"
	ctx := common.WithMerchantID(req.Context(), merchantID)
	ctx = tenant.WithStore(ctx, storeID)
	ctx = obs.WithRoutePattern(ctx, "/api/v1/integrations/payment-gateway")
	req = req.WithContext(ctx)

	if err := svc.Record(req.Context(), ActorFromContext(req.Context()), "", "", "", req, http.StatusCreated, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected one insert, got %d", store.calls)
	}
	got := store.lastInsert
	if got.ActorKind != string(ActorKindMerchant) {
		t.Fatalf("unexpected actor kind: %s", got.ActorKind)
	}
	if common.UUIDString(got.ActorUserID) != merchantID {
		t.Fatalf("unexpected actor id: %s", common.UUIDString(got.ActorUserID))
	}
	if common.UUIDString(got.StoreID) != storeID {
		t.Fatalf("unexpected store id: %s", common.UUIDString(got.StoreID))
	}
	if got.Action != "POST /api/v1/integrations/payment-gateway" {
		t.Fatalf("unexpected action: %s", got.Action)
	}
	if got.ResourceType != "integrations.payment-gateway" {
		t.Fatalf("unexpected resource type: %s", got.ResourceType)
	}
	if got.Status != http.StatusCreated {
		t.Fatalf("unexpected status: %d", got.Status)
	}
	if !got.Ip.Valid || got.Ip.String != "10.0.0.2" {
		t.Fatalf("expected ip capture, got %+v", got.Ip)
	}
	if !got.RequestID.Valid || got.RequestID.String != "req-123" {
		t.Fatalf("expected request id, got %+v", got.RequestID)
	}
	var meta map[string]string
	if err := json.Unmarshal(got.Metadata, &meta); err != nil {
		t.Fatalf("metadata json: %v", err)
	}
	if meta["query"] != "dry=1" {
		t.Fatalf("unexpected metadata query: %s", meta["query"])
	}
}

func TestServiceRecordDisabled(t *testing.T) {
	store := &stubStore{}
	svc := Service{Store: store, Enabled: false}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if err := svc.Record(req.Context(), Actor{}, "", "", "", req, http.StatusOK, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if store.calls != 0 {
		t.Fatal("expected no insert when disabled")
	}
}

func TestActorFromContext(t *testing.T) {
	ctx := context.Background()
	if got := ActorFromContext(ctx); got.Kind != ActorKindAnonymous {
		t.Fatalf("expected anonymous, got %s", got.Kind)
	}
	ctx = common.WithUserID(ctx, "u1")
	if got := ActorFromContext(ctx); got.Kind != ActorKindUser || *got.ID != "u1" {
		t.Fatalf("expected user actor, got %+v", got)
	}
	ctx = common.WithMerchantID(ctx, "m1")
	if got := ActorFromContext(ctx); got.Kind != ActorKindMerchant || *got.ID != "m1" {
		t.Fatalf("expected merchant actor, got %+v", got)
	}
}

func TestHTTPRecorderCapturesStatus(t *testing.T) {
	store := &stubStore{}
	svc := &Service{Store: store, Enabled: true}
	var recordErr error
	mw := HTTPRecorder{Service: svc, OnError: func(err error) { recordErr = err }}.Middleware(HTTPConfig{
		Action:       "payment_gateway.update",
		ResourceType: "store_settings",
		MetadataFunc: func(_ *http.Request, status int) map[string]any {
			return map[string]any{"status": status}
		},
	})
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	req := httptest.NewRequest(http.MethodPost, "/integrations/payment-gateway", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if recordErr != nil {
		t.Fatalf("record: %v", recordErr)
	}
	if store.lastInsert.Action != "payment_gateway.update" || store.lastInsert.Status != http.StatusBadRequest {
		t.Fatalf("unexpected entry: %+v", store.lastInsert)
	}
	if string(store.lastInsert.Metadata) != `{"status":400}` {
		t.Fatalf("unexpected metadata: %s", store.lastInsert.Metadata)
	}
}

func TestHTTPRecorderRecordsFieldNamesOnly(t *testing.T) {
	store := &stubStore{}
	svc := &Service{Store: store, Enabled: true}
	var seen string
	mw := HTTPRecorder{Service: svc}.Middleware(HTTPConfig{
		Action:       "integration.payment_gateway.update",
		ResourceType: "payment_gateway",
		BodyFields:   true,
	})
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		seen = string(raw)
		w.WriteHeader(http.StatusOK)
	}))
	body := `{"secretKey":"sk_live_123","publishableKey":"pk_live_1"}`
	req := httptest.NewRequest(http.MethodPost, "/integrations/payment-gateway", strings.NewReader(body))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != body {
		t.Fatalf("handler saw %q", seen)
	}
	if strings.Contains(string(store.lastInsert.Metadata), "sk_live_123") {
		t.Fatalf("secret leaked into metadata: %s", store.lastInsert.Metadata)
	}
	var meta map[string]any
	if err := json.Unmarshal(store.lastInsert.Metadata, &meta); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta["outcome"] != "applied" {
		t.Fatalf("unexpected outcome %v", meta["outcome"])
	}
	fields, _ := meta["fields"].([]any)
	if len(fields) != 2 || fields[0] != "publishableKey" || fields[1] != "secretKey" {
		t.Fatalf("unexpected fields %v", meta["fields"])
	}
}

func TestHTTPRecorderRejectedOutcome(t *testing.T) {
	store := &stubStore{}
	mw := HTTPRecorder{Service: &Service{Store: store, Enabled: true}}.Middleware(HTTPConfig{BodyFields: true})
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	req := httptest.NewRequest(http.MethodPost, "/integrations/payment-gateway", strings.NewReader("not json"))
	h.ServeHTTP(httptest.NewRecorder(), req)
	if string(store.lastInsert.Metadata) != `{"fields":[],"outcome":"rejected"}` {
		t.Fatalf("unexpected metadata: %s", store.lastInsert.Metadata)
	}
}
