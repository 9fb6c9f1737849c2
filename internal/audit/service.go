package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/toko-billing/internal/common"
	dbgen "github.com/noah-isme/toko-billing/internal/db/gen"
	"github.com/noah-isme/toko-billing/internal/obs"
	"github.com/noah-isme/toko-billing/internal/tenant"
)

// ActorKind represents the source of an audited action.
type ActorKind string

const (
	// ActorKindUser is an authenticated purchaser.
	ActorKindUser ActorKind = "user"
	// ActorKindMerchant is an authenticated merchant operator.
	ActorKindMerchant ActorKind = "merchant"
	// ActorKindSystem represents internal automated actions.
	ActorKindSystem ActorKind = "system"
	// ActorKindAnonymous represents unauthenticated actors.
	ActorKindAnonymous ActorKind = "anonymous"
)

// Actor describes the entity performing the action.
type Actor struct {
	Kind ActorKind
	ID   *string
}

// ActorFromContext derives the actor from the authentication context,
// preferring the merchant identity.
func ActorFromContext(ctx context.Context) Actor {
	if id, ok := common.MerchantID(ctx); ok {
		return Actor{Kind: ActorKindMerchant, ID: &id}
	}
	if id, ok := common.UserID(ctx); ok {
		return Actor{Kind: ActorKindUser, ID: &id}
	}
	return Actor{Kind: ActorKindAnonymous}
}

// Store defines the database operations required for auditing.
type Store interface {
	InsertAuditLog(ctx context.Context, arg dbgen.InsertAuditLogParams) (dbgen.AuditLog, error)
}

// Service persists audit logs for critical application flows.
type Service struct {
	Store        Store
	Enabled      bool
	SamplingRate float64
}

// Record persists an audit log entry when auditing is enabled. The store is
// taken from the request's tenant context.
func (s Service) Record(ctx context.Context, actor Actor, action, resourceType, resourceID string, req *http.Request, status int, metadata []byte) error {
	if !s.Enabled || !s.sampled() {
		return nil
	}
	if req == nil {
		return errors.New("audit: request is required")
	}
	if s.Store == nil {
		return errors.New("audit: store not configured")
	}

	route := obs.RoutePatternFromContext(req.Context())
	if route == "" {
		route = strings.TrimSpace(req.URL.Path)
	}
	storeID, _ := tenant.StoreFromContext(req.Context())
	if status == 0 {
		status = http.StatusOK
	}
	actorID := ""
	if actor.ID != nil {
		actorID = *actor.ID
	}
	requestID := middleware.GetReqID(req.Context())
	if requestID == "" {
		requestID = req.Header.Get(middleware.RequestIDHeader)
	}

	_, err := s.Store.InsertAuditLog(ctx, dbgen.InsertAuditLogParams{
		ActorKind:    string(normalizeActorKind(actor.Kind)),
		ActorUserID:  nullUUID(actorID),
		StoreID:      nullUUID(storeID),
		Action:       buildAction(action, req.Method, route),
		ResourceType: buildResource(resourceType, route),
		ResourceID:   nullText(resourceID),
		Method:       req.Method,
		Path:         req.URL.Path,
		Route:        nullText(route),
		Status:       int32(status),
		Ip:           nullText(common.ClientIP(req)),
		UserAgent:    nullText(req.UserAgent()),
		RequestID:    nullText(requestID),
		Metadata:     metadataOrQuery(metadata, req.URL.RawQuery),
	})
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (s Service) sampled() bool {
	if s.SamplingRate <= 0 || s.SamplingRate >= 1 {
		return true
	}
	return rand.Float64() < s.SamplingRate
}

func buildAction(action, method, route string) string {
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		return trimmed
	}
	if route == "" {
		route = "/"
	}
	return strings.ToUpper(strings.TrimSpace(method)) + " " + route
}

// buildResource falls back to the route below /api/v1, dotted.
func buildResource(resourceType, route string) string {
	if trimmed := strings.TrimSpace(resourceType); trimmed != "" {
		return trimmed
	}
	route = strings.Trim(strings.TrimPrefix(strings.TrimSpace(route), "/api/v1"), "/")
	if route == "" {
		return "unknown"
	}
	return strings.ReplaceAll(route, "/", ".")
}

func normalizeActorKind(kind ActorKind) ActorKind {
	switch kind {
	case ActorKindUser, ActorKindMerchant, ActorKindSystem:
		return kind
	default:
		return ActorKindAnonymous
	}
}

func nullUUID(s string) pgtype.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

func nullText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	return pgtype.Text{String: s, Valid: s != ""}
}

func metadataOrQuery(metadata []byte, query string) []byte {
	if len(metadata) > 0 {
		return metadata
	}
	if strings.TrimSpace(query) == "" {
		return nil
	}
	data, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil
	}
	return data
}
