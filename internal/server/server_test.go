package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/homelet/tenantlink/internal/clock"
	"github.com/homelet/tenantlink/internal/config"
	invitationdomain "github.com/homelet/tenantlink/internal/invitation/domain"
	"github.com/homelet/tenantlink/internal/invitation/event"
	invitationrepo "github.com/homelet/tenantlink/internal/invitation/repository"
	invitationservice "github.com/homelet/tenantlink/internal/invitation/service"
	linkingservice "github.com/homelet/tenantlink/internal/linking/service"
	"github.com/homelet/tenantlink/internal/observability"
	propertydomain "github.com/homelet/tenantlink/internal/property/domain"
	propertyrepo "github.com/homelet/tenantlink/internal/property/repository"
	"github.com/homelet/tenantlink/internal/providers/email"
	tenantdomain "github.com/homelet/tenantlink/internal/tenant/domain"
	tenantrepo "github.com/homelet/tenantlink/internal/tenant/repository"
	"github.com/homelet/tenantlink/pkg/token"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type testHarness struct {
	server *Server
	engine *gin.Engine
	db     *gorm.DB
	node   *snowflake.Node

	ownerID    snowflake.ID
	propertyID snowflake.ID
	tenantID   snowflake.ID
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_server_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&propertydomain.Property{},
		&tenantdomain.Tenant{},
		&tenantdomain.PropertyTenant{},
		&invitationdomain.Invitation{},
		&event.InvitationEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, _ := snowflake.NewNode(6)
	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	cfg := config.Config{
		HTTPAddr:      ":0",
		InviteBaseURL: "https://app.example.com",
		AuthJWTSecret: testJWTSecret,
	}

	properties := propertyrepo.NewRepository(db)
	tenants := tenantrepo.NewRepository(db, node)
	repo := invitationrepo.NewRepository(db, clk)
	linker := linkingservice.New(linkingservice.Params{
		Log:     zap.NewNop(),
		Tenants: tenants,
	})
	invSvc := invitationservice.New(invitationservice.Params{
		Config:     cfg,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      clk,
		Tokens:     token.NewGenerator(),
		Repo:       repo,
		Properties: properties,
		Tenants:    tenants,
		Linker:     linker,
		Email:      &email.NoOpProvider{},
		Events:     event.NewRecorder(db, node),
	})

	engine := NewEngine(observability.Config{LogLevel: "error", Environment: "test"})
	srv := NewServer(ServerParams{
		Gin:           engine,
		Cfg:           cfg,
		GenID:         node,
		InvitationSvc: invSvc,
		LinkingSvc:    linker,
	})

	h := &testHarness{
		server:     srv,
		engine:     engine,
		db:         db,
		node:       node,
		ownerID:    node.Generate(),
		propertyID: node.Generate(),
		tenantID:   node.Generate(),
	}

	if err := db.Create(&propertydomain.Property{
		ID:           h.propertyID,
		OwnerUserID:  h.ownerID,
		Name:         "Maple Court",
		Address:      "12 Maple St",
		Type:         "apartment",
		ContactEmail: "owner@example.com",
	}).Error; err != nil {
		t.Fatalf("seed property: %v", err)
	}
	if err := db.Create(&tenantdomain.Tenant{
		ID:         h.tenantID,
		PropertyID: h.propertyID,
		Name:       "Jane Doe",
		Email:      "t@x.com",
		Phone:      "555-0100",
	}).Error; err != nil {
		t.Fatalf("seed tenant: %v", err)
	}

	return h
}

// lookupToken reads the stored token directly; API responses never
// include it.
func (h *testHarness) lookupToken(t *testing.T) string {
	t.Helper()

	var inv invitationdomain.Invitation
	if err := h.db.Where("tenant_id = ?", h.tenantID).Order("created_at desc").First(&inv).Error; err != nil {
		t.Fatalf("lookup token: %v", err)
	}
	return inv.Token
}

func bearerToken(t *testing.T, userID snowflake.ID) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + signed
}

func (h *testHarness) do(t *testing.T, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

func errorType(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var resp struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp.Error.Type
}

func TestSendInvitationRequiresAuth(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(t, http.MethodPost, "/api/invitations", "", gin.H{
		"property_id": h.propertyID.String(),
		"tenant_id":   h.tenantID.String(),
		"email":       "t@x.com",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorType(t, rec))
}

func TestVerifyUnknownTokenReturnsNotFound(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(t, http.MethodGet, "/api/invitations/tok_unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "invalid_token", errorType(t, rec))
}

func TestInvitationHTTPFlow(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(t, http.MethodPost, "/api/invitations", bearerToken(t, h.ownerID), gin.H{
		"property_id": h.propertyID.String(),
		"tenant_id":   h.tenantID.String(),
		"email":       "t@x.com",
	})
	if !assert.Equal(t, http.StatusCreated, rec.Code) {
		t.Fatalf("send body: %s", rec.Body.String())
	}

	var created struct {
		Invitation struct {
			Status string `json:"status"`
		} `json:"invitation"`
		Delivered bool `json:"delivered"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create body: %v", err)
	}
	assert.Equal(t, "pending", created.Invitation.Status)
	assert.True(t, created.Delivered)

	inviteToken := h.lookupToken(t)

	rec = h.do(t, http.MethodGet, "/api/invitations/"+inviteToken, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var summary struct {
		PropertyName string `json:"property_name"`
		TenantName   string `json:"tenant_name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	assert.Equal(t, "Maple Court", summary.PropertyName)
	assert.Equal(t, "Jane Doe", summary.TenantName)

	u1 := h.node.Generate()
	rec = h.do(t, http.MethodPost, "/api/invitations/"+inviteToken+"/accept", bearerToken(t, u1), nil)
	if !assert.Equal(t, http.StatusOK, rec.Code) {
		t.Fatalf("accept body: %s", rec.Body.String())
	}

	u2 := h.node.Generate()
	rec = h.do(t, http.MethodPost, "/api/invitations/"+inviteToken+"/accept", bearerToken(t, u2), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_resolved", errorType(t, rec))
}

func TestListInvitationsForbiddenForNonOwner(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(t, http.MethodGet, "/api/properties/"+h.propertyID.String()+"/invitations", bearerToken(t, h.node.Generate()), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", errorType(t, rec))
}

func TestPropertyLinkNoMatch(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(t, http.MethodPost, "/api/property-link", bearerToken(t, h.node.Generate()), gin.H{
		"property_id": h.propertyID.String(),
		"name":        "Jane Doe",
		"email":       "wrong@example.com",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no_match", errorType(t, rec))
}

func TestPropertyLinkMatches(t *testing.T) {
	h := newTestHarness(t)

	userID := h.node.Generate()
	rec := h.do(t, http.MethodPost, "/api/property-link", bearerToken(t, userID), gin.H{
		"property_id": h.propertyID.String(),
		"name":        "jane doe",
		"email":       "T@X.COM",
	})
	if !assert.Equal(t, http.StatusOK, rec.Code) {
		t.Fatalf("link body: %s", rec.Body.String())
	}

	var result struct {
		TenantID string `json:"tenant_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode link body: %v", err)
	}
	assert.Equal(t, h.tenantID.String(), result.TenantID)
}
