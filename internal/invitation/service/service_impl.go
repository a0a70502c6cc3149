package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/homelet/tenantlink/internal/clock"
	"github.com/homelet/tenantlink/internal/config"
	"github.com/homelet/tenantlink/internal/invitation/domain"
	"github.com/homelet/tenantlink/internal/invitation/event"
	linkingdomain "github.com/homelet/tenantlink/internal/linking/domain"
	"github.com/homelet/tenantlink/internal/observability/metrics"
	propertydomain "github.com/homelet/tenantlink/internal/property/domain"
	"github.com/homelet/tenantlink/internal/providers/email"
	tenantdomain "github.com/homelet/tenantlink/internal/tenant/domain"
	"github.com/homelet/tenantlink/pkg/token"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// InviteTTL is how long a freshly issued invitation stays redeemable.
const InviteTTL = 7 * 24 * time.Hour

// deliveryTimeout bounds the outbound email call so a slow relay cannot
// stall invitation creation.
const deliveryTimeout = 10 * time.Second

type Params struct {
	fx.In

	Config     config.Config
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Tokens     *token.Generator
	Repo       domain.Repository
	Properties propertydomain.Repository
	Tenants    tenantdomain.Repository
	Linker     linkingdomain.Service
	Email      email.Provider
	Events     *event.Recorder
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	cfg        config.Config
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	tokens     *token.Generator
	repo       domain.Repository
	properties propertydomain.Repository
	tenants    tenantdomain.Repository
	linker     linkingdomain.Service
	email      email.Provider
	events     *event.Recorder
	metrics    *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		cfg:        p.Config,
		log:        p.Log.Named("invitation.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		tokens:     p.Tokens,
		repo:       p.Repo,
		properties: p.Properties,
		tenants:    p.Tenants,
		linker:     p.Linker,
		email:      p.Email,
		events:     p.Events,
		metrics:    p.Metrics,
	}
}

func (s *Service) Send(ctx context.Context, callerUserID snowflake.ID, req domain.SendRequest) (*domain.SendResponse, error) {
	if req.PropertyID == 0 {
		return nil, domain.ErrPropertyRequired
	}
	if req.TenantID == 0 {
		return nil, domain.ErrTenantRequired
	}
	addr := strings.TrimSpace(req.Email)
	if addr == "" {
		return nil, domain.ErrEmailRequired
	}

	owns, err := s.properties.IsOwner(ctx, callerUserID, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, domain.ErrForbidden
	}

	tenant, err := s.tenants.GetByID(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant.PropertyID != req.PropertyID {
		return nil, tenantdomain.ErrNotFound
	}

	property, err := s.properties.GetByID(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	inv := &domain.Invitation{
		ID:          s.genID.Generate(),
		PropertyID:  req.PropertyID,
		TenantID:    req.TenantID,
		OwnerUserID: callerUserID,
		Email:       addr,
		Token:       s.tokens.Generate(),
		Status:      domain.StatusPending,
		ExpiresAt:   now.Add(InviteTTL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, inv, req.Resend); err != nil {
		return nil, err
	}

	if err := s.recordEvent(ctx, inv, event.InvitationSentTopic); err != nil {
		s.log.Warn("failed to record invitation event", zap.Error(err))
	}

	delivered := true
	if err := s.deliver(ctx, inv, property, tenant); err != nil {
		delivered = false
		s.log.Warn("invitation email delivery failed",
			zap.Int64("invitation_id", int64(inv.ID)),
			zap.Error(err),
		)
	}

	s.metrics.RecordInvitationSent(ctx, delivered)

	return &domain.SendResponse{Invitation: inv, Delivered: delivered}, nil
}

func (s *Service) deliver(ctx context.Context, inv *domain.Invitation, property *propertydomain.Property, tenant *tenantdomain.Tenant) error {
	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	return s.email.SendTemplate(ctx, []string{inv.Email}, "tenant_invite", map[string]interface{}{
		"property_name": property.Name,
		"tenant_name":   tenant.Name,
		"invite_url":    s.cfg.InviteBaseURL + "/invite/" + inv.Token,
		"expires_at":    inv.ExpiresAt.Format("January 2, 2006"),
	})
}

// resolve fetches the invitation for a token and enforces the lifecycle
// checks shared by Verify, Accept and Decline. Expiry is lazy: a pending
// invitation past its deadline is transitioned here, on read.
func (s *Service) resolve(ctx context.Context, rawToken string) (*domain.Invitation, error) {
	tok := strings.TrimSpace(rawToken)
	if tok == "" {
		return nil, domain.ErrTokenRequired
	}

	inv, err := s.repo.FindByToken(ctx, tok)
	if err != nil {
		return nil, err
	}

	switch {
	case inv.Status == domain.StatusExpired:
		return nil, domain.ErrExpired
	case inv.Status.Terminal():
		return nil, domain.ErrAlreadyResolved
	case s.clock.Now().After(inv.ExpiresAt):
		switch err := s.repo.TransitionStatus(ctx, inv.ID, domain.StatusPending, domain.StatusExpired); {
		case err == nil:
			// This resolver won the transition, so it owns the event.
			inv.Status = domain.StatusExpired
			s.metrics.RecordInvitationResolved(ctx, "expired")
			if err := s.recordEvent(ctx, inv, event.InvitationExpiredTopic); err != nil {
				s.log.Warn("failed to record invitation event", zap.Error(err))
			}
		case !errors.Is(err, domain.ErrStatusConflict):
			return nil, err
		}
		return nil, domain.ErrExpired
	}

	return inv, nil
}

func (s *Service) Verify(ctx context.Context, rawToken string) (*domain.Summary, error) {
	inv, err := s.resolve(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	property, err := s.properties.GetByID(ctx, inv.PropertyID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.tenants.GetByID(ctx, inv.TenantID)
	if err != nil {
		return nil, err
	}

	return &domain.Summary{
		PropertyName:    property.Name,
		PropertyAddress: property.Address,
		PropertyType:    property.Type,
		TenantName:      tenant.Name,
		TenantEmail:     tenant.Email,
		TenantPhone:     tenant.Phone,
		OwnerContact:    property.ContactEmail,
		Status:          inv.Status,
		ExpiresAt:       inv.ExpiresAt,
	}, nil
}

func (s *Service) Accept(ctx context.Context, callerUserID snowflake.ID, rawToken string) (*domain.AcceptResponse, error) {
	if callerUserID == 0 {
		return nil, domain.ErrForbidden
	}

	inv, err := s.resolve(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	if err := s.repo.TransitionStatus(ctx, inv.ID, domain.StatusPending, domain.StatusAccepted); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			return nil, domain.ErrAlreadyResolved
		}
		return nil, err
	}
	inv.Status = domain.StatusAccepted

	s.metrics.RecordInvitationResolved(ctx, "accepted")
	if err := s.recordEvent(ctx, inv, event.InvitationAcceptedTopic); err != nil {
		s.log.Warn("failed to record invitation event", zap.Error(err))
	}

	// Accepting is the irreversible trust decision. A linking failure
	// leaves the invitation accepted; linking retries idempotently.
	if _, err := s.linker.Link(ctx, inv.TenantID, callerUserID); err != nil {
		s.log.Error("account linking failed after acceptance",
			zap.Int64("invitation_id", int64(inv.ID)),
			zap.Int64("tenant_id", int64(inv.TenantID)),
			zap.Error(err),
		)
		return nil, err
	}

	return &domain.AcceptResponse{
		Invitation: inv,
		TenantID:   inv.TenantID,
		PropertyID: inv.PropertyID,
	}, nil
}

func (s *Service) Decline(ctx context.Context, rawToken string) (*domain.Invitation, error) {
	inv, err := s.resolve(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	if err := s.repo.TransitionStatus(ctx, inv.ID, domain.StatusPending, domain.StatusDeclined); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			return nil, domain.ErrAlreadyResolved
		}
		return nil, err
	}
	inv.Status = domain.StatusDeclined

	s.metrics.RecordInvitationResolved(ctx, "declined")
	if err := s.recordEvent(ctx, inv, event.InvitationDeclinedTopic); err != nil {
		s.log.Warn("failed to record invitation event", zap.Error(err))
	}

	return inv, nil
}

func (s *Service) ListByProperty(ctx context.Context, callerUserID, propertyID snowflake.ID) ([]domain.Invitation, error) {
	if propertyID == 0 {
		return nil, domain.ErrPropertyRequired
	}

	owns, err := s.properties.IsOwner(ctx, callerUserID, propertyID)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, domain.ErrForbidden
	}

	return s.repo.ListByProperty(ctx, propertyID)
}

func (s *Service) recordEvent(ctx context.Context, inv *domain.Invitation, topic string) error {
	return s.events.Record(ctx, inv.PropertyID, topic, datatypes.JSONMap{
		"invitation_id": inv.ID.String(),
		"tenant_id":     inv.TenantID.String(),
		"status":        string(inv.Status),
	})
}
