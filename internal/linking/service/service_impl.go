package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/homelet/tenantlink/internal/linking/domain"
	"github.com/homelet/tenantlink/internal/observability/metrics"
	tenantdomain "github.com/homelet/tenantlink/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Tenants tenantdomain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	tenants tenantdomain.Repository
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("linking.service"),
		tenants: p.Tenants,
		metrics: p.Metrics,
	}
}

func (s *Service) Link(ctx context.Context, tenantID, userID snowflake.ID) (*domain.LinkResult, error) {
	if tenantID == 0 {
		return nil, domain.ErrTenantRequired
	}
	if userID == 0 {
		return nil, domain.ErrUserRequired
	}

	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if err := s.tenants.AssignUser(ctx, tenantID, userID); err != nil {
		if errors.Is(err, tenantdomain.ErrIdentityConflict) {
			s.metrics.RecordLinkAttempt(ctx, "identity_conflict")
			s.log.Warn("tenant already bound to another user",
				zap.Int64("tenant_id", int64(tenantID)),
			)
		}
		return nil, err
	}

	if err := s.tenants.EnsureAssociation(ctx, tenant.PropertyID, tenantID, ""); err != nil {
		return nil, err
	}

	s.metrics.RecordLinkAttempt(ctx, "linked")
	return &domain.LinkResult{
		TenantID:   tenantID,
		PropertyID: tenant.PropertyID,
	}, nil
}

func (s *Service) VerifyPropertyLink(ctx context.Context, callerUserID, propertyID snowflake.ID, claim domain.Claim) (*domain.LinkResult, error) {
	if callerUserID == 0 {
		return nil, domain.ErrUserRequired
	}
	if propertyID == 0 {
		return nil, domain.ErrPropertyRequired
	}
	if strings.TrimSpace(claim.Email) == "" {
		return nil, domain.ErrEmailRequired
	}
	if strings.TrimSpace(claim.Name) == "" {
		return nil, domain.ErrNameRequired
	}

	tenant, err := s.tenants.FindUnassignedByProperty(ctx, propertyID)
	if err != nil {
		if errors.Is(err, tenantdomain.ErrNotFound) {
			s.metrics.RecordLinkAttempt(ctx, "no_match")
			return nil, domain.ErrNoMatch
		}
		if errors.Is(err, tenantdomain.ErrAmbiguousTenant) {
			// Data-integrity condition. Log it for operators but never
			// tell the caller more than "no match".
			s.metrics.RecordLinkAttempt(ctx, "ambiguous")
			s.log.Warn("multiple unassigned tenant records for property",
				zap.Int64("property_id", int64(propertyID)),
			)
		}
		return nil, err
	}

	if !domain.MatchClaim(tenant, claim) {
		s.metrics.RecordLinkAttempt(ctx, "no_match")
		return nil, domain.ErrNoMatch
	}

	return s.Link(ctx, tenant.ID, callerUserID)
}
