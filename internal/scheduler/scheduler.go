// Package scheduler runs the invitation expiry sweep. Expiry is already
// enforced lazily on read; the sweep keeps stored statuses honest for
// reporting and listings.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/homelet/tenantlink/internal/clock"
	invitationdomain "github.com/homelet/tenantlink/internal/invitation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependencies")

type Params struct {
	fx.In

	Log    *zap.Logger
	Clock  clock.Clock
	Repo   invitationdomain.Repository
	Config Config `optional:"true"`
}

type Sweeper struct {
	log   *zap.Logger
	cfg   Config
	clock clock.Clock
	repo  invitationdomain.Repository
}

func New(p Params) (*Sweeper, error) {
	if p.Log == nil || p.Clock == nil || p.Repo == nil {
		return nil, ErrInvalidConfig
	}
	return &Sweeper{
		log:   p.Log.Named("scheduler").With(zap.String("component", "expiry_sweeper")),
		cfg:   p.Config.withDefaults(),
		clock: p.Clock,
		repo:  p.Repo,
	}, nil
}

// RunOnce performs a single bounded sweep.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	expired, err := s.repo.ExpireOverdue(ctx, s.clock.Now(), s.cfg.BatchSize)
	if err != nil {
		return err
	}
	if expired > 0 {
		s.log.Info("expired overdue invitations", zap.Int64("count", expired))
	}
	return nil
}

func (s *Sweeper) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("expiry sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
