// Package subscription resolves user plans and enforces plan quotas.
package subscription

import (
	"context"
	"fmt"

	"github.com/inkwell-dev/inkwell/internal/store"
)

// Service resolves subscription plans and checks plan limits before
// resource creation.
type Service struct {
	store     store.Store
	freeLimit int
}

// NewService creates a subscription service. freeLimit is the maximum number
// of posts a free-tier user may own.
func NewService(s store.Store, freeLimit int) *Service {
	return &Service{store: s, freeLimit: freeLimit}
}

// GetPlan returns the active plan for a user. A missing subscription row
// means the free tier.
func (s *Service) GetPlan(ctx context.Context, userID string) (Plan, error) {
	sub, err := s.store.GetSubscription(ctx, userID)
	if err != nil {
		return Plan{}, fmt.Errorf("get subscription: %w", err)
	}
	if sub == nil {
		return Plans["free"], nil
	}
	return Lookup(sub.Plan), nil
}

// Decision is the outcome of a quota check, inspected by the caller.
type Decision struct {
	Allowed bool
	Limit   int // quota that applied; 0 when no quota was checked
	Used    int // posts counted against the quota; 0 when no quota was checked
}

// CheckPostQuota decides whether the user may create another post.
// Pro plans are unlimited and skip the count entirely. The count and the
// subsequent insert are separate statements; concurrent creates from one user
// can transiently exceed the limit.
func (s *Service) CheckPostQuota(ctx context.Context, userID string) (Decision, error) {
	plan, err := s.GetPlan(ctx, userID)
	if err != nil {
		return Decision{}, err
	}
	if plan.IsPro {
		return Decision{Allowed: true}, nil
	}

	count, err := s.store.CountPostsByAuthor(ctx, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("count posts: %w", err)
	}

	return Decision{
		Allowed: count < s.freeLimit,
		Limit:   s.freeLimit,
		Used:    count,
	}, nil
}
