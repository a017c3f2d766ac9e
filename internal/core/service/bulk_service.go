package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/accessgate/rbac-service/internal/core/domain"
	"github.com/accessgate/rbac-service/internal/core/ports"
)

const (
	defaultBulkConcurrency = 4
	maxBulkOperations      = 500
)

// BulkService applies updates across many users. Failures are per operation;
// nothing is rolled back.
type BulkService struct {
	users       ports.UserRepository
	patches     patchResolver
	concurrency int
	log         zerolog.Logger
}

func NewBulkService(users ports.UserRepository, roles ports.RoleRepository, hasher ports.PasswordHasher, log zerolog.Logger) *BulkService {
	return &BulkService{
		users:       users,
		patches:     patchResolver{roles: roles, hasher: hasher},
		concurrency: defaultBulkConcurrency,
		log:         log,
	}
}

// UpdateManyUniform applies one patch to every user matching filter. The
// password, if any, is hashed once before the single batched write.
func (s *BulkService) UpdateManyUniform(ctx context.Context, filter domain.UserFilter, patch ports.UserPatch) (*ports.BulkResult, error) {
	if patch.IsEmpty() {
		return nil, domain.Invalid("update is required")
	}

	changes, err := s.patches.resolve(ctx, patch)
	if err != nil {
		return nil, fmt.Errorf("update many uniform: %w", err)
	}

	if isMatchAll(filter) {
		s.log.Warn().Msg("bulk update with empty filter applies to every user")
	}

	res, err := s.users.UpdateMany(ctx, filter, changes)
	if err != nil {
		return nil, fmt.Errorf("update many uniform: %w", err)
	}

	s.log.Info().Int64("matched", res.Matched).Int64("modified", res.Modified).Msg("bulk uniform update applied")
	return res, nil
}

// UpdateManyVaried applies a distinct patch per filter. Each operation hashes
// its own password and writes its own changes; results keep input order.
func (s *BulkService) UpdateManyVaried(ctx context.Context, ops []ports.BulkOperation) ([]ports.OperationResult, error) {
	if len(ops) == 0 {
		return nil, domain.Invalid("operations required")
	}
	if len(ops) > maxBulkOperations {
		return nil, domain.Invalid("at most %d operations are allowed", maxBulkOperations)
	}

	results := make([]ports.OperationResult, len(ops))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, op := range ops {
		g.Go(func() error {
			results[i] = s.apply(ctx, i, op)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.log.Info().Int("operations", len(ops)).Int("failed", failed).Msg("bulk varied update applied")

	return results, nil
}

func (s *BulkService) apply(ctx context.Context, index int, op ports.BulkOperation) ports.OperationResult {
	res := ports.OperationResult{Index: index}

	if op.Patch.IsEmpty() {
		res.Err = domain.Invalid("update is required")
		return res
	}

	changes, err := s.patches.resolve(ctx, op.Patch)
	if err != nil {
		res.Err = err
		return res
	}

	counts, err := s.users.UpdateMany(ctx, op.Filter, changes)
	if err != nil {
		s.log.Warn().Err(err).Int("index", index).Msg("bulk operation failed")
		res.Err = err
		return res
	}

	res.Matched = counts.Matched
	res.Modified = counts.Modified
	return res
}

func isMatchAll(f domain.UserFilter) bool {
	return f.IDs == nil && f.Usernames == nil && f.Emails == nil && f.RoleID == "" && f.Active == nil
}
