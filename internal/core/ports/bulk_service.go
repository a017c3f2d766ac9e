package ports

import (
	"context"

	"github.com/accessgate/rbac-service/internal/core/domain"
)

// BulkResult reports the outcome of a multi-record write.
type BulkResult struct {
	Matched  int64
	Modified int64
}

// BulkOperation pairs a filter with the patch applied to its matches.
type BulkOperation struct {
	Filter domain.UserFilter
	Patch  UserPatch
}

// OperationResult is the independent outcome of one BulkOperation.
type OperationResult struct {
	Index    int
	Matched  int64
	Modified int64
	Err      error
}

type BulkService interface {
	UpdateManyUniform(ctx context.Context, filter domain.UserFilter, patch UserPatch) (*BulkResult, error)
	// UpdateManyVaried never fails as a whole once input is accepted; each
	// operation's error is reported in its own OperationResult.
	UpdateManyVaried(ctx context.Context, ops []BulkOperation) ([]OperationResult, error)
}
