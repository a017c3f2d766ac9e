package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/accessgate/rbac-service/internal/api/metrics"
	"github.com/accessgate/rbac-service/internal/core/domain"
	"github.com/accessgate/rbac-service/internal/core/ports"
)

// BulkHandler exposes multi-user updates.
type BulkHandler struct {
	service ports.BulkService
	log     zerolog.Logger
}

func NewBulkHandler(service ports.BulkService, log zerolog.Logger) *BulkHandler {
	return &BulkHandler{service: service, log: log}
}

type updateSameRequest struct {
	Filter userFilterRequest `json:"filter"`
	Update userPatchRequest  `json:"update"`
}

type bulkOperationRequest struct {
	Filter userFilterRequest `json:"filter"`
	Update userPatchRequest  `json:"update"`
}

type updateDifferentRequest struct {
	Operations []bulkOperationRequest `json:"operations"`
}

type updateSameResponse struct {
	Matched  int64 `json:"matched"`
	Modified int64 `json:"modified"`
}

type operationResult struct {
	Index    int    `json:"index"`
	Matched  int64  `json:"matched"`
	Modified int64  `json:"modified"`
	Error    string `json:"error,omitempty"`
}

type updateDifferentResponse struct {
	Results []operationResult `json:"results"`
}

// UpdateSame applies one update to every user matching the filter. An empty
// filter matches all users.
//
// @Summary      Uniform bulk update
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateSameRequest  true  "Filter and update"
// @Success      200   {object}  updateSameResponse
// @Failure      400   {object}  messageResponse
// @Router       /users/bulk/update-same [post]
// @Router       /users/bulk/update-same [patch]
func (h *BulkHandler) UpdateSame(c echo.Context) error {
	var req updateSameRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	patch, err := req.Update.toPatch()
	if err != nil {
		return err
	}

	res, err := h.service.UpdateManyUniform(c.Request().Context(), req.Filter.toDomain(), patch)
	if err != nil {
		metrics.BulkOperationsTotal.WithLabelValues("uniform", "failed").Inc()
		return err
	}

	metrics.BulkOperationsTotal.WithLabelValues("uniform", "ok").Inc()
	metrics.BulkRecordsModifiedTotal.WithLabelValues("uniform").Add(float64(res.Modified))
	return c.JSON(http.StatusOK, updateSameResponse{Matched: res.Matched, Modified: res.Modified})
}

// UpdateDifferent applies a distinct update per filter. Each operation
// reports its own outcome; failures do not affect the others.
//
// @Summary      Varied bulk update
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateDifferentRequest  true  "Operations"
// @Success      200   {object}  updateDifferentResponse
// @Failure      400   {object}  messageResponse
// @Router       /users/bulk/update-different [post]
// @Router       /users/bulk/update-different [patch]
func (h *BulkHandler) UpdateDifferent(c echo.Context) error {
	var req updateDifferentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ops := make([]ports.BulkOperation, len(req.Operations))
	// An operation that fails validation or cannot be decoded is sent with an
	// empty patch, which the service rejects without writing, and reported
	// with its own error.
	decodeErrs := make(map[int]error)
	for i := range req.Operations {
		op := &req.Operations[i]
		patch, err := h.decodeOperation(c, op)
		if err != nil {
			decodeErrs[i] = err
			patch = ports.UserPatch{}
		}
		ops[i] = ports.BulkOperation{Filter: op.Filter.toDomain(), Patch: patch}
	}

	results, err := h.service.UpdateManyVaried(c.Request().Context(), ops)
	if err != nil {
		return err
	}

	resp := updateDifferentResponse{Results: make([]operationResult, 0, len(results))}
	var modified int64
	for _, r := range results {
		out := operationResult{Index: r.Index, Matched: r.Matched, Modified: r.Modified}
		opErr := r.Err
		if decodeErr, ok := decodeErrs[r.Index]; ok {
			out.Matched, out.Modified, opErr = 0, 0, decodeErr
		}
		if opErr != nil {
			out.Error = h.operationError(opErr, r.Index)
			metrics.BulkOperationsTotal.WithLabelValues("varied", "failed").Inc()
		} else {
			modified += out.Modified
			metrics.BulkOperationsTotal.WithLabelValues("varied", "ok").Inc()
		}
		resp.Results = append(resp.Results, out)
	}
	metrics.BulkRecordsModifiedTotal.WithLabelValues("varied").Add(float64(modified))

	return c.JSON(http.StatusOK, resp)
}

func (h *BulkHandler) decodeOperation(c echo.Context, op *bulkOperationRequest) (ports.UserPatch, error) {
	if err := c.Validate(op); err != nil {
		return ports.UserPatch{}, err
	}
	return op.Update.toPatch()
}

// operationError returns the client-facing text for a failed operation.
// Infrastructure errors are logged and replaced by a generic message.
func (h *BulkHandler) operationError(err error, index int) string {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, domain.ErrRoleNotFound):
		return "Role not found"
	default:
		h.log.Error().Err(err).Int("index", index).Msg("bulk operation failed")
		return "update failed"
	}
}
