package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/accessgate/rbac-service/internal/core/domain"
	"github.com/accessgate/rbac-service/internal/core/ports"
)

func TestBulkHandler_UpdateSame(t *testing.T) {
	stub := &stubBulkService{
		uniformFn: func(ctx context.Context, filter domain.UserFilter, patch ports.UserPatch) (*ports.BulkResult, error) {
			if !reflect.DeepEqual(filter.Usernames, []string{"a", "b"}) || filter.Active == nil || !*filter.Active {
				t.Fatalf("unexpected filter: %+v", filter)
			}
			if patch.RoleID == nil || *patch.RoleID != "r1" {
				t.Fatalf("unexpected patch: %+v", patch)
			}
			return &ports.BulkResult{Matched: 2, Modified: 1}, nil
		},
	}
	c, rec := newContext(http.MethodPatch, "/api/users/bulk/update-same",
		`{"filter":{"usernames":["a","b"],"active":true},"update":{"roleId":"r1"}}`, "")

	if err := NewBulkHandler(stub, zerolog.Nop()).UpdateSame(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := rec.Body.String(); got != "{\"matched\":2,\"modified\":1}\n" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestBulkHandler_UpdateSame_Errors(t *testing.T) {
	stub := &stubBulkService{
		uniformFn: func(ctx context.Context, filter domain.UserFilter, patch ports.UserPatch) (*ports.BulkResult, error) {
			return nil, domain.Invalid("update is required")
		},
	}
	c, _ := newContext(http.MethodPost, "/api/users/bulk/update-same", `{"filter":{}}`, "")

	if err := NewBulkHandler(stub, zerolog.Nop()).UpdateSame(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	c, _ = newContext(http.MethodPost, "/api/users/bulk/update-same", `{"update":{"roleId":7}}`, "")
	if err := NewBulkHandler(&stubBulkService{}, zerolog.Nop()).UpdateSame(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("undecodable roleId should be rejected, got %v", err)
	}
}

func TestBulkHandler_UpdateDifferent_PerOperationResults(t *testing.T) {
	var logs bytes.Buffer
	stub := &stubBulkService{
		variedFn: func(ctx context.Context, ops []ports.BulkOperation) ([]ports.OperationResult, error) {
			if len(ops) != 4 {
				t.Fatalf("expected 4 ops, got %d", len(ops))
			}
			if !ops[2].Patch.IsEmpty() {
				t.Fatalf("undecodable op must be sent with an empty patch: %+v", ops[2].Patch)
			}
			return []ports.OperationResult{
				{Index: 0, Matched: 1, Modified: 1},
				{Index: 1, Err: domain.ErrRoleNotFound},
				{Index: 2, Err: domain.Invalid("update is required")},
				{Index: 3, Err: errors.New("connection reset")},
			}, nil
		},
	}
	body := `{"operations":[
		{"filter":{"ids":["u1"]},"update":{"firstName":"A"}},
		{"filter":{"ids":["u2"]},"update":{"roleId":"missing"}},
		{"filter":{"ids":["u3"]},"update":{"roleId":{"bad":true}}},
		{"filter":{"ids":["u4"]},"update":{"lastName":"D"}}
	]}`
	c, rec := newContext(http.MethodPost, "/api/users/bulk/update-different", body, "")

	if err := NewBulkHandler(stub, zerolog.New(&logs)).UpdateDifferent(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Results []struct {
			Index    int    `json:"index"`
			Matched  int64  `json:"matched"`
			Modified int64  `json:"modified"`
			Error    string `json:"error"`
		} `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(resp.Results))
	}

	want := []string{"", "Role not found", "roleId must be a string or null", "update failed"}
	for i, r := range resp.Results {
		if r.Index != i {
			t.Fatalf("result %d has index %d", i, r.Index)
		}
		if r.Error != want[i] {
			t.Fatalf("result %d: expected error %q, got %q", i, want[i], r.Error)
		}
	}
	if resp.Results[0].Modified != 1 {
		t.Fatalf("first op should report its write: %+v", resp.Results[0])
	}
	if !bytes.Contains(logs.Bytes(), []byte("connection reset")) {
		t.Fatalf("infrastructure failure should be logged: %s", logs.String())
	}
}

func TestBulkHandler_UpdateDifferent_RejectsEmpty(t *testing.T) {
	stub := &stubBulkService{
		variedFn: func(ctx context.Context, ops []ports.BulkOperation) ([]ports.OperationResult, error) {
			if len(ops) != 0 {
				t.Fatalf("expected no ops")
			}
			return nil, domain.Invalid("operations required")
		},
	}
	c, _ := newContext(http.MethodPost, "/api/users/bulk/update-different", `{}`, "")

	if err := NewBulkHandler(stub, zerolog.Nop()).UpdateDifferent(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBulkHandler_UpdateDifferent_ValidatesEachOperation(t *testing.T) {
	stub := &stubBulkService{
		variedFn: func(ctx context.Context, ops []ports.BulkOperation) ([]ports.OperationResult, error) {
			if len(ops) != 3 {
				t.Fatalf("expected 3 ops, got %d", len(ops))
			}
			if !ops[0].Patch.IsEmpty() || !ops[2].Patch.IsEmpty() {
				t.Fatalf("invalid ops must not carry their patch: %+v %+v", ops[0].Patch, ops[2].Patch)
			}
			if ops[1].Patch.FirstName == nil || *ops[1].Patch.FirstName != "B" {
				t.Fatalf("valid op must pass through: %+v", ops[1].Patch)
			}
			out := make([]ports.OperationResult, len(ops))
			for i, op := range ops {
				out[i] = ports.OperationResult{Index: i}
				if op.Patch.IsEmpty() {
					out[i].Err = domain.Invalid("update is required")
				} else {
					out[i].Matched, out[i].Modified = 1, 1
				}
			}
			return out, nil
		},
	}
	body := `{"operations":[
		{"filter":{"ids":["u1"]},"update":{"password":"a"}},
		{"filter":{"ids":["u2"]},"update":{"firstName":"B"}},
		{"filter":{"ids":["u3"]},"update":{"lastName":"` + strings.Repeat("x", 101) + `"}}
	]}`
	c, rec := newContext(http.MethodPost, "/api/users/bulk/update-different", body, "")

	if err := NewBulkHandler(stub, zerolog.Nop()).UpdateDifferent(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp struct {
		Results []struct {
			Index    int    `json:"index"`
			Modified int64  `json:"modified"`
			Error    string `json:"error"`
		} `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	want := []string{"password must be at least 6 characters", "", "lastName must be at most 100 characters"}
	if len(resp.Results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(resp.Results))
	}
	for i, r := range resp.Results {
		if r.Error != want[i] {
			t.Fatalf("result %d: expected error %q, got %q", i, want[i], r.Error)
		}
	}
	if resp.Results[1].Modified != 1 {
		t.Fatalf("valid op should still be applied: %+v", resp.Results[1])
	}
}

func TestBulkHandler_UpdateDifferent_EmptyIDsReachService(t *testing.T) {
	stub := &stubBulkService{
		variedFn: func(ctx context.Context, ops []ports.BulkOperation) ([]ports.OperationResult, error) {
			if ops[0].Filter.IDs == nil || len(ops[0].Filter.IDs) != 0 {
				t.Fatalf("an explicit empty id list must stay distinct from an absent one: %#v", ops[0].Filter.IDs)
			}
			if ops[1].Filter.IDs != nil {
				t.Fatalf("absent ids must stay unset: %#v", ops[1].Filter.IDs)
			}
			return []ports.OperationResult{{Index: 0}, {Index: 1, Matched: 2, Modified: 2}}, nil
		},
	}
	body := `{"operations":[{"filter":{"ids":[]},"update":{"active":false}},{"filter":{},"update":{"active":true}}]}`
	c, _ := newContext(http.MethodPost, "/api/users/bulk/update-different", body, "")

	if err := NewBulkHandler(stub, zerolog.Nop()).UpdateDifferent(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}
