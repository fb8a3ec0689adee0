package policyopa

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/domain"
)

func TestDefaultStatusPolicy(t *testing.T) {
	policy, err := NewDefaultStatusPolicy(context.Background())
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	if policy.Revision() == "" {
		t.Fatalf("expected revision to be set")
	}

	tests := []struct {
		status domain.AccountStatus
		want   bool
	}{
		{status: domain.AccountStatusActive, want: true},
		{status: domain.AccountStatusPending, want: true},
		{status: domain.AccountStatusSuspended, want: true},
		{status: "Archived", want: true},
		{status: domain.AccountStatusBanned, want: false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			got, err := policy.Eligible(context.Background(), domain.AccountRecord{ID: "u1", Status: tt.status})
			if err != nil {
				t.Fatalf("eligible: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v for %s, got %v", tt.want, tt.status, got)
			}
		})
	}
}

func TestStatusPolicyFromPath_AllowList(t *testing.T) {
	dir := t.TempDir()
	module := `package gatekeeper.account

import rego.v1

default allow := false

allowed_statuses := {"Active", "Pending"}

allow if input.account.status in allowed_statuses
`
	if err := os.WriteFile(filepath.Join(dir, "status.rego"), []byte(module), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	policy, err := NewStatusPolicyFromPath(context.Background(), dir)
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}

	ok, err := policy.Eligible(context.Background(), domain.AccountRecord{ID: "u1", Status: domain.AccountStatusPending})
	if err != nil || !ok {
		t.Fatalf("expected pending to be allowed, got %v %v", ok, err)
	}
	ok, err = policy.Eligible(context.Background(), domain.AccountRecord{ID: "u1", Status: domain.AccountStatusSuspended})
	if err != nil || ok {
		t.Fatalf("expected suspended to be denied, got %v %v", ok, err)
	}
}

func TestStatusPolicy_ForbiddenBuiltins(t *testing.T) {
	module := `package gatekeeper.account

import rego.v1

allow if {
	resp := http.send({"method": "GET", "url": "https://example.com"})
	resp.status_code == 200
}
`
	if _, err := NewStatusPolicyFromSource(context.Background(), "net.rego", module); err == nil {
		t.Fatalf("expected policy using http.send to be rejected")
	}
}

func TestComputeRevisionFromPath_Stable(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.rego"), []byte("package a\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	first, err := ComputeRevisionFromPath(dir)
	if err != nil {
		t.Fatalf("revision: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("changed"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	second, err := ComputeRevisionFromPath(dir)
	if err != nil {
		t.Fatalf("revision: %v", err)
	}
	if first != second {
		t.Fatalf("expected non-policy files to be ignored")
	}
	if err := os.WriteFile(filepath.Join(dir, "a.rego"), []byte("package b\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	third, err := ComputeRevisionFromPath(dir)
	if err != nil {
		t.Fatalf("revision: %v", err)
	}
	if third == first {
		t.Fatalf("expected revision to change with policy content")
	}
}
