package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const cliSecret = "cli-secret"

func cliToken(t *testing.T, id, role string) string {
	t.Helper()
	return cliTokenWithSecret(t, id, role, cliSecret)
}

func cliTokenWithSecret(t *testing.T, id, role, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":      id,
		"email":   id + "@example.com",
		"role":    role,
		"purpose": "access",
		"exp":     time.Now().Add(5 * time.Minute).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"gatectl"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(stderr.String(), "usage:") {
		t.Fatalf("expected usage output")
	}
}

func TestRun_Verify(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", cliSecret)
	var stdout, stderr bytes.Buffer
	code := run([]string{"gatectl", "verify", "--token", cliToken(t, "u1", "user")}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	var claims map[string]string
	if err := json.Unmarshal(stdout.Bytes(), &claims); err != nil {
		t.Fatalf("decode claims: %v", err)
	}
	if claims["id"] != "u1" || claims["role"] != "user" {
		t.Fatalf("unexpected claims %v", claims)
	}
}

func TestRun_VerifyReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gatekeeper.yaml")
	if err := os.WriteFile(path, []byte("jwt_access_secret: file-secret\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_ACCESS_SECRET", "")

	var stdout, stderr bytes.Buffer
	code := run([]string{"gatectl", "verify", "--token", cliTokenWithSecret(t, "u1", "user", "file-secret")}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), `"id": "u1"`) {
		t.Fatalf("unexpected output %s", stdout.String())
	}
}

func TestRun_VerifyRejectsInvalidConfig(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_ACCESS_SECRET", cliSecret)
	t.Setenv("LOG_FORMAT", "xml")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"gatectl", "verify", "--token", cliToken(t, "u1", "user")}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "LOG_FORMAT") {
		t.Fatalf("expected validation error, got %s", stderr.String())
	}
}

func TestRun_AuthorizeAppliesStatusPolicy(t *testing.T) {
	dir := t.TempDir()
	module := `package gatekeeper.account

import rego.v1

default allow := false

allow if input.account.status == "Active"
`
	if err := os.WriteFile(filepath.Join(dir, "status.rego"), []byte(module), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_ACCESS_SECRET", cliSecret)
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("STATUS_POLICY_PATH", dir)
	seed := "u2:Active:admin,u4:Suspended:admin"

	var stdout, stderr bytes.Buffer
	args := []string{"gatectl", "authorize", "--token", cliToken(t, "u4", "admin"), "--roles", "admin", "--seed", seed}
	if code := run(args, &stdout, &stderr); code != 1 {
		t.Fatalf("expected suspended account to be rejected, got %d: %s", code, stdout.String())
	}

	stdout.Reset()
	args = []string{"gatectl", "authorize", "--token", cliToken(t, "u2", "admin"), "--roles", "admin", "--seed", seed}
	if code := run(args, &stdout, &stderr); code != 0 {
		t.Fatalf("expected active account to proceed, got %d: %s", code, stderr.String())
	}
}

func TestRun_Authorize(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", cliSecret)
	t.Setenv("POSTGRES_DSN", "")
	seed := "u2:Active:admin,u3:Banned:admin"

	tests := []struct {
		name     string
		id       string
		roles    string
		wantCode int
		want     string
	}{
		{name: "active admin", id: "u2", roles: "admin", wantCode: 0, want: "proceed"},
		{name: "banned admin", id: "u3", roles: "admin", wantCode: 1, want: "reject"},
		{name: "unknown account", id: "u9", roles: "admin,user", wantCode: 1, want: "reject"},
		{name: "role outside set", id: "u2", roles: "user", wantCode: 1, want: "reject"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			args := []string{"gatectl", "authorize", "--token", cliToken(t, tt.id, "admin"), "--roles", tt.roles, "--seed", seed}
			if code := run(args, &stdout, &stderr); code != tt.wantCode {
				t.Fatalf("expected exit %d, got %d: %s", tt.wantCode, code, stderr.String())
			}
			var out authorizeOutput
			if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
				t.Fatalf("decode output: %v", err)
			}
			if out.Decision != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, out.Decision)
			}
			if tt.want == "reject" && out.Identity != nil {
				t.Fatalf("rejected output must not carry an identity")
			}
		})
	}
}

func TestRun_PolicyEval(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"gatectl", "policy", "eval", "--status", "Active"}, &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "eligible=true") {
		t.Fatalf("unexpected output %s", stdout.String())
	}
	stdout.Reset()
	if code := run([]string{"gatectl", "policy", "eval", "--status", "Banned"}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit 1 for banned, got %d", code)
	}
}
