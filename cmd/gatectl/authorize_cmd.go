package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/config"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/domain"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/infra/accountmem"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/infra/auth/accesstoken"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/infra/auth/rbac"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/infra/db"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/infra/logging"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/infra/policyopa"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/usecase"
)

type authorizeOutput struct {
	Decision string               `json:"decision"`
	Identity *domain.AccessClaims `json:"identity,omitempty"`
}

// runAuthorize runs the full gate once. Rejection causes are written to
// stderr as debug logs; stdout only ever shows the opaque decision.
func runAuthorize(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("authorize", flag.ContinueOnError)
	fs.SetOutput(stderr)
	token := fs.String("token", "", "access token")
	roles := fs.String("roles", "", "comma separated allowed roles")
	seed := fs.String("seed", "", "in-memory accounts (id:status[:role],...) used instead of the database")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	allowed, err := domain.ParseRoleSet(splitList(*roles)...)
	if err != nil {
		fmt.Fprintf(stderr, "invalid --roles: %v\n", err)
		return 2
	}

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	logger := logging.NewWithWriter(stderr, "text", slog.LevelDebug)

	verifier, err := accesstoken.NewVerifier(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "init verifier: %v\n", err)
		return 1
	}

	var identities domain.IdentityStore
	if *seed != "" || cfg.PostgresDSN == "" {
		mem := accountmem.New()
		if err := mem.Seed(*seed); err != nil {
			fmt.Fprintf(stderr, "invalid --seed: %v\n", err)
			return 2
		}
		identities = mem
	} else {
		store, err := db.NewStore(ctx, cfg, logger)
		if err != nil {
			fmt.Fprintf(stderr, "init store: %v\n", err)
			return 1
		}
		defer store.Close()
		identities = db.NewAccountRepository(store.DB)
	}

	policy, err := loadStatusPolicy(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "init status policy: %v\n", err)
		return 1
	}

	gate := &usecase.Gate{
		Verifier:   verifier,
		Identities: identities,
		Authorizer: rbac.NewAuthorizer(),
		Policy:     policy,
		Logger:     logging.Module(logger, "gate", "cli"),
	}
	decision := gate.Authorize(ctx, allowed, "Bearer "+strings.TrimSpace(*token))

	out := authorizeOutput{Decision: "reject"}
	if identity, ok := decision.Identity(); ok {
		out = authorizeOutput{Decision: "proceed", Identity: &identity}
	}
	if err := json.NewEncoder(stdout).Encode(out); err != nil {
		fmt.Fprintf(stderr, "encode decision: %v\n", err)
		return 1
	}
	if !decision.Allowed() {
		return 1
	}
	return 0
}

func loadStatusPolicy(ctx context.Context, cfg config.Config) (domain.StatusPolicy, error) {
	if cfg.StatusPolicyPath == "" {
		return domain.BannedOnlyPolicy{}, nil
	}
	return policyopa.NewStatusPolicyFromPath(ctx, cfg.StatusPolicyPath)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
