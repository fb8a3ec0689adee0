package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/domain"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/infra/policyopa"
)

func runPolicyEval(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("policy eval", flag.ContinueOnError)
	fs.SetOutput(stderr)
	policyPath := fs.String("policy", "", "rego file or directory (default: built-in policy)")
	status := fs.String("status", "", "account status to evaluate")
	id := fs.String("id", "account", "account id")
	role := fs.String("role", string(domain.RoleUser), "account role")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *status == "" {
		fmt.Fprintln(stderr, "policy eval requires --status")
		return 2
	}

	ctx := context.Background()
	var (
		policy *policyopa.StatusPolicy
		err    error
	)
	if *policyPath == "" {
		policy, err = policyopa.NewDefaultStatusPolicy(ctx)
	} else {
		policy, err = policyopa.NewStatusPolicyFromPath(ctx, *policyPath)
	}
	if err != nil {
		fmt.Fprintf(stderr, "load policy: %v\n", err)
		return 1
	}

	eligible, err := policy.Eligible(ctx, domain.AccountRecord{
		ID:     *id,
		Role:   domain.Role(*role),
		Status: domain.AccountStatus(*status),
	})
	if err != nil {
		fmt.Fprintf(stderr, "evaluate policy: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "revision=%s status=%s eligible=%t\n", policy.Revision(), *status, eligible)
	if !eligible {
		return 1
	}
	return 0
}
