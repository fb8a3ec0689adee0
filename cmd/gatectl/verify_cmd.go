package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/config"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/infra/auth/accesstoken"
)

func runVerify(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	token := fs.String("token", "", "access token to verify")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *token == "" {
		fmt.Fprintln(stderr, "verify requires --token")
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	verifier, err := accesstoken.NewVerifier(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "init verifier: %v\n", err)
		return 1
	}
	claims, err := verifier.Verify(context.Background(), *token)
	if err != nil {
		fmt.Fprintf(stderr, "token rejected: %v\n", err)
		return 1
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(claims); err != nil {
		fmt.Fprintf(stderr, "encode claims: %v\n", err)
		return 1
	}
	return 0
}
