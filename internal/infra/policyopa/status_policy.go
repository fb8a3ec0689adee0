package policyopa

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/domain"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
)

const statusQuery = "data.gatekeeper.account.allow"

//go:embed default.rego
var defaultModule string

type accountInput struct {
	Account accountDocument `json:"account"`
}

type accountDocument struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// StatusPolicy decides account eligibility with a rego module. Evaluation
// happens in-process; it adds no I/O to the request path.
type StatusPolicy struct {
	query    rego.PreparedEvalQuery
	revision string
}

// NewDefaultStatusPolicy compiles the embedded policy that only denies Banned.
func NewDefaultStatusPolicy(ctx context.Context) (*StatusPolicy, error) {
	return NewStatusPolicyFromSource(ctx, "default.rego", defaultModule)
}

func NewStatusPolicyFromSource(ctx context.Context, name, source string) (*StatusPolicy, error) {
	sum := sha256.Sum256([]byte(source))
	return prepare(ctx, hex.EncodeToString(sum[:]), rego.Module(name, source))
}

// NewStatusPolicyFromPath loads a rego file or a directory of policies.
func NewStatusPolicyFromPath(ctx context.Context, path string) (*StatusPolicy, error) {
	revision, err := ComputeRevisionFromPath(path)
	if err != nil {
		return nil, err
	}
	return prepare(ctx, revision, rego.Load([]string{path}, nil))
}

func prepare(ctx context.Context, revision string, source func(*rego.Rego)) (*StatusPolicy, error) {
	capabilities := ast.CapabilitiesForThisVersion()
	capabilities.Builtins = filterBuiltins(capabilities.Builtins)
	compiler := ast.NewCompiler().WithCapabilities(capabilities)

	r := rego.New(
		rego.Query(statusQuery),
		rego.Compiler(compiler),
		rego.StrictBuiltinErrors(true),
		source,
	)
	prepared, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare status policy: %w", err)
	}
	if err := assertNoForbiddenBuiltins(compiler); err != nil {
		return nil, err
	}
	return &StatusPolicy{query: prepared, revision: revision}, nil
}

func (p *StatusPolicy) Revision() string {
	if p == nil {
		return ""
	}
	return p.revision
}

func (p *StatusPolicy) Eligible(ctx context.Context, record domain.AccountRecord) (bool, error) {
	if p == nil {
		return false, errors.New("status policy is nil")
	}
	input := accountInput{Account: accountDocument{
		ID:     record.ID,
		Email:  record.Email,
		Role:   string(record.Role),
		Status: string(record.Status),
	}}
	results, err := p.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, errors.New("empty policy result")
	}
	allow, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("policy result is %T, want bool", results[0].Expressions[0].Value)
	}
	return allow, nil
}
