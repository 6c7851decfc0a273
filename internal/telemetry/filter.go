package telemetry

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// Filter is a compiled CEL predicate over notifications. A nil Filter
// matches everything.
//
// Variables: type (string), tag_id (string), laps (int), finished (bool).
// tag_id, laps and finished are zero for standings notifications.
type Filter struct {
	expr string
	prog cel.Program
}

// CompileFilter compiles expr. An empty expression yields a nil Filter.
func CompileFilter(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("type", cel.StringType),
		cel.Variable("tag_id", cel.StringType),
		cel.Variable("laps", cel.IntType),
		cel.Variable("finished", cel.BoolType),
	)
	if err != nil {
		return nil, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("invalid filter: %w", iss.Err())
	}
	checked, iss := env.Check(ast)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("invalid filter: %w", iss.Err())
	}
	if !checked.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("invalid filter: expression must be boolean, got %v", checked.OutputType())
	}
	prog, err := env.Program(checked)
	if err != nil {
		return nil, err
	}

	return &Filter{expr: expr, prog: prog}, nil
}

// Match reports whether n passes the filter. Evaluation errors count as no match.
func (f *Filter) Match(n Notification) bool {
	if f == nil {
		return true
	}

	out, _, err := f.prog.Eval(map[string]any{
		"type":     n.Type,
		"tag_id":   n.stringField("tag_id"),
		"laps":     n.intField("laps"),
		"finished": n.boolField("finished"),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.expr
}
