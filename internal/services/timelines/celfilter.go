package timelinesvc

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/EvModder/438-TSN/internal/delivery"
	"github.com/EvModder/438-TSN/internal/timeline"
)

// CompileFilter compiles a CEL expression over author, body, ts_ms and
// now_ms into a delivery filter. An empty expression yields a nil filter,
// which accepts everything. A post whose evaluation errors is not sent.
func CompileFilter(expr string) (delivery.Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("author", cel.StringType),
		cel.Variable("body", cel.StringType),
		cel.Variable("ts_ms", cel.IntType),
		// Current time in ms for windowed filters
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: expression must be bool, got %s", ErrInvalidFilter, ast.OutputType())
	}
	prog, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return func(p timeline.Post) bool {
		out, _, err := prog.Eval(map[string]any{
			"author": p.Author,
			"body":   p.Body,
			"ts_ms":  p.Timestamp.UnixMilli(),
			"now_ms": time.Now().UnixMilli(),
		})
		if err != nil {
			return false
		}
		b, ok := out.Value().(bool)
		return ok && b
	}, nil
}
