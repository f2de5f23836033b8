package rules

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

type exprRule struct {
	code    string
	program *vm.Program
}

// Expr compiles an expression into a rule. The expression sees the token's
// attributes as top-level variables, the current place as "state", and the
// caller's action results as "action". It must evaluate to a boolean.
//
//	r, err := rules.Expr(`amount > 100 && state == "pending_review"`)
func Expr(code string) (Rule, error) {
	program, err := expr.Compile(code)
	if err != nil {
		return nil, err
	}
	return &exprRule{code: code, program: program}, nil
}

// MustExpr is Expr for build-time registration; it panics on a compile
// error.
func MustExpr(code string) Rule {
	r, err := Expr(code)
	if err != nil {
		panic(err)
	}
	return r
}

func (e *exprRule) Evaluate(s Subject, ctx Context) Result {
	env := s.AttrValues()
	env["state"] = s.State()
	env["action"] = map[string]interface{}(ctx)
	out, err := expr.Run(e.program, env)
	if err != nil {
		return Failf("expression %q: %v", e.code, err)
	}
	ok, isBool := out.(bool)
	if !isBool {
		return Failf("expression %q returned %T, want bool", e.code, out)
	}
	if !ok {
		return Failf("expression %q is false", e.code)
	}
	return Pass()
}
