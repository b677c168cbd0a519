package query

import (
	"strings"

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/errors"
)

// Expr is a FILTER, HAVING, ORDER BY or projection expression.
type Expr interface {
	String() string
	walk(fn func(Expr) bool)
}

// VarExpr references a variable.
type VarExpr struct {
	Name string
}

// ConstExpr is a constant IRI or literal.
type ConstExpr struct {
	Value entities.Term
}

// UnaryExpr is logical negation or arithmetic negation.
type UnaryExpr struct {
	Op string // "!" or "-"
	X  Expr
}

// BinaryExpr is a logical, comparison or arithmetic operator.
type BinaryExpr struct {
	Op   string
	L, R Expr
}

// InExpr tests set membership.
type InExpr struct {
	X    Expr
	List []Expr
	Not  bool
}

// CallExpr is a built-in function call.
type CallExpr struct {
	Fn   string
	Args []Expr
}

// AggregateExpr is an aggregate over a group. Arg is nil for COUNT(*).
type AggregateExpr struct {
	Fn       string
	Arg      Expr
	Distinct bool
}

func (e *VarExpr) String() string   { return "?" + e.Name }
func (e *ConstExpr) String() string { return formatTerm(e.Value) }

func (e *UnaryExpr) String() string {
	return e.Op + e.X.String()
}

func (e *BinaryExpr) String() string {
	return "(" + e.L.String() + " " + e.Op + " " + e.R.String() + ")"
}

func (e *InExpr) String() string {
	items := make([]string, len(e.List))
	for i, item := range e.List {
		items[i] = item.String()
	}
	op := " IN ("
	if e.Not {
		op = " NOT IN ("
	}
	return e.X.String() + op + strings.Join(items, ", ") + ")"
}

func (e *CallExpr) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Fn + "(" + strings.Join(args, ", ") + ")"
}

func (e *AggregateExpr) String() string {
	arg := "*"
	if e.Arg != nil {
		arg = e.Arg.String()
	}
	if e.Distinct {
		arg = "DISTINCT " + arg
	}
	return e.Fn + "(" + arg + ")"
}

func (e *VarExpr) walk(fn func(Expr) bool)   { fn(e) }
func (e *ConstExpr) walk(fn func(Expr) bool) { fn(e) }

func (e *UnaryExpr) walk(fn func(Expr) bool) {
	if fn(e) {
		e.X.walk(fn)
	}
}

func (e *BinaryExpr) walk(fn func(Expr) bool) {
	if fn(e) {
		e.L.walk(fn)
		e.R.walk(fn)
	}
}

func (e *InExpr) walk(fn func(Expr) bool) {
	if fn(e) {
		e.X.walk(fn)
		for _, item := range e.List {
			item.walk(fn)
		}
	}
}

func (e *CallExpr) walk(fn func(Expr) bool) {
	if fn(e) {
		for _, a := range e.Args {
			a.walk(fn)
		}
	}
}

func (e *AggregateExpr) walk(fn func(Expr) bool) {
	if fn(e) && e.Arg != nil {
		e.Arg.walk(fn)
	}
}

// Built-in functions.
var builtins = map[string]int{
	"IF":        3,
	"BOUND":     1,
	"STR":       1,
	"STRSTARTS": 2,
	"CONTAINS":  2,
	"LCASE":     1,
}

// Aggregate functions.
var aggregates = map[string]bool{
	"COUNT": true,
	"SUM":   true,
	"AVG":   true,
	"MIN":   true,
	"MAX":   true,
}

// exprVars returns the variables referenced outside aggregates and those
// referenced inside aggregates.
func exprVars(e Expr) (plain, inAggregates []string) {
	var walk func(Expr, bool)
	walk = func(x Expr, inAgg bool) {
		x.walk(func(n Expr) bool {
			switch n := n.(type) {
			case *VarExpr:
				if inAgg {
					inAggregates = append(inAggregates, n.Name)
				} else {
					plain = append(plain, n.Name)
				}
			case *AggregateExpr:
				if n.Arg != nil {
					walk(n.Arg, true)
				}
				return false
			}
			return true
		})
	}
	walk(e, false)
	return plain, inAggregates
}

// collectAggregates returns the aggregate nodes in e.
func collectAggregates(e Expr) []*AggregateExpr {
	var out []*AggregateExpr
	e.walk(func(n Expr) bool {
		if agg, ok := n.(*AggregateExpr); ok {
			out = append(out, agg)
			return false
		}
		return true
	})
	return out
}

func hasAggregate(e Expr) bool {
	return len(collectAggregates(e)) > 0
}

// errEval marks an expression that could not be evaluated. Filters treat it
// as false and projections leave the variable unset.
var errEval = errors.New("expression error")

// env supplies variable values and, after grouping, aggregate results.
type env interface {
	lookup(name string) (entities.Term, bool)
	aggregate(a *AggregateExpr) (entities.Term, bool)
}

func evalExpr(e Expr, en env) (entities.Term, error) {
	switch e := e.(type) {
	case *VarExpr:
		v, ok := en.lookup(e.Name)
		if !ok || v.IsZero() {
			return entities.Term{}, errors.Wrapf(errEval, "?%s is unbound", e.Name)
		}
		return v, nil
	case *ConstExpr:
		return e.Value, nil
	case *UnaryExpr:
		return evalUnary(e, en)
	case *BinaryExpr:
		return evalBinary(e, en)
	case *InExpr:
		return evalIn(e, en)
	case *CallExpr:
		return evalCall(e, en)
	case *AggregateExpr:
		v, ok := en.aggregate(e)
		if !ok || v.IsZero() {
			return entities.Term{}, errors.Wrapf(errEval, "%s has no value", e)
		}
		return v, nil
	default:
		return entities.Term{}, errors.Wrapf(errEval, "unsupported expression %T", e)
	}
}

// effectiveBool converts a term to a boolean the way FILTER does.
func effectiveBool(t entities.Term) (bool, error) {
	lit, ok := t.Literal()
	if !ok {
		return false, errors.Wrapf(errEval, "%s has no boolean value", t)
	}
	switch lit.Type() {
	case entities.LiteralBool:
		b, _ := lit.BoolValue()
		return b, nil
	case entities.LiteralInt, entities.LiteralFloat:
		n, _ := lit.Numeric()
		return n != 0, nil
	case entities.LiteralString:
		s, _ := lit.StringValue()
		return s != "", nil
	default:
		return false, errors.Wrapf(errEval, "%s has no boolean value", t)
	}
}

func evalBool(e Expr, en env) (bool, error) {
	v, err := evalExpr(e, en)
	if err != nil {
		return false, err
	}
	return effectiveBool(v)
}

func boolTerm(b bool) entities.Term {
	return entities.Lit(entities.Bool(b))
}

func evalUnary(e *UnaryExpr, en env) (entities.Term, error) {
	switch e.Op {
	case "!":
		b, err := evalBool(e.X, en)
		if err != nil {
			return entities.Term{}, err
		}
		return boolTerm(!b), nil
	case "-":
		v, err := evalExpr(e.X, en)
		if err != nil {
			return entities.Term{}, err
		}
		lit, _ := v.Literal()
		if i, ok := lit.IntValue(); ok {
			return entities.Lit(entities.Int(-i)), nil
		}
		if f, ok := lit.FloatValue(); ok {
			return entities.Lit(entities.Float(-f)), nil
		}
		return entities.Term{}, errors.Wrapf(errEval, "cannot negate %s", v)
	default:
		return entities.Term{}, errors.Wrapf(errEval, "unknown operator %s", e.Op)
	}
}

func evalBinary(e *BinaryExpr, en env) (entities.Term, error) {
	switch e.Op {
	case "&&":
		l, lerr := evalBool(e.L, en)
		if lerr == nil && !l {
			return boolTerm(false), nil
		}
		r, rerr := evalBool(e.R, en)
		if rerr == nil && !r {
			return boolTerm(false), nil
		}
		if lerr != nil {
			return entities.Term{}, lerr
		}
		if rerr != nil {
			return entities.Term{}, rerr
		}
		return boolTerm(true), nil
	case "||":
		l, lerr := evalBool(e.L, en)
		if lerr == nil && l {
			return boolTerm(true), nil
		}
		r, rerr := evalBool(e.R, en)
		if rerr == nil && r {
			return boolTerm(true), nil
		}
		if lerr != nil {
			return entities.Term{}, lerr
		}
		if rerr != nil {
			return entities.Term{}, rerr
		}
		return boolTerm(false), nil
	}

	l, err := evalExpr(e.L, en)
	if err != nil {
		return entities.Term{}, err
	}
	r, err := evalExpr(e.R, en)
	if err != nil {
		return entities.Term{}, err
	}

	switch e.Op {
	case "=", "!=":
		eq, err := termsEqual(l, r)
		if err != nil {
			return entities.Term{}, err
		}
		return boolTerm(eq == (e.Op == "=")), nil
	case "<", "<=", ">", ">=":
		c, err := compareValues(l, r)
		if err != nil {
			return entities.Term{}, err
		}
		switch e.Op {
		case "<":
			return boolTerm(c < 0), nil
		case "<=":
			return boolTerm(c <= 0), nil
		case ">":
			return boolTerm(c > 0), nil
		default:
			return boolTerm(c >= 0), nil
		}
	case "+", "-", "*", "/":
		return arithmetic(e.Op, l, r)
	default:
		return entities.Term{}, errors.Wrapf(errEval, "unknown operator %s", e.Op)
	}
}

func termsEqual(l, r entities.Term) (bool, error) {
	ll, lok := l.Literal()
	rl, rok := r.Literal()
	if lok && rok {
		c, ok := ll.Compare(rl)
		if !ok {
			return false, errors.Wrapf(errEval, "cannot compare %s and %s", l, r)
		}
		return c == 0, nil
	}
	return l == r, nil
}

func compareValues(l, r entities.Term) (int, error) {
	ll, lok := l.Literal()
	rl, rok := r.Literal()
	if !lok || !rok {
		if !lok && !rok {
			li, _ := l.Identifier()
			ri, _ := r.Identifier()
			return strings.Compare(string(li), string(ri)), nil
		}
		return 0, errors.Wrapf(errEval, "cannot order %s and %s", l, r)
	}
	c, ok := ll.Compare(rl)
	if !ok {
		return 0, errors.Wrapf(errEval, "cannot order %s and %s", l, r)
	}
	return c, nil
}

// arithmetic keeps integers for + - * and always divides in floating point.
func arithmetic(op string, l, r entities.Term) (entities.Term, error) {
	ll, _ := l.Literal()
	rl, _ := r.Literal()
	if !ll.IsNumeric() || !rl.IsNumeric() {
		return entities.Term{}, errors.Wrapf(errEval, "%s %s %s is not numeric", l, op, r)
	}

	li, lInt := ll.IntValue()
	ri, rInt := rl.IntValue()
	if lInt && rInt && op != "/" {
		switch op {
		case "+":
			return entities.Lit(entities.Int(li + ri)), nil
		case "-":
			return entities.Lit(entities.Int(li - ri)), nil
		default:
			return entities.Lit(entities.Int(li * ri)), nil
		}
	}

	a, _ := ll.Numeric()
	b, _ := rl.Numeric()
	switch op {
	case "+":
		return entities.Lit(entities.Float(a + b)), nil
	case "-":
		return entities.Lit(entities.Float(a - b)), nil
	case "*":
		return entities.Lit(entities.Float(a * b)), nil
	default:
		if b == 0 {
			return entities.Term{}, errors.Wrap(errEval, "division by zero")
		}
		return entities.Lit(entities.Float(a / b)), nil
	}
}

func evalIn(e *InExpr, en env) (entities.Term, error) {
	x, err := evalExpr(e.X, en)
	if err != nil {
		return entities.Term{}, err
	}
	for _, item := range e.List {
		v, err := evalExpr(item, en)
		if err != nil {
			continue
		}
		if eq, err := termsEqual(x, v); err == nil && eq {
			return boolTerm(!e.Not), nil
		}
	}
	return boolTerm(e.Not), nil
}

func evalCall(e *CallExpr, en env) (entities.Term, error) {
	switch e.Fn {
	case "BOUND":
		v, ok := e.Args[0].(*VarExpr)
		if !ok {
			return entities.Term{}, errors.Wrap(errEval, "BOUND needs a variable")
		}
		t, bound := en.lookup(v.Name)
		return boolTerm(bound && !t.IsZero()), nil
	case "IF":
		cond, err := evalBool(e.Args[0], en)
		if err != nil {
			return entities.Term{}, err
		}
		if cond {
			return evalExpr(e.Args[1], en)
		}
		return evalExpr(e.Args[2], en)
	case "STR":
		v, err := evalExpr(e.Args[0], en)
		if err != nil {
			return entities.Term{}, err
		}
		return entities.Lit(entities.String(lexicalForm(v))), nil
	case "LCASE":
		s, err := evalString(e.Args[0], en)
		if err != nil {
			return entities.Term{}, err
		}
		return entities.Lit(entities.String(strings.ToLower(s))), nil
	case "STRSTARTS", "CONTAINS":
		a, err := evalString(e.Args[0], en)
		if err != nil {
			return entities.Term{}, err
		}
		b, err := evalString(e.Args[1], en)
		if err != nil {
			return entities.Term{}, err
		}
		if e.Fn == "STRSTARTS" {
			return boolTerm(strings.HasPrefix(a, b)), nil
		}
		return boolTerm(strings.Contains(a, b)), nil
	default:
		return entities.Term{}, errors.Wrapf(errEval, "unknown function %s", e.Fn)
	}
}

func evalString(e Expr, en env) (string, error) {
	v, err := evalExpr(e, en)
	if err != nil {
		return "", err
	}
	lit, ok := v.Literal()
	if !ok {
		return "", errors.Wrapf(errEval, "%s is not a string", v)
	}
	s, ok := lit.StringValue()
	if !ok {
		return "", errors.Wrapf(errEval, "%s is not a string", v)
	}
	return s, nil
}

func lexicalForm(t entities.Term) string {
	if id, ok := t.Identifier(); ok {
		return string(id)
	}
	lit, _ := t.Literal()
	return lit.Lexical()
}
