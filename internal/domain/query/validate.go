package query

import (
	"slices"
)

// Validate checks that the plan is well formed: literals only in object
// position, every referenced variable introduced by a pattern, grouped
// queries projecting only grouped variables and aggregates.
func (q *Query) Validate() error {
	if q.Limit < 0 {
		return newSemanticError("LIMIT must not be negative, got %d", q.Limit)
	}

	introduced := make(map[string]bool)
	if err := validateGroup(q.Where, introduced); err != nil {
		return err
	}
	if err := validateFilters(q.Where, introduced); err != nil {
		return err
	}

	grouped := q.IsGrouped()
	if grouped && len(q.Projections) == 0 {
		return newSemanticError("SELECT * cannot be used with grouping").
			WithSuggestions("list the grouped variables and aggregates explicitly")
	}

	groupVars := make(map[string]bool)
	for _, v := range q.GroupBy {
		if !introduced[v] {
			return unknownVariable("GROUP BY", v, introduced)
		}
		groupVars[v] = true
	}

	// visible holds what later clauses may reference in plain position.
	visible := make(map[string]bool)
	if grouped {
		for v := range groupVars {
			visible[v] = true
		}
	} else {
		for v := range introduced {
			visible[v] = true
		}
	}

	seen := make(map[string]bool)
	for _, p := range q.Projections {
		if p.Var == "" {
			return newSemanticError("projection has no variable name")
		}
		if seen[p.Var] {
			return newSemanticError("?%s is projected twice", p.Var)
		}
		seen[p.Var] = true

		if p.Expr == nil {
			if !introduced[p.Var] {
				return unknownVariable("SELECT", p.Var, introduced)
			}
			if grouped && !groupVars[p.Var] {
				return newSemanticError("?%s is neither grouped nor aggregated", p.Var).
					WithSuggestions("add ?"+p.Var+" to GROUP BY", "wrap it in an aggregate such as MIN(?"+p.Var+")")
			}
			continue
		}

		if introduced[p.Var] {
			return newSemanticError("alias ?%s is already bound by the WHERE clause", p.Var)
		}
		if err := validateExpr("SELECT", p.Expr, visible, introduced, grouped); err != nil {
			return err
		}
		visible[p.Var] = true
	}

	for _, h := range q.Having {
		if err := validateExpr("HAVING", h, visible, introduced, true); err != nil {
			return err
		}
	}
	for _, k := range q.OrderBy {
		if err := validateExpr("ORDER BY", k.Expr, visible, introduced, grouped); err != nil {
			return err
		}
	}
	return nil
}

// IsGrouped reports whether the query aggregates: it has GROUP BY, HAVING
// or an aggregate in SELECT or ORDER BY.
func (q *Query) IsGrouped() bool {
	if len(q.GroupBy) > 0 || len(q.Having) > 0 {
		return true
	}
	for _, p := range q.Projections {
		if p.Expr != nil && hasAggregate(p.Expr) {
			return true
		}
	}
	for _, k := range q.OrderBy {
		if hasAggregate(k.Expr) {
			return true
		}
	}
	return false
}

// patternVars returns the variables of a group and its optionals in order
// of first appearance.
func patternVars(g Group) []string {
	var out []string
	add := func(n Node) {
		if n.Kind == NodeVar && !slices.Contains(out, n.Var) {
			out = append(out, n.Var)
		}
	}
	var walk func(Group)
	walk = func(g Group) {
		for _, tp := range g.Patterns {
			add(tp.S)
			add(tp.P)
			add(tp.O)
		}
		for _, opt := range g.Optionals {
			walk(opt)
		}
	}
	walk(g)
	return out
}

func validateGroup(g Group, introduced map[string]bool) error {
	for _, tp := range g.Patterns {
		for i, n := range []Node{tp.S, tp.P, tp.O} {
			switch n.Kind {
			case NodeVar:
				if n.Var == "" {
					return newSemanticError("empty variable name in %s", tp)
				}
				introduced[n.Var] = true
			case NodeTerm:
				if n.Value.IsZero() {
					return newSemanticError("unset term in %s", tp)
				}
				if i < 2 && n.Value.IsLiteral() {
					return newSemanticError("literal %s cannot be used as %s", n.Value, positionName(i)).
						WithSuggestions("literals are only allowed in object position")
				}
			}
		}
	}
	for _, opt := range g.Optionals {
		if err := validateGroup(opt, introduced); err != nil {
			return err
		}
	}
	return nil
}

func validateFilters(g Group, introduced map[string]bool) error {
	for _, f := range g.Filters {
		if hasAggregate(f) {
			return newSemanticError("aggregate in FILTER %s", f).
				WithSuggestions("move the condition to HAVING")
		}
		if err := validateExpr("FILTER", f, introduced, introduced, false); err != nil {
			return err
		}
	}
	for _, opt := range g.Optionals {
		if err := validateFilters(opt, introduced); err != nil {
			return err
		}
	}
	return nil
}

// validateExpr checks variable references and function arity. Plain
// variables must be visible; variables inside aggregates must be
// introduced by a pattern.
func validateExpr(clause string, e Expr, visible, introduced map[string]bool, grouped bool) error {
	var err error
	e.walk(func(n Expr) bool {
		if err != nil {
			return false
		}
		switch n := n.(type) {
		case *VarExpr:
			if !visible[n.Name] {
				if grouped && introduced[n.Name] {
					err = newSemanticError("%s uses ?%s, which is neither grouped nor aggregated", clause, n.Name)
					return false
				}
				err = unknownVariable(clause, n.Name, introduced)
			}
		case *AggregateExpr:
			if !aggregates[n.Fn] {
				err = newSemanticError("unknown aggregate %s", n.Fn)
				return false
			}
			if n.Arg == nil {
				if n.Fn != "COUNT" {
					err = newSemanticError("%s needs an argument", n.Fn)
				}
				return false
			}
			if hasAggregate(n.Arg) {
				err = newSemanticError("nested aggregate in %s", n)
				return false
			}
			err = validateExpr(clause, n.Arg, introduced, introduced, false)
			return false
		case *CallExpr:
			arity, ok := builtins[n.Fn]
			if !ok {
				err = newSemanticError("unknown function %s", n.Fn)
				return false
			}
			if len(n.Args) != arity {
				err = newSemanticError("%s takes %d argument(s), got %d", n.Fn, arity, len(n.Args))
				return false
			}
			if _, isVar := n.Args[0].(*VarExpr); n.Fn == "BOUND" && !isVar {
				err = newSemanticError("BOUND takes a variable")
				return false
			}
		case *ConstExpr:
			if n.Value.IsZero() {
				err = newSemanticError("unset constant in %s", clause)
			}
		}
		return err == nil
	})
	return err
}

func unknownVariable(clause, name string, introduced map[string]bool) *QueryError {
	e := newSemanticError("%s references ?%s, which no pattern introduces", clause, name)
	if len(introduced) > 0 {
		known := make([]string, 0, len(introduced))
		for v := range introduced {
			known = append(known, "?"+v)
		}
		slices.Sort(known)
		e.WithSuggestions(known...)
	}
	return e
}

func positionName(i int) string {
	if i == 0 {
		return "subject"
	}
	return "predicate"
}
