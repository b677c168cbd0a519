package query

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/ersonp/tankgraph/internal/domain/entities"
)

// Parse reads a query in the supported SPARQL subset and validates the
// resulting plan. The prefixes wot, rdf, rdfs, owl and xsd are predeclared.
func Parse(text string) (*Query, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, prefixes: maps.Clone(defaultPrefixes)}
	q, perr := p.parseQuery()
	if perr != nil {
		return nil, perr
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

type parser struct {
	toks     []token
	pos      int
	prefixes map[string]string
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isKeyword(word string) bool {
	t := p.peek()
	return t.kind == tokIdent && strings.EqualFold(t.text, word)
}

func (p *parser) isPunct(s string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == s
}

func (p *parser) isOp(s string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == s
}

// atClauseKeyword reports whether the next token starts a solution modifier.
func (p *parser) atClauseKeyword() bool {
	return p.isKeyword("GROUP") || p.isKeyword("HAVING") || p.isKeyword("ORDER") || p.isKeyword("LIMIT")
}

func (p *parser) acceptKeyword(word string) bool {
	if p.isKeyword(word) {
		p.next()
		return true
	}
	return false
}

func (p *parser) acceptPunct(s string) bool {
	if p.isPunct(s) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectKeyword(word string) *QueryError {
	if !p.acceptKeyword(word) {
		return p.unexpected("expected " + word)
	}
	return nil
}

func (p *parser) expectPunct(s string) *QueryError {
	if !p.acceptPunct(s) {
		return p.unexpected("expected '" + s + "'")
	}
	return nil
}

func (p *parser) unexpected(msg string) *QueryError {
	t := p.peek()
	if t.kind == tokEOF {
		return newSyntaxError(t, "%s, found end of query", msg)
	}
	return newSyntaxError(t, "%s", msg)
}

func (p *parser) parseQuery() (*Query, *QueryError) {
	for p.isKeyword("PREFIX") {
		if err := p.parsePrefix(); err != nil {
			return nil, err
		}
	}

	q := &Query{}
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err.WithSuggestions("queries start with SELECT")
	}
	if p.acceptKeyword("DISTINCT") {
		q.Distinct = true
	}
	if err := p.parseProjections(q); err != nil {
		return nil, err
	}

	p.acceptKeyword("WHERE")
	where, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	q.Where = where

	if p.acceptKeyword("GROUP") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for p.peek().kind == tokVar {
			q.GroupBy = append(q.GroupBy, p.next().text)
		}
		if len(q.GroupBy) == 0 {
			return nil, p.unexpected("expected variable after GROUP BY")
		}
	}

	if p.acceptKeyword("HAVING") {
		for p.isPunct("(") || (p.peek().kind == tokIdent && !p.atClauseKeyword()) {
			e, err := p.parseConstraint()
			if err != nil {
				return nil, err
			}
			q.Having = append(q.Having, e)
		}
		if len(q.Having) == 0 {
			return nil, p.unexpected("expected condition after HAVING")
		}
	}

	if p.acceptKeyword("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			key, ok, err := p.parseOrderKey()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			q.OrderBy = append(q.OrderBy, key)
		}
		if len(q.OrderBy) == 0 {
			return nil, p.unexpected("expected sort key after ORDER BY")
		}
	}

	if p.acceptKeyword("LIMIT") {
		t := p.next()
		n, convErr := strconv.Atoi(t.text)
		if t.kind != tokNumber || convErr != nil {
			return nil, newSyntaxError(t, "LIMIT needs a non-negative integer")
		}
		q.Limit = n
	}

	if t := p.peek(); t.kind != tokEOF {
		return nil, newSyntaxError(t, "unexpected trailing input")
	}
	return q, nil
}

func (p *parser) parsePrefix() *QueryError {
	p.next()
	name := p.next()
	if name.kind != tokPName || !strings.HasSuffix(name.text, ":") {
		return newSyntaxError(name, "expected prefix name such as wot:")
	}
	iri := p.next()
	if iri.kind != tokIRI {
		return newSyntaxError(iri, "expected <IRI> after PREFIX %s", name.text)
	}
	p.prefixes[strings.TrimSuffix(name.text, ":")] = iri.text
	return nil
}

func (p *parser) parseProjections(q *Query) *QueryError {
	if p.acceptPunct("*") {
		return nil
	}
	for {
		switch {
		case p.peek().kind == tokVar:
			q.Projections = append(q.Projections, Projection{Var: p.next().text})
		case p.isPunct("("):
			p.next()
			e, err := p.parseExpr()
			if err != nil {
				return err
			}
			if err := p.expectKeyword("AS"); err != nil {
				return err
			}
			v := p.next()
			if v.kind != tokVar {
				return newSyntaxError(v, "expected variable after AS")
			}
			if err := p.expectPunct(")"); err != nil {
				return err
			}
			q.Projections = append(q.Projections, Projection{Var: v.text, Expr: e})
		default:
			if len(q.Projections) == 0 {
				return p.unexpected("expected projection").WithSuggestions("SELECT ?var", "SELECT (COUNT(*) AS ?n)", "SELECT *")
			}
			return nil
		}
	}
}

func (p *parser) parseGroup() (Group, *QueryError) {
	var g Group
	if err := p.expectPunct("{"); err != nil {
		return g, err
	}
	for {
		switch {
		case p.acceptPunct("}"):
			return g, nil
		case p.acceptPunct("."):
		case p.acceptKeyword("OPTIONAL"):
			opt, err := p.parseGroup()
			if err != nil {
				return g, err
			}
			g.Optionals = append(g.Optionals, opt)
		case p.acceptKeyword("FILTER"):
			e, err := p.parseConstraint()
			if err != nil {
				return g, err
			}
			g.Filters = append(g.Filters, e)
		case p.peek().kind == tokEOF:
			return g, p.unexpected("expected '}'")
		default:
			patterns, err := p.parseTriples()
			if err != nil {
				return g, err
			}
			g.Patterns = append(g.Patterns, patterns...)
		}
	}
}

// parseTriples reads a subject with its predicate-object list.
func (p *parser) parseTriples() ([]TriplePattern, *QueryError) {
	subj, err := p.parseNode(false)
	if err != nil {
		return nil, err
	}
	var out []TriplePattern
	for {
		pred, err := p.parseNode(true)
		if err != nil {
			return nil, err
		}
		for {
			obj, err := p.parseNode(false)
			if err != nil {
				return nil, err
			}
			out = append(out, Pattern(subj, pred, obj))
			if !p.acceptPunct(",") {
				break
			}
		}
		if !p.acceptPunct(";") {
			break
		}
		if p.isPunct(".") || p.isPunct("}") {
			break
		}
	}
	return out, nil
}

func (p *parser) parseNode(predicate bool) (Node, *QueryError) {
	t := p.peek()
	switch {
	case t.kind == tokVar:
		p.next()
		return Var(t.text), nil
	case t.kind == tokPunct && t.text == "[":
		p.next()
		if err := p.expectPunct("]"); err != nil {
			return Node{}, err
		}
		return Any(), nil
	case predicate && t.kind == tokIdent && t.text == "a":
		p.next()
		return IRI(entities.RDFType), nil
	}
	term, err := p.parseTerm()
	if err != nil {
		return Node{}, err
	}
	return Node{Kind: NodeTerm, Value: term}, nil
}

// parseTerm reads an IRI, prefixed name or literal.
func (p *parser) parseTerm() (entities.Term, *QueryError) {
	t := p.next()
	switch t.kind {
	case tokIRI:
		return entities.IRI(entities.Identifier(t.text)), nil
	case tokPName:
		id, err := p.expand(t)
		if err != nil {
			return entities.Term{}, err
		}
		return entities.IRI(id), nil
	case tokNumber:
		return parseNumber(t)
	case tokString:
		return p.parseStringLiteral(t)
	case tokIdent:
		switch strings.ToLower(t.text) {
		case "true":
			return entities.Lit(entities.Bool(true)), nil
		case "false":
			return entities.Lit(entities.Bool(false)), nil
		}
	}
	if t.kind == tokEOF {
		return entities.Term{}, newSyntaxError(t, "expected term, found end of query")
	}
	return entities.Term{}, newSyntaxError(t, "expected IRI, variable or literal")
}

func (p *parser) expand(t token) (entities.Identifier, *QueryError) {
	prefix, local, _ := strings.Cut(t.text, ":")
	ns, ok := p.prefixes[prefix]
	if !ok {
		known := slices.Sorted(maps.Keys(p.prefixes))
		return "", newSyntaxError(t, "unknown prefix %q", prefix).
			WithSuggestions("declare it with PREFIX "+prefix+": <...>", "known prefixes: "+strings.Join(known, ", "))
	}
	return entities.Identifier(ns + local), nil
}

func parseNumber(t token) (entities.Term, *QueryError) {
	if strings.ContainsAny(t.text, ".eE") {
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return entities.Term{}, newSyntaxError(t, "invalid number")
		}
		return entities.Lit(entities.Float(f)), nil
	}
	i, err := strconv.ParseInt(t.text, 10, 64)
	if err != nil {
		return entities.Term{}, newSyntaxError(t, "invalid integer")
	}
	return entities.Lit(entities.Int(i)), nil
}

// parseStringLiteral handles the optional ^^datatype or @lang suffix.
// Language tags are accepted and dropped.
func (p *parser) parseStringLiteral(t token) (entities.Term, *QueryError) {
	if p.acceptPunct("^^") {
		dt := p.next()
		var datatype string
		switch dt.kind {
		case tokIRI:
			datatype = dt.text
		case tokPName:
			id, err := p.expand(dt)
			if err != nil {
				return entities.Term{}, err
			}
			datatype = string(id)
		default:
			return entities.Term{}, newSyntaxError(dt, "expected datatype after ^^")
		}
		lit, err := entities.ParseLiteral(datatype, t.text)
		if err != nil {
			return entities.Term{}, newSyntaxError(t, "%s", err.Error())
		}
		return entities.Lit(lit), nil
	}
	if p.acceptPunct("@") {
		if tag := p.next(); tag.kind != tokIdent {
			return entities.Term{}, newSyntaxError(tag, "expected language tag")
		}
		for p.isOp("-") && p.toks[p.pos+1].kind == tokIdent {
			p.next()
			p.next()
		}
	}
	return entities.Lit(entities.String(t.text)), nil
}

func (p *parser) parseOrderKey() (OrderKey, bool, *QueryError) {
	switch {
	case p.isKeyword("ASC"), p.isKeyword("DESC"):
		desc := strings.EqualFold(p.next().text, "DESC")
		if err := p.expectPunct("("); err != nil {
			return OrderKey{}, false, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return OrderKey{}, false, err
		}
		if err := p.expectPunct(")"); err != nil {
			return OrderKey{}, false, err
		}
		return OrderKey{Expr: e, Desc: desc}, true, nil
	case p.peek().kind == tokVar:
		return OrderKey{Expr: &VarExpr{Name: p.next().text}}, true, nil
	case p.isPunct("("), p.peek().kind == tokIdent && !p.atClauseKeyword():
		e, err := p.parseConstraint()
		if err != nil {
			return OrderKey{}, false, err
		}
		return OrderKey{Expr: e}, true, nil
	}
	return OrderKey{}, false, nil
}

// parseConstraint reads a bracketed expression or a function call.
func (p *parser) parseConstraint() (Expr, *QueryError) {
	if p.acceptPunct("(") {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return e, nil
	}
	if p.peek().kind == tokIdent {
		return p.parseCall()
	}
	return nil, p.unexpected("expected '(' or function call")
}

func (p *parser) parseExpr() (Expr, *QueryError) {
	return p.parseOr()
}

func (p *parser) parseOr() (Expr, *QueryError) {
	l, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isOp("||") {
		p.next()
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l = &BinaryExpr{Op: "||", L: l, R: r}
	}
	return l, nil
}

func (p *parser) parseAnd() (Expr, *QueryError) {
	l, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.isOp("&&") {
		p.next()
		r, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		l = &BinaryExpr{Op: "&&", L: l, R: r}
	}
	return l, nil
}

func (p *parser) parseRelational() (Expr, *QueryError) {
	l, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	switch {
	case t.kind == tokOp && slices.Contains([]string{"=", "!=", "<", "<=", ">", ">="}, t.text):
		p.next()
		r, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: t.text, L: l, R: r}, nil
	case p.isKeyword("IN"):
		p.next()
		list, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		return &InExpr{X: l, List: list}, nil
	case p.isKeyword("NOT"):
		p.next()
		if err := p.expectKeyword("IN"); err != nil {
			return nil, err
		}
		list, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		return &InExpr{X: l, List: list, Not: true}, nil
	}
	return l, nil
}

func (p *parser) parseExprList() ([]Expr, *QueryError) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var list []Expr
	if p.acceptPunct(")") {
		return list, nil
	}
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list = append(list, e)
		if p.acceptPunct(")") {
			return list, nil
		}
		if err := p.expectPunct(","); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseAdditive() (Expr, *QueryError) {
	l, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		op := p.next().text
		r, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		l = &BinaryExpr{Op: op, L: l, R: r}
	}
	return l, nil
}

func (p *parser) parseMultiplicative() (Expr, *QueryError) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isPunct("*") || p.isOp("/") {
		op := p.next().text
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l = &BinaryExpr{Op: op, L: l, R: r}
	}
	return l, nil
}

func (p *parser) parseUnary() (Expr, *QueryError) {
	switch {
	case p.isOp("!"):
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "!", X: x}, nil
	case p.isOp("-"):
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if c, ok := x.(*ConstExpr); ok {
			if lit, ok := c.Value.Literal(); ok && lit.IsNumeric() {
				if i, ok := lit.IntValue(); ok {
					return &ConstExpr{Value: entities.Lit(entities.Int(-i))}, nil
				}
				f, _ := lit.FloatValue()
				return &ConstExpr{Value: entities.Lit(entities.Float(-f))}, nil
			}
		}
		return &UnaryExpr{Op: "-", X: x}, nil
	case p.isOp("+"):
		p.next()
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, *QueryError) {
	t := p.peek()
	switch {
	case t.kind == tokPunct && t.text == "(":
		p.next()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return e, nil
	case t.kind == tokVar:
		p.next()
		return &VarExpr{Name: t.text}, nil
	case t.kind == tokIdent && !isBooleanWord(t.text):
		return p.parseCall()
	}
	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	return &ConstExpr{Value: term}, nil
}

func isBooleanWord(s string) bool {
	return strings.EqualFold(s, "true") || strings.EqualFold(s, "false")
}

func (p *parser) parseCall() (Expr, *QueryError) {
	t := p.next()
	name := strings.ToUpper(t.text)
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}

	if aggregates[name] {
		agg := &AggregateExpr{Fn: name}
		if p.acceptKeyword("DISTINCT") {
			agg.Distinct = true
		}
		if name == "COUNT" && p.acceptPunct("*") {
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return agg, nil
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		agg.Arg = arg
		return agg, nil
	}

	arity, ok := builtins[name]
	if !ok {
		return nil, newSyntaxError(t, "unknown function %s", t.text).
			WithSuggestions("supported: COUNT, SUM, AVG, MIN, MAX, IF, BOUND, STR, STRSTARTS, CONTAINS, LCASE")
	}
	var args []Expr
	if !p.acceptPunct(")") {
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, e)
			if p.acceptPunct(")") {
				break
			}
			if err := p.expectPunct(","); err != nil {
				return nil, err
			}
		}
	}
	if len(args) != arity {
		return nil, newSyntaxError(t, "%s takes %d argument(s), got %d", name, arity, len(args))
	}
	return &CallExpr{Fn: name, Args: args}, nil
}
