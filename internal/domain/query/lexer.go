package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIRI           // <http://...>
	tokPName         // wot:Tank or wot:
	tokVar           // ?name
	tokString        // "text" or 'text', unescaped
	tokNumber        // 10, 0.5, 1e3
	tokIdent         // keywords, function names, a, true, false
	tokPunct         // { } ( ) . ; , * ^^ @
	tokOp            // = != < <= > >= && || ! + - /
)

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

// lexer splits query text into tokens.
type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func tokenize(src string) ([]token, error) {
	lx := &lexer{src: src, line: 1, col: 1}
	var out []token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.kind == tokEOF {
			return out, nil
		}
	}
}

func (lx *lexer) peekRune(offset int) rune {
	p := lx.pos
	for ; offset > 0 && p < len(lx.src); offset-- {
		_, size := utf8.DecodeRuneInString(lx.src[p:])
		p += size
	}
	if p >= len(lx.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(lx.src[p:])
	return r
}

func (lx *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
	lx.pos += size
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

func (lx *lexer) skipSpaceAndComments() {
	for lx.pos < len(lx.src) {
		r := lx.peekRune(0)
		switch {
		case unicode.IsSpace(r):
			lx.advance()
		case r == '#':
			for lx.pos < len(lx.src) && lx.peekRune(0) != '\n' {
				lx.advance()
			}
		default:
			return
		}
	}
}

func (lx *lexer) next() (token, error) {
	lx.skipSpaceAndComments()
	start := token{line: lx.line, col: lx.col}
	if lx.pos >= len(lx.src) {
		start.kind = tokEOF
		return start, nil
	}

	r := lx.peekRune(0)
	switch {
	case r == '<' && lx.looksLikeIRI():
		lx.advance()
		begin := lx.pos
		for lx.peekRune(0) != '>' {
			lx.advance()
		}
		start.kind, start.text = tokIRI, lx.src[begin:lx.pos]
		lx.advance()
		return start, nil
	case r == '?' || r == '$':
		lx.advance()
		name := lx.readWhile(isVarChar)
		if name == "" {
			start.text = string(r)
			return start, newSyntaxError(start, "expected variable name")
		}
		start.kind, start.text = tokVar, name
		return start, nil
	case r == '"' || r == '\'':
		s, err := lx.readString(r)
		if err != nil {
			start.text = string(r)
			return start, newSyntaxError(start, "%v", err.Error())
		}
		start.kind, start.text = tokString, s
		return start, nil
	case unicode.IsDigit(r) || (r == '.' && unicode.IsDigit(lx.peekRune(1))):
		start.kind, start.text = tokNumber, lx.readNumber()
		return start, nil
	case unicode.IsLetter(r) || r == '_' || r == ':':
		word := lx.readWhile(isIdentChar)
		if lx.peekRune(0) == ':' {
			lx.advance()
			local := lx.readLocalName()
			start.kind, start.text = tokPName, word+":"+local
			return start, nil
		}
		start.kind, start.text = tokIdent, word
		return start, nil
	}

	two := r2s(r, lx.peekRune(1))
	switch two {
	case "!=", "<=", ">=", "&&", "||":
		lx.advance()
		lx.advance()
		start.kind, start.text = tokOp, two
		return start, nil
	case "^^":
		lx.advance()
		lx.advance()
		start.kind, start.text = tokPunct, two
		return start, nil
	}

	switch r {
	case '=', '<', '>', '!', '+', '-', '/':
		lx.advance()
		start.kind, start.text = tokOp, string(r)
		return start, nil
	case '{', '}', '(', ')', '.', ';', ',', '*', '@', '[', ']':
		lx.advance()
		start.kind, start.text = tokPunct, string(r)
		return start, nil
	}

	start.text = string(r)
	return start, newSyntaxError(start, "unexpected character")
}

func r2s(a, b rune) string {
	if b == 0 {
		return string(a)
	}
	return string([]rune{a, b})
}

// looksLikeIRI tells an IRI reference from the less-than operator: an IRI
// closes with '>' before any whitespace.
func (lx *lexer) looksLikeIRI() bool {
	rest := lx.src[lx.pos+1:]
	end := strings.IndexByte(rest, '>')
	if end <= 0 {
		return false
	}
	return strings.IndexFunc(rest[:end], unicode.IsSpace) < 0 && !strings.ContainsAny(rest[:end], "<\"{}")
}

func (lx *lexer) readWhile(fn func(rune) bool) string {
	begin := lx.pos
	for lx.pos < len(lx.src) && fn(lx.peekRune(0)) {
		lx.advance()
	}
	return lx.src[begin:lx.pos]
}

// readLocalName reads the local part of a prefixed name. A trailing '.'
// ends the triple rather than belonging to the name.
func (lx *lexer) readLocalName() string {
	begin := lx.pos
	for lx.pos < len(lx.src) {
		r := lx.peekRune(0)
		if isNameChar(r) {
			lx.advance()
			continue
		}
		if r == '.' && isNameChar(lx.peekRune(1)) {
			lx.advance()
			continue
		}
		break
	}
	return lx.src[begin:lx.pos]
}

func (lx *lexer) readNumber() string {
	begin := lx.pos
	lx.readWhile(unicode.IsDigit)
	if lx.peekRune(0) == '.' && unicode.IsDigit(lx.peekRune(1)) {
		lx.advance()
		lx.readWhile(unicode.IsDigit)
	}
	if r := lx.peekRune(0); r == 'e' || r == 'E' {
		next := lx.peekRune(1)
		if unicode.IsDigit(next) || ((next == '+' || next == '-') && unicode.IsDigit(lx.peekRune(2))) {
			lx.advance()
			if next == '+' || next == '-' {
				lx.advance()
			}
			lx.readWhile(unicode.IsDigit)
		}
	}
	return lx.src[begin:lx.pos]
}

type lexError string

func (e lexError) Error() string { return string(e) }

func (lx *lexer) readString(quote rune) (string, error) {
	lx.advance()
	var b strings.Builder
	for {
		if lx.pos >= len(lx.src) {
			return "", lexError("unterminated string")
		}
		r := lx.advance()
		switch r {
		case quote:
			return b.String(), nil
		case '\n':
			return "", lexError("unterminated string")
		case '\\':
			if lx.pos >= len(lx.src) {
				return "", lexError("unterminated string")
			}
			esc := lx.advance()
			switch esc {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case 'r':
				b.WriteRune('\r')
			case '"', '\'', '\\':
				b.WriteRune(esc)
			default:
				return "", lexError("invalid escape \\" + string(esc))
			}
		default:
			b.WriteRune(r)
		}
	}
}

func isVarChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isIdentChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// isNameChar reports whether r may appear in the local part of a prefixed
// name.
func isNameChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}
