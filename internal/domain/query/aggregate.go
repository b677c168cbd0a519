package query

import (
	"strconv"

	"github.com/ersonp/tankgraph/internal/domain/entities"
)

// termKey is a grouping key that keeps literal kinds apart, so Int 1 and
// Float 1 land in different groups.
func termKey(t entities.Term) string {
	if id, ok := t.Identifier(); ok {
		return "I" + string(id)
	}
	if lit, ok := t.Literal(); ok {
		return "L" + strconv.Itoa(int(lit.Type())) + ":" + lit.Lexical()
	}
	return "U"
}

// aggregateValues evaluates an aggregate over the rows of one group.
// The zero Term means the aggregate has no value.
func aggregateValues(a *AggregateExpr, rows []env) entities.Term {
	if a.Fn == "COUNT" && a.Arg == nil {
		return entities.Lit(entities.Int(int64(len(rows))))
	}

	values := make([]entities.Term, 0, len(rows))
	seen := make(map[string]bool)
	for _, row := range rows {
		v, err := evalExpr(a.Arg, row)
		if err != nil || v.IsZero() {
			continue
		}
		if a.Distinct {
			k := termKey(v)
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		values = append(values, v)
	}

	switch a.Fn {
	case "COUNT":
		return entities.Lit(entities.Int(int64(len(values))))
	case "SUM":
		sum, _ := sumNumeric(values)
		return sum
	case "AVG":
		sum, n := sumNumeric(values)
		if n == 0 {
			return entities.Term{}
		}
		lit, _ := sum.Literal()
		total, _ := lit.Numeric()
		return entities.Lit(entities.Float(total / float64(n)))
	case "MIN", "MAX":
		var best entities.Term
		for _, v := range values {
			if best.IsZero() {
				best = v
				continue
			}
			c := v.Compare(best)
			if (a.Fn == "MIN" && c < 0) || (a.Fn == "MAX" && c > 0) {
				best = v
			}
		}
		return best
	default:
		return entities.Term{}
	}
}

// sumNumeric adds the numeric values, staying integral while every
// addend is an integer. Non-numeric values are skipped.
func sumNumeric(values []entities.Term) (entities.Term, int) {
	var (
		isum    int64
		fsum    float64
		n       int
		integer = true
	)
	for _, v := range values {
		lit, ok := v.Literal()
		if !ok || !lit.IsNumeric() {
			continue
		}
		n++
		if i, ok := lit.IntValue(); ok && integer {
			isum += i
			continue
		}
		if integer {
			fsum = float64(isum)
			integer = false
		}
		f, _ := lit.Numeric()
		fsum += f
	}
	if integer {
		return entities.Lit(entities.Int(isum)), n
	}
	return entities.Lit(entities.Float(fsum)), n
}
