package pattern

import (
	"strings"

	"github.com/kyverno/admission-engine/pkg/engine/operator"
	"github.com/kyverno/admission-engine/pkg/utils/wildcard"
)

type tokenKind int

const (
	// anyValue is `*`, any present value
	anyValue tokenKind = iota
	// nonEmpty is `?*`, any present non empty value
	nonEmpty
	// glob is a string containing `*` or `?`
	glob
	// literal is compared for equality
	literal
	// comparison is one of `>`, `>=`, `<`, `<=` followed by an operand
	comparison
	// bounds is a `a-b` or `a!-b` range
	bounds
)

type token struct {
	kind    tokenKind
	op      operator.Operator
	negate  bool
	operand string
	lower   string
	upper   string
}

// expression is a disjunction (`|`) of conjunctions (`&`) of tokens.
type expression [][]token

func compile(pattern string) expression {
	var expr expression
	for _, alternative := range strings.Split(pattern, "|") {
		var conjunction []token
		for _, part := range strings.Split(alternative, "&") {
			conjunction = append(conjunction, parseToken(strings.TrimSpace(part)))
		}
		expr = append(expr, conjunction)
	}
	return expr
}

func parseToken(str string) token {
	switch str {
	case "*":
		return token{kind: anyValue}
	case "?*":
		return token{kind: nonEmpty}
	}
	op := operator.GetOperatorFromStringPattern(str)
	switch op {
	case operator.More, operator.MoreEqual, operator.Less, operator.LessEqual:
		return token{kind: comparison, op: op, operand: strings.TrimSpace(str[len(op):])}
	case operator.NotEqual:
		inner := parseToken(strings.TrimSpace(str[len(op):]))
		inner.negate = !inner.negate
		return inner
	case operator.InRange, operator.NotInRange:
		if lower, upper, ok := operator.SplitRange(str, op); ok {
			return token{kind: bounds, op: op, lower: lower, upper: upper}
		}
	}
	if wildcard.ContainsWildcard(str) {
		return token{kind: glob, operand: str}
	}
	return token{kind: literal, operand: str}
}

func (e expression) match(value interface{}) bool {
	for _, conjunction := range e {
		matched := true
		for _, t := range conjunction {
			if !t.match(value) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func (t token) match(value interface{}) bool {
	result := t.matchPositive(value)
	if t.negate {
		return !result
	}
	return result
}

func (t token) matchPositive(value interface{}) bool {
	switch t.kind {
	case anyValue:
		return value != nil
	case nonEmpty:
		return isNonEmpty(value)
	case glob:
		str, ok := scalarString(value)
		return ok && wildcard.Match(t.operand, str)
	case literal:
		return equalsString(value, t.operand)
	case comparison:
		cmp, ok := compareWith(value, t.operand)
		if !ok {
			return false
		}
		switch t.op {
		case operator.More:
			return cmp > 0
		case operator.MoreEqual:
			return cmp >= 0
		case operator.Less:
			return cmp < 0
		case operator.LessEqual:
			return cmp <= 0
		}
	case bounds:
		lower, ok := compareWith(value, t.lower)
		if !ok {
			return false
		}
		upper, ok := compareWith(value, t.upper)
		if !ok {
			return false
		}
		inRange := lower >= 0 && upper <= 0
		if t.op == operator.NotInRange {
			return !inRange
		}
		return inRange
	}
	return false
}
