/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"fmt"

	"github.com/suparena/entityview/errors"
)

// Validate checks that expr is well formed: rooted at a Source, with no nil
// nodes, known operators, non-negative skips and nothing stacked on a Project.
func Validate(expr Expression) error {
	if expr == nil {
		return errors.NewValidationError("expression", "must not be nil")
	}
	for e, depth := expr, 0; e != nil; e, depth = InputOf(e), depth+1 {
		if _, ok := e.(Project); ok && depth > 0 {
			return errors.NewValidationError("expression", "no operator may follow Select")
		}
		switch n := e.(type) {
		case Source:
			if n.Type == nil {
				return errors.NewValidationError("source", fmt.Sprintf("%q has no element type", n.Name))
			}
			return nil
		case Filter:
			if n.Input == nil {
				return errors.NewValidationError("filter", "missing input")
			}
			if err := ValidatePredicate(n.Predicate); err != nil {
				return err
			}
		case Order:
			if n.Input == nil {
				return errors.NewValidationError("order", "missing input")
			}
			if len(n.Keys) == 0 {
				return errors.NewValidationError("order", "at least one sort key is required")
			}
			for _, k := range n.Keys {
				if k.Member == "" {
					return errors.NewValidationError("order", "sort key has no member")
				}
			}
		case Slice:
			if n.Input == nil {
				return errors.NewValidationError("slice", "missing input")
			}
			if n.Skip < 0 {
				return errors.NewValidationError("slice", fmt.Sprintf("negative skip %d", n.Skip))
			}
		case Project:
			if n.Input == nil {
				return errors.NewValidationError("select", "missing input")
			}
			if len(n.Members) == 0 {
				return errors.NewValidationError("select", "at least one member is required")
			}
			seen := make(map[string]bool, len(n.Members))
			for _, m := range n.Members {
				if m == "" {
					return errors.NewValidationError("select", "empty member name")
				}
				if seen[m] {
					return errors.NewValidationError("select", fmt.Sprintf("member %q selected twice", m))
				}
				seen[m] = true
			}
		default:
			return errors.NewUnsupportedExpressionError("validate", fmt.Sprintf("%T", e))
		}
	}
	return errors.NewValidationError("expression", "not rooted at a source")
}

// ValidatePredicate checks p for nil nodes, unknown operators and string
// operators with non-string operands.
func ValidatePredicate(p Predicate) error {
	switch pr := p.(type) {
	case nil:
		return errors.NewValidationError("predicate", "must not be nil")
	case Compare:
		if pr.Member == "" {
			return errors.NewValidationError("predicate", "comparison has no member")
		}
		if !pr.Op.Valid() {
			return errors.NewValidationError("predicate", fmt.Sprintf("unknown operator %s", pr.Op))
		}
		if pr.Op.IsStringOp() {
			if _, ok := pr.Value.(string); !ok {
				return errors.NewValidationError("predicate", fmt.Sprintf("%s %s needs a string, got %T", pr.Member, pr.Op, pr.Value))
			}
		}
	case And:
		for _, sub := range pr.Predicates {
			if err := ValidatePredicate(sub); err != nil {
				return err
			}
		}
	case Or:
		for _, sub := range pr.Predicates {
			if err := ValidatePredicate(sub); err != nil {
				return err
			}
		}
	case Not:
		return ValidatePredicate(pr.Predicate)
	default:
		return errors.NewUnsupportedExpressionError("validate", fmt.Sprintf("predicate %T", p))
	}
	return nil
}
