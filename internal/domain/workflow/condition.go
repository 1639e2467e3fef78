package workflow

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is a comparison operator applied to a single signal field.
type Op string

const (
	OpEq          Op = "eq"
	OpNeq         Op = "neq"
	OpGt          Op = "gt"
	OpGte         Op = "gte"
	OpLt          Op = "lt"
	OpLte         Op = "lte"
	OpContains    Op = "contains"
	OpNotContains Op = "not_contains"
	OpExists      Op = "exists"
	OpNotExists   Op = "not_exists"
)

// IsValid returns true if the operator is one of the defined constants.
func (o Op) IsValid() bool {
	switch o {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte,
		OpContains, OpNotContains, OpExists, OpNotExists:
		return true
	default:
		return false
	}
}

// Logic combines the results of a group's members.
type Logic string

const (
	LogicAnd Logic = "and"
	LogicOr  Logic = "or"
)

// IsValid returns true if the logic is one of the defined constants.
func (l Logic) IsValid() bool {
	return l == LogicAnd || l == LogicOr
}

// Condition is a single field predicate evaluated against signal fields.
// Value is ignored for exists/not_exists.
type Condition struct {
	Field string `json:"field"`
	Op    Op     `json:"op"`
	Value string `json:"value,omitempty"`
}

// Match evaluates the condition against the given fields. A missing field
// fails every operator except not_exists. Ordering operators compare
// numerically when both sides parse as numbers, lexically otherwise.
func (c Condition) Match(fields map[string]string) bool {
	got, ok := fields[c.Field]

	switch c.Op {
	case OpExists:
		return ok
	case OpNotExists:
		return !ok
	}
	if !ok {
		return false
	}

	switch c.Op {
	case OpEq:
		return got == c.Value
	case OpNeq:
		return got != c.Value
	case OpContains:
		return strings.Contains(got, c.Value)
	case OpNotContains:
		return !strings.Contains(got, c.Value)
	case OpGt:
		return compare(got, c.Value) > 0
	case OpGte:
		return compare(got, c.Value) >= 0
	case OpLt:
		return compare(got, c.Value) < 0
	case OpLte:
		return compare(got, c.Value) <= 0
	default:
		return false
	}
}

// compare orders two field values: numerically when both parse as floats,
// lexically otherwise. Returns -1, 0, or 1.
func compare(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

// ConditionGroup combines conditions and nested groups with AND/OR logic.
// An empty group (no conditions, no nested groups) matches everything, so a
// workflow with no conditions fires on every trigger signal.
type ConditionGroup struct {
	Logic      Logic            `json:"logic,omitempty"`
	Conditions []Condition      `json:"conditions,omitempty"`
	Groups     []ConditionGroup `json:"groups,omitempty"`
}

// IsEmpty returns true when the group has no members.
func (g ConditionGroup) IsEmpty() bool {
	return len(g.Conditions) == 0 && len(g.Groups) == 0
}

// Match evaluates the group against the given fields. A group with Logic
// unset behaves as AND.
func (g ConditionGroup) Match(fields map[string]string) bool {
	if g.IsEmpty() {
		return true
	}

	if g.Logic == LogicOr {
		for _, c := range g.Conditions {
			if c.Match(fields) {
				return true
			}
		}
		for _, sub := range g.Groups {
			if sub.Match(fields) {
				return true
			}
		}
		return false
	}

	for _, c := range g.Conditions {
		if !c.Match(fields) {
			return false
		}
	}
	for _, sub := range g.Groups {
		if !sub.Match(fields) {
			return false
		}
	}
	return true
}

// validate records per-field validation failures under the given prefix.
func (g ConditionGroup) validate(prefix string, fields map[string]string) {
	if !g.IsEmpty() && g.Logic != "" && !g.Logic.IsValid() {
		fields[prefix+".logic"] = fmt.Sprintf("invalid: %q", g.Logic)
	}
	for i, c := range g.Conditions {
		key := fmt.Sprintf("%s.conditions[%d]", prefix, i)
		if strings.TrimSpace(c.Field) == "" {
			fields[key+".field"] = "is required"
		}
		if !c.Op.IsValid() {
			fields[key+".op"] = fmt.Sprintf("invalid: %q", c.Op)
		}
	}
	for i, sub := range g.Groups {
		sub.validate(fmt.Sprintf("%s.groups[%d]", prefix, i), fields)
	}
}
