package auth

import "gorm.io/gorm"

// Cond is one parameterized predicate of a scope filter
type Cond struct {
	Expr string
	Args []interface{}
}

// Scope is the row-level filter attached to an allow decision. It is a
// predicate list plus the joins those predicates need, merged into the
// caller's query; never built by string concatenation with user input.
type Scope struct {
	Joins []string
	Conds []Cond
}

// Apply merges the scope into a gorm query
func (s Scope) Apply(q *gorm.DB) *gorm.DB {
	for _, j := range s.Joins {
		q = q.Joins(j)
	}
	for _, c := range s.Conds {
		q = q.Where(c.Expr, c.Args...)
	}
	return q
}

// ApplyConds merges only the predicates, for callers whose query already
// contains the scope's joins
func (s Scope) ApplyConds(q *gorm.DB) *gorm.DB {
	for _, c := range s.Conds {
		q = q.Where(c.Expr, c.Args...)
	}
	return q
}

// Unrestricted reports whether the scope filters nothing (super admin)
func (s Scope) Unrestricted() bool {
	return len(s.Joins) == 0 && len(s.Conds) == 0
}

func where(expr string, args ...interface{}) Cond {
	return Cond{Expr: expr, Args: args}
}
