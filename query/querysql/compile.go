/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package querysql

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/suparena/entityview/errors"
	"github.com/suparena/entityview/query"
)

const provider = "querysql"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Plan is a compiled query.
type Plan struct {
	// SQL selects (key, data) rows in result order.
	SQL string
	// Args are the values for SQL's ? placeholders, in order.
	Args []any
	// Project lists the members to project each decoded row onto. Empty
	// unless the expression ends in a Select.
	Project []string
}

// Compile translates expr into SQLite SQL over table, a table with a
// `key TEXT PRIMARY KEY` column and a JSON `data` column.
//
// Every query carries an ORDER BY ending in key so results are
// deterministic. Values are always bound, never interpolated.
func Compile(table string, expr query.Expression) (Plan, error) {
	if err := CheckTable(table); err != nil {
		return Plan{}, err
	}
	if err := query.Validate(expr); err != nil {
		return Plan{}, err
	}
	src, _ := query.SourceOf(expr)

	// operators from the source upwards
	var chain []query.Expression
	for e := expr; e != nil; e = query.InputOf(e) {
		if _, ok := e.(query.Source); ok {
			break
		}
		chain = append(chain, e)
	}
	slices.Reverse(chain)

	c := &compiler{elemType: src.Type}
	s := &selectState{from: quote(table), limit: -1}
	var project []string

	for _, node := range chain {
		switch n := node.(type) {
		case query.Filter:
			if s.sliced {
				s = c.wrap(s)
			}
			cond, args, err := c.predicate(n.Predicate)
			if err != nil {
				return Plan{}, err
			}
			s.where = append(s.where, cond)
			s.whereArgs = append(s.whereArgs, args...)
		case query.Order:
			if s.sliced {
				s = c.wrap(s)
			}
			keys := make([]string, 0, len(n.Keys))
			for _, k := range n.Keys {
				col, err := c.column(k.Member)
				if err != nil {
					return Plan{}, err
				}
				if k.Descending {
					col += " DESC"
				}
				keys = append(keys, col)
			}
			// The newest ordering leads; earlier ones break its ties.
			s.order = append(keys, s.order...)
		case query.Slice:
			s.applySlice(n.Skip, n.Take)
		case query.Project:
			for _, m := range n.Members {
				if _, err := query.ResolveMember(c.elemType, m); err != nil {
					return Plan{}, err
				}
			}
			project = n.Members
		}
	}

	sql, args := s.render()
	return Plan{SQL: sql, Args: args, Project: project}, nil
}

type compiler struct {
	elemType reflect.Type
	depth    int
}

type selectState struct {
	from      string
	fromArgs  []any
	where     []string
	whereArgs []any
	order     []string
	sliced    bool
	offset    int
	limit     int // -1 means no limit
}

func (s *selectState) applySlice(skip, take int) {
	if !s.sliced {
		s.sliced = true
		s.offset = skip
		s.limit = take
		return
	}
	s.offset += skip
	remaining := s.limit
	if remaining >= 0 {
		remaining = max(remaining-skip, 0)
	}
	switch {
	case take < 0:
		s.limit = remaining
	case remaining < 0:
		s.limit = take
	default:
		s.limit = min(remaining, take)
	}
}

func (s *selectState) render() (string, []any) {
	var b strings.Builder
	args := slices.Clone(s.fromArgs)

	b.WriteString("SELECT key, data FROM ")
	b.WriteString(s.from)
	if len(s.where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(s.where, " AND "))
		args = append(args, s.whereArgs...)
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(strings.Join(append(slices.Clone(s.order), "key"), ", "))
	if s.sliced {
		b.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, s.limit, s.offset)
	}
	return b.String(), args
}

// wrap turns s into a subquery. The subquery's ordering is carried outwards
// so later operators see the same order.
func (c *compiler) wrap(s *selectState) *selectState {
	sql, args := s.render()
	c.depth++
	return &selectState{
		from:     fmt.Sprintf("(%s) AS q%d", sql, c.depth),
		fromArgs: args,
		order:    s.order,
		limit:    -1,
	}
}

// column returns the SQL expression reading member from the data column.
func (c *compiler) column(member string) (string, error) {
	m, err := query.ResolveField(c.elemType, member)
	if err != nil {
		return "", err
	}
	if !identifier.MatchString(m.JSONName) {
		return "", errors.NewUnsupportedExpressionError(provider, fmt.Sprintf("member %s is encoded as %q", member, m.JSONName))
	}
	return fmt.Sprintf("json_extract(data, '$.%s')", m.JSONName), nil
}

var comparisons = map[query.Op]string{
	query.Eq: "=",
	query.Ne: "!=",
	query.Lt: "<",
	query.Le: "<=",
	query.Gt: ">",
	query.Ge: ">=",
}

func (c *compiler) predicate(p query.Predicate) (string, []any, error) {
	switch pr := p.(type) {
	case query.Compare:
		return c.compare(pr)
	case query.And:
		return c.junction(pr.Predicates, " AND ", "1")
	case query.Or:
		return c.junction(pr.Predicates, " OR ", "0")
	case query.Not:
		inner, args, err := c.predicate(pr.Predicate)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + inner + ")", args, nil
	default:
		return "", nil, errors.NewUnsupportedExpressionError(provider, fmt.Sprintf("predicate %T", p))
	}
}

func (c *compiler) junction(ps []query.Predicate, sep, empty string) (string, []any, error) {
	if len(ps) == 0 {
		return empty, nil, nil
	}
	parts := make([]string, 0, len(ps))
	var args []any
	for _, sub := range ps {
		sql, subArgs, err := c.predicate(sub)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		args = append(args, subArgs...)
	}
	return strings.Join(parts, sep), args, nil
}

func (c *compiler) compare(cmp query.Compare) (string, []any, error) {
	col, err := c.column(cmp.Member)
	if err != nil {
		return "", nil, err
	}

	switch cmp.Op {
	case query.Contains:
		return fmt.Sprintf("instr(%s, ?) > 0", col), []any{cmp.Value}, nil
	case query.HasPrefix:
		s := cmp.Value.(string)
		return fmt.Sprintf("substr(%s, 1, ?) = ?", col), []any{utf8.RuneCountInString(s), s}, nil
	case query.ContainsFold:
		// SQLite's lower() folds ASCII only.
		return fmt.Sprintf("instr(lower(%s), lower(?)) > 0", col), []any{cmp.Value}, nil
	}

	v, err := Param(cmp.Value)
	if err != nil {
		return "", nil, err
	}
	if v == nil {
		switch cmp.Op {
		case query.Eq:
			return col + " IS NULL", nil, nil
		case query.Ne:
			return col + " IS NOT NULL", nil, nil
		default:
			return "", nil, errors.NewUnsupportedExpressionError(provider, fmt.Sprintf("%s against null", cmp.Op))
		}
	}
	return fmt.Sprintf("%s %s ?", col, comparisons[cmp.Op]), []any{v}, nil
}

// Param converts a comparison literal into the form its JSON encoding takes
// inside the data column: strings, int64, float64, or 0/1 for booleans.
// Other values (dates, times, ids) go through their JSON encoding.
func Param(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		if _, isMarshaler := v.(json.Marshaler); !isMarshaler {
			return rv.String(), nil
		}
	case reflect.Bool:
		if rv.Bool() {
			return 1, nil
		}
		return 0, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Ptr:
		if rv.IsNil() {
			return nil, nil
		}
		return Param(rv.Elem().Interface())
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T parameter: %w", v, err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode %T parameter: %w", v, err)
	}
	switch d := decoded.(type) {
	case nil, string, float64:
		return d, nil
	case bool:
		return Param(d)
	default:
		return nil, errors.NewUnsupportedExpressionError(provider, fmt.Sprintf("cannot compare against %T", v))
	}
}

// CheckTable rejects table names that are not plain identifiers.
func CheckTable(name string) error {
	if !identifier.MatchString(name) {
		return errors.NewValidationError("table", fmt.Sprintf("invalid table name %q", name))
	}
	return nil
}

func quote(name string) string {
	return `"` + name + `"`
}
