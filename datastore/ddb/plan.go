/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/entityview/query"
	"github.com/suparena/entityview/registry"
	"github.com/suparena/entityview/storagemodels"
)

// plan splits expr into a DynamoDB read and a residual expression evaluated
// in process over the items the read returns.
//
// Filter conjuncts below the first Slice are pushed into the FilterExpression
// when they compare an encoded field against a string, number or bool. An
// equality on the only macro of the PK (or GSI1 partition key) template turns
// the Scan into a Query. Ordering, slicing, projection and all other
// conjuncts stay in the residual.
func (d *DynamodbDataStore[T]) plan(expr query.Expression) (*storagemodels.QueryParams, query.Expression, error) {
	src, ok := query.SourceOf(expr)
	if !ok {
		return nil, nil, fmt.Errorf("expression %s has no source", expr)
	}

	var chain []query.Expression
	for e := expr; e != nil; e = query.InputOf(e) {
		if _, ok := e.(query.Source); ok {
			break
		}
		chain = append([]query.Expression{e}, chain...)
	}

	var (
		pushed   []query.Predicate
		residual query.Expression = src
		sliced   bool
	)
	for _, node := range chain {
		switch n := node.(type) {
		case query.Filter:
			if sliced {
				residual = query.Where(residual, n.Predicate)
				continue
			}
			var keep []query.Predicate
			for _, c := range query.Conjuncts(n.Predicate) {
				if pushable(src.Type, c) {
					pushed = append(pushed, c)
				} else {
					keep = append(keep, c)
				}
			}
			switch len(keep) {
			case 0:
			case 1:
				residual = query.Where(residual, keep[0])
			default:
				residual = query.Where(residual, query.AllOf(keep...))
			}
		case query.Order:
			residual = query.OrderBy(residual, n.Keys...)
		case query.Slice:
			sliced = true
			residual = query.Slice{Input: residual, Skip: n.Skip, Take: n.Take}
		case query.Project:
			residual = query.Select(residual, n.Members...)
		}
	}

	b := newFilterBuilder(src.Type)
	b.names["#et"] = EntityTypeAttribute
	b.values[":et"] = &types.AttributeValueMemberS{Value: d.entityType}
	clauses := []string{"#et = :et"}
	for _, p := range pushed {
		clauses = append(clauses, "("+b.compile(p)+")")
	}
	filter := strings.Join(clauses, " AND ")

	params := &storagemodels.QueryParams{
		TableName:        d.tableName,
		FilterExpression: &filter,
	}
	if kc, ok := d.keyCondition(src.Type, pushed); ok {
		params.KeyConditionExpression = "#pk = :pk"
		params.IndexName = kc.index
		b.names["#pk"] = kc.attr
		b.values[":pk"] = &types.AttributeValueMemberS{Value: kc.value}
	}
	params.ExpressionAttributeNames = b.names
	params.ExpressionAttributeValues = b.values
	return params, residual, nil
}

var comparators = map[query.Op]string{
	query.Eq: "=",
	query.Ne: "<>",
	query.Lt: "<",
	query.Le: "<=",
	query.Gt: ">",
	query.Ge: ">=",
}

func pushable(t reflect.Type, p query.Predicate) bool {
	switch pr := p.(type) {
	case query.Compare:
		if pr.Op == query.ContainsFold || pr.Value == nil {
			return false
		}
		if _, err := query.ResolveField(t, pr.Member); err != nil {
			return false
		}
		av, err := encodeValue(pr.Value)
		if err != nil {
			return false
		}
		switch av.(type) {
		case *types.AttributeValueMemberS:
			return true
		case *types.AttributeValueMemberN:
			return !pr.Op.IsStringOp()
		case *types.AttributeValueMemberBOOL:
			return pr.Op == query.Eq || pr.Op == query.Ne
		}
		return false
	case query.And:
		return len(pr.Predicates) > 0 && allPushable(t, pr.Predicates)
	case query.Or:
		return len(pr.Predicates) > 0 && allPushable(t, pr.Predicates)
	case query.Not:
		return pushable(t, pr.Predicate)
	}
	return false
}

func allPushable(t reflect.Type, ps []query.Predicate) bool {
	for _, p := range ps {
		if !pushable(t, p) {
			return false
		}
	}
	return true
}

// filterBuilder renders pushable predicates with #nN name and :vN value
// placeholders.
type filterBuilder struct {
	elemType reflect.Type
	names    map[string]string
	byAttr   map[string]string
	values   map[string]types.AttributeValue
	nValues  int
}

func newFilterBuilder(t reflect.Type) *filterBuilder {
	return &filterBuilder{
		elemType: t,
		names:    make(map[string]string),
		byAttr:   make(map[string]string),
		values:   make(map[string]types.AttributeValue),
	}
}

func (b *filterBuilder) name(attr string) string {
	if ph, ok := b.byAttr[attr]; ok {
		return ph
	}
	ph := fmt.Sprintf("#n%d", len(b.byAttr))
	b.byAttr[attr] = ph
	b.names[ph] = attr
	return ph
}

func (b *filterBuilder) value(av types.AttributeValue) string {
	ph := fmt.Sprintf(":v%d", b.nValues)
	b.nValues++
	b.values[ph] = av
	return ph
}

// compile renders p, which must be pushable.
func (b *filterBuilder) compile(p query.Predicate) string {
	switch pr := p.(type) {
	case query.Compare:
		m, _ := query.ResolveField(b.elemType, pr.Member)
		av, _ := encodeValue(pr.Value)
		n, v := b.name(m.JSONName), b.value(av)
		switch pr.Op {
		case query.Contains:
			return fmt.Sprintf("contains(%s, %s)", n, v)
		case query.HasPrefix:
			return fmt.Sprintf("begins_with(%s, %s)", n, v)
		default:
			return fmt.Sprintf("%s %s %s", n, comparators[pr.Op], v)
		}
	case query.And:
		return b.join(pr.Predicates, " AND ")
	case query.Or:
		return b.join(pr.Predicates, " OR ")
	case query.Not:
		return "NOT (" + b.compile(pr.Predicate) + ")"
	}
	return ""
}

func (b *filterBuilder) join(ps []query.Predicate, sep string) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = "(" + b.compile(p) + ")"
	}
	return strings.Join(parts, sep)
}

type keyCondition struct {
	attr  string
	value string
	index *string
}

// keyCondition looks for an equality on the single macro of the PK template,
// then of the GSI1 partition key template.
func (d *DynamodbDataStore[T]) keyCondition(t reflect.Type, pushed []query.Predicate) (keyCondition, bool) {
	indexMap, ok := registry.GetIndexMap[T]()
	if !ok {
		return keyCondition{}, false
	}

	type candidate struct {
		attr  string
		index *string
	}
	candidates := []candidate{{attr: "PK"}}
	if cfg, ok := GetGSIConfig("GSI1"); ok {
		candidates = append(candidates, candidate{attr: cfg.PartitionKeyName, index: aws.String(cfg.IndexName)})
	}

	for _, c := range candidates {
		template, ok := indexMap[c.attr]
		if !ok {
			continue
		}
		macros := macroPattern.FindAllStringSubmatch(template, -1)
		if len(macros) != 1 {
			continue
		}
		for _, p := range pushed {
			cmp, ok := p.(query.Compare)
			if !ok || cmp.Op != query.Eq || !sameField(t, cmp.Member, macros[0][1]) {
				continue
			}
			s, ok := keyString(cmp.Value)
			if !ok {
				continue
			}
			return keyCondition{
				attr:  c.attr,
				value: macroPattern.ReplaceAllLiteralString(template, s),
				index: c.index,
			}, true
		}
	}
	return keyCondition{}, false
}

func sameField(t reflect.Type, a, b string) bool {
	ma, err := query.ResolveField(t, a)
	if err != nil {
		return false
	}
	mb, err := query.ResolveField(t, b)
	if err != nil {
		return false
	}
	return ma.JSONName == mb.JSONName
}

// keyString formats v the way expandMacros formats member values. Empty
// strings never match: records with an empty macro value are left out of
// sparse indexes.
func keyString(v any) (string, bool) {
	switch reflect.ValueOf(v).Kind() {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		s := fmt.Sprint(v)
		return s, s != ""
	}
	return "", false
}
