// Package stormsql translates SQL SELECT statements into Storm queries so a
// plain bbolt file can be inspected with a familiar syntax.
package stormsql

import (
	"fmt"
	"strconv"

	"github.com/araddon/dateparse"
	"github.com/asdine/storm/v3/q"
	"github.com/pkg/errors"
	"github.com/xwb1989/sqlparser"
)

// A SelectClause contains all the parsed SQL data.
type SelectClause struct {
	SelectedFields  []string
	Count           bool
	Tablename       string
	Matcher         q.Matcher
	Skip            int
	Limit           int
	OrderBy         []string
	OrderByReversed bool
}

// ParseSelect parses the given SELECT statement.
func ParseSelect(sql string) (*SelectClause, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse SQL")
	}

	s, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, errors.New("not a select statement")
	}

	var sc SelectClause

	// SELECT * ...
	// SELECT UserID,UpdatedAt ...
	for _, se := range s.SelectExprs {
		switch v := se.(type) {
		case *sqlparser.StarExpr:
			sc.SelectedFields = []string{}
		case *sqlparser.AliasedExpr:
			switch v := v.Expr.(type) {
			case *sqlparser.ColName:
				sc.SelectedFields = append(sc.SelectedFields, v.Name.String())
			case *sqlparser.FuncExpr:
				sc.SelectedFields = []string{}
				sc.Count = v.Name.String() == "count"
			}
		default:
			return nil, errors.New("unsupported select expression")
		}
	}

	// FROM saves
	sc.Tablename = sqlparser.GetTableName(s.From[0].(*sqlparser.AliasedTableExpr).Expr).String()

	// WHERE
	sc.Matcher = q.And()
	if s.Where != nil {
		if sc.Matcher, err = parseWhereExpr(s.Where.Expr); err != nil {
			return nil, err
		}
	}

	// LIMIT 5
	// LIMIT 2,5
	if s.Limit != nil {
		if s.Limit.Offset != nil {
			v, err := parseSQLVal(s.Limit.Offset.(*sqlparser.SQLVal))
			if err != nil {
				return nil, err
			}
			sc.Skip = v.(int)
		}
		v, err := parseSQLVal(s.Limit.Rowcount.(*sqlparser.SQLVal))
		if err != nil {
			return nil, err
		}
		sc.Limit = v.(int)
	}

	// ORDER BY UpdatedAt
	// ORDER BY UpdatedAt DESC
	// ORDER BY UpdatedAt DESC, CreatedAt ASC     => All will be DESC due to storm limitation
	for _, ob := range s.OrderBy {
		if ob.Direction == "desc" {
			sc.OrderByReversed = true
		}
		sc.OrderBy = append(sc.OrderBy, ob.Expr.(*sqlparser.ColName).Name.String())
	}

	return &sc, nil
}

func parseWhereExpr(expr sqlparser.Expr) (q.Matcher, error) {
	switch v := expr.(type) {
	//
	//
	//
	case *sqlparser.ComparisonExpr:
		field := v.Left.(*sqlparser.ColName).Name.String()
		var value any
		var err error

		// Parse value
		switch sqlvalue := v.Right.(type) {
		case sqlparser.BoolVal:
			value = sqlvalue
		case sqlparser.ValTuple:
			var tuple []any
			for _, t := range sqlvalue {
				item, err := parseSQLVal(t.(*sqlparser.SQLVal))
				if err != nil {
					return nil, err
				}
				tuple = append(tuple, item)
			}
			value = tuple
		case *sqlparser.SQLVal:
			if value, err = parseSQLVal(sqlvalue); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Errorf("unsupported value: %#v", v.Right)
		}

		// Parse operator
		switch v.Operator {
		case "=":
			return q.Eq(field, value), nil
		case "!=":
			return q.Not(q.Eq(field, value)), nil
		case ">":
			return q.Gt(field, value), nil
		case ">=":
			return q.Gte(field, value), nil
		case "in":
			return q.In(field, value), nil
		case "<":
			return q.Lt(field, value), nil
		case "<=":
			return q.Lte(field, value), nil
		case "like":
			return q.Re(field, fmt.Sprintf("%v", value)), nil
		default:
			return nil, errors.Errorf("unsupported operator: %s", v.Operator)
		}
		//
		//
		//
	case *sqlparser.IsExpr:
		switch v.Operator {
		case "is not null":
			return q.Not(q.Eq(v.Expr.(*sqlparser.ColName).Name.String(), nil)), nil
		default:
			return nil, errors.Errorf("unsupported IS expression: %s", v.Operator)
		}
		//
		//
		//
	case *sqlparser.AndExpr:
		left, err := parseWhereExpr(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := parseWhereExpr(v.Right)
		if err != nil {
			return nil, err
		}
		return q.And(left, right), nil
		//
		//
		//
	case *sqlparser.OrExpr:
		left, err := parseWhereExpr(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := parseWhereExpr(v.Right)
		if err != nil {
			return nil, err
		}
		return q.Or(left, right), nil
		//
		//
		//
	default:
		return nil, errors.Errorf("unsupported where expression: %#v", expr)
	}
}

func parseSQLVal(v *sqlparser.SQLVal) (value any, err error) {
	switch v.Type {
	case sqlparser.StrVal:
		value = string(v.Val)

		// Try to convert to time.Time if possible
		if t, err := dateparse.ParseAny(string(v.Val)); err == nil {
			value = t.UTC()
		}
	case sqlparser.IntVal:
		value, _ = strconv.Atoi(string(v.Val))
	case sqlparser.FloatVal:
		value, _ = strconv.ParseFloat(string(v.Val), 64)
	case sqlparser.HexNum:
		value, _ = strconv.ParseInt(string(v.Val), 16, 64)
	case sqlparser.HexVal:
		if value, err = v.HexDecode(); err != nil {
			return nil, errors.Wrap(err, "could not decode hexadecimal value")
		}
	case sqlparser.BitVal:
		value = v.Val[0] == 1
	default:
		return nil, errors.Errorf("unsupported value type: %v", v.Type)
	}

	return value, nil
}
