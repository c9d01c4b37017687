package postgres

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"career-catalog-backend/internal/domain"
	"career-catalog-backend/pkg/querybuilder"

	"github.com/lib/pq"
)

type columnKind int

const (
	kindText columnKind = iota
	kindNumber
	kindTime
	kindArray
)

type column struct {
	expr string
	kind columnKind
	// sortExpr overrides expr in ORDER BY.
	sortExpr string
}

func (c column) orderExpr() string {
	if c.sortExpr != "" {
		return c.sortExpr
	}
	return c.expr
}

// jsonNumber sorts a jsonb number and places text values last.
func jsonNumber(path string) string {
	return fmt.Sprintf("(CASE WHEN jsonb_typeof(%s) = 'number' THEN (%s)::numeric END)", path, strings.Replace(path, "->", "->>", 1))
}

var careerColumnMap = map[string]column{
	"id":               {expr: "id", kind: kindText},
	"title":            {expr: "title", kind: kindText},
	"slug":             {expr: "slug", kind: kindText},
	"category":         {expr: "category", kind: kindText},
	"description":      {expr: "description", kind: kindText},
	"duration":         {expr: "duration", kind: kindText},
	"minimumMeanGrade": {expr: "minimum_mean_grade", kind: kindText},
	"marketDemand":     {expr: "market_demand", kind: kindText},
	"views":            {expr: "views", kind: kindNumber},
	"saves":            {expr: "saves", kind: kindNumber},
	"createdAt":        {expr: "created_at", kind: kindTime},
	"updatedAt":        {expr: "updated_at", kind: kindTime},
	"keySubjects":      {expr: "key_subjects", kind: kindArray},
	"jobProspects":     {expr: "job_prospects", kind: kindArray},
	"skillsRequired":   {expr: "skills_required", kind: kindArray},
	"industryTrends":   {expr: "industry_trends", kind: kindArray},
	"institutions":     {expr: "institutions", kind: kindArray},
	"salary.entry":     {expr: "salary->>'entry'", kind: kindText, sortExpr: jsonNumber("salary->'entry'")},
	"salary.mid":       {expr: "salary->>'mid'", kind: kindText, sortExpr: jsonNumber("salary->'mid'")},
	"salary.senior":    {expr: "salary->>'senior'", kind: kindText, sortExpr: jsonNumber("salary->'senior'")},
}

var institutionColumnMap = map[string]column{
	"id":              {expr: "id", kind: kindText},
	"name":            {expr: "name", kind: kindText},
	"slug":            {expr: "slug", kind: kindText},
	"type":            {expr: "type", kind: kindText},
	"description":     {expr: "description", kind: kindText},
	"location.county": {expr: "location->>'county'", kind: kindText},
	"location.town":   {expr: "location->>'town'", kind: kindText},
	"facilities":      {expr: "facilities", kind: kindArray},
	"accreditation":   {expr: "accreditation", kind: kindArray},
	"createdAt":       {expr: "created_at", kind: kindTime},
	"updatedAt":       {expr: "updated_at", kind: kindTime},
}

// sqlArgs accumulates positional arguments.
type sqlArgs struct {
	values []interface{}
}

func (a *sqlArgs) add(v interface{}) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

var comparison = map[querybuilder.Operator]string{
	querybuilder.OpEq:  "=",
	querybuilder.OpGt:  ">",
	querybuilder.OpGte: ">=",
	querybuilder.OpLt:  "<",
	querybuilder.OpLte: "<=",
}

// renderWhere turns filters and search into a WHERE clause (without the
// keyword). An empty string means no restriction.
func renderWhere(q querybuilder.Query, columns map[string]column, args *sqlArgs) (string, error) {
	var conds []string

	for _, f := range q.Filters {
		col, ok := columns[f.Field]
		if !ok {
			return "", fmt.Errorf("%w: %s", domain.ErrUnknownField, f.Field)
		}
		cond, err := renderFilter(col, f, args)
		if err != nil {
			return "", err
		}
		conds = append(conds, cond)
	}

	if q.Search != "" && len(q.SearchFields) > 0 {
		pattern := args.add("%" + escapeLike(q.Search) + "%")
		var ors []string
		for _, name := range q.SearchFields {
			col, ok := columns[name]
			if !ok {
				return "", fmt.Errorf("%w: %s", domain.ErrUnknownField, name)
			}
			expr := col.expr
			if col.kind == kindArray {
				expr = "array_to_string(" + expr + ", ' ')"
			}
			ors = append(ors, expr+" ILIKE "+pattern)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	return strings.Join(conds, " AND "), nil
}

func renderFilter(col column, f querybuilder.Filter, args *sqlArgs) (string, error) {
	if len(f.Values) == 0 {
		return "", fmt.Errorf("%w: %s has no value", domain.ErrInvalidValue, f.Field)
	}

	if f.Op == querybuilder.OpIn {
		switch col.kind {
		case kindArray:
			return col.expr + " && " + args.add(pq.Array(f.Values)), nil
		case kindNumber:
			nums := make([]float64, 0, len(f.Values))
			for _, v := range f.Values {
				n, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return "", fmt.Errorf("%w: %s=%q", domain.ErrInvalidValue, f.Field, v)
				}
				nums = append(nums, n)
			}
			return col.expr + " = ANY(" + args.add(pq.Array(nums)) + "::float8[])", nil
		case kindTime:
			return "", fmt.Errorf("%w: %s does not support in", domain.ErrInvalidValue, f.Field)
		}
		return col.expr + " = ANY(" + args.add(pq.Array(f.Values)) + "::text[])", nil
	}

	op, ok := comparison[f.Op]
	if !ok {
		return "", fmt.Errorf("%w: operator %s", domain.ErrInvalidValue, f.Op)
	}

	switch col.kind {
	case kindArray:
		if f.Op != querybuilder.OpEq {
			return "", fmt.Errorf("%w: %s only supports equality", domain.ErrInvalidValue, f.Field)
		}
		return args.add(f.Value()) + " = ANY(" + col.expr + ")", nil
	case kindNumber:
		n, err := strconv.ParseFloat(f.Value(), 64)
		if err != nil {
			return "", fmt.Errorf("%w: %s=%q", domain.ErrInvalidValue, f.Field, f.Value())
		}
		return col.expr + " " + op + " " + args.add(n), nil
	case kindTime:
		t, err := parseTime(f.Value())
		if err != nil {
			return "", fmt.Errorf("%w: %s=%q", domain.ErrInvalidValue, f.Field, f.Value())
		}
		return col.expr + " " + op + " " + args.add(t), nil
	}
	return col.expr + " " + op + " " + args.add(f.Value()), nil
}

// renderOrder always ends with id so pages are stable.
func renderOrder(sort []querybuilder.SortField, columns map[string]column) (string, error) {
	parts := make([]string, 0, len(sort)+1)
	for _, s := range sort {
		col, ok := columns[s.Field]
		if !ok {
			return "", fmt.Errorf("%w: %s", domain.ErrUnknownField, s.Field)
		}
		dir := "ASC NULLS LAST"
		if s.Desc {
			dir = "DESC NULLS LAST"
		}
		parts = append(parts, col.orderExpr()+" "+dir)
	}
	parts = append(parts, "id ASC")
	return strings.Join(parts, ", "), nil
}

type listSQL struct {
	list      string
	listArgs  []interface{}
	count     string
	countArgs []interface{}
}

// renderList builds the page query and the matching count query.
func renderList(table, selectCols string, q querybuilder.Query, columns map[string]column) (*listSQL, error) {
	args := &sqlArgs{}
	where, err := renderWhere(q, columns, args)
	if err != nil {
		return nil, err
	}
	order, err := renderOrder(q.Sort, columns)
	if err != nil {
		return nil, err
	}

	whereSQL := ""
	if where != "" {
		whereSQL = " WHERE " + where
	}
	out := &listSQL{
		count:     "SELECT COUNT(*) FROM " + table + whereSQL,
		countArgs: append([]interface{}(nil), args.values...),
	}

	limit := q.Limit
	if limit < 1 {
		limit = querybuilder.DefaultLimit
	}
	out.list = fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT %s OFFSET %s",
		selectCols, table, whereSQL, order, args.add(limit), args.add(q.Offset()))
	out.listArgs = args.values
	return out, nil
}

func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
