package postgres

import (
	"testing"

	"career-catalog-backend/internal/domain"
	"career-catalog-backend/pkg/querybuilder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderListCategorySortLimit(t *testing.T) {
	q := querybuilder.Query{
		Filters: []querybuilder.Filter{{Field: "category", Op: querybuilder.OpEq, Values: []string{"Technology"}}},
		Sort:    []querybuilder.SortField{{Field: "views", Desc: true}},
		Page:    1,
		Limit:   2,
	}

	stmt, err := renderList("careers", "id", q, careerColumnMap)
	require.NoError(t, err)

	assert.Equal(t, "SELECT COUNT(*) FROM careers WHERE category = $1", stmt.count)
	assert.Equal(t, []interface{}{"Technology"}, stmt.countArgs)
	assert.Equal(t, "SELECT id FROM careers WHERE category = $1 ORDER BY views DESC NULLS LAST, id ASC LIMIT $2 OFFSET $3", stmt.list)
	assert.Equal(t, []interface{}{"Technology", 2, 0}, stmt.listArgs)
}

func TestRenderWhereOperators(t *testing.T) {
	q := querybuilder.Query{
		Filters: []querybuilder.Filter{
			{Field: "views", Op: querybuilder.OpGte, Values: []string{"10"}},
			{Field: "keySubjects", Op: querybuilder.OpEq, Values: []string{"Mathematics"}},
		},
	}

	args := &sqlArgs{}
	where, err := renderWhere(q, careerColumnMap, args)
	require.NoError(t, err)

	assert.Equal(t, "views >= $1 AND $2 = ANY(key_subjects)", where)
	assert.Equal(t, []interface{}{float64(10), "Mathematics"}, args.values)
}

func TestRenderWhereSearchCoversArrays(t *testing.T) {
	q := querybuilder.Query{Search: "50%", SearchFields: []string{"title", "keySubjects"}}

	args := &sqlArgs{}
	where, err := renderWhere(q, careerColumnMap, args)
	require.NoError(t, err)

	assert.Equal(t, "(title ILIKE $1 OR array_to_string(key_subjects, ' ') ILIKE $1)", where)
	assert.Equal(t, []interface{}{`%50\%%`}, args.values)
}

func TestRenderRejectsUnknownField(t *testing.T) {
	_, err := renderList("careers", "id", querybuilder.Query{
		Filters: []querybuilder.Filter{{Field: "password", Op: querybuilder.OpEq, Values: []string{"x"}}},
	}, careerColumnMap)
	assert.ErrorIs(t, err, domain.ErrUnknownField)

	_, err = renderList("careers", "id", querybuilder.Query{
		Sort: []querybuilder.SortField{{Field: "views[between]"}},
	}, careerColumnMap)
	assert.ErrorIs(t, err, domain.ErrUnknownField)
}

func TestRenderRejectsInvalidNumber(t *testing.T) {
	args := &sqlArgs{}
	_, err := renderWhere(querybuilder.Query{
		Filters: []querybuilder.Filter{{Field: "views", Op: querybuilder.OpGt, Values: []string{"many"}}},
	}, careerColumnMap, args)
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestRenderOrderSalaryUsesNumericValue(t *testing.T) {
	order, err := renderOrder([]querybuilder.SortField{{Field: "salary.entry", Desc: true}}, careerColumnMap)
	require.NoError(t, err)
	assert.Equal(t,
		"(CASE WHEN jsonb_typeof(salary->'entry') = 'number' THEN (salary->>'entry')::numeric END) DESC NULLS LAST, id ASC",
		order)
}

func TestQualify(t *testing.T) {
	assert.Equal(t, "c.id, c.title, c.views", qualify("c", "id, title,\n\tviews"))
}

func TestUpdateCareerSQLLeavesEdgesAndCounters(t *testing.T) {
	assert.NotContains(t, updateCareerSQL, "institutions =")
	assert.Contains(t, updateCareerSQL, "views = COALESCE($16, views)")
	assert.Contains(t, updateCareerSQL, "saves = COALESCE($17, saves)")
	assert.Contains(t, updateCareerSQL, "updated_at = $18")
}

func TestClearCatalogSQLCoversEveryTable(t *testing.T) {
	assert.Equal(t, "TRUNCATE institutions, saved_careers, careers", clearCatalogSQL)
}
