package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"career-catalog-backend/internal/domain"
	"career-catalog-backend/pkg/querybuilder"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const careerColumns = `id, title, slug, category, description, key_subjects, job_prospects,
	salary, duration, skills_required, career_path, certifications, industry_trends,
	minimum_mean_grade, market_demand, views, saves, institutions, created_at, updated_at`

type careerRepo struct {
	db *pgxpool.Pool
}

func NewCareerRepository(db *pgxpool.Pool) domain.CareerRepository {
	return &careerRepo{db: db}
}

func scanCareer(row pgx.Row) (*domain.Career, error) {
	var c domain.Career
	var salary, path, certs []byte
	err := row.Scan(
		&c.ID, &c.Title, &c.Slug, &c.Category, &c.Description,
		pq.Array(&c.KeySubjects), pq.Array(&c.JobProspects),
		&salary, &c.Duration, pq.Array(&c.SkillsRequired), &path, &certs,
		pq.Array(&c.IndustryTrends), &c.MinimumMeanGrade, &c.MarketDemand,
		&c.Views, &c.Saves, pq.Array(&c.Institutions), &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(salary, &c.Salary); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(path, &c.CareerPath); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(certs, &c.Certifications); err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCareers(rows pgx.Rows) ([]domain.Career, error) {
	defer rows.Close()
	careers := []domain.Career{}
	for rows.Next() {
		c, err := scanCareer(rows)
		if err != nil {
			return nil, err
		}
		careers = append(careers, *c)
	}
	return careers, rows.Err()
}

// careerArgs returns the insert arguments in careerColumns order.
func careerArgs(c *domain.Career) ([]interface{}, error) {
	salary, err := jsonbArg(c.Salary)
	if err != nil {
		return nil, err
	}
	path, err := jsonbArg(c.CareerPath)
	if err != nil {
		return nil, err
	}
	certs, err := jsonbArg(nonNil(c.Certifications))
	if err != nil {
		return nil, err
	}
	return []interface{}{
		c.ID, c.Title, c.Slug, c.Category, c.Description,
		pq.Array(nonNil(c.KeySubjects)), pq.Array(nonNil(c.JobProspects)),
		salary, c.Duration, pq.Array(nonNil(c.SkillsRequired)), path, certs,
		pq.Array(nonNil(c.IndustryTrends)), c.MinimumMeanGrade, c.MarketDemand,
		c.Views, c.Saves, pq.Array(nonNil(c.Institutions)), c.CreatedAt, c.UpdatedAt,
	}, nil
}

const insertCareerSQL = `INSERT INTO careers (` + careerColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

func (r *careerRepo) Create(ctx context.Context, career *domain.Career) error {
	args, err := careerArgs(career)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, insertCareerSQL, args...)
	return translate(err)
}

const clearCatalogSQL = `TRUNCATE institutions, saved_careers, careers`

func (r *careerRepo) CreateBatch(ctx context.Context, careers []domain.Career) error {
	return r.insertBatch(ctx, careers, false)
}

func (r *careerRepo) ReplaceAll(ctx context.Context, careers []domain.Career) error {
	return r.insertBatch(ctx, careers, true)
}

func (r *careerRepo) insertBatch(ctx context.Context, careers []domain.Career, clear bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return translate(err)
	}
	defer tx.Rollback(ctx)

	if clear {
		if _, err := tx.Exec(ctx, clearCatalogSQL); err != nil {
			return fmt.Errorf("clear catalog: %w", translate(err))
		}
	}
	for i := range careers {
		args, err := careerArgs(&careers[i])
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertCareerSQL, args...); err != nil {
			return fmt.Errorf("insert career %q: %w", careers[i].Title, translate(err))
		}
	}
	return translate(tx.Commit(ctx))
}

func (r *careerRepo) GetByID(ctx context.Context, id string) (*domain.Career, error) {
	c, err := scanCareer(r.db.QueryRow(ctx, `SELECT `+careerColumns+` FROM careers WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func (r *careerRepo) GetBySlug(ctx context.Context, slug string) (*domain.Career, error) {
	c, err := scanCareer(r.db.QueryRow(ctx, `SELECT `+careerColumns+` FROM careers WHERE slug = $1`, slug))
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// updateCareerSQL leaves created_at and institutions alone; the edge set is
// owned by the relationship mutators.
const updateCareerSQL = `UPDATE careers SET title = $2, slug = $3, category = $4, description = $5,
		key_subjects = $6, job_prospects = $7, salary = $8, duration = $9, skills_required = $10,
		career_path = $11, certifications = $12, industry_trends = $13, minimum_mean_grade = $14,
		market_demand = $15, views = COALESCE($16, views), saves = COALESCE($17, saves), updated_at = $18
		WHERE id = $1
		RETURNING ` + careerColumns

func (r *careerRepo) Update(ctx context.Context, career *domain.Career, counters domain.CounterOverride) (*domain.Career, error) {
	args, err := careerArgs(career)
	if err != nil {
		return nil, err
	}
	args = append(args[:15:15], counters.Views, counters.Saves, career.UpdatedAt)

	updated, err := scanCareer(r.db.QueryRow(ctx, updateCareerSQL, args...))
	if err != nil {
		return nil, translate(err)
	}
	return updated, nil
}

func (r *careerRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return translate(err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM careers WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if _, err := tx.Exec(ctx, stripCareerFromProgramsSQL, id); err != nil {
		return translate(err)
	}
	return translate(tx.Commit(ctx))
}

// stripCareerFromProgramsSQL removes career $1 from every program that lists
// it. An optional extra condition on i may be appended.
const stripCareerFromProgramsSQL = `
	UPDATE institutions i SET programs = (
		SELECT jsonb_agg(
			CASE WHEN jsonb_typeof(p->'careers') = 'array'
				THEN jsonb_set(p, '{careers}', (p->'careers') - $1::text)
				ELSE p END
			ORDER BY ord)
		FROM jsonb_array_elements(i.programs) WITH ORDINALITY AS e(p, ord)
	), updated_at = now()
	WHERE i.programs @> jsonb_build_array(jsonb_build_object('careers', jsonb_build_array($1::text)))`

func (r *careerRepo) Find(ctx context.Context, q querybuilder.Query) ([]domain.Career, int64, error) {
	stmt, err := renderList("careers", careerColumns, q, careerColumnMap)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRow(ctx, stmt.count, stmt.countArgs...).Scan(&total); err != nil {
		return nil, 0, translate(err)
	}

	rows, err := r.db.Query(ctx, stmt.list, stmt.listArgs...)
	if err != nil {
		return nil, 0, translate(err)
	}
	careers, err := collectCareers(rows)
	if err != nil {
		return nil, 0, translate(err)
	}
	return careers, total, nil
}

func (r *careerRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.Career, error) {
	if len(ids) == 0 {
		return []domain.Career{}, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+careerColumns+` FROM careers WHERE id = ANY($1::text[]) ORDER BY title`, pq.Array(ids))
	if err != nil {
		return nil, translate(err)
	}
	careers, err := collectCareers(rows)
	return careers, translate(err)
}

func (r *careerRepo) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	return existingIDs(ctx, r.db, "careers", ids)
}

func (r *careerRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM careers`).Scan(&n)
	return n, translate(err)
}

func (r *careerRepo) IncrementViews(ctx context.Context, id string) (*domain.Career, error) {
	c, err := scanCareer(r.db.QueryRow(ctx,
		`UPDATE careers SET views = views + 1 WHERE id = $1 RETURNING `+careerColumns, id))
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func (r *careerRepo) IncrementViewsBySlug(ctx context.Context, slug string) (*domain.Career, error) {
	c, err := scanCareer(r.db.QueryRow(ctx,
		`UPDATE careers SET views = views + 1 WHERE slug = $1 RETURNING `+careerColumns, slug))
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func (r *careerRepo) Save(ctx context.Context, userID, careerID string) (*domain.Career, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, translate(err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO saved_careers (user_id, career_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, careerID)
	if err != nil {
		return nil, translate(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrDuplicate
	}

	c, err := scanCareer(tx.QueryRow(ctx,
		`UPDATE careers SET saves = saves + 1 WHERE id = $1 RETURNING `+careerColumns, careerID))
	if err != nil {
		return nil, translate(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// Unsave removes the bookmark only. The saves counter records lifetime saves.
func (r *careerRepo) Unsave(ctx context.Context, userID, careerID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM saved_careers WHERE user_id = $1 AND career_id = $2`, userID, careerID)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *careerRepo) ListSaved(ctx context.Context, userID string) ([]domain.Career, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+qualify("c", careerColumns)+`
		FROM saved_careers s JOIN careers c ON c.id = s.career_id
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC`, userID)
	if err != nil {
		return nil, translate(err)
	}
	careers, err := collectCareers(rows)
	return careers, translate(err)
}

func (r *careerRepo) FindByCategory(ctx context.Context, category domain.CareerCategory, excludeID string, limit int) ([]domain.Career, error) {
	rows, err := r.db.Query(ctx, `SELECT `+careerColumns+` FROM careers
		WHERE category = $1 AND id <> $2
		ORDER BY views DESC, id LIMIT $3`, category, excludeID, limit)
	if err != nil {
		return nil, translate(err)
	}
	careers, err := collectCareers(rows)
	return careers, translate(err)
}

func (r *careerRepo) FindBySharedSubjects(ctx context.Context, subjects []string, excludeID string, limit int) ([]domain.Career, error) {
	if len(subjects) == 0 {
		return []domain.Career{}, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+careerColumns+` FROM careers
		WHERE key_subjects && $1::text[] AND id <> $2
		ORDER BY views DESC, id LIMIT $3`, pq.Array(subjects), excludeID, limit)
	if err != nil {
		return nil, translate(err)
	}
	careers, err := collectCareers(rows)
	return careers, translate(err)
}

func (r *careerRepo) CountByCategory(ctx context.Context) ([]domain.CategoryCount, error) {
	rows, err := r.db.Query(ctx, `SELECT category, COUNT(*) FROM careers GROUP BY category`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	out := []domain.CategoryCount{}
	for rows.Next() {
		var c domain.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, translate(rows.Err())
}

func (r *careerRepo) CountByDemand(ctx context.Context) ([]domain.DemandCount, error) {
	rows, err := r.db.Query(ctx, `SELECT market_demand, COUNT(*) FROM careers GROUP BY market_demand`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	out := []domain.DemandCount{}
	for rows.Next() {
		var d domain.DemandCount
		if err := rows.Scan(&d.Demand, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, translate(rows.Err())
}

func (r *careerRepo) ListGradeEntries(ctx context.Context) ([]domain.GradeEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT minimum_mean_grade, title, category FROM careers ORDER BY title`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	out := []domain.GradeEntry{}
	for rows.Next() {
		var g domain.GradeEntry
		if err := rows.Scan(&g.Grade, &g.Title, &g.Category); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, translate(rows.Err())
}

// existingIDs returns the subset of ids present in table.
func existingIDs(ctx context.Context, db *pgxpool.Pool, table string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	rows, err := db.Query(ctx, `SELECT id FROM `+table+` WHERE id = ANY($1::text[])`, pq.Array(ids))
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	found := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found = append(found, id)
	}
	return found, translate(rows.Err())
}

func unmarshalJSONB(raw []byte, dest interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode jsonb: %w", err)
	}
	return nil
}

// jsonbArg encodes v as a string so the simple protocol sends it as text, not bytea.
func jsonbArg(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// qualify prefixes each column of a comma separated list with alias.
func qualify(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
