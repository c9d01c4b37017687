package postgres

import (
	"context"

	"career-catalog-backend/internal/domain"
	"career-catalog-backend/pkg/querybuilder"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const institutionColumns = `id, name, slug, type, description, location, contact, rankings,
	facilities, accreditation, programs, created_at, updated_at`

type institutionRepo struct {
	db *pgxpool.Pool
}

func NewInstitutionRepository(db *pgxpool.Pool) domain.InstitutionRepository {
	return &institutionRepo{db: db}
}

func scanInstitution(row pgx.Row) (*domain.Institution, error) {
	var i domain.Institution
	var location, contact, rankings, programs []byte
	err := row.Scan(
		&i.ID, &i.Name, &i.Slug, &i.Type, &i.Description,
		&location, &contact, &rankings,
		pq.Array(&i.Facilities), pq.Array(&i.Accreditation), &programs,
		&i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	for _, f := range []struct {
		raw  []byte
		dest interface{}
	}{
		{location, &i.Location},
		{contact, &i.Contact},
		{rankings, &i.Rankings},
		{programs, &i.Programs},
	} {
		if err := unmarshalJSONB(f.raw, f.dest); err != nil {
			return nil, err
		}
	}
	return &i, nil
}

func collectInstitutions(rows pgx.Rows) ([]domain.Institution, error) {
	defer rows.Close()
	out := []domain.Institution{}
	for rows.Next() {
		i, err := scanInstitution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *i)
	}
	return out, rows.Err()
}

func institutionArgs(i *domain.Institution) ([]interface{}, error) {
	encoded := make([]interface{}, 0, 4)
	for _, v := range []interface{}{i.Location, i.Contact, nonNil(i.Rankings), nonNil(i.Programs)} {
		s, err := jsonbArg(v)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, s)
	}
	return []interface{}{
		i.ID, i.Name, i.Slug, i.Type, i.Description,
		encoded[0], encoded[1], encoded[2],
		pq.Array(nonNil(i.Facilities)), pq.Array(nonNil(i.Accreditation)), encoded[3],
		i.CreatedAt, i.UpdatedAt,
	}, nil
}

func (r *institutionRepo) Create(ctx context.Context, institution *domain.Institution) error {
	args, err := institutionArgs(institution)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO institutions (`+institutionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`, args...)
	return translate(err)
}

func (r *institutionRepo) GetByID(ctx context.Context, id string) (*domain.Institution, error) {
	i, err := scanInstitution(r.db.QueryRow(ctx, `SELECT `+institutionColumns+` FROM institutions WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return i, nil
}

func (r *institutionRepo) GetBySlug(ctx context.Context, slug string) (*domain.Institution, error) {
	i, err := scanInstitution(r.db.QueryRow(ctx, `SELECT `+institutionColumns+` FROM institutions WHERE slug = $1`, slug))
	if err != nil {
		return nil, translate(err)
	}
	return i, nil
}

func (r *institutionRepo) Update(ctx context.Context, institution *domain.Institution) error {
	args, err := institutionArgs(institution)
	if err != nil {
		return err
	}
	args = append(args[:11:11], institution.UpdatedAt)
	tag, err := r.db.Exec(ctx, `UPDATE institutions SET name = $2, slug = $3, type = $4,
		description = $5, location = $6, contact = $7, rankings = $8, facilities = $9,
		accreditation = $10, programs = $11, updated_at = $12
		WHERE id = $1`, args...)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *institutionRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return translate(err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM institutions WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	_, err = tx.Exec(ctx, `UPDATE careers SET institutions = array_remove(institutions, $1), updated_at = now()
		WHERE $1 = ANY(institutions)`, id)
	if err != nil {
		return translate(err)
	}
	return translate(tx.Commit(ctx))
}

func (r *institutionRepo) Find(ctx context.Context, q querybuilder.Query) ([]domain.Institution, int64, error) {
	stmt, err := renderList("institutions", institutionColumns, q, institutionColumnMap)
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
	out, err := collectInstitutions(rows)
	if err != nil {
		return nil, 0, translate(err)
	}
	return out, total, nil
}

func (r *institutionRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.Institution, error) {
	if len(ids) == 0 {
		return []domain.Institution{}, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+institutionColumns+` FROM institutions
		WHERE id = ANY($1::text[]) ORDER BY name`, pq.Array(ids))
	if err != nil {
		return nil, translate(err)
	}
	out, err := collectInstitutions(rows)
	return out, translate(err)
}

func (r *institutionRepo) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	return existingIDs(ctx, r.db, "institutions", ids)
}

func (r *institutionRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM institutions`).Scan(&n)
	return n, translate(err)
}

func (r *institutionRepo) CountByType(ctx context.Context) ([]domain.TypeCount, error) {
	rows, err := r.db.Query(ctx, `SELECT type, COUNT(*) FROM institutions GROUP BY type`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	out := []domain.TypeCount{}
	for rows.Next() {
		var t domain.TypeCount
		if err := rows.Scan(&t.Type, &t.Count); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, translate(rows.Err())
}

func (r *institutionRepo) CountProgramsByLevel(ctx context.Context) ([]domain.LevelCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p->>'level', COUNT(*)
		FROM institutions i, jsonb_array_elements(i.programs) p
		GROUP BY p->>'level'`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	out := []domain.LevelCount{}
	for rows.Next() {
		var l domain.LevelCount
		if err := rows.Scan(&l.Level, &l.Count); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, translate(rows.Err())
}
