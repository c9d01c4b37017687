package postgres

import (
	"context"

	"career-catalog-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type relationshipRepo struct {
	db *pgxpool.Pool
}

func NewRelationshipRepository(db *pgxpool.Pool) domain.RelationshipRepository {
	return &relationshipRepo{db: db}
}

func (r *relationshipRepo) AddEdge(ctx context.Context, careerID, institutionID, program string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return translate(err)
	}
	defer tx.Rollback(ctx)

	// The conditional append makes concurrent adds of the same edge race-free:
	// exactly one of them changes the row.
	tag, err := tx.Exec(ctx, `UPDATE careers SET institutions = array_append(institutions, $2), updated_at = now()
		WHERE id = $1 AND NOT ($2 = ANY(institutions))`, careerID, institutionID)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM careers WHERE id = $1)`, careerID).Scan(&exists); err != nil {
			return translate(err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrDuplicate
	}

	if program != "" {
		tag, err = tx.Exec(ctx, `
			UPDATE institutions i SET programs = (
				SELECT jsonb_agg(
					CASE WHEN p->>'name' = $2 AND NOT COALESCE(p->'careers', '[]'::jsonb) @> jsonb_build_array($3::text)
						THEN jsonb_set(p, '{careers}', COALESCE(p->'careers', '[]'::jsonb) || jsonb_build_array($3::text))
						ELSE p END
					ORDER BY ord)
				FROM jsonb_array_elements(i.programs) WITH ORDINALITY AS e(p, ord)
			), updated_at = now()
			WHERE i.id = $1 AND i.programs @> jsonb_build_array(jsonb_build_object('name', $2::text))`,
			institutionID, program, careerID)
		if err != nil {
			return translate(err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrProgramNotFound
		}
	}

	return translate(tx.Commit(ctx))
}

func (r *relationshipRepo) RemoveEdge(ctx context.Context, careerID, institutionID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return translate(err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE careers SET institutions = array_remove(institutions, $2), updated_at = now()
		WHERE id = $1 AND $2 = ANY(institutions)`, careerID, institutionID)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEdgeNotFound
	}

	if _, err := tx.Exec(ctx, stripCareerFromProgramsSQL+` AND i.id = $2`, careerID, institutionID); err != nil {
		return translate(err)
	}
	return translate(tx.Commit(ctx))
}

func (r *relationshipRepo) LinkEdges(ctx context.Context, institutionID string, careerIDs []string) (int, error) {
	if len(careerIDs) == 0 {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx, `UPDATE careers SET institutions = array_append(institutions, $1), updated_at = now()
		WHERE id = ANY($2::text[]) AND NOT ($1 = ANY(institutions))`, institutionID, pq.Array(careerIDs))
	if err != nil {
		return 0, translate(err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *relationshipRepo) UnlinkEdges(ctx context.Context, institutionID string, careerIDs []string) (int, error) {
	if len(careerIDs) == 0 {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx, `UPDATE careers SET institutions = array_remove(institutions, $1), updated_at = now()
		WHERE id = ANY($2::text[]) AND $1 = ANY(institutions)`, institutionID, pq.Array(careerIDs))
	if err != nil {
		return 0, translate(err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *relationshipRepo) MissingEdges(ctx context.Context) ([]domain.Edge, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT c.id, i.id
		FROM institutions i
		CROSS JOIN LATERAL jsonb_array_elements(i.programs) p
		CROSS JOIN LATERAL jsonb_array_elements_text(
			CASE WHEN jsonb_typeof(p->'careers') = 'array' THEN p->'careers' ELSE '[]'::jsonb END) ref(career_id)
		JOIN careers c ON c.id = ref.career_id
		WHERE NOT (i.id = ANY(c.institutions))
		ORDER BY i.id, c.id`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	edges := []domain.Edge{}
	for rows.Next() {
		var e domain.Edge
		if err := rows.Scan(&e.CareerID, &e.InstitutionID); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, translate(rows.Err())
}
