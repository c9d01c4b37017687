package usecase

import (
	"strings"

	"career-catalog-backend/internal/domain"
)

// TitleResolver maps an authored career title to the id of a persisted career.
type TitleResolver interface {
	Resolve(title string) (string, bool)
}

// TitleIndex is a TitleResolver built once from the inserted careers. Titles
// match case-insensitively with surrounding and repeated whitespace ignored.
type TitleIndex map[string]string

func NewTitleIndex(careers []domain.Career) TitleIndex {
	idx := make(TitleIndex, len(careers))
	for _, c := range careers {
		idx[normalizeTitle(c.Title)] = c.ID
	}
	return idx
}

func (t TitleIndex) Resolve(title string) (string, bool) {
	id, ok := t[normalizeTitle(title)]
	return id, ok
}

func normalizeTitle(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// resolvePrograms replaces title references with career ids. Unmatched
// titles are returned as dropped references; duplicates collapse.
func resolvePrograms(seed domain.InstitutionSeed, r TitleResolver) ([]domain.Program, []domain.DroppedReference) {
	programs := make([]domain.Program, 0, len(seed.Programs))
	var dropped []domain.DroppedReference

	for _, ps := range seed.Programs {
		p := ps.Program
		p.Careers = []string{}
		for _, title := range ps.Careers {
			id, ok := r.Resolve(title)
			if !ok {
				dropped = append(dropped, domain.DroppedReference{
					Institution: seed.Name,
					Program:     p.Name,
					Title:       title,
				})
				continue
			}
			if !p.HasCareer(id) {
				p.Careers = append(p.Careers, id)
			}
		}
		programs = append(programs, p)
	}
	return programs, dropped
}
