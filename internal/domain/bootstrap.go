package domain

import "context"

// ResolutionMode decides what happens to program career titles that match no career.
type ResolutionMode string

const (
	// ResolutionLenient drops unmatched titles and reports them.
	ResolutionLenient ResolutionMode = "lenient"
	// ResolutionStrict aborts the bootstrap before anything is written.
	ResolutionStrict ResolutionMode = "strict"
)

// ProgramSeed is a Program whose careers are referenced by title.
type ProgramSeed struct {
	Program
	Careers []string `json:"careers"`
}

// InstitutionSeed is an Institution as authored in the seed dataset.
type InstitutionSeed struct {
	Institution
	Programs []ProgramSeed `json:"programs"`
}

type BootstrapInput struct {
	Careers      []Career          `json:"careers"`
	Institutions []InstitutionSeed `json:"institutions"`
	Force        bool              `json:"force"`
	Mode         ResolutionMode    `json:"mode"`
}

// DroppedReference is a program career title that resolved to no career.
type DroppedReference struct {
	Institution string `json:"institution"`
	Program     string `json:"program"`
	Title       string `json:"title"`
}

type SkippedRecord struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type BootstrapReport struct {
	CareersInserted      int                `json:"careersInserted"`
	InstitutionsInserted int                `json:"institutionsInserted"`
	InstitutionsSkipped  int                `json:"institutionsSkipped"`
	EdgesLinked          int                `json:"edgesLinked"`
	EdgesSkipped         int                `json:"edgesSkipped"`
	DroppedReferences    []DroppedReference `json:"droppedReferences"`
	SkippedInstitutions  []SkippedRecord    `json:"skippedInstitutions"`
}

type ConsistencyReport struct {
	MissingEdges []Edge `json:"missingEdges"`
	Repaired     int    `json:"repaired"`
}

type BootstrapUsecase interface {
	Run(ctx context.Context, input BootstrapInput) (*BootstrapReport, error)
	// Running reports whether a bootstrap is in progress.
	Running() bool
	CheckConsistency(ctx context.Context) (*ConsistencyReport, error)
	RepairConsistency(ctx context.Context) (*ConsistencyReport, error)
}
