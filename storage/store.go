// Package storage persists evaluation runs.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/forage/telemetry"
)

// VersionedRecord captures schema and codec evolution for persisted data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Run is one persisted simulation run.
type Run struct {
	VersionedRecord
	EvaluationID string              `json:"evaluation_id,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	Record       telemetry.RunRecord `json:"record"`
}

// ID returns the run identifier.
func (r Run) ID() string { return r.Record.RunID }

// Evaluation is one multi-seed evaluation of a policy.
type Evaluation struct {
	VersionedRecord
	ID        string            `json:"id"`
	Policy    string            `json:"policy"`
	Seeds     []int64           `json:"seeds"`
	RunIDs    []string          `json:"run_ids"`
	Failed    int               `json:"failed"`
	Fitness   telemetry.Summary `json:"fitness"`
	CreatedAt time.Time         `json:"created_at"`
}

// Store persists runs and evaluations.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	ListRuns(ctx context.Context, evaluationID string) ([]Run, error)
	SaveEvaluation(ctx context.Context, eval Evaluation) error
	GetEvaluation(ctx context.Context, id string) (Evaluation, bool, error)
}

// NewID returns a fresh random identifier for a run or evaluation.
func NewID() string {
	return uuid.NewString()
}

// NewRun wraps a record with the current versions.
func NewRun(evaluationID string, rec telemetry.RunRecord) Run {
	return Run{
		VersionedRecord: current(),
		EvaluationID:    evaluationID,
		CreatedAt:       time.Now().UTC(),
		Record:          rec,
	}
}

func current() VersionedRecord {
	return VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}
