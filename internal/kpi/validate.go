package kpi

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRecord wraps every schema or consistency failure.
var ErrInvalidRecord = errors.New("invalid kpi record")

var recordValidate = validator.New(validator.WithRequiredStructEnabled())

// Validate rejects partial records and records whose derived fields disagree
// with their own value, target and history.
func Validate(r *Record) error {
	if r == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidRecord)
	}
	if err := recordValidate.Struct(r); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidRecord, r.ID, err)
	}

	if want := RAGFor(r.Name, r.Unit, r.Value, r.Target); r.RAG != want {
		return fmt.Errorf("%w %q: rag %q, want %q for %s", ErrInvalidRecord, r.ID, r.RAG, want, DirectionOf(r.Name, r.Unit))
	}
	if r.CurrentState.Status != r.RAG {
		return fmt.Errorf("%w %q: current_state.status %q differs from rag %q", ErrInvalidRecord, r.ID, r.CurrentState.Status, r.RAG)
	}
	if want := ClassifyTrend(r.Value, r.TrendData); r.Trend != want {
		return fmt.Errorf("%w %q: trend %q, want %q", ErrInvalidRecord, r.ID, r.Trend, want)
	}
	if want := Gap(r.Value, r.Target); math.Abs(r.CurrentState.Gap-want) > 1e-9 {
		return fmt.Errorf("%w %q: gap %v, want %v", ErrInvalidRecord, r.ID, r.CurrentState.Gap, want)
	}
	if want := GapPercentage(r.Value, r.Target); r.CurrentState.GapPercentage != want {
		return fmt.Errorf("%w %q: gap_percentage %v, want %v", ErrInvalidRecord, r.ID, r.CurrentState.GapPercentage, want)
	}
	return nil
}

// ValidateAll checks every record and that ids are unique across the set.
func ValidateAll(records []*Record) error {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if err := Validate(r); err != nil {
			return err
		}
		if _, ok := seen[r.ID]; ok {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidRecord, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}
