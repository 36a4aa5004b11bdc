package insight

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/deal-insights/internal/model"
)

// defaultChunkSize bounds in-flight AI calls per chunk. Chunks run strictly
// sequentially; entities within a chunk run concurrently.
const defaultChunkSize = 5

// AssessBatch assesses every snapshot, in chunks, and returns one outcome
// per input in input order. A failing entity never aborts the batch: its
// slot is filled with the rule-based result at half confidence and a
// degraded reason. The returned slice always has len(snaps) entries.
func (e *Engine) AssessBatch(ctx context.Context, snaps []model.OpportunitySnapshot, octx OrgContext, useAI bool) []model.RiskOutcome {
	results := make([]model.RiskOutcome, len(snaps))

	forEachChunk(ctx, len(snaps), e.chunkSize, func(gctx context.Context, idx int) {
		results[idx] = e.assessOne(gctx, &snaps[idx], octx, useAI)
	})

	degraded := 0
	for i := range results {
		if results[i].Degraded {
			degraded++
		}
	}
	zap.L().Info("insight: batch risk assessment complete",
		zap.Int("entities", len(snaps)),
		zap.Int("degraded", degraded),
		zap.Bool("use_ai", useAI),
	)
	return results
}

// RecommendBatch generates next actions for every snapshot with the same
// chunking, ordering, and failure-substitution semantics as AssessBatch.
func (e *Engine) RecommendBatch(ctx context.Context, snaps []model.OpportunitySnapshot, octx OrgContext, useAI bool) []model.ActionOutcome {
	results := make([]model.ActionOutcome, len(snaps))

	forEachChunk(ctx, len(snaps), e.chunkSize, func(gctx context.Context, idx int) {
		results[idx] = e.recommendOne(gctx, &snaps[idx], octx, useAI)
	})

	zap.L().Info("insight: batch action generation complete",
		zap.Int("entities", len(snaps)),
		zap.Bool("use_ai", useAI),
	)
	return results
}

// forEachChunk runs fn for every index, chunked: each chunk's workers run
// concurrently and the next chunk starts only after the previous one fully
// completes. Workers write results positionally, so output order is input
// order regardless of completion order.
func forEachChunk(ctx context.Context, n, chunkSize int, fn func(ctx context.Context, idx int)) {
	if chunkSize < 1 {
		chunkSize = defaultChunkSize
	}

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)

		var g errgroup.Group
		for idx := start; idx < end; idx++ {
			g.Go(func() error {
				fn(ctx, idx)
				return nil
			})
		}
		// Workers never return errors; failures are substituted in-slot.
		_ = g.Wait()
	}
}

// assessOne runs the per-entity risk pipeline, converting any panic into a
// penalized rule-based substitute.
func (e *Engine) assessOne(ctx context.Context, snap *model.OpportunitySnapshot, octx OrgContext, useAI bool) (out model.RiskOutcome) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("insight: entity assessment panicked, substituting rule-based result",
				zap.String("opportunity_id", snap.ID),
				zap.Any("panic", r),
			)
			out = e.substituteRisk(snap, fmt.Sprintf("assessment failed: %v", r))
		}
	}()

	var assessment model.RiskAssessment
	if useAI {
		assessment = e.AssessRisk(ctx, snap, octx)
	} else {
		assessment = e.risk.Assess(snap)
	}

	return model.RiskOutcome{
		OpportunityID:  snap.ID,
		Assessment:     assessment,
		Degraded:       assessment.Status == model.StatusDegraded,
		DegradedReason: assessment.DegradedReason,
	}
}

// recommendOne runs the per-entity action pipeline with the same panic
// substitution as assessOne.
func (e *Engine) recommendOne(ctx context.Context, snap *model.OpportunitySnapshot, octx OrgContext, useAI bool) (out model.ActionOutcome) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("insight: entity recommendation panicked, substituting rule-based result",
				zap.String("opportunity_id", snap.ID),
				zap.Any("panic", r),
			)
			out = model.ActionOutcome{
				OpportunityID:  snap.ID,
				Actions:        e.actions.Generate(snap),
				Degraded:       true,
				DegradedReason: fmt.Sprintf("recommendation failed: %v", r),
			}
		}
	}()

	if useAI {
		return e.RecommendActions(ctx, snap, octx)
	}
	return model.ActionOutcome{
		OpportunityID: snap.ID,
		Actions:       e.actions.Generate(snap),
	}
}

// substituteRisk builds the degraded stand-in for an entity whose pipeline
// failed outright: the rule-based assessment at half confidence plus a note
// that the result may be less accurate.
func (e *Engine) substituteRisk(snap *model.OpportunitySnapshot, reason string) model.RiskOutcome {
	assessment := e.risk.Assess(snap)
	assessment.Confidence *= 0.5
	assessment.Status = model.StatusDegraded
	assessment.DegradedReason = reason
	assessment.Mitigations = append(assessment.Mitigations,
		"Assessment pipeline failed for this opportunity; this substitute result may be less accurate.")

	return model.RiskOutcome{
		OpportunityID:  snap.ID,
		Assessment:     assessment,
		Degraded:       true,
		DegradedReason: reason,
	}
}
