package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/spotsort/internal/models"
	"github.com/desertthunder/spotsort/internal/services"
	"github.com/desertthunder/spotsort/internal/shared"
	"golang.org/x/time/rate"
)

// AnnotateSummary reports the outcome of a feature-annotation pass.
type AnnotateSummary struct {
	Total      int      `json:"total"`
	Annotated  int      `json:"annotated"`
	Skipped    int      `json:"skipped"`    // already carried features
	Unresolved int      `json:"unresolved"` // no features available or batch failed
	Errors     []string `json:"errors,omitempty"`
}

// Annotator resolves audio features for track collections in rate-limited
// batches. Tracks that already carry features are never re-fetched.
type Annotator struct {
	service services.Service
	limiter *rate.Limiter
}

// NewAnnotator builds an annotator pacing feature lookups at requestsPerSec.
// Zero or negative disables pacing.
func NewAnnotator(service services.Service, requestsPerSec float64) *Annotator {
	var limiter *rate.Limiter
	if requestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSec), 1)
	}
	return &Annotator{service: service, limiter: limiter}
}

// Annotate returns a copy of tracks with audio features attached. Batches
// that fail are recorded in the summary and their tracks counted unresolved;
// the pass continues unless the failure is an authorization error.
func (an *Annotator) Annotate(ctx context.Context, tracks []models.TrackRecord) ([]models.TrackRecord, AnnotateSummary, error) {
	summary := AnnotateSummary{Total: len(tracks)}

	annotated := make([]models.TrackRecord, len(tracks))
	copy(annotated, tracks)

	var pending []string
	for _, track := range annotated {
		if track.HasFeatures() {
			summary.Skipped++
			continue
		}
		pending = append(pending, track.ID)
	}

	if len(pending) == 0 {
		return annotated, summary, nil
	}

	features := make(map[string]models.AudioFeatures, len(pending))
	for start := 0; start < len(pending); start += services.FeatureBatchLimit {
		end := min(start+services.FeatureBatchLimit, len(pending))
		batch := pending[start:end]

		if an.limiter != nil {
			if err := an.limiter.Wait(ctx); err != nil {
				return nil, summary, fmt.Errorf("annotation canceled: %w", err)
			}
		}

		resolved, err := an.service.AudioFeatures(ctx, batch)
		if err != nil {
			if errors.Is(err, shared.ErrUnauthorized) || errors.Is(err, shared.ErrTokenExpired) {
				return nil, summary, err
			}
			summary.Errors = append(summary.Errors, fmt.Sprintf("batch of %d: %v", len(batch), err))
			continue
		}

		for id, f := range resolved {
			features[id] = f
		}
	}

	for i := range annotated {
		if annotated[i].HasFeatures() {
			continue
		}
		if f, ok := features[annotated[i].ID]; ok {
			featureCopy := f
			annotated[i].Features = &featureCopy
			summary.Annotated++
		} else {
			summary.Unresolved++
		}
	}

	return annotated, summary, nil
}
