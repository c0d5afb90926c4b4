package sitrepapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/sitrep/internal/sitrep"
	"github.com/linnemanlabs/sitrep/internal/triage"
)

// handleTriageSitrep runs a full triage synchronously and returns the
// result record. Each call is independent; there is no cross-call state.
func (a *API) handleTriageSitrep(w http.ResponseWriter, r *http.Request) {
	var in sitrep.Sitrep
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	result, err := a.svc.Triage(r.Context(), &in)
	if err != nil {
		if errors.Is(err, triage.ErrEmptyAlert) {
			http.Error(w, `{"error":"alert_summary is required"}`, http.StatusBadRequest)
			return
		}
		a.logger.Error(r.Context(), err, "triage failed")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("sitrep.triage.id", result.ID),
		attribute.String("sitrep.triage.category", string(result.Category)),
		attribute.Bool("sitrep.triage.manual_review", result.ManualReview),
	)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}
