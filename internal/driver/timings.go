package driver

import (
	"encoding/json"
	"fmt"

	"tslint/internal/diag"
	"tslint/internal/observ"
	"tslint/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Files   int                  `json:"files,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// timingDiagnostic packs a timer report into an info diagnostic; the JSON
// payload rides in the only note.
func timingDiagnostic(payload timingPayload) (diag.Diagnostic, bool) {
	if payload.Kind == "" {
		payload.Kind = "lint"
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	if payload.Files > 0 {
		msg = fmt.Sprintf("%s, %d files", msg, payload.Files)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return diag.Diagnostic{}, false
	}
	d := diag.New(diag.SevInfo, diag.ObsTimings, source.Span{}, msg)
	return d.WithNote(source.Span{}, string(data)), true
}

// appendTimingDiagnostic adds the timing diagnostic even when bag is full.
func appendTimingDiagnostic(bag *diag.Bag, payload timingPayload) {
	if bag == nil {
		return
	}
	entry, ok := timingDiagnostic(payload)
	if !ok {
		return
	}
	if bag.Add(entry) {
		return
	}
	overflow := diag.NewBag(bag.Len() + 1)
	overflow.Add(entry)
	bag.Merge(overflow)
}
