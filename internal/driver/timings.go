package driver

import (
	"encoding/json"
	"fmt"

	"quill/internal/diag"
	"quill/internal/observ"
	"quill/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Name    string               `json:"name,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// appendTimingDiagnostic adds the report as an info diagnostic whose note
// carries the JSON payload. It bypasses the bag limit.
func appendTimingDiagnostic(bag *diag.Bag, name string, report observ.Report) {
	if bag == nil {
		return
	}
	payload := timingPayload{Kind: "pipeline", Name: name, TotalMS: report.TotalMS, Phases: report.Phases}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	if name != "" {
		msg = fmt.Sprintf("%s for %s", msg, name)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	entry := diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.ObsTimings,
		Message:  msg,
		Notes:    []diag.Note{{Span: source.Span{}, Msg: string(data)}},
	}
	bag.Force(entry)
}
