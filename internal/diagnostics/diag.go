package diagnostics

import "github.com/coreman2200/pixelwire/internal/timing"

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Calibration reports how a calibration sits against a protocol's windows.
// The first entry is the overall verdict; one Info entry per phase follows.
func Calibration(cal timing.Calibration, proto timing.Protocol) []Diagnostic {
	var out []Diagnostic

	if err := cal.Validate(proto); err != nil {
		d := Diagnostic{
			Severity: Err,
			Code:     "CALIB.OUT_OF_TOLERANCE",
			Summary:  "Calibration does not meet protocol timing",
			Detail:   err.Error(),
			LikelyCauses: []string{
				"clock or optimization level differs from the measured build",
				"wrong protocol selected for the strip",
			},
			SuggestedFixes: []string{
				"re-measure the four phases on a scope and update the loop counts",
			},
			Evidence: map[string]any{"target": cal.Target, "protocol": proto.Name},
		}
		out = append(out, d)
	} else {
		out = append(out, Diagnostic{
			Severity: Info,
			Code:     "CALIB.OK",
			Summary:  "Calibration within protocol tolerance",
			Evidence: map[string]any{"target": cal.Target, "protocol": proto.Name},
		})
	}

	if cal.Derived {
		out = append(out, Diagnostic{
			Severity: Warn,
			Code:     "CALIB.DERIVED",
			Summary:  "Loop counts were carried over, not measured",
			Detail:   "measured durations are inherited from a different clock or build",
			SuggestedFixes: []string{
				"verify the phases on a scope before driving a long chain",
			},
			Evidence: map[string]any{
				"target":       cal.Target,
				"clock":        cal.Clock.String(),
				"optimization": cal.Optimization,
			},
		})
	}

	for _, ph := range timing.Phases() {
		w := proto.Windows[ph]
		ev := map[string]any{
			"measured_ns": cal.Duration(ph).Nanoseconds(),
			"min_ns":      w.Min.Nanoseconds(),
			"max_ns":      w.Max.Nanoseconds(),
		}
		if cal.Looped() {
			ev["loops"] = cal.Loops[ph]
		}
		out = append(out, Diagnostic{
			Severity: Info,
			Code:     "CALIB.PHASE." + ph.String(),
			Summary:  ph.String() + " hold",
			Evidence: ev,
		})
	}
	return out
}

// Worst returns the most severe level in ds, Info when empty.
func Worst(ds []Diagnostic) Severity {
	w := Info
	for _, d := range ds {
		switch {
		case d.Severity == Err:
			return Err
		case d.Severity == Warn:
			w = Warn
		}
	}
	return w
}
