package diagnostics

import "time"

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Codes raised by the render cycle.
const (
	CodeEffectTick = "EFFECT.TICK"
	CodeEncodeFail = "ENCODE.FAIL"
	CodeTxFail     = "TX.FAIL"
	CodeTxRecover  = "TX.RECOVERED"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
	At             time.Time      `json:"at"`
}

// FromError builds a diagnostic for a failed step of the cycle.
func FromError(sev Severity, code, summary string, err error) Diagnostic {
	d := Diagnostic{Severity: sev, Code: code, Summary: summary, At: time.Now()}
	if err != nil {
		d.Detail = err.Error()
	}
	switch code {
	case CodeTxFail:
		d.LikelyCauses = []string{"SPI device busy or unplugged", "frame larger than the driver buffer"}
		d.SuggestedFixes = []string{"check the data line wiring", "raise the spidev bufsiz module parameter"}
	case CodeEncodeFail:
		d.LikelyCauses = []string{"pulse tables missing for the configured clock"}
	}
	return d
}
