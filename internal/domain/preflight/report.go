package preflight

import (
	"time"

	"github.com/felixgeelhaar/aistack/internal/domain/platform"
)

// Severity indicates how serious an advisory is.
type Severity string

// Severity constants.
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Advisory is a non-fatal finding. Advisories never block the run.
type Advisory struct {
	Check      string
	Severity   Severity
	Message    string
	Suggestion string
}

// Report holds the results of a preflight run.
type Report struct {
	Release    platform.OSRelease
	Platform   *platform.Platform
	Advisories []Advisory
	CheckedAt  time.Time
	Duration   time.Duration
}

// Warnings returns the warning-severity advisories.
func (r Report) Warnings() []Advisory {
	var out []Advisory
	for _, a := range r.Advisories {
		if a.Severity == SeverityWarning {
			out = append(out, a)
		}
	}
	return out
}

// HasWarnings returns true if any advisory is a warning.
func (r Report) HasWarnings() bool {
	return len(r.Warnings()) > 0
}
