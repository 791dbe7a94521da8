// Package internaldefs holds the shared metric name table used by the
// exporters. It is internal to the export tree; external consumers use the
// exporter packages.
package internaldefs

import (
	"github.com/kvels/authcore"
)

// CounterDef binds a counter MetricID to its exposition name and help text.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram MetricID to its exposition name and help
// text.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable render order.
var CounterDefs = []CounterDef{
	{ID: authcore.MetricSignupSuccess, Name: "authcore_signup_success_total", Help: "Successful signups."},
	{ID: authcore.MetricSignupDuplicate, Name: "authcore_signup_duplicate_total", Help: "Signup attempts rejected as duplicate email."},
	{ID: authcore.MetricSignupRejected, Name: "authcore_signup_rejected_total", Help: "Signup attempts rejected by validation or backend failure."},
	{ID: authcore.MetricSignupExternal, Name: "authcore_signup_external_total", Help: "Accounts created for externally authenticated identities."},
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Successful password logins."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Password logins rejected for credential mismatch."},
	{ID: authcore.MetricLoginUnknownEmail, Name: "authcore_login_unknown_email_total", Help: "Login attempts for unknown email addresses."},
	{ID: authcore.MetricLoginExternal, Name: "authcore_login_external_total", Help: "Sessions issued to externally authenticated identities."},
	{ID: authcore.MetricSessionIssued, Name: "authcore_session_issued_total", Help: "Issued session keys."},
	{ID: authcore.MetricSessionRevoked, Name: "authcore_session_revoked_total", Help: "Revoked sessions, single and cascade."},
	{ID: authcore.MetricLogout, Name: "authcore_logout_total", Help: "Logout operations that removed a live session."},
	{ID: authcore.MetricLogoutNoop, Name: "authcore_logout_noop_total", Help: "Logout operations on already-dead keys."},
	{ID: authcore.MetricAccountDeleted, Name: "authcore_account_deleted_total", Help: "Deleted accounts."},
	{ID: authcore.MetricBackendError, Name: "authcore_backend_error_total", Help: "Operations that failed on a backend fault."},
}

// HistogramDefs lists every exported histogram in a stable render order.
var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricLoginLatency, Name: "authcore_login_latency_seconds", Help: "Login latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds, as rendered in
// the le label.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form the
// Prometheus histogram type requires.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
