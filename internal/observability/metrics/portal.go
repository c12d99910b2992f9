// Package metrics holds the metric names and tag conventions of the portal.
package metrics

import (
	"time"

	apperrors "github.com/evalquiz/quiz-portal/internal/errors"
	"github.com/evalquiz/quiz-portal/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Guard decisions tagged on session.guard.
const (
	DecisionAllow        = "allow"
	DecisionLogin        = "redirect_login"
	DecisionLanding      = "redirect_landing"
	DecisionUnauthorized = "unauthorized"
	DecisionForbidden    = "forbidden"
)

// EmitGuardDecision counts one route-guard outcome.
func EmitGuardDecision(sink statsd.Sink, tier, decision string) {
	if sink == nil {
		return
	}
	sink.Count("session.guard", 1, map[string]string{"tier": tier, "decision": decision})
}

// EmitAuthAttempt counts a login or signup and tags failures with their class.
func EmitAuthAttempt(sink statsd.Sink, flow string, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"flow": flow, "result": ResultSuccess}
	if err != nil {
		tags["result"] = ResultError
		tags["error_class"] = ErrorClass(err)
	}
	sink.Count("session.auth", 1, tags)
}

// EmitBackendUnauthorized counts 401s from the backend that cleared a session.
func EmitBackendUnauthorized(sink statsd.Sink) {
	if sink == nil {
		return
	}
	sink.Count("backend.unauthorized", 1, nil)
}

// EmitSweep records one storage sweep.
func EmitSweep(sink statsd.Sink, purged int64, elapsed time.Duration, err error) {
	if sink == nil {
		return
	}
	result := ResultSuccess
	switch {
	case err != nil:
		result = ResultError
	case purged == 0:
		result = ResultNoop
	}
	tags := map[string]string{"result": result}
	sink.Count("storage.sweep", 1, tags)
	if purged > 0 {
		sink.Count("storage.swept_items", purged, CloneTags(tags))
	}
	if elapsed > 0 {
		sink.Timing("storage.sweep_duration", elapsed, CloneTags(tags))
	}
}

// ErrorClass returns the application error code of err, or "unknown".
func ErrorClass(err error) string {
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}
	return "unknown"
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
