package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/evalquiz/quiz-portal/internal/errors"
)

type recordedMetric struct {
	name  string
	value int64
	tags  map[string]string
}

type recordingSink struct {
	mu      sync.Mutex
	counts  []recordedMetric
	timings []string
}

func (s *recordingSink) Count(name string, value int64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = append(s.counts, recordedMetric{name: name, value: value, tags: tags})
}

func (s *recordingSink) Timing(name string, _ time.Duration, _ map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timings = append(s.timings, name)
}

func TestEmitGuardDecision(t *testing.T) {
	sink := &recordingSink{}
	EmitGuardDecision(sink, "role", DecisionLanding)

	assert.Equal(t, []recordedMetric{{
		name:  "session.guard",
		value: 1,
		tags:  map[string]string{"tier": "role", "decision": DecisionLanding},
	}}, sink.counts)

	EmitGuardDecision(nil, "role", DecisionAllow)
}

func TestEmitAuthAttempt(t *testing.T) {
	sink := &recordingSink{}
	EmitAuthAttempt(sink, "login", nil)
	EmitAuthAttempt(sink, "login", apperrors.Unauthorized("bad password"))
	EmitAuthAttempt(sink, "signup", errors.New("plain"))

	assert.Len(t, sink.counts, 3)
	assert.Equal(t, ResultSuccess, sink.counts[0].tags["result"])
	assert.Equal(t, "unauthorized", sink.counts[1].tags["error_class"])
	assert.Equal(t, "unknown", sink.counts[2].tags["error_class"])
}

func TestEmitSweep(t *testing.T) {
	sink := &recordingSink{}
	EmitSweep(sink, 0, 0, nil)
	EmitSweep(sink, 5, time.Millisecond, nil)

	assert.Equal(t, ResultNoop, sink.counts[0].tags["result"])
	assert.Equal(t, "storage.swept_items", sink.counts[2].name)
	assert.Equal(t, int64(5), sink.counts[2].value)
	assert.Equal(t, []string{"storage.sweep_duration"}, sink.timings)
}
