// Package phase plays the canned "agent is working" step script shown while
// an analysis request is in flight. It is decorative: it never looks at the
// request and the request never waits for it.
package phase

import (
	"context"
	"encoding/json"
	"time"
)

// Step is one scripted status message and how long it stays up.
type Step struct {
	Message  string
	Duration time.Duration
}

type stepJSON struct {
	Message    string `json:"message"     yaml:"message"`
	DurationMs int64  `json:"duration_ms" yaml:"duration_ms"`
}

// MarshalJSON encodes the duration in milliseconds, the unit the browser animates in.
func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal(stepJSON{Message: s.Message, DurationMs: s.Duration.Milliseconds()})
}

func (s *Step) UnmarshalJSON(b []byte) error {
	var v stepJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	s.Message = v.Message
	s.Duration = time.Duration(v.DurationMs) * time.Millisecond
	return nil
}

func (s Step) MarshalYAML() (any, error) {
	return stepJSON{Message: s.Message, DurationMs: s.Duration.Milliseconds()}, nil
}

// Sink receives step transitions. Index is zero-based.
type Sink interface {
	Step(index, total int, step Step)
	Done()
}

// SinkFunc adapts a function to a Sink with a no-op Done.
type SinkFunc func(index, total int, step Step)

func (f SinkFunc) Step(index, total int, step Step) { f(index, total, step) }
func (f SinkFunc) Done()                            {}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the wall-clock SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Player plays a step script into a sink.
type Player struct {
	steps []Step
	sleep SleepFunc
}

// NewPlayer returns a player for steps. A nil sleep uses the wall clock.
func NewPlayer(steps []Step, sleep SleepFunc) *Player {
	if sleep == nil {
		sleep = Sleep
	}
	return &Player{steps: steps, sleep: sleep}
}

// Play reports each step to sink and then waits its duration. It returns
// early, without error, when ctx is cancelled. Done is always called.
func (p *Player) Play(ctx context.Context, sink Sink) {
	defer sink.Done()
	for i, s := range p.steps {
		if ctx.Err() != nil {
			return
		}
		sink.Step(i, len(p.steps), s)
		if err := p.sleep(ctx, s.Duration); err != nil {
			return
		}
	}
}

// Start plays in the background and returns a stop function that cancels
// playback and waits for it to finish.
func (p *Player) Start(ctx context.Context, sink Sink) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Play(ctx, sink)
	}()
	return func() {
		cancel()
		<-done
	}
}

// DefaultScript is the generic script for a subject such as "market".
func DefaultScript(subject string) []Step {
	return []Step{
		{Message: "AI Agent is initializing...", Duration: 1500 * time.Millisecond},
		{Message: "Gathering " + subject + " data...", Duration: 2 * time.Second},
		{Message: "Analyzing market signals...", Duration: 2 * time.Second},
		{Message: "Identifying key patterns...", Duration: 2 * time.Second},
		{Message: "Generating " + subject + " report...", Duration: 2500 * time.Millisecond},
	}
}
