// Package liveness accumulates per-frame blink signals into a verdict.
// It is a sequential fold over ordered frames: no I/O, no clocks of its own.
package liveness

import "time"

// Verdict is the gate's conclusion for one capture window.
type Verdict string

const (
	// VerdictLive: enough blinks landed inside the window.
	VerdictLive Verdict = "live"
	// VerdictNotLive: the window elapsed with too few blinks. Never returned
	// before the window closes, since a legitimate user may blink late.
	VerdictNotLive Verdict = "not_live"
	// VerdictInconclusive: no usable frames for the whole window (face lost).
	// Treated like NotLive by the decision matrix, recorded separately for
	// diagnostics.
	VerdictInconclusive Verdict = "inconclusive"
	// VerdictPending: the window is still open and the blink target unmet.
	VerdictPending Verdict = "pending"
)

// Frame is one liveness observation delivered in capture order.
type Frame struct {
	// FaceVisible reports whether a face was found in the frame at all.
	FaceVisible bool
	// Blink reports whether the external detector saw a blink in this frame.
	Blink bool
	// CapturedAt is the frame's capture timestamp.
	CapturedAt time.Time
}

// Tally is the accumulated liveness state for one session. It is plain data
// so the session store can persist it between frame submissions.
type Tally struct {
	Blinks       int       `json:"blinks"`
	Frames       int       `json:"frames"`
	SawFace      bool      `json:"saw_face"`
	FirstFrameAt time.Time `json:"first_frame_at,omitzero"`
	LastFrameAt  time.Time `json:"last_frame_at,omitzero"`
}

// Gate folds frames for a single session. It is not safe for concurrent use;
// the session manager serializes frame submission per session.
type Gate struct {
	minBlinks int
	window    time.Duration
	tally     Tally
	openedAt  time.Time
}

// NewGate starts a capture window at openedAt.
func NewGate(minBlinks int, window time.Duration, openedAt time.Time) *Gate {
	return &Gate{minBlinks: minBlinks, window: window, openedAt: openedAt}
}

// Restore rebuilds a gate mid-window from a persisted tally.
func Restore(minBlinks int, window time.Duration, openedAt time.Time, tally Tally) *Gate {
	return &Gate{minBlinks: minBlinks, window: window, openedAt: openedAt, tally: tally}
}

// Observe folds one frame into the tally. The blink counter is monotonically
// increasing; frames arriving after the window closed are counted but cannot
// change the verdict.
func (g *Gate) Observe(f Frame) Tally {
	g.tally.Frames++
	if g.tally.FirstFrameAt.IsZero() {
		g.tally.FirstFrameAt = f.CapturedAt
	}
	g.tally.LastFrameAt = f.CapturedAt

	if !f.FaceVisible {
		return g.tally
	}
	g.tally.SawFace = true
	if f.Blink && g.withinWindow(f.CapturedAt) {
		g.tally.Blinks++
	}
	return g.tally
}

// Tally returns the running accumulation.
func (g *Gate) Tally() Tally { return g.tally }

// Satisfied reports whether the blink target has been reached, which lets the
// session move to deciding before the window closes.
func (g *Gate) Satisfied() bool {
	return g.tally.Blinks >= g.minBlinks
}

// WindowClosed reports whether the capture window has elapsed at now.
func (g *Gate) WindowClosed(now time.Time) bool {
	return !g.withinWindow(now)
}

// Verdict concludes the window at now.
func (g *Gate) Verdict(now time.Time) Verdict {
	if g.Satisfied() {
		return VerdictLive
	}
	if !g.WindowClosed(now) {
		return VerdictPending
	}
	if !g.tally.SawFace {
		return VerdictInconclusive
	}
	return VerdictNotLive
}

func (g *Gate) withinWindow(t time.Time) bool {
	return !t.After(g.openedAt.Add(g.window))
}
