package liveness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	testMinBlinks = 3
	testWindow    = 5 * time.Second
)

type GateSuite struct {
	suite.Suite
	opened time.Time
	gate   *Gate
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	s.opened = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.gate = NewGate(testMinBlinks, testWindow, s.opened)
}

func (s *GateSuite) blinkAt(offset time.Duration) {
	s.gate.Observe(Frame{FaceVisible: true, Blink: true, CapturedAt: s.opened.Add(offset)})
}

func (s *GateSuite) TestLiveAtExactTarget() {
	s.blinkAt(1 * time.Second)
	s.blinkAt(2 * time.Second)
	s.False(s.gate.Satisfied())
	s.Equal(VerdictPending, s.gate.Verdict(s.opened.Add(3*time.Second)))

	s.blinkAt(3 * time.Second)
	s.True(s.gate.Satisfied())
	s.Equal(VerdictLive, s.gate.Verdict(s.opened.Add(3*time.Second)))
}

// A verdict of NotLive must wait for the window: the user may still blink.
func (s *GateSuite) TestNotLiveOnlyAfterWindowCloses() {
	s.blinkAt(1 * time.Second)

	s.Equal(VerdictPending, s.gate.Verdict(s.opened.Add(4*time.Second)))
	s.Equal(VerdictPending, s.gate.Verdict(s.opened.Add(testWindow)))
	s.Equal(VerdictNotLive, s.gate.Verdict(s.opened.Add(testWindow+time.Millisecond)))
}

func (s *GateSuite) TestInconclusiveWhenFaceNeverSeen() {
	for i := range 4 {
		s.gate.Observe(Frame{FaceVisible: false, CapturedAt: s.opened.Add(time.Duration(i) * time.Second)})
	}
	s.Equal(VerdictInconclusive, s.gate.Verdict(s.opened.Add(testWindow+time.Second)))
}

// A single usable frame upgrades the failure mode from Inconclusive to NotLive.
func (s *GateSuite) TestFaceSeenButNoBlinksIsNotLive() {
	s.gate.Observe(Frame{FaceVisible: true, CapturedAt: s.opened.Add(time.Second)})
	s.gate.Observe(Frame{FaceVisible: false, CapturedAt: s.opened.Add(2 * time.Second)})
	s.Equal(VerdictNotLive, s.gate.Verdict(s.opened.Add(testWindow+time.Second)))
}

func (s *GateSuite) TestBlinksAfterWindowDoNotCount() {
	s.blinkAt(1 * time.Second)
	s.blinkAt(2 * time.Second)
	s.blinkAt(testWindow + time.Second)

	s.Equal(2, s.gate.Tally().Blinks)
	s.False(s.gate.Satisfied())
	s.Equal(VerdictNotLive, s.gate.Verdict(s.opened.Add(testWindow+2*time.Second)))
}

func (s *GateSuite) TestBlinkWithoutFaceIgnored() {
	s.gate.Observe(Frame{FaceVisible: false, Blink: true, CapturedAt: s.opened.Add(time.Second)})
	s.Equal(0, s.gate.Tally().Blinks)
	s.False(s.gate.Tally().SawFace)
}

func (s *GateSuite) TestRestoreResumesTally() {
	s.blinkAt(1 * time.Second)
	s.blinkAt(2 * time.Second)

	resumed := Restore(testMinBlinks, testWindow, s.opened, s.gate.Tally())
	resumed.Observe(Frame{FaceVisible: true, Blink: true, CapturedAt: s.opened.Add(3 * time.Second)})

	s.True(resumed.Satisfied())
	s.Equal(3, resumed.Tally().Blinks)
	s.Equal(3, resumed.Tally().Frames)
}

func (s *GateSuite) TestTallyTimestamps() {
	first := s.opened.Add(time.Second)
	last := s.opened.Add(2 * time.Second)
	s.gate.Observe(Frame{FaceVisible: true, CapturedAt: first})
	s.gate.Observe(Frame{FaceVisible: true, CapturedAt: last})

	tally := s.gate.Tally()
	s.Equal(first, tally.FirstFrameAt)
	s.Equal(last, tally.LastFrameAt)
	s.Equal(2, tally.Frames)
}
