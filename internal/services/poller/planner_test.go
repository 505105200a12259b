package poller

import (
	"testing"
	"time"

	pollermocks "github.com/BearBump/ShipDesk/internal/services/poller/mocks"
	"github.com/stretchr/testify/suite"
)

type PlannerSuite struct {
	suite.Suite
}

func (s *PlannerSuite) TestBackoffDelay() {
	p := NewPlanner(DefaultPlannerConfig(), &pollermocks.Rand{})
	s.Equal(1*time.Minute, p.BackoffDelay(1))
	s.Equal(2*time.Minute, p.BackoffDelay(2))
	s.Equal(5*time.Minute, p.BackoffDelay(3))
	s.Equal(10*time.Minute, p.BackoffDelay(4))
	s.Equal(10*time.Minute, p.BackoffDelay(100))
}

func (s *PlannerSuite) TestNextDelay_NoJitter_NoRand() {
	m := &pollermocks.Rand{}
	p := NewPlanner(PlannerConfig{Interval: 30 * time.Second}, m)
	s.Equal(30*time.Second, p.NextDelay(0))
	m.AssertNotCalled(s.T(), "Intn", 0)
}

func (s *PlannerSuite) TestNextDelay_Jitter_UsesRand() {
	m := &pollermocks.Rand{}
	m.On("Intn", 11).Return(7).Once()

	p := NewPlanner(PlannerConfig{Interval: time.Minute, Jitter: 10 * time.Second}, m)
	s.Equal(time.Minute+7*time.Second, p.NextDelay(0))
	m.AssertExpectations(s.T())
}

func (s *PlannerSuite) TestNextDelay_FailuresBackOff() {
	p := NewPlanner(PlannerConfig{Interval: time.Minute, Backoff1: 3 * time.Second}, &pollermocks.Rand{})
	s.Equal(3*time.Second, p.NextDelay(1))
	s.Equal(2*time.Minute, p.NextDelay(2))
}

func (s *PlannerSuite) TestDefaults() {
	p := NewPlanner(PlannerConfig{Jitter: -time.Second}, nil)
	s.Equal(5*time.Minute, p.NextDelay(0))
}

func TestPlannerSuite(t *testing.T) {
	suite.Run(t, new(PlannerSuite))
}
