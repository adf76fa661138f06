package game

import (
	"math/rand"
	"testing"

	"github.com/annel0/gravity-arena/internal/entity"
	"github.com/annel0/gravity-arena/internal/physics"
	"github.com/annel0/gravity-arena/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate оставляет в сессии только игрока и указанные тела
func isolate(s *Session, bodies ...*entity.Body) {
	s.bodies = append([]*entity.Body{s.player}, bodies...)
	s.activities = nil
	s.events = nil
}

func TestNewSession_PopulatesWorld(t *testing.T) {
	s := NewSession(1)

	assert.Equal(t, PhasePlaying, s.Phase())
	assert.Len(t, s.Bodies(), 1+world.ObjectBatch+world.AIBatch)
	assert.Len(t, s.Activities(), world.ActivityBatch)
	assert.Same(t, s.Player(), s.Bodies()[0])
	assert.LessOrEqual(t, len(s.Forces()), physics.ForceListSize)
}

func TestSession_InvariantsOverManyTicks(t *testing.T) {
	s := NewSession(2024)
	rng := rand.New(rand.NewSource(5))
	masses := make(map[string]float64)

	for i := 0; i < 1200 && s.Phase() == PhasePlaying; i++ {
		in := Input{
			MoveX: float64(rng.Intn(3) - 1),
			MoveY: float64(rng.Intn(3) - 1),
			Pull:  rng.Intn(4) == 0,
		}
		s.Step(in)

		for _, b := range s.Bodies() {
			if prev, ok := masses[b.ID]; ok {
				require.GreaterOrEqual(t, b.Mass, prev, "масса тела %s уменьшилась", b.ID)
			}
			masses[b.ID] = b.Mass
			require.Equal(t, entity.RadiusFor(b.Mass, b.Kind), b.Radius)
			require.LessOrEqual(t, b.Vel().Length(), physics.MaxSpeed+1e-9)
			if b.HasEnergy() {
				require.GreaterOrEqual(t, b.Energy, 0.0)
				require.LessOrEqual(t, b.Energy, b.MaxEnergy)
			}
		}
		assert.Equal(t, s.Player().Pos(), s.Camera())
	}
	assert.Positive(t, s.Tick())
}

func TestSession_EnergyCrystalDiscoveredOnce(t *testing.T) {
	s := NewSession(3)
	isolate(s)
	crystal := entity.NewActivity(entity.ActivityEnergyCrystal, 0, 0)
	s.activities = []*entity.SpaceActivity{crystal}
	s.player.Energy = 20

	report := s.Step(Input{})
	require.Len(t, report.Discovered, 1)
	assert.True(t, crystal.Discovered)
	assert.Equal(t, s.player.MaxEnergy, s.player.Energy)
	assert.GreaterOrEqual(t, s.Score(), crystal.Reward)

	scoreAfter := s.Score()
	s.player.Energy = 20
	report = s.Step(Input{})
	assert.Empty(t, report.Discovered, "повторное касание ничего не даёт")
	assert.Less(t, s.player.Energy, 20.0)
	assert.GreaterOrEqual(t, s.Score(), scoreAfter)
}

func TestSession_PauseFreezes(t *testing.T) {
	s := NewSession(4)
	s.player.VX = 3
	pos := s.player.Pos()
	tick := s.Tick()

	report := s.Step(Input{Pause: true, MoveX: 1})
	assert.True(t, report.SkippedPaused)
	assert.Equal(t, tick, s.Tick())
	assert.Equal(t, pos, s.player.Pos())
	assert.Equal(t, 3.0, s.player.VX)
}

func TestSession_EndsWhenEnergyDepleted(t *testing.T) {
	s := NewSession(5)
	isolate(s)
	s.player.Energy = 0.001

	report := s.Step(Input{})
	require.True(t, report.Ended)
	assert.Equal(t, PhaseEnded, s.Phase())

	summary, ok := s.Summary()
	require.True(t, ok)
	assert.Equal(t, ReasonEnergyDepleted, summary.Reason)
	assert.Equal(t, uint64(1), summary.Ticks)
	assert.Equal(t, s.player.Mass, summary.Mass)

	s.Step(Input{MoveX: 1})
	assert.Equal(t, uint64(1), s.Tick(), "после завершения шаги не выполняются")
}

func TestSession_FatalContactWithGlowingBody(t *testing.T) {
	s := NewSession(6)
	star := entity.NewBody(entity.KindStar, 0, 0, 200)
	s.player.X = star.Radius + s.player.Radius - 1
	s.player.AbsorptionProgress = 1.2
	isolate(s, star)
	mass, starMass := s.player.Mass, star.Mass

	s.Step(Input{})

	assert.Zero(t, s.player.Energy)
	assert.Equal(t, mass, s.player.Mass)
	assert.Equal(t, starMass, star.Mass)
	summary, ok := s.Summary()
	require.True(t, ok)
	assert.Equal(t, ReasonEnergyDepleted, summary.Reason)
}

func TestSession_AbsorptionScores(t *testing.T) {
	s := NewSession(7)
	s.player.SetMass(10)
	rock := entity.NewBody(entity.KindAsteroid, 1, 0, 2)
	isolate(s, rock)

	report := s.Step(Input{})

	require.Len(t, report.Absorptions, 1)
	assert.InDelta(t, 11.6, s.player.Mass, 1e-9)
	assert.Equal(t, 40, report.Absorptions[0].Score)
	_, found := s.Body(rock.ID)
	assert.False(t, found, "поглощённое тело удалено")
	assert.Len(t, s.Bodies(), 1)
}

func TestSession_PlayerAbsorbedEndsSession(t *testing.T) {
	s := NewSession(8)
	big := entity.NewAI(1, 0, 8)
	isolate(s, big)

	s.Step(Input{})

	summary, ok := s.Summary()
	require.True(t, ok)
	assert.Equal(t, ReasonAbsorbed, summary.Reason)
	assert.Zero(t, s.player.Energy)
}

func TestSession_EventRewardCollectedOnce(t *testing.T) {
	s := NewSession(9)
	isolate(s)
	ev := entity.NewEvent(entity.EventSupernova, 0, 0)
	s.events = []*entity.CosmicEvent{ev}

	report := s.Step(Input{})
	require.Len(t, report.Collected, 1)
	assert.True(t, ev.Collected)
	assert.GreaterOrEqual(t, s.Score(), ev.Reward)

	report = s.Step(Input{})
	assert.Empty(t, report.Collected)
}

func TestSession_SetPlayerID(t *testing.T) {
	s := NewSession(10)
	s.SetPlayerID("server-id")
	assert.Equal(t, "server-id", s.Player().ID)
	b, ok := s.Body("server-id")
	require.True(t, ok)
	assert.Same(t, s.Player(), b)
}

func TestSession_Landmarks(t *testing.T) {
	s := NewSession(11)
	star := entity.NewBody(entity.KindStar, 900, 0, 200)
	rock := entity.NewBody(entity.KindAsteroid, -900, 0, 2)
	isolate(s, star, rock)

	lm := s.Landmarks()
	require.Len(t, lm, 1)
	assert.Equal(t, star.ID, lm[0].ID)
}
