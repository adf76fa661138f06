package physics

import (
	"math/rand"
	"testing"

	"github.com/annel0/gravity-arena/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_PlayerAbsorbsSmallerBody(t *testing.T) {
	player := entity.NewPlayer(0, 0)
	player.SetMass(10)
	rock := body(entity.KindAsteroid, 1, 0, 2)

	res := Resolve([]*entity.Body{player, rock}, player.ID, rand.New(rand.NewSource(1)))

	assert.InDelta(t, 11.6, player.Mass, 1e-9)
	assert.Equal(t, entity.RadiusFor(player.Mass, entity.KindPlayer), player.Radius)
	assert.True(t, res.Removed(rock.ID))
	assert.Equal(t, []string{rock.ID}, res.RemoveOrder)
	assert.Equal(t, 40, res.ScoreDelta)
	require.Len(t, res.Absorptions, 1)
	assert.Equal(t, player.ID, res.Absorptions[0].AbsorberID)
}

func TestResolve_NonPlayerAbsorptionGivesNoScore(t *testing.T) {
	big := body(entity.KindPlanet, 0, 0, 10)
	small := body(entity.KindAsteroid, 1, 0, 2)

	res := Resolve([]*entity.Body{small, big}, "", rand.New(rand.NewSource(1)))

	assert.InDelta(t, 11.6, big.Mass, 1e-9)
	assert.True(t, res.Removed(small.ID))
	assert.Zero(t, res.ScoreDelta)
}

func TestResolve_EqualMassesFirstAbsorbs(t *testing.T) {
	a := body(entity.KindAsteroid, 0, 0, 3)
	b := body(entity.KindAsteroid, 1, 0, 3)

	res := Resolve([]*entity.Body{a, b}, "", rand.New(rand.NewSource(1)))
	assert.True(t, res.Removed(b.ID))
	assert.False(t, res.Removed(a.ID))
}

func TestResolve_SkipsAlreadyRemoved(t *testing.T) {
	// Три тела в одной точке: средний поглощается первым и больше не участвует
	a := body(entity.KindPlanet, 0, 0, 30)
	b := body(entity.KindAsteroid, 0.5, 0, 2)
	c := body(entity.KindComet, 0, 0.5, 4)

	res := Resolve([]*entity.Body{a, b, c}, "", rand.New(rand.NewSource(1)))

	assert.Len(t, res.RemoveOrder, 2)
	assert.InDelta(t, 30+2*Retention+4*Retention, a.Mass, 1e-9)
	assert.Len(t, res.Absorptions, 2)
}

func TestResolve_EnergyTransfer(t *testing.T) {
	player := entity.NewPlayer(0, 0)
	player.SetMass(10)
	player.Energy = 40
	ai := entity.NewAI(1, 0, 3)
	ai.Energy = 30

	Resolve([]*entity.Body{player, ai}, player.ID, rand.New(rand.NewSource(1)))
	assert.InDelta(t, 55, player.Energy, 1e-9)

	player.Energy = 95
	ai2 := entity.NewAI(1, 0, 3)
	Resolve([]*entity.Body{player, ai2}, player.ID, rand.New(rand.NewSource(1)))
	assert.Equal(t, player.MaxEnergy, player.Energy, "передача энергии ограничена максимумом")
}

func TestResolve_PlayerAbsorbed(t *testing.T) {
	player := entity.NewPlayer(0, 0)
	ai := entity.NewAI(1, 0, 8)

	res := Resolve([]*entity.Body{ai, player}, player.ID, rand.New(rand.NewSource(1)))
	assert.True(t, res.PlayerAbsorbed)
	assert.True(t, res.Removed(player.ID))
	assert.Zero(t, player.Energy)
}

func TestResolve_FatalAbsorption(t *testing.T) {
	star := body(entity.KindStar, 0, 0, 200)
	player := entity.NewPlayer(star.Radius, 0)
	player.AbsorptionProgress = 1.2
	mass := player.Mass
	starMass := star.Mass

	res := Resolve([]*entity.Body{player, star}, player.ID, rand.New(rand.NewSource(1)))

	assert.True(t, res.Fatal)
	assert.Zero(t, player.Energy)
	assert.Equal(t, mass, player.Mass, "масса не передаётся")
	assert.Equal(t, starMass, star.Mass)
	assert.Empty(t, res.RemoveOrder)
}

func TestResolve_GlowingContactWithoutRisk(t *testing.T) {
	star := body(entity.KindStar, 0, 0, 200)
	player := entity.NewPlayer(star.Radius, 0)
	player.AbsorptionProgress = 0.5

	res := Resolve([]*entity.Body{player, star}, player.ID, rand.New(rand.NewSource(1)))

	assert.False(t, res.Fatal)
	assert.Equal(t, entity.PlayerMaxEnergy, player.Energy)
	assert.Empty(t, res.RemoveOrder, "светящиеся тела не поглощают и не поглощаются")
}

func TestResolve_WormholeTeleport(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		entry := body(entity.KindWormhole, 0, 0, 50)
		exitA := body(entity.KindWormhole, 5000, 0, 50)
		exitB := body(entity.KindWormhole, 0, -5000, 50)
		player := entity.NewPlayer(1, 0)
		player.VX, player.VY = 4, 2

		res := Resolve([]*entity.Body{entry, exitA, exitB, player}, player.ID, rng)

		require.True(t, res.Teleported)
		dA := player.Pos().DistanceTo(exitA.Pos())
		dB := player.Pos().DistanceTo(exitB.Pos())
		assert.True(t, dA <= WormholeJitter || dB <= WormholeJitter, "игрок у другой червоточины")
		assert.Greater(t, player.Pos().DistanceTo(entry.Pos()), 1000.0, "не у той, в которую вошёл")
		assert.InDelta(t, 2, player.VX, 1e-12)
		assert.InDelta(t, 1, player.VY, 1e-12)
		assert.Empty(t, res.RemoveOrder)
	}
}

func TestResolve_SingleWormholeNoTeleport(t *testing.T) {
	entry := body(entity.KindWormhole, 0, 0, 50)
	player := entity.NewPlayer(1, 0)

	res := Resolve([]*entity.Body{entry, player}, player.ID, rand.New(rand.NewSource(1)))
	assert.False(t, res.Teleported)
	assert.Equal(t, 1.0, player.X)
	assert.Empty(t, res.RemoveOrder)
}
