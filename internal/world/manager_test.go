package world

import (
	"math/rand"
	"testing"

	"github.com/annel0/gravity-arena/internal/entity"
	"github.com/annel0/gravity-arena/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(seed int64) *Manager {
	return NewManager(rand.New(rand.NewSource(seed)), seed)
}

func TestEnsureObjects_SpawnsBatchAroundPlayer(t *testing.T) {
	m := newTestManager(1)
	player := entity.NewPlayer(10000, -5000)

	spawned := m.EnsureObjects(player, []*entity.Body{player})
	require.Len(t, spawned, ObjectBatch)

	for _, b := range spawned {
		d := player.Pos().DistanceTo(b.Pos())
		assert.GreaterOrEqual(t, d, ObjectMinDst-1e-9)
		assert.LessOrEqual(t, d, ObjectMaxDst+1e-9)
		assert.NotEqual(t, entity.KindPlayer, b.Kind)
		assert.NotEqual(t, entity.KindAI, b.Kind)
		spec := entity.Catalog[b.Kind]
		assert.GreaterOrEqual(t, b.Mass, spec.MinMass)
		assert.LessOrEqual(t, b.Mass, spec.MaxMass)
		assert.Equal(t, entity.RadiusFor(b.Mass, b.Kind), b.Radius)
	}
}

func TestEnsureObjects_CountsOnlyNearby(t *testing.T) {
	m := newTestManager(2)
	player := entity.NewPlayer(0, 0)
	bodies := []*entity.Body{player}

	for i := 0; i < MinObjects; i++ {
		bodies = append(bodies, entity.NewBody(entity.KindDebris, 5000, float64(i), 1))
	}
	assert.Len(t, m.EnsureObjects(player, bodies), ObjectBatch, "дальние объекты не учитываются")

	for i := 0; i < MinObjects; i++ {
		bodies = append(bodies, entity.NewBody(entity.KindDebris, 100, float64(i), 1))
	}
	assert.Empty(t, m.EnsureObjects(player, bodies))
}

func TestEnsureAI(t *testing.T) {
	m := newTestManager(3)
	player := entity.NewPlayer(0, 0)

	spawned := m.EnsureAI(player, []*entity.Body{player}, 100)
	require.Len(t, spawned, AIBatch)
	for _, ai := range spawned {
		assert.True(t, ai.IsAI())
		assert.GreaterOrEqual(t, ai.Mass, 2.0)
		assert.LessOrEqual(t, ai.Mass, 8.0)
		assert.LessOrEqual(t, ai.VX, AIMaxKick)
		assert.GreaterOrEqual(t, ai.VY, -AIMaxKick)
		assert.Equal(t, entity.AIMaxEnergy, ai.Energy)
		assert.GreaterOrEqual(t, ai.LastDecisionTick, uint64(100))
		d := player.Pos().DistanceTo(ai.Pos())
		assert.True(t, d >= AIMinDst-1e-9 && d <= AIMaxDst+1e-9)
	}

	bodies := []*entity.Body{player}
	for i := 0; i < MinAI; i++ {
		bodies = append(bodies, entity.NewAI(50, 0, 3))
	}
	assert.Empty(t, m.EnsureAI(player, bodies, 0))
}

func TestEnsureActivities_IgnoresDiscovered(t *testing.T) {
	m := newTestManager(4)
	player := entity.NewPlayer(0, 0)

	var acts []*entity.SpaceActivity
	for i := 0; i < MinActivities; i++ {
		a := entity.NewActivity(entity.ActivityDerelictShip, 100, 0)
		a.Discovered = true
		acts = append(acts, a)
	}
	spawned := m.EnsureActivities(player, acts)
	require.Len(t, spawned, ActivityBatch)
	for _, a := range spawned {
		assert.False(t, a.Discovered)
		assert.Equal(t, entity.ActivityCatalog[a.Kind].Reward, a.Reward)
	}

	for i := 0; i < MinActivities; i++ {
		acts = append(acts, entity.NewActivity(entity.ActivityEnergyCrystal, 0, 100))
	}
	assert.Empty(t, m.EnsureActivities(player, acts))
}

func TestMaybeSpawnEvent_Rate(t *testing.T) {
	m := newTestManager(5)
	player := entity.NewPlayer(0, 0)

	count := 0
	for i := 0; i < 100000; i++ {
		if ev := m.MaybeSpawnEvent(player); ev != nil {
			count++
			assert.Equal(t, ev.Duration, ev.TimeLeft)
		}
	}
	assert.InDelta(t, 300, count, 80, "около 0.3 процента тиков порождают событие")
}

func TestAdvanceEvents(t *testing.T) {
	m := newTestManager(6)
	short := entity.NewEvent(entity.EventCosmicRay, 0, 0)
	short.TimeLeft = 0.01
	shower := entity.NewEvent(entity.EventMeteorShower, 0, 0)

	events, _ := m.AdvanceEvents([]*entity.CosmicEvent{short, shower}, 1.0/60.0)
	require.Len(t, events, 1)
	assert.Equal(t, shower.ID, events[0].ID)
	assert.InDelta(t, shower.Duration-1.0/60.0, shower.TimeLeft, 1e-9)

	var debris []*entity.Body
	for i := 0; i < 600; i++ {
		var spawned []*entity.Body
		events, spawned = m.AdvanceEvents(events, 1.0/60.0)
		debris = append(debris, spawned...)
	}
	assert.NotEmpty(t, debris, "метеорный поток порождает обломки")
	for _, b := range debris {
		assert.Equal(t, entity.KindDebris, b.Kind)
	}
}

func TestPickKind_DensityFavoursLandmarks(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	glowing := func(density float64) int {
		n := 0
		for i := 0; i < 20000; i++ {
			if entity.Catalog[pickKind(rng, density)].Glowing {
				n++
			}
		}
		return n
	}
	assert.Greater(t, glowing(1.0), glowing(0.0))
}

func TestDensityField_Range(t *testing.T) {
	f := NewDensityField(42)
	for i := 0; i < 100; i++ {
		v := f.At(float64(i*137), float64(-i*91))
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestSeedShared(t *testing.T) {
	m := newTestManager(7)
	bodies := m.SeedShared(vec.Vec2{}, 25)
	assert.Len(t, bodies, 25)
}
