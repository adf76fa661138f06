package world

import (
	"math"
	"math/rand"

	"github.com/annel0/gravity-arena/internal/entity"
	"github.com/annel0/gravity-arena/internal/vec"
)

// pickKind выбирает вид тела по весам каталога. Светящиеся виды усиливаются
// в плотных областях поля (density близко к 1) и ослабляются в разреженных.
func pickKind(rng *rand.Rand, density float64) entity.Kind {
	weights := make([]float64, len(entity.SpawnOrder))
	total := 0.0
	for i, k := range entity.SpawnOrder {
		spec := entity.Catalog[k]
		w := float64(spec.Weight)
		if spec.Glowing {
			w *= 0.5 + 2*density
		}
		weights[i] = w
		total += w
	}

	r := rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return entity.SpawnOrder[i]
		}
		r -= w
	}
	return entity.SpawnOrder[len(entity.SpawnOrder)-1]
}

// pickActivity выбирает вид активности по весам таблицы наград
func pickActivity(rng *rand.Rand) entity.ActivityKind {
	total := 0
	for _, k := range entity.ActivityKinds {
		total += entity.ActivityCatalog[k].Weight
	}
	r := rng.Intn(total)
	for _, k := range entity.ActivityKinds {
		w := entity.ActivityCatalog[k].Weight
		if r < w {
			return k
		}
		r -= w
	}
	return entity.ActivityKinds[0]
}

// massFor случайная масса из диапазона каталога
func massFor(rng *rand.Rand, kind entity.Kind) float64 {
	spec := entity.Catalog[kind]
	return randRange(rng, spec.MinMass, spec.MaxMass)
}

// ringPoint случайная точка на расстоянии [minDist, maxDist] от center
func ringPoint(rng *rand.Rand, center vec.Vec2, minDist, maxDist float64) vec.Vec2 {
	angle := rng.Float64() * 2 * math.Pi
	return center.Add(vec.FromAngle(angle, randRange(rng, minDist, maxDist)))
}

// diskPoint равномерная точка внутри круга радиуса r
func diskPoint(rng *rand.Rand, center vec.Vec2, r float64) vec.Vec2 {
	angle := rng.Float64() * 2 * math.Pi
	return center.Add(vec.FromAngle(angle, r*math.Sqrt(rng.Float64())))
}

func randRange(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
