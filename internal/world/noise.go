package world

import (
	"github.com/aquilax/go-perlin"
)

// Параметры шума кластеризации ориентиров
const (
	noiseAlpha  = 2.0  // Сглаживание шума
	noiseBeta   = 2.0  // Частота шума
	noiseOctave = 3    // Количество октав
	NoiseScale  = 0.0012
)

// DensityField шум Перлина, задающий "скопления" ориентиров в пространстве
type DensityField struct {
	noise *perlin.Perlin
}

// NewDensityField создаёт поле плотности с указанным сидом
func NewDensityField(seed int64) *DensityField {
	return &DensityField{noise: perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctave, seed)}
}

// At возвращает плотность в точке в диапазоне [0, 1]
func (f *DensityField) At(x, y float64) float64 {
	v := (f.noise.Noise2D(x*NoiseScale, y*NoiseScale) + 1.0) / 2.0
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
