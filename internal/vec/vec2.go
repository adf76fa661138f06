package vec

import "math"

// Vec2 представляет 2D вектор с плавающей точкой (позиции, скорости, ускорения)
type Vec2 struct {
	X, Y float64
}

// FromAngle возвращает вектор длины length в направлении angle (радианы)
func FromAngle(angle, length float64) Vec2 {
	return Vec2{X: math.Cos(angle) * length, Y: math.Sin(angle) * length}
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub вычитает вектор
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Mul умножает вектор на скаляр
func (v Vec2) Mul(scalar float64) Vec2 {
	return Vec2{X: v.X * scalar, Y: v.Y * scalar}
}

// Normalized возвращает нормализованный вектор; нулевой вектор остаётся нулевым
func (v Vec2) Normalized() Vec2 {
	length := v.Length()
	if length == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / length, Y: v.Y / length}
}

// Length возвращает длину вектора
func (v Vec2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// LengthSq возвращает квадрат длины
func (v Vec2) LengthSq() float64 {
	return v.X*v.X + v.Y*v.Y
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	return math.Hypot(v.X-other.X, v.Y-other.Y)
}

// Perp возвращает перпендикуляр, повёрнутый против часовой стрелки
func (v Vec2) Perp() Vec2 {
	return Vec2{X: -v.Y, Y: v.X}
}

// Angle возвращает направление вектора в радианах
func (v Vec2) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// ClampLength равномерно масштабирует вектор, если его длина больше max
func (v Vec2) ClampLength(max float64) Vec2 {
	l := v.Length()
	if l <= max || l == 0 {
		return v
	}
	return v.Mul(max / l)
}
