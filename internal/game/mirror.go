package game

import (
	"math"
	"strings"

	"github.com/annel0/gravity-arena/internal/entity"
	"github.com/annel0/gravity-arena/internal/physics"
)

// Mirror разделяемое состояние сервера: тела игроков в том виде, в каком их
// прислали клиенты, и общие объекты с простым дрейфом. Не авторитетно.
// Не потокобезопасно; принадлежит актору хаба.
type Mirror struct {
	players map[string]*entity.Body
	order   []string
	pulls   map[string]bool
	scores  map[string]int
	names   map[string]string
	objects []*entity.Body
}

// MaxNameLength ограничение длины имени в таблице рекордов (в рунах)
const MaxNameLength = 32

// NewMirror создаёт зеркало с заранее созданными общими объектами
func NewMirror(objects []*entity.Body) *Mirror {
	return &Mirror{
		players: make(map[string]*entity.Body),
		pulls:   make(map[string]bool),
		scores:  make(map[string]int),
		names:   make(map[string]string),
		objects: objects,
	}
}

// AddPlayer регистрирует игрока с телом по умолчанию до первого update
func (m *Mirror) AddPlayer(id string) *entity.Body {
	if b, ok := m.players[id]; ok {
		return b
	}
	b := entity.NewPlayer(0, 0)
	b.ID = id
	m.players[id] = b
	m.order = append(m.order, id)
	return b
}

// UpdatePlayer сохраняет присланное клиентом тело как есть, с ID соединения
func (m *Mirror) UpdatePlayer(id string, body entity.Body) bool {
	if _, ok := m.players[id]; !ok {
		return false
	}
	body.ID = id
	m.players[id] = &body
	return true
}

// ReportScore запоминает лучший заявленный клиентом счёт
func (m *Mirror) ReportScore(id string, score int) {
	if score > m.scores[id] {
		m.scores[id] = score
	}
}

// BestScore возвращает лучший заявленный счёт игрока
func (m *Mirror) BestScore(id string) (int, bool) {
	s, ok := m.scores[id]
	return s, ok
}

// SetName запоминает имя игрока для таблицы рекордов. Пустое имя игнорируется.
func (m *Mirror) SetName(id, name string) {
	if _, ok := m.players[id]; !ok {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if r := []rune(name); len(r) > MaxNameLength {
		name = string(r[:MaxNameLength])
	}
	m.names[id] = name
}

// ScoreKey ключ игрока в таблице рекордов: имя, если клиент его прислал, иначе ID соединения
func (m *Mirror) ScoreKey(id string) string {
	if name, ok := m.names[id]; ok {
		return name
	}
	return id
}

// SetPull включает или выключает способность притяжения игрока
func (m *Mirror) SetPull(id string, active bool) {
	if _, ok := m.players[id]; !ok {
		return
	}
	m.pulls[id] = active
}

// RemovePlayer удаляет игрока. Возвращает false, если его не было.
func (m *Mirror) RemovePlayer(id string) (*entity.Body, bool) {
	b, ok := m.players[id]
	if !ok {
		return nil, false
	}
	delete(m.players, id)
	delete(m.pulls, id)
	delete(m.scores, id)
	delete(m.names, id)
	for i, pid := range m.order {
		if pid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return b, true
}

// Player возвращает тело игрока
func (m *Mirror) Player(id string) (*entity.Body, bool) {
	b, ok := m.players[id]
	return b, ok
}

// Drift продвигает все тела на dtTicks тиков: pos += vel·dt, vel *= Friction^dt.
// Активные притяжения игроков действуют на общие объекты.
func (m *Mirror) Drift(dtTicks float64) {
	damping := math.Pow(physics.Friction, dtTicks)
	for _, id := range m.order {
		drift(m.players[id], dtTicks, damping)
	}
	for _, b := range m.objects {
		drift(b, dtTicks, damping)
	}

	for _, id := range m.order {
		if !m.pulls[id] {
			continue
		}
		p := m.players[id]
		physics.ApplyGravityPull(p, m.objects, true, dtTicks*physics.DT)
	}
}

func drift(b *entity.Body, dt, damping float64) {
	b.X += b.VX * dt
	b.Y += b.VY * dt
	b.VX *= damping
	b.VY *= damping
}

// Snapshot возвращает копии игроков (в порядке подключения) и общих объектов
func (m *Mirror) Snapshot() (players, objects []entity.Body) {
	players = make([]entity.Body, 0, len(m.order))
	for _, id := range m.order {
		players = append(players, *m.players[id])
	}
	objects = make([]entity.Body, 0, len(m.objects))
	for _, b := range m.objects {
		objects = append(objects, *b)
	}
	return players, objects
}

func (m *Mirror) PlayerCount() int { return len(m.order) }
func (m *Mirror) ObjectCount() int { return len(m.objects) }
