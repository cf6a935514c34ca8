package doc

// StepMap describes how one step moved positions: the range
// [Pos, Pos+OldSize] of the input became [Pos, Pos+NewSize] in the output.
// The zero value is the identity. An opaque map replaced its range with
// unrelated content: positions inside it move to the edges even when the
// sizes match.
type StepMap struct {
	Pos     int
	OldSize int
	NewSize int
	Opaque  bool
}

// Map moves pos through the step. assoc picks the side a position sticks to
// when content was inserted exactly there: negative keeps it before the
// insertion, positive moves it after.
func (m StepMap) Map(pos, assoc int) int {
	end := m.Pos + m.OldSize
	switch {
	case pos < m.Pos:
		return pos
	case pos > end:
		return pos + m.NewSize - m.OldSize
	case m.OldSize == m.NewSize && !m.Opaque:
		return pos
	}
	side := assoc
	if m.OldSize > 0 {
		switch pos {
		case m.Pos:
			side = -1
		case end:
			side = 1
		}
	}
	if side < 0 {
		return m.Pos
	}
	return m.Pos + m.NewSize
}

// Invert returns the map of the inverse step.
func (m StepMap) Invert() StepMap {
	return StepMap{Pos: m.Pos, OldSize: m.NewSize, NewSize: m.OldSize, Opaque: m.Opaque}
}

// Mapping chains the maps of consecutive steps.
type Mapping struct {
	maps []StepMap
}

// Append adds the map of the next step.
func (m *Mapping) Append(sm StepMap) {
	m.maps = append(m.maps, sm)
}

// AppendMapping adds every map of o after the current ones.
func (m *Mapping) AppendMapping(o Mapping) {
	m.maps = append(m.maps, o.maps...)
}

// Len returns the number of chained maps.
func (m Mapping) Len() int {
	return len(m.maps)
}

// Map moves pos through every step in order.
func (m Mapping) Map(pos, assoc int) int {
	for _, sm := range m.maps {
		pos = sm.Map(pos, assoc)
	}
	return pos
}

// Invert returns a mapping from output positions back to input positions.
func (m Mapping) Invert() Mapping {
	out := Mapping{maps: make([]StepMap, len(m.maps))}
	for i, sm := range m.maps {
		out.maps[len(m.maps)-1-i] = sm.Invert()
	}
	return out
}
