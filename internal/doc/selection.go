package doc

// Selection is an ordered pair of positions; From == To is a caret.
type Selection struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Caret returns a collapsed selection at pos.
func Caret(pos int) Selection {
	return Selection{From: pos, To: pos}
}

// Range returns the selection between a and b in either order.
func Range(a, b int) Selection {
	if a > b {
		a, b = b, a
	}
	return Selection{From: a, To: b}
}

// All selects the whole document.
func All(d *Node) Selection {
	return Selection{From: 0, To: d.Size()}
}

// Collapsed reports whether the selection is a caret.
func (s Selection) Collapsed() bool {
	return s.From == s.To
}

// Valid reports whether both ends lie inside d.
func (s Selection) Valid(d *Node) bool {
	return s.From >= 0 && s.From <= s.To && s.To <= d.Size()
}

// Map moves the selection through m.
func (s Selection) Map(m Mapping) Selection {
	if s.Collapsed() {
		return Caret(m.Map(s.From, 1))
	}
	return Range(m.Map(s.From, 1), m.Map(s.To, -1))
}

// Clamp forces both ends into [0, size].
func (s Selection) Clamp(size int) Selection {
	c := func(p int) int { return min(max(p, 0), size) }
	return Range(c(s.From), c(s.To))
}
