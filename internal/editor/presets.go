package editor

// Presets offered by the formatting toolbar. Any valid value is accepted by
// the style commands; these are the advertised choices.
var (
	FontSizes    = []string{"12px", "16px", "20px", "24px", "32px"}
	FontFamilies = []string{"Arial", "Times New Roman", "Courier New", "Georgia", "Verdana", "Helvetica"}
	Palette      = []string{"#000000", "#9ca3af", "#f87171", "#fb923c", "#facc15", "#4ade80", "#60a5fa", "#a78bfa", "#f472b6"}
)

// PaletteFor returns the palette with the base colour matching the theme.
func PaletteFor(dark bool) []string {
	out := append([]string(nil), Palette...)
	if dark {
		out[0] = "#ffffff"
	}
	return out
}
