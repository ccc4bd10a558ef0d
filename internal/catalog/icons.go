package catalog

// Icon names a niche card glyph. The set is closed: names outside it are
// replaced with DefaultIcon when the catalog loads.
type Icon string

const (
	IconBox        Icon = "Box"
	IconGamepad    Icon = "Gamepad2"
	IconPuzzle     Icon = "Puzzle"
	IconSparkles   Icon = "Sparkles"
	IconKeyboard   Icon = "Keyboard"
	IconCake       Icon = "Cake"
	IconUtensils   Icon = "Utensils"
	IconTrees      Icon = "Trees"
	IconWind       Icon = "Wind"
	IconPieChart   Icon = "PieChart"
	IconTrendingUp Icon = "TrendingUp"
	IconScrollText Icon = "ScrollText"
	IconGem        Icon = "Gem"
	IconPackage    Icon = "Package"
	IconLaptop     Icon = "Laptop"
	IconPlane      Icon = "Plane"
	IconMap        Icon = "Map"
	IconShapes     Icon = "Shapes"
	IconVideo      Icon = "Video"

	DefaultIcon = IconBox
)

// glyphs is the text rendering of each icon, used where the web icon set is
// not available (tray menu, plain-text exports).
var glyphs = map[Icon]string{
	IconBox:        "📦",
	IconGamepad:    "🎮",
	IconPuzzle:     "🧩",
	IconSparkles:   "✨",
	IconKeyboard:   "⌨️",
	IconCake:       "🎂",
	IconUtensils:   "🍴",
	IconTrees:      "🌲",
	IconWind:       "🌬️",
	IconPieChart:   "📊",
	IconTrendingUp: "📈",
	IconScrollText: "📜",
	IconGem:        "💎",
	IconPackage:    "📦",
	IconLaptop:     "💻",
	IconPlane:      "✈️",
	IconMap:        "🗺️",
	IconShapes:     "🔷",
	IconVideo:      "🎬",
}

func (i Icon) Valid() bool {
	_, ok := glyphs[i]
	return ok
}

// Glyph returns the icon's text rendering.
func (i Icon) Glyph() string {
	if g, ok := glyphs[i]; ok {
		return g
	}
	return glyphs[DefaultIcon]
}
