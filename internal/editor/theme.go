package editor

// Theme names one of the fixed colour schemes.
type Theme string

const (
	ThemeDark        Theme = "dark"
	ThemeLight       Theme = "light"
	ThemeNavy        Theme = "navy"
	ThemeForest      Theme = "forest"
	ThemeReinassance Theme = "reinassance"
	ThemeVanilla     Theme = "vanilla"
)

// DefaultTheme is used when no theme has been saved.
const DefaultTheme = ThemeDark

// Themes lists every theme in menu order.
var Themes = []Theme{
	ThemeDark,
	ThemeLight,
	ThemeNavy,
	ThemeForest,
	ThemeReinassance,
	ThemeVanilla,
}

// ParseTheme returns the theme called name.
func ParseTheme(name string) (Theme, bool) {
	for _, t := range Themes {
		if string(t) == name {
			return t, true
		}
	}
	return "", false
}
