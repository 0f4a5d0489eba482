package ui

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func FuzzyMatch(target, query string) bool {
	re, err := regexp.Compile("(?i)" + query)
	if err == nil {
		return re.MatchString(target)
	}
	target = strings.ToLower(target)
	query = strings.ToLower(query)
	qi := 0
	for i := 0; i < len(target) && qi < len(query); i++ {
		if target[i] == query[qi] {
			qi++
		}
	}
	return qi == len(query)
}

// Palette is the set of colours a theme is built from.
type Palette struct {
	Accent   lipgloss.Color
	Text     lipgloss.Color
	Dim      lipgloss.Color
	Modified lipgloss.Color
	Error    lipgloss.Color
	Success  lipgloss.Color
	Bar      lipgloss.Color // status and top bar background
	BarText  lipgloss.Color
	Editing  lipgloss.Color // background of the cell being edited
	Index    lipgloss.Color // row-index column
}

// Palettes maps theme names to their colours.
var Palettes = map[string]Palette{
	"dark": {
		Accent: "#4ecca3", Text: "#dddddd", Dim: "#555555",
		Modified: "#f0a500", Error: "#e94560", Success: "#4ecca3",
		Bar: "#333333", BarText: "#cccccc", Editing: "#1a3a2a", Index: "#777777",
	},
	"light": {
		Accent: "#0066cc", Text: "#222222", Dim: "#999999",
		Modified: "#b35900", Error: "#cc0000", Success: "#2e7d32",
		Bar: "#e0e0e0", BarText: "#333333", Editing: "#dbe9ff", Index: "#888888",
	},
	"navy": {
		Accent: "#7fb2ff", Text: "#e6ecff", Dim: "#4a5a80",
		Modified: "#ffcc66", Error: "#ff6b81", Success: "#7fdbca",
		Bar: "#0f1c3f", BarText: "#c8d3f5", Editing: "#1d3163", Index: "#6c7db0",
	},
	"forest": {
		Accent: "#8bc34a", Text: "#e8f5e9", Dim: "#4e6b4f",
		Modified: "#ffb74d", Error: "#ef5350", Success: "#aed581",
		Bar: "#1b3a1f", BarText: "#c5e1a5", Editing: "#2e5131", Index: "#7c9a7e",
	},
	"reinassance": {
		Accent: "#c9a227", Text: "#f3e9d2", Dim: "#7a6a53",
		Modified: "#e07a5f", Error: "#b23a48", Success: "#81b29a",
		Bar: "#3d2b1f", BarText: "#f3e9d2", Editing: "#5c4033", Index: "#a68a64",
	},
	"vanilla": {
		Accent: "#8d6e63", Text: "#3e2723", Dim: "#bcaaa4",
		Modified: "#e65100", Error: "#c62828", Success: "#558b2f",
		Bar: "#f3e5ab", BarText: "#4e342e", Editing: "#fff3c4", Index: "#a1887f",
	},
}

// Color palette
var (
	ColorAccent   lipgloss.Color
	ColorText     lipgloss.Color
	ColorModified lipgloss.Color
	ColorDim      lipgloss.Color
	ColorSuccess  lipgloss.Color
	ColorError    lipgloss.Color
	ColorIndex    lipgloss.Color
)

// Border styles
var (
	TableBorder lipgloss.Style
)

// Text styles
var (
	AccentText   lipgloss.Style
	DimText      lipgloss.Style
	ErrorText    lipgloss.Style
	SuccessText  lipgloss.Style
	ModifiedText lipgloss.Style
	BannerText   lipgloss.Style
)

// Header styles
var (
	HeaderStyle    lipgloss.Style
	SubHeaderStyle lipgloss.Style
)

// Table cell styles
var (
	CellNormal   lipgloss.Style
	CellSelected lipgloss.Style
	CellEditing  lipgloss.Style
	CellInvalid  lipgloss.Style
	CellIndex    lipgloss.Style
)

// Status bar
var (
	StatusBarStyle     lipgloss.Style
	StatusErrorStyle   lipgloss.Style
	StatusSuccessStyle lipgloss.Style
)

// Menu styles
var (
	MenuNormal lipgloss.Style
	MenuCursor lipgloss.Style
	MenuActive lipgloss.Style
)

// Search styles
var (
	SearchInput lipgloss.Style
	SearchLabel lipgloss.Style
)

// Top bar style
var TopBarStyle lipgloss.Style

func init() {
	ApplyTheme("dark")
}

// ApplyTheme rebuilds every style from the named palette. Unknown names fall
// back to dark. It must be called from the update loop.
func ApplyTheme(name string) {
	p, ok := Palettes[name]
	if !ok {
		p = Palettes["dark"]
	}

	ColorAccent = p.Accent
	ColorText = p.Text
	ColorModified = p.Modified
	ColorDim = p.Dim
	ColorSuccess = p.Success
	ColorError = p.Error
	ColorIndex = p.Index

	TableBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorAccent)

	AccentText = lipgloss.NewStyle().Foreground(ColorAccent)
	DimText = lipgloss.NewStyle().Foreground(ColorDim)
	ErrorText = lipgloss.NewStyle().Foreground(ColorError)
	SuccessText = lipgloss.NewStyle().Foreground(ColorSuccess)
	ModifiedText = lipgloss.NewStyle().Foreground(ColorModified)
	BannerText = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)

	HeaderStyle = lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true)
	SubHeaderStyle = lipgloss.NewStyle().
		Foreground(ColorDim)

	CellNormal = lipgloss.NewStyle().Foreground(ColorText)
	CellSelected = lipgloss.NewStyle().Reverse(true)
	CellEditing = lipgloss.NewStyle().
		Background(p.Editing).
		Foreground(ColorAccent).
		Bold(true)
	CellInvalid = lipgloss.NewStyle().
		Foreground(ColorError).
		Underline(true)
	CellIndex = lipgloss.NewStyle().Foreground(ColorIndex)

	StatusBarStyle = lipgloss.NewStyle().
		Background(p.Bar).
		Foreground(p.BarText).
		Padding(0, 1)
	StatusErrorStyle = lipgloss.NewStyle().
		Background(p.Bar).
		Foreground(ColorError).
		Padding(0, 1)
	StatusSuccessStyle = lipgloss.NewStyle().
		Background(p.Bar).
		Foreground(ColorSuccess).
		Padding(0, 1)

	MenuNormal = lipgloss.NewStyle().PaddingLeft(1)
	MenuCursor = lipgloss.NewStyle().
		PaddingLeft(1).
		Reverse(true)
	MenuActive = lipgloss.NewStyle().
		PaddingLeft(1).
		Foreground(ColorAccent).
		Bold(true)

	SearchInput = lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true)
	SearchLabel = lipgloss.NewStyle().
		Foreground(ColorAccent)

	TopBarStyle = lipgloss.NewStyle().
		Background(p.Bar).
		Foreground(p.BarText).
		Padding(0, 1)
}
