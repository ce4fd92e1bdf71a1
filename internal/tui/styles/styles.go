package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Accent     = lipgloss.Color("#01B4E4")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
	Gold       = lipgloss.Color("#E5A00D")
)

// Text styles
var (
	TitleStyle    = lipgloss.NewStyle().Foreground(White).Bold(true)
	SubtitleStyle = lipgloss.NewStyle().Foreground(LightGray)
	DimStyle      = lipgloss.NewStyle().Foreground(DimGray)
	AccentStyle   = lipgloss.NewStyle().Foreground(Accent)
	ErrorStyle    = lipgloss.NewStyle().Foreground(Red)
	SuccessStyle  = lipgloss.NewStyle().Foreground(Green)
	RatingStyle   = lipgloss.NewStyle().Foreground(Gold)
)

// Tab bar styles
var (
	ActiveTabStyle   = lipgloss.NewStyle().Foreground(White).Background(Accent).Bold(true).Padding(0, 1)
	InactiveTabStyle = lipgloss.NewStyle().Foreground(LightGray).Padding(0, 1)
)

// List item styles
var (
	SelectedItemStyle = lipgloss.NewStyle().Foreground(White).Background(SlateLight).Padding(0, 1)
	NormalItemStyle   = lipgloss.NewStyle().Foreground(LightGray).Padding(0, 1)
)

// Detail panel
var DetailStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(Accent).Padding(1, 2)

// Help styles
var (
	HelpKeyStyle  = lipgloss.NewStyle().Foreground(Accent)
	HelpDescStyle = lipgloss.NewStyle().Foreground(DimGray)
)

// Spinner style
var SpinnerStyle = lipgloss.NewStyle().Foreground(Accent)

// Filter styles
var (
	FilterPromptStyle   = lipgloss.NewStyle().Foreground(Accent).Bold(true)
	matchHighlightStyle = lipgloss.NewStyle().Foreground(Accent).Bold(true)
)

// Favorite marker
const FavoriteChar = "♥"

var FavoriteMark = lipgloss.NewStyle().Foreground(Red).Render(FavoriteChar)

// Truncate truncates a string to the given display width with ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

// Highlight renders the runes of s at the given indexes with the match style
func Highlight(s string, indexes []int, base lipgloss.Style) string {
	if len(indexes) == 0 {
		return base.Render(s)
	}
	hit := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		hit[i] = true
	}

	var out string
	for i, r := range s {
		if hit[i] {
			out += matchHighlightStyle.Inherit(base).Render(string(r))
		} else {
			out += base.Render(string(r))
		}
	}
	return out
}

// SpinnerFrames are the frames used for plain-terminal spinners outside the TUI
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
