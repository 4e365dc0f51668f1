package ui

import "charm.land/lipgloss/v2"

type Theme struct {
	Header       lipgloss.Style
	Status       lipgloss.Style
	PanelBorder  lipgloss.Style
	PanelBody    lipgloss.Style
	Overlay      lipgloss.Style
	OverlayTitle lipgloss.Style
	Accent       lipgloss.Style
	Muted        lipgloss.Style

	Blank    lipgloss.Style
	Revealed lipgloss.Style
	Selected lipgloss.Style
	Preview  lipgloss.Style
	Clue     lipgloss.Style
	Correct  lipgloss.Style
	Wrong    lipgloss.Style

	Tile       lipgloss.Style
	TileActive lipgloss.Style
	TileLocked lipgloss.Style
	Resume     lipgloss.Style
}

func DefaultTheme() Theme {
	return ThemeForVariant("dusk")
}

func ThemeForVariant(variant string) Theme {
	switch variant {
	case "paper":
		return paperTheme()
	case "phosphor":
		return phosphorTheme()
	default:
		return duskTheme()
	}
}

func duskTheme() Theme {
	gold := lipgloss.Color("#FFC857")
	mint := lipgloss.Color("#67F0A8")
	coral := lipgloss.Color("#FF6F91")
	ink := lipgloss.Color("#0E1420")
	slate := lipgloss.Color("#1B2740")
	powder := lipgloss.Color("#EAF2FF")
	cyan := lipgloss.Color("#5EEBFF")
	dim := lipgloss.Color("#6B7A99")

	return Theme{
		Header:      lipgloss.NewStyle().Background(ink).Foreground(powder).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(slate).Foreground(powder).Padding(0, 1),
		PanelBorder: lipgloss.NewStyle().Foreground(lipgloss.Color("#4B5F8A")),
		PanelBody:   lipgloss.NewStyle().Foreground(powder),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(cyan).
			Background(ink).
			Foreground(powder).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().Foreground(cyan).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(cyan).Bold(true),
		Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("#9CAAC6")),

		Blank:    lipgloss.NewStyle().Foreground(dim),
		Revealed: lipgloss.NewStyle().Foreground(powder).Bold(true),
		Selected: lipgloss.NewStyle().Background(gold).Foreground(ink).Bold(true),
		Preview:  lipgloss.NewStyle().Background(gold).Foreground(coral).Bold(true),
		Clue:     lipgloss.NewStyle().Foreground(dim),
		Correct:  lipgloss.NewStyle().Foreground(mint).Bold(true),
		Wrong:    lipgloss.NewStyle().Foreground(coral).Bold(true),

		Tile:       lipgloss.NewStyle().Foreground(powder),
		TileActive: lipgloss.NewStyle().Background(cyan).Foreground(ink).Bold(true),
		TileLocked: lipgloss.NewStyle().Foreground(dim).Faint(true),
		Resume:     lipgloss.NewStyle().Foreground(gold),
	}
}

func paperTheme() Theme {
	honey := lipgloss.Color("#F2B872")
	sage := lipgloss.Color("#80C4A3")
	rose := lipgloss.Color("#D17A86")
	night := lipgloss.Color("#1E2430")
	slate := lipgloss.Color("#30394A")
	paper := lipgloss.Color("#F4F6FA")
	sky := lipgloss.Color("#86B6F6")
	dim := lipgloss.Color("#7E879C")

	return Theme{
		Header:      lipgloss.NewStyle().Background(night).Foreground(paper).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(slate).Foreground(paper).Padding(0, 1),
		PanelBorder: lipgloss.NewStyle().Foreground(slate),
		PanelBody:   lipgloss.NewStyle().Foreground(paper),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(honey).
			Background(night).
			Foreground(paper).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().Foreground(honey).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(sky).Bold(true),
		Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("#A3ACC2")),

		Blank:    lipgloss.NewStyle().Foreground(dim),
		Revealed: lipgloss.NewStyle().Foreground(paper).Bold(true),
		Selected: lipgloss.NewStyle().Background(sky).Foreground(night).Bold(true),
		Preview:  lipgloss.NewStyle().Background(sky).Foreground(rose).Bold(true),
		Clue:     lipgloss.NewStyle().Foreground(dim),
		Correct:  lipgloss.NewStyle().Foreground(sage).Bold(true),
		Wrong:    lipgloss.NewStyle().Foreground(rose).Bold(true),

		Tile:       lipgloss.NewStyle().Foreground(paper),
		TileActive: lipgloss.NewStyle().Background(honey).Foreground(night).Bold(true),
		TileLocked: lipgloss.NewStyle().Foreground(dim).Faint(true),
		Resume:     lipgloss.NewStyle().Foreground(sky),
	}
}

func phosphorTheme() Theme {
	lime := lipgloss.Color("#9CF5A2")
	amber := lipgloss.Color("#E5D47A")
	red := lipgloss.Color("#FF6B6B")
	deep := lipgloss.Color("#07150A")
	forest := lipgloss.Color("#12301A")
	glow := lipgloss.Color("#C5F7C4")
	moss := lipgloss.Color("#4F7A57")

	return Theme{
		Header:      lipgloss.NewStyle().Background(deep).Foreground(glow).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(forest).Foreground(glow).Padding(0, 1),
		PanelBorder: lipgloss.NewStyle().Foreground(lipgloss.Color("#1F5C2F")),
		PanelBody:   lipgloss.NewStyle().Foreground(glow),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(amber).
			Background(deep).
			Foreground(glow).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().Foreground(amber).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(lime).Bold(true),
		Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("#73A17A")),

		Blank:    lipgloss.NewStyle().Foreground(moss),
		Revealed: lipgloss.NewStyle().Foreground(glow).Bold(true),
		Selected: lipgloss.NewStyle().Reverse(true).Bold(true),
		Preview:  lipgloss.NewStyle().Reverse(true).Foreground(amber).Bold(true),
		Clue:     lipgloss.NewStyle().Foreground(moss),
		Correct:  lipgloss.NewStyle().Foreground(lime).Bold(true),
		Wrong:    lipgloss.NewStyle().Foreground(red).Bold(true),

		Tile:       lipgloss.NewStyle().Foreground(glow),
		TileActive: lipgloss.NewStyle().Reverse(true).Bold(true),
		TileLocked: lipgloss.NewStyle().Foreground(moss).Faint(true),
		Resume:     lipgloss.NewStyle().Foreground(amber),
	}
}
