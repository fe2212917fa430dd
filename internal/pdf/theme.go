package pdf

// RGB is a colour with 0-255 channels.
type RGB struct {
	R, G, B int
}

// Theme is the per-analysis styling. Layout logic is shared; only these
// parameters differ between report types.
type Theme struct {
	Name    string  `json:"name"`
	Primary RGB     `json:"primary"`
	Accent  RGB     `json:"accent"`
	Text    RGB     `json:"text"`
	Muted   RGB     `json:"muted"`
	Margin  float64 `json:"margin_mm"`
}

var (
	ThemeBlue = Theme{
		Name:    "blue",
		Primary: RGB{37, 99, 235},
		Accent:  RGB{96, 165, 250},
		Text:    RGB{31, 41, 55},
		Muted:   RGB{107, 114, 128},
		Margin:  20,
	}
	ThemeGreen = Theme{
		Name:    "green",
		Primary: RGB{22, 163, 74},
		Accent:  RGB{74, 222, 128},
		Text:    RGB{31, 41, 55},
		Muted:   RGB{107, 114, 128},
		Margin:  20,
	}
	ThemePurple = Theme{
		Name:    "purple",
		Primary: RGB{126, 34, 206},
		Accent:  RGB{192, 132, 252},
		Text:    RGB{31, 41, 55},
		Muted:   RGB{107, 114, 128},
		Margin:  18,
	}
	ThemeOrange = Theme{
		Name:    "orange",
		Primary: RGB{234, 88, 12},
		Accent:  RGB{251, 146, 60},
		Text:    RGB{41, 37, 36},
		Muted:   RGB{120, 113, 108},
		Margin:  20,
	}
	ThemeTeal = Theme{
		Name:    "teal",
		Primary: RGB{13, 148, 136},
		Accent:  RGB{45, 212, 191},
		Text:    RGB{31, 41, 55},
		Muted:   RGB{107, 114, 128},
		Margin:  22,
	}
	ThemeIndigo = Theme{
		Name:    "indigo",
		Primary: RGB{67, 56, 202},
		Accent:  RGB{129, 140, 248},
		Text:    RGB{30, 27, 75},
		Muted:   RGB{100, 116, 139},
		Margin:  20,
	}
	ThemeRose = Theme{
		Name:    "rose",
		Primary: RGB{225, 29, 72},
		Accent:  RGB{251, 113, 133},
		Text:    RGB{31, 41, 55},
		Muted:   RGB{107, 114, 128},
		Margin:  20,
	}
	ThemeSlate = Theme{
		Name:    "slate",
		Primary: RGB{51, 65, 85},
		Accent:  RGB{148, 163, 184},
		Text:    RGB{15, 23, 42},
		Muted:   RGB{100, 116, 139},
		Margin:  20,
	}
)

// DefaultTheme is used when a report type has no theme of its own.
var DefaultTheme = ThemeSlate
