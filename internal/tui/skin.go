package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Skin overrides palette entries. Empty fields keep the current colour.
type Skin struct {
	Name   string     `yaml:"name"`
	Colors SkinColors `yaml:"colors"`
}

// SkinColors maps palette slots to lipgloss colour strings (ANSI index or hex).
type SkinColors struct {
	Primary  string `yaml:"primary"`
	Accent   string `yaml:"accent"`
	Muted    string `yaml:"muted"`
	Text     string `yaml:"text"`
	Success  string `yaml:"success"`
	Warning  string `yaml:"warning"`
	Caution  string `yaml:"caution"`
	Danger   string `yaml:"danger"`
	Contrast string `yaml:"contrast"`
}

var builtinSkins = map[string]Skin{
	"default": {
		Name: "default",
		Colors: SkinColors{
			Primary: "39", Accent: "24", Muted: "245", Text: "255",
			Success: "42", Warning: "208", Caution: "220", Danger: "196", Contrast: "16",
		},
	},
	"palladium": {
		Name: "palladium",
		Colors: SkinColors{
			Primary: "#8fb3d9", Accent: "#2f4a66", Muted: "#7b8496", Text: "#e2e6ee",
			Success: "#5fd08a", Warning: "#f0b35b", Caution: "#e6d36b", Danger: "#e05d5d", Contrast: "#10131a",
		},
	},
	"mono": {
		Name: "mono",
		Colors: SkinColors{
			Primary: "255", Accent: "240", Muted: "245", Text: "255",
			Success: "250", Warning: "250", Caution: "250", Danger: "255", Contrast: "16",
		},
	},
}

// InitializeSkin applies the named skin. Built-in skins are looked up first,
// then <configDir>/skins/<name>.yml (or .yaml). An empty name is "default".
func InitializeSkin(name, configDir string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "default"
	}
	skin, ok := builtinSkins[name]
	if !ok {
		var err error
		skin, err = loadSkinFile(name, configDir)
		if err != nil {
			applySkin(builtinSkins["default"])
			return err
		}
	}
	applySkin(skin)
	return nil
}

func loadSkinFile(name, configDir string) (Skin, error) {
	var skin Skin
	for _, ext := range []string{".yml", ".yaml"} {
		path := filepath.Join(configDir, "skins", name+ext)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return skin, fmt.Errorf("reading skin %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &skin); err != nil {
			return skin, fmt.Errorf("parsing skin %s: %w", path, err)
		}
		return skin, nil
	}
	return skin, fmt.Errorf("skin %q not found in %s", name, filepath.Join(configDir, "skins"))
}

func applySkin(s Skin) {
	set := func(dst *lipgloss.Color, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = lipgloss.Color(v)
		}
	}
	set(&ColorBlue, s.Colors.Primary)
	set(&ColorNavy, s.Colors.Accent)
	set(&ColorGray, s.Colors.Muted)
	set(&ColorWhite, s.Colors.Text)
	set(&ColorGreen, s.Colors.Success)
	set(&ColorOrange, s.Colors.Warning)
	set(&ColorYellow, s.Colors.Caution)
	set(&ColorRed, s.Colors.Danger)
	set(&ColorBlack, s.Colors.Contrast)
	rebuildStyles()
}
