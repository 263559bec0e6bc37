package timegrid

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Style is how a category is drawn. Colours are "#rrggbb".
type Style struct {
	Fill   string `yaml:"fill" validate:"hexcolor,len=7"`
	Border string `yaml:"border" validate:"hexcolor,len=7"`
	Text   string `yaml:"text" validate:"hexcolor,len=7"`
}

// Palette maps categories to styles, with a fallback for unknown ones.
type Palette struct {
	styles   map[Category]Style
	fallback Style
}

func DefaultPalette() Palette {
	return Palette{
		styles: map[Category]Style{
			"lesson":   {Fill: "#dbeafe", Border: "#3b82f6", Text: "#1e3a8a"},
			"exam":     {Fill: "#fee2e2", Border: "#ef4444", Text: "#7f1d1d"},
			"study":    {Fill: "#dcfce7", Border: "#22c55e", Text: "#14532d"},
			"meeting":  {Fill: "#fef3c7", Border: "#f59e0b", Text: "#78350f"},
			"personal": {Fill: "#f3e8ff", Border: "#a855f7", Text: "#581c87"},
		},
		fallback: Style{Fill: "#f3f4f6", Border: "#6b7280", Text: "#111827"},
	}
}

func (p Palette) Style(c Category) Style {
	if s, ok := p.styles[Category(strings.ToLower(string(c)))]; ok {
		return s
	}
	return p.fallback
}

type paletteFile struct {
	Fallback   *Style           `yaml:"fallback"`
	Categories map[string]Style `yaml:"categories"`
}

// LoadPalette reads a YAML palette on top of the defaults:
//
//	fallback: {fill: "#eeeeee", border: "#999999", text: "#000000"}
//	categories:
//	  lesson: {fill: "#dbeafe", border: "#3b82f6", text: "#1e3a8a"}
func LoadPalette(r io.Reader) (Palette, error) {
	var f paletteFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
		return Palette{}, fmt.Errorf("decode palette: %w", err)
	}

	p := DefaultPalette()
	if f.Fallback != nil {
		if err := f.Fallback.validate(); err != nil {
			return Palette{}, fmt.Errorf("fallback: %w", err)
		}
		p.fallback = *f.Fallback
	}
	for name, s := range f.Categories {
		if err := s.validate(); err != nil {
			return Palette{}, fmt.Errorf("category %q: %w", name, err)
		}
		p.styles[Category(strings.ToLower(name))] = s
	}
	return p, nil
}

func (s Style) validate() error {
	return validate.Struct(s)
}
