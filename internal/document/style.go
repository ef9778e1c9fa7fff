// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package document

// Position is the top-left corner of an element in page-local pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Clamp returns the position with both coordinates floored at zero.
// There is no upper bound: elements may be moved past the page edge.
func (p Position) Clamp() Position {
	if p.X < 0 {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = 0
	}
	return p
}

// Style holds the flat CSS-like attributes of an element. Values are kept
// as CSS strings ("16px", "#000000", "auto") so they pass through to the
// rendered markup without unit conversion.
type Style struct {
	FontSize        string `json:"fontSize,omitempty"`
	FontWeight      string `json:"fontWeight,omitempty"`
	Color           string `json:"color,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	TextAlign       string `json:"textAlign,omitempty"`
	Padding         string `json:"padding,omitempty"`
	Margin          string `json:"margin,omitempty"`
	BorderRadius    string `json:"borderRadius,omitempty"`
	Border          string `json:"border,omitempty"`
	Width           string `json:"width,omitempty"`
	Height          string `json:"height,omitempty"`
}

// Merge returns s with every non-empty field of patch applied on top.
func (s Style) Merge(patch Style) Style {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&s.FontSize, patch.FontSize)
	set(&s.FontWeight, patch.FontWeight)
	set(&s.Color, patch.Color)
	set(&s.BackgroundColor, patch.BackgroundColor)
	set(&s.TextAlign, patch.TextAlign)
	set(&s.Padding, patch.Padding)
	set(&s.Margin, patch.Margin)
	set(&s.BorderRadius, patch.BorderRadius)
	set(&s.Border, patch.Border)
	set(&s.Width, patch.Width)
	set(&s.Height, patch.Height)
	return s
}

// DefaultStyle is the style every new element starts from.
func DefaultStyle() Style {
	return Style{
		FontSize:        "16px",
		FontWeight:      "normal",
		Color:           "#000000",
		BackgroundColor: "transparent",
		TextAlign:       "left",
		Padding:         "8px",
		Margin:          "0px",
		BorderRadius:    "0px",
		Border:          "none",
		Width:           "auto",
		Height:          "auto",
	}
}

// CellStyle is the per-cell style of a table.
type CellStyle struct {
	BackgroundColor string `json:"backgroundColor,omitempty"`
	Color           string `json:"color,omitempty"`
	FontWeight      string `json:"fontWeight,omitempty"`
	TextAlign       string `json:"textAlign,omitempty"`
}

// Merge returns s with every non-empty field of patch applied on top.
func (s CellStyle) Merge(patch CellStyle) CellStyle {
	if patch.BackgroundColor != "" {
		s.BackgroundColor = patch.BackgroundColor
	}
	if patch.Color != "" {
		s.Color = patch.Color
	}
	if patch.FontWeight != "" {
		s.FontWeight = patch.FontWeight
	}
	if patch.TextAlign != "" {
		s.TextAlign = patch.TextAlign
	}
	return s
}

// DefaultCellStyle is applied to cells created by row and column inserts.
func DefaultCellStyle() CellStyle {
	return CellStyle{
		BackgroundColor: "#ffffff",
		Color:           "#000000",
		FontWeight:      "normal",
		TextAlign:       "left",
	}
}

// TableStyle holds the border settings shared by all cells of a table.
type TableStyle struct {
	BorderColor string `json:"borderColor,omitempty"`
	BorderWidth string `json:"borderWidth,omitempty"`
}

// PageConfig describes the printable surface of a page.
type PageConfig struct {
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	BackgroundImage string `json:"backgroundImage,omitempty"`
	Padding         int    `json:"padding"`
	FontFamily      string `json:"fontFamily,omitempty"`
}

// DefaultPageConfig is an A4 sheet at 96 DPI.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Width:           794,
		Height:          1123,
		BackgroundColor: "#ffffff",
		Padding:         40,
		FontFamily:      "Arial, sans-serif",
	}
}

// withDefaults fills zero-valued dimensions from DefaultPageConfig so a
// partially specified stored config still renders at a usable size.
func (c PageConfig) withDefaults() PageConfig {
	def := DefaultPageConfig()
	if c.Width <= 0 {
		c.Width = def.Width
	}
	if c.Height <= 0 {
		c.Height = def.Height
	}
	if c.BackgroundColor == "" {
		c.BackgroundColor = def.BackgroundColor
	}
	if c.FontFamily == "" {
		c.FontFamily = def.FontFamily
	}
	return c
}
