package sink

import (
	"bufio"
	"html"
	"image/color"
	"io"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/tmpim/textreel"
)

const (
	htmlHeader = "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>textreel</title>\n" +
		"<style>body{background:#000;margin:0}pre{font:10px/10px monospace;margin:0 0 1em 0}</style>\n" +
		"</head><body>\n"
	htmlFooter = "</body></html>\n"
)

// HTML writes every grid as a <pre> block of colored spans into a single
// document. Close writes the closing tags.
type HTML struct {
	// MinLightness lifts glyph colors darker than this CIE L*C*h lightness,
	// between 0 and 1, keeping their hue and chroma, so they stay legible on
	// the black page. Zero keeps colors as they are.
	MinLightness float64

	wr     *bufio.Writer
	opened bool
	hex    map[textreel.RGB]string
}

// NewHTML returns a sink writing a document to w.
func NewHTML(w io.Writer) *HTML {
	return &HTML{
		wr:  bufio.NewWriter(w),
		hex: make(map[textreel.RGB]string),
	}
}

// Reset writes the document header if it has not been written yet.
func (h *HTML) Reset() error {
	if h.opened {
		return nil
	}
	h.opened = true

	h.wr.WriteString(htmlHeader)
	return h.wr.Flush()
}

func (h *HTML) color(c textreel.RGB) string {
	if s, found := h.hex[c]; found {
		return s
	}

	cf, _ := colorful.MakeColor(color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
	if h.MinLightness > 0 {
		hue, chroma, l := cf.Hcl()
		if l < h.MinLightness {
			cf = colorful.Hcl(hue, chroma, h.MinLightness).Clamped()
		}
	}
	s := cf.Hex()
	h.hex[c] = s
	return s
}

// WriteFrame appends grid to the document.
func (h *HTML) WriteFrame(grid *textreel.GlyphGrid) error {
	if err := h.Reset(); err != nil {
		return err
	}

	h.wr.WriteString("<pre>")
	for _, row := range grid.Rows {
		open := false
		var last textreel.RGB

		for _, cell := range row {
			c := cell.Token.Display()
			if !open || c != last {
				if open {
					h.wr.WriteString("</span>")
				}
				h.wr.WriteString(`<span style="color:`)
				h.wr.WriteString(h.color(c))
				h.wr.WriteString(`">`)
				open = true
				last = c
			}
			h.wr.WriteString(html.EscapeString(string(cell.Glyph)))
		}

		if open {
			h.wr.WriteString("</span>")
		}
		h.wr.WriteByte('\n')
	}
	h.wr.WriteString("</pre>\n")

	return h.wr.Flush()
}

// Close finishes the document.
func (h *HTML) Close() error {
	if !h.opened {
		return nil
	}
	h.wr.WriteString(htmlFooter)
	return h.wr.Flush()
}
