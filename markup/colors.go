// Package markup converts classic side-panel HTML into typed story content
// nodes.
package markup

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"golang.org/x/image/colornames"
)

// colorClassPrefix starts every portable text color class; the suffix is the
// uppercase 6-digit hex of the color.
const colorClassPrefix = "sm-text-color-"

type declaration struct {
	prop  string
	value string
}

// parseInlineStyle tokenizes a style attribute into declarations. Broken
// trailing garbage is dropped, everything parseable survives.
func parseInlineStyle(style string) []declaration {
	p := css.NewParser(parse.NewInput(bytes.NewReader([]byte(style))), true)

	var decls []declaration
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			return decls
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			decls = append(decls, declaration{
				prop:  string(data),
				value: joinTokens(p.Values()),
			})
		}
	}
}

func joinTokens(tokens []css.Token) string {
	var parts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			parts = append(parts, string(t.Data))
		} else if len(parts) > 0 {
			parts = append(parts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}

// colorToHex resolves a CSS color value (#RGB, #RRGGBB, rgb()/rgba() or a
// named color) to its uppercase 6-digit hex form.
func colorToHex(value string) (string, bool) {
	value = strings.TrimSpace(value)

	if strings.HasPrefix(value, "#") {
		hex := value[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return "", false
		}
		if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
			return "", false
		}
		return strings.ToUpper(hex), true
	}

	lower := strings.ToLower(value)
	if strings.HasPrefix(lower, "rgb(") || strings.HasPrefix(lower, "rgba(") {
		open := strings.IndexByte(value, '(')
		end := strings.LastIndexByte(value, ')')
		if end <= open {
			return "", false
		}
		fields := strings.Split(value[open+1:end], ",")
		if len(fields) < 3 {
			return "", false
		}
		var rgb [3]uint64
		for i := 0; i < 3; i++ {
			n, err := strconv.ParseUint(strings.TrimSpace(fields[i]), 10, 16)
			if err != nil || n > 255 {
				return "", false
			}
			rgb[i] = n
		}
		return fmt.Sprintf("%02X%02X%02X", rgb[0], rgb[1], rgb[2]), true
	}

	if c, ok := colornames.Map[lower]; ok {
		return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B), true
	}
	return "", false
}

// NormalizeColorStyle rewrites inline color declarations on the element
// into a portable class: every color declaration is stripped from the style
// attribute (the attribute is removed when nothing remains) and the class
// list gains colorClassPrefix plus the hex of the first declared value.
// Unresolvable color values leave the element untouched. Running it a
// second time is a no-op since no color declarations remain.
func NormalizeColorStyle(s *goquery.Selection) {
	style, ok := s.Attr("style")
	if !ok {
		return
	}

	decls := parseInlineStyle(style)

	colorValue := ""
	rest := make([]declaration, 0, len(decls))
	for _, d := range decls {
		if strings.EqualFold(d.prop, "color") {
			if colorValue == "" {
				colorValue = d.value
			}
			continue
		}
		rest = append(rest, d)
	}
	if colorValue == "" {
		return
	}

	hex, ok := colorToHex(colorValue)
	if !ok {
		return
	}

	if len(rest) == 0 {
		s.RemoveAttr("style")
	} else {
		parts := make([]string, 0, len(rest))
		for _, d := range rest {
			parts = append(parts, d.prop+": "+d.value)
		}
		s.SetAttr("style", strings.Join(parts, "; "))
	}
	s.AddClass(colorClassPrefix + hex)
}

// ProcessFragmentColors normalizes inline colors on every element of an
// HTML fragment, preserving the rest of the markup. Unparseable input is
// returned as-is.
func ProcessFragmentColors(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		NormalizeColorStyle(s)
	})
	out, err := doc.Find("body").Html()
	if err != nil {
		return fragment
	}
	return out
}
