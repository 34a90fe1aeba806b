package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/carlmjohnson/requests"
	"golang.org/x/net/html"
)

const (
	scriptSelector = "//script[@id='pmkino-overview-script-js-extra']"
	payloadMarker  = "var pmkinoFrontVars = {"
)

var (
	cdataOpen  = regexp.MustCompile(`/\*<!\[CDATA\[ \*/`)
	cdataClose = regexp.MustCompile(`/\* \]\]>\*/`)
)

func (s *Scraper) fetchPayload(ctx context.Context) (map[string]any, error) {
	s.log.Sugar().Infow("Fetching web page content", "url", s.cfg.SourceURL)

	var page string
	err := requests.URL(s.cfg.SourceURL).
		Transport(s.transport).
		ToString(&page).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch web page: %w", err)
	}

	doc, err := htmlquery.Parse(strings.NewReader(page))
	if err != nil {
		return nil, err
	}

	script := htmlquery.FindOne(doc, scriptSelector)
	if script == nil {
		return nil, errors.New("script tag containing content not found")
	}
	text := scriptText(script)
	if text == "" {
		return nil, errors.New("script tag has no text content")
	}

	literal, err := ExtractObjectLiteral(sanitizeScript(text), payloadMarker)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(literal), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse extracted JSON: %w", err)
	}
	return payload, nil
}

// ExtractObjectLiteral pulls the object literal introduced by marker (which
// must end with the opening brace) out of surrounding script statements by
// counting brace depth. This is not a JSON scanner; the payload the cinema
// page embeds never holds braces inside string values.
func ExtractObjectLiteral(script, marker string) (string, error) {
	start := strings.Index(script, marker)
	if start == -1 {
		return "", fmt.Errorf("%q not found in script content", strings.TrimSuffix(marker, " = {"))
	}

	jsonStart := start + len(marker) - 1
	depth := 1
	jsonEnd := jsonStart

	for depth > 0 && jsonEnd < len(script)-1 {
		jsonEnd++
		switch script[jsonEnd] {
		case '{':
			depth++
		case '}':
			depth--
		}
	}

	if depth != 0 {
		return "", errors.New("unbalanced braces while extracting JSON content")
	}
	return script[jsonStart : jsonEnd+1], nil
}

func sanitizeScript(text string) string {
	text = cdataOpen.ReplaceAllString(text, "")
	text = cdataClose.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func scriptText(n *html.Node) string {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			return c.Data
		}
	}
	return ""
}
