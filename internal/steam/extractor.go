// Package steam fetches a Steam store page and extracts structured game data.
//
// Extraction is all-or-nothing: any network error, non-200 status or missing
// required marker yields an error and no partial result.
package steam

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// Browser-like UA plus the age-verification cookie; without both the
	// store gates mature titles behind an interstitial.
	userAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"
	ageGateCookie = "birthtime=568022401; lastagecheckage=1-January-1990; wants_mature_content=1"

	maxTags     = 10
	maxDescRune = 2000

	fetchTimeout = 15 * time.Second
)

// GameData is the structured record extracted from one store page.
type GameData struct {
	Title     string
	ShortDesc string
	Tags      []string
	FullDesc  string
	URL       string
}

// Extractor scrapes store pages.
type Extractor struct {
	HTTPClient *http.Client
}

// NewExtractor creates an Extractor with a bounded fetch timeout.
func NewExtractor() *Extractor {
	return &Extractor{
		HTTPClient: &http.Client{Timeout: fetchTimeout},
	}
}

// Fetch downloads and parses the store page at url.
func (e *Extractor) Fetch(ctx context.Context, url string) (*GameData, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cookie", ageGateCookie)

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch store page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("store page returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse store page: %w", err)
	}

	return extract(doc, url)
}

// Required structural markers on the store page.
const (
	selTitle     = "div.apphub_AppName"
	selShortDesc = "div.game_description_snippet"
	selTags      = "a.app_tag"
	selFullDesc  = "div#game_area_description"
)

func extract(doc *goquery.Document, url string) (*GameData, error) {
	title := strings.TrimSpace(doc.Find(selTitle).First().Text())
	if title == "" {
		return nil, fmt.Errorf("missing required marker %s", selTitle)
	}

	shortDesc := strings.TrimSpace(doc.Find(selShortDesc).First().Text())
	if shortDesc == "" {
		return nil, fmt.Errorf("missing required marker %s", selShortDesc)
	}

	descSel := doc.Find(selFullDesc).First()
	if descSel.Length() == 0 {
		return nil, fmt.Errorf("missing required marker %s", selFullDesc)
	}
	fullDesc := truncateRunes(flattenText(descSel), maxDescRune)
	if fullDesc == "" {
		return nil, fmt.Errorf("empty description at %s", selFullDesc)
	}

	var tags []string
	doc.Find(selTags).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if tag := strings.TrimSpace(s.Text()); tag != "" {
			tags = append(tags, tag)
		}
		return len(tags) < maxTags
	})

	return &GameData{
		Title:     title,
		ShortDesc: shortDesc,
		Tags:      tags,
		FullDesc:  fullDesc,
		URL:       url,
	}, nil
}

var blankLines = regexp.MustCompile(`\n{2,}`)

// flattenText renders a selection as plain text with structural line breaks
// normalized to single newlines.
func flattenText(sel *goquery.Selection) string {
	sel.Find("br").Each(func(_ int, br *goquery.Selection) {
		br.ReplaceWithHtml("\n")
	})

	lines := strings.Split(sel.Text(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n"))
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
