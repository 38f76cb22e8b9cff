package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/marketmap/backend/internal/domain"
)

// Selectors for the fixed listing layout: a repeating product card holding a
// name fragment, a price fragment and an image fragment.
const (
	cardSelector  = "article.prd"
	nameSelector  = "h3.name"
	priceSelector = "div.prc"
	imageSelector = "img.img"
)

// Extract parses one fetched listing page into candidate records, one pass
// per page. Cards missing either the name or the price fragment are dropped
// silently; they are expected noise in scraped markup, not errors. For the
// image reference the lazy-load data-src attribute takes precedence over
// src, and a card with neither yields an absent reference.
func Extract(markup string) ([]domain.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("scraper: failed to parse listing markup: %w", err)
	}

	var candidates []domain.Candidate
	doc.Find(cardSelector).Each(func(_ int, card *goquery.Selection) {
		name := strings.TrimSpace(card.Find(nameSelector).First().Text())
		rawPrice := strings.TrimSpace(card.Find(priceSelector).First().Text())
		if name == "" || rawPrice == "" {
			return
		}

		var imageRef *string
		img := card.Find(imageSelector).First()
		if src, ok := img.Attr("data-src"); ok {
			imageRef = &src
		} else if src, ok := img.Attr("src"); ok {
			imageRef = &src
		}

		candidates = append(candidates, domain.Candidate{
			Name:     name,
			RawPrice: rawPrice,
			ImageRef: imageRef,
		})
	})

	return candidates, nil
}
