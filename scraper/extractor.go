package scraper

import (
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"dfimoveis_scraper/models"
)

// All coupling to the portal's markup lives in these constants. When the
// site restructures its result pages, this file is the only thing to touch.
const (
	containerSelector = "div.property-list__item"
	priceSelector     = "p.property-list__price"
	addressSelector   = "p.property-list__address"
	linkSelector      = "a[href]"
	featuresSelector  = "ul.property-list__features"

	featureArea     = "Área útil"
	featureBedrooms = "Quartos"
	featureSuites   = "Suítes"
	featureParking  = "Vagas"
)

// Extractor turns one result page's markup into listings. Individual
// malformed advertisements are skipped, never fatal for the page.
type Extractor struct {
	origin string
}

// NewExtractor builds an extractor that resolves root-relative listing
// links against the given home URL's origin.
func NewExtractor(homeURL string) *Extractor {
	return &Extractor{origin: strings.TrimRight(homeURL, "/")}
}

// Extract returns the listings found in document order plus the number of
// containers dropped for missing a required field. An empty result with no
// error is the crawl's natural end-of-results signal.
func (e *Extractor) Extract(markup string) ([]models.Listing, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, 0, fmt.Errorf("parse page markup: %w", err)
	}

	var listings []models.Listing
	skipped := 0

	doc.Find(containerSelector).Each(func(i int, sel *goquery.Selection) {
		listing, err := e.extractOne(sel)
		if err != nil {
			log.Printf("Warning: skipping malformed listing %d: %v", i+1, err)
			skipped++
			return
		}
		listings = append(listings, listing)
	})

	return listings, skipped, nil
}

func (e *Extractor) extractOne(sel *goquery.Selection) (models.Listing, error) {
	price := strings.TrimSpace(sel.Find(priceSelector).First().Text())
	if price == "" {
		return models.Listing{}, fmt.Errorf("missing price element")
	}

	address := strings.TrimSpace(sel.Find(addressSelector).First().Text())
	if address == "" {
		return models.Listing{}, fmt.Errorf("missing address element")
	}

	href, ok := sel.Find(linkSelector).First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return models.Listing{}, fmt.Errorf("missing listing link")
	}

	features := sel.Find(featuresSelector).First()

	return models.Listing{
		Price:    price,
		Address:  address,
		Area:     featureText(features, featureArea),
		Bedrooms: featureText(features, featureBedrooms),
		Suites:   featureText(features, featureSuites),
		Parking:  featureText(features, featureParking),
		URL:      e.absoluteURL(strings.TrimSpace(href)),
	}, nil
}

// featureText looks up one labeled entry in the features list. Listings
// legitimately omit features they don't have (a unit with no suites has no
// Suítes line), so absence maps to the N/A sentinel rather than an error.
func featureText(features *goquery.Selection, title string) string {
	item := features.Find(fmt.Sprintf("li[title=%q]", title)).First()
	if item.Length() == 0 {
		return models.NotAvailable
	}
	if text := strings.TrimSpace(item.Text()); text != "" {
		return text
	}
	return models.NotAvailable
}

func (e *Extractor) absoluteURL(href string) string {
	if strings.HasPrefix(href, "/") {
		return e.origin + href
	}
	return href
}
