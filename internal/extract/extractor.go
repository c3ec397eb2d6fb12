// Package extract derives business contact records from fetched pages.
// Extraction is heuristic: pages vary wildly, so every field is
// best-effort and the record survives with whatever was found.
package extract

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nyaruka/phonenumbers"

	"github.com/FranksOps/ingot/internal/fetch"
	"github.com/FranksOps/ingot/internal/record"
	"github.com/FranksOps/ingot/internal/region"
)

var (
	phonePattern = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)
	// cityStatePattern splits "Akron, OH" style trailing address parts. The
	// greedy group keeps multi-comma street addresses intact.
	cityStatePattern = regexp.MustCompile(`(.+),\s*([A-Z]{2})\b`)
	spacePattern     = regexp.MustCompile(`\s+`)
)

const descriptionLimit = 300

// Config tunes the extractor's vocabulary.
type Config struct {
	// Tokens gate relevance: a page mentioning none of them yields no record.
	Tokens []string
	// Materials and Services are scanned for in the page text and stored
	// comma-joined on the record.
	Materials []string
	Services  []string
	Logger    *slog.Logger
}

// Extractor fetches candidate pages and turns them into records.
type Extractor struct {
	fetcher *fetch.Fetcher
	config  Config
	logger  *slog.Logger
}

// New creates an Extractor.
func New(fetcher *fetch.Fetcher, cfg Config) *Extractor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{fetcher: fetcher, config: cfg, logger: logger}
}

// Extract fetches pageURL and derives a business record. It returns nil
// when the page cannot be fetched, fails the relevance gate, or cannot be
// parsed. The caller assigns record identity (ID, CollectedAt); given the
// same page bytes, Extract always produces the same field values.
func (e *Extractor) Extract(ctx context.Context, pageURL, country string) *record.Business {
	result := e.fetcher.Get(ctx, pageURL)
	if !result.Usable() {
		e.logger.Debug("page not usable", "url", pageURL,
			"status", result.StatusCode, "err", result.Error, "challenge", result.ChallengeSrc)
		return nil
	}

	lowerHTML := strings.ToLower(string(result.Body))
	if !e.relevant(lowerHTML) {
		e.logger.Debug("page failed relevance gate", "url", pageURL)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(result.Body))
	if err != nil {
		e.logger.Debug("page parse failed", "url", pageURL, "err", err)
		return nil
	}

	text := normalizeSpace(doc.Text())

	b := &record.Business{
		Website: pageURL,
		Country: country,
	}
	b.Name = extractName(doc, pageURL)
	b.Phone = extractPhone(text, region.ISOCode(country))
	b.Email = extractEmail(string(result.Body))
	b.Address, b.City, b.State = extractAddress(doc, text)
	b.Description = extractDescription(doc, text)
	b.Materials = scanVocabulary(lowerHTML, e.config.Materials)
	b.Services = scanVocabulary(lowerHTML, e.config.Services)

	return b
}

func (e *Extractor) relevant(lowerHTML string) bool {
	if len(e.config.Tokens) == 0 {
		return true
	}
	for _, tok := range e.config.Tokens {
		if strings.Contains(lowerHTML, strings.ToLower(tok)) {
			return true
		}
	}
	return false
}

// extractName prefers the first h1, falls back to the document title,
// then to the page's hostname.
func extractName(doc *goquery.Document, pageURL string) string {
	if h1 := normalizeSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	if title := normalizeSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if u, err := url.Parse(pageURL); err == nil {
		return u.Hostname()
	}
	return ""
}

// extractPhone scans for phone-shaped strings and validates them against
// the country's numbering plan, formatting the first valid hit nationally.
// When nothing validates, the first raw match is kept rather than losing
// the lead.
func extractPhone(text, isoCode string) string {
	candidates := phonePattern.FindAllString(text, 10)
	if len(candidates) == 0 {
		return ""
	}
	if isoCode != "" {
		for _, cand := range candidates {
			num, err := phonenumbers.Parse(cand, isoCode)
			if err != nil {
				continue
			}
			if phonenumbers.IsValidNumber(num) {
				return phonenumbers.Format(num, phonenumbers.NATIONAL)
			}
		}
	}
	return strings.TrimSpace(candidates[0])
}

// extractEmail returns the first syntactic match that is not an image
// filename; names like logo@2x.png match the email shape.
func extractEmail(html string) string {
	for _, match := range emailPattern.FindAllString(html, 10) {
		if isImageName(match) {
			continue
		}
		return match
	}
	return ""
}

func isImageName(s string) bool {
	lower := strings.ToLower(s)
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// extractAddress reads schema.org address markup when present, otherwise
// looks for a "City, ST" shape in the page text.
func extractAddress(doc *goquery.Document, text string) (address, city, state string) {
	address = normalizeSpace(doc.Find(`[itemprop="address"]`).First().Text())
	source := address
	if source == "" {
		source = text
	}

	if m := cityStatePattern.FindStringSubmatch(source); m != nil {
		state = m[2]
		head := m[1]
		// The part after the last comma before the state code is the city.
		if idx := strings.LastIndex(head, ","); idx >= 0 {
			city = strings.TrimSpace(head[idx+1:])
		} else {
			city = strings.TrimSpace(head)
		}
		if address == "" {
			address = strings.TrimSpace(m[0])
		}
	}
	return address, city, state
}

func extractDescription(doc *goquery.Document, text string) string {
	if meta, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		if desc := strings.TrimSpace(meta); desc != "" {
			return desc
		}
	}
	if runes := []rune(text); len(runes) > descriptionLimit {
		return string(runes[:descriptionLimit])
	}
	return text
}

// scanVocabulary returns the vocabulary terms present in the page,
// comma-joined in vocabulary order.
func scanVocabulary(lowerHTML string, vocab []string) string {
	var found []string
	for _, term := range vocab {
		if strings.Contains(lowerHTML, strings.ToLower(term)) {
			found = append(found, term)
		}
	}
	return strings.Join(found, ", ")
}

func normalizeSpace(s string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}
