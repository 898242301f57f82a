package hardgamers

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Nicolas95JB/PriceWatcher/internal/domain"
)

// DefaultShop labels listings whose article carries no shop subtitle.
const DefaultShop = "HardGamers"

// parseListings extracts raw listings from a results page. Every product
// sits in its own <article>; articles without a title are skipped, the rest
// is kept as raw text.
func parseListings(doc *goquery.Document, baseURL string) []domain.RawListing {
	var listings []domain.RawListing

	doc.Find("article").Each(func(_ int, article *goquery.Selection) {
		title := strings.TrimSpace(article.Find(".product-title").First().Text())
		if title == "" {
			return
		}

		// the price is often split over several nodes ("$ 19.999" + "50")
		var parts []string
		article.Find(".product-price").Each(func(_ int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				parts = append(parts, t)
			}
		})

		shop := strings.TrimSpace(article.Find(".subtitle").First().Text())
		if shop == "" {
			shop = DefaultShop
		}

		listings = append(listings, domain.RawListing{
			Name:     title,
			RawPrice: strings.Join(parts, " "),
			Shop:     shop,
			SourceID: listingURL(article, baseURL),
		})
	})

	return listings
}

func listingURL(article *goquery.Selection, baseURL string) string {
	href, ok := article.Find("a[href]").First().Attr("href")
	if !ok {
		return ""
	}
	if strings.HasPrefix(href, "/") {
		return baseURL + href
	}
	return href
}
