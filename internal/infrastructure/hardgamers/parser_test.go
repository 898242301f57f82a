package hardgamers

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const resultsPage = `
<html><body>
<section class="results">
	<article>
		<a href="/producto/rtx-4070-gigabyte"><h3 class="product-title">Gigabyte RTX 4070 WindForce</h3></a>
		<span class="subtitle">CompraGamer</span>
		<div><span class="product-price">$ 849.999</span><span class="product-price">,50</span></div>
	</article>
	<article>
		<a href="https://otra-tienda.com/p/9"><h3 class="product-title">RTX 4070 Ti Super</h3></a>
		<div><span class="product-price">$1.099.999</span></div>
	</article>
	<article>
		<a href="/producto/rtx-4070-consultar"><h3 class="product-title">RTX 4070 (consultar stock)</h3></a>
		<span class="subtitle">MaximusGamer</span>
	</article>
	<article>
		<span class="subtitle">SinTitulo Store</span>
		<div><span class="product-price">$ 10</span></div>
	</article>
</section>
</body></html>`

func TestParseListings(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resultsPage))
	if err != nil {
		t.Fatalf("failed to build document: %v", err)
	}

	listings := parseListings(doc, BaseURL)

	// the article without a title is dropped
	if len(listings) != 3 {
		t.Fatalf("got %d listings, want 3", len(listings))
	}

	first := listings[0]
	if first.Name != "Gigabyte RTX 4070 WindForce" {
		t.Errorf("name = %q", first.Name)
	}
	if first.RawPrice != "$ 849.999 ,50" {
		t.Errorf("raw price = %q, want split nodes joined", first.RawPrice)
	}
	if first.Shop != "CompraGamer" {
		t.Errorf("shop = %q, want CompraGamer", first.Shop)
	}
	if first.SourceID != BaseURL+"/producto/rtx-4070-gigabyte" {
		t.Errorf("source id = %q, want absolute storefront URL", first.SourceID)
	}

	second := listings[1]
	if second.SourceID != "https://otra-tienda.com/p/9" {
		t.Errorf("absolute href must pass through, got %q", second.SourceID)
	}
	if second.Shop != DefaultShop {
		t.Errorf("missing subtitle must fall back to %q, got %q", DefaultShop, second.Shop)
	}

	third := listings[2]
	if third.RawPrice != "" {
		t.Errorf("listing without price nodes must keep empty raw price, got %q", third.RawPrice)
	}
	if third.Shop != "MaximusGamer" {
		t.Errorf("shop = %q, want MaximusGamer", third.Shop)
	}
}

func TestParseListingsEmptyPage(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body></body></html>"))
	if err != nil {
		t.Fatalf("failed to build document: %v", err)
	}

	if listings := parseListings(doc, BaseURL); len(listings) != 0 {
		t.Fatalf("empty page produced %d listings", len(listings))
	}
}
