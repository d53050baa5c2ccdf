// Package paapi talks to the Amazon Product Advertising API v5: request
// signing, item lookup and search, and the retry discipline around them.
package paapi

// PlaceholderImage is served whenever the catalog has no usable image, or
// when the whole record is synthesized because credentials or data are
// unavailable.
const PlaceholderImage = "https://www.pngkey.com/png/detail/233-2332677_image-500580-placeholder-transparent.png"

// Product is the normalized record the grid renders. Values are immutable
// once constructed.
type Product struct {
	Title string `json:"title"`
	Image string `json:"image"`
	URL   string `json:"url"`
}

// Placeholder builds the deterministic fallback record for an ASIN. It is a
// valid outcome, used intentionally when the API is unconfigured or
// unavailable, and is what the retry controller treats as retryable.
func Placeholder(asin, marketplaceHost, partnerTag string) Product {
	return Product{
		Title: "Product " + asin,
		Image: PlaceholderImage,
		URL:   purchaseURL(marketplaceHost, asin, partnerTag),
	}
}

// IsPlaceholder reports whether p carries the fallback title for asin rather
// than real catalog data.
func (p Product) IsPlaceholder(asin string) bool {
	return p.Title == "Product "+asin
}

func purchaseURL(marketplaceHost, asin, partnerTag string) string {
	return "https://" + marketplaceHost + "/dp/" + asin + "?tag=" + partnerTag
}
