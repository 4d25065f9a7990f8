// Package xchina understands the pages of https://xchina.co.
//
// The package handles:
//   - Classifying an input URL as main page, listing, content item or single file
//   - Extracting content summaries from listing cards
//   - Extracting titles, counts, images and videos from content item pages
//   - Extracting the category sidebar from the main page
//   - Resolving the sibling pages of a paginated listing or item
//
// Parsing is done with goquery on HTML that a PageFetcher has already
// rendered; the package never talks to the network itself.
//
// # Basic Usage
//
//	target, ok := xchina.Classify(rawURL)
//	if !ok {
//	    return xchina.ErrInvalidURL
//	}
//
//	resolver := xchina.NewResolver(fetcher, log, 50, 20)
//	switch target.Kind {
//	case xchina.KindListing:
//	    pages, _ := resolver.ListingURLs(ctx, target.URL, "")
//	    infos := resolver.Listing(ctx, pages)
//	case xchina.KindContentItem:
//	    content, err := resolver.Content(ctx, target.URL)
//	}
package xchina
