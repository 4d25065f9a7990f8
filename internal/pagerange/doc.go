// Package pagerange parses page range expressions such as "3,5,4~6,+5,-10"
// and turns them into listing page URLs.
//
// Relative tokens ("+N", "-N") are resolved against an anchor page, which
// for a listing URL is the page number it points at:
//
//	pages, _ := pagerange.Parse("1~3,+2", 5)
//	// [1 2 3 5 6 7]
//
//	urls, _ := pagerange.PageURLs("https://xchina.co/photos/series-x/5.html", "-2")
//	// https://xchina.co/photos/series-x/3.html
//	// https://xchina.co/photos/series-x/4.html
//	// https://xchina.co/photos/series-x/5.html
package pagerange
