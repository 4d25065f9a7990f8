// Package model defines the core data structures shared by the parser,
// the resolver and the download manager.
//
// # ContentInfo
//
// ContentInfo summarizes one gallery entry as it appears on a listing card:
//
//	info.Dir("/data")  // /data/{category}/{performer}/{title}_{date}_{itemID}
//	info.ItemID()      // "id-64c4abcd9026b"
//
// # Content
//
// Content adds the explicit image and video lists parsed from the item's own
// pages. URLs returns the downloadable set, synthesizing numbered URLs for
// summaries that only carry counts:
//
//	c := model.NewContent(info)
//	for _, u := range c.URLs() {
//	    fmt.Println(u)
//	}
//
// # Filter
//
// Filter restricts a download to images or videos, by the ".mp4" suffix.
package model
