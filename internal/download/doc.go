// Package download provides the download orchestration logic for
// fetching gallery items from xchina.
//
// # Manager
//
// The Manager coordinates the entire download process:
//
//  1. Classify the input URL (see xchina.Classify)
//  2. Resolve listing pages or item pages into content records
//  3. Probe the first file of each item, resolving the item pages when the
//     synthesized URLs turn out to be wrong
//  4. Skip files that already exist
//  5. Download files concurrently and hand them to a single writer per item
//  6. Record runs, items and files in the history store (optional)
//
// # Basic Usage
//
//	manager := download.NewManager(settings, client, resolver, history, log)
//	manager.SetFilter(model.FilterImages)
//
//	target, ok := xchina.Classify("https://xchina.co/photos/series-5f1476781eab4.html")
//	if !ok {
//	    // not an xchina URL
//	}
//	err := manager.Run(ctx, target, "1~3")
//
// # Concurrency
//
// The Manager uses configurable concurrency limits:
//   - MaxConcurrentItems: How many items to download in parallel
//   - MaxConcurrentFiles: How many files per item to download in parallel
//
// Failures never cancel siblings; only the caller's context does.
//
// # Progress Tracking
//
// Progress returns a snapshot of atomic counters for items and files of
// the current run. The TUI polls it; the CLI prints it when a run ends.
//
// # Retry Logic
//
// Every file fetch goes through the MediaFetcher, which retries with the
// policy built from settings.DownloadMaxRetries and
// settings.DownloadRetryDelay.
package download
