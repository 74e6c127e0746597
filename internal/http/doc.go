// Package http downloads inbound files for the tag bot.
//
// The Client retries network errors, 429 and 5xx responses with
// exponential backoff. Other 4xx responses fail immediately.
//
//	client := http.NewClient(http.WithMaxRetries(cfg.DownloadMaxRetries))
//	err := client.DownloadFile(ctx, fileURL, dest, nil)
//
// Pass a callback to DownloadFile to follow large transfers; it is driven
// by a ProgressWriter wrapped around the destination file.
package http
