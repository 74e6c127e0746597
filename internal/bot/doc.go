// Package bot is the Telegram front end of the tag bot.
//
// It polls updates, hands audio files to a pipeline.Processor on a
// bounded worker pool and sends the tagged files back, republishing them
// to the target channel when one is configured. The administrator drives
// every setting from inline keyboards; multi-step edits go through a
// session.Machine, so a half-typed rule survives a restart when sessions
// are kept in Redis.
//
// Callback payloads follow "action:arg:arg". Template keys never appear
// in payloads directly; a short hash token stands in for them.
package bot
