// Package persist stores the bot configuration and the log of processed
// files.
//
// The snapshot lives in a SQLite database (one JSON row in the settings
// table) with a JSON file next to it as a backup. The Gateway hides the
// two stores:
//
//	db, err := persist.OpenDB(ctx, "data/tagbot.db")
//	gw := persist.NewGateway(db, "data/bot_data.json", logger)
//	snap, source := gw.Load(ctx) // database, then backup, then defaults
//	err = gw.Save(ctx, snap)
//
// LockDir keeps two bot processes from sharing one data directory.
package persist
