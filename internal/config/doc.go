// Package config loads the tag bot's configuration from the environment
// and builds its logger.
//
//	cfg, err := config.Load(ctx)
//	if err != nil {
//	    return err
//	}
//	if err := cfg.ValidateBot(); err != nil {
//	    return err
//	}
//	logger := cfg.NewLogger(os.Stderr)
//
// Every setting has an environment variable (TELEGRAM_BOT_TOKEN, ADMIN_ID,
// DATA_DIR, SESSION_DRIVER, ...). File locations default to paths inside
// DATA_DIR.
package config
