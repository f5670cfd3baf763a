// Package auth provides session authentication and role checks for the API.
//
// Sessions live server-side in scs; the browser only holds the
// booktrack_session cookie. The middleware turns a session into a Principal
// for each request, re-reading the user so that suspended or deleted accounts
// lose access immediately.
//
// # Configuration
//
//	AUTH_SESSION_LIFETIME=24h     # Session duration
//	AUTH_BCRYPT_COST=12           # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true      # HTTPS-only cookies (forced in production)
//	AUTH_CSRF_ENABLED=false       # gorilla/csrf double-submit protection
//	AUTH_MAX_LOGIN_ATTEMPTS=5     # Failures before lockout
//	AUTH_RATE_LIMIT_WINDOW=15m
//	AUTH_LOCKOUT_DURATION=30m
//
// # Usage
//
//	service := auth.NewService(users.NewRepository(db), cfg.Auth)
//	sessions, _ := auth.NewSessionManager(sqlDB, cfg.Database.Driver, cfg.Auth)
//	router.Use(sessions.SessionLoadSave())
//	router.Use(auth.NewMiddleware(service, sessions).Handler())
//
// Read the caller in handlers:
//
//	p, ok := auth.PrincipalFrom(c)
//	if ok && p.Can(auth.CatalogStaff...) { ... }
package auth
