package router

import (
	"go-auth-api/handler"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "go-auth-api/docs" // generated swagger docs
)

// NewRouter builds the route table. The credential endpoints sit behind the
// rate limiter; profile and logout sit behind the authentication gate.
func NewRouter(authHandler *handler.AuthHandler, authMW, limitMW func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", handler.HealthCheck)

	mux.Handle("/auth/register", limitMW(handler.ErrorHandlingMiddleware(authHandler.Register)))
	mux.Handle("/auth/login", limitMW(handler.ErrorHandlingMiddleware(authHandler.Login)))
	mux.Handle("/auth/refresh", limitMW(handler.ErrorHandlingMiddleware(authHandler.Refresh)))

	mux.Handle("/auth/logout", authMW(handler.ErrorHandlingMiddleware(authHandler.Logout)))
	mux.Handle("/auth/profile", authMW(handler.ErrorHandlingMiddleware(authHandler.Profile)))

	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
