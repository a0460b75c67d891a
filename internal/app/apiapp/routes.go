package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authsvc "github.com/LeXarDev/Server-Monitoring/internal/services/auth"
	avatarsvc "github.com/LeXarDev/Server-Monitoring/internal/services/avatars"
	geosvc "github.com/LeXarDev/Server-Monitoring/internal/services/geo"
	profilesvc "github.com/LeXarDev/Server-Monitoring/internal/services/profiles"
	ratesvc "github.com/LeXarDev/Server-Monitoring/internal/services/rate"
	serversvc "github.com/LeXarDev/Server-Monitoring/internal/services/servers"
	"github.com/LeXarDev/Server-Monitoring/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService    *authsvc.Service
	SSOProvider    *authsvc.SSOProvider
	LoginLimiter   *ratesvc.Limiter
	ProfileService *profilesvc.Service
	AvatarService  *avatarsvc.Service
	ServerService  *serversvc.Service
	GeoService     *geosvc.Service
	Logger         *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.SSOProvider, deps.LoginLimiter)
	profileHandler := handlers.NewProfileHandler(deps.ProfileService)
	avatarHandler := handlers.NewAvatarHandler(deps.AvatarService)
	serverHandler := handlers.NewServerHandler(deps.ServerService)
	geoHandler := handlers.NewGeoHandler(deps.GeoService)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/health", healthHandler.Get)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Get("/check", authHandler.Check)
		r.Get("/sso/start", authHandler.SSOStart)
		r.Post("/sso", authHandler.SSOLogin)
		r.With(authMW).Post("/change-password", authHandler.ChangePassword)
	})

	r.Route("/profile", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/{userID}", profileHandler.Get)
		r.Put("/{userID}", profileHandler.Update)
		r.Get("/{userID}/logins", profileHandler.Logins)
	})

	r.With(authMW).Post("/users/{userID}/avatar", avatarHandler.Upload)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/servers", serverHandler.List)
		r.Post("/servers", serverHandler.Create)
		r.Delete("/servers/{id}", serverHandler.Delete)
		r.Get("/lookup/{ip}", geoHandler.Lookup)
	})
}
