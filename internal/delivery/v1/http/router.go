package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/mercalog/go-backend/docs" // Импорт сгенерированных файлов
	"github.com/mercalog/go-backend/internal/auth"
	"github.com/mercalog/go-backend/internal/cfg"
	"github.com/mercalog/go-backend/internal/usecase"
	"github.com/mercalog/go-backend/pkg/logger"
)

type Router struct {
	router  *chi.Mux
	logger  logger.Logger
	authCfg *cfg.AuthCfg
}

func NewRouter(router *chi.Mux, logger logger.Logger, authCfg *cfg.AuthCfg) *Router {
	return &Router{router: router, logger: logger, authCfg: authCfg}
}

func (r *Router) Init(prUC usecase.ProductUC, verifier *auth.Verifier, policy auth.CookiePolicy) {
	exposeDetail := !r.authCfg.IsProduction()

	r.router.Use(middleware.RequestID)
	r.router.Use(RecoverJSON(r.logger, exposeDetail))
	// Cookie с кодом доступа уходит только на доверенный origin фронтенда
	r.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{r.authCfg.FrontendOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, Response{Success: false, Message: "route not found"})
	})
	r.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, Response{Success: false, Message: "method not allowed"})
	})

	r.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // ссылка на JSON
	))

	authHandler := NewAuthHandler(verifier, policy, r.logger, exposeDetail)
	prHandler := NewProductHandler(prUC, r.logger, exposeDetail)
	catHandler := NewCatalogHandler(prUC, r.logger, exposeDetail)

	r.router.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(a chi.Router) {
			a.Post("/login", authHandler.login)
			a.Post("/logout", authHandler.logout)
			a.Get("/check", authHandler.check)
		})

		api.Group(func(protected chi.Router) {
			protected.Use(AccessGate(verifier, policy, r.logger, exposeDetail))

			registerProductRoutes(protected, prHandler)

			protected.Get("/brands", catHandler.listBrands)
			protected.Get("/categories", catHandler.listCategories)
		})
	})
}

func registerProductRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", prHandler.listProducts)
		pr.Post("/", prHandler.createProduct)

		pr.Route("/{id}", func(one chi.Router) {
			one.Get("/", prHandler.getProduct)
			one.Put("/", prHandler.updateProduct)
			one.Delete("/", prHandler.deleteProduct)
			one.Patch("/toggle-availability", prHandler.toggleAvailability)
			one.Patch("/comments", prHandler.setComments)
		})
	})
}
