package router

import (
	"net/http"

	"stockroom/internal/handler"
	"stockroom/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Product  *handler.ProductHandler
	Stock    *handler.StockHandler
	Transfer *handler.TransferHandler
	User     *handler.UserHandler
}

// Options configures authentication.
type Options struct {
	// APIKey guards the administrative routes.
	APIKey string
	// Resolver authenticates bearer tokens on user routes.
	Resolver middleware.ActorResolver
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	mux.HandleFunc("POST /api/auth/login", h.User.Login)
	mux.HandleFunc("POST /api/auth/accept", h.User.Accept)

	// Stored images and export snapshots
	mux.HandleFunc("GET /files/{key...}", h.Transfer.ServeFile)

	// Signed-in users
	api := http.NewServeMux()
	api.HandleFunc("GET /api/products", h.Product.List)
	api.HandleFunc("POST /api/products", h.Product.Create)
	api.HandleFunc("GET /api/products/{id}", h.Product.GetByID)
	api.HandleFunc("PUT /api/products/{id}", h.Product.Update)
	api.HandleFunc("DELETE /api/products/{id}", h.Product.Delete)
	api.HandleFunc("POST /api/products/{id}/movements", h.Stock.Adjust)
	api.HandleFunc("GET /api/categories", h.Product.Categories)
	api.HandleFunc("GET /api/movements", h.Stock.History)
	api.HandleFunc("POST /api/import/preview", h.Transfer.Preview)
	api.HandleFunc("POST /api/import", h.Transfer.Import)
	api.HandleFunc("GET /api/export", h.Transfer.Export)
	api.HandleFunc("POST /api/images", h.Transfer.UploadImage)
	api.HandleFunc("GET /api/me", h.User.Me)
	api.HandleFunc("GET /api/profiles", h.User.Profiles)
	api.HandleFunc("PUT /api/profiles/{id}/role", h.User.UpdateRole)
	mux.Handle("/api/", middleware.Authenticate(opts.Resolver, logger)(api))

	// Service-privileged administration
	admin := http.NewServeMux()
	admin.HandleFunc("POST /api/admin/invite", h.User.Invite)
	admin.HandleFunc("POST /api/admin/users/reset-password", h.User.ResetPassword)
	admin.HandleFunc("POST /api/admin/users/delete", h.User.DeleteUser)
	mux.Handle("/api/admin/", middleware.APIKeyAuth(opts.APIKey, logger)(admin))

	// Apply middleware in order: Recovery -> Logging -> CORS
	var handler http.Handler = mux
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
