package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/texnomart/internal/metrics"
	authmw "github.com/Skotchmaster/texnomart/internal/middleware/auth"
)

type Deps struct {
	CatalogHandler *CatalogHTTP
	AuthHandler    *AuthHTTP
	Auth           *authmw.Auth
	// AuthRateLimit is requests per second per client on credential endpoints; 0 disables it.
	AuthRateLimit float64
	SearchEnabled bool
	Ready         func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.Pre(echomw.RemoveTrailingSlash())

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	api := e.Group("", d.Auth.Authenticate())
	registerCatalog(api, d)
	registerAuth(api, d)
}

func registerCatalog(g *echo.Group, d *Deps) {
	h := d.CatalogHandler

	g.GET("/", h.ListProducts)
	g.GET("/categories", h.ListCategories)
	g.GET("/category/:slug", h.CategoryProducts)

	g.GET("/category/add/category", h.ListCategoriesFresh)
	g.POST("/category/add/category", h.CreateCategory)
	g.GET("/category/:slug/edit", h.GetCategory)
	g.PUT("/category/:slug/edit", h.UpdateCategory)
	g.PATCH("/category/:slug/edit", h.UpdateCategory)
	g.GET("/category/:slug/delete", h.GetCategory)
	g.DELETE("/category/:slug/delete", h.DeleteCategory, authmw.RequireStaff)

	g.GET("/product/detail/:id", h.ProductDetail)
	g.GET("/product/add/product", h.ListProductsFresh)
	g.POST("/product/add/product", h.CreateProduct)
	g.GET("/product/:id/edit", h.GetProduct)
	g.PUT("/product/:id/edit", h.UpdateProduct)
	g.PATCH("/product/:id/edit", h.UpdateProduct)
	g.GET("/product/:id/delete", h.GetProduct)
	g.DELETE("/product/:id/delete", h.DeleteProduct)

	g.POST("/product/:id/image", h.AddImage)
	g.POST("/product/:id/attribute", h.AddAttribute)
	g.POST("/product/:id/comment", h.AddComment, authmw.RequireAuth)
	g.POST("/product/:id/like", h.ToggleLike, authmw.RequireAuth)

	g.GET("/attribute-key", h.ListAttributeKeys)
	g.POST("/attribute-key", h.CreateAttributeKey)
	g.GET("/attribute-value", h.ListAttributeValues)
	g.POST("/attribute-value", h.CreateAttributeValue)

	if d.SearchEnabled {
		g.GET("/search", h.Search)
	}
}

func registerAuth(g *echo.Group, d *Deps) {
	h := d.AuthHandler

	creds := g.Group("")
	if d.AuthRateLimit > 0 {
		creds.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(rate.Limit(d.AuthRateLimit))))
	}

	creds.POST("/register", h.Register)
	creds.POST("/login", h.Login)
	creds.POST("/logout", h.Logout)

	creds.POST("/api/token-auth", h.ObtainAuthToken)
	creds.POST("/api/token", h.ObtainPair)
	creds.POST("/api/token/refresh", h.RefreshAccess)

	creds.POST("/auth/token/login", h.TokenLogin)
	creds.POST("/auth/token/register", h.TokenRegister)
	creds.POST("/auth/token/logout", h.TokenLogout, authmw.RequireAuth)
}
