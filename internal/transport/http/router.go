package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	JWTSecret    string
	AllowOrigins []string
}

// NewRouter assembles the directory API. Reads are open; mutations require
// a bearer token so the caller principal is known.
func NewRouter(ds *DirectoryServer, cfg RouterConfig, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(Observe(log))

	corsCfg := cors.DefaultConfig()
	if len(cfg.AllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.AllowOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	r.GET("/v1/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	v1.GET("/profiles/:role", ds.ListProfiles)
	v1.GET("/profiles/:role/:id", ds.GetProfile)
	v1.GET("/bookings/:id", ds.GetBooking)
	v1.GET("/users/:id/bookings", ds.ListBookingsForUser)
	v1.GET("/doctors/:id/bookings", ds.ListBookingsForDoctor)

	authed := v1.Group("", PrincipalAuth(cfg.JWTSecret))
	authed.POST("/profiles", ds.CreateProfile)
	authed.DELETE("/profiles/:role/:id", ds.DeleteProfile)
	authed.POST("/bookings", ds.CreateBooking)
	authed.DELETE("/bookings/:id", ds.DeleteBooking)

	return r
}
