package router

import (
	"context"
	"net/http"
	"time"

	"carta/internal/menu"
	"carta/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Upload cap shared with the 413 middleware.
const maxBodyBytes = 16 << 20

// New assembles the HTTP surface. db may be nil when the store never
// came up; /health then reports it as disconnected while /menu routes
// answer through the handler's 503 guard.
func New(menuHandler *menu.Handler, db *pgxpool.Pool, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.Recovery(log))
	r.Use(middleware.BodySizeLimit(maxBodyBytes))
	r.HandleMethodNotAllowed = true
	r.MaxMultipartMemory = 8 << 20

	r.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		database := "connected"
		if db == nil {
			database = "disconnected"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				database = "disconnected"
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "online",
			"database": database,
			"message":  "API de Restaurante funcionando correctamente",
		})
	})

	m := r.Group("/menu")
	{
		m.GET("", menuHandler.List)
		m.GET("/:id", menuHandler.Get)
		m.POST("", menuHandler.Create)
		m.PUT("/:id", menuHandler.Update)
		m.DELETE("/:id", menuHandler.Delete)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": "Ruta no encontrada. Verifica el endpoint solicitado.",
		})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"code":    http.StatusMethodNotAllowed,
			"message": "Método HTTP no permitido para esta ruta.",
		})
	})

	return r
}
