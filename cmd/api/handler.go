package api

import (
	authUsecase "github.com/ngandimoun/saydo-ai-sub006/internal/auth/usecase"
	patternDelivery "github.com/ngandimoun/saydo-ai-sub006/internal/pattern/delivery"
	patternUsecasePkg "github.com/ngandimoun/saydo-ai-sub006/internal/pattern/usecase"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/config"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase    authUsecase.AuthUsecase
	patternUsecase patternUsecasePkg.PatternUsecase
	config         *config.Config
	patternHandler *patternDelivery.PatternHandler
	log            *logger.Logger
}

func NewHandler(authUc authUsecase.AuthUsecase, patternUc patternUsecasePkg.PatternUsecase, cfg *config.Config, log *logger.Logger) *Handler {
	return &Handler{
		authUsecase:    authUc,
		patternUsecase: patternUc,
		config:         cfg,
		patternHandler: patternDelivery.NewPatternHandler(patternUc, log),
		log:            log,
	}
}

// Router builds the gin engine with middleware and every route registered
func (h *Handler) Router() *gin.Engine {
	if h.config.LogMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.patternHandler)
	return r
}

// requestLogger logs one line per request through the shared zap logger
func (h *Handler) requestLogger() gin.HandlerFunc {
	log := h.log.With("component", "HTTP")
	return func(c *gin.Context) {
		c.Next()
		log.Debug("Request handled",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
		)
	}
}
