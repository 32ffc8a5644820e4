package router

import (
	"time"

	"pesarelay/config"
	"pesarelay/internal/handler"
	"pesarelay/internal/middleware"
	"pesarelay/internal/repository"
	"pesarelay/pkg/daraja"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))
	r.Use(middleware.RequestID())

	txnRepo := repository.NewTransactionRepository(db)
	logRepo := repository.NewAPILogRepository(db)
	r.Use(middleware.Audit(logRepo))

	provider := daraja.NewClient(
		cfg.Mpesa.BaseURL,
		cfg.Mpesa.ConsumerKey,
		cfg.Mpesa.ConsumerSecret,
		cfg.Mpesa.ShortCode,
		cfg.Mpesa.Passkey,
		cfg.Mpesa.CallbackURL,
	)

	paymentHandler := handler.NewPaymentHandler(provider, txnRepo)
	callbackHandler := handler.NewCallbackHandler(txnRepo)
	healthHandler := handler.NewHealthHandler()

	r.POST("/initiate-payment", paymentHandler.Initiate)
	r.POST("/callback", callbackHandler.Handle)
	r.GET("/health", healthHandler.Check)

	return r
}
