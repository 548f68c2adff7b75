// marketmock runs a local in-memory marketplace speaking the same wire
// contract the bot consumes, for demos and manual end-to-end runs without
// touching the real platform.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/yesworId/BuyOrderBot/internal/mockmarket"
	"github.com/yesworId/BuyOrderBot/pkg/middleware"
)

func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	apiKey := flag.String("api-key", "test-api-key", "accepted API key")
	username := flag.String("username", "testuser", "accepted username")
	password := flag.String("password", "testpass", "accepted password")
	currency := flag.String("currency", "USD", "account currency")
	balance := flag.Int64("balance-minor", 10000, "wallet balance in minor units")
	failEvery := flag.Int("fail-every", 4, "simulate a transient failure on every Nth order creation (0 disables)")
	flag.Parse()

	service := mockmarket.NewService(mockmarket.Credentials{
		APIKey:   *apiKey,
		Username: *username,
		Password: *password,
	}, "marketmock-secret-key", *currency, *balance, *failEvery)
	handlers := mockmarket.NewGinHandlers(service)

	router := gin.Default()
	setupRoutes(router, service, handlers)

	srv := &http.Server{
		Addr:    *addr,
		Handler: router,
	}

	go func() {
		zlog.Info().Str("addr", *addr).Msg("mock marketplace listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down mock marketplace...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}
}

func setupRoutes(router *gin.Engine, service *mockmarket.Service, handlers *mockmarket.GinHandlers) {
	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/session", handlers.SessionHandler())

		authed := v1.Group("")
		authed.Use(middleware.SessionAuth(service.Secret()))
		{
			authed.GET("/account/balance", handlers.BalanceHandler())
			authed.GET("/orders", handlers.ListOrdersHandler())
			authed.POST("/orders", middleware.RateLimit(), handlers.CreateOrderHandler())
		}
	}
}
