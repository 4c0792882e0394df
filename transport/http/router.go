// Package http wires the gin router for the developer API.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/prismon-labs/prismon/ports"
)

// SetupRouter builds the gin engine with all routes and middleware.
func SetupRouter(handlers *Handlers, apps ports.AppRepository, tokenizer ports.Tokenizer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	devAPI := router.Group("/devApi")
	devAPI.Use(APIKeyAuth(apps))

	users := devAPI.Group("/users")
	{
		users.GET("/challenge", handlers.Challenge)
		users.POST("/connect-wallet", handlers.ConnectWallet)
		users.POST("/login-wallet", handlers.LoginWallet)
		users.POST("/register-email", handlers.RegisterEmail)
		users.POST("/verify-email", handlers.VerifyEmail)
		users.POST("/login-email", handlers.LoginEmail)
	}

	solana := devAPI.Group("/solana")
	{
		solana.POST("/store-blob", handlers.StoreBlob)
		solana.GET("/blob/:blobId", handlers.RetrieveBlob)
		solana.GET("/prices", handlers.Prices)
	}

	session := devAPI.Group("")
	session.Use(SessionAuth(tokenizer))
	{
		session.GET("/users/me", handlers.Me)
	}

	return router
}
