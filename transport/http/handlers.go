package http

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prismon-labs/prismon/core"
	"github.com/prismon-labs/prismon/service"
	"github.com/prismon-labs/prismon/solana"
)

// Handlers bundles the HTTP handlers for user onboarding, wallet auth and
// transaction-gated actions.
type Handlers struct {
	challenges *service.ChallengeService
	onboarding *service.OnboardingService
	auth       *service.AuthService
	blobs      *service.BlobService
	prices     *service.PriceFeedService
}

// NewHandlers creates the handler set.
func NewHandlers(
	challenges *service.ChallengeService,
	onboarding *service.OnboardingService,
	auth *service.AuthService,
	blobs *service.BlobService,
	prices *service.PriceFeedService,
) *Handlers {
	return &Handlers{
		challenges: challenges,
		onboarding: onboarding,
		auth:       auth,
		blobs:      blobs,
		prices:     prices,
	}
}

// Challenge issues a login challenge for a wallet.
func (h *Handlers) Challenge(c *gin.Context) {
	wallet := c.Query("walletPublicKey")
	if wallet == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet public key is required"})
		return
	}

	app := appFromContext(c)
	challenge, err := h.challenges.Issue(c.Request.Context(), app.ID, wallet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"challengeId": challenge.ID,
		"challenge":   challenge.Challenge,
	})
}

// ConnectWallet signs up a wallet for the app.
func (h *Handlers) ConnectWallet(c *gin.Context) {
	var req struct {
		WalletPublicKey string `json:"walletPublicKey" binding:"required"`
		Signature       string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	app := appFromContext(c)
	result, err := h.onboarding.ConnectWallet(c.Request.Context(), app, req.WalletPublicKey, req.Signature)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "wallet signed up successfully"
	if result.AlreadySignedUp {
		message = "wallet already signed up for this app"
	}
	c.JSON(http.StatusOK, gin.H{"userId": result.UserID, "message": message})
}

// LoginWallet authenticates a wallet against a previously issued challenge.
func (h *Handlers) LoginWallet(c *gin.Context) {
	var req struct {
		WalletPublicKey string `json:"walletPublicKey" binding:"required"`
		Signature       string `json:"signature" binding:"required"`
		ChallengeID     string `json:"challengeId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	app := appFromContext(c)
	result, err := h.auth.LoginWithWallet(c.Request.Context(), app.ID, req.WalletPublicKey, req.Signature, req.ChallengeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":          result.UserID,
		"walletPublicKey": result.WalletPublicKey,
		"token":           result.Token,
	})
}

// RegisterEmail registers an email identity.
func (h *Handlers) RegisterEmail(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	app := appFromContext(c)
	result, err := h.onboarding.RegisterEmail(c.Request.Context(), app, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":           result.UserID,
		"verificationCode": result.VerificationCode,
		"message":          "email registered; check your inbox for the verification code",
	})
}

// VerifyEmail confirms an email verification code.
func (h *Handlers) VerifyEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	app := appFromContext(c)
	userID, err := h.onboarding.VerifyEmail(c.Request.Context(), app, req.Email, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"userId": userID, "message": "email verified"})
}

// LoginEmail authenticates a verified email identity.
func (h *Handlers) LoginEmail(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	app := appFromContext(c)
	result, err := h.auth.LoginWithEmail(c.Request.Context(), app.ID, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"userId": result.UserID, "token": result.Token})
}

// Me returns the authenticated session's identity.
func (h *Handlers) Me(c *gin.Context) {
	session := sessionFromContext(c)
	c.JSON(http.StatusOK, gin.H{
		"userId":  session.UserID,
		"appId":   session.AppID,
		"subject": session.Subject,
	})
}

// StoreBlob persists a blob after verifying its authorizing transaction.
func (h *Handlers) StoreBlob(c *gin.Context) {
	var req struct {
		WalletPublicKey string `json:"walletPublicKey" binding:"required"`
		Data            string `json:"data" binding:"required"`
		FileName        string `json:"fileName" binding:"required"`
		TransactionID   string `json:"transactionId" binding:"required"`
		Epochs          uint32 `json:"epochs"`
		SendObjectTo    string `json:"sendObjectTo"`
		Deletable       bool   `json:"deletable"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "data must be base64 encoded"})
		return
	}

	opts := core.StoreBlobOptions{
		Epochs:       req.Epochs,
		SendObjectTo: req.SendObjectTo,
		Deletable:    req.Deletable,
	}
	blobID, err := h.blobs.StoreBlob(c.Request.Context(), req.WalletPublicKey, data, req.FileName, opts, req.TransactionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"blobId": blobID})
}

// RetrieveBlob downloads a blob.
func (h *Handlers) RetrieveBlob(c *gin.Context) {
	blobID := c.Param("blobId")
	wallet := c.Query("walletPublicKey")
	transactionID := c.Query("transactionId")

	data, err := h.blobs.RetrieveBlob(c.Request.Context(), wallet, blobID, transactionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/octet-stream", data)
}

// Prices returns the latest oracle prices for the requested feeds.
func (h *Handlers) Prices(c *gin.Context) {
	ids := c.QueryArray("ids")
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one feed id is required"})
		return
	}

	updates, err := h.prices.LatestPrices(c.Request.Context(), ids)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch prices"})
		return
	}

	out := make([]gin.H, 0, len(updates))
	for _, u := range updates {
		out = append(out, gin.H{
			"feedId":      u.FeedID,
			"price":       u.Price.String(),
			"confidence":  u.Confidence.String(),
			"publishTime": u.PublishTime,
		})
	}
	c.JSON(http.StatusOK, gin.H{"prices": out})
}

// respondError maps domain failures to HTTP status codes. Internal detail
// never leaks: unexpected errors become a generic 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, solana.ErrInvalidPublicKey),
		errors.Is(err, solana.ErrInvalidSignatureEncoding),
		errors.Is(err, solana.ErrInvalidSignatureLength):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrSignatureVerificationFailed):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, core.ErrAppNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, core.ErrWalletNotRegistered):
		status, message = http.StatusForbidden, "wallet not signed up for this app; sign up via /users/connect-wallet"
	case errors.Is(err, core.ErrChallengeNotFoundOrExpired):
		status, message = http.StatusUnauthorized, "invalid or expired challenge; request a new one via /users/challenge"
	case errors.Is(err, core.ErrEmailAlreadyRegistered),
		errors.Is(err, core.ErrVerificationCodeExpired),
		errors.Is(err, core.ErrVerificationCodeMismatch):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrEmailNotVerified),
		errors.Is(err, core.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, core.ErrUserNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, core.ErrTransactionNotFound),
		errors.Is(err, core.ErrTransactionTooOld),
		errors.Is(err, core.ErrTransactionFromFuture),
		errors.Is(err, core.ErrSignerMismatch),
		errors.Is(err, core.ErrMemoMissing),
		errors.Is(err, core.ErrMemoMismatch):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, core.ErrStoreUnavailable):
		status, message = http.StatusServiceUnavailable, "temporarily unavailable, retry later"
	}

	c.JSON(status, gin.H{"error": message})
}
