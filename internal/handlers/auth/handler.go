package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Yassin-Kassem/weather-news-api/internal/models"
	authSvc "github.com/Yassin-Kassem/weather-news-api/internal/services/auth"
)

const timeoutDuration = 15 * time.Second

type identityClient interface {
	SignUp(ctx context.Context, email, password string) (models.Session, error)
	SignIn(ctx context.Context, email, password string) (models.Session, error)
}

type Handler struct {
	client identityClient
	holder *authSvc.Holder
}

func NewHandler(client identityClient, holder *authSvc.Holder) *Handler {
	return &Handler{client: client, holder: holder}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type sessionResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignUp creates an account and opens a session.
func (h *Handler) SignUp(c *gin.Context) {
	h.credentialFlow(c, h.client.SignUp, http.StatusCreated)
}

// SignIn exchanges credentials for a session.
func (h *Handler) SignIn(c *gin.Context) {
	h.credentialFlow(c, h.client.SignIn, http.StatusOK)
}

func (h *Handler) credentialFlow(
	c *gin.Context,
	call func(ctx context.Context, email, password string) (models.Session, error),
	successStatus int,
) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid email and a password of at least 6 characters are required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	session, err := call(ctx, req.Email, req.Password)
	if err != nil {
		var apiErr *authSvc.APIError
		if errors.As(err, &apiErr) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": friendlyMessage(apiErr.Code)})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Something went wrong. Please try again later."})
		return
	}

	h.holder.Set(&session)

	c.JSON(successStatus, sessionResponse{
		UserID:    session.UserID,
		Email:     session.Email,
		ExpiresAt: session.ExpiresAt,
	})
}

// SignOut tears the session down.
func (h *Handler) SignOut(c *gin.Context) {
	h.holder.Clear()
	c.Status(http.StatusNoContent)
}

// Session reports the current session, or null when signed out.
func (h *Handler) Session(c *gin.Context) {
	session := h.holder.Current()
	if session == nil {
		c.JSON(http.StatusOK, gin.H{"session": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sessionResponse{
		UserID:    session.UserID,
		Email:     session.Email,
		ExpiresAt: session.ExpiresAt,
	}})
}

// RequireSession gates routes behind an active session.
func RequireSession(holder *authSvc.Holder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if holder.Current() == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// friendlyMessage maps identity provider error codes onto the wording the
// app shows its users.
func friendlyMessage(code string) string {
	switch code {
	case "EMAIL_EXISTS":
		return "That email address is already in use."
	case "INVALID_EMAIL":
		return "That email address is invalid."
	case "WEAK_PASSWORD":
		return "Password should be at least 6 characters."
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return "Incorrect email or password."
	default:
		return "Something went wrong. Please try again later."
	}
}
