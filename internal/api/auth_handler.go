package api

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/service" // Import service package
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- Request/Response Structs ---

// CredentialsRequest is used for both sign-up and sign-in. Email and password
// are checked by the auth service so its messages reach the user unchanged.
type CredentialsRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	InstanceID string `json:"instanceId"` // generated when empty
}

// UserResponse excludes sensitive info like password hash
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResponse struct {
	Token      string       `json:"token"`
	User       UserResponse `json:"user"`
	InstanceID string       `json:"instanceId"`
}

type authFunc func(ctx context.Context, instanceID, email, password string) (string, *domain.User, error)

// SignUp godoc
// @Summary Create an account and sign it in
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body CredentialsRequest true "Credentials"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} gin.H "Invalid email, missing fields or weak password"
// @Failure 409 {object} gin.H "Email already in use"
// @Router /auth/signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	h.authenticate(c, http.StatusCreated, h.authService.SignUp)
}

// SignIn godoc
// @Summary Sign in and receive a JWT
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body CredentialsRequest true "Credentials"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} gin.H "Invalid credentials"
// @Router /auth/signin [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	h.authenticate(c, http.StatusOK, h.authService.SignIn)
}

func (h *AuthHandler) authenticate(c *gin.Context, status int, fn authFunc) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	if req.InstanceID == "" {
		req.InstanceID = uuid.NewString()
	}

	token, user, err := fn(c.Request.Context(), req.InstanceID, req.Email, req.Password)
	if err != nil {
		abortWithAuthError(c, err)
		return
	}

	c.JSON(status, AuthResponse{
		Token:      token,
		User:       MapUserToResponse(user),
		InstanceID: req.InstanceID,
	})
}

// SignOut revokes the caller's token and signs its app instance out.
func (h *AuthHandler) SignOut(c *gin.Context) {
	sess, err := getSessionFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get session from token")
		return
	}
	if err := h.authService.SignOut(c.Request.Context(), sess); err != nil {
		log.Printf("ERROR: sign-out for %s failed: %v", sess.Email, err)
		abortWithError(c, http.StatusInternalServerError, "Could not sign out")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// MeResponse describes the signed-in account and the sign-in it came from.
type MeResponse struct {
	User       UserResponse `json:"user"`
	InstanceID string       `json:"instanceId"`
	ExpiresAt  time.Time    `json:"expiresAt"`
}

// Me returns the account of the token's user.
func (h *AuthHandler) Me(c *gin.Context) {
	sess, err := getSessionFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get session from token")
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), sess)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			abortWithError(c, http.StatusUnauthorized, "Account no longer exists")
			return
		}
		log.Printf("ERROR: failed to load account for %s: %v", sess.Email, err)
		abortWithError(c, http.StatusServiceUnavailable, "Failed to load account")
		return
	}
	c.JSON(http.StatusOK, MeResponse{
		User:       MapUserToResponse(user),
		InstanceID: sess.InstanceID,
		ExpiresAt:  sess.ExpiresAt,
	})
}

// abortWithAuthError maps auth failures to a status while keeping the message verbatim.
func abortWithAuthError(c *gin.Context, err error) {
	var authErr *service.AuthError
	if !errors.As(err, &authErr) {
		log.Printf("ERROR: authentication failed unexpectedly: %v", err)
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	status := http.StatusBadRequest
	switch authErr {
	case service.ErrUserAlreadyExists:
		status = http.StatusConflict
	case service.ErrAuthenticationFailed:
		status = http.StatusUnauthorized
	case service.ErrAuthUnavailable:
		status = http.StatusServiceUnavailable
	}
	c.AbortWithStatusJSON(status, gin.H{"error": authErr.Message, "code": authErr.Code})
}

// MapUserToResponse converts a domain User to a UserResponse DTO.
func MapUserToResponse(user *domain.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}
	return UserResponse{
		ID:        user.ID.Hex(),
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}
