package service

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/repository" // Import repository package
	"alcyxob/fitlog/internal/session"
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4" // Import JWT library
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt" // Import bcrypt
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const minPasswordLength = 6

var (
	ErrTokenGeneration = errors.New("failed to generate authentication token")
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrTokenRevoked    = errors.New("token has been signed out")
	ErrAccountNotFound = errors.New("account no longer exists")
)

// AuthService signs users up, in and out. Every successful sign-in also makes
// the session current on the caller's app instance.
type AuthService interface {
	SignUp(ctx context.Context, instanceID, email, password string) (token string, user *domain.User, err error)
	SignIn(ctx context.Context, instanceID, email, password string) (token string, user *domain.User, err error)
	SignOut(ctx context.Context, s domain.Session) error
	// CurrentUser loads the account a session belongs to.
	CurrentUser(ctx context.Context, s domain.Session) (*domain.User, error)
	// ParseToken validates a JWT and returns the session it carries.
	ParseToken(tokenString string) (*domain.Session, error)
}

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.UserRepository
	sessions      *session.Manager
	revocations   *session.Revocations
	jwtSecret     string
	jwtExpiration time.Duration
}

// NewAuthService creates a new instance of authService.
func NewAuthService(
	userRepo repository.UserRepository,
	sessions *session.Manager,
	revocations *session.Revocations,
	jwtSecret string,
	jwtExpiration time.Duration,
) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour * 1 // Default to 1 hour if not set properly
	}
	return &authService{
		userRepo:      userRepo,
		sessions:      sessions,
		revocations:   revocations,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// SignUp creates the account and signs it in.
func (s *authService) SignUp(ctx context.Context, instanceID, email, password string) (string, *domain.User, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return "", nil, err
	}
	if len(password) < minPasswordLength {
		return "", nil, ErrWeakPassword
	}

	_, err = s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return "", nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		log.Printf("ERROR: sign-up lookup for %s failed: %v", email, err)
		return "", nil, ErrAuthUnavailable
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		// ID, CreatedAt, UpdatedAt will be set by the repository layer
	}
	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		// Another request registered the same email between the lookup and the insert
		if errors.Is(err, repository.ErrDuplicate) {
			return "", nil, ErrUserAlreadyExists
		}
		log.Printf("ERROR: sign-up insert for %s failed: %v", email, err)
		return "", nil, ErrAuthUnavailable
	}
	user.ID = userID

	token, err := s.startSession(instanceID, user)
	if err != nil {
		return "", nil, err
	}
	user.PasswordHash = ""
	return token, user, nil
}

// SignIn checks the credentials and starts a session on the instance.
func (s *authService) SignIn(ctx context.Context, instanceID, email, password string) (string, *domain.User, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return "", nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed // User not found maps to auth failure
		}
		log.Printf("ERROR: sign-in lookup for %s failed: %v", email, err)
		return "", nil, ErrAuthUnavailable
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err := s.startSession(instanceID, user)
	if err != nil {
		return "", nil, err
	}
	user.PasswordHash = ""
	return token, user, nil
}

// SignOut revokes the session's token and clears the instance it was bound to.
func (s *authService) SignOut(ctx context.Context, sess domain.Session) error {
	s.revocations.Revoke(sess.TokenID, sess.ExpiresAt)

	inst := s.sessions.Instance(sess.InstanceID)
	if current, ok := inst.Current(); ok && current.TokenID == sess.TokenID {
		inst.Clear()
	}
	return nil
}

func (s *authService) CurrentUser(ctx context.Context, sess domain.Session) (*domain.User, error) {
	userID, err := userIDFromSession(sess)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", sess.UserID, err)
	}
	user.PasswordHash = ""
	return user, nil
}

// ParseToken validates the signature, expiry and revocation of a token.
func (s *authService) ParseToken(tokenString string) (*domain.Session, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" || claims.Email == "" || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	if s.revocations.IsRevoked(claims.ID) {
		return nil, ErrTokenRevoked
	}
	return &domain.Session{
		UserID:     claims.UserID,
		Email:      claims.Email,
		InstanceID: claims.InstanceID,
		TokenID:    claims.ID,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}

func (s *authService) startSession(instanceID string, user *domain.User) (string, error) {
	if instanceID == "" {
		instanceID = uuid.NewString()
	}
	sess := domain.Session{
		UserID:     user.ID.Hex(),
		Email:      user.Email,
		InstanceID: instanceID,
		TokenID:    uuid.NewString(),
		ExpiresAt:  time.Now().Add(s.jwtExpiration),
	}
	token, err := s.generateJWT(sess)
	if err != nil {
		log.Printf("ERROR: token generation for %s failed: %v", user.Email, err)
		return "", ErrTokenGeneration
	}
	s.sessions.Instance(instanceID).Set(sess)
	return token, nil
}

func validateCredentials(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", ErrMissingCredentials
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// --- JWT Helper ---

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID     string `json:"uid"`
	Email      string `json:"email"`
	InstanceID string `json:"sid"` // App instance the token was issued to
	jwt.RegisteredClaims
}

// generateJWT creates a new JWT token for the session.
func (s *authService) generateJWT(sess domain.Session) (string, error) {
	claims := &jwtClaims{
		UserID:     sess.UserID,
		Email:      sess.Email,
		InstanceID: sess.InstanceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.TokenID,
			Subject:   sess.UserID,
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "fitlog",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// userIDFromSession converts the session's hex user id.
func userIDFromSession(sess domain.Session) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(sess.UserID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid user id in session: %w", err)
	}
	return id, nil
}
