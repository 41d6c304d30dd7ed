package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/fc-integration/inventory/internal/services"
	"github.com/fc-integration/inventory/internal/store"
	"github.com/fc-integration/inventory/types"
)

const defaultTokenTTL = 24 * time.Hour

const twoFactorMessage = "Un code de vérification a été envoyé à votre adresse email."

// AuthHandler provides JWT authentication endpoints.
type AuthHandler struct {
	users     *services.UserService
	twoFactor *services.TwoFactorService
	audit     *services.AuditService
	secret    []byte
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthHandler(
	users *services.UserService,
	twoFactor *services.TwoFactorService,
	audit *services.AuditService,
	jwtSecret string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthHandler{
		users:     users,
		twoFactor: twoFactor,
		audit:     audit,
		secret:    []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/login", handler.Login)
	r.Post("/verify-two-factor", handler.VerifyTwoFactor)
	r.With(handler.RequireAuth).Post("/logout", handler.Logout)
	r.With(handler.RequireAuth).Get("/me", handler.Me)
}

// RequireAuth enforces JWT authentication and injects the subject into context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return requireAuth(h.secret)(next)
}

// RequireAuth constructs auth middleware for other routers.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	return requireAuth([]byte(jwtSecret))
}

func requireAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			subject, err := parseTokenSubject(tokenString, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), contextSubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Login verifies credentials. Accounts with two-factor enabled get a
// code sent instead of a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.log.Error().Err(err).Msg("login failed")
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	if user.TwoFactorEnabled {
		if err := h.twoFactor.Issue(r.Context(), user); err != nil {
			h.log.Error().Err(err).Str("email", user.Email).Msg("two-factor issue failed")
			writeError(w, http.StatusInternalServerError, "failed to send two-factor code")
			return
		}
		writeJSON(w, http.StatusOK, types.AuthResponse{TwoFactor: true, Message: twoFactorMessage})
		return
	}

	h.respondWithToken(w, r, user)
}

// VerifyTwoFactor exchanges a pending code for a token.
func (h *AuthHandler) VerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req types.VerifyTwoFactorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Code = strings.TrimSpace(req.Code)
	if req.Email == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "missing email or code")
		return
	}

	if err := h.twoFactor.Verify(r.Context(), req.Email, req.Code); err != nil {
		if errors.Is(err, services.ErrInvalidCode) {
			writeError(w, http.StatusUnauthorized, "Invalid two-factor code")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to verify code")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	h.respondWithToken(w, r, user)
}

// Logout records the LOGOUT entry. Tokens are stateless and simply
// dropped by the client.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req types.LogoutRequest
	_ = decodeJSON(r, &req)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		if user, err := h.currentUser(r); err == nil {
			name = user.Name
		}
	}
	if name != "" {
		if err := h.audit.Record(r.Context(), types.ActionLogout, name); err != nil {
			h.log.Warn().Err(err).Msg("failed to record logout")
		}
	}
	writeMessage(w, http.StatusOK, "Déconnexion réussie")
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) currentUser(r *http.Request) (types.User, error) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		return types.User{}, store.ErrNotFound
	}
	return h.users.GetByID(r.Context(), userID)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, user types.User) {
	token, err := issueToken(user.ID, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}
	if err := h.audit.Record(r.Context(), types.ActionLogin, user.Name); err != nil {
		h.log.Warn().Err(err).Msg("failed to record login")
	}
	writeJSON(w, http.StatusOK, types.AuthResponse{Token: token, User: &user})
}

func issueToken(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseTokenSubject(tokenString string, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
