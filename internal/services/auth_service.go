package services

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/garant/backend/internal/middleware"
	"github.com/garant/backend/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
)

// AuthService issues access tokens to the bot front end. The bot proves
// itself with the shared secret and asks for a token on behalf of a user.
type AuthService struct {
	ledger    *LedgerService
	redis     *redis.Client
	validator *ValidationHelper
}

// TokenRequest represents the token request payload
type TokenRequest struct {
	TgID     int64  `json:"tgId" validate:"required,gt=0"`
	Username string `json:"username" validate:"max=64"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	Token string       `json:"token"`
	Role  string       `json:"role"`
	User  *models.User `json:"user"`
}

func NewAuthService(ledger *LedgerService, redisClient *redis.Client) *AuthService {
	return &AuthService{
		ledger:    ledger,
		redis:     redisClient,
		validator: NewValidationHelper(),
	}
}

func (s *AuthService) sendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	SendErrorResponse(w, message, statusCode, validationErr)
}

// IssueToken registers the user on first contact and returns an access token.
func (s *AuthService) IssueToken(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Token request from IP: %s", r.RemoteAddr)

	if !botSecretMatches(r.Header.Get("X-Bot-Secret")) {
		log.Printf("[AUTH] Token request rejected - bad bot secret")
		s.sendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req TokenRequest
	if err := dec.Decode(&req); err != nil {
		log.Printf("[AUTH] Token request failed - invalid request: %v", err)
		s.sendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		log.Printf("[AUTH] Multiple JSON objects detected")
		s.sendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		log.Printf("[AUTH] Token request validation failed: %v", err)
		s.sendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	user, err := s.ledger.EnsureUser(r.Context(), req.TgID, req.Username)
	if err != nil {
		log.Printf("[AUTH] Failed to register user %d: %v", req.TgID, err)
		s.sendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	role := middleware.RoleUser
	if IsAdmin(req.TgID) {
		role = middleware.RoleAdmin
	}

	token, err := middleware.GenerateToken(req.TgID, role)
	if err != nil {
		log.Printf("[AUTH] JWT generation failed for user %d: %v", req.TgID, err)
		s.sendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Token issued for user %d (%s)", req.TgID, role)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AuthResponse{Token: token, Role: role, User: user})
}

// Logout blacklists the presented token until it would have expired.
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token != "" && s.redis != nil {
		expiry := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
		if expiry <= 0 {
			expiry = 24 * time.Hour
		}
		if err := s.redis.Set(r.Context(), middleware.BlacklistKey(token), "1", expiry).Err(); err != nil {
			log.Printf("[AUTH] Failed to blacklist token: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Logout successful"})
}

// IsAdmin reports whether tg is listed in admin.ids (comma separated).
func IsAdmin(tg int64) bool {
	for _, raw := range strings.Split(viper.GetString("admin.ids"), ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err == nil && id == tg {
			return true
		}
	}
	return false
}

func botSecretMatches(presented string) bool {
	secret := viper.GetString("bot.secret")
	if secret == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) == 1
}
