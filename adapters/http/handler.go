package http

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/cocoa-fruit/hexdigest/domain"
	"github.com/satriahrh/cocoa-fruit/hexdigest/usecase"
	"github.com/satriahrh/cocoa-fruit/hexdigest/utils/log"
)

const (
	// JWT settings
	jwtIssuer  = "cocoa-fruit-hexdigest"
	jwtSubject = "digest"

	defaultUserID        = 1
	defaultDeviceVersion = "0.0.0"

	HeaderRequestID = "X-Request-ID"
)

type Config struct {
	JWTSecret     string
	JWTExpiry     time.Duration
	APIKey        string
	APISecret     string
	MaxConcurrent int
}

type DigestHandler struct {
	svc       *usecase.DigestService
	jwtSecret []byte
	jwtExpiry time.Duration
	apiKey    string
	apiSecret string
	semaphore chan struct{}
}

type DigestRequest struct {
	Input     *string          `json:"input"`
	Algorithm domain.Algorithm `json:"algorithm,omitempty"`
}

type DigestResponse struct {
	Algorithm domain.Algorithm `json:"algorithm"`
	Hex       string           `json:"hex"`
	Digest    string           `json:"digest"`
	RequestID string           `json:"request_id"`
}

type VerifyRequest struct {
	Input     *string          `json:"input"`
	Expected  string           `json:"expected"`
	Algorithm domain.Algorithm `json:"algorithm,omitempty"`
}

type VerifyResponse struct {
	Match     bool   `json:"match"`
	RequestID string `json:"request_id"`
}

type TokenRequest struct {
	DeviceID      string `json:"device_id"`
	DeviceVersion string `json:"device_version"`
}

type JWTClaims struct {
	UserID        int    `json:"user_id"`
	DeviceID      string `json:"device_id"`
	DeviceVersion string `json:"device_version"`
	jwt.RegisteredClaims
}

func NewDigestHandler(svc *usecase.DigestService, cfg Config) *DigestHandler {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 10
	}
	if cfg.JWTExpiry <= 0 {
		cfg.JWTExpiry = 24 * time.Hour
	}
	return &DigestHandler{
		svc:       svc,
		jwtSecret: []byte(cfg.JWTSecret),
		jwtExpiry: cfg.JWTExpiry,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		semaphore: make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Register mounts the public and authenticated digest routes on api.
func (h *DigestHandler) Register(api *echo.Group) {
	api.GET("/health", h.HealthCheck)
	api.POST("/auth/token", h.GenerateJWT)

	api.POST("/digest", h.Digest, h.JWTMiddleware, h.RateLimitMiddleware)
	api.POST("/verify", h.Verify, h.JWTMiddleware, h.RateLimitMiddleware)
}

// GenerateJWT creates a JWT token for authenticated clients
func (h *DigestHandler) GenerateJWT(c echo.Context) error {
	key := c.Request().Header.Get("X-API-Key")
	secret := c.Request().Header.Get("X-API-Secret")

	keyOK := subtle.ConstantTimeCompare([]byte(key), []byte(h.apiKey)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(secret), []byte(h.apiSecret)) == 1
	if !keyOK || !secretOK {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	var req TokenRequest
	if c.Request().ContentLength > 0 {
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid token request")
		}
	}
	if req.DeviceID == "" {
		req.DeviceID = c.RealIP()
	}
	if req.DeviceVersion == "" {
		req.DeviceVersion = defaultDeviceVersion
	}

	now := time.Now()
	claims := &JWTClaims{
		UserID:        defaultUserID,
		DeviceID:      req.DeviceID,
		DeviceVersion: req.DeviceVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(h.jwtExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    jwtIssuer,
			Subject:   jwtSubject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.jwtSecret)
	if err != nil {
		log.WithCtx(c.Request().Context()).Error("Error signing JWT", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"token": tokenString,
		"type":  "Bearer",
	})
}

// JWTMiddleware authenticates "Bearer <token>" requests and stores the device
// identity on both the echo context and the request context.
func (h *DigestHandler) JWTMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
		}

		claims, err := h.ParseToken(tokenString)
		if err != nil {
			log.WithCtx(c.Request().Context()).Debug("JWT validation error", zap.Error(err))
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		}

		c.Set("user_id", claims.UserID)
		c.Set("device_id", claims.DeviceID)
		c.Set("device_version", claims.DeviceVersion)
		ctx := log.ContextWithDevice(c.Request().Context(), claims.UserID, claims.DeviceID, claims.DeviceVersion)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// ParseToken validates tokenString and returns its claims.
func (h *DigestHandler) ParseToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return h.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// RateLimitMiddleware bounds the number of in-flight digest requests.
func (h *DigestHandler) RateLimitMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		select {
		case h.semaphore <- struct{}{}:
			defer func() { <-h.semaphore }()
			return next(c)
		default:
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many concurrent requests")
		}
	}
}

// Digest hashes either a JSON {"input": ...} document or, for any other
// content type, the raw request body.
func (h *DigestHandler) Digest(c echo.Context) error {
	requestID, err := h.startRequest(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	var d domain.Digest
	if isJSON(c) {
		var req DigestRequest
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON body")
		}
		d, err = h.svc.ComputeText(ctx, req.Algorithm, req.Input)
	} else {
		body, readErr := io.ReadAll(c.Request().Body)
		if readErr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Failed to read body")
		}
		d, err = h.svc.Compute(ctx, domain.Algorithm(c.QueryParam("algorithm")), body)
	}
	if err != nil {
		return h.digestError(c, err)
	}

	return c.JSON(http.StatusOK, DigestResponse{
		Algorithm: d.Algorithm,
		Hex:       d.Hex,
		Digest:    d.String(),
		RequestID: requestID,
	})
}

// Verify checks an input against an expected digest.
func (h *DigestHandler) Verify(c echo.Context) error {
	requestID, err := h.startRequest(c)
	if err != nil {
		return err
	}

	var req VerifyRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON body")
	}
	if req.Input == nil {
		return h.digestError(c, domain.ErrNilInput)
	}

	match, err := h.svc.Verify(c.Request().Context(), req.Algorithm, []byte(*req.Input), req.Expected)
	if err != nil {
		return h.digestError(c, err)
	}
	return c.JSON(http.StatusOK, VerifyResponse{Match: match, RequestID: requestID})
}

// HealthCheck reports liveness and the configured algorithms.
func (h *DigestHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"timestamp":  time.Now().UTC(),
		"service":    "hexdigest",
		"algorithms": h.svc.Algorithms(),
		"default":    h.svc.DefaultAlgorithm(),
	})
}

func (h *DigestHandler) startRequest(c echo.Context) (string, error) {
	requestID := c.Request().Header.Get(HeaderRequestID)
	if requestID == "" {
		var err error
		if requestID, err = generateRequestID(); err != nil {
			log.WithCtx(c.Request().Context()).Error("Error generating request ID", zap.Error(err))
			return "", echo.NewHTTPError(http.StatusInternalServerError, "Failed to create request")
		}
	}
	c.Response().Header().Set(HeaderRequestID, requestID)
	c.SetRequest(c.Request().WithContext(log.ContextWithRequestID(c.Request().Context(), requestID)))
	return requestID, nil
}

func (h *DigestHandler) digestError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNilInput):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid input")
	case errors.Is(err, domain.ErrUnsupportedAlgorithm), errors.Is(err, domain.ErrInvalidDigest):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	log.WithCtx(c.Request().Context()).Error("digest failed", zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, "Failed to compute digest")
}

func isJSON(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}

// generateRequestID creates a unique request identifier
func generateRequestID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", bytes), nil
}
