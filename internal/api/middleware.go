package api

import (
	"errors"
	"net/http"
	"strings"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/logger"
	"alcyxob/gym-saas/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Constants for context keys
const (
	ContextPrincipalKey = "principal"
	ContextProfileKey   = "profile"
)

// AuthMiddleware authenticates the bearer token and resolves the caller's
// current role and gym from their profile, so changes made after login
// apply to the next request.
func AuthMiddleware(auth service.AuthService, identity service.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		profileID, err := auth.ParseToken(parts[1])
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		principal, profile, err := identity.Resolve(c.Request.Context(), profileID)
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextPrincipalKey, principal)
		c.Set(ContextProfileKey, profile)

		ctx := c.Request.Context()
		log := logger.FromContext(ctx).With(zap.String("profile_id", profileID.Hex()))
		if principal.GymID != nil {
			log = log.With(zap.String("gym_id", principal.GymID.Hex()))
		}
		c.Request = c.Request.WithContext(logger.WithContext(ctx, log))

		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// RequireTenant rejects callers that have not created or joined a gym.
// Must run AFTER AuthMiddleware.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !principalFrom(c).Onboarded() {
			abortWithError(c, http.StatusForbidden, "onboarding required")
			return
		}
		c.Next()
	}
}

// RequireCapability lets the request through when the caller holds any of
// caps. Must run AFTER AuthMiddleware.
func RequireCapability(caps ...domain.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := principalFrom(c)
		for _, want := range caps {
			if p.Can(want) {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, "not permitted")
	}
}

// FeatureGate blocks members whose own subscription has expired from
// feature with 402. Other roles pass.
func FeatureGate(subs service.SubscriptionService, feature string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if subs.IsFeatureBlocked(c.Request.Context(), principalFrom(c), feature) {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"error":   "subscription expired",
				"feature": feature,
			})
			return
		}
		c.Next()
	}
}

// principalFrom returns the principal AuthMiddleware stored. The zero
// principal holds no capabilities.
func principalFrom(c *gin.Context) domain.Principal {
	if raw, ok := c.Get(ContextPrincipalKey); ok {
		if p, ok := raw.(domain.Principal); ok {
			return p
		}
	}
	return domain.Principal{}
}

func profileFrom(c *gin.Context) (*domain.Profile, error) {
	raw, ok := c.Get(ContextProfileKey)
	if !ok {
		return nil, errors.New("profile not found in context")
	}
	profile, ok := raw.(*domain.Profile)
	if !ok {
		return nil, errors.New("invalid profile type in context")
	}
	return profile, nil
}

// pathID parses the ObjectID path parameter name, answering 400 itself when
// it is malformed.
func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// optionalID parses a hex id that may be empty.
func optionalID(hex string) (*primitive.ObjectID, error) {
	if hex == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
