package api

import (
	"net/http"
	"slices"
	"time"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/service"

	"github.com/gin-gonic/gin"
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

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName"`
}

// ProfileResponse excludes sensitive info like password hash
type ProfileResponse struct {
	ID               string      `json:"id"`
	Email            string      `json:"email"`
	FirstName        string      `json:"firstName"`
	LastName         string      `json:"lastName"`
	Phone            string      `json:"phone,omitempty"`
	DateOfBirth      *time.Time  `json:"dateOfBirth,omitempty"`
	EmergencyContact string      `json:"emergencyContact,omitempty"`
	EmergencyPhone   string      `json:"emergencyPhone,omitempty"`
	Role             domain.Role `json:"role"`
	GymID            *string     `json:"gymId,omitempty"`
	BranchID         *string     `json:"branchId,omitempty"`
	MemberCode       string      `json:"memberCode,omitempty"`
	IsActive         bool        `json:"isActive"`
	CreatedAt        time.Time   `json:"createdAt"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token   string          `json:"token"`
	Profile ProfileResponse `json:"profile"`
}

type MeResponse struct {
	Profile      ProfileResponse     `json:"profile"`
	Onboarded    bool                `json:"onboarded"`
	Capabilities []domain.Capability `json:"capabilities"`
}

// --- Handler Methods ---

// Register godoc
// @Summary Register a new account
// @Description Creates a profile that belongs to no gym until it creates or joins one.
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "Registration details"
// @Success 201 {object} ProfileResponse "Profile created successfully"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 409 {object} gin.H "Conflict (email already exists)"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}

	profile, err := h.authService.Register(c.Request.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MapProfileToResponse(profile))
}

// Login godoc
// @Summary Log in
// @Description Authenticates a profile and returns a JWT token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse "Login successful"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 401 {object} gin.H "Unauthorized (invalid credentials)"
// @Failure 403 {object} gin.H "Profile is inactive"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}

	token, profile, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:   token,
		Profile: MapProfileToResponse(profile),
	})
}

// Me godoc
// @Summary Current profile
// @Description Returns the caller's profile, onboarding state and capabilities.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MeResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	profile, err := profileFrom(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get profile from context")
		return
	}
	p := principalFrom(c)

	caps := make([]domain.Capability, 0)
	for capability := range p.Role.Capabilities() {
		caps = append(caps, capability)
	}
	slices.Sort(caps)
	c.JSON(http.StatusOK, MeResponse{
		Profile:      MapProfileToResponse(profile),
		Onboarded:    p.Onboarded(),
		Capabilities: caps,
	})
}

// MapProfileToResponse converts a domain Profile to a ProfileResponse DTO.
func MapProfileToResponse(p *domain.Profile) ProfileResponse {
	if p == nil {
		return ProfileResponse{}
	}
	resp := ProfileResponse{
		ID:               p.ID.Hex(),
		Email:            p.Email,
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		Phone:            p.Phone,
		DateOfBirth:      p.DateOfBirth,
		EmergencyContact: p.EmergencyContact,
		EmergencyPhone:   p.EmergencyPhone,
		Role:             p.Role,
		MemberCode:       p.MemberCode,
		IsActive:         p.IsActive,
		CreatedAt:        p.CreatedAt,
	}
	if p.GymID != nil {
		gymID := p.GymID.Hex()
		resp.GymID = &gymID
	}
	if p.BranchID != nil {
		branchID := p.BranchID.Hex()
		resp.BranchID = &branchID
	}
	return resp
}

// MapProfilesToResponse converts a slice of profiles to ProfileResponse DTOs.
func MapProfilesToResponse(profiles []domain.Profile) []ProfileResponse {
	out := make([]ProfileResponse, len(profiles))
	for i := range profiles {
		out[i] = MapProfileToResponse(&profiles[i])
	}
	return out
}
