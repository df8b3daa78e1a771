package api

import (
	"net/http"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/service"

	"github.com/gin-gonic/gin"
)

type TenantHandler struct {
	tenantService       service.TenantService
	subscriptionService service.SubscriptionService
}

func NewTenantHandler(tenantService service.TenantService, subscriptionService service.SubscriptionService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService, subscriptionService: subscriptionService}
}

// --- DTOs ---

type ContactRequest struct {
	Email      string `json:"email" binding:"omitempty,email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
	LogoURL    string `json:"logoUrl" binding:"omitempty,url"`
	ThemeColor string `json:"themeColor" binding:"omitempty,hexcolor"`
	Timezone   string `json:"timezone" binding:"omitempty,timezone"`
}

func (r ContactRequest) toDomain() domain.ContactInfo {
	return domain.ContactInfo{
		Email:      r.Email,
		Phone:      r.Phone,
		Address:    r.Address,
		City:       r.City,
		State:      r.State,
		Country:    r.Country,
		PostalCode: r.PostalCode,
		LogoURL:    r.LogoURL,
		ThemeColor: r.ThemeColor,
		Timezone:   r.Timezone,
	}
}

type CreateGymRequest struct {
	Name          string `json:"name" binding:"required"`
	GymCodePrefix string `json:"gymCodePrefix" binding:"required,gymcode"`
	ContactRequest
}

type JoinGymRequest struct {
	GymCode string `json:"gymCode" binding:"required"`
}

type UpdateGymRequest struct {
	Name string `json:"name"`
	ContactRequest
}

type CreateBranchRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	City    string `json:"city"`
	Phone   string `json:"phone"`
	Email   string `json:"email" binding:"omitempty,email"`
}

type FeatureStatusResponse struct {
	Feature string `json:"feature"`
	Blocked bool   `json:"blocked"`
}

// --- Handler Methods ---

// CreateGym godoc
// @Summary Create a gym
// @Description Creates a gym with a unique code derived from the prefix, a default branch, and makes the caller its admin.
// @Tags Onboarding
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param gym body CreateGymRequest true "Gym details"
// @Success 201 {object} domain.Gym
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 409 {object} gin.H "Caller already belongs to a gym, or no unique code could be allocated"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /onboarding/gyms [post]
func (h *TenantHandler) CreateGym(c *gin.Context) {
	var req CreateGymRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}

	gym, err := h.tenantService.CreateTenant(c.Request.Context(), principalFrom(c).ProfileID, req.Name, req.GymCodePrefix, req.ContactRequest.toDomain())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gym)
}

// JoinGym godoc
// @Summary Join a gym by code
// @Description Joins the gym with the given code as a member and issues a member code.
// @Tags Onboarding
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param join body JoinGymRequest true "Gym code"
// @Success 200 {object} ProfileResponse
// @Failure 404 {object} gin.H "Unknown or inactive gym"
// @Failure 409 {object} gin.H "Caller already belongs to a gym"
// @Router /onboarding/join [post]
func (h *TenantHandler) JoinGym(c *gin.Context) {
	var req JoinGymRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}

	profile, err := h.tenantService.JoinTenant(c.Request.Context(), principalFrom(c).ProfileID, req.GymCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapProfileToResponse(profile))
}

// GetGym godoc
// @Summary Get my gym
// @Tags Gym
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Gym
// @Failure 403 {object} gin.H "Onboarding required"
// @Router /gym [get]
func (h *TenantHandler) GetGym(c *gin.Context) {
	gym, err := h.tenantService.GetGym(c.Request.Context(), principalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gym)
}

// UpdateGym godoc
// @Summary Update gym details
// @Description Updates name, contact and branding. The gym code never changes.
// @Tags Gym
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param gym body UpdateGymRequest true "Fields to change"
// @Success 200 {object} domain.Gym
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 403 {object} gin.H "Forbidden"
// @Router /gym [put]
func (h *TenantHandler) UpdateGym(c *gin.Context) {
	var req UpdateGymRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}

	gym, err := h.tenantService.UpdateGym(c.Request.Context(), principalFrom(c), req.Name, req.ContactRequest.toDomain())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gym)
}

// ListBranches godoc
// @Summary List branches
// @Tags Gym
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Branch
// @Router /gym/branches [get]
func (h *TenantHandler) ListBranches(c *gin.Context) {
	branches, err := h.tenantService.ListBranches(c.Request.Context(), principalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if branches == nil {
		branches = []domain.Branch{}
	}
	c.JSON(http.StatusOK, branches)
}

// CreateBranch godoc
// @Summary Create a branch
// @Description Adds a location, subject to the plan's branch limit.
// @Tags Gym
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param branch body CreateBranchRequest true "Branch details"
// @Success 201 {object} domain.Branch
// @Failure 403 {object} gin.H "Branch limit reached"
// @Router /gym/branches [post]
func (h *TenantHandler) CreateBranch(c *gin.Context) {
	var req CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}

	branch, err := h.tenantService.CreateBranch(c.Request.Context(), principalFrom(c), domain.Branch{
		Name:    req.Name,
		Address: req.Address,
		City:    req.City,
		Phone:   req.Phone,
		Email:   req.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, branch)
}

// DeactivateBranch godoc
// @Summary Deactivate a branch
// @Tags Gym
// @Security BearerAuth
// @Param id path string true "Branch ObjectID Hex"
// @Success 204 "No Content"
// @Failure 404 {object} gin.H "Branch not found"
// @Router /gym/branches/{id} [delete]
func (h *TenantHandler) DeactivateBranch(c *gin.Context) {
	branchID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.tenantService.DeactivateBranch(c.Request.Context(), principalFrom(c), branchID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetLimits godoc
// @Summary Plan limits and usage
// @Tags Gym
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Limits
// @Failure 500 {object} gin.H "Limits could not be determined"
// @Router /gym/limits [get]
func (h *TenantHandler) GetLimits(c *gin.Context) {
	p := principalFrom(c)
	limits, err := h.subscriptionService.LimitsFor(c.Request.Context(), *p.GymID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, limits)
}

// FeatureBlocked godoc
// @Summary Whether a feature is blocked for the caller
// @Description Members whose own subscription expired are blocked from protected features.
// @Tags Gym
// @Produce json
// @Security BearerAuth
// @Param name path string true "Feature name"
// @Success 200 {object} FeatureStatusResponse
// @Router /features/{name}/blocked [get]
func (h *TenantHandler) FeatureBlocked(c *gin.Context) {
	feature := c.Param("name")
	blocked := h.subscriptionService.IsFeatureBlocked(c.Request.Context(), principalFrom(c), feature)
	c.JSON(http.StatusOK, FeatureStatusResponse{Feature: feature, Blocked: blocked})
}
