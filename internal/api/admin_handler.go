package api

import (
	"net/http"
	"time"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminHandler serves the platform administration endpoints.
type AdminHandler struct {
	subscriptionService service.SubscriptionService
	reportService       service.ReportService
}

func NewAdminHandler(subscriptionService service.SubscriptionService, reportService service.ReportService) *AdminHandler {
	return &AdminHandler{subscriptionService: subscriptionService, reportService: reportService}
}

// --- DTOs ---

type PlanRequest struct {
	Name         string          `json:"name" binding:"required"`
	Price        float64         `json:"price" binding:"gte=0"`
	BillingCycle string          `json:"billingCycle" binding:"omitempty,oneof=monthly yearly"`
	Tier         domain.Tier     `json:"tier" binding:"omitempty,oneof=startup growth enterprise"`
	MaxMembers   *int64          `json:"maxMembers" binding:"omitempty,gte=0"`
	MaxBranches  *int64          `json:"maxBranches" binding:"omitempty,gte=0"`
	Features     map[string]bool `json:"features"`
}

func (r PlanRequest) toDomain() domain.SubscriptionPlan {
	return domain.SubscriptionPlan{
		Name:         r.Name,
		Price:        r.Price,
		BillingCycle: r.BillingCycle,
		Tier:         r.Tier,
		MaxMembers:   r.MaxMembers,
		MaxBranches:  r.MaxBranches,
		Features:     r.Features,
	}
}

type AssignPlanRequest struct {
	PlanID    string     `json:"planId" binding:"required"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
}

// --- Handler Methods ---

// CreatePlan godoc
// @Summary Create a subscription plan
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body PlanRequest true "Plan"
// @Success 201 {object} domain.SubscriptionPlan
// @Router /admin/plans [post]
func (h *AdminHandler) CreatePlan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}
	plan, err := h.subscriptionService.CreatePlan(c.Request.Context(), principalFrom(c), req.toDomain())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// ListPlans godoc
// @Summary List subscription plans
// @Description Platform admins see every plan, gym admins the active ones.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.SubscriptionPlan
// @Router /admin/plans [get]
func (h *AdminHandler) ListPlans(c *gin.Context) {
	plans, err := h.subscriptionService.ListPlans(c.Request.Context(), principalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if plans == nil {
		plans = []domain.SubscriptionPlan{}
	}
	c.JSON(http.StatusOK, plans)
}

// UpdatePlan godoc
// @Summary Update a subscription plan
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ObjectID Hex"
// @Param plan body PlanRequest true "Plan"
// @Success 200 {object} domain.SubscriptionPlan
// @Router /admin/plans/{id} [put]
func (h *AdminHandler) UpdatePlan(c *gin.Context) {
	planID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}
	plan := req.toDomain()
	plan.ID = planID
	updated, err := h.subscriptionService.UpdatePlan(c.Request.Context(), principalFrom(c), plan)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeactivatePlan godoc
// @Summary Deactivate a subscription plan
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Plan ObjectID Hex"
// @Success 204 "No Content"
// @Router /admin/plans/{id} [delete]
func (h *AdminHandler) DeactivatePlan(c *gin.Context) {
	planID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.subscriptionService.DeactivatePlan(c.Request.Context(), principalFrom(c), planID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AssignPlan godoc
// @Summary Put a gym on a plan
// @Description Replaces the gym's active subscription.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Gym ObjectID Hex"
// @Param subscription body AssignPlanRequest true "Plan and dates"
// @Success 201 {object} domain.TenantSubscription
// @Router /admin/gyms/{id}/subscription [post]
func (h *AdminHandler) AssignPlan(c *gin.Context) {
	gymID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AssignPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}
	planID, err := primitive.ObjectIDFromHex(req.PlanID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid planId format.")
		return
	}
	var start time.Time
	if req.StartDate != nil {
		start = *req.StartDate
	}

	sub, err := h.subscriptionService.AssignPlan(c.Request.Context(), principalFrom(c), gymID, planID, start, req.EndDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// Dashboard godoc
// @Summary Platform dashboard
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.PlatformDashboard
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.reportService.PlatformDashboard(c.Request.Context(), principalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// ListGyms godoc
// @Summary List all gyms
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Gym
// @Router /admin/gyms [get]
func (h *AdminHandler) ListGyms(c *gin.Context) {
	gyms, err := h.reportService.ListGyms(c.Request.Context(), principalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if gyms == nil {
		gyms = []domain.Gym{}
	}
	c.JSON(http.StatusOK, gyms)
}
