package api

import (
	"net/http"
	"time"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkoutHandler struct {
	workoutService service.WorkoutService
}

func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// --- DTOs ---

type CreateWorkoutTemplateRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	PlanData    domain.PlanData `json:"planData" binding:"required"`
}

type AssignWorkoutRequest struct {
	MemberID  string     `json:"memberId" binding:"required"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
}

// --- Handler Methods ---

// CreateTemplate godoc
// @Summary Create a workout template
// @Description Requires the workout_plans feature in the gym's plan.
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param template body CreateWorkoutTemplateRequest true "Template"
// @Success 201 {object} domain.DefaultWorkoutPlan
// @Failure 403 {object} gin.H "Forbidden or feature not in plan"
// @Router /workouts/templates [post]
func (h *WorkoutHandler) CreateTemplate(c *gin.Context) {
	var req CreateWorkoutTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}
	plan, err := h.workoutService.CreateDefaultPlan(c.Request.Context(), principalFrom(c), req.Name, req.Description, req.PlanData)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// ListTemplates godoc
// @Summary List active workout templates
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.DefaultWorkoutPlan
// @Router /workouts/templates [get]
func (h *WorkoutHandler) ListTemplates(c *gin.Context) {
	plans, err := h.workoutService.ListDefaultPlans(c.Request.Context(), principalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if plans == nil {
		plans = []domain.DefaultWorkoutPlan{}
	}
	c.JSON(http.StatusOK, plans)
}

// DeactivateTemplate godoc
// @Summary Retire a workout template
// @Tags Workouts
// @Security BearerAuth
// @Param id path string true "Template ObjectID Hex"
// @Success 204 "No Content"
// @Router /workouts/templates/{id} [delete]
func (h *WorkoutHandler) DeactivateTemplate(c *gin.Context) {
	planID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.workoutService.DeactivateDefaultPlan(c.Request.Context(), principalFrom(c), planID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AssignTemplate godoc
// @Summary Assign a template to a member
// @Description Copies the template into a program for the member.
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ObjectID Hex"
// @Param assignment body AssignWorkoutRequest true "Member and dates"
// @Success 201 {object} domain.WorkoutProgram
// @Router /workouts/templates/{id}/assign [post]
func (h *WorkoutHandler) AssignTemplate(c *gin.Context) {
	planID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AssignWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}
	memberID, err := primitive.ObjectIDFromHex(req.MemberID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid memberId format.")
		return
	}
	var start time.Time
	if req.StartDate != nil {
		start = *req.StartDate
	}

	program, err := h.workoutService.AssignPlan(c.Request.Context(), principalFrom(c), planID, memberID, start, req.EndDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, program)
}

// ListPrograms godoc
// @Summary List workout programs
// @Description Trainers see programs they assigned, members their own, admins all.
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.WorkoutProgram
// @Router /workouts/programs [get]
func (h *WorkoutHandler) ListPrograms(c *gin.Context) {
	programs, err := h.workoutService.ListPrograms(c.Request.Context(), principalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if programs == nil {
		programs = []domain.WorkoutProgram{}
	}
	c.JSON(http.StatusOK, programs)
}
