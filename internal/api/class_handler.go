package api

import (
	"net/http"
	"time"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ClassHandler struct {
	classService service.ClassService
}

func NewClassHandler(classService service.ClassService) *ClassHandler {
	return &ClassHandler{classService: classService}
}

// --- DTOs ---

type CreateClassRequest struct {
	BranchID    string    `json:"branchId" binding:"required"`
	TrainerID   string    `json:"trainerId"`
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"startTime" binding:"required"`
	EndTime     time.Time `json:"endTime" binding:"required,gtfield=StartTime"`
	MaxCapacity int64     `json:"maxCapacity" binding:"gte=0"`
}

// --- Handler Methods ---

// CreateClass godoc
// @Summary Schedule a class
// @Tags Classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param class body CreateClassRequest true "Class details; capacity defaults to 20"
// @Success 201 {object} domain.Class
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Branch or trainer not found"
// @Router /classes [post]
func (h *ClassHandler) CreateClass(c *gin.Context) {
	var req CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}
	branchID, err := primitive.ObjectIDFromHex(req.BranchID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid branchId format.")
		return
	}
	trainerID, err := optionalID(req.TrainerID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid trainerId format.")
		return
	}

	class, err := h.classService.CreateClass(c.Request.Context(), principalFrom(c), service.ClassInput{
		BranchID:    branchID,
		TrainerID:   trainerID,
		Name:        req.Name,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		MaxCapacity: req.MaxCapacity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, class)
}

// ListClasses godoc
// @Summary List classes
// @Description Trainers see their own classes. Status is derived from the clock.
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Param upcoming query bool false "Only classes that have not ended"
// @Success 200 {array} domain.Class
// @Router /classes [get]
func (h *ClassHandler) ListClasses(c *gin.Context) {
	upcoming := c.Query("upcoming") == "true"
	classes, err := h.classService.ListClasses(c.Request.Context(), principalFrom(c), upcoming)
	if err != nil {
		respondError(c, err)
		return
	}
	if classes == nil {
		classes = []domain.Class{}
	}
	c.JSON(http.StatusOK, classes)
}

// CancelClass godoc
// @Summary Cancel a class
// @Tags Classes
// @Security BearerAuth
// @Param id path string true "Class ObjectID Hex"
// @Success 204 "No Content"
// @Router /classes/{id}/cancel [post]
func (h *ClassHandler) CancelClass(c *gin.Context) {
	classID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.classService.CancelClass(c.Request.Context(), principalFrom(c), classID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteClass godoc
// @Summary Delete a class and its bookings
// @Tags Classes
// @Security BearerAuth
// @Param id path string true "Class ObjectID Hex"
// @Success 204 "No Content"
// @Router /classes/{id} [delete]
func (h *ClassHandler) DeleteClass(c *gin.Context) {
	classID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.classService.DeleteClass(c.Request.Context(), principalFrom(c), classID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// BookClass godoc
// @Summary Book a class
// @Description Confirms a seat while any is left, waitlists otherwise.
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ObjectID Hex"
// @Success 201 {object} domain.ClassBooking
// @Failure 402 {object} gin.H "Subscription expired"
// @Failure 409 {object} gin.H "Already booked or class not open for booking"
// @Router /classes/{id}/bookings [post]
func (h *ClassHandler) BookClass(c *gin.Context) {
	classID, ok := pathID(c, "id")
	if !ok {
		return
	}
	booking, err := h.classService.BookClass(c.Request.Context(), principalFrom(c), classID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// CancelBooking godoc
// @Summary Cancel my booking
// @Tags Classes
// @Security BearerAuth
// @Param id path string true "Class ObjectID Hex"
// @Success 204 "No Content"
// @Router /classes/{id}/bookings [delete]
func (h *ClassHandler) CancelBooking(c *gin.Context) {
	classID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.classService.CancelBooking(c.Request.Context(), principalFrom(c), classID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
