package api

import (
	"net/http"
	"time"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/service"

	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	memberService       service.MemberService
	subscriptionService service.SubscriptionService
}

func NewMemberHandler(memberService service.MemberService, subscriptionService service.SubscriptionService) *MemberHandler {
	return &MemberHandler{memberService: memberService, subscriptionService: subscriptionService}
}

// --- DTOs ---

type CreateMemberRequest struct {
	Email            string      `json:"email" binding:"required,email"`
	FirstName        string      `json:"firstName" binding:"required"`
	LastName         string      `json:"lastName"`
	Phone            string      `json:"phone"`
	Role             domain.Role `json:"role" binding:"omitempty,role"`
	BranchID         string      `json:"branchId"`
	DateOfBirth      *time.Time  `json:"dateOfBirth"`
	EmergencyContact string      `json:"emergencyContact"`
	EmergencyPhone   string      `json:"emergencyPhone"`
}

type CreateMemberResponse struct {
	Member            ProfileResponse `json:"member"`
	TemporaryPassword string          `json:"temporaryPassword"`
}

type UpdateMemberRequest struct {
	FirstName        *string      `json:"firstName"`
	LastName         *string      `json:"lastName"`
	Phone            *string      `json:"phone"`
	Role             *domain.Role `json:"role" binding:"omitempty,role"`
	BranchID         *string      `json:"branchId"`
	DateOfBirth      *time.Time   `json:"dateOfBirth"`
	EmergencyContact *string      `json:"emergencyContact"`
	EmergencyPhone   *string      `json:"emergencyPhone"`
}

type CreateMemberSubscriptionRequest struct {
	PlanName  string     `json:"planName" binding:"required"`
	Price     float64    `json:"price" binding:"gte=0"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
}

// --- Handler Methods ---

// CreateMember godoc
// @Summary Create a member or staff account
// @Description Creates a person in the caller's gym and returns a one-time password. Members count against the plan's member limit.
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param member body CreateMemberRequest true "Person details"
// @Success 201 {object} CreateMemberResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 403 {object} gin.H "Forbidden or member limit reached"
// @Failure 409 {object} gin.H "Email already registered"
// @Router /members [post]
func (h *MemberHandler) CreateMember(c *gin.Context) {
	var req CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}
	branchID, err := optionalID(req.BranchID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid branchId format.")
		return
	}

	profile, password, err := h.memberService.CreateMember(c.Request.Context(), principalFrom(c), service.MemberInput{
		Email:            req.Email,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Phone:            req.Phone,
		Role:             req.Role,
		BranchID:         branchID,
		DateOfBirth:      req.DateOfBirth,
		EmergencyContact: req.EmergencyContact,
		EmergencyPhone:   req.EmergencyPhone,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreateMemberResponse{
		Member:            MapProfileToResponse(profile),
		TemporaryPassword: password,
	})
}

// ListMembers godoc
// @Summary List people of the gym
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param search query string false "Matches name, email or member code"
// @Param branchId query string false "Branch ObjectID Hex"
// @Param role query string false "Role"
// @Success 200 {array} ProfileResponse
// @Router /members [get]
func (h *MemberHandler) ListMembers(c *gin.Context) {
	branchID, err := optionalID(c.Query("branchId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid branchId format.")
		return
	}
	var role domain.Role
	if raw := c.Query("role"); raw != "" {
		if role, err = domain.ParseRole(raw); err != nil {
			respondError(c, err)
			return
		}
	}

	members, err := h.memberService.ListMembers(c.Request.Context(), principalFrom(c), service.MemberFilter{
		Search:   c.Query("search"),
		BranchID: branchID,
		Role:     role,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapProfilesToResponse(members))
}

// GetMember godoc
// @Summary Get a person of the gym
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path string true "Profile ObjectID Hex"
// @Success 200 {object} ProfileResponse
// @Failure 404 {object} gin.H "Member not found"
// @Router /members/{id} [get]
func (h *MemberHandler) GetMember(c *gin.Context) {
	memberID, ok := pathID(c, "id")
	if !ok {
		return
	}
	member, err := h.memberService.GetMember(c.Request.Context(), principalFrom(c), memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapProfileToResponse(member))
}

// UpdateMember godoc
// @Summary Update a person of the gym
// @Description Partial update. Becoming a member issues a member code if the person has none.
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Profile ObjectID Hex"
// @Param member body UpdateMemberRequest true "Fields to change; branchId \"\" clears the branch"
// @Success 200 {object} ProfileResponse
// @Router /members/{id} [put]
func (h *MemberHandler) UpdateMember(c *gin.Context) {
	memberID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}

	update := service.MemberUpdate{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Phone:            req.Phone,
		Role:             req.Role,
		DateOfBirth:      req.DateOfBirth,
		EmergencyContact: req.EmergencyContact,
		EmergencyPhone:   req.EmergencyPhone,
	}
	if req.BranchID != nil {
		branchID, err := optionalID(*req.BranchID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid branchId format.")
			return
		}
		update.BranchID = branchID
		update.ClearBranch = branchID == nil
	}

	member, err := h.memberService.UpdateMember(c.Request.Context(), principalFrom(c), memberID, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapProfileToResponse(member))
}

// DeactivateMember godoc
// @Summary Deactivate a person of the gym
// @Tags Members
// @Security BearerAuth
// @Param id path string true "Profile ObjectID Hex"
// @Success 204 "No Content"
// @Router /members/{id} [delete]
func (h *MemberHandler) DeactivateMember(c *gin.Context) {
	memberID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.memberService.DeactivateMember(c.Request.Context(), principalFrom(c), memberID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MemberQR godoc
// @Summary Member QR code
// @Description PNG encoding the member code, for the attendance scanner.
// @Tags Members
// @Produce png
// @Security BearerAuth
// @Param id path string true "Profile ObjectID Hex"
// @Success 200 {file} binary
// @Router /members/{id}/qr [get]
func (h *MemberHandler) MemberQR(c *gin.Context) {
	memberID, ok := pathID(c, "id")
	if !ok {
		return
	}
	png, err := h.memberService.MemberQR(c.Request.Context(), principalFrom(c), memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// CreateSubscription godoc
// @Summary Sell a membership
// @Description Replaces the member's active subscription with a new one.
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Profile ObjectID Hex"
// @Param subscription body CreateMemberSubscriptionRequest true "Membership"
// @Success 201 {object} domain.MemberSubscription
// @Router /members/{id}/subscriptions [post]
func (h *MemberHandler) CreateSubscription(c *gin.Context) {
	memberID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CreateMemberSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}

	in := service.MemberSubscriptionInput{
		PlanName: req.PlanName,
		Price:    req.Price,
		EndDate:  req.EndDate,
	}
	if req.StartDate != nil {
		in.StartDate = *req.StartDate
	}
	sub, err := h.subscriptionService.CreateMemberSubscription(c.Request.Context(), principalFrom(c), memberID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// ListSubscriptions godoc
// @Summary Membership history
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path string true "Profile ObjectID Hex"
// @Success 200 {array} domain.MemberSubscription
// @Router /members/{id}/subscriptions [get]
func (h *MemberHandler) ListSubscriptions(c *gin.Context) {
	memberID, ok := pathID(c, "id")
	if !ok {
		return
	}
	subs, err := h.subscriptionService.ListMemberSubscriptions(c.Request.Context(), principalFrom(c), memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	if subs == nil {
		subs = []domain.MemberSubscription{}
	}
	c.JSON(http.StatusOK, subs)
}
