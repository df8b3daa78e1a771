package api

import (
	"fmt"
	"io"
	"net/http"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxScanImageBytes caps uploaded QR photos.
const maxScanImageBytes = 8 << 20

type AttendanceHandler struct {
	attendanceService service.AttendanceService
	reportService     service.ReportService
}

func NewAttendanceHandler(attendanceService service.AttendanceService, reportService service.ReportService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService, reportService: reportService}
}

// --- DTOs ---

type ScanRequest struct {
	Payload  string `json:"payload" binding:"required"`
	BranchID string `json:"branchId"`
}

// --- Handler Methods ---

// Scan godoc
// @Summary Scan a member QR code
// @Description Checks the member out when they have an open visit today, in otherwise.
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param scan body ScanRequest true "Scanned payload: a member code or a link ending in /member/<code>"
// @Success 200 {object} domain.ScanResult
// @Failure 404 {object} gin.H "Unknown member or branch"
// @Failure 409 {object} gin.H "Concurrent scan of the same member"
// @Router /attendance/scan [post]
func (h *AttendanceHandler) Scan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}
	branchID, ok := branchParam(c, req.BranchID)
	if !ok {
		return
	}

	result, err := h.attendanceService.Scan(c.Request.Context(), principalFrom(c), req.Payload, branchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ScanImage godoc
// @Summary Scan a photographed member QR code
// @Tags Attendance
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "PNG or JPEG containing the QR code"
// @Param branchId formData string false "Branch ObjectID Hex"
// @Success 200 {object} domain.ScanResult
// @Failure 400 {object} gin.H "No readable QR code"
// @Router /attendance/scan-image [post]
func (h *AttendanceHandler) ScanImage(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "image file is required")
		return
	}
	if header.Size > maxScanImageBytes {
		abortWithError(c, http.StatusBadRequest, "image is too large")
		return
	}
	branchID, ok := branchParam(c, c.PostForm("branchId"))
	if !ok {
		return
	}

	file, err := header.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "could not read image")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxScanImageBytes))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "could not read image")
		return
	}

	result, err := h.attendanceService.ScanImage(c.Request.Context(), principalFrom(c), data, branchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListAttendance godoc
// @Summary Attendance log
// @Description Up to 500 visits in the window, newest first. Members only see their own.
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param period query string false "today, week, month or custom"
// @Param from query string false "YYYY-MM-DD, custom period only"
// @Param to query string false "YYYY-MM-DD, custom period only"
// @Param memberId query string false "Profile ObjectID Hex"
// @Success 200 {array} service.AttendanceRow
// @Router /attendance [get]
func (h *AttendanceHandler) ListAttendance(c *gin.Context) {
	q, ok := attendanceQuery(c)
	if !ok {
		return
	}
	rows, err := h.reportService.AttendanceLog(c.Request.Context(), principalFrom(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	if rows == nil {
		rows = []service.AttendanceRow{}
	}
	c.JSON(http.StatusOK, rows)
}

// Stats godoc
// @Summary Visit count for a period
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param period query string false "today, week, month or custom"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {object} service.AttendanceStats
// @Router /attendance/stats [get]
func (h *AttendanceHandler) Stats(c *gin.Context) {
	q, ok := attendanceQuery(c)
	if !ok {
		return
	}
	stats, err := h.reportService.AttendanceStats(c.Request.Context(), principalFrom(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Overview godoc
// @Summary Today, week, month and currently inside
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.AttendanceOverview
// @Router /attendance/overview [get]
func (h *AttendanceHandler) Overview(c *gin.Context) {
	overview, err := h.reportService.Overview(c.Request.Context(), principalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// Export godoc
// @Summary Export attendance as CSV
// @Tags Attendance
// @Produce text/csv
// @Security BearerAuth
// @Param period query string false "today, week, month or custom"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {file} binary
// @Router /attendance/export [get]
func (h *AttendanceHandler) Export(c *gin.Context) {
	q, ok := attendanceQuery(c)
	if !ok {
		return
	}
	name, data, err := h.reportService.ExportAttendance(c.Request.Context(), principalFrom(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func attendanceQuery(c *gin.Context) (service.AttendanceQuery, bool) {
	memberID, err := optionalID(c.Query("memberId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid memberId format.")
		return service.AttendanceQuery{}, false
	}
	return service.AttendanceQuery{
		Period:   domain.StatsPeriod(c.Query("period")),
		From:     c.Query("from"),
		To:       c.Query("to"),
		MemberID: memberID,
	}, true
}

// branchParam parses an optional branch id; the zero id means the scanner's
// own branch.
func branchParam(c *gin.Context, hex string) (primitive.ObjectID, bool) {
	id, err := optionalID(hex)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid branchId format.")
		return primitive.NilObjectID, false
	}
	if id == nil {
		return primitive.NilObjectID, true
	}
	return *id, true
}
