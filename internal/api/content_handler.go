package api

import (
	"net/http"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/service"

	"github.com/gin-gonic/gin"
)

type ContentHandler struct {
	contentService service.ContentService
}

func NewContentHandler(contentService service.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

// --- DTOs ---

type UploadURLRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"` // MIME type of the file
}

type ConfirmUploadRequest struct {
	ObjectKey   string             `json:"objectKey" binding:"required"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	ContentType domain.ContentType `json:"contentType" binding:"required,oneof=video pdf image document"`
	IsPublic    bool               `json:"isPublic"`
	Tags        []string           `json:"tags"`
}

type DownloadURLResponse struct {
	DownloadURL string `json:"downloadUrl"`
}

// --- Handler Methods ---

// RequestUploadURL godoc
// @Summary Get a pre-signed URL to upload a content file
// @Description Upload the file with PUT to the returned URL, then confirm it.
// @Tags Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param upload body UploadURLRequest true "File details"
// @Success 200 {object} service.UploadTicket
// @Failure 403 {object} gin.H "Forbidden or feature not in plan"
// @Router /content/upload-url [post]
func (h *ContentHandler) RequestUploadURL(c *gin.Context) {
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}
	ticket, err := h.contentService.RequestUpload(c.Request.Context(), principalFrom(c), req.ContentType, req.FileName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// ConfirmUpload godoc
// @Summary Confirm an uploaded content file
// @Description Records the content item once the object exists in storage.
// @Tags Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param item body ConfirmUploadRequest true "Item metadata"
// @Success 201 {object} domain.ContentItem
// @Failure 400 {object} gin.H "Object was not uploaded or key is outside the gym"
// @Router /content [post]
func (h *ContentHandler) ConfirmUpload(c *gin.Context) {
	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}
	item, err := h.contentService.ConfirmUpload(c.Request.Context(), principalFrom(c), service.ContentInput{
		ObjectKey:   req.ObjectKey,
		Title:       req.Title,
		Description: req.Description,
		ContentType: req.ContentType,
		IsPublic:    req.IsPublic,
		Tags:        req.Tags,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// ListContent godoc
// @Summary List the content library
// @Description Members only see public items.
// @Tags Content
// @Produce json
// @Security BearerAuth
// @Param search query string false "Matches title, description or tags"
// @Success 200 {array} domain.ContentItem
// @Router /content [get]
func (h *ContentHandler) ListContent(c *gin.Context) {
	items, err := h.contentService.ListContent(c.Request.Context(), principalFrom(c), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []domain.ContentItem{}
	}
	c.JSON(http.StatusOK, items)
}

// DownloadURL godoc
// @Summary Get a pre-signed download URL
// @Tags Content
// @Produce json
// @Security BearerAuth
// @Param id path string true "Content ObjectID Hex"
// @Success 200 {object} DownloadURLResponse
// @Failure 404 {object} gin.H "Content not found"
// @Router /content/{id}/download [get]
func (h *ContentHandler) DownloadURL(c *gin.Context) {
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}
	url, err := h.contentService.DownloadURL(c.Request.Context(), principalFrom(c), itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DownloadURLResponse{DownloadURL: url})
}

// DeleteContent godoc
// @Summary Delete a content item and its file
// @Tags Content
// @Security BearerAuth
// @Param id path string true "Content ObjectID Hex"
// @Success 204 "No Content"
// @Router /content/{id} [delete]
func (h *ContentHandler) DeleteContent(c *gin.Context) {
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.contentService.DeleteContent(c.Request.Context(), principalFrom(c), itemID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
