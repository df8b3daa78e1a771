package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContentType classifies a content library item.
type ContentType string

const (
	ContentVideo    ContentType = "video"
	ContentPDF      ContentType = "pdf"
	ContentImage    ContentType = "image"
	ContentDocument ContentType = "document"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentVideo, ContentPDF, ContentImage, ContentDocument:
		return true
	}
	return false
}

// ContentItem is an uploaded file in a gym's library.
type ContentItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GymID       primitive.ObjectID `bson:"gymId" json:"gymId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	ContentType ContentType        `bson:"contentType" json:"contentType"`
	ObjectKey   string             `bson:"objectKey" json:"objectKey"`
	FileName    string             `bson:"fileName" json:"fileName"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	IsPublic    bool               `bson:"isPublic" json:"isPublic"`
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// CleanTags trims tags and drops empty ones.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
