package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanExercise is one entry of a workout template.
type PlanExercise struct {
	Name  string `bson:"name" json:"name" binding:"required"`
	Sets  int    `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps  string `bson:"reps,omitempty" json:"reps,omitempty"`
	Rest  string `bson:"rest,omitempty" json:"rest,omitempty"`
	Day   int    `bson:"day,omitempty" json:"day,omitempty"`
	Notes string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// PlanData is the body of a workout template.
type PlanData struct {
	Weeks       int            `bson:"weeks" json:"weeks"`
	DaysPerWeek int            `bson:"daysPerWeek" json:"daysPerWeek"`
	Exercises   []PlanExercise `bson:"exercises" json:"exercises"`
}

// DefaultWorkoutPlan is a reusable template owned by a gym.
type DefaultWorkoutPlan struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GymID       primitive.ObjectID `bson:"gymId" json:"gymId"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	PlanData    PlanData           `bson:"planData" json:"planData"`
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutProgram is a template copied onto a member by a trainer.
type WorkoutProgram struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GymID       primitive.ObjectID `bson:"gymId" json:"gymId"`
	TemplateID  primitive.ObjectID `bson:"templateId" json:"templateId"`
	TrainerID   primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	MemberID    primitive.ObjectID `bson:"memberId" json:"memberId"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	PlanData    PlanData           `bson:"planData" json:"planData"`
	StartDate   time.Time          `bson:"startDate" json:"startDate"`
	EndDate     *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
