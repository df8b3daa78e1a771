package service

import (
	"context"
	"strings"
	"time"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutService manages workout templates and the programs assigned from them.
type WorkoutService interface {
	CreateDefaultPlan(ctx context.Context, p domain.Principal, name, description string, data domain.PlanData) (*domain.DefaultWorkoutPlan, error)
	ListDefaultPlans(ctx context.Context, p domain.Principal) ([]domain.DefaultWorkoutPlan, error)
	DeactivateDefaultPlan(ctx context.Context, p domain.Principal, planID primitive.ObjectID) error
	AssignPlan(ctx context.Context, p domain.Principal, planID, memberID primitive.ObjectID, start time.Time, end *time.Time) (*domain.WorkoutProgram, error)
	ListPrograms(ctx context.Context, p domain.Principal) ([]domain.WorkoutProgram, error)
}

type workoutService struct {
	profiles      repository.ProfileRepository
	plans         repository.WorkoutPlanRepository
	programs      repository.WorkoutProgramRepository
	subscriptions SubscriptionService
	now           Clock
}

func NewWorkoutService(
	profiles repository.ProfileRepository,
	plans repository.WorkoutPlanRepository,
	programs repository.WorkoutProgramRepository,
	subscriptions SubscriptionService,
	clock Clock,
) WorkoutService {
	return &workoutService{
		profiles:      profiles,
		plans:         plans,
		programs:      programs,
		subscriptions: subscriptions,
		now:           clockOrSystem(clock),
	}
}

// requirePlanFeature checks the gym's plan includes feature. Lookup errors deny.
func requirePlanFeature(ctx context.Context, subs SubscriptionService, gymID primitive.ObjectID, feature string) error {
	limits, err := subs.LimitsFor(ctx, gymID)
	if err != nil || !limits.CanUseFeature(feature) {
		return ErrFeatureNotInPlan
	}
	return nil
}

func validatePlanData(data *domain.PlanData) error {
	if data.Weeks <= 0 {
		return invalid("weeks must be positive")
	}
	if data.DaysPerWeek < 1 || data.DaysPerWeek > 7 {
		return invalid("daysPerWeek must be between 1 and 7")
	}
	for i := range data.Exercises {
		data.Exercises[i].Name = strings.TrimSpace(data.Exercises[i].Name)
		if data.Exercises[i].Name == "" {
			return invalid("exercise %d has no name", i+1)
		}
	}
	return nil
}

func (s *workoutService) CreateDefaultPlan(ctx context.Context, p domain.Principal, name, description string, data domain.PlanData) (*domain.DefaultWorkoutPlan, error) {
	gymID, err := requireCap(p, domain.CapManageWorkouts)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("plan name is required")
	}
	if err := validatePlanData(&data); err != nil {
		return nil, err
	}
	if err := requirePlanFeature(ctx, s.subscriptions, gymID, domain.FeatureWorkoutPlans); err != nil {
		return nil, err
	}

	plan := &domain.DefaultWorkoutPlan{
		GymID:       gymID,
		Name:        name,
		Description: description,
		PlanData:    data,
		CreatedBy:   p.ProfileID,
		IsActive:    true,
	}
	if _, err := s.plans.Create(ctx, plan); err != nil {
		return nil, upstream(ctx, "create workout template", err)
	}
	return plan, nil
}

func (s *workoutService) ListDefaultPlans(ctx context.Context, p domain.Principal) ([]domain.DefaultWorkoutPlan, error) {
	gymID, err := requireCap(p, domain.CapManageWorkouts)
	if err != nil {
		return nil, err
	}
	plans, err := s.plans.ListActive(ctx, gymID)
	if err != nil {
		return nil, upstream(ctx, "list workout templates", err)
	}
	return plans, nil
}

func (s *workoutService) DeactivateDefaultPlan(ctx context.Context, p domain.Principal, planID primitive.ObjectID) error {
	gymID, err := requireCap(p, domain.CapManageWorkouts)
	if err != nil {
		return err
	}
	if err := s.plans.Deactivate(ctx, gymID, planID); err != nil {
		return notFoundOr(ctx, "deactivate workout template", err, ErrTemplateNotFound)
	}
	return nil
}

// AssignPlan copies a template onto a member. Later edits to the template do
// not affect the program.
func (s *workoutService) AssignPlan(ctx context.Context, p domain.Principal, planID, memberID primitive.ObjectID, start time.Time, end *time.Time) (*domain.WorkoutProgram, error) {
	gymID, err := requireCap(p, domain.CapManageWorkouts)
	if err != nil {
		return nil, err
	}
	if start.IsZero() {
		start = s.now()
	}
	if end != nil && !end.After(start) {
		return nil, invalid("end date must be after start date")
	}
	if err := requirePlanFeature(ctx, s.subscriptions, gymID, domain.FeatureWorkoutPlans); err != nil {
		return nil, err
	}

	plan, err := s.plans.GetByID(ctx, gymID, planID)
	if err != nil {
		return nil, notFoundOr(ctx, "load workout template", err, ErrTemplateNotFound)
	}
	if !plan.IsActive {
		return nil, ErrTemplateNotFound
	}
	if _, err := loadMember(ctx, s.profiles, gymID, memberID); err != nil {
		return nil, err
	}

	exercises := make([]domain.PlanExercise, len(plan.PlanData.Exercises))
	copy(exercises, plan.PlanData.Exercises)
	program := &domain.WorkoutProgram{
		GymID:       gymID,
		TemplateID:  plan.ID,
		TrainerID:   p.ProfileID,
		MemberID:    memberID,
		Name:        plan.Name,
		Description: plan.Description,
		PlanData: domain.PlanData{
			Weeks:       plan.PlanData.Weeks,
			DaysPerWeek: plan.PlanData.DaysPerWeek,
			Exercises:   exercises,
		},
		StartDate: start,
		EndDate:   end,
		IsActive:  true,
	}
	if _, err := s.programs.Create(ctx, program); err != nil {
		return nil, upstream(ctx, "create workout program", err)
	}
	return program, nil
}

// ListPrograms scopes by role: trainers see what they assigned, members what
// they were assigned, admins everything in the gym.
func (s *workoutService) ListPrograms(ctx context.Context, p domain.Principal) ([]domain.WorkoutProgram, error) {
	gymID, err := requireGym(p)
	if err != nil {
		return nil, err
	}
	filter := repository.ProgramFilter{GymID: gymID}
	self := p.ProfileID
	switch {
	case p.Role == domain.RoleMember:
		filter.MemberID = &self
	case p.Role == domain.RoleTrainer:
		filter.TrainerID = &self
	case p.Can(domain.CapManageWorkouts):
	default:
		return nil, ErrNotPermitted
	}
	programs, err := s.programs.List(ctx, filter)
	if err != nil {
		return nil, upstream(ctx, "list workout programs", err)
	}
	return programs, nil
}
