package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var fullFeatures = map[string]bool{
	domain.FeatureClassBooking:   true,
	domain.FeatureWorkoutPlans:   true,
	domain.FeatureContentLibrary: true,
	domain.FeatureReports:        true,
}

func sampleWorkout() domain.PlanData {
	return domain.PlanData{
		Weeks:       4,
		DaysPerWeek: 3,
		Exercises: []domain.PlanExercise{
			{Name: " Squat ", Sets: 5, Reps: "5"},
			{Name: "Bench press", Sets: 5, Reps: "5"},
		},
	}
}

func TestWorkoutTemplatesNeedPlanFeature(t *testing.T) {
	w := newWorld()
	gym := w.newTenant("Acme", "AC")

	_, err := w.workouts.CreateDefaultPlan(context.Background(), gym.admin, "Strength", "", sampleWorkout())
	assert.ErrorIs(t, err, ErrFeatureNotInPlan)
	assert.ErrorIs(t, domain.Kind(err), domain.ErrForbidden)
}

func TestAssignWorkoutCopiesTemplate(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	gym := w.newTenant("Acme", "AC")
	w.plan(gym, domain.SubscriptionPlan{Name: "Enterprise", Features: fullFeatures})
	trainer, _ := w.staff(gym, domain.RoleTrainer, "tom@example.com")
	ann, member := w.staff(gym, domain.RoleMember, "ann@example.com")

	template, err := w.workouts.CreateDefaultPlan(ctx, trainer, "Strength", "Linear progression", sampleWorkout())
	require.NoError(t, err)
	assert.Equal(t, "Squat", template.PlanData.Exercises[0].Name)

	program, err := w.workouts.AssignPlan(ctx, trainer, template.ID, member.ID, time.Time{}, nil)
	require.NoError(t, err)
	assert.Equal(t, testEpoch, program.StartDate)
	assert.Equal(t, template.ID, program.TemplateID)

	// Editing the stored template afterwards leaves the program alone.
	stored := w.workoutPlans.byID[template.ID]
	stored.PlanData.Exercises[0].Name = "Front squat"
	assert.Equal(t, "Squat", program.PlanData.Exercises[0].Name)

	mine, err := w.workouts.ListPrograms(ctx, ann)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	assigned, err := w.workouts.ListPrograms(ctx, trainer)
	require.NoError(t, err)
	assert.Len(t, assigned, 1)

	require.NoError(t, w.workouts.DeactivateDefaultPlan(ctx, trainer, template.ID))
	_, err = w.workouts.AssignPlan(ctx, trainer, template.ID, member.ID, time.Time{}, nil)
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	templates, err := w.workouts.ListDefaultPlans(ctx, gym.admin)
	require.NoError(t, err)
	assert.Empty(t, templates)
}

func TestWorkoutValidation(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	gym := w.newTenant("Acme", "AC")
	w.plan(gym, domain.SubscriptionPlan{Name: "Enterprise", Features: fullFeatures})
	ann, _ := w.staff(gym, domain.RoleMember, "ann@example.com")

	bad := sampleWorkout()
	bad.DaysPerWeek = 8
	_, err := w.workouts.CreateDefaultPlan(ctx, gym.admin, "Strength", "", bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad = sampleWorkout()
	bad.Exercises[1].Name = ""
	_, err = w.workouts.CreateDefaultPlan(ctx, gym.admin, "Strength", "", bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = w.workouts.CreateDefaultPlan(ctx, ann, "Strength", "", sampleWorkout())
	assert.ErrorIs(t, err, ErrNotPermitted)

	template, err := w.workouts.CreateDefaultPlan(ctx, gym.admin, "Strength", "", sampleWorkout())
	require.NoError(t, err)
	_, err = w.workouts.AssignPlan(ctx, gym.admin, template.ID, primitive.NewObjectID(), time.Time{}, nil)
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, err = w.workouts.AssignPlan(ctx, gym.admin, template.ID, ann.ProfileID, testEpoch, timePtr(testEpoch))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestContentUploadFlow(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	gym := w.newTenant("Acme", "AC")
	w.plan(gym, domain.SubscriptionPlan{Name: "Enterprise", Features: fullFeatures})
	ann, _ := w.staff(gym, domain.RoleMember, "ann@example.com")

	ticket, err := w.library.RequestUpload(ctx, gym.admin, "video/mp4", "Warm Up.MP4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ticket.ObjectKey, storage.ContentPrefix(gym.gym.ID)))
	assert.True(t, strings.HasSuffix(ticket.ObjectKey, ".mp4"))
	assert.Equal(t, testEpoch.Add(storage.DefaultPresignedURLExpiry), ticket.ExpiresAt)

	// Confirming before the client uploaded fails.
	in := ContentInput{ObjectKey: ticket.ObjectKey, ContentType: domain.ContentVideo, IsPublic: true, Tags: []string{" warmup ", ""}}
	_, err = w.library.ConfirmUpload(ctx, gym.admin, in)
	assert.ErrorIs(t, err, ErrUploadMissing)

	w.files.objects[ticket.ObjectKey] = true
	item, err := w.library.ConfirmUpload(ctx, gym.admin, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"warmup"}, item.Tags)
	assert.NotEmpty(t, item.Title)

	private, err := w.library.RequestUpload(ctx, gym.admin, "application/pdf", "staff.pdf")
	require.NoError(t, err)
	w.files.objects[private.ObjectKey] = true
	hidden, err := w.library.ConfirmUpload(ctx, gym.admin, ContentInput{ObjectKey: private.ObjectKey, Title: "Staff handbook", ContentType: domain.ContentPDF})
	require.NoError(t, err)

	visible, err := w.library.ListContent(ctx, ann, "")
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, item.ID, visible[0].ID)

	url, err := w.library.DownloadURL(ctx, ann, item.ID)
	require.NoError(t, err)
	assert.Contains(t, url, item.ObjectKey)

	_, err = w.library.DownloadURL(ctx, ann, hidden.ID)
	assert.ErrorIs(t, err, ErrContentNotFound)

	require.NoError(t, w.library.DeleteContent(ctx, gym.admin, item.ID))
	assert.Equal(t, []string{item.ObjectKey}, w.files.deleted)
	assert.ErrorIs(t, w.library.DeleteContent(ctx, gym.admin, item.ID), ErrContentNotFound)
}

func TestConfirmUploadRejectsForeignKeys(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	gym := w.newTenant("Acme", "AC")
	other := w.newTenant("Other", "OG")
	w.plan(gym, domain.SubscriptionPlan{Name: "Enterprise", Features: fullFeatures})

	foreign := storage.NewContentKey(other.gym.ID, "plan.pdf")
	w.files.objects[foreign] = true
	_, err := w.library.ConfirmUpload(ctx, gym.admin, ContentInput{ObjectKey: foreign, ContentType: domain.ContentPDF})
	assert.ErrorIs(t, err, domain.ErrValidation)

	sneaky := storage.ContentPrefix(gym.gym.ID) + "../" + other.gym.ID.Hex() + "/plan.pdf"
	_, err = w.library.ConfirmUpload(ctx, gym.admin, ContentInput{ObjectKey: sneaky, ContentType: domain.ContentPDF})
	assert.ErrorIs(t, err, domain.ErrValidation)

	own := storage.NewContentKey(gym.gym.ID, "plan.pdf")
	_, err = w.library.ConfirmUpload(ctx, gym.admin, ContentInput{ObjectKey: own, ContentType: "spreadsheet"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNotifications(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	gym := w.newTenant("Acme", "AC")
	other := w.newTenant("Other", "OG")
	ann, annProfile := w.staff(gym, domain.RoleMember, "ann@example.com")
	bob, _ := w.staff(gym, domain.RoleMember, "bob@example.com")
	_, stranger := w.staff(other, domain.RoleMember, "zed@example.com")

	broadcast, err := w.notify.Send(ctx, gym.admin, nil, "Closed Monday", "Holiday hours", "")
	require.NoError(t, err)
	assert.Equal(t, domain.NotificationGeneral, broadcast.Type)

	direct, err := w.notify.Send(ctx, gym.admin, &annProfile.ID, "Locker", "Please empty locker 12", domain.NotificationGeneral)
	require.NoError(t, err)

	_, err = w.notify.Send(ctx, gym.admin, &stranger.ID, "Hi", "there", "")
	assert.ErrorIs(t, err, ErrProfileNotFound)
	_, err = w.notify.Send(ctx, ann, nil, "Hi", "all", "")
	assert.ErrorIs(t, err, ErrNotPermitted)
	_, err = w.notify.Send(ctx, gym.admin, nil, " ", "empty title", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	annInbox, err := w.notify.ListForRecipient(ctx, ann)
	require.NoError(t, err)
	require.Len(t, annInbox, 2)
	assert.Equal(t, direct.ID, annInbox[0].ID)

	bobInbox, err := w.notify.ListForRecipient(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, bobInbox, 1)

	require.NoError(t, w.notify.MarkRead(ctx, ann, direct.ID))
	assert.ErrorIs(t, w.notify.MarkRead(ctx, bob, direct.ID), ErrNotificationNotFound)
}
