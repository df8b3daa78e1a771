package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/qr"
	"alcyxob/gym-saas/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const tempPasswordLength = 12

// MemberInput carries the fields of a person created by gym staff.
type MemberInput struct {
	Email            string
	FirstName        string
	LastName         string
	Phone            string
	Role             domain.Role
	BranchID         *primitive.ObjectID
	DateOfBirth      *time.Time
	EmergencyContact string
	EmergencyPhone   string
}

// MemberUpdate is a partial update; nil fields are left unchanged.
type MemberUpdate struct {
	FirstName        *string
	LastName         *string
	Phone            *string
	Role             *domain.Role
	BranchID         *primitive.ObjectID
	ClearBranch      bool
	DateOfBirth      *time.Time
	EmergencyContact *string
	EmergencyPhone   *string
}

// MemberFilter narrows ListMembers.
type MemberFilter struct {
	Search   string
	BranchID *primitive.ObjectID
	Role     domain.Role
}

// MemberService manages the people of a gym.
type MemberService interface {
	CreateMember(ctx context.Context, p domain.Principal, in MemberInput) (profile *domain.Profile, tempPassword string, err error)
	ListMembers(ctx context.Context, p domain.Principal, f MemberFilter) ([]domain.Profile, error)
	GetMember(ctx context.Context, p domain.Principal, memberID primitive.ObjectID) (*domain.Profile, error)
	UpdateMember(ctx context.Context, p domain.Principal, memberID primitive.ObjectID, in MemberUpdate) (*domain.Profile, error)
	DeactivateMember(ctx context.Context, p domain.Principal, memberID primitive.ObjectID) error
	MemberQR(ctx context.Context, p domain.Principal, memberID primitive.ObjectID) ([]byte, error)
}

type memberService struct {
	gyms          repository.GymRepository
	branches      repository.BranchRepository
	profiles      repository.ProfileRepository
	codes         *CodeIssuer
	subscriptions SubscriptionService
	audit         *Auditor
}

func NewMemberService(
	gyms repository.GymRepository,
	branches repository.BranchRepository,
	profiles repository.ProfileRepository,
	codes *CodeIssuer,
	subscriptions SubscriptionService,
	audit *Auditor,
) MemberService {
	return &memberService{
		gyms:          gyms,
		branches:      branches,
		profiles:      profiles,
		codes:         codes,
		subscriptions: subscriptions,
		audit:         audit,
	}
}

// authorizeRole checks that p may give someone role.
func authorizeRole(p domain.Principal, role domain.Role) error {
	if role == domain.RoleSuperAdmin {
		return ErrNotPermitted
	}
	if role != domain.RoleMember && !p.Can(domain.CapManageStaff) {
		return ErrNotPermitted
	}
	return nil
}

func (s *memberService) checkMemberCap(ctx context.Context, gymID primitive.ObjectID) error {
	limits, err := s.subscriptions.LimitsFor(ctx, gymID)
	if err != nil || !limits.CanAddMembers() {
		return ErrMemberLimitReached
	}
	return nil
}

func (s *memberService) checkBranch(ctx context.Context, gymID primitive.ObjectID, branchID *primitive.ObjectID) error {
	if branchID == nil {
		return nil
	}
	if _, err := s.branches.GetByID(ctx, gymID, *branchID); err != nil {
		return notFoundOr(ctx, "load branch", err, ErrBranchNotFound)
	}
	return nil
}

func (s *memberService) issueMemberCode(ctx context.Context, gymID primitive.ObjectID) (string, error) {
	gym, err := s.gyms.GetByID(ctx, gymID)
	if err != nil {
		return "", notFoundOr(ctx, "load gym", err, ErrGymNotFound)
	}
	code, err := s.codes.NextMemberCode(ctx, gym.ID, gym.GymCode)
	if err != nil {
		return "", upstream(ctx, "issue member code", err)
	}
	return code, nil
}

func newTempPassword() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:tempPasswordLength]
}

// CreateMember creates a person in the actor's gym with a one-time password.
func (s *memberService) CreateMember(ctx context.Context, p domain.Principal, in MemberInput) (*domain.Profile, string, error) {
	gymID, err := requireCap(p, domain.CapManageMembers)
	if err != nil {
		return nil, "", err
	}
	if in.Role == "" {
		in.Role = domain.RoleMember
	}
	if !in.Role.Valid() {
		return nil, "", invalid("unknown role %q", in.Role)
	}
	if err := authorizeRole(p, in.Role); err != nil {
		return nil, "", err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", invalid("invalid email address")
	}
	if strings.TrimSpace(in.FirstName) == "" {
		return nil, "", invalid("first name is required")
	}
	if in.Role == domain.RoleMember {
		if err := s.checkMemberCap(ctx, gymID); err != nil {
			return nil, "", err
		}
	}
	if err := s.checkBranch(ctx, gymID, in.BranchID); err != nil {
		return nil, "", err
	}

	password := newTempPassword()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", upstream(ctx, "hash password", err)
	}

	profile := &domain.Profile{
		Email:            email,
		PasswordHash:     string(hash),
		FirstName:        strings.TrimSpace(in.FirstName),
		LastName:         strings.TrimSpace(in.LastName),
		Phone:            in.Phone,
		DateOfBirth:      in.DateOfBirth,
		EmergencyContact: in.EmergencyContact,
		EmergencyPhone:   in.EmergencyPhone,
		Role:             in.Role,
		GymID:            &gymID,
		BranchID:         in.BranchID,
		IsActive:         true,
	}
	if in.Role == domain.RoleMember {
		if profile.MemberCode, err = s.issueMemberCode(ctx, gymID); err != nil {
			return nil, "", err
		}
	}

	if _, err := s.profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", upstream(ctx, "create member", err)
	}

	s.audit.Record(ctx, domain.AuditMemberCreated, &gymID, p.ProfileID, "profiles", profile.ID, map[string]any{
		"role":       profile.Role,
		"memberCode": profile.MemberCode,
	})
	return profile, password, nil
}

// ListMembers is available to every non-member role of the gym.
func (s *memberService) ListMembers(ctx context.Context, p domain.Principal, f MemberFilter) ([]domain.Profile, error) {
	gymID, err := requireGym(p)
	if err != nil {
		return nil, err
	}
	if p.Role == domain.RoleMember {
		return nil, ErrNotPermitted
	}
	profiles, err := s.profiles.List(ctx, repository.ProfileFilter{
		GymID:    &gymID,
		BranchID: f.BranchID,
		Role:     f.Role,
		Search:   f.Search,
	})
	if err != nil {
		return nil, upstream(ctx, "list members", err)
	}
	return profiles, nil
}

// GetMember returns a person of the actor's gym. Members may only see
// themselves.
func (s *memberService) GetMember(ctx context.Context, p domain.Principal, memberID primitive.ObjectID) (*domain.Profile, error) {
	gymID, err := requireGym(p)
	if err != nil {
		return nil, err
	}
	if p.Role == domain.RoleMember && p.ProfileID != memberID {
		return nil, ErrNotPermitted
	}
	profile, err := s.profiles.GetByID(ctx, memberID)
	if err != nil {
		return nil, notFoundOr(ctx, "load member", err, ErrMemberNotFound)
	}
	if !profile.BelongsTo(gymID) {
		return nil, ErrMemberNotFound
	}
	return profile, nil
}

// loadManaged loads a person the actor may modify: staff without
// manage_staff only touch members.
func (s *memberService) loadManaged(ctx context.Context, p domain.Principal, memberID primitive.ObjectID) (primitive.ObjectID, *domain.Profile, error) {
	gymID, err := requireCap(p, domain.CapManageMembers)
	if err != nil {
		return gymID, nil, err
	}
	profile, err := s.profiles.GetByID(ctx, memberID)
	if err != nil {
		return gymID, nil, notFoundOr(ctx, "load member", err, ErrMemberNotFound)
	}
	if !profile.BelongsTo(gymID) {
		return gymID, nil, ErrMemberNotFound
	}
	if !profile.IsMember() && !p.Can(domain.CapManageStaff) {
		return gymID, nil, ErrNotPermitted
	}
	return gymID, profile, nil
}

func (s *memberService) UpdateMember(ctx context.Context, p domain.Principal, memberID primitive.ObjectID, in MemberUpdate) (*domain.Profile, error) {
	gymID, profile, err := s.loadManaged(ctx, p, memberID)
	if err != nil {
		return nil, err
	}

	oldRole := profile.Role
	if in.Role != nil && *in.Role != oldRole {
		if !in.Role.Valid() {
			return nil, invalid("unknown role %q", *in.Role)
		}
		if err := authorizeRole(p, *in.Role); err != nil {
			return nil, err
		}
		if *in.Role == domain.RoleMember {
			if err := s.checkMemberCap(ctx, gymID); err != nil {
				return nil, err
			}
		}
		profile.Role = *in.Role
	}
	if in.FirstName != nil {
		if strings.TrimSpace(*in.FirstName) == "" {
			return nil, invalid("first name cannot be empty")
		}
		profile.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		profile.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		profile.Phone = *in.Phone
	}
	if in.EmergencyContact != nil {
		profile.EmergencyContact = *in.EmergencyContact
	}
	if in.EmergencyPhone != nil {
		profile.EmergencyPhone = *in.EmergencyPhone
	}
	if in.DateOfBirth != nil {
		profile.DateOfBirth = in.DateOfBirth
	}
	if in.ClearBranch {
		profile.BranchID = nil
	} else if in.BranchID != nil {
		if err := s.checkBranch(ctx, gymID, in.BranchID); err != nil {
			return nil, err
		}
		profile.BranchID = in.BranchID
	}

	// Becoming a member issues a code once; it is written together with the
	// role so a failed issue leaves the profile unchanged.
	if profile.IsMember() && profile.MemberCode == "" {
		code, err := s.issueMemberCode(ctx, gymID)
		if err != nil {
			return nil, err
		}
		if err := s.profiles.UpdateAssigningCode(ctx, profile, code); err != nil {
			return nil, notFoundOr(ctx, "update member", err, ErrMemberNotFound)
		}
	} else if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, notFoundOr(ctx, "update member", err, ErrMemberNotFound)
	}

	if profile.Role != oldRole {
		s.audit.Record(ctx, domain.AuditMemberRoleChanged, &gymID, p.ProfileID, "profiles", profile.ID, map[string]any{
			"from": oldRole,
			"to":   profile.Role,
		})
	}
	return profile, nil
}

func (s *memberService) DeactivateMember(ctx context.Context, p domain.Principal, memberID primitive.ObjectID) error {
	if p.ProfileID == memberID {
		return invalid("cannot deactivate yourself")
	}
	gymID, _, err := s.loadManaged(ctx, p, memberID)
	if err != nil {
		return err
	}
	if err := s.profiles.SetActive(ctx, gymID, memberID, false); err != nil {
		return notFoundOr(ctx, "deactivate member", err, ErrMemberNotFound)
	}
	s.audit.Record(ctx, domain.AuditMemberDeactivated, &gymID, p.ProfileID, "profiles", memberID, nil)
	return nil
}

// MemberQR renders the member's code as a PNG for the scanner.
func (s *memberService) MemberQR(ctx context.Context, p domain.Principal, memberID primitive.ObjectID) ([]byte, error) {
	profile, err := s.GetMember(ctx, p, memberID)
	if err != nil {
		return nil, err
	}
	if profile.MemberCode == "" {
		return nil, ErrMemberNotFound
	}
	png, err := qr.Encode(profile.MemberCode, qr.DefaultSize)
	if err != nil {
		return nil, upstream(ctx, "encode member qr", err)
	}
	return png, nil
}
