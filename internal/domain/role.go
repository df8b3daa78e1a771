package domain

import "fmt"

// Role is the closed set of roles a profile can hold.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleGymAdmin   Role = "gym_admin"
	RoleTrainer    Role = "trainer"
	RoleStaff      Role = "staff"
	RoleMember     Role = "member"
)

// AllRoles lists every role in privilege order.
var AllRoles = []Role{RoleSuperAdmin, RoleGymAdmin, RoleTrainer, RoleStaff, RoleMember}

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleGymAdmin, RoleTrainer, RoleStaff, RoleMember:
		return true
	}
	return false
}

// Capability is a named permission derived from a role.
type Capability string

const (
	CapManagePlatform            Capability = "manage_platform"
	CapManageGym                 Capability = "manage_gym"
	CapManageMembers             Capability = "manage_members"
	CapManageStaff               Capability = "manage_staff"
	CapScanAttendance            Capability = "scan_attendance"
	CapViewAttendance            Capability = "view_attendance"
	CapManageClasses             Capability = "manage_classes"
	CapBookClasses               Capability = "book_classes"
	CapManageWorkouts            Capability = "manage_workouts"
	CapManageContent             Capability = "manage_content"
	CapViewContent               Capability = "view_content"
	CapViewReports               Capability = "view_reports"
	CapExportReports             Capability = "export_reports"
	CapManageMemberSubscriptions Capability = "manage_member_subscriptions"
	CapSendNotifications         Capability = "send_notifications"
)

// CapabilitySet is an immutable lookup of capabilities.
type CapabilitySet map[Capability]struct{}

func newCapabilitySet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether c is in the set.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// Capabilities returns the capability set granted to r. Unknown roles get
// an empty set.
func (r Role) Capabilities() CapabilitySet {
	switch r {
	case RoleSuperAdmin:
		return newCapabilitySet(CapManagePlatform)
	case RoleGymAdmin:
		return newCapabilitySet(
			CapManageGym, CapManageMembers, CapManageStaff, CapScanAttendance,
			CapViewAttendance, CapManageClasses, CapManageWorkouts, CapManageContent,
			CapViewContent, CapViewReports, CapExportReports,
			CapManageMemberSubscriptions, CapSendNotifications,
		)
	case RoleTrainer:
		return newCapabilitySet(
			CapViewAttendance, CapManageClasses, CapManageWorkouts,
			CapManageContent, CapViewContent, CapViewReports,
		)
	case RoleStaff:
		return newCapabilitySet(
			CapManageMembers, CapScanAttendance, CapViewAttendance, CapViewContent,
			CapViewReports, CapExportReports, CapManageMemberSubscriptions,
			CapSendNotifications,
		)
	case RoleMember:
		return newCapabilitySet(CapBookClasses, CapViewContent, CapViewReports)
	default:
		return CapabilitySet{}
	}
}

// Can is shorthand for r.Capabilities().Has(c).
func (r Role) Can(c Capability) bool {
	return r.Capabilities().Has(c)
}
