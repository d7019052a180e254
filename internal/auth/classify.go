package auth

import "strings"

// Permission tokens granted through the role table.
const (
	PermRead               = "read"
	PermWrite              = "write"
	PermDelete             = "delete"
	PermManageUsers        = "manage_users"
	PermViewReports        = "view_reports"
	PermManageApplications = "manage_applications"
	PermScheduleInterviews = "schedule_interviews"
	PermWriteInterviewNote = "write_interview_notes"
	PermRateCandidates     = "rate_candidates"
	PermManageCandidates   = "manage_candidates"
)

// rolePermissions is the fixed role-to-capability lookup table. Every role
// resolves to a non-empty set; unknown roles fall back to the personnel row.
var rolePermissions = map[string][]string{
	RoleAdmin:              {PermRead, PermWrite, PermDelete, PermManageUsers, PermViewReports, PermManageApplications},
	RoleOfficer:            {PermRead, PermWrite, PermViewReports, PermManageApplications},
	RoleHR:                 {PermRead, PermWrite, PermManageApplications, PermScheduleInterviews},
	RoleInterviewer:        {PermRead, PermWriteInterviewNote, PermRateCandidates},
	RoleRecruitmentOfficer: {PermRead, PermWrite, PermManageApplications, PermViewReports, PermManageCandidates},
	RolePersonnel:          {PermRead},
	RoleEmployee:           {PermRead},
	RoleInspector:          {PermRead, PermViewReports},
}

// PermissionsForRole returns a fresh permission set for the role.
func PermissionsForRole(role string) map[string]struct{} {
	keys, ok := rolePermissions[role]
	if !ok {
		keys = rolePermissions[RolePersonnel]
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// DeriveRole maps free-text position to a functional role. Matching is
// case-insensitive substring, first match wins; the precedence order is part
// of the contract ("Recruitment Officer" derives officer, not
// recruitment_officer).
func DeriveRole(position string) string {
	pos := strings.ToLower(strings.TrimSpace(position))
	if pos == "" {
		return RolePersonnel
	}
	switch {
	case containsAny(pos, "admin", "head", "chief"):
		return RoleAdmin
	case containsAny(pos, "officer", "coordinator"):
		return RoleOfficer
	case containsAny(pos, "hr", "human resources"):
		return RoleHR
	case strings.Contains(pos, "interview"):
		return RoleInterviewer
	case strings.Contains(pos, "recruitment"):
		return RoleRecruitmentOfficer
	default:
		return RolePersonnel
	}
}

// staffRoles are the derived roles that mark a recruitment record as staff
// rather than candidate.
var staffRoles = map[string]struct{}{
	RoleAdmin:              {},
	RoleOfficer:            {},
	RoleHR:                 {},
	RoleRecruitmentOfficer: {},
}

// ReclassifyRecruitment corrects the requested class so the effective class
// always matches the derived role family, regardless of which class the
// caller guessed. Only meaningful for the two recruitment-backed classes.
func ReclassifyRecruitment(requested AccountClass, role, position string) AccountClass {
	if _, staff := staffRoles[role]; requested == ClassRecruitmentPersonnel && staff {
		return ClassRecruitment
	}
	if requested == ClassRecruitment {
		if role == RolePersonnel || !strings.Contains(strings.ToLower(position), "recruitment") {
			return ClassRecruitmentPersonnel
		}
	}
	return requested
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
