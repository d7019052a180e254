package auth

import "time"

// AccountClass identifies one of the four disjoint credential domains.
type AccountClass string

const (
	ClassAdmin                AccountClass = "admin"
	ClassPersonnel            AccountClass = "personnel"
	ClassRecruitment          AccountClass = "recruitment"
	ClassRecruitmentPersonnel AccountClass = "recruitment_personnel"
)

// LoginPriority is the fixed order in which classes are tried during login.
// Recruitment usernames may collide conceptually with the other tables, so
// the order is a deliberate tie-break, not configurable per call.
var LoginPriority = [4]AccountClass{
	ClassRecruitment,
	ClassRecruitmentPersonnel,
	ClassPersonnel,
	ClassAdmin,
}

// Valid reports whether c is a member of the closed class set.
func (c AccountClass) Valid() bool {
	switch c {
	case ClassAdmin, ClassPersonnel, ClassRecruitment, ClassRecruitmentPersonnel:
		return true
	}
	return false
}

// SlotName returns the persisted session slot key for the class.
func (c AccountClass) SlotName() string {
	return string(c) + "_session"
}

// Functional roles derived from account records and position text.
const (
	RoleAdmin              = "admin"
	RoleOfficer            = "officer"
	RoleHR                 = "hr"
	RoleInterviewer        = "interviewer"
	RoleRecruitmentOfficer = "recruitment_officer"
	RolePersonnel          = "personnel"
	RoleEmployee           = "employee"
	RoleInspector          = "inspector"
)

// AdminAccount is a row in the admin credential table.
type AdminAccount struct {
	ID          string
	Username    string
	Email       string
	Password    string
	Role        string
	PersonnelID string
	IsActive    bool
	CreatedAt   time.Time
	LastLogin   time.Time
}

// PersonnelAccount is a row in the personnel credential table.
type PersonnelAccount struct {
	ID                 string
	Username           string
	Email              string
	Password           string
	BadgeNumber        string
	FirstName          string
	LastName           string
	Rank               string
	Designation        string
	Station            string
	IsAdmin            bool
	AdminRole          string
	AdminLevel         string
	CanManageLeaves    bool
	CanManagePersonnel bool
	CanApproveRequests bool
	CanApproveLeaves   bool
	IsActive           bool
	CreatedAt          time.Time
	LastLogin          time.Time
}

// RecruitmentAccount is a row in the shared recruitment credential table.
// It backs both the recruitment staff and candidate classes.
type RecruitmentAccount struct {
	ID               string
	Username         string
	Password         string
	FullName         string
	Position         string
	Candidate        bool
	Stage            string
	Status           string
	ScheduleDate     string
	ScheduleLocation string
	ScheduleNotes    string
	IsActive         bool
	CreatedAt        time.Time
	LastLogin        time.Time
}

// AdminDetails carries admin-class extras on a principal.
type AdminDetails struct {
	Email       string
	PersonnelID string
}

// PersonnelDetails carries personnel-class extras on a principal.
type PersonnelDetails struct {
	BadgeNumber        string
	Rank               string
	Designation        string
	Station            string
	AdminRole          string
	AdminLevel         string
	CanManageLeaves    bool
	CanManagePersonnel bool
	CanApproveRequests bool
	CanApproveLeaves   bool
}

// RecruitmentDetails carries recruitment-class extras on a principal.
type RecruitmentDetails struct {
	Position         string
	Candidate        bool
	Stage            string
	Status           string
	ScheduleDate     string
	ScheduleLocation string
	ScheduleNotes    string
}

// Principal is the authenticated identity produced by verification.
// Class and Role are the effective values after reclassification. Created
// once per successful login and immutable thereafter.
type Principal struct {
	ID          string
	Username    string
	DisplayName string
	Class       AccountClass
	Role        string
	Permissions map[string]struct{}
	IsAdmin     bool
	LastLogin   time.Time

	Admin       *AdminDetails
	Personnel   *PersonnelDetails
	Recruitment *RecruitmentDetails
}

// HasPermission reports whether the principal holds the capability token.
func (p Principal) HasPermission(key string) bool {
	_, ok := p.Permissions[key]
	return ok
}
