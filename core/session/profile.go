package session

// Profile is the identity cached alongside a token pair. It is replaced
// wholesale on every successful login or profile fetch, never patched.
//
// A user may hold several role flags at once (e.g. both teacher and parent);
// route decisions tie-break on a fixed priority (admin > teacher > parent).
type Profile struct {
	ID         int    `json:"id"`
	Username   string `json:"username,omitempty"`
	Email      string `json:"email,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	MiddleName string `json:"middle_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`

	IsAdmin      bool `json:"isAdmin,omitempty"`
	IsAccountant bool `json:"isAccountant,omitempty"`
	IsTeacher    bool `json:"isTeacher,omitempty"`
	IsParent     bool `json:"isParent,omitempty"`
	IsStudent    bool `json:"isStudent,omitempty"`

	// student-portal only
	StudentID       int    `json:"student_id,omitempty"`
	AdmissionNumber string `json:"admission_number,omitempty"`
	PhoneNumber     string `json:"phone_number,omitempty"`
	ClassroomName   string `json:"classroom_name,omitempty"`
}

// HasRole reports whether the profile carries the given role flag.
func (p *Profile) HasRole(role string) bool {
	if p == nil {
		return false
	}
	switch role {
	case RoleAdmin:
		return p.IsAdmin
	case RoleAccountant:
		return p.IsAccountant
	case RoleTeacher:
		return p.IsTeacher
	case RoleParent:
		return p.IsParent
	case RoleStudent:
		return p.IsStudent
	}
	return false
}

// Roles
const (
	RoleAdmin      = "admin"
	RoleAccountant = "accountant"
	RoleTeacher    = "teacher"
	RoleParent     = "parent"
	RoleStudent    = "student"
)
