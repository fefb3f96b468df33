package model

// AttendanceRecord is one entry of the attendance ledger.
type AttendanceRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"` // RFC 3339, UTC, millisecond precision
	Date      string `json:"date"`      // YYYY-MM-DD, derived from Timestamp
}

// Role identifies what an authenticated identity is allowed to see.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// ValidRoles lists the roles accepted at login.
var ValidRoles = []Role{RoleAdmin, RoleStudent}

// ParseRole converts a flag value into a Role.
func ParseRole(s string) (Role, bool) {
	for _, r := range ValidRoles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// RegisteredUser is an entry of the user directory.
//
// Password is only read from blobs written before hashing was introduced;
// new entries carry PasswordHash alone.
type RegisteredUser struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	PasswordHash       string `json:"passwordHash,omitempty"`
	Password           string `json:"password,omitempty"`
	Role               Role   `json:"role"`
	FaceDataRegistered bool   `json:"faceDataRegistered"`
}

// AuthState captures the currently logged-in identity.
type AuthState struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	UserRole        Role   `json:"userRole,omitempty"`
	UserName        string `json:"userName,omitempty"`
	UserID          string `json:"userId,omitempty"`
}

// Result reports the outcome of an operation whose failure is expected
// (validation, duplicates, unknown ids). It is a value, not an error.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Ok builds a successful Result.
func Ok(message string) Result {
	return Result{Success: true, Message: message}
}

// Fail builds a failed Result.
func Fail(message string) Result {
	return Result{Success: false, Message: message}
}
