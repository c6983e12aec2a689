package model

// Role gates creation and management actions.
type Role string

const (
	RoleStudent    Role = "STUDENT"
	RoleInstructor Role = "INSTRUCTOR"
)

// Valid reports whether the role is one the platform knows.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleInstructor
}

// Label returns the role name shown in the header and profile.
func (r Role) Label() string {
	if r == RoleInstructor {
		return "Преподаватель"
	}
	return "Студент"
}

// User is the account returned by GET /api/users/me.
type User struct {
	ID        ID     `json:"id"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// SignInRequest is the sign-in form.
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=128"`
}

// SignUpRequest is the registration form.
type SignUpRequest struct {
	FirstName string `json:"firstName" binding:"required,max=100"`
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,min=6,max=128"`
}

// AuthResponse is returned by both sign-in and sign-up.
type AuthResponse struct {
	AccessToken string `json:"accessToken" validate:"required"`
	UserID      ID     `json:"userId" validate:"required"`
	Role        Role   `json:"role" validate:"required,oneof=STUDENT INSTRUCTOR"`
}
