package models

// User is a static credential entry used by the login layer. Roles map to the
// teams that sign off on workflow steps (Business Team, Integration, QA,
// Finance).
type User struct {
	Username string `json:"username"`
	Password string `json:"-"`
	Role     string `json:"role"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Role constants as supplied by the identity layer.
const (
	RoleBusinessTeam = "Business Team"
	RoleIntegration  = "Integration"
	RoleQA           = "QA"
	RoleFinance      = "Finance"
)
