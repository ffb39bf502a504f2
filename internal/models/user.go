package models

import "time"

// Role is the closed set of marketplace identity roles.
type Role string

const (
	RoleMember  Role = "user"
	RoleAdmin   Role = "admin"
	RoleCompany Role = "company"
	RoleShop    Role = "shop"
)

// User is a marketplace identity as stored in the user directory.
// CollegeID is set only for plain members; shops, companies and admins
// have no affiliation.
type User struct {
	ID        int       `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	Role      Role      `db:"role" json:"role"`
	CollegeID *int      `db:"college_id" json:"college_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
