package models

// Role is the acting role of a platform user.
type Role string

const (
	RoleResident Role = "resident"
	RoleBusiness Role = "business"
	RoleDriver   Role = "driver"
	RoleRecycler Role = "recycler"
	RoleCouncil  Role = "council"
	RoleAdmin    Role = "admin"
)

// IsRequester reports whether the role may submit pickup requests.
func (r Role) IsRequester() bool {
	return r == RoleResident || r == RoleBusiness
}

// IsSupervisor reports whether the role may override assignments.
func (r Role) IsSupervisor() bool {
	return r == RoleCouncil || r == RoleAdmin
}

// User struct matches the document in MongoDB
type User struct {
	UserID     string `bson:"userId" json:"userId"`
	Email      string `bson:"email" json:"email"`
	Name       string `bson:"name" json:"name"`
	Role       Role   `bson:"role" json:"role"`
	FacilityID string `bson:"facilityId,omitempty" json:"facilityId,omitempty"`
	Status     string `bson:"status" json:"status"`
}
