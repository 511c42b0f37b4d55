package entity

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAdmin    UserRole = "admin"
)

// User is the subset of the identity record the booking core reads.
type User struct {
	ID        string   `db:"id"`
	FirstName string   `db:"first_name"`
	LastName  string   `db:"last_name"`
	Email     string   `db:"email"`
	Role      UserRole `db:"role"`
	IsActive  bool     `db:"is_active"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
