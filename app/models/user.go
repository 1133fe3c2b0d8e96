package models

// User is a row of the users table.
type User struct {
	Model
	Name     string `db:"name"      json:"name"`
	Email    string `db:"email"     json:"email"`
	Password string `db:"password"  json:"-"`
	IsActive int    `db:"is_active" json:"is_active"`
	Avatar   string `db:"avatar"    json:"avatar"`
	Token    string `db:"token"     json:"-"`
}

func (User) TableName() string { return "users" }

// Active reports whether the account may sign in.
func (u *User) Active() bool { return u.IsActive == 1 && u.DeletedAt == nil }
