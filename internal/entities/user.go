package entities

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

const (
	RoleAdmin    = "admin"
	RoleStaff    = "staff"
	RoleCustomer = "customer"
)

const (
	PermissionManageUsers        = "manage_users"
	PermissionManageOrders       = "manage_orders"
	PermissionViewAll            = "view_all"
	PermissionManageSystem       = "manage_system"
	PermissionViewAssignedOrders = "view_assigned_orders"
	PermissionViewOwnOrders      = "view_own_orders"
	PermissionCreateOrders       = "create_orders"
)

func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleStaff || role == RoleCustomer
}

// PermissionsForRole returns nil for unknown roles.
func PermissionsForRole(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{PermissionManageUsers, PermissionManageOrders, PermissionViewAll, PermissionManageSystem}
	case RoleStaff:
		return []string{PermissionManageOrders, PermissionViewAssignedOrders}
	case RoleCustomer:
		return []string{PermissionViewOwnOrders, PermissionCreateOrders}
	default:
		return nil
	}
}

type User struct {
	ID          string         `db:"id"`
	FirstName   string         `db:"first_name"`
	MiddleName  string         `db:"middle_name"`
	LastName    string         `db:"last_name"`
	UserName    string         `db:"user_name"`
	Email       string         `db:"email"`
	Password    string         `db:"password"`
	Role        string         `db:"role"`
	Permissions pq.StringArray `db:"permissions"`
	CreatedAt   time.Time      `db:"created_at"`
	LastLogin   sql.NullTime   `db:"last_login"`
}

func (u User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}

	return false
}

func (u User) HasAnyPermission(permissions ...string) bool {
	for _, p := range permissions {
		if u.HasPermission(p) {
			return true
		}
	}

	return false
}

func (u User) IsCustomer() bool {
	return u.Role == RoleCustomer
}

func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.UserName
	}
}
