package entity

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// RootUsername is the reserved username of the single root administrator.
// The account itself is marked by the IsRoot column; the name is reserved so
// that nobody can squat on it before the seed runs.
const RootUsername = "admin"

// DbAccount represents a persisted operator account.
type DbAccount struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Username     string    `gorm:"column:username;type:varchar(255);uniqueIndex;not null" json:"username"`
	Email        *string   `gorm:"column:email;type:varchar(255);uniqueIndex" json:"email,omitempty"`
	PasswordHash string    `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	Role         string    `gorm:"column:role;type:varchar(50);index;not null" json:"role"`
	IsRoot       bool      `gorm:"column:is_root;not null;default:false" json:"-"`
	EmailAlerts  bool      `gorm:"column:email_alerts;not null;default:true" json:"email_alerts"`
	AlertEmail   string    `gorm:"column:alert_email;type:varchar(255)" json:"alert_email,omitempty"`
}

// TableName overrides default pluralised name.
func (DbAccount) TableName() string {
	return "accounts"
}

// EmailValue returns the account email or an empty string.
func (a *DbAccount) EmailValue() string {
	if a == nil || a.Email == nil {
		return ""
	}
	return *a.Email
}

// AlertRecipient resolves the address alerts should go to: the explicit
// override first, then the account email.
func (a *DbAccount) AlertRecipient() string {
	if a == nil {
		return ""
	}
	if a.AlertEmail != "" {
		return a.AlertEmail
	}
	return a.EmailValue()
}

// AccountSummary is a hash-free account description returned to clients.
type AccountSummary struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	Role        string    `json:"role"`
	EmailAlerts bool      `json:"email_alerts"`
	AlertEmail  string    `json:"alert_email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type AuthRegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role,omitempty"`
}

type AuthLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Account   AccountSummary `json:"account"`
}

// SettingsResponse mirrors the alert preferences of one account.
type SettingsResponse struct {
	Email       string `json:"email"`
	EmailAlerts bool   `json:"email_alerts"`
	AlertEmail  string `json:"alert_email"`
}

// SettingsUpdateRequest carries optional settings changes. Changing the
// password requires the current one.
type SettingsUpdateRequest struct {
	CurrentPassword *string `json:"current_password,omitempty"`
	NewPassword     *string `json:"new_password,omitempty"`
	EmailAlerts     *bool   `json:"email_alerts,omitempty"`
	AlertEmail      *string `json:"alert_email,omitempty"`
}

type AccountCreateRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
}

type RoleUpdateRequest struct {
	Role string `json:"role" binding:"required"`
}

type AccountListResponse struct {
	Accounts []AccountSummary `json:"accounts"`
}
