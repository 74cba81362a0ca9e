package db

import (
	"time"
)

// User roles. Informational only; search gender never derives from Role.
const (
	RoleFemale     = "female"
	RoleMale       = "male"
	RoleConsultant = "consultant"
	RoleAdmin      = "admin"
)

// Account statuses. Only StatusActive owners are searchable.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// User table
type User struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement"`
	Email            string    `gorm:"uniqueIndex;size:191;not null"`
	PasswordHash     string    `gorm:"size:255;not null"`
	MemberID         string    `gorm:"uniqueIndex;size:32;not null"`
	Role             string    `gorm:"size:16"`
	Status           string    `gorm:"size:16;not null;default:pending;index"`
	MembershipPlanID string    `gorm:"size:64;not null;default:basic"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// Profile is the matchable identity of a user.
//
// UserID is unique: exactly one profile per user.
//
// Gender and MaritalStatus are free text historically; readers must go
// through the normalize package instead of trusting stored spellings.
//
// Indexes:
//   - idx_profiles_created_id(created_at DESC, id DESC)
//     Serves the newest-first search ordering.
type Profile struct {
	ID                 uint64     `gorm:"primaryKey;autoIncrement;index:idx_profiles_created_id,priority:2,sort:desc"`
	UserID             uint64     `gorm:"uniqueIndex;not null"`
	FirstName          string     `gorm:"size:100"`
	LastName           string     `gorm:"size:100"`
	Gender             string     `gorm:"size:32;index"`
	DateOfBirth        *time.Time `gorm:"index"`
	Nationality        string     `gorm:"size:100"`
	City               string     `gorm:"size:100"`
	CountryOfResidence string     `gorm:"size:100"`
	Height             *int
	Education          string    `gorm:"size:100"`
	Occupation         string    `gorm:"size:100"`
	ReligiosityLevel   string    `gorm:"size:64"`
	Religion           string    `gorm:"size:64"`
	MaritalStatus      string    `gorm:"size:64"`
	MarriageType       string    `gorm:"size:64"`
	PolygamyAcceptance string    `gorm:"size:64"`
	CompatibilityTest  string    `gorm:"size:16"`
	About              string    `gorm:"type:text"`
	GuardianName       string    `gorm:"size:100"`
	GuardianContact    string    `gorm:"size:100"`
	PhotoURL           string    `gorm:"size:512"`
	IsVerified         bool      `gorm:"not null;default:false"`
	CreatedAt          time.Time `gorm:"autoCreateTime;index:idx_profiles_created_id,priority:1,sort:desc"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

// Models lists everything AutoMigrate manages.
func Models() []any {
	return []any{&User{}, &Profile{}}
}
