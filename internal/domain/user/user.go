package user

import (
	"time"

	"skillswap/internal/domain/skill"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	MaxRating = 5.0
)

// User represents a member of the skill exchange
type User struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Seq           int64          `json:"-" gorm:"autoIncrement;->"`
	Name          string         `json:"name" gorm:"not null"`
	Email         string         `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash  string         `json:"-" gorm:"column:password_hash;not null"`
	Location      string         `json:"location,omitempty"`
	Availability  string         `json:"availability"`
	IsPublic      bool           `json:"is_public" gorm:"not null"`
	Active        bool           `json:"active" gorm:"not null"`
	Role          string         `json:"role" gorm:"not null;default:user"`
	Rating        float64        `json:"rating" gorm:"not null;default:0"`
	SkillsOffered pq.StringArray `json:"skills_offered" gorm:"type:text[];not null"`
	SkillsWanted  pq.StringArray `json:"skills_wanted" gorm:"type:text[];not null"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TableName pins the gorm table name.
func (User) TableName() string { return "users" }

// CreateUserRequest represents the registration payload
type CreateUserRequest struct {
	Name          string   `json:"name" validate:"required,min=1,max=100"`
	Email         string   `json:"email" validate:"required,email,max=254"`
	Password      string   `json:"password" validate:"required,min=6,max=72"`
	Location      string   `json:"location" validate:"max=100"`
	Availability  string   `json:"availability" validate:"max=100"`
	SkillsOffered []string `json:"skills_offered" validate:"max=50,dive,max=64"`
	SkillsWanted  []string `json:"skills_wanted" validate:"max=50,dive,max=64"`
	IsPublic      bool     `json:"is_public"`
}

// UpdateSkillsRequest replaces both skill sets of a user
type UpdateSkillsRequest struct {
	SkillsOffered []string `json:"skills_offered" validate:"max=50,dive,max=64"`
	SkillsWanted  []string `json:"skills_wanted" validate:"max=50,dive,max=64"`
}

// LoginRequest represents the login payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VisibilityRequest flips the public flag of the caller's profile
type VisibilityRequest struct {
	IsPublic *bool `json:"is_public" validate:"required"`
}

// SkillSnapshot is the minimal projection needed to rebuild the skill index.
type SkillSnapshot struct {
	ID            uuid.UUID      `db:"id"`
	Active        bool           `db:"active"`
	SkillsOffered pq.StringArray `db:"skills_offered"`
	SkillsWanted  pq.StringArray `db:"skills_wanted"`
}

// NewUser creates a new user with generated ID, timestamps and normalized skill sets
func NewUser(req *CreateUserRequest, passwordHash string, now time.Time) *User {
	return &User{
		ID:            uuid.New(),
		Name:          req.Name,
		Email:         req.Email,
		PasswordHash:  passwordHash,
		Location:      req.Location,
		Availability:  req.Availability,
		IsPublic:      req.IsPublic,
		Active:        true,
		Role:          RoleUser,
		SkillsOffered: skill.NewSet(req.SkillsOffered),
		SkillsWanted:  skill.NewSet(req.SkillsWanted),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Listed reports whether the user shows up in browse and search results.
func (u *User) Listed() bool {
	return u.IsPublic && u.Active
}

// Skills returns the skill set for side.
func (u *User) Skills(side skill.Side) []string {
	if side == skill.Wanted {
		return u.SkillsWanted
	}
	return u.SkillsOffered
}

// Clone returns a copy that shares no slices with u.
func (u *User) Clone() *User {
	c := *u
	c.SkillsOffered = append(pq.StringArray{}, u.SkillsOffered...)
	c.SkillsWanted = append(pq.StringArray{}, u.SkillsWanted...)
	return &c
}
