package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User is the profile the core reads for matchmaking and mutates
// transactionally for the token economy. Identity issuance itself is an
// external concern; we only consume these fields.
type User struct {
	ID       string `gorm:"primaryKey" json:"id"` // anonymous UUID
	Nickname string `gorm:"type:text" json:"nickname"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
	// InterestedIn is the default gender the user wants to be paired with.
	// Empty means any.
	InterestedIn string `json:"interestedIn"`
	// GenderFilterOverride, while unexpired, replaces InterestedIn as the
	// effective gender want (a timed paid filter).
	GenderFilterOverride  string     `json:"-"`
	GenderFilterExpiresAt *time.Time `json:"-"`

	// Token economy. Balance is spendable and must stay >= 0; spark is
	// reputation-only and is never spendable or transferable.
	Balance      int `gorm:"not null;default:0" json:"balance"`
	SparkMonthly int `gorm:"not null;default:0" json:"sparkMonthly"`
	SparkTotal   int `gorm:"not null;default:0" json:"sparkTotal"`

	Verified       bool       `json:"verified"`
	PrimeExpiresAt *time.Time `json:"-"`
	BoostExpiresAt *time.Time `json:"-"`

	Latitude  float64 `json:"-"`
	Longitude float64 `json:"-"`

	// Answers holds the user's compatibility quiz answers as opaque tags.
	Answers pq.StringArray `gorm:"type:text[]" json:"-"`

	// Prime-gated filter preferences. Zero values mean "no preference".
	FilterAgeMin        int     `json:"-"`
	FilterAgeMax        int     `json:"-"`
	FilterMaxDistanceKm float64 `json:"-"`
	MinCommonAnswers    int     `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
}

// BeforeCreate generates a new UUID for the user if the ID is not set yet.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// IsPrime reports whether the user has an active prime subscription at t.
func (u *User) IsPrime(t time.Time) bool {
	return u.PrimeExpiresAt != nil && u.PrimeExpiresAt.After(t)
}

// IsBoosted reports whether the user has an active queue boost at t.
func (u *User) IsBoosted(t time.Time) bool {
	return u.BoostExpiresAt != nil && u.BoostExpiresAt.After(t)
}

// EffectiveGenderWant returns the gender this user currently accepts: the
// timed override while it lasts, the default interest otherwise. Empty means
// any gender.
func (u *User) EffectiveGenderWant(t time.Time) string {
	if u.GenderFilterOverride != "" && u.GenderFilterExpiresAt != nil && u.GenderFilterExpiresAt.After(t) {
		return u.GenderFilterOverride
	}
	return u.InterestedIn
}
