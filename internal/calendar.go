package internal

import "time"

const (
	GoogleProvider   = "google"
	FacebookProvider = "facebook"

	// PrimaryCalendar is the literal id Google uses for the user's default calendar.
	PrimaryCalendar = "primary"

	// EventsPageSize caps how many events a single fetch returns.
	EventsPageSize = 250
)

type ConnectedAccount struct {
	ID                string
	UserID            string
	Provider          string
	ProviderAccountID string
	AccessToken       string
	RefreshToken      string
	ExpiresAt         *time.Time
	Scope             string
	TokenType         string
	IsPrimary         bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Expired reports whether the access token expires within margin of now.
// Accounts without an expiry never expire.
func (a ConnectedAccount) Expired(now time.Time, margin time.Duration) bool {
	if a.ExpiresAt == nil {
		return false
	}
	return !a.ExpiresAt.After(now.Add(margin))
}

type Calendar struct {
	ID              string `json:"id"`
	Summary         string `json:"summary"`
	Description     string `json:"description,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	ForegroundColor string `json:"foreground_color,omitempty"`
	Primary         bool   `json:"primary,omitempty"`
	AccessRole      string `json:"access_role,omitempty"`
}

func (c Calendar) String() string {
	return c.ID
}
