package model

import "fmt"

// Frequency controls how often non-realtime channels are flushed.
type Frequency string

const (
	FrequencyImmediate Frequency = "immediate"
	FrequencyHourly    Frequency = "hourly"
	FrequencyDaily     Frequency = "daily"
)

func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(s); f {
	case FrequencyImmediate, FrequencyHourly, FrequencyDaily:
		return f, nil
	}
	return "", fmt.Errorf("unknown frequency %q", s)
}

// CategoryPreferences holds one opt-in flag per notification category.
type CategoryPreferences struct {
	Booking     bool `json:"booking" db:"cat_booking"`
	Payment     bool `json:"payment" db:"cat_payment"`
	Academy     bool `json:"academy" db:"cat_academy"`
	Social      bool `json:"social" db:"cat_social"`
	Marketplace bool `json:"marketplace" db:"cat_marketplace"`
}

// Enabled reports whether the user opted into the given category.
// Unknown categories are treated as opted out.
func (c CategoryPreferences) Enabled(cat Category) bool {
	switch cat {
	case CategoryBooking:
		return c.Booking
	case CategoryPayment:
		return c.Payment
	case CategoryAcademy:
		return c.Academy
	case CategorySocial:
		return c.Social
	case CategoryMarketplace:
		return c.Marketplace
	}
	return false
}

// QuietHours is a user-configured daily window during which only urgent
// notifications go out. Start and End are "HH:MM" wall-clock times; a
// window where End precedes Start wraps past midnight.
type QuietHours struct {
	Enabled bool   `json:"enabled" db:"quiet_enabled"`
	Start   string `json:"start" db:"quiet_start" validate:"omitempty,hhmm"`
	End     string `json:"end" db:"quiet_end" validate:"omitempty,hhmm"`
}

// Preferences is one user's delivery configuration, consulted on every
// send. A user who never saved preferences gets DefaultPreferences.
type Preferences struct {
	UserID             string              `json:"userId" db:"user_id"`
	PushNotifications  bool                `json:"pushNotifications" db:"push_enabled"`
	EmailNotifications bool                `json:"emailNotifications" db:"email_enabled"`
	SMSNotifications   bool                `json:"smsNotifications" db:"sms_enabled"`
	Categories         CategoryPreferences `json:"categories"`
	QuietHours         QuietHours          `json:"quietHours"`
	Frequency          Frequency           `json:"frequency" db:"frequency"`
}

// DefaultPreferences mirrors what the product opts a fresh user into:
// every category and channel on, no quiet hours, immediate delivery.
func DefaultPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:             userID,
		PushNotifications:  true,
		EmailNotifications: true,
		SMSNotifications:   false,
		Categories: CategoryPreferences{
			Booking:     true,
			Payment:     true,
			Academy:     true,
			Social:      true,
			Marketplace: true,
		},
		QuietHours: QuietHours{Enabled: false, Start: "22:00", End: "08:00"},
		Frequency:  FrequencyImmediate,
	}
}
