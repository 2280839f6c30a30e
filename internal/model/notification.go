package model

import (
	"fmt"
	"time"
)

// Type identifies one of the known notification kinds. Values outside
// this set fail ParseType and never enter the system.
type Type string

const (
	TypeBookingRequest    Type = "booking_request"
	TypeBookingConfirmed  Type = "booking_confirmed"
	TypeBookingCancelled  Type = "booking_cancelled"
	TypePaymentReceived   Type = "payment_received"
	TypePayoutSent        Type = "payout_sent"
	TypeCourseEnrolled    Type = "course_enrolled"
	TypeCourseCompleted   Type = "course_completed"
	TypeNewFollower       Type = "new_follower"
	TypeProductSold       Type = "product_sold"
	TypeMembershipRenewal Type = "membership_renewal"
)

var knownTypes = map[Type]struct{}{
	TypeBookingRequest:    {},
	TypeBookingConfirmed:  {},
	TypeBookingCancelled:  {},
	TypePaymentReceived:   {},
	TypePayoutSent:        {},
	TypeCourseEnrolled:    {},
	TypeCourseCompleted:   {},
	TypeNewFollower:       {},
	TypeProductSold:       {},
	TypeMembershipRenewal: {},
}

func ParseType(s string) (Type, error) {
	t := Type(s)
	if _, ok := knownTypes[t]; !ok {
		return "", fmt.Errorf("unknown notification type %q", s)
	}
	return t, nil
}

// Category groups notification kinds for preference opt-in.
type Category string

const (
	CategoryBooking     Category = "booking"
	CategoryPayment     Category = "payment"
	CategoryAcademy     Category = "academy"
	CategorySocial      Category = "social"
	CategoryMarketplace Category = "marketplace"
)

func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryBooking, CategoryPayment, CategoryAcademy, CategorySocial, CategoryMarketplace:
		return c, nil
	}
	return "", fmt.Errorf("unknown notification category %q", s)
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorityRank = map[Priority]int{
	PriorityLow:    0,
	PriorityMedium: 1,
	PriorityHigh:   2,
	PriorityUrgent: 3,
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if _, ok := priorityRank[p]; !ok {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

// AtLeast reports whether p ranks at or above min.
func (p Priority) AtLeast(min Priority) bool {
	return priorityRank[p] >= priorityRank[min]
}

type ActionType string

const (
	ActionTypeButton ActionType = "button"
	ActionTypeLink   ActionType = "link"
)

// Action is a user-facing button or link attached to a notification.
// It has no lifecycle of its own; it lives and dies with its parent.
type Action struct {
	ID     string     `json:"id"`
	Label  string     `json:"label"`
	Type   ActionType `json:"type"`
	URL    string     `json:"url,omitempty"`
	Action string     `json:"action,omitempty"`
	Style  string     `json:"style"`
}

// Notification is a discrete, user-scoped event record. Immutable after
// creation except for IsRead, which only ever flips false to true.
type Notification struct {
	ID           string                 `json:"id" db:"id"`
	UserID       string                 `json:"userId" db:"user_id"`
	Type         Type                   `json:"type" db:"type"`
	Title        string                 `json:"title" db:"title"`
	Message      string                 `json:"message" db:"message"`
	Data         map[string]interface{} `json:"data,omitempty" db:"-"`
	Priority     Priority               `json:"priority" db:"priority"`
	Category     Category               `json:"category" db:"category"`
	IsRead       bool                   `json:"isRead" db:"is_read"`
	IsActionable bool                   `json:"isActionable" db:"is_actionable"`
	Actions      []Action               `json:"actions,omitempty" db:"-"`
	CreatedAt    time.Time              `json:"createdAt" db:"created_at"`
	ExpiresAt    *time.Time             `json:"expiresAt,omitempty" db:"expires_at"`
}
