package model

import (
	"time"

	"dating-swipe-subscription/internal/domain"
)

// UnlimitedSwipes marks a plan without a daily swipe cap.
const UnlimitedSwipes = -1

// Plan represents a purchasable subscription tier with a fixed duration,
// daily swipe allowance, and price in minor currency units.
// Plans are written by the admin surface and read-only for the quota engine.
type Plan struct {
	ID              string
	Name            string
	DisplayName     string
	Description     string
	PriceMinorUnits int64
	Currency        string
	DurationDays    int
	SwipeLimit      int // per day; UnlimitedSwipes means no cap
	Features        []string
	Active          bool
	Popular         bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// Unlimited reports whether the plan carries no daily swipe cap.
func (p *Plan) Unlimited() bool { return p.SwipeLimit == UnlimitedSwipes }

// NewPlan validates and constructs a plan.
func NewPlan(id, name, displayName string, priceMinorUnits int64, currency string, durationDays, swipeLimit int, features []string) (*Plan, error) {
	if id == "" || name == "" || durationDays <= 0 || priceMinorUnits < 0 || currency == "" {
		return nil, domain.ErrInvalidArgument
	}
	if swipeLimit < 0 && swipeLimit != UnlimitedSwipes {
		return nil, domain.ErrInvalidArgument
	}
	if displayName == "" {
		displayName = name
	}
	now := time.Now()
	return &Plan{
		ID:              id,
		Name:            name,
		DisplayName:     displayName,
		PriceMinorUnits: priceMinorUnits,
		Currency:        currency,
		DurationDays:    durationDays,
		SwipeLimit:      swipeLimit,
		Features:        features,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
