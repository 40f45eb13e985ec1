// Package tenancy holds the per-tenant business profile: subscription plan
// and status, the settings document stored in tenants.settings, and the
// slug derived at signup.
package tenancy

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	PlanFree       = "FREE"
	PlanBasic      = "BASIC"
	PlanPro        = "PRO"
	PlanEnterprise = "ENTERPRISE"
)

const (
	StatusActive    = "ACTIVE"
	StatusTrial     = "TRIAL"
	StatusCancelled = "CANCELLED"
	StatusExpired   = "EXPIRED"
	StatusPastDue   = "PAST_DUE"
)

const (
	ChannelEmail    = "EMAIL"
	ChannelSMS      = "SMS"
	ChannelWhatsApp = "WHATSAPP"
	ChannelPush     = "PUSH"
)

type Branding struct {
	Logo           *string `json:"logo"`
	PrimaryColor   *string `json:"primary_color" validate:"omitempty,hexcolor"`
	SecondaryColor *string `json:"secondary_color" validate:"omitempty,hexcolor"`
}

type NotificationPreferences struct {
	DefaultChannel  string `json:"default_channel" validate:"oneof=EMAIL SMS WHATSAPP PUSH"`
	EmailEnabled    bool   `json:"email_enabled"`
	SMSEnabled      bool   `json:"sms_enabled"`
	WhatsAppEnabled bool   `json:"whatsapp_enabled"`
}

type BusinessDay struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed"`
}

// Settings is the JSON document kept in tenants.settings.
type Settings struct {
	BusinessName    string                  `json:"business_name" validate:"required,max=255"`
	BusinessEmail   string                  `json:"business_email" validate:"required,email"`
	BusinessPhone   *string                 `json:"business_phone" validate:"omitempty,max=50"`
	BusinessAddress *string                 `json:"business_address" validate:"omitempty,max=500"`
	Timezone        string                  `json:"timezone" validate:"required"`
	Locale          string                  `json:"locale" validate:"required"`
	Branding        Branding                `json:"branding"`
	Notifications   NotificationPreferences `json:"notifications"`
	BusinessHours   map[string]BusinessDay  `json:"business_hours,omitempty"`
}

// DefaultBusinessHours is Monday to Saturday, Saturday closing early,
// Sunday closed.
func DefaultBusinessHours() map[string]BusinessDay {
	return map[string]BusinessDay{
		"MONDAY":    {Open: "09:00", Close: "17:00"},
		"TUESDAY":   {Open: "09:00", Close: "17:00"},
		"WEDNESDAY": {Open: "09:00", Close: "17:00"},
		"THURSDAY":  {Open: "09:00", Close: "17:00"},
		"FRIDAY":    {Open: "09:00", Close: "17:00"},
		"SATURDAY":  {Open: "09:00", Close: "13:00"},
		"SUNDAY":    {Open: "09:00", Close: "17:00", Closed: true},
	}
}

// DefaultSettings is the document a tenant starts with after signup.
func DefaultSettings(businessName, businessEmail, timezone, locale string) Settings {
	return Settings{
		BusinessName:  businessName,
		BusinessEmail: businessEmail,
		Timezone:      timezone,
		Locale:        locale,
		Notifications: NotificationPreferences{
			DefaultChannel: ChannelEmail,
			EmailEnabled:   true,
		},
		BusinessHours: DefaultBusinessHours(),
	}
}

// BusinessName is "<first name>'s Business".
func BusinessName(ownerName string) string {
	first := strings.Fields(ownerName)
	if len(first) == 0 {
		return "My Business"
	}
	return first[0] + "'s Business"
}

func ParseSettings(raw []byte) (Settings, error) {
	var s Settings
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("decode tenant settings: %w", err)
	}
	return s, nil
}

func (s Settings) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// ValidateTimezone accepts IANA zone names known to the runtime.
func ValidateTimezone(tz string) error {
	if tz == "" {
		return fmt.Errorf("timezone is required")
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("unknown timezone %q", tz)
	}
	return nil
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
	hhmm        = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

// SlugFromEmail lowercases the local part of email and replaces every
// character outside [a-z0-9-] with '-'.
func SlugFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	slug := slugInvalid.ReplaceAllString(strings.ToLower(local), "-")
	if slug == "" {
		slug = "tenant"
	}
	return slug
}

// UniqueSlug appends -2, -3, ... to base until taken reports false.
func UniqueSlug(base string, taken func(string) (bool, error)) (string, error) {
	candidate := base
	for n := 2; ; n++ {
		exists, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		if n > 1000 {
			return "", fmt.Errorf("no free slug for %q", base)
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

// ValidClock reports whether s is a 24h HH:mm time.
func ValidClock(s string) bool {
	return hhmm.MatchString(s)
}

// ValidateBusinessHours checks every open day has HH:mm bounds with open before close.
func ValidateBusinessHours(hours map[string]BusinessDay) error {
	for day, h := range hours {
		if h.Closed {
			continue
		}
		if !ValidClock(h.Open) || !ValidClock(h.Close) {
			return fmt.Errorf("%s: times must be HH:mm", day)
		}
		if h.Open >= h.Close {
			return fmt.Errorf("%s: open must be before close", day)
		}
	}
	return nil
}
