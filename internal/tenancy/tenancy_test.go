package tenancy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugFromEmail(t *testing.T) {
	assert.Equal(t, "jane-doe", SlugFromEmail("Jane.Doe@example.com"))
	assert.Equal(t, "bob-1", SlugFromEmail("bob+1@example.com"))
	assert.Equal(t, "already-ok", SlugFromEmail("already-ok@example.com"))
	assert.Equal(t, "tenant", SlugFromEmail("@example.com"))
}

func TestUniqueSlug(t *testing.T) {
	taken := map[string]bool{"jane": true, "jane-2": true}
	slug, err := UniqueSlug("jane", func(s string) (bool, error) { return taken[s], nil })
	require.NoError(t, err)
	assert.Equal(t, "jane-3", slug)

	slug, err = UniqueSlug("bob", func(s string) (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.Equal(t, "bob", slug)

	_, err = UniqueSlug("x", func(string) (bool, error) { return false, errors.New("db down") })
	assert.Error(t, err)
}

func TestBusinessName(t *testing.T) {
	assert.Equal(t, "Jane's Business", BusinessName("Jane Doe"))
	assert.Equal(t, "Cher's Business", BusinessName("  Cher "))
	assert.Equal(t, "My Business", BusinessName(""))
}

func TestDefaultSettings_RoundTrip(t *testing.T) {
	s := DefaultSettings("Jane's Business", "jane@example.com", "UTC", "en")
	assert.Equal(t, ChannelEmail, s.Notifications.DefaultChannel)
	assert.True(t, s.Notifications.EmailEnabled)
	assert.True(t, s.BusinessHours["SUNDAY"].Closed)

	raw, err := s.Marshal()
	require.NoError(t, err)
	parsed, err := ParseSettings(raw)
	require.NoError(t, err)
	assert.Equal(t, s, parsed)
}

func TestValidateTimezone(t *testing.T) {
	assert.NoError(t, ValidateTimezone("Europe/Berlin"))
	assert.NoError(t, ValidateTimezone("UTC"))
	assert.Error(t, ValidateTimezone("Mars/Olympus"))
	assert.Error(t, ValidateTimezone(""))
}

func TestValidateBusinessHours(t *testing.T) {
	assert.NoError(t, ValidateBusinessHours(DefaultBusinessHours()))
	assert.Error(t, ValidateBusinessHours(map[string]BusinessDay{"MONDAY": {Open: "17:00", Close: "09:00"}}))
	assert.Error(t, ValidateBusinessHours(map[string]BusinessDay{"MONDAY": {Open: "9am", Close: "17:00"}}))
	assert.NoError(t, ValidateBusinessHours(map[string]BusinessDay{"MONDAY": {Closed: true}}))
}

func TestLocales(t *testing.T) {
	l := NewLocales("en", []string{"en", "es", "fr"})

	assert.True(t, l.Supported("es"))
	assert.False(t, l.Supported("ja"))
	assert.Equal(t, "en", l.Default())

	assert.Equal(t, "es", l.Match("es-MX,es;q=0.9,en;q=0.5"))
	assert.Equal(t, "fr", l.Match("fr-CA"))
	assert.Equal(t, "en", l.Match("ja-JP"))
	assert.Equal(t, "en", l.Match(""))
	assert.Equal(t, "en", l.Match(";;;"))
}
