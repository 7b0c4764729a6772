package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractInt(t *testing.T) {
	for _, tt := range []struct {
		text string
		want int
	}{
		{"1.234 Bestellungen", 1234},
		{"25 orders placed in", 25},
		{"EUR 1.049,00", 104900},
		{"7", 7},
		{"  12 345 ", 12345},
	} {
		got, err := ExtractInt(tt.text)
		require.NoError(t, err, tt.text)
		require.Equal(t, tt.want, got, tt.text)
	}
}

func TestExtractIntFailure(t *testing.T) {
	for _, text := range []string{"", "keine Bestellungen vorhanden -", "   "} {
		_, err := ExtractInt(text)
		require.ErrorIs(t, err, ErrNoDigits, text)
	}
}

func TestParseLocalizedDate(t *testing.T) {
	for _, tt := range []struct {
		text string
		want string
	}{
		{"5. März 2024", "2024-03-05"},
		{"1. Dezember 2022", "2022-12-01"},
		{"17 June 2023", "2023-06-17"},
		{"31. Oktober 2021", "2021-10-31"},
		{"9 May 2020", "2020-05-09"},
	} {
		got, err := ParseLocalizedDate(tt.text)
		require.NoError(t, err, tt.text)
		require.Equal(t, tt.want, got, tt.text)
	}
}

func TestParseLocalizedDateRejectsAmbiguousShapes(t *testing.T) {
	for _, text := range []string{
		// month-first ordering is deliberately not disambiguated
		"March 5 2024",
		"not a date",
		"",
		"5. März",
		"5. März 2024 12:30",
		"32. März 2024",
		"5. Foo 2024",
		"5. März 24",
	} {
		_, err := ParseLocalizedDate(text)
		require.Error(t, err, text)
	}
}

func TestSanitizeFilename(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want string
	}{
		{"Rechnung 1", "Rechnung-1"},
		{"EUR 23,90", "EUR-23-90"},
		{" weird//name ", "weird-name"},
		{"a---b", "a-b"},
		{"---", ""},
	} {
		require.Equal(t, tt.want, SanitizeFilename(tt.in), tt.in)
	}
}
