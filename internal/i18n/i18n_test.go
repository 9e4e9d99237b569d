// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package i18n

import (
	"testing"

	"golang.org/x/text/language"
)

func TestNew(t *testing.T) {
	t.Run("new i18n provider with empty locale string succeeds", func(t *testing.T) {
		provider, err := New("")
		if err != nil {
			t.Fatalf("failed to create i18n provider: %s", err)
		}
		if provider == nil {
			t.Fatal("expected i18n provider to be non-nil")
		}
	})
	t.Run("english messages are returned unchanged", func(t *testing.T) {
		provider, err := New("en")
		if err != nil {
			t.Fatalf("failed to create i18n provider: %s", err)
		}
		want := "Could not get your location."
		if got := provider.Get(want); got != want {
			t.Errorf("expected message to be %q, got %q", want, got)
		}
	})
	t.Run("german messages are translated", func(t *testing.T) {
		tests := []struct {
			msg  string
			want string
		}{
			{"Failed to fetch weather. Please try again.",
				"Wetterdaten konnten nicht abgerufen werden. Bitte versuche es erneut."},
			{"City not found. Try another name.", "Stadt nicht gefunden. Versuche einen anderen Namen."},
			{"Live location", "Aktueller Standort"},
			{"Overcast", "Bedeckt"},
		}
		provider, err := New("de-DE")
		if err != nil {
			t.Fatalf("failed to create i18n provider: %s", err)
		}
		for _, tt := range tests {
			t.Run(tt.msg, func(t *testing.T) {
				if got := provider.Get(tt.msg); got != tt.want {
					t.Errorf("expected translation to be %q, got %q", tt.want, got)
				}
			})
		}
	})
}

func TestMatch(t *testing.T) {
	tests := []struct {
		loc  string
		want language.Tag
	}{
		{"en", language.English},
		{"en-GB", language.English},
		{"de", language.German},
		{"de-AT", language.German},
		{"ja", language.English},
		{"not a locale!", language.English},
	}
	for _, tt := range tests {
		t.Run(tt.loc, func(t *testing.T) {
			if got := Match(tt.loc); got != tt.want {
				t.Errorf("expected %q to match %s, got %s", tt.loc, tt.want, got)
			}
		})
	}
}
