package workflow_test

import (
	"testing"

	"github.com/JaimeStill/estimator/internal/workflow"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want workflow.Language
	}{
		{"empty", "", workflow.LanguageEnglish},
		{"english", "I need a quote for my apartment", workflow.LanguageEnglish},
		{"arabic", "شقة 120 متر عظم عادي", workflow.LanguageArabic},
		{"mixed", "I want a شقة", workflow.LanguageMixed},
		{"digits only", "3", workflow.LanguageEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := workflow.DetectLanguage(tt.text); got != tt.want {
				t.Errorf("DetectLanguage(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsEscapePhrase(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"just proceed", true},
		{"150 m2 apartment, just proceed", true},
		{"Skip the rest please", true},
		{"that's enough", true},
		{"ok", true},
		{"خلاص كده", true},
		{"بس كده", true},
		{"proceeding with the plan", false},
		{"I have 3 bedrooms", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := workflow.IsEscapePhrase(tt.text); got != tt.want {
				t.Errorf("IsEscapePhrase(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestWantsToProceed(t *testing.T) {
	tests := []struct {
		text   string
		stated bool
		want   bool
	}{
		{"ok", false, true},
		{"ok, 3 bedrooms, 2 bathrooms", true, false},
		{"تمام ٣ غرف نوم", true, false},
		{"continue", false, true},
		{"150 m2 apartment, just proceed", true, true},
		{"use defaults for the rest, 2 kitchens", true, true},
		{"I have 3 bedrooms", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := workflow.WantsToProceed(tt.text, tt.stated); got != tt.want {
				t.Errorf("WantsToProceed(%q, %v) = %v, want %v", tt.text, tt.stated, got, tt.want)
			}
		})
	}
}
