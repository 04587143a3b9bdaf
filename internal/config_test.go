package internal

import (
	"strings"
	"testing"
	"time"

	"github.com/goodsign/monday"

	"github.com/starford/explode/internal/datetoken"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Dates.GrammarValue() != datetoken.Basic {
		t.Errorf("grammar = %v", cfg.Dates.GrammarValue())
	}
	if cfg.Dates.Location() != time.Local {
		t.Error("expected local time zone by default")
	}
}

func TestDatesConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     DatesConfig
		wantErr bool
	}{
		{"strict", DatesConfig{Grammar: "strict"}, false},
		{"empty grammar", DatesConfig{}, false},
		{"bad grammar", DatesConfig{Grammar: "fuzzy"}, true},
		{"locale", DatesConfig{Locale: "de_DE"}, false},
		{"bad locale", DatesConfig{Locale: "xx_YY"}, true},
		{"timezone", DatesConfig{Timezone: "UTC"}, false},
		{"bad timezone", DatesConfig{Timezone: "Mars/Olympus"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDatesConfig_Decorator(t *testing.T) {
	cfg := DatesConfig{Grammar: "strict", Timezone: "UTC"}
	if got := cfg.Decorator().Grammar(); got != datetoken.Strict {
		t.Errorf("grammar = %v", got)
	}
	if cfg.Location() != time.UTC {
		t.Error("expected UTC")
	}
	if cfg.LocaleValue() != monday.LocaleEnUS {
		t.Errorf("locale = %v", cfg.LocaleValue())
	}
}

func TestWatchConfig_NegativeDebounce(t *testing.T) {
	cfg := WatchConfig{Debounce: -time.Second}
	if err := cfg.Validate(); err == nil {
		t.Error("negative debounce should fail")
	}
}

func TestOutlineConfig(t *testing.T) {
	if got := NewDefaultConfig().Outline.CacheSize; got <= 0 {
		t.Errorf("default cache size = %d, want positive", got)
	}
	cfg := OutlineConfig{CacheSize: -1}
	if err := cfg.Validate(); err == nil {
		t.Error("negative cache size should fail validation")
	}
}
