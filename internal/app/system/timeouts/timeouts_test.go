// internal/app/system/timeouts/timeouts_test.go
package timeouts

import (
	"testing"
	"time"
)

func TestConfigureOverridesAndIgnoresZero(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{
		Short:  10 * time.Second,
		Medium: 20 * time.Second,
	})

	if got := Short(); got != 10*time.Second {
		t.Errorf("Short = %v, want 10s", got)
	}
	if got := Medium(); got != 20*time.Second {
		t.Errorf("Medium = %v, want 20s", got)
	}
	// Zero fields keep the defaults.
	if got := Ping(); got != DefaultPing {
		t.Errorf("Ping = %v, want default %v", got, DefaultPing)
	}
	if got := Long(); got != DefaultLong {
		t.Errorf("Long = %v, want default %v", got, DefaultLong)
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	Configure(Config{Ping: time.Minute, Long: time.Hour})
	Reset()

	cur := Current()
	want := Config{
		Ping:   DefaultPing,
		Short:  DefaultShort,
		Medium: DefaultMedium,
		Long:   DefaultLong,
	}
	if cur != want {
		t.Errorf("Current after Reset = %+v, want %+v", cur, want)
	}
}

func TestConfigureFromEnv(t *testing.T) {
	t.Cleanup(Reset)

	t.Setenv("TIMEOUT_SHORT", "7s")
	t.Setenv("TIMEOUT_LONG", "45s")
	t.Setenv("TIMEOUT_MEDIUM", "not-a-duration")

	n := ConfigureFromEnv()
	if n != 2 {
		t.Errorf("ConfigureFromEnv = %d, want 2", n)
	}
	if got := Short(); got != 7*time.Second {
		t.Errorf("Short = %v, want 7s", got)
	}
	if got := Long(); got != 45*time.Second {
		t.Errorf("Long = %v, want 45s", got)
	}
	// The malformed value is skipped, not zeroed.
	if got := Medium(); got != DefaultMedium {
		t.Errorf("Medium = %v, want default %v", got, DefaultMedium)
	}
}
