package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestState(t *testing.T) {
	tests := []struct {
		name     string
		giveaway Giveaway
		want     State
	}{
		{"fresh record is a draft", Giveaway{}, StateDraft},
		{"confirmed record is open", Giveaway{FinishedConfiguring: true}, StateOpen},
		{"ended record is closed", Giveaway{FinishedConfiguring: true, Ended: true}, StateClosed},
		{"ended wins over unconfirmed", Giveaway{Ended: true}, StateClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.giveaway.State())
		})
	}
}

func TestHasEnded(t *testing.T) {
	t.Run("future deadline", func(t *testing.T) {
		g := Giveaway{EndDate: now.Add(time.Hour)}
		assert.False(t, g.HasEnded(now))
	})

	t.Run("deadline passed but flag not flipped yet", func(t *testing.T) {
		g := Giveaway{EndDate: now.Add(-time.Second)}
		assert.True(t, g.HasEnded(now))
	})

	t.Run("deadline exactly now", func(t *testing.T) {
		g := Giveaway{EndDate: now}
		assert.True(t, g.HasEnded(now))
	})

	t.Run("ended flag wins regardless of deadline", func(t *testing.T) {
		g := Giveaway{Ended: true, EndDate: now.Add(time.Hour)}
		assert.True(t, g.HasEnded(now))
	})
}

func TestIsRoleAllowed(t *testing.T) {
	t.Run("no restriction admits everyone", func(t *testing.T) {
		g := Giveaway{}
		assert.True(t, g.IsRoleAllowed(nil))
		assert.True(t, g.IsRoleAllowed([]string{"anything"}))
	})

	t.Run("restriction requires an overlapping role", func(t *testing.T) {
		g := Giveaway{AllowedRoles: []string{"vip", "mod"}}
		assert.True(t, g.IsRoleAllowed([]string{"member", "vip"}))
		assert.False(t, g.IsRoleAllowed([]string{"member"}))
		assert.False(t, g.IsRoleAllowed(nil))
	})
}

func TestValidate(t *testing.T) {
	valid := Giveaway{
		Prize:       "prize",
		WinnerCount: 1,
		EndDate:     now.Add(time.Hour),
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid.Validate(now))
	})

	t.Run("winner count below one", func(t *testing.T) {
		g := valid
		g.WinnerCount = 0
		assert.ErrorIs(t, g.Validate(now), ErrInvalidWinnerCount)
	})

	t.Run("empty prize", func(t *testing.T) {
		g := valid
		g.Prize = ""
		assert.ErrorIs(t, g.Validate(now), ErrMissingPrize)
	})

	t.Run("end date in the past", func(t *testing.T) {
		g := valid
		g.EndDate = now.Add(-time.Minute)
		assert.ErrorIs(t, g.Validate(now), ErrEndDateInPast)
	})

	t.Run("end date exactly now", func(t *testing.T) {
		g := valid
		g.EndDate = now
		assert.ErrorIs(t, g.Validate(now), ErrEndDateInPast)
	})
}
