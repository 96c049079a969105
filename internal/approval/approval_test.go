package approval

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsker_Ask(t *testing.T) {
	tests := []struct {
		name        string
		interactive bool
		answer      bool
		err         error
		want        Result
	}{
		{"non interactive", false, true, nil, Result{UserAction: "auto_deny_non_interactive"}},
		{"approved", true, true, nil, Result{Approved: true, UserAction: "approve"}},
		{"denied", true, false, nil, Result{UserAction: "deny"}},
		{"input error", true, true, errors.New("eof"), Result{UserAction: "error_reading_input"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asked := false
			a := Asker{
				Interactive: func() bool { return tt.interactive },
				Confirm: func(Prompt) (bool, error) {
					asked = true
					return tt.answer, tt.err
				},
			}
			assert.Equal(t, tt.want, a.Ask(Prompt{Title: "Install hooks?"}))
			assert.Equal(t, tt.interactive, asked)
		})
	}
}
