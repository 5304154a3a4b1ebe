package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconnectPlan(t *testing.T) {
	tests := []struct {
		name             string
		connDown, chDown bool
		redial, reopen   bool
	}{
		{"healthy", false, false, false, false},
		{"channel closed by broker", false, true, false, true},
		{"connection lost", true, true, true, false},
		{"connection lost, channel not yet noticed", true, false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			redial, reopen := reconnectPlan(tt.connDown, tt.chDown)
			assert.Equal(t, tt.redial, redial)
			assert.Equal(t, tt.reopen, reopen)
		})
	}
}
