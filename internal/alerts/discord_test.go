package alerts

import (
	"context"
	"testing"

	"seribro_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NoopWithoutToken(t *testing.T) {
	a, err := New(&config.Config{})
	require.NoError(t, err)
	assert.IsType(t, NoopAlerter{}, a)
	assert.NoError(t, a.Alert(context.Background(), "t", "m"))
}

func TestNewDiscordAlerter_RequiresChannel(t *testing.T) {
	_, err := NewDiscordAlerter("token", "")
	assert.Error(t, err)

	a, err := NewDiscordAlerter("token", "123")
	require.NoError(t, err)
	assert.Equal(t, "123", a.channelID)
}
