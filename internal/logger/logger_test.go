package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, env := range []string{"local", "prod"} {
		t.Run(env, func(t *testing.T) {
			l, err := New("hermes", env)
			require.NoError(t, err)
			assert.NotNil(t, l)
			assert.Equal(t, env == "local", l.Core().Enabled(-1), "debug level only in local")
		})
	}
}
