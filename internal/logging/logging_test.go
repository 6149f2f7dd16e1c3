package logging_test

import (
	"bytes"
	"testing"

	"github.com/jrsteele09/genzmobo-auth/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.DebugLevel, logging.ParseLevel("DEBUG"))
	require.Equal(t, zerolog.WarnLevel, logging.ParseLevel("warning"))
	require.Equal(t, zerolog.InfoLevel, logging.ParseLevel("nonsense"))
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	logging.Init("PROD", "info", &buf)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	log.Debug().Msg("hidden")
	log.Info().Str("jti", "abc").Msg("revoked")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"jti":"abc"`)
	require.Contains(t, buf.String(), `"message":"revoked"`)
}
