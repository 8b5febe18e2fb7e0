package maven

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsPath_Deterministic(t *testing.T) {
	t.Parallel()

	first := SettingsPath("/tmp", "org-id", "my-asset")
	second := SettingsPath("/tmp", "org-id", "my-asset")

	assert.Equal(t, first, second)
	assert.Equal(t, filepath.Join("/tmp", "org-id_my-asset_settings.xml"), first)
}

func TestWriteSettings(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.xml")
	require.NoError(t, WriteSettings(path, "session-token"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	for _, id := range []string{"Repository", "anypoint-exchange", "anypoint-exchange-v2"} {
		assert.Contains(t, content, "<id>"+id+"</id>")
	}
	assert.Contains(t, content, "<username>~~~Token~~~</username>")
	assert.Contains(t, content, "<password>session-token</password>")
	assert.Contains(t, content, "http://maven.apache.org/SETTINGS/1.0.0")
}
