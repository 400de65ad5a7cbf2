package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "secret",
		"database": {"dsn": "postgres://localhost/test"},
		"file_store": {"type": "local", "dir": "/tmp/blobs"},
		"sandbox": {"allowed_roots": ["/home/dev/code"]}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 768, cfg.AI.EmbedDim)
	require.Equal(t, 4, cfg.Search.Overfetch)
	require.EqualValues(t, 1<<20, cfg.Index.MaxFileBytes)
	require.Equal(t, 120, cfg.Session.IdleTTLMinutes)
	require.Equal(t, 6000, cfg.RateLimit.IndexMS)
	require.Equal(t, 1000, cfg.RateLimit.RepoListMS)
	require.Equal(t, 2000, cfg.RateLimit.RepoDeleteMS)
	require.NotEmpty(t, cfg.Index.Extensions)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"database": {"dsn": "postgres://localhost/test"},
		"sandbox": {"allowed_roots": ["/home/dev/code"]}
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_RequiresAllowedRoots(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "secret",
		"database": {"dsn": "postgres://localhost/test"}
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_RejectsMismatchedEmbedDim(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "secret",
		"database": {"dsn": "postgres://localhost/test"},
		"file_store": {"type": "local", "dir": "/tmp/blobs"},
		"sandbox": {"allowed_roots": ["/home/dev/code"]},
		"ai": {"embed_dim": 512}
	}`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "embed_dim")
}

func TestLoad_ValidatesFileStoreType(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "secret",
		"database": {"dsn": "postgres://localhost/test"},
		"file_store": {"type": "ftp"},
		"sandbox": {"allowed_roots": ["/home/dev/code"]}
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_S3StoreRequiresCredentials(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "secret",
		"database": {"dsn": "postgres://localhost/test"},
		"file_store": {"type": "s3", "s3": {"endpoint": "minio:9000", "bucket": "shots"}},
		"sandbox": {"allowed_roots": ["/home/dev/code"]}
	}`)
	_, err := Load(path)
	require.Error(t, err)
}
