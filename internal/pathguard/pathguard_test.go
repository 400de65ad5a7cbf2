package pathguard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/repowhisper/internal/pkg/errors"
)

func TestValidate_AllowsPathInsideRoot(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "project", "src")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	v, err := New([]string{root})
	require.NoError(t, err)

	resolved, err := v.Validate(sub)
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(resolved))
}

func TestValidate_RejectsPathOutsideRoot(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	v, err := New([]string{root})
	require.NoError(t, err)

	_, err = v.Validate(outside)
	require.ErrorIs(t, err, errors.ErrPathNotAllowed)
}

func TestValidate_RejectsTraversal(t *testing.T) {
	root := t.TempDir()
	v, err := New([]string{root})
	require.NoError(t, err)

	_, err = v.Validate(filepath.Join(root, "..", ".."))
	require.ErrorIs(t, err, errors.ErrPathNotAllowed)
}

func TestValidate_ResolvesSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret")
	require.NoError(t, os.MkdirAll(secret, 0o755))

	link := filepath.Join(root, "escape")
	require.NoError(t, os.Symlink(secret, link))

	v, err := New([]string{root})
	require.NoError(t, err)

	_, err = v.Validate(link)
	require.ErrorIs(t, err, errors.ErrPathNotAllowed)
}

func TestValidate_FailsClosedOnMissingPath(t *testing.T) {
	root := t.TempDir()
	v, err := New([]string{root})
	require.NoError(t, err)

	_, err = v.Validate(filepath.Join(root, "does-not-exist"))
	require.ErrorIs(t, err, errors.ErrPathNotAllowed)
}

func TestNew_RejectsEmptyRoots(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}
