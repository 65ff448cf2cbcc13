package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, root string, ignore []string) ([]string, []error) {
	t.Helper()

	s, err := NewScanner("test-scanner", root, 2, ignore)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	var scanned []string
	for result := range s.Scan(context.Background(), errCh) {
		scanned = append(scanned, result.Path)
	}
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return scanned, errs
}

func TestNewScanner(t *testing.T) {
	s, err := newScanner("test-scanner", "relative/dir", 10, nil)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(s.Root()))

	_, err = NewScanner("test-scanner", "/test/dir", 10, []string{"[invalid"})
	assert.Error(t, err)
}

func TestScan(t *testing.T) {
	tempDir := t.TempDir()
	testFiles := []string{
		"Case_id_1/report.img",
		"Case_id_1/.report.img.swp",
		"Case_id_2/nested/photo.jpg",
		"Case_id_2/upload.part",
		"loose.img",
	}
	for _, file := range testFiles {
		path := filepath.Join(tempDir, file)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("test content"), 0644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "Case_id_3"), 0755))

	scanned, errs := collect(t, tempDir, []string{".*", "*.part"})
	assert.Empty(t, errs)
	assert.ElementsMatch(t, []string{
		filepath.Join(tempDir, "Case_id_1/report.img"),
		filepath.Join(tempDir, "Case_id_2/nested/photo.jpg"),
		filepath.Join(tempDir, "loose.img"),
	}, scanned)
}

func TestScan_EmptyDirectory(t *testing.T) {
	scanned, errs := collect(t, t.TempDir(), nil)
	assert.Empty(t, scanned)
	assert.Empty(t, errs)
}

func TestScan_InvalidDirectory(t *testing.T) {
	scanned, errs := collect(t, "/invalid/path", nil)
	assert.Empty(t, scanned)
	assert.Empty(t, errs)
}

func TestScan_ContextCancelled(t *testing.T) {
	tempDir := t.TempDir()
	for _, f := range []string{"a.img", "b.img", "c.img"} {
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, f), []byte("x"), 0644))
	}

	s, err := NewScanner("test-scanner", tempDir, 1, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	items := s.Scan(ctx, errCh)

	<-items
	cancel()

	// the channel must be closed without delivering all files
	count := 0
	for range items {
		count++
	}
	assert.LessOrEqual(t, count, 1)
	assert.Empty(t, errCh)
}

func TestScan_UnreadableDirectoryIsSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	tempDir := t.TempDir()
	private := filepath.Join(tempDir, "A_private")
	require.NoError(t, os.MkdirAll(private, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(private, "secret.img"), []byte("x"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "Case_id_1"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "Case_id_1", "report.img"), []byte("x"), 0644))
	require.NoError(t, os.Chmod(private, 0000))
	t.Cleanup(func() {
		_ = os.Chmod(private, 0755)
	})

	scanned, errs := collect(t, tempDir, nil)
	assert.Empty(t, errs)
	assert.Equal(t, []string{filepath.Join(tempDir, "Case_id_1", "report.img")}, scanned)
}

func TestScan_UnreadableRootIsReported(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	root := filepath.Join(t.TempDir(), "upload")
	require.NoError(t, os.MkdirAll(root, 0755))
	require.NoError(t, os.Chmod(root, 0000))
	t.Cleanup(func() {
		_ = os.Chmod(root, 0755)
	})

	scanned, errs := collect(t, root, nil)
	assert.Empty(t, scanned)
	assert.Len(t, errs, 1)
}
