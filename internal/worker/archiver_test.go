package worker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendit2sri/artifact-os/internal/model"
	"github.com/sendit2sri/artifact-os/internal/repository"
	"github.com/sendit2sri/artifact-os/internal/testutil"
)

type fakeMediaStore struct {
	uploads int
	err     error
}

func (f *fakeMediaStore) UploadMedia(projectID, contentHash string, data []byte, ext string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploads++
	return "https://cdn.example.com/media/" + projectID + "/" + contentHash + ext, nil
}

func TestArchiver_Sweep(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	ws := testutil.TestWorkspace(t, db)
	project := testutil.TestProject(t, db, ws.ID)

	dir := t.TempDir()
	path := filepath.Join(dir, "episode.mp3")
	require.NoError(t, os.WriteFile(path, []byte("fake audio"), 0o644))

	docRepo := repository.NewSourceDocRepository(db)
	doc := &model.SourceDoc{
		ProjectID:    project.ID,
		WorkspaceID:  ws.ID,
		URL:          "media://" + project.ID + "/abc123",
		CanonicalURL: "media://" + project.ID + "/abc123",
		Domain:       "media",
		SourceType:   model.SourceTypeMedia,
		ContentHash:  "abc123",
		Metadata:     model.JSONMap{"path": path, "filename": "episode.mp3"},
	}
	require.NoError(t, docRepo.Create(doc))

	store := &fakeMediaStore{}
	NewArchiver(docRepo, store).Sweep()

	assert.Equal(t, 1, store.uploads)

	updated, err := docRepo.GetByID(doc.ID)
	require.NoError(t, err)
	assert.Contains(t, updated.ArchiveURL, doc.ContentHash)

	// Local file is gone once the archive copy exists.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	// A second sweep finds nothing left to do.
	NewArchiver(docRepo, store).Sweep()
	assert.Equal(t, 1, store.uploads)
}

func TestArchiver_Sweep_SkipsWebDocs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	ws := testutil.TestWorkspace(t, db)
	project := testutil.TestProject(t, db, ws.ID)
	testutil.TestSourceDoc(t, db, ws.ID, project.ID, "https://example.com/a")

	store := &fakeMediaStore{}
	NewArchiver(repository.NewSourceDocRepository(db), store).Sweep()
	assert.Equal(t, 0, store.uploads)
}

func TestArchiver_Sweep_MissingLocalFile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	ws := testutil.TestWorkspace(t, db)
	project := testutil.TestProject(t, db, ws.ID)

	docRepo := repository.NewSourceDocRepository(db)
	doc := &model.SourceDoc{
		ProjectID:    project.ID,
		WorkspaceID:  ws.ID,
		URL:          "media://" + project.ID + "/gone",
		CanonicalURL: "media://" + project.ID + "/gone",
		Domain:       "media",
		SourceType:   model.SourceTypeMedia,
		ContentHash:  "gone",
		Metadata:     model.JSONMap{"path": "/tmp/does-not-exist/x.mp3"},
	}
	require.NoError(t, docRepo.Create(doc))

	store := &fakeMediaStore{}
	NewArchiver(docRepo, store).Sweep()

	assert.Equal(t, 0, store.uploads)
	updated, err := docRepo.GetByID(doc.ID)
	require.NoError(t, err)
	assert.Empty(t, updated.ArchiveURL)
}
