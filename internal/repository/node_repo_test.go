package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sendit2sri/artifact-os/internal/model"
	"github.com/sendit2sri/artifact-os/internal/testutil"
)

func seedFacts(t *testing.T, db *gorm.DB, projectID, docID string, texts ...string) []*model.ResearchNode {
	t.Helper()

	nodes := make([]*model.ResearchNode, 0, len(texts))
	base := time.Now().Add(-time.Hour)
	for i, text := range texts {
		node := &model.ResearchNode{
			ProjectID:       projectID,
			SourceDocID:     docID,
			FactText:        text,
			ConfidenceScore: 85,
			ReviewStatus:    model.ReviewStatusPending,
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(node).Error)
		nodes = append(nodes, node)
	}
	return nodes
}

func TestNodeRepository_ListActiveByProject_OldestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewNodeRepository(db)
	ws := testutil.TestWorkspace(t, db)
	project := testutil.TestProject(t, db, ws.ID)
	doc := testutil.TestSourceDoc(t, db, ws.ID, project.ID, "https://example.com/a")

	seeded := seedFacts(t, db, project.ID, doc.ID, "first", "second", "third")

	nodes, err := repo.ListActiveByProject(project.ID, 0)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, seeded[0].ID, nodes[0].ID)
	assert.Equal(t, seeded[2].ID, nodes[2].ID)
}

func TestNodeRepository_ListActiveByProject_ExcludesSuppressedAndHonorsLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewNodeRepository(db)
	ws := testutil.TestWorkspace(t, db)
	project := testutil.TestProject(t, db, ws.ID)
	doc := testutil.TestSourceDoc(t, db, ws.ID, project.ID, "https://example.com/a")

	seeded := seedFacts(t, db, project.ID, doc.ID, "a", "b", "c", "d")
	require.NoError(t, db.Model(seeded[1]).Updates(map[string]any{
		"is_suppressed":     true,
		"canonical_fact_id": seeded[0].ID,
	}).Error)

	nodes, err := repo.ListActiveByProject(project.ID, 2)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, seeded[0].ID, nodes[0].ID)
	assert.Equal(t, seeded[2].ID, nodes[1].ID)
}

func TestNodeRepository_ListActiveByProjectNewest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewNodeRepository(db)
	ws := testutil.TestWorkspace(t, db)
	project := testutil.TestProject(t, db, ws.ID)
	doc := testutil.TestSourceDoc(t, db, ws.ID, project.ID, "https://example.com/a")

	seeded := seedFacts(t, db, project.ID, doc.ID, "oldest", "middle", "newest")

	nodes, err := repo.ListActiveByProjectNewest(project.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, seeded[2].ID, nodes[0].ID)
	assert.Equal(t, seeded[0].ID, nodes[2].ID)
}

func TestNodeRepository_Suppress(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewNodeRepository(db)
	ws := testutil.TestWorkspace(t, db)
	project := testutil.TestProject(t, db, ws.ID)
	doc := testutil.TestSourceDoc(t, db, ws.ID, project.ID, "https://example.com/a")

	seeded := seedFacts(t, db, project.ID, doc.ID, "canonical", "dup one", "dup two")
	groupID := "11111111-2222-3333-4444-555555555555"

	err := repo.Suppress(groupID, seeded[0].ID, []string{seeded[1].ID, seeded[2].ID})
	require.NoError(t, err)

	canonical, err := repo.GetByID(seeded[0].ID)
	require.NoError(t, err)
	assert.False(t, canonical.IsSuppressed)
	assert.Equal(t, groupID, canonical.DuplicateGroupID)
	assert.Empty(t, canonical.CanonicalFactID)

	for _, id := range []string{seeded[1].ID, seeded[2].ID} {
		member, err := repo.GetByID(id)
		require.NoError(t, err)
		assert.True(t, member.IsSuppressed)
		assert.Equal(t, groupID, member.DuplicateGroupID)
		assert.Equal(t, seeded[0].ID, member.CanonicalFactID)
	}
}
