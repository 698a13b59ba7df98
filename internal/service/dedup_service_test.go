package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sendit2sri/artifact-os/config"
	"github.com/sendit2sri/artifact-os/internal/model"
	"github.com/sendit2sri/artifact-os/internal/repository"
	"github.com/sendit2sri/artifact-os/internal/testutil"
)

func setupDedupService(t *testing.T) (*DedupService, *gorm.DB, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := &config.DedupConfig{
		PairwiseThreshold: 0.92,
		PairwiseLimit:     500,
		LexicalMinSim:     0.88,
	}
	svc := NewDedupService(repository.NewNodeRepository(db), cfg)
	return svc, db, func() { testutil.CleanupTestDB(t, db) }
}

func createFact(t *testing.T, db *gorm.DB, projectID, docID, text string, age time.Duration, mutate func(*model.ResearchNode)) *model.ResearchNode {
	t.Helper()

	node := &model.ResearchNode{
		ProjectID:       projectID,
		SourceDocID:     docID,
		FactText:        text,
		ConfidenceScore: 60,
		ReviewStatus:    model.ReviewStatusPending,
		CreatedAt:       time.Now().Add(-age),
	}
	if mutate != nil {
		mutate(node)
	}
	require.NoError(t, db.Create(node).Error)
	return node
}

func TestDedupService_SuppressDuplicates(t *testing.T) {
	svc, db, cleanup := setupDedupService(t)
	defer cleanup()

	ws := testutil.TestWorkspace(t, db)
	project := testutil.TestProject(t, db, ws.ID)
	doc := testutil.TestSourceDoc(t, db, ws.ID, project.ID, "https://example.com/a")

	// Near-identical pair plus one unrelated fact.
	original := createFact(t, db, project.ID, doc.ID,
		"Arctic sea ice has declined by 13 percent per decade since 1979", 3*time.Hour, nil)
	nearDup := createFact(t, db, project.ID, doc.ID,
		"Arctic sea ice has declined by 13 percent per decade since 1979.", 2*time.Hour, nil)
	unrelated := createFact(t, db, project.ID, doc.ID,
		"Global shipping routes through the northwest passage opened in 2007", time.Hour, nil)

	report, err := svc.SuppressDuplicates(project.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 1, report.GroupsFormed)
	assert.Equal(t, 1, report.FactsSuppressed)

	repo := repository.NewNodeRepository(db)

	// Oldest of the pair is canonical (all else equal).
	canonical, err := repo.GetByID(original.ID)
	require.NoError(t, err)
	assert.False(t, canonical.IsSuppressed)
	assert.NotEmpty(t, canonical.DuplicateGroupID)

	suppressed, err := repo.GetByID(nearDup.ID)
	require.NoError(t, err)
	assert.True(t, suppressed.IsSuppressed)
	assert.Equal(t, original.ID, suppressed.CanonicalFactID)
	assert.Equal(t, canonical.DuplicateGroupID, suppressed.DuplicateGroupID)

	untouched, err := repo.GetByID(unrelated.ID)
	require.NoError(t, err)
	assert.False(t, untouched.IsSuppressed)
	assert.Empty(t, untouched.DuplicateGroupID)
}

func TestDedupService_SuppressDuplicates_SuppressionInvariant(t *testing.T) {
	svc, db, cleanup := setupDedupService(t)
	defer cleanup()

	ws := testutil.TestWorkspace(t, db)
	project := testutil.TestProject(t, db, ws.ID)
	doc := testutil.TestSourceDoc(t, db, ws.ID, project.ID, "https://example.com/a")

	text := "The company reported quarterly revenue of 4.2 billion dollars"
	createFact(t, db, project.ID, doc.ID, text, 3*time.Hour, nil)
	createFact(t, db, project.ID, doc.ID, text+".", 2*time.Hour, nil)
	createFact(t, db, project.ID, doc.ID, text+"!", time.Hour, nil)

	_, err := svc.SuppressDuplicates(project.ID)
	require.NoError(t, err)

	// Every suppressed fact points at a non-suppressed fact in its group.
	var all []*model.ResearchNode
	require.NoError(t, db.Where("project_id = ?", project.ID).Find(&all).Error)
	byID := make(map[string]*model.ResearchNode)
	for _, n := range all {
		byID[n.ID] = n
	}
	for _, n := range all {
		if !n.IsSuppressed {
			continue
		}
		require.NotEmpty(t, n.CanonicalFactID)
		canonical := byID[n.CanonicalFactID]
		require.NotNil(t, canonical)
		assert.False(t, canonical.IsSuppressed)
		assert.Equal(t, n.DuplicateGroupID, canonical.DuplicateGroupID)
	}
}

func TestDedupService_SuppressDuplicates_PinnedWinsOverOldest(t *testing.T) {
	svc, db, cleanup := setupDedupService(t)
	defer cleanup()

	ws := testutil.TestWorkspace(t, db)
	project := testutil.TestProject(t, db, ws.ID)
	doc := testutil.TestSourceDoc(t, db, ws.ID, project.ID, "https://example.com/a")

	text := "Electric vehicle sales doubled between 2021 and 2023 worldwide"
	createFact(t, db, project.ID, doc.ID, text, 3*time.Hour, nil)
	pinned := createFact(t, db, project.ID, doc.ID, text+".", time.Hour, func(n *model.ResearchNode) {
		n.IsPinned = true
	})

	_, err := svc.SuppressDuplicates(project.ID)
	require.NoError(t, err)

	repo := repository.NewNodeRepository(db)
	canonical, err := repo.GetByID(pinned.ID)
	require.NoError(t, err)
	assert.False(t, canonical.IsSuppressed)
}

func TestDedupService_GroupFacts_PercentVariants(t *testing.T) {
	svc, db, cleanup := setupDedupService(t)
	defer cleanup()

	ws := testutil.TestWorkspace(t, db)
	project := testutil.TestProject(t, db, ws.ID)
	doc := testutil.TestSourceDoc(t, db, ws.ID, project.ID, "https://example.com/a")

	// Token sets differ only in "percent" vs "13%" wording.
	keyClaim := createFact(t, db, project.ID, doc.ID,
		"Arctic sea ice has declined by 13 percent per decade since 1979", 2*time.Hour, func(n *model.ResearchNode) {
			n.IsKeyClaim = true
		})
	variant := createFact(t, db, project.ID, doc.ID,
		"Arctic sea ice has declined by 13% per decade since 1979", time.Hour, nil)
	other := createFact(t, db, project.ID, doc.ID,
		"Mediterranean water temperature rose two degrees over the same period", 30*time.Minute, nil)

	groups, err := svc.GroupFacts(project.ID, 0.88)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	var pair *FactGroup
	for _, g := range groups {
		if len(g.Members) == 2 {
			pair = g
		}
	}
	require.NotNil(t, pair, "the two variants should share a group")

	memberIDs := []string{pair.Members[0].ID, pair.Members[1].ID}
	assert.Contains(t, memberIDs, keyClaim.ID)
	assert.Contains(t, memberIDs, variant.ID)

	// All else equal, the key claim is canonical.
	assert.Equal(t, keyClaim.ID, pair.Canonical.ID)

	_ = other
}

func TestDedupService_GroupFacts_Deterministic(t *testing.T) {
	svc, db, cleanup := setupDedupService(t)
	defer cleanup()

	ws := testutil.TestWorkspace(t, db)
	project := testutil.TestProject(t, db, ws.ID)
	doc := testutil.TestSourceDoc(t, db, ws.ID, project.ID, "https://example.com/a")

	texts := []string{
		"Solar capacity grew 22 percent last year in the region",
		"Solar capacity grew 22 percent last year in the region overall",
		"Wind generation stayed flat across the same reporting window",
		"Hydro output fell sharply after the reservoir drawdown in spring",
	}
	for i, text := range texts {
		createFact(t, db, project.ID, doc.ID, text, time.Duration(len(texts)-i)*time.Hour, nil)
	}

	first, err := svc.GroupFacts(project.ID, 0.88)
	require.NoError(t, err)
	second, err := svc.GroupFacts(project.ID, 0.88)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].GroupID, second[i].GroupID)
		assert.Equal(t, first[i].Canonical.ID, second[i].Canonical.ID)
		require.Equal(t, len(first[i].Members), len(second[i].Members))
		for j := range first[i].Members {
			assert.Equal(t, first[i].Members[j].ID, second[i].Members[j].ID)
		}
	}
}

func TestDedupService_GroupFacts_DoesNotPersist(t *testing.T) {
	svc, db, cleanup := setupDedupService(t)
	defer cleanup()

	ws := testutil.TestWorkspace(t, db)
	project := testutil.TestProject(t, db, ws.ID)
	doc := testutil.TestSourceDoc(t, db, ws.ID, project.ID, "https://example.com/a")

	text := "Battery storage deployments tripled in under three years nationwide"
	createFact(t, db, project.ID, doc.ID, text, 2*time.Hour, nil)
	createFact(t, db, project.ID, doc.ID, text+" too", time.Hour, nil)

	_, err := svc.GroupFacts(project.ID, 0.88)
	require.NoError(t, err)

	var suppressed int64
	require.NoError(t, db.Model(&model.ResearchNode{}).
		Where("project_id = ? AND (is_suppressed = ? OR duplicate_group_id <> '')", project.ID, true).
		Count(&suppressed).Error)
	assert.Equal(t, int64(0), suppressed)
}
