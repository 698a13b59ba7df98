package service

import (
	"github.com/sendit2sri/artifact-os/config"
	"github.com/sendit2sri/artifact-os/internal/model"
	"github.com/sendit2sri/artifact-os/internal/pkg/textsim"
	"github.com/sendit2sri/artifact-os/internal/repository"
)

// FactGroup is one cluster of near-duplicate facts from the read-time
// grouping mode. Nothing about it is persisted.
type FactGroup struct {
	GroupID   string                `json:"group_id"`
	Canonical *model.ResearchNode   `json:"canonical"`
	Members   []*model.ResearchNode `json:"members"`
}

// SuppressReport summarizes one pairwise suppression run.
type SuppressReport struct {
	Scanned         int `json:"scanned"`
	GroupsFormed    int `json:"groups_formed"`
	FactsSuppressed int `json:"facts_suppressed"`
}

// DedupService collapses near-duplicate facts. Two modes: pairwise
// suppression that persists irreversibly, and lexical grouping that only
// shapes a read.
type DedupService struct {
	nodeRepo *repository.NodeRepository
	cfg      *config.DedupConfig
}

func NewDedupService(nodeRepo *repository.NodeRepository, cfg *config.DedupConfig) *DedupService {
	return &DedupService{nodeRepo: nodeRepo, cfg: cfg}
}

// SuppressDuplicates runs pairwise threshold clustering over a project's
// non-suppressed facts, oldest first, capped at the configured limit. Each
// unclustered fact is compared against all later facts by normalized
// character-sequence similarity; matches at or above the threshold form a
// group whose non-canonical members are suppressed in the store.
//
// The input cap is a deliberate scalability ceiling: the scan is O(n^2).
func (s *DedupService) SuppressDuplicates(projectID string) (*SuppressReport, error) {
	limit := s.cfg.PairwiseLimit
	if limit <= 0 {
		limit = 500
	}
	threshold := s.cfg.PairwiseThreshold
	if threshold <= 0 {
		threshold = 0.92
	}

	nodes, err := s.nodeRepo.ListActiveByProject(projectID, limit)
	if err != nil {
		return nil, err
	}

	report := &SuppressReport{Scanned: len(nodes)}
	normalized := make([]string, len(nodes))
	for i, n := range nodes {
		normalized[i] = textsim.Normalize(n.FactText)
	}

	clustered := make([]bool, len(nodes))
	for i := range nodes {
		if clustered[i] {
			continue
		}
		group := []*model.ResearchNode{nodes[i]}
		for j := i + 1; j < len(nodes); j++ {
			if clustered[j] {
				continue
			}
			if textsim.Ratio(normalized[i], normalized[j]) >= threshold {
				group = append(group, nodes[j])
				clustered[j] = true
			}
		}
		if len(group) < 2 {
			continue
		}
		clustered[i] = true

		canonical := pickCanonical(group)
		memberIDs := make([]string, 0, len(group)-1)
		for _, member := range group {
			if member.ID != canonical.ID {
				memberIDs = append(memberIDs, member.ID)
			}
		}

		groupID := textsim.GroupID(textsim.Normalize(canonical.FactText))
		if err := s.nodeRepo.Suppress(groupID, canonical.ID, memberIDs); err != nil {
			return nil, err
		}
		report.GroupsFormed++
		report.FactsSuppressed += len(memberIDs)
	}

	return report, nil
}

// GroupFacts runs the lexical grouping mode: a greedy single pass over the
// project's facts, newest first. Each fact joins the first existing group
// whose first member scores at or above minSim by token-set Jaccard, else
// starts a new group. Greedy first-fit is order-dependent by design, which
// makes repeated runs over the same data deterministic. Nothing is
// persisted.
func (s *DedupService) GroupFacts(projectID string, minSim float64) ([]*FactGroup, error) {
	if minSim <= 0 {
		minSim = s.cfg.LexicalMinSim
	}
	if minSim <= 0 {
		minSim = 0.88
	}

	nodes, err := s.nodeRepo.ListActiveByProjectNewest(projectID)
	if err != nil {
		return nil, err
	}

	type cluster struct {
		firstTokens map[string]struct{}
		members     []*model.ResearchNode
	}
	var clusters []*cluster

	for _, node := range nodes {
		tokens := textsim.TokenSet(node.FactText)
		placed := false
		for _, c := range clusters {
			if textsim.Jaccard(tokens, c.firstTokens) >= minSim {
				c.members = append(c.members, node)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, &cluster{firstTokens: tokens, members: []*model.ResearchNode{node}})
		}
	}

	groups := make([]*FactGroup, 0, len(clusters))
	for _, c := range clusters {
		canonical := pickCanonical(c.members)
		groups = append(groups, &FactGroup{
			GroupID:   textsim.GroupID(textsim.Normalize(canonical.FactText)),
			Canonical: canonical,
			Members:   c.members,
		})
	}
	return groups, nil
}

// pickCanonical selects the group representative by priority tuple: pinned,
// then key claim, then higher confidence, then oldest. The first criterion
// that differs decides.
func pickCanonical(group []*model.ResearchNode) *model.ResearchNode {
	best := group[0]
	for _, candidate := range group[1:] {
		if betterCanonical(candidate, best) {
			best = candidate
		}
	}
	return best
}

func betterCanonical(a, b *model.ResearchNode) bool {
	if a.IsPinned != b.IsPinned {
		return a.IsPinned
	}
	if a.IsKeyClaim != b.IsKeyClaim {
		return a.IsKeyClaim
	}
	if a.ConfidenceScore != b.ConfidenceScore {
		return a.ConfidenceScore > b.ConfidenceScore
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
