package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sendit2sri/artifact-os/internal/model/dto"
	"github.com/sendit2sri/artifact-os/internal/pkg/response"
	"github.com/sendit2sri/artifact-os/internal/service"
)

type ProjectHandler struct {
	dedupService *service.DedupService
}

func NewProjectHandler(dedupService *service.DedupService) *ProjectHandler {
	return &ProjectHandler{
		dedupService: dedupService,
	}
}

// Dedup runs pairwise duplicate suppression over a project's facts.
// POST /api/projects/:id/dedup
func (h *ProjectHandler) Dedup(c *gin.Context) {
	report, err := h.dedupService.SuppressDuplicates(c.Param("id"))
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, &dto.DedupResponse{
		Scanned:         report.Scanned,
		GroupsFormed:    report.GroupsFormed,
		FactsSuppressed: report.FactsSuppressed,
	})
}

// FactGroups returns a non-persisted lexical grouping preview.
// GET /api/projects/:id/fact-groups?min_similarity=0.88
func (h *ProjectHandler) FactGroups(c *gin.Context) {
	minSim := 0.0
	if raw := c.Query("min_similarity"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 || parsed > 1 {
			response.ParamError(c, "min_similarity must be in (0, 1]")
			return
		}
		minSim = parsed
	}

	groups, err := h.dedupService.GroupFacts(c.Param("id"), minSim)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	items := make([]*dto.FactGroupItem, 0, len(groups))
	for _, group := range groups {
		item := &dto.FactGroupItem{
			GroupID:     group.GroupID,
			CanonicalID: group.Canonical.ID,
			Members:     make([]dto.FactItem, 0, len(group.Members)),
		}
		for _, member := range group.Members {
			item.Members = append(item.Members, dto.FactItem{
				ID:              member.ID,
				FactText:        member.FactText,
				ConfidenceScore: member.ConfidenceScore,
				IsKeyClaim:      member.IsKeyClaim,
				IsPinned:        member.IsPinned,
			})
		}
		items = append(items, item)
	}

	response.Success(c, items)
}
