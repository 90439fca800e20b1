package questions

import (
	"context"
	"strings"

	"github.com/jonathan/executive-intake/internal/prompts"
	"github.com/jonathan/executive-intake/internal/types"
)

const notAvailable = "Not available"

// maxBriefLen bounds the model-written company brief carried into the question prompt.
const maxBriefLen = 1200

// CompanyResearch is the background a question prompt is grounded on.
type CompanyResearch struct {
	// Brief is the model-written summary of industry, competitors and regulatory environment.
	Brief         string
	StageInsights []string
	IPOInsights   []string
}

var stageInsights = map[stage][]string{
	stageEarly:  {"Scaling initial success", "Building systems", "Early go-to-market"},
	stageGrowth: {"Market expansion", "Operational scaling", "Team leadership"},
	stageLate:   {"Late-stage scaling", "Market leadership", "Public readiness"},
}

var ipoInsights = []string{"IPO preparation experience", "Public company readiness", "SEC compliance"}

// Research gathers company background for reqs. The brief comes from the research port
// under the generator timeout; stage and IPO insights are derived from the stated stage.
// A missing port or failed call leaves the brief empty and never fails generation.
func (g *Generator) Research(ctx context.Context, reqs *types.JobRequirements) CompanyResearch {
	out := CompanyResearch{
		StageInsights: []string{"General business leadership"},
	}
	if st, ok := detectStage(reqs.CompanyStage); ok {
		out.StageInsights = stageInsights[st]
	}
	if plansIPO(reqs.CompanyStage) {
		out.IPOInsights = ipoInsights
	}

	if g.research == nil || strings.TrimSpace(reqs.CompanyName) == "" {
		return out
	}

	prompt, err := prompts.Render("intake.json", "research-company", map[string]string{
		"CompanyName":  reqs.CompanyName,
		"CompanyStage": orNone(reqs.CompanyStage),
		"RoleTitle":    orNone(reqs.RoleTitle),
	})
	if err != nil {
		g.log.Warn("company research prompt failed", "error", err)
		return out
	}

	brief, err := g.research.Generate(ctx, prompt, g.timeout)
	if err != nil {
		g.log.Warn("company research unavailable", "company", reqs.CompanyName, "error", err)
		return out
	}
	out.Brief = truncateRunes(strings.TrimSpace(brief), maxBriefLen)
	return out
}

func plansIPO(companyStage string) bool {
	s := strings.ToLower(companyStage)
	return strings.Contains(s, "ipo") || strings.Contains(s, "going public")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, "; ")
}
