package questions

import (
	"strings"

	"github.com/jonathan/executive-intake/internal/types"
)

// Function is the functional area a role belongs to.
type Function string

// Functional areas with dedicated templates
const (
	FunctionSales       Function = "sales"
	FunctionEngineering Function = "engineering"
	FunctionMarketing   Function = "marketing"
	FunctionFinance     Function = "finance"
	FunctionProduct     Function = "product"
	FunctionOperations  Function = "operations"
	FunctionGeneral     Function = "general"
)

type seniority string

const (
	seniorityVP     seniority = "vp"
	seniorityCSuite seniority = "c_suite"
)

type stage string

const (
	stageEarly  stage = "early"
	stageGrowth stage = "growth"
	stageLate   stage = "late"
)

type template struct {
	text     string
	category types.QuestionCategory
}

var functionTemplates = map[Function]map[seniority][]template{
	FunctionSales: {
		seniorityVP: {
			{"What experience should this VP have with your current sales motion (product-led, enterprise, or hybrid)?", types.CategoryExperience},
			{"How should they balance player-coach responsibilities between direct selling and team building?", types.CategoryCulturalFit},
			{"What is the most complex deal cycle they should have experience navigating in a similar market?", types.CategoryExperience},
		},
		seniorityCSuite: {
			{"What board-level metrics and reporting cadence will this person own?", types.CategoryOther},
			{"Is international expansion on your 18-month roadmap, and should they have led it before?", types.CategoryExperience},
			{"What philosophy on sales team composition (hunters vs. farmers, inside vs. field) fits your plans?", types.CategoryCulturalFit},
		},
	},
	FunctionEngineering: {
		seniorityVP: {
			{"How hands-on should this VP be with architecture decisions and code reviews?", types.CategoryCulturalFit},
			{"What is the right balance between shipping features and addressing technical debt for this leader?", types.CategoryOther},
			{"What experience should they have with your specific tech stack and architectural patterns?", types.CategoryExperience},
		},
		seniorityCSuite: {
			{"How should this person balance innovation with operational excellence?", types.CategoryCulturalFit},
			{"What experience should they have building and retaining engineering teams in competitive hiring markets?", types.CategoryExperience},
			{"How should they approach build vs. buy decisions for your roadmap?", types.CategoryOther},
		},
	},
	FunctionMarketing: {
		seniorityVP: {
			{"Which demand generation channels have worked for you, and where do you need new expertise?", types.CategoryExperience},
			{"How technical should this marketing leader be given your product complexity?", types.CategoryExperience},
			{"What is the ideal background: product marketing, growth marketing, or brand marketing?", types.CategoryExperience},
		},
		seniorityCSuite: {
			{"How will this CMO work with sales leadership on pipeline and attribution?", types.CategoryCulturalFit},
			{"What experience should they have repositioning or rebranding a company?", types.CategoryExperience},
			{"How important is analyst relations and PR experience for this role?", types.CategoryExperience},
		},
	},
	FunctionFinance: {
		seniorityVP: {
			{"What financial planning and analysis experience is crucial for your stage?", types.CategoryExperience},
			{"How much involvement will they have with fundraising and investor relations?", types.CategoryOther},
			{"What systems implementation or transformation experience would be valuable?", types.CategoryExperience},
		},
		seniorityCSuite: {
			{"What IPO or exit preparation experience is relevant to your timeline?", types.CategoryExperience},
			{"How should this CFO think about unit economics and the path to profitability?", types.CategoryCulturalFit},
			{"What board and audit committee experience is required?", types.CategoryDealBreaker},
		},
	},
	FunctionProduct: {
		seniorityVP: {
			{"Should this VP come from a product-led growth or an enterprise sales-assisted background?", types.CategoryExperience},
			{"What customer research and validation methods align with your culture?", types.CategoryCulturalFit},
			{"How do you balance customer requests with product vision, and what experience reflects this?", types.CategoryExperience},
		},
		seniorityCSuite: {
			{"What role should this CPO play in pricing and packaging decisions?", types.CategoryOther},
			{"How should they approach platform vs. point solution strategy?", types.CategoryOther},
			{"What experience should they have with developer tools or APIs?", types.CategoryExperience},
		},
	},
	FunctionOperations: {
		seniorityVP: {
			{"Which operational scaling challenges will this leader face first (fulfillment, customer success, or others)?", types.CategoryExperience},
			{"How cross-functional should this role be across product, engineering, and go-to-market?", types.CategoryCulturalFit},
			{"What process improvement or transformation experience is most relevant?", types.CategoryExperience},
		},
		seniorityCSuite: {
			{"How should this COO complement the CEO's strengths and weaknesses?", types.CategoryCulturalFit},
			{"What P&L ownership experience should they bring?", types.CategoryExperience},
			{"How should they approach automation and efficiency improvements?", types.CategoryOther},
		},
	},
}

var stageTemplates = map[stage][]template{
	stageEarly: {
		{"What experience should they have taking a product from early adopters to the mainstream market?", types.CategoryExperience},
		{"How comfortable should they be with ambiguity and rapid pivots?", types.CategoryCulturalFit},
	},
	stageGrowth: {
		{"Which scaling challenges should they have navigated at this stage before?", types.CategoryExperience},
		{"How should they balance growth with unit economics and efficiency?", types.CategoryCulturalFit},
	},
	stageLate: {
		{"What experience should they have preparing a company for IPO or acquisition?", types.CategoryExperience},
		{"How should they have handled the complexity of multiple product lines or markets?", types.CategoryExperience},
	},
}

var universalTemplates = []template{
	{"Describe a leader who failed in your organization: what characteristics should we screen against?", types.CategoryCulturalFit},
	{"What specific outcomes must they achieve in their first 90 days to be considered successful?", types.CategoryOther},
	{"Are there any non-negotiable background requirements we haven't discussed (competitor experience, location flexibility)?", types.CategoryDealBreaker},
}

const templateRationale = "Standard question for this role type"

// DetectFunction guesses the functional area from a role title.
func DetectFunction(roleTitle string) Function {
	words := contentTokens(roleTitle)
	has := func(candidates ...string) bool {
		for _, w := range words {
			for _, c := range candidates {
				if w == c {
					return true
				}
			}
		}
		return false
	}

	switch {
	case has("sales", "revenue", "cro", "commercial", "business", "partnerships"):
		return FunctionSales
	case has("engineering", "cto", "technology", "technical", "software", "infrastructure"):
		return FunctionEngineering
	case has("marketing", "cmo", "brand", "growth", "demand"):
		return FunctionMarketing
	case has("finance", "financial", "cfo", "controller", "treasurer"):
		return FunctionFinance
	case has("product", "cpo"):
		return FunctionProduct
	case has("operations", "operating", "coo"):
		return FunctionOperations
	default:
		return FunctionGeneral
	}
}

func detectSeniority(roleTitle string) seniority {
	for _, w := range contentTokens(roleTitle) {
		switch w {
		case "chief", "ceo", "cfo", "cto", "cmo", "cro", "coo", "cpo", "president", "evp":
			return seniorityCSuite
		}
	}
	return seniorityVP
}

func detectStage(companyStage string) (stage, bool) {
	s := strings.ToLower(companyStage)
	switch {
	case s == "":
		return "", false
	case strings.Contains(s, "seed"), strings.Contains(s, "series a"), strings.Contains(s, "pre-series"):
		return stageEarly, true
	case strings.Contains(s, "series b"):
		return stageGrowth, true
	case strings.Contains(s, "series c"), strings.Contains(s, "series d"), strings.Contains(s, "series e"),
		strings.Contains(s, "ipo"), strings.Contains(s, "public"), strings.Contains(s, "late"):
		return stageLate, true
	default:
		return "", false
	}
}

// Templates returns the role-specific fallback questions for reqs, most specific first.
// Questions carry no ids; ids are assigned when the final queue is built.
func Templates(reqs *types.JobRequirements) []types.Question {
	var picked []template
	if byLevel, ok := functionTemplates[DetectFunction(reqs.RoleTitle)]; ok {
		picked = append(picked, byLevel[detectSeniority(reqs.RoleTitle)]...)
	}
	if st, ok := detectStage(reqs.CompanyStage); ok {
		picked = append(picked, stageTemplates[st]...)
	}
	picked = append(picked, universalTemplates...)

	out := make([]types.Question, 0, len(picked))
	for _, t := range picked {
		out = append(out, types.Question{Text: t.text, Category: t.category, Rationale: templateRationale})
	}
	return out
}
