package story

import (
	"cmp"
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"fable/pkg/gateway"
	"fable/pkg/schema"
)

// The two fixed suggestion triples: one for the fallback plan, one used when
// a parsed plan carries no usable suggestion list.
var (
	fallbackSuggestions = []string{"Tighten pacing", "Add sensory detail", "Keep tone gentle and warm"}
	genericSuggestions  = []string{"Improve clarity", "Add detail", "Ensure consistency"}
)

const suggestionCount = 3

// Planner produces page and cover plans. A single page's planning must
// never abort a multi-page run, so parse failures become deterministic
// fallback plans; only the remote call error is surfaced, alongside a
// usable fallback, for the orchestrator's abort policy to weigh.
type Planner struct {
	gw gateway.Gateway
}

func NewPlanner(gw gateway.Gateway) *Planner {
	return &Planner{gw: gw}
}

func (p *Planner) PlanPage(ctx context.Context, scene, globalContext string) (*schema.PagePlan, error) {
	prompt := buildPagePlanPrompt(scene, globalContext)
	resp, err := p.gw.Invoke(ctx, gateway.ModalityText, []gateway.Part{gateway.TextPart(prompt)})
	if err != nil {
		return fallbackPagePlan(scene), fmt.Errorf("page plan: %w", err)
	}

	text := gateway.ExtractText(resp)
	var plan schema.PagePlan
	if derr := DecodeObject(text, &plan); derr != nil {
		log.Debug("page plan reply unparseable, using fallback", "error", derr)
		return fallbackPagePlan(scene), nil
	}
	plan.Suggestions = normalizeSuggestions(plan.Suggestions)
	return &plan, nil
}

func (p *Planner) PlanCover(ctx context.Context, md schema.Metadata, globalContext string) (*schema.CoverPlan, error) {
	prompt := buildCoverPlanPrompt(md, globalContext)
	resp, err := p.gw.Invoke(ctx, gateway.ModalityText, []gateway.Part{gateway.TextPart(prompt)})
	if err != nil {
		return fallbackCoverPlan(md), fmt.Errorf("cover plan: %w", err)
	}

	text := gateway.ExtractText(resp)
	var plan schema.CoverPlan
	if derr := DecodeObject(text, &plan); derr != nil {
		log.Debug("cover plan reply unparseable, using fallback", "error", derr)
		return fallbackCoverPlan(md), nil
	}
	if plan.CoverTitle == "" {
		plan.CoverTitle = md.Title
	}
	if plan.ImagePrompt == "" {
		plan.ImagePrompt = fallbackCoverPlan(md).ImagePrompt
	}
	return &plan, nil
}

func fallbackPagePlan(scene string) *schema.PagePlan {
	return &schema.PagePlan{
		EnhancedContent: scene,
		ImagePrompt:     "Illustration of: " + scene,
		Suggestions:     append([]string(nil), fallbackSuggestions...),
	}
}

func fallbackCoverPlan(md schema.Metadata) *schema.CoverPlan {
	return &schema.CoverPlan{
		CoverTitle:    md.Title,
		CoverSubtitle: "",
		ImagePrompt: fmt.Sprintf(
			"A warm, inviting children's storybook front cover for %q by %s",
			cmp.Or(md.Title, "Untitled Story"), cmp.Or(md.Author, "Unknown")),
	}
}

// normalizeSuggestions pins the list to exactly three entries: truncated
// when longer, padded from the generic triple when shorter or absent.
func normalizeSuggestions(in []string) []string {
	if len(in) == 0 {
		return append([]string(nil), genericSuggestions...)
	}
	if len(in) >= suggestionCount {
		return in[:suggestionCount]
	}
	out := append([]string(nil), in...)
	for _, s := range genericSuggestions {
		if len(out) == suggestionCount {
			break
		}
		out = append(out, s)
	}
	return out
}
