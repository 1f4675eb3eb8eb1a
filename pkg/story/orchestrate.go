package story

import (
	"cmp"
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"fable/pkg/gateway"
	"fable/pkg/schema"
)

// Options tune a Generator.
type Options struct {
	// AbortOnPageTextFailure aborts a whole run when one page's planning
	// call fails at the gateway. When false (the default) the page falls
	// back to its deterministic plan and the run keeps going, matching the
	// policy already applied to illustration failures.
	AbortOnPageTextFailure bool

	IllustrationTimeout time.Duration
	// ImageInterval spaces successive illustration calls; zero disables.
	ImageInterval time.Duration
}

// Generator sequences scene division, planning, and illustration across a
// run, carrying the single continuity anchor from page to page. Pages are
// generated strictly in order: each prompt depends on the previous page's
// output, so there is nothing to parallelize.
type Generator struct {
	Divider     SceneDivider
	Planner     PagePlanner
	Illustrator PageIllustrator

	AbortOnPageTextFailure bool
}

func NewGenerator(gw gateway.Gateway, opts Options) *Generator {
	return &Generator{
		Divider:                NewDivider(gw),
		Planner:                NewPlanner(gw),
		Illustrator:            NewIllustrator(gw, opts.IllustrationTimeout, opts.ImageInterval),
		AbortOnPageTextFailure: opts.AbortOnPageTextFailure,
	}
}

// GenerateStory runs the whole-story pipeline. Scene division failure is
// fatal; cover and per-page illustration failures degrade to pages without
// pictures. The page count always equals the scene count on success.
func (g *Generator) GenerateStory(ctx context.Context, req schema.StoryRequest) (*schema.StoryResult, error) {
	scenes := cleanScenes(req.Scenes)
	if strings.TrimSpace(req.FullScript) == "" && len(scenes) == 0 {
		return nil, &InputError{Field: "fullScript", Reason: "provide fullScript or scenes"}
	}

	if len(scenes) == 0 {
		divided, err := g.Divider.Divide(ctx, req.FullScript)
		if err != nil {
			return nil, err
		}
		scenes = divided
	}
	log.Info("generating story", "scenes", len(scenes), "hasReference", req.ReferenceImage != nil)

	anchor := req.ReferenceImage

	cover, coverImage := g.generateCover(ctx, req.Metadata, req.GlobalContext, anchor)
	if coverImage != nil {
		anchor = coverImage
	}

	pages := make([]schema.StoryPage, 0, len(scenes))
	var prev *schema.PagePlan
	for i, scene := range scenes {
		pageNumber := i + 1

		plan, err := g.Planner.PlanPage(ctx, scene, req.GlobalContext)
		if err != nil {
			if g.AbortOnPageTextFailure {
				return nil, err
			}
			log.Warn("page planning failed, continuing on fallback plan", "page", pageNumber, "error", err)
		}

		prompt := JoinSegments(
			globalThemeBlock(req.GlobalContext),
			previousPageBlock(prev),
			plan.ImagePrompt,
			anchorNoteIf(anchor != nil),
		)

		image, err := g.Illustrator.IllustrateWithTimeout(ctx, prompt, refsFrom(anchor))
		if err != nil {
			log.Warn("page illustration failed, continuing without image", "page", pageNumber, "error", err)
			image = nil
		}
		if image != nil {
			anchor = image
		}

		pages = append(pages, schema.StoryPage{
			PageNumber:  pageNumber,
			PageContent: plan.EnhancedContent,
			ImagePrompt: prompt,
			Image:       imagePayload(image),
		})
		prev = plan
	}

	return &schema.StoryResult{
		Metadata:      req.Metadata,
		GlobalContext: req.GlobalContext,
		Cover:         cover,
		TotalPages:    len(pages),
		Pages:         pages,
	}, nil
}

// GeneratePage runs the single-page pipeline: plan, assemble the prompt
// with whatever continuity the caller supplied, illustrate.
func (g *Generator) GeneratePage(ctx context.Context, req schema.PageRequest) (*schema.PageResult, error) {
	if strings.TrimSpace(req.PageContent) == "" {
		return nil, &InputError{Field: "pageContent", Reason: "required"}
	}

	scene := req.PageContent
	if strings.TrimSpace(req.StoryContext) != "" {
		scene = req.StoryContext + "\n" + req.PageContent
	}

	plan, err := g.Planner.PlanPage(ctx, scene, req.GlobalContext)
	if err != nil {
		if g.AbortOnPageTextFailure {
			return nil, err
		}
		log.Warn("page planning failed, continuing on fallback plan", "error", err)
	}

	refs := refsFrom(req.ReferenceImage, req.PrevImage)
	prompt := JoinSegments(
		globalThemeBlock(req.GlobalContext),
		continuityBlock(req.PrevPageContent, req.PrevPageImagePrompt),
		cmp.Or(req.ImagePrompt, plan.ImagePrompt),
		anchorNoteIf(len(refs) > 0),
	)

	image, err := g.Illustrator.IllustrateWithTimeout(ctx, prompt, refs)
	if err != nil {
		log.Warn("page illustration failed, continuing without image", "error", err)
		image = nil
	}

	return &schema.PageResult{
		EnhancedContent: plan.EnhancedContent,
		ImagePrompt:     prompt,
		Suggestions:     plan.Suggestions,
		Image:           imagePayload(image),
		PageNumber:      cmp.Or(req.PageNumber, 1),
		TotalPages:      cmp.Or(req.TotalPages, 1),
	}, nil
}

// GenerateCover runs the standalone cover pipeline.
func (g *Generator) GenerateCover(ctx context.Context, req schema.CoverRequest) (*schema.CoverResult, error) {
	var anchor *schema.GeneratedImage
	if req.ReferenceImage != nil {
		anchor = req.ReferenceImage
	} else if req.PrevImage != nil {
		anchor = req.PrevImage
	}
	cover, _ := g.generateCover(ctx, req.Metadata, req.GlobalContext, anchor)
	return cover, nil
}

// generateCover plans and illustrates the front cover. Cover failure never
// blocks page generation, so every failure path degrades to a plan without
// an image.
func (g *Generator) generateCover(ctx context.Context, md schema.Metadata, globalContext string, anchor *schema.GeneratedImage) (*schema.CoverResult, *schema.GeneratedImage) {
	plan, err := g.Planner.PlanCover(ctx, md, globalContext)
	if err != nil {
		log.Warn("cover planning failed, continuing on fallback plan", "error", err)
	}

	prompt := JoinSegments(
		globalThemeBlock(globalContext),
		coverFraming,
		plan.ImagePrompt,
		anchorNoteIf(anchor != nil),
	)

	image, err := g.Illustrator.IllustrateWithTimeout(ctx, prompt, refsFrom(anchor))
	if err != nil {
		log.Warn("cover illustration failed, continuing without image", "error", err)
		image = nil
	}

	return &schema.CoverResult{
		Title:       plan.CoverTitle,
		Subtitle:    plan.CoverSubtitle,
		ImagePrompt: prompt,
		Image:       imagePayload(image),
	}, image
}

func cleanScenes(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func previousPageBlock(prev *schema.PagePlan) string {
	if prev == nil {
		return ""
	}
	return continuityBlock(prev.EnhancedContent, prev.ImagePrompt)
}

func anchorNoteIf(hasAnchor bool) string {
	if !hasAnchor {
		return ""
	}
	return anchorNote
}

// refsFrom decodes the given images into inline reference blobs, skipping
// nils and anything that fails to decode.
func refsFrom(images ...*schema.GeneratedImage) []gateway.Blob {
	var out []gateway.Blob
	for _, img := range images {
		if img == nil {
			continue
		}
		data, err := img.Bytes()
		if err != nil {
			log.Warn("skipping undecodable reference image", "error", err)
			continue
		}
		out = append(out, gateway.Blob{MIMEType: img.MimeType, Data: data})
	}
	return out
}

func imagePayload(img *schema.GeneratedImage) *schema.ImagePayload {
	if img == nil {
		return nil
	}
	return img.Payload()
}
