package story

import (
	"context"

	"fable/pkg/gateway"
	"fable/pkg/schema"
)

// SceneDivider splits a raw script into an ordered list of scene
// descriptions.
type SceneDivider interface {
	Divide(ctx context.Context, fullScript string) ([]string, error)
}

// PagePlanner produces page and cover plans. Implementations absorb parse
// failures into deterministic fallback plans; the returned error is non-nil
// only when the remote call itself failed, and even then the plan is usable.
type PagePlanner interface {
	PlanPage(ctx context.Context, scene, globalContext string) (*schema.PagePlan, error)
	PlanCover(ctx context.Context, md schema.Metadata, globalContext string) (*schema.CoverPlan, error)
}

// PageIllustrator turns a finalized prompt plus continuity references into
// a generated illustration. A nil image with nil error is the legitimate
// "model produced no picture" outcome.
type PageIllustrator interface {
	Illustrate(ctx context.Context, prompt string, refs []gateway.Blob) (*schema.GeneratedImage, error)
	IllustrateWithTimeout(ctx context.Context, prompt string, refs []gateway.Blob) (*schema.GeneratedImage, error)
}
