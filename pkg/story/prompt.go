package story

import (
	"cmp"
	"fmt"
	"strings"

	"fable/pkg/schema"
)

// JoinSegments assembles a prompt from optional prose blocks: absent blocks
// are filtered out and the rest joined with a blank line. All prompt
// composition goes through here so the separator stays uniform.
func JoinSegments(segments ...string) string {
	kept := make([]string, 0, len(segments))
	for _, s := range segments {
		if strings.TrimSpace(s) != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n\n")
}

const anchorNote = "Maintain visual continuity with the previous image."

// illustrationStyle is the fixed framing every illustration request opens
// with, keeping dialogue legible and style consistent across pages.
const illustrationStyle = `You are illustrating a children's storybook. ` +
	`Render rich, warm detail suitable for the page described below. ` +
	`Any dialogue or text embedded in the picture must be large and legible. ` +
	`When reference images are provided, keep character designs, outfits, ` +
	`color palette, and art style consistent with them.`

const coverFraming = `This is the front cover of the book. Leave room for ` +
	`the title lettering and make the composition inviting at thumbnail size.`

func buildSceneDivisionPrompt(script string) string {
	return `You are a helpful assistant that divides a children's story script into scenes. ` +
		`Each scene should be concise and focused on a single event or setting. ` +
		`Do not shorten or simplify the content; only segment it and lightly polish the prose.` +
		"\n\nScript:\n" + script +
		"\n\nReturn the scenes as a JSON array of short strings. Example:\n" +
		"[\n" +
		`  "Scene 1: A bustling city street at dawn.",` + "\n" +
		`  "Scene 2: A quiet park with children playing.",` + "\n" +
		`  "Scene 3: A cozy cafe where two friends meet."` + "\n" +
		"]"
}

func buildPagePlanPrompt(scene, globalContext string) string {
	return JoinSegments(
		"You are a professional children's storybook writer and illustrator.",
		globalContextBlock(globalContext),
		"Scene:\n"+scene,
		"Return strict JSON with keys: enhancedContent (string), imagePrompt (string), suggestions (string[3]).",
		"Schema:\n"+schema.FormatHint(schema.PagePlanSchema),
	)
}

func buildCoverPlanPrompt(md schema.Metadata, globalContext string) string {
	return JoinSegments(
		"You are a professional children's storybook writer and illustrator designing a front cover.",
		globalContextBlock(globalContext),
		fmt.Sprintf("Book Metadata:\n- Title: %s\n- Author: %s\n- Description: %s",
			cmp.Or(md.Title, "Untitled Story"),
			cmp.Or(md.Author, "Unknown"),
			cmp.Or(md.Description, "No description")),
		"Return strict JSON with keys: coverTitle (string), coverSubtitle (string), imagePrompt (string).",
		"Schema:\n"+schema.FormatHint(schema.CoverPlanSchema),
	)
}

func globalContextBlock(globalContext string) string {
	if strings.TrimSpace(globalContext) == "" {
		return ""
	}
	return "Global Context (apply consistently across prose and image prompt):\n" + globalContext
}

// globalThemeBlock is the shorter form used in image prompts.
func globalThemeBlock(globalContext string) string {
	if strings.TrimSpace(globalContext) == "" {
		return ""
	}
	return "Global theme: " + globalContext
}

// continuityBlock carries the previous page's narrative and prompt forward
// so the model preserves established designs. Empty when there is no
// previous page.
func continuityBlock(prevContent, prevImagePrompt string) string {
	if strings.TrimSpace(prevContent) == "" && strings.TrimSpace(prevImagePrompt) == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("Continuity with the previous page:")
	if strings.TrimSpace(prevContent) != "" {
		b.WriteString("\nPrevious page text: " + prevContent)
	}
	if strings.TrimSpace(prevImagePrompt) != "" {
		b.WriteString("\nPrevious image prompt: " + prevImagePrompt)
	}
	b.WriteString("\nPreserve the established character designs, outfits, art style, and palette.")
	return b.String()
}
