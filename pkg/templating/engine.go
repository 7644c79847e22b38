package templating

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
)

// Input is the data a template renders against: the event name, the event
// payload, and the dispatch context reachable through the reserved
// "context" path root.
type Input struct {
	Event   types.EventType
	Payload model.Payload
	Context model.Payload
}

// The passes run in a fixed order: the event literal, then the helpers,
// then loop expansion, and the plain data substitution always last so that
// helper-generated text is never re-interpreted as template syntax.
var (
	ptnEvent     = regexp.MustCompile(`\[\[event\]\]`)
	ptnHyperlink = regexp.MustCompile(`\[\[@hyperlink ([\w>-]+)(?: as ([\w>-]+))?\]\]`)
	ptnMailto    = regexp.MustCompile(`\[\[@mailto ([\w>-]+)(?: as ([\w>-]+))?\]\]`)
	ptnImage     = regexp.MustCompile(`\[\[@image ([\w>-]+)(?: (\d+))?\]\]`)
	ptnSubstring = regexp.MustCompile(`\[\[@substring ([\w>-]+) (\d+) (\d+)\]\]`)
	ptnCount     = regexp.MustCompile(`\[\[@count ([\w>-]+) (\S+) (\S+)\]\]`)
	ptnStyled    = regexp.MustCompile(`\[\[@styled ([\w>-]+) ([\w-]+)\]\]`)
	ptnFor       = regexp.MustCompile(`(?s)\[\[@for ([\w>-]+) as (\w+)\]\](.*?)\[\[@endfor\]\]`)
	ptnData      = regexp.MustCompile(`\[\[([\w>-]+)\]\]`)
)

// Render substitutes the template's markup against the input. Template
// errors never fail the render: an unresolved path shows up as the last
// path segment's name so operators can spot the typo in the output.
func Render(template string, input *Input) string {
	out := template

	out = ptnEvent.ReplaceAllString(out, string(input.Event))

	out = ptnHyperlink.ReplaceAllStringFunc(out, func(match string) string {
		m := ptnHyperlink.FindStringSubmatch(match)
		url := resolve(input, m[1])
		label := url
		if m[2] != "" {
			label = resolve(input, m[2])
		}
		return fmt.Sprintf(`<a href="%s" target="_blank">%s</a>`, url, label)
	})

	out = ptnMailto.ReplaceAllStringFunc(out, func(match string) string {
		m := ptnMailto.FindStringSubmatch(match)
		addr := resolve(input, m[1])
		label := addr
		if m[2] != "" {
			label = resolve(input, m[2])
		}
		return fmt.Sprintf(`<a href="mailto:%s">%s</a>`, addr, label)
	})

	out = ptnImage.ReplaceAllStringFunc(out, func(match string) string {
		m := ptnImage.FindStringSubmatch(match)
		url := resolve(input, m[1])
		if m[2] != "" {
			return fmt.Sprintf(`<img src="%s" width="%s">`, url, m[2])
		}
		return fmt.Sprintf(`<img src="%s">`, url)
	})

	out = ptnSubstring.ReplaceAllStringFunc(out, func(match string) string {
		m := ptnSubstring.FindStringSubmatch(match)
		value := []rune(resolve(input, m[1]))
		offset, _ := strconv.Atoi(m[2])
		length, _ := strconv.Atoi(m[3])
		if offset < 0 || offset >= len(value) {
			return ""
		}
		end := offset + length
		if end > len(value) {
			end = len(value)
		}
		return string(value[offset:end])
	})

	out = ptnCount.ReplaceAllStringFunc(out, func(match string) string {
		m := ptnCount.FindStringSubmatch(match)
		n := countOf(input, m[1])
		if n == 1 {
			return fmt.Sprintf("%d %s", n, m[2])
		}
		return fmt.Sprintf("%d %s", n, m[3])
	})

	out = ptnStyled.ReplaceAllStringFunc(out, func(match string) string {
		m := ptnStyled.FindStringSubmatch(match)
		return fmt.Sprintf(`<span class="%s">%s</span>`, m[2], resolve(input, m[1]))
	})

	out = ptnFor.ReplaceAllStringFunc(out, func(match string) string {
		m := ptnFor.FindStringSubmatch(match)
		path, loopVar, body := m[1], m[2], m[3]

		value, ok := input.Payload.LookupWith(input.Context, path)
		if !ok {
			return ""
		}
		elements, ok := value.([]any)
		if !ok {
			return ""
		}

		var sb strings.Builder
		for i := range elements {
			// the loop variable is rewritten to an indexed path, the data
			// pass below resolves it
			sb.WriteString(strings.ReplaceAll(body, "[["+loopVar, "[["+path+model.PathSeparator+strconv.Itoa(i)))
		}
		return sb.String()
	})

	out = ptnData.ReplaceAllStringFunc(out, func(match string) string {
		m := ptnData.FindStringSubmatch(match)
		return resolve(input, m[1])
	})

	return strings.ReplaceAll(out, "\n", "<br>\n")
}

func resolve(input *Input, path string) string {
	value, ok := input.Payload.LookupWith(input.Context, path)
	if !ok {
		segments := strings.Split(path, model.PathSeparator)
		return segments[len(segments)-1]
	}
	return model.RenderValue(value)
}

func countOf(input *Input, path string) int {
	value, ok := input.Payload.LookupWith(input.Context, path)
	if !ok {
		return 0
	}
	if elements, ok := value.([]any); ok {
		return len(elements)
	}
	if n, ok := value.(float64); ok {
		return int(n)
	}
	return 0
}
