package templating_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/templating"
)

func payload(t *testing.T, raw string) model.Payload {
	t.Helper()
	p, err := model.ParsePayload([]byte(raw))
	gt.NoError(t, err)
	return p
}

func TestRender(t *testing.T) {
	t.Run("event name and data paths", func(t *testing.T) {
		input := &templating.Input{
			Event:   "push",
			Payload: payload(t, `{"ref":"refs/heads/main","forced":false,"head_commit":{"id":null}}`),
		}

		gt.V(t, templating.Render("got [[event]] on [[ref]]", input)).
			Equal("got push on refs/heads/main")
		gt.V(t, templating.Render("forced=[[forced]]", input)).
			Equal("forced=false")
		gt.V(t, templating.Render("id=[[head_commit->id]]", input)).
			Equal("id=null")
	})

	t.Run("unresolved path renders the last segment", func(t *testing.T) {
		input := &templating.Input{Payload: payload(t, `{}`)}
		gt.V(t, templating.Render("[[sender->login]]", input)).Equal("login")
	})

	t.Run("hyperlink helper", func(t *testing.T) {
		input := &templating.Input{
			Payload: payload(t, `{"sender":{"url":"https://x/alice","login":"alice"}}`),
		}
		gt.V(t, templating.Render("[[@hyperlink sender->url as sender->login]]", input)).
			Equal(`<a href="https://x/alice" target="_blank">alice</a>`)
		gt.V(t, templating.Render("[[@hyperlink sender->url]]", input)).
			Equal(`<a href="https://x/alice" target="_blank">https://x/alice</a>`)
	})

	t.Run("mailto and image helpers", func(t *testing.T) {
		input := &templating.Input{
			Payload: payload(t, `{"pusher":{"email":"alice@example.com","name":"alice"},"avatar":"https://x/a.png"}`),
		}
		gt.V(t, templating.Render("[[@mailto pusher->email as pusher->name]]", input)).
			Equal(`<a href="mailto:alice@example.com">alice</a>`)
		gt.V(t, templating.Render("[[@image avatar 32]]", input)).
			Equal(`<img src="https://x/a.png" width="32">`)
		gt.V(t, templating.Render("[[@image avatar]]", input)).
			Equal(`<img src="https://x/a.png">`)
	})

	t.Run("substring helper clamps to the value", func(t *testing.T) {
		input := &templating.Input{
			Payload: payload(t, `{"after":"0123456789abcdef"}`),
		}
		gt.V(t, templating.Render("[[@substring after 0 7]]", input)).Equal("0123456")
		gt.V(t, templating.Render("[[@substring after 12 100]]", input)).Equal("cdef")
		gt.V(t, templating.Render("[[@substring after 99 5]]", input)).Equal("")
	})

	t.Run("count helper pluralizes", func(t *testing.T) {
		input := &templating.Input{
			Payload: payload(t, `{"commits":[{"id":"a"},{"id":"b"}],"single":[1]}`),
		}
		gt.V(t, templating.Render("[[@count commits commit commits]]", input)).
			Equal("2 commits")
		gt.V(t, templating.Render("[[@count single commit commits]]", input)).
			Equal("1 commit")
	})

	t.Run("for loop expands per element", func(t *testing.T) {
		input := &templating.Input{
			Payload: payload(t, `{"commits":[{"id":"abc"},{"id":"def"}]}`),
		}
		got := templating.Render("[[@for commits as c]]commit [[c->id]];[[@endfor]]", input)
		gt.V(t, got).Equal("commit abc;commit def;")
	})

	t.Run("for loop over missing or non-array path renders nothing", func(t *testing.T) {
		input := &templating.Input{Payload: payload(t, `{"ref":"x"}`)}
		gt.V(t, templating.Render("[[@for commits as c]]x[[@endfor]]", input)).Equal("")
		gt.V(t, templating.Render("[[@for ref as c]]x[[@endfor]]", input)).Equal("")
	})

	t.Run("context root reads dispatch context", func(t *testing.T) {
		input := &templating.Input{
			Payload: payload(t, `{"id":"abc"}`),
			Context: payload(t, `{"repository":{"full_name":"blue/example"}}`),
		}
		gt.V(t, templating.Render("[[id]] in [[context->repository->full_name]]", input)).
			Equal("abc in blue/example")
	})

	t.Run("newlines become break tags", func(t *testing.T) {
		input := &templating.Input{Payload: payload(t, `{}`)}
		gt.V(t, templating.Render("a\nb", input)).Equal("a<br>\nb")
	})

	t.Run("substituted data is not re-expanded", func(t *testing.T) {
		// a payload value that looks like template syntax must survive the
		// final pass verbatim
		input := &templating.Input{
			Payload: payload(t, `{"a":"[[b]]","b":"X"}`),
		}
		gt.V(t, templating.Render("[[a]]", input)).Equal("[[b]]")
	})
}
