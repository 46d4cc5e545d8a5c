package prompttpl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderSubstitutesVariables(t *testing.T) {
	e := New()
	out, err := e.Render("greeting", "Hello {{ name }}, you wrote about {{ subject }}.", map[string]interface{}{
		"name":    "Dana",
		"subject": "renewal",
	})
	require.NoError(t, err)
	require.Equal(t, "Hello Dana, you wrote about renewal.", out)
}

func TestRenderUsesDefaultFilter(t *testing.T) {
	e := New()
	out, err := e.Render("", `{{ nickname | default: "there" }}`, map[string]interface{}{"nickname": ""})
	require.NoError(t, err)
	require.Equal(t, "there", out)
}

func TestRenderTruncatesLongBody(t *testing.T) {
	e := New()
	body := "this is a very long email body that goes on and on"
	out, err := e.Render("", `{{ body | truncate: 10 }}`, map[string]interface{}{"body": body})
	require.NoError(t, err)
	require.Len(t, out, 10)
}

func TestRenderCachesTemplateByKey(t *testing.T) {
	e := New()
	_, err := e.Render("tpl1", "{{ a }}", map[string]interface{}{"a": "1"})
	require.NoError(t, err)
	out, err := e.Render("tpl1", "ignored second template body", map[string]interface{}{"a": "2"})
	require.NoError(t, err)
	require.Equal(t, "2", out)
}

func TestRenderReturnsErrorOnBadSyntax(t *testing.T) {
	e := New()
	_, err := e.Render("", "{{ unterminated", nil)
	require.Error(t, err)
}
