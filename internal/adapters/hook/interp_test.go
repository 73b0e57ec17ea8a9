package hook_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/envcache/internal/adapters/hook"
	"go.trai.ch/envcache/internal/core/domain"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// evaluate runs src in an embedded bash interpreter and returns its stdout.
func evaluate(t *testing.T, src string, environ ...string) string {
	t.Helper()

	file, err := syntax.NewParser().Parse(strings.NewReader(src), "hook.sh")
	require.NoError(t, err)

	var out bytes.Buffer
	runner, err := interp.New(
		interp.Env(expand.ListEnviron(environ...)),
		interp.StdIO(nil, &out, &out),
	)
	require.NoError(t, err)
	require.NoError(t, runner.Run(context.Background(), file))
	return out.String()
}

func TestRenderer_Render_Interpreted(t *testing.T) {
	cfg, res := fixture(domain.OutcomeCached)
	var script bytes.Buffer
	require.NoError(t, hook.NewRenderer().Render(&script, cfg, res))

	src := "watched=0\nwatch_file() { watched=$#; }\n" +
		script.String() +
		`printf '%s|%s|%s|%s|%s' "$GREETING" "$MULTI" "$QUOTE" "${GONE-unset}" "$watched"`

	got := evaluate(t, src, "GONE=1")

	assert.Equal(t, "hello world|a\nb|it's|unset|7", got)
}

func TestQuote_Interpreted(t *testing.T) {
	values := []string{
		"plain",
		"with space",
		"$HOME and `date` and $(id)",
		"it's \"quoted\"",
		"line1\nline2\r\n",
		`back\slash`,
		"naïve ☃",
		"*?[]{}~!#;&|<>",
	}

	for _, v := range values {
		t.Run(v, func(t *testing.T) {
			assert.Equal(t, v, evaluate(t, "printf %s "+hook.Quote(v)))
		})
	}
}
