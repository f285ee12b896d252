package team

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turnwise/turnwise/tool"
)

func schemas(names ...string) []tool.Schema {
	out := make([]tool.Schema, len(names))
	for i, n := range names {
		out[i] = tool.Schema{Name: n}
	}
	return out
}

func names(schemas []tool.Schema) []string {
	out := make([]string, len(schemas))
	for i, s := range schemas {
		out[i] = s.Name
	}
	return out
}

func TestAllowedFiltersByTeam(t *testing.T) {
	all := schemas("web_search", "code_executor", "calculator")

	got := Default.Allowed(all, "research")
	assert.Equal(t, []string{"web_search"}, names(got))

	got = Default.Allowed(all, "code")
	assert.Equal(t, []string{"code_executor", "calculator"}, names(got))
}

func TestAllowedGeneralIsUnrestricted(t *testing.T) {
	all := schemas("web_search", "calculator", "run_tool")

	got := Default.Allowed(all, General)
	assert.Equal(t, all, got)
}

func TestAllowedUnknownTeamIsUnrestricted(t *testing.T) {
	all := schemas("web_search", "calculator")

	got := Default.Allowed(all, "marketing")
	assert.Equal(t, all, got)
}

func TestAllowedToleratesUnregisteredNames(t *testing.T) {
	// The allow-list may name tools that are not registered; filtering just
	// yields the intersection.
	all := schemas("calculator")

	got := Default.Allowed(all, "code")
	assert.Equal(t, []string{"calculator"}, names(got))
}

func TestTeams(t *testing.T) {
	assert.ElementsMatch(t, []string{"research", "code", General}, Default.Teams())
}
