// Package team implements coarse capability scoping: a turn is classified
// once into a team ("research", "code", "general") and the tool schemas
// offered to the model are narrowed to that team's allow-list. Filtering is a
// pure function over schema slices; the registry itself is never modified.
package team

import "github.com/turnwise/turnwise/tool"

// General is the unrestricted team: unknown teams and teams with an empty
// allow-list see every registered tool.
const General = "general"

// Filter maps a team name to the tool names it may use. An empty list means
// unrestricted.
type Filter map[string][]string

// Default mirrors the stock team layout: research teams get lookup tools,
// code teams get computation and file tools, general gets everything.
var Default = Filter{
	"research": {"web_search", "wikipedia_lookup", "weather", "retrieve_memory"},
	"code":     {"code_executor", "calculator", "read_file", "write_file", "list_directory", "retrieve_memory"},
	General:    {},
}

// Allowed returns the subset of schemas whose name is in the team's
// allow-list. If the team is unknown or maps to an empty list, all schemas
// are returned unfiltered.
func (f Filter) Allowed(all []tool.Schema, team string) []tool.Schema {
	allowed := f[team]
	if len(allowed) == 0 {
		return all
	}

	names := make(map[string]struct{}, len(allowed))
	for _, n := range allowed {
		names[n] = struct{}{}
	}

	out := make([]tool.Schema, 0, len(all))
	for _, s := range all {
		if _, ok := names[s.Name]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Teams returns the known team names. The classifier coerces anything else
// to General.
func (f Filter) Teams() []string {
	out := make([]string, 0, len(f))
	for name := range f {
		out = append(out, name)
	}
	return out
}
