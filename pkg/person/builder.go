// Package person reconciles one gazette's appointments and terminations into
// reviewable MOVE, ADD and TERMINATE candidates, each addition annotated with
// existing portfolios it may continue.
package person

import (
	"strings"

	"github.com/coolbeans/gazette/pkg/gazette"
	"github.com/coolbeans/gazette/pkg/similarity"
	"github.com/coolbeans/gazette/pkg/types"
)

// Builder builds person transactions. The zero value is not usable; call
// NewBuilder.
type Builder struct {
	matcher   *similarity.Matcher
	threshold float64
}

// NewBuilder creates a Builder that suggests continuations scoring at least
// threshold with matcher. A nil matcher uses similarity.NewMatcher.
func NewBuilder(matcher *similarity.Matcher, threshold float64) *Builder {
	if matcher == nil {
		matcher = similarity.NewMatcher()
	}
	return &Builder{matcher: matcher, threshold: threshold}
}

// Build pairs terminations and appointments of the same person into MOVEs.
// Names are trimmed and compared case-insensitively. A name found in both
// lists gives exactly one MOVE, built from the last appointment and the last
// termination listed under that name, and every other entry with the name is
// consumed. Appointments of other people become ADDs and terminations of
// other people become TERMINATEs.
//
// MOVEs and ADDs carry suggested continuations: portfolios from the given
// pool whose ministry resembles the new ministry. TERMINATEs carry none. The
// pool is copied before use, so the caller may reuse it afterwards.
func (builder *Builder) Build(adds, terminates []gazette.PersonEntry, portfolios []types.Portfolio) types.PersonTransactions {
	pool := append([]types.Portfolio(nil), portfolios...)
	result := types.PersonTransactions{
		Moves:      []types.PersonTransaction{},
		Adds:       []types.PersonTransaction{},
		Terminates: []types.PersonTransaction{},
	}

	lastAdd := lastIndexByPerson(adds)
	lastTerminate := lastIndexByPerson(terminates)

	consumed := make(map[string]bool)
	for _, add := range adds {
		key := personKey(add.Name)
		if key == "" || consumed[key] {
			continue
		}
		terminateIndex, ok := lastTerminate[key]
		if !ok {
			continue
		}
		consumed[key] = true
		result.Moves = append(result.Moves, builder.moveTransaction(terminates[terminateIndex], adds[lastAdd[key]], pool))
	}

	for _, add := range adds {
		key := personKey(add.Name)
		if key == "" || consumed[key] {
			continue
		}
		result.Adds = append(result.Adds, types.PersonTransaction{
			Type:                   types.TransactionAdd,
			Person:                 strings.TrimSpace(add.Name),
			Ministry:               strings.TrimSpace(add.Ministry),
			Position:               strings.TrimSpace(add.Position),
			Date:                   add.Date,
			SuggestedContinuations: builder.matcher.Match(add.Ministry, pool, builder.threshold),
		})
	}

	for _, terminate := range terminates {
		key := personKey(terminate.Name)
		if key == "" || consumed[key] {
			continue
		}
		result.Terminates = append(result.Terminates, terminateTransaction(terminate))
	}

	return result
}

func lastIndexByPerson(entries []gazette.PersonEntry) map[string]int {
	indexes := make(map[string]int, len(entries))
	for i, entry := range entries {
		if key := personKey(entry.Name); key != "" {
			indexes[key] = i
		}
	}
	return indexes
}

func (builder *Builder) moveTransaction(from, to gazette.PersonEntry, pool []types.Portfolio) types.PersonTransaction {
	date := to.Date
	if date == "" {
		date = from.Date
	}
	return types.PersonTransaction{
		Type:                   types.TransactionMove,
		Person:                 strings.TrimSpace(to.Name),
		FromMinistry:           strings.TrimSpace(from.Ministry),
		FromPosition:           strings.TrimSpace(from.Position),
		ToMinistry:             strings.TrimSpace(to.Ministry),
		ToPosition:             strings.TrimSpace(to.Position),
		Date:                   date,
		SuggestedContinuations: builder.matcher.Match(to.Ministry, pool, builder.threshold),
	}
}

func terminateTransaction(entry gazette.PersonEntry) types.PersonTransaction {
	return types.PersonTransaction{
		Type:     types.TransactionTerminate,
		Person:   strings.TrimSpace(entry.Name),
		Ministry: strings.TrimSpace(entry.Ministry),
		Position: strings.TrimSpace(entry.Position),
		Date:     entry.Date,
	}
}

func personKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
