package state

import (
	"strings"

	"github.com/coolbeans/gazette/pkg/diagnostic"
	"github.com/coolbeans/gazette/pkg/types"
)

// ApplyPortfolios returns a new portfolio set with reviewed person
// transactions applied, moves first, then terminations, renames and
// additions. MOVE vacates the old portfolio and takes up the new one. ADD
// takes up a portfolio unless the person already holds it. TERMINATE
// vacates. RENAME changes the ministry name of matching portfolios and keeps
// the position. The input slice is not modified.
func ApplyPortfolios(portfolios []types.Portfolio, transactions types.PersonTransactions) ([]types.Portfolio, diagnostic.List) {
	next := append([]types.Portfolio{}, portfolios...)
	var diagnostics diagnostic.List

	for _, move := range transactions.Moves {
		var removed bool
		next, removed = removePortfolio(next, types.Portfolio{Ministry: move.FromMinistry, Position: move.FromPosition, Person: move.Person})
		if !removed {
			diagnostics.Addf(diagnostic.ApplySkipped, move.FromMinistry, "%s does not hold %s, moving to %s anyway", move.Person, move.FromPosition, move.ToMinistry)
		}
		next = addPortfolio(next, types.Portfolio{Ministry: move.ToMinistry, Position: move.ToPosition, Person: move.Person})
	}

	for _, terminate := range transactions.Terminates {
		var removed bool
		next, removed = removePortfolio(next, types.Portfolio{Ministry: terminate.Ministry, Position: terminate.Position, Person: terminate.Person})
		if !removed {
			diagnostics.Addf(diagnostic.ApplySkipped, terminate.Ministry, "%s does not hold %s, nothing to terminate", terminate.Person, terminate.Position)
		}
	}

	for _, rename := range transactions.Renames {
		renamed := 0
		for i := range next {
			if !sameText(next[i].Ministry, rename.FromMinistry) {
				continue
			}
			if rename.Person != "" && !sameText(next[i].Person, rename.Person) {
				continue
			}
			next[i].Ministry = rename.ToMinistry
			renamed++
		}
		if renamed == 0 {
			diagnostics.Addf(diagnostic.ApplySkipped, rename.FromMinistry, "no portfolio to rename to %s", rename.ToMinistry)
		}
	}

	for _, add := range transactions.Adds {
		next = addPortfolio(next, types.Portfolio{Ministry: add.Ministry, Position: add.Position, Person: add.Person})
	}

	return next, diagnostics
}

func addPortfolio(portfolios []types.Portfolio, portfolio types.Portfolio) []types.Portfolio {
	for _, existing := range portfolios {
		if samePortfolio(existing, portfolio) {
			return portfolios
		}
	}
	return append(portfolios, portfolio)
}

func removePortfolio(portfolios []types.Portfolio, portfolio types.Portfolio) ([]types.Portfolio, bool) {
	for i, existing := range portfolios {
		if samePortfolio(existing, portfolio) {
			return append(portfolios[:i:i], portfolios[i+1:]...), true
		}
	}
	return portfolios, false
}

func samePortfolio(left, right types.Portfolio) bool {
	return sameText(left.Ministry, right.Ministry) &&
		sameText(left.Position, right.Position) &&
		sameText(left.Person, right.Person)
}

func sameText(left, right string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(left), " "), strings.Join(strings.Fields(right), " "))
}
