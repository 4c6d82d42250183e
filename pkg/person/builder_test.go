package person

import (
	"testing"

	"github.com/coolbeans/gazette/pkg/gazette"
	"github.com/coolbeans/gazette/pkg/similarity"
	"github.com/coolbeans/gazette/pkg/types"
)

func TestBuildMove(t *testing.T) {
	builder := NewBuilder(nil, similarity.DefaultThreshold)
	portfolios := []types.Portfolio{
		{Ministry: "M1", Position: "Minister", Person: "Jane Perera"},
		{Ministry: "Ministry of Health", Position: "Minister", Person: "K. Rambukwella"},
	}

	adds := []gazette.PersonEntry{{Name: "John Silva", Ministry: "M1", Position: "Minister", Date: "2024-01-10"}}
	terminates := []gazette.PersonEntry{{Name: "John Silva", Ministry: "M2", Position: "Minister", Date: "2024-01-10"}}

	result := builder.Build(adds, terminates, portfolios)

	if len(result.Moves) != 1 || len(result.Adds) != 0 || len(result.Terminates) != 0 {
		t.Fatalf("unexpected grouping: %+v", result)
	}
	move := result.Moves[0]
	if move.Type != types.TransactionMove || move.FromMinistry != "M2" || move.ToMinistry != "M1" {
		t.Errorf("unexpected move: %+v", move)
	}
	if move.FromPosition != "Minister" || move.ToPosition != "Minister" || move.Date != "2024-01-10" {
		t.Errorf("unexpected move details: %+v", move)
	}
	if len(move.SuggestedContinuations) != 1 || move.SuggestedContinuations[0].ExistingPerson != "Jane Perera" {
		t.Errorf("unexpected suggestions: %+v", move.SuggestedContinuations)
	}
	if err := move.Validate(); err != nil {
		t.Errorf("move does not validate: %v", err)
	}
}

func TestBuildAddsAndTerminates(t *testing.T) {
	builder := NewBuilder(similarity.NewMatcher(), similarity.DefaultThreshold)
	portfolios := []types.Portfolio{
		{Ministry: "Ministry of Finance", Position: "Minister", Person: "Ranil Wickremesinghe"},
	}

	adds := []gazette.PersonEntry{
		{Name: "Shehan Semasinghe", Ministry: "Ministry of Finance and Planning", Position: "State Minister"},
		{Name: "Ali Sabry", Ministry: "Ministry of Foreign Affairs", Position: "Minister"},
	}
	terminates := []gazette.PersonEntry{
		{Name: "G. L. Peiris", Ministry: "Ministry of Foreign Affairs", Position: "Minister"},
	}

	result := builder.Build(adds, terminates, portfolios)

	if len(result.Moves) != 0 {
		t.Errorf("expected no moves, got %+v", result.Moves)
	}
	if len(result.Adds) != 2 {
		t.Fatalf("expected 2 adds, got %+v", result.Adds)
	}
	if result.Adds[0].Person != "Shehan Semasinghe" || result.Adds[1].Person != "Ali Sabry" {
		t.Errorf("adds not in list order: %+v", result.Adds)
	}
	if len(result.Adds[0].SuggestedContinuations) != 1 {
		t.Errorf("expected finance continuation, got %+v", result.Adds[0].SuggestedContinuations)
	}
	if len(result.Adds[1].SuggestedContinuations) != 0 {
		t.Errorf("expected no continuation for foreign affairs, got %+v", result.Adds[1].SuggestedContinuations)
	}

	if len(result.Terminates) != 1 {
		t.Fatalf("expected 1 terminate, got %+v", result.Terminates)
	}
	terminate := result.Terminates[0]
	if terminate.Ministry != "Ministry of Foreign Affairs" || terminate.SuggestedContinuations != nil {
		t.Errorf("unexpected terminate: %+v", terminate)
	}
	if err := result.Validate(); err != nil {
		t.Errorf("result does not validate: %v", err)
	}
}

func TestBuildConsumesPairedName(t *testing.T) {
	builder := NewBuilder(nil, similarity.DefaultThreshold)

	tests := []struct {
		name         string
		adds         []gazette.PersonEntry
		terminates   []gazette.PersonEntry
		fromMinistry string
		toMinistry   string
	}{
		{
			name: "two terminations one appointment",
			adds: []gazette.PersonEntry{
				{Name: "john silva", Ministry: "M1", Position: "Minister"},
			},
			terminates: []gazette.PersonEntry{
				{Name: "John Silva", Ministry: "M2", Position: "Minister"},
				{Name: " John  Silva ", Ministry: "M3", Position: "State Minister"},
			},
			fromMinistry: "M3",
			toMinistry:   "M1",
		},
		{
			name: "two appointments one termination",
			adds: []gazette.PersonEntry{
				{Name: "John Silva", Ministry: "M1", Position: "Minister"},
				{Name: "John Silva", Ministry: "M3", Position: "Minister"},
			},
			terminates: []gazette.PersonEntry{
				{Name: "John Silva", Ministry: "M2", Position: "Minister"},
			},
			fromMinistry: "M2",
			toMinistry:   "M3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := builder.Build(tt.adds, tt.terminates, nil)

			if len(result.Moves) != 1 {
				t.Fatalf("expected one move, got %+v", result.Moves)
			}
			move := result.Moves[0]
			if move.FromMinistry != tt.fromMinistry || move.ToMinistry != tt.toMinistry {
				t.Errorf("expected move %s -> %s, got %s -> %s", tt.fromMinistry, tt.toMinistry, move.FromMinistry, move.ToMinistry)
			}
			if len(result.Adds) != 0 {
				t.Errorf("expected no leftover adds, got %+v", result.Adds)
			}
			if len(result.Terminates) != 0 {
				t.Errorf("expected no leftover terminates, got %+v", result.Terminates)
			}
		})
	}
}

func TestBuildEmpty(t *testing.T) {
	result := NewBuilder(nil, similarity.DefaultThreshold).Build(nil, nil, nil)
	if result.Count() != 0 {
		t.Errorf("expected no transactions, got %+v", result)
	}
	if result.Moves == nil || result.Adds == nil || result.Terminates == nil {
		t.Error("expected non-nil groups")
	}
}

func TestBuildDoesNotRetainPool(t *testing.T) {
	builder := NewBuilder(nil, similarity.DefaultThreshold)
	portfolios := []types.Portfolio{{Ministry: "Ministry of Finance", Position: "Minister", Person: "A"}}
	adds := []gazette.PersonEntry{{Name: "B", Ministry: "Ministry of Finance", Position: "Minister"}}

	result := builder.Build(adds, nil, portfolios)
	portfolios[0].Person = "changed"

	if got := result.Adds[0].SuggestedContinuations[0].ExistingPerson; got != "A" {
		t.Errorf("suggestion changed with caller's slice: %q", got)
	}
}
