package similarity

import (
	"strings"
	"testing"

	"github.com/coolbeans/gazette/pkg/types"
)

func TestNormalize(t *testing.T) {
	matcher := NewMatcher()

	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{"stopwords dropped", "Ministry of Finance", "financ"},
		{"ampersand dropped", "Ministry of Finance & Planning", "financ plan"},
		{"case and punctuation", "MINISTRY OF HEALTH, NUTRITION", "health nutrit"},
		{"order kept", "Planning and Finance", "plan financ"},
		{"only stopwords", "The Ministry of", ""},
		{"empty", "", ""},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := matcher.Normalize(testCase.input); got != testCase.want {
				t.Errorf("Normalize(%q) = %q, want %q", testCase.input, got, testCase.want)
			}
		})
	}
}

func TestScore(t *testing.T) {
	matcher := NewMatcher()

	testCases := []struct {
		name    string
		left    string
		right   string
		wantMin float64
		wantMax float64
	}{
		{"identical", "Ministry of Defence", "Ministry of Defence", 100, 100},
		{"word order ignored", "Ministry of Finance and Planning", "Ministry of Planning and Finance", 100, 100},
		{"stopwords ignored", "Ministry of Finance", "Finance", 100, 100},
		{"partial overlap", "Ministry of Finance", "Ministry of Finance and Planning", 70, 99},
		{"unrelated", "Ministry of Health", "Ministry of Defence", 0, 30},
		{"empty side", "Ministry of", "Ministry of Health", 0, 0},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			score := matcher.Score(testCase.left, testCase.right)
			if score < testCase.wantMin || score > testCase.wantMax {
				t.Errorf("Score(%q, %q) = %v, want between %v and %v", testCase.left, testCase.right, score, testCase.wantMin, testCase.wantMax)
			}
		})
	}
}

func TestScoreSymmetricForSelf(t *testing.T) {
	matcher := NewMatcher()
	names := []string{
		"Ministry of Finance, Economic Stabilization and National Policies",
		"Minister of Public Security",
		"Ministry of Trade, Commerce and Food Security",
	}
	for _, name := range names {
		if score := matcher.Score(name, name); score != 100 {
			t.Errorf("Score(%q, itself) = %v, want 100", name, score)
		}
	}
}

func TestMatch(t *testing.T) {
	matcher := NewMatcher()
	portfolios := []types.Portfolio{
		{Ministry: "Ministry of Health", Position: "Minister", Person: "Keheliya Rambukwella"},
		{Ministry: "Ministry of Finance", Position: "Minister", Person: "Ranil Wickremesinghe"},
		{Ministry: "Ministry of Planning and Finance", Position: "State Minister", Person: "Shehan Semasinghe"},
	}

	candidates := matcher.Match("Ministry of Finance & Planning", portfolios, DefaultThreshold)

	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(candidates), candidates)
	}
	if candidates[0].ExistingPerson != "Shehan Semasinghe" || candidates[0].Score != 100 {
		t.Errorf("unexpected best candidate: %+v", candidates[0])
	}
	if candidates[1].ExistingPerson != "Ranil Wickremesinghe" {
		t.Errorf("unexpected second candidate: %+v", candidates[1])
	}
	if candidates[0].Score < candidates[1].Score {
		t.Error("candidates not sorted by descending score")
	}
	if candidates[1].ExistingPosition != "Minister" || candidates[1].ExistingMinistry != "Ministry of Finance" {
		t.Errorf("candidate fields not copied: %+v", candidates[1])
	}
}

func TestMatchEmptyPool(t *testing.T) {
	candidates := NewMatcher().Match("Ministry of Finance", nil, DefaultThreshold)
	if candidates == nil || len(candidates) != 0 {
		t.Errorf("Match with empty pool = %#v, want empty slice", candidates)
	}
}

func TestMatchThreshold(t *testing.T) {
	matcher := NewMatcher()
	portfolios := []types.Portfolio{{Ministry: "Ministry of Health", Position: "Minister", Person: "A"}}

	if got := matcher.Match("Ministry of Defence", portfolios, DefaultThreshold); len(got) != 0 {
		t.Errorf("expected no candidates above threshold, got %+v", got)
	}
	if got := matcher.Match("Ministry of Defence", portfolios, 0); len(got) != 1 {
		t.Errorf("threshold 0 should keep every portfolio, got %+v", got)
	}
}

func TestTokenSortRatioIsNotRounded(t *testing.T) {
	// 15 shared characters out of 22 + 21 gives 30/43, just under 70
	left := strings.Repeat("a", 15) + strings.Repeat("b", 7)
	right := strings.Repeat("a", 15) + strings.Repeat("c", 6)

	score := tokenSortRatio(left, right)
	if score >= DefaultThreshold || score < 69.7 {
		t.Errorf("tokenSortRatio = %v, want 30/43 of 100", score)
	}

	pool := []types.Portfolio{{Ministry: right}}
	if candidates := NewMatcher().Match(left, pool, DefaultThreshold); len(candidates) != 0 {
		t.Errorf("score %v should not pass threshold %v: %+v", score, DefaultThreshold, candidates)
	}
}
