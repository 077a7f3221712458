package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navia-app/navia/models"
)

const problemsJSON = `[
  {"title": "Two Sum", "type": "Array", "difficulty": "Easy", "time": "O(n)", "space": "O(n)",
   "prompt": "Find two indices that add up to target.",
   "solution": [{"text": "def twoSum(nums, target):", "indentLevel": 0}, {"text": "seen = {}", "indentLevel": 1}]},
  {"title": "Climbing Stairs", "type": "DP", "difficulty": "Easy", "time": "O(n)", "space": "O(1)",
   "prompt": "Count the ways to climb n stairs.",
   "solution": [{"text": "def climbStairs(n):", "indentLevel": 0}]}
]`

func TestProblemS_ImportAndRandom(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewProblemService(db)
	ctx := context.Background()

	_, err := svc.Random(ctx)
	require.ErrorIs(t, err, ErrProblemBankEmpty)

	n, err := svc.ImportJSON(ctx, strings.NewReader(problemsJSON))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// re-importing updates by title instead of duplicating
	updated := strings.Replace(problemsJSON, `"O(1)"`, `"O(n)"`, 1)
	_, err = svc.ImportJSON(ctx, strings.NewReader(updated))
	require.NoError(t, err)
	var count int64
	require.NoError(t, db.Model(&models.Blind75Problem{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	// ordered by title: Climbing Stairs, Two Sum
	svc.intn = func(int) int { return 0 }
	p, err := svc.Random(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Climbing Stairs", p.Title)
	assert.Equal(t, "O(n)", p.SpaceComplexity)

	svc.intn = func(n int) int { return n - 1 }
	p, err = svc.Random(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Two Sum", p.Title)
	assert.Len(t, p.ID, 36)
	lines, err := p.Lines()
	require.NoError(t, err)
	assert.Equal(t, []models.SolutionLine{
		{Text: "def twoSum(nums, target):", IndentLevel: 0},
		{Text: "seen = {}", IndentLevel: 1},
	}, lines)
}

func TestProblemS_ImportRejectsBadEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `{bad`},
		{name: "missing title", body: `[{"type": "Array", "difficulty": "Easy", "solution": [{"text": "x", "indentLevel": 0}]}]`},
		{name: "empty solution", body: `[{"title": "A", "type": "Array", "difficulty": "Easy", "solution": []}]`},
		{name: "solution not lines", body: `[{"title": "A", "type": "Array", "difficulty": "Easy", "solution": {"text": "x"}}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := newTestDB(t)
			_, err := NewProblemService(db).ImportJSON(context.Background(), strings.NewReader(tt.body))
			require.ErrorIs(t, err, ErrInvalidProblem)

			var count int64
			require.NoError(t, db.Model(&models.Blind75Problem{}).Count(&count).Error)
			assert.Zero(t, count)
		})
	}
}

func TestProblemS_WrongSubmissions(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewProblemService(db)
	ctx := context.Background()
	alice := newTestUser(t, db, "alice")
	bob := newTestUser(t, db, "bob")

	_, err := svc.RecordWrong(ctx, 999, WrongInput{Title: "Two Sum", ProblemType: "Array"})
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.RecordWrong(ctx, alice.ID, WrongInput{Title: "<script>x</script>", ProblemType: "Array"})
	require.ErrorIs(t, err, ErrInvalidProblem)

	w, err := svc.RecordWrong(ctx, alice.ID, WrongInput{Title: "Two Sum", ProblemType: "Array", Difficulty: "Easy"})
	require.NoError(t, err)
	assert.Len(t, w.ID, 36)
	assert.Equal(t, "wrong", w.Status)

	mine, err := svc.ListWrong(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Two Sum", mine[0].Title)

	theirs, err := svc.ListWrong(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	require.NoError(t, NewUserService(db).Delete(ctx, alice.ID))
	mine, err = svc.ListWrong(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}
