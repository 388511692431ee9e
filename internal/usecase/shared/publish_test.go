package shared

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/git-pilot/internal/domain"
	"github.com/runoshun/git-pilot/internal/testutil"
)

func TestPublish_Commits(t *testing.T) {
	git := testutil.NewMockGit()
	git.Head = "abc123"

	result, err := Publish(context.Background(), git, "/ws", "cpai-1", "Add createdAt")

	require.NoError(t, err)
	assert.True(t, result.Committed)
	assert.Equal(t, "abc123", result.Commit)
	assert.Equal(t, []string{
		"checkout cpai-1",
		"add -A",
		"commit Add createdAt",
		"push origin cpai-1",
	}, git.Calls)
}

func TestPublish_NothingToCommit(t *testing.T) {
	for _, output := range []string{
		"On branch cpai-1\nnothing to commit, working tree clean\n",
		"no changes added to commit (use \"git add\" and/or \"git commit -a\")\n",
	} {
		t.Run(output[:10], func(t *testing.T) {
			git := testutil.NewMockGit()
			git.OnCommit = func(string) error {
				return &domain.CommandError{Args: []string{"git", "commit"}, Output: output, Err: errors.New("exit status 1")}
			}

			result, err := Publish(context.Background(), git, "/ws", "cpai-1", "msg")

			require.NoError(t, err)
			assert.False(t, result.Committed)
			assert.Empty(t, result.Commit)
			assert.True(t, git.Called("push origin cpai-1"), "the branch is still pushed")
		})
	}
}

func TestPublish_CommitFails(t *testing.T) {
	git := testutil.NewMockGit()
	git.OnCommit = func(string) error {
		return &domain.CommandError{Args: []string{"git", "commit"}, Output: "Author identity unknown", Err: errors.New("exit status 128")}
	}

	_, err := Publish(context.Background(), git, "/ws", "cpai-1", "msg")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Author identity unknown")
	assert.False(t, git.Called("push origin cpai-1"))
}

func TestPublish_PushFails(t *testing.T) {
	git := testutil.NewMockGit()
	git.FailNext("Push", errors.New("permission denied"))

	result, err := Publish(context.Background(), git, "/ws", "cpai-1", "msg")

	require.ErrorIs(t, err, domain.ErrPublish)
	assert.Contains(t, err.Error(), "permission denied")
	require.NotNil(t, result, "the local commit is reported even when the push fails")
	assert.True(t, result.Committed)
	assert.Equal(t, 1, countCalls(git.Calls, "push origin cpai-1"), "push is not retried")
}

func countCalls(calls []string, call string) int {
	n := 0
	for _, c := range calls {
		if c == call {
			n++
		}
	}
	return n
}
