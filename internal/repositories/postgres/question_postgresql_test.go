package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/repositories"
)

func listKeys(mr *miniredis.Miniredis) []string {
	var out []string
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, "question:list:") {
			out = append(out, k)
		}
	}
	return out
}

func TestQuestionPostgreSQL_CreateAndList(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := NewQuestionPostgreSQL(newTestDB(t, &models.Question{}), client)

	reading := models.SectionReading
	speaking := models.SectionSpeaking
	require.NoError(t, repo.Create(ctx, nil, &models.Question{Section: reading, Type: models.MultipleChoiceSingle, Title: "Main idea", Difficulty: models.DifficultyEasy, IsActive: true}))
	require.NoError(t, repo.Create(ctx, nil, &models.Question{Section: reading, Type: models.ReorderParagraphs, Title: "Order", Difficulty: models.DifficultyHard, IsActive: true}))
	require.NoError(t, repo.Create(ctx, nil, &models.Question{Section: speaking, Type: models.ReadAloud, Title: "Read", Difficulty: models.DifficultyEasy, IsActive: true}))

	tests := []struct {
		name    string
		filters repositories.QuestionFilters
		titles  []string
		total   int64
	}{
		{name: "section", filters: repositories.QuestionFilters{Section: &reading, SortBy: "id", SortOrder: "asc"}, titles: []string{"Main idea", "Order"}, total: 2},
		{name: "difficulty", filters: repositories.QuestionFilters{Difficulty: ptrTo(models.DifficultyEasy), SortBy: "id", SortOrder: "asc"}, titles: []string{"Main idea", "Read"}, total: 2},
		{name: "type", filters: repositories.QuestionFilters{Type: ptrTo(models.ReadAloud)}, titles: []string{"Read"}, total: 1},
		{name: "paged", filters: repositories.QuestionFilters{SortBy: "id", SortOrder: "asc", Limit: 1, Offset: 1}, titles: []string{"Order"}, total: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := repo.List(ctx, nil, tt.filters)
			require.NoError(t, err)
			titles := make([]string, 0, len(got))
			for _, q := range got {
				titles = append(titles, q.Title)
			}
			assert.Equal(t, tt.titles, titles)
			assert.Equal(t, tt.total, total)
		})
	}
}

func TestQuestionPostgreSQL_CreateDropsCachedPages(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := NewQuestionPostgreSQL(newTestDB(t, &models.Question{}), client)
	filters := repositories.QuestionFilters{ActiveOnly: true, SortBy: "id", SortOrder: "asc"}

	require.NoError(t, repo.Create(ctx, nil, &models.Question{Section: models.SectionReading, Type: models.MultipleChoiceSingle, Title: "First", IsActive: true}))
	_, total, err := repo.List(ctx, nil, filters)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	// the page is written back in the background
	require.Eventually(t, func() bool { return len(listKeys(mr)) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, repo.Create(ctx, nil, &models.Question{Section: models.SectionReading, Type: models.MultipleChoiceSingle, Title: "Second", IsActive: true}))
	assert.Empty(t, listKeys(mr))

	got, total, err := repo.List(ctx, nil, filters)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, got, 2)
	assert.Equal(t, "Second", got[1].Title)
}

func ptrTo[T any](v T) *T {
	return &v
}
