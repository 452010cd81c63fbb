package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfareapp/wayfare-service/internal/types"
)

func post(id, category, locationName string) types.Post {
	return types.Post{
		ID:       id,
		Category: category,
		Location: types.Location{Name: locationName},
	}
}

func ids(posts []types.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestAnnotateLikeAndSaveState(t *testing.T) {
	posts := []types.Post{
		{ID: "p1", Likes: []string{"u1", "u2"}, SavedBy: []string{"u2"}},
		{ID: "p2", Likes: []string{"u2"}},
	}

	out := Annotate(posts, "u1")
	assert.True(t, out[0].Liked)
	assert.False(t, out[0].Saved)
	assert.False(t, out[1].Liked)
}

func TestLocationFilterBeatsCategory(t *testing.T) {
	posts := []types.Post{
		post("p1", "Food", "Lisbon"),
		post("p2", "Nature", "Porto"),
		post("p3", "Food", "lisbon"),
	}

	out := Apply(posts, Filter{Location: "LISBON", Category: "Nature"})
	require.Equal(t, []string{"p1", "p3"}, ids(out), "location filter must win over category")
}

func TestLocationFilterPinsSelectedPost(t *testing.T) {
	posts := []types.Post{
		post("p1", "", "Lisbon"),
		post("p2", "", "Lisbon"),
		post("p3", "", "Lisbon"),
	}

	out := Apply(posts, Filter{Location: "lisbon", PinnedPostID: "p3"})
	require.Equal(t, []string{"p3", "p1", "p2"}, ids(out), "pinned post first, rest in fetch order")
}

func TestCategoryFilterExactCaseInsensitive(t *testing.T) {
	posts := []types.Post{
		post("p1", "Food", ""),
		post("p2", "food", ""),
		post("p3", "Foodie", ""),
	}

	out := Apply(posts, Filter{Category: "FOOD"})
	require.Equal(t, []string{"p1", "p2"}, ids(out))
}

func TestNoFilterReturnsEverything(t *testing.T) {
	posts := []types.Post{post("p1", "a", "x"), post("p2", "b", "y")}
	out := Apply(posts, Filter{})
	assert.Len(t, out, 2)
}

func TestEmptyLocationNameNeverMatches(t *testing.T) {
	posts := []types.Post{post("p1", "", "")}
	out := Apply(posts, Filter{Location: ""})
	// Empty filter means no location restriction at all.
	assert.Len(t, out, 1)

	out = Apply(posts, Filter{Location: "Lisbon"})
	assert.Empty(t, out)
}

func TestValidCategoriesRejectsMalformed(t *testing.T) {
	fetched := []types.Category{
		{Name: "Food", Image: "food.jpg"},
		{Name: "", Image: "x.jpg"},
		{Name: "NoImage", Image: ""},
	}

	out := ValidCategories(fetched)
	require.Len(t, out, 1)
	assert.Equal(t, "Food", out[0].Name)
}

func TestValidCategoriesFallsBackToDefaults(t *testing.T) {
	out := ValidCategories([]types.Category{{Name: "", Image: ""}})
	assert.Equal(t, types.DefaultCategories, out)

	out = ValidCategories(nil)
	assert.Equal(t, types.DefaultCategories, out)
}
