package sites

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupIsCaseInsensitive(t *testing.T) {
	r := Default()

	p, ok := r.Lookup("Amazon")
	require.True(t, ok)
	assert.Equal(t, "amazon", p.Name)
	assert.True(t, p.RequiresBrowser)

	_, ok = r.Lookup("craigslist")
	assert.False(t, ok)
}

func TestSelectDropsUnknownNames(t *testing.T) {
	r := Default()

	got := r.Select([]string{"ebay", "nope", "amazon"})
	require.Len(t, got, 2)
	// registry order, not request order
	assert.Equal(t, "amazon", got[0].Name)
	assert.Equal(t, "ebay", got[1].Name)
}

func TestSelectEmptyMeansAll(t *testing.T) {
	r := Default()
	assert.Len(t, r.Select(nil), len(r.Names()))
}

func TestDefaultProfilesAreComplete(t *testing.T) {
	for _, p := range Default().All() {
		assert.NotEmpty(t, p.BaseURL, p.Name)
		assert.NotEmpty(t, p.Selectors.Container, p.Name)
		assert.NotEmpty(t, p.Selectors.Title, p.Name)
		assert.NotEmpty(t, p.Selectors.Price, p.Name)
		require.NotNil(t, p.SearchURL, p.Name)
		require.NotNil(t, p.ParsePrice, p.Name)

		u := p.SearchURL("usb c cable")
		assert.True(t, strings.HasPrefix(u, p.BaseURL), u)
		assert.Contains(t, u, "usb+c+cable")
	}
}

func TestNewRegistryReplacesDuplicates(t *testing.T) {
	r := NewRegistry(
		SiteProfile{Name: "shop", BaseURL: "https://a.example"},
		SiteProfile{Name: "SHOP", BaseURL: "https://b.example"},
	)
	assert.Equal(t, []string{"SHOP"}, r.Names())
	p, _ := r.Lookup("shop")
	assert.Equal(t, "https://b.example", p.BaseURL)
}
