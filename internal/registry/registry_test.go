package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humanda/askfin/internal/common"
	"github.com/humanda/askfin/internal/models"
)

type mockListingClient struct {
	listing []models.InstrumentRef
	err     error
}

func (m *mockListingClient) GetListing(ctx context.Context) ([]models.InstrumentRef, error) {
	return m.listing, m.err
}

func writeThemes(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "themes.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestWarmLoadsListingAndThemes(t *testing.T) {
	client := &mockListingClient{listing: []models.InstrumentRef{
		{Code: "005930", Name: "삼성전자", Market: "KOSPI", Sector: "전기전자"},
		{Code: "000660", Name: "SK하이닉스", Market: "KOSPI", Sector: "전기전자"},
	}}
	path := writeThemes(t, `{"반도체": [{"code": "005930", "name": "삼성전자"}, {"code": "000660", "name": "SK하이닉스"}]}`)

	r := New(client, path, common.NewSilentLogger())
	require.NoError(t, r.Warm(context.Background()))

	assert.Len(t, r.Instruments(), 2)
	assert.Equal(t, []string{"반도체"}, r.ThemeNames())
	assert.Len(t, r.ThemeMembers("반도체"), 2)

	ref, ok := r.ByName("삼성전자")
	require.True(t, ok)
	assert.Equal(t, "005930", ref.Code)
}

func TestWarmDropsDelistedThemeMembers(t *testing.T) {
	client := &mockListingClient{listing: []models.InstrumentRef{
		{Code: "005930", Name: "삼성전자", Market: "KOSPI"},
	}}
	path := writeThemes(t, `{"반도체": [{"code": "005930", "name": "삼성전자"}, {"code": "999999", "name": "상장폐지"}]}`)

	r := New(client, path, common.NewSilentLogger())
	require.NoError(t, r.Warm(context.Background()))

	members := r.ThemeMembers("반도체")
	require.Len(t, members, 1)
	assert.Equal(t, "005930", members[0].Code)
}

func TestWarmMissingThemesFileIsNotFatal(t *testing.T) {
	client := &mockListingClient{listing: []models.InstrumentRef{
		{Code: "005930", Name: "삼성전자", Market: "KOSPI"},
	}}

	r := New(client, filepath.Join(t.TempDir(), "absent.json"), common.NewSilentLogger())
	require.NoError(t, r.Warm(context.Background()))
	assert.Empty(t, r.ThemeNames())
}

func TestWarmListingFailure(t *testing.T) {
	client := &mockListingClient{err: errors.New("503")}

	r := New(client, "themes.json", common.NewSilentLogger())
	require.Error(t, r.Warm(context.Background()))
}

func TestWarmEmptyListingFails(t *testing.T) {
	client := &mockListingClient{}

	r := New(client, "themes.json", common.NewSilentLogger())
	require.Error(t, r.Warm(context.Background()))
}
