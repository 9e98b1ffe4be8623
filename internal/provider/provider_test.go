package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/blueprint-cli/internal/config"
	"github.com/sells-group/blueprint-cli/internal/model"
)

type stubProvider struct {
	name     string
	supports map[model.RegionType]bool
}

func (s *stubProvider) Name() string                        { return s.name }
func (s *stubProvider) Supports(rt model.RegionType) bool   { return s.supports[rt] }
func (s *stubProvider) ParseRegion(context.Context, model.Region) (*model.ProviderResult, error) {
	return nil, nil
}

func TestRegistryForRegionOrdersByPriority(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"donut", "reducto", "layoutlm"} {
		reg.Register(&stubProvider{
			name:     name,
			supports: map[model.RegionType]bool{model.RegionBOMTable: true},
		})
	}

	got := reg.ForRegion(model.RegionBOMTable, []string{"reducto", "layoutlm", "donut"})
	names := make([]string, len(got))
	for i, p := range got {
		names[i] = p.Name()
	}
	assert.Equal(t, []string{"reducto", "layoutlm", "donut"}, names)
}

func TestRegistryForRegionFiltersUnsupported(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubProvider{name: "reducto", supports: map[model.RegionType]bool{model.RegionNotes: true}})
	reg.Register(&stubProvider{name: "donut", supports: map[model.RegionType]bool{model.RegionBOMTable: true}})

	got := reg.ForRegion(model.RegionNotes, []string{"reducto", "donut"})
	require.Len(t, got, 1)
	assert.Equal(t, "reducto", got[0].Name())
}

func TestRegistryForRegionUnlistedProvidersComeLastSorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "reducto"} {
		reg.Register(&stubProvider{
			name:     name,
			supports: map[model.RegionType]bool{model.RegionNotes: true},
		})
	}

	got := reg.ForRegion(model.RegionNotes, []string{"reducto"})
	names := make([]string, len(got))
	for i, p := range got {
		names[i] = p.Name()
	}
	assert.Equal(t, []string{"reducto", "alpha", "zeta"}, names)
}

func TestRegistryGetUnknown(t *testing.T) {
	reg := NewRegistry()
	assert.Nil(t, reg.Get("nope"))
}

func writePageImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page-0.png")
	require.NoError(t, os.WriteFile(path, []byte("not-a-real-png"), 0o644))
	return path
}

func TestReductoParseRegion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/parse", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"candidates": [
			{"entity_type": "WELD", "page": 0, "bbox": [0.1, 0.1, 0.2, 0.2],
			 "fields": {"symbol": "fillet"}, "confidence": 0.9}
		]}`))
	}))
	defer srv.Close()

	p := NewReducto(config.EndpointConfig{BaseURL: srv.URL, Key: "test-key", RPS: 100}, 0.75)
	region := model.Region{DocPath: writePageImage(t), PageIndex: 0, RegionType: model.RegionWeldCluster}

	res, err := p.ParseRegion(context.Background(), region)
	require.NoError(t, err)
	assert.False(t, res.Failed())
	require.Len(t, res.Candidates, 1)
	c := res.Candidates[0]
	assert.Equal(t, model.EntityWeld, c.EntityType)
	assert.Equal(t, "reducto", c.Provider)
	assert.Equal(t, "fillet", c.Fields["symbol"])
	assert.False(t, c.LowConfidence)
	assert.NotEmpty(t, c.ID)
}

func TestReductoServiceErrorYieldsEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewReducto(config.EndpointConfig{BaseURL: srv.URL, RPS: 100}, 0.75)
	region := model.Region{DocPath: writePageImage(t), RegionType: model.RegionNotes}

	res, err := p.ParseRegion(context.Background(), region)
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.Empty(t, res.Candidates)
}

func TestReductoMissingImageYieldsEmptyResult(t *testing.T) {
	p := NewReducto(config.EndpointConfig{BaseURL: "http://unreachable.invalid", RPS: 100}, 0.75)
	region := model.Region{DocPath: "/does/not/exist.png", RegionType: model.RegionNotes}

	res, err := p.ParseRegion(context.Background(), region)
	require.NoError(t, err)
	assert.True(t, res.Failed())
}

func TestOCRWordJoinsWordsIntoOneCandidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/words", r.URL.Path)
		w.Write([]byte(`{"words": [
			{"text": "ALL", "bbox": [0, 0, 0.1, 0.1], "confidence": 0.9},
			{"text": "WELDS", "bbox": [0.1, 0, 0.2, 0.1], "confidence": 0.7},
			{"text": "CONTINUOUS", "bbox": [0.2, 0, 0.3, 0.1], "confidence": 0.8}
		]}`))
	}))
	defer srv.Close()

	p := NewOCRWord(config.EndpointConfig{BaseURL: srv.URL, RPS: 100}, 0.75)
	region := model.Region{DocPath: writePageImage(t), PageIndex: 2, RegionType: model.RegionNotes}

	res, err := p.ParseRegion(context.Background(), region)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	c := res.Candidates[0]
	assert.Equal(t, model.EntityNote, c.EntityType)
	assert.Equal(t, "ALL WELDS CONTINUOUS", c.TextRaw)
	assert.Equal(t, "ALL WELDS CONTINUOUS", c.Fields["text"])
	assert.InDelta(t, 0.8, c.Confidence, 1e-9)
	assert.Equal(t, 2, c.Page)
	assert.Equal(t, 3, res.Raw["word_count"])
}

func TestOCRWordSupports(t *testing.T) {
	p := NewOCRWord(config.EndpointConfig{}, 0.75)
	assert.True(t, p.Supports(model.RegionNotes))
	assert.True(t, p.Supports(model.RegionTitleBlock))
	assert.False(t, p.Supports(model.RegionBOMTable))
	assert.False(t, p.Supports(model.RegionWeldCluster))
}

func TestLayoutLMLabelMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"entities": [
			{"label": "WELD_SYMBOL", "text": "fillet 6mm", "bbox": [0, 0, 0.1, 0.1],
			 "fields": {"symbol": "fillet", "size": 6}, "confidence": 0.82},
			{"label": "BOM_TAG", "text": "W12x26", "bbox": [0.2, 0, 0.3, 0.1],
			 "fields": {"mark": "B1"}, "confidence": 0.6}
		]}`))
	}))
	defer srv.Close()

	p := NewLayoutLM(config.EndpointConfig{BaseURL: srv.URL, RPS: 100}, 0.75)
	region := model.Region{DocPath: writePageImage(t), RegionType: model.RegionWeldCluster}

	res, err := p.ParseRegion(context.Background(), region)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, model.EntityWeld, res.Candidates[0].EntityType)
	assert.False(t, res.Candidates[0].LowConfidence)
	assert.Equal(t, model.EntityBOMRow, res.Candidates[1].EntityType)
	assert.True(t, res.Candidates[1].LowConfidence)
}
