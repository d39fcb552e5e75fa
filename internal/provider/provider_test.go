package provider

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/yelp-featureserver/internal/geoservices"
	"github.com/sells-group/yelp-featureserver/internal/query"
	"github.com/sells-group/yelp-featureserver/pkg/yelp"
	"github.com/sells-group/yelp-featureserver/pkg/yelp/mocks"
)

// stubClient answers by query offset and records every call.
type stubClient struct {
	mu      sync.Mutex
	calls   []yelp.Query
	respond func(q yelp.Query) (*yelp.SearchResponse, error)
}

func (s *stubClient) Search(_ context.Context, q yelp.Query) (*yelp.SearchResponse, error) {
	s.mu.Lock()
	s.calls = append(s.calls, q)
	s.mu.Unlock()
	return s.respond(q)
}

func business(id string) yelp.Business {
	return yelp.Business{ID: id, Coordinates: &yelp.Coordinates{Latitude: 38.6, Longitude: -90.2}}
}

func splitPagingBuilder() *query.Builder {
	opts := query.DefaultOptions()
	opts.SplitGeometry = true
	opts.Paginate = true
	return query.NewBuilder(opts)
}

func envelope() geoservices.Params {
	return geoservices.Params{
		geoservices.ParamGeometry:     "-10047255.2,4661817.9,-10028010.8,4676393.4",
		geoservices.ParamGeometryType: geoservices.GeometryTypeEnvelope,
	}
}

func TestGetData_CountOnly(t *testing.T) {
	client := mocks.NewMockClient(t)
	p := New(client, query.NewBuilder(query.DefaultOptions()), WithStagger(NoStagger{}))

	fc, err := p.GetData(context.Background(), geoservices.Params{geoservices.ParamReturnCountOnly: "true"})

	require.NoError(t, err)
	assert.Empty(t, fc.Features)
	require.NotNil(t, fc.Count)
	assert.Greater(t, *fc.Count, DefaultCountThreshold)
	client.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestGetData_CountOnlyCustomThreshold(t *testing.T) {
	p := New(mocks.NewMockClient(t), query.NewBuilder(query.DefaultOptions()), WithCountThreshold(2000))

	fc, err := p.GetData(context.Background(), geoservices.Params{geoservices.ParamReturnCountOnly: "1"})

	require.NoError(t, err)
	assert.Equal(t, 2001, *fc.Count)
}

func TestGetData_DefaultLocation(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("Search", mock.Anything, mock.MatchedBy(func(q yelp.Query) bool {
		return q.Location == "St. Louis, MO" && q.Term == "" && q.Limit == 50
	})).Return(&yelp.SearchResponse{Businesses: []yelp.Business{business("a"), business("b")}}, nil).Once()

	p := New(client, query.NewBuilder(query.DefaultOptions()), WithStagger(NoStagger{}))
	fc, err := p.GetData(context.Background(), geoservices.Params{})

	require.NoError(t, err)
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)
	assert.Nil(t, fc.Count)
	assert.Equal(t, FiltersApplied{Where: true}, fc.FiltersApplied)
	assert.Equal(t, "Yelp", fc.Metadata.Name)
	for _, f := range fc.Features {
		term, ok := f.Properties["term"].(string)
		require.True(t, ok)
		assert.Equal(t, "", term)
	}
}

func TestGetData_TermPropagates(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("Search", mock.Anything, mock.MatchedBy(func(q yelp.Query) bool {
		return q.Term == "pizza" && q.SortBy == "rating"
	})).Return(&yelp.SearchResponse{Businesses: []yelp.Business{business("a")}}, nil).Once()

	p := New(client, query.NewBuilder(query.DefaultOptions()), WithStagger(NoStagger{}))
	fc, err := p.GetData(context.Background(), geoservices.Params{
		geoservices.ParamWhere:         "category = 'pizza'",
		geoservices.ParamOrderByFields: "rating DESC",
	})

	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "pizza", fc.Features[0].Properties["term"])
}

func TestGetData_EmptyResponse(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("Search", mock.Anything, mock.Anything).Return(&yelp.SearchResponse{}, nil).Once()

	p := New(client, query.NewBuilder(query.DefaultOptions()), WithStagger(NoStagger{}))
	fc, err := p.GetData(context.Background(), geoservices.Params{})

	require.NoError(t, err)
	require.NotNil(t, fc.Features)
	assert.Empty(t, fc.Features)
}

func TestGetData_InvalidGeometry(t *testing.T) {
	client := mocks.NewMockClient(t)
	p := New(client, query.NewBuilder(query.DefaultOptions()), WithStagger(NoStagger{}))

	fc, err := p.GetData(context.Background(), geoservices.Params{
		geoservices.ParamGeometry:     "1,2,3",
		geoservices.ParamGeometryType: geoservices.GeometryTypeEnvelope,
	})

	assert.Nil(t, fc)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrBadRequest))
	client.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestGetData_FanOutMergesInQueryOrder(t *testing.T) {
	stub := &stubClient{respond: func(q yelp.Query) (*yelp.SearchResponse, error) {
		id := "first-page"
		if q.Offset > 0 {
			id = "second-page"
		}
		return &yelp.SearchResponse{Businesses: []yelp.Business{business(id)}}, nil
	}}

	p := New(stub, splitPagingBuilder(), WithStagger(NoStagger{}))
	fc, err := p.GetData(context.Background(), envelope())

	require.NoError(t, err)
	require.Len(t, stub.calls, 4)
	require.Len(t, fc.Features, 4)
	ids := []any{}
	for _, f := range fc.Features {
		ids = append(ids, f.Properties["yelpId"])
	}
	assert.Equal(t, []any{"first-page", "first-page", "second-page", "second-page"}, ids)
}

func TestGetData_AnyFailureFailsRequest(t *testing.T) {
	boom := &yelp.APIError{StatusCode: 500, Code: "INTERNAL_ERROR", Description: "boom"}
	var completed atomic.Int32
	stub := &stubClient{respond: func(q yelp.Query) (*yelp.SearchResponse, error) {
		defer completed.Add(1)
		if q.Offset > 0 {
			return nil, boom
		}
		return &yelp.SearchResponse{Businesses: []yelp.Business{business("ok")}}, nil
	}}

	p := New(stub, splitPagingBuilder(), WithStagger(NoStagger{}))
	fc, err := p.GetData(context.Background(), envelope())

	assert.Nil(t, fc)
	require.Error(t, err)
	var apiErr *yelp.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "INTERNAL_ERROR", apiErr.Code)
	// Siblings are not cancelled.
	assert.Equal(t, int32(4), completed.Load())
}

func TestGetData_StaggerRunsPerQuery(t *testing.T) {
	stub := &stubClient{respond: func(yelp.Query) (*yelp.SearchResponse, error) {
		return &yelp.SearchResponse{}, nil
	}}
	counter := &countingStagger{}

	p := New(stub, splitPagingBuilder(), WithStagger(counter))
	_, err := p.GetData(context.Background(), envelope())

	require.NoError(t, err)
	assert.Equal(t, int32(4), counter.n.Load())
}

func TestGetData_StaggerCancelled(t *testing.T) {
	client := mocks.NewMockClient(t)
	p := New(client, query.NewBuilder(query.DefaultOptions()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.GetData(ctx, geoservices.Params{})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	client.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestFeatureCollection_JSON(t *testing.T) {
	data, err := json.Marshal(newCollection(nil))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "FeatureCollection", decoded["type"])
	assert.Equal(t, []any{}, decoded["features"])
	assert.NotContains(t, decoded, "count")
	assert.Equal(t, map[string]any{"geometry": false, "where": true, "offset": false, "limit": false}, decoded["filtersApplied"])
}

type countingStagger struct {
	n atomic.Int32
}

func (c *countingStagger) Wait(context.Context) error {
	c.n.Add(1)
	return nil
}

func cellCount(t *testing.T, cell string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, upstreamQueriesByCell.WithLabelValues(cell).Write(&m))
	return m.GetCounter().GetValue()
}

func TestMetricCell(t *testing.T) {
	assert.Equal(t, "9y", metricCell(yelp.Query{Center: &yelp.Coordinates{Latitude: 38.6, Longitude: -90.2}}))
	assert.Equal(t, noCell, metricCell(yelp.Query{Location: "St. Louis, MO"}))
	assert.Equal(t, noCell, metricCell(yelp.Query{Bounds: "38.5,-90.3|38.7,-90.1"}))
}

func TestGetData_CountsQueriesByCell(t *testing.T) {
	stub := &stubClient{respond: func(yelp.Query) (*yelp.SearchResponse, error) {
		return &yelp.SearchResponse{}, nil
	}}
	p := New(stub, query.NewBuilder(query.DefaultOptions()), WithStagger(NoStagger{}))

	before, beforeNone := cellCount(t, "9y"), cellCount(t, noCell)

	_, err := p.GetData(context.Background(), envelope())
	require.NoError(t, err)
	_, err = p.GetData(context.Background(), geoservices.Params{})
	require.NoError(t, err)

	assert.Equal(t, before+1, cellCount(t, "9y"))
	assert.Equal(t, beforeNone+1, cellCount(t, noCell))
}
