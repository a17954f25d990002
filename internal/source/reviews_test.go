package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/voyantic/placeintel/internal/model"
	"github.com/voyantic/placeintel/pkg/reader"
)

type mockReaderClient struct {
	mock.Mock
}

func (m *mockReaderClient) Read(ctx context.Context, targetURL string) (*reader.ReadResponse, error) {
	args := m.Called(ctx, targetURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reader.ReadResponse), args.Error(1)
}

func (m *mockReaderClient) Search(ctx context.Context, query string, opts ...reader.SearchOption) (*reader.SearchResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reader.SearchResponse), args.Error(1)
}

func TestReviewsAdapter_ReadsPlacePage(t *testing.T) {
	rd := &mockReaderClient{}
	rd.On("Read", mock.Anything, "https://aurora.example").Return(&reader.ReadResponse{
		Data: reader.ReadData{Content: "Guests love the tasting menu. Rated 4.8/5 by visitors."},
	}, nil)

	a := NewReviewsAdapter(rd, NewExtractor(nil, "", nil), nil, nil)
	report := a.Fetch(context.Background(), model.PlaceRef{ID: "p1", Name: "Hotel Aurora", URL: "https://aurora.example"})

	assert.Equal(t, "reviews", report.Source)
	assert.NotEmpty(t, report.Signals)
	assert.Equal(t, 1, report.ReviewCount)
	require.Len(t, report.Attempts, 1)
	assert.Equal(t, "read_page", report.Attempts[0].Method)
	assert.Empty(t, report.Attempts[0].Error)
	rd.AssertExpectations(t)
}

func TestReviewsAdapter_FallsBackToSearch(t *testing.T) {
	rd := &mockReaderClient{}
	rd.On("Read", mock.Anything, "https://aurora.example").Return(nil, assert.AnError)
	rd.On("Search", mock.Anything, "Hotel Aurora Oslo reviews").Return(&reader.SearchResponse{
		Data: []reader.SearchResult{
			{Title: "Hotel Aurora review", Description: "A storied hotel with attentive staff"},
		},
	}, nil)

	a := NewReviewsAdapter(rd, NewExtractor(nil, "", nil), nil, nil)
	report := a.Fetch(context.Background(), model.PlaceRef{
		ID: "p1", Name: "Hotel Aurora", City: "Oslo", URL: "https://aurora.example",
	})

	assert.NotEmpty(t, report.Signals)
	require.Len(t, report.Attempts, 2, "both the failed read and the search are recorded")
	assert.NotEmpty(t, report.Attempts[0].Error)
	assert.Equal(t, "search", report.Attempts[1].Method)
	assert.Empty(t, report.Attempts[1].Error)
}

func TestReviewsAdapter_NoURLSearchesDirectly(t *testing.T) {
	rd := &mockReaderClient{}
	rd.On("Search", mock.Anything, "Hotel Aurora reviews").Return(&reader.SearchResponse{}, nil)

	a := NewReviewsAdapter(rd, NewExtractor(nil, "", nil), nil, nil)
	report := a.Fetch(context.Background(), model.PlaceRef{ID: "p1", Name: "Hotel Aurora"})

	assert.Empty(t, report.Signals)
	require.Len(t, report.Attempts, 1)
	assert.Equal(t, "search", report.Attempts[0].Method)
}

func TestReviewsAdapter_AllAttemptsFailed(t *testing.T) {
	rd := &mockReaderClient{}
	rd.On("Read", mock.Anything, mock.Anything).Return(nil, assert.AnError)
	rd.On("Search", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	a := NewReviewsAdapter(rd, NewExtractor(nil, "", nil), nil, nil)
	report := a.Fetch(context.Background(), model.PlaceRef{ID: "p1", Name: "Hotel Aurora", URL: "https://x.example"})

	assert.Empty(t, report.Signals)
	diag := report.Diagnostic()
	assert.True(t, diag.Failed())
}

func TestCountReviewMentions(t *testing.T) {
	assert.Equal(t, 2, countReviewMentions("Rated 4.5/5 overall. Cleanliness 5/5."))
	assert.Equal(t, 1, countReviewMentions("One glowing review mentions the spa."))
	assert.Equal(t, 0, countReviewMentions("No relevant text."))
}
