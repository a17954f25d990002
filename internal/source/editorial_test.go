package source

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/voyantic/placeintel/internal/model"
)

type mockNotionClient struct {
	mock.Mock
}

func (m *mockNotionClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	args := m.Called(ctx, dbID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.DatabaseQueryResponse), args.Error(1)
}

func editorialPage(domain, tag string, confidence float64, polarity string) notionapi.Page {
	props := notionapi.Properties{
		"Domain": &notionapi.SelectProperty{Select: notionapi.Option{Name: domain}},
		"Tag": &notionapi.TitleProperty{Title: []notionapi.RichText{
			{PlainText: tag},
		}},
	}
	if confidence > 0 {
		props["Confidence"] = &notionapi.NumberProperty{Number: confidence}
	}
	if polarity != "" {
		props["Polarity"] = &notionapi.SelectProperty{Select: notionapi.Option{Name: polarity}}
	}
	return notionapi.Page{Properties: props}
}

func TestEditorialAdapter_MapsRows(t *testing.T) {
	nc := &mockNotionClient{}
	nc.On("QueryDatabase", mock.Anything, "db-1", mock.Anything).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{
			editorialPage("Design", "Brutalist", 0.9, ""),
			editorialPage("Service", "Overbooked", 0.6, "negative"),
			editorialPage("Vibes", "ignored", 0.5, ""),
		},
	}, nil)

	a := NewEditorialAdapter(nc, "db-1")
	report := a.Fetch(context.Background(), model.PlaceRef{ID: "p1", Name: "Hotel Aurora"})

	require.Len(t, report.Signals, 2, "unknown domains are skipped")
	assert.Equal(t, model.DomainDesign, report.Signals[0].Domain)
	assert.Equal(t, "brutalist", report.Signals[0].Tag)
	assert.InDelta(t, 0.9, report.Signals[0].Confidence, 0.001)
	assert.Equal(t, model.PolarityNegative, report.Signals[1].Polarity)
	nc.AssertExpectations(t)
}

func TestEditorialAdapter_DefaultConfidence(t *testing.T) {
	nc := &mockNotionClient{}
	nc.On("QueryDatabase", mock.Anything, "db-1", mock.Anything).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{editorialPage("Food", "Omakase", 0, "")},
	}, nil)

	a := NewEditorialAdapter(nc, "db-1")
	report := a.Fetch(context.Background(), model.PlaceRef{ID: "p1", Name: "Hotel Aurora"})

	require.Len(t, report.Signals, 1)
	assert.InDelta(t, 0.75, report.Signals[0].Confidence, 0.001)
}

func TestEditorialAdapter_QueryFailure(t *testing.T) {
	nc := &mockNotionClient{}
	nc.On("QueryDatabase", mock.Anything, "db-1", mock.Anything).Return(nil, assert.AnError)

	a := NewEditorialAdapter(nc, "db-1")
	report := a.Fetch(context.Background(), model.PlaceRef{ID: "p1", Name: "Hotel Aurora"})

	assert.Empty(t, report.Signals)
	assert.True(t, report.Diagnostic().Failed())
}
