package source

import (
	"context"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"go.uber.org/zap"

	"github.com/voyantic/placeintel/internal/model"
)

// NotionClient is the slice of the Notion API the editorial source needs.
type NotionClient interface {
	QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

type notionClient struct {
	inner *notionapi.Client
}

// NewNotionClient creates a NotionClient from an integration token.
func NewNotionClient(token string) NotionClient {
	return &notionClient{inner: notionapi.NewClient(notionapi.Token(token))}
}

func (c *notionClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return c.inner.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
}

// EditorialAdapter reads curated taste notes from the editorial team's
// Notion database. Each row is one judgment: a place name, a domain
// select, a tag, a confidence number, and a polarity select.
type EditorialAdapter struct {
	client     NotionClient
	databaseID string
}

// NewEditorialAdapter wires the editorial source against a Notion database.
func NewEditorialAdapter(client NotionClient, databaseID string) *EditorialAdapter {
	return &EditorialAdapter{client: client, databaseID: databaseID}
}

func (a *EditorialAdapter) Name() string { return "editorial" }

func (a *EditorialAdapter) Fetch(ctx context.Context, ref model.PlaceRef) Report {
	report := Report{Source: a.Name(), Category: CategoryEditorial}
	now := time.Now().UTC()

	resp, err := a.client.QueryDatabase(ctx, a.databaseID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Place",
			RichText: &notionapi.TextFilterCondition{Equals: ref.Name},
		},
		PageSize: 100,
	})
	if err != nil {
		report.RecordAttempt("query_database", 0, err, time.Now().UTC())
		zap.L().Warn("editorial: notion query failed",
			zap.String("place", ref.Name), zap.Error(err))
		return report
	}

	for _, page := range resp.Results {
		if sig, ok := signalFromPage(page, a.Name(), now); ok {
			report.Signals = append(report.Signals, sig)
		}
	}
	report.RecordAttempt("query_database", len(report.Signals), nil, time.Now().UTC())
	return report
}

// signalFromPage maps one curated Notion row to a taste signal. Rows with
// a missing or unknown domain are skipped.
func signalFromPage(page notionapi.Page, sourceName string, now time.Time) (model.TasteSignal, bool) {
	sig := model.TasteSignal{
		Source:      sourceName,
		Polarity:    model.PolarityPositive,
		Confidence:  0.75, // editorial default when no explicit confidence
		ExtractedAt: now,
	}

	if prop, ok := page.Properties["Domain"]; ok {
		if sel, ok := prop.(*notionapi.SelectProperty); ok {
			sig.Domain = model.Domain(strings.ToLower(sel.Select.Name))
		}
	}
	if !model.ValidDomain(sig.Domain) {
		return model.TasteSignal{}, false
	}

	if prop, ok := page.Properties["Tag"]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			var b strings.Builder
			for _, rt := range title.Title {
				b.WriteString(rt.PlainText)
			}
			sig.Tag = strings.ToLower(strings.TrimSpace(b.String()))
		}
	}
	if sig.Tag == "" {
		return model.TasteSignal{}, false
	}

	if prop, ok := page.Properties["Confidence"]; ok {
		if num, ok := prop.(*notionapi.NumberProperty); ok && num.Number > 0 && num.Number <= 1 {
			sig.Confidence = num.Number
		}
	}

	if prop, ok := page.Properties["Polarity"]; ok {
		if sel, ok := prop.(*notionapi.SelectProperty); ok &&
			strings.EqualFold(sel.Select.Name, string(model.PolarityNegative)) {
			sig.Polarity = model.PolarityNegative
		}
	}

	return sig, true
}
