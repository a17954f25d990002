package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/voyantic/placeintel/internal/fetcher"
	"github.com/voyantic/placeintel/internal/model"
)

// Registry describes one award-registry dump. CSV dumps carry the place
// name in NameColumn and the award text in AwardColumn; XLSX dumps add a
// sheet selection.
type Registry struct {
	Name        string `yaml:"name" mapstructure:"name"`
	URL         string `yaml:"url" mapstructure:"url"`
	Format      string `yaml:"format" mapstructure:"format"` // "csv" or "xlsx"
	NameColumn  int    `yaml:"name_column" mapstructure:"name_column"`
	AwardColumn int    `yaml:"award_column" mapstructure:"award_column"`
	SheetIndex  int    `yaml:"sheet_index" mapstructure:"sheet_index"`
	HasHeader   bool   `yaml:"has_header" mapstructure:"has_header"`
}

// AwardsAdapter matches a place against published award registries.
// Recognition is strong character/food evidence even without reviews.
type AwardsAdapter struct {
	httpFetcher fetcher.Fetcher
	ftpFetcher  fetcher.Fetcher
	registries  []Registry
	lexicon     *Lexicon
}

// NewAwardsAdapter wires the awards source.
func NewAwardsAdapter(httpFetcher, ftpFetcher fetcher.Fetcher, registries []Registry, lexicon *Lexicon) *AwardsAdapter {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	return &AwardsAdapter{
		httpFetcher: httpFetcher,
		ftpFetcher:  ftpFetcher,
		registries:  registries,
		lexicon:     lexicon,
	}
}

func (a *AwardsAdapter) Name() string { return "awards" }

func (a *AwardsAdapter) Fetch(ctx context.Context, ref model.PlaceRef) Report {
	report := Report{Source: a.Name(), Category: CategoryAwards}
	now := time.Now().UTC()
	target := keywordFolder.String(strings.TrimSpace(ref.Name))

	for _, reg := range a.registries {
		awards, err := a.scanRegistry(ctx, reg, target)
		report.RecordAttempt("registry:"+reg.Name, len(awards), err, time.Now().UTC())
		if err != nil {
			zap.L().Warn("awards: registry scan failed",
				zap.String("registry", reg.Name), zap.Error(err))
			continue
		}
		for _, award := range awards {
			report.Signals = append(report.Signals, a.awardSignals(reg.Name, award, now)...)
		}
	}
	return report
}

// scanRegistry downloads and scans one dump for rows naming the place.
func (a *AwardsAdapter) scanRegistry(ctx context.Context, reg Registry, target string) ([]string, error) {
	if reg.Format != "csv" && reg.Format != "xlsx" {
		return nil, eris.Errorf("awards: unknown registry format %q", reg.Format)
	}

	f := a.httpFetcher
	if strings.HasPrefix(reg.URL, "ftp://") {
		f = a.ftpFetcher
	}
	if f == nil {
		return nil, eris.Errorf("awards: no fetcher for %s", reg.URL)
	}

	if reg.Format == "csv" {
		return a.scanCSV(ctx, f, reg, target)
	}
	return a.scanXLSX(ctx, f, reg, target)
}

func (a *AwardsAdapter) scanCSV(ctx context.Context, f fetcher.Fetcher, reg Registry, target string) ([]string, error) {
	rc, err := f.Download(ctx, reg.URL)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	rowCh, errCh := fetcher.StreamCSV(ctx, rc, fetcher.CSVOptions{
		HasHeader: reg.HasHeader,
		TrimSpace: true,
	})

	var awards []string
	for row := range rowCh {
		if award, ok := matchRow(row, reg, target); ok {
			awards = append(awards, award)
		}
	}
	if err := <-errCh; err != nil {
		return awards, err
	}
	return awards, nil
}

func (a *AwardsAdapter) scanXLSX(ctx context.Context, f fetcher.Fetcher, reg Registry, target string) ([]string, error) {
	tmp, err := os.CreateTemp("", "awards-*.xlsx")
	if err != nil {
		return nil, eris.Wrap(err, "awards: create temp file")
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(filepath.Clean(tmpPath))

	if _, err := f.DownloadToFile(ctx, reg.URL, tmpPath); err != nil {
		return nil, err
	}

	skip := 0
	if reg.HasHeader {
		skip = 1
	}
	rows, err := fetcher.ReadXLSX(tmpPath, fetcher.XLSXOptions{
		SheetIndex: reg.SheetIndex,
		SkipRows:   skip,
	})
	if err != nil {
		return nil, err
	}

	var awards []string
	for _, row := range rows {
		if award, ok := matchRow(row, reg, target); ok {
			awards = append(awards, award)
		}
	}
	return awards, nil
}

func matchRow(row []string, reg Registry, target string) (string, bool) {
	if reg.NameColumn >= len(row) || reg.AwardColumn >= len(row) {
		return "", false
	}
	name := keywordFolder.String(strings.TrimSpace(row[reg.NameColumn]))
	if name == "" || name != target {
		return "", false
	}
	return strings.TrimSpace(row[reg.AwardColumn]), true
}

// awardSignals converts one award row into signals: a character signal
// for the recognition itself, plus whatever the lexicon finds in the
// award text (e.g. "michelin" maps to food).
func (a *AwardsAdapter) awardSignals(registryName, award string, now time.Time) []model.TasteSignal {
	signals := a.lexicon.Extract(award, a.Name(), now)
	signals = append(signals, model.TasteSignal{
		Domain:      model.DomainCharacter,
		Tag:         strings.ToLower(registryName) + " listed",
		Confidence:  0.8,
		Source:      a.Name(),
		Polarity:    model.PolarityPositive,
		ExtractedAt: now,
	})
	return signals
}
