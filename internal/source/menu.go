package source

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/voyantic/placeintel/internal/model"
)

// MenuAdapter fetches a place's menu page and runs lexicon extraction
// over its visible text. Menus are structured enough that keyword
// matching beats an LLM round trip here.
type MenuAdapter struct {
	httpClient *http.Client
	lexicon    *Lexicon
	// MenuPath is appended to the place URL, "/menu" by default.
	menuPath string
}

// NewMenuAdapter wires the menu source.
func NewMenuAdapter(httpClient *http.Client, lexicon *Lexicon) *MenuAdapter {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	return &MenuAdapter{httpClient: httpClient, lexicon: lexicon, menuPath: "/menu"}
}

func (a *MenuAdapter) Name() string { return "menu" }

func (a *MenuAdapter) Fetch(ctx context.Context, ref model.PlaceRef) Report {
	report := Report{Source: a.Name(), Category: CategoryMenu}
	if ref.URL == "" {
		report.RecordAttempt("fetch_menu", 0, eris.New("menu: place has no url"), time.Now().UTC())
		return report
	}
	now := time.Now().UTC()

	menuURL := strings.TrimRight(ref.URL, "/") + a.menuPath
	text, err := a.fetchText(ctx, menuURL)
	if err != nil {
		// Many venues fold the menu into the landing page.
		report.RecordAttempt("fetch_menu", 0, err, time.Now().UTC())
		text, err = a.fetchText(ctx, ref.URL)
		if err != nil {
			report.RecordAttempt("fetch_landing", 0, err, time.Now().UTC())
			zap.L().Warn("menu: fetch failed", zap.String("place", ref.Name), zap.Error(err))
			return report
		}
		report.Signals = a.lexicon.Extract(text, a.Name(), now)
		report.RecordAttempt("fetch_landing", len(report.Signals), nil, time.Now().UTC())
		return report
	}

	report.Signals = a.lexicon.Extract(text, a.Name(), now)
	report.RecordAttempt("fetch_menu", len(report.Signals), nil, time.Now().UTC())
	return report
}

func (a *MenuAdapter) fetchText(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "menu: build request")
	}
	req.Header.Set("User-Agent", "placeintel/1.0")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "menu: fetch")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("menu: status %d for %s", resp.StatusCode, rawURL)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "menu: parse html")
	}
	return visibleText(doc), nil
}

// visibleText walks the DOM collecting text nodes, skipping script and
// style subtrees.
func visibleText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				b.WriteString(text)
				b.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
