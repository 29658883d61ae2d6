package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const listingPage = `<!DOCTYPE html>
<html><head>
<meta property="og:image" content="http://img.example/og.jpg">
<script type="application/ld+json">
[{"@type":"Product","name":"1987 Topps Card #1","image":["http://img.example/1.jpg","http://img.example/2.jpg","http://img.example/1.jpg"],
  "offers":{"@type":"Offer","price":"24.99","itemCondition":"https://schema.org/UsedCondition"}},
 {"@type":"BreadcrumbList","itemListElement":[
   {"@type":"ListItem","position":1,"item":{"@id":"https://www.ebay.com/b/Sports/64482"}},
   {"@type":"ListItem","position":2,"item":{"@id":"https://www.ebay.com/b/Baseball-Cards/261328"}}]}]
</script>
</head><body>
<h1 class="x-item-title__mainTitle"><span>Ignored Heading</span></h1>
<div class="x-item-condition-text"><span class="ux-textspans">Used</span></div>
<div class="ux-labels-values"><div class="ux-labels-values__labels">Brand:</div><div class="ux-labels-values__values">Topps</div></div>
<div class="ux-labels-values"><div class="ux-labels-values__labels">Year Manufactured</div><div class="ux-labels-values__values"> 1987 </div></div>
<div id="desc_div"><p>Great card.</p><p>Ships   fast.</p><script>var x=1;</script></div>
</body></html>`

func TestScrapeListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingPage))
	}))
	defer server.Close()

	s := New(Options{Mode: ModeHTTP})
	result, err := s.Scrape(context.Background(), server.URL+"/itm/1")
	require.NoError(t, err)

	require.Equal(t, "1987 Topps Card #1", result.Title)
	require.True(t, result.HasPrice)
	require.Equal(t, 24.99, result.Price)
	require.Equal(t, "261328", result.CategoryID)
	require.Equal(t, "Used", result.ConditionText)
	require.Equal(t, []string{"http://img.example/1.jpg", "http://img.example/2.jpg"}, result.Images)
	require.Equal(t, "Great card.\nShips fast.", result.Description)
	require.Contains(t, result.DescriptionHTML, `id="desc_div"`)

	if diff := cmp.Diff(map[string]string{"Brand": "Topps", "Year Manufactured": "1987"}, result.ItemSpecifics); diff != "" {
		t.Error(diff)
	}
}

func TestScrapeFollowsDescriptionFrame(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/itm/2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
<h1 id="itemTitle">Framed Listing</h1>
<meta itemprop="price" content="5.00">
<iframe id="desc_ifr" src="/desc/2"></iframe>
</body></html>`))
	})
	mux.HandleFunc("/desc/2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div>Seller notes</div><ul><li>One</li><li>Two</li></ul></body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	result, err := New(Options{}).Scrape(context.Background(), server.URL+"/itm/2")
	require.NoError(t, err)

	require.Equal(t, "Framed Listing", result.Title)
	require.Equal(t, 5.0, result.Price)
	require.Equal(t, "Seller notes\nOne\nTwo", result.Description)
	require.Empty(t, result.Images)
}

func TestScrapeErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "gone", http.StatusNotFound)
			},
		},
		{
			name: "empty page",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html><body><p>captcha</p></body></html>`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := New(Options{}).Scrape(context.Background(), server.URL)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrScrape))

			var serr *ScrapeError
			require.True(t, errors.As(err, &serr))
			require.Equal(t, server.URL, serr.URL)
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected Mode
		wantErr  bool
	}{
		{"", ModeHTTP, false},
		{"HTTP", ModeHTTP, false},
		{"off", ModeOff, false},
		{"bypass", ModeBypass, false},
		{"selenium", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"inline", "<b>Bold</b> and <i>italic</i>", "Bold and italic"},
		{"blocks", "<div><p>A</p><p>B<br>C</p></div>", "A\nB\nC"},
		{"style dropped", "<style>p{}</style><p>Text</p>", "Text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlToText(tt.input); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}
