package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const defaultAPIURL = "https://en.wikipedia.org/w/api.php"

// Client talks to the MediaWiki action API.
type Client struct {
	apiURL     string
	httpClient *http.Client
	userAgent  string
}

func NewClient(httpClient *http.Client, userAgent string) *Client {
	return &Client{
		apiURL:     defaultAPIURL,
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

func (c *Client) Search(ctx context.Context, query string, limit int) ([]string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", strconv.Itoa(limit))

	var body struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := c.get(ctx, params, &body); err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(body.Query.Search))
	for _, result := range body.Query.Search {
		titles = append(titles, result.Title)
	}
	return titles, nil
}

func (c *Client) Page(ctx context.Context, title string, sentences int) (*Page, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "extracts|pageprops|info")
	params.Set("inprop", "url")
	params.Set("explaintext", "1")
	params.Set("redirects", "1")
	params.Set("titles", title)
	// The API caps exsentences at 10
	if sentences > 0 && sentences <= 10 {
		params.Set("exsentences", strconv.Itoa(sentences))
	} else {
		params.Set("exintro", "1")
	}

	var body struct {
		Query struct {
			Pages []struct {
				Title     string            `json:"title"`
				Extract   string            `json:"extract"`
				FullURL   string            `json:"fullurl"`
				Missing   bool              `json:"missing"`
				PageProps map[string]string `json:"pageprops"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := c.get(ctx, params, &body); err != nil {
		return nil, err
	}

	if len(body.Query.Pages) == 0 || body.Query.Pages[0].Missing {
		return nil, fmt.Errorf("page %q not found", title)
	}

	page := body.Query.Pages[0]
	_, disambiguation := page.PageProps["disambiguation"]
	return &Page{
		Title:          page.Title,
		Extract:        page.Extract,
		URL:            page.FullURL,
		Disambiguation: disambiguation,
	}, nil
}

// Links lists main-namespace links of a page, used to enumerate the
// options of a disambiguation page.
func (c *Client) Links(ctx context.Context, title string, limit int) ([]string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "links")
	params.Set("plnamespace", "0")
	params.Set("pllimit", strconv.Itoa(limit))
	params.Set("titles", title)

	var body struct {
		Query struct {
			Pages []struct {
				Links []struct {
					Title string `json:"title"`
				} `json:"links"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := c.get(ctx, params, &body); err != nil {
		return nil, err
	}

	if len(body.Query.Pages) == 0 {
		return nil, nil
	}

	titles := make([]string, 0, len(body.Query.Pages[0].Links))
	for _, link := range body.Query.Pages[0].Links {
		titles = append(titles, link.Title)
	}
	return titles, nil
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")

	req, err := http.NewRequestWithContext(ctx, "GET", c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wikipedia request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wikipedia HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode wikipedia response: %w", err)
	}

	return nil
}
