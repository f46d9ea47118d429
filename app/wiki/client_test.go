package wiki

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
)

func TestClient_Search(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", defaultAPIURL,
		func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("list") != "search" {
				t.Errorf("Expected list=search, got %q", req.URL.Query().Get("list"))
			}
			if req.URL.Query().Get("srsearch") != "Tokyo, Japan" {
				t.Errorf("Unexpected srsearch: %q", req.URL.Query().Get("srsearch"))
			}
			return httpmock.NewStringResponse(200, `{
				"query": {"search": [{"title": "Tokyo"}, {"title": "Tokyo Metropolis"}]}
			}`), nil
		})

	client := NewClient(http.DefaultClient, "test-agent")
	titles, err := client.Search(context.Background(), "Tokyo, Japan", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(titles) != 2 || titles[0] != "Tokyo" || titles[1] != "Tokyo Metropolis" {
		t.Errorf("Unexpected titles: %v", titles)
	}
}

func TestClient_Page(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", defaultAPIURL,
		func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("exsentences") != "3" {
				t.Errorf("Expected exsentences=3, got %q", req.URL.Query().Get("exsentences"))
			}
			return httpmock.NewStringResponse(200, `{
				"query": {"pages": [{
					"title": "Tokyo",
					"extract": "Tokyo is the capital of Japan.",
					"fullurl": "https://en.wikipedia.org/wiki/Tokyo"
				}]}
			}`), nil
		})

	client := NewClient(http.DefaultClient, "test-agent")
	page, err := client.Page(context.Background(), "Tokyo", 3)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	if page.Title != "Tokyo" || page.URL != "https://en.wikipedia.org/wiki/Tokyo" {
		t.Errorf("Unexpected page: %+v", page)
	}
	if page.Disambiguation {
		t.Error("Page without disambiguation pageprop must not be flagged")
	}
}

func TestClient_Page_Disambiguation(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", defaultAPIURL,
		httpmock.NewStringResponder(200, `{
			"query": {"pages": [{
				"title": "Springfield",
				"extract": "",
				"fullurl": "https://en.wikipedia.org/wiki/Springfield",
				"pageprops": {"disambiguation": ""}
			}]}
		}`))

	client := NewClient(http.DefaultClient, "test-agent")
	page, err := client.Page(context.Background(), "Springfield", 3)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	if !page.Disambiguation {
		t.Error("Expected disambiguation flag from pageprops")
	}
}

func TestClient_Page_Missing(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", defaultAPIURL,
		httpmock.NewStringResponder(200, `{
			"query": {"pages": [{"title": "Nope", "missing": true}]}
		}`))

	client := NewClient(http.DefaultClient, "test-agent")
	if _, err := client.Page(context.Background(), "Nope", 3); err == nil {
		t.Fatal("Expected error for missing page")
	}
}

func TestClient_Links(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", defaultAPIURL,
		httpmock.NewStringResponder(200, `{
			"query": {"pages": [{"links": [{"title": "Springfield, Illinois"}, {"title": "Springfield, Missouri"}]}]}
		}`))

	client := NewClient(http.DefaultClient, "test-agent")
	links, err := client.Links(context.Background(), "Springfield", 50)
	if err != nil {
		t.Fatalf("Links failed: %v", err)
	}
	if len(links) != 2 || links[0] != "Springfield, Illinois" {
		t.Errorf("Unexpected links: %v", links)
	}
}
