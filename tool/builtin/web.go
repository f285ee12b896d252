package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/turnwise/turnwise/internal/util"
	"github.com/turnwise/turnwise/tool"
)

const (
	geocodingEndpoint  = "https://geocoding-api.open-meteo.com/v1/search"
	forecastEndpoint   = "https://api.open-meteo.com/v1/forecast"
	wikipediaEndpoint  = "https://en.wikipedia.org/w/api.php"
	duckduckgoEndpoint = "https://api.duckduckgo.com/"
)

// getJSON fetches a URL with query parameters and decodes the JSON body.
func getJSON(ctx context.Context, client *http.Client, endpoint string, params url.Values, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", endpoint, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

type weatherArgs struct {
	Location string `json:"location" description:"City name or 'city, country', e.g. London, Paris, New York"`
}

func registerWeather(r *tool.Registry, opts *Options) error {
	client := opts.HTTPClient
	return r.Register(
		"weather",
		"Get current weather for a city or location. Uses Open-Meteo (no API key).",
		util.CreateSchema(weatherArgs{}),
		func(ctx context.Context, args map[string]any) (*tool.Result, error) {
			location, _ := args["location"].(string)

			var geo struct {
				Results []struct {
					Latitude  float64 `json:"latitude"`
					Longitude float64 `json:"longitude"`
				} `json:"results"`
			}
			geoParams := url.Values{
				"name":     {location},
				"count":    {"1"},
				"language": {"en"},
				"format":   {"json"},
			}
			if err := getJSON(ctx, client, geocodingEndpoint, geoParams, &geo); err != nil {
				return nil, err
			}
			if len(geo.Results) == 0 {
				res := tool.Failure(fmt.Sprintf("Location not found: %s", location))
				return &res, nil
			}

			var forecast struct {
				Current struct {
					Temperature float64 `json:"temperature_2m"`
					Humidity    float64 `json:"relative_humidity_2m"`
					WindSpeed   float64 `json:"wind_speed_10m"`
				} `json:"current"`
			}
			fcParams := url.Values{
				"latitude":  {fmt.Sprintf("%g", geo.Results[0].Latitude)},
				"longitude": {fmt.Sprintf("%g", geo.Results[0].Longitude)},
				"current":   {"temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m"},
				"timezone":  {"auto"},
			}
			if err := getJSON(ctx, client, forecastEndpoint, fcParams, &forecast); err != nil {
				return nil, err
			}

			cur := forecast.Current
			res := tool.Success(map[string]any{
				"location":    location,
				"temperature": cur.Temperature,
				"humidity":    cur.Humidity,
				"wind_speed":  cur.WindSpeed,
				"summary": fmt.Sprintf("Current weather in %s: %.1f°C, humidity %.0f%%, wind %.1f km/h.",
					location, cur.Temperature, cur.Humidity, cur.WindSpeed),
			})
			return &res, nil
		},
	)
}

type wikipediaArgs struct {
	Query     string `json:"query" description:"Topic or title to look up on Wikipedia"`
	Sentences int    `json:"sentences,omitempty" description:"Max summary sentences (1-5)"`
}

func registerWikipedia(r *tool.Registry, opts *Options) error {
	client := opts.HTTPClient
	return r.Register(
		"wikipedia_lookup",
		"Look up a topic on Wikipedia and return a short summary. Use for encyclopedic facts.",
		util.CreateSchema(wikipediaArgs{}),
		func(ctx context.Context, args map[string]any) (*tool.Result, error) {
			query, _ := args["query"].(string)
			sentences := intArg(args, "sentences", 3, 1, 5)

			var search struct {
				Query struct {
					Search []struct {
						Title string `json:"title"`
					} `json:"search"`
				} `json:"query"`
			}
			searchParams := url.Values{
				"action":   {"query"},
				"list":     {"search"},
				"srsearch": {query},
				"format":   {"json"},
				"srlimit":  {"1"},
			}
			if err := getJSON(ctx, client, wikipediaEndpoint, searchParams, &search); err != nil {
				return nil, err
			}
			if len(search.Query.Search) == 0 {
				res := tool.Success(map[string]any{"summary": "No Wikipedia article found.", "title": nil})
				return &res, nil
			}
			title := search.Query.Search[0].Title

			var extract struct {
				Query struct {
					Pages map[string]struct {
						Extract string `json:"extract"`
					} `json:"pages"`
				} `json:"query"`
			}
			extractParams := url.Values{
				"action":      {"query"},
				"titles":      {title},
				"prop":        {"extracts"},
				"exintro":     {"1"},
				"explaintext": {"1"},
				"exsentences": {fmt.Sprintf("%d", sentences)},
				"format":      {"json"},
			}
			if err := getJSON(ctx, client, wikipediaEndpoint, extractParams, &extract); err != nil {
				return nil, err
			}

			var summary string
			for _, page := range extract.Query.Pages {
				summary = page.Extract
				break
			}
			if summary == "" {
				summary = "No summary available for " + title + "."
			}

			res := tool.Success(map[string]any{"title": title, "summary": summary})
			return &res, nil
		},
	)
}

type webSearchArgs struct {
	Query      string `json:"query" description:"Search query"`
	MaxResults int    `json:"max_results,omitempty" description:"Max results to return (1-10)"`
}

func registerWebSearch(r *tool.Registry, opts *Options) error {
	client := opts.HTTPClient
	return r.Register(
		"web_search",
		"Search the web for current information using DuckDuckGo. Use for facts, news, or recent events.",
		util.CreateSchema(webSearchArgs{}),
		func(ctx context.Context, args map[string]any) (*tool.Result, error) {
			query, _ := args["query"].(string)
			maxResults := intArg(args, "max_results", 5, 1, 10)

			var answer struct {
				Heading       string `json:"Heading"`
				AbstractText  string `json:"AbstractText"`
				AbstractURL   string `json:"AbstractURL"`
				RelatedTopics []struct {
					Text     string `json:"Text"`
					FirstURL string `json:"FirstURL"`
				} `json:"RelatedTopics"`
			}
			params := url.Values{
				"q":           {query},
				"format":      {"json"},
				"no_html":     {"1"},
				"skip_disambig": {"1"},
			}
			if err := getJSON(ctx, client, duckduckgoEndpoint, params, &answer); err != nil {
				return nil, err
			}

			var results []map[string]any
			if answer.AbstractText != "" {
				results = append(results, map[string]any{
					"title": answer.Heading,
					"body":  answer.AbstractText,
					"href":  answer.AbstractURL,
				})
			}
			for _, topic := range answer.RelatedTopics {
				if len(results) >= maxResults {
					break
				}
				if topic.Text == "" {
					continue
				}
				results = append(results, map[string]any{
					"title": topic.Text,
					"body":  topic.Text,
					"href":  topic.FirstURL,
				})
			}

			summary := "No results found."
			if len(results) > 0 {
				first := results[0]
				summary = fmt.Sprintf("%v: %v", first["title"], first["body"])
			}

			res := tool.Result{
				Success:  true,
				Data:     map[string]any{"results": results, "summary": summary},
				Metadata: map[string]any{"query": query, "count": len(results)},
			}
			return &res, nil
		},
	)
}

// intArg reads an integer argument with a default and clamps it to a range.
// JSON decoding yields float64, so both shapes are accepted.
func intArg(args map[string]any, key string, def, lo, hi int) int {
	out := def
	switch v := args[key].(type) {
	case int:
		out = v
	case float64:
		out = int(v)
	}
	if out < lo {
		out = lo
	}
	if out > hi {
		out = hi
	}
	return out
}
