package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmcdole/reel/internal/adapter"
	"github.com/mmcdole/reel/internal/adapter/catalog/catalogtest"
)

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func newCatalog(t *testing.T) *catalogtest.Server {
	t.Helper()
	srv := catalogtest.NewServer()
	t.Cleanup(srv.Close)

	srv.AddItem(catalogtest.Item{ID: 42, Type: "movie", Title: "Arrival", Year: "2016", Vote: 7.9, Overview: "Linguists meet visitors."})
	srv.AddItem(catalogtest.Item{ID: 7, Type: "tv", Title: "Dark", Year: "2017", Progress: 40})
	srv.AddItem(catalogtest.Item{ID: 11, Type: "movie", Title: "Dune", Year: "2021"})
	srv.AddItem(catalogtest.Item{ID: 12, Type: "movie", Title: "Dunkirk", Year: "2017"})
	srv.SetRail("releases", "movie:11", "movie:12")
	srv.SetRail("recommendations", "movie:42", "tv:7")
	srv.SetRail("trending", "movie:12")
	srv.SetRail("continue_watching", "tv:7")
	srv.SetMyList("movie:42")
	srv.SetRandom("movie:42")
	return srv
}

func writeTestConfig(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	cfg := adapter.DefaultConfig()
	cfg.Catalog.BaseURL = baseURL
	cfg.Cache.Dir = filepath.Join(dir, "cache")
	cfg.Logging.File = filepath.Join(dir, "reel.log")
	path := filepath.Join(dir, "config.yaml")
	if err := adapter.SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	return path
}

func TestVersionSkipsConfig(t *testing.T) {
	out, _, err := runCLI(t, []string{"version"}, filepath.Join(t.TempDir(), "missing", "config.yaml"))
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "reel "+Version) {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "reel", "config.yaml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target, "--url", "https://catalog.test/"}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("expected target path in output, got %q", out)
	}

	cfg, err := adapter.LoadConfig(target)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Catalog.BaseURL != "https://catalog.test" {
		t.Fatalf("base url = %q", cfg.Catalog.BaseURL)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected second init to fail without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowAndValidate(t *testing.T) {
	srv := newCatalog(t)
	path := writeTestConfig(t, srv.URL)

	out, _, err := runCLI(t, []string{"config", "show"}, path)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{"catalog.base_url", srv.URL, "search.debounce", "250ms"} {
		if !strings.Contains(out, want) {
			t.Fatalf("config show missing %q:\n%s", want, out)
		}
	}

	if _, _, err := runCLI(t, []string{"config", "validate"}, path); err != nil {
		t.Fatalf("config validate: %v", err)
	}
}

func TestCommandsRequireCatalogURL(t *testing.T) {
	path := writeTestConfig(t, "")
	_, _, err := runCLI(t, []string{"rails"}, path)
	if err == nil || !strings.Contains(err.Error(), "catalog.base_url") {
		t.Fatalf("expected missing url error, got %v", err)
	}
}

func TestSearchCommandJSON(t *testing.T) {
	srv := newCatalog(t)
	path := writeTestConfig(t, srv.URL)

	out, _, err := runCLI(t, []string{"search", "--json", "dun"}, path)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	var results []mediaJSON
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %+v", results)
	}
	titles := results[0].Title + "," + results[1].Title
	if !strings.Contains(titles, "Dune") || !strings.Contains(titles, "Dunkirk") {
		t.Fatalf("unexpected results %s", titles)
	}
	if got := srv.SearchQueries(); len(got) != 1 || got[0] != "dun" {
		t.Fatalf("expected one query for dun, got %v", got)
	}
}

func TestSearchCommandRejectsShortQuery(t *testing.T) {
	srv := newCatalog(t)
	path := writeTestConfig(t, srv.URL)

	_, _, err := runCLI(t, []string{"search", "d"}, path)
	if err == nil || !strings.Contains(err.Error(), "Type 2+ chars") {
		t.Fatalf("expected short query error, got %v", err)
	}
	if got := srv.SearchQueries(); len(got) != 0 {
		t.Fatalf("short query reached the catalog: %v", got)
	}
}

func TestSearchCommandNoResults(t *testing.T) {
	srv := newCatalog(t)
	path := writeTestConfig(t, srv.URL)

	out, _, err := runCLI(t, []string{"search", "zzz"}, path)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, `No results for "zzz"`) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRailsCommandPrintsEveryRail(t *testing.T) {
	srv := newCatalog(t)
	path := writeTestConfig(t, srv.URL)

	out, _, err := runCLI(t, []string{"rails"}, path)
	if err != nil {
		t.Fatalf("rails: %v", err)
	}
	for _, want := range []string{"New Releases", "Recommended", "Trending", "Continue Watching", "My List", "Dune", "Arrival", "40%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("rails output missing %q:\n%s", want, out)
		}
	}
}

func TestRailsCommandJSONMarksMembership(t *testing.T) {
	srv := newCatalog(t)
	path := writeTestConfig(t, srv.URL)

	out, _, err := runCLI(t, []string{"rails", "--json", "recommendations"}, path)
	if err != nil {
		t.Fatalf("rails: %v", err)
	}

	var rails []struct {
		Rail  string      `json:"rail"`
		Items []mediaJSON `json:"items"`
	}
	if err := json.Unmarshal([]byte(out), &rails); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(rails) != 1 || rails[0].Rail != "recommendations" {
		t.Fatalf("expected only recommendations, got %+v", rails)
	}
	for _, item := range rails[0].Items {
		want := item.Ref == "movie:42"
		if item.InList != want {
			t.Fatalf("%s in_list = %v, want %v", item.Ref, item.InList, want)
		}
	}
}

func TestRailsCommandReportsFailures(t *testing.T) {
	srv := newCatalog(t)
	srv.FailPath("/api/trending", 500)
	path := writeTestConfig(t, srv.URL)

	out, _, err := runCLI(t, []string{"rails", "releases", "trending"}, path)
	if err == nil || !strings.Contains(err.Error(), "trending") {
		t.Fatalf("expected trending failure, got %v", err)
	}
	if !strings.Contains(out, "Dune") {
		t.Fatalf("healthy rail should still print:\n%s", out)
	}
}

func TestRailsCommandRejectsUnknownRail(t *testing.T) {
	srv := newCatalog(t)
	path := writeTestConfig(t, srv.URL)

	if _, _, err := runCLI(t, []string{"rails", "popular"}, path); err == nil {
		t.Fatal("expected unknown rail error")
	}
}

func TestListToggleRoundTrip(t *testing.T) {
	srv := newCatalog(t)
	path := writeTestConfig(t, srv.URL)

	out, _, err := runCLI(t, []string{"list", "toggle", "tv/7"}, path)
	if err != nil {
		t.Fatalf("toggle add: %v", err)
	}
	if !strings.Contains(out, "Added to My List: Dark") {
		t.Fatalf("unexpected output %q", out)
	}
	if got := srv.MyList(); len(got) != 2 {
		t.Fatalf("expected two entries after add, got %v", got)
	}

	out, _, err = runCLI(t, []string{"list", "toggle", "movie:42"}, path)
	if err != nil {
		t.Fatalf("toggle remove: %v", err)
	}
	if !strings.Contains(out, "Removed from My List: Arrival") {
		t.Fatalf("unexpected output %q", out)
	}

	out, _, err = runCLI(t, []string{"list"}, path)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Dark") || strings.Contains(out, "Arrival") {
		t.Fatalf("unexpected list:\n%s", out)
	}
}

func TestListToggleRejectsBadRef(t *testing.T) {
	srv := newCatalog(t)
	path := writeTestConfig(t, srv.URL)

	if _, _, err := runCLI(t, []string{"list", "toggle", "book/3"}, path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRandomCommand(t *testing.T) {
	srv := newCatalog(t)
	path := writeTestConfig(t, srv.URL)

	out, _, err := runCLI(t, []string{"random"}, path)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	for _, want := range []string{"Arrival (2016)", srv.URL + "/watch/movie/42"} {
		if !strings.Contains(out, want) {
			t.Fatalf("random output missing %q:\n%s", want, out)
		}
	}
}

func TestCacheClear(t *testing.T) {
	srv := newCatalog(t)
	path := writeTestConfig(t, srv.URL)

	if _, _, err := runCLI(t, []string{"rails", "releases"}, path); err != nil {
		t.Fatalf("rails: %v", err)
	}
	cacheDir := filepath.Join(filepath.Dir(path), "cache")
	if _, err := os.Stat(cacheDir); err != nil {
		t.Fatalf("expected cache dir after load: %v", err)
	}

	if _, _, err := runCLI(t, []string{"cache", "clear"}, path); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if _, err := os.Stat(cacheDir); !os.IsNotExist(err) {
		t.Fatalf("cache dir still present: %v", err)
	}
}

func TestSetupFlowSavesReachableCatalog(t *testing.T) {
	srv := newCatalog(t)
	target := filepath.Join(t.TempDir(), "config.yaml")
	cfg := adapter.DefaultConfig()

	in := strings.NewReader("\nnot-a-url\n" + srv.URL + "/\n")
	var out bytes.Buffer
	if err := runSetupFlow(in, &out, cfg, target, adapter.NullLogger()); err != nil {
		t.Fatalf("runSetupFlow: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "cannot be empty") {
		t.Fatalf("expected empty input notice:\n%s", out.String())
	}

	saved, err := adapter.LoadConfig(target)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if saved.Catalog.BaseURL != srv.URL {
		t.Fatalf("saved url = %q, want %q", saved.Catalog.BaseURL, srv.URL)
	}
}

func TestSearchCommandFiltersThroughAssistant(t *testing.T) {
	srv := newCatalog(t)
	path := writeTestConfig(t, srv.URL)

	out, _, err := runCLI(t, []string{"search", "--json", "--type", "movie", "--year", "2017", "dun"}, path)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	var results []mediaJSON
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(results) != 1 || results[0].Title != "Dunkirk" {
		t.Fatalf("expected only Dunkirk, got %+v", results)
	}
	reqs := srv.AssistantRequests()
	if len(reqs) != 1 || reqs[0].MediaType != "movie" || reqs[0].Year == nil || *reqs[0].Year != 2017 {
		t.Fatalf("unexpected assistant requests %+v", reqs)
	}
	if got := srv.SearchQueries(); len(got) != 0 {
		t.Fatalf("filtered search also hit title search: %v", got)
	}
}

func TestSearchCommandRejectsBadType(t *testing.T) {
	srv := newCatalog(t)
	path := writeTestConfig(t, srv.URL)

	if _, _, err := runCLI(t, []string{"search", "--type", "book", "dune"}, path); err == nil {
		t.Fatal("expected media type error")
	}
}

func TestMediaTableColumns(t *testing.T) {
	srv := newCatalog(t)
	path := writeTestConfig(t, srv.URL)

	out, _, err := runCLI(t, []string{"rails", "recommendations"}, path)
	if err != nil {
		t.Fatalf("rails: %v", err)
	}
	for _, want := range []string{"Rating", "My List", "★ 7.9", "40%", "✓"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
	// Only Arrival is on My List
	if got := strings.Count(out, "✓"); got != 1 {
		t.Fatalf("expected one membership mark, got %d:\n%s", got, out)
	}
}

func TestRailsCommandDiscoverFilter(t *testing.T) {
	srv := newCatalog(t)
	path := writeTestConfig(t, srv.URL)

	out, _, err := runCLI(t, []string{"rails", "--year", "2017", "discover"}, path)
	if err != nil {
		t.Fatalf("rails: %v", err)
	}
	if !strings.Contains(out, "Dunkirk") || strings.Contains(out, "Arrival") {
		t.Fatalf("unexpected discover rail:\n%s", out)
	}
	if got := srv.LastQuery("/api/movies/discover").Get("year"); got != "2017" {
		t.Fatalf("discover year = %q, want 2017", got)
	}
}
