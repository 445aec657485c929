package song

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/mager/geetyatra/dataset"
	"github.com/mager/geetyatra/logger"
)

func testStore(titles ...string) *dataset.Store {
	songs := make([]dataset.Song, len(titles))
	for i, title := range titles {
		songs[i] = dataset.Song{Track: title, Artist: "Artist", Language: "hindi"}
	}
	return dataset.New(songs)
}

func TestIndexHandler(t *testing.T) {
	l, _ := logger.NewTestLogger()
	h := NewIndexHandler(l, testStore("Tum Hi Ho", "Kesariya", "Tum Hi Ho", "Raataan <Lambiyan>"))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("wrong status: got %v want %v", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("wrong content type: %s", ct)
	}

	body := rr.Body.String()
	k := strings.Index(body, `<option value="Kesariya">`)
	r := strings.Index(body, `<option value="Raataan &lt;Lambiyan&gt;">`)
	th := strings.Index(body, `<option value="Tum Hi Ho">`)
	if k < 0 || r < 0 || th < 0 {
		t.Fatalf("missing options in body:\n%s", body)
	}
	if !(k < r && r < th) {
		t.Error("titles are not sorted")
	}
	if strings.Count(body, `<option value="Tum Hi Ho">`) != 1 {
		t.Error("titles are not de-duplicated")
	}
}

func search(t *testing.T, h http.Handler, body string) (int, SearchResponse) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/search_songs", strings.NewReader(body)))

	var resp SearchResponse
	if rr.Code == http.StatusOK {
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return rr.Code, resp
}

func TestSearchHandler(t *testing.T) {
	l, _ := logger.NewTestLogger()
	h := NewSearchHandler(l, testStore("Tum Hi Ho", "Kesariya", "Tum Se Hi", "Naatu Naatu"))

	tests := []struct {
		name string
		body string
		want []string
	}{
		{"substring", `{"query": "tum"}`, []string{"Tum Hi Ho", "Tum Se Hi"}},
		{"case-insensitive", `{"query": "NAATU"}`, []string{"Naatu Naatu"}},
		{"empty query", `{"query": ""}`, []string{"Kesariya", "Naatu Naatu", "Tum Hi Ho", "Tum Se Hi"}},
		{"missing query", `{}`, []string{"Kesariya", "Naatu Naatu", "Tum Hi Ho", "Tum Se Hi"}},
		{"empty body", ``, []string{"Kesariya", "Naatu Naatu", "Tum Hi Ho", "Tum Se Hi"}},
		{"no match", `{"query": "xyz"}`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := search(t, h, tt.body)
			if code != http.StatusOK {
				t.Fatalf("wrong status: got %v", code)
			}
			if !reflect.DeepEqual(resp.Songs, tt.want) {
				t.Errorf("got %v want %v", resp.Songs, tt.want)
			}
		})
	}
}

func TestSearchHandlerCap(t *testing.T) {
	l, _ := logger.NewTestLogger()
	var titles []string
	for i := 0; i < 50; i++ {
		titles = append(titles, fmt.Sprintf("Song %02d", i))
	}
	h := NewSearchHandler(l, testStore(titles...))

	for _, body := range []string{`{"query": ""}`, `{"query": "song"}`} {
		_, resp := search(t, h, body)
		if len(resp.Songs) != MaxSearchResults {
			t.Errorf("%s: expected %d results, got %d", body, MaxSearchResults, len(resp.Songs))
		}
	}
}

func TestSearchHandlerBadBody(t *testing.T) {
	l, _ := logger.NewTestLogger()
	h := NewSearchHandler(l, testStore("A"))

	if code, _ := search(t, h, `{"query":`); code != http.StatusBadRequest {
		t.Errorf("wrong status: got %v want %v", code, http.StatusBadRequest)
	}
}
