package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"

	"github.com/mamadbah2/incubator/internal/config"
)

type fakeSheetsAPI struct {
	mu       sync.Mutex
	appended [][]interface{}
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		var body struct {
			Values [][]interface{} `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("valueInputOption") != "RAW" {
			http.Error(w, "missing valueInputOption", http.StatusBadRequest)
			return
		}
		f.appended = append(f.appended, body.Values...)
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
		_, _ = w.Write([]byte(`{"range":"Sessions!A1:F2","majorDimension":"ROWS","values":[["1","spring"],["2","summer"]]}`))
	default:
		http.NotFound(w, r)
	}
}

func newTestRepository(t *testing.T, api http.Handler) *GoogleSheetRepository {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	repo, err := NewGoogleSheetRepository(context.Background(),
		config.SheetsConfig{SpreadsheetID: "sheet-id"},
		nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	return repo
}

func TestReadRange(t *testing.T) {
	repo := newTestRepository(t, &fakeSheetsAPI{})
	rows, err := repo.ReadRange(context.Background(), "Sessions!A:F")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "2" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestAppendRows(t *testing.T) {
	api := &fakeSheetsAPI{}
	repo := newTestRepository(t, api)
	rows := [][]interface{}{{3, "autumn"}, {4, "winter"}}
	if err := repo.AppendRows(context.Background(), "Sessions!A:F", rows); err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(api.appended) != 2 || api.appended[0][1] != "autumn" || api.appended[1][1] != "winter" {
		t.Fatalf("unexpected appended rows %v", api.appended)
	}

	if err := repo.AppendRows(context.Background(), "Sessions!A:F", nil); err != nil {
		t.Fatalf("empty append: %v", err)
	}
	if len(api.appended) != 2 {
		t.Fatalf("empty append should not call the API, got %v", api.appended)
	}
}

func TestEmptyRangeRejected(t *testing.T) {
	repo := newTestRepository(t, &fakeSheetsAPI{})
	if err := repo.AppendRows(context.Background(), "", [][]interface{}{{1}}); err == nil {
		t.Fatal("expected error for empty range")
	}
	if _, err := repo.ReadRange(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty range")
	}
}

func TestNewRepositoryRequiresSpreadsheetID(t *testing.T) {
	if _, err := NewGoogleSheetRepository(context.Background(), config.SheetsConfig{}, nil); err == nil {
		t.Fatal("expected error without spreadsheet id")
	}
}
