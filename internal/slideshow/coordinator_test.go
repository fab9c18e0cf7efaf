package slideshow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spframe/spframe/internal/sharepoint"
)

// newGraphStub serves a single photo folder with the given file names, plus
// the token, site, and drive endpoints the client needs to reach it.
func newGraphStub(t *testing.T, names ...string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON := func(v any) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(v)
		}
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/oauth2/v2.0/token"):
			writeJSON(map[string]any{"access_token": "token", "expires_in": 3600})
		case strings.HasSuffix(path, "/drives"):
			writeJSON(map[string]any{"value": []map[string]any{{"id": "drive-1", "name": "Documents"}}})
		case strings.HasPrefix(path, "/sites/"):
			writeJSON(map[string]any{"id": "site-1"})
		case strings.Contains(path, "/root:/Photos/Trip:"):
			var items []map[string]any
			for _, name := range names {
				items = append(items, map[string]any{
					"id":                           "item-" + name,
					"name":                         name,
					"file":                         map[string]any{},
					"@microsoft.graph.downloadUrl": "https://download.example/" + name,
				})
			}
			writeJSON(map[string]any{"value": items})
		case strings.Contains(path, "/root:/Photos:"):
			writeJSON(map[string]any{"value": []map[string]any{
				{"name": "Trip", "folder": map[string]any{"childCount": int64(len(names))}},
			}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newStubClient(t *testing.T, server *httptest.Server) *sharepoint.Client {
	t.Helper()
	creds := sharepoint.Credentials{TenantID: "tenant-1", ClientID: "client-1", ClientSecret: "secret-1"}
	return sharepoint.New(creds, "https://contoso.sharepoint.com/sites/team", "Documents", "/Photos", 5,
		sharepoint.WithAuthorityBase(server.URL), sharepoint.WithGraphBase(server.URL))
}

func TestRefreshStoresDataAndSubstitutesSession(t *testing.T) {
	server := newGraphStub(t, "a.jpg", "b.jpg")
	co := New(newStubClient(t, server), time.Hour, 10)

	if err := co.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !co.LastUpdateSuccess() {
		t.Error("LastUpdateSuccess should be true after a successful refresh")
	}
	if co.LastUpdate().IsZero() {
		t.Error("LastUpdate should be set")
	}

	data := co.Data()
	if data == nil || data.PhotoCount != 2 {
		t.Fatalf("data = %+v, want 2 photos", data)
	}
	session := co.SessionID()
	for _, photo := range data.Photos {
		if strings.Contains(photo.ProxyURL, sharepoint.SessionPlaceholder) {
			t.Errorf("proxy URL %q still carries the session placeholder", photo.ProxyURL)
		}
		if !strings.Contains(photo.ProxyURL, session) {
			t.Errorf("proxy URL %q missing session %q", photo.ProxyURL, session)
		}
	}
}

func TestRefreshNoFoldersKeepsPreviousData(t *testing.T) {
	server := newGraphStub(t, "a.jpg")
	co := New(newStubClient(t, server), time.Hour, 10)
	if err := co.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// A client whose library holds no photo folders fails the update but the
	// previous data stays visible for consumers.
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON := func(v any) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(v)
		}
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/oauth2/v2.0/token"):
			writeJSON(map[string]any{"access_token": "token", "expires_in": 3600})
		case strings.HasSuffix(path, "/drives"):
			writeJSON(map[string]any{"value": []map[string]any{{"id": "drive-1", "name": "Documents"}}})
		case strings.HasPrefix(path, "/sites/"):
			writeJSON(map[string]any{"id": "site-1"})
		default:
			writeJSON(map[string]any{"value": []map[string]any{}})
		}
	}))
	defer empty.Close()

	previous := co.Data()
	co.client = newStubClient(t, empty)
	if err := co.Refresh(context.Background()); err == nil {
		t.Fatal("refresh against an empty library should fail")
	}
	if co.LastUpdateSuccess() {
		t.Error("LastUpdateSuccess should be false after a failed refresh")
	}
	if co.Data() != previous {
		t.Error("failed refresh must not clear previous data")
	}
}

func TestCurrentPhotoRotation(t *testing.T) {
	server := newGraphStub(t, "a.jpg", "b.jpg", "c.jpg")
	co := New(newStubClient(t, server), time.Hour, 10)
	if err := co.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	at := func(offset time.Duration) string {
		co.now = func() time.Time { return base.Add(offset) }
		photo := co.CurrentPhoto()
		if photo == nil {
			t.Fatal("CurrentPhoto returned nil")
		}
		return photo.Name
	}

	// The photo is stable within a cycle and advances across cycles.
	if at(0) != at(9*time.Second) {
		t.Error("photo changed inside a single 10s cycle")
	}
	first, second, third := at(0), at(10*time.Second), at(20*time.Second)
	if first == second || second == third || first == third {
		t.Errorf("rotation did not advance: %s, %s, %s", first, second, third)
	}
	// Three photos on a 10s cycle wrap around every 30s.
	if at(30*time.Second) != first {
		t.Error("rotation did not wrap around")
	}
}

func TestCurrentPhotoWithoutData(t *testing.T) {
	server := newGraphStub(t, "a.jpg")
	co := New(newStubClient(t, server), time.Hour, 10)
	if co.CurrentPhoto() != nil {
		t.Error("CurrentPhoto should be nil before the first refresh")
	}
}

func TestFindPhotoRecovery(t *testing.T) {
	server := newGraphStub(t, "a.jpg", "b.jpg", "c.jpg")
	co := New(newStubClient(t, server), time.Hour, 10)
	if err := co.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	photos := co.Data().Photos

	// Stable ID wins even when name and index point elsewhere.
	if got := co.FindPhoto(photos[2].ID, "a.jpg", 0); got.Name != "c.jpg" {
		t.Errorf("ID lookup returned %s, want c.jpg", got.Name)
	}
	// Unknown ID falls back to the name.
	if got := co.FindPhoto("no-such-id", "b.jpg", 0); got.Name != "b.jpg" {
		t.Errorf("name lookup returned %s, want b.jpg", got.Name)
	}
	// Unknown ID and name fall back to the positional index.
	if got := co.FindPhoto("no-such-id", "gone.jpg", 1); got.Name != "b.jpg" {
		t.Errorf("index lookup returned %s, want b.jpg", got.Name)
	}
	// Out-of-range index falls back to the first photo.
	if got := co.FindPhoto("no-such-id", "gone.jpg", 99); got.Name != "a.jpg" {
		t.Errorf("fallback returned %s, want a.jpg", got.Name)
	}
}

func TestSelectFolder(t *testing.T) {
	server := newGraphStub(t, "a.jpg")
	co := New(newStubClient(t, server), time.Hour, 10)

	if err := co.SelectFolder(context.Background(), "/Photos/Trip"); err != nil {
		t.Fatalf("SelectFolder: %v", err)
	}
	data := co.Data()
	if data == nil || data.FolderPath != "/Photos/Trip" {
		t.Fatalf("data = %+v, want /Photos/Trip", data)
	}
	if err := co.SelectFolder(context.Background(), "/Photos/Absent"); err == nil {
		t.Fatal("selecting a missing folder should fail")
	}
}

func TestSwapClientRotatesSession(t *testing.T) {
	server := newGraphStub(t, "a.jpg")
	co := New(newStubClient(t, server), time.Hour, 10)
	if err := co.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	before := co.SessionID()
	co.SwapClient(newStubClient(t, server))
	if co.SessionID() == before {
		t.Error("session ID should rotate on client swap")
	}
	if co.Data() != nil {
		t.Error("swap should drop data from the previous client")
	}
	if co.LastUpdateSuccess() {
		t.Error("swap should reset the success flag")
	}
}
