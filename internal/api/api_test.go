package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hallgard/furrow/internal/export"
	"github.com/hallgard/furrow/internal/fieldservice"
	"github.com/hallgard/furrow/internal/models"
	"github.com/hallgard/furrow/internal/session"
	"github.com/hallgard/furrow/internal/testutil"
)

const (
	squareContour = `{"contourTrueStr": "0,0,0,100,0,0,100,100,0,0,100,0"}`
	threeTracks   = "0,AB,North,0,0,0,100,0,0\n1,AB,Middle,0,50,0,100,50,0\n2,AB,South,0,100,0,100,100,0\n"
)

// testEnv sets up a service and router over a temp workspace.
// authEnabled=false means disabled mode; a non-empty token means token mode.
func testEnv(t *testing.T, authToken string) (*fieldservice.Service, http.Handler) {
	t.Helper()
	mgr := session.NewManager()
	t.Cleanup(mgr.Close)
	svc := fieldservice.NewService(mgr, testutil.TestLedger(t), t.TempDir())
	router := NewRouter(svc, authToken != "", authToken, nil)
	return svc, router
}

// openSession opens a one-farm legacy session directly on the service and
// returns its id.
func openSession(t *testing.T, svc *fieldservice.Service) string {
	t.Helper()
	b := testutil.NewLegacyRoot(t, "500000.0,5800000.0").
		AddField("Hof", "Nordacker", squareContour, threeTracks)
	sess, err := svc.OpenRoot(context.Background(), models.ModeCereaTxt, b.Root)
	if err != nil {
		t.Fatal(err)
	}
	return sess.ID
}

func do(router http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestImportUploadAndBrowse(t *testing.T) {
	_, router := testEnv(t, "")

	b := testutil.NewLegacyRoot(t, "500000.0,5800000.0").
		AddField("Hof", "Nordacker", squareContour, threeTracks)
	archive, err := export.ZipTree(b.Root)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("archive", "upload.zip")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(archive); err != nil {
		t.Fatal(err)
	}
	if err := mw.WriteField("mode", "cerea-txt"); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/imports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("import status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Session string   `json:"session"`
		Mode    string   `json:"mode"`
		Farms   []string `json:"farms"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Session == "" || resp.Mode != "cerea-txt" {
		t.Fatalf("response = %+v", resp)
	}
	if len(resp.Farms) != 1 || resp.Farms[0] != "Hof" {
		t.Fatalf("farms = %v, want [Hof]", resp.Farms)
	}

	w = do(router, http.MethodGet, "/sessions/"+resp.Session+"/farms/Hof/fields", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("fields status = %d", w.Code)
	}
	var fields struct {
		Fields []string `json:"fields"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &fields)
	if len(fields.Fields) != 1 || fields.Fields[0] != "Nordacker" {
		t.Fatalf("fields = %v", fields.Fields)
	}
}

func TestImportRejectsBadMode(t *testing.T) {
	_, router := testEnv(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("archive", "upload.zip")
	_, _ = fw.Write([]byte("not a zip"))
	_ = mw.WriteField("mode", "dxf")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/imports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad mode status = %d, want 400", w.Code)
	}
}

func TestGetField(t *testing.T) {
	svc, router := testEnv(t, "")
	id := openSession(t, svc)

	w := do(router, http.MethodGet, "/sessions/"+id+"/farms/Hof/fields/Nordacker", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var detail FieldDetail
	_ = json.Unmarshal(w.Body.Bytes(), &detail)
	if len(detail.Tracks) != 3 || detail.Tracks[0].Name != "North" {
		t.Fatalf("detail tracks = %+v", detail.Tracks)
	}
	if len(detail.Polygon) != 4 {
		t.Fatalf("polygon vertices = %d, want 4", len(detail.Polygon))
	}
}

func TestUnknownSessionIs404(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(router, http.MethodGet, "/sessions/no-such/farms", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestReorderRenameDelete(t *testing.T) {
	svc, router := testEnv(t, "")
	id := openSession(t, svc)
	base := "/sessions/" + id + "/farms/Hof/fields/Nordacker"

	body, _ := json.Marshal(map[string][]int{"order": {2, 0, 1}})
	w := do(router, http.MethodPut, base+"/order", body)
	if w.Code != http.StatusOK {
		t.Fatalf("reorder status = %d, body = %s", w.Code, w.Body.String())
	}
	var detail FieldDetail
	_ = json.Unmarshal(w.Body.Bytes(), &detail)
	if detail.Tracks[0].Name != "South" || !detail.Dirty {
		t.Fatalf("after reorder = %+v", detail.Tracks)
	}

	body, _ = json.Marshal(map[string]string{"name": "Mitte"})
	w = do(router, http.MethodPut, base+"/tracks/1", body)
	if w.Code != http.StatusOK {
		t.Fatalf("rename status = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(router, http.MethodDelete, base+"/tracks/0", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	_ = json.Unmarshal(w.Body.Bytes(), &detail)
	if len(detail.Tracks) != 2 {
		t.Fatalf("tracks after delete = %d, want 2", len(detail.Tracks))
	}
}

func TestRenameValidation(t *testing.T) {
	svc, router := testEnv(t, "")
	id := openSession(t, svc)
	base := "/sessions/" + id + "/farms/Hof/fields/Nordacker"

	body, _ := json.Marshal(map[string]string{"name": "   "})
	w := do(router, http.MethodPut, base+"/tracks/0", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank rename status = %d, want 400", w.Code)
	}

	body, _ = json.Marshal(map[string]string{"name": "Ghost"})
	w = do(router, http.MethodPut, base+"/tracks/99", body)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown id status = %d, want 404", w.Code)
	}

	w = do(router, http.MethodPut, base+"/tracks/zero", []byte(`{"name":"x"}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric id status = %d, want 400", w.Code)
	}
}

func TestResetEndpoints(t *testing.T) {
	svc, router := testEnv(t, "")
	id := openSession(t, svc)
	base := "/sessions/" + id + "/farms/Hof/fields/Nordacker"

	body, _ := json.Marshal(map[string]string{"name": "Changed"})
	if w := do(router, http.MethodPut, base+"/tracks/0", body); w.Code != http.StatusOK {
		t.Fatalf("rename status = %d", w.Code)
	}

	w := do(router, http.MethodPost, base+"/reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reset status = %d", w.Code)
	}
	var detail FieldDetail
	_ = json.Unmarshal(w.Body.Bytes(), &detail)
	if detail.Tracks[0].Name != "North" || detail.Dirty {
		t.Fatalf("after reset = %+v", detail)
	}

	if w := do(router, http.MethodPut, base+"/tracks/0", body); w.Code != http.StatusOK {
		t.Fatalf("rename status = %d", w.Code)
	}
	w = do(router, http.MethodPost, "/sessions/"+id+"/reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reset all status = %d", w.Code)
	}
	var resetResp struct {
		Reset int `json:"reset"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resetResp)
	if resetResp.Reset != 1 {
		t.Fatalf("reset = %d, want 1", resetResp.Reset)
	}
}

func TestExportAndArchiveDownload(t *testing.T) {
	svc, router := testEnv(t, "")
	id := openSession(t, svc)

	// No export yet: archive is 404.
	w := do(router, http.MethodGet, "/sessions/"+id+"/archive", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("premature archive status = %d, want 404", w.Code)
	}

	w = do(router, http.MethodPost, "/sessions/"+id+"/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d, body = %s", w.Code, w.Body.String())
	}
	var report ExportReport
	_ = json.Unmarshal(w.Body.Bytes(), &report)
	if report.Exported != 1 {
		t.Fatalf("report = %+v, want one exported field", report)
	}

	w = do(router, http.MethodGet, "/sessions/"+id+"/archive", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("archive status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("content type = %q", ct)
	}
	dest := t.TempDir()
	if err := export.Unzip(w.Body.Bytes(), dest); err != nil {
		t.Fatalf("downloaded archive not a zip: %v", err)
	}
}

func TestValidationEndpoint(t *testing.T) {
	svc, router := testEnv(t, "")
	id := openSession(t, svc)

	w := do(router, http.MethodGet, "/sessions/"+id+"/validation", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var report ValidationReport
	_ = json.Unmarshal(w.Body.Bytes(), &report)
	if !report.OK() || report.Fields != 1 {
		t.Fatalf("report = %+v", report)
	}
}

func TestCloseSession(t *testing.T) {
	svc, router := testEnv(t, "")
	id := openSession(t, svc)

	w := do(router, http.MethodDelete, "/sessions/"+id, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("close status = %d", w.Code)
	}
	w = do(router, http.MethodGet, "/sessions/"+id+"/farms", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("closed session status = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	svc, router := testEnv(t, "secret")
	id := openSession(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/farms", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/farms", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/farms", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token status = %d, want 200", w.Code)
	}
}
