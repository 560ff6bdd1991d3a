package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"school-directory/imagehost"
	"school-directory/models"
	"school-directory/utils"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu        sync.Mutex
	rows      []models.School
	nextID    int64
	now       time.Time
	insertErr error
	listErr   error
}

func newMemStore() *memStore {
	return &memStore{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *memStore) Insert(_ context.Context, school models.School) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return 0, &models.StorageError{Op: "insert school", Err: s.insertErr}
	}
	s.nextID++
	school.ID = s.nextID
	school.CreatedAt = s.now
	s.rows = append(s.rows, school)
	return school.ID, nil
}

func (s *memStore) ListRecent(context.Context) ([]models.SchoolSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, &models.StorageError{Op: "list schools", Err: s.listErr}
	}
	rows := append([]models.School(nil), s.rows...)
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID > rows[j].ID
	})
	out := make([]models.SchoolSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.SchoolSummary{ID: r.ID, Name: r.Name, Address: r.Address, City: r.City, Image: r.Image})
	}
	return out, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type fakeUploader struct {
	mu        sync.Mutex
	stored    map[string][]byte
	uploads   []imagehost.Upload
	deleted   []string
	uploadErr error
	deleteErr error
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{stored: map[string][]byte{}}
}

func (f *fakeUploader) Upload(_ context.Context, u imagehost.Upload) (imagehost.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, u)
	if f.uploadErr != nil {
		return imagehost.Image{}, f.uploadErr
	}
	body, err := io.ReadAll(u.Body)
	if err != nil {
		return imagehost.Image{}, err
	}
	id := "schools/" + u.Name
	f.stored[id] = body
	return imagehost.Image{PublicID: id, URL: "https://img.example/" + id + u.Extension}, nil
}

func (f *fakeUploader) Delete(_ context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, publicID)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.stored, publicID)
	return nil
}

func (f *fakeUploader) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

type fixture struct {
	store    *memStore
	images   *fakeUploader
	hook     *test.Hook
	add      http.HandlerFunc
	list     http.HandlerFunc
	maxBytes int64
}

func newFixture() *fixture {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	sc := SchoolController{Log: log, Validate: utils.NewValidator(), MaxImageBytes: 5 << 20}
	f := &fixture{store: newMemStore(), images: newFakeUploader(), hook: hook, maxBytes: sc.MaxImageBytes}
	f.add = sc.AddSchool(f.store, f.images)
	f.list = sc.GetSchools(f.store)
	return f
}

type filePart struct {
	name    string
	content []byte
}

func oakFields() map[string]string {
	return map[string]string{
		"name":     "Oak Elementary",
		"address":  "1 Oak Rd",
		"city":     "Springfield",
		"state":    "IL",
		"contact":  "5551234567",
		"email_id": "a@b.com",
	}
}

func multipartRequest(t *testing.T, fields map[string]string, file *filePart) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		part, err := mw.CreateFormFile("image", file.name)
		require.NoError(t, err)
		_, err = part.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/schools/add", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (f *fixture) post(t *testing.T, fields map[string]string, file *filePart) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	f.add(w, multipartRequest(t, fields, file))
	return w
}

func (f *fixture) listSchools(t *testing.T) []map[string]interface{} {
	t.Helper()
	w := httptest.NewRecorder()
	f.list(w, httptest.NewRequest(http.MethodGet, "/api/schools/list", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func decodeCreated(t *testing.T, w *httptest.ResponseRecorder) models.CreatedResponse {
	t.Helper()
	var resp models.CreatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestAddSchoolWithoutImage(t *testing.T) {
	f := newFixture()

	w := f.post(t, oakFields(), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeCreated(t, w)
	assert.Equal(t, "School added successfully", resp.Message)
	assert.Equal(t, int64(1), resp.SchoolID)
	assert.Zero(t, f.images.uploadCount())

	schools := f.listSchools(t)
	require.Len(t, schools, 1)
	assert.Equal(t, map[string]interface{}{
		"id":      float64(resp.SchoolID),
		"name":    "Oak Elementary",
		"address": "1 Oak Rd",
		"city":    "Springfield",
		"image":   nil,
	}, schools[0])

	f.store.mu.Lock()
	assert.Equal(t, int64(5551234567), f.store.rows[0].Contact)
	assert.Equal(t, "IL", f.store.rows[0].State)
	f.store.mu.Unlock()
}

func TestAddSchoolIDsIncrease(t *testing.T) {
	f := newFixture()

	var last int64
	for i := 0; i < 5; i++ {
		w := f.post(t, oakFields(), nil)
		require.Equal(t, http.StatusCreated, w.Code)
		id := decodeCreated(t, w).SchoolID
		assert.Greater(t, id, last)
		last = id
	}
	assert.Equal(t, 5, f.store.count(), "resubmission creates distinct records")
}

func TestAddSchoolMissingField(t *testing.T) {
	for field := range oakFields() {
		t.Run(field, func(t *testing.T) {
			f := newFixture()
			fields := oakFields()
			delete(fields, field)

			w := f.post(t, fields, &filePart{name: "oak.png", content: pngBytes})

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"message":"Missing required field: `+field+`"}`, w.Body.String())
			assert.Zero(t, f.store.count())
			assert.Zero(t, f.images.uploadCount())
		})
	}
}

func TestAddSchoolIgnoresQueryParameters(t *testing.T) {
	f := newFixture()
	fields := oakFields()
	delete(fields, "name")
	req := multipartRequest(t, fields, nil)
	req.URL.RawQuery = "name=Query+School"
	w := httptest.NewRecorder()

	f.add(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Missing required field: name"}`, w.Body.String())
	assert.Zero(t, f.store.count())
}

func TestAddSchoolWhitespaceOnlyField(t *testing.T) {
	f := newFixture()
	fields := oakFields()
	fields["city"] = "   "

	w := f.post(t, fields, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, f.store.count())
}

func TestAddSchoolInvalidContact(t *testing.T) {
	for _, contact := range []string{"12345", "55512345678", "555123456a", "+555123456"} {
		t.Run(contact, func(t *testing.T) {
			f := newFixture()
			fields := oakFields()
			fields["contact"] = contact

			w := f.post(t, fields, &filePart{name: "oak.png", content: pngBytes})

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"message":"contact must be exactly 10 digits"}`, w.Body.String())
			assert.Zero(t, f.store.count())
			assert.Zero(t, f.images.uploadCount())
		})
	}
}

func TestAddSchoolInvalidEmail(t *testing.T) {
	f := newFixture()
	fields := oakFields()
	fields["email_id"] = "a@"

	w := f.post(t, fields, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, f.store.count())
}

func TestAddSchoolRejectsNonImageBeforeUpload(t *testing.T) {
	f := newFixture()

	w := f.post(t, oakFields(), &filePart{name: "notes.png", content: []byte("plain text pretending to be a png")})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Only image files are allowed"}`, w.Body.String())
	assert.Zero(t, f.images.uploadCount())
	assert.Zero(t, f.store.count())
}

func TestAddSchoolRejectsOversizedImage(t *testing.T) {
	f := newFixture()
	big := append(append([]byte(nil), pngBytes...), make([]byte, f.maxBytes)...)

	w := f.post(t, oakFields(), &filePart{name: "big.png", content: big})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, f.images.uploadCount())
	assert.Zero(t, f.store.count())
}

func TestAddSchoolRejectsNonMultipart(t *testing.T) {
	f := newFixture()
	req := httptest.NewRequest(http.MethodPost, "/api/schools/add", strings.NewReader(`{"name":"Oak"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	f.add(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Request must be multipart/form-data"}`, w.Body.String())
	assert.Zero(t, f.store.count())
}

func TestAddSchoolWithImage(t *testing.T) {
	f := newFixture()

	w := f.post(t, oakFields(), &filePart{name: "oak.png", content: pngBytes})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.Equal(t, 1, f.images.uploadCount())
	up := f.images.uploads[0]
	assert.Equal(t, "image/png", up.ContentType)
	assert.Equal(t, ".png", up.Extension)
	assert.NotEmpty(t, up.Name)

	schools := f.listSchools(t)
	require.Len(t, schools, 1)
	url, ok := schools[0]["image"].(string)
	require.True(t, ok)
	assert.Equal(t, "https://img.example/schools/"+up.Name+".png", url)

	// The hosted bytes are exactly what was submitted.
	assert.Equal(t, pngBytes, f.images.stored["schools/"+up.Name])
}

func TestAddSchoolUploadFailure(t *testing.T) {
	f := newFixture()
	f.images.uploadErr = errors.New("cloudinary: 401 invalid api key")

	w := f.post(t, oakFields(), &filePart{name: "oak.png", content: pngBytes})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Failed to upload image"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "api key")
	assert.Zero(t, f.store.count())
}

func TestAddSchoolInsertFailureDeletesImage(t *testing.T) {
	f := newFixture()
	f.store.insertErr = errors.New("dial tcp 10.0.0.5:3306: connection refused")

	w := f.post(t, oakFields(), &filePart{name: "oak.png", content: pngBytes})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Failed to add school"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
	require.Len(t, f.images.deleted, 1)
	assert.Equal(t, "schools/"+f.images.uploads[0].Name, f.images.deleted[0])
	assert.Empty(t, f.images.stored)
}

func TestAddSchoolInsertFailureLogsOrphan(t *testing.T) {
	f := newFixture()
	f.store.insertErr = errors.New("deadlock")
	f.images.deleteErr = errors.New("cloudinary unreachable")

	w := f.post(t, oakFields(), &filePart{name: "oak.png", content: pngBytes})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var orphan *logrus.Entry
	for _, e := range f.hook.AllEntries() {
		if e.Message == "orphaned image after failed insert" {
			orphan = e
		}
	}
	require.NotNil(t, orphan)
	assert.Contains(t, orphan.Data[logrus.ErrorKey].(error).Error(), "cloudinary unreachable")
	assert.Contains(t, orphan.Data[logrus.ErrorKey].(error).Error(), "deadlock")
}

func TestAddSchoolInsertFailureWithoutImage(t *testing.T) {
	f := newFixture()
	f.store.insertErr = errors.New("read-only")

	w := f.post(t, oakFields(), nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, f.images.deleted)
}

func TestGetSchoolsEmpty(t *testing.T) {
	f := newFixture()
	w := httptest.NewRecorder()

	f.list(w, httptest.NewRequest(http.MethodGet, "/api/schools/list", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGetSchoolsNewestFirst(t *testing.T) {
	f := newFixture()

	fields := oakFields()
	require.Equal(t, http.StatusCreated, f.post(t, fields, nil).Code)

	f.store.now = f.store.now.Add(time.Second)
	fields["name"] = "Birch Academy"
	require.Equal(t, http.StatusCreated, f.post(t, fields, nil).Code)

	// Same timestamp as Birch: the higher id wins.
	fields["name"] = "Cedar School"
	require.Equal(t, http.StatusCreated, f.post(t, fields, nil).Code)

	schools := f.listSchools(t)
	require.Len(t, schools, 3)
	assert.Equal(t, "Cedar School", schools[0]["name"])
	assert.Equal(t, "Birch Academy", schools[1]["name"])
	assert.Equal(t, "Oak Elementary", schools[2]["name"])
	for _, s := range schools {
		assert.NotContains(t, s, "contact")
		assert.NotContains(t, s, "email_id")
		assert.NotContains(t, s, "state")
	}
}

func TestGetSchoolsStorageFailure(t *testing.T) {
	f := newFixture()
	f.store.listErr = errors.New("table schools is marked as crashed")
	w := httptest.NewRecorder()

	f.list(w, httptest.NewRequest(http.MethodGet, "/api/schools/list", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Failed to fetch schools"}`, w.Body.String())
}
