package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	accountdomain "github.com/smallbiznis/sensorlog/internal/account/domain"
	"github.com/smallbiznis/sensorlog/internal/account/session"
	"github.com/smallbiznis/sensorlog/internal/config"
	devicedomain "github.com/smallbiznis/sensorlog/internal/device/domain"
	"github.com/smallbiznis/sensorlog/internal/identity"
	measurementdomain "github.com/smallbiznis/sensorlog/internal/measurement/domain"
	"github.com/smallbiznis/sensorlog/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testToken = "session-token"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAccountService struct {
	registered  []accountdomain.RegisterRequest
	deleted     []accountdomain.DeleteRequest
	registerErr error
	deleteErr   error
	loggedOut   []string
}

func (f *fakeAccountService) Register(ctx context.Context, req accountdomain.RegisterRequest) (*accountdomain.AccountView, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.registered = append(f.registered, req)
	return &accountdomain.AccountView{ID: "1", Username: req.Username}, nil
}

func (f *fakeAccountService) Authenticate(ctx context.Context, req accountdomain.LoginRequest) (*accountdomain.LoginResult, error) {
	if req.Username != "alice" || req.Password != "secret" {
		return nil, accountdomain.ErrInvalidCredentials
	}
	return &accountdomain.LoginResult{
		Account:   accountdomain.AccountView{ID: "100", Username: "alice"},
		RawToken:  testToken,
		ExpiresAt: time.Now().Add(time.Hour),
		SessionID: 300,
	}, nil
}

func (f *fakeAccountService) ResolveSession(ctx context.Context, rawToken string) (identity.Identity, error) {
	if rawToken != testToken {
		return identity.Identity{}, accountdomain.ErrInvalidSession
	}
	return identity.Identity{AccountID: 100, Username: "alice", SessionID: 300}, nil
}

func (f *fakeAccountService) Logout(ctx context.Context, rawToken string) error {
	f.loggedOut = append(f.loggedOut, rawToken)
	return nil
}

func (f *fakeAccountService) Delete(ctx context.Context, req accountdomain.DeleteRequest) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, req)
	return nil
}

func (f *fakeAccountService) List(ctx context.Context) ([]accountdomain.AccountView, error) {
	return []accountdomain.AccountView{{ID: "100", Username: "alice", CreatedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)}}, nil
}

type fakeMeasurementService struct {
	items     []measurementdomain.Response
	listErr   error
	createErr error
	updateErr error
	removed   bool

	lastFilter  measurementdomain.Filter
	created     []measurementdomain.CreateRequest
	createdBy   []string
	updated     []measurementdomain.UpdateRequest
	deletedIDs  []string
	importBody  string
	exportCalls int
}

func (f *fakeMeasurementService) Create(ctx context.Context, req measurementdomain.CreateRequest) (*measurementdomain.Response, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	creator := req.CreatedBy
	if creator == "" {
		creator = identity.Creator(ctx, identity.CreatorSystem)
	}
	f.createdBy = append(f.createdBy, creator)
	return &measurementdomain.Response{ID: "1", SensorName: req.SensorName, Value: *req.Value, Unit: req.Unit, CreatedBy: creator}, nil
}

func (f *fakeMeasurementService) CreateBatch(ctx context.Context, req measurementdomain.BatchRequest) ([]measurementdomain.Response, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeMeasurementService) List(ctx context.Context, filter measurementdomain.Filter) ([]measurementdomain.Response, error) {
	f.lastFilter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.items, nil
}

func (f *fakeMeasurementService) Get(ctx context.Context, id string) (*measurementdomain.Response, error) {
	for _, item := range f.items {
		if item.ID == id {
			item := item
			return &item, nil
		}
	}
	return nil, measurementdomain.ErrNotFound
}

func (f *fakeMeasurementService) Update(ctx context.Context, req measurementdomain.UpdateRequest) (*measurementdomain.Response, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updated = append(f.updated, req)
	return &measurementdomain.Response{ID: req.ID, SensorName: req.SensorName}, nil
}

func (f *fakeMeasurementService) Delete(ctx context.Context, id string) (bool, error) {
	f.deletedIDs = append(f.deletedIDs, id)
	return f.removed, nil
}

func (f *fakeMeasurementService) Import(ctx context.Context, r io.Reader) (*measurementdomain.ImportResult, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.importBody = string(body)
	return &measurementdomain.ImportResult{Imported: 2, Errors: []string{"Zeile 3: Messwert ungültig"}}, nil
}

func (f *fakeMeasurementService) Export(ctx context.Context, filter measurementdomain.Filter, format measurementdomain.Format, w io.Writer) error {
	f.exportCalls++
	f.lastFilter = filter
	_, err := fmt.Fprintf(w, "export:%s", format)
	return err
}

type fakeDeviceService struct {
	err error
}

func (f *fakeDeviceService) Import(ctx context.Context) ([]measurementdomain.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []measurementdomain.Response{{ID: "1"}, {ID: "2"}, {ID: "3"}}, nil
}

type testServer struct {
	engine       *gin.Engine
	accounts     *fakeAccountService
	measurements *fakeMeasurementService
	device       *fakeDeviceService
}

func newTestServer(t *testing.T, cfg config.Config) *testServer {
	t.Helper()

	ts := &testServer{
		engine:       NewEngine(observability.Config{Environment: "production"}, nil),
		accounts:     &fakeAccountService{},
		measurements: &fakeMeasurementService{removed: true},
		device:       &fakeDeviceService{},
	}
	NewServer(ServerParams{
		Gin:            ts.engine,
		Cfg:            cfg,
		Log:            zap.NewNop(),
		Sessions:       session.NewManager(session.Params{Cfg: cfg}),
		AccountSvc:     ts.accounts,
		MeasurementSvc: ts.measurements,
		DeviceSvc:      ts.device,
		Clock:          clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
	})
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func postForm(target string, form url.Values, loggedIn bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if loggedIn {
		req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: testToken})
	}
	return req
}

func TestIndexAcceptsLegacyFilterParams(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	ts.measurements.items = []measurementdomain.Response{
		{ID: "7", SensorName: "Temperatur", Value: 21.456, Unit: "°C", Timestamp: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), Location: "Labor", CreatedBy: "alice"},
	}

	w := ts.do(httptest.NewRequest(http.MethodGet, "/?filter_sensor=temp&filter_datum_von=2024-03-01&filter_standort=Lab", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, measurementdomain.Filter{SensorName: "temp", DateFrom: "2024-03-01", Location: "Lab"}, ts.measurements.lastFilter)
	body := w.Body.String()
	assert.Contains(t, body, "21.46")
	assert.Contains(t, body, "01.03.2024 08:00")
	assert.Contains(t, body, "/?export=csv&date_from=2024-03-01&amp;location=Lab&amp;sensor_name=temp")
	assert.NotContains(t, body, "Aktionen")
}

func TestIndexShowsInvalidFilterMessage(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	ts.measurements.listErr = measurementdomain.ErrInvalidFilter

	w := ts.do(httptest.NewRequest(http.MethodGet, "/?date_from=gestern", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `class="message error"`)
	assert.Contains(t, w.Body.String(), "Ungültiger Filter")
}

func TestExportStreamsAttachment(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	w := ts.do(httptest.NewRequest(http.MethodGet, "/?export=json&sensor_name=temp", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="messdaten_export_2024-03-01_12-00-00.json"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "export:json", w.Body.String())
	assert.Equal(t, "temp", ts.measurements.lastFilter.SensorName)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	w := ts.do(httptest.NewRequest(http.MethodGet, "/?export=xml", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), "Unbekanntes Exportformat.")
	assert.Zero(t, ts.measurements.exportCalls)
}

func TestCreateRequiresLogin(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	w := ts.do(postForm("/measurements", url.Values{"sensor_name": {"Temp"}, "value": {"1"}, "unit": {"C"}}, false))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Bitte zuerst anmelden.")
	assert.Empty(t, ts.measurements.created)
}

func TestCreateAsLoggedInUser(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	w := ts.do(postForm("/measurements", url.Values{
		"sensor_name": {"Temperatur"},
		"value":       {"21,5"},
		"unit":        {"°C"},
		"location":    {"Labor"},
	}, true))

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, ts.measurements.created, 1)
	assert.Equal(t, 21.5, *ts.measurements.created[0].Value)
	assert.Equal(t, "alice", ts.measurements.createdBy[0])
	assert.Contains(t, w.Body.String(), `class="message success"`)
	assert.Contains(t, w.Body.String(), "Angemeldet als: <strong>alice</strong>")
}

func TestCreateRejectsUnparsableValue(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	w := ts.do(postForm("/measurements", url.Values{"sensor_name": {"Temp"}, "value": {"warm"}, "unit": {"C"}}, true))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Messwert ist ungültig.")
	assert.Empty(t, ts.measurements.created)
}

func TestUpdateMissingMeasurement(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	ts.measurements.updateErr = measurementdomain.ErrNotFound

	w := ts.do(postForm("/measurements/999", url.Values{
		"sensor_name": {"Temp"},
		"messwert":    {"2"},
		"einheit":     {"C"},
	}, true))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Messdaten nicht gefunden.")
}

func TestDeleteMeasurementPage(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	w := ts.do(postForm("/measurements/42/delete", nil, true))
	assert.Contains(t, w.Body.String(), "Messdaten erfolgreich gelöscht.")
	assert.Equal(t, []string{"42"}, ts.measurements.deletedIDs)

	ts.measurements.removed = false
	w = ts.do(postForm("/measurements/43/delete", nil, true))
	assert.Contains(t, w.Body.String(), "Fehler beim Löschen der Messdaten.")
}

func TestImportUploadReportsRowErrors(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("csv_file", "daten.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("Sensor;Wert;Einheit;Standort\nTemp;1;C;Labor\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/measurements/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := ts.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, ts.measurements.importBody, "Temp;1;C;Labor")
	assert.Contains(t, w.Body.String(), `class="message warning"`)
	assert.Contains(t, w.Body.String(), "CSV Import: 2 Datensätze importiert. Fehler: Zeile 3: Messwert ungültig")
}

func TestImportWithoutFile(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	w := ts.do(postForm("/measurements/import", nil, false))

	assert.Contains(t, w.Body.String(), "Keine CSV-Datei hochgeladen.")
}

func TestFetchDeviceMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"imported", nil, "Tasmota-Daten importiert."},
		{"unreachable", fmt.Errorf("%w: dial tcp", devicedomain.ErrConnectivity), "Verbindung zum ESP32 fehlgeschlagen."},
		{"no data", devicedomain.ErrSensorDataMissing, "Keine BME280-Daten gefunden."},
		{"busy", devicedomain.ErrPollInProgress, "Tasmota-Abruf läuft bereits."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t, config.Config{})
			ts.device.err = tc.err

			w := ts.do(postForm("/device/fetch", nil, true))

			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), tc.want)
		})
	}
}

func TestIngest(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	w := ts.do(postForm("/ingest", url.Values{"sensor": {"Temp"}, "unit": {"C"}}, false))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Fehlende Parameter", w.Body.String())

	w = ts.do(postForm("/ingest", url.Values{
		"sensor":   {"Temp"},
		"value":    {"22.5"},
		"unit":     {"C"},
		"location": {"Keller"},
	}, false))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	require.Len(t, ts.measurements.created, 1)
	assert.Equal(t, identity.CreatorDevice, ts.measurements.createdBy[0])
	assert.Equal(t, "Keller", ts.measurements.created[0].Location)
}

func TestIngestReadsValuesLikeImport(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	cases := []struct {
		raw  string
		want float64
	}{
		{"21,5", 21.5},
		{"1013.2hPa", 1013.2},
		{"n/a", 0},
	}
	for _, tc := range cases {
		w := ts.do(postForm("/ingest", url.Values{"sensor": {"Temp"}, "value": {tc.raw}, "unit": {"C"}}, false))
		assert.Equal(t, http.StatusOK, w.Code, tc.raw)
		assert.Equal(t, "OK", w.Body.String(), tc.raw)
	}

	require.Len(t, ts.measurements.created, len(cases))
	for i, tc := range cases {
		assert.Equal(t, tc.want, *ts.measurements.created[i].Value, tc.raw)
	}
}

func TestIngestRejectsValidationFailure(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	ts.measurements.createErr = measurementdomain.ErrInvalidUnit

	w := ts.do(postForm("/ingest", url.Values{"sensor": {"Temp"}, "value": {"1"}, "unit": {"C"}}, false))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestToken(t *testing.T) {
	ts := newTestServer(t, config.Config{Ingest: config.IngestConfig{Token: "device-secret"}})
	form := url.Values{"sensor": {"Temp"}, "value": {"1"}, "unit": {"C"}}

	w := ts.do(postForm("/ingest", form, false))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := postForm("/ingest", form, false)
	req.Header.Set("Authorization", "Bearer device-secret")
	w = ts.do(req)
	assert.Equal(t, http.StatusOK, w.Code)

	form.Set("token", "device-secret")
	w = ts.do(postForm("/ingest", form, false))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginSetsSessionCookie(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	w := ts.do(postForm("/accounts/login", url.Values{"username": {"alice"}, "password": {"secret"}}, false))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Erfolgreich angemeldet als &#39;alice&#39;.")
	assert.Contains(t, w.Body.String(), "Angemeldet als: <strong>alice</strong>")
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, session.DefaultCookieName, cookies[0].Name)
	assert.Equal(t, testToken, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLoginFailure(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	w := ts.do(postForm("/accounts/login", url.Values{"username": {"alice"}, "password": {"wrong"}}, false))

	assert.Contains(t, w.Body.String(), "Anmeldung fehlgeschlagen. Benutzername oder Passwort falsch.")
	assert.Empty(t, w.Result().Cookies())
}

func TestLogoutRevokesSession(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	w := ts.do(postForm("/accounts/logout", nil, true))

	assert.Equal(t, []string{testToken}, ts.accounts.loggedOut)
	assert.Contains(t, w.Body.String(), `class="message info"`)
	assert.NotContains(t, w.Body.String(), "Angemeldet als: <strong>")
}

func TestRegisterAndDeleteMessages(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	w := ts.do(postForm("/accounts/register", url.Values{"username": {" bob "}, "password": {"pw"}}, false))
	assert.Contains(t, w.Body.String(), "Benutzer &#39;bob&#39; erfolgreich registriert.")

	ts.accounts.registerErr = accountdomain.ErrDuplicateUsername
	w = ts.do(postForm("/accounts/register", url.Values{"username": {"bob"}, "password": {"pw"}}, false))
	assert.Contains(t, w.Body.String(), "Fehler beim Registrieren. Benutzername bereits vorhanden?")

	ts.accounts.deleteErr = accountdomain.ErrInvalidCredentials
	w = ts.do(postForm("/accounts/delete", url.Values{"username": {"bob"}, "password": {"nope"}}, false))
	assert.Contains(t, w.Body.String(), "Fehler beim Löschen. Benutzername oder Passwort falsch.")
}

func TestDeletingOwnAccountEndsSession(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	w := ts.do(postForm("/accounts/delete", url.Values{"username": {"alice"}, "password": {"secret"}}, true))

	assert.Contains(t, w.Body.String(), "Benutzer &#39;alice&#39; erfolgreich gelöscht.")
	assert.NotContains(t, w.Body.String(), "Angemeldet als: <strong>")
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "", cookies[0].Value)
}

func TestInvalidSessionCookieIsCleared(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "stale"})
	w := ts.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.True(t, cookies[0].MaxAge < 0)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestAPIRequiresSession(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/measurements", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decodeError(t, w).Type)
}

func TestAPIMeasurements(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	ts.measurements.items = []measurementdomain.Response{{ID: "5", SensorName: "Temperatur", Value: 20}}

	req := httptest.NewRequest(http.MethodGet, "/api/measurements?sensor_name=temp", nil)
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: testToken})
	w := ts.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "temp", ts.measurements.lastFilter.SensorName)
	assert.Contains(t, w.Body.String(), `"sensor_name":"Temperatur"`)

	req = httptest.NewRequest(http.MethodGet, "/api/measurements/404", nil)
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: testToken})
	w = ts.do(req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	ts.measurements.createErr = measurementdomain.ErrInvalidSensorName
	req = httptest.NewRequest(http.MethodPost, "/api/measurements", strings.NewReader(`{"sensor_name":"","value":1,"unit":"C"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: testToken})
	w = ts.do(req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	payload := decodeError(t, w)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_sensor_name", payload.Errors[0].Code)
	assert.Equal(t, "sensor_name", payload.Errors[0].Field)

	ts.measurements.removed = false
	req = httptest.NewRequest(http.MethodDelete, "/api/measurements/5", nil)
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: testToken})
	w = ts.do(req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		typ    string
	}{
		{measurementdomain.ErrInvalidValue, http.StatusBadRequest, "validation_error"},
		{measurementdomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{accountdomain.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
		{accountdomain.ErrDuplicateUsername, http.StatusConflict, "conflict"},
		{fmt.Errorf("%w: timeout", devicedomain.ErrConnectivity), http.StatusBadGateway, "device_unreachable"},
		{ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{errors.New("database is locked"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		status, payload := mapError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.typ, payload.Type, tc.err.Error())
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Equal(t, "", bearerToken("Basic abc"))
	assert.Equal(t, "", bearerToken(""))
}
