package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"petconnect/internal/adapters/auth/jwtauth"
	"petconnect/internal/ports/geocode"

	"github.com/gorilla/websocket"
)

type stubGeocoder struct {
	places []geocode.Place
	err    error
}

func (s *stubGeocoder) Search(ctx context.Context, query string) ([]geocode.Place, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.places, nil
}

func newTestServer(t *testing.T, geocoder geocode.Geocoder) *httptest.Server {
	t.Helper()

	// Sin secret ni DSN: modo dev (X-Debug-User-ID) y repos en memoria.
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DSN", "")

	if geocoder == nil {
		geocoder = &stubGeocoder{err: geocode.ErrNoResults}
	}

	srv := httptest.NewServer(NewRouter(Options{
		TokenIssuer: jwtauth.NewIssuer("test-secret", time.Hour),
		Geocoder:    geocoder,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, userID string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-Debug-User-ID", userID)
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	return resp, out.Bytes()
}

func decode(t *testing.T, raw []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if string(body) != "ok" {
		t.Fatalf("expected ok, got %q", body)
	}
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t, nil)

	signup := map[string]string{"email": "ana@example.com", "password": "secret1", "username": "ana"}
	resp, body := doJSON(t, srv, http.MethodPost, "/auth/signup", "", signup)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d (%s)", resp.StatusCode, body)
	}

	var session struct {
		Token string `json:"token"`
		User  struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
	}
	decode(t, body, &session)
	if session.Token == "" || session.User.ID == "" {
		t.Fatalf("incomplete session: %s", body)
	}

	resp, _ = doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]string{"email": "ana@example.com", "password": "secret1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]string{"email": "ana@example.com", "password": "mala"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, srv, http.MethodPost, "/auth/logout", session.User.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", resp.StatusCode)
	}

	resp, body = doJSON(t, srv, http.MethodGet, "/me", session.User.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", resp.StatusCode)
	}
	var me struct {
		Username string `json:"username"`
	}
	decode(t, body, &me)
	if me.Username != "ana" {
		t.Fatalf("expected username ana, got %q", me.Username)
	}
}

func TestPetsCRUD(t *testing.T) {
	srv := newTestServer(t, nil)

	create := map[string]any{
		"name": "Rocky", "type": "dog", "breed": "boxer",
		"age": 3, "gender": "male", "spayed_neutered": true,
		"temperament_tags": []string{"playful"},
	}
	resp, body := doJSON(t, srv, http.MethodPost, "/pets", "owner-1", create)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", resp.StatusCode, body)
	}
	var pet struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	decode(t, body, &pet)

	resp, body = doJSON(t, srv, http.MethodGet, "/pets", "owner-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", resp.StatusCode)
	}
	var list []json.RawMessage
	decode(t, body, &list)
	if len(list) != 1 {
		t.Fatalf("expected 1 pet, got %d", len(list))
	}

	resp, body = doJSON(t, srv, http.MethodPatch, "/pets/"+pet.ID, "owner-1", map[string]any{"name": "Max"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d (%s)", resp.StatusCode, body)
	}

	// Otro usuario no puede tocar el perfil.
	resp, _ = doJSON(t, srv, http.MethodPatch, "/pets/"+pet.ID, "intruso", map[string]any{"name": "X"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("patch by stranger: expected 403, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, srv, http.MethodDelete, "/pets/"+pet.ID, "owner-1", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
}

func TestPetPhotoUpload(t *testing.T) {
	srv := newTestServer(t, nil)
	uid := "owner-1"

	resp, body := doJSON(t, srv, http.MethodPost, "/pets", uid, map[string]any{
		"name": "Rocky", "type": "dog", "breed": "boxer", "age": 3, "gender": "male",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("pet create: got %d", resp.StatusCode)
	}
	var pet struct {
		ID string `json:"id"`
	}
	decode(t, body, &pet)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photo", "rocky.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("fake-jpeg-bytes")); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/pets/"+pet.ID+"/photo", &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Debug-User-ID", uid)

	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d", res.StatusCode)
	}

	var updated struct {
		PhotoURL string `json:"photo_url"`
	}
	if err := json.NewDecoder(res.Body).Decode(&updated); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(updated.PhotoURL, "users/"+uid+"/pet_photos/Rocky_") {
		t.Fatalf("unexpected photo url %q", updated.PhotoURL)
	}
}

func TestPostsRequireProfileAndPet(t *testing.T) {
	srv := newTestServer(t, nil)

	// Usuario real con username (vía signup) pero sin mascota.
	resp, body := doJSON(t, srv, http.MethodPost, "/auth/signup", "", map[string]string{
		"email": "ana@example.com", "password": "secret1", "username": "ana",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup: got %d", resp.StatusCode)
	}
	var session struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decode(t, body, &session)
	uid := session.User.ID

	resp, _ = doJSON(t, srv, http.MethodPost, "/posts", uid, map[string]string{"content": "hola"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("post without pet: expected 400, got %d", resp.StatusCode)
	}

	// Con mascota ya puede publicar y el snapshot viaja en el post.
	resp, _ = doJSON(t, srv, http.MethodPost, "/pets", uid, map[string]any{
		"name": "Rocky", "type": "dog", "breed": "boxer", "age": 3, "gender": "male",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("pet create: got %d", resp.StatusCode)
	}

	resp, body = doJSON(t, srv, http.MethodPost, "/posts", uid, map[string]string{"content": "paseo en el parque"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("post: expected 201, got %d (%s)", resp.StatusCode, body)
	}
	var post struct {
		AuthorName string `json:"author_name"`
		PetName    string `json:"pet_name"`
		PetType    string `json:"pet_type"`
	}
	decode(t, body, &post)
	if post.AuthorName != "ana" || post.PetName != "Rocky" || post.PetType != "dog" {
		t.Fatalf("unexpected snapshot: %+v", post)
	}

	resp, body = doJSON(t, srv, http.MethodGet, "/posts?limit=10", uid, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: got %d", resp.StatusCode)
	}
	var posts []json.RawMessage
	decode(t, body, &posts)
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
}

func TestDistressFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	uid := "user-1"

	// Sin confirmación explícita no hay alerta.
	resp, _ := doJSON(t, srv, http.MethodPost, "/distress/start", uid, map[string]bool{"confirm": false})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unconfirmed start: expected 400, got %d", resp.StatusCode)
	}

	// El device reporta permiso antes de arrancar.
	resp, _ = doJSON(t, srv, http.MethodPost, "/device/permission", uid, map[string]bool{"granted": true})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("permission: expected 204, got %d", resp.StatusCode)
	}

	resp, body := doJSON(t, srv, http.MethodPost, "/distress/start", uid, map[string]bool{"confirm": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: expected 200, got %d (%s)", resp.StatusCode, body)
	}
	var started struct {
		Session struct {
			Active  bool   `json:"active"`
			Elapsed string `json:"elapsed"`
		} `json:"session"`
		Handoff struct {
			DistressActive string `json:"distress_active"`
			MapPath        string `json:"map_path"`
		} `json:"handoff"`
	}
	decode(t, body, &started)
	if !started.Session.Active || started.Session.Elapsed != "00:00" {
		t.Fatalf("unexpected session: %+v", started.Session)
	}
	if started.Handoff.DistressActive != "true" || !strings.Contains(started.Handoff.MapPath, "distress_active=true") {
		t.Fatalf("unexpected handoff: %+v", started.Handoff)
	}

	// Un fix del device aparece como last known position.
	resp, _ = doJSON(t, srv, http.MethodPost, "/device/location", uid, map[string]float64{"latitude": -12.05, "longitude": -77.03})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("report: expected 202, got %d", resp.StatusCode)
	}

	resp, body = doJSON(t, srv, http.MethodGet, "/distress", uid, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("snapshot: expected 200, got %d", resp.StatusCode)
	}
	var snap struct {
		Active            bool `json:"active"`
		LastKnownPosition *struct {
			Latitude float64 `json:"latitude"`
		} `json:"last_known_position"`
	}
	decode(t, body, &snap)
	if !snap.Active {
		t.Fatal("expected active")
	}
	if snap.LastKnownPosition == nil || snap.LastKnownPosition.Latitude != -12.05 {
		t.Fatalf("expected last known position, got %s", body)
	}

	// Stop confirmado vuelve a Idle; repetirlo es inocuo.
	for i := 0; i < 2; i++ {
		resp, body = doJSON(t, srv, http.MethodPost, "/distress/stop", uid, map[string]bool{"confirm": true})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("stop %d: expected 200, got %d", i, resp.StatusCode)
		}
		var stopped struct {
			Active  bool   `json:"active"`
			Elapsed string `json:"elapsed"`
		}
		decode(t, body, &stopped)
		if stopped.Active || stopped.Elapsed != "00:00" {
			t.Fatalf("stop %d: expected idle 00:00, got %s", i, body)
		}
	}
}

func TestDistressRequiresAuth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, _ := doJSON(t, srv, http.MethodGet, "/distress", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestDistressLiveStream(t *testing.T) {
	srv := newTestServer(t, nil)
	uid := "user-1"

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/distress/live"
	header := http.Header{"X-Debug-User-ID": []string{uid}}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	var snap struct {
		Active  bool   `json:"active"`
		Elapsed string `json:"elapsed"`
	}

	// Primero llega el estado actual (Idle).
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Active {
		t.Fatal("expected initial idle snapshot")
	}

	resp, _ := doJSON(t, srv, http.MethodPost, "/distress/start", uid, map[string]bool{"confirm": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: got %d", resp.StatusCode)
	}

	// La activación llega por el stream sin pedir nada.
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatal(err)
	}
	if !snap.Active {
		t.Fatal("expected active snapshot after start")
	}
}

func TestTokenAuthEndToEnd(t *testing.T) {
	// Con JWT_SECRET el router emite y verifica tokens reales; el header
	// de dev deja de valer.
	t.Setenv("JWT_SECRET", "e2e-secret")
	t.Setenv("DB_DSN", "")

	srv := httptest.NewServer(NewRouter(Options{
		Geocoder: &stubGeocoder{err: geocode.ErrNoResults},
	}))
	t.Cleanup(srv.Close)

	resp, body := doJSON(t, srv, http.MethodPost, "/auth/signup", "", map[string]string{
		"email": "ana@example.com", "password": "secret1", "username": "ana",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup: got %d (%s)", resp.StatusCode, body)
	}
	var session struct {
		Token string `json:"token"`
	}
	decode(t, body, &session)
	if session.Token == "" {
		t.Fatal("expected a token")
	}

	// Sin token no hay identidad.
	resp, _ = doJSON(t, srv, http.MethodGet, "/me", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me without token: expected 401, got %d", resp.StatusCode)
	}

	// El header de dev se ignora en modo verifier.
	resp, _ = doJSON(t, srv, http.MethodGet, "/me", "cualquiera", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me with debug header: expected 401, got %d", resp.StatusCode)
	}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/me", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+session.Token)
	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("me with bearer: expected 200, got %d", res.StatusCode)
	}
	var me struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(res.Body).Decode(&me); err != nil {
		t.Fatal(err)
	}
	if me.Username != "ana" {
		t.Fatalf("expected username ana, got %q", me.Username)
	}

	// Los websockets autentican por query param (no pueden setear headers).
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/distress/live?access_token=" + session.Token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	var snap struct {
		Active bool `json:"active"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Active {
		t.Fatal("expected initial idle snapshot")
	}

	// Token inválido por query param: el upgrade ni empieza.
	badURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/distress/live?access_token=forged"
	if _, res, err := websocket.DefaultDialer.Dial(badURL, nil); err == nil {
		t.Fatal("expected dial to fail with a forged token")
	} else if res != nil && res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.StatusCode)
	}
}

func TestMapState(t *testing.T) {
	srv := newTestServer(t, nil)
	uid := "user-1"

	// Sin permiso: región default y sin user_location.
	resp, body := doJSON(t, srv, http.MethodGet, "/map", uid, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var state struct {
		Region struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"region"`
		UserLocation   *struct{} `json:"user_location"`
		DistressActive bool      `json:"distress_active"`
	}
	decode(t, body, &state)
	if state.Region.Latitude != 37.78825 {
		t.Fatalf("expected default region, got %+v", state.Region)
	}
	if state.UserLocation != nil {
		t.Fatal("expected no user location without permission")
	}
	if state.DistressActive {
		t.Fatal("expected distress flag off without handoff param")
	}

	// El handoff param siembra el flag.
	resp, body = doJSON(t, srv, http.MethodGet, "/map?distress_active=true", uid, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	decode(t, body, &state)
	if !state.DistressActive {
		t.Fatal("expected distress flag seeded from query param")
	}

	// Con permiso y fix, la región se centra en el usuario.
	doJSON(t, srv, http.MethodPost, "/device/permission", uid, map[string]bool{"granted": true})
	doJSON(t, srv, http.MethodPost, "/device/location", uid, map[string]float64{"latitude": -12.05, "longitude": -77.03})

	resp, body = doJSON(t, srv, http.MethodGet, "/map", uid, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	decode(t, body, &state)
	if state.Region.Latitude != -12.05 || state.Region.Longitude != -77.03 {
		t.Fatalf("expected region centered on fix, got %+v", state.Region)
	}
}

func TestMapSearch(t *testing.T) {
	found := &stubGeocoder{places: []geocode.Place{
		{Latitude: -12.1211, Longitude: -77.0297, Label: "Parque Kennedy, Miraflores"},
		{Latitude: -12.2, Longitude: -77.1, Label: "Otro"},
	}}
	srv := newTestServer(t, found)
	uid := "user-1"

	resp, body := doJSON(t, srv, http.MethodGet, "/map/search?q=parque+kennedy", uid, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.StatusCode, body)
	}
	var result struct {
		Label  string `json:"label"`
		Marker struct {
			Latitude float64 `json:"latitude"`
		} `json:"marker"`
	}
	decode(t, body, &result)
	// Primer resultado = mejor match.
	if result.Label != "Parque Kennedy, Miraflores" || result.Marker.Latitude != -12.1211 {
		t.Fatalf("unexpected result: %s", body)
	}

	resp, _ = doJSON(t, srv, http.MethodGet, "/map/search", uid, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing q: expected 400, got %d", resp.StatusCode)
	}
}

func TestMapSearchNotFound(t *testing.T) {
	srv := newTestServer(t, &stubGeocoder{err: geocode.ErrNoResults})

	resp, _ := doJSON(t, srv, http.MethodGet, "/map/search?q=xyzzy", "user-1", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
