package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"syncboard/database"
	"syncboard/models"
	"syncboard/services"
	"syncboard/utilities"
)

func init() {
	utilities.SetOutput(io.Discard)
}

type fakeVerifier struct {
	verify func(ctx context.Context, token string) (*models.Principal, error)
}

func (f *fakeVerifier) VerifyIDToken(ctx context.Context, token string) (*models.Principal, error) {
	return f.verify(ctx, token)
}

type testServer struct {
	router *mux.Router
	store  *database.MemoryStore
	blobs  *database.MemoryBlobStore
}

func newTestServer(t *testing.T, verifier TokenVerifier) *testServer {
	t.Helper()
	ctx := context.Background()
	store := database.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	if err := store.ProvisionCounter(ctx, models.CounterID, 0, false); err != nil {
		t.Fatalf("provision: %v", err)
	}
	for _, u := range []models.User{
		{ID: "ana@example.com", Email: "ana@example.com", Name: "Ana"},
		{ID: "admin@example.com", Email: "admin@example.com", Name: "Admin", IsAdmin: true},
	} {
		u := u
		if err := store.PutUser(ctx, &u); err != nil {
			t.Fatalf("put user: %v", err)
		}
	}

	blobs := database.NewMemoryBlobStore("http://blobs.local")
	h := New(Deps{
		Tasks:         services.NewTaskService(store, nil, nil),
		Users:         services.NewUserService(store, "travelcash_user"),
		Notifications: services.NewNotificationService(store),
		Attachments:   services.NewAttachmentService(blobs),
		Verifier:      verifier,
	})
	r := mux.NewRouter()
	r.Use(LoggingMiddleware)
	h.Register(r)
	return &testServer{router: r, store: store, blobs: blobs}
}

func principalHeader(email string, roles ...string) string {
	p := &models.Principal{UserDetails: email, UserRoles: append([]string{"authenticated"}, roles...)}
	return p.Encode()
}

func (s *testServer) do(t *testing.T, method, path, email, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if email != "" {
		req.Header.Set(PrincipalHeader, principalHeader(email, "travelcash_user"))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeTask(t *testing.T, rec *httptest.ResponseRecorder) *models.Task {
	t.Helper()
	var task models.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatalf("decodificar tarefa: %v (%s)", err, rec.Body.String())
	}
	return &task
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/tasks", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("sem principal esperado 401, veio %d", rec.Code)
	}

	// fora da whitelist e sem a role da aplicação
	req := httptest.NewRequest("GET", "/tasks", nil)
	req.Header.Set(PrincipalHeader, principalHeader("estranho@example.com"))
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("fora da whitelist esperado 403, veio %d", rec.Code)
	}

	// na whitelist: a role é completada pelo banco
	req = httptest.NewRequest("GET", "/tasks", nil)
	req.Header.Set(PrincipalHeader, principalHeader("ana@example.com"))
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("usuário da whitelist esperado 200, veio %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest("GET", "/tasks", nil)
	req.Header.Set(PrincipalHeader, "%%%")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("header inválido esperado 401, veio %d", rec.Code)
	}
}

func TestBearerToken(t *testing.T) {
	verifier := &fakeVerifier{verify: func(_ context.Context, token string) (*models.Principal, error) {
		if token != "bom" {
			return nil, errors.New("token inválido")
		}
		return &models.Principal{UserDetails: "ana@example.com", UserRoles: []string{"authenticated"}}, nil
	}}
	s := newTestServer(t, verifier)

	for token, want := range map[string]int{"bom": http.StatusOK, "ruim": http.StatusUnauthorized} {
		req := httptest.NewRequest("GET", "/notifications", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("token %q: esperado %d, veio %d", token, want, rec.Code)
		}
	}
}

func TestTaskLifecycleRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	const user = "ana@example.com"

	rec := s.do(t, "POST", "/tasks", user, `{"title":"Fix bug","description":"desc","responsible":[]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create esperado 201, veio %d: %s", rec.Code, rec.Body.String())
	}
	task := decodeTask(t, rec)
	if task.ID != "TC-001" || task.Status != models.StatusTodo || len(task.History) != 1 {
		t.Fatalf("tarefa criada inesperada: %+v", task)
	}

	rec = s.do(t, "GET", "/tasks/"+task.ID, user, "")
	if rec.Code != http.StatusOK || decodeTask(t, rec).Title != "Fix bug" {
		t.Fatalf("get esperado 200, veio %d", rec.Code)
	}

	rec = s.do(t, "PUT", "/tasks/"+task.ID, user, `{"status":"done"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update esperado 200, veio %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeTask(t, rec)

	// /tasks/archived não pode cair na rota /tasks/{id}
	rec = s.do(t, "GET", "/tasks/archived", user, "")
	var archived []models.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &archived); err != nil || len(archived) != 1 || archived[0].ID != task.ID {
		t.Fatalf("arquivadas inesperadas: %d %s", rec.Code, rec.Body.String())
	}

	stale := `{"priority":"Urgente","version":` + jsonInt(updated.Version-1) + `}`
	if rec = s.do(t, "PUT", "/tasks/"+task.ID, user, stale); rec.Code != http.StatusConflict {
		t.Fatalf("versão antiga esperado 409, veio %d", rec.Code)
	}

	if rec = s.do(t, "POST", "/tasks/"+task.ID+"/signal", user, ""); rec.Code != http.StatusBadRequest ||
		!strings.Contains(rec.Body.String(), "não tem responsáveis") {
		t.Fatalf("sinalizar sem responsáveis esperado 400, veio %d: %s", rec.Code, rec.Body.String())
	}

	if rec = s.do(t, "PUT", "/tasks/"+task.ID, user, `{nada`); rec.Code != http.StatusBadRequest {
		t.Fatalf("corpo inválido esperado 400, veio %d", rec.Code)
	}

	if rec = s.do(t, "DELETE", "/tasks/"+task.ID, user, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete esperado 204, veio %d", rec.Code)
	}
	for i := 0; i < 2; i++ {
		if rec = s.do(t, "DELETE", "/tasks/"+task.ID, user, ""); rec.Code != http.StatusNotFound {
			t.Fatalf("delete repetido %d esperado 404, veio %d", i, rec.Code)
		}
	}
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestCommentAndReorderRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	const user = "ana@example.com"

	a := decodeTask(t, s.do(t, "POST", "/tasks", user, `{"title":"A","description":"d","responsible":[]}`))
	b := decodeTask(t, s.do(t, "POST", "/tasks", user, `{"title":"B","description":"d","responsible":[]}`))

	rec := s.do(t, "POST", "/tasks/"+a.ID+"/comments", user, `{"text":"olá"}`)
	withComment := decodeTask(t, rec)
	if rec.Code != http.StatusOK || len(withComment.Comments) != 1 || withComment.Comments[0].ID == "" {
		t.Fatalf("comentário inesperado: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, "DELETE", "/tasks/"+a.ID+"/comments", user, `{"commentId":"`+withComment.Comments[0].ID+`"}`)
	if rec.Code != http.StatusOK || len(decodeTask(t, rec).Comments) != 0 {
		t.Fatalf("remover comentário: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, "POST", "/tasks/reorder", user, `[{"id":"`+b.ID+`","order":0},{"id":"`+a.ID+`","order":1}]`)
	if rec.Code != http.StatusOK {
		t.Fatalf("reorder esperado 200, veio %d: %s", rec.Code, rec.Body.String())
	}
	got, _ := s.store.GetTask(context.Background(), b.ID)
	if got.Order != 0 {
		t.Fatalf("ordem de B deveria ser 0, veio %v", got.Order)
	}

	if rec = s.do(t, "POST", "/projects/color", user, `{"projectName":"Geral"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("cor sem valor esperado 400, veio %d", rec.Code)
	}
	if rec = s.do(t, "POST", "/projects/color", user, `{"projectName":"Geral","newColor":"#000000"}`); rec.Code != http.StatusOK {
		t.Fatalf("cor do projeto esperado 200, veio %d", rec.Code)
	}
}

func TestUserRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, "GET", "/users", "ana@example.com", "")
	var users []models.User
	if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil || len(users) != 3 {
		t.Fatalf("esperados 2 usuários e o placeholder, veio %s", rec.Body.String())
	}

	body := `{"name":"Bia","email":"bia@example.com"}`
	if rec = s.do(t, "POST", "/users", "ana@example.com", body); rec.Code != http.StatusForbidden {
		t.Fatalf("não admin esperado 403, veio %d", rec.Code)
	}

	req := httptest.NewRequest("POST", "/users", strings.NewReader(body))
	req.Header.Set(PrincipalHeader, principalHeader("admin@example.com", "travelcash_user", "admin"))
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin esperado 201, veio %d: %s", rec.Code, rec.Body.String())
	}

	if rec = s.do(t, "POST", "/users/photo", "ana@example.com", `{"pictureUrl":""}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("foto vazia esperado 400, veio %d", rec.Code)
	}
	if rec = s.do(t, "POST", "/users/photo", "ana@example.com", `{"pictureUrl":"http://img/ana.png"}`); rec.Code != http.StatusOK {
		t.Fatalf("foto esperado 200, veio %d", rec.Code)
	}
	if u, _ := s.store.GetUser(context.Background(), "ana@example.com"); u.Picture != "http://img/ana.png" {
		t.Fatalf("foto não gravada: %+v", u)
	}
}

func TestDeclaredRolesAreIgnored(t *testing.T) {
	s := newTestServer(t, nil)
	body := `{"name":"Eve","email":"eve@example.com","isAdmin":true}`

	// fora da whitelist, mas declarando a role da aplicação e admin
	req := httptest.NewRequest("POST", "/users", strings.NewReader(body))
	req.Header.Set(PrincipalHeader, principalHeader("intruso@example.com", "travelcash_user", "admin"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("intruso esperado 403, veio %d: %s", rec.Code, rec.Body.String())
	}

	// membro comum declarando admin
	req = httptest.NewRequest("POST", "/users", strings.NewReader(body))
	req.Header.Set(PrincipalHeader, principalHeader("ana@example.com", "travelcash_user", "admin"))
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("membro não admin esperado 403, veio %d", rec.Code)
	}

	if _, err := s.store.GetUser(context.Background(), "eve@example.com"); err == nil {
		t.Fatalf("usuário não deveria ter sido criado")
	}
}

func TestRolesRoute(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name  string
		body  string
		roles []string
	}{
		{"admin", `{"userDetails":"admin@example.com","userRoles":["anonymous"]}`, []string{"authenticated", "travelcash_user", "admin"}},
		{"membro", `{"userDetails":"ana@example.com"}`, []string{"authenticated", "travelcash_user"}},
		{"desconhecido", `{"userDetails":"x@example.com"}`, []string{"authenticated"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, httptest.NewRequest("POST", "/roles", strings.NewReader(tt.body)))
			var resp services.RolesResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decodificar: %v", err)
			}
			if strings.Join(resp.Roles, ",") != strings.Join(tt.roles, ",") {
				t.Fatalf("roles: esperado %v, veio %v", tt.roles, resp.Roles)
			}
		})
	}
}

func TestNotificationRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	if err := s.store.CreateNotification(ctx, &models.Notification{ID: "n1", TargetUserEmail: "ana@example.com", Type: models.NotificationMention}); err != nil {
		t.Fatalf("add notification: %v", err)
	}

	rec := s.do(t, "GET", "/notifications", "ana@example.com", "")
	var list []models.Notification
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Fatalf("notificações inesperadas: %s", rec.Body.String())
	}

	if rec = s.do(t, "POST", "/notifications/read", "ana@example.com", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("sem id esperado 400, veio %d", rec.Code)
	}
	if rec = s.do(t, "POST", "/notifications/read", "ana@example.com", `{"id":"n1"}`); rec.Code != http.StatusOK {
		t.Fatalf("marcar lida esperado 200, veio %d", rec.Code)
	}
	list, _ = s.store.ListNotifications(ctx, "ana@example.com")
	if len(list) != 1 || !list[0].IsRead {
		t.Fatalf("notificação deveria estar lida: %+v", list)
	}
}

func TestAttachmentRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "relatorio.txt")
	fw.Write([]byte("conteúdo"))
	mw.Close()

	req := httptest.NewRequest("POST", "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(PrincipalHeader, principalHeader("ana@example.com", "travelcash_user"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload esperado 200, veio %d: %s", rec.Code, rec.Body.String())
	}
	var att models.Attachment
	if err := json.Unmarshal(rec.Body.Bytes(), &att); err != nil {
		t.Fatalf("decodificar anexo: %v", err)
	}
	if !strings.HasSuffix(att.Name, "-relatorio.txt") || !strings.HasPrefix(att.URL, "http://blobs.local/") {
		t.Fatalf("anexo inesperado: %+v", att)
	}
	if data, _, ok := s.blobs.Get(att.Name); !ok || string(data) != "conteúdo" {
		t.Fatalf("blob não gravado")
	}

	if rec = s.do(t, "POST", "/attachments", "ana@example.com", "texto"); rec.Code != http.StatusBadRequest {
		t.Fatalf("sem multipart esperado 400, veio %d", rec.Code)
	}

	for i := 0; i < 2; i++ {
		if rec = s.do(t, "DELETE", "/attachments/"+att.Name, "ana@example.com", ""); rec.Code != http.StatusOK {
			t.Fatalf("delete %d esperado 200, veio %d", i, rec.Code)
		}
	}
}

func uploadRequest(t *testing.T, filename string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	fw.Write([]byte("x"))
	mw.Close()

	req := httptest.NewRequest("POST", "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(PrincipalHeader, principalHeader("ana@example.com", "travelcash_user"))
	return req
}

func TestAttachmentUploadErrors(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, uploadRequest(t, "."))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("nome inválido esperado 400, veio %d: %s", rec.Code, rec.Body.String())
	}

	// sem BLOB_STORE
	h := New(Deps{
		Tasks:       services.NewTaskService(s.store, nil, nil),
		Users:       services.NewUserService(s.store, "travelcash_user"),
		Attachments: services.NewAttachmentService(nil),
	})
	r := mux.NewRouter()
	h.Register(r)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, uploadRequest(t, "a.txt"))
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "não configurado") {
		t.Fatalf("esperado 500 de anexos não configurados, veio %d: %s", rec.Code, rec.Body.String())
	}
}

func TestImproveTitleWithoutKey(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, "POST", "/ai/improve-title", "ana@example.com", `{"currentTitle":"Refatorar JWT"}`)
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "API Key da IA não configurada.") {
		t.Fatalf("sem chave esperado 500, veio %d: %s", rec.Code, rec.Body.String())
	}
}
