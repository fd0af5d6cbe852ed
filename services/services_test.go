package services

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"syncboard/database"
	"syncboard/models"
)

type published struct {
	event string
	args  []interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(event string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{event: event, args: args})
}

func (p *recordingPublisher) last() published {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return published{}
	}
	return p.events[len(p.events)-1]
}

// fakeChat registra as chamadas ao chat; campos nil são ignorados.
type fakeChat struct {
	created  func(actor string, task *models.Task)
	status   func(task *models.Task, status string)
	comment  func(actor string, task *models.Task, c models.Comment)
	signaled func(actor string, task *models.Task, names []string)
	digest   func(tasks []*models.Task)
}

func (f *fakeChat) TaskCreated(actor string, task *models.Task) {
	if f.created != nil {
		f.created(actor, task)
	}
}

func (f *fakeChat) StatusChanged(task *models.Task, status string) {
	if f.status != nil {
		f.status(task, status)
	}
}

func (f *fakeChat) CommentAdded(actor string, task *models.Task, c models.Comment) {
	if f.comment != nil {
		f.comment(actor, task, c)
	}
}

func (f *fakeChat) TaskSignaled(actor string, task *models.Task, names []string) {
	if f.signaled != nil {
		f.signaled(actor, task, names)
	}
}

func (f *fakeChat) OverdueDigest(tasks []*models.Task) {
	if f.digest != nil {
		f.digest(tasks)
	}
}

type testEnv struct {
	store  *database.MemoryStore
	events *recordingPublisher
	chat   *fakeChat
	tasks  *TaskService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := database.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	if err := store.ProvisionCounter(context.Background(), models.CounterID, 0, false); err != nil {
		t.Fatalf("provision counter: %v", err)
	}
	env := &testEnv{store: store, events: &recordingPublisher{}, chat: &fakeChat{}}
	env.tasks = NewTaskService(store, env.events, env.chat)
	return env
}

var joao = Actor{Login: "joao@example.com", UserID: "u-1", Name: "João"}

func createTask(t *testing.T, env *testEnv, title string, responsible ...models.Person) *models.Task {
	t.Helper()
	if responsible == nil {
		responsible = []models.Person{}
	}
	task, err := env.tasks.Create(context.Background(), CreateInput{
		Title:       title,
		Description: "desc",
		Responsible: responsible,
	}, joao, SourceAPI)
	if err != nil {
		t.Fatalf("create %q: %v", title, err)
	}
	return task
}

func update(t *testing.T, env *testEnv, id, payload string) (*models.Task, error) {
	t.Helper()
	var p map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		t.Fatalf("payload inválido %s: %v", payload, err)
	}
	return env.tasks.Update(context.Background(), id, p, joao)
}

func TestCreateThenEditAppendsEditedHistory(t *testing.T) {
	env := newTestEnv(t)
	var chatActor string
	env.chat.created = func(a string, _ *models.Task) { chatActor = a }

	task := createTask(t, env, "Fix bug")
	if !regexp.MustCompile(`^TC-\d{3,}$`).MatchString(task.ID) {
		t.Fatalf("id fora do formato: %q", task.ID)
	}
	if task.Status != models.StatusTodo || len(task.History) != 1 {
		t.Fatalf("esperado status todo com 1 entrada de histórico, veio %q com %d", task.Status, len(task.History))
	}
	if task.ProjectColor != models.DefaultProjectColor || task.Priority != models.DefaultPriority {
		t.Fatalf("defaults não aplicados: %q %q", task.ProjectColor, task.Priority)
	}
	if chatActor != joao.Login {
		t.Fatalf("esperado aviso no chat por %q, veio %q", joao.Login, chatActor)
	}
	if ev := env.events.last(); ev.event != models.EventTaskCreated {
		t.Fatalf("esperado evento taskCreated, veio %q", ev.event)
	}

	updated, err := update(t, env, task.ID, `{"priority":"Urgente"}`)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.History) != 2 || updated.History[1].Status != models.StatusEdited {
		t.Fatalf("esperado histórico [todo edited], veio %+v", updated.History)
	}
	if updated.Priority != "Urgente" || updated.Status != models.StatusTodo {
		t.Fatalf("update não aplicado corretamente: %+v", updated)
	}
	if updated.Title != "Fix bug" {
		t.Fatalf("campos não enviados devem ser mantidos, título virou %q", updated.Title)
	}
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		in     CreateInput
		source Source
		ok     bool
	}{
		{"sem título", CreateInput{Description: "d", Responsible: []models.Person{}}, SourceAPI, false},
		{"sem descrição", CreateInput{Title: "t", Responsible: []models.Person{}}, SourceAPI, false},
		{"api sem responsável", CreateInput{Title: "t", Description: "d"}, SourceAPI, false},
		{"bot sem responsável", CreateInput{Title: "t", Description: "d"}, SourceChatBot, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := env.tasks.Create(ctx, tt.in, joao, tt.source)
			if tt.ok {
				if err != nil {
					t.Fatalf("esperado sucesso, veio %v", err)
				}
				if task.Responsible == nil {
					t.Fatalf("responsible deve virar lista vazia")
				}
				return
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("esperado ErrValidation, veio %v", err)
			}
		})
	}
}

func TestBotCreateDoesNotPostToChat(t *testing.T) {
	env := newTestEnv(t)
	called := false
	env.chat.created = func(string, *models.Task) { called = true }

	if _, err := env.tasks.Create(context.Background(), CreateInput{Title: "t", Description: "d"}, joao, SourceChatBot); err != nil {
		t.Fatalf("create: %v", err)
	}
	if called {
		t.Fatalf("tarefa criada pelo bot não deve ser postada de novo no chat")
	}
}

func TestIDsAreUniqueAndIncreasingUnderConcurrency(t *testing.T) {
	env := newTestEnv(t)
	const n = 40

	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			task, err := env.tasks.Create(context.Background(), CreateInput{Title: "t", Description: "d", Responsible: []models.Person{}}, joao, SourceAPI)
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			ids <- task.NumericID
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("id repetido: %d", id)
		}
		seen[id] = true
	}
	for i := int64(1); i <= n; i++ {
		if !seen[i] {
			t.Fatalf("esperado ids 1..%d, faltou %d", n, i)
		}
	}

	a := createTask(t, env, "a")
	b := createTask(t, env, "b")
	if b.NumericID <= a.NumericID {
		t.Fatalf("ids sequenciais devem crescer: %d depois de %d", b.NumericID, a.NumericID)
	}
}

func TestIDFallbackWhenCounterMissing(t *testing.T) {
	store := database.NewMemoryStore()
	alloc := NewIDAllocator(store)
	alloc.now = func() time.Time { return time.UnixMilli(1700000012345) }

	ident, err := alloc.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if !ident.Fallback || ident.Display != "TC-2345" || ident.Numeric != 2345 {
		t.Fatalf("esperado fallback TC-2345 (2345), veio %+v", ident)
	}

	if err := alloc.Provision(context.Background(), 10, false); err != nil {
		t.Fatalf("provision: %v", err)
	}
	if err := alloc.Provision(context.Background(), 10, false); !errors.Is(err, ErrConflict) {
		t.Fatalf("esperado conflito ao provisionar de novo, veio %v", err)
	}
	if err := alloc.Provision(context.Background(), 20, true); err != nil {
		t.Fatalf("provision --force: %v", err)
	}
	ident, err = alloc.Next(context.Background())
	if err != nil || ident.Display != "TC-021" {
		t.Fatalf("esperado TC-021, veio %+v (%v)", ident, err)
	}
}

func TestStatusChangeHistoryAndArchiveRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	var labels []string
	env.chat.status = func(_ *models.Task, status string) { labels = append(labels, status) }

	task := createTask(t, env, "Arquivar")

	done, err := update(t, env, task.ID, `{"status":"done"}`)
	if err != nil {
		t.Fatalf("update done: %v", err)
	}
	if last := done.History[len(done.History)-1]; last.Status != models.StatusDone {
		t.Fatalf("troca pura de status deve registrar o status, veio %q", last.Status)
	}

	archived, err := env.tasks.ListArchived(ctx)
	if err != nil {
		t.Fatalf("list archived: %v", err)
	}
	if len(archived) != 1 || archived[0].ID != task.ID {
		t.Fatalf("tarefa deveria estar arquivada: %+v", archived)
	}
	active, _ := env.tasks.ListActive(ctx)
	if len(active) != 0 {
		t.Fatalf("tarefa concluída não deve aparecer nas ativas")
	}

	if _, err := update(t, env, task.ID, `{"status":"todo"}`); err != nil {
		t.Fatalf("restore: %v", err)
	}
	archived, _ = env.tasks.ListArchived(ctx)
	active, _ = env.tasks.ListActive(ctx)
	if len(archived) != 0 || len(active) != 1 {
		t.Fatalf("restaurar deve voltar para as ativas: %d arquivadas, %d ativas", len(archived), len(active))
	}
	if strings.Join(labels, ",") != "done,todo" {
		t.Fatalf("esperado aviso de status done,todo; veio %v", labels)
	}
}

func TestMixedUpdateRecordsOnlyEdited(t *testing.T) {
	env := newTestEnv(t)
	task := createTask(t, env, "t")

	updated, err := update(t, env, task.ID, `{"status":"inprogress","title":"novo"}`)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.History) != 2 || updated.History[1].Status != models.StatusEdited {
		t.Fatalf("esperado só o marcador edited, veio %+v", updated.History)
	}
	if updated.Status != models.StatusInProgress {
		t.Fatalf("status deveria mudar mesmo assim, veio %q", updated.Status)
	}
}

func TestUpdateValidationAndConflicts(t *testing.T) {
	env := newTestEnv(t)
	task := createTask(t, env, "t")

	if _, err := update(t, env, task.ID, `{"status":"bogus"}`); !errors.Is(err, ErrValidation) {
		t.Fatalf("esperado ErrValidation para status inválido, veio %v", err)
	}
	if _, err := update(t, env, "TC-999", `{"title":"x"}`); !errors.Is(err, ErrNotFound) {
		t.Fatalf("esperado ErrNotFound, veio %v", err)
	}

	updated, err := update(t, env, task.ID, `{"title":"x","version":0}`)
	if err != nil {
		t.Fatalf("update com versão atual: %v", err)
	}
	if updated.Version != 1 {
		t.Fatalf("esperado versão 1, veio %d", updated.Version)
	}
	_, err = update(t, env, task.ID, `{"title":"y","version":0}`)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("esperado ErrConflict com versão antiga, veio %v", err)
	}

	// sem versão continua last-write-wins
	if _, err := update(t, env, task.ID, `{"title":"z"}`); err != nil {
		t.Fatalf("update sem versão: %v", err)
	}

	// id e histórico não podem ser sobrescritos
	updated, err = update(t, env, task.ID, `{"id":"TC-777","history":[],"attachments":"x"}`)
	if err != nil {
		t.Fatalf("update campos imutáveis: %v", err)
	}
	if updated.ID != task.ID || len(updated.History) == 0 {
		t.Fatalf("campos imutáveis foram alterados: %+v", updated)
	}
	if updated.Attachments == nil || len(updated.Attachments) != 0 {
		t.Fatalf("attachments não-lista deve virar lista vazia, veio %+v", updated.Attachments)
	}
}

func TestUpdateRejectsUnknownKeys(t *testing.T) {
	env := newTestEnv(t)
	task := createTask(t, env, "t")

	if _, err := update(t, env, task.ID, `{"estimate":5}`); !errors.Is(err, ErrValidation) {
		t.Fatalf("esperado ErrValidation para campo desconhecido, veio %v", err)
	}
	got, err := env.tasks.Get(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.History) != len(task.History) || got.Version != task.Version {
		t.Fatalf("update recusado não pode gravar nada: %+v", got.History)
	}
}

func TestDeleteTwiceReturnsNotFound(t *testing.T) {
	env := newTestEnv(t)
	task := createTask(t, env, "t")
	ctx := context.Background()

	if err := env.tasks.Delete(ctx, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ev := env.events.last()
	if ev.event != models.EventTaskDeleted || len(ev.args) != 1 || ev.args[0] != task.ID {
		t.Fatalf("esperado taskDeleted(%s), veio %+v", task.ID, ev)
	}
	for i := 0; i < 2; i++ {
		if err := env.tasks.Delete(ctx, task.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("delete %d: esperado ErrNotFound, veio %v", i, err)
		}
	}
}

func TestCommentAddThenDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	var posted models.Comment
	env.chat.comment = func(_ string, _ *models.Task, c models.Comment) { posted = c }

	task := createTask(t, env, "t")
	first, err := env.tasks.AddComment(ctx, task.ID, "primeiro", joao)
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	withTwo, err := env.tasks.AddComment(ctx, task.ID, "segundo", joao)
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if len(withTwo.Comments) != 2 || withTwo.Comments[1].ID == "" || withTwo.Comments[1].Author != "João" {
		t.Fatalf("comentário mal formado: %+v", withTwo.Comments)
	}
	if posted.Text != "segundo" {
		t.Fatalf("comentário deveria ir para o chat, veio %+v", posted)
	}

	after, err := env.tasks.DeleteComment(ctx, task.ID, CommentRef{CommentID: withTwo.Comments[1].ID})
	if err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	if len(after.Comments) != len(first.Comments) || after.Comments[0].Text != "primeiro" {
		t.Fatalf("lista de comentários deveria voltar ao estado anterior: %+v", after.Comments)
	}

	idx := 0
	after, err = env.tasks.DeleteComment(ctx, task.ID, CommentRef{Index: &idx})
	if err != nil || len(after.Comments) != 0 {
		t.Fatalf("delete por índice: %v %+v", err, after)
	}
	idx = 3
	if _, err := env.tasks.DeleteComment(ctx, task.ID, CommentRef{Index: &idx}); !errors.Is(err, ErrValidation) {
		t.Fatalf("índice fora do intervalo deve ser ErrValidation, veio %v", err)
	}
	if _, err := env.tasks.AddComment(ctx, task.ID, "   ", joao); !errors.Is(err, ErrValidation) {
		t.Fatalf("comentário vazio deve ser ErrValidation, veio %v", err)
	}
}

func TestMentionCreatesOneNotification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for _, u := range []models.User{
		{ID: "ana@example.com", Email: "ana@example.com", Name: "Ana"},
		{ID: "bruno@example.com", Email: "bruno@example.com", Name: "Bruno"},
	} {
		u := u
		if err := env.store.CreateUser(ctx, &u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	task := createTask(t, env, "t")
	if _, err := env.tasks.AddComment(ctx, task.ID, "@Ana pode olhar?", joao); err != nil {
		t.Fatalf("add comment: %v", err)
	}

	notes, err := NewNotificationService(env.store).List(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("esperado 1 notificação, veio %d", len(notes))
	}
	n := notes[0]
	if n.TargetUserEmail != "ana@example.com" || n.IsRead || n.TaskID != task.ID || n.CommentPreview != "@Ana pode olhar?" {
		t.Fatalf("notificação inesperada: %+v", n)
	}
	other, _ := NewNotificationService(env.store).List(ctx, "bruno@example.com")
	if len(other) != 0 {
		t.Fatalf("Bruno não foi mencionado, veio %+v", other)
	}
}

func TestReorderSortsActiveTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createTask(t, env, "A")
	b := createTask(t, env, "B")

	if err := env.tasks.Reorder(ctx, []models.OrderUpdate{{ID: b.ID, Order: 1}, {ID: a.ID, Order: 0}}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if ev := env.events.last(); ev.event != models.EventTasksReordered || len(ev.args) != 0 {
		t.Fatalf("esperado tasksReordered sem argumentos, veio %+v", ev)
	}
	active, err := env.tasks.ListActive(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 2 || active[0].ID != a.ID || active[1].ID != b.ID {
		t.Fatalf("esperado [A,B], veio %v", []string{active[0].ID, active[1].ID})
	}
}

func TestUpdateProjectColor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	in := CreateInput{Title: "t", Description: "d", Responsible: []models.Person{}, Project: "Site"}
	site, _ := env.tasks.Create(ctx, in, joao, SourceAPI)
	other := createTask(t, env, "outro")

	if err := env.tasks.UpdateProjectColor(ctx, "", "#fff"); !errors.Is(err, ErrValidation) {
		t.Fatalf("esperado ErrValidation, veio %v", err)
	}
	if err := env.tasks.UpdateProjectColor(ctx, "Site", "#FF0000"); err != nil {
		t.Fatalf("update color: %v", err)
	}
	got, _ := env.tasks.Get(ctx, site.ID)
	untouched, _ := env.tasks.Get(ctx, other.ID)
	if got.ProjectColor != "#FF0000" || untouched.ProjectColor != models.DefaultProjectColor {
		t.Fatalf("cor aplicada errado: %q %q", got.ProjectColor, untouched.ProjectColor)
	}
}

func TestSignalAndDismissAlert(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if err := env.store.CreateUser(ctx, &models.User{ID: "ana@example.com", Email: "ana@example.com", Name: "Ana"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	var signaled []string
	env.chat.signaled = func(_ string, _ *models.Task, names []string) { signaled = names }

	task := createTask(t, env, "t", models.Person{Name: "Ana"})

	got, err := env.tasks.Signal(ctx, task.ID, joao)
	if err != nil {
		t.Fatalf("signal: %v", err)
	}
	if strings.Join(got.PendingAlerts, ",") != "Ana" || strings.Join(signaled, ",") != "Ana" {
		t.Fatalf("esperado alerta para Ana, veio %v / %v", got.PendingAlerts, signaled)
	}
	// sinalizar de novo não duplica
	got, _ = env.tasks.Signal(ctx, task.ID, joao)
	if len(got.PendingAlerts) != 1 {
		t.Fatalf("alertas duplicados: %v", got.PendingAlerts)
	}

	// quem não está na lista não altera nada
	stranger := Actor{Login: "zeca@example.com"}
	got, err = env.tasks.DismissAlert(ctx, task.ID, stranger)
	if err != nil || len(got.PendingAlerts) != 1 {
		t.Fatalf("dismiss de estranho deve ser no-op: %v %v", err, got.PendingAlerts)
	}

	got, err = env.tasks.DismissAlert(ctx, task.ID, Actor{Login: "ana@example.com"})
	if err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if len(got.PendingAlerts) != 0 {
		t.Fatalf("esperado alertas vazios, veio %v", got.PendingAlerts)
	}
}

func TestDismissFallsBackToLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := createTask(t, env, "t", models.Person{Name: "maria@example.com"})
	if _, err := env.tasks.Signal(ctx, task.ID, joao); err != nil {
		t.Fatalf("signal: %v", err)
	}

	got, err := env.tasks.DismissAlert(ctx, task.ID, Actor{Login: "maria@example.com", Name: "Maria"})
	if err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if len(got.PendingAlerts) != 0 {
		t.Fatalf("remoção pelo login deveria funcionar, veio %v", got.PendingAlerts)
	}
}

// failingUsers devolve erro em toda leitura de perfil
type failingUsers struct {
	database.UserStore
}

func (failingUsers) GetUser(ctx context.Context, id string) (*models.User, error) {
	return nil, errors.New("banco fora do ar")
}

func TestDismissKeepsLoginWhenProfileLookupFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := createTask(t, env, "t", models.Person{Name: "maria@example.com"}, models.Person{Name: "Maria"})
	if _, err := env.tasks.Signal(ctx, task.ID, joao); err != nil {
		t.Fatalf("signal: %v", err)
	}
	env.tasks.users = failingUsers{env.store}

	got, err := env.tasks.DismissAlert(ctx, task.ID, Actor{Login: "maria@example.com", Name: "Maria"})
	if err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if strings.Join(got.PendingAlerts, ",") != "Maria" {
		t.Fatalf("deveria remover só o login, veio %v", got.PendingAlerts)
	}
}

func TestSignalWithoutResponsible(t *testing.T) {
	env := newTestEnv(t)
	task := createTask(t, env, "t")
	if _, err := env.tasks.Signal(context.Background(), task.ID, joao); !errors.Is(err, ErrValidation) {
		t.Fatalf("esperado ErrValidation, veio %v", err)
	}
}

func TestOverdueDigest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.tasks.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }

	past := "2025-03-01"
	late, _ := env.tasks.Create(ctx, CreateInput{Title: "atrasada", Description: "d", Responsible: []models.Person{}, DueDate: &past}, joao, SourceAPI)
	if _, err := update(t, env, late.ID, `{"status":"inprogress"}`); err != nil {
		t.Fatalf("update: %v", err)
	}
	// em fila não conta como atrasada
	if _, err := env.tasks.Create(ctx, CreateInput{Title: "fila", Description: "d", Responsible: []models.Person{}, DueDate: &past}, joao, SourceAPI); err != nil {
		t.Fatalf("create: %v", err)
	}

	var digest []*models.Task
	env.chat.digest = func(tasks []*models.Task) { digest = tasks }
	if err := env.tasks.SendOverdueDigest(ctx); err != nil {
		t.Fatalf("digest: %v", err)
	}
	if len(digest) != 1 || digest[0].ID != late.ID {
		t.Fatalf("esperado só a tarefa atrasada, veio %+v", digest)
	}
}

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("09:30")
	if err != nil || spec != "0 30 9 * * *" {
		t.Fatalf("esperado '0 30 9 * * *', veio %q (%v)", spec, err)
	}
	for _, bad := range []string{"", "9", "24:00", "10:61", "aa:bb"} {
		if _, err := buildDailySpec(bad); err == nil {
			t.Fatalf("esperado erro para %q", bad)
		}
	}
}
