package firebase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"syncboard/database"
	"syncboard/models"
	"syncboard/utilities"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implementa database.Store sobre coleções do Firestore; o id do documento é o id da entidade.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(ctx context.Context, app *firebase.App) (*FirestoreStore, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao obter cliente do Firestore: %w", err)
	}
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) Close() error { return s.client.Close() }

// mapError traduz os códigos gRPC para os erros do pacote database
func mapError(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return database.ErrNotFound
	case codes.AlreadyExists:
		return database.ErrAlreadyExists
	}
	return err
}

func (s *FirestoreStore) tasks() *firestore.CollectionRef {
	return s.client.Collection(database.CollectionTasks)
}

func (s *FirestoreStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	snap, err := s.tasks().Doc(id).Get(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	var t models.Task
	if err := snap.DataTo(&t); err != nil {
		return nil, fmt.Errorf("erro ao converter tarefa %s: %w", id, err)
	}
	return &t, nil
}

func (s *FirestoreStore) CreateTask(ctx context.Context, task *models.Task) error {
	_, err := s.tasks().Doc(task.ID).Create(ctx, task)
	return mapError(err)
}

func (s *FirestoreStore) ReplaceTask(ctx context.Context, task *models.Task, ifVersion int64) (*models.Task, error) {
	ref := s.tasks().Doc(task.ID)
	var stored *models.Task
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return mapError(err)
		}
		var current models.Task
		if err := snap.DataTo(&current); err != nil {
			return err
		}
		if ifVersion >= 0 && current.Version != ifVersion {
			return database.ErrConflict
		}
		stored = task.Clone()
		stored.Version = current.Version + 1
		return tx.Set(ref, stored)
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *FirestoreStore) DeleteTask(ctx context.Context, id string) error {
	_, err := s.tasks().Doc(id).Delete(ctx, firestore.Exists)
	return mapError(err)
}

func (s *FirestoreStore) ListTasks(ctx context.Context, q database.TaskQuery) ([]*models.Task, error) {
	query := s.tasks().Query
	if q.Status != "" {
		query = query.Where("status", "==", q.Status)
	}
	if q.ExcludeStatus != "" {
		query = query.Where("status", "!=", q.ExcludeStatus)
	}
	if q.Project != "" {
		query = query.Where("project", "==", q.Project)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	tasks := []*models.Task{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("erro ao consultar tarefas: %w", err)
		}
		var t models.Task
		if err := doc.DataTo(&t); err != nil {
			// um documento malformado não derruba a listagem inteira
			utilities.LogWarn("Tarefa %s ignorada, erro ao converter: %v", doc.Ref.ID, err)
			continue
		}
		tasks = append(tasks, &t)
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Order < tasks[j].Order })
	return tasks, nil
}

func (s *FirestoreStore) PatchTasks(ctx context.Context, patches []database.FieldPatch) error {
	for i, chunk := range database.Chunk(patches, database.MaxPatchBatch) {
		if err := s.patchChunk(ctx, chunk); err != nil {
			return fmt.Errorf("erro no lote %d de patches: %w", i+1, err)
		}
		utilities.LogDebug("Processado um lote de %d operações", len(chunk))
	}
	return nil
}

func (s *FirestoreStore) patchChunk(ctx context.Context, chunk []database.FieldPatch) error {
	refs := make([]*firestore.DocumentRef, len(chunk))
	for i, p := range chunk {
		refs[i] = s.tasks().Doc(p.ID)
	}
	// Update falha o batch inteiro se um documento não existir, então os ausentes são filtrados antes
	snaps, err := s.client.GetAll(ctx, refs)
	if err != nil {
		return err
	}

	batch := s.client.Batch()
	pending := 0
	for i, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		batch.Update(refs[i], []firestore.Update{
			{Path: chunk[i].Field, Value: chunk[i].Value},
			{Path: "version", Value: firestore.Increment(1)},
		})
		pending++
	}
	if pending == 0 {
		return nil
	}
	_, err = batch.Commit(ctx)
	return err
}

func (s *FirestoreStore) IncrementCounter(ctx context.Context, id string) (int64, error) {
	ref := s.client.Collection(database.CollectionCounters).Doc(id)
	var next int64
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return mapError(err)
		}
		current, err := snap.DataAt("currentId")
		if err != nil {
			return fmt.Errorf("contador %s sem currentId: %w", id, err)
		}
		v, ok := current.(int64)
		if !ok {
			return fmt.Errorf("contador %s com currentId inválido: %v", id, current)
		}
		next = v + 1
		return tx.Update(ref, []firestore.Update{{Path: "currentId", Value: next}})
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (s *FirestoreStore) ProvisionCounter(ctx context.Context, id string, value int64, force bool) error {
	ref := s.client.Collection(database.CollectionCounters).Doc(id)
	doc := map[string]interface{}{"id": id, "currentId": value}
	if force {
		_, err := ref.Set(ctx, doc)
		return err
	}
	_, err := ref.Create(ctx, doc)
	return mapError(err)
}

func (s *FirestoreStore) users() *firestore.CollectionRef {
	return s.client.Collection(database.CollectionUsers)
}

func (s *FirestoreStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	snap, err := s.users().Doc(id).Get(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	var u models.User
	if err := snap.DataTo(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *FirestoreStore) ListUsers(ctx context.Context) ([]models.User, error) {
	iter := s.users().Documents(ctx)
	defer iter.Stop()

	users := []models.User{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("erro ao consultar usuários: %w", err)
		}
		var u models.User
		if err := doc.DataTo(&u); err != nil {
			utilities.LogWarn("Usuário %s ignorado, erro ao converter: %v", doc.Ref.ID, err)
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *FirestoreStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.users().Doc(user.ID).Create(ctx, user)
	return mapError(err)
}

func (s *FirestoreStore) PutUser(ctx context.Context, user *models.User) error {
	_, err := s.users().Doc(user.ID).Set(ctx, user)
	return err
}

func (s *FirestoreStore) DeleteUser(ctx context.Context, id string) error {
	_, err := s.users().Doc(id).Delete(ctx, firestore.Exists)
	return mapError(err)
}

func (s *FirestoreStore) notifications() *firestore.CollectionRef {
	return s.client.Collection(database.CollectionNotifications)
}

func (s *FirestoreStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	_, err := s.notifications().Doc(n.ID).Create(ctx, n)
	return mapError(err)
}

func (s *FirestoreStore) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	snap, err := s.notifications().Doc(id).Get(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	var n models.Notification
	if err := snap.DataTo(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *FirestoreStore) PutNotification(ctx context.Context, n *models.Notification) error {
	_, err := s.notifications().Doc(n.ID).Set(ctx, n)
	return err
}

func (s *FirestoreStore) ListNotifications(ctx context.Context, email string) ([]models.Notification, error) {
	iter := s.notifications().
		Where("targetUserEmail", "==", email).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	out := []models.Notification{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("erro ao consultar notificações: %w", err)
		}
		var n models.Notification
		if err := doc.DataTo(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *FirestoreStore) AddAIRequest(ctx context.Context, entry *models.AIRequestHistoryEntry) error {
	coll := s.client.Collection(database.CollectionAIHistory)
	if entry.ID == "" {
		docRef, _, err := coll.Add(ctx, entry)
		if err != nil {
			return err
		}
		utilities.LogDebug("Histórico de IA salvo com ID %s", docRef.ID)
		return nil
	}
	_, err := coll.Doc(entry.ID).Create(ctx, entry)
	return mapError(err)
}
