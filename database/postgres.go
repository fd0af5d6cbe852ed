package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"syncboard/models"
	"syncboard/utilities"

	"github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       JSONB NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_task_status ON documents ((data->>'status')) WHERE collection = 'tasks';
CREATE INDEX IF NOT EXISTS documents_notification_target ON documents ((data->>'targetUserEmail')) WHERE collection = 'notifications';
`

// código de violação de unicidade do PostgreSQL
const uniqueViolation = "23505"

// PostgresStore guarda cada documento como JSONB numa única tabela, chaveada por coleção e id.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore conecta e garante que a tabela de documentos existe
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := ConnectPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("erro ao criar schema de documentos: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) getDoc(ctx context.Context, collection, id string, dst interface{}) error {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`, collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("erro ao ler %s/%s: %w", collection, id, err)
	}
	return json.Unmarshal(raw, dst)
}

func (s *PostgresStore) insertDoc(ctx context.Context, collection, id string, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`, collection, id, raw)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("erro ao inserir %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PostgresStore) upsertDoc(ctx context.Context, collection, id string, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data`, collection, id, raw)
	if err != nil {
		return fmt.Errorf("erro ao gravar %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PostgresStore) deleteDoc(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("erro ao excluir %s/%s: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanDocs decodifica cada linha de "SELECT data" com a função informada
func scanDocs(rows *sql.Rows, decode func([]byte) error) error {
	defer rows.Close()
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return err
		}
		if err := decode(raw); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *PostgresStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	if err := s.getDoc(ctx, CollectionTasks, id, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PostgresStore) CreateTask(ctx context.Context, task *models.Task) error {
	return s.insertDoc(ctx, CollectionTasks, task.ID, task)
}

func (s *PostgresStore) ReplaceTask(ctx context.Context, task *models.Task, ifVersion int64) (*models.Task, error) {
	raw, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}
	// a versão nova é calculada a partir da armazenada, dentro do mesmo UPDATE
	var out []byte
	err = s.db.QueryRowContext(ctx, `
		UPDATE documents
		SET data = jsonb_set($3::jsonb, '{version}', to_jsonb(COALESCE((data->>'version')::bigint, 0) + 1))
		WHERE collection = $1 AND id = $2
		  AND ($4 < 0 OR COALESCE((data->>'version')::bigint, 0) = $4)
		RETURNING data`, CollectionTasks, task.ID, raw, ifVersion).Scan(&out)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := s.GetTask(ctx, task.ID); getErr != nil {
			return nil, getErr
		}
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao substituir tarefa %s: %w", task.ID, err)
	}
	var replaced models.Task
	if err := json.Unmarshal(out, &replaced); err != nil {
		return nil, err
	}
	return &replaced, nil
}

func (s *PostgresStore) DeleteTask(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, CollectionTasks, id)
}

func (s *PostgresStore) ListTasks(ctx context.Context, q TaskQuery) ([]*models.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM documents
		WHERE collection = $1
		  AND ($2 = '' OR data->>'status' = $2)
		  AND ($3 = '' OR COALESCE(data->>'status', '') <> $3)
		  AND ($4 = '' OR data->>'project' = $4)
		ORDER BY (data->>'order')::double precision, id`,
		CollectionTasks, q.Status, q.ExcludeStatus, q.Project)
	if err != nil {
		return nil, fmt.Errorf("erro ao consultar tarefas: %w", err)
	}
	tasks := []*models.Task{}
	err = scanDocs(rows, func(raw []byte) error {
		var t models.Task
		if err := json.Unmarshal(raw, &t); err != nil {
			return err
		}
		tasks = append(tasks, &t)
		return nil
	})
	return tasks, err
}

func (s *PostgresStore) PatchTasks(ctx context.Context, patches []FieldPatch) error {
	for i, chunk := range Chunk(patches, MaxPatchBatch) {
		if err := s.patchChunk(ctx, chunk); err != nil {
			return fmt.Errorf("erro no lote %d de patches: %w", i+1, err)
		}
		utilities.LogDebug("Processado um lote de %d operações", len(chunk))
	}
	return nil
}

func (s *PostgresStore) patchChunk(ctx context.Context, chunk []FieldPatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE documents
		SET data = jsonb_set(
			jsonb_set(data, ARRAY[$2::text], $3::jsonb),
			'{version}', to_jsonb(COALESCE((data->>'version')::bigint, 0) + 1))
		WHERE collection = 'tasks' AND id = $1`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range chunk {
		value, err := json.Marshal(p.Value)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, p.ID, p.Field, value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) IncrementCounter(ctx context.Context, id string) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE documents
		SET data = jsonb_set(data, '{currentId}', to_jsonb(COALESCE((data->>'currentId')::bigint, 0) + 1))
		WHERE collection = $1 AND id = $2
		RETURNING (data->>'currentId')::bigint`, CollectionCounters, id).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("erro ao incrementar contador %s: %w", id, err)
	}
	return v, nil
}

func (s *PostgresStore) ProvisionCounter(ctx context.Context, id string, value int64, force bool) error {
	doc := map[string]interface{}{"id": id, "currentId": value}
	if force {
		return s.upsertDoc(ctx, CollectionCounters, id, doc)
	}
	return s.insertDoc(ctx, CollectionCounters, id, doc)
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.getDoc(ctx, CollectionUsers, id, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM documents WHERE collection = $1 ORDER BY id`, CollectionUsers)
	if err != nil {
		return nil, fmt.Errorf("erro ao consultar usuários: %w", err)
	}
	users := []models.User{}
	err = scanDocs(rows, func(raw []byte) error {
		var u models.User
		if err := json.Unmarshal(raw, &u); err != nil {
			return err
		}
		users = append(users, u)
		return nil
	})
	return users, err
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.insertDoc(ctx, CollectionUsers, user.ID, user)
}

func (s *PostgresStore) PutUser(ctx context.Context, user *models.User) error {
	return s.upsertDoc(ctx, CollectionUsers, user.ID, user)
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, CollectionUsers, id)
}

func (s *PostgresStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	return s.insertDoc(ctx, CollectionNotifications, n.ID, n)
}

func (s *PostgresStore) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := s.getDoc(ctx, CollectionNotifications, id, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *PostgresStore) PutNotification(ctx context.Context, n *models.Notification) error {
	return s.upsertDoc(ctx, CollectionNotifications, n.ID, n)
}

func (s *PostgresStore) ListNotifications(ctx context.Context, email string) ([]models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM documents
		WHERE collection = $1 AND data->>'targetUserEmail' = $2
		ORDER BY data->>'createdAt' DESC`, CollectionNotifications, email)
	if err != nil {
		return nil, fmt.Errorf("erro ao consultar notificações: %w", err)
	}
	out := []models.Notification{}
	err = scanDocs(rows, func(raw []byte) error {
		var n models.Notification
		if err := json.Unmarshal(raw, &n); err != nil {
			return err
		}
		out = append(out, n)
		return nil
	})
	return out, err
}

func (s *PostgresStore) AddAIRequest(ctx context.Context, entry *models.AIRequestHistoryEntry) error {
	return s.insertDoc(ctx, CollectionAIHistory, entry.ID, entry)
}
