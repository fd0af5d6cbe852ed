package database

import (
	"context"
	"database/sql"
	"time"

	"syncboard/utilities"

	_ "github.com/lib/pq"
)

// ConnectPostgres abre e testa a conexão com o PostgreSQL a partir de uma URL postgres://
func ConnectPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	// Abre a conexão
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		utilities.LogError(err, "Erro ao abrir conexão com o banco de dados")
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	// Testa a conexão
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		utilities.LogError(err, "Erro ao conectar ao banco de dados")
		db.Close()
		return nil, err
	}

	utilities.LogInfo("Conectado ao PostgreSQL com sucesso!")
	return db, nil
}
