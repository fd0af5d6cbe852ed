package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"syncboard/database"
	"syncboard/models"
	"syncboard/utilities"

	"github.com/google/uuid"
)

// Identity é o resultado da alocação de um id de tarefa.
type Identity struct {
	Numeric int64
	Display string
	// Fallback indica um id derivado do relógio, sem garantia de unicidade
	Fallback bool
}

// IDAllocator transforma o contador compartilhado em ids sequenciais TC-###.
// A concorrência é resolvida pelo incremento atômico do banco.
type IDAllocator struct {
	counters database.CounterStore
	now      func() time.Time
}

func NewIDAllocator(counters database.CounterStore) *IDAllocator {
	return &IDAllocator{counters: counters, now: time.Now}
}

// Next incrementa o contador. Se o contador não existe, devolve o id de contingência
// TC-<últimos 4 dígitos do relógio em ms>, que pode colidir.
func (a *IDAllocator) Next(ctx context.Context) (Identity, error) {
	n, err := a.counters.IncrementCounter(ctx, models.CounterID)
	if err == nil {
		return Identity{Numeric: n, Display: models.FormatTaskID(n)}, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return Identity{}, fmt.Errorf("erro ao incrementar contador de tarefas: %w", err)
	}

	numeric := a.now().UnixMilli() % 10000
	display := fmt.Sprintf("TC-%04d", numeric)
	utilities.LogWarn("Contador %q não encontrado; usando id de contingência %s (pode colidir). Rode provision-counter.", models.CounterID, display)
	return Identity{Numeric: numeric, Display: display, Fallback: true}, nil
}

// Provision cria o contador com o valor inicial; com force sobrescreve o existente.
func (a *IDAllocator) Provision(ctx context.Context, start int64, force bool) error {
	err := a.counters.ProvisionCounter(ctx, models.CounterID, start, force)
	if errors.Is(err, database.ErrAlreadyExists) {
		return newError(ErrConflict, "O contador de tarefas já existe. Use --force para sobrescrever.")
	}
	return err
}

func newID() string {
	return uuid.NewString()
}
