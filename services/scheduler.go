package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"syncboard/utilities"

	"github.com/robfig/cron/v3"
)

// SchedulerService agenda os jobs periódicos do servidor (hoje só o resumo de atrasos).
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	if loc == nil {
		loc = time.UTC
	}
	return &SchedulerService{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
	}
}

// ScheduleDaily registra um job diário no horário HH:MM
func (s *SchedulerService) ScheduleDaily(timeStr string, job func()) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, job)
}

// ScheduleOverdueDigest liga o resumo diário de tarefas atrasadas ao serviço de tarefas.
func (s *SchedulerService) ScheduleOverdueDigest(timeStr string, tasks *TaskService) error {
	_, err := s.ScheduleDaily(timeStr, func() {
		if err := tasks.SendOverdueDigest(context.Background()); err != nil {
			utilities.LogError(err, "Erro ao enviar resumo de tarefas atrasadas")
		}
	})
	if err != nil {
		return err
	}
	utilities.LogInfo("Resumo de tarefas atrasadas agendado para %s", timeStr)
	return nil
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop espera os jobs em execução terminarem
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func buildDailySpec(timeStr string) (string, error) {
	parts := strings.Split(strings.TrimSpace(timeStr), ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("horário inválido %q, esperado HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("hora inválida em %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("minuto inválido em %q", timeStr)
	}
	// segundo minuto hora dia mês dia-da-semana
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
