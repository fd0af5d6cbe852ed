package board

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"syncboard/utilities"
)

// Frame é uma mensagem do canal de tempo real com os argumentos ainda crus
type Frame struct {
	Target    string            `json:"target"`
	Arguments []json.RawMessage `json:"arguments"`
}

// HandlerFunc recebe cada frame; um erro é logado e não derruba a conexão.
type HandlerFunc func(ctx context.Context, f Frame) error

// Subscriber mantém uma conexão WebSocket com o servidor, reconectando com
// backoff exponencial (com jitter e teto) até o contexto ser cancelado.
type Subscriber struct {
	URL    string
	Header http.Header
	Dialer *websocket.Dialer

	InitialInterval time.Duration
	MaxInterval     time.Duration

	// OnConnect é chamado a cada conexão estabelecida (útil para recarregar o cache)
	OnConnect func(ctx context.Context)
}

func NewSubscriber(url string, header http.Header) *Subscriber {
	return &Subscriber{
		URL:             url,
		Header:          header,
		Dialer:          websocket.DefaultDialer,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     30 * time.Second,
	}
}

func (s *Subscriber) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.InitialInterval
	b.MaxInterval = s.MaxInterval
	b.MaxElapsedTime = 0 // tentativas ilimitadas
	b.RandomizationFactor = 0.5
	b.Reset()
	return b
}

// Run bloqueia até ctx ser cancelado e devolve ctx.Err().
func (s *Subscriber) Run(ctx context.Context, handle HandlerFunc) error {
	exp := s.newBackOff()

	op := func() error {
		conn, _, err := s.Dialer.DialContext(ctx, s.URL, s.Header)
		if err != nil {
			return err
		}
		utilities.LogInfo("Conectado ao canal de tempo real %s", s.URL)
		exp.Reset()
		if s.OnConnect != nil {
			s.OnConnect(ctx)
		}
		return s.readLoop(ctx, conn, handle)
	}

	notify := func(err error, wait time.Duration) {
		utilities.LogWarn("Canal de tempo real caiu (%v); nova tentativa em %s", err, wait.Round(time.Millisecond))
	}

	err := backoff.RetryNotify(op, backoff.WithContext(exp, ctx), notify)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *Subscriber) readLoop(ctx context.Context, conn *websocket.Conn, handle HandlerFunc) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		if err := handle(ctx, f); err != nil {
			utilities.LogError(err, "Erro ao aplicar evento "+f.Target)
		}
	}
}
