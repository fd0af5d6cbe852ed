package utilities

import (
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level define a severidade mínima registrada.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel converte "DEBUG", "INFO", "WARN" ou "ERROR"; qualquer outro valor vira INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

const logFlags = log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile

var (
	InfoLogger  = log.New(os.Stdout, "[INFO] ", logFlags)
	WarnLogger  = log.New(os.Stdout, "[WARN] ", logFlags)
	ErrorLogger = log.New(os.Stderr, "[ERROR] ", logFlags)
	DebugLogger = log.New(os.Stdout, "[DEBUG] ", logFlags)

	mu       sync.RWMutex
	minLevel = LevelInfo
)

// InitLogger inicializa os loggers com o nível mínimo e, opcionalmente, prefixos coloridos.
func InitLogger(level Level, color bool) {
	mu.Lock()
	defer mu.Unlock()

	minLevel = level
	if color {
		InfoLogger.SetPrefix("\033[32m[INFO]\033[0m ")
		WarnLogger.SetPrefix("\033[33m[WARN]\033[0m ")
		ErrorLogger.SetPrefix("\033[31m[ERROR]\033[0m ")
		DebugLogger.SetPrefix("\033[36m[DEBUG]\033[0m ")
		return
	}
	InfoLogger.SetPrefix("[INFO] ")
	WarnLogger.SetPrefix("[WARN] ")
	ErrorLogger.SetPrefix("[ERROR] ")
	DebugLogger.SetPrefix("[DEBUG] ")
}

// SetOutput redireciona todos os loggers (usado nos testes).
func SetOutput(w io.Writer) {
	InfoLogger.SetOutput(w)
	WarnLogger.SetOutput(w)
	ErrorLogger.SetOutput(w)
	DebugLogger.SetOutput(w)
}

func enabled(level Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return level >= minLevel
}

// LogRequest registra informações sobre a requisição HTTP
func LogRequest(method, path, remoteAddr string, status int, duration time.Duration) {
	if enabled(LevelInfo) {
		InfoLogger.Printf("%s %s %s %d %v", method, path, remoteAddr, status, duration)
	}
}

// LogError registra o erro junto com o contexto em que ocorreu
func LogError(err error, context string) {
	if !enabled(LevelError) {
		return
	}
	if err == nil {
		ErrorLogger.Print(context)
		return
	}
	ErrorLogger.Printf("%s: %v", context, err)
}

// LogWarn registra situações degradadas que não interrompem a requisição
func LogWarn(format string, v ...interface{}) {
	if enabled(LevelWarn) {
		WarnLogger.Printf(format, v...)
	}
}

// LogDebug registra informações de debug
func LogDebug(format string, v ...interface{}) {
	if enabled(LevelDebug) {
		DebugLogger.Printf(format, v...)
	}
}

// LogInfo registra informações gerais
func LogInfo(format string, v ...interface{}) {
	if enabled(LevelInfo) {
		InfoLogger.Printf(format, v...)
	}
}
