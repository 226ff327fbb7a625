package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"aegis-ledger/internal/classifier"
	"aegis-ledger/internal/config"
	"aegis-ledger/internal/domain"
	"aegis-ledger/internal/repository"
	"aegis-ledger/internal/service"
	"aegis-ledger/internal/store"
)

// REPL local contra el ledger real: mismo nucleo que el servidor, con
// snapshots en archivo y un clasificador mock si no hay base URL.
func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		// El CLI no exige clasificador configurado: usa el mock.
		cfg = &config.Config{SnapshotPath: "data/sessions.json", MaxSessions: store.DefaultMaxSessions}
	}

	logger := zap.NewExample()
	defer logger.Sync()

	snapStore := repository.NewFileSnapshotStore(cfg.SnapshotPath)
	bridge := service.NewPersistenceBridge(snapStore, logger)

	sessions := store.New(store.WithCapacity(cfg.MaxSessions))
	sessions.Restore(bridge.Load(ctx))
	sessions.OnChange(func(snap domain.Snapshot) {
		bridge.Save(context.Background(), snap)
	})
	if sessions.Len() == 0 {
		sessions.Create("")
	}

	var cls classifier.Client
	if cfg.ClassifierBaseURL != "" {
		cls = classifier.NewHTTPClient(
			cfg.ClassifierBaseURL,
			cfg.ClassifierAPIKey,
			time.Duration(cfg.ClassifierTimeoutSeconds)*time.Second,
			zap.NewStdLog(logger),
		)
	} else {
		fmt.Println("CLASSIFIER_BASE_URL vacio: usando clasificador mock (todo pasa).")
		cls = &classifier.MockClient{Verdict: classifier.Verdict{
			Response: "(mock) mensaje procesado",
			Layers:   []domain.LayerResult{{Layer: 1, Action: "PASSED", ThreatScore: 0.0}},
		}}
	}

	convSvc := service.NewConversationService(sessions, cls, logger, 30*time.Second)

	active, _ := sessions.Active()
	fmt.Printf("Sesion activa: %s (%s)\n", active.Name, active.ID)
	fmt.Println("Escribe un mensaje, /new para sesion nueva, /list, /risk, /exit.")

	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)

		switch {
		case line == "/exit":
			return
		case line == "/new":
			created := sessions.Create("")
			fmt.Printf("Sesion nueva activa: %s\n", created.ID)
			continue
		case line == "/list":
			for _, s := range sessions.Sessions() {
				marker := " "
				if s.ID == sessions.ActiveID() {
					marker = "*"
				}
				fmt.Printf("%s %s  msgs=%d blocked=%d risk=%.3f  %s\n",
					marker, s.ID, len(s.Messages), s.BlockedMessages, s.RiskScore, s.Name)
			}
			continue
		case line == "/risk":
			if s, ok := sessions.Active(); ok {
				fmt.Printf("risk_score=%.3f blocked=%d user_msgs=%d\n",
					s.RiskScore, s.BlockedMessages, s.TotalUserMessages)
			}
			continue
		case line == "":
			continue
		}

		result, err := convSvc.Submit(ctx, sessions.ActiveID(), line, service.RoleGuest)
		if errors.Is(err, service.ErrSubmissionInFlight) {
			fmt.Println("(hay un envio en vuelo, espera)")
			continue
		}
		if err != nil {
			log.Printf("submit: %v", err)
			continue
		}

		status := result.AssistantMessage.Status
		fmt.Printf("[%s] %s\n", status, result.AssistantMessage.Content)
		fmt.Printf("(risk=%.3f)\n", result.Session.RiskScore)
	}
}
