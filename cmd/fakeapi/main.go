// Command fakeapi runs the in-memory StudyGenie API locally so the
// client can be developed without the real backend. It serves the quiz
// pack from config/quizzes.yaml and seeds one demo account.
package main

import (
	"flag"
	"net/http"

	"studygenie/internal/apitest"
	logging "studygenie/internal/logging"
	"studygenie/internal/models"

	"go.uber.org/zap"
)

func main() {
	addr := flag.String("addr", ":5000", "listen address")
	pack := flag.String("pack", "config/quizzes.yaml", "quiz pack file")
	flag.Parse()

	log := logging.Console()
	defer log.Sync()

	quizzes, err := models.LoadQuizPack(*pack)
	if err != nil {
		log.Fatal("Failed to load quiz pack", zap.Error(err))
	}

	srv := apitest.New(quizzes)
	srv.Seed("Demo Student", "demo@studygenie.local", "demo-pass", false)
	log.Info("Seeded demo account",
		zap.String("email", "demo@studygenie.local"),
		zap.String("password", "demo-pass"))

	// The client prefixes every path with /api/v1; the handler itself
	// is mounted at the root.
	mux := http.NewServeMux()
	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", srv.Handler()))

	log.Info("Fake StudyGenie API listening", zap.String("addr", *addr))
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatal("Server stopped", zap.Error(err))
	}
}
