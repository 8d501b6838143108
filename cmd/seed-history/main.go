package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/quizgen/internal/config"
	"github.com/stemsi/quizgen/internal/database"
	"github.com/stemsi/quizgen/internal/history"
	"github.com/stemsi/quizgen/internal/logger"
	"github.com/stemsi/quizgen/internal/model"
)

// Usage:
//
//	seed-history -client <uuid> -sample 5
//	seed-history -client <uuid> -import history.json
//	seed-history -client <uuid> -export history.json
//
// -import accepts the JSON list kept by the browser build and appends its
// valid records after the client's existing ones.
func main() {
	clientID := flag.String("client", "", "client id (uuid)")
	sample := flag.Int("sample", 0, "append this many generated quizzes")
	importPath := flag.String("import", "", "append quizzes from a history JSON file")
	exportPath := flag.String("export", "", "write the client's history to a JSON file")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := uuid.Parse(*clientID); err != nil {
		log.Fatal().Err(err).Msg("-client must be a uuid")
	}

	// ─── History Store ─────────────────────────────────────────────────
	var store history.Store
	switch cfg.HistoryBackend {
	case config.HistoryBackendPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		store = history.NewPostgresStore(pool)
	case config.HistoryBackendMemory:
		log.Fatal().Msg("HISTORY_BACKEND=memory is not persistent; nothing to seed")
	default:
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		store = history.NewRedisStore(rdb)
	}

	repo := history.NewRepository(store, log)
	key := config.CacheKey.HistoryKey(*clientID)
	h, err := repo.Load(ctx, key)
	if err != nil {
		log.Fatal().Err(err).Msg("Refusing to seed over an unreadable history")
	}
	fmt.Printf("Client %s has %d quizzes\n", *clientID, len(h))

	changed := false

	if *importPath != "" {
		payload, err := os.ReadFile(*importPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read import file")
		}
		imported, skipped, err := history.Decode(payload)
		if err != nil {
			log.Fatal().Err(err).Msg("Import file is not a history list")
		}
		for _, q := range imported {
			q.ID = h.LastID() + 1
			h = h.Append(q)
		}
		changed = len(imported) > 0
		fmt.Printf("Imported %d quizzes (%d skipped)\n", len(imported), skipped)
	}

	if *sample > 0 {
		now := time.Now()
		for i := 0; i < *sample; i++ {
			finished := now.Add(-time.Duration(*sample-i) * time.Hour)
			h = h.Append(sampleQuiz(h.LastID()+1, i, finished))
		}
		changed = true
		fmt.Printf("Generated %d sample quizzes\n", *sample)
	}

	if changed {
		if err := repo.Save(ctx, key, h); err != nil {
			log.Fatal().Err(err).Msg("Failed to save history")
		}
		fmt.Printf("Saved %d quizzes under %s\n", len(h), key)
	}

	if *exportPath != "" {
		payload, err := history.Encode(h)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to encode history")
		}
		if err := os.WriteFile(*exportPath, payload, 0o644); err != nil {
			log.Fatal().Err(err).Msg("Failed to write export file")
		}
		fmt.Printf("Exported %d quizzes to %s\n", len(h), *exportPath)
	}
}

// sampleQuiz builds a two-question quiz whose score varies with seq.
func sampleQuiz(id int64, seq int, finished time.Time) model.CompletedQuiz {
	mc, _ := model.NewChoiceQuestion(model.KindMultipleChoice,
		"ما عاصمة مصر؟", []string{"القاهرة", "الإسكندرية", "أسوان", "الجيزة"}, "القاهرة")
	tf, _ := model.NewChoiceQuestion(model.KindTrueFalse,
		"الماء يغلي عند ٥٠ درجة مئوية.", []string{"صح", "خطأ"}, "خطأ")

	answers := []string{"القاهرة", "صح"}
	if seq%2 == 0 {
		answers[1] = "خطأ"
	}

	q := model.CompletedQuiz{
		ID:             id,
		FileNames:      []string{fmt.Sprintf("sample-%d.pdf", seq+1)},
		Date:           finished.Format(model.DateLayout),
		TotalQuestions: 2,
		Questions:      []model.Question{mc, tf},
	}
	for i, question := range q.Questions {
		a := answers[i]
		correct := a == question.ReferenceAnswer
		outcome := model.NewOutcome(correct, question.ReferenceAnswer, "")
		q.UserAnswers = append(q.UserAnswers, &a)
		q.EvaluationResults = append(q.EvaluationResults, &outcome)
		if correct {
			q.Score++
		}
	}
	return q
}
