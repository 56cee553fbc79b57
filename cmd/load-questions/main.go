package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"bingo-night/internal/config"
	"bingo-night/internal/db"
)

type questionRecord struct {
	Prompt       string   `json:"prompt"`
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"correct_index"`
	TimeLimitSec int      `json:"time_limit_sec"`
	Points       int      `json:"points"`
	Category     string   `json:"category"`
	Difficulty   string   `json:"difficulty"`
}

func main() {
	filePath := flag.String("file", "questions.json", "path to questions json")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	records, err := readQuestions(*filePath)
	if err != nil {
		log.Fatalf("failed to read questions: %v", err)
	}

	inserted := 0
	for _, record := range records {
		if record.CorrectIndex < 0 || record.CorrectIndex >= len(record.Choices) {
			log.Fatalf("question %q: correct index out of bounds", record.Prompt)
		}
		entry := db.Question{
			Prompt:       record.Prompt,
			Choices:      db.StringSlice(record.Choices),
			CorrectIndex: record.CorrectIndex,
			TimeLimitSec: record.TimeLimitSec,
			Points:       record.Points,
			Category:     record.Category,
			Difficulty:   record.Difficulty,
		}
		if err := conn.FirstOrCreate(&entry, db.Question{Prompt: entry.Prompt}).Error; err != nil {
			log.Fatalf("failed to upsert question: %v", err)
		}
		inserted++
	}

	log.Printf("loaded %d questions", inserted)
}

func readQuestions(path string) ([]questionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []questionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}
