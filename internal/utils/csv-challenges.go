package utils

import (
	"encoding/csv"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/promptfall/promptfall/internal"
)

// ReadChallengeFile loads a custom prompt pool from a CSV file of
// text,category,time_limit records. Malformed rows (including a header
// row) are skipped rather than failing the whole load.
func ReadChallengeFile(filePath string) []internal.Challenge {
	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("Unable to read challenge file "+filePath, err)
	}
	defer f.Close()

	csvReader := csv.NewReader(f)
	csvReader.FieldsPerRecord = -1
	records, err := csvReader.ReadAll()
	if err != nil {
		log.Fatal("Unable to parse file as CSV for "+filePath, err)
	}

	var challenges []internal.Challenge
	for _, record := range records {
		if len(record) < 3 {
			log.Println("Skipping invalid record:", record)
			continue
		}
		text := strings.TrimSpace(record[0])
		if text == "" {
			log.Println("Skipping record with empty prompt:", record)
			continue
		}
		timeLimit, err := strconv.Atoi(strings.TrimSpace(record[2]))
		if err != nil || timeLimit <= 0 {
			log.Println("Skipping record with invalid time limit:", record)
			continue
		}
		challenges = append(challenges, internal.Challenge{
			Text:      text,
			Category:  strings.TrimSpace(record[1]),
			TimeLimit: timeLimit,
		})
	}
	return challenges
}
