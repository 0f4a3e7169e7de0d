package jobs

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const jobColumns = "id, status, stage, progress, message, error_message, source_path, original_filename, source_lang, target_lang, voice_mode, quality_tier, sync_threshold, outputs_json, degraded_json, created_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id            string
		statusStr     string
		stage         sql.NullString
		progress      sql.NullInt64
		message       sql.NullString
		errorMessage  sql.NullString
		sourcePath    sql.NullString
		originalName  sql.NullString
		sourceLang    sql.NullString
		targetLang    sql.NullString
		voiceMode     sql.NullString
		qualityTier   sql.NullString
		syncThreshold sql.NullFloat64
		outputsRaw    sql.NullString
		degradedRaw   sql.NullString
		createdRaw    string
		updatedRaw    string
	)

	if err := scanner.Scan(
		&id,
		&statusStr,
		&stage,
		&progress,
		&message,
		&errorMessage,
		&sourcePath,
		&originalName,
		&sourceLang,
		&targetLang,
		&voiceMode,
		&qualityTier,
		&syncThreshold,
		&outputsRaw,
		&degradedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:           id,
		Status:       Status(statusStr),
		Stage:        stage.String,
		Progress:     int(progress.Int64),
		Message:      message.String,
		ErrorMessage: errorMessage.String,
		Meta: Meta{
			SourcePath:       sourcePath.String,
			OriginalFilename: originalName.String,
			SourceLang:       sourceLang.String,
			TargetLang:       targetLang.String,
			VoiceMode:        VoiceMode(voiceMode.String),
			QualityTier:      qualityTier.String,
			SyncThreshold:    syncThreshold.Float64,
		},
	}

	if outputsRaw.Valid && strings.TrimSpace(outputsRaw.String) != "" {
		outputs := map[ArtifactKind]string{}
		if err := json.Unmarshal([]byte(outputsRaw.String), &outputs); err != nil {
			return nil, fmt.Errorf("parse outputs json: %w", err)
		}
		job.Outputs = outputs
	}
	if degradedRaw.Valid && strings.TrimSpace(degradedRaw.String) != "" {
		var degraded []string
		if err := json.Unmarshal([]byte(degradedRaw.String), &degraded); err != nil {
			return nil, fmt.Errorf("parse degraded json: %w", err)
		}
		job.Degraded = degraded
	}

	created, err := parseTimestamp(createdRaw)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	job.CreatedAt = created

	updated, err := parseTimestamp(updatedRaw)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	job.UpdatedAt = updated

	return job, nil
}

func parseTimestamp(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}

func marshalOutputs(outputs map[ArtifactKind]string) (string, error) {
	if len(outputs) == 0 {
		return "", nil
	}
	data, err := json.Marshal(outputs)
	if err != nil {
		return "", fmt.Errorf("marshal outputs: %w", err)
	}
	return string(data), nil
}

func marshalDegraded(degraded []string) (string, error) {
	if len(degraded) == 0 {
		return "", nil
	}
	data, err := json.Marshal(degraded)
	if err != nil {
		return "", fmt.Errorf("marshal degraded: %w", err)
	}
	return string(data), nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", count), ", ")
}
