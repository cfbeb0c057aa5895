// Package codec converts a session's batch list to and from the text blob
// stored next to each session row.
//
// The blob is a JSON array of objects with explicit field names so new
// optional fields can be added without breaking older rows. Unknown fields
// are ignored. A missing or non-positive egg_count decodes as
// models.DefaultEggCount.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/mamadbah2/incubator/internal/domain/models"
)

type batchRecord struct {
	Species     string `json:"species"`
	Description string `json:"description"`
	EggCount    *int   `json:"egg_count,omitempty"`
}

// EncodeBatches serialises batches in order.
func EncodeBatches(batches []models.Batch) (string, error) {
	records := make([]batchRecord, 0, len(batches))
	for _, b := range batches {
		count := b.EggCount
		records = append(records, batchRecord{
			Species:     string(b.Species),
			Description: b.Description,
			EggCount:    &count,
		})
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode batches: %w", err)
	}
	return string(data), nil
}

// DecodeBatches parses a blob produced by EncodeBatches or by older versions
// of the app. Every failure wraps models.ErrDecode.
func DecodeBatches(blob string) ([]models.Batch, error) {
	var records []batchRecord
	if err := json.Unmarshal([]byte(blob), &records); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrDecode, err)
	}
	if records == nil {
		return nil, fmt.Errorf("%w: batch list is null", models.ErrDecode)
	}

	batches := make([]models.Batch, 0, len(records))
	for i, r := range records {
		species, err := models.ParseSpecies(r.Species)
		if err != nil {
			return nil, fmt.Errorf("%w: batch %d: %w", models.ErrDecode, i, err)
		}
		count := models.DefaultEggCount
		if r.EggCount != nil && *r.EggCount > 0 {
			count = *r.EggCount
		}
		batches = append(batches, models.Batch{
			Species:     species,
			Description: r.Description,
			EggCount:    count,
		})
	}
	return batches, nil
}
