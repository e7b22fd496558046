// Package persist stores validation sets and comparison results on
// disk and loads them back, guaranteeing that a saved set loads equal
// to the original.
package persist

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"actval/internal/compare"
	"actval/internal/diary"
	"actval/internal/errors"
	"actval/internal/stats"
)

// Directory and file names of the on-disk layout.
const (
	probabilityDir = "probability_profiles"
	frequencyDir   = "activity_frequencies"
	durationDir    = "activity_durations"
	categoriesDir  = "categories"
	sizesFile      = "category_sizes.csv"
	metadataDir    = "activities"
	metadataFile   = "activities.json"

	probPrefix = "prob_"
	freqPrefix = "freq_"
	durPrefix  = "dur_"
)

// metadata is the shared per-set information stored next to the
// per-category files.
type metadata struct {
	Activities        []string `json:"available_activities"`
	ResolutionMinutes int      `json:"resolution_minutes"`
}

// Store persists validation sets and comparison results.
type Store struct {
	logger *slog.Logger
}

// NewStore creates a store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger}
}

// Save writes the full validation set below basePath: one CSV per
// category for probability profiles, frequencies and durations, plus
// the taxonomy metadata and the category sizes table.
func (st *Store) Save(ctx context.Context, set *stats.ValidationSet, basePath string) error {
	for _, dir := range []string{probabilityDir, frequencyDir, durationDir, categoriesDir, metadataDir} {
		if err := os.MkdirAll(filepath.Join(basePath, dir), 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	for _, cat := range set.Categories() {
		stat, _ := set.Get(cat)
		name := cat.Filename()
		if err := writeProbabilities(filepath.Join(basePath, probabilityDir, probPrefix+name+".csv"), set.Taxonomy(), stat); err != nil {
			return fmt.Errorf("save probabilities for %s: %w", cat, err)
		}
		if err := writeIntVectors(filepath.Join(basePath, frequencyDir, freqPrefix+name+".csv"), set.Taxonomy(), stat.Frequencies); err != nil {
			return fmt.Errorf("save frequencies for %s: %w", cat, err)
		}
		if err := writeIntVectors(filepath.Join(basePath, durationDir, durPrefix+name+".csv"), set.Taxonomy(), stat.Durations); err != nil {
			return fmt.Errorf("save durations for %s: %w", cat, err)
		}
	}

	if err := st.writeSizes(set, filepath.Join(basePath, categoriesDir, sizesFile)); err != nil {
		return fmt.Errorf("save category sizes: %w", err)
	}

	meta := metadata{
		Activities:        set.Taxonomy().Codes(),
		ResolutionMinutes: set.Resolution().Minutes(),
	}
	if err := writeJSON(filepath.Join(basePath, metadataDir, metadataFile), meta); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}

	st.logger.InfoContext(ctx, "saved validation set",
		"path", basePath,
		"categories", set.Len(),
		"activities", set.Taxonomy().Len(),
	)
	return nil
}

// Load reads a validation set from basePath and validates its
// structural invariants. A structurally invalid set surfaces as a
// DataIntegrityError.
func (st *Store) Load(ctx context.Context, basePath string) (*stats.ValidationSet, error) {
	var meta metadata
	if err := readJSON(filepath.Join(basePath, metadataDir, metadataFile), &meta); err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}
	resolution := diary.Resolution(meta.ResolutionMinutes)
	if !resolution.IsValid() {
		return nil, errors.NewDataIntegrity("load", fmt.Sprintf("invalid resolution %d in metadata", meta.ResolutionMinutes), 0)
	}
	taxonomy := diary.NewTaxonomy(meta.Activities)

	sizes, err := st.readSizes(filepath.Join(basePath, categoriesDir, sizesFile))
	if err != nil {
		return nil, fmt.Errorf("load category sizes: %w", err)
	}

	set := stats.NewValidationSet(taxonomy, resolution)
	for cat, size := range sizes {
		name := cat.Filename()
		stat := stats.CategoryStatistics{Category: cat, Size: size}

		stat.Probabilities, err = readProbabilities(filepath.Join(basePath, probabilityDir, probPrefix+name+".csv"))
		if err != nil {
			return nil, fmt.Errorf("load probabilities for %s: %w", cat, err)
		}
		stat.Frequencies, err = readIntVectors(filepath.Join(basePath, frequencyDir, freqPrefix+name+".csv"))
		if err != nil {
			return nil, fmt.Errorf("load frequencies for %s: %w", cat, err)
		}
		stat.Durations, err = readIntVectors(filepath.Join(basePath, durationDir, durPrefix+name+".csv"))
		if err != nil {
			return nil, fmt.Errorf("load durations for %s: %w", cat, err)
		}
		if err := set.Add(stat); err != nil {
			return nil, err
		}
	}

	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("loaded set is invalid: %w", err)
	}
	st.logger.InfoContext(ctx, "loaded validation set",
		"path", basePath,
		"categories", set.Len(),
		"activities", taxonomy.Len(),
	)
	return set, nil
}

func writeProbabilities(path string, taxonomy diary.Taxonomy, stat stats.CategoryStatistics) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()
	for _, code := range taxonomy.Codes() {
		probs := stat.Probabilities[code]
		record := make([]string, 0, len(probs)+1)
		record = append(record, code)
		for _, p := range probs {
			record = append(record, strconv.FormatFloat(p, 'g', -1, 64))
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write record for %s: %w", code, err)
		}
	}
	return w.Error()
}

func readProbabilities(path string) (map[string][]float64, error) {
	records, err := readRagged(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]float64, len(records))
	for _, record := range records {
		probs := make([]float64, 0, len(record)-1)
		for _, field := range record[1:] {
			p, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("parse probability %q: %w", field, err)
			}
			probs = append(probs, p)
		}
		out[record[0]] = probs
	}
	return out, nil
}

// writeIntVectors writes one possibly empty row of integers per
// taxonomy code, in taxonomy order.
func writeIntVectors(path string, taxonomy diary.Taxonomy, vectors map[string][]int) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()
	for _, code := range taxonomy.Codes() {
		record := make([]string, 0, len(vectors[code])+1)
		record = append(record, code)
		for _, v := range vectors[code] {
			record = append(record, strconv.Itoa(v))
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write record for %s: %w", code, err)
		}
	}
	return w.Error()
}

func readIntVectors(path string) (map[string][]int, error) {
	records, err := readRagged(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]int, len(records))
	for _, record := range records {
		var values []int
		for _, field := range record[1:] {
			v, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("parse count %q: %w", field, err)
			}
			values = append(values, v)
		}
		out[record[0]] = values
	}
	return out, nil
}

// readRagged reads a CSV file with variable-length records.
func readRagged(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	for _, record := range records {
		if len(record) == 0 || record[0] == "" {
			return nil, errors.NewDataIntegrity("load", "record without activity code in "+filepath.Base(path), 1)
		}
	}
	return records, nil
}

// writeSizes stores the category sizes table: one column per
// categorization attribute, then the size.
func (st *Store) writeSizes(set *stats.ValidationSet, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := append(append([]string(nil), diary.DefaultCategorizationAttributes()...), "Sizes")
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range set.CategorySizes().Rows {
		record := append(row.Category.Values(), strconv.Itoa(int(row.Value)))
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write record for %s: %w", row.Category, err)
		}
	}
	return w.Error()
}

func (st *Store) readSizes(path string) (map[diary.ProfileCategory]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.NewDataIntegrity("load", "empty category sizes table", 0)
	}
	header := records[0]
	if len(header) < 2 || header[len(header)-1] != "Sizes" {
		return nil, errors.NewDataIntegrity("load", "malformed category sizes header", 0)
	}
	names := header[: len(header)-1 : len(header)-1]

	out := make(map[diary.ProfileCategory]int, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != len(header) {
			return nil, errors.NewDataIntegrity("load", "malformed category sizes record", 1)
		}
		cat, err := diary.CategoryFromValues(names, record[:len(names)])
		if err != nil {
			return nil, fmt.Errorf("parse category: %w", err)
		}
		size, err := strconv.Atoi(record[len(names)])
		if err != nil {
			return nil, fmt.Errorf("parse size %q: %w", record[len(names)], err)
		}
		if _, dup := out[cat]; dup {
			return nil, errors.NewDataIntegrity("load", "duplicate category "+cat.String(), 1)
		}
		out[cat] = size
	}
	return out, nil
}

// SaveResults writes comparison results as a single JSON document.
func (st *Store) SaveResults(ctx context.Context, results []compare.Result, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := writeJSON(path, results); err != nil {
		return fmt.Errorf("save comparison results: %w", err)
	}
	st.logger.InfoContext(ctx, "saved comparison results", "path", path, "rows", len(results))
	return nil
}

// LoadResults reads comparison results written by SaveResults.
func (st *Store) LoadResults(ctx context.Context, path string) ([]compare.Result, error) {
	var results []compare.Result
	if err := readJSON(path, &results); err != nil {
		return nil, fmt.Errorf("load comparison results: %w", err)
	}
	st.logger.InfoContext(ctx, "loaded comparison results", "path", path, "rows", len(results))
	return results, nil
}

// LoadActivityMapping reads a many-to-one activity mapping artifact: a
// JSON object from source code to target code.
func LoadActivityMapping(path string) (map[string]string, error) {
	var mapping map[string]string
	if err := readJSON(path, &mapping); err != nil {
		return nil, fmt.Errorf("load activity mapping: %w", err)
	}
	if len(mapping) == 0 {
		return nil, errors.NewConfiguration("activity_mapping", "mapping file contains no entries")
	}
	return mapping, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse json %s: %w", filepath.Base(path), err)
	}
	return nil
}
