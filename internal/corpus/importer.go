package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/hyperjump/resumatch/internal/embedding"
	"github.com/hyperjump/resumatch/pkg/utils"
)

// ErrNoJobs is returned when an import yields no usable rows.
var ErrNoJobs = errors.New("no job postings with a description")

// JobRow is an imported posting before embedding.
type JobRow struct {
	ID          string
	Title       string
	Description string
}

// ReadJobs reads job postings from a .csv or .xlsx file. The header row must contain
// job_id and description columns; title is optional. Rows with an empty description are dropped.
func ReadJobs(path string) ([]JobRow, error) {
	var records [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = readCSV(path)
	case ".xlsx":
		records, err = readXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported job postings format %q (want .csv or .xlsx)", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return parseJobRows(records)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV: %w", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var out [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("Excel workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func parseJobRows(records [][]string) ([]JobRow, error) {
	if len(records) == 0 {
		return nil, errors.New("job postings file is empty")
	}
	col := map[string]int{}
	for i, h := range records[0] {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	idCol, okID := col["job_id"]
	descCol, okDesc := col["description"]
	if !okID || !okDesc {
		return nil, errors.New("job postings must have job_id and description columns")
	}
	titleCol, okTitle := col["title"]

	cell := func(row []string, i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	var out []JobRow
	for _, row := range records[1:] {
		desc := utils.CollapseWhitespace(cell(row, descCol))
		id := cell(row, idCol)
		if desc == "" || id == "" {
			continue
		}
		jr := JobRow{ID: id, Description: desc}
		if okTitle {
			jr.Title = cell(row, titleCol)
		}
		out = append(out, jr)
	}
	if len(out) == 0 {
		return nil, ErrNoJobs
	}
	return out, nil
}

// Precompute embeds every row in batches of batchSize and returns normalized records.
func Precompute(ctx context.Context, e embedding.Embedder, rows []JobRow, batchSize int, logger *zap.Logger) ([]JobRecord, error) {
	logger = utils.OrNop(logger)
	if batchSize <= 0 {
		batchSize = 32
	}
	out := make([]JobRecord, 0, len(rows))
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		texts := make([]string, end-start)
		for i, r := range rows[start:end] {
			texts[i] = r.Description
		}
		vecs, err := e.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed jobs %d-%d: %w", start, end-1, err)
		}
		for i, r := range rows[start:end] {
			out = append(out, JobRecord{
				ID:          r.ID,
				Title:       r.Title,
				Description: r.Description,
				Embedding:   utils.Normalized(vecs[i]),
			})
		}
		logger.Debug("embedded job batch", zap.Int("done", end), zap.Int("total", len(rows)))
	}
	return out, nil
}
