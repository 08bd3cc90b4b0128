package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/resumatch/internal/embedding"
	"github.com/hyperjump/resumatch/internal/vector"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadJobs_csv(t *testing.T) {
	path := writeFile(t, "jobs.csv", "job_id,title,description\n"+
		"101,Backend Engineer,\"Build Go\n services\"\n"+
		"102,Empty,   \n"+
		"103,,Data analyst with SQL\n")
	rows, err := ReadJobs(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].ID != "101" || rows[0].Description != "Build Go services" || rows[0].Title != "Backend Engineer" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].ID != "103" || rows[1].Title != "" {
		t.Errorf("row 1 = %+v", rows[1])
	}
}

func TestReadJobs_missingColumns(t *testing.T) {
	path := writeFile(t, "jobs.csv", "id,text\n1,hello\n")
	if _, err := ReadJobs(path); err == nil {
		t.Error("expected error for missing job_id/description columns")
	}
}

func TestReadJobs_noUsableRows(t *testing.T) {
	path := writeFile(t, "jobs.csv", "job_id,description\n1,\n2,  \n")
	if _, err := ReadJobs(path); !errors.Is(err, ErrNoJobs) {
		t.Errorf("expected ErrNoJobs, got %v", err)
	}
}

func TestReadJobs_unsupported(t *testing.T) {
	path := writeFile(t, "jobs.json", "[]")
	if _, err := ReadJobs(path); err == nil {
		t.Error("expected error for .json")
	}
}

func TestReadJobs_xlsx(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetSheetRow(sheet, "A1", &[]interface{}{"Description", "JOB_ID", "Title"})
	_ = f.SetSheetRow(sheet, "A2", &[]interface{}{"Kubernetes operator", "7", "SRE"})
	path := filepath.Join(t.TempDir(), "jobs.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	rows, err := ReadJobs(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ID != "7" || rows[0].Title != "SRE" || rows[0].Description != "Kubernetes operator" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestPrecompute(t *testing.T) {
	e := embedding.NewMockEmbedder(8)
	rows := []JobRow{
		{ID: "1", Description: "a"}, {ID: "2", Description: "b"}, {ID: "3", Description: "c"},
	}
	records, err := Precompute(context.Background(), e, rows, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 || records[2].ID != "3" {
		t.Fatalf("records = %+v", records)
	}
	for _, r := range records {
		if len(r.Embedding) != 8 || !vector.IsNormalized(r.Embedding, 1e-5) {
			t.Errorf("record %s embedding = %v", r.ID, r.Embedding)
		}
	}
}

func TestPrecompute_embedFailure(t *testing.T) {
	e := embedding.NewMockEmbedder(4)
	boom := errors.New("quota exceeded")
	e.FailOn("bad", boom)
	_, err := Precompute(context.Background(), e, []JobRow{{ID: "1", Description: "bad job"}}, 0, nil)
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped failure, got %v", err)
	}
}
