// Package session runs one consolidation pass: ingest every input file in
// caller order, merge into the persisted dataset, save the side-car, and
// emit the destination workbook.
package session

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"skusheet/internal/category"
	"skusheet/internal/config"
	"skusheet/internal/dataset"
	"skusheet/internal/ingest"
	"skusheet/internal/report"
	"skusheet/internal/store"
)

// Options is the explicit context the engine runs with. The caller supplies
// the ordered inputs, the destination, the category table, and a logger.
type Options struct {
	Inputs []string
	Output string
	Config config.Config
	Logger *zap.Logger
}

// Result summarizes a session for the caller.
type Result struct {
	SessionID string `json:"session_id"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Rows      int    `json:"rows"`
	Indices   []int  `json:"indices,omitempty"`
	Saved     bool   `json:"saved"`
	Output    string `json:"output"`
}

// Run executes one session. Per-file failures skip that file and continue;
// persistence failures degrade with a warning; only a destination-write
// failure is returned as an error.
func Run(ctx context.Context, opts Options) (Result, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	res := Result{SessionID: uuid.NewString(), Output: opts.Output}

	db, ds, stamps := loadState(ctx, opts.Output, log)
	if db != nil {
		defer db.Close()
	}

	// The starting index is fixed once per session; every input file
	// consumes the next consecutive integer whether or not it ingests.
	next := stamps.NextIndex()
	for i, path := range opts.Inputs {
		index := next + i
		log.Info("processing file", zap.String("file", path), zap.Int("file_index", index))

		snap, err := ingest.ReadSnapshot(path, index)
		if err != nil {
			log.Error("skipping file", zap.String("file", path), zap.Error(err))
			res.Skipped++
			audit(ctx, db, log, store.IngestEntry{
				SessionID: res.SessionID, FilePath: path, FileIndex: index,
				Status: "error", Detail: err.Error(),
			})
			continue
		}
		for _, w := range snap.Warnings {
			log.Warn("ingest warning", zap.String("file", path), zap.String("warning", w))
		}

		stamps.Record(index, snap.Stamp)
		ds.Incorporate(snap)
		res.Processed++
		res.Indices = append(res.Indices, index)
		audit(ctx, db, log, store.IngestEntry{
			SessionID: res.SessionID, FilePath: path, FileIndex: index,
			Status: "ok", Detail: fmt.Sprintf("%d row(s)", len(snap.Keys)),
		})
	}

	if db != nil {
		if err := store.Save(ctx, db, ds, stamps); err != nil {
			log.Warn("saving merged data failed; nothing persisted this session", zap.Error(err))
		} else {
			res.Saved = true
			log.Info("updated persistent merged data and timestamps")
		}
	}

	res.Rows = ds.Len()
	if err := report.Write(opts.Output, buildSheets(ds, stamps, opts.Config), stamps); err != nil {
		return res, err
	}
	log.Info("data consolidation complete", zap.String("output", opts.Output), zap.Int("rows", res.Rows))
	return res, nil
}

// loadState opens the side-car and loads the persisted dataset and
// registry. Any failure degrades to an empty starting state.
func loadState(ctx context.Context, output string, log *zap.Logger) (*sql.DB, *dataset.Dataset, dataset.Stamps) {
	db, err := store.Open(store.SidecarPath(output))
	if err != nil {
		log.Warn("opening side-car failed; starting from empty state", zap.Error(err))
		return nil, dataset.New(), dataset.Stamps{}
	}

	ds, err := store.LoadDataset(ctx, db)
	if err != nil {
		log.Warn("loading merged data failed; starting from empty dataset", zap.Error(err))
		ds = dataset.New()
	} else if !ds.Empty() {
		log.Info("loaded existing merged data", zap.Int("rows", ds.Len()))
	}

	stamps, err := store.LoadStamps(ctx, db)
	if err != nil {
		log.Warn("loading timestamps failed; starting from empty registry", zap.Error(err))
		stamps = dataset.Stamps{}
	}
	return db, ds, stamps
}

func audit(ctx context.Context, db *sql.DB, log *zap.Logger, e store.IngestEntry) {
	if db == nil {
		return
	}
	if err := store.LogIngest(ctx, db, e); err != nil {
		log.Warn("audit log write failed", zap.Error(err))
	}
}

// buildSheets assembles the full output: the General sheet, a General_<cat>
// sheet per non-empty category, and every category x field sheet from the
// config table (empty ones keep their headers).
func buildSheets(ds *dataset.Dataset, stamps dataset.Stamps, cfg config.Config) []report.Sheet {
	general := ds.Wide()
	sheets := []report.Sheet{{Name: "General", Table: general}}

	for _, rule := range cfg.Categories {
		full := category.Filter(general, rule)
		if len(full.Rows) > 0 {
			sheets = append(sheets, report.Sheet{Name: "General_" + rule.Name, Table: full})
		}
	}
	for _, rule := range cfg.Categories {
		for _, field := range dataset.DataFields {
			name, ok := rule.Sheets[field]
			if !ok {
				continue
			}
			t := category.Extract(general, rule, field)
			if len(t.Rows) == 0 {
				t = emptyFieldTable(field)
			}
			sheets = append(sheets, report.Sheet{Name: name, Table: t})
		}
	}
	return sheets
}

// emptyFieldTable is the header-only shape an empty category sheet keeps:
// the reference columns plus the bare field name.
func emptyFieldTable(field string) dataset.Table {
	cols := make([]dataset.Column, 0, 4)
	for _, name := range dataset.RefFields {
		cols = append(cols, dataset.Column{Name: name, Base: name})
	}
	cols = append(cols, dataset.Column{Name: field, Base: field})
	return dataset.Table{Columns: cols}
}
