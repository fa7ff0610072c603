// Package sync holds the reconciliation engine: mapping source rows onto the
// destination schema, deciding which rows are new relative to the last
// synced position, and driving the fetch, stage and upload steps through
// durable intermediate files.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/safcost/banksync/internal/config"
	"github.com/safcost/banksync/internal/domain"
	"github.com/safcost/banksync/internal/grist"
	"github.com/safcost/banksync/internal/logger"
	"github.com/safcost/banksync/internal/staging"
)

// RowSource provides the raw source records, typically out of a spreadsheet.
type RowSource interface {
	FetchAllRows(ctx context.Context) ([]domain.TransactionRecord, error)
}

// Runner drives the pipeline stages. Each stage reads its input from a
// durable file written by the previous one, so a crashed run can be resumed
// by rerunning the binary.
type Runner struct {
	cfg    *config.Config
	store  grist.TableStore
	source RowSource

	snapshots *staging.Store
	batches   *staging.Store

	// PerRecordUpload switches Upload to one insert call per record with the
	// configured delay in between, for rate-limited destinations.
	PerRecordUpload bool

	batchID string
	now     func() time.Time
}

// NewRunner wires a Runner over the configured directories. The source may
// be nil when only staging or uploading existing files.
func NewRunner(cfg *config.Config, store grist.TableStore, source RowSource) *Runner {
	return &Runner{
		cfg:       cfg,
		store:     store,
		source:    source,
		snapshots: staging.NewStore(cfg.Dirs.Data, cfg.Dirs.Archive),
		batches:   staging.NewStore(cfg.Dirs.Staging, cfg.Dirs.Archive),
		batchID:   uuid.NewString(),
		now:       time.Now,
	}
}

// Run executes the full pipeline for today. A staged batch left over from an
// interrupted run is uploaded before anything else, and an existing snapshot
// for today skips the source fetch.
func (r *Runner) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	ctx = logger.WithContext(ctx, log.With().Str("batch_id", r.batchID).Logger())
	log = logger.FromContext(ctx)

	name := staging.DailyName(r.now())

	if r.batches.Exists(name) {
		log.Info().Str("file", name).Msg("Staged batch found, resuming upload")
		return r.Upload(ctx)
	}

	if r.snapshots.Exists(name) {
		log.Info().Str("file", name).Msg("Snapshot for today exists, skipping source fetch")
	} else {
		if err := r.Fetch(ctx); err != nil {
			return err
		}
	}

	if err := r.Stage(ctx); err != nil {
		return err
	}
	return r.Upload(ctx)
}

// Fetch pulls all rows from the source and writes today's snapshot file. An
// empty source still produces a (empty) snapshot so the later stages observe
// and archive it.
func (r *Runner) Fetch(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if r.source == nil {
		return fmt.Errorf("fetch stage: no source configured")
	}
	if err := r.cfg.EnsureDirs(); err != nil {
		return fmt.Errorf("fetch stage: %w", err)
	}

	records, err := r.source.FetchAllRows(ctx)
	if err != nil {
		return fmt.Errorf("fetch stage: %w", err)
	}

	name := staging.DailyName(r.now())
	if err := r.snapshots.Write(name, records); err != nil {
		return fmt.Errorf("fetch stage: %w", err)
	}
	log.Info().
		Str("file", name).
		Int("records", len(records)).
		Msg("Snapshot written")
	return nil
}

// Stage reads today's snapshot, resolves the sync cursor against the
// destination, and writes the records classified as new into a staged batch
// file. The snapshot is archived once the batch is durable.
func (r *Runner) Stage(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if err := r.cfg.EnsureDirs(); err != nil {
		return fmt.Errorf("stage: %w", err)
	}

	name := staging.DailyName(r.now())
	if !r.snapshots.Exists(name) {
		return fmt.Errorf("stage: snapshot %s not found, run fetch first", name)
	}

	records, err := r.snapshots.Read(name)
	if err != nil {
		return fmt.Errorf("stage: %w", err)
	}
	if len(records) == 0 {
		log.Info().Str("file", name).Msg("Snapshot is empty, nothing to stage")
		if _, err := r.snapshots.Archive(name, ""); err != nil {
			return fmt.Errorf("stage: %w", err)
		}
		return nil
	}

	columns, err := r.store.Columns(ctx)
	if err != nil {
		return fmt.Errorf("stage: fetch destination columns: %w", err)
	}
	schema := grist.SchemaFromColumns(columns)

	cursor, err := ResolveCursor(ctx, r.store, schema, r.cfg.Sync.QueryWindow)
	if err != nil {
		return fmt.Errorf("stage: %w", err)
	}
	log.Info().Str("cursor", cursor.Describe()).Msg("Cursor resolved")

	var (
		fresh      []domain.TransactionRecord
		duplicates int
		old        int
	)
	for _, rec := range records {
		switch cursor.Classify(rec) {
		case ClassNew:
			fresh = append(fresh, rec)
		case ClassDuplicate:
			duplicates++
			log.Debug().Int("row", rec.RowNum).Msg("Skipping duplicate record")
		case ClassBeforeCursor:
			old++
		}
	}
	log.Info().
		Int("total", len(records)).
		Int("new", len(fresh)).
		Int("duplicates", duplicates).
		Int("before_cursor", old).
		Msg("Records classified")

	if err := r.batches.Write(name, fresh); err != nil {
		return fmt.Errorf("stage: %w", err)
	}
	if _, err := r.snapshots.Archive(name, ""); err != nil {
		return fmt.Errorf("stage: %w", err)
	}
	return nil
}

// Upload maps the most recent staged batch onto the destination schema and
// inserts it, then archives the batch under the uploaded prefix. The batch
// file is only archived after the insert succeeds, so a failed upload leaves
// it in place for a retry.
func (r *Runner) Upload(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if err := r.cfg.EnsureDirs(); err != nil {
		return fmt.Errorf("upload stage: %w", err)
	}

	name, found, err := r.batches.Latest()
	if err != nil {
		return fmt.Errorf("upload stage: %w", err)
	}
	if !found {
		log.Info().Msg("No staged batch to upload")
		return nil
	}

	records, err := r.batches.Read(name)
	if err != nil {
		return fmt.Errorf("upload stage: %w", err)
	}

	var mapped []grist.RecordFields
	if len(records) > 0 {
		columns, err := r.store.Columns(ctx)
		if err != nil {
			return fmt.Errorf("upload stage: fetch destination columns: %w", err)
		}
		schema := grist.SchemaFromColumns(columns)

		for _, rec := range records {
			fields := Prepare(ctx, rec, schema)
			if len(fields) == 0 {
				log.Warn().Int("row", rec.RowNum).Msg("Record mapped to no fields, skipping")
				continue
			}
			// Tag each record with the batch id when the destination tracks
			// it, so a retried batch can be deduplicated remotely.
			if schema.HasColumn(domain.ColBatchID) {
				fields[domain.ColBatchID] = r.batchID
			}
			mapped = append(mapped, fields)
		}
	}

	switch {
	case len(mapped) == 0:
		log.Info().Str("file", name).Msg("Staged batch has no uploadable records")
	case r.PerRecordUpload:
		for i, fields := range mapped {
			if err := r.store.BulkInsert(ctx, []grist.RecordFields{fields}); err != nil {
				return fmt.Errorf("upload stage: record %d of %d: %w", i+1, len(mapped), err)
			}
			if r.cfg.Sync.PerRecordDelay > 0 && i < len(mapped)-1 {
				time.Sleep(r.cfg.Sync.PerRecordDelay)
			}
		}
		log.Info().Int("records", len(mapped)).Msg("Records uploaded individually")
	default:
		if err := r.store.BulkInsert(ctx, mapped); err != nil {
			return fmt.Errorf("upload stage: %w", err)
		}
		log.Info().Int("records", len(mapped)).Msg("Records uploaded")
	}

	if _, err := r.batches.Archive(name, staging.UploadedPrefix); err != nil {
		return fmt.Errorf("upload stage: %w", err)
	}
	return nil
}
