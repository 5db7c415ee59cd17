package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/rebeauty/pkg/client"
)

// Creator is the part of the API client used to register customers.
type Creator interface {
	CreateCustomer(ctx context.Context, in client.CustomerInput) (*client.Customer, error)
}

// RowError is a failed line of an import.
type RowError struct {
	Line  int    `json:"line"`
	Name  string `json:"name,omitempty"`
	Error string `json:"error"`
}

// Report summarizes an import run.
type Report struct {
	Total   int        `json:"total"`
	Created int        `json:"created"`
	Failed  int        `json:"failed"`
	DryRun  bool       `json:"dry_run,omitempty"`
	Errors  []RowError `json:"errors,omitempty"`
	IDs     []int64    `json:"ids,omitempty"`
}

// Importer pushes parsed rows to the API.
type Importer struct {
	creator Creator
	logger  *slog.Logger
	dryRun  bool
}

// New creates an Importer. With dryRun set, rows are validated but nothing
// is sent; creator may then be nil.
func New(creator Creator, logger *slog.Logger, dryRun bool) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{creator: creator, logger: logger, dryRun: dryRun}
}

// Run creates one customer per valid row, continuing past failures. It
// stops early only when ctx is cancelled, returning the partial report.
func (im *Importer) Run(ctx context.Context, rows []Row) (*Report, error) {
	rep := &Report{Total: len(rows), DryRun: im.dryRun}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if row.Err != nil {
			rep.fail(row, row.Err)
			continue
		}
		if im.dryRun {
			rep.Created++
			continue
		}

		cu, err := im.creator.CreateCustomer(ctx, row.Input)
		if err != nil {
			if ctx.Err() != nil {
				return rep, ctx.Err()
			}
			im.logger.Warn("import row failed", "line", row.Line, "error", err)
			rep.fail(row, err)
			continue
		}
		rep.Created++
		rep.IDs = append(rep.IDs, cu.ID)
	}

	im.logger.Info("import complete", "total", rep.Total, "created", rep.Created, "failed", rep.Failed, "dry_run", im.dryRun)
	return rep, nil
}

func (r *Report) fail(row Row, err error) {
	r.Failed++
	r.Errors = append(r.Errors, RowError{Line: row.Line, Name: row.Input.Name, Error: err.Error()})
}

// String renders a one-line summary.
func (r *Report) String() string {
	verb := "created"
	if r.DryRun {
		verb = "valid"
	}
	return fmt.Sprintf("%d rows, %d %s, %d failed", r.Total, r.Created, verb, r.Failed)
}
