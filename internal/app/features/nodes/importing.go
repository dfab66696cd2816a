package nodes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/stratacontent/internal/app/store/importrun"
	"github.com/dalemusser/stratacontent/internal/app/system/auth"
	"github.com/dalemusser/stratacontent/internal/app/system/ingest"
	"github.com/dalemusser/stratacontent/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	maxImportSize = 10 << 20 // 10MB
	importTimeout = 30 * time.Minute

	// progressSteps is roughly how many progress writes one import makes.
	progressSteps = 50
)

// Import handles POST /import. The multipart "file" part is parsed as CSV
// and ingested into the tree. The run is recorded so its progress can be
// polled at GET /imports/{id}. By default ingestion continues after the
// response (202); ?wait=1 holds the response until it finishes.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		jsonutil.BadRequest(w, "Upload too large or malformed")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		jsonutil.BadRequest(w, "CSV file is required")
		return
	}
	defer file.Close()

	rows, err := ingest.ParseCSV(file)
	if err != nil {
		jsonutil.BadRequest(w, "Invalid CSV: "+err.Error())
		return
	}
	if len(rows) == 0 {
		jsonutil.BadRequest(w, "CSV has no rows")
		return
	}

	actor := auth.Actor(r)
	run, err := h.runs.Start(r.Context(), header.Filename, actor.Email, len(rows))
	if err != nil {
		h.logger.Error("start import run failed", zap.Error(err))
		jsonutil.InternalError(w, "Failed to start import")
		return
	}

	h.logger.Info("import started",
		zap.String("run", run.ID.Hex()),
		zap.String("source", header.Filename),
		zap.Int("rows", len(rows)))

	wait := r.URL.Query().Get("wait")
	if wait == "1" || wait == "true" {
		ctx, cancel := context.WithTimeout(r.Context(), importTimeout)
		defer cancel()
		_, ingestErr := h.runImport(ctx, r, run.ID, rows)

		final, err := h.runs.GetByID(r.Context(), run.ID)
		if err != nil {
			h.logger.Error("reload import run failed", zap.String("run", run.ID.Hex()), zap.Error(err))
			jsonutil.InternalError(w, "Failed to load import")
			return
		}
		if ingestErr != nil {
			jsonutil.JSON(w, http.StatusInternalServerError, map[string]any{
				"error":  ingestErr.Error(),
				"import": final,
			})
			return
		}
		jsonutil.Success(w, map[string]any{"import": final})
		return
	}

	// The request context ends with the response; the import must not.
	bg := r.Clone(context.WithoutCancel(r.Context()))
	go func() {
		ctx, cancel := context.WithTimeout(bg.Context(), importTimeout)
		defer cancel()
		_, _ = h.runImport(ctx, bg, run.ID, rows)
		if h.afterImport != nil {
			h.afterImport(run.ID)
		}
	}()

	jsonutil.JSON(w, http.StatusAccepted, map[string]any{
		"ok":     true,
		"import": run,
	})
}

// runImport ingests rows, records progress and the outcome on the run, and
// writes the audit event. The returned error is the ingestion failure.
func (h *Handler) runImport(ctx context.Context, r *http.Request, runID primitive.ObjectID, rows []ingest.Row) (ingest.Result, error) {
	step := len(rows) / progressSteps
	if step < 1 {
		step = 1
	}
	progress := func(done, total int) {
		if done%step != 0 && done != total {
			return
		}
		if err := h.runs.Progress(ctx, runID, done, total); err != nil {
			h.logger.Debug("import progress not recorded",
				zap.String("run", runID.Hex()), zap.Error(err))
		}
	}

	res, err := ingest.Run(ctx, h.nodes, rows, progress)
	counts := importrun.Counts{
		Processed:      res.Rows,
		FoldersCreated: res.FoldersCreated,
		NodesCreated:   res.NodesCreated,
		NodesUpdated:   res.NodesUpdated,
	}

	// Record the outcome even if ctx ran out.
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err != nil {
		h.logger.Warn("import failed",
			zap.String("run", runID.Hex()),
			zap.Int("processed", res.Rows),
			zap.Error(err))
		if ferr := h.runs.Fail(finishCtx, runID, counts, err); ferr != nil {
			h.logger.Error("record import failure failed", zap.String("run", runID.Hex()), zap.Error(ferr))
		}
		return res, err
	}

	if cerr := h.runs.Complete(finishCtx, runID, counts); cerr != nil {
		h.logger.Error("record import completion failed", zap.String("run", runID.Hex()), zap.Error(cerr))
	}
	h.logger.Info("import completed",
		zap.String("run", runID.Hex()),
		zap.Int("rows", res.Rows),
		zap.Int("folders_created", res.FoldersCreated),
		zap.Int("nodes_created", res.NodesCreated),
		zap.Int("nodes_updated", res.NodesUpdated))
	h.audit.NodesImported(r, auth.Actor(r), runID.Hex(), res.Rows, res.NodesCreated, res.NodesUpdated)
	return res, nil
}

// ListImports handles GET /imports.
func (h *Handler) ListImports(w http.ResponseWriter, r *http.Request) {
	runs, err := h.runs.ListRecent(r.Context(), 20)
	if err != nil {
		h.logger.Error("list import runs failed", zap.Error(err))
		jsonutil.InternalError(w, "Failed to list imports")
		return
	}
	jsonutil.Success(w, map[string]any{"imports": runs})
}

// GetImport handles GET /imports/{id}.
func (h *Handler) GetImport(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid import id")
		return
	}

	run, err := h.runs.GetByID(r.Context(), id)
	if errors.Is(err, importrun.ErrNotFound) {
		jsonutil.NotFound(w, "Import not found")
		return
	}
	if err != nil {
		h.logger.Error("get import run failed", zap.String("id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "Failed to load import")
		return
	}
	jsonutil.Success(w, map[string]any{"import": run})
}
