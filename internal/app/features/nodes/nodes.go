// Package nodes exposes the content tree to admins.
//
// Endpoints (mounted at /api/nodes, bearer + admin):
//   - GET    /?parentId=            - list children (blank = root)
//   - GET    /max-order?parentId=   - highest order among the children
//   - POST   /                      - create a node
//   - POST   /import                - ingest a CSV upload
//   - GET    /imports               - recent import runs
//   - GET    /imports/{id}          - one import run with its progress
//   - GET    /{id}                  - one node
//   - GET    /{id}/ancestors        - root-first breadcrumb
//   - PATCH  /{id}                  - partial update or move
//   - DELETE /{id}                  - delete the node and its subtree
//   - POST   /{id}/background       - upload a root folder's background
package nodes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/stratacontent/internal/app/store/importrun"
	nodestore "github.com/dalemusser/stratacontent/internal/app/store/node"
	"github.com/dalemusser/stratacontent/internal/app/system/auditlog"
	"github.com/dalemusser/stratacontent/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacontent/internal/app/system/urlmeta"
	"github.com/dalemusser/stratacontent/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the content tree endpoints.
type Handler struct {
	nodes   *nodestore.Store
	runs    *importrun.Store
	storage storage.Store
	audit   *auditlog.Logger
	logger  *zap.Logger

	// afterImport, when set, runs once a background import has finished.
	afterImport func(runID primitive.ObjectID)
}

// NewHandler creates a Handler. fileStorage may be nil, in which case
// background uploads answer 500.
func NewHandler(db *mongo.Database, fileStorage storage.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		nodes:   nodestore.New(db),
		runs:    importrun.New(db),
		storage: fileStorage,
		audit:   audit,
		logger:  logger,
	}
}

// Routes returns the router; the caller applies auth.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/max-order", h.MaxOrder)
	r.Post("/import", h.Import)
	r.Get("/imports", h.ListImports)
	r.Get("/imports/{id}", h.GetImport)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Patch("/", h.Update)
		r.Delete("/", h.Delete)
		r.Get("/ancestors", h.Ancestors)
		r.Post("/background", h.UploadBackground)
	})
	return r
}

// nodeItem is a node as returned to the admin UI.
type nodeItem struct {
	models.Node
	PreviewHref string `json:"previewHref"`
}

func toItem(n models.Node) nodeItem {
	return nodeItem{
		Node:        n,
		PreviewHref: urlmeta.PreviewHref(n.Provider, n.VideoID, n.DriveID, n.URL),
	}
}

// parseParent reads an optional parent id. Blank means the root.
func parseParent(raw string) (*primitive.ObjectID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, err
	}
	return &oid, nil
}

// nodeID parses the {id} URL parameter, writing a 400 on failure.
func nodeID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid node id")
		return primitive.NilObjectID, false
	}
	return oid, true
}

// List handles GET /?parentId=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	parentID, err := parseParent(r.URL.Query().Get("parentId"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid parentId")
		return
	}

	children, err := h.nodes.ListChildren(r.Context(), parentID)
	if err != nil {
		h.logger.Error("list nodes failed", zap.Error(err))
		jsonutil.InternalError(w, "Failed to list nodes")
		return
	}

	items := make([]nodeItem, 0, len(children))
	for _, n := range children {
		items = append(items, toItem(n))
	}
	jsonutil.Success(w, map[string]any{"items": items})
}

// MaxOrder handles GET /max-order?parentId=.
func (h *Handler) MaxOrder(w http.ResponseWriter, r *http.Request) {
	parentID, err := parseParent(r.URL.Query().Get("parentId"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid parentId")
		return
	}

	maxOrder, err := h.nodes.GetMaxOrder(r.Context(), parentID)
	if err != nil {
		h.logger.Error("max order failed", zap.Error(err))
		jsonutil.InternalError(w, "Failed to read order")
		return
	}
	jsonutil.Success(w, map[string]any{"maxOrder": maxOrder})
}

// Get handles GET /{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := nodeID(w, r)
	if !ok {
		return
	}

	n, err := h.nodes.GetByID(r.Context(), id)
	if errors.Is(err, nodestore.ErrNotFound) {
		jsonutil.NotFound(w, "Node not found")
		return
	}
	if err != nil {
		h.logger.Error("get node failed", zap.String("id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "Failed to load node")
		return
	}
	jsonutil.Success(w, map[string]any{"node": toItem(*n)})
}

// Ancestors handles GET /{id}/ancestors.
func (h *Handler) Ancestors(w http.ResponseWriter, r *http.Request) {
	id, ok := nodeID(w, r)
	if !ok {
		return
	}

	chain, err := h.nodes.GetAncestors(r.Context(), id)
	switch {
	case errors.Is(err, nodestore.ErrNotFound):
		jsonutil.NotFound(w, "Node not found")
		return
	case err != nil:
		h.logger.Error("ancestors failed", zap.String("id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "Failed to load ancestors")
		return
	}

	items := make([]nodeItem, 0, len(chain))
	for _, n := range chain {
		items = append(items, toItem(n))
	}
	jsonutil.Success(w, map[string]any{"ancestors": items})
}
