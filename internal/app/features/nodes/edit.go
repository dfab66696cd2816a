package nodes

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/stratacontent/internal/app/store/audit"
	nodestore "github.com/dalemusser/stratacontent/internal/app/store/node"
	"github.com/dalemusser/stratacontent/internal/app/system/auth"
	"github.com/dalemusser/stratacontent/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacontent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	errParentNotFound = errors.New("parent not found")
	errParentNotDir   = errors.New("parent is not a folder")
)

// checkParent confirms parentID names an existing folder. A nil parent is
// the root and always valid.
func (h *Handler) checkParent(ctx context.Context, parentID *primitive.ObjectID) error {
	if parentID == nil {
		return nil
	}
	p, err := h.nodes.GetByID(ctx, *parentID)
	if errors.Is(err, nodestore.ErrNotFound) {
		return errParentNotFound
	}
	if err != nil {
		return err
	}
	if !p.IsFolder() {
		return errParentNotDir
	}
	return nil
}

// writeParentError maps a checkParent failure to a response.
func (h *Handler) writeParentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errParentNotFound):
		jsonutil.BadRequest(w, "Parent folder not found")
	case errors.Is(err, errParentNotDir):
		jsonutil.BadRequest(w, "Parent must be a folder")
	default:
		h.logger.Error("parent lookup failed", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load parent")
	}
}

// Create handles POST /. When order is omitted the node is placed after
// its last sibling.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON body")
		return
	}
	req.normalize()
	if err := req.validate(); err != nil {
		jsonutil.BadRequest(w, validationMessage(err))
		return
	}

	ctx := r.Context()
	parentID, _ := parseParent(req.ParentID)
	if err := h.checkParent(ctx, parentID); err != nil {
		h.writeParentError(w, err)
		return
	}

	order := 0
	if req.Order != nil {
		order = *req.Order
	} else {
		maxOrder, err := h.nodes.GetMaxOrder(ctx, parentID)
		if err != nil {
			h.logger.Error("max order failed", zap.Error(err))
			jsonutil.InternalError(w, "Failed to create node")
			return
		}
		order = maxOrder + 1
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	input := nodestore.CreateInput{
		Type:     models.NodeType(req.Type),
		Name:     req.Name,
		ParentID: parentID,
		Order:    order,
		IsActive: isActive,
	}
	if input.Type != models.NodeFolder {
		input.URL = req.URL
		input.Mime = req.Mime
		input.CDNURL = req.CDNURL
	}

	n, err := h.nodes.Create(ctx, input)
	if err != nil {
		h.logger.Error("create node failed", zap.String("name", req.Name), zap.Error(err))
		jsonutil.InternalError(w, "Failed to create node")
		return
	}

	h.logger.Info("node created",
		zap.String("id", n.ID.Hex()),
		zap.String("type", string(n.Type)),
		zap.String("name", n.Name))
	h.audit.Admin(r, auth.Actor(r), audit.EventNodeCreated, n.ID.Hex(), map[string]string{
		"type": string(n.Type),
		"name": n.Name,
	})

	jsonutil.Success(w, map[string]any{"node": toItem(*n)})
}

// Update handles PATCH /{id}. "parentId": null moves the node to the root.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := nodeID(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON body")
		return
	}
	if req.empty() {
		jsonutil.BadRequest(w, "No fields to update")
		return
	}
	req.normalize()
	if err := req.validate(); err != nil {
		jsonutil.BadRequest(w, validationMessage(err))
		return
	}

	ctx := r.Context()
	current, err := h.nodes.GetByID(ctx, id)
	if errors.Is(err, nodestore.ErrNotFound) {
		jsonutil.NotFound(w, "Node not found")
		return
	}
	if err != nil {
		h.logger.Error("get node failed", zap.String("id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "Failed to update node")
		return
	}

	input := nodestore.UpdateInput{
		Name:     req.Name,
		Order:    req.Order,
		IsActive: req.IsActive,
		URL:      req.URL,
		Mime:     req.Mime,
		CDNURL:   req.CDNURL,
	}

	if req.Type != nil {
		t := models.NodeType(*req.Type)
		if current.IsFolder() && t != models.NodeFolder {
			n, err := h.nodes.CountChildren(ctx, &id)
			if err != nil {
				h.logger.Error("count children failed", zap.String("id", id.Hex()), zap.Error(err))
				jsonutil.InternalError(w, "Failed to update node")
				return
			}
			if n > 0 {
				jsonutil.Conflict(w, "A folder with children cannot change type")
				return
			}
		}
		input.Type = &t
	}

	effective := current.Type
	if input.Type != nil {
		effective = *input.Type
	}
	if effective == models.NodeFolder && (req.URL != nil || req.Mime != nil || req.CDNURL != nil) {
		jsonutil.BadRequest(w, "Folders cannot have url, mime or cdnUrl")
		return
	}

	if req.ParentID.Set {
		msg, err := h.checkMove(ctx, id, req.ParentID.ID)
		if err != nil {
			h.writeParentError(w, err)
			return
		}
		if msg != "" {
			jsonutil.BadRequest(w, msg)
			return
		}
		input.MoveTo = &nodestore.ParentRef{ID: req.ParentID.ID}
	}

	if err := h.nodes.Update(ctx, id, input); err != nil {
		if errors.Is(err, nodestore.ErrNotFound) {
			jsonutil.NotFound(w, "Node not found")
			return
		}
		h.logger.Error("update node failed", zap.String("id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "Failed to update node")
		return
	}

	updated, err := h.nodes.GetByID(ctx, id)
	if err != nil {
		h.logger.Error("reload node failed", zap.String("id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "Failed to load node")
		return
	}

	h.audit.Admin(r, auth.Actor(r), audit.EventNodeUpdated, id.Hex(), nil)
	jsonutil.Success(w, map[string]any{"node": toItem(*updated)})
}

// checkMove rejects moves under the node itself or one of its descendants.
// A non-empty message is a client error; a non-nil error is a parent
// lookup failure.
func (h *Handler) checkMove(ctx context.Context, id primitive.ObjectID, target *primitive.ObjectID) (string, error) {
	if target == nil {
		return "", nil
	}
	if *target == id {
		return "A node cannot be its own parent", nil
	}
	if err := h.checkParent(ctx, target); err != nil {
		return "", err
	}
	chain, err := h.nodes.GetAncestors(ctx, *target)
	if errors.Is(err, nodestore.ErrCycle) {
		return "Target folder is part of a cycle", nil
	}
	if err != nil {
		return "", err
	}
	for _, a := range chain {
		if a.ID == id {
			return "Cannot move a folder into its own subtree", nil
		}
	}
	return "", nil
}

// Delete handles DELETE /{id}. Folders are removed with their subtree.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := nodeID(w, r)
	if !ok {
		return
	}

	deleted, err := h.nodes.RecursiveDelete(r.Context(), id)
	if err != nil {
		if errors.Is(err, nodestore.ErrNotFound) {
			jsonutil.NotFound(w, "Node not found")
			return
		}
		h.logger.Error("recursive delete failed",
			zap.String("id", id.Hex()),
			zap.Int("deleted", deleted),
			zap.Error(err))
		jsonutil.JSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "Delete failed",
			"deleted": deleted,
		})
		return
	}

	h.logger.Info("node deleted", zap.String("id", id.Hex()), zap.Int("deleted", deleted))
	h.audit.Admin(r, auth.Actor(r), audit.EventNodeDeleted, id.Hex(), map[string]string{
		"deleted": strconv.Itoa(deleted),
	})
	jsonutil.Success(w, map[string]any{"deleted": deleted})
}
