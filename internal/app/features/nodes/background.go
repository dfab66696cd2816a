package nodes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dalemusser/stratacontent/internal/app/store/audit"
	nodestore "github.com/dalemusser/stratacontent/internal/app/store/node"
	"github.com/dalemusser/stratacontent/internal/app/system/auth"
	"github.com/dalemusser/stratacontent/internal/app/system/jsonutil"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxImageSize = 10 << 20 // 10MB

// UploadBackground handles POST /{id}/background. The multipart "image"
// part is stored and its public URL becomes the folder's bgImageUrl. Only
// root folders carry backgrounds.
func (h *Handler) UploadBackground(w http.ResponseWriter, r *http.Request) {
	id, ok := nodeID(w, r)
	if !ok {
		return
	}
	if h.storage == nil {
		h.logger.Error("background upload without file storage")
		jsonutil.InternalError(w, "File storage is not configured")
		return
	}

	ctx := r.Context()
	n, err := h.nodes.GetByID(ctx, id)
	if errors.Is(err, nodestore.ErrNotFound) {
		jsonutil.NotFound(w, "Node not found")
		return
	}
	if err != nil {
		h.logger.Error("get node failed", zap.String("id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "Failed to load node")
		return
	}
	if !n.IsFolder() || !n.IsRoot() {
		jsonutil.BadRequest(w, "Backgrounds can only be set on root folders")
		return
	}

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		jsonutil.BadRequest(w, "Upload too large or malformed")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		jsonutil.BadRequest(w, "Image file is required")
		return
	}
	defer file.Close()

	// Sniff the first 512 bytes rather than trusting the part header.
	head := make([]byte, 512)
	nRead, _ := io.ReadFull(file, head)
	contentType := http.DetectContentType(head[:nRead])
	if !strings.HasPrefix(contentType, "image/") {
		jsonutil.BadRequest(w, "File must be an image")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		h.logger.Error("rewind upload failed", zap.Error(err))
		jsonutil.InternalError(w, "Failed to read upload")
		return
	}

	path, err := h.storeBackground(ctx, header.Filename, file, contentType)
	if err != nil {
		h.logger.Error("background upload failed", zap.String("id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "Failed to store image")
		return
	}

	bgURL := h.storage.URL(path)
	if err := h.nodes.Update(ctx, id, nodestore.UpdateInput{BgImageURL: &bgURL}); err != nil {
		_ = h.storage.Delete(ctx, path)
		h.logger.Error("set background failed", zap.String("id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "Failed to update node")
		return
	}

	h.logger.Info("background set",
		zap.String("id", id.Hex()),
		zap.String("path", path))
	h.audit.Admin(r, auth.Actor(r), audit.EventBackgroundSet, id.Hex(), map[string]string{
		"path": path,
	})

	jsonutil.Success(w, map[string]any{
		"id":         id.Hex(),
		"bgImageUrl": bgURL,
	})
}

// storeBackground writes an image under backgrounds/YYYY/MM/ and returns
// its storage path.
func (h *Handler) storeBackground(ctx context.Context, filename string, file io.Reader, contentType string) (string, error) {
	now := time.Now().UTC()
	ext := strings.ToLower(filepath.Ext(filename))
	path := fmt.Sprintf("backgrounds/%04d/%02d/%s%s", now.Year(), now.Month(), uuid.New().String()[:8], ext)

	opts := &storage.PutOptions{
		ContentType: contentType,
	}
	if err := h.storage.Put(ctx, path, file, opts); err != nil {
		return "", fmt.Errorf("failed to upload background: %w", err)
	}
	return path, nil
}
