package httpapi

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/meikuraledutech/datasets"
	"github.com/meikuraledutech/datasets/auth"
	"github.com/meikuraledutech/datasets/objstore"
	"github.com/sirupsen/logrus"
)

// uploadManifest ingests a multipart "manifest" file into a pending dataset.
func (h *handler) uploadManifest(c fiber.Ctx) error {
	fh, err := c.FormFile("manifest")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "manifest file is required"})
	}
	if fh.Size > int64(h.MaxManifestBytes) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "manifest file too large"})
	}

	network := strings.TrimSpace(c.FormValue("network"))
	if network == "" {
		network = h.DefaultNetwork
	}
	if !datasets.ValidNetwork(network) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("unknown network %q", network)})
	}

	f, err := fh.Open()
	if err != nil {
		return h.fail(c, fmt.Errorf("open upload: %w", err))
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, int64(h.MaxManifestBytes)+1))
	if err != nil {
		return h.fail(c, fmt.Errorf("read upload: %w", err))
	}
	if len(data) > h.MaxManifestBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "manifest file too large"})
	}

	log := h.log.WithField("upload", fh.Filename)
	d, err := datasets.Ingest(data, datasets.IngestOptions{Strict: h.StrictManifests, Logger: log})
	if err != nil {
		log.WithError(err).Warn("manifest rejected")
		return h.fail(c, err)
	}

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	existing, err := h.Store.GetDataset(c.Context(), d.ID)
	if err != nil {
		return h.fail(c, err)
	}
	if existing != nil {
		return h.fail(c, datasets.ErrDuplicateDataset)
	}

	d.Network = network
	if p := auth.PrincipalFrom(c); p != nil {
		d.CreatedBy = p.Name()
	}

	if h.Objects != nil {
		key := objstore.ManifestKey(d.ID, fh.Filename)
		if err := h.Objects.Put(c.Context(), key, data, "application/json"); err != nil {
			return h.fail(c, err)
		}
		d.ManifestFile = key
	}

	if _, err := h.Store.CreateDataset(c.Context(), d); err != nil {
		if d.ManifestFile != "" && !errors.Is(err, datasets.ErrDuplicateDataset) {
			h.removeObject(c, d.ManifestFile)
		}
		return h.fail(c, err)
	}

	log.WithFields(logrus.Fields{"id": d.ID, "network": d.Network}).Info("dataset created from manifest")
	return ok(c, fiber.StatusCreated, d)
}

func (h *handler) listAdmin(c fiber.Ctx) error {
	q := listQuery(c)
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		q.Status = datasets.Status(raw)
		if !q.Status.Valid() {
			return h.fail(c, datasets.ErrInvalidStatus)
		}
	}
	return h.list(c, q)
}

func (h *handler) getAdmin(c fiber.Ctx) error {
	d, err := h.Store.GetDataset(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	if d == nil {
		return h.fail(c, datasets.ErrDatasetNotFound)
	}
	return ok(c, fiber.StatusOK, d)
}

func (h *handler) updateDataset(c fiber.Ctx) error {
	var u datasets.Update
	if err := c.Bind().JSON(&u); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title cannot be empty"})
	}
	if u.Network != nil && !datasets.ValidNetwork(*u.Network) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("unknown network %q", *u.Network)})
	}

	d, err := h.Store.UpdateDataset(c.Context(), c.Params("id"), u)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, fiber.StatusOK, d)
}

func (h *handler) setStatus(status datasets.Status) fiber.Handler {
	return func(c fiber.Ctx) error {
		id := c.Params("id")
		if err := h.Store.SetStatus(c.Context(), id, status); err != nil {
			return h.fail(c, err)
		}
		h.log.WithFields(logrus.Fields{"id": id, "status": status}).Info("dataset reviewed")
		return ok(c, fiber.StatusOK, fiber.Map{"id": id, "status": status})
	}
}

func (h *handler) deleteDataset(c fiber.Ctx) error {
	id := c.Params("id")
	d, err := h.Store.GetDataset(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	if d == nil {
		return h.fail(c, datasets.ErrDatasetNotFound)
	}
	if err := h.Store.DeleteDataset(c.Context(), id); err != nil {
		return h.fail(c, err)
	}
	if d.ManifestFile != "" {
		h.removeObject(c, d.ManifestFile)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Dataset deleted successfully"})
}

// removeObject deletes key from object storage, logging instead of failing.
func (h *handler) removeObject(c fiber.Ctx, key string) {
	if h.Objects == nil {
		return
	}
	if err := h.Objects.Delete(c.Context(), key); err != nil {
		h.log.WithError(err).WithField("key", key).Warn("failed to remove stored object")
	}
}
