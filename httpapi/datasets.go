package httpapi

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/datasets"
	"github.com/meikuraledutech/datasets/objstore"
)

// listQuery reads the shared list filters from the query string.
func listQuery(c fiber.Ctx) datasets.ListQuery {
	q := datasets.ListQuery{
		Search:  strings.TrimSpace(c.Query("search")),
		Format:  strings.TrimSpace(c.Query("format")),
		Network: strings.TrimSpace(c.Query("network")),
	}
	if raw := c.Query("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				q.Tags = append(q.Tags, tag)
			}
		}
	}
	q.Page, _ = strconv.Atoi(c.Query("page"))
	q.Limit, _ = strconv.Atoi(c.Query("limit"))
	return q.Normalize()
}

func (h *handler) list(c fiber.Ctx, q datasets.ListQuery) error {
	page, err := h.Store.ListDatasets(c.Context(), q)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"data":       page.Data,
		"pagination": page.Pagination,
	})
}

func (h *handler) listPublic(c fiber.Ctx) error {
	q := listQuery(c)
	q.PublicOnly = true
	q.Status = datasets.StatusApproved
	return h.list(c, q)
}

// visible loads a dataset only if the public may see it.
func (h *handler) visible(c fiber.Ctx) (*datasets.Dataset, error) {
	d, err := h.Store.GetDataset(c.Context(), c.Params("id"))
	if err != nil {
		return nil, err
	}
	if d == nil || !d.IsPublic || d.Status != datasets.StatusApproved {
		return nil, datasets.ErrDatasetNotFound
	}
	return d, nil
}

func (h *handler) getPublic(c fiber.Ctx) error {
	d, err := h.visible(c)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, fiber.StatusOK, d)
}

func (h *handler) fileURL(c fiber.Ctx) error {
	d, err := h.visible(c)
	if err != nil {
		return h.fail(c, err)
	}
	nodePath := strings.Trim(c.Query("path"), "/")
	if nodePath == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "path is required"})
	}
	n, found := d.FindNode(nodePath)
	if !found || !n.IsFile() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "file not found"})
	}
	if h.Objects == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "object storage not configured"})
	}

	url, err := h.Objects.PresignedURL(c.Context(), objstore.FileKey(d.ID, n.Path))
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"path":       n.Path,
		"name":       n.Name,
		"type":       n.Type,
		"size":       n.Size,
		"cid":        n.CID,
		"media_type": n.MediaType,
		"url":        url,
	})
}

func (h *handler) manifestURL(c fiber.Ctx) error {
	d, err := h.visible(c)
	if err != nil {
		return h.fail(c, err)
	}
	if d.ManifestFile == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "manifest file not stored"})
	}
	if h.Objects == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "object storage not configured"})
	}

	if raw, _ := strconv.ParseBool(c.Query("raw")); raw {
		data, err := h.Objects.Get(c.Context(), d.ManifestFile)
		if err != nil {
			return h.fail(c, err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", path.Base(d.ManifestFile)))
		return c.Send(data)
	}

	url, err := h.Objects.PresignedURL(c.Context(), d.ManifestFile)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"manifestFile": d.ManifestFile, "url": url})
}
