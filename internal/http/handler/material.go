package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"materialapi/internal/model"
	"materialapi/internal/service"
)

type linkMaterialRequest struct {
	FileID       string `json:"fileId"`
	FileKey      string `json:"fileKey"`
	Title        string `json:"title"`
	FileName     string `json:"fileName"`
	FileSize     int64  `json:"fileSize"`
	FileType     string `json:"fileType"`
	ThumbnailURL string `json:"thumbnailUrl"`
	OwnerID      string `json:"ownerId"`
	OwnerType    string `json:"ownerType"`
}

func entityKind(c *fiber.Ctx) (model.EntityKind, error) {
	return model.ParseEntityKind(c.Params("entityKind"))
}

// LinkMaterial attaches a registered file to an entity as a material record.
//
// POST /api/v2/:entityKind/:entityId/materials
func LinkMaterial(svc service.MaterialService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		kind, err := entityKind(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ENTITY_KIND", "unknown entity kind")
		}
		var req linkMaterialRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		stored, err := svc.Link(c.UserContext(), kind, c.Params("entityId"), service.LinkMaterialInput{
			FileID:       req.FileID,
			FileKey:      req.FileKey,
			Title:        req.Title,
			FileName:     req.FileName,
			FileSize:     req.FileSize,
			FileType:     model.Category(req.FileType),
			ThumbnailURL: req.ThumbnailURL,
			OwnerID:      req.OwnerID,
			OwnerType:    model.OwnerType(req.OwnerType),
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrEntityRequired):
				return writeError(c, fiber.StatusBadRequest, "ENTITY_REQUIRED", "entity id is required")
			case errors.Is(err, service.ErrFileIDRequired):
				return writeError(c, fiber.StatusBadRequest, "FILE_ID_REQUIRED", "file id is required")
			case errors.Is(err, service.ErrFileKeyMismatch):
				return writeError(c, fiber.StatusBadRequest, "FILE_KEY_MISMATCH", "file key does not match the registered file")
			case errors.Is(err, service.ErrFileNotFound):
				return writeError(c, fiber.StatusNotFound, "FILE_NOT_FOUND", "file not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(stored)
	}
}

// ListMaterials returns the materials attached to an entity.
//
// GET /api/v2/:entityKind/:entityId/materials?limit=&offset=
func ListMaterials(svc service.MaterialService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		kind, err := entityKind(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ENTITY_KIND", "unknown entity kind")
		}
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), kind, c.Params("entityId"), limit, offset)
		if err != nil {
			if errors.Is(err, service.ErrEntityRequired) {
				return writeError(c, fiber.StatusBadRequest, "ENTITY_REQUIRED", "entity id is required")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// DeleteMaterial removes a material record from an entity. With ?purge=true
// the storage object is removed as well.
//
// DELETE /api/v2/:entityKind/:entityId/materials/:materialId
func DeleteMaterial(svc service.MaterialService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		kind, err := entityKind(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ENTITY_KIND", "unknown entity kind")
		}
		if err := svc.Delete(c.UserContext(), kind, c.Params("entityId"), c.Params("materialId"), c.QueryBool("purge")); err != nil {
			switch {
			case errors.Is(err, service.ErrIDRequired):
				return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "material id is required")
			case errors.Is(err, service.ErrMaterialNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "material not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
