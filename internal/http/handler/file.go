package handler

import (
	"errors"
	"mime"
	"net/url"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"materialapi/internal/model"
	"materialapi/internal/service"
)

// dataEnvelope wraps response payloads the way the LMS clients expect:
// the useful part always sits under "data".
type dataEnvelope struct {
	Data any `json:"data"`
}

type completeUploadRequest struct {
	Key          string  `json:"key"`
	Name         string  `json:"name"`
	Size         int64   `json:"size"`
	Type         string  `json:"type"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Index        int     `json:"index"`
	Active       bool    `json:"active"`
	Duration     float64 `json:"duration"`
	ThumbnailKey string  `json:"thumbnailKey"`
	OwnerID      string  `json:"ownerId"`
	OwnerType    string  `json:"ownerType"`
}

type downloadRequest struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// GrantUpload issues a presigned PUT URL and storage key for a pending upload.
//
// GET /api/v2/file/upload/:fileName?ownerId=&memberType=&userId=
func GrantUpload(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileName, err := decodeParam(c, "fileName")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FILE_NAME", "invalid file name")
		}
		ownerID := c.Query("ownerId")
		ownerType := model.OwnerType(c.Query("memberType"))
		userID := c.Query("userId")

		grant, err := svc.GrantUpload(c.UserContext(), fileName, ownerID, ownerType, userID)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrFileNameRequired):
				return writeError(c, fiber.StatusBadRequest, "FILE_NAME_REQUIRED", "file name is required")
			case errors.Is(err, service.ErrOwnerRequired), errors.Is(err, service.ErrInvalidOwnerType):
				return writeError(c, fiber.StatusBadRequest, "INVALID_OWNER", "valid ownerId and memberType are required")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(dataEnvelope{Data: grant})
	}
}

// CompleteUpload registers an uploaded binary's metadata and returns its id.
//
// POST /api/v2/file/upload/complete
func CompleteUpload(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req completeUploadRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		stored, err := svc.CompleteUpload(c.UserContext(), service.CompleteUploadInput{
			Key:          req.Key,
			Name:         req.Name,
			Size:         req.Size,
			Category:     model.Category(req.Type),
			Width:        req.Width,
			Height:       req.Height,
			Duration:     req.Duration,
			Position:     req.Index,
			Active:       req.Active,
			ThumbnailKey: req.ThumbnailKey,
			OwnerID:      req.OwnerID,
			OwnerType:    model.OwnerType(req.OwnerType),
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrKeyRequired):
				return writeError(c, fiber.StatusBadRequest, "KEY_REQUIRED", "storage key is required")
			case errors.Is(err, service.ErrFileNameRequired):
				return writeError(c, fiber.StatusBadRequest, "FILE_NAME_REQUIRED", "file name is required")
			case errors.Is(err, service.ErrOwnerRequired), errors.Is(err, service.ErrInvalidOwnerType):
				return writeError(c, fiber.StatusBadRequest, "INVALID_OWNER", "valid ownerId and ownerType are required")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(dataEnvelope{Data: fiber.Map{"id": stored.ID}})
	}
}

// DownloadFile streams the binary stored under the requested key.
//
// POST /api/v2/file/download   body: {key, name?}
func DownloadFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req downloadRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		name := req.Name
		return streamObject(c, svc, req.Key, name)
	}
}

// DownloadByKey streams the binary under the key given in the path. This is
// the endpoint thumbnail URLs resolve against. With ?presign=true the
// response is a redirect to a time-limited storage URL instead of a stream,
// so large binaries bypass this service.
//
// GET /api/v2/file/download/*
func DownloadByKey(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, err := decodeParam(c, "*")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_KEY", "invalid storage key")
		}
		if c.QueryBool("presign") {
			url, err := svc.PresignDownload(c.UserContext(), key)
			if err != nil {
				if errors.Is(err, service.ErrKeyRequired) {
					return writeError(c, fiber.StatusBadRequest, "KEY_REQUIRED", "storage key is required")
				}
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
			return c.Redirect(url, fiber.StatusFound)
		}
		return streamObject(c, svc, key, "")
	}
}

func streamObject(c *fiber.Ctx, svc service.FileService, key, saveName string) error {
	rc, info, storedName, err := svc.Download(c.UserContext(), key)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrKeyRequired):
			return writeError(c, fiber.StatusBadRequest, "KEY_REQUIRED", "storage key is required")
		case errors.Is(err, service.ErrFileNotFound):
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
		}
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}

	if saveName == "" {
		saveName = storedName
	}
	ct := info.ContentType
	if ct == "" {
		ct = mime.TypeByExtension(filepath.Ext(saveName))
	}
	if ct == "" {
		ct = "application/octet-stream"
	}

	c.Set(fiber.HeaderContentType, ct)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+saveName+`"`)
	if info.Size >= 0 {
		return c.SendStream(rc, int(info.Size))
	}
	return c.SendStream(rc)
}

// decodeParam returns the (possibly percent-encoded) route parameter.
func decodeParam(c *fiber.Ctx, name string) (string, error) {
	raw := c.Params(name)
	if raw == "" {
		return "", nil
	}
	return url.PathUnescape(raw)
}
