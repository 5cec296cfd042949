package http

import (
	"encoding/json"
	"net/url"
	"strconv"

	"data-playground/internal/playground/usecase"
	sharedErrors "data-playground/internal/shared/errors"
	"data-playground/internal/shared/logger"
	"data-playground/internal/shared/response"
	"data-playground/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
)

// CollectionHTTPHandler serves /api/collections
type CollectionHTTPHandler struct {
	usecase usecase.PlaygroundUsecaseInterface
	log     logger.Logger
}

// NewCollectionHTTPHandler creates a new collection handler
func NewCollectionHTTPHandler(uc usecase.PlaygroundUsecaseInterface, log logger.Logger) *CollectionHTTPHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &CollectionHTTPHandler{usecase: uc, log: log.WithComponent("collections_http")}
}

// RegisterRoutes mounts the collection API under router. Every route runs
// behind protect.
func (h *CollectionHTTPHandler) RegisterRoutes(router fiber.Router, protect fiber.Handler) {
	collections := router.Group("/collections", protect)

	collections.Get("/", h.ListCollections)
	collections.Post("/", h.CreateCollection)
	collections.Get("/:id", h.GetCollection)
	collections.Put("/:id", h.UpdateCollection)
	collections.Delete("/:id", h.DeleteCollection)

	collections.Get("/:id/entries", h.ListEntries)
	collections.Post("/:id/entries", h.AddEntry)
	collections.Put("/:id/entries/:index", h.UpdateEntry)
	collections.Delete("/:id/entries/:index", h.DeleteEntry)

	collections.Get("/:id/share", h.ListShares)
	collections.Post("/:id/share", h.ShareCollection)
	collections.Delete("/:id/share/:email", h.RemoveShare)

	collections.Get("/:id/activity", h.RecentActivity)
}

// collectionID returns a copy of :id. Params alias the request buffer,
// which is reused once the handler returns, and the id ends up in
// published events.
func collectionID(c *fiber.Ctx) string {
	return fiberutils.CopyString(c.Params("id"))
}

// tagRequest puts the operation name and :id on the request context for
// logging
func tagRequest(c *fiber.Ctx, operation string) {
	ctx := utils.WithOperation(c.UserContext(), operation)
	if id := collectionID(c); id != "" {
		ctx = utils.WithCollectionID(ctx, id)
	}
	c.SetUserContext(ctx)
}

func badBody() error {
	return sharedErrors.NewValidationError("invalid request body")
}

// entryIndex parses :index. Anything that is not an integer addresses no entry.
func entryIndex(c *fiber.Ctx) (int, error) {
	raw := c.Params("index")
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, sharedErrors.NewNotFoundError("entry").
			WithCause(sharedErrors.ErrEntryNotFound).
			WithDetail("index", raw)
	}
	return i, nil
}

// ListCollections handles GET /collections
func (h *CollectionHTTPHandler) ListCollections(c *fiber.Ctx) error {
	tagRequest(c, "collections.list")
	res, err := h.usecase.ListCollections(c.UserContext(), usecase.ListRequest{
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 0),
		Search: c.Query("search"),
	})
	if err != nil {
		return response.Error(c, h.log, err)
	}
	return response.OK(c, fiber.Map{
		"collections": res.Collections,
		"pagination":  res.Pagination,
	})
}

// CreateCollection handles POST /collections
func (h *CollectionHTTPHandler) CreateCollection(c *fiber.Ctx) error {
	tagRequest(c, "collections.create")
	var req usecase.CreateCollectionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, h.log, badBody())
	}
	collection, err := h.usecase.CreateCollection(c.UserContext(), req)
	if err != nil {
		return response.Error(c, h.log, err)
	}
	return response.Created(c, fiber.Map{"collection": collection})
}

// GetCollection handles GET /collections/:id
func (h *CollectionHTTPHandler) GetCollection(c *fiber.Ctx) error {
	tagRequest(c, "collections.get")
	view, err := h.usecase.GetCollection(c.UserContext(), collectionID(c))
	if err != nil {
		return response.Error(c, h.log, err)
	}
	return response.OK(c, fiber.Map{"collection": view})
}

// UpdateCollection handles PUT /collections/:id
func (h *CollectionHTTPHandler) UpdateCollection(c *fiber.Ctx) error {
	tagRequest(c, "collections.update")
	var req usecase.UpdateCollectionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, h.log, badBody())
	}
	view, err := h.usecase.UpdateCollection(c.UserContext(), collectionID(c), req)
	if err != nil {
		return response.Error(c, h.log, err)
	}
	return response.OK(c, fiber.Map{"collection": view})
}

// DeleteCollection handles DELETE /collections/:id
func (h *CollectionHTTPHandler) DeleteCollection(c *fiber.Ctx) error {
	tagRequest(c, "collections.delete")
	if err := h.usecase.DeleteCollection(c.UserContext(), collectionID(c)); err != nil {
		return response.Error(c, h.log, err)
	}
	return response.OK(c, fiber.Map{"message": "collection deleted"})
}

// ListEntries handles GET /collections/:id/entries?filter=
func (h *CollectionHTTPHandler) ListEntries(c *fiber.Ctx) error {
	tagRequest(c, "entries.list")
	entries, err := h.usecase.ListEntries(c.UserContext(), collectionID(c), c.Query("filter"))
	if err != nil {
		return response.Error(c, h.log, err)
	}
	return response.OK(c, fiber.Map{
		"entries": entries,
		"total":   len(entries),
	})
}

func entryBody(c *fiber.Ctx) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(c.Body(), &raw); err != nil || raw == nil {
		return nil, badBody()
	}
	return raw, nil
}

// AddEntry handles POST /collections/:id/entries
func (h *CollectionHTTPHandler) AddEntry(c *fiber.Ctx) error {
	tagRequest(c, "entries.add")
	raw, err := entryBody(c)
	if err != nil {
		return response.Error(c, h.log, err)
	}
	res, err := h.usecase.AddEntry(c.UserContext(), collectionID(c), raw)
	if err != nil {
		return response.Error(c, h.log, err)
	}
	return response.Created(c, fiber.Map{"index": res.Index, "entry": res.Entry})
}

// UpdateEntry handles PUT /collections/:id/entries/:index
func (h *CollectionHTTPHandler) UpdateEntry(c *fiber.Ctx) error {
	tagRequest(c, "entries.update")
	index, err := entryIndex(c)
	if err != nil {
		return response.Error(c, h.log, err)
	}
	raw, err := entryBody(c)
	if err != nil {
		return response.Error(c, h.log, err)
	}
	res, err := h.usecase.UpdateEntry(c.UserContext(), collectionID(c), index, raw)
	if err != nil {
		return response.Error(c, h.log, err)
	}
	return response.OK(c, fiber.Map{"index": res.Index, "entry": res.Entry})
}

// DeleteEntry handles DELETE /collections/:id/entries/:index
func (h *CollectionHTTPHandler) DeleteEntry(c *fiber.Ctx) error {
	tagRequest(c, "entries.delete")
	index, err := entryIndex(c)
	if err != nil {
		return response.Error(c, h.log, err)
	}
	if err := h.usecase.DeleteEntry(c.UserContext(), collectionID(c), index); err != nil {
		return response.Error(c, h.log, err)
	}
	return response.OK(c, fiber.Map{"message": "entry deleted"})
}

// ListShares handles GET /collections/:id/share
func (h *CollectionHTTPHandler) ListShares(c *fiber.Ctx) error {
	tagRequest(c, "shares.list")
	shares, err := h.usecase.ListShares(c.UserContext(), collectionID(c))
	if err != nil {
		return response.Error(c, h.log, err)
	}
	return response.OK(c, fiber.Map{"sharedWith": shares})
}

// ShareCollection handles POST /collections/:id/share
func (h *CollectionHTTPHandler) ShareCollection(c *fiber.Ctx) error {
	tagRequest(c, "shares.upsert")
	var req usecase.ShareRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, h.log, badBody())
	}
	share, err := h.usecase.ShareCollection(c.UserContext(), collectionID(c), req)
	if err != nil {
		return response.Error(c, h.log, err)
	}
	return response.OK(c, fiber.Map{"share": share})
}

// RemoveShare handles DELETE /collections/:id/share/:email
func (h *CollectionHTTPHandler) RemoveShare(c *fiber.Ctx) error {
	tagRequest(c, "shares.remove")
	email, err := url.PathUnescape(fiberutils.CopyString(c.Params("email")))
	if err != nil {
		return response.Error(c, h.log, sharedErrors.NewNotFoundError("share").WithCause(sharedErrors.ErrShareNotFound))
	}
	if err := h.usecase.RemoveShare(c.UserContext(), collectionID(c), email); err != nil {
		return response.Error(c, h.log, err)
	}
	return response.OK(c, fiber.Map{"message": "share removed"})
}

// RecentActivity handles GET /collections/:id/activity?limit=
func (h *CollectionHTTPHandler) RecentActivity(c *fiber.Ctx) error {
	tagRequest(c, "activity.recent")
	events, err := h.usecase.RecentActivity(c.UserContext(), collectionID(c), int64(c.QueryInt("limit", 0)))
	if err != nil {
		return response.Error(c, h.log, err)
	}
	return response.OK(c, fiber.Map{"activity": events})
}
