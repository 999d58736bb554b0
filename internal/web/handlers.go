package web

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"

	"go-vnicmap/internal/db"
	"go-vnicmap/internal/inventory"
	"go-vnicmap/internal/logging"
	"go-vnicmap/internal/models"
	"go-vnicmap/internal/report"
)

//go:embed templates/*.html
var templatesFS embed.FS

// MapFunc fetches both inventories of a target and correlates them.
type MapFunc func(ctx context.Context, t models.Target) (inventory.Snapshot, models.MappingResult, error)

// NewEngine returns the html engine over the embedded templates.
func NewEngine() *html.Engine {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}

// NewApp builds the fiber app with views and routes.
func NewApp(store *db.Store, mapTarget MapFunc, timeout time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:                 NewEngine(),
		DisableStartupMessage: true,
	})
	SetupRoutes(app, store, mapTarget, timeout)
	return app
}

func SetupRoutes(app *fiber.App, store *db.Store, mapTarget MapFunc, timeout time.Duration) {
	logger := logging.WithComponent("web")

	app.Get("/", func(c *fiber.Ctx) error {
		targets, err := store.ListTargets()
		if err != nil {
			return err
		}
		return c.Render("index", fiber.Map{
			"Targets": targets,
		})
	})

	// Per-target mapping, fetched on demand
	app.Get("/targets/:id", func(c *fiber.Ctx) error {
		target, err := lookupTarget(c, store)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		snap, result, err := mapTarget(ctx, target)
		if err != nil {
			logger.Error().Err(err).Str("target", target.Name).Msg("mapping failed")
			c.Status(fiber.StatusBadGateway)
			return c.Render("mapping", fiber.Map{
				"Target": target,
				"Error":  err.Error(),
			})
		}

		return c.Render("mapping", fiber.Map{
			"Target":      target,
			"Inventories": []report.Table{report.HostTable(snap.Host), report.VNICTable(snap.VNICs)},
			"Mappings":    report.MappingTables(result),
			"Diagnostics": report.DiagnosticTables(result),
		})
	})

	app.Get("/api/targets/:id/mapping", func(c *fiber.Ctx) error {
		target, err := lookupTarget(c, store)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		snap, result, err := mapTarget(ctx, target)
		if err != nil {
			logger.Error().Err(err).Str("target", target.Name).Msg("mapping failed")
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(report.Document{Host: snap.Host, VNICs: snap.VNICs, Mapping: result})
	})

	// Admin form
	app.Get("/admin", func(c *fiber.Ctx) error {
		targets, err := store.ListTargets()
		if err != nil {
			return err
		}
		return c.Render("admin", fiber.Map{
			"Targets": targets,
		})
	})

	// Handle form submit
	app.Post("/admin/add", func(c *fiber.Ctx) error {
		t := models.Target{
			Name:          c.FormValue("name"),
			ESXiHost:      c.FormValue("host"),
			ServerProfile: c.FormValue("profile"),
		}
		if t.Name == "" || t.ESXiHost == "" || t.ServerProfile == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name, host and profile are required")
		}
		if err := store.CreateTarget(&t); err != nil {
			return err
		}
		logger.Info().Str("target", t.Name).Str("host", t.ESXiHost).Msg("target added")
		return c.Redirect("/admin")
	})

	// Delete a target
	app.Post("/admin/delete/:id", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid target id")
		}
		if err := store.DeleteTarget(uint(id)); err != nil {
			return err
		}
		return c.Redirect("/admin")
	})
}

func lookupTarget(c *fiber.Ctx, store *db.Store) (models.Target, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return models.Target{}, fiber.NewError(fiber.StatusBadRequest, "invalid target id")
	}
	target, err := store.GetTarget(uint(id))
	if errors.Is(err, db.ErrTargetNotFound) {
		return models.Target{}, fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return target, err
}
