package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/photonicat/simply_analog/internal/face"
	"github.com/photonicat/simply_analog/internal/logger"
)

func serveFrame(w *Watchface) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := w.FramePNG()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to encode image")
		}
		c.Set("Content-Type", "image/png")
		c.Set("Content-Length", strconv.Itoa(len(data)))
		return c.Send(data)
	}
}

func serveScene(w *Watchface) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(w.Scene())
	}
}

func serveConfig(w *Watchface) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(w.Record())
	}
}

// updateConfig accepts a companion message as a JSON object.
func updateConfig(w *Watchface) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reply := handleConfigMessage(w, c.Body())
		if reply.Error != "" {
			status := fiber.StatusInternalServerError
			if reply.badRequest {
				status = fiber.StatusBadRequest
			}
			return c.Status(status).JSON(reply)
		}
		return c.JSON(reply)
	}
}

func resetConfig(w *Watchface) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rec, err := w.Reset()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(configReply{Error: err.Error()})
		}
		return c.JSON(configReply{Revision: rec.Revision})
	}
}

func serveIcon(c *fiber.Ctx) error {
	tone := parseToneParam(c.Query("tone"))
	data, err := glyphSVG(c.Params("name"), tone)
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString(err.Error())
	}
	c.Set("Content-Type", "image/svg+xml")
	return c.Send(data)
}

func serveBatteryHistory(hist *BatteryHistory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(hist.Samples())
	}
}

// serveBatteryGraph plots the battery history in the current face colors.
func serveBatteryGraph(w *Watchface, hist *BatteryHistory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc := w.Scene()
		img := image.NewRGBA(image.Rect(0, 0, GRAPH_WIDTH, GRAPH_HEIGHT))
		clearFrame(img, sc.Background.RGBA())
		drawBatteryGraph(img, face.Rect{X: 0, Y: 0, W: GRAPH_WIDTH, H: GRAPH_HEIGHT}, hist.Samples(),
			w.Config().LowBatteryThresholdPercent, face.Legible(sc.Background).RGBA(), face.ChromeYellow.RGBA())

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to encode image")
		}
		c.Set("Content-Type", "image/png")
		return c.Send(buf.Bytes())
	}
}

func healthz(w *Watchface) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"display": w.Display(),
			"sensors": w.Sensors(),
		})
	}
}

func newHTTPApp(w *Watchface, hist *BatteryHistory) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get("/frame", serveFrame(w))
	app.Get("/scene", serveScene(w))
	app.Get("/config", serveConfig(w))
	app.Post("/config", updateConfig(w))
	app.Delete("/config", resetConfig(w))
	app.Get("/icon/:name", serveIcon)
	app.Get("/battery", serveBatteryHistory(hist))
	app.Get("/battery/graph", serveBatteryGraph(w, hist))
	app.Get("/healthz", healthz(w))
	app.Get("/metrics", adaptor.HTTPHandler(metricsHandler()))
	return app
}

// httpServer serves until ctx is done.
func httpServer(ctx context.Context, addr string, w *Watchface, hist *BatteryHistory) error {
	app := newHTTPApp(w, hist)
	go func() {
		<-ctx.Done()
		if err := app.Shutdown(); err != nil {
			logger.Warn("http shutdown", "err", err)
		}
	}()
	logger.Info("starting fiber server", "addr", addr)
	return app.Listen(addr)
}
