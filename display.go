package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/devices/v3/waveshare2in13v2"
	"periph.io/x/host/v3"
)

// Panel is where finished frames end up.
type Panel interface {
	Name() string
	Bounds() image.Rectangle
	// Mono panels can only show two colors.
	Mono() bool
	Send(frame *image.RGBA) error
	Halt() error
}

// openPanel initializes the board and opens the panel named in cfg. Hardware
// panels report their own bounds; the headless panel uses the configured size.
func openPanel(cfg Config) (Panel, error) {
	if cfg.Panel == PANEL_HEADLESS {
		return newHeadlessPanel(cfg.Width, cfg.Height), nil
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}

	switch cfg.Panel {
	case PANEL_SSD1306:
		bus, err := i2creg.Open(cfg.I2CBus)
		if err != nil {
			return nil, fmt.Errorf("open i2c bus %q: %w", cfg.I2CBus, err)
		}
		return newOLEDPanel(bus)
	case PANEL_EPD2IN13:
		port, err := spireg.Open(cfg.SPIPort)
		if err != nil {
			return nil, fmt.Errorf("open spi port %q: %w", cfg.SPIPort, err)
		}
		return newEPDPanel(port)
	}
	return nil, fmt.Errorf("unknown panel %q", cfg.Panel)
}

// headlessPanel keeps nothing; the latest frame is served over HTTP.
type headlessPanel struct {
	bounds image.Rectangle
}

func newHeadlessPanel(width, height int) *headlessPanel {
	return &headlessPanel{bounds: image.Rect(0, 0, width, height)}
}

func (p *headlessPanel) Name() string                 { return PANEL_HEADLESS }
func (p *headlessPanel) Bounds() image.Rectangle      { return p.bounds }
func (p *headlessPanel) Mono() bool                   { return false }
func (p *headlessPanel) Send(frame *image.RGBA) error { return nil }
func (p *headlessPanel) Halt() error                  { return nil }

type oledPanel struct {
	bus i2c.BusCloser
	dev *ssd1306.Dev
	buf *image1bit.VerticalLSB
}

func newOLEDPanel(bus i2c.BusCloser) (*oledPanel, error) {
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("ssd1306: %w", err)
	}
	return &oledPanel{bus: bus, dev: dev, buf: image1bit.NewVerticalLSB(dev.Bounds())}, nil
}

func (p *oledPanel) Name() string            { return PANEL_SSD1306 }
func (p *oledPanel) Bounds() image.Rectangle { return p.dev.Bounds() }
func (p *oledPanel) Mono() bool              { return true }

func (p *oledPanel) Send(frame *image.RGBA) error {
	draw.Draw(p.buf, p.buf.Bounds(), frame, frame.Bounds().Min, draw.Src)
	return p.dev.Draw(p.dev.Bounds(), p.buf, image.Point{})
}

func (p *oledPanel) Halt() error {
	err := p.dev.Halt()
	if cerr := p.bus.Close(); err == nil {
		err = cerr
	}
	return err
}

// epdPanel drives the 2.13" e-paper hat. The panel keeps its image without
// power, so unchanged frames are not sent at all.
type epdPanel struct {
	mu   sync.Mutex
	port spi.PortCloser
	dev  *waveshare2in13v2.Dev
	last []byte
}

func newEPDPanel(port spi.PortCloser) (*epdPanel, error) {
	dev, err := waveshare2in13v2.NewHat(port, &waveshare2in13v2.EPD2in13v2)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("waveshare2in13v2: %w", err)
	}
	if err := dev.Init(); err != nil {
		port.Close()
		return nil, fmt.Errorf("epd init: %w", err)
	}
	white := &image.Uniform{C: color.White}
	if err := dev.Draw(dev.Bounds(), white, image.Point{}); err != nil {
		port.Close()
		return nil, fmt.Errorf("epd clear: %w", err)
	}
	return &epdPanel{port: port, dev: dev}, nil
}

func (p *epdPanel) Name() string            { return PANEL_EPD2IN13 }
func (p *epdPanel) Bounds() image.Rectangle { return p.dev.Bounds() }
func (p *epdPanel) Mono() bool              { return true }

func (p *epdPanel) Send(frame *image.RGBA) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	img := image1bit.NewVerticalLSB(p.dev.Bounds())
	draw.Draw(img, img.Bounds(), frame, frame.Bounds().Min, draw.Src)
	if p.last != nil && bytes.Equal(p.last, img.Pix) {
		return nil
	}
	if err := p.dev.Draw(p.dev.Bounds(), img, image.Point{}); err != nil {
		return fmt.Errorf("epd draw: %w", err)
	}
	p.last = img.Pix
	return nil
}

func (p *epdPanel) Halt() error {
	err := p.dev.Halt()
	if cerr := p.port.Close(); err == nil {
		err = cerr
	}
	return err
}
