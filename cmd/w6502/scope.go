package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"github.com/veandco/go-sdl2/sdl"
	"github.com/wdc65c/w6502core/cpu"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// sample is one half-cycle's worth of pin state, the unit the scope
// renders a column of.
type sample struct {
	clk     bool
	address uint16
	rwb     bool
	sync    bool
	data    uint8
	present bool
}

// recorder accumulates samples as the core runs and renders them either
// to a live SDL window or, headless, to a PNG.
type recorder struct {
	samples []sample
}

// maxSamples bounds the scrolling window so a long run doesn't grow the
// waveform without limit; only the most recent window is ever drawn.
const maxSamples = 2048

func newRecorder() *recorder {
	return &recorder{}
}

func (r *recorder) sample(clk bool, out cpu.Outputs) {
	data, present := out.Data()
	r.samples = append(r.samples, sample{
		clk:     clk,
		address: out.Address(),
		rwb:     out.RWB(),
		sync:    out.Sync(),
		data:    data,
		present: present,
	})
	if len(r.samples) > maxSamples {
		r.samples = r.samples[len(r.samples)-maxSamples:]
	}
}

const (
	channelHeight = 40
	labelWidth    = 64
	rowGap        = 4
)

var channels = []string{"clk", "sync", "rwb", "address", "data"}

func (r *recorder) render(headless bool, scale int) error {
	if scale < 1 {
		scale = 1
	}
	w := labelWidth + len(r.samples)*scale
	h := len(channels) * (channelHeight + rowGap)
	if w == 0 || h == 0 {
		return fmt.Errorf("nothing recorded to render")
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	r.drawWaveform(img, scale)

	if headless {
		return writePNG(img, "w6502-scope.png")
	}
	return r.showWindow(img, scale)
}

func (r *recorder) drawWaveform(img *image.RGBA, scale int) {
	trace := color.RGBA{0x30, 0xE0, 0x30, 0xFF}
	label := color.RGBA{0xC0, 0xC0, 0xC0, 0xFF}

	for ci, name := range channels {
		top := ci * (channelHeight + rowGap)
		drawLabel(img, name, 4, top+channelHeight/2+4, label)
		for i, s := range r.samples {
			x := labelWidth + i*scale
			level := levelFor(name, s)
			y := top + channelHeight - int(level*float64(channelHeight-2)) - 1
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.Set(x+dx, y-dy, trace)
				}
			}
		}
	}
}

// levelFor maps a channel's value at s to a 0..1 plot height: digital
// pins are 0 or 1, address/data are normalized across their full range
// so the waveform shows relative movement rather than absolute value.
func levelFor(name string, s sample) float64 {
	switch name {
	case "clk":
		if s.clk {
			return 1
		}
		return 0
	case "sync":
		if s.sync {
			return 1
		}
		return 0
	case "rwb":
		if s.rwb {
			return 1
		}
		return 0
	case "address":
		return float64(s.address) / 0xFFFF
	case "data":
		if !s.present {
			return 0
		}
		return float64(s.data) / 0xFF
	default:
		return 0
	}
}

func drawLabel(img *image.RGBA, text string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func writePNG(img *image.RGBA, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	fmt.Printf("wrote scope snapshot to %s\n", path)
	return nil
}

// showWindow opens a live SDL window and blits img once.
func (r *recorder) showWindow(img *image.RGBA, scale int) error {
	var renderErr error
	sdl.Main(func() {
		sdl.Do(func() {
			if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
				renderErr = fmt.Errorf("init SDL: %w", err)
				return
			}
			defer sdl.Quit()

			b := img.Bounds()
			window, err := sdl.CreateWindow("w6502 scope", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
				int32(b.Dx()), int32(b.Dy()), sdl.WINDOW_SHOWN)
			if err != nil {
				renderErr = fmt.Errorf("create window: %w", err)
				return
			}
			defer window.Destroy()

			surface, err := window.GetSurface()
			if err != nil {
				renderErr = fmt.Errorf("get surface: %w", err)
				return
			}
			blit(surface, img)
			window.UpdateSurface()
			sdl.Delay(3000)
		})
	})
	return renderErr
}

func blit(surface *sdl.Surface, img *image.RGBA) {
	pixels := surface.Pixels()
	bpp := int(surface.Format.BytesPerPixel)
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bch, a := img.At(x, y).RGBA()
			i := y*int(surface.Pitch) + x*bpp
			pixels[i+0] = uint8(bch >> 8)
			pixels[i+1] = uint8(g >> 8)
			pixels[i+2] = uint8(r >> 8)
			pixels[i+3] = uint8(a >> 8)
		}
	}
}
