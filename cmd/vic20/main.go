// Command vic20 is an SDL front end for the machine package: it loads a
// ROM package (and optional cartridge), pumps the Machine's Tick loop,
// and blits the VIC's framebuffer to a window every frame. It follows
// vcs_main.go's structure closely: flag-driven setup, sdl.Main/sdl.Do
// for the thread-affine SDL calls, a pprof HTTP endpoint, and a
// fastImage adapter that writes pixels straight into the window
// surface's backing bytes instead of going through image/draw's
// generic (and much slower) per-pixel Convert path.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"net/http"
	_ "net/http/pprof"
	"strings"
	"sync"

	"golang.org/x/image/draw"

	"github.com/jmchacon/vic20/bus"
	"github.com/jmchacon/vic20/machine"
	"github.com/jmchacon/vic20/rom"
	"github.com/jmchacon/vic20/vic"
	"github.com/veandco/go-sdl2/sdl"
)

var (
	debug    = flag.Bool("debug", false, "Sets machine.Def.Debug; no debugging output is produced from it")
	rompack  = flag.String("rompack", "", "Path to the zipped ROM package (index.json + kernal/BASIC/character images)")
	cart     = flag.String("cart", "", "Path to a zipped ROM package whose cartridge entry autoboots instead of a BASIC keystroke boot (it must also hold the mandatory kernal/BASIC/character entries; raw cartridge images are not accepted)")
	mode     = flag.String("mode", "NTSC", "Either NTSC or PAL (case insensitive) to determine video timing")
	memModel = flag.String("mem", "unexpanded", "Memory expansion: unexpanded, 3k, 8k, 16k, 24k, 32k, 35k")
	scale    = flag.Int("scale", 2, "Scale factor to render the screen")
	port     = flag.Int("port", 6060, "Port to run the HTTP server for pprof")
	run      = flag.String("run", "RUN\r", "Keystrokes injected at the BASIC prompt when no cartridge is given")
)

// rgbaImage is a draw.Image backed by the VIC's ARGB framebuffer, wide
// enough for golang.org/x/image/draw to scale from without a copy into
// an intermediate image.RGBA.
type rgbaImage struct {
	w, h int
	fb   []uint32
}

func (r *rgbaImage) ColorModel() color.Model { return color.RGBAModel }
func (r *rgbaImage) Bounds() image.Rectangle { return image.Rect(0, 0, r.w, r.h) }
func (r *rgbaImage) At(x, y int) color.Color {
	px := r.fb[y*r.w+x]
	return color.RGBA{
		R: uint8(px >> 16), G: uint8(px >> 8), B: uint8(px), A: uint8(px >> 24),
	}
}

// fastImage is a draw.Image that writes straight into an SDL surface's
// pixel bytes, matching vcs_main.go's fastImage technique.
type fastImage struct {
	surface *sdl.Surface
	data    []byte
}

func (f *fastImage) ColorModel() color.Model { return f.surface.ColorModel() }
func (f *fastImage) Bounds() image.Rectangle { return f.surface.Bounds() }
func (f *fastImage) At(x, y int) color.Color { return f.surface.At(x, y) }
func (f *fastImage) Set(x, y int, c color.Color) {
	i := int32(y)*f.surface.Pitch + int32(x)*int32(f.surface.Format.BytesPerPixel)
	r, g, b, a := c.RGBA()
	f.data[i+0] = uint8(b >> 8)
	f.data[i+1] = uint8(g >> 8)
	f.data[i+2] = uint8(r >> 8)
	f.data[i+3] = uint8(a >> 8)
}

func parseModel(s string) (bus.Model, error) {
	switch strings.ToLower(s) {
	case "unexpanded", "":
		return bus.ModelUnexpanded, nil
	case "3k":
		return bus.ModelPlus3K, nil
	case "8k":
		return bus.ModelPlus8K, nil
	case "16k":
		return bus.ModelPlus16K, nil
	case "24k":
		return bus.ModelPlus24K, nil
	case "32k":
		return bus.ModelPlus32K, nil
	case "35k":
		return bus.ModelPlus35K, nil
	default:
		return bus.ModelUnexpanded, fmt.Errorf("unknown -mem value %q", s)
	}
}

func main() {
	flag.Parse()

	var std vic.Standard
	var pal bool
	switch strings.ToUpper(*mode) {
	case "NTSC":
		std = vic.NTSC
	case "PAL":
		std, pal = vic.PAL, true
	default:
		log.Fatalf("Invalid video mode %q - must be NTSC or PAL", *mode)
	}

	model, err := parseModel(*memModel)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if *rompack == "" {
		log.Fatalf("-rompack is required")
	}
	set, err := rom.Load(*rompack)
	if err != nil {
		log.Fatalf("Can't load ROM package: %v", err)
	}
	if *cart != "" {
		cartSet, err := rom.Load(*cart)
		if err != nil {
			log.Fatalf("Can't load cartridge: %v", err)
		}
		set.Cartridge = cartSet.Cartridge
	}

	go func() {
		log.Println(http.ListenAndServe(fmt.Sprintf("localhost:%d", *port), nil))
	}()

	m, err := machine.New(&machine.Def{Standard: std, Model: model, Debug: *debug})
	if err != nil {
		log.Fatalf("Can't init machine: %v", err)
	}
	if err := m.LoadROMs(set, pal); err != nil {
		log.Fatalf("Can't load ROMs: %v", err)
	}
	keystrokes := ""
	if set.Cartridge == nil {
		keystrokes = *run
	}
	m.BootBASIC(keystrokes)

	w, h := m.VIC.ScreenWidth(), m.VIC.ScreenHeight()
	src := &rgbaImage{w: w, h: h, fb: m.VIC.Framebuffer()}

	var window *sdl.Window
	fi := &fastImage{}

	sdl.Main(func() {
		var wg sync.WaitGroup
		wg.Add(1)
		sdl.Do(func() {
			if err := sdl.Init(sdl.INIT_EVERYTHING); err != nil {
				log.Fatalf("Can't init SDL: %v", err)
			}
			var err error
			window, err = sdl.CreateWindow("vic20", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
				int32(w**scale), int32(h**scale), sdl.WINDOW_SHOWN)
			if err != nil {
				log.Fatalf("Can't create window: %v", err)
			}
			fi.surface, err = window.GetSurface()
			if err != nil {
				log.Fatalf("Can't get window surface: %v", err)
			}
			fi.data = fi.surface.Pixels()
			wg.Done()
		})
		wg.Wait()
		defer func() {
			window.Destroy()
			sdl.Quit()
		}()

		stop := make(chan struct{})
		if err := m.RunRealtime(stop, func() {
			sdl.Do(func() {
				draw.NearestNeighbor.Scale(fi, fi.Bounds(), src, src.Bounds(), draw.Over, nil)
				window.UpdateSurface()
			})
		}); err != nil {
			log.Fatalf("Tick error: %v", err)
		}
	})
}
