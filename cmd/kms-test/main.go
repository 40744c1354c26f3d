package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"os/signal"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/kms"
	"github.com/BeatGlow/kms/draw"
	"github.com/BeatGlow/kms/drm"
	"github.com/BeatGlow/kms/gpu"
)

func main() {
	deviceFlag := flag.String("device", "/dev/dri/card0", "Display device")
	gpuFlag := flag.String("gpu", "", "Render device (default: display device)")
	widthFlag := flag.Int("width", 0, "Surface width (default: fullscreen)")
	heightFlag := flag.Int("height", 0, "Surface height (default: fullscreen)")
	framesFlag := flag.Int("frames", 0, "Number of frames to show (default: until interrupted)")
	paletteFlag := flag.String("palette", "", "Palette file for the lut test (default: linear ramp)")
	blPinFlag := flag.String("bl", "", "Backlight GPIO pin")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] swap|flip|prime|render|lut\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	config := &kms.Config{
		Width:      *widthFlag,
		Height:     *heightFlag,
		Format:     kms.XRGB8888,
		Fullscreen: *widthFlag == 0 || *heightFlag == 0,
	}
	if *blPinFlag != "" {
		if _, err := host.Init(); err != nil {
			fatal(err)
		}
		if config.Backlight = gpioreg.ByName(*blPinFlag); config.Backlight == nil {
			fatal(fmt.Errorf("no such GPIO pin %q", *blPinFlag))
		}
	}

	test := flag.Arg(0)
	if test == "lut" {
		config.Format = kms.C8
	}

	screen, err := kms.OpenPath(*deviceFlag, config)
	if err != nil {
		fatal(err)
	}
	defer func() {
		if err := screen.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "close: "+err.Error())
		}
	}()
	fmt.Printf("using screen: %s\n", screen)
	refresh := screen.Mode().Refresh()
	fmt.Printf("using mode: %s (%s, %s per frame), connector %d, crtc %d (pipe %d)\n",
		screen.Mode(), refresh, refresh.Period(), screen.Connector(), screen.CRTC(), screen.Pipe())

	r := &runner{
		screen: screen,
		frames: *framesFlag,
		stop:   make(chan os.Signal, 1),
	}
	signal.Notify(r.stop, os.Interrupt)

	switch test {
	case "swap":
		err = r.swap()
	case "flip":
		err = r.flip()
	case "prime":
		err = r.prime(gpuPath(*gpuFlag, *deviceFlag))
	case "render":
		err = r.render(gpuPath(*gpuFlag, *deviceFlag))
	case "lut":
		err = r.lut(*paletteFlag)
	default:
		err = fmt.Errorf("unsupported test %q", test)
	}
	if err != nil {
		_ = screen.Close()
		fatal(err)
	}
}

func gpuPath(path, device string) string {
	if path == "" {
		return device
	}
	return path
}

type runner struct {
	screen *kms.Screen
	frames int
	stop   chan os.Signal
}

// next waits for the next frame, it returns false when done.
func (r *runner) next(frame int, wait time.Duration) bool {
	if r.frames > 0 && frame >= r.frames {
		return false
	}
	if frame == 0 {
		return true
	}
	select {
	case <-r.stop:
		return false
	case <-time.After(wait):
		return true
	}
}

var testColors = [2]color.Color{
	color.RGBA{R: 0xff, A: 0xff},
	color.RGBA{B: 0xff, A: 0xff},
}

// drawBack renders into the back surface of the flip chain.
func (r *runner) drawBack(f func(draw.Image)) error {
	back := r.screen.Back()
	m, err := back.Lock()
	if err != nil {
		return err
	}
	defer back.Unlock(m)

	img, err := back.Image(m, r.screen.Palette())
	if err != nil {
		return err
	}
	f(img)
	return nil
}

// swap alternates the flip chain between two colors with blocking mode-sets.
func (r *runner) swap() error {
	face := draw.Face(nil, 48)
	fmt.Println("hit control-c to stop...")
	for frame := 0; r.next(frame, time.Second); frame++ {
		err := r.drawBack(func(img draw.Image) {
			draw.Fill(img, img.Bounds(), testColors[frame&1])
			draw.CenterText(img, img.Bounds(), face, color.White, fmt.Sprintf("swap %d", frame))
		})
		if err != nil {
			return err
		}
		if err = r.screen.Swap(); err != nil {
			return err
		}
	}
	return nil
}

// flip page flips with a moving bar and waits for every completion event.
func (r *runner) flip() error {
	card, ok := r.screen.Device().(*drm.Card)
	if !ok {
		return errors.New("flip test needs a DRM device")
	}

	var (
		bounds = r.screen.Bounds()
		last   time.Duration
	)
	fmt.Printf("flipping at %s, hit control-c to stop...\n", r.screen.Mode().Refresh())
	for frame := 0; r.next(frame, 0); frame++ {
		x := frame * 8 % bounds.Dx()
		err := r.drawBack(func(img draw.Image) {
			draw.Fill(img, bounds, color.Black)
			draw.Box(img, image.Rect(x, 0, x+32, bounds.Dy()), color.White)
		})
		if err != nil {
			return err
		}
		if err = r.screen.Flip(uint64(frame)); err != nil {
			return err
		}

		events, err := card.ReadEvents()
		if err != nil {
			return err
		}
		for _, event := range events {
			if event.Type != drm.EventFlipComplete {
				continue
			}
			if event.UserData != uint64(frame) {
				return fmt.Errorf("flip %d completed as %d", frame, event.UserData)
			}
			if last > 0 && frame%60 == 0 {
				fmt.Printf("flip %d took %s\n", frame, event.Timestamp-last)
			}
			last = event.Timestamp
		}
	}
	return nil
}

// prime fills one exported buffer from the CPU through its DMA-BUF.
func (r *runner) prime(path string) error {
	adapter, err := gpu.Open(path)
	if err != nil {
		return err
	}
	defer adapter.Close()

	surface, err := adapter.NewSurface(r.screen.Width(), r.screen.Height(), kms.XRGB8888, gpu.Scanout)
	if err != nil {
		return err
	}
	defer surface.Destroy()

	if err = surface.SwapBuffers(); err != nil {
		return err
	}
	fb, err := surface.LockFrontBuffer()
	if err != nil {
		return err
	}
	defer surface.UnlockFrontBuffer(fb)

	imported, err := r.screen.ImportSurface(fb.Import())
	if err != nil {
		return err
	}
	defer imported.Destroy()
	defer r.screen.Swap()

	fmt.Printf("showing exported buffer fd %d as framebuffer %d\n", fb.FD, imported.ID)
	for frame := 0; r.next(frame, 5*time.Second); frame++ {
		if _, _, err = fb.Map(); err != nil {
			return err
		}
		img, err := fb.Image()
		if err != nil {
			_ = fb.Unmap()
			return err
		}
		img.Fill(testColors[frame&1])
		if err = fb.Unmap(); err != nil {
			return err
		}
		if err = r.screen.SwapTo(imported); err != nil {
			return err
		}
	}
	return nil
}

// render draws frames on the render device and shows them through import.
func (r *runner) render(path string) error {
	adapter, err := gpu.Open(path)
	if err != nil {
		return err
	}
	defer adapter.Close()

	surface, err := adapter.NewSurface(r.screen.Width(), r.screen.Height(), kms.XRGB8888, gpu.Scanout|gpu.Render)
	if err != nil {
		return err
	}
	defer surface.Destroy()

	var (
		face  = draw.Face(nil, 64)
		shown *kms.Surface
	)
	defer func() {
		_ = r.screen.Swap()
		_ = shown.Destroy()
	}()

	for frame := 0; r.next(frame, time.Second); frame++ {
		img, err := surface.Image()
		if err != nil {
			return err
		}
		img.Fill(testColors[frame&1])
		bounds := img.Bounds()
		draw.RoundedBox(img, bounds.Inset(bounds.Dy()/8), bounds.Dy()/16, color.Black)
		draw.CenterText(img, bounds, face, color.White, fmt.Sprintf("frame %d", frame))
		if err = surface.SwapBuffers(); err != nil {
			return err
		}

		fb, err := surface.LockFrontBuffer()
		if err != nil {
			return err
		}
		imported, err := r.screen.ImportSurface(fb.Import())
		if err != nil {
			_ = surface.UnlockFrontBuffer(fb)
			return err
		}
		if err = surface.UnlockFrontBuffer(fb); err != nil {
			return err
		}
		if err = r.screen.SwapTo(imported); err != nil {
			return errors.Join(err, imported.Destroy())
		}
		if err = shown.Destroy(); err != nil {
			return err
		}
		shown = imported
	}
	return nil
}

// lut shows index bars on a C8 screen through a loaded lookup table.
func (r *runner) lut(name string) error {
	lut := kms.LinearLUT(kms.LUTSize)
	if name != "" {
		var err error
		if lut, err = kms.LoadPalette(name); err != nil {
			return err
		}
	}
	if err := r.screen.LoadLUT(lut); err != nil {
		return err
	}

	// One pixel per index, scaled up to the screen.
	var (
		bounds = r.screen.Bounds()
		bars   = image.NewPaletted(image.Rect(0, 0, len(lut), max(1, len(lut)*bounds.Dy()/bounds.Dx())), r.screen.Palette())
	)
	for x := 0; x < bars.Rect.Dx(); x++ {
		for y := 0; y < bars.Rect.Dy(); y++ {
			bars.SetColorIndex(x, y, uint8(x))
		}
	}
	if err := r.screen.DrawScaled(bars, draw.Fast); err != nil {
		return err
	}

	fmt.Println("hit control-c to stop...")
	for frame := 0; r.next(frame, time.Second); frame++ {
	}
	return r.screen.Halt()
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
