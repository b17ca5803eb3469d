// Package hostsdl is the desktop frame pump: it owns the SDL2 window,
// renderer, streaming texture, and audio device that cmd/nestrun drives
// each frame. Grounded on `_examples/arl-nestor/emu/window.go`'s
// sdl.Init/CreateWindow/PollEvent shape, but blits through the plain
// renderer+texture path rather than window.go's OpenGL shader pipeline:
// go-gl has no home anywhere else in this module (DESIGN.md), and the
// console's frame buffer is already a flat packed-RGB array with no need
// for a GPU shader stage.
package hostsdl

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"nescore/hw/controller"
	"nescore/internal/log"
)

const (
	screenWidth  = 256
	screenHeight = 240
)

// keymap mirrors the teacher's A/Z/E/R + arrow keys default binding
// (`_examples/arl-nestor/emu/screen.go`'s keymap), translated from Gio key
// names to SDL scancodes.
var keymap = map[sdl.Scancode]controller.Button{
	sdl.SCANCODE_A:     controller.A,
	sdl.SCANCODE_Z:     controller.B,
	sdl.SCANCODE_E:     controller.Select,
	sdl.SCANCODE_R:     controller.Start,
	sdl.SCANCODE_UP:    controller.Up,
	sdl.SCANCODE_DOWN:  controller.Down,
	sdl.SCANCODE_LEFT:  controller.Left,
	sdl.SCANCODE_RIGHT: controller.Right,
}

// InputEvent reports one edge-triggered controller change or a zapper
// update, consumed by cmd/nestrun's main loop to drive console.Console.
type InputEvent struct {
	Button   controller.Button
	Down     bool
	IsZapper bool
	ZapperX  int
	ZapperY  int
	// HasFireEdge distinguishes a mouse button press/release (ZapperFire is
	// meaningful) from a bare motion update (ZapperFire must be ignored).
	HasFireEdge bool
	ZapperFire  bool
	SaveState   bool
	LoadState   bool
	Quit        bool
}

// Window owns every piece of host-side I/O: the SDL window, a renderer
// blitting the console's frame buffer through a streaming texture, and an
// audio device queuing the console's resampled PCM.
type Window struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	audioDev sdl.AudioDeviceID

	pixels []byte // scratch RGBA8888 buffer reused across frames
}

// New creates the window and renderer, scaled up by factor from the
// console's native 256x240 resolution.
func New(title string, factor int) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO | sdl.INIT_JOYSTICK); err != nil {
		return nil, fmt.Errorf("hostsdl: init: %w", err)
	}

	window, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(screenWidth*factor), int32(screenHeight*factor),
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("hostsdl: create window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("hostsdl: create renderer: %w", err)
	}
	renderer.SetLogicalSize(screenWidth, screenHeight)

	// RGBA32 is SDL's endianness-adjusted alias that always lays pixels out
	// as R,G,B,A in memory, matching the byte order Blit writes below.
	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_RGBA32, sdl.TEXTUREACCESS_STREAMING, screenWidth, screenHeight)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("hostsdl: create texture: %w", err)
	}

	return &Window{
		window:   window,
		renderer: renderer,
		texture:  texture,
		pixels:   make([]byte, screenWidth*screenHeight*4),
	}, nil
}

// OpenAudio opens a queued-mode S16 stereo audio device at sampleRate,
// matching the console's configured Config.SampleRate.
func (w *Window) OpenAudio(sampleRate int) error {
	spec := &sdl.AudioSpec{
		Freq:     int32(sampleRate),
		Format:   sdl.AUDIO_S16SYS,
		Channels: 2,
		Samples:  1024,
	}
	dev, err := sdl.OpenAudioDevice("", false, spec, nil, 0)
	if err != nil {
		return fmt.Errorf("hostsdl: open audio device: %w", err)
	}
	w.audioDev = dev
	sdl.PauseAudioDevice(dev, false)
	return nil
}

// QueueAudio appends interleaved stereo S16 samples to the audio device's
// queue; it is a no-op if OpenAudio was never called (sound disabled).
func (w *Window) QueueAudio(samples []int16) error {
	if w.audioDev == 0 || len(samples) == 0 {
		return nil
	}
	return sdl.QueueAudio(w.audioDev, int16SliceToBytes(samples))
}

// Blit uploads the console's packed-RGB frame buffer into the streaming
// texture and presents it.
func (w *Window) Blit(frame *[screenWidth * screenHeight]uint32) error {
	for i, px := range frame {
		o := i * 4
		w.pixels[o+0] = byte(px >> 16) // R
		w.pixels[o+1] = byte(px >> 8)  // G
		w.pixels[o+2] = byte(px)       // B
		w.pixels[o+3] = 0xFF
	}
	if err := w.texture.Update(nil, w.pixels, screenWidth*4); err != nil {
		return fmt.Errorf("hostsdl: update texture: %w", err)
	}
	w.renderer.Clear()
	if err := w.renderer.Copy(w.texture, nil, nil); err != nil {
		return fmt.Errorf("hostsdl: copy texture: %w", err)
	}
	w.renderer.Present()
	return nil
}

// PollEvents drains the SDL event queue, translating keyboard and mouse
// state into the controller/zapper edges cmd/nestrun's loop applies to the
// console (spec §4.6's button_down/up and zapper_move/fire).
func (w *Window) PollEvents() []InputEvent {
	var out []InputEvent
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		switch e := ev.(type) {
		case *sdl.QuitEvent:
			out = append(out, InputEvent{Quit: true})

		case *sdl.KeyboardEvent:
			if e.Repeat != 0 {
				continue
			}
			down := e.State == sdl.PRESSED
			switch e.Keysym.Scancode {
			case sdl.SCANCODE_F5:
				if down {
					out = append(out, InputEvent{SaveState: true})
				}
				continue
			case sdl.SCANCODE_F7:
				if down {
					out = append(out, InputEvent{LoadState: true})
				}
				continue
			}
			btn, ok := keymap[e.Keysym.Scancode]
			if !ok {
				continue
			}
			out = append(out, InputEvent{Button: btn, Down: down})

		case *sdl.MouseMotionEvent:
			out = append(out, InputEvent{IsZapper: true, ZapperX: int(e.X), ZapperY: int(e.Y)})

		case *sdl.MouseButtonEvent:
			out = append(out, InputEvent{
				IsZapper:    true,
				ZapperX:     int(e.X),
				ZapperY:     int(e.Y),
				HasFireEdge: true,
				ZapperFire:  e.State == sdl.PRESSED,
			})

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_CLOSE {
				out = append(out, InputEvent{Quit: true})
			}
		}
	}
	return out
}

// Close releases every SDL resource the window owns.
func (w *Window) Close() {
	if w.audioDev != 0 {
		sdl.CloseAudioDevice(w.audioDev)
	}
	w.texture.Destroy()
	w.renderer.Destroy()
	w.window.Destroy()
	sdl.Quit()
	log.ModEmu.InfoZ("host window closed").End()
}

func int16SliceToBytes(s []int16) []byte {
	b := make([]byte, len(s)*2)
	for i, v := range s {
		b[i*2] = byte(v)
		b[i*2+1] = byte(v >> 8)
	}
	return b
}
