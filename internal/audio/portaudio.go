package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// framesPerBuffer is the hardware buffer period requested from PortAudio.
const framesPerBuffer = 512

type portAudioSource struct {
	stream *portaudio.Stream
}

// New creates a PortAudio-backed capture source.
func New() (Source, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &portAudioSource{}, nil
}

func (p *portAudioSource) Devices() ([]Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	defaultInput, _ := portaudio.DefaultInputDevice()

	result := make([]Device, 0, len(infos))
	for i, d := range infos {
		if d.MaxInputChannels == 0 {
			continue
		}
		result = append(result, Device{
			Index:             i,
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
			Default:           d == defaultInput,
		})
	}

	return result, nil
}

func (p *portAudioSource) Start(deviceIndex, sampleRate, channels int, fn FrameFunc) error {
	var device *portaudio.DeviceInfo
	if deviceIndex < 0 {
		var err error
		device, err = portaudio.DefaultInputDevice()
		if err != nil {
			return fmt.Errorf("failed to get default input device: %w", err)
		}
	} else {
		infos, err := portaudio.Devices()
		if err != nil {
			return fmt.Errorf("failed to enumerate devices: %w", err)
		}
		if deviceIndex >= len(infos) {
			return fmt.Errorf("device index %d out of range (have %d devices)", deviceIndex, len(infos))
		}
		device = infos[deviceIndex]
	}

	if device.MaxInputChannels < channels {
		return fmt.Errorf("device %q has %d input channels, %d requested",
			device.Name, device.MaxInputChannels, channels)
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: framesPerBuffer,
	}, func(in []int16, _ portaudio.StreamCallbackTimeInfo, sf portaudio.StreamCallbackFlags) {
		fn(in, flagsFrom(sf))
	})
	if err != nil {
		return fmt.Errorf("failed to open audio stream: %w", err)
	}

	p.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		p.stream = nil
		return fmt.Errorf("failed to start audio stream: %w", err)
	}

	return nil
}

func (p *portAudioSource) Stop() error {
	if p.stream != nil {
		return p.stream.Stop()
	}
	return nil
}

func (p *portAudioSource) Close() error {
	if p.stream != nil {
		p.stream.Close()
		p.stream = nil
	}
	return portaudio.Terminate()
}

func flagsFrom(sf portaudio.StreamCallbackFlags) Flags {
	var f Flags
	if sf&portaudio.InputOverflow != 0 {
		f |= FlagInputOverflow
	}
	if sf&portaudio.InputUnderflow != 0 {
		f |= FlagInputUnderflow
	}
	return f
}
