package kms

import (
	"fmt"

	"github.com/BeatGlow/kms/drm"
)

// output is the connector, encoder and CRTC that drive the display.
type output struct {
	connector uint32
	encoder   uint32
	crtc      uint32
	pipe      int
	mode      drm.ModeInfo
}

func (o output) String() string {
	return fmt.Sprintf("connector %d encoder %d crtc %d (pipe %d) mode %s", o.connector, o.encoder, o.crtc, o.pipe, o.mode)
}

// chooseOutput picks the first connected connector, in enumeration order,
// that advertises a mode and has an encoder bound to a CRTC. The first
// advertised mode is used.
func chooseOutput(dev Device) (*output, error) {
	res, err := dev.Resources()
	if err != nil {
		return nil, newError("open", ErrDevice, err)
	}

	var out *output
	for _, id := range res.Connectors {
		connector, err := dev.Connector(id)
		if err != nil {
			debugf("connector %d: %v", id, err)
			continue
		}
		if connector.Connection != drm.Connected || len(connector.Modes) == 0 || connector.EncoderID == 0 {
			continue
		}

		encoder, err := dev.Encoder(connector.EncoderID)
		if err != nil {
			debugf("connector %d: encoder %d: %v", id, connector.EncoderID, err)
			continue
		}
		if encoder.CRTCID == 0 {
			continue
		}

		out = &output{
			connector: id,
			encoder:   encoder.ID,
			crtc:      encoder.CRTCID,
			mode:      connector.Modes[0],
		}
		break
	}
	if out == nil {
		return nil, newError("open", ErrNoOutput, nil)
	}

	// The pipe index is only used for hardware specific addressing; when the
	// CRTC is not listed it stays 0.
	for i, id := range res.CRTCs {
		if id == out.crtc {
			out.pipe = i
			break
		}
	}

	return out, nil
}
