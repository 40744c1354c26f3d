package drm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// EventType identifies a record on the device event stream.
type EventType uint32

// Event types, from <drm/drm.h>.
const (
	EventVBlank       EventType = 0x01
	EventFlipComplete EventType = 0x02
	EventCRTCSequence EventType = 0x03
)

func (t EventType) String() string {
	switch t {
	case EventVBlank:
		return "vblank"
	case EventFlipComplete:
		return "flip complete"
	case EventCRTCSequence:
		return "crtc sequence"
	default:
		return fmt.Sprintf("event 0x%02x", uint32(t))
	}
}

// Event is a vertical blank or page flip completion notification (struct
// drm_event_vblank). UserData echoes the token given to PageFlip.
type Event struct {
	Type      EventType
	UserData  uint64
	Timestamp time.Duration // CLOCK_MONOTONIC
	Sequence  uint32
	CRTCID    uint32
}

const (
	eventHeaderLen = 8
	eventVBlankLen = eventHeaderLen + 24
)

// ErrShortEvent is returned for a truncated event record.
var ErrShortEvent = errors.New("drm: short event record")

// ReadEvents blocks until the device has events pending and decodes them.
//
// Only the owner of the device should read its events; a flip requested
// through one Card is reported on that Card only.
func (c *Card) ReadEvents() ([]Event, error) {
	buf := make([]byte, 1024)
	n, err := c.f.Read(buf)
	if err != nil {
		return nil, err
	}
	return ParseEvents(buf[:n])
}

// ParseEvents decodes a buffer read from a device node. Records of types it
// does not know are skipped.
func ParseEvents(b []byte) ([]Event, error) {
	var events []Event
	for len(b) > 0 {
		if len(b) < eventHeaderLen {
			return events, ErrShortEvent
		}
		typ := EventType(binary.NativeEndian.Uint32(b[0:]))
		size := int(binary.NativeEndian.Uint32(b[4:]))
		if size < eventHeaderLen || size > len(b) {
			return events, ErrShortEvent
		}

		switch typ {
		case EventVBlank, EventFlipComplete:
			if size < eventVBlankLen {
				return events, ErrShortEvent
			}
			var (
				sec  = binary.NativeEndian.Uint32(b[16:])
				usec = binary.NativeEndian.Uint32(b[20:])
			)
			events = append(events, Event{
				Type:      typ,
				UserData:  binary.NativeEndian.Uint64(b[8:]),
				Timestamp: time.Duration(sec)*time.Second + time.Duration(usec)*time.Microsecond,
				Sequence:  binary.NativeEndian.Uint32(b[24:]),
				CRTCID:    binary.NativeEndian.Uint32(b[28:]),
			})
		}
		b = b[size:]
	}
	return events, nil
}
