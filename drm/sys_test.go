//go:build amd64 || arm64

package drm

import (
	"testing"

	"github.com/BeatGlow/kms/internal/ioctl"
)

func TestIoctlCommands(t *testing.T) {
	tests := []struct {
		Name string
		Test ioctl.Command
		Want ioctl.Command
	}{
		{"SET_MASTER", ioctlSetMaster, 0x641e},
		{"DROP_MASTER", ioctlDropMaster, 0x641f},
		{"GET_CAP", ioctlGetCap, 0xc010640c},
		{"GEM_CLOSE", ioctlGemClose, 0x40086409},
		{"PRIME_HANDLE_TO_FD", ioctlPrimeHandleToFD, 0xc00c642d},
		{"PRIME_FD_TO_HANDLE", ioctlPrimeFDToHandle, 0xc00c642e},
		{"MODE_GETRESOURCES", ioctlModeGetResources, 0xc04064a0},
		{"MODE_GETCRTC", ioctlModeGetCrtc, 0xc06864a1},
		{"MODE_SETCRTC", ioctlModeSetCrtc, 0xc06864a2},
		{"MODE_SETGAMMA", ioctlModeSetGamma, 0xc02064a5},
		{"MODE_GETENCODER", ioctlModeGetEncoder, 0xc01464a6},
		{"MODE_GETCONNECTOR", ioctlModeGetConnector, 0xc05064a7},
		{"MODE_RMFB", ioctlModeRmFB, 0xc00464af},
		{"MODE_PAGE_FLIP", ioctlModePageFlip, 0xc01864b0},
		{"MODE_CREATE_DUMB", ioctlModeCreateDumb, 0xc02064b2},
		{"MODE_MAP_DUMB", ioctlModeMapDumb, 0xc01064b3},
		{"MODE_DESTROY_DUMB", ioctlModeDestroyDumb, 0xc00464b4},
		{"MODE_ADDFB2", ioctlModeAddFB2, 0xc06864b8},
		{"DMA_BUF_IOCTL_SYNC", ioctlDMABufSync, 0x40086200},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			if test.Test != test.Want {
				it.Errorf("expected %#08x, got %#08x (%s)", uintptr(test.Want), uintptr(test.Test), test.Test)
			}
		})
	}
}
