// Package alsa captures audio from Linux ALSA PCM devices without cgo.
//
// The driver talks to /dev/snd/pcmC<card>D<device>c through the kernel's
// PCM ioctls: hardware parameters are narrowed with HW_REFINE, installed
// with HW_PARAMS and frames are pulled with READI_FRAMES. The device file
// descriptor doubles as the poll descriptor.
//
// The backend is built on Linux unless the noalsa build tag is set; check
// Available before opening a device.
//
//	if !alsa.Available() {
//	    return alsa.ErrUnavailable
//	}
//	pcm, err := alsa.Driver{}.Open("hw:1,0")
package alsa
