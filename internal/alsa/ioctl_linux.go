//go:build linux && !noalsa

package alsa

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// xferi mirrors struct snd_xferi.
type xferi struct {
	result int
	buf    unsafe.Pointer
	frames uint
}

const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2
)

// ioc encodes a PCM ioctl request number the way _IOC does for type 'A'.
func ioc(dir, nr, size uintptr) uintptr {
	return dir<<30 | size<<16 | 'A'<<8 | nr
}

var (
	ioctlPVersion    = ioc(iocRead, 0x00, unsafe.Sizeof(int32(0)))
	ioctlHWRefine    = ioc(iocRead|iocWrite, 0x10, unsafe.Sizeof(hwParams{}))
	ioctlHWParams    = ioc(iocRead|iocWrite, 0x11, unsafe.Sizeof(hwParams{}))
	ioctlHWFree      = ioc(iocNone, 0x12, 0)
	ioctlPrepare     = ioc(iocNone, 0x40, 0)
	ioctlStart       = ioc(iocNone, 0x42, 0)
	ioctlDrop        = ioc(iocNone, 0x43, 0)
	ioctlReadIFrames = ioc(iocRead, 0x51, unsafe.Sizeof(xferi{}))
)

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
		switch errno {
		case 0:
			return nil
		case unix.EINTR:
			continue
		default:
			return errno
		}
	}
}
