package capture

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// ErrNoCaptureDevice is returned when the camera cannot be opened.
var ErrNoCaptureDevice = errors.New("no capture device")

// FrameSource produces BGR frames. The caller owns and closes each frame.
type FrameSource interface {
	Next() (gocv.Mat, error)
	Close() error
}

// Opener opens a frame source for a device id.
type Opener func(deviceID int) (FrameSource, error)

// Camera reads frames from a local video device.
type Camera struct {
	deviceID int
	webcam   *gocv.VideoCapture
}

// OpenCamera opens device deviceID. Any failure is reported as ErrNoCaptureDevice.
func OpenCamera(deviceID int) (FrameSource, error) {
	webcam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrNoCaptureDevice, deviceID, err)
	}
	if !webcam.IsOpened() {
		webcam.Close()
		return nil, fmt.Errorf("%w: device %d", ErrNoCaptureDevice, deviceID)
	}
	return &Camera{deviceID: deviceID, webcam: webcam}, nil
}

func (c *Camera) Next() (gocv.Mat, error) {
	img := gocv.NewMat()

	if ok := c.webcam.Read(&img); !ok || img.Empty() {
		img.Close()
		return gocv.Mat{}, fmt.Errorf("cannot read camera device: %d", c.deviceID)
	}
	return img, nil
}

func (c *Camera) Close() error {
	return c.webcam.Close()
}
