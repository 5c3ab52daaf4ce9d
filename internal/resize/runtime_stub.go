//go:build !govips || !cgo

package resize

func Startup() error {
	return nil
}

func Shutdown() {}

func newLanczosResampler() Resampler {
	return lanczosResampler{}
}
