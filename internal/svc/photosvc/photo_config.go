package photosvc

// PhotoConfig holds configuration parameters for the photo service.
type PhotoConfig struct {
	// MaxSize is the maximum accepted upload size in bytes. Default is 5MB.
	MaxSize int64 `env:"MAX_SIZE" default:"5242880"`

	// MaxWidth is the width wider photos are scaled down to
	MaxWidth int `env:"MAX_WIDTH" default:"512"`

	// Interpolator is the scaling algorithm ("nearestneighbor", "catmullrom", "bilinear", "approxbilinear")
	Interpolator string `env:"INTERPOLATOR" default:"catmullrom"`
}
