package pipeline

import "github.com/rohanpai/fallwatch/internal/detector"

// Reference frame geometry the default thresholds are calibrated against.
const (
	ReferenceWidth  = 640
	ReferenceHeight = 480
)

// Thresholds holds the geometric constants used by the suspect filter and
// the fall confirmation logic. The defaults are calibrated to a 640x480
// frame; use Scaled to derive values for other resolutions.
type Thresholds struct {
	// NearCameraAreaPct is the box-to-frame area percentage above which a
	// tall box is treated as a person standing close to the camera.
	NearCameraAreaPct float64
	// NearCameraHeight is the minimum box height for the near-camera rule.
	NearCameraHeight float64
	// WideAspect is the aspect ratio above which a box reads as a body
	// lying sideways.
	WideAspect float64
	// LowCenterY is the vertical center below which a near-square box may
	// be a body lying with feet toward the camera.
	LowCenterY float64
	// SquareAspectMin and SquareAspectMax bound the "near-square" aspect
	// ratio window for the feet-toward-camera rule.
	SquareAspectMin float64
	SquareAspectMax float64
	// LowBottomY is the minimum box bottom for the feet-toward-camera rule.
	LowBottomY float64
	// CompressedHeight is the height below which a box low in the frame
	// reads as a vertically compressed lying body.
	CompressedHeight float64
	// CompressedBottomY is the minimum box bottom for the compressed rule.
	CompressedBottomY float64
	// HeadHipProximity is the pixel distance between nose height and mean
	// hip height below which a pose reads as collapsed.
	HeadHipProximity float64
}

// DefaultThresholds returns the reference thresholds for a 640x480 frame.
func DefaultThresholds() Thresholds {
	return Thresholds{
		NearCameraAreaPct: 50,
		NearCameraHeight:  250,
		WideAspect:        1.5,
		LowCenterY:        300,
		SquareAspectMin:   0.6,
		SquareAspectMax:   1.4,
		LowBottomY:        380,
		CompressedHeight:  180,
		CompressedBottomY: 360,
		HeadHipProximity:  20,
	}
}

// Scaled returns thresholds adjusted for a frame of the given dimensions.
// Vertical pixel constants scale with frame height; area percentages and
// aspect ratios are dimensionless and carry over unchanged.
func (t Thresholds) Scaled(frameWidth, frameHeight int) Thresholds {
	if frameHeight <= 0 || frameHeight == ReferenceHeight {
		return t
	}

	yScale := float64(frameHeight) / float64(ReferenceHeight)

	scaled := t
	scaled.NearCameraHeight = t.NearCameraHeight * yScale
	scaled.LowCenterY = t.LowCenterY * yScale
	scaled.LowBottomY = t.LowBottomY * yScale
	scaled.CompressedHeight = t.CompressedHeight * yScale
	scaled.CompressedBottomY = t.CompressedBottomY * yScale
	scaled.HeadHipProximity = t.HeadHipProximity * yScale
	return scaled
}

// IsSuspect decides whether a detection's geometry alone is consistent with
// a fallen posture and therefore warrants the expensive pose step. Pure and
// deterministic. Rules are evaluated in precedence order; the first
// applicable rule wins.
func (t Thresholds) IsSuspect(b detector.BoundingBox, frameWidth, frameHeight int) bool {
	height := b.Height()
	if height == 0 {
		return false
	}

	frameArea := float64(frameWidth) * float64(frameHeight)
	if frameArea <= 0 {
		return false
	}

	// Rule 1: a box filling most of the frame while still tall is a person
	// standing close to the camera, not lying down. Vetoes all later rules.
	boxPercentage := b.Area() / frameArea * 100
	if boxPercentage > t.NearCameraAreaPct && height > t.NearCameraHeight {
		return false
	}

	aspectRatio := b.AspectRatio()

	// Rule 2: wide, flat box means lying sideways.
	if aspectRatio > t.WideAspect {
		return true
	}

	// Rule 3: near-square box low in the frame means lying with feet
	// toward the camera.
	if b.CenterY() > t.LowCenterY &&
		aspectRatio > t.SquareAspectMin && aspectRatio < t.SquareAspectMax &&
		b.Y2 > t.LowBottomY {
		return true
	}

	// Rule 4: compressed vertical extent low in the frame.
	if height < t.CompressedHeight && b.Y2 > t.CompressedBottomY {
		return true
	}

	return false
}
