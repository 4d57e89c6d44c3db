package pipeline

import (
	"math"

	"github.com/rohanpai/fallwatch/internal/pose"
)

// ConfirmFall decides whether a suspect's pose belongs to a fallen person.
// Pure function. Two signals, either of which alone confirms:
//
//  1. The estimator classified the body as horizontal.
//  2. The nose sits within HeadHipProximity pixels of the mean hip height,
//     implying a collapsed posture regardless of reported orientation.
//
// A nil pose means "not confirmed", never "confirmed".
func (t Thresholds) ConfirmFall(p *pose.Result) bool {
	if p == nil {
		return false
	}

	if p.Orientation == pose.Horizontal {
		return true
	}

	nose, ok := p.Joint(pose.Nose)
	if !ok {
		return false
	}
	leftHip, ok := p.Joint(pose.LeftHip)
	if !ok {
		return false
	}
	rightHip, ok := p.Joint(pose.RightHip)
	if !ok {
		return false
	}

	hipY := (leftHip.Y + rightHip.Y) / 2
	return math.Abs(nose.Y-hipY) < t.HeadHipProximity
}
