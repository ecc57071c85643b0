package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestTransformMatrixOrder(t *testing.T) {
	tr := TransformFromEuler(
		mgl32.Vec3{1, 2, 3},
		mgl32.Vec3{0, math.Pi / 2, 0},
		mgl32.Vec3{2, 2, 2},
	)
	// (1,0,0) scaled to (2,0,0), rotated 90° about Y to (0,0,-2), then translated.
	got := mgl32.TransformCoordinate(mgl32.Vec3{1, 0, 0}, tr.GetMatrix())
	assert.True(t, got.ApproxEqualThreshold(mgl32.Vec3{1, 2, 1}, 1e-5), "got %v", got)
}

func TestNewTransformIsIdentity(t *testing.T) {
	assert.True(t, NewTransform().GetMatrix().ApproxEqual(mgl32.Ident4()))
}
